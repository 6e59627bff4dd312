package input

import (
	"bufio"
	"strconv"
	"sync"
	"time"
)

// PointerMapper converts a 1-based terminal cell to field coordinates.
// ok is false when the cell lies outside the drawn field.
type PointerMapper func(col, row int) (x, y float64, ok bool)

// Stream delivers input bytes via a channel and tracks key state for combinations.
type Stream struct {
	ch      chan byte
	tracker Tracker
	pending []byte
	closed  bool

	mu     sync.Mutex
	mapper PointerMapper
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream() *Stream {
	return &Stream{ch: make(chan byte, 256)}
}

// SetPointerMapper installs the mapping used for mouse reports.
// The renderer updates it whenever the terminal is resized.
func (s *Stream) SetPointerMapper(m PointerMapper) {
	s.mu.Lock()
	s.mapper = m
	s.mu.Unlock()
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// Poll drains all available bytes (non-blocking) and returns this tick's input.
func (s *Stream) Poll() Input {
	return s.pollAt(time.Now())
}

func (s *Stream) pollAt(now time.Time) Input {
	buf := s.pending
	s.pending = nil
	held := len(buf)

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	s.parse(buf, now, len(buf) > held)

	in := s.tracker.Snapshot(now)
	if s.closed {
		in.Quit = true
	}
	return in
}

// parse consumes buf. An incomplete trailing escape sequence is kept for the
// next poll; a trailing lone escape is only read as the Escape key once a poll
// brings no further bytes.
func (s *Stream) parse(buf []byte, now time.Time, fresh bool) {
	wait := fresh && !s.closed
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b != '\x1b' {
			s.tracker.Press(KeyForByte(b), now)
			continue
		}

		if i+1 >= len(buf) {
			if wait {
				s.pending = append(s.pending, b)
				return
			}
			s.tracker.Press(KeyMenu, now)
			continue
		}

		switch buf[i+1] {
		case '[':
			n, complete := s.parseCSI(buf[i+2:], now)
			if !complete {
				s.pending = append(s.pending, buf[i:]...)
				return
			}
			i += 1 + n
		case 'O':
			// SS3, sent for arrows in application cursor mode.
			if i+2 >= len(buf) {
				if wait {
					s.pending = append(s.pending, buf[i:]...)
					return
				}
				s.tracker.Press(KeyMenu, now)
				i++
				continue
			}
			s.tracker.Press(arrowKey(buf[i+2]), now)
			i += 2
		default:
			s.tracker.Press(KeyMenu, now)
		}
	}
}

// parseCSI handles the body of a control sequence after "ESC [": parameter
// bytes, intermediate bytes, then one final byte. It returns the number of
// body bytes consumed and whether the sequence was complete.
func (s *Stream) parseCSI(body []byte, now time.Time) (int, bool) {
	if len(body) == 0 {
		return 0, false
	}
	if body[0] == '<' {
		n, complete := s.parseMouse(body[1:])
		return 1 + n, complete
	}

	for j, c := range body {
		switch {
		case c >= 0x20 && c <= 0x3f:
		case c >= 0x40 && c <= 0x7e:
			s.tracker.Press(arrowKey(c), now)
			return j + 1, true
		default:
			// Not a control sequence; leave c to be read as a key.
			return j, true
		}
	}
	return 0, false
}

// arrowKey maps the final byte of a cursor key sequence to a direction.
func arrowKey(final byte) Key {
	switch final {
	case 'A':
		return KeyUp
	case 'B':
		return KeyDown
	case 'C':
		return KeyRight
	case 'D':
		return KeyLeft
	}
	return KeyNone
}

// parseMouse handles an SGR mouse report body "b;x;yM" or "b;x;ym".
// It returns the number of bytes consumed and whether the report was complete.
func (s *Stream) parseMouse(body []byte) (int, bool) {
	end := -1
	for j, c := range body {
		if c == 'M' || c == 'm' {
			end = j
			break
		}
		if (c < '0' || c > '9') && c != ';' {
			// Malformed report; skip what we have seen.
			return j, true
		}
	}
	if end < 0 {
		return 0, false
	}

	fields := splitSemicolons(body[:end])
	if len(fields) != 3 {
		return end + 1, true
	}
	button, err1 := strconv.Atoi(fields[0])
	col, err2 := strconv.Atoi(fields[1])
	row, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return end + 1, true
	}

	s.mu.Lock()
	mapper := s.mapper
	s.mu.Unlock()
	if mapper == nil {
		return end + 1, true
	}
	x, y, ok := mapper(col, row)
	if !ok {
		return end + 1, true
	}

	press := body[end] == 'M'
	motion := button&32 != 0
	wheel := button&64 != 0
	switch {
	case wheel:
	case press && !motion && button&3 == 0:
		s.tracker.Click(x, y)
	default:
		s.tracker.Aim(x, y)
	}
	return end + 1, true
}

func splitSemicolons(b []byte) []string {
	var out []string
	start := 0
	for j, c := range b {
		if c == ';' {
			out = append(out, string(b[start:j]))
			start = j + 1
		}
	}
	return append(out, string(b[start:]))
}
