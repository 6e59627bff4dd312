package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType selects the oscillator shape.
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

// silence is the gain every tone decays to before it stops.
const silence = 0.0001

// Tone describes a single oscillator blip.
type Tone struct {
	Wave     WaveType
	Freq     float64
	EndFreq  float64       // zero keeps Freq for the whole tone
	Sweep    time.Duration // time to glide from Freq to EndFreq
	Gain     float64
	Duration time.Duration
}

// tone streams a Tone with an exponential gain decay.
type tone struct {
	t        Tone
	rate     beep.SampleRate
	phase    float64
	position int
	total    int
	sweep    int
	decay    float64
}

// NewTone creates a streamer for t at the given sample rate.
func NewTone(t Tone, rate beep.SampleRate) beep.Streamer {
	total := rate.N(t.Duration)
	decay := 0.0
	if total > 0 && t.Gain > silence {
		// gain(n) = Gain * decay^n reaches silence at the last sample
		decay = math.Pow(silence/t.Gain, 1/float64(total))
	}
	return &tone{
		t:     t,
		rate:  rate,
		total: total,
		sweep: rate.N(t.Sweep),
		decay: decay,
	}
}

func (o *tone) freq() float64 {
	if o.t.EndFreq == 0 || o.sweep <= 0 {
		return o.t.Freq
	}
	if o.position >= o.sweep {
		return o.t.EndFreq
	}
	k := float64(o.position) / float64(o.sweep)
	return o.t.Freq + (o.t.EndFreq-o.t.Freq)*k
}

func (o *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.total {
			return i, i > 0
		}

		var val float64
		switch o.t.Wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		case WaveSaw:
			val = 2 * (o.phase - 0.5)
		case WaveTriangle:
			val = 1 - 4*math.Abs(o.phase-0.5)
		}

		gain := o.t.Gain * math.Pow(o.decay, float64(o.position))
		samples[i][0] = val * gain
		samples[i][1] = val * gain

		o.phase += o.freq() / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *tone) Err() error { return nil }

// newVolume wraps s in a volume effect; zero or negative volume is silent.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
