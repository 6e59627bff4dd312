// Package draw rasterizes frames onto a colored half-block canvas and writes
// them to ANSI terminals.
package draw

import (
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/tomz197/galaxyblaster/internal/object"
)

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
	BlockLight     = '░'
)

// Canvas is a color drawing buffer with 2x vertical resolution using
// half-block characters. Each terminal cell shows two sub-pixels: the upper
// one as foreground, the lower one as background.
// It scales from logical coordinates to terminal pixels.
type Canvas struct {
	termWidth      int            // Canvas columns
	termHeight     int            // Canvas rows
	subPixelHeight int            // termHeight * 2
	pixels         []object.Color // Flat slice: [y * termWidth + x]
	shown          []object.Color // What the terminal currently displays
	dirty          []bool         // Cells that must be rewritten regardless of color

	// Scaling from logical to pixel coordinates
	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// Offset for centering the render area inside the terminal.
	// These are 0-based terminal offsets (columns/rows to skip).
	offsetCol int
	offsetRow int

	// Reusable buffers to reduce allocations
	numBuf          [20]byte
	intersectionBuf []float64
	polygonBuf      []Point
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
// logicalWidth/Height define the coordinate space used by game objects.
// termWidth/Height are the canvas dimensions in terminal cells.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
	}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new cell dimensions while keeping logical size.
// The next Render repaints every cell.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth = max(termWidth, 1)
	termHeight = max(termHeight, 1)
	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = termHeight * 2
		c.pixels = make([]object.Color, c.subPixelHeight*termWidth)
		c.shown = make([]object.Color, c.subPixelHeight*termWidth)
		c.dirty = make([]bool, termWidth*termHeight)
	}
	c.scaleX = float64(c.termWidth) / c.logicalWidth
	c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
	c.Invalidate()
}

// Invalidate forces the next Render to repaint every cell.
func (c *Canvas) Invalidate() {
	for i := range c.dirty {
		c.dirty[i] = true
	}
}

// MarkDirty forces the cells [col, col+n) of row (1-based canvas cells) to be
// repainted on the next Render, e.g. after text was written over them.
func (c *Canvas) MarkDirty(col, row, n int) {
	row--
	col--
	if row < 0 || row >= c.termHeight {
		return
	}
	for x := max(col, 0); x < min(col+n, c.termWidth); x++ {
		c.dirty[row*c.termWidth+x] = true
	}
}

// SetOffset sets the column and row offset for centering the canvas.
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int { return c.offsetCol }

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int { return c.offsetRow }

// TerminalWidth returns the canvas column count.
func (c *Canvas) TerminalWidth() int { return c.termWidth }

// TerminalHeight returns the canvas row count.
func (c *Canvas) TerminalHeight() int { return c.termHeight }

// Clear fills every pixel with bg.
func (c *Canvas) Clear(bg object.Color) {
	for i := range c.pixels {
		c.pixels[i] = bg
	}
}

// Cell returns the two colors of a 0-based canvas cell.
func (c *Canvas) Cell(col, row int) (top, bottom object.Color) {
	top = c.pixels[(row*2)*c.termWidth+col]
	bottom = c.pixels[(row*2+1)*c.termWidth+col]
	return top, bottom
}

// setPixel sets a pixel at canvas pixel coordinates (no scaling).
func (c *Canvas) setPixel(x, y int, col object.Color) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = col
	}
}

// blendPixel mixes col over the existing pixel with the given opacity.
func (c *Canvas) blendPixel(x, y int, col object.Color, alpha float64) {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight {
		return
	}
	i := y*c.termWidth + x
	c.pixels[i] = Blend(c.pixels[i], col, alpha)
}

// Blend mixes fg over bg with opacity alpha in [0, 1].
func Blend(bg, fg object.Color, alpha float64) object.Color {
	if alpha >= 1 {
		return fg
	}
	if alpha <= 0 {
		return bg
	}
	br, bgc, bb := bg.RGB()
	fr, fgc, fb := fg.RGB()
	mix := func(a, b uint8) object.Color {
		return object.Color(math.Round(float64(a) + (float64(b)-float64(a))*alpha))
	}
	return mix(br, fr)<<16 | mix(bgc, fgc)<<8 | mix(bb, fb)
}

// SetFloat sets a pixel using float logical coordinates (applies scaling).
func (c *Canvas) SetFloat(x, y float64, col object.Color) {
	c.setPixel(int(math.Floor(x*c.scaleX)), int(math.Floor(y*c.scaleY)), col)
}

// FillCircle fills a circle given in logical coordinates, blending with
// opacity alpha. Circles smaller than a pixel still cover their center pixel.
func (c *Canvas) FillCircle(cx, cy, r float64, col object.Color, alpha float64) {
	px := cx * c.scaleX
	py := cy * c.scaleY
	rx := r * c.scaleX
	ry := r * c.scaleY

	if rx < 0.5 && ry < 0.5 {
		c.blendPixel(int(math.Floor(px)), int(math.Floor(py)), col, alpha)
		return
	}

	for y := int(math.Floor(py - ry)); y <= int(math.Ceil(py+ry)); y++ {
		dy := (float64(y) + 0.5 - py) / ry
		if dy*dy > 1 {
			continue
		}
		half := rx * math.Sqrt(1-dy*dy)
		for x := int(math.Ceil(px - half - 0.5)); x <= int(math.Floor(px+half-0.5)); x++ {
			c.blendPixel(x, y, col, alpha)
		}
	}
	// Keep tiny shapes visible.
	if rx < 1 || ry < 1 {
		c.blendPixel(int(math.Floor(px)), int(math.Floor(py)), col, alpha)
	}
}

// FillPolygon fills a polygon given in logical coordinates using a scanline
// algorithm in pixel space. The points are scaled in place.
func (c *Canvas) FillPolygon(points []Point, col object.Color) {
	if len(points) < 3 {
		return
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := range points {
		points[i].X *= c.scaleX
		points[i].Y *= c.scaleY
		minY = min(minY, points[i].Y)
		maxY = max(maxY, points[i].Y)
	}

	filled := false
	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		scanY := float64(y) + 0.5

		intersections := c.intersectionBuf[:0]
		n := len(points)
		for i := 0; i < n; i++ {
			p1 := points[i]
			p2 := points[(i+1)%n]
			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				intersections = append(intersections, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = intersections
		slices.Sort(intersections)

		for i := 0; i+1 < len(intersections); i += 2 {
			xStart := int(math.Ceil(intersections[i] - 0.5))
			xEnd := int(math.Floor(intersections[i+1] - 0.5))
			for x := xStart; x <= xEnd; x++ {
				c.setPixel(x, y, col)
				filled = true
			}
		}
	}

	// Shapes thinner than a pixel collapse to their centroid.
	if !filled {
		var sx, sy float64
		for _, p := range points {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(points))
		c.setPixel(int(math.Floor(sx/n)), int(math.Floor(sy/n)), col)
	}
}

// BorrowPoints returns a reusable slice of Points with the given length.
// The returned slice is only valid until the next call to BorrowPoints.
func (c *Canvas) BorrowPoints(n int) []Point {
	if cap(c.polygonBuf) < n {
		c.polygonBuf = make([]Point, n)
	}
	return c.polygonBuf[:n]
}

// Render writes every changed cell to w as a true-color half block.
func (c *Canvas) Render(w io.Writer) error {
	var out []byte
	var lastFg, lastBg object.Color = 1 << 24, 1 << 24 // impossible colors force the first SGR
	lastCol, lastRow := -1, -1

	for row := 0; row < c.termHeight; row++ {
		topOffset := (row * 2) * c.termWidth
		bottomOffset := (row*2 + 1) * c.termWidth
		for col := 0; col < c.termWidth; col++ {
			top := c.pixels[topOffset+col]
			bottom := c.pixels[bottomOffset+col]
			cell := row*c.termWidth + col
			if !c.dirty[cell] && c.shown[topOffset+col] == top && c.shown[bottomOffset+col] == bottom {
				continue
			}
			c.dirty[cell] = false
			c.shown[topOffset+col] = top
			c.shown[bottomOffset+col] = bottom

			if row != lastRow || col != lastCol+1 {
				out = c.appendMove(out, col+1+c.offsetCol, row+1+c.offsetRow)
			}
			if top != lastFg {
				out = appendColor(out, "\033[38;2;", top, &c.numBuf)
				lastFg = top
			}
			if bottom != lastBg {
				out = appendColor(out, "\033[48;2;", bottom, &c.numBuf)
				lastBg = bottom
			}
			out = append(out, string(BlockUpperHalf)...)
			lastCol, lastRow = col, row
		}
	}
	if len(out) == 0 {
		return nil
	}
	out = append(out, "\033[0m"...)
	_, err := w.Write(out)
	return err
}

func (c *Canvas) appendMove(out []byte, col, row int) []byte {
	out = append(out, "\033["...)
	out = append(out, strconv.AppendInt(c.numBuf[:0], int64(row), 10)...)
	out = append(out, ';')
	out = append(out, strconv.AppendInt(c.numBuf[:0], int64(col), 10)...)
	return append(out, 'H')
}

func appendColor(out []byte, prefix string, col object.Color, buf *[20]byte) []byte {
	r, g, b := col.RGB()
	out = append(out, prefix...)
	out = append(out, strconv.AppendUint(buf[:0], uint64(r), 10)...)
	out = append(out, ';')
	out = append(out, strconv.AppendUint(buf[:0], uint64(g), 10)...)
	out = append(out, ';')
	out = append(out, strconv.AppendUint(buf[:0], uint64(b), 10)...)
	return append(out, 'm')
}

// Fit computes the largest canvas (in cells) that shows a logical area of
// logicalW x logicalH without distortion inside a terminal area of
// cols x rows, and the offsets that center it. Sub-pixels are treated as square.
func Fit(cols, rows int, logicalW, logicalH float64) (w, h, offCol, offRow int) {
	if cols <= 0 || rows <= 0 || logicalW <= 0 || logicalH <= 0 {
		return 1, 1, 0, 0
	}
	scale := min(float64(cols)/logicalW, float64(rows*2)/logicalH)
	w = max(int(math.Floor(logicalW*scale)), 1)
	h = max(int(math.Floor(logicalH*scale/2)), 1)
	return w, h, (cols - w) / 2, (rows - h) / 2
}
