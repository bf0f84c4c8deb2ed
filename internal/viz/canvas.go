package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells, 2x4 sub-pixels each. Every cell also
// remembers which body last drew into it so it can be coloured per body.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	owner         [][]int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		owner:  make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.owner[i] = make([]int, w)
	}
	c.Clear()
	return c
}

// PixelWidth and PixelHeight give the canvas size in sub-pixels.
func (c *Canvas) PixelWidth() int  { return c.Width * 2 }
func (c *Canvas) PixelHeight() int { return c.Height * 4 }

// Set lights the sub-pixel at (x, y). Out-of-range points are ignored.
func (c *Canvas) Set(x, y int) { c.SetBody(x, y, -1) }

// SetBody lights (x, y) on behalf of body k.
func (c *Canvas) SetBody(x, y, k int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.owner[row][col] = k
}

// Get reports whether the sub-pixel at (x, y) is lit.
func (c *Canvas) Get(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.owner[i][j] = -1
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawDisc fills a small square blob around (x, y) for body k.
func (c *Canvas) DrawDisc(x, y, r, k int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.SetBody(x+dx, y+dy, k)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render is String with each cell coloured by the body that drew it.
func (c *Canvas) Render(theme Theme) string {
	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			k := c.owner[i][j]
			if r == blank || k < 0 {
				b.WriteRune(r)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Body(k)).Render(string(r)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps world x/y onto canvas sub-pixels, keeping aspect ratio
// and putting Center in the middle of the canvas.
type Viewport struct {
	Center dynamo.Vec3
	// Scale is sub-pixels per world unit.
	Scale float64
}

// FitViewport picks a viewport that shows every point with a margin.
func FitViewport(c *Canvas, points []dynamo.Vec3) Viewport {
	if len(points) == 0 {
		return Viewport{Scale: 1}
	}
	minX, maxX := points[0].X(), points[0].X()
	minY, maxY := points[0].Y(), points[0].Y()
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X()), math.Max(maxX, p.X())
		minY, maxY = math.Min(minY, p.Y()), math.Max(maxY, p.Y())
	}
	span := math.Max(maxX-minX, maxY-minY) * 1.2
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		span = 1
	}
	size := float64(min(c.PixelWidth(), c.PixelHeight()))
	return Viewport{
		Center: dynamo.V3((minX+maxX)/2, (minY+maxY)/2, 0),
		Scale:  size / span,
	}
}

func (v Viewport) Project(c *Canvas, p dynamo.Vec3) (int, int) {
	x := float64(c.PixelWidth())/2 + (p.X()-v.Center.X())*v.Scale
	y := float64(c.PixelHeight())/2 - (p.Y()-v.Center.Y())*v.Scale
	return int(math.Round(x)), int(math.Round(y))
}

// DrawTrails plots every body's path through states, with the last state
// drawn as discs.
func DrawTrails(c *Canvas, v Viewport, states []dynamo.State) {
	if len(states) == 0 {
		return
	}
	for _, s := range states {
		for k, p := range s.Positions() {
			x, y := v.Project(c, p)
			c.SetBody(x, y, k)
		}
	}
	for k, p := range states[len(states)-1].Positions() {
		x, y := v.Project(c, p)
		c.DrawDisc(x, y, 1, k)
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
