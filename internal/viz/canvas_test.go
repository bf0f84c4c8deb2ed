package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	assert.Equal(t, 4, c.PixelWidth())
	assert.Equal(t, 4, c.PixelHeight())

	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)
	c.Set(0, 4)

	assert.Equal(t, rune(0x2801), c.Grid[0][0])
	assert.Equal(t, rune(0x2880), c.Grid[0][1])
	assert.True(t, c.Get(0, 0))
	assert.True(t, c.Get(3, 3))
	assert.False(t, c.Get(1, 0))
	assert.False(t, c.Get(-1, 0))

	c.Clear()
	assert.Equal(t, string([]rune{blank, blank})+"\n", c.String())
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0)
	for x := 0; x < 8; x++ {
		assert.True(t, c.Get(x, 0), "x=%d", x)
	}
	assert.False(t, c.Get(0, 1))
}

func TestViewportProject(t *testing.T) {
	c := NewCanvas(20, 10)
	v := Viewport{Center: dynamo.V3(1, 1, 0), Scale: 10}

	x, y := v.Project(c, dynamo.V3(1, 1, 0))
	assert.Equal(t, 20, x)
	assert.Equal(t, 20, y)

	x, y = v.Project(c, dynamo.V3(2, 2, 5))
	assert.Equal(t, 30, x)
	assert.Equal(t, 10, y, "y grows downwards on screen")
}

func TestFitViewport(t *testing.T) {
	c := NewCanvas(20, 10)
	pts := []dynamo.Vec3{dynamo.V3(-1, -2, 0), dynamo.V3(3, 2, 0)}
	v := FitViewport(c, pts)

	assert.Equal(t, dynamo.V3(1, 0, 0), v.Center)
	for _, p := range pts {
		x, y := v.Project(c, p)
		assert.True(t, x >= 0 && x < c.PixelWidth(), "x=%d", x)
		assert.True(t, y >= 0 && y < c.PixelHeight(), "y=%d", y)
	}

	assert.Equal(t, 1.0, FitViewport(c, nil).Scale)
	single := FitViewport(c, []dynamo.Vec3{dynamo.V3(5, 5, 0)})
	assert.False(t, math.IsInf(single.Scale, 0))
}

func TestDrawTrails(t *testing.T) {
	c := NewCanvas(30, 15)
	s := initial.Lagrangian()
	v := FitViewport(c, s.Positions())

	DrawTrails(c, v, []dynamo.State{s})
	for _, p := range s.Positions() {
		x, y := v.Project(c, p)
		assert.True(t, c.Get(x, y))
	}

	out := c.Render(ThemeMinimal)
	assert.Equal(t, 15, strings.Count(out, "\n"))
}

func TestCameraRotate(t *testing.T) {
	cam := NewCamera()
	p := dynamo.V3(1, 2, 3)
	assert.Equal(t, p, cam.RotatePoint(p))

	cam.RotateZ(math.Pi / 2)
	r := cam.RotatePoint(dynamo.V3(1, 0, 0))
	assert.InDelta(t, 0, r.X(), 1e-12)
	assert.InDelta(t, 1, r.Y(), 1e-12)

	cam.ZoomIn()
	view := cam.View([]dynamo.Vec3{dynamo.V3(2, 0, 0)}, dynamo.V3(1, 0, 0))
	require.Len(t, view, 1)
	assert.InDelta(t, 1.2, view[0].Norm(), 1e-12)

	cam.Reset()
	assert.Equal(t, 1.0, cam.Zoom)
	assert.Zero(t, cam.RotZ)
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "ocean", GetTheme("ocean").Name)
	assert.Equal(t, "cyberpunk", GetTheme("nope").Name)
	assert.Equal(t, "retro", NextTheme("cyberpunk").Name)
	assert.Equal(t, "cyberpunk", NextTheme("sunset").Name)
	assert.Len(t, ThemeNames(), len(Themes))

	theme := ThemeRetroGreen
	assert.Equal(t, theme.Bodies[0], theme.Body(3))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "────", Sparkline(nil, 4))
	out := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	assert.Contains(t, out, "▁")
	assert.Contains(t, out, "█")
}
