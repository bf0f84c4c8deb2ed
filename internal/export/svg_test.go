package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/viz"
)

func TestTrajectoryToSVG(t *testing.T) {
	states := []dynamo.State{initial.Lagrangian()}
	for i := 0; i < 10; i++ {
		states = append(states, integrators.LeapfrogStep(states[len(states)-1], 0.05))
	}

	svg := TrajectoryToSVG(states, 400, 300)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 3, strings.Count(svg, "<path "))
	assert.Equal(t, 3, strings.Count(svg, "<circle "))
	assert.Equal(t, 3*10, strings.Count(svg, " L"))
	assert.Contains(t, svg, Palette[2])
}

func TestTrajectoryToSVG_TooShort(t *testing.T) {
	assert.Empty(t, TrajectoryToSVG(nil, 100, 100))
	assert.Empty(t, TrajectoryToSVG([]dynamo.State{initial.Demo()}, 100, 100))
}

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 2))

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 2)
	svg := CanvasToSVG(c, 2)
	assert.Equal(t, 2, strings.Count(svg, "<circle "))
	assert.Contains(t, svg, `width="8" height="8"`)
	assert.Contains(t, svg, `cx="1.0" cy="1.0"`)
	assert.Contains(t, svg, `cx="7.0" cy="5.0"`)
}
