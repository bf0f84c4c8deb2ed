package viz

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// Camera turns 3D body positions into a 2D view. The live view uses it
// so out-of-plane motion can be inspected by rotating.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Reset faces the x/y plane again at unit zoom.
func (c *Camera) Reset() { *c = Camera{Zoom: 1.0} }

// RotatePoint applies the camera's rotations about x, then y, then z.
func (c *Camera) RotatePoint(p dynamo.Vec3) dynamo.Vec3 {
	x, y, z := p.X(), p.Y(), p.Z()
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	y, z = y*cx-z*sx, y*sx+z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	x, z = x*cy+z*sy, -x*sy+z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	x, y = x*cz-y*sz, x*sz+y*cz
	return dynamo.V3(x, y, z)
}

// View rotates and zooms a set of points about their common centre so the
// result can be handed to a Viewport.
func (c *Camera) View(points []dynamo.Vec3, centre dynamo.Vec3) []dynamo.Vec3 {
	out := make([]dynamo.Vec3, len(points))
	for i, p := range points {
		out[i] = c.RotatePoint(p.Sub(centre)).Scale(c.Zoom)
	}
	return out
}
