package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type plane struct{ a, b, c, d float32 }

// Frustum holds the six clip planes of a projection*view matrix, in the order
// left, right, bottom, top, near, far. Plane normals point inward.
type Frustum struct {
	planes [6]plane
	// Margin inflates every box before testing.
	Margin float32
}

// NewFrustum extracts the planes of clip.
func NewFrustum(clip mgl32.Mat4) Frustum {
	// mgl32 matrices are column-major; row i is clip[i], clip[i+4], ...
	row := func(i int) plane { return plane{clip[i], clip[i+4], clip[i+8], clip[i+12]} }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	add := func(p, q plane) plane { return plane{p.a + q.a, p.b + q.b, p.c + q.c, p.d + q.d} }
	sub := func(p, q plane) plane { return plane{p.a - q.a, p.b - q.b, p.c - q.c, p.d - q.d} }

	return Frustum{
		planes: [6]plane{
			normalizePlane(add(r3, r0)),
			normalizePlane(sub(r3, r0)),
			normalizePlane(add(r3, r1)),
			normalizePlane(sub(r3, r1)),
			normalizePlane(add(r3, r2)),
			normalizePlane(sub(r3, r2)),
		},
		Margin: 1,
	}
}

// Frustum returns the view frustum of the camera.
func (c *Camera) Frustum() Frustum {
	return NewFrustum(c.Projection().Mul4(c.View()))
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// IntersectsAABB reports whether the box overlaps the frustum. It may return
// true for boxes just outside a corner.
func (f Frustum) IntersectsAABB(lo, hi mgl32.Vec3) bool {
	m := mgl32.Vec3{f.Margin, f.Margin, f.Margin}
	lo, hi = lo.Sub(m), hi.Add(m)
	for _, p := range f.planes {
		// positive vertex: the box corner furthest along the plane normal
		px, py, pz := hi.X(), hi.Y(), hi.Z()
		if p.a < 0 {
			px = lo.X()
		}
		if p.b < 0 {
			py = lo.Y()
		}
		if p.c < 0 {
			pz = lo.Z()
		}
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}
