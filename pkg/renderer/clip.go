package renderer

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-atmosphere/pkg/shading"
)

// clipVertex is a vertex program output in homogeneous clip space
type clipVertex struct {
	pos      mgl64.Vec4
	varyings shading.Varyings
}

func (a clipVertex) lerp(b clipVertex, t float64) clipVertex {
	return clipVertex{
		pos:      a.pos.Add(b.pos.Sub(a.pos).Mul(t)),
		varyings: a.varyings.Lerp(b.varyings, t),
	}
}

// outsideFrustum reports whether all three vertices lie outside the same
// side plane or beyond the far plane
func outsideFrustum(v [3]clipVertex) bool {
	outside := func(test func(p mgl64.Vec4) bool) bool {
		return test(v[0].pos) && test(v[1].pos) && test(v[2].pos)
	}
	return outside(func(p mgl64.Vec4) bool { return p.X() > p.W() }) ||
		outside(func(p mgl64.Vec4) bool { return p.X() < -p.W() }) ||
		outside(func(p mgl64.Vec4) bool { return p.Y() > p.W() }) ||
		outside(func(p mgl64.Vec4) bool { return p.Y() < -p.W() }) ||
		outside(func(p mgl64.Vec4) bool { return p.Z() > p.W() })
}

// clipNear clips a triangle against the near plane z >= -w. The result is
// a convex polygon with 0, 3 or 4 vertices in the original winding.
func clipNear(v [3]clipVertex) []clipVertex {
	dist := func(c clipVertex) float64 { return c.pos.Z() + c.pos.W() }

	out := make([]clipVertex, 0, 4)
	for i := 0; i < 3; i++ {
		cur, next := v[i], v[(i+1)%3]
		dCur, dNext := dist(cur), dist(next)

		if dCur >= 0 {
			out = append(out, cur)
		}
		if (dCur >= 0) != (dNext >= 0) {
			out = append(out, cur.lerp(next, dCur/(dCur-dNext)))
		}
	}
	return out
}
