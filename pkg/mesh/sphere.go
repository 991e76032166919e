package mesh

import (
	"math"

	"github.com/df07/go-atmosphere/pkg/core"
)

// Mesh is an indexed triangle list. Triangles wind counter-clockwise when
// seen from the side the normals point to.
type Mesh struct {
	Positions []core.Vec3
	Normals   []core.Vec3
	UVs       []core.Vec2
	Indices   []uint32
}

// TriangleCount returns the number of triangles in the mesh
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// GenerateSphere builds a UV sphere centered at the origin.
// slices divides the sphere around the Y axis, layers from pole to pole.
// Texture coordinates map U to longitude and V to latitude (V=1 at +Y).
func GenerateSphere(radius float64, slices, layers int) Mesh {
	slices = max(slices, 3)
	layers = max(layers, 2)

	vertexCount := (slices + 1) * (layers + 1)
	m := Mesh{
		Positions: make([]core.Vec3, 0, vertexCount),
		Normals:   make([]core.Vec3, 0, vertexCount),
		UVs:       make([]core.Vec2, 0, vertexCount),
		Indices:   make([]uint32, 0, slices*layers*6),
	}

	for i := 0; i <= layers; i++ {
		theta := math.Pi * float64(i) / float64(layers)
		sinTheta, cosTheta := math.Sincos(theta)

		for j := 0; j <= slices; j++ {
			phi := 2 * math.Pi * float64(j) / float64(slices)
			sinPhi, cosPhi := math.Sincos(phi)

			normal := core.NewVec3(sinTheta*cosPhi, cosTheta, sinTheta*sinPhi)
			m.Normals = append(m.Normals, normal)
			m.Positions = append(m.Positions, normal.Multiply(radius))
			m.UVs = append(m.UVs, core.NewVec2(
				float64(j)/float64(slices),
				1.0-float64(i)/float64(layers),
			))
		}
	}

	stride := uint32(slices + 1)
	for i := 0; i < layers; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i)*stride + uint32(j)
			b := a + stride
			m.Indices = append(m.Indices,
				a, a+1, b,
				a+1, b+1, b,
			)
		}
	}

	return m
}
