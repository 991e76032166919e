package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestVec3_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		expected Vec3
	}{
		{"unit x", NewVec3(1, 0, 0), NewVec3(1, 0, 0)},
		{"scaled axis", NewVec3(0, 0, -20), NewVec3(0, 0, -1)},
		{"diagonal", NewVec3(3, 4, 0), NewVec3(0.6, 0.8, 0)},
		{"zero stays zero", NewVec3(0, 0, 0), NewVec3(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.vector.Normalize()
			if !result.ApproxEqual(tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	assert.Equal(t, NewVec3(0, 0, 1), x.Cross(y))
	assert.Equal(t, NewVec3(0, 0, -1), y.Cross(x))
}

func TestVec3_ExpAndPow(t *testing.T) {
	v := NewVec3(0, 1, 2)
	assert.True(t, v.Exp().ApproxEqual(NewVec3(1, math.E, math.E*math.E), 1e-12))

	wavelengths := NewVec3(0.650, 0.570, 0.475)
	inv := wavelengths.Pow(4).Reciprocal()
	assert.InDelta(t, 1/math.Pow(0.650, 4), inv.X, 1e-9)
	assert.InDelta(t, 1/math.Pow(0.475, 4), inv.Z, 1e-9)
}

func TestVec3_MglRoundTrip(t *testing.T) {
	v := NewVec3(1.5, -2, 3)
	assert.Equal(t, mgl64.Vec3{1.5, -2, 3}, v.Mgl())
	assert.Equal(t, v, FromMgl(v.Mgl()))
}

func TestRay_IntersectSphere(t *testing.T) {
	tests := []struct {
		name      string
		ray       Ray
		radius    float64
		expectHit bool
		near, far float64
	}{
		{
			name:      "outside looking in",
			ray:       NewRay(NewVec3(0, 0, -20), NewVec3(0, 0, 1)),
			radius:    10,
			expectHit: true,
			near:      10,
			far:       30,
		},
		{
			name:      "inside",
			ray:       NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)),
			radius:    10,
			expectHit: true,
			near:      -10,
			far:       10,
		},
		{
			name:      "miss",
			ray:       NewRay(NewVec3(0, 20, -20), NewVec3(0, 0, 1)),
			radius:    10,
			expectHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			near, far, ok := tt.ray.IntersectSphere(tt.radius)
			assert.Equal(t, tt.expectHit, ok)
			if tt.expectHit {
				assert.InDelta(t, tt.near, near, 1e-9)
				assert.InDelta(t, tt.far, far, 1e-9)
			}
		})
	}
}
