package scattering

import (
	"math"

	"github.com/df07/go-atmosphere/pkg/core"
)

// InScatter is the per-vertex result of a scattering integral. For the sky
// techniques Primary is the Rayleigh colour and Secondary the Mie colour;
// for the ground Primary is the in-scattered light and Secondary the
// attenuation applied to the surface albedo.
type InScatter struct {
	Primary   core.Vec3
	Secondary core.Vec3
}

// All positions below are relative to the planet centre.

// SkyFromSpace integrates along the camera ray from where it enters the
// atmosphere to the vertex on the outer shell. The camera is outside.
func (u Uniforms) SkyFromSpace(camera, vertex core.Vec3) InScatter {
	ray := vertex.Subtract(camera)
	far := ray.Length()
	if far == 0 {
		return InScatter{}
	}
	ray = ray.Multiply(1 / far)

	near := u.nearOuterIntersection(camera, ray)
	start := camera.Add(ray.Multiply(near))
	far -= near

	startAngle := ray.Dot(start) / u.OuterRadius
	startDepth := math.Exp(-1.0 / u.ScaleDepth)
	startOffset := startDepth * ScaleFn(startAngle, u.ScaleDepth)

	return u.skyIntegral(start, ray, far, startOffset)
}

// SkyFromAtmosphere integrates from the camera, which sits inside the shell,
// to the vertex on the outer shell.
func (u Uniforms) SkyFromAtmosphere(camera, vertex core.Vec3) InScatter {
	ray := vertex.Subtract(camera)
	far := ray.Length()
	if far == 0 {
		return InScatter{}
	}
	ray = ray.Multiply(1 / far)

	height := camera.Length()
	startAngle := ray.Dot(camera) / math.Max(height, minShellThickness)
	startDepth := math.Exp(u.ScaleOverScaleDepth * (u.InnerRadius - height))
	startOffset := startDepth * ScaleFn(startAngle, u.ScaleDepth)

	return u.skyIntegral(camera, ray, far, startOffset)
}

func (u Uniforms) skyIntegral(start, ray core.Vec3, length, startOffset float64) InScatter {
	sampleLength := length / float64(u.Samples)
	scaledLength := sampleLength * u.Scale
	sampleRay := ray.Multiply(sampleLength)
	samplePoint := start.Add(sampleRay.Multiply(0.5))
	extinction := u.InvWavelength4.Multiply(u.Kr4Pi).Add(core.Splat(u.Km4Pi))

	var front core.Vec3
	for i := 0; i < u.Samples; i++ {
		height := samplePoint.Length()
		depth := math.Exp(u.ScaleOverScaleDepth * (u.InnerRadius - height))
		lightAngle := u.SunDirection.Dot(samplePoint) / height
		cameraAngle := ray.Dot(samplePoint) / height
		scatter := startOffset + depth*(ScaleFn(lightAngle, u.ScaleDepth)-ScaleFn(cameraAngle, u.ScaleDepth))
		attenuate := extinction.Multiply(-scatter).Exp()
		front = front.Add(attenuate.Multiply(depth * scaledLength))
		samplePoint = samplePoint.Add(sampleRay)
	}

	return InScatter{
		Primary:   front.MultiplyVec(u.InvWavelength4.Multiply(u.KrESun)),
		Secondary: front.Multiply(u.KmESun),
	}
}

// Ground integrates the light scattered between the camera and a surface
// vertex. It handles the camera both outside and inside the shell.
func (u Uniforms) Ground(camera, vertex core.Vec3) InScatter {
	ray := vertex.Subtract(camera)
	far := ray.Length()
	if far == 0 {
		return InScatter{Secondary: core.Splat(1)}
	}
	ray = ray.Multiply(1 / far)

	var start core.Vec3
	var startDepth float64
	if height := camera.Length(); height > u.OuterRadius {
		near := u.nearOuterIntersection(camera, ray)
		start = camera.Add(ray.Multiply(near))
		far -= near
		startDepth = math.Exp((u.InnerRadius - u.OuterRadius) / u.ScaleDepth)
	} else {
		start = camera
		startDepth = math.Exp((u.InnerRadius - height) / u.ScaleDepth)
	}

	vertexHeight := math.Max(vertex.Length(), minShellThickness)
	cameraAngle := ray.Negate().Dot(vertex) / vertexHeight
	lightAngle := u.SunDirection.Dot(vertex) / vertexHeight
	cameraScale := ScaleFn(cameraAngle, u.ScaleDepth)
	lightScale := ScaleFn(lightAngle, u.ScaleDepth)
	cameraOffset := startDepth * cameraScale
	combined := lightScale + cameraScale

	sampleLength := far / float64(u.Samples)
	scaledLength := sampleLength * u.Scale
	sampleRay := ray.Multiply(sampleLength)
	samplePoint := start.Add(sampleRay.Multiply(0.5))
	extinction := u.InvWavelength4.Multiply(u.Kr4Pi).Add(core.Splat(u.Km4Pi))

	var front core.Vec3
	attenuate := core.Splat(1)
	for i := 0; i < u.Samples; i++ {
		height := samplePoint.Length()
		depth := math.Exp(u.ScaleOverScaleDepth * (u.InnerRadius - height))
		scatter := depth*combined - cameraOffset
		attenuate = extinction.Multiply(-scatter).Exp()
		front = front.Add(attenuate.Multiply(depth * scaledLength))
		samplePoint = samplePoint.Add(sampleRay)
	}

	return InScatter{
		Primary:   front.MultiplyVec(u.InvWavelength4.Multiply(u.KrESun).Add(core.Splat(u.KmESun))),
		Secondary: attenuate,
	}
}

// SkyColor applies the phase functions to a sky integral. toCamera points
// from the shaded vertex back towards the camera. Alpha is the blue channel.
func (u Uniforms) SkyColor(in InScatter, toCamera core.Vec3) (core.Vec3, float64) {
	length := toCamera.Length()
	if length == 0 {
		return core.Vec3{}, 0
	}
	cos := u.SunDirection.Dot(toCamera) / length
	color := in.Primary.Multiply(RayleighPhase(cos)).Add(in.Secondary.Multiply(MiePhase(cos, u.G, u.G2)))
	return color, color.Z
}

// nearOuterIntersection returns the distance along ray where it enters the
// outer shell, clamped to zero when the ray grazes or misses.
func (u Uniforms) nearOuterIntersection(origin, ray core.Vec3) float64 {
	near, _, ok := core.NewRay(origin, ray).IntersectSphere(u.OuterRadius)
	if !ok || near < 0 {
		return 0
	}
	return near
}
