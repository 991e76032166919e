package scene

import (
	"github.com/df07/go-atmosphere/pkg/material"
	"github.com/df07/go-atmosphere/pkg/mesh"
)

// PlanetOptions configures the planet scene
type PlanetOptions struct {
	PlanetRadius float64
	Slices       int // Sphere resolution around the axis
	Layers       int // Sphere resolution pole to pole
	Texture      material.ColorSource
}

// DefaultPlanetOptions returns the resolution and radius of the reference scene
func DefaultPlanetOptions() PlanetOptions {
	return PlanetOptions{
		PlanetRadius: 10.0,
		Slices:       40,
		Layers:       40,
	}
}

// PlanetScene is a root with a textured planet and an atmosphere shell
type PlanetScene struct {
	Graph      *Graph
	Planet     NodeID
	Atmosphere NodeID
}

// NewPlanetScene uploads the sphere meshes and builds the scene graph.
// Both spheres are built at planet radius; the atmosphere node is scaled to
// the atmosphere radius each frame.
func NewPlanetScene(registry *mesh.Registry, opts PlanetOptions) *PlanetScene {
	planetMesh := registry.Upload(mesh.GenerateSphere(opts.PlanetRadius, opts.Slices, opts.Layers))
	atmosphereMesh := registry.Upload(mesh.GenerateSphere(opts.PlanetRadius, opts.Slices, opts.Layers))

	graph := NewGraph(NewNode("root", Geometry))

	planet := NewNode("planet", Geometry)
	planet.Renderable = &planetMesh
	planet.Texture = opts.Texture

	atmosphere := NewNode("atmosphere", Atmosphere)
	atmosphere.Renderable = &atmosphereMesh

	return &PlanetScene{
		Graph:      graph,
		Planet:     graph.AddChild(Root, planet),
		Atmosphere: graph.AddChild(Root, atmosphere),
	}
}
