package shading

import (
	"fmt"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/scattering"
	"github.com/df07/go-atmosphere/pkg/scene"
)

// Technique is one of the three scattering shading programs
type Technique int

const (
	Surface Technique = iota
	SkyFromSpace
	SkyFromAtmosphere
)

func (t Technique) String() string {
	switch t {
	case Surface:
		return "surface"
	case SkyFromSpace:
		return "sky-from-space"
	case SkyFromAtmosphere:
		return "sky-from-atmosphere"
	default:
		return fmt.Sprintf("Technique(%d)", int(t))
	}
}

// CullFace is the triangle winding discarded before rasterization
type CullFace int

const (
	CullBack CullFace = iota
	CullFront
)

func (c CullFace) String() string {
	if c == CullFront {
		return "front"
	}
	return "back"
}

// Selection is the technique and culling chosen for one node
type Selection struct {
	Technique Technique
	Cull      CullFace
}

// Select picks the shading for a node. The atmosphere switches to the
// inside technique once the camera is within the shell; the boundary
// itself counts as inside. The atmosphere is assumed centred at the origin.
func Select(nodeType scene.NodeType, cameraPosition core.Vec3, params scattering.Parameters) Selection {
	switch nodeType {
	case scene.Geometry:
		return Selection{Technique: Surface, Cull: CullBack}
	case scene.Atmosphere:
		if cameraPosition.Length() > params.AtmosphereRadius {
			return Selection{Technique: SkyFromSpace, Cull: CullFront}
		}
		return Selection{Technique: SkyFromAtmosphere, Cull: CullFront}
	default:
		panic(fmt.Sprintf("shading: unknown node type %v", nodeType))
	}
}
