package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/material"
	"github.com/df07/go-atmosphere/pkg/mesh"
)

// NodeType selects how a node is shaded. The set is closed.
type NodeType int

const (
	Geometry NodeType = iota
	Atmosphere
)

func (t NodeType) String() string {
	switch t {
	case Geometry:
		return "geometry"
	case Atmosphere:
		return "atmosphere"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// NodeID is a stable handle to a node in a Graph
type NodeID int

// Root is the ID of the root node of every graph
const Root NodeID = 0

// Node is a scene graph node. Position, Rotation, Scale and ReferencePoint
// are parent-relative; World is derived by Propagate.
type Node struct {
	Name string
	Type NodeType

	Position       core.Vec3
	Rotation       core.Vec3 // Euler angles in radians, applied Y then X then Z
	Scale          core.Vec3
	ReferencePoint core.Vec3 // Pivot for rotation and scale

	World mgl64.Mat4

	Renderable *mesh.Renderable
	Texture    material.ColorSource

	children []NodeID
}

// NewNode creates a node with unit scale and an identity world transform
func NewNode(name string, nodeType NodeType) Node {
	return Node{
		Name:  name,
		Type:  nodeType,
		Scale: core.NewVec3(1, 1, 1),
		World: mgl64.Ident4(),
	}
}

// WorldPosition returns the translation part of the world transform
func (n *Node) WorldPosition() core.Vec3 {
	return core.FromMgl(n.World.Col(3).Vec3())
}
