package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// LocalTransform composes a node's parent-relative transform:
//
//	T(position) T(+ref) Ry Rx Rz S(scale) T(-ref)
//
// The rightmost factor applies first. The Y, X, Z rotation order is fixed.
func LocalTransform(n *Node) mgl64.Mat4 {
	p, r, s, ref := n.Position, n.Rotation, n.Scale, n.ReferencePoint

	return mgl64.Translate3D(p.X, p.Y, p.Z).
		Mul4(mgl64.Translate3D(ref.X, ref.Y, ref.Z)).
		Mul4(mgl64.HomogRotate3DY(r.Y)).
		Mul4(mgl64.HomogRotate3DX(r.X)).
		Mul4(mgl64.HomogRotate3DZ(r.Z)).
		Mul4(mgl64.Scale3D(s.X, s.Y, s.Z)).
		Mul4(mgl64.Translate3D(-ref.X, -ref.Y, -ref.Z))
}

// Propagate sets World = inherited * Local for id and every descendant,
// parent before children.
func (g *Graph) Propagate(id NodeID, inherited mgl64.Mat4) {
	g.PropagateFunc(id, inherited, nil)
}

// PropagateFunc is Propagate with a callback invoked right after each node's
// world transform is final.
func (g *Graph) PropagateFunc(id NodeID, inherited mgl64.Mat4, visited func(NodeID, *Node)) {
	n := g.Node(id)
	n.World = inherited.Mul4(LocalTransform(n))
	if visited != nil {
		visited(id, n)
	}

	world := n.World
	for _, child := range n.children {
		g.PropagateFunc(child, world, visited)
	}
}
