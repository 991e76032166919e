package scene

import "fmt"

// Graph is an arena of nodes forming a tree rooted at Root. Nodes are only
// ever appended under an existing parent, so the tree cannot contain a cycle.
type Graph struct {
	nodes      []Node
	atmosphere NodeID
}

// NewGraph creates a graph whose root is the given node
func NewGraph(root Node) *Graph {
	g := &Graph{atmosphere: -1}
	g.append(root)
	return g
}

// AddChild appends n as the last child of parent and returns its ID.
// Adding to an unknown parent or adding a second atmosphere node is a
// programming error and panics.
func (g *Graph) AddChild(parent NodeID, n Node) NodeID {
	if !g.valid(parent) {
		panic(fmt.Sprintf("scene: parent %d does not exist", parent))
	}
	id := g.append(n)
	g.nodes[parent].children = append(g.nodes[parent].children, id)
	return id
}

func (g *Graph) append(n Node) NodeID {
	id := NodeID(len(g.nodes))
	if n.Type == Atmosphere {
		if g.atmosphere >= 0 {
			panic("scene: a graph holds at most one atmosphere node")
		}
		g.atmosphere = id
	}
	n.children = nil
	g.nodes = append(g.nodes, n)
	return id
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Node returns the node for id. The pointer stays valid until the next AddChild.
func (g *Graph) Node(id NodeID) *Node {
	if !g.valid(id) {
		panic(fmt.Sprintf("scene: node %d does not exist", id))
	}
	return &g.nodes[id]
}

// Children returns the children of id in insertion order
func (g *Graph) Children(id NodeID) []NodeID {
	return g.Node(id).children
}

// Len returns the number of nodes including the root
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Atmosphere returns the atmosphere node, if the graph has one
func (g *Graph) Atmosphere() (NodeID, bool) {
	return g.atmosphere, g.atmosphere >= 0
}

// Walk visits every node in pre-order: parent first, siblings in insertion order
func (g *Graph) Walk(fn func(id NodeID, n *Node)) {
	g.walk(Root, fn)
}

func (g *Graph) walk(id NodeID, fn func(NodeID, *Node)) {
	fn(id, &g.nodes[id])
	for _, child := range g.nodes[id].children {
		g.walk(child, fn)
	}
}

// Find returns the first node in pre-order with the given name
func (g *Graph) Find(name string) (NodeID, bool) {
	found := NodeID(-1)
	g.Walk(func(id NodeID, n *Node) {
		if found < 0 && n.Name == name {
			found = id
		}
	})
	return found, found >= 0
}
