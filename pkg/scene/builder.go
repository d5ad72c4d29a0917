package scene

import (
	"errors"
	"fmt"
)

// Builder errors.
var (
	ErrZeroID        = errors.New("object id must be non-zero")
	ErrDuplicateID   = errors.New("duplicate object id")
	ErrUnknownParent = errors.New("unknown parent node")
	ErrNodeCycle     = errors.New("node hierarchy contains a cycle")
	ErrMalformedMesh = errors.New("malformed mesh polygon table")
)

// DefaultRootName is the name given to an implicit root node.
const DefaultRootName = "RootNode"

// NewMesh creates a mesh from control points and polygons given as lists of
// control point indices.
func NewMesh(id ID, name string, points []Position, polygons [][]int) *Mesh {
	m := &Mesh{
		ID:            id,
		Name:          name,
		ControlPoints: points,
		PolygonStarts: make([]int, 0, len(polygons)+1),
	}
	m.PolygonStarts = append(m.PolygonStarts, 0)
	for _, poly := range polygons {
		m.PolygonVertices = append(m.PolygonVertices, poly...)
		m.PolygonStarts = append(m.PolygonStarts, len(m.PolygonVertices))
	}
	return m
}

// Builder assembles a Scene. Nodes whose Parent is zero are attached to the
// root. Children lists are derived from Parent links in insertion order.
type Builder struct {
	info       DocumentInfo
	rootID     ID
	rootName   string
	geometries []Geometry
	nodes      []Node
	materials  []Material
	nextID     ID
}

// NewBuilder creates an empty scene builder.
func NewBuilder() *Builder {
	return &Builder{nextID: 1}
}

// NewID returns an id not used by anything added so far.
func (b *Builder) NewID() ID {
	id := b.nextID
	b.nextID++
	return id
}

func (b *Builder) reserve(id ID) {
	if id >= b.nextID {
		b.nextID = id + 1
	}
}

// SetInfo sets the document metadata.
func (b *Builder) SetInfo(info DocumentInfo) *Builder {
	b.info = info
	return b
}

// SetRoot sets the id and name of the root node.
func (b *Builder) SetRoot(id ID, name string) *Builder {
	b.rootID = id
	b.rootName = name
	b.reserve(id)
	return b
}

// AddGeometry adds a geometry.
func (b *Builder) AddGeometry(g Geometry) *Builder {
	b.geometries = append(b.geometries, g)
	b.reserve(g.GeometryID())
	return b
}

// AddMaterial adds a material.
func (b *Builder) AddMaterial(m Material) *Builder {
	b.materials = append(b.materials, m)
	b.reserve(m.ID)
	return b
}

// AddNode adds a node. Its Children field is ignored.
func (b *Builder) AddNode(n Node) *Builder {
	n.Children = nil
	b.nodes = append(b.nodes, n)
	b.reserve(n.ID)
	return b
}

// Build validates the accumulated objects and returns the scene. Without
// SetRoot the first Build picks a root id, and later builds reuse it.
func (b *Builder) Build() (*Scene, error) {
	if b.rootID == 0 {
		b.rootID = b.NewID()
	}
	rootID, rootName := b.rootID, b.rootName
	if rootName == "" {
		rootName = DefaultRootName
	}

	s := &Scene{
		Info:          b.info,
		Root:          rootID,
		geometryIndex: make(map[ID]int, len(b.geometries)),
		nodeIndex:     make(map[ID]int, len(b.nodes)+1),
		materialIndex: make(map[ID]int, len(b.materials)),
	}
	seen := map[ID]string{rootID: "node"}

	claim := func(id ID, kind string) error {
		if id == 0 {
			return fmt.Errorf("%w: %s", ErrZeroID, kind)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: %d (%s and %s)", ErrDuplicateID, id, prev, kind)
		}
		seen[id] = kind
		return nil
	}

	for i, g := range b.geometries {
		if err := claim(g.GeometryID(), "geometry"); err != nil {
			return nil, err
		}
		if m, ok := g.(*Mesh); ok {
			if err := validateMesh(m); err != nil {
				return nil, err
			}
		}
		s.geometryIndex[g.GeometryID()] = i
		s.geometries = append(s.geometries, g)
	}

	for i, m := range b.materials {
		if err := claim(m.ID, "material"); err != nil {
			return nil, err
		}
		s.materialIndex[m.ID] = i
		s.materials = append(s.materials, m)
	}

	s.nodes = append(s.nodes, Node{ID: rootID, Name: rootName})
	s.nodeIndex[rootID] = 0
	for _, n := range b.nodes {
		if err := claim(n.ID, "node"); err != nil {
			return nil, err
		}
		if n.Parent == 0 {
			n.Parent = rootID
		}
		s.nodeIndex[n.ID] = len(s.nodes)
		s.nodes = append(s.nodes, n)
	}

	for i := 1; i < len(s.nodes); i++ {
		n := &s.nodes[i]
		pi, ok := s.nodeIndex[n.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: node %d references %d", ErrUnknownParent, n.ID, n.Parent)
		}
		s.nodes[pi].Children = append(s.nodes[pi].Children, n.ID)
	}

	// Every node must reach the root by following parents.
	for i := 1; i < len(s.nodes); i++ {
		id := s.nodes[i].ID
		for steps := 0; id != rootID; steps++ {
			if steps > len(s.nodes) {
				return nil, fmt.Errorf("%w: at node %d", ErrNodeCycle, s.nodes[i].ID)
			}
			id = s.nodes[s.nodeIndex[id]].Parent
		}
	}

	return s, nil
}

func validateMesh(m *Mesh) error {
	if len(m.PolygonStarts) == 0 {
		if len(m.PolygonVertices) != 0 {
			return fmt.Errorf("%w: mesh %d has corners but no polygon starts", ErrMalformedMesh, m.ID)
		}
		return nil
	}
	if m.PolygonStarts[0] != 0 || m.PolygonStarts[len(m.PolygonStarts)-1] != len(m.PolygonVertices) {
		return fmt.Errorf("%w: mesh %d polygon starts do not cover corners", ErrMalformedMesh, m.ID)
	}
	for p := 1; p < len(m.PolygonStarts); p++ {
		if m.PolygonStarts[p] < m.PolygonStarts[p-1] {
			return fmt.Errorf("%w: mesh %d polygon %d has negative size", ErrMalformedMesh, m.ID, p-1)
		}
	}
	return nil
}
