// Package scene provides the read-only object model of a loaded 3D scene:
// geometries with their attribute layers, materials and the node tree.
// Entities live in flat arenas and refer to each other by ID.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ID is a unique object identifier within a scene. Zero means "none".
type ID uint64

// Vector aliases used throughout the model.
type (
	Position = mgl64.Vec4
	Normal   = mgl64.Vec4
	UV       = mgl64.Vec2
	Color    = mgl64.Vec4
)

// AttributeType identifies what a node attribute (or geometry) is.
type AttributeType int

const (
	AttributeUnknown AttributeType = iota
	AttributeNull
	AttributeMesh
	AttributeNurbs
	AttributePatch
	AttributeSkeleton
	AttributeCamera
	AttributeLight
)

// String returns the attribute type name.
func (t AttributeType) String() string {
	switch t {
	case AttributeNull:
		return "null"
	case AttributeMesh:
		return "mesh"
	case AttributeNurbs:
		return "nurbs"
	case AttributePatch:
		return "patch"
	case AttributeSkeleton:
		return "skeleton"
	case AttributeCamera:
		return "camera"
	case AttributeLight:
		return "light"
	default:
		return "unknown"
	}
}

// Geometry is any geometry object held by a scene.
type Geometry interface {
	GeometryID() ID
	GeometryName() string
	AttributeType() AttributeType
}

// OpaqueGeometry is a non-mesh geometry (NURBS, patch, ...) whose contents
// are not modelled.
type OpaqueGeometry struct {
	ID   ID
	Name string
	Type AttributeType
}

func (g *OpaqueGeometry) GeometryID() ID               { return g.ID }
func (g *OpaqueGeometry) GeometryName() string         { return g.Name }
func (g *OpaqueGeometry) AttributeType() AttributeType { return g.Type }

// Node is an element of the scene hierarchy.
type Node struct {
	ID        ID
	Name      string
	Parent    ID // 0 for the root
	Children  []ID
	Attribute ID   // Attached geometry (or other attribute), 0 for none
	Materials []ID // Bound material slots
}

// Material is a surface material. Colors, factors and textures are keyed by
// property name (DiffuseColor, Shininess, ...).
type Material struct {
	ID       ID
	Name     string
	Colors   map[string]mgl64.Vec3
	Factors  map[string]float64
	Textures map[string]string
}

// Well-known material property names.
const (
	PropAmbientColor     = "AmbientColor"
	PropDiffuseColor     = "DiffuseColor"
	PropSpecularColor    = "SpecularColor"
	PropEmissiveColor    = "EmissiveColor"
	PropOpacity          = "Opacity"
	PropTransparency     = "TransparencyFactor"
	PropShininess        = "Shininess"
	PropReflectionFactor = "ReflectionFactor"
)

// DocumentInfo is the scene's document metadata.
type DocumentInfo struct {
	Title    string
	Subject  string
	Author   string
	Keywords string
	Revision string
	Comment  string
}

// Scene is a loaded scene snapshot.
type Scene struct {
	Info DocumentInfo
	Root ID

	geometries []Geometry
	nodes      []Node
	materials  []Material

	geometryIndex map[ID]int
	nodeIndex     map[ID]int
	materialIndex map[ID]int
}

// GeometryCount returns the number of geometries.
func (s *Scene) GeometryCount() int {
	return len(s.geometries)
}

// Geometry returns the i-th geometry.
func (s *Scene) Geometry(i int) Geometry {
	return s.geometries[i]
}

// GeometryByID returns the geometry with the given id, or nil.
func (s *Scene) GeometryByID(id ID) Geometry {
	if i, ok := s.geometryIndex[id]; ok {
		return s.geometries[i]
	}
	return nil
}

// MeshByID returns the mesh with the given id, or nil if the id is unknown or
// not a mesh.
func (s *Scene) MeshByID(id ID) *Mesh {
	m, _ := s.GeometryByID(id).(*Mesh)
	return m
}

// NodeCount returns the number of nodes, root included.
func (s *Scene) NodeCount() int {
	return len(s.nodes)
}

// Node returns the node with the given id, or nil.
func (s *Scene) Node(id ID) *Node {
	if i, ok := s.nodeIndex[id]; ok {
		return &s.nodes[i]
	}
	return nil
}

// RootNode returns the root node.
func (s *Scene) RootNode() *Node {
	return s.Node(s.Root)
}

// MaterialCount returns the number of materials.
func (s *Scene) MaterialCount() int {
	return len(s.materials)
}

// MaterialAt returns the i-th material.
func (s *Scene) MaterialAt(i int) *Material {
	return &s.materials[i]
}

// Material returns the material with the given id, or nil.
func (s *Scene) Material(id ID) *Material {
	if i, ok := s.materialIndex[id]; ok {
		return &s.materials[i]
	}
	return nil
}

// String returns a short summary of the scene.
func (s *Scene) String() string {
	return fmt.Sprintf("scene{geometries=%d nodes=%d materials=%d}",
		len(s.geometries), len(s.nodes), len(s.materials))
}
