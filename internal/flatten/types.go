// Package flatten resolves scene meshes into renderer-ready triangle
// sections grouped by material.
package flatten

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshflat/pkg/scene"
)

// ShadingPolicy selects how normals, tangents and binormals are resolved.
type ShadingPolicy int

const (
	// ShadingFlat resolves one value per face from its first corner and
	// replicates it to all three corners.
	ShadingFlat ShadingPolicy = iota
	// ShadingSmooth resolves every corner independently.
	ShadingSmooth
)

// String returns the policy name used in configuration.
func (p ShadingPolicy) String() string {
	switch p {
	case ShadingFlat:
		return "flat"
	case ShadingSmooth:
		return "smooth"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParseShadingPolicy parses "flat" or "smooth".
func ParseShadingPolicy(s string) (ShadingPolicy, error) {
	switch s {
	case "flat", "":
		return ShadingFlat, nil
	case "smooth":
		return ShadingSmooth, nil
	}
	return ShadingFlat, fmt.Errorf("unknown shading policy %q", s)
}

// CornerIndexing selects the key that ByPolygonVertex layers are read with.
type CornerIndexing int

const (
	// CornerRetained counts only the corners of faces that reach a section.
	// Dropped and unassigned faces do not advance the counter.
	CornerRetained CornerIndexing = iota
	// CornerPolygonVertex uses the mesh's polygon-vertex index, which
	// advances over every corner of every face.
	CornerPolygonVertex
)

// String returns the indexing name used in configuration.
func (c CornerIndexing) String() string {
	switch c {
	case CornerRetained:
		return "retained"
	case CornerPolygonVertex:
		return "polygon_vertex"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ParseCornerIndexing parses "retained" or "polygon_vertex".
func ParseCornerIndexing(s string) (CornerIndexing, error) {
	switch s {
	case "retained", "":
		return CornerRetained, nil
	case "polygon_vertex":
		return CornerPolygonVertex, nil
	}
	return CornerRetained, fmt.Errorf("unknown corner indexing %q", s)
}

// Defaults substituted when no layer yields a value.
var (
	DefaultColor  = scene.Color{1, 1, 1, 1}
	DefaultNormal = scene.Normal{}
	DefaultUV     = scene.UV{}
)

// ResolvedCorner is one triangle corner with every attribute resolved.
type ResolvedCorner struct {
	ControlPoint int
	Position     scene.Position
	Normal       scene.Normal
	Tangent      scene.Normal
	Binormal     scene.Normal
	UV           scene.UV
	Color        scene.Color
}

// Section holds the triangles of one mesh that share a material. Corners
// come in runs of three, one run per source face, in source winding order.
type Section struct {
	MaterialID scene.ID
	Corners    []ResolvedCorner
}

// TriangleCount returns the number of triangles in the section.
func (s *Section) TriangleCount() int {
	return len(s.Corners) / 3
}

// Triangle returns the three corners of triangle i.
func (s *Section) Triangle(i int) []ResolvedCorner {
	return s.Corners[i*3 : i*3+3]
}

// GeometryInfo is the flattened form of one mesh.
type GeometryInfo struct {
	ID            scene.ID
	Name          string
	ControlPoints []scene.Position
	Sections      map[scene.ID]*Section

	// Faces left out of every section.
	DroppedFaces    int // Invalid control point reference
	UnassignedFaces int // No material could be resolved

	// Attribute lookups that hit an invalid index and fell back to a default.
	InvalidAttributes int
}

// SectionIDs returns the material ids of all sections in ascending order.
func (g *GeometryInfo) SectionIDs() []scene.ID {
	ids := make([]scene.ID, 0, len(g.Sections))
	for id := range g.Sections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TriangleCount returns the number of triangles over all sections.
func (g *GeometryInfo) TriangleCount() int {
	total := 0
	for _, s := range g.Sections {
		total += s.TriangleCount()
	}
	return total
}

// ColorProperty is a material color channel with an optional texture.
type ColorProperty struct {
	Color   mgl64.Vec3
	Texture string
}

// FactorProperty is a scalar material channel with an optional texture.
type FactorProperty struct {
	Factor  float64
	Texture string
}

// MaterialInfo is the flattened description of one material.
type MaterialInfo struct {
	ID           scene.ID
	Name         string
	Ambient      ColorProperty
	Diffuse      ColorProperty
	Specular     ColorProperty
	Emissive     ColorProperty
	Opacity      FactorProperty
	Shininess    FactorProperty
	Reflectivity FactorProperty
}

// NodeInfo describes one node of the hierarchy by id.
type NodeInfo struct {
	ID                scene.ID
	ParentID          scene.ID // 0 for the root
	Name              string
	LinkedMeshID      scene.ID // 0 if the node has no mesh
	LinkedMaterialIDs []scene.ID
}

// InstanceKey identifies one placement of a mesh under a node.
type InstanceKey struct {
	MeshID scene.ID
	NodeID scene.ID
}
