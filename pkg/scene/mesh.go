package scene

// Mesh is a polygonal geometry. Polygons are stored flattened: polygon p
// owns PolygonVertices[PolygonStarts[p]:PolygonStarts[p+1]].
type Mesh struct {
	ID   ID
	Name string

	ControlPoints   []Position
	PolygonVertices []int // Corner -> control point index
	PolygonStarts   []int // len = polygon count + 1

	Normals   []*Layer[Normal]
	Tangents  []*Layer[Normal]
	Binormals []*Layer[Normal]
	UVs       []*UVLayer
	Colors    []*Layer[Color]
	Materials []*MaterialLayer
}

func (m *Mesh) GeometryID() ID               { return m.ID }
func (m *Mesh) GeometryName() string         { return m.Name }
func (m *Mesh) AttributeType() AttributeType { return AttributeMesh }

// ControlPointCount returns the number of control points.
func (m *Mesh) ControlPointCount() int {
	return len(m.ControlPoints)
}

// PolygonCount returns the number of polygons.
func (m *Mesh) PolygonCount() int {
	if len(m.PolygonStarts) == 0 {
		return 0
	}
	return len(m.PolygonStarts) - 1
}

// PolygonSize returns the corner count of polygon p, or -1 if p is out of
// range.
func (m *Mesh) PolygonSize(p int) int {
	if p < 0 || p >= m.PolygonCount() {
		return -1
	}
	return m.PolygonStarts[p+1] - m.PolygonStarts[p]
}

// PolygonVertexIndex returns the running corner index of corner k of polygon
// p, or -1 if either is out of range.
func (m *Mesh) PolygonVertexIndex(p, k int) int {
	size := m.PolygonSize(p)
	if size < 0 || k < 0 || k >= size {
		return -1
	}
	return m.PolygonStarts[p] + k
}

// PolygonVertex returns the control point index of corner k of polygon p,
// or -1 if the corner does not exist. The stored value itself may be
// negative or out of range on malformed input.
func (m *Mesh) PolygonVertex(p, k int) int {
	i := m.PolygonVertexIndex(p, k)
	if i < 0 {
		return -1
	}
	return m.PolygonVertices[i]
}

// TextureUVIndex returns the UV key for corner k of polygon p in layer.
func (m *Mesh) TextureUVIndex(layer *UVLayer, p, k int) int {
	i := m.PolygonVertexIndex(p, k)
	if i < 0 || layer.UVIndex == nil {
		return i
	}
	if i >= len(layer.UVIndex) {
		return -1
	}
	return layer.UVIndex[i]
}

// IsTriangleMesh reports whether every polygon has exactly three corners.
func (m *Mesh) IsTriangleMesh() bool {
	for p := 0; p < m.PolygonCount(); p++ {
		if m.PolygonSize(p) != 3 {
			return false
		}
	}
	return true
}
