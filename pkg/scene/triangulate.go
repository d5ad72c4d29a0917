package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegeneratePolygon is returned when a polygon cannot form a triangle.
var ErrDegeneratePolygon = errors.New("polygon has fewer than three corners")

const areaEpsilon = 1e-12

// Triangulate returns an equivalent mesh in which every polygon is a
// triangle. Per-corner and per-polygon layers are re-keyed to the new
// corners and polygons; control points and value arrays are shared with m.
// A mesh that is already triangular is returned unchanged.
func Triangulate(m *Mesh) (*Mesh, error) {
	if m.IsTriangleMesh() {
		return m, nil
	}

	out := &Mesh{
		ID:            m.ID,
		Name:          m.Name,
		ControlPoints: m.ControlPoints,
		PolygonStarts: []int{0},
	}
	var srcCorner, srcFace []int

	for p := 0; p < m.PolygonCount(); p++ {
		start, size := m.PolygonStarts[p], m.PolygonSize(p)
		if size < 3 {
			return nil, fmt.Errorf("%w: mesh %d polygon %d has %d", ErrDegeneratePolygon, m.ID, p, size)
		}

		for _, tri := range triangulatePolygon(m, start, size) {
			for _, k := range tri {
				out.PolygonVertices = append(out.PolygonVertices, m.PolygonVertices[start+k])
				srcCorner = append(srcCorner, start+k)
			}
			out.PolygonStarts = append(out.PolygonStarts, len(out.PolygonVertices))
			srcFace = append(srcFace, p)
		}
	}

	for _, l := range m.Normals {
		out.Normals = append(out.Normals, remapLayer(l, srcCorner, srcFace))
	}
	for _, l := range m.Tangents {
		out.Tangents = append(out.Tangents, remapLayer(l, srcCorner, srcFace))
	}
	for _, l := range m.Binormals {
		out.Binormals = append(out.Binormals, remapLayer(l, srcCorner, srcFace))
	}
	for _, l := range m.Colors {
		out.Colors = append(out.Colors, remapLayer(l, srcCorner, srcFace))
	}
	for _, l := range m.UVs {
		out.UVs = append(out.UVs, remapUVLayer(l, srcCorner, srcFace))
	}
	for _, l := range m.Materials {
		out.Materials = append(out.Materials, remapMaterialLayer(l, srcFace))
	}

	return out, nil
}

// triangulatePolygon splits one polygon into triangles given as corner
// positions within the polygon, each in the polygon's winding order.
func triangulatePolygon(m *Mesh, start, size int) [][3]int {
	if size == 3 {
		return [][3]int{{0, 1, 2}}
	}

	points := make([]mgl64.Vec3, size)
	for k := 0; k < size; k++ {
		cp := m.PolygonVertices[start+k]
		if cp < 0 || cp >= len(m.ControlPoints) {
			return fanTriangles(size)
		}
		points[k] = m.ControlPoints[cp].Vec3()
	}

	if tris, ok := earClip(points); ok {
		return tris
	}
	return fanTriangles(size)
}

func fanTriangles(size int) [][3]int {
	tris := make([][3]int, 0, size-2)
	for k := 1; k < size-1; k++ {
		tris = append(tris, [3]int{0, k, k + 1})
	}
	return tris
}

// earClip triangulates a simple planar polygon. It reports false for
// degenerate input, in which case callers fall back to a fan.
func earClip(points []mgl64.Vec3) ([][3]int, bool) {
	flat, ok := projectPolygon(points)
	if !ok {
		return nil, false
	}

	remaining := make([]int, len(points))
	for i := range remaining {
		remaining[i] = i
	}

	tris := make([][3]int, 0, len(points)-2)
	for len(remaining) > 3 {
		clipped := false
		n := len(remaining)
		for i := 0; i < n; i++ {
			a, b, c := remaining[(i+n-1)%n], remaining[i], remaining[(i+1)%n]
			if cross2(flat[a], flat[b], flat[c]) <= areaEpsilon {
				continue
			}
			if containsAny(flat, remaining, a, b, c) {
				continue
			}
			tris = append(tris, [3]int{a, b, c})
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, false
		}
	}
	tris = append(tris, [3]int{remaining[0], remaining[1], remaining[2]})

	// Ears are emitted with rotated corners; restore ascending order so the
	// first corner of each triangle is the earliest polygon corner.
	for i, t := range tris {
		tris[i] = rotateAscending(t)
	}
	return tris, true
}

// projectPolygon drops the dominant axis of the polygon's Newell normal so
// that the projected polygon winds counter-clockwise.
func projectPolygon(points []mgl64.Vec3) ([]mgl64.Vec2, bool) {
	var n mgl64.Vec3
	for i := range points {
		cur, next := points[i], points[(i+1)%len(points)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	if n.Len() < areaEpsilon {
		return nil, false
	}

	ax, ay := math.Abs(n[0]), math.Abs(n[1])
	az := math.Abs(n[2])
	var u, v int
	switch {
	case az >= ax && az >= ay:
		u, v = 0, 1
		if n[2] < 0 {
			u, v = v, u
		}
	case ax >= ay:
		u, v = 1, 2
		if n[0] < 0 {
			u, v = v, u
		}
	default:
		u, v = 2, 0
		if n[1] < 0 {
			u, v = v, u
		}
	}

	flat := make([]mgl64.Vec2, len(points))
	for i, p := range points {
		flat[i] = mgl64.Vec2{p[u], p[v]}
	}
	return flat, true
}

func cross2(a, b, c mgl64.Vec2) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func containsAny(flat []mgl64.Vec2, remaining []int, a, b, c int) bool {
	for _, i := range remaining {
		if i == a || i == b || i == c {
			continue
		}
		p := flat[i]
		if cross2(flat[a], flat[b], p) >= 0 &&
			cross2(flat[b], flat[c], p) >= 0 &&
			cross2(flat[c], flat[a], p) >= 0 {
			return true
		}
	}
	return false
}

func rotateAscending(t [3]int) [3]int {
	switch {
	case t[1] < t[0] && t[1] < t[2]:
		return [3]int{t[1], t[2], t[0]}
	case t[2] < t[0] && t[2] < t[1]:
		return [3]int{t[2], t[0], t[1]}
	}
	return t
}

// remapLayer re-keys per-corner and per-polygon layers. The result always
// uses IndexToDirect over the unchanged value array so that invalid source
// keys stay invalid.
func remapLayer[T any](l *Layer[T], srcCorner, srcFace []int) *Layer[T] {
	var keys []int
	switch l.Mapping {
	case MappingByPolygonVertex:
		keys = srcCorner
	case MappingByPolygon:
		keys = srcFace
	default:
		return l
	}
	return &Layer[T]{
		Name:      l.Name,
		Mapping:   l.Mapping,
		Reference: ReferenceIndexToDirect,
		Direct:    l.Direct,
		Index:     remapKeys(l.Reference, l.Index, keys),
	}
}

func remapKeys(ref ReferenceMode, index, keys []int) []int {
	out := make([]int, len(keys))
	for i, k := range keys {
		if ref == ReferenceDirect {
			out[i] = k
			continue
		}
		if k < 0 || k >= len(index) {
			out[i] = -1
			continue
		}
		out[i] = index[k]
	}
	return out
}

// remapUVLayer keeps ByPolygonVertex layers intact and re-keys their UV
// index table instead, so each new corner still yields the same UV key.
func remapUVLayer(l *UVLayer, srcCorner, srcFace []int) *UVLayer {
	uvIndex := make([]int, len(srcCorner))
	for i, c := range srcCorner {
		switch {
		case l.UVIndex == nil:
			uvIndex[i] = c
		case c < len(l.UVIndex):
			uvIndex[i] = l.UVIndex[c]
		default:
			uvIndex[i] = -1
		}
	}

	out := &UVLayer{Layer: l.Layer, UVIndex: uvIndex}
	if l.Mapping != MappingByPolygonVertex {
		out.Layer = *remapLayer(&l.Layer, srcCorner, srcFace)
	}
	return out
}

func remapMaterialLayer(l *MaterialLayer, srcFace []int) *MaterialLayer {
	if l.Mapping != MappingByPolygon {
		return l
	}
	return &MaterialLayer{
		Name:    l.Name,
		Mapping: l.Mapping,
		Index:   remapKeys(ReferenceIndexToDirect, l.Index, srcFace),
	}
}
