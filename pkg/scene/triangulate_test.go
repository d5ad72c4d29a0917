package scene

import (
	"errors"
	"testing"
)

func quadMesh() *Mesh {
	points := []Position{
		{0, 0, 0, 1},
		{1, 0, 0, 1},
		{1, 1, 0, 1},
		{0, 1, 0, 1},
	}
	return NewMesh(1, "quad", points, [][]int{{0, 1, 2, 3}})
}

func TestTriangulate_AlreadyTriangular(t *testing.T) {
	m := NewMesh(1, "tri", make([]Position, 3), [][]int{{0, 1, 2}})
	got, err := Triangulate(m)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if got != m {
		t.Error("expected triangular mesh to be returned unchanged")
	}
}

func TestTriangulate_Quad(t *testing.T) {
	m := quadMesh()
	m.Colors = []*Layer[Color]{{
		Mapping: MappingByPolygonVertex,
		Direct:  []Color{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}, {1, 1, 1, 1}},
	}}
	m.Normals = []*Layer[Normal]{{
		Mapping:   MappingByPolygon,
		Reference: ReferenceIndexToDirect,
		Direct:    []Normal{{0, 0, 1, 0}},
		Index:     []int{0},
	}}
	m.Materials = []*MaterialLayer{{Mapping: MappingByPolygon, Index: []int{2}}}
	m.UVs = []*UVLayer{{
		Layer:   Layer[UV]{Mapping: MappingByPolygonVertex, Reference: ReferenceIndexToDirect, Direct: []UV{{0, 0}, {1, 1}}, Index: []int{0, 1, 0, 1}},
		UVIndex: []int{3, 2, 1, 0},
	}}

	out, err := Triangulate(m)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if out.PolygonCount() != 2 || !out.IsTriangleMesh() {
		t.Fatalf("expected 2 triangles, got %d polygons", out.PolygonCount())
	}

	// Every new corner must resolve to the same color as its source corner.
	for p := 0; p < out.PolygonCount(); p++ {
		for k := 0; k < 3; k++ {
			cp := out.PolygonVertex(p, k)
			got, ok := out.Colors[0].Accessor()(out.PolygonVertexIndex(p, k))
			if !ok || got != m.Colors[0].Direct[cp] {
				t.Errorf("triangle %d corner %d: color %v, want %v", p, k, got, m.Colors[0].Direct[cp])
			}

			wantUV, _ := m.UVs[0].Accessor()(3 - cp)
			gotUV, ok := out.UVs[0].Accessor()(out.TextureUVIndex(out.UVs[0], p, k))
			if !ok || gotUV != wantUV {
				t.Errorf("triangle %d corner %d: uv %v, want %v", p, k, gotUV, wantUV)
			}
		}
		if n, ok := out.Normals[0].Accessor()(p); !ok || n != (Normal{0, 0, 1, 0}) {
			t.Errorf("triangle %d normal = %v, %v", p, n, ok)
		}
		if out.Materials[0].Index[p] != 2 {
			t.Errorf("triangle %d material slot = %d", p, out.Materials[0].Index[p])
		}
	}

	again, err := Triangulate(out)
	if err != nil || again != out {
		t.Error("triangulating a triangulated mesh must be a no-op")
	}
}

func TestTriangulate_PreservesWinding(t *testing.T) {
	out, err := Triangulate(quadMesh())
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	for p := 0; p < out.PolygonCount(); p++ {
		a := out.ControlPoints[out.PolygonVertex(p, 0)].Vec3()
		b := out.ControlPoints[out.PolygonVertex(p, 1)].Vec3()
		c := out.ControlPoints[out.PolygonVertex(p, 2)].Vec3()
		if n := b.Sub(a).Cross(c.Sub(a)); n[2] <= 0 {
			t.Errorf("triangle %d flipped: normal %v", p, n)
		}
	}
}

func TestTriangulate_Concave(t *testing.T) {
	// Arrow shape; a fan from corner 0 would leave the polygon.
	points := []Position{
		{0, 0, 0, 1},
		{2, 1, 0, 1},
		{0, 2, 0, 1},
		{1, 1, 0, 1},
	}
	m := NewMesh(1, "arrow", points, [][]int{{3, 0, 1, 2}})
	out, err := Triangulate(m)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if out.PolygonCount() != 2 {
		t.Fatalf("expected 2 triangles, got %d", out.PolygonCount())
	}

	var area float64
	for p := 0; p < out.PolygonCount(); p++ {
		a := out.ControlPoints[out.PolygonVertex(p, 0)].Vec3()
		b := out.ControlPoints[out.PolygonVertex(p, 1)].Vec3()
		c := out.ControlPoints[out.PolygonVertex(p, 2)].Vec3()
		z := b.Sub(a).Cross(c.Sub(a))[2]
		if z <= 0 {
			t.Errorf("triangle %d is inverted or degenerate", p)
		}
		area += z / 2
	}
	if area < 0.999 || area > 1.001 {
		t.Errorf("total area = %f, want 1", area)
	}
}

func TestTriangulate_Degenerate(t *testing.T) {
	m := NewMesh(7, "line", make([]Position, 2), [][]int{{0, 1}})
	if _, err := Triangulate(m); !errors.Is(err, ErrDegeneratePolygon) {
		t.Errorf("expected ErrDegeneratePolygon, got %v", err)
	}
}

func TestTriangulate_InvalidCornerFallsBackToFan(t *testing.T) {
	m := NewMesh(1, "bad", make([]Position, 4), [][]int{{0, 1, -1, 3}})
	out, err := Triangulate(m)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	want := []int{0, 1, -1, 0, -1, 3}
	for i, v := range want {
		if out.PolygonVertices[i] != v {
			t.Fatalf("corners = %v, want %v", out.PolygonVertices, want)
		}
	}
}
