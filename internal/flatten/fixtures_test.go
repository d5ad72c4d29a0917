package flatten

import (
	"testing"

	"github.com/Faultbox/meshflat/pkg/scene"
)

const (
	testMeshID  scene.ID = 100
	testNodeID  scene.ID = 200
	testMatA    scene.ID = 300
	testMatB    scene.ID = 301
	testOtherID scene.ID = 400
)

// createCube returns a unit cube with six outward-facing quads.
func createCube(id scene.ID) *scene.Mesh {
	points := []scene.Position{
		{0, 0, 0, 1}, {1, 0, 0, 1}, {1, 1, 0, 1}, {0, 1, 0, 1},
		{0, 0, 1, 1}, {1, 0, 1, 1}, {1, 1, 1, 1}, {0, 1, 1, 1},
	}
	faces := [][]int{
		{0, 3, 2, 1}, // -Z
		{4, 5, 6, 7}, // +Z
		{0, 1, 5, 4}, // -Y
		{3, 7, 6, 2}, // +Y
		{0, 4, 7, 3}, // -X
		{1, 2, 6, 5}, // +X
	}
	m := scene.NewMesh(id, "cube", points, faces)
	m.Materials = []*scene.MaterialLayer{{Mapping: scene.MappingAllSame, Index: []int{0}}}
	return m
}

// createTwoTriangles returns two triangles sharing the edge 1-2, with face 0
// in material slot 0 and face 1 in slot 1.
func createTwoTriangles(id scene.ID) *scene.Mesh {
	points := []scene.Position{
		{0, 0, 0, 1}, {1, 0, 0, 1}, {0, 1, 0, 1}, {1, 1, 0, 1},
	}
	m := scene.NewMesh(id, "pair", points, [][]int{{0, 1, 2}, {2, 1, 3}})
	m.Materials = []*scene.MaterialLayer{{Mapping: scene.MappingByPolygon, Index: []int{0, 1}}}
	return m
}

func testNode(materials ...scene.ID) *scene.Node {
	return &scene.Node{ID: testNodeID, Name: "node", Attribute: testMeshID, Materials: materials}
}

// buildScene wraps meshes into a scene where node i instances mesh i.
func buildScene(t *testing.T, meshes ...*scene.Mesh) *scene.Scene {
	t.Helper()
	b := scene.NewBuilder()
	b.AddMaterial(scene.Material{ID: testMatA, Name: "A"})
	b.AddMaterial(scene.Material{ID: testMatB, Name: "B"})
	for i, m := range meshes {
		b.AddGeometry(m)
		b.AddNode(scene.Node{
			ID:        testNodeID + scene.ID(i),
			Name:      m.Name,
			Attribute: m.ID,
			Materials: []scene.ID{testMatA, testMatB},
		})
	}
	s, err := b.Build()
	if err != nil {
		t.Fatalf("building scene: %v", err)
	}
	return s
}

// assertSections checks run-of-three and control point bounds.
func assertSections(t *testing.T, info *GeometryInfo) {
	t.Helper()
	for id, s := range info.Sections {
		if len(s.Corners)%3 != 0 {
			t.Errorf("section %d has %d corners, not a multiple of 3", id, len(s.Corners))
		}
		if s.MaterialID != id {
			t.Errorf("section keyed %d has material id %d", id, s.MaterialID)
		}
		for _, c := range s.Corners {
			if c.ControlPoint < 0 || c.ControlPoint >= len(info.ControlPoints) {
				t.Errorf("section %d references control point %d of %d", id, c.ControlPoint, len(info.ControlPoints))
			}
		}
	}
}
