package flatten

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshflat/pkg/scene"
)

func TestWalk(t *testing.T) {
	b := scene.NewBuilder()
	b.SetRoot(1, "root")
	b.AddGeometry(createCube(testMeshID))
	b.AddGeometry(&scene.OpaqueGeometry{ID: testOtherID, Type: scene.AttributeCamera})
	b.AddMaterial(scene.Material{ID: testMatA})
	b.AddNode(scene.Node{ID: 10, Name: "body", Attribute: testMeshID, Materials: []scene.ID{testMatA}})
	b.AddNode(scene.Node{ID: 11, Name: "camera", Attribute: testOtherID, Materials: []scene.ID{testMatA}})
	b.AddNode(scene.Node{ID: 12, Name: "arm", Parent: 10, Attribute: testMeshID})
	b.AddNode(scene.Node{ID: 13, Name: "hand", Parent: 12})
	s, err := b.Build()
	if err != nil {
		t.Fatalf("building scene: %v", err)
	}

	got := Walk(s)
	want := []NodeInfo{
		{ID: 1, Name: "root"},
		{ID: 10, ParentID: 1, Name: "body", LinkedMeshID: testMeshID, LinkedMaterialIDs: []scene.ID{testMatA}},
		{ID: 12, ParentID: 10, Name: "arm", LinkedMeshID: testMeshID},
		{ID: 13, ParentID: 12, Name: "hand"},
		{ID: 11, ParentID: 1, Name: "camera"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestWalk_VisitsEveryNodeOnce(t *testing.T) {
	b := scene.NewBuilder()
	for i := scene.ID(1); i <= 50; i++ {
		parent := scene.ID(0)
		if i > 1 {
			parent = i / 2
		}
		b.AddNode(scene.Node{ID: i, Parent: parent})
	}
	s, err := b.Build()
	if err != nil {
		t.Fatalf("building scene: %v", err)
	}

	seen := map[scene.ID]int{}
	for _, n := range Walk(s) {
		seen[n.ID]++
	}
	if len(seen) != s.NodeCount() {
		t.Errorf("visited %d of %d nodes", len(seen), s.NodeCount())
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("node %d visited %d times", id, n)
		}
	}
}

func TestMaterials(t *testing.T) {
	b := scene.NewBuilder()
	b.AddMaterial(scene.Material{
		ID:   testMatA,
		Name: "brick",
		Colors: map[string]mgl64.Vec3{
			scene.PropDiffuseColor:  {0.8, 0.2, 0.1},
			scene.PropEmissiveColor: {0, 0, 0.5},
		},
		Factors: map[string]float64{
			scene.PropShininess:    20,
			scene.PropTransparency: 0.25,
		},
		Textures: map[string]string{
			scene.PropDiffuseColor: "textures/brick.png",
		},
	})
	b.AddMaterial(scene.Material{ID: testMatB, Name: "plain", Factors: map[string]float64{scene.PropOpacity: 0.5, scene.PropTransparency: 0.9}})
	s, err := b.Build()
	if err != nil {
		t.Fatalf("building scene: %v", err)
	}

	infos := Materials(s)
	if len(infos) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(infos))
	}

	brick := infos[testMatA]
	if brick.Diffuse.Color != (mgl64.Vec3{0.8, 0.2, 0.1}) || brick.Diffuse.Texture != "textures/brick.png" {
		t.Errorf("unexpected diffuse %+v", brick.Diffuse)
	}
	if brick.Emissive.Color[2] != 0.5 || brick.Emissive.Texture != "" {
		t.Errorf("unexpected emissive %+v", brick.Emissive)
	}
	if brick.Shininess.Factor != 20 {
		t.Errorf("expected shininess 20, got %f", brick.Shininess.Factor)
	}
	if brick.Opacity.Factor != 0.75 {
		t.Errorf("expected opacity derived from transparency, got %f", brick.Opacity.Factor)
	}
	if brick.Reflectivity.Factor != 0 {
		t.Errorf("expected zero reflectivity, got %f", brick.Reflectivity.Factor)
	}

	if plain := infos[testMatB]; plain.Opacity.Factor != 0.5 {
		t.Errorf("explicit opacity should win, got %f", plain.Opacity.Factor)
	}

	if tex := infos[testMatB].Diffuse.Texture; tex != "" {
		t.Errorf("expected no texture on plain material, got %q", tex)
	}
}

func TestMetadata(t *testing.T) {
	b := scene.NewBuilder()
	b.SetInfo(scene.DocumentInfo{Title: "Castle", Author: "someone", Revision: "3"})
	s, err := b.Build()
	if err != nil {
		t.Fatalf("building scene: %v", err)
	}

	meta := Metadata(s)
	want := map[string]string{
		MetaTitle: "Castle", MetaSubject: "", MetaAuthor: "someone",
		MetaKeywords: "", MetaRevision: "3", MetaComment: "",
	}
	if !reflect.DeepEqual(meta, want) {
		t.Errorf("Metadata() = %v, want %v", meta, want)
	}
}
