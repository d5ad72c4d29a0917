package formats

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshflat/pkg/scene"
)

const quadSceneFile = `
format: meshflat-scene
version: "1.2"
info:
  title: Quad
  author: tools
root:
  id: 1
  name: Root
materials:
  - id: 300
    name: brick
    colors:
      DiffuseColor: [0.8, 0.2, 0.1]
    factors:
      Shininess: 20
    textures:
      DiffuseColor: textures/brick.png
geometries:
  - id: 100
    name: quad
    control_points:
      - [0, 0, 0]
      - [1, 0, 0]
      - [1, 1, 0]
      - [0, 1, 0, 1]
    polygons:
      - [0, 1, 2, 3]
    normals:
      - mapping: ByPolygonVertex
        reference: Direct
        values: [[0, 0, 1], [0, 0, 1], [0, 0, 1], [0, 0, 1]]
    colors:
      - mapping: ByControlPoint
        reference: IndexToDirect
        values: [[1, 0, 0], [0, 1, 0, 0.5]]
        index: [0, 1, 0, 1]
    uvs:
      - mapping: ByPolygonVertex
        reference: IndexToDirect
        values: [[0, 0], [1, 1]]
        index: [0, 1]
        uv_index: [0, 1, 1, 0]
    materials:
      - mapping: AllSame
        index: [0]
  - id: 400
    name: curve
    type: nurbs
nodes:
  - id: 200
    name: body
    attribute: 100
    materials: [300]
  - id: 201
    name: child
    parent: 200
`

func TestParseSceneFile(t *testing.T) {
	s, err := ParseSceneFile([]byte(quadSceneFile))
	if err != nil {
		t.Fatalf("ParseSceneFile: %v", err)
	}

	if s.Info.Title != "Quad" || s.Info.Author != "tools" {
		t.Errorf("unexpected info %+v", s.Info)
	}
	if root := s.RootNode(); root == nil || root.ID != 1 || root.Name != "Root" {
		t.Errorf("unexpected root %+v", root)
	}
	if s.GeometryCount() != 2 {
		t.Fatalf("expected 2 geometries, got %d", s.GeometryCount())
	}
	if g := s.GeometryByID(400); g == nil || g.AttributeType() != scene.AttributeNurbs {
		t.Errorf("expected nurbs geometry 400, got %v", g)
	}

	m := s.MeshByID(100)
	if m == nil {
		t.Fatal("mesh 100 missing")
	}
	if m.PolygonCount() != 1 || m.PolygonSize(0) != 4 {
		t.Errorf("expected one quad, got %d polygons", m.PolygonCount())
	}
	if m.ControlPoints[0] != (scene.Position{0, 0, 0, 1}) {
		t.Errorf("expected w=1 for 3-component point, got %v", m.ControlPoints[0])
	}
	if len(m.Normals) != 1 || m.Normals[0].Mapping != scene.MappingByPolygonVertex || m.Normals[0].Direct[0][3] != 0 {
		t.Errorf("unexpected normal layer %+v", m.Normals)
	}
	if c := m.Colors[0]; c.Reference != scene.ReferenceIndexToDirect || c.Direct[0] != (scene.Color{1, 0, 0, 1}) || c.Direct[1][3] != 0.5 {
		t.Errorf("unexpected color layer %+v", c)
	}
	if uv := m.UVs[0]; len(uv.UVIndex) != 4 || uv.Direct[1] != (scene.UV{1, 1}) {
		t.Errorf("unexpected uv layer %+v", uv)
	}
	if len(m.Materials) != 1 || m.Materials[0].Mapping != scene.MappingAllSame {
		t.Errorf("unexpected material layer %+v", m.Materials)
	}

	mat := s.Material(300)
	if mat == nil || mat.Colors[scene.PropDiffuseColor] != (mgl64.Vec3{0.8, 0.2, 0.1}) || mat.Textures[scene.PropDiffuseColor] != "textures/brick.png" {
		t.Errorf("unexpected material %+v", mat)
	}

	body := s.Node(200)
	if body == nil || body.Parent != 1 || body.Attribute != 100 || len(body.Materials) != 1 {
		t.Errorf("unexpected node %+v", body)
	}
	if child := s.Node(201); child == nil || child.Parent != 200 {
		t.Errorf("unexpected child %+v", child)
	}
}

func TestParseSceneFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{
			name:    "not yaml",
			data:    "format: [",
			wantErr: ErrInvalidSceneFormat,
		},
		{
			name:    "wrong format",
			data:    "format: other\nversion: \"1.0\"\n",
			wantErr: ErrInvalidSceneFormat,
		},
		{
			name:    "future version",
			data:    "format: meshflat-scene\nversion: \"2.0\"\n",
			wantErr: ErrUnsupportedSceneVersion,
		},
		{
			name:    "missing version",
			data:    "format: meshflat-scene\n",
			wantErr: ErrUnsupportedSceneVersion,
		},
		{
			name: "bad mapping",
			data: `format: meshflat-scene
version: "1.0"
geometries:
  - id: 1
    control_points: [[0, 0, 0]]
    normals:
      - mapping: Sideways
`,
			wantErr: ErrInvalidSceneFormat,
		},
		{
			name: "bad vector",
			data: `format: meshflat-scene
version: "1.0"
geometries:
  - id: 1
    control_points: [[0, 0]]
`,
			wantErr: ErrInvalidSceneFormat,
		},
		{
			name: "index without table",
			data: `format: meshflat-scene
version: "1.0"
geometries:
  - id: 1
    control_points: [[0, 0, 0]]
    colors:
      - mapping: ByControlPoint
        reference: IndexToDirect
        values: [[1, 1, 1]]
`,
			wantErr: ErrInvalidSceneFormat,
		},
		{
			name: "duplicate ids",
			data: `format: meshflat-scene
version: "1.0"
materials:
  - id: 5
nodes:
  - id: 5
`,
			wantErr: scene.ErrDuplicateID,
		},
		{
			name: "unknown parent",
			data: `format: meshflat-scene
version: "1.0"
nodes:
  - id: 5
    parent: 9
`,
			wantErr: scene.ErrUnknownParent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSceneFile([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseSceneFile_VersionError(t *testing.T) {
	_, err := ParseSceneFile([]byte("format: meshflat-scene\nversion: \"3.1\"\n"))

	var ve *VersionError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *VersionError, got %v", err)
	}
	if ve.Expected != "1.x" || ve.Actual != "3.1" || ve.Format != SceneFileFormat {
		t.Errorf("unexpected version error %+v", ve)
	}
}
