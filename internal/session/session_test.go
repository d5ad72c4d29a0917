package session

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshflat/internal/flatten"
	"github.com/Faultbox/meshflat/pkg/formats"
	"github.com/Faultbox/meshflat/pkg/scene"
)

const triangleScene = `
format: meshflat-scene
version: "1.0"
info:
  title: Tri
materials:
  - id: 300
    name: red
    colors:
      DiffuseColor: [1, 0, 0]
geometries:
  - id: 100
    name: tri
    control_points: [[0, 0, 0], [1, 0, 0], [0, 1, 0], [1, 1, 0]]
    polygons: [[0, 1, 2, 3]]
    materials:
      - mapping: AllSame
        index: [0]
nodes:
  - id: 200
    name: body
    attribute: 100
    materials: [300]
`

func writeScene(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write scene: %v", err)
	}
	return path
}

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative workers", Options{Workers: -1}},
		{"bad shading", Options{Shading: flatten.ShadingPolicy(9)}},
		{"bad corner indexing", Options{Corners: flatten.CornerIndexing(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts, nil)
			if !errors.Is(err, ErrInitFailed) {
				t.Errorf("expected ErrInitFailed, got %v", err)
			}
		})
	}
}

func TestSession_Unloaded(t *testing.T) {
	s := newSession(t, Options{})

	if s.IsLoaded() {
		t.Error("new session should not be loaded")
	}
	if len(s.Metadata()) != 0 || len(s.Materials()) != 0 || len(s.Nodes()) != 0 {
		t.Error("unloaded session should return empty results")
	}
	geoms, err := s.Geometries(context.Background())
	if err != nil || len(geoms) != 0 {
		t.Errorf("Geometries() = %v, %v", geoms, err)
	}
	if _, err := s.Geometry(context.Background(), 1); !errors.Is(err, ErrGeometryNotFound) {
		t.Errorf("expected ErrGeometryNotFound, got %v", err)
	}
}

func TestSession_Load(t *testing.T) {
	s := newSession(t, Options{Workers: 2})
	path := writeScene(t, "tri.yaml", triangleScene)

	if err := s.Load(context.Background(), path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.IsLoaded() || s.Path() != path {
		t.Fatalf("session not loaded from %s", path)
	}
	if s.Metadata()[flatten.MetaTitle] != "Tri" {
		t.Errorf("unexpected metadata %v", s.Metadata())
	}

	info, err := s.Geometry(context.Background(), 100)
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	if info.TriangleCount() != 2 || info.Sections[300] == nil {
		t.Errorf("expected 2 triangles under material 300, got %+v", info)
	}

	again, _ := s.Geometries(context.Background())
	if again[100] != info {
		t.Error("expected cached catalog on second call")
	}

	if m, err := s.Material(300); err != nil || m.Name != "red" {
		t.Errorf("Material(300) = %+v, %v", m, err)
	}
	if _, err := s.Material(999); !errors.Is(err, ErrMaterialNotFound) {
		t.Errorf("expected ErrMaterialNotFound, got %v", err)
	}

	nodes := s.Nodes()
	if len(nodes) != 2 || nodes[1].LinkedMeshID != 100 {
		t.Errorf("unexpected nodes %+v", nodes)
	}

	instances, err := s.Instances(context.Background())
	if err != nil || len(instances) != 1 {
		t.Errorf("Instances() = %d entries, %v", len(instances), err)
	}
}

func TestSession_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	badVersion := writeScene(t, "v9.yaml", "format: meshflat-scene\nversion: \"9.0\"\n")
	badFormat := writeScene(t, "bad.yaml", "format: nope\n")

	tests := []struct {
		name     string
		path     string
		wantCode Code
		wantErr  error
	}{
		{"missing file", filepath.Join(dir, "missing.yaml"), FileNotFound, fs.ErrNotExist},
		{"version", badVersion, InvalidFileVersion, formats.ErrUnsupportedSceneVersion},
		{"format", badFormat, FormatError, formats.ErrInvalidSceneFormat},
		{"unknown extension", filepath.Join(dir, "scene.obj"), FormatError, formats.ErrUnknownSceneFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, Options{})
			err := s.Load(context.Background(), tt.path)

			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if se.Code != tt.wantCode || se.Path != tt.path {
				t.Errorf("got code %v path %q, want %v %q", se.Code, se.Path, tt.wantCode, tt.path)
			}
			if !errors.Is(err, tt.wantCode.Err()) || !errors.Is(err, tt.wantErr) {
				t.Errorf("errors.Is failed for %v", err)
			}
			if s.IsLoaded() {
				t.Error("failed load must not mark the session loaded")
			}
		})
	}
}

func TestSession_TriangulationFailure(t *testing.T) {
	boom := errors.New("boom")
	s := newSession(t, Options{Triangulator: flatten.TriangulatorFunc(func(*scene.Mesh) (*scene.Mesh, error) {
		return nil, boom
	})})
	if err := s.Load(context.Background(), writeScene(t, "tri.yaml", triangleScene)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	catalog, err := s.Geometries(context.Background())
	if !errors.Is(err, ErrTriangulationFailed) || !errors.Is(err, boom) {
		t.Errorf("expected triangulation failure wrapping cause, got %v", err)
	}
	if len(catalog) != 0 {
		t.Errorf("expected empty partial catalog, got %d entries", len(catalog))
	}
}

func TestSession_Export(t *testing.T) {
	s := newSession(t, Options{})
	if err := s.Load(context.Background(), writeScene(t, "tri.yaml", triangleScene)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	out := filepath.Join(t.TempDir(), "tri.mflt")
	if err := s.Export(context.Background(), out, ExportOptions{Weld: true}); err != nil {
		t.Fatalf("Export: %v", err)
	}

	geoms, err := formats.ReadDumpFile(out)
	if err != nil {
		t.Fatalf("ReadDumpFile: %v", err)
	}
	if len(geoms) != 1 || geoms[0].ID != 100 || len(geoms[0].Meshes) != 1 {
		t.Fatalf("unexpected dump %+v", geoms)
	}
	mesh := geoms[0].Meshes[0]
	if mesh.MaterialID != 300 || len(mesh.Indices) != 6 || len(mesh.Vertices) != 4 {
		t.Errorf("expected welded quad, got %d vertices %d indices", len(mesh.Vertices), len(mesh.Indices))
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Code: FileNotFound, Op: "load", Path: "a.yaml", Err: fs.ErrNotExist}
	if got, want := err.Error(), "load a.yaml: file not found: file does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if Code(42).Err() != ErrUnknown {
		t.Error("out of range code should map to ErrUnknown")
	}
}
