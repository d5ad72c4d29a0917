// Scene description format: a YAML document describing meshes with their
// attribute layers, materials and the node tree.
package formats

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshflat/pkg/scene"
)

// SceneFileFormat is the value of the format key of a scene description.
const SceneFileFormat = "meshflat-scene"

// SceneFileMajor is the supported major version of scene descriptions.
const SceneFileMajor = 1

// Scene description errors.
var (
	ErrInvalidSceneFormat      = errors.New("invalid scene description")
	ErrUnsupportedSceneVersion = errors.New("unsupported scene description version")
)

type sceneFile struct {
	Format     string          `yaml:"format"`
	Version    string          `yaml:"version"`
	Info       sceneFileInfo   `yaml:"info"`
	Root       *sceneFileRoot  `yaml:"root"`
	Materials  []sceneFileMat  `yaml:"materials"`
	Geometries []sceneFileGeom `yaml:"geometries"`
	Nodes      []sceneFileNode `yaml:"nodes"`
}

type sceneFileInfo struct {
	Title    string `yaml:"title"`
	Subject  string `yaml:"subject"`
	Author   string `yaml:"author"`
	Keywords string `yaml:"keywords"`
	Revision string `yaml:"revision"`
	Comment  string `yaml:"comment"`
}

type sceneFileRoot struct {
	ID   uint64 `yaml:"id"`
	Name string `yaml:"name"`
}

type sceneFileMat struct {
	ID       uint64               `yaml:"id"`
	Name     string               `yaml:"name"`
	Colors   map[string][]float64 `yaml:"colors"`
	Factors  map[string]float64   `yaml:"factors"`
	Textures map[string]string    `yaml:"textures"`
}

type sceneFileLayer struct {
	Name      string      `yaml:"name"`
	Mapping   string      `yaml:"mapping"`
	Reference string      `yaml:"reference"`
	Values    [][]float64 `yaml:"values"`
	Index     []int       `yaml:"index"`
	UVIndex   []int       `yaml:"uv_index"`
}

type sceneFileGeom struct {
	ID            uint64           `yaml:"id"`
	Name          string           `yaml:"name"`
	Type          string           `yaml:"type"`
	ControlPoints [][]float64      `yaml:"control_points"`
	Polygons      [][]int          `yaml:"polygons"`
	Normals       []sceneFileLayer `yaml:"normals"`
	Tangents      []sceneFileLayer `yaml:"tangents"`
	Binormals     []sceneFileLayer `yaml:"binormals"`
	UVs           []sceneFileLayer `yaml:"uvs"`
	Colors        []sceneFileLayer `yaml:"colors"`
	Materials     []sceneFileLayer `yaml:"materials"`
}

type sceneFileNode struct {
	ID        uint64   `yaml:"id"`
	Name      string   `yaml:"name"`
	Parent    uint64   `yaml:"parent"`
	Attribute uint64   `yaml:"attribute"`
	Materials []uint64 `yaml:"materials"`
}

// ParseSceneFile parses a YAML scene description.
func ParseSceneFile(data []byte) (*scene.Scene, error) {
	var doc sceneFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSceneFormat, err)
	}
	if doc.Format != SceneFileFormat {
		return nil, fmt.Errorf("%w: format %q, expected %q", ErrInvalidSceneFormat, doc.Format, SceneFileFormat)
	}
	if err := checkSceneFileVersion(doc.Version); err != nil {
		return nil, err
	}

	b := scene.NewBuilder()
	b.SetInfo(scene.DocumentInfo(doc.Info))
	if doc.Root != nil {
		b.SetRoot(scene.ID(doc.Root.ID), doc.Root.Name)
	}

	for _, m := range doc.Materials {
		mat, err := m.material()
		if err != nil {
			return nil, err
		}
		b.AddMaterial(mat)
	}

	for i, g := range doc.Geometries {
		geom, err := g.geometry()
		if err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
		b.AddGeometry(geom)
	}

	for _, n := range doc.Nodes {
		b.AddNode(scene.Node{
			ID:        scene.ID(n.ID),
			Name:      n.Name,
			Parent:    scene.ID(n.Parent),
			Attribute: scene.ID(n.Attribute),
			Materials: toIDs(n.Materials),
		})
	}

	s, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSceneFormat, err)
	}
	return s, nil
}

// ParseSceneFilePath parses a scene description from disk.
func ParseSceneFilePath(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return ParseSceneFile(data)
}

func checkSceneFileVersion(v string) error {
	major, _, _ := strings.Cut(v, ".")
	n, err := strconv.Atoi(major)
	if err != nil || n != SceneFileMajor {
		return &VersionError{
			Format:   SceneFileFormat,
			Expected: fmt.Sprintf("%d.x", SceneFileMajor),
			Actual:   v,
			Err:      ErrUnsupportedSceneVersion,
		}
	}
	return nil
}

func (m sceneFileMat) material() (scene.Material, error) {
	mat := scene.Material{
		ID:       scene.ID(m.ID),
		Name:     m.Name,
		Factors:  m.Factors,
		Textures: m.Textures,
	}
	if len(m.Colors) > 0 {
		mat.Colors = make(map[string]mgl64.Vec3, len(m.Colors))
		for name, c := range m.Colors {
			if len(c) != 3 {
				return mat, fmt.Errorf("%w: material %d color %s has %d components", ErrInvalidSceneFormat, m.ID, name, len(c))
			}
			mat.Colors[name] = mgl64.Vec3{c[0], c[1], c[2]}
		}
	}
	return mat, nil
}

func (g sceneFileGeom) geometry() (scene.Geometry, error) {
	switch g.Type {
	case "mesh", "":
	case "nurbs":
		return &scene.OpaqueGeometry{ID: scene.ID(g.ID), Name: g.Name, Type: scene.AttributeNurbs}, nil
	case "patch":
		return &scene.OpaqueGeometry{ID: scene.ID(g.ID), Name: g.Name, Type: scene.AttributePatch}, nil
	default:
		return nil, fmt.Errorf("%w: geometry type %q", ErrInvalidSceneFormat, g.Type)
	}

	points, err := vec4s(g.ControlPoints, 1)
	if err != nil {
		return nil, fmt.Errorf("control points: %w", err)
	}
	m := scene.NewMesh(scene.ID(g.ID), g.Name, points, g.Polygons)

	if m.Normals, err = vectorLayers(g.Normals, 0); err != nil {
		return nil, fmt.Errorf("normals: %w", err)
	}
	if m.Tangents, err = vectorLayers(g.Tangents, 0); err != nil {
		return nil, fmt.Errorf("tangents: %w", err)
	}
	if m.Binormals, err = vectorLayers(g.Binormals, 0); err != nil {
		return nil, fmt.Errorf("binormals: %w", err)
	}
	if m.Colors, err = vectorLayers(g.Colors, 1); err != nil {
		return nil, fmt.Errorf("colors: %w", err)
	}

	for _, l := range g.UVs {
		base, err := layerHeader[scene.UV](l)
		if err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
		for _, v := range l.Values {
			if len(v) != 2 {
				return nil, fmt.Errorf("%w: uv with %d components", ErrInvalidSceneFormat, len(v))
			}
			base.Direct = append(base.Direct, scene.UV{v[0], v[1]})
		}
		m.UVs = append(m.UVs, &scene.UVLayer{Layer: *base, UVIndex: l.UVIndex})
	}

	for _, l := range g.Materials {
		mapping, err := scene.ParseMappingMode(l.Mapping)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSceneFormat, err)
		}
		m.Materials = append(m.Materials, &scene.MaterialLayer{Name: l.Name, Mapping: mapping, Index: l.Index})
	}

	return m, nil
}

func layerHeader[T any](l sceneFileLayer) (*scene.Layer[T], error) {
	mapping, err := scene.ParseMappingMode(l.Mapping)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSceneFormat, err)
	}
	ref, err := scene.ParseReferenceMode(l.Reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSceneFormat, err)
	}
	if ref == scene.ReferenceIndexToDirect && l.Index == nil {
		return nil, fmt.Errorf("%w: layer %q is IndexToDirect without an index", ErrInvalidSceneFormat, l.Name)
	}
	return &scene.Layer[T]{Name: l.Name, Mapping: mapping, Reference: ref, Index: l.Index}, nil
}

func vectorLayers(layers []sceneFileLayer, w float64) ([]*scene.Layer[mgl64.Vec4], error) {
	var out []*scene.Layer[mgl64.Vec4]
	for _, l := range layers {
		layer, err := layerHeader[mgl64.Vec4](l)
		if err != nil {
			return nil, err
		}
		if layer.Direct, err = vec4s(l.Values, w); err != nil {
			return nil, err
		}
		out = append(out, layer)
	}
	return out, nil
}

// vec4s converts 3- or 4-component tuples; w fills a missing fourth.
func vec4s(values [][]float64, w float64) ([]mgl64.Vec4, error) {
	out := make([]mgl64.Vec4, len(values))
	for i, v := range values {
		switch len(v) {
		case 3:
			out[i] = mgl64.Vec4{v[0], v[1], v[2], w}
		case 4:
			out[i] = mgl64.Vec4{v[0], v[1], v[2], v[3]}
		default:
			return nil, fmt.Errorf("%w: vector %d has %d components", ErrInvalidSceneFormat, i, len(v))
		}
	}
	return out, nil
}

func toIDs(ids []uint64) []scene.ID {
	if ids == nil {
		return nil
	}
	out := make([]scene.ID, len(ids))
	for i, id := range ids {
		out[i] = scene.ID(id)
	}
	return out
}
