// glTF 2.0 import. Each glTF mesh becomes one scene mesh with its triangle
// primitives concatenated; primitive materials become a ByPolygon material
// layer indexing the distinct materials the mesh uses.
package formats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshflat/pkg/scene"
)

// GLTFFormat names the glTF format in version errors.
const GLTFFormat = "gltf"

// ErrUnsupportedGLTFVersion is wrapped by the VersionError returned for
// assets that are not glTF 2.x.
var ErrUnsupportedGLTFVersion = errors.New("unsupported glTF version")

// glTF attribute semantics read by the importer.
const (
	gltfPosition = "POSITION"
	gltfNormal   = "NORMAL"
	gltfTangent  = "TANGENT"
	gltfTexCoord = "TEXCOORD_0"
	gltfColor    = "COLOR_0"
)

// LoadGLTF loads a .gltf or .glb file.
func LoadGLTF(path string) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading glTF file: %w", err)
	}
	return FromGLTF(doc)
}

// FromGLTF converts a decoded glTF document into a scene. Ids are assigned
// in order: materials, meshes, then nodes.
func FromGLTF(doc *gltf.Document) (*scene.Scene, error) {
	if err := checkGLTFVersion(doc.Asset.Version); err != nil {
		return nil, err
	}

	b := scene.NewBuilder()
	b.SetInfo(scene.DocumentInfo{
		Author:  doc.Asset.Copyright,
		Comment: doc.Asset.Generator,
	})

	matIDs := make([]scene.ID, len(doc.Materials))
	for i, m := range doc.Materials {
		matIDs[i] = b.NewID()
		b.AddMaterial(gltfMaterial(doc, matIDs[i], m))
	}

	meshIDs := make([]scene.ID, len(doc.Meshes))
	meshSlots := make([][]scene.ID, len(doc.Meshes))
	for i, m := range doc.Meshes {
		meshIDs[i] = b.NewID()
		mesh, slots, err := gltfMesh(doc, meshIDs[i], m, matIDs)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		meshSlots[i] = slots
		b.AddGeometry(mesh)
	}

	nodeIDs := make([]scene.ID, len(doc.Nodes))
	parents := make([]int, len(doc.Nodes))
	for i := range doc.Nodes {
		nodeIDs[i] = b.NewID()
		parents[i] = -1
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(doc.Nodes) {
				parents[c] = i
			}
		}
	}

	for i, n := range doc.Nodes {
		node := scene.Node{ID: nodeIDs[i], Name: n.Name}
		if parents[i] >= 0 {
			node.Parent = nodeIDs[parents[i]]
		}
		if n.Mesh != nil && *n.Mesh >= 0 && *n.Mesh < len(meshIDs) {
			node.Attribute = meshIDs[*n.Mesh]
			node.Materials = meshSlots[*n.Mesh]
		}
		b.AddNode(node)
	}

	s, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSceneFormat, err)
	}
	return s, nil
}

func checkGLTFVersion(v string) error {
	major, _, _ := strings.Cut(v, ".")
	if n, err := strconv.Atoi(major); err != nil || n != 2 {
		return &VersionError{
			Format:   GLTFFormat,
			Expected: "2.x",
			Actual:   v,
			Err:      ErrUnsupportedGLTFVersion,
		}
	}
	return nil
}

func gltfMaterial(doc *gltf.Document, id scene.ID, m *gltf.Material) scene.Material {
	mat := scene.Material{
		ID:       id,
		Name:     m.Name,
		Colors:   map[string]mgl64.Vec3{},
		Factors:  map[string]float64{},
		Textures: map[string]string{},
	}

	base := [4]float64{1, 1, 1, 1}
	metallic := 1.0
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			base = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			metallic = *pbr.MetallicFactor
		}
		if pbr.BaseColorTexture != nil {
			if uri := gltfTextureURI(doc, pbr.BaseColorTexture.Index); uri != "" {
				mat.Textures[scene.PropDiffuseColor] = uri
			}
		}
	}

	mat.Colors[scene.PropDiffuseColor] = mgl64.Vec3{base[0], base[1], base[2]}
	mat.Colors[scene.PropEmissiveColor] = mgl64.Vec3(m.EmissiveFactor)
	mat.Factors[scene.PropOpacity] = base[3]
	mat.Factors[scene.PropReflectionFactor] = metallic
	if m.EmissiveTexture != nil {
		if uri := gltfTextureURI(doc, m.EmissiveTexture.Index); uri != "" {
			mat.Textures[scene.PropEmissiveColor] = uri
		}
	}
	return mat
}

// gltfTextureURI returns the image URI (or image name for embedded images)
// of texture index.
func gltfTextureURI(doc *gltf.Document, index int) string {
	if index < 0 || index >= len(doc.Textures) {
		return ""
	}
	src := doc.Textures[index].Source
	if src == nil || *src < 0 || *src >= len(doc.Images) {
		return ""
	}
	img := doc.Images[*src]
	if img.URI != "" && !img.IsEmbeddedResource() {
		return img.URI
	}
	return img.Name
}

// gltfPrimitive holds the vertex streams of one triangle primitive.
type gltfPrimitive struct {
	positions [][3]float32
	normals   [][3]float32
	tangents  [][4]float32
	uvs       [][2]float32
	colors    [][4]uint8
	indices   []uint32
	material  *int
}

func gltfMesh(doc *gltf.Document, id scene.ID, m *gltf.Mesh, matIDs []scene.ID) (*scene.Mesh, []scene.ID, error) {
	var prims []gltfPrimitive
	for i, p := range m.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		prim, err := readGLTFPrimitive(doc, p)
		if err != nil {
			return nil, nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		prims = append(prims, prim)
	}

	hasNormals, hasTangents, hasUVs, hasColors := len(prims) > 0, len(prims) > 0, len(prims) > 0, len(prims) > 0
	for _, p := range prims {
		hasNormals = hasNormals && p.normals != nil
		hasTangents = hasTangents && hasNormals && p.tangents != nil
		hasUVs = hasUVs && p.uvs != nil
		hasColors = hasColors && p.colors != nil
	}

	var (
		points    []scene.Position
		polygons  [][]int
		normals   []scene.Normal
		tangents  []scene.Normal
		binormals []scene.Normal
		uvs       []scene.UV
		colors    []scene.Color
		faceSlots []int
		slots     []scene.ID
	)
	slotOf := make(map[int]int)

	for _, p := range prims {
		base := len(points)
		for _, v := range p.positions {
			points = append(points, scene.Position{float64(v[0]), float64(v[1]), float64(v[2]), 1})
		}
		if hasNormals {
			for _, v := range p.normals {
				normals = append(normals, scene.Normal{float64(v[0]), float64(v[1]), float64(v[2]), 0})
			}
		}
		if hasTangents {
			for i, t := range p.tangents {
				n := mgl64.Vec3{float64(p.normals[i][0]), float64(p.normals[i][1]), float64(p.normals[i][2])}
				tv := mgl64.Vec3{float64(t[0]), float64(t[1]), float64(t[2])}
				bv := n.Cross(tv).Mul(float64(t[3]))
				tangents = append(tangents, tv.Vec4(0))
				binormals = append(binormals, bv.Vec4(0))
			}
		}
		if hasUVs {
			// glTF puts the UV origin at the top left.
			for _, v := range p.uvs {
				uvs = append(uvs, scene.UV{float64(v[0]), 1 - float64(v[1])})
			}
		}
		if hasColors {
			for _, c := range p.colors {
				colors = append(colors, scene.Color{
					float64(c[0]) / 255, float64(c[1]) / 255, float64(c[2]) / 255, float64(c[3]) / 255,
				})
			}
		}

		slot := -1
		if p.material != nil && *p.material >= 0 && *p.material < len(matIDs) {
			s, ok := slotOf[*p.material]
			if !ok {
				s = len(slots)
				slotOf[*p.material] = s
				slots = append(slots, matIDs[*p.material])
			}
			slot = s
		}

		for i := 0; i+2 < len(p.indices); i += 3 {
			tri := []int{base + int(p.indices[i]), base + int(p.indices[i+1]), base + int(p.indices[i+2])}
			for _, v := range tri {
				if v >= len(points) {
					return nil, nil, fmt.Errorf("%w: index %d out of range", ErrInvalidSceneFormat, v-base)
				}
			}
			polygons = append(polygons, tri)
			faceSlots = append(faceSlots, slot)
		}
	}

	mesh := scene.NewMesh(id, m.Name, points, polygons)
	if hasNormals {
		mesh.Normals = []*scene.Layer[scene.Normal]{controlPointLayer(gltfNormal, normals)}
	}
	if hasTangents {
		mesh.Tangents = []*scene.Layer[scene.Normal]{controlPointLayer(gltfTangent, tangents)}
		mesh.Binormals = []*scene.Layer[scene.Normal]{controlPointLayer("BINORMAL", binormals)}
	}
	if hasUVs {
		mesh.UVs = []*scene.UVLayer{{Layer: *controlPointLayer(gltfTexCoord, uvs)}}
	}
	if hasColors {
		mesh.Colors = []*scene.Layer[scene.Color]{controlPointLayer(gltfColor, colors)}
	}
	if len(slots) > 0 {
		mesh.Materials = []*scene.MaterialLayer{{
			Name:    "material",
			Mapping: scene.MappingByPolygon,
			Index:   faceSlots,
		}}
	}
	return mesh, slots, nil
}

func controlPointLayer[T any](name string, values []T) *scene.Layer[T] {
	return &scene.Layer[T]{
		Name:      name,
		Mapping:   scene.MappingByControlPoint,
		Reference: scene.ReferenceDirect,
		Direct:    values,
	}
}

func readGLTFPrimitive(doc *gltf.Document, p *gltf.Primitive) (gltfPrimitive, error) {
	prim := gltfPrimitive{material: p.Material}

	posIdx, ok := p.Attributes[gltfPosition]
	if !ok {
		return prim, fmt.Errorf("%w: primitive without %s", ErrInvalidSceneFormat, gltfPosition)
	}
	acr, err := gltfAccessor(doc, posIdx)
	if err != nil {
		return prim, err
	}
	if prim.positions, err = modeler.ReadPosition(doc, acr, nil); err != nil {
		return prim, fmt.Errorf("reading %s: %w", gltfPosition, err)
	}
	count := len(prim.positions)

	if idx, ok := p.Attributes[gltfNormal]; ok {
		if acr, err = gltfAccessor(doc, idx); err != nil {
			return prim, err
		}
		if prim.normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
			return prim, fmt.Errorf("reading %s: %w", gltfNormal, err)
		}
	}
	if idx, ok := p.Attributes[gltfTangent]; ok {
		if acr, err = gltfAccessor(doc, idx); err != nil {
			return prim, err
		}
		if prim.tangents, err = modeler.ReadTangent(doc, acr, nil); err != nil {
			return prim, fmt.Errorf("reading %s: %w", gltfTangent, err)
		}
	}
	if idx, ok := p.Attributes[gltfTexCoord]; ok {
		if acr, err = gltfAccessor(doc, idx); err != nil {
			return prim, err
		}
		if prim.uvs, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
			return prim, fmt.Errorf("reading %s: %w", gltfTexCoord, err)
		}
	}
	if idx, ok := p.Attributes[gltfColor]; ok {
		if acr, err = gltfAccessor(doc, idx); err != nil {
			return prim, err
		}
		if prim.colors, err = modeler.ReadColor(doc, acr, nil); err != nil {
			return prim, fmt.Errorf("reading %s: %w", gltfColor, err)
		}
	}

	for name, n := range map[string]int{
		gltfNormal: len(prim.normals), gltfTangent: len(prim.tangents),
		gltfTexCoord: len(prim.uvs), gltfColor: len(prim.colors),
	} {
		if n != 0 && n != count {
			return prim, fmt.Errorf("%w: %s has %d values for %d vertices", ErrInvalidSceneFormat, name, n, count)
		}
	}

	if p.Indices == nil {
		prim.indices = make([]uint32, count)
		for i := range prim.indices {
			prim.indices[i] = uint32(i)
		}
		return prim, nil
	}
	if acr, err = gltfAccessor(doc, *p.Indices); err != nil {
		return prim, err
	}
	if prim.indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
		return prim, fmt.Errorf("reading indices: %w", err)
	}
	return prim, nil
}

func gltfAccessor(doc *gltf.Document, index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrInvalidSceneFormat, index)
	}
	return doc.Accessors[index], nil
}
