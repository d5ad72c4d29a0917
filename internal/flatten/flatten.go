package flatten

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshflat/pkg/scene"
)

// ErrTriangulationFailed wraps triangulator failures.
var ErrTriangulationFailed = errors.New("triangulation failed")

// Triangulator turns a mesh into an equivalent all-triangle mesh. It must
// return an already triangular mesh unchanged.
type Triangulator interface {
	Triangulate(mesh *scene.Mesh) (*scene.Mesh, error)
}

// TriangulatorFunc adapts a function to Triangulator.
type TriangulatorFunc func(mesh *scene.Mesh) (*scene.Mesh, error)

// Triangulate calls f(mesh).
func (f TriangulatorFunc) Triangulate(mesh *scene.Mesh) (*scene.Mesh, error) {
	return f(mesh)
}

// DefaultTriangulator is the ear-clipping triangulator from package scene.
var DefaultTriangulator Triangulator = TriangulatorFunc(scene.Triangulate)

// Options configures a Flattener.
type Options struct {
	Shading      ShadingPolicy
	Corners      CornerIndexing
	Triangulator Triangulator // nil selects DefaultTriangulator
}

// Flattener walks the triangles of a mesh and groups resolved corners into
// per-material sections.
type Flattener struct {
	shading      ShadingPolicy
	corners      CornerIndexing
	triangulator Triangulator
	materials    MaterialAssigner
	log          *zap.Logger
}

// NewFlattener creates a flattener. A nil logger disables logging.
func NewFlattener(opts Options, log *zap.Logger) *Flattener {
	if opts.Triangulator == nil {
		opts.Triangulator = DefaultTriangulator
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Flattener{
		shading:      opts.Shading,
		corners:      opts.Corners,
		triangulator: opts.Triangulator,
		log:          log,
	}
}

// Flatten triangulates mesh if needed and resolves it against node, the
// node whose material bindings apply.
func (f *Flattener) Flatten(mesh *scene.Mesh, node *scene.Node) (*GeometryInfo, error) {
	tri, err := f.Triangulate(mesh)
	if err != nil {
		return nil, err
	}
	return f.FlattenTriangles(tri, node), nil
}

// Triangulate returns mesh unchanged when it is already triangular and the
// triangulator's result otherwise.
func (f *Flattener) Triangulate(mesh *scene.Mesh) (*scene.Mesh, error) {
	if mesh.IsTriangleMesh() {
		return mesh, nil
	}
	out, err := f.triangulator.Triangulate(mesh)
	if err != nil {
		return nil, fmt.Errorf("%w: mesh %d: %w", ErrTriangulationFailed, mesh.ID, err)
	}
	if out == nil || !out.IsTriangleMesh() {
		return nil, fmt.Errorf("%w: mesh %d: result is not a triangle mesh", ErrTriangulationFailed, mesh.ID)
	}
	return out, nil
}

// FlattenTriangles resolves an already triangulated mesh. Faces with any
// invalid corner, and faces without a material, are left out entirely.
func (f *Flattener) FlattenTriangles(mesh *scene.Mesh, node *scene.Node) *GeometryInfo {
	info := &GeometryInfo{
		ID:            mesh.ID,
		Name:          mesh.Name,
		ControlPoints: append([]scene.Position(nil), mesh.ControlPoints...),
		Sections:      make(map[scene.ID]*Section),
	}

	normals := NewLayerStack(mesh.Normals)
	tangents := NewLayerStack(mesh.Tangents)
	binormals := NewLayerStack(mesh.Binormals)
	colors := NewLayerStack(mesh.Colors)
	uvs := NewUVStack(mesh)

	var ctx [3]Corner
	retained := 0
	for face := 0; face < mesh.PolygonCount(); face++ {
		if !f.faceCorners(mesh, face, &ctx) {
			info.DroppedFaces++
			f.log.Debug("dropping face with invalid corner",
				zap.Uint64("mesh", uint64(mesh.ID)), zap.Int("face", face))
			continue
		}

		matID, ok := f.materials.Resolve(mesh, node, face)
		if !ok {
			info.UnassignedFaces++
			f.log.Debug("face has no material",
				zap.Uint64("mesh", uint64(mesh.ID)), zap.Int("face", face))
			continue
		}

		if f.corners == CornerRetained {
			for k := range ctx {
				ctx[k].Running = retained + k
			}
		}
		retained += len(ctx)

		var corners [3]ResolvedCorner
		for k := range corners {
			c := &corners[k]
			c.ControlPoint = ctx[k].ControlPoint
			c.Position = mesh.ControlPoints[c.ControlPoint]

			var bad int
			c.Color, bad = colors.Resolve(&ctx[k], DefaultColor)
			info.InvalidAttributes += bad
			c.UV, bad = uvs.Resolve(&ctx[k], DefaultUV)
			info.InvalidAttributes += bad

			if f.shading == ShadingSmooth || k == 0 {
				c.Normal, bad = normals.Resolve(&ctx[k], DefaultNormal)
				info.InvalidAttributes += bad
				c.Tangent, bad = tangents.Resolve(&ctx[k], DefaultNormal)
				info.InvalidAttributes += bad
				c.Binormal, bad = binormals.Resolve(&ctx[k], DefaultNormal)
				info.InvalidAttributes += bad
			} else {
				c.Normal = corners[0].Normal
				c.Tangent = corners[0].Tangent
				c.Binormal = corners[0].Binormal
			}
		}

		section := info.Sections[matID]
		if section == nil {
			section = &Section{MaterialID: matID}
			info.Sections[matID] = section
		}
		section.Corners = append(section.Corners, corners[:]...)
	}

	if info.DroppedFaces > 0 || info.UnassignedFaces > 0 {
		f.log.Warn("faces excluded from sections",
			zap.Uint64("mesh", uint64(mesh.ID)),
			zap.String("name", mesh.Name),
			zap.Int("dropped", info.DroppedFaces),
			zap.Int("unassigned", info.UnassignedFaces))
	}
	f.log.Debug("flattened mesh",
		zap.Uint64("mesh", uint64(mesh.ID)),
		zap.Int("control_points", len(info.ControlPoints)),
		zap.Int("sections", len(info.Sections)),
		zap.Int("triangles", info.TriangleCount()))

	return info
}

// faceCorners fills the corner contexts of face. It reports false if any
// corner references a missing control point.
func (f *Flattener) faceCorners(mesh *scene.Mesh, face int, ctx *[3]Corner) bool {
	for k := range ctx {
		cp := mesh.PolygonVertex(face, k)
		if cp < 0 || cp >= mesh.ControlPointCount() {
			return false
		}
		ctx[k] = Corner{
			ControlPoint: cp,
			Face:         face,
			Position:     k,
			Running:      mesh.PolygonVertexIndex(face, k),
		}
	}
	return true
}
