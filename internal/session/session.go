// Package session owns one loaded scene and serves flattened views of it.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshflat/internal/export"
	"github.com/Faultbox/meshflat/internal/flatten"
	"github.com/Faultbox/meshflat/pkg/formats"
	"github.com/Faultbox/meshflat/pkg/scene"
)

// Options configures a Session.
type Options struct {
	Workers      int // 0 selects GOMAXPROCS
	Shading      flatten.ShadingPolicy
	Corners      flatten.CornerIndexing
	Triangulator flatten.Triangulator
}

// ExportOptions controls Session.Export.
type ExportOptions struct {
	Weld   bool
	Legacy bool
}

// Session loads a scene and caches its geometry catalog. All methods are
// safe for concurrent use.
type Session struct {
	log     *zap.Logger
	catalog *flatten.Catalog

	mu         sync.Mutex
	path       string
	scene      *scene.Scene
	geometries map[scene.ID]*flatten.GeometryInfo
	geomErr    error
}

// New creates a session. A nil logger disables logging.
func New(opts Options, log *zap.Logger) (*Session, error) {
	if opts.Workers < 0 {
		return nil, newError(InitFailed, "init", "", "negative worker count %d", opts.Workers)
	}
	if opts.Shading != flatten.ShadingFlat && opts.Shading != flatten.ShadingSmooth {
		return nil, newError(InitFailed, "init", "", "invalid shading policy %v", opts.Shading)
	}
	if opts.Corners != flatten.CornerRetained && opts.Corners != flatten.CornerPolygonVertex {
		return nil, newError(InitFailed, "init", "", "invalid corner indexing %v", opts.Corners)
	}
	if log == nil {
		log = zap.NewNop()
	}

	f := flatten.NewFlattener(flatten.Options{
		Shading:      opts.Shading,
		Corners:      opts.Corners,
		Triangulator: opts.Triangulator,
	}, log.Named("flatten"))

	return &Session{
		log:     log,
		catalog: flatten.NewCatalog(f, opts.Workers, log.Named("catalog")),
	}, nil
}

// Load reads a scene file, replacing any previously loaded scene. On error
// the previous scene stays loaded.
func (s *Session) Load(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return classify("load", path, err, Unknown)
	}

	sc, err := formats.LoadScene(path)
	if err != nil {
		s.log.Error("failed to load scene", zap.String("path", path), zap.Error(err))
		return classify("load", path, err, FormatError)
	}

	s.setScene(path, sc)
	s.log.Info("loaded scene",
		zap.String("path", path),
		zap.Int("geometries", sc.GeometryCount()),
		zap.Int("materials", sc.MaterialCount()),
		zap.Int("nodes", sc.NodeCount()))
	return nil
}

// LoadScene installs an already built scene.
func (s *Session) LoadScene(sc *scene.Scene) {
	s.setScene("", sc)
}

func (s *Session) setScene(path string, sc *scene.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.scene = sc
	s.geometries = nil
	s.geomErr = nil
}

func (s *Session) current() (*scene.Scene, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene, s.path
}

// IsLoaded reports whether a scene is loaded.
func (s *Session) IsLoaded() bool {
	sc, _ := s.current()
	return sc != nil
}

// Path returns the file the current scene was loaded from.
func (s *Session) Path() string {
	_, path := s.current()
	return path
}

// Scene returns the loaded scene or nil.
func (s *Session) Scene() *scene.Scene {
	sc, _ := s.current()
	return sc
}

// Metadata returns the document metadata of the loaded scene.
func (s *Session) Metadata() map[string]string {
	sc, _ := s.current()
	if sc == nil {
		return map[string]string{}
	}
	return flatten.Metadata(sc)
}

// Geometries returns the geometry catalog, building it on first use. A
// partial catalog is returned together with a TriangulationFailed error
// when some meshes could not be triangulated.
func (s *Session) Geometries(ctx context.Context) (map[scene.ID]*flatten.GeometryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scene == nil {
		return map[scene.ID]*flatten.GeometryInfo{}, nil
	}
	if s.geometries != nil {
		return s.geometries, s.geomErr
	}

	catalog, err := s.catalog.Build(ctx, s.scene)
	if catalog == nil {
		return nil, classify("geometries", s.path, err, Unknown)
	}
	s.geometries = catalog
	if err != nil {
		s.geomErr = classify("geometries", s.path, err, TriangulationFailed)
	}
	return s.geometries, s.geomErr
}

// Geometry returns the flattened geometry with the given id.
func (s *Session) Geometry(ctx context.Context, id scene.ID) (*flatten.GeometryInfo, error) {
	catalog, err := s.Geometries(ctx)
	if info, ok := catalog[id]; ok {
		return info, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, newError(GeometryNotFound, "geometry", s.Path(), "id %d", id)
}

// Instances flattens every (mesh, node) placement. Results are not cached.
func (s *Session) Instances(ctx context.Context) (map[flatten.InstanceKey]*flatten.GeometryInfo, error) {
	sc, path := s.current()
	if sc == nil {
		return map[flatten.InstanceKey]*flatten.GeometryInfo{}, nil
	}

	instances, err := s.catalog.BuildInstances(ctx, sc)
	if instances == nil {
		return nil, classify("instances", path, err, Unknown)
	}
	if err != nil {
		return instances, classify("instances", path, err, TriangulationFailed)
	}
	return instances, nil
}

// Materials returns every material of the loaded scene by id.
func (s *Session) Materials() map[scene.ID]flatten.MaterialInfo {
	sc, _ := s.current()
	if sc == nil {
		return map[scene.ID]flatten.MaterialInfo{}
	}
	return flatten.Materials(sc)
}

// Material returns one material by id.
func (s *Session) Material(id scene.ID) (flatten.MaterialInfo, error) {
	sc, path := s.current()
	if sc != nil {
		if m := sc.Material(id); m != nil {
			return flatten.Materials(sc)[id], nil
		}
	}
	return flatten.MaterialInfo{}, newError(MaterialNotFound, "material", path, "id %d", id)
}

// Nodes returns the node hierarchy in depth-first order.
func (s *Session) Nodes() []flatten.NodeInfo {
	sc, _ := s.current()
	if sc == nil {
		return nil
	}
	return flatten.Walk(sc)
}

// Export writes the geometry catalog as a dump file. Geometries that
// failed to triangulate are left out and their error is returned after the
// file is written.
func (s *Session) Export(ctx context.Context, path string, opts ExportOptions) error {
	if !s.IsLoaded() {
		return newError(Unknown, "export", path, "no scene loaded")
	}

	catalog, buildErr := s.Geometries(ctx)
	if catalog == nil {
		return buildErr
	}

	geoms := export.Scene(catalog, export.Options{Weld: opts.Weld})
	if err := formats.WriteDumpFile(path, geoms, formats.DumpOptions{Legacy: opts.Legacy}); err != nil {
		return classify("export", path, err, Unknown)
	}

	s.log.Info("exported dump",
		zap.String("path", path),
		zap.Int("geometries", len(geoms)),
		zap.Bool("weld", opts.Weld),
		zap.Bool("legacy", opts.Legacy))
	return buildErr
}

// String describes the session for logs.
func (s *Session) String() string {
	sc, path := s.current()
	if sc == nil {
		return "session(empty)"
	}
	return fmt.Sprintf("session(%s: %v)", path, sc)
}
