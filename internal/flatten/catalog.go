package flatten

import (
	"context"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshflat/pkg/scene"
)

// Catalog flattens every mesh geometry of a scene.
type Catalog struct {
	flattener *Flattener
	workers   int
	log       *zap.Logger
}

// NewCatalog creates a catalog that runs at most workers meshes at a time.
// workers <= 0 selects GOMAXPROCS.
func NewCatalog(f *Flattener, workers int, log *zap.Logger) *Catalog {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{flattener: f, workers: workers, log: log}
}

// Build flattens each distinct mesh once against its owning node (the first
// node in hierarchy order that instances it) and keys the result by mesh id.
// Meshes that fail to triangulate are left out; their errors are combined
// and returned with the partial catalog. Cancelling ctx aborts the build.
func (c *Catalog) Build(ctx context.Context, s *scene.Scene) (map[scene.ID]*GeometryInfo, error) {
	meshes := c.distinctMeshes(s)
	owners := meshOwners(s, Walk(s))

	tris, triErr, err := c.triangulateAll(ctx, meshes)
	if err != nil {
		return nil, err
	}

	results := make([]*GeometryInfo, len(meshes))
	err = c.run(ctx, len(meshes), func(i int) {
		if tris[i] == nil {
			return
		}
		results[i] = c.flattener.FlattenTriangles(tris[i], owners[meshes[i].ID])
	})
	if err != nil {
		return nil, err
	}

	catalog := make(map[scene.ID]*GeometryInfo, len(meshes))
	for _, info := range results {
		if info != nil {
			catalog[info.ID] = info
		}
	}

	c.log.Info("built geometry catalog",
		zap.Int("geometries", len(catalog)),
		zap.Int("failed", len(multierr.Errors(triErr))),
		zap.Int("workers", c.workers))
	return catalog, triErr
}

// BuildInstances flattens every (mesh, node) placement. Each mesh is still
// triangulated only once. Meshes no node instances are keyed with NodeID 0.
func (c *Catalog) BuildInstances(ctx context.Context, s *scene.Scene) (map[InstanceKey]*GeometryInfo, error) {
	meshes := c.distinctMeshes(s)
	instances := meshInstances(s, Walk(s))

	tris, triErr, err := c.triangulateAll(ctx, meshes)
	if err != nil {
		return nil, err
	}

	type job struct {
		mesh *scene.Mesh
		node *scene.Node
	}
	var jobs []job
	for i, m := range meshes {
		if tris[i] == nil {
			continue
		}
		nodes := instances[m.ID]
		if len(nodes) == 0 {
			jobs = append(jobs, job{mesh: tris[i]})
		}
		for _, n := range nodes {
			jobs = append(jobs, job{mesh: tris[i], node: n})
		}
	}

	results := make([]*GeometryInfo, len(jobs))
	err = c.run(ctx, len(jobs), func(i int) {
		results[i] = c.flattener.FlattenTriangles(jobs[i].mesh, jobs[i].node)
	})
	if err != nil {
		return nil, err
	}

	out := make(map[InstanceKey]*GeometryInfo, len(jobs))
	for i, j := range jobs {
		key := InstanceKey{MeshID: j.mesh.ID}
		if j.node != nil {
			key.NodeID = j.node.ID
		}
		out[key] = results[i]
	}

	c.log.Info("built instance catalog",
		zap.Int("instances", len(out)),
		zap.Int("meshes", len(meshes)))
	return out, triErr
}

// distinctMeshes returns the scene's meshes in geometry order, once each.
func (c *Catalog) distinctMeshes(s *scene.Scene) []*scene.Mesh {
	seen := make(map[scene.ID]bool)
	var meshes []*scene.Mesh
	for i := 0; i < s.GeometryCount(); i++ {
		g := s.Geometry(i)
		m, ok := g.(*scene.Mesh)
		if !ok {
			c.log.Debug("skipping non-mesh geometry",
				zap.Uint64("id", uint64(g.GeometryID())),
				zap.Stringer("type", g.AttributeType()))
			continue
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		meshes = append(meshes, m)
	}
	return meshes
}

// triangulateAll triangulates meshes concurrently. Per-mesh failures leave a
// nil slot and are combined into triErr; err is only set on cancellation.
func (c *Catalog) triangulateAll(ctx context.Context, meshes []*scene.Mesh) (tris []*scene.Mesh, triErr, err error) {
	tris = make([]*scene.Mesh, len(meshes))
	errs := make([]error, len(meshes))

	err = c.run(ctx, len(meshes), func(i int) {
		tris[i], errs[i] = c.flattener.Triangulate(meshes[i])
	})
	if err != nil {
		return nil, nil, err
	}

	for i, e := range errs {
		if e != nil {
			c.log.Warn("skipping geometry", zap.Uint64("mesh", uint64(meshes[i].ID)), zap.Error(e))
		}
		triErr = multierr.Append(triErr, e)
	}
	return tris, triErr, nil
}

// run calls fn for 0..n-1 on the worker pool. Each call writes only its own
// slot, so results need no locking. The context is checked before each call.
func (c *Catalog) run(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
