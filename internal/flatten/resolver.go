package flatten

import "github.com/Faultbox/meshflat/pkg/scene"

// Corner is the lookup context for one face corner.
type Corner struct {
	ControlPoint int // Control point referenced by the corner
	Face         int // Face index
	Position     int // Corner position within the face
	Running      int // Key for ByPolygonVertex layers, see CornerIndexing
}

type keyFunc func(c *Corner) int

// mappingKeys is the lookup key selector for each mapping mode. Modes not
// present here yield no value.
var mappingKeys = map[scene.MappingMode]keyFunc{
	scene.MappingByControlPoint:  func(c *Corner) int { return c.ControlPoint },
	scene.MappingByPolygonVertex: func(c *Corner) int { return c.Running },
	scene.MappingByPolygon:       func(c *Corner) int { return c.Face },
	scene.MappingAllSame:         func(*Corner) int { return 0 },
}

// Resolver resolves one attribute layer for a corner. The mapping and
// reference modes are dispatched once, when the resolver is built.
type Resolver[T any] struct {
	key    keyFunc
	lookup func(key int) (T, bool)
}

// NewResolver builds the resolver for layer.
func NewResolver[T any](layer *scene.Layer[T]) Resolver[T] {
	r := Resolver[T]{key: mappingKeys[layer.Mapping]}
	r.lookup = layer.Accessor()
	if r.lookup == nil {
		r.key = nil
	}
	return r
}

// NewUVResolver builds the resolver for a UV layer. Per-corner UV layers are
// keyed through the mesh's UV index table rather than the running corner.
func NewUVResolver(mesh *scene.Mesh, layer *scene.UVLayer) Resolver[scene.UV] {
	r := NewResolver(&layer.Layer)
	if r.key != nil && layer.Mapping == scene.MappingByPolygonVertex {
		r.key = func(c *Corner) int {
			return mesh.TextureUVIndex(layer, c.Face, c.Position)
		}
	}
	return r
}

// Active reports whether the layer can yield values at all.
func (r Resolver[T]) Active() bool {
	return r.key != nil
}

// Resolve returns the layer's value for c. It reports false for inactive
// layers and for invalid keys or indices.
func (r Resolver[T]) Resolve(c *Corner) (T, bool) {
	if r.key == nil {
		var zero T
		return zero, false
	}
	return r.lookup(r.key(c))
}

// LayerStack resolves several layers of the same kind in declaration order.
// The last layer that yields a value wins.
type LayerStack[T any] []Resolver[T]

// NewLayerStack builds resolvers for all layers.
func NewLayerStack[T any](layers []*scene.Layer[T]) LayerStack[T] {
	stack := make(LayerStack[T], 0, len(layers))
	for _, l := range layers {
		stack = append(stack, NewResolver(l))
	}
	return stack
}

// NewUVStack builds resolvers for all UV layers of mesh.
func NewUVStack(mesh *scene.Mesh) LayerStack[scene.UV] {
	stack := make(LayerStack[scene.UV], 0, len(mesh.UVs))
	for _, l := range mesh.UVs {
		stack = append(stack, NewUVResolver(mesh, l))
	}
	return stack
}

// Resolve returns the winning value, or def if no layer yields one. invalid
// counts active layers that failed on a bad index.
func (s LayerStack[T]) Resolve(c *Corner, def T) (v T, invalid int) {
	v = def
	for _, r := range s {
		if !r.Active() {
			continue
		}
		if got, ok := r.Resolve(c); ok {
			v = got
		} else {
			invalid++
		}
	}
	return v, invalid
}
