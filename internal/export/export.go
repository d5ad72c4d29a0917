// Package export converts flattened geometry into dump meshes.
package export

import (
	"math"
	"sort"

	"github.com/Faultbox/meshflat/internal/flatten"
	"github.com/Faultbox/meshflat/pkg/formats"
	"github.com/Faultbox/meshflat/pkg/scene"
)

// Options controls mesh simplification.
type Options struct {
	// Weld merges bit-identical vertices within a section.
	Weld bool
}

// Simplify returns one dump mesh per section of info, ordered by material id.
// Without welding every corner becomes its own vertex.
func Simplify(info *flatten.GeometryInfo, opts Options) []formats.DumpMesh {
	ids := info.SectionIDs()
	meshes := make([]formats.DumpMesh, 0, len(ids))
	for _, id := range ids {
		meshes = append(meshes, simplifySection(info.Sections[id], opts))
	}
	return meshes
}

func simplifySection(s *flatten.Section, opts Options) formats.DumpMesh {
	mesh := formats.DumpMesh{
		Vertices:   make([]formats.DumpVertex, 0, len(s.Corners)),
		Indices:    make([]uint32, 0, len(s.Corners)),
		MaterialID: uint64(s.MaterialID),
	}

	var seen map[vertexKey]uint32
	if opts.Weld {
		seen = make(map[vertexKey]uint32, len(s.Corners))
	}

	for _, c := range s.Corners {
		v := dumpVertex(c)
		if opts.Weld {
			key := keyOf(v)
			if idx, ok := seen[key]; ok {
				mesh.Indices = append(mesh.Indices, idx)
				continue
			}
			seen[key] = uint32(len(mesh.Vertices))
		}
		mesh.Indices = append(mesh.Indices, uint32(len(mesh.Vertices)))
		mesh.Vertices = append(mesh.Vertices, v)
	}
	return mesh
}

func dumpVertex(c flatten.ResolvedCorner) formats.DumpVertex {
	return formats.DumpVertex{
		Position: [3]float32{float32(c.Position[0]), float32(c.Position[1]), float32(c.Position[2])},
		Normal:   [3]float32{float32(c.Normal[0]), float32(c.Normal[1]), float32(c.Normal[2])},
		UV:       [2]float32{float32(c.UV[0]), float32(c.UV[1])},
		Color:    [4]float32{float32(c.Color[0]), float32(c.Color[1]), float32(c.Color[2]), float32(c.Color[3])},
	}
}

// vertexKey holds the raw bits of a vertex so that welding merges only
// bit-identical vertices (+0 and -0 stay apart, equal NaNs merge).
type vertexKey [12]uint32

func keyOf(v formats.DumpVertex) vertexKey {
	var k vertexKey
	fields := [...]float32{
		v.Position[0], v.Position[1], v.Position[2],
		v.Normal[0], v.Normal[1], v.Normal[2],
		v.UV[0], v.UV[1],
		v.Color[0], v.Color[1], v.Color[2], v.Color[3],
	}
	for i, f := range fields {
		k[i] = math.Float32bits(f)
	}
	return k
}

// Scene simplifies every geometry of a catalog, ordered by geometry id.
func Scene(catalog map[scene.ID]*flatten.GeometryInfo, opts Options) []formats.DumpGeometry {
	ids := make([]scene.ID, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]formats.DumpGeometry, 0, len(ids))
	for _, id := range ids {
		out = append(out, formats.DumpGeometry{
			ID:     uint64(id),
			Meshes: Simplify(catalog[id], opts),
		})
	}
	return out
}
