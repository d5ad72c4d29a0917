package flatten

import "github.com/Faultbox/meshflat/pkg/scene"

// MaterialAssigner resolves the material bound to a face.
type MaterialAssigner struct{}

// Resolve returns the id of the material applied to face. Material layers
// are tried in declaration order and the first one that yields a bound slot
// wins. It reports false when no layer does, or when node is nil.
func (MaterialAssigner) Resolve(mesh *scene.Mesh, node *scene.Node, face int) (scene.ID, bool) {
	if node == nil {
		return 0, false
	}
	for _, layer := range mesh.Materials {
		slot, ok := materialSlot(layer, face)
		if !ok || slot >= len(node.Materials) {
			continue
		}
		return node.Materials[slot], true
	}
	return 0, false
}

func materialSlot(layer *scene.MaterialLayer, face int) (int, bool) {
	var key int
	switch layer.Mapping {
	case scene.MappingAllSame:
		key = 0
	case scene.MappingByPolygon:
		key = face
	default:
		return 0, false
	}
	if key < 0 || key >= len(layer.Index) {
		return 0, false
	}
	slot := layer.Index[key]
	return slot, slot >= 0
}
