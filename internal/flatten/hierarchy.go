package flatten

import "github.com/Faultbox/meshflat/pkg/scene"

// Walk lists every node reachable from the root exactly once, depth first,
// parents before children.
func Walk(s *scene.Scene) []NodeInfo {
	root := s.RootNode()
	if root == nil {
		return nil
	}

	infos := make([]NodeInfo, 0, s.NodeCount())
	visited := make(map[scene.ID]bool, s.NodeCount())
	stack := []scene.ID{root.ID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		n := s.Node(id)
		if n == nil {
			continue
		}

		info := NodeInfo{ID: n.ID, Name: n.Name}
		if n.ID != root.ID {
			info.ParentID = n.Parent
		}
		if n.Attribute != 0 && s.MeshByID(n.Attribute) != nil {
			info.LinkedMeshID = n.Attribute
			info.LinkedMaterialIDs = append([]scene.ID(nil), n.Materials...)
		}
		infos = append(infos, info)

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return infos
}

// meshOwners maps every mesh id to the first node in Walk order that
// instances it.
func meshOwners(s *scene.Scene, nodes []NodeInfo) map[scene.ID]*scene.Node {
	owners := make(map[scene.ID]*scene.Node)
	for _, n := range nodes {
		if n.LinkedMeshID == 0 {
			continue
		}
		if _, ok := owners[n.LinkedMeshID]; !ok {
			owners[n.LinkedMeshID] = s.Node(n.ID)
		}
	}
	return owners
}

// meshInstances maps every mesh id to all nodes instancing it, in Walk order.
func meshInstances(s *scene.Scene, nodes []NodeInfo) map[scene.ID][]*scene.Node {
	instances := make(map[scene.ID][]*scene.Node)
	for _, n := range nodes {
		if n.LinkedMeshID != 0 {
			instances[n.LinkedMeshID] = append(instances[n.LinkedMeshID], s.Node(n.ID))
		}
	}
	return instances
}
