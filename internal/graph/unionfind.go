package graph

import "sort"

// UnionFind implements union-find with path compression and union by rank
type UnionFind struct {
	parent map[NodeID]NodeID
	rank   map[NodeID]int
	size   map[NodeID]int
}

// NewUnionFind creates a new UnionFind where each node is its own component
func NewUnionFind(ids []NodeID) *UnionFind {
	uf := &UnionFind{
		parent: make(map[NodeID]NodeID, len(ids)),
		rank:   make(map[NodeID]int, len(ids)),
		size:   make(map[NodeID]int, len(ids)),
	}
	for _, id := range ids {
		uf.parent[id] = id
		uf.size[id] = 1
	}
	return uf
}

// Find returns the root of the component containing id
func (uf *UnionFind) Find(id NodeID) NodeID {
	root := id
	for {
		p, ok := uf.parent[root]
		if !ok || p == root {
			break
		}
		root = p
	}
	for id != root {
		next := uf.parent[id]
		uf.parent[id] = root
		id = next
	}
	return root
}

// Union merges the components containing a and b. Returns true if they were separate.
func (uf *UnionFind) Union(a, b NodeID) bool {
	rootA, rootB := uf.Find(a), uf.Find(b)
	if rootA == rootB {
		return false
	}
	if uf.rank[rootA] < uf.rank[rootB] {
		rootA, rootB = rootB, rootA
	}
	uf.parent[rootB] = rootA
	uf.size[rootA] += uf.size[rootB]
	if uf.rank[rootA] == uf.rank[rootB] {
		uf.rank[rootA]++
	}
	return true
}

// Components returns all connected components, members ascending, largest first
func (uf *UnionFind) Components() [][]NodeID {
	groups := make(map[NodeID][]NodeID)
	for id := range uf.parent {
		root := uf.Find(id)
		groups[root] = append(groups[root], id)
	}
	result := make([][]NodeID, 0, len(groups))
	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		result = append(result, members)
	}
	sort.Slice(result, func(i, j int) bool {
		if len(result[i]) != len(result[j]) {
			return len(result[i]) > len(result[j])
		}
		return result[i][0] < result[j][0]
	})
	return result
}
