package graph

import (
	"sort"

	"lifesaver/egress/internal/floor"
)

// ArticulationPoint is a node whose removal disconnects the network
type ArticulationPoint struct {
	ID     NodeID   `json:"id"`
	Name   string   `json:"name"`
	Type   NodeType `json:"type"`
	Degree int      `json:"degree"`
}

// BridgeEdge is an edge whose removal disconnects the network
type BridgeEdge struct {
	SourceID   NodeID  `json:"source_id"`
	TargetID   NodeID  `json:"target_id"`
	SourceName string  `json:"source_name"`
	TargetName string  `json:"target_name"`
	Distance   float64 `json:"distance"`
}

// SingleOpening is a pair of rooms joined by exactly one door or boundary
type SingleOpening struct {
	RoomA   floor.ElementID `json:"room_a"`
	RoomB   floor.ElementID `json:"room_b"`
	Opening string          `json:"opening"`
}

// BridgeReport contains bridge analysis results
type BridgeReport struct {
	ArticulationPoints []ArticulationPoint `json:"articulation_points"`
	BridgeEdges        []BridgeEdge        `json:"bridge_edges"`
	SingleOpenings     []SingleOpening     `json:"single_openings"`
	APCount            int                 `json:"ap_count"`
	DoorAPCount        int                 `json:"door_ap_count"`
	BridgeCount        int                 `json:"bridge_count"`
}

// ComputeBridges finds articulation points, bridge edges, and room pairs
// that depend on a single opening
func ComputeBridges(snap *Snapshot) *BridgeReport {
	if len(snap.Nodes) == 0 {
		return &BridgeReport{}
	}

	nodeIDs := snap.NodeIDs()
	idToIdx := make(map[NodeID]int, len(nodeIDs))
	for i, id := range nodeIDs {
		idToIdx[id] = i
	}
	n := len(nodeIDs)

	// Build deduplicated undirected adjacency (as indices)
	adjIdx := make([][]int, n)
	type edgePair struct{ u, v int }
	seen := make(map[edgePair]bool)
	distance := make(map[edgePair]float64)

	for _, e := range snap.Edges {
		u, v := idToIdx[e.Source], idToIdx[e.Target]
		if u == v {
			continue
		}
		key := edgePair{u, v}
		if u > v {
			key = edgePair{v, u}
		}
		if !seen[key] {
			seen[key] = true
			distance[key] = e.Distance
			adjIdx[u] = append(adjIdx[u], v)
			adjIdx[v] = append(adjIdx[v], u)
		}
	}

	disc := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	isAP := make([]bool, n)
	var bridgePairs [][2]int
	counter := 1

	const noParent = -1

	// Iterative Tarjan for each connected component
	type frame struct {
		node, parent, ni int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		visited[start] = true
		disc[start] = counter
		low[start] = counter
		counter++

		stack := []frame{{start, noParent, 0}}
		rootChildren := 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			node := top.node

			if top.ni < len(adjIdx[node]) {
				child := adjIdx[node][top.ni]
				top.ni++

				if child == top.parent {
					continue
				}
				if visited[child] {
					if disc[child] < low[node] {
						low[node] = disc[child]
					}
					continue
				}

				visited[child] = true
				disc[child] = counter
				low[child] = counter
				counter++
				if node == start {
					rootChildren++
				}
				stack = append(stack, frame{child, node, 0})
				continue
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}
			pn := stack[len(stack)-1].node
			if low[node] < low[pn] {
				low[pn] = low[node]
			}
			if low[node] > disc[pn] {
				bridgePairs = append(bridgePairs, [2]int{pn, node})
			}
			if pn != start && low[node] >= disc[pn] {
				isAP[pn] = true
			}
		}

		if rootChildren >= 2 {
			isAP[start] = true
		}
	}

	var aps []ArticulationPoint
	doorAPs := 0
	for i := 0; i < n; i++ {
		if !isAP[i] {
			continue
		}
		info := snap.Nodes[nodeIDs[i]]
		if info.Type == NodeDoor {
			doorAPs++
		}
		aps = append(aps, ArticulationPoint{
			ID:     info.ID,
			Name:   info.Name,
			Type:   info.Type,
			Degree: len(adjIdx[i]),
		})
	}

	var bridges []BridgeEdge
	for _, pair := range bridgePairs {
		u, v := snap.Nodes[nodeIDs[pair[0]]], snap.Nodes[nodeIDs[pair[1]]]
		key := edgePair{pair[0], pair[1]}
		if key.u > key.v {
			key = edgePair{key.v, key.u}
		}
		bridges = append(bridges, BridgeEdge{
			SourceID:   u.ID,
			TargetID:   v.ID,
			SourceName: u.Name,
			TargetName: v.Name,
			Distance:   distance[key],
		})
	}
	sort.Slice(bridges, func(i, j int) bool {
		if bridges[i].SourceID != bridges[j].SourceID {
			return bridges[i].SourceID < bridges[j].SourceID
		}
		return bridges[i].TargetID < bridges[j].TargetID
	})

	return &BridgeReport{
		ArticulationPoints: aps,
		BridgeEdges:        bridges,
		SingleOpenings:     singleOpenings(snap, nodeIDs),
		APCount:            len(aps),
		DoorAPCount:        doorAPs,
		BridgeCount:        len(bridges),
	}
}

// singleOpenings counts the openings between each pair of rooms. A
// connection node joins its own room to the rooms of its neighbours.
func singleOpenings(snap *Snapshot, nodeIDs []NodeID) []SingleOpening {
	type roomPair struct{ a, b floor.ElementID }
	counts := make(map[roomPair]int)
	names := make(map[roomPair]string)

	for _, id := range nodeIDs {
		info := snap.Nodes[id]
		if info.Type != NodeDoor && info.Type != NodeRoomBoundary {
			continue
		}
		pairs := make(map[roomPair]bool)
		for _, nb := range snap.Adj[id] {
			other := snap.Rooms[nb]
			if !other.Valid() || !info.RoomID.Valid() || other == info.RoomID {
				continue
			}
			key := roomPair{info.RoomID, other}
			if key.a > key.b {
				key = roomPair{key.b, key.a}
			}
			pairs[key] = true
		}
		for key := range pairs {
			counts[key]++
			names[key] = info.Name
		}
	}

	var out []SingleOpening
	for key, count := range counts {
		if count == 1 {
			out = append(out, SingleOpening{RoomA: key.a, RoomB: key.b, Opening: names[key]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomA != out[j].RoomA {
			return out[i].RoomA < out[j].RoomA
		}
		return out[i].RoomB < out[j].RoomB
	})
	return out
}
