package graph

import "sort"

// Junction is a node where many paths meet
type Junction struct {
	ID     NodeID   `json:"id"`
	Name   string   `json:"name"`
	Type   NodeType `json:"type"`
	Degree int      `json:"degree"`
}

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StrandedComponent is a connected component with rooms but no egress
type StrandedComponent struct {
	Size  int      `json:"size"`
	Rooms []string `json:"rooms"`
}

// TopologyReport contains topology analysis results
type TopologyReport struct {
	TotalNodes        int                 `json:"total_nodes"`
	TotalEdges        int                 `json:"total_edges"`
	NumComponents     int                 `json:"num_components"`
	LargestComponent  int                 `json:"largest_component"`
	SmallestComponent int                 `json:"smallest_component"`
	IsolatedCount     int                 `json:"isolated_count"`
	IsolatedIDs       []NodeID            `json:"isolated_ids"`
	DegreeHistogram   []DegreeBucket      `json:"degree_histogram"`
	Junctions         []Junction          `json:"junctions"`
	Stranded          []StrandedComponent `json:"stranded"`
	StrandedRooms     int                 `json:"stranded_rooms"`
}

// ComputeTopology analyzes network topology: components, isolated nodes,
// degree distribution, junctions and components without an egress
func ComputeTopology(snap *Snapshot, junctionThreshold, topN int) *TopologyReport {
	totalNodes := len(snap.Nodes)
	totalEdges := len(snap.Edges)

	if totalNodes == 0 {
		return &TopologyReport{
			DegreeHistogram: defaultHistogram(),
		}
	}

	// Connected components via UnionFind
	nodeIDs := snap.NodeIDs()
	uf := NewUnionFind(nodeIDs)
	for _, e := range snap.Edges {
		uf.Union(e.Source, e.Target)
	}

	components := uf.Components()
	largest, smallest := 0, totalNodes
	for _, c := range components {
		if len(c) > largest {
			largest = len(c)
		}
		if len(c) < smallest {
			smallest = len(c)
		}
	}

	// Stranded: components holding rooms but no egress door
	var stranded []StrandedComponent
	strandedRooms := 0
	for _, c := range components {
		var rooms []string
		hasEgress := false
		for _, id := range c {
			n := snap.Nodes[id]
			if n.IsEgress {
				hasEgress = true
				break
			}
			if n.Type == NodeRoom {
				rooms = append(rooms, n.Name)
			}
		}
		if hasEgress || len(rooms) == 0 {
			continue
		}
		strandedRooms += len(rooms)
		stranded = append(stranded, StrandedComponent{Size: len(c), Rooms: rooms})
	}

	// Isolated: degree == 0
	var isolated []NodeID
	for _, id := range nodeIDs {
		if len(snap.Adj[id]) == 0 {
			isolated = append(isolated, id)
		}
	}
	isolatedCount := len(isolated)
	if len(isolated) > topN {
		isolated = isolated[:topN]
	}

	buckets := [6]int{}
	for _, id := range nodeIDs {
		buckets[degreeBucket(len(snap.Adj[id]))]++
	}
	histogram := defaultHistogram()
	for i := range histogram {
		histogram[i].Count = buckets[i]
	}

	// Junctions: degree > threshold
	var junctions []Junction
	for _, id := range nodeIDs {
		degree := len(snap.Adj[id])
		if degree > junctionThreshold {
			junctions = append(junctions, Junction{
				ID:     id,
				Name:   snap.Nodes[id].Name,
				Type:   snap.Nodes[id].Type,
				Degree: degree,
			})
		}
	}
	sort.SliceStable(junctions, func(i, j int) bool { return junctions[i].Degree > junctions[j].Degree })
	if len(junctions) > topN {
		junctions = junctions[:topN]
	}

	return &TopologyReport{
		TotalNodes:        totalNodes,
		TotalEdges:        totalEdges,
		NumComponents:     len(components),
		LargestComponent:  largest,
		SmallestComponent: smallest,
		IsolatedCount:     isolatedCount,
		IsolatedIDs:       isolated,
		DegreeHistogram:   histogram,
		Junctions:         junctions,
		Stranded:          stranded,
		StrandedRooms:     strandedRooms,
	}
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2"},
		{Label: "3"}, {Label: "4-7"}, {Label: "8+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree <= 3:
		return degree
	case degree <= 7:
		return 4
	default:
		return 5
	}
}
