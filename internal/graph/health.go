package graph

import "math"

// HealthBreakdown shows the sub-scores of the health formula
type HealthBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Components   float64 `json:"components"`
	Reachability float64 `json:"reachability"`
	Redundancy   float64 `json:"redundancy"`
}

// DiagnosticsReport is the structural assessment of an egress network
type DiagnosticsReport struct {
	HealthScore     float64         `json:"health_score"`
	HealthBreakdown HealthBreakdown `json:"health_breakdown"`
	Topology        *TopologyReport `json:"topology"`
	Bridges         *BridgeReport   `json:"bridges"`
}

// AnalyzerConfig holds diagnostics parameters
type AnalyzerConfig struct {
	JunctionThreshold int
	TopN              int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		JunctionThreshold: 4,
		TopN:              50,
	}
}

// Diagnose runs the structural analyses and computes a composite score
func Diagnose(snap *Snapshot, config *AnalyzerConfig) *DiagnosticsReport {
	if config == nil {
		config = DefaultConfig()
	}
	topology := ComputeTopology(snap, config.JunctionThreshold, config.TopN)
	bridges := ComputeBridges(snap)

	total := float64(topology.TotalNodes)
	rooms := 0
	for _, n := range snap.Nodes {
		if n.Type == NodeRoom {
			rooms++
		}
	}

	var connectivity, components, reachability, redundancy float64

	if total > 0 {
		connectivity = clamp(1.0-math.Min(float64(topology.IsolatedCount)/total, 0.2)*5.0, 0, 1)
		redundancy = clamp(1.0-math.Min(float64(bridges.DoorAPCount)/total, 0.05)*20.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		components = clamp(1.0/float64(topology.NumComponents), 0, 1)
	}
	if rooms > 0 {
		reachability = clamp(1.0-float64(topology.StrandedRooms)/float64(rooms), 0, 1)
	}

	healthScore := 0.25*connectivity + 0.15*components + 0.40*reachability + 0.20*redundancy

	return &DiagnosticsReport{
		HealthScore: healthScore,
		HealthBreakdown: HealthBreakdown{
			Connectivity: connectivity,
			Components:   components,
			Reachability: reachability,
			Redundancy:   redundancy,
		},
		Topology: topology,
		Bridges:  bridges,
	}
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
