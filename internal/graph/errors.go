package graph

import "errors"

var (
	// ErrNotEndpoint means an edge was asked for the far end of a node it
	// does not touch. It indicates a corrupted graph.
	ErrNotEndpoint = errors.New("node is not an endpoint of the edge")

	// ErrNotTransitPoint is returned when promoting a node that is not a
	// transit point.
	ErrNotTransitPoint = errors.New("node is not a transit point")

	// ErrNilNode is returned when a search is given a nil endpoint.
	ErrNilNode = errors.New("nil node")
)
