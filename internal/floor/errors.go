package floor

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration covers missing context or attributes in the source
	// model: no phase, no occupancy load, no door width.
	ErrConfiguration = errors.New("configuration error")

	// ErrGeometry covers spatial records that contradict each other, such as
	// a transit line that leaves its room.
	ErrGeometry = errors.New("geometric inconsistency")
)

// AnalysisError is a fatal analysis failure tied to one model element where
// the element is known.
type AnalysisError struct {
	Kind    error
	Element ElementID
	Message string
}

func (e *AnalysisError) Error() string {
	if e.Element.Valid() {
		return fmt.Sprintf("%s: %s (element %d)", e.Kind, e.Message, e.Element)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Kind }

// ConfigError builds a configuration AnalysisError.
func ConfigError(element ElementID, format string, args ...any) error {
	return &AnalysisError{Kind: ErrConfiguration, Element: element, Message: fmt.Sprintf(format, args...)}
}

// GeometryError builds a geometric-inconsistency AnalysisError.
func GeometryError(element ElementID, format string, args ...any) error {
	return &AnalysisError{Kind: ErrGeometry, Element: element, Message: fmt.Sprintf(format, args...)}
}

// ElementOf extracts the offending element from err, if any.
func ElementOf(err error) (ElementID, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) && ae.Element.Valid() {
		return ae.Element, true
	}
	return InvalidElementID, false
}
