package floor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Format names a plan file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the encoding from a file extension. Anything that is not
// .json is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// LoadPlan reads and validates a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	plan, err := ParsePlan(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if plan.Name == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return plan, nil
}

// ParsePlan decodes and validates a plan.
func ParsePlan(data []byte, format Format) (*Plan, error) {
	var plan Plan
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&plan); err != nil {
			return nil, fmt.Errorf("decoding plan: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&plan); err != nil {
			return nil, fmt.Errorf("decoding plan: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown plan format %q", format)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks record-level constraints: ids present, non-negative areas,
// loads and widths, unique room and door ids, and that every door can be
// located.
func (p *Plan) Validate() error {
	if err := validatorInstance().Struct(p); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	rooms := make(map[ElementID]bool, len(p.Rooms))
	for _, r := range p.Rooms {
		if rooms[r.ID] {
			return ConfigError(r.ID, "duplicate room id")
		}
		rooms[r.ID] = true
	}
	doors := make(map[ElementID]bool, len(p.Doors))
	for _, d := range p.Doors {
		if doors[d.ID] {
			return ConfigError(d.ID, "duplicate door id")
		}
		doors[d.ID] = true
		if d.Location == nil && d.BoundingBox == nil {
			return ConfigError(d.ID, "door %q has neither a location nor a bounding box", d.Mark)
		}
	}
	return nil
}

// Encode writes the plan in the given format.
func (p *Plan) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(p, "", "  ")
	case FormatYAML:
		return yaml.Marshal(p)
	default:
		return nil, fmt.Errorf("unknown plan format %q", format)
	}
}

// Fingerprint is a content hash of the plan, stable across encodings.
func (p *Plan) Fingerprint() string {
	data, err := json.Marshal(p)
	if err != nil {
		// Plan contains only marshalable fields.
		panic(fmt.Sprintf("floor: marshaling plan: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
