package streamio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// manifestSchema is the JSON Schema every dataset manifest must satisfy.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "distribution", "windows", "window_size", "keys", "partitions", "top_n", "seed", "stream_file", "summary_file"],
  "properties": {
    "name":         {"type": "string", "minLength": 1},
    "distribution": {"type": "string", "enum": ["zipfian", "uniform", "normal", "flattened"]},
    "windows":      {"type": "integer", "minimum": 1},
    "window_size":  {"type": "integer", "minimum": 1},
    "keys":         {"type": "integer", "minimum": 1},
    "partitions":   {"type": "integer", "minimum": 1},
    "top_n":        {"type": "integer", "minimum": 1},
    "seed":         {"type": "integer"},
    "stream_file":  {"type": "string", "minLength": 1},
    "summary_file": {"type": "string", "minLength": 1}
  },
  "additionalProperties": false
}`

// ErrInvalidManifest is returned when a manifest fails schema validation.
var ErrInvalidManifest = errors.New("streamio: invalid manifest")

// Manifest describes a dataset on disk. File paths are relative to the
// manifest's directory.
type Manifest struct {
	Name         string `json:"name"`
	Distribution string `json:"distribution"`
	Windows      int    `json:"windows"`
	WindowSize   int64  `json:"window_size"`
	Keys         int    `json:"keys"`
	Partitions   int    `json:"partitions"`
	TopN         int    `json:"top_n"`
	Seed         int64  `json:"seed"`
	StreamFile   string `json:"stream_file"`
	SummaryFile  string `json:"summary_file"`
}

// ValidateManifest checks raw manifest JSON against the embedded schema.
func ValidateManifest(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate manifest: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(msgs, "; "))
}

// WriteManifest validates and writes the manifest as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	validateErr := ValidateManifest(data)
	if validateErr != nil {
		return validateErr
	}

	writeErr := os.WriteFile(path, data, 0o644)
	if writeErr != nil {
		return fmt.Errorf("write manifest: %w", writeErr)
	}

	return nil
}

// ReadManifest loads and validates a manifest file.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	validateErr := ValidateManifest(data)
	if validateErr != nil {
		return Manifest{}, validateErr
	}

	var m Manifest

	unmarshalErr := json.Unmarshal(data, &m)
	if unmarshalErr != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", unmarshalErr)
	}

	return m, nil
}
