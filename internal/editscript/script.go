package editscript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

var (
	// ErrSchemaViolation reports a script rejected by schema validation.
	ErrSchemaViolation = errors.New("edit script violates schema")
	// ErrUnknownOp reports an edit whose op is not recognized.
	ErrUnknownOp = errors.New("unknown edit op")
	// ErrMissingField reports an edit lacking a field its op requires.
	ErrMissingField = errors.New("edit is missing a required field")
)

// Edit is one scripted operation. Addressing is either byte-offset based
// (offset, plus length for delete/replace) or position based (line + column
// in code points). Text carries the payload for insert and replace.
type Edit struct {
	Op     string `json:"op"     yaml:"op"`
	Offset *int   `json:"offset" yaml:"offset"`
	Length *int   `json:"length" yaml:"length"`
	Line   *int   `json:"line"   yaml:"line"`
	Column *int   `json:"column" yaml:"column"`
	Text   string `json:"text"   yaml:"text"`
}

// Script is a validated edit script.
type Script struct {
	Edits []Edit `json:"edits" yaml:"edits"`
}

// Load reads a script file, validates it against the embedded schema, and
// decodes it. YAML and JSON are both accepted; YAML is the superset, so one
// decoder serves both.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path) //nolint:gosec // script path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read edit script: %w", err)
	}

	script, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return script, nil
}

// Parse validates and decodes a script document.
func Parse(data []byte) (*Script, error) {
	var document any

	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decode edit script: %w", err)
	}

	if err := validate(document); err != nil {
		return nil, err
	}

	var script Script

	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("decode edit script: %w", err)
	}

	return &script, nil
}

func validate(document any) error {
	schemaBytes, err := SchemaFS.ReadFile("schema.json")
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	descriptions := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		descriptions = append(descriptions, fmt.Sprintf("%s: %s", violation.Field(), violation.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(descriptions, "; "))
}
