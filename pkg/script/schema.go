package script

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON Schema script documents must conform to.
func Schema() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

// SchemaError lists every schema violation found in a document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "script does not match schema:\n  - " + strings.Join(e.Problems, "\n  - ")
}

// ValidateSchema checks a raw document against the script schema. YAML
// documents are decoded first and validated as the equivalent JSON value.
func ValidateSchema(data []byte, filename string) error {
	format, err := FormatOf(filename)
	if err != nil {
		return err
	}

	var doc gojsonschema.JSONLoader
	switch format {
	case FormatJSON:
		doc = gojsonschema.NewBytesLoader(data)
	case FormatYAML:
		var v interface{}
		if err := yaml.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to decode yaml script %s: %w", filename, err)
		}
		doc = gojsonschema.NewGoLoader(v)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), doc)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &SchemaError{Problems: problems}
}
