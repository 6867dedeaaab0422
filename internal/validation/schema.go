// Package validation checks fixture and weight-table documents against the
// embedded JSON Schemas before they are decoded.
package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/fixture.schema.json
var fixtureSchemaJSON string

//go:embed schemas/weights.schema.json
var weightsSchemaJSON string

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// fixtureSchema is the compiled JSON Schema for benchmark fixtures.
var fixtureSchema *jsonschema.Schema

// weightsSchema is the compiled JSON Schema for weights.json artifacts.
var weightsSchema *jsonschema.Schema

func init() {
	fixtureSchema = mustCompileSchema(fixtureSchemaJSON, "fixture.schema.json")
	weightsSchema = mustCompileSchema(weightsSchemaJSON, "weights.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// DecodeDocument parses a fixture file into generic JSON-compatible values.
// Files ending in .json are read as JSON with numbers kept as json.Number;
// everything else as YAML.
func DecodeDocument(name string, data []byte) (any, error) {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("JSON parse error: %w", err)
		}
		return doc, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	return convertToJSONCompatible(doc), nil
}

// ValidateFixtureFile validates the fixture at path against the fixture schema.
func ValidateFixtureFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}
	return ValidateFixtureBytes(path, data), nil
}

// ValidateFixtureBytes validates raw fixture bytes. name selects the format.
func ValidateFixtureBytes(name string, data []byte) []string {
	doc, err := DecodeDocument(name, data)
	if err != nil {
		return []string{err.Error()}
	}
	return ValidateFixtureDocument(doc)
}

// ValidateFixtureDocument validates an already decoded fixture document.
func ValidateFixtureDocument(doc any) []string {
	return validateAgainstSchema(fixtureSchema, doc)
}

// ValidateWeightsBytes validates a weights.json artifact.
func ValidateWeightsBytes(data []byte) []string {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return validateAgainstSchema(weightsSchema, doc)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible normalizes YAML-decoded values. yaml.v3 yields
// map[string]any for string-keyed mappings but map[any]any is still possible
// for non-string keys, which JSON Schema cannot describe.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[fmt.Sprint(k)] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	default:
		return val
	}
}
