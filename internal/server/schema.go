package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/urduaiorg/tracker/constants"
)

// recordSchema validates analytics create payloads before they touch
// the store; patchSchema accepts the same fields but requires none,
// for partial updates. Platform values are injected from the canonical
// list so the schemas can never drift from the enum.
var (
	recordSchema = mustCompileRecordSchema("record.json", true)
	patchSchema  = mustCompileRecordSchema("patch.json", false)
)

func mustCompileRecordSchema(name string, requireCore bool) *jsonschema.Schema {
	platforms := make([]any, 0, len(constants.Platforms))
	for _, p := range constants.Platforms {
		platforms = append(platforms, string(p))
	}
	schemaMap := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"platform": map[string]any{
				"type": "string",
				"enum": platforms,
			},
			"metric_name":  map[string]any{"type": "string", "minLength": 1},
			"metric_value": map[string]any{"type": "string", "minLength": 1},
			"period":       map[string]any{"type": "string"},
			"confidence": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": 100,
			},
		},
	}
	if requireCore {
		schemaMap["required"] = []any{"platform", "metric_name", "metric_value"}
	}

	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal record schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add record schema: %v", err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile record schema: %v", err))
	}
	return schema
}

// validatePayload checks raw JSON against the given schema.
func validatePayload(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}
