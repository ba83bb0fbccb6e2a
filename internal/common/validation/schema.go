// Package validation checks incoming assistant request payloads before processing.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// commandRequestSchema describes the accepted shape of a POST /api/lua payload.
var commandRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"message": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"user_id": map[string]interface{}{
			"type": "string",
		},
		"voice": map[string]interface{}{
			"type": "boolean",
		},
		"context": map[string]interface{}{
			"type": "object",
		},
	},
	"required":             []string{"message"},
	"additionalProperties": false,
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidateCommandRequest validates a decoded request body against the command schema.
func ValidateCommandRequest(payload map[string]interface{}) (*Result, error) {
	schemaLoader := gojsonschema.NewGoLoader(commandRequestSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &Result{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}
