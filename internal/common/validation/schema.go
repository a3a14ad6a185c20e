// Package validation checks job variables against the input schemas in the
// activity registry.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Err folds a failed result into an INVALID_INPUT error. It returns nil for
// a valid result.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return apperrors.NewInvalidInputError(strings.Join(parts, "; "))
}

// Validator holds one compiled input schema per task type.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(reg.Activities))}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = schema
	}
	return v, nil
}

// ValidateInput checks variables against the task type's schema. Task types
// without a schema accept anything.
func (v *Validator) ValidateInput(taskType string, variables map[string]interface{}) *ValidationResult {
	schema, ok := v.schemas[taskType]
	if !ok {
		return &ValidationResult{Valid: true}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(variables))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_DOCUMENT",
		}}}
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationResult{Errors: errs}
}
