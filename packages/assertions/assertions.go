package assertions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ExpressionEvaluator evaluates a check expression against the run context.
type ExpressionEvaluator interface {
	Eval(src string) (any, error)
}

// Status fails with a *StatusMismatchError when actual differs from expected.
func Status(expected, actual int, body any) error {
	if expected == actual {
		return nil
	}
	return &StatusMismatchError{Expected: expected, Actual: actual, Body: body}
}

// Check evaluates expression and fails with a *CheckFailedError unless the
// result is the boolean true. Evaluation errors are returned as they are.
func Check(ev ExpressionEvaluator, expression string) error {
	v, err := ev.Eval(expression)
	if err != nil {
		return err
	}
	if ok, isBool := v.(bool); isBool && ok {
		return nil
	}
	return &CheckFailedError{Expression: expression, Actual: v}
}

// CheckAll runs checks in order and stops at the first failure.
func CheckAll(ev ExpressionEvaluator, expressions []string) error {
	for _, expression := range expressions {
		if err := Check(ev, expression); err != nil {
			return err
		}
	}
	return nil
}

// Schema validates body against schema. schema is either a path to a JSON
// schema file, resolved against baseDir when relative, or an inline schema
// document.
func Schema(schema any, baseDir string, body any) error {
	loader, name, err := schemaLoader(schema, baseDir)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewGoLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &SchemaError{Schema: name, Violations: violations}
}

func schemaLoader(schema any, baseDir string) (gojsonschema.JSONLoader, string, error) {
	path, ok := schema.(string)
	if !ok {
		data, err := json.Marshal(schema)
		if err != nil {
			return nil, "", fmt.Errorf("invalid inline schema: %w", err)
		}
		return gojsonschema.NewBytesLoader(data), "(inline)", nil
	}

	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	if err := validatePathWithinBase(path, baseDir); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read schema file: %w", err)
	}
	return gojsonschema.NewBytesLoader(data), schema.(string), nil
}

// validatePathWithinBase rejects schema paths that escape the suite
// directory.
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}
	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}
	return nil
}
