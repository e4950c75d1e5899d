// Package validation checks request bodies against embedded JSON Schema documents.
package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"strengths-service/internal/domain"
)

// Schema names, one per request body.
const (
	Submit      = "submit"
	SaveResults = "save_results"
	Register    = "register"
	Login       = "login"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const baseURL = "schema://strengths/"

// Validator holds compiled schemas; safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	for _, e := range entries {
		raw, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		// The jsonschema library expects a parsed JSON value (any), not raw bytes.
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", e.Name(), err)
		}
		if err := c.AddResource(baseURL+e.Name(), doc); err != nil {
			return nil, fmt.Errorf("add resource %s: %w", e.Name(), err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema)}
	for _, name := range []string{Submit, SaveResults, Register, Login} {
		compiled, err := c.Compile(baseURL + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

// MustNew panics if the embedded schemas do not compile.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks raw against the named schema. Failures are *domain.ValidationError.
func (v *Validator) Validate(name string, raw []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return domain.Invalidf("request body must be valid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		return &domain.ValidationError{Message: firstViolation(err)}
	}
	return nil
}

// Decode validates raw and unmarshals it into dst.
func (v *Validator) Decode(name string, raw []byte, dst any) error {
	if err := v.Validate(name, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.Invalidf("request body does not match the expected shape")
	}
	return nil
}

// firstViolation reduces the library's multi-line report to its most
// specific "at '<location>': <reason>" line.
func firstViolation(err error) string {
	best, depth := "", -1
	for _, line := range strings.Split(err.Error(), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, "- at ") {
			continue
		}
		if indent := len(line) - len(trimmed); indent > depth {
			best, depth = strings.TrimPrefix(trimmed, "- "), indent
		}
	}
	if best == "" {
		return err.Error()
	}
	return best
}
