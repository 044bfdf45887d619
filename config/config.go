// Package config loads and validates a project's vela.json grammar
// configuration: which grammar version to target and which optional
// grammar features are turned on. It follows a Validator/NewValidator
// shape (a compiled JSON-Schema Draft2020 document validated up front)
// and uses golang.org/x/mod/semver for comparing a feature's minimum
// version against the configured target.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

const schemaText = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version"],
  "properties": {
    "version": {"type": "string", "pattern": "^v[0-9]+\\.[0-9]+\\.[0-9]+$"},
    "features": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    }
  },
  "additionalProperties": false
}`

// Grammar is a parsed, schema-validated vela.json document.
type Grammar struct {
	Version  string          `json:"version"`
	Features map[string]bool `json:"features"`
}

// Feature names that gate grammar productions this core implements, paired
// with the minimum Grammar.Version that enables them by default.
const (
	FeatureWhereClauses     = "where_clauses"
	FeatureGeneratorLiteral = "generator_literal"
	FeatureHashLiteral      = "hash_literal"
)

var featureMinVersion = map[string]string{
	FeatureWhereClauses:     "v1.0.0",
	FeatureGeneratorLiteral: "v1.0.0",
	FeatureHashLiteral:      "v1.2.0",
}

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("vela.json.schema", bytes.NewReader([]byte(schemaText))); err != nil {
		panic(fmt.Sprintf("config: invalid embedded schema: %v", err))
	}
	return compiler.MustCompile("vela.json.schema")
}

// Load parses and schema-validates raw vela.json bytes.
func Load(raw []byte) (*Grammar, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: invalid JSON: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("config: schema validation failed: %w", err)
	}

	var g Grammar
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if g.Features == nil {
		g.Features = map[string]bool{}
	}
	return &g, nil
}

// FeatureEnabled reports whether feature is available under g: either
// explicitly toggled in g.Features, or implied by g.Version meeting the
// feature's minimum version when not explicitly set.
func (g *Grammar) FeatureEnabled(feature string) bool {
	if v, ok := g.Features[feature]; ok {
		return v
	}
	min, ok := featureMinVersion[feature]
	if !ok {
		return false
	}
	return semver.Compare(g.Version, min) >= 0
}
