package config

import "testing"

func TestLoadValidDocument(t *testing.T) {
	g, err := Load([]byte(`{"version": "v1.2.0", "features": {"hash_literal": false}}`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if g.Version != "v1.2.0" {
		t.Errorf("Version = %q, want v1.2.0", g.Version)
	}
	if g.Features["hash_literal"] != false {
		t.Errorf("Features[hash_literal] = %v, want false", g.Features["hash_literal"])
	}
}

func TestLoadDefaultsFeaturesToEmptyMap(t *testing.T) {
	g, err := Load([]byte(`{"version": "v1.0.0"}`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if g.Features == nil {
		t.Fatal("Features should never be nil after Load")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, err := Load([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"version": "1.0.0"}`),             // missing leading v
		[]byte(`{}`),                                // missing required version
		[]byte(`{"version": "v1.0.0", "extra": 1}`), // additionalProperties: false
		[]byte(`{"version": "v1.0.0", "features": {"x": "yes"}}`), // feature value must be bool
	}
	for _, raw := range cases {
		if _, err := Load(raw); err == nil {
			t.Errorf("Load(%s) expected schema validation error, got nil", raw)
		}
	}
}

func TestFeatureEnabledExplicitOverride(t *testing.T) {
	g := &Grammar{Version: "v0.1.0", Features: map[string]bool{FeatureWhereClauses: true}}
	if !g.FeatureEnabled(FeatureWhereClauses) {
		t.Error("explicit true override should win even under the feature's min version")
	}

	g2 := &Grammar{Version: "v9.0.0", Features: map[string]bool{FeatureWhereClauses: false}}
	if g2.FeatureEnabled(FeatureWhereClauses) {
		t.Error("explicit false override should win even above the feature's min version")
	}
}

func TestFeatureEnabledByVersion(t *testing.T) {
	g := &Grammar{Version: "v1.2.0", Features: map[string]bool{}}
	if !g.FeatureEnabled(FeatureHashLiteral) {
		t.Error("hash_literal requires v1.2.0; v1.2.0 should enable it")
	}

	old := &Grammar{Version: "v1.0.0", Features: map[string]bool{}}
	if old.FeatureEnabled(FeatureHashLiteral) {
		t.Error("hash_literal should not be enabled before its min version v1.2.0")
	}
	if !old.FeatureEnabled(FeatureWhereClauses) {
		t.Error("where_clauses min version is v1.0.0, should be enabled at exactly v1.0.0")
	}
}

func TestFeatureEnabledUnknownFeature(t *testing.T) {
	g := &Grammar{Version: "v9.9.9", Features: map[string]bool{}}
	if g.FeatureEnabled("not_a_real_feature") {
		t.Error("an unknown feature with no min version entry should never be enabled")
	}
}
