package policy

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

// TestBuildContext_ScenarioOne is spec.md §8 scenario 1: a rule for
// "example.com/api" with no explicit port must produce the dual-port
// context predicate and an asset-id of "example.com/api".
func TestBuildContext_ScenarioOne(t *testing.T) {
	url, uri, port := splitHostURI("example.com/api")
	if url != "example.com" || uri != "/api" || port != "" {
		t.Fatalf("splitHostURI = (%q,%q,%q), want (example.com,/api,\"\")", url, uri, port)
	}

	assetID, ctx := buildContext(url, uri, port)
	wantID := "example.com/api"
	wantCtx := "Any(All(Any(EqualHost(example.com)),EqualListeningPort(80),BeginWithUri(/api)),All(Any(EqualHost(example.com)),EqualListeningPort(443),BeginWithUri(/api)))"
	if assetID != wantID {
		t.Errorf("assetID = %q, want %q", assetID, wantID)
	}
	if ctx != wantCtx {
		t.Errorf("context = %q, want %q", ctx, wantCtx)
	}
}

// TestBuildContext_ScenarioTwo is spec.md §8 scenario 2: the wildcard host
// "*" normalizes to asset-id "Any" and the constant predicate "All()".
func TestBuildContext_ScenarioTwo(t *testing.T) {
	url, uri, port := splitHostURI("*")
	if url != AnyAsset || uri != AnyAsset || port != "" {
		t.Fatalf("splitHostURI(*) = (%q,%q,%q), want (Any,Any,\"\")", url, uri, port)
	}

	assetID, ctx := buildContext(url, uri, port)
	if assetID != AnyAsset {
		t.Errorf("assetID = %q, want %q", assetID, AnyAsset)
	}
	if ctx != "All()" {
		t.Errorf("context = %q, want All()", ctx)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestCompiler_CompileSource_ScenarioOne runs scenario 1 end-to-end through
// CompileSource+Compile with a MapResolver, confirming the emitted
// RulesConfigRulebase entry carries the exact asset-id/context from
// buildContext and that the referenced practice was resolved.
func TestCompiler_CompileSource_ScenarioOne(t *testing.T) {
	resolver := &MapResolver{
		Practices: map[string]Practice{
			"waap-practice": {Name: "waap-practice", Mode: "prevent"},
		},
	}
	c := NewCompiler(resolver, "1.0", discardLogger())

	src := PolicySource{
		Specific: []Rule{
			{Host: "example.com/api", Mode: "prevent", PracticeName: "waap-practice"},
		},
	}
	c.CompileSource(context.Background(), "test-source", src, false)

	pw := c.Compile()
	if len(pw.Rules.RulesConfig) != 1 {
		t.Fatalf("got %d rules, want 1", len(pw.Rules.RulesConfig))
	}

	rule := pw.Rules.RulesConfig[0]
	wantID := "example.com/api"
	wantCtx := "Any(All(Any(EqualHost(example.com)),EqualListeningPort(80),BeginWithUri(/api)),All(Any(EqualHost(example.com)),EqualListeningPort(443),BeginWithUri(/api)))"
	if rule.AssetID != wantID || rule.AssetName != wantID {
		t.Errorf("asset id/name = %q/%q, want %q", rule.AssetID, rule.AssetName, wantID)
	}
	if rule.Context != wantCtx {
		t.Errorf("context = %q, want %q", rule.Context, wantCtx)
	}
	if len(rule.Practices) != 1 || rule.Practices[0].Name != "waap-practice" {
		t.Errorf("practices = %+v, want one entry named waap-practice", rule.Practices)
	}
}

// TestCompiler_CompileSource_ScenarioTwo covers the wildcard-host default
// rule path (scenario 2) through CompileSource's step-8 synthesis.
func TestCompiler_CompileSource_ScenarioTwo(t *testing.T) {
	resolver := &MapResolver{}
	c := NewCompiler(resolver, "1.0", discardLogger())

	src := PolicySource{
		Default: Rule{Host: "*", Mode: "detect"},
	}
	c.CompileSource(context.Background(), "test-source", src, false)

	pw := c.Compile()
	if len(pw.Rules.RulesConfig) != 1 {
		t.Fatalf("got %d rules, want 1", len(pw.Rules.RulesConfig))
	}

	rule := pw.Rules.RulesConfig[0]
	if rule.AssetID != AnyAsset || rule.AssetName != AnyAsset {
		t.Errorf("asset id/name = %q/%q, want %q", rule.AssetID, rule.AssetName, AnyAsset)
	}
	if rule.Context != "All()" {
		t.Errorf("context = %q, want All()", rule.Context)
	}
}

// TestCompiler_CompileSource_DefaultBackendCleanupRule confirms the
// wildcard cleanup rule from CompileSource step 8's last sentence is
// appended when hasDefaultBackend is true and the default rule enforces.
func TestCompiler_CompileSource_DefaultBackendCleanupRule(t *testing.T) {
	resolver := &MapResolver{}
	c := NewCompiler(resolver, "1.0", discardLogger())

	src := PolicySource{
		Default: Rule{Host: "*", Mode: "prevent"},
	}
	c.CompileSource(context.Background(), "test-source", src, true)

	pw := c.Compile()
	var cleanup int
	for _, r := range pw.Rules.RulesConfig {
		if r.IsCleanup {
			cleanup++
		}
	}
	if cleanup != 1 {
		t.Fatalf("got %d cleanup rules, want 1", cleanup)
	}
}

// TestCompiler_CompileSource_UnresolvedPracticeSkipsRule confirms a rule
// referencing a practice the resolver doesn't know about is skipped rather
// than emitted with an empty Practices slice (spec §4.2 step 2).
func TestCompiler_CompileSource_UnresolvedPracticeSkipsRule(t *testing.T) {
	resolver := &MapResolver{}
	c := NewCompiler(resolver, "1.0", discardLogger())

	src := PolicySource{
		Specific: []Rule{
			{Host: "example.com/api", PracticeName: "missing-practice"},
		},
	}
	c.CompileSource(context.Background(), "test-source", src, false)

	pw := c.Compile()
	if len(pw.Rules.RulesConfig) != 0 {
		t.Fatalf("got %d rules, want 0 (unresolved practice should skip the rule)", len(pw.Rules.RulesConfig))
	}
}
