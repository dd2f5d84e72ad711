package keyword

import (
	"testing"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// TestDataKeyword_ScenarioFour is spec.md §8 scenario 4: `data:"Login",
// nocase` must match "user LOGIN here" case-insensitively, and the negated
// form `data:"!Login",nocase` over the same buffer must report
// NoMatchFinal, not NoMatch, since the search window here is a compile-time
// constant (no offset/depth at all).
func TestDataKeyword_ScenarioFour(t *testing.T) {
	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"): kw.Buffer("user LOGIN here"),
	}
	tbl := kw.NewMapStateTable()

	rule, err := GenRule(`data:"Login",nocase,part HTTP_REQUEST_BODY;`, kw.Ctx("HTTP_REQUEST_BODY"), testLogger())
	if err != nil {
		t.Fatalf("GenRule: %v", err)
	}
	if got := rule.IsMatch(env, tbl); got != kw.Match {
		t.Fatalf("positive nocase data match = %v, want Match", got)
	}

	negRule, err := GenRule(`data:"!Login",nocase,part HTTP_REQUEST_BODY;`, kw.Ctx("HTTP_REQUEST_BODY"), testLogger())
	if err != nil {
		t.Fatalf("GenRule (negated): %v", err)
	}
	if got := negRule.IsMatch(env, tbl); got != kw.NoMatchFinal {
		t.Fatalf("negated data match = %v, want NoMatchFinal", got)
	}
}

// TestDataKeyword_NegativeNoMatchFinal_NodeLevel exercises DataNode.IsMatch
// directly (bypassing GenRule) to confirm the fixed negative-match branch:
// a found forbidden pattern under a constant search window must report
// NoMatchFinal.
func TestDataKeyword_NegativeNoMatchFinal_NodeLevel(t *testing.T) {
	p := KeywordParsed{
		Attrs: []KeywordAttr{
			{Value: `"!Login"`},
			{Name: "nocase"},
			{Name: "part", Value: "HTTP_REQUEST_BODY"},
		},
	}
	vars := kw.NewVariablesMapping()
	node, err := NewDataNode(p, vars, kw.Ctx("HTTP_REQUEST_BODY"))
	if err != nil {
		t.Fatalf("NewDataNode: %v", err)
	}

	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"): kw.Buffer("user LOGIN here"),
	}
	tbl := kw.NewMapStateTable()

	if got := node.IsMatch(env, tbl, kw.SentinelRuntimeState{}); got != kw.NoMatchFinal {
		t.Fatalf("IsMatch = %v, want NoMatchFinal", got)
	}
}

// TestDataKeyword_NegativeAbsentPatternMatches confirms the negative form
// succeeds (chains to its successor, or reports Match with no successor)
// when the forbidden pattern is genuinely absent from the buffer.
func TestDataKeyword_NegativeAbsentPatternMatches(t *testing.T) {
	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"): kw.Buffer("nothing suspicious here"),
	}
	tbl := kw.NewMapStateTable()

	rule, err := GenRule(`data:"!Login",nocase,part HTTP_REQUEST_BODY;`, kw.Ctx("HTTP_REQUEST_BODY"), testLogger())
	if err != nil {
		t.Fatalf("GenRule: %v", err)
	}
	if got := rule.IsMatch(env, tbl); got != kw.Match {
		t.Fatalf("IsMatch = %v, want Match (pattern genuinely absent)", got)
	}
}
