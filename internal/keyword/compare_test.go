package keyword

import (
	"testing"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

func mustCompareNode(t *testing.T, lhs, op, rhs string, vars *kw.VariablesMapping) *CompareNode {
	t.Helper()
	p := KeywordParsed{
		Name: "compare",
		Attrs: []KeywordAttr{
			{Value: lhs},
			{Value: op},
			{Value: rhs},
		},
	}
	n, err := NewCompareNode(p, vars)
	if err != nil {
		t.Fatalf("NewCompareNode(%q,%q,%q): %v", lhs, op, rhs, err)
	}
	return n
}

// TestCompareNode_ConstantOperands exercises every operator against two
// compile-time-constant operands, confirming both the verdict and that a
// failed comparison between two constants is NoMatchFinal (no rearrangement
// of constants could ever succeed).
func TestCompareNode_ConstantOperands(t *testing.T) {
	cases := []struct {
		lhs, op, rhs string
		want         kw.MatchStatus
	}{
		{"5", "=", "5", kw.Match},
		{"5", "=", "6", kw.NoMatchFinal},
		{"5", "!=", "6", kw.Match},
		{"5", "<", "6", kw.Match},
		{"6", "<", "5", kw.NoMatchFinal},
		{"6", ">", "5", kw.Match},
		{"5", "<=", "5", kw.Match},
		{"5", ">=", "5", kw.Match},
	}
	env := kw.MapEnvironment{}
	tbl := kw.NewMapStateTable()

	for _, c := range cases {
		vars := kw.NewVariablesMapping()
		node := mustCompareNode(t, c.lhs, c.op, c.rhs, vars)
		if got := node.IsMatch(env, tbl, kw.SentinelRuntimeState{}); got != c.want {
			t.Errorf("%s %s %s = %v, want %v", c.lhs, c.op, c.rhs, got, c.want)
		}
	}
}

// TestCompareNode_ScenarioFiveLiteral is the compare half of spec.md §8
// scenario 5 in isolation: a bound variable v=0x12345678 must compare equal
// to the decimal literal 305419896.
func TestCompareNode_ScenarioFiveLiteral(t *testing.T) {
	vars := kw.NewVariablesMapping()
	varID := vars.AddNewVariable("v")

	node := mustCompareNode(t, "v", "=", "305419896", vars)

	env := kw.MapEnvironment{}
	tbl := kw.NewMapStateTable()
	state := newVariableState(kw.SentinelRuntimeState{}, varID, 0x12345678)

	if got := node.IsMatch(env, tbl, state); got != kw.Match {
		t.Fatalf("IsMatch = %v, want Match", got)
	}
}

// TestCompareNode_VariableOperandMismatchIsNotFinal confirms a failed
// comparison involving a non-constant (variable) operand reports NoMatch,
// not NoMatchFinal, since a different binding of the variable could still
// satisfy the rule.
func TestCompareNode_VariableOperandMismatchIsNotFinal(t *testing.T) {
	vars := kw.NewVariablesMapping()
	varID := vars.AddNewVariable("v")

	node := mustCompareNode(t, "v", "=", "42", vars)

	env := kw.MapEnvironment{}
	tbl := kw.NewMapStateTable()
	state := newVariableState(kw.SentinelRuntimeState{}, varID, 7)

	if got := node.IsMatch(env, tbl, state); got != kw.NoMatch {
		t.Fatalf("IsMatch = %v, want NoMatch", got)
	}
}
