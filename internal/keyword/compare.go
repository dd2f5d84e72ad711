package keyword

import (
	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// CompareNode implements the `compare` keyword: an integer comparison
// between two operands (literals or bound variables). A direct port of
// compare_keyword.cc.
type CompareNode struct {
	base

	lhs NumericAttr
	op  ComparisonAttr
	rhs NumericAttr
}

// NewCompareNode compiles a `compare:<lhs>,<op>,<rhs>` clause.
func NewCompareNode(p KeywordParsed, vars *kw.VariablesMapping) (*CompareNode, error) {
	if len(p.Attrs) != 3 {
		return nil, &KeywordError{Keyword: "compare", Msg: "requires exactly <lhs>,<op>,<rhs>"}
	}

	lhs, err := parseNumericAttr(attrKey(p.Attrs[0]), vars)
	if err != nil {
		return nil, &KeywordError{Keyword: "compare", Attr: "first_val", Msg: err.Error()}
	}
	op, err := parseComparisonAttr(attrKey(p.Attrs[1]))
	if err != nil {
		return nil, &KeywordError{Keyword: "compare", Attr: "operator", Msg: err.Error()}
	}
	rhs, err := parseNumericAttr(attrKey(p.Attrs[2]), vars)
	if err != nil {
		return nil, &KeywordError{Keyword: "compare", Attr: "second_val", Msg: err.Error()}
	}

	return &CompareNode{lhs: lhs, op: op, rhs: rhs}, nil
}

// IsMatch evaluates both operands against state and applies the comparison.
// A direct port of CompareKeyword::isMatch.
func (n *CompareNode) IsMatch(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus {
	lhsVal := n.lhs.evalAttr(state)
	rhsVal := n.rhs.evalAttr(state)

	if n.op.apply(lhsVal, rhsVal) {
		return n.runNext(env, tbl, state)
	}
	if n.lhs.isConstant() && n.rhs.isConstant() {
		return kw.NoMatchFinal
	}
	return kw.NoMatch
}
