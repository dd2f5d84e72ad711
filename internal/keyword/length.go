package keyword

import (
	"fmt"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// lengthReservedWords are attribute keywords that cannot double as a
// variable-binding name in the modeless form, a direct port of
// LengthKeyword's variable-name collision guard.
var lengthReservedWords = map[string]bool{
	"relative": true, "part": true, "exact": true, "min": true, "max": true,
}

// LengthMode selects whether the length keyword compares the remaining
// buffer length to an operand (exact/min/max) or binds it to a variable
// (modeless).
type LengthMode int

const (
	LengthModeless LengthMode = iota
	LengthExact
	LengthMin
	LengthMax
)

// LengthNode implements the `length` keyword.
type LengthNode struct {
	base

	mode     LengthMode
	varName  string // modeless: variable to bind
	varID    uint
	compare  NumericAttr // exact/min/max: operand to compare against
	relative bool
	ctx      CtxAttr
	ambient  kw.Ctx
}

// NewLengthNode compiles a `length` keyword clause.
func NewLengthNode(p KeywordParsed, vars *kw.VariablesMapping, ambientCtx kw.Ctx) (*LengthNode, error) {
	n := &LengthNode{mode: LengthModeless, ambient: ambientCtx}

	modeSet := false
	varSet := false
	for _, a := range p.Attrs {
		switch {
		case a.Name == "relative":
			n.relative = true
		case a.Name == "part":
			if err := n.ctx.setAttr(a.Value); err != nil {
				return nil, &KeywordError{Keyword: "length", Attr: "part", Msg: err.Error()}
			}
		case a.Name == "exact", a.Name == "min", a.Name == "max":
			if modeSet {
				return nil, &KeywordError{Keyword: "length", Msg: "exact/min/max may only be given once"}
			}
			modeSet = true
			switch a.Name {
			case "exact":
				n.mode = LengthExact
			case "min":
				n.mode = LengthMin
			case "max":
				n.mode = LengthMax
			}
			attr, err := parseNumericAttr(a.Value, vars)
			if err != nil {
				return nil, &KeywordError{Keyword: "length", Attr: a.Name, Msg: err.Error()}
			}
			n.compare = attr
		case (a.Name == "" || a.Value == "") && !modeSet && !varSet:
			name := attrKey(a)
			if lengthReservedWords[name] {
				return nil, &KeywordError{Keyword: "length", Msg: fmt.Sprintf("%q is a reserved word and cannot be used as a variable name", name)}
			}
			n.varName = name
			n.varID = vars.AddNewVariable(name)
			varSet = true
		default:
			return nil, &KeywordError{Keyword: "length", Attr: a.Name, Msg: "unknown or duplicate attribute"}
		}
	}

	if !modeSet && !varSet {
		return nil, &KeywordError{Keyword: "length", Msg: "requires either a variable name or exact/min/max N"}
	}
	if modeSet && varSet {
		return nil, &KeywordError{Keyword: "length", Msg: "cannot combine a variable-binding name with exact/min/max"}
	}
	return n, nil
}

// IsMatch evaluates the length keyword: in comparison modes it matches or
// fails; in modeless form it always succeeds after binding the variable.
func (n *LengthNode) IsMatch(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus {
	ctx := n.ctx.get(n.ambient)
	buf, ok := env.GetBuffer(ctx)
	if !ok {
		return kw.NoMatch
	}

	offset := 0
	if n.relative {
		offset = int(state.GetOffset(ctx))
	}
	remaining := len(buf) - offset
	if remaining < 0 {
		remaining = 0
	}

	if n.mode == LengthModeless {
		next := newVariableState(state, n.varID, uint(remaining))
		return n.runNext(env, tbl, next)
	}

	operand := n.compare.evalAttr(state)
	var ok2 bool
	switch n.mode {
	case LengthExact:
		ok2 = uint(remaining) == operand
	case LengthMin:
		ok2 = uint(remaining) >= operand
	case LengthMax:
		ok2 = uint(remaining) <= operand
	}

	if !ok2 {
		if n.compare.isConstant() {
			return kw.NoMatchFinal
		}
		return kw.NoMatch
	}
	return n.runNext(env, tbl, state)
}
