package keyword

import (
	"fmt"
	"strconv"
	"strings"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// NumericAttr holds either a constant integer literal or a reference to a
// variable bound earlier in the rule. A direct port of
// single_keyword.cc's NumericAttr.
type NumericAttr struct {
	isConst  bool
	constVal uint
	varID    uint
}

// setConst sets this attribute to a constant value.
func (n *NumericAttr) setConst(v uint) {
	n.isConst = true
	n.constVal = v
}

// setVariable sets this attribute to resolve to the named variable at
// eval time via vars.
func (n *NumericAttr) setVariable(vars *kw.VariablesMapping, name string) error {
	id, err := vars.GetVariableID(name)
	if err != nil {
		return err
	}
	n.isConst = false
	n.varID = id
	return nil
}

// parseNumericAttr parses tok as either an unsigned integer literal or, if
// that fails, a variable name looked up in vars. A direct port of
// NumericAttr::setAttr's const-vs-var detection.
func parseNumericAttr(tok string, vars *kw.VariablesMapping) (NumericAttr, error) {
	var n NumericAttr
	if v, err := strconv.ParseUint(tok, 0, 64); err == nil {
		n.setConst(uint(v))
		return n, nil
	}
	if err := n.setVariable(vars, tok); err != nil {
		return NumericAttr{}, fmt.Errorf("not a numeric literal or bound variable: %q", tok)
	}
	return n, nil
}

// isConstant reports whether this attribute is a compile-time constant,
// used to decide NoMatch vs NoMatchFinal on failure paths.
func (n NumericAttr) isConstant() bool { return n.isConst }

// evalAttr resolves the attribute's value against the current runtime state.
func (n NumericAttr) evalAttr(state RuntimeState) uint {
	if n.isConst {
		return n.constVal
	}
	return state.GetVariable(n.varID)
}

// BoolAttr is a flag attribute that may only be set once per clause; a
// second occurrence is a compile error (double-definition guard), a direct
// port of BoolAttr::setAttr.
type BoolAttr struct {
	set   bool
	value bool
}

func (b *BoolAttr) setAttr(name string, value bool) error {
	if b.set {
		return fmt.Errorf("attribute %q defined more than once", name)
	}
	b.set = true
	b.value = value
	return nil
}

func (b BoolAttr) get() bool { return b.set && b.value }

// CtxAttr names the context buffer a keyword should read from/write to,
// defaulting to the rule's ambient context when unset. A direct port of
// CtxAttr::setAttr.
type CtxAttr struct {
	set bool
	ctx kw.Ctx
}

func (c *CtxAttr) setAttr(name string) error {
	if c.set {
		return fmt.Errorf("part/context attribute defined more than once")
	}
	c.set = true
	c.ctx = kw.Ctx(name)
	return nil
}

func (c CtxAttr) get(fallback kw.Ctx) kw.Ctx {
	if c.set {
		return c.ctx
	}
	return fallback
}

// Comparison is one of the relational operators accepted by compare and by
// the length keyword's exact/min/max forms.
type Comparison int

const (
	CompareEqual Comparison = iota
	CompareNotEqual
	CompareLessThan
	CompareGreaterThan
	CompareLessOrEqual
	CompareGreaterOrEqual
)

// nameToOperator is a direct port of ComparisonAttr::name_to_operator.
var nameToOperator = map[string]Comparison{
	"=":  CompareEqual,
	"!=": CompareNotEqual,
	"<":  CompareLessThan,
	">":  CompareGreaterThan,
	"<=": CompareLessOrEqual,
	">=": CompareGreaterOrEqual,
}

// ComparisonAttr evaluates one relational operator over two operands.
type ComparisonAttr struct {
	op Comparison
}

// parseComparisonAttr looks up tok in nameToOperator, a direct port of
// ComparisonAttr's constructor.
func parseComparisonAttr(tok string) (ComparisonAttr, error) {
	op, ok := nameToOperator[strings.TrimSpace(tok)]
	if !ok {
		return ComparisonAttr{}, fmt.Errorf("unknown comparison operator %q", tok)
	}
	return ComparisonAttr{op: op}, nil
}

// apply evaluates lhs OP rhs. A direct port of ComparisonAttr::operator().
func (c ComparisonAttr) apply(lhs, rhs uint) bool {
	switch c.op {
	case CompareEqual:
		return lhs == rhs
	case CompareNotEqual:
		return lhs != rhs
	case CompareLessThan:
		return lhs < rhs
	case CompareGreaterThan:
		return lhs > rhs
	case CompareLessOrEqual:
		return lhs <= rhs
	case CompareGreaterOrEqual:
		return lhs >= rhs
	default:
		return false
	}
}
