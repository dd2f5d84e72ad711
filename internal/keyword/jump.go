package keyword

import (
	"log/slog"
	"strconv"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// JumpFrom selects the reference point a jump delta is measured from. A
// direct port of jump_keyword.cc's JumpFromId enum.
type JumpFrom int

const (
	JumpRelative JumpFrom = iota
	JumpFromBeginning
	JumpFromEnd
)

// JumpNode implements the `jump` keyword: moves the current offset in the
// named context, with optional alignment. A direct port of
// components/utils/keywords/jump_keyword.cc.
type JumpNode struct {
	base

	delta    NumericAttr
	negative bool
	from     JumpFrom
	align    int
	ctx      CtxAttr
	ambient  kw.Ctx
	logger   *slog.Logger
}

// NewJumpNode compiles a `jump:<delta>,<from_beginning|from_end|relative>[,align 2|4][,part CTX]` clause.
func NewJumpNode(p KeywordParsed, vars *kw.VariablesMapping, ambientCtx kw.Ctx, logger *slog.Logger) (*JumpNode, error) {
	if len(p.Attrs) < 2 {
		return nil, &KeywordError{Keyword: "jump", Msg: "requires <delta>,<from_beginning|from_end|relative>"}
	}

	n := &JumpNode{ambient: ambientCtx, logger: logger}

	deltaTok := attrKey(p.Attrs[0])
	if len(deltaTok) > 0 && deltaTok[0] == '-' {
		n.negative = true
	}
	attr, err := parseNumericAttr(stripSign(deltaTok), vars)
	if err != nil {
		return nil, &KeywordError{Keyword: "jump", Attr: "delta", Msg: err.Error()}
	}
	n.delta = attr

	switch attrKey(p.Attrs[1]) {
	case "from_beginning":
		n.from = JumpFromBeginning
	case "from_end":
		n.from = JumpFromEnd
	case "relative":
		n.from = JumpRelative
	default:
		return nil, &KeywordError{Keyword: "jump", Attr: "jumping_from", Msg: "must be from_beginning, from_end, or relative"}
	}

	for _, a := range p.Attrs[2:] {
		switch a.Name {
		case "align":
			v, err := strconv.Atoi(a.Value)
			if err != nil || (v != 2 && v != 4) {
				return nil, &KeywordError{Keyword: "jump", Attr: "align", Msg: "must be 2 or 4"}
			}
			n.align = v
		case "part":
			if err := n.ctx.setAttr(a.Value); err != nil {
				return nil, &KeywordError{Keyword: "jump", Attr: "part", Msg: err.Error()}
			}
		default:
			return nil, &KeywordError{Keyword: "jump", Attr: a.Name, Msg: "unknown attribute"}
		}
	}

	return n, nil
}

func stripSign(s string) string {
	if len(s) > 0 && s[0] == '-' {
		return s[1:]
	}
	return s
}

// addOffset clamps a negative underflow to 0 with a warning log, a direct
// port of jumpKeyword::addOffset.
func (n *JumpNode) addOffset(base, delta int) int {
	r := base + delta
	if r < 0 {
		if n.logger != nil {
			n.logger.Warn("jump: computed offset underflowed below 0, clamping", "base", base, "delta", delta)
		}
		return 0
	}
	return r
}

// getStartOffset dispatches on jumping_from, a direct port of
// jumpKeyword::getStartOffset.
func (n *JumpNode) getStartOffset(bufLen int, ctx kw.Ctx, state RuntimeState, delta int) int {
	switch n.from {
	case JumpFromBeginning:
		return n.addOffset(0, delta)
	case JumpFromEnd:
		return n.addOffset(bufLen, delta)
	default: // JumpRelative
		return n.addOffset(int(state.GetOffset(ctx)), delta)
	}
}

// IsMatch computes the target offset and, if it stays within the buffer,
// chains to the successor with the new offset bound; otherwise fails, a
// direct port of jumpKeyword::isMatch.
func (n *JumpNode) IsMatch(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus {
	ctx := n.ctx.get(n.ambient)
	buf, ok := env.GetBuffer(ctx)
	if !ok {
		return kw.NoMatch
	}

	deltaVal := int(n.delta.evalAttr(state))
	if n.negative {
		deltaVal = -deltaVal
	}

	target := n.getStartOffset(len(buf), ctx, state, deltaVal)
	if n.align != 0 {
		if r := target % n.align; r != 0 {
			target += n.align - r
		}
	}

	if target > len(buf) {
		if n.delta.isConstant() {
			return kw.NoMatchFinal
		}
		return kw.NoMatch
	}

	return n.runNext(env, tbl, newOffsetState(state, ctx, uint(target)))
}
