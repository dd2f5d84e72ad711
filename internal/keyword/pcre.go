package keyword

import (
	"fmt"
	"regexp"
	"strings"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// PCRENode implements the `pcre` keyword. No PCRE2 binding exists anywhere
// in the example pack this repository was grounded on, so this is backed by
// Go's standard regexp package (RE2 semantics) instead — documented in
// DESIGN.md as a justified standard-library use. Expressions that require
// backreferences or lookaround, which RE2 cannot express, are rejected at
// compile time rather than silently miscompiled.
type PCRENode struct {
	base

	re       *regexp.Regexp
	relative bool
	ctx      CtxAttr
	ambient  kw.Ctx
	offset   NumericAttr
	depth    NumericAttr
	hasOffset, hasDepth bool
}

// pcreFlagToRE2 maps pcre_keyword.cc's i/m/s flags onto Go regexp inline
// flags. Every other flag (x, A, E, G, R, ...) has no entry and is rejected.
var pcreFlagToRE2 = map[byte]byte{
	'i': 'i',
	'm': 'm',
	's': 's',
}

// parsePCRELiteral splits "/regex/flags" into its pattern and flag string.
func parsePCRELiteral(lit string) (pattern, flags string, err error) {
	lit = strings.TrimSpace(lit)
	if len(lit) < 2 || lit[0] != '/' {
		return "", "", fmt.Errorf("pcre pattern must be /regex/flags, got %q", lit)
	}
	end := strings.LastIndexByte(lit, '/')
	if end <= 0 {
		return "", "", fmt.Errorf("pcre pattern missing closing slash: %q", lit)
	}
	return lit[1:end], lit[end+1:], nil
}

// NewPCRENode compiles a `pcre` keyword clause.
func NewPCRENode(p KeywordParsed, vars *kw.VariablesMapping, ambientCtx kw.Ctx) (*PCRENode, error) {
	n := &PCRENode{ambient: ambientCtx}

	var literal string
	var nocase bool
	for _, a := range p.Attrs {
		switch {
		case a.Name == "" && strings.HasPrefix(a.Value, "/"):
			literal = a.Value
		case a.Name == "relative":
			n.relative = true
		case a.Name == "nocase":
			nocase = true
		case a.Name == "offset":
			attr, err := parseNumericAttr(a.Value, vars)
			if err != nil {
				return nil, &KeywordError{Keyword: "pcre", Attr: "offset", Msg: err.Error()}
			}
			n.offset, n.hasOffset = attr, true
		case a.Name == "depth":
			attr, err := parseNumericAttr(a.Value, vars)
			if err != nil {
				return nil, &KeywordError{Keyword: "pcre", Attr: "depth", Msg: err.Error()}
			}
			n.depth, n.hasDepth = attr, true
		case a.Name == "part":
			if err := n.ctx.setAttr(a.Value); err != nil {
				return nil, &KeywordError{Keyword: "pcre", Attr: "part", Msg: err.Error()}
			}
		default:
			return nil, &KeywordError{Keyword: "pcre", Attr: a.Name, Msg: "unknown attribute"}
		}
	}

	if literal == "" {
		return nil, &KeywordError{Keyword: "pcre", Msg: "missing /regex/flags literal"}
	}
	pattern, flags, err := parsePCRELiteral(literal)
	if err != nil {
		return nil, &KeywordError{Keyword: "pcre", Msg: err.Error()}
	}

	var re2Flags strings.Builder
	for i := 0; i < len(flags); i++ {
		f := flags[i]
		switch f {
		case 'A', 'E', 'G', 'R':
			return nil, &KeywordError{Keyword: "pcre", Attr: "flags",
				Msg: fmt.Sprintf("flag %q has no RE2-compatible equivalent; rewrite the pattern without it", string(f))}
		case 'x':
			return nil, &KeywordError{Keyword: "pcre", Attr: "flags",
				Msg: "extended (free-spacing) mode is not supported by RE2; pre-strip whitespace/comments from the pattern"}
		default:
			if mapped, ok := pcreFlagToRE2[f]; ok {
				re2Flags.WriteByte(mapped)
			} else {
				return nil, &KeywordError{Keyword: "pcre", Attr: "flags", Msg: fmt.Sprintf("unknown flag %q", string(f))}
			}
		}
	}
	if nocase && !strings.Contains(re2Flags.String(), "i") {
		re2Flags.WriteByte('i')
	}

	full := pattern
	if re2Flags.Len() > 0 {
		full = "(?" + re2Flags.String() + ")" + pattern
	}

	re, err := regexp.Compile(full)
	if err != nil {
		return nil, &KeywordError{Keyword: "pcre", Msg: fmt.Sprintf("RE2 does not accept this pattern (likely backreferences or lookaround): %v", err)}
	}

	n.re = re
	return n, nil
}

// IsMatch runs the compiled regex against the active window of the named
// context buffer.
func (n *PCRENode) IsMatch(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus {
	ctx := n.ctx.get(n.ambient)
	buf, ok := env.GetBuffer(ctx)
	if !ok {
		return kw.NoMatch
	}

	start := 0
	if n.relative {
		start = int(state.GetOffset(ctx))
	}
	if n.hasOffset {
		start += int(n.offset.evalAttr(state))
	}
	if start < 0 {
		start = 0
	}
	if start > len(buf) {
		start = len(buf)
	}
	end := len(buf)
	if n.hasDepth {
		if d := start + int(n.depth.evalAttr(state)); d < end {
			end = d
		}
	}

	loc := n.re.FindIndex([]byte(buf[start:end]))
	if loc == nil {
		if n.isConstantWindow() {
			return kw.NoMatchFinal
		}
		return kw.NoMatch
	}

	matchEnd := start + loc[1]
	return n.runNext(env, tbl, newOffsetState(state, ctx, uint(matchEnd)))
}

func (n *PCRENode) isConstantWindow() bool {
	if n.hasOffset && !n.offset.isConstant() {
		return false
	}
	if n.hasDepth && !n.depth.isConstant() {
		return false
	}
	return true
}
