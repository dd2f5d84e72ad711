package keyword

import (
	"strconv"
	"strings"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// ExtractBase is the numeric base used to parse a string-mode byte_extract
// value. A direct port of ByteExtractKeyword's BaseId enum.
type ExtractBase int

const (
	ExtractBin ExtractBase = 0
	ExtractHex ExtractBase = 16
	ExtractDec ExtractBase = 10
	ExtractOct ExtractBase = 8
)

// ByteExtractNode implements the `byte_extract` keyword: reads N bytes at
// the current offset, converts to an integer, binds it to a variable, and
// advances the offset by N. A direct port of byte_extract_keyword.cc.
type ByteExtractNode struct {
	base

	n       int
	varName string
	varID   uint

	offset   NumericAttr
	hasOffset bool
	relative bool
	little   bool
	stringBase ExtractBase
	isString bool
	align    int // 0 = none, else 2 or 4
	ctx      CtxAttr
	ambient  kw.Ctx
}

// NewByteExtractNode compiles a `byte_extract` keyword clause. Its first
// two positional attributes are the byte count and the variable name.
func NewByteExtractNode(p KeywordParsed, vars *kw.VariablesMapping, ambientCtx kw.Ctx) (*ByteExtractNode, error) {
	if len(p.Attrs) < 2 {
		return nil, &KeywordError{Keyword: "byte_extract", Msg: "requires at least <N>,<var>"}
	}

	n := &ByteExtractNode{ambient: ambientCtx}

	countTok := attrKey(p.Attrs[0])
	count, err := strconv.Atoi(countTok)
	if err != nil || count <= 0 {
		return nil, &KeywordError{Keyword: "byte_extract", Attr: "N", Msg: "byte count must be a positive integer"}
	}
	n.n = count

	varTok := attrKey(p.Attrs[1])
	if varTok == "" {
		return nil, &KeywordError{Keyword: "byte_extract", Attr: "var", Msg: "missing variable name"}
	}
	n.varName = varTok
	n.varID = vars.AddNewVariable(varTok)

	alignSet := false
	stringSet := false
	for _, a := range p.Attrs[2:] {
		switch a.Name {
		case "offset":
			attr, err := parseNumericAttr(a.Value, vars)
			if err != nil {
				return nil, &KeywordError{Keyword: "byte_extract", Attr: "offset", Msg: err.Error()}
			}
			n.offset, n.hasOffset = attr, true
		case "relative":
			n.relative = true
		case "little_endian":
			n.little = true
		case "string":
			stringSet = true
			n.isString = true
			switch strings.ToLower(a.Value) {
			case "hex":
				n.stringBase = ExtractHex
			case "dec":
				n.stringBase = ExtractDec
			case "oct":
				n.stringBase = ExtractOct
			default:
				return nil, &KeywordError{Keyword: "byte_extract", Attr: "string", Msg: "must be hex, dec, or oct"}
			}
		case "align":
			if alignSet {
				return nil, &KeywordError{Keyword: "byte_extract", Attr: "align", Msg: "defined more than once"}
			}
			alignSet = true
			v, err := strconv.Atoi(a.Value)
			if err != nil || (v != 2 && v != 4) {
				return nil, &KeywordError{Keyword: "byte_extract", Attr: "align", Msg: "must be 2 or 4"}
			}
			n.align = v
		case "part":
			if err := n.ctx.setAttr(a.Value); err != nil {
				return nil, &KeywordError{Keyword: "byte_extract", Attr: "part", Msg: err.Error()}
			}
		default:
			return nil, &KeywordError{Keyword: "byte_extract", Attr: a.Name, Msg: "unknown attribute"}
		}
	}

	if !stringSet {
		if n.n != 1 && n.n != 2 && n.n != 4 {
			return nil, &KeywordError{Keyword: "byte_extract", Attr: "N", Msg: "binary mode requires N to be 1, 2, or 4"}
		}
		if alignSet {
			return nil, &KeywordError{Keyword: "byte_extract", Attr: "align", Msg: "forbidden in binary mode"}
		}
		if n.little && n.n == 1 {
			return nil, &KeywordError{Keyword: "byte_extract", Attr: "little_endian", Msg: "requires N>1"}
		}
	}

	return n, nil
}

// attrKey renders a positional (unlabeled) KeywordAttr back to its token
// text, for the leading N,var positional arguments that have no "name".
func attrKey(a KeywordAttr) string {
	if a.Name != "" && a.Value == "" {
		return a.Name
	}
	return a.Value
}

// getStartOffsetAndLength resolves the byte window to read, a direct port
// of ByteExtractKeyword::getStartOffsetAndLength.
func (n *ByteExtractNode) getStartOffsetAndLength(ctx kw.Ctx, state RuntimeState) int {
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
	return start
}

// readValue decodes a binary big/little-endian accumulation over buf[start:start+n],
// a direct port of ByteExtractKeyword::readValue.
func (n *ByteExtractNode) readValue(buf kw.Buffer, start int) (uint, bool) {
	if start+n.n > len(buf) {
		return 0, false
	}
	var v uint
	if n.little {
		for i := n.n - 1; i >= 0; i-- {
			v = (v << 8) | uint(buf[start+i])
		}
	} else {
		for i := 0; i < n.n; i++ {
			v = (v << 8) | uint(buf[start+i])
		}
	}
	return v, true
}

// readStringValue parses an ASCII hex/dec/oct run, a direct port of
// ByteExtractKeyword::readStringValue. A partial parse or a value exceeding
// the int32 range is rejected.
func (n *ByteExtractNode) readStringValue(buf kw.Buffer, start int) (uint, bool) {
	if start+n.n > len(buf) {
		return 0, false
	}
	text := strings.TrimSpace(string(buf[start : start+n.n]))
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(text, int(n.stringBase), 64)
	if err != nil {
		return 0, false
	}
	if v > uint64(^uint32(0)>>1) {
		return 0, false
	}
	return uint(v), true
}

// applyAlignment rounds offset up to the next multiple of align (if set), a
// direct port of ByteExtractKeyword::applyAlignment.
func (n *ByteExtractNode) applyAlignment(offset int) int {
	if n.align == 0 {
		return offset
	}
	if r := offset % n.align; r != 0 {
		return offset + (n.align - r)
	}
	return offset
}

// IsMatch extracts the value, binds it to the variable, advances the
// offset, and chains to the successor. A direct port of
// ByteExtractKeyword::isMatch.
func (n *ByteExtractNode) IsMatch(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus {
	ctx := n.ctx.get(n.ambient)
	buf, ok := env.GetBuffer(ctx)
	if !ok {
		return kw.NoMatch
	}

	start := n.getStartOffsetAndLength(ctx, state)

	var (
		value uint
		good  bool
	)
	if n.isString {
		value, good = n.readStringValue(buf, start)
	} else {
		value, good = n.readValue(buf, start)
	}
	if !good {
		if !n.hasOffset || n.offset.isConstant() {
			return kw.NoMatchFinal
		}
		return kw.NoMatch
	}

	newOffset := n.applyAlignment(start + n.n)
	next := newVariableState(newOffsetState(state, ctx, uint(newOffset)), n.varID, value)
	return n.runNext(env, tbl, next)
}
