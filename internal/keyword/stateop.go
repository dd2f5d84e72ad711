package keyword

import (
	"strings"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// StateOperation selects what the `stateop` keyword does to the named
// per-connection flag. A direct port of stateop_keyword.cc's Operation
// flags.
type StateOperation int

const (
	StateOpIsSet StateOperation = iota
	StateOpSet
	StateOpUnset
)

// StateopNode implements the `stateop` keyword: reads or writes a named
// flag in the per-connection opaque state table threaded in via
// kw.StateTable. A direct port of components/utils/keywords/stateop_keyword.cc.
type StateopNode struct {
	base

	name string
	op   StateOperation
}

// NewStateopNode compiles a `stateop:state <name>,<isset|set|unset>` clause.
func NewStateopNode(p KeywordParsed) (*StateopNode, error) {
	n := &StateopNode{}

	nameSet := false
	opSet := false
	for _, a := range p.Attrs {
		switch {
		case a.Name == "state":
			n.name = strings.TrimSpace(a.Value)
			nameSet = true
		case a.Name == "isset":
			if opSet {
				return nil, &KeywordError{Keyword: "stateop", Msg: "exactly one of isset/set/unset is required"}
			}
			n.op, opSet = StateOpIsSet, true
		case a.Name == "set":
			if opSet {
				return nil, &KeywordError{Keyword: "stateop", Msg: "exactly one of isset/set/unset is required"}
			}
			n.op, opSet = StateOpSet, true
		case a.Name == "unset":
			if opSet {
				return nil, &KeywordError{Keyword: "stateop", Msg: "exactly one of isset/set/unset is required"}
			}
			n.op, opSet = StateOpUnset, true
		default:
			return nil, &KeywordError{Keyword: "stateop", Attr: a.Name, Msg: "unknown attribute"}
		}
	}

	if !nameSet || n.name == "" {
		return nil, &KeywordError{Keyword: "stateop", Attr: "state", Msg: "missing state variable name"}
	}
	if !opSet {
		return nil, &KeywordError{Keyword: "stateop", Msg: "exactly one of isset/set/unset is required"}
	}

	return n, nil
}

// IsMatch dispatches on the configured operation against tbl. set/unset
// always succeed (after mutating the table); isset fails terminally if the
// flag is absent, matching the original's lazily-created-table semantics.
func (n *StateopNode) IsMatch(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus {
	switch n.op {
	case StateOpSet:
		tbl.AddVariable(n.name)
		return n.runNext(env, tbl, state)
	case StateOpUnset:
		tbl.RemoveVariable(n.name)
		return n.runNext(env, tbl, state)
	case StateOpIsSet:
		if tbl.HasVariable(n.name) {
			return n.runNext(env, tbl, state)
		}
		return kw.NoMatchFinal
	default:
		return kw.NoMatch
	}
}
