package keyword

import kw "github.com/openappsec-go/agentcore/internal/domain/keyword"

// NoMatchNode implements the `no_match` keyword: it takes no attributes and
// always fails terminally. A direct port of
// components/utils/keywords/no_match_keyword.cc.
type NoMatchNode struct {
	base
}

// NewNoMatchNode compiles a `no_match` clause, rejecting any attributes.
func NewNoMatchNode(p KeywordParsed) (*NoMatchNode, error) {
	if len(p.Attrs) != 0 {
		return nil, &KeywordError{Keyword: "no_match", Msg: "takes no attributes"}
	}
	return &NoMatchNode{}, nil
}

// IsMatch always returns NoMatchFinal.
func (n *NoMatchNode) IsMatch(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus {
	return kw.NoMatchFinal
}
