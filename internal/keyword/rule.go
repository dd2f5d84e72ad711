package keyword

import (
	"fmt"
	"log/slog"
	"strings"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// linker is implemented by every keyword node via its embedded base,
// letting genRule chain nodes without knowing their concrete type.
type linker interface {
	appendKeyword(Node)
}

// virtualRule is the compiled, evaluable pipeline returned by genRule. It
// implements kw.VirtualRule.
type virtualRule struct {
	head Node
	vars *kw.VariablesMapping
}

var _ kw.VirtualRule = (*virtualRule)(nil)

// IsMatch evaluates the rule from a fresh SentinelRuntimeState, a direct
// port of SentinelKeyword::isMatch's role as the chain's entry point.
func (r *virtualRule) IsMatch(env kw.Environment, tbl kw.StateTable) kw.MatchStatus {
	if r.head == nil {
		return kw.Match
	}
	return r.head.IsMatch(env, tbl, kw.SentinelRuntimeState{})
}

// GenRule compiles a semicolon-terminated sequence of keyword clauses into
// a VirtualRule. A direct port of KeywordsRuleImpl::genRule /
// KeywordComp::Impl::genRule: the rule text must end in ';', each clause is
// dispatched by keyword name to its constructor, and every keyword in the
// rule shares one VariablesMapping so that a variable bound by an earlier
// clause is visible to every later one.
func GenRule(ruleText string, ambientCtx kw.Ctx, logger *slog.Logger) (kw.VirtualRule, error) {
	ruleText = strings.TrimSpace(ruleText)
	if !strings.HasSuffix(ruleText, ";") {
		return nil, fmt.Errorf("keyword rule must end with ';': %q", ruleText)
	}
	ruleText = strings.TrimSuffix(ruleText, ";")

	vars := kw.NewVariablesMapping()

	var nodes []Node
	for _, clauseText := range split(ruleText, ';') {
		clauseText = strings.TrimSpace(clauseText)
		if clauseText == "" {
			continue
		}
		parsed, err := parseClause(clauseText)
		if err != nil {
			return nil, fmt.Errorf("parsing rule %q: %w", ruleText, err)
		}
		node, err := newNodeByName(parsed, vars, ambientCtx, logger)
		if err != nil {
			return nil, fmt.Errorf("compiling keyword %q: %w", parsed.Name, err)
		}
		nodes = append(nodes, node)
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("rule %q has no keyword clauses", ruleText)
	}

	for i := 0; i < len(nodes)-1; i++ {
		if l, ok := nodes[i].(linker); ok {
			l.appendKeyword(nodes[i+1])
		}
	}

	return &virtualRule{head: nodes[0], vars: vars}, nil
}

// newNodeByName dispatches a parsed clause to its constructor, a direct
// port of SingleKeyword's initializers map / getKeywordByName.
func newNodeByName(p KeywordParsed, vars *kw.VariablesMapping, ambientCtx kw.Ctx, logger *slog.Logger) (Node, error) {
	switch p.Name {
	case "data":
		return NewDataNode(p, vars, ambientCtx)
	case "pcre":
		return NewPCRENode(p, vars, ambientCtx)
	case "length":
		return NewLengthNode(p, vars, ambientCtx)
	case "byte_extract":
		return NewByteExtractNode(p, vars, ambientCtx)
	case "compare":
		return NewCompareNode(p, vars)
	case "jump":
		return NewJumpNode(p, vars, ambientCtx, logger)
	case "stateop":
		return NewStateopNode(p)
	case "no_match":
		return NewNoMatchNode(p)
	default:
		return nil, &KeywordError{Keyword: p.Name, Msg: "unknown keyword"}
	}
}
