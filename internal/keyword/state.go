package keyword

import kw "github.com/openappsec-go/agentcore/internal/domain/keyword"

// RuntimeState, SentinelRuntimeState, OffsetRuntimeState, and
// VariableRuntimeState are re-exported from the domain package so that
// keyword node implementations in this package can chain state without an
// import-path detour at every call site. These are direct ports of
// single_keyword.h/.cc's linked runtime-state chain.
type (
	RuntimeState         = kw.RuntimeState
	SentinelRuntimeState = kw.SentinelRuntimeState
	OffsetRuntimeState   = kw.OffsetRuntimeState
	VariableRuntimeState = kw.VariableRuntimeState
)

var (
	newOffsetState   = kw.NewOffsetRuntimeState
	newVariableState = kw.NewVariableRuntimeState
)

// Node is one compiled keyword in a rule's singly-linked pipeline.
// Evaluation is recursive: a node computes its own match, then (on
// success) calls its successor with the updated state, mirroring
// SingleKeyword::runNext in the original.
type Node interface {
	// IsMatch evaluates this node (and, on success, its successors)
	// against env using state, returning the chain's overall verdict.
	IsMatch(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus
}

// base holds the shared "next node" link every keyword embeds, matching
// SingleKeyword::next_keyword / appendKeyword / runNext.
type base struct {
	next Node
}

// appendKeyword sets the successor node, matching SingleKeyword::appendKeyword.
func (b *base) appendKeyword(n Node) { b.next = n }

// runNext evaluates the successor if present, or reports Match if this was
// the last keyword in the rule (an empty continuation always succeeds).
func (b *base) runNext(env kw.Environment, tbl kw.StateTable, state RuntimeState) kw.MatchStatus {
	if b.next == nil {
		return kw.Match
	}
	return b.next.IsMatch(env, tbl, state)
}
