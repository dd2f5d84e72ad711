package policy

import "context"

// Matcher resolves the single most specific Rule that applies to a given
// request context string, or ok=false when the compiled rulebase has no
// asset wide enough to cover it. Implementations hold an already-sorted
// Rulebase and only need to do a linear first-match scan at request time.
type Matcher interface {
	Match(ctx context.Context, host string, port int, uri string) (Rule, bool)
}

// Compiler builds a Rulebase from a version-specific policy source (a
// Kubernetes cluster snapshot or a local policy file tree).
type Compiler interface {
	Compile(ctx context.Context) (Rulebase, error)
}

// Store persists the most recently compiled Rulebase to disk so the agent
// can start from the last-known-good policy if the source is unreachable.
type Store interface {
	Load(ctx context.Context) (Rulebase, error)
	Save(ctx context.Context, rb Rulebase) error
}
