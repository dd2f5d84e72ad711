// Package policy contains the canonical, version-independent policy domain
// types produced by the policy compiler: the rulebase that the keyword
// engine and the messaging client consult at request time. Version-specific
// input schemas live in the v1beta1 and v1beta2 subpackages; this package
// is their common compiled target.
package policy

import "time"

// Mode controls whether a matched rule drops or only logs the request.
type Mode string

const (
	// ModeDetect logs a match without blocking the request.
	ModeDetect Mode = "detect"
	// ModePrevent drops the request and returns the configured response.
	ModePrevent Mode = "prevent"
	// ModeInactive disables the practice entirely; it compiles but never matches.
	ModeInactive Mode = "inactive"
)

// AssetSource distinguishes how an asset entered the compiled rulebase.
type AssetSource string

const (
	// AssetSourceKubernetesIngress was discovered from a networking.k8s.io Ingress.
	AssetSourceKubernetesIngress AssetSource = "k8s-ingress"
	// AssetSourceLinuxPolicy was declared directly in a local policy file.
	AssetSourceLinuxPolicy AssetSource = "local"
)

// Asset identifies one protected endpoint: a host, an optional listening
// port, and an optional URL prefix. The zero value for Host or URI means
// "any" and widens the match, per the wildcard rules honored when building
// Rule.Context.
type Asset struct {
	ID     string
	Name   string
	Host   string
	Port   int
	URI    string
	Source AssetSource
}

// Trigger names the log sink configuration a rule reports matches to.
type Trigger struct {
	ID            string
	Name          string
	Verbosity     string
	LogToAgent    bool
	LogToCEF      bool
	LogToSyslog   bool
	LogToCloud    bool
	SyslogAddress string
	CEFAddress    string
}

// WebResponse is what the agent returns to the client when a rule in
// ModePrevent matches.
type WebResponse struct {
	HTTPStatusCode int
	Mode           string // "block-page", "redirect", "response-code-only"
	Title          string
	Body           string
	RedirectURL    string
}

// CompiledRule is one parsed keyword rule plus its originating source text,
// kept for diagnostics and for the policy-test dry-run feature.
type CompiledRule struct {
	ID     string
	Source string
}

// Practice bundles the rule sets a Rule enforces: a list of compiled
// keyword rules to evaluate plus the action to take on a match.
type Practice struct {
	ID    string
	Name  string
	Mode  Mode
	Rules []CompiledRule
}

// Rule is one entry of the compiled rulebase: an asset-derived context
// predicate string, the practices/triggers/response that apply to it, and
// the priority copied from the compiled rule config. Rule order comes from
// the compiler's specificity sort; Priority takes no part in it.
type Rule struct {
	AssetID     string
	AssetName   string
	RuleID      string
	RuleName    string
	Context     string // e.g. Any(All(Any(EqualHost(example.com)),EqualListeningPort(443)))
	Priority    int
	IsCleanup   bool
	Practices   []Practice
	Triggers    []Trigger
	WebResponse WebResponse
	ZoneID      string
	ZoneName    string
}

// Rulebase is the full compiled output of the policy compiler: every rule,
// already sorted most-specific-first by the compiler so the first Context
// match at request time is authoritative.
type Rulebase struct {
	Rules       []Rule
	GeneratedAt time.Time
	Source      string // the policy mode it was compiled in: "linux" or "kubernetes"
}
