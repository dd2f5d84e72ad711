// Package policy implements the policy compiler (spec.md §4.2): it ingests
// high-level policy objects from either schema version, resolves named
// references, and emits a canonical rulebase artifact. The compiler itself
// works against a schema-agnostic normalized view (this file) so
// compiler.go doesn't need two copies of the algorithm; v1beta1.go and
// v1beta2.go adapt each schema's concrete types into it.
package policy

// Rule is one schema-agnostic policy rule.
type Rule struct {
	Host                 string
	Mode                 string
	PracticeName         string
	TriggerName          string
	ExceptionName        string
	CustomResponseName   string
	SourceIdentifierName string
	TrustedSourcesName   string
}

// Practice is the schema-agnostic detection-settings bundle a rule's
// PracticeName resolves to.
type Practice struct {
	Name       string
	Mode       string // web-attacks mode: detect/prevent/inactive
	HasSnort   bool
	HasOpenAPI bool
}

// Trigger is the schema-agnostic logging-destination bundle a rule's
// TriggerName resolves to.
type Trigger struct {
	Name                     string
	ExtendLoggingEnabled     bool
	ExtendLoggingMinSeverity string
	StdoutFormat             string // "" when unset, "json-formatted" etc.
	CEFAddress               string
	CEFPort                  int
	SyslogAddress            string
	SyslogPort               int
	LogToCloud               bool
}

// Exception is the schema-agnostic named match/action override a rule's
// ExceptionName resolves to.
type Exception struct {
	Name   string
	Match  string
	Action string
}

// CustomResponse is the schema-agnostic named block-page bundle a rule's
// CustomResponseName resolves to.
type CustomResponse struct {
	Name         string
	Mode         string
	HTTPCode     int
	MessageBody  string
	MessageTitle string
}

// TrustedSources is the schema-agnostic named trusted-sources bundle a
// rule's TrustedSourcesName resolves to.
type TrustedSources struct {
	Name               string
	MinNumOfSources    int
	SourcesIdentifiers []string
}

// SourceIdentifier is the schema-agnostic named source-identifier bundle a
// rule's SourceIdentifierName resolves to.
type SourceIdentifier struct {
	Name             string
	SourceIdentifier string
	Values           []string
}

// PolicySource is one schema-agnostic policy object: a default rule applied
// to every host/path not otherwise covered, plus specific rules.
type PolicySource struct {
	Default  Rule
	Specific []Rule
}
