// Package v1beta1 holds the openappsec.io/v1beta1 policy input schema: the
// user-authored high-level objects the compiler resolves named references
// across (spec.md §3 "Policy domain", §6 "Kubernetes"). v1beta2 in the
// sibling package carries the same shape plus the fields added in the
// newer schema; kept as a distinct package (not a type alias) because a
// real cluster can run ingresses annotated against either version at once
// and the compiler must not conflate their type identities.
package v1beta1

// AppsecPolicy is the top-level policy object: a default rule applied to
// every host/path not covered by a more specific entry, plus any number of
// specific rules.
type AppsecPolicy struct {
	APIVersion  string       `json:"apiVersion" yaml:"apiVersion"`
	Kind        string       `json:"kind" yaml:"kind"`
	Default     ParsedRule   `json:"default" yaml:"default"`
	Specific    []ParsedRule `json:"specificRules" yaml:"specificRules"`
}

// ParsedRule is one policy rule: a host pattern (optionally "host/uri" or
// the wildcard "*"), an enforcement mode, and named references resolved by
// the compiler against the other CRD kinds or the local policy file.
type ParsedRule struct {
	Host               string `json:"host" yaml:"host"`
	Mode               string `json:"mode" yaml:"mode"`
	Practice           string `json:"practice" yaml:"practice"`
	Trigger            string `json:"triggers" yaml:"triggers"`
	Exception          string `json:"exceptions" yaml:"exceptions"`
	CustomResponse     string `json:"customResponse" yaml:"customResponse"`
	SourceIdentifier   string `json:"sourceIdentifiers" yaml:"sourceIdentifiers"`
	TrustedSources     string `json:"trustedSources" yaml:"trustedSources"`
}

// AppSecPracticeSpec bundles the detection settings a rule's Practice
// reference resolves to.
type AppSecPracticeSpec struct {
	Name           string         `json:"name" yaml:"name"`
	WebAttacks     WebAttacksSpec `json:"webAttacks" yaml:"web-attacks"`
	AntiBot        AntiBotSpec    `json:"antiBot" yaml:"anti-bot"`
	SnortSignatures SnortSpec     `json:"snortSignatures" yaml:"snort-signatures"`
}

// WebAttacksSpec is the web-attack detection mode bundle.
type WebAttacksSpec struct {
	Mode               string `json:"mode" yaml:"mode"`
	MinimumConfidence  string `json:"minimumConfidence" yaml:"minimum-confidence"`
}

// AntiBotSpec is the anti-bot injected/validated-URL bundle.
type AntiBotSpec struct {
	InjectedURLs  []string `json:"injectedUris" yaml:"injected-uris"`
	ValidatedURLs []string `json:"validatedUris" yaml:"validated-uris"`
}

// SnortSpec names an external snort signature file/override reference.
type SnortSpec struct {
	Overrides []string `json:"configmap" yaml:"configmap"`
}

// AppsecTriggerSpec is the logging-destination and verbosity bundle a
// rule's Trigger reference resolves to (spec §4.2 "Trigger assembly").
type AppsecTriggerSpec struct {
	Name              string            `json:"name" yaml:"name"`
	AccessControlLog  AccessControlSpec `json:"accessControlLogging" yaml:"access-control-logging"`
	AppsecLog         AppsecLogSpec     `json:"appsecLogging" yaml:"appsec-logging"`
	LogDestination    LogDestinationSpec `json:"logDestination" yaml:"log-destination"`
}

// AccessControlSpec controls allow/drop logging, unused by the core WAAP
// path but carried through for parity with the upstream schema.
type AccessControlSpec struct {
	AllowEvents bool `json:"allowEvents" yaml:"allow-events"`
	DropEvents  bool `json:"dropEvents" yaml:"drop-events"`
}

// AppsecLogSpec controls which request facets get logged and at what
// severity additional-suspicious events are extended.
type AppsecLogSpec struct {
	DetectEvents         bool               `json:"detectEvents" yaml:"detect-events"`
	PreventEvents        bool               `json:"preventEvents" yaml:"prevent-events"`
	AllWebRequests       bool               `json:"allWebRequests" yaml:"all-web-requests"`
	ExtendLogging        AdditionalSuspSpec `json:"extendLogging" yaml:"additional-suspicious-events-logging"`
}

// AdditionalSuspSpec is the additional-suspicious-events sub-bundle.
type AdditionalSuspSpec struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	MinSeverity string `json:"minimumSeverity" yaml:"minimum-severity"`
}

// LogDestinationSpec names where logs are shipped.
type LogDestinationSpec struct {
	Stdout  StdoutLogSpec  `json:"stdout" yaml:"stdout"`
	CEF     AddressSpec    `json:"cef" yaml:"cef"`
	Syslog  AddressSpec    `json:"syslog" yaml:"syslog"`
	Cloud   bool           `json:"cloud" yaml:"cloud"`
}

// StdoutLogSpec is the stdout log-destination sub-bundle.
type StdoutLogSpec struct {
	Format string `json:"format" yaml:"format"`
}

// AddressSpec is a generic address:port log-destination sub-bundle.
type AddressSpec struct {
	Address string `json:"address" yaml:"address"`
	Port    int    `json:"port" yaml:"port"`
}

// AppsecExceptionSpec is a named match/action override a rule can
// reference, applied ahead of a practice's normal verdict.
type AppsecExceptionSpec struct {
	Name   string `json:"name" yaml:"name"`
	Match  string `json:"match" yaml:"match"`
	Action string `json:"action" yaml:"action"`
}

// AppSecCustomResponseSpec is a named custom block-page response a rule can
// reference.
type AppSecCustomResponseSpec struct {
	Name          string `json:"name" yaml:"name"`
	Mode          string `json:"mode" yaml:"mode"`
	HTTPCode      int    `json:"httpResponseCode" yaml:"http-response-code"`
	MessageBody   string `json:"messageBody" yaml:"message-body"`
	MessageTitle  string `json:"messageTitle" yaml:"message-title"`
}

// TrustedSourcesSpec names the source identifiers and minimum-count
// threshold a trusted-sources reference resolves to.
type TrustedSourcesSpec struct {
	Name               string   `json:"name" yaml:"name"`
	MinNumOfSources    int      `json:"minNumOfSources" yaml:"minimum-number-of-sources"`
	SourcesIdentifiers []string `json:"sourcesIdentifiers" yaml:"sources-identifiers"`
}

// SourceIdentifierSpec names the HTTP facet (header, cookie, JWT claim)
// used to group clients for the trusted-sources cross product.
type SourceIdentifierSpec struct {
	Name              string   `json:"name" yaml:"name"`
	SourceIdentifier  string   `json:"identifier" yaml:"identifier"`
	Values            []string `json:"values" yaml:"values"`
}
