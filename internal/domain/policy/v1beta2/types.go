// Package v1beta2 holds the openappsec.io/v1beta2 policy input schema: the
// same object graph as v1beta1 (see the sibling package's doc comment for
// why it is a distinct package rather than an alias) plus the fields added
// in the newer schema version — principally OpenAPI-schema-driven request
// validation on AppSecPracticeSpec.
package v1beta2

// AppsecPolicy is the v1beta2 top-level policy object.
type AppsecPolicy struct {
	APIVersion string       `json:"apiVersion" yaml:"apiVersion"`
	Kind       string       `json:"kind" yaml:"kind"`
	Default    ParsedRule   `json:"default" yaml:"default"`
	Specific   []ParsedRule `json:"specificRules" yaml:"specificRules"`
}

// ParsedRule is identical in shape to v1beta1.ParsedRule.
type ParsedRule struct {
	Host             string `json:"host" yaml:"host"`
	Mode             string `json:"mode" yaml:"mode"`
	Practice         string `json:"practice" yaml:"practice"`
	Trigger          string `json:"triggers" yaml:"triggers"`
	Exception        string `json:"exceptions" yaml:"exceptions"`
	CustomResponse   string `json:"customResponse" yaml:"customResponse"`
	SourceIdentifier string `json:"sourceIdentifiers" yaml:"sourceIdentifiers"`
	TrustedSources   string `json:"trustedSources" yaml:"trustedSources"`
}

// AppSecPracticeSpec adds OpenAPISchema over v1beta1's practice spec.
type AppSecPracticeSpec struct {
	Name            string         `json:"name" yaml:"name"`
	WebAttacks      WebAttacksSpec `json:"webAttacks" yaml:"web-attacks"`
	AntiBot         AntiBotSpec    `json:"antiBot" yaml:"anti-bot"`
	SnortSignatures SnortSpec      `json:"snortSignatures" yaml:"snort-signatures"`
	// OpenAPISchema, new in v1beta2, names a ConfigMap key holding an
	// OpenAPI document the practice validates request shape against.
	OpenAPISchema OpenAPISchemaSpec `json:"openApiSchema" yaml:"openapi-schema"`
}

// OpenAPISchemaSpec names the OpenAPI document source for schema
// validation, new in v1beta2.
type OpenAPISchemaSpec struct {
	ConfigMap string `json:"configmap" yaml:"configmap"`
	Key       string `json:"key" yaml:"key"`
}

// WebAttacksSpec mirrors v1beta1.
type WebAttacksSpec struct {
	Mode              string `json:"mode" yaml:"mode"`
	MinimumConfidence string `json:"minimumConfidence" yaml:"minimum-confidence"`
}

// AntiBotSpec mirrors v1beta1.
type AntiBotSpec struct {
	InjectedURLs  []string `json:"injectedUris" yaml:"injected-uris"`
	ValidatedURLs []string `json:"validatedUris" yaml:"validated-uris"`
}

// SnortSpec mirrors v1beta1.
type SnortSpec struct {
	Overrides []string `json:"configmap" yaml:"configmap"`
}

// AppsecTriggerSpec mirrors v1beta1.
type AppsecTriggerSpec struct {
	Name             string             `json:"name" yaml:"name"`
	AccessControlLog AccessControlSpec  `json:"accessControlLogging" yaml:"access-control-logging"`
	AppsecLog        AppsecLogSpec      `json:"appsecLogging" yaml:"appsec-logging"`
	LogDestination   LogDestinationSpec `json:"logDestination" yaml:"log-destination"`
}

// AccessControlSpec mirrors v1beta1.
type AccessControlSpec struct {
	AllowEvents bool `json:"allowEvents" yaml:"allow-events"`
	DropEvents  bool `json:"dropEvents" yaml:"drop-events"`
}

// AppsecLogSpec mirrors v1beta1.
type AppsecLogSpec struct {
	DetectEvents   bool               `json:"detectEvents" yaml:"detect-events"`
	PreventEvents  bool               `json:"preventEvents" yaml:"prevent-events"`
	AllWebRequests bool               `json:"allWebRequests" yaml:"all-web-requests"`
	ExtendLogging  AdditionalSuspSpec `json:"extendLogging" yaml:"additional-suspicious-events-logging"`
}

// AdditionalSuspSpec mirrors v1beta1.
type AdditionalSuspSpec struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	MinSeverity string `json:"minimumSeverity" yaml:"minimum-severity"`
}

// LogDestinationSpec mirrors v1beta1.
type LogDestinationSpec struct {
	Stdout StdoutLogSpec `json:"stdout" yaml:"stdout"`
	CEF    AddressSpec   `json:"cef" yaml:"cef"`
	Syslog AddressSpec   `json:"syslog" yaml:"syslog"`
	Cloud  bool          `json:"cloud" yaml:"cloud"`
}

// StdoutLogSpec mirrors v1beta1.
type StdoutLogSpec struct {
	Format string `json:"format" yaml:"format"`
}

// AddressSpec mirrors v1beta1.
type AddressSpec struct {
	Address string `json:"address" yaml:"address"`
	Port    int    `json:"port" yaml:"port"`
}

// AppsecExceptionSpec mirrors v1beta1.
type AppsecExceptionSpec struct {
	Name   string `json:"name" yaml:"name"`
	Match  string `json:"match" yaml:"match"`
	Action string `json:"action" yaml:"action"`
}

// AppSecCustomResponseSpec mirrors v1beta1.
type AppSecCustomResponseSpec struct {
	Name         string `json:"name" yaml:"name"`
	Mode         string `json:"mode" yaml:"mode"`
	HTTPCode     int    `json:"httpResponseCode" yaml:"http-response-code"`
	MessageBody  string `json:"messageBody" yaml:"message-body"`
	MessageTitle string `json:"messageTitle" yaml:"message-title"`
}

// TrustedSourcesSpec mirrors v1beta1.
type TrustedSourcesSpec struct {
	Name               string   `json:"name" yaml:"name"`
	MinNumOfSources    int      `json:"minNumOfSources" yaml:"minimum-number-of-sources"`
	SourcesIdentifiers []string `json:"sourcesIdentifiers" yaml:"sources-identifiers"`
}

// SourceIdentifierSpec mirrors v1beta1.
type SourceIdentifierSpec struct {
	Name             string   `json:"name" yaml:"name"`
	SourceIdentifier string   `json:"identifier" yaml:"identifier"`
	Values           []string `json:"values" yaml:"values"`
}
