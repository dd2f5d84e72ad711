// Package canonical holds the policy compiler's output object graph: the
// schema-version-independent sections that are serialized verbatim into the
// local policy artifact (spec.md §3 "Policy domain", §6 "Files"). Names
// mirror the spec's canonical section names so the JSON produced here is
// byte-compatible with what a WAAP rule-matching consumer expects.
package canonical

// PracticeSection references one practice by id/name/type, attached to a
// RulesConfigRulebase entry.
type PracticeSection struct {
	ID   string `json:"practiceId"`
	Name string `json:"practiceName"`
	Type string `json:"practiceType"`
}

// ParametersSection references one named parameter (trusted-sources,
// source-identifier, etc.) attached to a rule.
type ParametersSection struct {
	ID   string `json:"parameterId"`
	Name string `json:"parameterName"`
	Type string `json:"parameterType"`
}

// RulesTriggerSection references one trigger by id/name/type.
type RulesTriggerSection struct {
	ID   string `json:"triggerId"`
	Name string `json:"triggerName"`
	Type string `json:"triggerType"`
}

// RulesConfigRulebase is one compiled rule: the asset-derived context
// predicate plus the practices/parameters/triggers that apply to it. The
// zero-value Priority and IsCleanup are the common case; the synthetic
// wildcard cleanup rule (spec §4.2 step 8) sets IsCleanup.
type RulesConfigRulebase struct {
	AssetID    string                `json:"assetId"`
	AssetName  string                `json:"assetName"`
	RuleID     string                `json:"ruleId"`
	RuleName   string                `json:"ruleName"`
	Context    string                `json:"context"`
	Priority   int                   `json:"priority"`
	IsCleanup  bool                  `json:"isCleanup"`
	Parameters []ParametersSection   `json:"parameters"`
	Practices  []PracticeSection     `json:"practices"`
	Triggers   []RulesTriggerSection `json:"triggers"`
	ZoneID     string                `json:"zoneId"`
	ZoneName   string                `json:"zoneName"`
}

// UsersIdentifier is one sourceIdentifier -> value-list entry.
type UsersIdentifier struct {
	SourceIdentifier string   `json:"sourceIdentifier"`
	IdentifierValues []string `json:"identifierValues"`
}

// UsersIdentifiersRulebase is the compiled trusted-sources/source-identifier
// cross product for one asset (spec §4.2 step 6).
type UsersIdentifiersRulebase struct {
	Context           string            `json:"context"`
	SourceIdentifier  string            `json:"sourceIdentifier"`
	IdentifierValues  []string          `json:"identifierValues"`
	SourceIdentifiers []UsersIdentifier `json:"sourceIdentifiers"`
}

// LogTriggerSection is a fully derived log-destination/verbosity bundle,
// assembled from AppsecTriggerSpec per spec §4.2 "Trigger assembly".
type LogTriggerSection struct {
	ID                       string `json:"-"`
	Context                  string `json:"context"`
	Name                     string `json:"triggerName"`
	Type                     string `json:"triggerType"`
	Verbosity                string `json:"verbosity"`
	ExtendLoggingMinSeverity string `json:"extendloggingMinSeverity"`
	ExtendLogging            bool   `json:"extendlogging"`
	LogToAgent               bool   `json:"logToAgent"`
	LogToCEF                 bool   `json:"logToCef"`
	LogToCloud               bool   `json:"logToCloud"`
	LogToSyslog              bool   `json:"logToSyslog"`
	BeautifyLogs             bool   `json:"formatLoggingOutput"`
	URLForCEF                string `json:"urlForCef"`
	URLForSyslog             string `json:"urlForSyslog"`
}

// WebUserResponseTriggerSection is a custom-response bundle referenced from
// a rule's web-user-response trigger.
type WebUserResponseTriggerSection struct {
	ID            string `json:"-"`
	Context       string `json:"context"`
	Name          string `json:"triggerName"`
	DetailsLevel  string `json:"details level"`
	ResponseBody  string `json:"response body"`
	ResponseCode  int    `json:"response code"`
	ResponseTitle string `json:"response title"`
}

// InnerException is one named exception's compiled match/action pair.
type InnerException struct {
	Name   string `json:"name"`
	Match  string `json:"match"`
	Action string `json:"action"`
}

// IpsProtectionsSection carries the snort-signature-derived protections for
// a practice, when present.
type IpsProtectionsSection struct {
	PracticeID        string `json:"practiceId"`
	PracticeName      string `json:"practiceName"`
	SignaturesVersion string `json:"signaturesVersion,omitempty"`
}

// FileSecurityProtectionsSection carries file-upload scanning settings for a
// practice, when present.
type FileSecurityProtectionsSection struct {
	PracticeID   string `json:"practiceId"`
	PracticeName string `json:"practiceName"`
}

// RateLimitSection carries a practice's rate-limit rules, when present.
type RateLimitSection struct {
	PracticeID   string `json:"practiceId"`
	PracticeName string `json:"practiceName"`
	Enabled      bool   `json:"enabled"`
}

// WebAppSection and WebAPISection are the per-asset compiled section: the
// resolved practice plus the attached log trigger, if any. They share a
// shape; the spec keeps them separate because upstream consumers group
// web-app and web-API assets into distinct top-level arrays.
type WebAppSection struct {
	AssetID     string   `json:"assetId"`
	AssetName   string   `json:"assetName"`
	PracticeID  string   `json:"practiceId"`
	TriggerID   string   `json:"triggerId,omitempty"`
	WebAttacks  bool     `json:"webAttacks"`
	Mode        string   `json:"mode"`
}

// WebAPISection mirrors WebAppSection for API-mode assets.
type WebAPISection struct {
	AssetID    string `json:"assetId"`
	AssetName  string `json:"assetName"`
	PracticeID string `json:"practiceId"`
	TriggerID  string `json:"triggerId,omitempty"`
	Mode       string `json:"mode"`
}

// AppSecTrustedSources is the compiled trusted-sources/min-sources bundle
// referenced by name from a rule.
type AppSecTrustedSources struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MinNumOfSources int      `json:"minNumOfSources"`
	SourcesIdents   []string `json:"sourcesIdentifiers"`
}

// SettingsRulebase is the settings wrapper written alongside the artifact
// (spec §4.2 "Artifact emission", §6 agent status fields).
type SettingsRulebase struct {
	AgentType   string `json:"agentType"`
	UpgradeMode string `json:"upgradeMode"`
	IsFogAgent  bool   `json:"isFogAgent"`
}

// RulesRulebase is the sorted top-level rule list plus the trusted-sources
// cross product, matching the original RulesRulebase's two top-level keys.
type RulesRulebase struct {
	RulesConfig      []RulesConfigRulebase      `json:"rulesConfig"`
	UsersIdentifiers []UsersIdentifiersRulebase `json:"usersIdentifiers"`
}

// PolicyWrapper is the top-level artifact the compiler serializes to the
// local policy path: every canonical section plus a policy-version string.
type PolicyWrapper struct {
	PolicyVersion       string                           `json:"policyVersion"`
	Rules               RulesRulebase                    `json:"rulebase"`
	WebApps             []WebAppSection                  `json:"webApplications,omitempty"`
	WebAPIs             []WebAPISection                  `json:"webAPIs,omitempty"`
	LogTriggers         []LogTriggerSection               `json:"logTriggers,omitempty"`
	WebUserResponses    []WebUserResponseTriggerSection   `json:"webUserResponses,omitempty"`
	Exceptions          []InnerException                 `json:"exceptions,omitempty"`
	IpsProtections      []IpsProtectionsSection          `json:"ipsProtections,omitempty"`
	FileSecurity        []FileSecurityProtectionsSection `json:"fileSecurityProtections,omitempty"`
	RateLimits          []RateLimitSection                `json:"rateLimits,omitempty"`
	TrustedSources      []AppSecTrustedSources            `json:"trustedSources,omitempty"`
}
