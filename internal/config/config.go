// Package config provides configuration types for the agent core.
//
// The schema covers only what drives the three core subsystems described in
// the specification: the fog messaging client, the policy compiler, and the
// keyword rule engine's cooperative-scheduling yield granularity. Everything
// else (TLS certificate acquisition, NGINX rewriting, the CLI's own flags,
// log shippers) is an external collaborator and is deliberately absent here.
package config

import (
	"os"

	"github.com/spf13/viper"
)

// AgentConfig is the top-level configuration for the agent core.
type AgentConfig struct {
	// Fog configures the messaging client's connection to the management fog.
	Fog FogConfig `yaml:"fog" mapstructure:"fog"`

	// Buffer configures the messaging client's persistent outbound queue.
	Buffer BufferConfig `yaml:"buffer" mapstructure:"buffer"`

	// Policy configures the policy compiler's inputs and output artifact.
	Policy PolicyConfig `yaml:"policy" mapstructure:"policy"`

	// Keyword configures the keyword rule engine's runtime behavior.
	Keyword KeywordConfig `yaml:"keyword" mapstructure:"keyword"`

	// Server configures the local REST listener used for diagnostic actions
	// like "show check-fog-connection".
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// DevMode points an unset fog host/port at a local stub fog
	// (127.0.0.1:8443, see SetDevDefaults). It changes no other setting.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// FogConfig configures the persistent connection to the remote management
// fog (spec.md §4.1, §6 "Wire protocol").
type FogConfig struct {
	// Host is the fog's hostname or IP. Required unless AgentConfig.DevMode
	// is set, in which case SetDevDefaults supplies a local stub address;
	// enforced in AgentConfig.Validate rather than via a struct tag since
	// the requirement depends on a sibling field.
	Host string `yaml:"host" mapstructure:"host"`
	// Port is the fog's listening port. Defaults to 443.
	Port uint16 `yaml:"port" mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	// Secure requests TLS. Defaults to true.
	Secure bool `yaml:"secure" mapstructure:"secure"`
	// SkipValidation is loaded from config but not read by the messaging
	// client: fog requests validate the peer certificate regardless.
	SkipValidation bool `yaml:"skip_validation" mapstructure:"skip_validation"`
	// IgnoreSSLName is loaded from config but not read by the messaging
	// client: fog requests verify the hostname regardless.
	IgnoreSSLName bool `yaml:"ignore_ssl_name" mapstructure:"ignore_ssl_name"`
	// ExternalCACertPath is loaded from config but nothing reads the file
	// it names; fog requests use the system trust set only. (A request's
	// Metadata.ExternalCertificate PEM is trusted by the messaging client.)
	ExternalCACertPath string `yaml:"external_ca_cert_path" mapstructure:"external_ca_cert_path"`
	// CacheTTL is the GET-response cache TTL (e.g. "40s"). Spec §4.1 "Caching".
	CacheTTL string `yaml:"cache_ttl" mapstructure:"cache_ttl" validate:"omitempty"`
	// SuspendThreshold defaults to 5 but is not read by the messaging
	// client, which suspends a connection after its own fixed
	// SuspendThreshold constant (also 5) of consecutive failures.
	SuspendThreshold int `yaml:"suspend_threshold" mapstructure:"suspend_threshold" validate:"omitempty,min=1"`
	// Proxy configures a forward HTTP/HTTPS proxy used for all fog traffic
	// unless a per-request MessageMetadata overrides it.
	Proxy *ProxyConfig `yaml:"proxy" mapstructure:"proxy"`
	// TenantID is recorded in the orchestration status file. It is not
	// copied into request metadata, so fog requests carry no X-Tenant-Id
	// header from it.
	TenantID string `yaml:"tenant_id" mapstructure:"tenant_id"`
}

// ProxyConfig configures an HTTP/HTTPS forward proxy the messaging client
// tunnels requests through (spec.md §4.1 "Proxy and TLS").
type ProxyConfig struct {
	Host string `yaml:"host" mapstructure:"host" validate:"required"`
	Port uint16 `yaml:"port" mapstructure:"port" validate:"required"`
	Auth string `yaml:"auth" mapstructure:"auth"`
}

// BufferConfig configures the messaging client's persistent outbound
// message queue (spec.md §4.1 "Buffer persistence").
type BufferConfig struct {
	// Store selects the backing implementation: "file" (JSONL, file-order
	// replay) or "sqlite" (timestamp-order replay via enqueued_at).
	Store string `yaml:"store" mapstructure:"store" validate:"omitempty,oneof=file sqlite"`
	// FilePath is the JSONL buffer file path, used when Store is "file".
	FilePath string `yaml:"file_path" mapstructure:"file_path"`
	// SQLitePath is the sqlite database path, used when Store is "sqlite".
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	// MaxBytes is a size limit for the buffer (default 64 MiB). Neither
	// buffer store reads it; the buffer's size is not bounded.
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes" validate:"omitempty,min=1"`
	// MaxMessages is a message-count limit for the buffer (default 10000).
	// Neither buffer store reads it; the buffer's length is not bounded.
	MaxMessages int `yaml:"max_messages" mapstructure:"max_messages" validate:"omitempty,min=1"`
	// DrainTimeout (e.g. "5s") is not read by anything; shutdown does not
	// wait for the buffer to drain.
	DrainTimeout string `yaml:"drain_timeout" mapstructure:"drain_timeout"`
}

// PolicyConfig configures the policy compiler's inputs and output artifact
// (spec.md §4.2, §6 "Files").
type PolicyConfig struct {
	// Mode selects the environment collaborator: "linux" (local YAML file)
	// or "kubernetes" (in-cluster CRDs + Ingress objects).
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=linux kubernetes"`
	// SchemaVersion selects the input schema: "v1beta1" or "v1beta2".
	SchemaVersion string `yaml:"schema_version" mapstructure:"schema_version" validate:"omitempty,oneof=v1beta1 v1beta2"`
	// LocalPath is the local YAML policy source path (linux mode).
	// Default "/conf/local_policy.yaml".
	LocalPath string `yaml:"local_path" mapstructure:"local_path"`
	// ArtifactPath is the compiled rulebase's output path.
	// Default "/tmp/local_appsec.policy".
	ArtifactPath string `yaml:"artifact_path" mapstructure:"artifact_path"`
	// SettingsPath is the settings-wrapper output path (agent type, upgrade
	// mode, fog flag). Default "/tmp/local_settings.policy". Nothing in the
	// agent core writes a file at this path.
	SettingsPath string `yaml:"settings_path" mapstructure:"settings_path"`
	// StatusPath is the orchestration status file path (spec §6 "Files").
	StatusPath string `yaml:"status_path" mapstructure:"status_path"`
	// KubeconfigToken is the service-account bearer token file path
	// (kubernetes mode). Default the in-cluster mount point.
	KubeconfigToken string `yaml:"kubeconfig_token" mapstructure:"kubeconfig_token"`
	// KubeAPIHost is the in-cluster API host:port.
	KubeAPIHost string `yaml:"kube_api_host" mapstructure:"kube_api_host"`
}

// KeywordConfig configures the keyword rule engine's cooperative-scheduling
// behavior (spec.md §5, §9 "Cooperative scheduling").
type KeywordConfig struct {
	// YieldGranularityBytes is a scan checkpoint interval in bytes.
	// Default 64 KiB. The keyword engine's scans do not read it and do not
	// yield; they run each scan to completion.
	YieldGranularityBytes int `yaml:"yield_granularity_bytes" mapstructure:"yield_granularity_bytes" validate:"omitempty,min=1"`
	// RulesDir is the directory of "<practice-id>.rules" files the keyword
	// registry compiles once, at startup.
	// Default "/conf/waap/rules".
	RulesDir string `yaml:"rules_dir" mapstructure:"rules_dir"`
}

// ServerConfig configures the local REST listener for diagnostic actions.
type ServerConfig struct {
	// RESTAddr is the address the diagnostic REST listener binds
	// (e.g. "127.0.0.1:7777"). Defaults to localhost only.
	RESTAddr string `yaml:"rest_addr" mapstructure:"rest_addr" validate:"omitempty,hostname_port"`
	// LogLevel sets the minimum log level: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// SetDevDefaults applies permissive defaults for development mode, letting
// the agent core run against a local stub fog with minimal configuration.
// Applied before validation so required fields are satisfied.
func (c *AgentConfig) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.Fog.Host == "" {
		c.Fog.Host = "127.0.0.1"
	}
	if c.Fog.Port == 0 {
		c.Fog.Port = 8443
	}
}

// SetDefaults applies sensible default values to the configuration.
func (c *AgentConfig) SetDefaults() {
	if c.Fog.Port == 0 {
		c.Fog.Port = 443
	}
	if !viper.IsSet("fog.secure") {
		c.Fog.Secure = true
	}
	if c.Fog.CacheTTL == "" {
		c.Fog.CacheTTL = "40s"
	}
	if c.Fog.SuspendThreshold == 0 {
		c.Fog.SuspendThreshold = 5
	}

	if c.Buffer.Store == "" {
		c.Buffer.Store = "file"
	}
	if c.Buffer.FilePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Buffer.FilePath = home + "/.agentcore/buffer.jsonl"
		}
	}
	if c.Buffer.SQLitePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Buffer.SQLitePath = home + "/.agentcore/buffer.db"
		}
	}
	if c.Buffer.MaxBytes == 0 {
		c.Buffer.MaxBytes = 64 * 1024 * 1024
	}
	if c.Buffer.MaxMessages == 0 {
		c.Buffer.MaxMessages = 10000
	}
	if c.Buffer.DrainTimeout == "" {
		c.Buffer.DrainTimeout = "5s"
	}

	if c.Policy.Mode == "" {
		c.Policy.Mode = "linux"
	}
	if c.Policy.SchemaVersion == "" {
		c.Policy.SchemaVersion = "v1beta2"
	}
	if c.Policy.LocalPath == "" {
		c.Policy.LocalPath = "/conf/local_policy.yaml"
	}
	if c.Policy.ArtifactPath == "" {
		c.Policy.ArtifactPath = "/tmp/local_appsec.policy"
	}
	if c.Policy.SettingsPath == "" {
		c.Policy.SettingsPath = "/tmp/local_settings.policy"
	}
	if c.Policy.StatusPath == "" {
		c.Policy.StatusPath = "/tmp/orchestration_status.json"
	}
	if c.Policy.KubeconfigToken == "" {
		c.Policy.KubeconfigToken = "/var/run/secrets/kubernetes.io/serviceaccount/token"
	}
	if c.Policy.KubeAPIHost == "" {
		c.Policy.KubeAPIHost = "kubernetes.default.svc:443"
	}

	if c.Keyword.YieldGranularityBytes == 0 {
		c.Keyword.YieldGranularityBytes = 64 * 1024
	}
	if c.Keyword.RulesDir == "" {
		c.Keyword.RulesDir = "/conf/waap/rules"
	}

	if c.Server.RESTAddr == "" {
		c.Server.RESTAddr = "127.0.0.1:7777"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
}

// DeploymentType reads the `deployment_type` environment variable (spec §6
// "Environment variables"). The only recognized non-default value is
// "non_crd_k8s", which selects the non-CRD Kubernetes ingestion path.
func DeploymentType() string {
	return os.Getenv("deployment_type")
}

// IsNonCRDKubernetes reports whether DeploymentType selects the non-CRD
// Kubernetes code path.
func IsNonCRDKubernetes() bool {
	return DeploymentType() == "non_crd_k8s"
}

// StandaloneManifestOverride reports whether CLOUDGUARD_APPSEC_STANDALONE is
// set, in which case the orchestration status's manifest_status field is
// forced to "Succeeded" regardless of actual state (spec §6).
func StandaloneManifestOverride() bool {
	v := os.Getenv("CLOUDGUARD_APPSEC_STANDALONE")
	return v != "" && v != "0" && v != "false"
}
