package config

import (
	"strings"
	"testing"
)

// minimalValidConfig returns a minimal valid AgentConfig for testing.
func minimalValidConfig() *AgentConfig {
	cfg := &AgentConfig{
		Fog: FogConfig{Host: "fog.example.com", Port: 443, Secure: true},
	}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_MissingFogHost(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Fog.Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error for missing fog.host")
	}
	if !strings.Contains(err.Error(), "fog.host") {
		t.Errorf("Validate() error = %v, want mention of fog.host", err)
	}
}

func TestValidate_DevModeExemptsFogHost(t *testing.T) {
	t.Parallel()

	cfg := &AgentConfig{DevMode: true}
	cfg.SetDefaults()
	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error in dev mode: %v", err)
	}
}

func TestValidate_InvalidFogPort(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Fog.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for out-of-range fog.port")
	}
}

func TestValidate_InvalidBufferStore(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Buffer.Store = "redis"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for unsupported buffer.store")
	}
}

func TestValidate_InvalidPolicySchemaVersion(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Policy.SchemaVersion = "v3"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for unsupported policy.schema_version")
	}
}

func TestValidate_ProxyRequiresHostAndPort(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Fog.Proxy = &ProxyConfig{Host: "proxy.example.com"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error for proxy missing port")
	}
	if !strings.Contains(err.Error(), "fog.proxy") {
		t.Errorf("Validate() error = %v, want mention of fog.proxy", err)
	}
}

func TestValidate_ProxyComplete(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Fog.Proxy = &ProxyConfig{Host: "proxy.example.com", Port: 3128}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}
