package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAgentConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg AgentConfig
	cfg.SetDefaults()

	if cfg.Fog.Port != 443 {
		t.Errorf("Fog.Port = %d, want 443", cfg.Fog.Port)
	}
	if !cfg.Fog.Secure {
		t.Error("Fog.Secure should default to true")
	}
	if cfg.Fog.CacheTTL != "40s" {
		t.Errorf("Fog.CacheTTL = %q, want %q", cfg.Fog.CacheTTL, "40s")
	}
	if cfg.Fog.SuspendThreshold != 5 {
		t.Errorf("Fog.SuspendThreshold = %d, want 5", cfg.Fog.SuspendThreshold)
	}
	if cfg.Buffer.Store != "file" {
		t.Errorf("Buffer.Store = %q, want %q", cfg.Buffer.Store, "file")
	}
	if cfg.Buffer.MaxMessages != 10000 {
		t.Errorf("Buffer.MaxMessages = %d, want 10000", cfg.Buffer.MaxMessages)
	}
	if cfg.Policy.Mode != "linux" {
		t.Errorf("Policy.Mode = %q, want %q", cfg.Policy.Mode, "linux")
	}
	if cfg.Policy.SchemaVersion != "v1beta2" {
		t.Errorf("Policy.SchemaVersion = %q, want %q", cfg.Policy.SchemaVersion, "v1beta2")
	}
	if cfg.Policy.LocalPath != "/conf/local_policy.yaml" {
		t.Errorf("Policy.LocalPath = %q, want %q", cfg.Policy.LocalPath, "/conf/local_policy.yaml")
	}
	if cfg.Policy.ArtifactPath != "/tmp/local_appsec.policy" {
		t.Errorf("Policy.ArtifactPath = %q, want %q", cfg.Policy.ArtifactPath, "/tmp/local_appsec.policy")
	}
	if cfg.Keyword.YieldGranularityBytes != 64*1024 {
		t.Errorf("Keyword.YieldGranularityBytes = %d, want %d", cfg.Keyword.YieldGranularityBytes, 64*1024)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("Server.LogLevel = %q, want %q", cfg.Server.LogLevel, "info")
	}
}

func TestAgentConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := AgentConfig{
		Fog: FogConfig{
			Host: "fog.example.com",
			Port: 9443,
		},
		Policy: PolicyConfig{
			SchemaVersion: "v1beta1",
		},
	}
	cfg.SetDefaults()

	if cfg.Fog.Host != "fog.example.com" {
		t.Errorf("Fog.Host was overwritten: got %q", cfg.Fog.Host)
	}
	if cfg.Fog.Port != 9443 {
		t.Errorf("Fog.Port was overwritten: got %d, want 9443", cfg.Fog.Port)
	}
	if cfg.Policy.SchemaVersion != "v1beta1" {
		t.Errorf("Policy.SchemaVersion was overwritten: got %q, want v1beta1", cfg.Policy.SchemaVersion)
	}
}

func TestAgentConfig_SetDevDefaults(t *testing.T) {
	t.Parallel()

	cfg := AgentConfig{DevMode: true}
	cfg.SetDevDefaults()

	if cfg.Fog.Host != "127.0.0.1" {
		t.Errorf("Fog.Host = %q, want 127.0.0.1", cfg.Fog.Host)
	}
	if cfg.Fog.Port != 8443 {
		t.Errorf("Fog.Port = %d, want 8443", cfg.Fog.Port)
	}
}

func TestAgentConfig_SetDevDefaults_NoOpWhenDisabled(t *testing.T) {
	t.Parallel()

	cfg := AgentConfig{}
	cfg.SetDevDefaults()

	if cfg.Fog.Host != "" {
		t.Errorf("Fog.Host = %q, want empty when DevMode is false", cfg.Fog.Host)
	}
}

func TestDeploymentType(t *testing.T) {
	t.Setenv("deployment_type", "non_crd_k8s")
	if !IsNonCRDKubernetes() {
		t.Error("IsNonCRDKubernetes() = false, want true")
	}
	if DeploymentType() != "non_crd_k8s" {
		t.Errorf("DeploymentType() = %q, want non_crd_k8s", DeploymentType())
	}
}

func TestStandaloneManifestOverride(t *testing.T) {
	t.Setenv("CLOUDGUARD_APPSEC_STANDALONE", "")
	if StandaloneManifestOverride() {
		t.Error("StandaloneManifestOverride() = true for unset env, want false")
	}
	t.Setenv("CLOUDGUARD_APPSEC_STANDALONE", "1")
	if !StandaloneManifestOverride() {
		t.Error("StandaloneManifestOverride() = false, want true")
	}
}

func TestFindConfigFileInPaths_EmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths(empty dir) = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_MatchesYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentcore.yaml")
	_ = os.WriteFile(cfgPath, []byte("fog:\n  host: fog.example.com\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_MatchesYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentcore.yml")
	_ = os.WriteFile(cfgPath, []byte("fog:\n  host: fog.example.com\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_IgnoresNoExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// Simulate the binary: a file named "agentcore" with no extension.
	_ = os.WriteFile(filepath.Join(dir, "agentcore"), []byte("\x7fELF binary"), 0755)

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths matched binary = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_PrefersYAMLOverYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "agentcore.yaml")
	ymlPath := filepath.Join(dir, "agentcore.yml")
	_ = os.WriteFile(yamlPath, []byte("fog:\n  host: a\n"), 0644)
	_ = os.WriteFile(ymlPath, []byte("fog:\n  host: b\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != yamlPath {
		t.Errorf("findConfigFileInPaths = %q, want %q (.yaml preferred)", got, yamlPath)
	}
}
