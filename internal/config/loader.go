// Package config provides configuration loading for the agent core.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches for agentcore.yaml/.yml in
// standard locations. The search requires an explicit YAML extension to
// avoid matching the binary itself, which Viper's built-in SetConfigName
// would match (same base name, no extension).
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location.
		// Set name/type without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName("agentcore")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: AGENTCORE_FOG_HOST
	viper.SetEnvPrefix("AGENTCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for an agentcore config file
// with an explicit YAML extension (.yaml or .yml). This prevents Viper from
// matching the binary "agentcore" (no extension) in the current directory.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".agentcore"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "agentcore"))
		}
	} else {
		paths = append(paths, "/etc/agentcore")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for agentcore.yaml
// or .yml. Returns the full path of the first match, or empty string if
// none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "agentcore"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds every config key for environment variable
// support. Example: AGENTCORE_FOG_HOST overrides fog.host.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("fog.host")
	_ = viper.BindEnv("fog.port")
	_ = viper.BindEnv("fog.secure")
	_ = viper.BindEnv("fog.skip_validation")
	_ = viper.BindEnv("fog.ignore_ssl_name")
	_ = viper.BindEnv("fog.external_ca_cert_path")
	_ = viper.BindEnv("fog.cache_ttl")
	_ = viper.BindEnv("fog.suspend_threshold")
	_ = viper.BindEnv("fog.tenant_id")
	_ = viper.BindEnv("fog.proxy.host")
	_ = viper.BindEnv("fog.proxy.port")
	_ = viper.BindEnv("fog.proxy.auth")

	_ = viper.BindEnv("buffer.store")
	_ = viper.BindEnv("buffer.file_path")
	_ = viper.BindEnv("buffer.sqlite_path")
	_ = viper.BindEnv("buffer.max_bytes")
	_ = viper.BindEnv("buffer.max_messages")
	_ = viper.BindEnv("buffer.drain_timeout")

	_ = viper.BindEnv("policy.mode")
	_ = viper.BindEnv("policy.schema_version")
	_ = viper.BindEnv("policy.local_path")
	_ = viper.BindEnv("policy.artifact_path")
	_ = viper.BindEnv("policy.settings_path")
	_ = viper.BindEnv("policy.status_path")
	_ = viper.BindEnv("policy.kubeconfig_token")
	_ = viper.BindEnv("policy.kube_api_host")

	_ = viper.BindEnv("keyword.yield_granularity_bytes")
	_ = viper.BindEnv("keyword.rules_dir")

	_ = viper.BindEnv("server.rest_addr")
	_ = viper.BindEnv("server.log_level")

	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, and returns the AgentConfig. Caller should apply any CLI
// flag overrides (e.g. --dev) before cfg.SetDevDefaults()/cfg.Validate()
// if using LoadConfigRaw instead.
func LoadConfig() (*AgentConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg AgentConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults, but does
// NOT apply dev defaults or validate. Use this when CLI flags may override
// DevMode before validation.
func LoadConfigRaw() (*AgentConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg AgentConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was
// loaded, or empty if none was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
