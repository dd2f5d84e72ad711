package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	inbound "github.com/openappsec-go/agentcore/internal/adapter/inbound/http"
	"github.com/openappsec-go/agentcore/internal/adapter/outbound/artifact"
	"github.com/openappsec-go/agentcore/internal/adapter/outbound/bufferfile"
	"github.com/openappsec-go/agentcore/internal/adapter/outbound/messaging"
	"github.com/openappsec-go/agentcore/internal/adapter/outbound/sqlite"
	"github.com/openappsec-go/agentcore/internal/config"
	domainmessaging "github.com/openappsec-go/agentcore/internal/domain/messaging"
	domainpolicy "github.com/openappsec-go/agentcore/internal/domain/policy"
	"github.com/openappsec-go/agentcore/internal/keyword"
	"github.com/openappsec-go/agentcore/internal/metrics"
	"github.com/openappsec-go/agentcore/internal/orchestration"
	"github.com/openappsec-go/agentcore/internal/policy/k8s"
	"github.com/openappsec-go/agentcore/internal/runtime"
	"github.com/openappsec-go/agentcore/internal/service"
	"github.com/openappsec-go/agentcore/internal/telemetry"
)

var devMode bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent core",
	Long: `Run starts the fog messaging client, the policy recompile loop, and the
diagnostic REST listener, and blocks until interrupted.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&devMode, "dev", false, "enable development mode (local stub fog address when none is configured)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, logger)
}

// run wires every subsystem together and blocks until ctx is canceled.
func run(ctx context.Context, cfg *config.AgentConfig, logger *slog.Logger) error {
	promReg := prometheus.NewRegistry()
	reg := metrics.NewRegistry(promReg)

	telemetryProvider, err := telemetry.NewProvider(telemetry.Config{
		Enabled:     !cfg.DevMode,
		ServiceName: "agentcore",
	})
	if err != nil {
		return fmt.Errorf("build telemetry provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	bufferStore, err := buildBufferStore(cfg.Buffer, logger)
	if err != nil {
		return fmt.Errorf("build buffer store: %w", err)
	}
	defer func() {
		if err := bufferStore.Close(); err != nil {
			logger.Warn("failed to close buffer store", "error", err)
		}
	}()

	msgClient := messaging.New(messaging.Config{
		BuildHash:      Commit,
		CacheTTL:       parseDurationDefault(cfg.Fog.CacheTTL, 40*time.Second, logger),
		RequestTimeout: 30 * time.Second,
		DefaultProxy:   buildProxySettings(cfg.Fog.Proxy),
	}, bufferStore, logger)

	if err := msgClient.SetFogConnection(ctx, domainmessaging.CategoryGeneric, cfg.Fog.Host, cfg.Fog.Port, cfg.Fog.Secure); err != nil {
		logger.Warn("failed to prime fog connection", "error", err)
	}

	var k8sClient *k8s.Client
	if cfg.Policy.Mode == "kubernetes" {
		k8sClient, err = k8s.NewClient(msgClient, cfg.Policy.KubeconfigToken, cfg.Policy.KubeAPIHost)
		if err != nil {
			return fmt.Errorf("build kubernetes client: %w", err)
		}
	}

	collaborator, err := service.NewCollaborator(ctx, cfg.Policy, k8sClient)
	if err != nil {
		return fmt.Errorf("build policy collaborator: %w", err)
	}

	rulebaseStore := artifact.NewStore[domainpolicy.Rulebase](cfg.Policy.ArtifactPath, logger)
	policyService := service.NewPolicyService(collaborator, rulebaseStore, cfg.Policy.SchemaVersion, cfg.Policy.Mode, logger, reg)

	practiceRegistry := keyword.NewPracticeRegistry(logger)
	if err := practiceRegistry.LoadDir(cfg.Keyword.RulesDir, ""); err != nil {
		logger.Warn("failed to load keyword rule directory, starting with no compiled rules", "dir", cfg.Keyword.RulesDir, "error", err)
	} else {
		logger.Info("keyword rules loaded", "practices", len(practiceRegistry.PracticeIDs()))
	}

	statusWriter := orchestration.NewWriter(cfg.Policy.StatusPath, logger)

	scheduler := runtime.New(ctx, 4)

	if err := policyService.Recompile(ctx); err != nil {
		logger.Error("initial policy compile failed", "error", err)
		_ = statusWriter.RecordAttempt(ctx, "", "", cfg.Fog.TenantID, cfg.Fog.Host, "", false)
	} else {
		_ = statusWriter.RecordAttempt(ctx, "", "", cfg.Fog.TenantID, cfg.Fog.Host, time.Now().UTC().Format(time.RFC3339), true)
	}

	scheduler.AddOneTimeRoutine("policy-recompile-loop", func(ctx context.Context) error {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				success := true
				if err := policyService.Recompile(ctx); err != nil {
					logger.Error("policy recompile failed", "error", err)
					success = false
				}
				if err := statusWriter.RecordAttempt(ctx, "", "", cfg.Fog.TenantID, cfg.Fog.Host, time.Now().UTC().Format(time.RFC3339), success); err != nil {
					logger.Warn("failed to persist orchestration status", "error", err)
				}
			}
		}
	})

	scheduler.AddOneTimeRoutine("suspended-connection-probe", func(ctx context.Context) error {
		ticker := time.NewTicker(messaging.SuspendProbeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				msgClient.ProbeSuspendedConnections(ctx)
			}
		}
	})

	restServer := inbound.New(cfg.Server.RESTAddr, msgClient, promReg, logger)
	scheduler.AddOneTimeRoutine("rest-listener", func(ctx context.Context) error {
		return restServer.Start(ctx)
	})

	logger.Info("agentcore starting",
		"version", Version,
		"dev_mode", cfg.DevMode,
		"fog_host", cfg.Fog.Host,
		"policy_mode", cfg.Policy.Mode,
		"rest_addr", cfg.Server.RESTAddr,
	)

	<-ctx.Done()
	logger.Info("shutting down", "running_routines", scheduler.Running())
	if err := scheduler.Wait(); err != nil {
		logger.Warn("subsystem reported an error during shutdown", "error", err)
	}
	logger.Info("agentcore stopped")
	return nil
}

// buildBufferStore selects the file or sqlite-backed messaging.BufferStore
// per cfg.Store (spec.md §6 "Buffered messages file", §9 Open Question on
// replay order).
func buildBufferStore(cfg config.BufferConfig, logger *slog.Logger) (domainmessaging.BufferStore, error) {
	switch cfg.Store {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	default:
		return bufferfile.New(cfg.FilePath, logger)
	}
}

func buildProxySettings(cfg *config.ProxyConfig) *domainmessaging.ProxySettings {
	if cfg == nil {
		return nil
	}
	return &domainmessaging.ProxySettings{
		Host: cfg.Host,
		Port: cfg.Port,
		Auth: cfg.Auth,
	}
}

func parseDurationDefault(s string, def time.Duration, logger *slog.Logger) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Warn("invalid duration, using default", "value", s, "default", def)
		return def
	}
	return d
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
