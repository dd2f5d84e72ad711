package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/openappsec-go/agentcore/internal/adapter/outbound/artifact"
	"github.com/openappsec-go/agentcore/internal/adapter/outbound/messaging"
	"github.com/openappsec-go/agentcore/internal/config"
	domainpolicy "github.com/openappsec-go/agentcore/internal/domain/policy"
	"github.com/openappsec-go/agentcore/internal/metrics"
	"github.com/openappsec-go/agentcore/internal/orchestration"
	"github.com/openappsec-go/agentcore/internal/policy/k8s"
	"github.com/openappsec-go/agentcore/internal/service"
)

var reloadPolicyCmd = &cobra.Command{
	Use:   "reload-policy",
	Short: "Recompile the policy artifact once and exit",
	Long: `reload-policy loads policy sources (local YAML or Kubernetes CRDs,
per the configured policy mode), compiles them into the canonical rulebase,
persists the artifact, and exits. It does not start the fog messaging
client's persistent connection or the diagnostic REST listener.`,
	RunE: runReloadPolicy,
}

func init() {
	rootCmd.AddCommand(reloadPolicyCmd)
}

func runReloadPolicy(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	ctx := context.Background()
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	var k8sClient *k8s.Client
	if cfg.Policy.Mode == "kubernetes" {
		msgClient := messaging.New(messaging.Config{}, nil, logger)
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

	statusWriter := orchestration.NewWriter(cfg.Policy.StatusPath, logger)

	if err := policyService.Recompile(ctx); err != nil {
		_ = statusWriter.RecordAttempt(ctx, "", "", cfg.Fog.TenantID, cfg.Fog.Host, "", false)
		return fmt.Errorf("policy recompile: %w", err)
	}

	if err := statusWriter.RecordAttempt(ctx, "", "", cfg.Fog.TenantID, cfg.Fog.Host, "", true); err != nil {
		logger.Warn("policy recompiled but failed to persist orchestration status", "error", err)
	}

	logger.Info("policy recompiled", "artifact", cfg.Policy.ArtifactPath)
	return nil
}
