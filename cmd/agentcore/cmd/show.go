package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openappsec-go/agentcore/internal/adapter/outbound/messaging"
	"github.com/openappsec-go/agentcore/internal/config"
	domainmessaging "github.com/openappsec-go/agentcore/internal/domain/messaging"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print diagnostic information",
}

var showCheckFogConnectionCmd = &cobra.Command{
	Use:   "check-fog-connection",
	Short: "Report whether the agent can reach the configured fog",
	Long: `check-fog-connection dials the configured fog host/port and prints
the same JSON the "show check-fog-connection" REST action returns, without
requiring the agent core to be running.`,
	RunE: runShowCheckFogConnection,
}

func init() {
	showCmd.AddCommand(showCheckFogConnectionCmd)
	rootCmd.AddCommand(showCmd)
}

func runShowCheckFogConnection(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	msgClient := messaging.New(messaging.Config{RequestTimeout: 10 * time.Second}, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := msgClient.SetFogConnection(ctx, domainmessaging.CategoryGeneric, cfg.Fog.Host, cfg.Fog.Port, cfg.Fog.Secure); err != nil {
		return fmt.Errorf("prime fog connection: %w", err)
	}
	if _, err := msgClient.SendSync(ctx, http.MethodGet, fogHealthURL(cfg), "", domainmessaging.CategoryGeneric, domainmessaging.Metadata{
		HostName: cfg.Fog.Host,
		Port:     cfg.Fog.Port,
		IsToFog:  true,
	}); err != nil {
		logger.Debug("fog health probe failed", "error", err)
	}

	connected, errMsg := msgClient.CheckFogConnection(ctx)

	out := struct {
		ConnectedToFog bool   `json:"connected_to_fog"`
		Error          string `json:"error,omitempty"`
	}{ConnectedToFog: connected, Error: errMsg}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func fogHealthURL(cfg *config.AgentConfig) string {
	scheme := "http"
	if cfg.Fog.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d/access-manager/health/live", scheme, cfg.Fog.Host, cfg.Fog.Port)
}
