// Package cmd provides the CLI commands for the agent core.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openappsec-go/agentcore/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "agentcore",
	Short: "agentcore - WAAP agent core subsystem",
	Long: `agentcore runs the security agent's fog messaging client, policy
compiler, and keyword pattern-matching engine.

Configuration is loaded from agentcore.yaml in the current directory,
$HOME/.agentcore/, or /etc/agentcore/.

Environment variables override config values with the AGENTCORE_ prefix.
Example: AGENTCORE_FOG_HOST=fog.example.com

Commands:
  run             Run the agent core
  reload-policy   Recompile the policy artifact once and exit
  show            Print diagnostic information
  version         Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./agentcore.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
