// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/config"
	"github.com/xkilldash9x/uiprov/internal/observability"
)

// NewRootCommand builds a fresh command tree. A fresh tree per invocation
// keeps flag state from leaking between runs in tests.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:     "uiprov",
		Short:   "uiprov provisions a web application by driving its browser UI.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindEnv(v); err != nil {
				return fmt.Errorf("failed to bind environment: %w", err)
			}

			cfg, err := config.Load(v)
			if err != nil {
				// Fall back to a minimal logger so the failure is visible.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "uiprov"})
				return err
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Info("Starting uiprov", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.AddCommand(newProvisionCmd(v))
	return rootCmd
}

// Execute runs the CLI with the signal-aware context from main.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}
