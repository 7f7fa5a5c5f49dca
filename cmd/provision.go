// File: cmd/provision.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/browser"
	"github.com/xkilldash9x/uiprov/internal/config"
	"github.com/xkilldash9x/uiprov/internal/diag"
	"github.com/xkilldash9x/uiprov/internal/observability"
	"github.com/xkilldash9x/uiprov/internal/probe"
	"github.com/xkilldash9x/uiprov/internal/resolver"
	"github.com/xkilldash9x/uiprov/internal/state"
	"github.com/xkilldash9x/uiprov/internal/workflow"
)

// newDriver is the browser factory, a variable so tests can verify that a
// failed pre-flight never launches a browser.
var newDriver = func(ctx context.Context, opts browser.Options, logger *zap.Logger, tracer browser.Tracer) (browser.Driver, error) {
	return browser.NewChrome(ctx, opts, logger, tracer)
}

// newProvisionCmd creates the `provision` command: the whole run, from
// readiness wait to deploy.
func newProvisionCmd(v *viper.Viper) *cobra.Command {
	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision the target application end-to-end through its UI",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags override env vars; env vars override defaults.
			return v.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			// Pre-flight: a run doomed by configuration must fail before
			// any browser resources are acquired.
			if err := cfg.Validate(); err != nil {
				logger.Error("Pre-flight validation failed", zap.Error(err))
				return err
			}

			return runProvision(ctx, cfg, logger)
		},
	}

	provisionCmd.Flags().String("target_url", "", "Root URL of the target application (overrides APPSMITH_URL)")
	provisionCmd.Flags().Bool("headless", true, "Run the browser headless (overrides HEADLESS)")
	provisionCmd.Flags().Int("timeout_ms", 0, "Per-step timeout in milliseconds (overrides TIMEOUT)")
	provisionCmd.Flags().String("app_json_path", "", "Path to the configuration bundle (overrides APP_JSON_PATH)")
	provisionCmd.Flags().Bool("record_trace", true, "Persist the execution trace artifact (overrides RECORD_TRACE)")
	provisionCmd.Flags().String("artifacts_dir", "", "Directory for screenshots and traces (overrides ARTIFACTS_DIR)")

	return provisionCmd
}

// runProvision wires the components and executes the workflow.
func runProvision(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	wctx := workflow.NewContext(cfg)
	logger.Info("Provisioning run starting",
		zap.String("run_id", wctx.RunID),
		zap.String("target", cfg.TargetURL),
		zap.Bool("headless", cfg.Headless),
	)

	var trace *diag.Trace
	if cfg.RecordTrace {
		trace = diag.NewTrace(wctx.RunID)
	}

	var tracer browser.Tracer
	if trace != nil {
		tracer = trace
	}
	page, err := newDriver(ctx, browser.Options{
		Headless:   cfg.Headless,
		NavTimeout: cfg.Timeout(),
	}, logger, tracer)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := page.Close(context.Background()); err != nil {
			logger.Warn("Error during browser shutdown", zap.Error(err))
		}
	}()

	recorder := diag.NewRecorder(page, cfg.ArtifactsDir, logger, trace)
	detector := state.NewDetector(logger)

	deps := &workflow.Deps{
		Page:     page,
		Resolver: resolver.New(page, logger),
		Detector: detector,
		Probe: probe.New(probe.Config{
			URL:      healthURL(cfg),
			Attempts: cfg.ProbeAttempts,
			Interval: cfg.ProbeInterval,
		}, logger),
		Logger: logger,
	}

	orch, err := workflow.New(logger, page, detector, recorder, workflow.Pipeline(deps))
	if err != nil {
		return err
	}

	final, runErr := orch.Run(ctx, wctx)
	if tracePath := recorder.Finalize(); tracePath != "" {
		logger.Info("Execution trace available", zap.String("path", tracePath))
	}

	if runErr != nil {
		return runErr
	}

	fmt.Printf("\nProvisioning complete (%s). Application URL: %s\n", final, wctx.AppURL)
	return nil
}

// healthURL joins the target root with the configured health path.
func healthURL(cfg *config.Config) string {
	root := strings.TrimRight(cfg.TargetURL, "/")
	path := cfg.HealthPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return root + path
}
