package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/sector-clearing/internal/config"
	"github.com/iwvelando/sector-clearing/internal/metrics"
	"github.com/iwvelando/sector-clearing/internal/server"
	"github.com/iwvelando/sector-clearing/internal/simulation"
	"github.com/iwvelando/sector-clearing/pkg/constants"
	"github.com/iwvelando/sector-clearing/pkg/output"
	"github.com/iwvelando/sector-clearing/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd is the root Cobra command. Sub-commands are registered here.
func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sector-clearing",
		Short:         "Apportion regional sector demand across competing subsectors.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		runCmd(),
		serveCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}

type runFlags struct {
	configPath         string
	outputFormat       string
	tolerance          float64
	verboseCalibration bool
}

// Load a model file, run every period and print the results.
func runCmd() *cobra.Command {
	flags := runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a model file and print per-period results.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runModel(ctx, cmd.OutOrStdout(), flags, logLevel)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", constants.DefaultConfigFile, "path to model file")
	cmd.Flags().StringVar(&flags.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	cmd.Flags().Float64Var(&flags.tolerance, "tolerance", 0, "calibration tolerance override")
	cmd.Flags().BoolVar(&flags.verboseCalibration, "verbose-calibration", false, "log every sector that misses its calibration target")
	return cmd
}

func runModel(ctx context.Context, w io.Writer, flags runFlags, logLevel string) error {
	conf, err := config.LoadConfiguration(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", flags.configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if flags.outputFormat != "" {
		outputFormat = flags.outputFormat
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	if flags.tolerance != 0 {
		if err := validation.ValidateTolerance(flags.tolerance); err != nil {
			return err
		}
		conf.Model.CalibrationTolerance = flags.tolerance
	}

	results, err := simulation.Run(ctx, logger, *conf, simulation.Options{
		VerboseCalibration: flags.verboseCalibration,
	})
	if err != nil {
		logger.Error("failed to run model",
			zap.String("op", "main.runModel"),
			zap.Error(err),
		)
		return err
	}

	return output.Write(w, outputFormat, results)
}

type serveFlags struct {
	serverConfigPath string
	address          string
	maxUploadSize    string
}

// Serve the run API and Prometheus metrics until interrupted.
func serveCmd() *cobra.Command {
	flags := serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the model run API over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, flags, logLevel)
		},
	}
	cmd.Flags().StringVar(&flags.serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&flags.address, "address", "", "listen address override")
	cmd.Flags().StringVar(&flags.maxUploadSize, "max-upload-size", "", "maximum model upload size override (e.g. 512K)")
	return cmd
}

func serve(ctx context.Context, flags serveFlags, logLevel string) error {
	cfg, err := server.LoadConfig(flags.serverConfigPath)
	if err != nil {
		return err
	}
	if flags.address != "" {
		cfg.Address = flags.address
	}
	if flags.maxUploadSize != "" {
		size, err := server.ParseSize(flags.maxUploadSize)
		if err != nil {
			return err
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := initializeLogger(cfg.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	srv := &http.Server{
		Addr: cfg.Address,
		Handler: server.NewHandler(logger, server.Options{
			MaxUploadSize:  cfg.UploadSizeBytes(),
			Version:        version,
			MetricsPath:    cfg.MetricsPath,
			RunTimeout:     cfg.RunTimeoutDuration(),
			Registry:       reg,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", "main.serve"),
			zap.String("address", cfg.Address),
			zap.String("metricsPath", cfg.MetricsPath),
			zap.String("metricsPrefix", metrics.Prefix),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down", zap.String("op", "main.serve"))
	return srv.Shutdown(shutdownCtx)
}
