package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"contractbook/internal/audit"
	"contractbook/internal/contract/console"
	"contractbook/internal/contract/metrics"
	"contractbook/internal/contract/service"
	"contractbook/internal/contract/store"
	"contractbook/internal/platform/config"
	"contractbook/internal/platform/logger"
	"contractbook/pkg/requestcontext"
)

// main wires high-level dependencies and hands the terminal to the console.
// Business logic lives in the internal contract packages.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCommand reads the environment once; flags override it.
func newRootCommand() *cobra.Command {
	cfg := config.FromEnv()
	cmd := &cobra.Command{
		Use:          "contractbook",
		Short:        "Manage service contracts stored in a pipe-delimited text file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.DataFile, "data-file", cfg.DataFile, "contracts data file ("+config.EnvDataFile+")")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error ("+config.EnvLogLevel+")")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json ("+config.EnvLogFormat+")")
	flags.StringVar(&cfg.AuditFile, "audit-file", cfg.AuditFile, "append audit events as JSON lines ("+config.EnvAuditFile+")")
	flags.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write metrics in textfile format on exit ("+config.EnvMetricsFile+")")
	return cmd
}

func run(ctx context.Context, cfg config.App, in io.Reader, out, errOut io.Writer) error {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, errOut)
	if err != nil {
		return err
	}

	textFile, err := store.NewTextFile(cfg.DataFile)
	if err != nil {
		return err
	}
	contractMetrics := metrics.New()
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(contractMetrics),
	}
	if cfg.AuditFile != "" {
		auditStore, err := audit.NewFileStore(cfg.AuditFile)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithAuditPublisher(audit.NewPublisher(auditStore)))
	}

	svc, err := service.New(store.NewCollection(), textFile, opts...)
	if err != nil {
		return err
	}
	cons, err := console.New(svc, in, out, console.WithLogger(log))
	if err != nil {
		return err
	}

	sessionID := uuid.New()
	ctx = requestcontext.WithSessionID(ctx, sessionID)
	log.InfoContext(ctx, "starting contractbook", "data_file", cfg.DataFile, "session_id", sessionID)

	// The console blocks on input, so an interrupt is handled here.
	done := make(chan error, 1)
	go func() {
		done <- cons.Run(ctx)
	}()
	var runErr error
	select {
	case runErr = <-done:
	case <-ctx.Done():
		fmt.Fprintln(out, "\nInterrupted.")
	}

	if cfg.MetricsFile != "" {
		if err := contractMetrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.WarnContext(ctx, "failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
	return runErr
}
