package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/halo/internal/loadtest"
	"github.com/okian/halo/pkg/logger"
)

// Default configuration constants.
const (
	defaultSamples     = 10000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultJitter      = 0.25
	defaultInvalid     = 20
	defaultTestTimeout = 10 * time.Minute
)

func newRootCommand() *cobra.Command {
	cfg := &loadtest.Config{}
	var logFormat string

	cmd := &cobra.Command{
		Use:          "halo-loadtest",
		Short:        "Drive concurrent /predict traffic against a running detector",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat)); err != nil {
				return err
			}
			cfg.Logger = logger.Named("loadtest")

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTestTimeout)
			defer cancel()

			_, err := loadtest.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Samples, "samples", defaultSamples, "Number of observations to submit")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.Float64Var(&cfg.Jitter, "jitter", defaultJitter, "Relative perturbation applied to each feature")
	f.IntVar(&cfg.InvalidEvery, "invalid-every", defaultInvalid, "Send a malformed observation every n samples (0 disables)")
	f.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "Seed for the sample generator")
	f.StringVar(&cfg.OutputFile, "output", "", "Write the generated samples to this JSON file")
	f.StringVar(&logFormat, "log-format", "text", "Log output format: text or json")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
