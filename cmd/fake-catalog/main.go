package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/shelfpulse/internal/catalogfixtures"
	"github.com/okian/shelfpulse/pkg/logger"
)

// Default configuration constants.
const (
	defaultAddr     = ":9090"
	defaultProducts = 60
	defaultSeed     = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := catalogfixtures.Config{}

	cmd := &cobra.Command{
		Use:   "fake-catalog",
		Short: "Serve generated product analytics and performance documents",
		Long: `fake-catalog stands in for the upstream analytics and performance services.

It serves ` + catalogfixtures.AnalyticsPath + ` and ` + catalogfixtures.PerformancePath + `
with a deterministic catalog that covers every dashboard bucket. Either
endpoint can be made to fail to exercise the dashboard's failure state.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			closeLog, err := catalogfixtures.SetupLogging(cfg.LogFile, cfg.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			srv := catalogfixtures.NewServer(cfg, logger.Named("fake-catalog"))
			return srv.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Addr, "addr", defaultAddr, "listen address")
	flags.IntVar(&cfg.Products, "products", defaultProducts, "number of products to generate")
	flags.Int64Var(&cfg.Seed, "seed", defaultSeed, "generator seed")
	flags.BoolVar(&cfg.FailAnalytics, "fail-analytics", false, "answer the analytics endpoint with 503")
	flags.BoolVar(&cfg.FailPerformance, "fail-performance", false, "answer the performance endpoint with 503")
	flags.StringVar(&cfg.LogFile, "log", "", "also append logs to this file")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "enable debug logging")
	return cmd
}
