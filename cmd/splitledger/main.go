// Command splitledger replays a YAML scenario through the engine on an
// in-memory store and prints balances, the settlement plan and the
// operation history of every group.
//
//	splitledger [flags] scenario.yaml
//	splitledger --rounding largest_remainder --metrics - < scenario.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/pflag"

	"github.com/xraph/splitledger"
	audithook "github.com/xraph/splitledger/audit_hook"
	"github.com/xraph/splitledger/internal/config"
	"github.com/xraph/splitledger/internal/logging"
	"github.com/xraph/splitledger/internal/report"
	"github.com/xraph/splitledger/internal/scenario"
	"github.com/xraph/splitledger/observability"
	"github.com/xraph/splitledger/store/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.SetupWithLevel(slog.LevelInfo).Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.Error("splitledger failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	fs := pflag.NewFlagSet("splitledger", pflag.ContinueOnError)
	fs.StringVar(&cfg.Rounding, "rounding", cfg.Rounding, "remainder attribution: truncate or largest_remainder")
	fs.StringVar(&cfg.ResidualPolicy, "residual-policy", cfg.ResidualPolicy, "unmatched balances: report or reject")
	fs.StringVar(&cfg.DefaultCurrency, "currency", cfg.DefaultCurrency, "currency for new groups")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "BCP 47 locale for amounts")
	fs.IntVar(&cfg.HistoryLimit, "history-limit", cfg.HistoryLimit, "operations shown per group, 0 for all")
	fs.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "print collected prometheus metrics")
	fs.BoolVar(&cfg.Audit, "audit", cfg.Audit, "log audit events")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: splitledger [flags] <scenario.yaml|->")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one scenario file")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rounding, policy, err := cfg.Policies()
	if err != nil {
		return err
	}

	sc, err := readScenario(fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	opts := []splitledger.Option{
		splitledger.WithLogger(logger),
		splitledger.WithRounding(rounding),
		splitledger.WithResidualPolicy(policy),
		splitledger.WithDefaultCurrency(cfg.DefaultCurrency),
	}

	var reg *prometheus.Registry
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		factory := observability.NewPrometheusFactory(reg)
		opts = append(opts, splitledger.WithPlugin(observability.NewMetricsExtension(factory)))
	}
	if cfg.Audit {
		opts = append(opts, splitledger.WithPlugin(audithook.New(auditLogger(logger))))
	}

	l := splitledger.New(memory.New(), opts...)
	if err := l.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := l.Stop(); err != nil {
			logger.Warn("stop failed", "error", err)
		}
	}()

	res, err := scenario.Replay(ctx, l, sc)
	if err != nil {
		return err
	}

	for i, g := range res.Groups {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		err := report.Write(ctx, stdout, l, g.ID, report.Options{
			Locale:       cfg.Locale,
			HistoryLimit: cfg.HistoryLimit,
		})
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Key, err)
		}
	}

	if reg != nil {
		fmt.Fprintln(stdout)
		return writeMetrics(stdout, reg)
	}
	return nil
}

func readScenario(path string, stdin io.Reader) (*scenario.Scenario, error) {
	if path == "-" {
		return scenario.Parse(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scenario.Parse(f)
}

func auditLogger(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		logger.InfoContext(ctx, "audit",
			"action", evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"outcome", evt.Outcome,
		)
		return nil
	})
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
