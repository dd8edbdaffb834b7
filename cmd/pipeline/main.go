package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datakite/olist-warehouse/internal/intermediate"
	"github.com/datakite/olist-warehouse/internal/marts"
	"github.com/datakite/olist-warehouse/internal/staging"
	"github.com/datakite/olist-warehouse/internal/validate"
	"github.com/datakite/olist-warehouse/internal/warehouse"
	"github.com/datakite/olist-warehouse/pkg/config"
	"github.com/datakite/olist-warehouse/pkg/db"
	pkgerrors "github.com/datakite/olist-warehouse/pkg/errors"
	"github.com/datakite/olist-warehouse/pkg/logger"
	"github.com/datakite/olist-warehouse/pkg/metrics"
	"github.com/datakite/olist-warehouse/pkg/redis"
	"github.com/datakite/olist-warehouse/pkg/runlock"
)

const lockScope = "warehouse"

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "pipeline"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "run", "pipeline command: build|validate|run|stats")
	units := flag.String("units", "", "comma-separated unit subset for build; upstream units are pulled in")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "pipeline",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})

	dbClient, err := db.New(runCtx, cfg.DB, logg)
	requireResource(runCtx, logg, "database", err)
	defer dbClient.Close()

	registry := warehouse.NewRegistry()
	requireResource(runCtx, logg, "staging units", registry.Register(staging.Units()...))
	requireResource(runCtx, logg, "intermediate units", registry.Register(intermediate.Units()...))
	requireResource(runCtx, logg, "mart units", registry.Register(marts.Units()...))

	promRegistry := prometheus.NewRegistry()
	buildMetrics := metrics.NewBuildMetrics(promRegistry)
	if cfg.Warehouse.MetricsAddr != "" {
		go serveMetrics(runCtx, logg, cfg.Warehouse.MetricsAddr, promRegistry)
	}

	runner, err := warehouse.NewRunner(dbClient, registry, logg, buildMetrics, cfg.Warehouse.RFMReferenceDate)
	requireResource(runCtx, logg, "runner", err)

	validator, err := validate.New(dbClient, logg)
	requireResource(runCtx, logg, "validator", err)

	mutating := *cmd == "build" || *cmd == "run"
	if mutating && cfg.Redis.Enabled() {
		redisClient, err := redis.New(runCtx, cfg.Redis)
		requireResource(runCtx, logg, "redis", err)
		defer redisClient.Close()

		lock, err := runlock.New(redisClient, lockScope, cfg.Warehouse.BuildLockTTL, uuid.New())
		requireResource(runCtx, logg, "build lock", err)
		if err := lock.Acquire(runCtx); err != nil {
			logg.Error(runCtx, "another run holds the output store", err)
			os.Exit(pkgerrors.ExitCodeFor(err))
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logg.Error(runCtx, "failed to release build lock", err)
			}
		}()
	}

	logg.Info(runCtx, "pipeline ready")

	var cmdErr error
	switch *cmd {
	case "build":
		cmdErr = runBuild(runCtx, runner, selection(*units))
	case "validate":
		cmdErr = runValidate(runCtx, validator)
	case "run":
		if cmdErr = runBuild(runCtx, runner, selection(*units)); cmdErr == nil {
			cmdErr = runValidate(runCtx, validator)
		}
	case "stats":
		cmdErr = runStats(runCtx, dbClient)
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(pkgerrors.ExitBuildFailure)
	}

	if cmdErr != nil {
		logg.Error(runCtx, "pipeline command failed", cmdErr)
		os.Exit(pkgerrors.ExitCodeFor(cmdErr))
	}
}

func runBuild(ctx context.Context, runner *warehouse.Runner, selected []string) error {
	report, err := runner.Run(ctx, selected)
	built, failed, skipped := report.Counts()
	fmt.Printf("run %s: %d built, %d failed, %d skipped in %s\n",
		report.RunID, built, failed, skipped, report.Duration.Round(time.Millisecond))
	for _, res := range report.Results {
		if res.Status != warehouse.StatusBuilt {
			fmt.Printf("  %-10s %s\n", res.Status, res.Name)
		}
	}
	return err
}

func runValidate(ctx context.Context, validator *validate.Validator) error {
	report, err := validator.Run(ctx, validate.DefaultChecks())
	failed := report.Failed()
	fmt.Printf("validation: %d checks, %d failed\n", len(report.Results), len(failed))
	for _, res := range failed {
		if res.Err != nil {
			fmt.Printf("  %s: %v\n", res.Check.Name, res.Err)
			continue
		}
		fmt.Printf("  %s: %d violating rows in %s\n",
			res.Check.Name, res.Violations, res.Check.Relation)
	}
	return err
}

func runStats(ctx context.Context, client *db.Client) error {
	stats, err := validate.CollectStats(ctx, client)
	if err != nil {
		return err
	}
	fmt.Printf("orders: %d (%d delivered)\n", stats.Orders, stats.DeliveredOrders)
	fmt.Printf("customers: %d (%d scored)\n", stats.Customers, stats.ScoredCustomers)
	fmt.Printf("products: %d, sellers: %d\n", stats.Products, stats.Sellers)
	fmt.Printf("delivered revenue: %s (freight %s), avg order value: %s\n",
		stats.TotalRevenue.StringFixed(2), stats.TotalFreight.StringFixed(2),
		stats.AvgOrderValue.StringFixed(2))
	return nil
}

func selection(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	selected := []string{}
	for _, name := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			selected = append(selected, trimmed)
		}
	}
	return selected
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logg.Error(ctx, "metrics listener failed", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
