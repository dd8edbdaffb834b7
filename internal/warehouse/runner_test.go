package warehouse

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakite/olist-warehouse/pkg/config"
	"github.com/datakite/olist-warehouse/pkg/db"
	"github.com/datakite/olist-warehouse/pkg/enums"
	pkgerrors "github.com/datakite/olist-warehouse/pkg/errors"
	"github.com/datakite/olist-warehouse/pkg/logger"
	"github.com/datakite/olist-warehouse/pkg/metrics"
)

const testReferenceDate = "2018-10-17"

func newTestClient(t *testing.T) *db.Client {
	t.Helper()
	cfg := config.DBConfig{
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		Driver: config.DriverSQLite,
	}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "warehouse-test", Output: io.Discard})
}

func newTestRunner(t *testing.T, client *db.Client, reg *Registry) *Runner {
	t.Helper()
	runner, err := NewRunner(client, reg, newTestLogger(), metrics.NewBuildMetrics(nil), testReferenceDate)
	require.NoError(t, err)
	return runner
}

func seedOrdersFixture(t *testing.T, client *db.Client) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, client.Exec(ctx, `
		CREATE TABLE raw_source (
			id TEXT,
			amount REAL
		)`).Error)
	require.NoError(t, client.Exec(ctx,
		`INSERT INTO raw_source VALUES ('a', 10.0), ('b', 25.5), ('c', 0.0)`).Error)
}

func TestRunnerBuildsViewsAndTables(t *testing.T) {
	client := newTestClient(t)
	seedOrdersFixture(t, client)

	reg := NewRegistry()
	require.NoError(t, reg.Register(
		Unit{
			Name:            "stg_source",
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{"raw_source"},
			SQL: func(BuildContext) string {
				return "SELECT id AS source_id, amount FROM raw_source"
			},
		},
		Unit{
			Name:            "mart_totals",
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn:       []string{"stg_source"},
			SQL: func(BuildContext) string {
				return "SELECT source_id, amount FROM stg_source WHERE amount > 0 ORDER BY source_id"
			},
		},
	))

	runner := newTestRunner(t, client, reg)
	report, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)

	built, failed, skipped := report.Counts()
	assert.Equal(t, 2, built)
	assert.Zero(t, failed)
	assert.Zero(t, skipped)
	assert.NotEqual(t, "", report.RunID.String())

	require.Len(t, report.Results, 2)
	assert.Equal(t, "stg_source", report.Results[0].Name)
	assert.Equal(t, StatusBuilt, report.Results[0].Status)
	assert.Equal(t, "mart_totals", report.Results[1].Name)
	assert.Equal(t, int64(2), report.Results[1].Rows)

	for _, relation := range []string{"stg_source", "mart_totals"} {
		exists, err := db.RelationExists(client, relation)
		require.NoError(t, err)
		assert.True(t, exists, relation)
	}

	var total float64
	require.NoError(t, client.Raw(context.Background(),
		"SELECT SUM(amount) FROM mart_totals").Scan(&total).Error)
	assert.InDelta(t, 35.5, total, 0.001)
}

func TestRunnerFailsWhenInputRelationMissing(t *testing.T) {
	client := newTestClient(t)

	reg := NewRegistry()
	require.NoError(t, reg.Register(Unit{
		Name:            "stg_source",
		Layer:           enums.LayerStaging,
		Materialization: enums.MaterializationView,
		DependsOn:       []string{"raw_source"},
		SQL:             func(BuildContext) string { return "SELECT * FROM raw_source" },
	}))

	runner := newTestRunner(t, client, reg)
	report, err := runner.Run(context.Background(), nil)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeMissingInput, coded.Code())
	assert.Contains(t, coded.Message(), "raw_source")

	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusFailed, report.Results[0].Status)
}

func TestRunnerSkipsDownstreamOfFailure(t *testing.T) {
	client := newTestClient(t)
	seedOrdersFixture(t, client)

	reg := NewRegistry()
	require.NoError(t, reg.Register(
		Unit{
			Name:            "stg_broken",
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{"raw_source"},
			SQL: func(BuildContext) string {
				return "SELECT no_such_column FROM raw_source"
			},
		},
		Unit{
			Name:            "mart_from_broken",
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn:       []string{"stg_broken"},
			SQL:             func(BuildContext) string { return "SELECT * FROM stg_broken" },
		},
		Unit{
			Name:            "stg_healthy",
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{"raw_source"},
			SQL:             func(BuildContext) string { return "SELECT id FROM raw_source" },
		},
	))

	runner := newTestRunner(t, client, reg)
	report, err := runner.Run(context.Background(), nil)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeSchemaMismatch, coded.Code())

	statuses := map[string]UnitStatus{}
	for _, res := range report.Results {
		statuses[res.Name] = res.Status
	}
	assert.Equal(t, StatusFailed, statuses["stg_broken"])
	assert.Equal(t, StatusSkipped, statuses["mart_from_broken"])
	assert.Equal(t, StatusBuilt, statuses["stg_healthy"])

	exists, err := db.RelationExists(client, "mart_from_broken")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunnerRebuildIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	seedOrdersFixture(t, client)

	reg := NewRegistry()
	require.NoError(t, reg.Register(
		Unit{
			Name:            "stg_source",
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{"raw_source"},
			SQL:             func(BuildContext) string { return "SELECT id, amount FROM raw_source" },
		},
		Unit{
			Name:            "mart_totals",
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn:       []string{"stg_source"},
			SQL:             func(BuildContext) string { return "SELECT id, amount FROM stg_source ORDER BY id" },
		},
	))

	runner := newTestRunner(t, client, reg)
	for i := 0; i < 3; i++ {
		report, err := runner.Run(context.Background(), nil)
		require.NoError(t, err, "run %d", i)
		built, _, _ := report.Counts()
		assert.Equal(t, 2, built)
	}

	var count int64
	require.NoError(t, client.Raw(context.Background(),
		"SELECT COUNT(*) FROM mart_totals").Scan(&count).Error)
	assert.Equal(t, int64(3), count)

	// The scratch relation never survives a successful swap.
	exists, err := db.RelationExists(client, "mart_totals__build")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunnerSelectionBuildsUpstreamClosureOnly(t *testing.T) {
	client := newTestClient(t)
	seedOrdersFixture(t, client)

	reg := NewRegistry()
	require.NoError(t, reg.Register(
		Unit{
			Name:            "stg_source",
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{"raw_source"},
			SQL:             func(BuildContext) string { return "SELECT id, amount FROM raw_source" },
		},
		Unit{
			Name:            "mart_totals",
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn:       []string{"stg_source"},
			SQL:             func(BuildContext) string { return "SELECT id, amount FROM stg_source" },
		},
		Unit{
			Name:            "stg_unrelated",
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{"raw_source"},
			SQL:             func(BuildContext) string { return "SELECT id FROM raw_source" },
		},
	))

	runner := newTestRunner(t, client, reg)
	report, err := runner.Run(context.Background(), []string{"mart_totals"})
	require.NoError(t, err)

	names := []string{}
	for _, res := range report.Results {
		names = append(names, res.Name)
	}
	assert.Equal(t, []string{"stg_source", "mart_totals"}, names)

	exists, err := db.RelationExists(client, "stg_unrelated")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunnerRejectsUnknownSelection(t *testing.T) {
	client := newTestClient(t)
	seedOrdersFixture(t, client)

	reg := NewRegistry()
	require.NoError(t, reg.Register(Unit{
		Name:            "stg_source",
		Layer:           enums.LayerStaging,
		Materialization: enums.MaterializationView,
		DependsOn:       []string{"raw_source"},
		SQL:             func(BuildContext) string { return "SELECT * FROM raw_source" },
	}))

	runner := newTestRunner(t, client, reg)
	_, err := runner.Run(context.Background(), []string{"mart_nonexistent"})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeUnknownUnit, coded.Code())
}
