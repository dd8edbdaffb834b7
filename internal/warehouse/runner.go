package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/datakite/olist-warehouse/pkg/db"
	"github.com/datakite/olist-warehouse/pkg/enums"
	pkgerrors "github.com/datakite/olist-warehouse/pkg/errors"
	"github.com/datakite/olist-warehouse/pkg/logger"
	"github.com/datakite/olist-warehouse/pkg/metrics"
)

// UnitStatus is the outcome of one unit within a run.
type UnitStatus string

const (
	StatusBuilt   UnitStatus = "built"
	StatusFailed  UnitStatus = "failed"
	StatusSkipped UnitStatus = "skipped"
)

// UnitResult captures one unit's outcome.
type UnitResult struct {
	Name     string
	Status   UnitStatus
	Rows     int64
	Duration time.Duration
	Err      error
}

// RunReport summarizes a full pipeline run.
type RunReport struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Results   []UnitResult
}

// Counts returns built/failed/skipped totals.
func (r *RunReport) Counts() (built, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusBuilt:
			built++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return
}

// Runner executes registered units in dependency order, one at a time.
// Each unit is an atomic compute-then-materialize step; a failed unit takes
// its transitive dependents out of the run while independent branches
// continue to build.
type Runner struct {
	client *db.Client
	reg    *Registry
	logg   *logger.Logger
	m      *metrics.BuildMetrics
	build  BuildContext
}

// NewRunner wires a runner against the output store.
func NewRunner(client *db.Client, reg *Registry, logg *logger.Logger, m *metrics.BuildMetrics, referenceDate string) (*Runner, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if reg == nil || reg.Len() == 0 {
		return nil, fmt.Errorf("unit registry is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if referenceDate == "" {
		return nil, fmt.Errorf("reference date is required")
	}
	return &Runner{
		client: client,
		reg:    reg,
		logg:   logg,
		m:      m,
		build: BuildContext{
			Dialect:       DialectForDriver(client.Driver()),
			ReferenceDate: referenceDate,
		},
	}, nil
}

// Run builds the selected units (plus their upstream closure) or, with an
// empty selection, every registered unit. The returned error aggregates all
// unit failures; the report carries per-unit outcomes either way.
func (r *Runner) Run(ctx context.Context, selected []string) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}
	ctx = r.logg.WithRunID(ctx, report.RunID.String())

	order, err := TopoSort(r.reg)
	if err != nil {
		return report, err
	}

	include := map[string]bool{}
	if len(selected) > 0 {
		include, err = Closure(r.reg, selected)
		if err != nil {
			return report, err
		}
	} else {
		for _, name := range order {
			include[name] = true
		}
	}

	skip := map[string]bool{}
	var runErr error

	for _, name := range order {
		if !include[name] {
			continue
		}
		unit, _ := r.reg.Get(name)
		unitCtx := r.logg.WithUnit(ctx, name)

		if skip[name] {
			r.logg.Warn(unitCtx, "unit skipped: upstream failure")
			report.Results = append(report.Results, UnitResult{Name: name, Status: StatusSkipped})
			continue
		}

		started := time.Now()
		rows, buildErr := r.materialize(unitCtx, unit)
		elapsed := time.Since(started)
		r.m.ObserveDuration(name, string(unit.Layer), elapsed)

		if buildErr != nil {
			r.m.IncFailure(name, string(unit.Layer))
			r.logg.Error(unitCtx, "unit build failed", buildErr)
			report.Results = append(report.Results, UnitResult{
				Name:     name,
				Status:   StatusFailed,
				Duration: elapsed,
				Err:      buildErr,
			})
			runErr = multierr.Append(runErr, buildErr)
			for dependent := range Dependents(r.reg, name) {
				skip[dependent] = true
			}
			continue
		}

		r.m.IncSuccess(name, string(unit.Layer))
		if rows >= 0 {
			r.m.SetRowsMaterialized(name, rows)
		}
		r.logg.Info(r.logg.WithFields(unitCtx, map[string]any{
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		}), "unit built")
		report.Results = append(report.Results, UnitResult{
			Name:     name,
			Status:   StatusBuilt,
			Rows:     rows,
			Duration: elapsed,
		})
	}

	report.Duration = time.Since(report.StartedAt)
	return report, runErr
}

// materialize renders and executes one unit. Views are rebuilt in place;
// tables are built under a scratch name and swapped in atomically so readers
// never observe a half-written table.
func (r *Runner) materialize(ctx context.Context, unit Unit) (int64, error) {
	if err := r.checkInputs(ctx, unit); err != nil {
		return -1, err
	}

	statement := unit.SQL(r.build)

	switch unit.Materialization {
	case enums.MaterializationView:
		err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
			if err := tx.Exec(fmt.Sprintf("DROP VIEW IF EXISTS %s", unit.Name)).Error; err != nil {
				return err
			}
			return tx.Exec(fmt.Sprintf("CREATE VIEW %s AS %s", unit.Name, statement)).Error
		})
		if err != nil {
			return -1, db.ClassifyError(err, unit.Name)
		}
		return -1, nil

	default: // table
		scratch := unit.Name + "__build"
		err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
			if err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", scratch)).Error; err != nil {
				return err
			}
			if err := tx.Exec(fmt.Sprintf("CREATE TABLE %s AS %s", scratch, statement)).Error; err != nil {
				return err
			}
			if err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", unit.Name)).Error; err != nil {
				return err
			}
			return tx.Exec(fmt.Sprintf("ALTER TABLE %s RENAME TO %s", scratch, unit.Name)).Error
		})
		if err != nil {
			return -1, db.ClassifyError(err, unit.Name)
		}
		return r.rowCount(ctx, unit.Name)
	}
}

// checkInputs fails fast with the missing relation's name before any DDL runs.
func (r *Runner) checkInputs(ctx context.Context, unit Unit) error {
	for _, dep := range unit.DependsOn {
		exists, err := db.RelationExists(r.client, dep)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeMissingInput,
				fmt.Sprintf("unit %s requires relation %s", unit.Name, dep))
		}
	}
	return nil
}

func (r *Runner) rowCount(ctx context.Context, relation string) (int64, error) {
	var count int64
	if err := r.client.Raw(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", relation)).Scan(&count).Error; err != nil {
		return -1, db.ClassifyError(err, relation)
	}
	return count, nil
}
