package validate

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/datakite/olist-warehouse/pkg/db"
	pkgerrors "github.com/datakite/olist-warehouse/pkg/errors"
	"github.com/datakite/olist-warehouse/pkg/logger"
)

// Result is one check's outcome.
type Result struct {
	Check      Check
	Violations int64
	Err        error
}

// Passed reports whether the check ran cleanly with zero violations.
func (r Result) Passed() bool {
	return r.Err == nil && r.Violations == 0
}

// Report collects every check's outcome for a validation run.
type Report struct {
	Results []Result
}

// Failed returns the checks that reported violations or errored.
func (r *Report) Failed() []Result {
	failed := []Result{}
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Validator executes data-quality checks against the output store.
type Validator struct {
	client *db.Client
	logg   *logger.Logger
}

// New wires a validator.
func New(client *db.Client, logg *logger.Logger) (*Validator, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Validator{client: client, logg: logg}, nil
}

// Run executes every check and aggregates failures. Checks are independent;
// one failing or erroring check never stops the rest. The returned error is
// nil only when every check passes.
func (v *Validator) Run(ctx context.Context, checks []Check) (*Report, error) {
	report := &Report{}
	var runErr error

	for _, check := range checks {
		checkCtx := v.logg.WithField(ctx, "check", check.Name)
		result := v.run(checkCtx, check)
		report.Results = append(report.Results, result)

		switch {
		case result.Err != nil:
			v.logg.Error(checkCtx, "validation check errored", result.Err)
			runErr = multierr.Append(runErr, result.Err)
		case result.Violations > 0:
			v.logg.Warn(v.logg.WithField(checkCtx, "violations", result.Violations),
				"validation check failed")
			runErr = multierr.Append(runErr, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("check %s: %d violating rows in %s",
					check.Name, result.Violations, check.Relation)))
		default:
			v.logg.Info(checkCtx, "validation check passed")
		}
	}
	return report, runErr
}

func (v *Validator) run(ctx context.Context, check Check) Result {
	if err := check.validate(); err != nil {
		return Result{Check: check, Err: pkgerrors.Wrap(pkgerrors.CodeInternal, err, "malformed check")}
	}

	var violations int64
	if err := v.client.Raw(ctx, check.violationSQL()).Scan(&violations).Error; err != nil {
		return Result{Check: check, Err: db.ClassifyError(err, check.Relation)}
	}
	return Result{Check: check, Violations: violations}
}
