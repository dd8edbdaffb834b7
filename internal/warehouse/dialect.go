package warehouse

import (
	"fmt"

	"github.com/datakite/olist-warehouse/pkg/config"
)

// Dialect abstracts the handful of SQL expressions that differ between the
// deployment store (Postgres) and the local/test store (sqlite). Unit SQL is
// otherwise written in the shared subset of both dialects.
type Dialect interface {
	Name() string
	// DateDiffDays renders an integer expression of whole days: date(a) - date(b).
	DateDiffDays(a, b string) string
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return config.DriverPostgres }

func (postgresDialect) DateDiffDays(a, b string) string {
	return fmt.Sprintf("(CAST(%s AS date) - CAST(%s AS date))", a, b)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return config.DriverSQLite }

func (sqliteDialect) DateDiffDays(a, b string) string {
	return fmt.Sprintf("CAST(julianday(date(%s)) - julianday(date(%s)) AS INTEGER)", a, b)
}

// DialectForDriver picks the dialect matching the configured db driver.
func DialectForDriver(driver string) Dialect {
	if driver == config.DriverSQLite {
		return sqliteDialect{}
	}
	return postgresDialect{}
}
