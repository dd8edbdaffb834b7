package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/datakite/olist-warehouse/pkg/config"
	pkgerrors "github.com/datakite/olist-warehouse/pkg/errors"
)

const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// ClassifyError maps a store error onto the pipeline failure taxonomy:
// missing relations become MISSING_INPUT, missing or mistyped columns become
// SCHEMA_MISMATCH, everything else stays a dependency error.
func ClassifyError(err error, relation string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable:
			return pkgerrors.Wrap(pkgerrors.CodeMissingInput, err, relation)
		case pgUndefinedColumn:
			return pkgerrors.Wrap(pkgerrors.CodeSchemaMismatch, err, relation)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, relation)
	}

	// sqlite surfaces schema problems as plain error text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return pkgerrors.Wrap(pkgerrors.CodeMissingInput, err, relation)
	case strings.Contains(msg, "no such column"):
		return pkgerrors.Wrap(pkgerrors.CodeSchemaMismatch, err, relation)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, relation)
}

const (
	sqliteRelationExistsSQL   = `SELECT count(*) FROM sqlite_master WHERE name = ? AND type IN ('table', 'view')`
	postgresRelationExistsSQL = `SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`
)

// RelationExists reports whether the named table or view exists. gorm's
// migrator only answers for base tables, so views need the catalog directly.
func RelationExists(client *Client, relation string) (bool, error) {
	query := postgresRelationExistsSQL
	if client.Driver() == config.DriverSQLite {
		query = sqliteRelationExistsSQL
	}

	var count int64
	if err := client.DB().Raw(query, relation).Scan(&count).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, relation)
	}
	return count > 0, nil
}
