package db

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"

	"revenue-dashboard/internal/errors"
	"revenue-dashboard/internal/observability"
)

// The comparison is fixed to these two calendar years; the statement below
// hard-codes the matching date range.
const (
	RevenueYearA = 2024
	RevenueYearB = 2025
)

// monthlyRevenueSQL aggregates finalized revenue per (year, month) for one
// branch. Finalized means isFixed = 1 and either a final StatusNota or
// StatusNota 12 with an accepted StatusApproval. The branch identifier is
// the only bound parameter.
const monthlyRevenueSQL = `
SELECT
  YEAR(SalesDateIn)  AS y,
  MONTH(SalesDateIn) AS m,
  SUM(GrandTotal)    AS total_grand
FROM ec_t_sales_header
WHERE
  CompanyInternalID = ?
  AND isFixed = 1
  AND SalesDateIn >= '2024-01-01' AND SalesDateIn < '2026-01-01'
  AND (
    StatusNota IN (6, 8, 9, 15, 16)
    OR (StatusNota = 12 AND StatusApproval IN (0, 2))
  )
GROUP BY y, m
ORDER BY y ASC, m ASC`

// Executor issues parameterized statements over the managed connection.
// Stateless per call: every statement gets a fresh tunnel + session.
type Executor struct {
	manager *Manager
	logger  *slog.Logger
}

func NewExecutor(manager *Manager, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{manager: manager, logger: logger}
}

// Query runs a SELECT with bound parameters and returns the result set as
// column-name → value maps. The connection stays open for the caller's
// current logical operation. Failures come back as QUERY_FAILED app errors;
// display code treats them as zero rows while surfacing the message.
func (e *Executor) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	ctx, span := observability.StartSpan(ctx, "db.query")
	defer span.Finish()

	var rows []map[string]any
	err := e.manager.WithFresh(ctx, func(db *sql.DB) error {
		result, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer result.Close()

		rows, err = scanRows(result)
		return err
	})
	if err != nil {
		span.SetError(err)
		e.logger.Error("live query failed", "error", err)
		return nil, errors.QueryFailedWrap(err, "live query failed")
	}

	span.SetTag("rows", strconv.Itoa(len(rows)))
	return rows, nil
}

// Exec runs a mutation and returns the affected-row count. Unlike Query, it
// closes the connection immediately: nothing downstream reads from it.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	ctx, span := observability.StartSpan(ctx, "db.exec")
	defer span.Finish()

	var affected int64
	err := e.manager.WithFresh(ctx, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	e.manager.Close()
	if err != nil {
		span.SetError(err)
		e.logger.Error("live exec failed", "error", err)
		return 0, errors.QueryFailedWrap(err, "live exec failed")
	}

	return affected, nil
}

// MonthlyRevenue runs the fixed aggregation for one branch.
func (e *Executor) MonthlyRevenue(ctx context.Context, branchID int) ([]map[string]any, error) {
	return e.Query(ctx, monthlyRevenueSQL, branchID)
}

func scanRows(result *sql.Rows) ([]map[string]any, error) {
	columns, err := result.Columns()
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	for result.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := result.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		rows = append(rows, row)
	}

	return rows, result.Err()
}
