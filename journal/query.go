package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/rustyeddy/dca/ladder"
)

const runColumns = `run_id, created, symbol, params, orders, total_volume, total_margin, avg_price, req_price, max_dev`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r      Run
		params []byte
	)
	err := row.Scan(
		&r.RunID,
		&r.Created,
		&r.Symbol,
		&params,
		&r.Summary.Orders,
		&r.Summary.TotalVolume,
		&r.Summary.TotalMargin,
		&r.Summary.AvgPrice,
		&r.Summary.ReqPrice,
		&r.Summary.MaxDev,
	)
	if err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal(params, &r.Params); err != nil {
		return Run{}, fmt.Errorf("decode params of run %s: %w", r.RunID, err)
	}
	return r, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRunsBetween returns runs created within [start, end), oldest first.
func (j *SQLite) ListRunsBetween(ctx context.Context, start, end time.Time) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE created >= ? AND created < ?
		ORDER BY created ASC, run_id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOrders returns the ladder of a run in emission order.
func (j *SQLite) ListOrders(ctx context.Context, runID string) ([]ladder.OrderRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT label, price_dev, price, avg_price, size, margin, volume,
		       req_price, req_change, pnl, tp, total_size, total_volume, total_margin
		FROM orders
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ladder.OrderRecord
	for rows.Next() {
		var o ladder.OrderRecord
		if err := rows.Scan(
			&o.Order,
			&o.PriceDev,
			&o.Price,
			&o.AvgPrice,
			&o.Size,
			&o.Margin,
			&o.Volume,
			&o.ReqPrice,
			&o.ReqChange,
			&o.PnL,
			&o.TP,
			&o.TotalSize,
			&o.TotalVolume,
			&o.TotalMargin,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
