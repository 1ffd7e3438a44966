package journal

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/dca/ladder"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordRun stores the run and all of its orders in one transaction.
func (j *SQLite) RecordRun(ctx context.Context, r Run, orders []ladder.OrderRecord) error {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, symbol, long, balance, entry_price, leverage, take_profit, params,
		 orders, total_volume, total_margin, avg_price, req_price, max_dev)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Symbol, !r.Params.Short, r.Params.Balance, r.Params.EntryPrice,
		r.Params.Leverage, r.Params.TakeProfit, params,
		r.Summary.Orders, r.Summary.TotalVolume, r.Summary.TotalMargin, r.Summary.AvgPrice,
		r.Summary.ReqPrice, r.Summary.MaxDev,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders
		(run_id, seq, label, price_dev, price, avg_price, size, margin, volume,
		 req_price, req_change, pnl, tp, total_size, total_volume, total_margin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, o := range orders {
		_, err := stmt.ExecContext(ctx,
			r.RunID, i, o.Order, o.PriceDev, o.Price, o.AvgPrice, o.Size, o.Margin, o.Volume,
			o.ReqPrice, o.ReqChange, o.PnL, o.TP, o.TotalSize, o.TotalVolume, o.TotalMargin,
		)
		if err != nil {
			return fmt.Errorf("insert order %s: %w", o.Order, err)
		}
	}

	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
