// Package journal records computed ladders so they can be reviewed later.
package journal

import (
	"context"
	"time"

	"github.com/rustyeddy/dca/ladder"
)

// Run is one ladder computation.
type Run struct {
	RunID   string
	Created time.Time
	Symbol  string // empty when rules were given inline
	Params  ladder.Params
	Summary ladder.Summary
}

type Journal interface {
	RecordRun(ctx context.Context, run Run, orders []ladder.OrderRecord) error
	Close() error
}
