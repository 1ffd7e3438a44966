package cmd

import (
	"fmt"

	"github.com/rustyeddy/dca/cache"
	"github.com/rustyeddy/dca/journal"
	"github.com/rustyeddy/dca/planner"
	"github.com/rustyeddy/dca/risk"
)

// buildPlanner wires the planner from the loaded config. The returned
// closer releases the cache and journal.
func buildPlanner(withRules, withJournal bool) (*planner.Planner, *cache.Cache, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	opts := []planner.Option{
		planner.WithPolicy(risk.Policy{
			MaxBalanceUsed: cfg.Risk.MaxBalanceUsed,
			MaxDeviation:   cfg.Risk.MaxDeviation,
		}),
	}

	var c *cache.Cache
	if withRules {
		ttl, err := cfg.Rules.TTL()
		if err != nil {
			return nil, nil, closeAll, err
		}
		c, err = openCache()
		if err != nil {
			return nil, nil, closeAll, err
		}
		closers = append(closers, c.Close)
		opts = append(opts, planner.WithRules(c, ttl))
	}

	if withJournal {
		j, err := openJournal()
		if err != nil {
			closeAll()
			return nil, nil, func() {}, err
		}
		if j != nil {
			closers = append(closers, j.Close)
			opts = append(opts, planner.WithJournal(j))
		}
	}

	return planner.New(log, opts...), c, closeAll, nil
}

func openJournal() (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return j, nil
	default:
		return nil, nil
	}
}
