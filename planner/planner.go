// Package planner turns a ladder request into a reviewed, journaled plan:
// it resolves the symbol's rules, computes the ladder, checks it against the
// risk policy and records the run.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/dca/cache"
	"github.com/rustyeddy/dca/exchange"
	"github.com/rustyeddy/dca/journal"
	"github.com/rustyeddy/dca/ladder"
	"github.com/rustyeddy/dca/metrics"
	"github.com/rustyeddy/dca/pkg/id"
	"github.com/rustyeddy/dca/risk"
)

// RulesSource supplies cached exchange data. *cache.Cache implements it.
type RulesSource interface {
	Symbol(ctx context.Context, name string, ttl time.Duration) (exchange.Symbol, error)
	Brackets(ctx context.Context, name string, ttl time.Duration) (exchange.SymbolBrackets, bool, error)
}

// ErrNoRulesSource is returned for a symbol request when no cache is configured.
var ErrNoRulesSource = errors.New("planner: symbol given but no rules cache configured")

type Planner struct {
	rules   RulesSource
	ttl     time.Duration
	journal journal.Journal
	policy  risk.Policy
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Planner)

// WithRules resolves symbols through src; entries older than ttl are ignored.
func WithRules(src RulesSource, ttl time.Duration) Option {
	return func(p *Planner) {
		p.rules = src
		p.ttl = ttl
	}
}

// WithJournal records every successful plan to j.
func WithJournal(j journal.Journal) Option {
	return func(p *Planner) { p.journal = j }
}

func WithPolicy(policy risk.Policy) Option {
	return func(p *Planner) { p.policy = policy }
}

func New(log *zap.Logger, opts ...Option) *Planner {
	p := &Planner{
		ttl: cache.DefaultTTL,
		log: log,
		now: time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Request asks for a ladder. When Symbol is set its cached lot-size filters
// replace Params.Rules.
type Request struct {
	Symbol string
	Params ladder.Params
}

type Plan struct {
	RunID    string               `json:"run_id" yaml:"run_id"`
	Symbol   string               `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Rules    ladder.ExchangeRules `json:"rules" yaml:"rules"`
	Orders   []ladder.OrderRecord `json:"orders" yaml:"orders"`
	Summary  ladder.Summary       `json:"summary" yaml:"summary"`
	Decision risk.Decision        `json:"decision" yaml:"decision"`
}

// Plan computes, evaluates and journals a ladder. Invalid inputs come back
// as *ladder.InvalidInputError.
func (p *Planner) Plan(ctx context.Context, req Request) (Plan, error) {
	params := req.Params

	var brackets *exchange.SymbolBrackets
	if req.Symbol != "" {
		if p.rules == nil {
			return Plan{}, ErrNoRulesSource
		}
		sym, err := p.rules.Symbol(ctx, req.Symbol, p.ttl)
		if err != nil {
			return Plan{}, fmt.Errorf("rules for %s: %w", req.Symbol, err)
		}
		params.Rules = sym.Rules

		sb, found, err := p.rules.Brackets(ctx, req.Symbol, p.ttl)
		switch {
		case errors.Is(err, cache.ErrNotCached):
			p.log.Debug("no leverage brackets cached", zap.String("symbol", req.Symbol))
		case err != nil:
			return Plan{}, fmt.Errorf("brackets for %s: %w", req.Symbol, err)
		case found:
			brackets = &sb
		}
	}

	orders, err := ladder.Compute(params)
	if err != nil {
		var ie *ladder.InvalidInputError
		if errors.As(err, &ie) {
			metrics.InvalidInputs.WithLabelValues(ie.Field).Inc()
		}
		return Plan{}, err
	}
	metrics.LaddersComputed.WithLabelValues(metrics.Direction(!params.Short)).Inc()
	metrics.LadderOrders.Observe(float64(len(orders)))

	created := p.now()
	plan := Plan{
		RunID:   id.NewAt(created),
		Symbol:  req.Symbol,
		Rules:   ladder.ResolveRules(params.Rules),
		Orders:  orders,
		Summary: ladder.Summarize(orders, params.Balance),
	}
	plan.Decision = risk.Evaluate(p.policy, plan.Summary, params.Balance, params.Leverage, brackets)

	p.log.Info("ladder computed",
		zap.String("run_id", plan.RunID),
		zap.String("symbol", req.Symbol),
		zap.Int("orders", len(orders)),
		zap.Float64("total_volume", plan.Summary.TotalVolume),
		zap.Float64("total_margin", plan.Summary.TotalMargin),
		zap.Bool("allowed", plan.Decision.Allowed),
	)
	for _, v := range plan.Decision.Violations {
		p.log.Warn("ladder violates risk policy",
			zap.String("run_id", plan.RunID),
			zap.String("code", v.Code),
			zap.String("msg", v.Msg),
		)
	}

	if p.journal != nil {
		run := journal.Run{
			RunID:   plan.RunID,
			Created: created,
			Symbol:  req.Symbol,
			Params:  params,
			Summary: plan.Summary,
		}
		if err := p.journal.RecordRun(ctx, run, orders); err != nil {
			return plan, fmt.Errorf("journal run %s: %w", plan.RunID, err)
		}
	}

	return plan, nil
}
