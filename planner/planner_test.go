package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rustyeddy/dca/cache"
	"github.com/rustyeddy/dca/exchange"
	"github.com/rustyeddy/dca/journal"
	"github.com/rustyeddy/dca/ladder"
	"github.com/rustyeddy/dca/risk"
)

func testParams() ladder.Params {
	return ladder.Params{
		Balance:    1000,
		EntryPrice: 100,
		BaseOrder:  ladder.OrderPolicy{Value: 10},
		SafetyOrder: ladder.SafetyOrderPolicy{
			OrderPolicy: ladder.OrderPolicy{Value: 20},
			Count:       2,
			StepScale:   2,
			PriceDev:    1,
			VolumeScale: 2,
		},
		TakeProfit: 1,
		Leverage:   5,
	}
}

func newCache(t *testing.T) *cache.Cache {
	t.Helper()

	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), cache.Token)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.StoreRules(ctx, []exchange.Symbol{{
		Symbol: "BTCUSDT",
		Coin:   "BTC",
		Rules:  ladder.Filters{ladder.LotSizeFilter: {"stepSize": "0.01", "minQty": "0.01"}},
	}}))
	require.NoError(t, c.StoreBrackets(ctx, []exchange.SymbolBrackets{{
		Symbol:   "BTCUSDT",
		Brackets: []exchange.Bracket{{VolumeCap: 50, MinLeverage: 1, MaxLeverage: 20}, {VolumeCap: 1e6, MinLeverage: 1, MaxLeverage: 4}},
	}}))
	return c
}

func TestPlanWithSymbol(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	p := New(zap.New(core),
		WithRules(newCache(t), cache.DefaultTTL),
		WithJournal(j),
		WithPolicy(risk.Policy{MaxBalanceUsed: 0.5}),
	)

	ctx := context.Background()
	plan, err := p.Plan(ctx, Request{Symbol: "BTCUSDT", Params: testParams()})
	require.NoError(t, err)

	assert.NotEmpty(t, plan.RunID)
	assert.Equal(t, ladder.ExchangeRules{StepSize: 0.01, MinQty: 0.01}, plan.Rules)
	require.Len(t, plan.Orders, 3)
	assert.InDelta(t, 0.21, plan.Orders[1].Size, 1e-12)
	assert.InDelta(t, 71.53, plan.Summary.TotalVolume, 1e-9)

	// 71.53 of volume sits in the 4x bracket, the ladder asks for 5x
	assert.False(t, plan.Decision.Allowed)
	require.Len(t, plan.Decision.Violations, 1)
	assert.Equal(t, risk.CodeLeverageOverBracket, plan.Decision.Violations[0].Code)
	assert.Equal(t, 4.0, plan.Decision.BracketLeverage)
	assert.Equal(t, 1, logs.FilterMessage("ladder violates risk policy").Len())

	run, err := j.GetRun(ctx, plan.RunID)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", run.Symbol)
	orders, err := j.ListOrders(ctx, plan.RunID)
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestPlanInlineRules(t *testing.T) {
	t.Parallel()

	params := testParams()
	params.Rules = ladder.Filters{ladder.LotSizeFilter: {"stepSize": "1", "minQty": "5"}}
	params.SafetyOrder.Count = 0

	p := New(zap.NewNop())
	plan, err := p.Plan(context.Background(), Request{Params: params})
	require.NoError(t, err)
	require.Len(t, plan.Orders, 1)
	assert.InDelta(t, 5.0, plan.Orders[0].Size, 1e-12)
	assert.True(t, plan.Decision.Allowed)
}

func TestPlanErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := New(zap.NewNop()).Plan(ctx, Request{Symbol: "BTCUSDT", Params: testParams()})
	assert.ErrorIs(t, err, ErrNoRulesSource)

	withCache := New(zap.NewNop(), WithRules(newCache(t), cache.DefaultTTL))
	_, err = withCache.Plan(ctx, Request{Symbol: "DOGEUSDT", Params: testParams()})
	assert.ErrorIs(t, err, cache.ErrUnknownSymbol)

	bad := testParams()
	bad.Leverage = 0
	_, err = withCache.Plan(ctx, Request{Params: bad})
	var ie *ladder.InvalidInputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "leverage", ie.Field)
}

type noBrackets struct{ sym exchange.Symbol }

func (n noBrackets) Symbol(context.Context, string, time.Duration) (exchange.Symbol, error) {
	return n.sym, nil
}

func (noBrackets) Brackets(context.Context, string, time.Duration) (exchange.SymbolBrackets, bool, error) {
	return exchange.SymbolBrackets{}, false, cache.ErrNotCached
}

func TestPlanWithoutBrackets(t *testing.T) {
	t.Parallel()

	src := noBrackets{sym: exchange.Symbol{Symbol: "ETHUSDT"}}
	p := New(zap.NewNop(), WithRules(src, time.Hour))

	plan, err := p.Plan(context.Background(), Request{Symbol: "ETHUSDT", Params: testParams()})
	require.NoError(t, err)
	assert.Equal(t, ladder.DefaultRules(), plan.Rules)
	assert.True(t, plan.Decision.Allowed)
	assert.Zero(t, plan.Decision.BracketLeverage)
}
