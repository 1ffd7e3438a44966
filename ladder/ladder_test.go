package ladder

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lotRules(step, minQty string) Filters {
	return Filters{LotSizeFilter: {"stepSize": step, "minQty": minQty}}
}

func sampleParams() Params {
	return Params{
		Balance:    1000,
		EntryPrice: 100,
		Rules:      lotRules("0.01", "0.01"),
		BaseOrder:  OrderPolicy{Value: 10},
		SafetyOrder: SafetyOrderPolicy{
			OrderPolicy: OrderPolicy{Value: 20},
			Count:       2,
			StepScale:   2,
			PriceDev:    1,
			VolumeScale: 2,
		},
		TakeProfit: 1,
		Leverage:   5,
	}
}

func TestComputeWorkedExample(t *testing.T) {
	t.Parallel()

	got, err := Compute(sampleParams())
	require.NoError(t, err)
	require.Len(t, got, 3)

	bo := got[0]
	assert.Equal(t, BaseOrderLabel, bo.Order)
	assert.InDelta(t, 0.1, bo.Size, 1e-12)
	assert.InDelta(t, 10.0, bo.Volume, 1e-9)
	assert.InDelta(t, 2.0, bo.Margin, 1e-9)
	assert.InDelta(t, 101.0, bo.ReqPrice, 1e-9)
	assert.InDelta(t, 0.1, bo.TP, 1e-9)

	so1 := got[1]
	assert.Equal(t, "1", so1.Order)
	assert.InDelta(t, -1.0, so1.PriceDev, 1e-12)
	assert.InDelta(t, 99.0, so1.Price, 1e-9)
	assert.InDelta(t, 0.21, so1.Size, 1e-12)
	assert.InDelta(t, 20.79, so1.Volume, 1e-9)
	assert.InDelta(t, 20.79/5, so1.Margin, 1e-9)
	assert.InDelta(t, 30.79, so1.TotalVolume, 1e-9)
	assert.InDelta(t, 0.31, so1.TotalSize, 1e-12)
	assert.InDelta(t, 30.79/0.31, so1.AvgPrice, 1e-9)

	so2 := got[2]
	assert.Equal(t, "2", so2.Order)
	assert.InDelta(t, -3.0, so2.PriceDev, 1e-12)
	assert.InDelta(t, 97.0, so2.Price, 1e-9)
	assert.InDelta(t, 0.42, so2.Size, 1e-12)
	assert.InDelta(t, 40.74, so2.Volume, 1e-9)
	assert.InDelta(t, 71.53, so2.TotalVolume, 1e-9)
	assert.InDelta(t, 0.73, so2.TotalSize, 1e-12)
	assert.InDelta(t, 71.53/5, so2.TotalMargin, 1e-9)

	avg := 71.53 / 0.73
	assert.InDelta(t, avg*1.01, so2.ReqPrice, 1e-9)
	assert.InDelta(t, (avg*1.01/97-1)*100, so2.ReqChange, 1e-9)
	assert.InDelta(t, -(1-97/avg)*71.53, so2.PnL, 1e-9)
	assert.InDelta(t, 71.53*0.01, so2.TP, 1e-9)
}

func TestComputeBaseOrderOnly(t *testing.T) {
	t.Parallel()

	p := Params{
		Balance:    1000,
		EntryPrice: 100,
		Rules:      lotRules("0.001", "0.001"),
		BaseOrder:  OrderPolicy{Value: 10, Type: PercentType},
		TakeProfit: 1.5,
		Leverage:   10,
	}

	got, err := Compute(p)
	require.NoError(t, err)
	require.Len(t, got, 1)

	bo := got[0]
	assert.Equal(t, BaseOrderLabel, bo.Order)
	assert.Equal(t, 0.0, bo.PriceDev)
	assert.Equal(t, 100.0, bo.AvgPrice)
	assert.Equal(t, 0.0, bo.PnL)
	assert.Equal(t, 1.5, bo.ReqChange)
	assert.InDelta(t, 1.0, bo.Size, 1e-12)
	assert.InDelta(t, 100.0, bo.TotalVolume, 1e-9)
	assert.InDelta(t, bo.TotalVolume/10, bo.Margin, 1e-12)
	assert.Equal(t, bo.Size, bo.TotalSize)
	assert.Equal(t, bo.Volume, bo.TotalVolume)
	assert.Equal(t, bo.Margin, bo.TotalMargin)
}

func TestComputeMinQtyClamp(t *testing.T) {
	t.Parallel()

	p := Params{
		EntryPrice: 100,
		Rules:      lotRules("1", "5"),
		BaseOrder:  OrderPolicy{Value: 50},
		Leverage:   1,
	}

	got, err := Compute(p)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got[0].Size, 1e-12)
	assert.InDelta(t, 500.0, got[0].Volume, 1e-9)
}

func TestComputeLadderInvariants(t *testing.T) {
	t.Parallel()

	p := sampleParams()
	p.Balance = 5000
	p.BaseOrder = OrderPolicy{Value: 2, Type: PercentType}
	p.SafetyOrder = SafetyOrderPolicy{
		OrderPolicy: OrderPolicy{Value: 1, Type: PercentType},
		Count:       12,
		StepScale:   1.05,
		PriceDev:    2,
		VolumeScale: 1.2,
	}
	p.Rules = lotRules("0.001", "0.002")

	got, err := Compute(p)
	require.NoError(t, err)
	require.Len(t, got, 13)

	for i, o := range got {
		if i == 0 {
			assert.Equal(t, BaseOrderLabel, o.Order)
		} else {
			assert.Equal(t, strconv.Itoa(i), o.Order)
		}
		assert.GreaterOrEqual(t, o.Size, 0.002)
		assert.True(t, isMultiple(o.Size, 0.001), "order %s size %v", o.Order, o.Size)
		assert.Equal(t, o.TotalVolume/o.TotalSize, o.AvgPrice, "order %s", o.Order)

		if i > 0 {
			prev := got[i-1]
			assert.Greater(t, o.TotalSize, prev.TotalSize)
			assert.Greater(t, o.TotalVolume, prev.TotalVolume)
			assert.Greater(t, o.TotalMargin, prev.TotalMargin)
			assert.Less(t, o.PriceDev, prev.PriceDev)
			assert.Less(t, o.AvgPrice, prev.AvgPrice)
			assert.LessOrEqual(t, o.PnL, 0.0)
		}
	}

	last := got[len(got)-1]
	assert.Equal(t, last.TotalVolume/last.TotalSize, last.AvgPrice)
}

func TestComputeIsDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Compute(sampleParams())
	require.NoError(t, err)
	b, err := Compute(sampleParams())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeMalformedRulesUseDefaults(t *testing.T) {
	t.Parallel()

	p := sampleParams()
	p.Rules = Filters{LotSizeFilter: {"stepSize": "n/a"}}

	got, err := Compute(p)
	require.NoError(t, err)
	for _, o := range got {
		assert.True(t, isMultiple(o.Size, DefaultStepSize), "order %s size %v", o.Order, o.Size)
	}
	assert.InDelta(t, 0.1, got[0].Size, 1e-12)
}

func TestComputeZeroDirectionIsLong(t *testing.T) {
	t.Parallel()

	p := sampleParams()
	p.Short = false

	got, err := Compute(p)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, got[1].PriceDev, 1e-12)
	assert.InDelta(t, 99.0, got[1].Price, 1e-9)
	assert.InDelta(t, 101.0, got[0].ReqPrice, 1e-9)
}

func TestComputeShort(t *testing.T) {
	t.Parallel()

	p := sampleParams()
	p.Short = true

	got, err := Compute(p)
	require.NoError(t, err)
	require.Len(t, got, 3)

	bo := got[0]
	assert.InDelta(t, 99.0, bo.ReqPrice, 1e-9)
	assert.Equal(t, -1.0, bo.ReqChange)

	for _, o := range got[1:] {
		assert.Greater(t, o.PriceDev, 0.0)
		assert.Greater(t, o.Price, p.EntryPrice)
		assert.Less(t, o.ReqPrice, o.AvgPrice)
		assert.Less(t, o.ReqChange, 0.0)
		assert.LessOrEqual(t, o.PnL, 0.0)
	}
	assert.InDelta(t, 1.0, got[1].PriceDev, 1e-12)
	assert.InDelta(t, 3.0, got[2].PriceDev, 1e-12)
}

func TestComputeInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mod   func(p *Params)
		field string
	}{
		{"zero entry price", func(p *Params) { p.EntryPrice = 0 }, "entry_price"},
		{"negative entry price", func(p *Params) { p.EntryPrice = -1 }, "entry_price"},
		{"zero leverage", func(p *Params) { p.Leverage = 0 }, "leverage"},
		{"nan take profit", func(p *Params) { p.TakeProfit = math.NaN() }, "take_profit"},
		{"inf balance", func(p *Params) { p.Balance = math.Inf(1) }, "balance"},
		{"zero base order", func(p *Params) { p.BaseOrder.Value = 0 }, "base_order.value"},
		{"percent of empty balance", func(p *Params) {
			p.Balance = 0
			p.BaseOrder.Type = PercentType
		}, "base_order.value"},
		{"negative count", func(p *Params) { p.SafetyOrder.Count = -1 }, "safety_order.count"},
		{"count over maximum", func(p *Params) { p.SafetyOrder.Count = MaxSafetyOrders + 1 }, "safety_order.count"},
		{"huge count", func(p *Params) { p.SafetyOrder.Count = math.MaxInt }, "safety_order.count"},
		{"zero safety order", func(p *Params) { p.SafetyOrder.Value = 0 }, "safety_order.value"},
		{"zero volume scale", func(p *Params) { p.SafetyOrder.VolumeScale = 0 }, "safety_order.volume_scale"},
		{"deviation through zero", func(p *Params) {
			p.SafetyOrder.PriceDev = 50
			p.SafetyOrder.StepScale = 1
		}, "safety_order.price_dev"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := sampleParams()
			tt.mod(&p)

			got, err := Compute(p)
			assert.Nil(t, got)

			var ie *InvalidInputError
			require.True(t, errors.As(err, &ie), "got %v", err)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestComputeMaxSafetyOrders(t *testing.T) {
	t.Parallel()

	p := sampleParams()
	p.SafetyOrder.Count = MaxSafetyOrders
	p.SafetyOrder.StepScale = 1
	p.SafetyOrder.PriceDev = 0.01
	p.SafetyOrder.VolumeScale = 1

	got, err := Compute(p)
	require.NoError(t, err)
	assert.Len(t, got, 1+MaxSafetyOrders)
}

func TestComputeNoSafetyOrdersIgnoresSafetyPolicy(t *testing.T) {
	t.Parallel()

	p := sampleParams()
	p.SafetyOrder = SafetyOrderPolicy{}

	got, err := Compute(p)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
