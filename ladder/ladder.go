// Package ladder computes DCA order ladders: a base order followed by
// safety orders placed at widening price deviations, each sized to the
// exchange's lot-size rules.
package ladder

import (
	"math"
	"strconv"
)

// BaseOrderLabel is the Order label of the first row of every ladder.
const BaseOrderLabel = "BO"

// MaxSafetyOrders bounds SafetyOrderPolicy.Count so a ladder always fits in
// memory.
const MaxSafetyOrders = 1000

// Params are the inputs of Compute.
type Params struct {
	Balance     float64           `json:"balance" yaml:"balance"`
	EntryPrice  float64           `json:"entry_price" yaml:"entry_price"`
	Rules       Filters           `json:"rules,omitempty" yaml:"rules,omitempty"`
	BaseOrder   OrderPolicy       `json:"base_order" yaml:"base_order"`
	SafetyOrder SafetyOrderPolicy `json:"safety_order" yaml:"safety_order"`
	TakeProfit  float64           `json:"take_profit" yaml:"take_profit"` // %
	Leverage    float64           `json:"leverage" yaml:"leverage"`

	// Short mirrors the ladder upward for a short position. The zero value
	// computes a long ladder.
	Short bool `json:"short,omitempty" yaml:"short,omitempty"`
}

// OrderRecord is one row of the ladder. Fields prefixed Total are running
// values through this order.
type OrderRecord struct {
	Order     string  `json:"order" yaml:"order"`
	PriceDev  float64 `json:"price_dev" yaml:"price_dev"`
	Price     float64 `json:"price" yaml:"price"`
	AvgPrice  float64 `json:"avg_price" yaml:"avg_price"`
	Size      float64 `json:"size" yaml:"size"`
	Margin    float64 `json:"margin" yaml:"margin"`
	Volume    float64 `json:"volume" yaml:"volume"`
	ReqPrice  float64 `json:"req_price" yaml:"req_price"`
	ReqChange float64 `json:"req_change" yaml:"req_change"`
	PnL       float64 `json:"pnl" yaml:"pnl"`
	TP        float64 `json:"tp" yaml:"tp"`

	TotalSize   float64 `json:"total_size" yaml:"total_size"`
	TotalVolume float64 `json:"total_volume" yaml:"total_volume"`
	TotalMargin float64 `json:"total_margin" yaml:"total_margin"`
}

// Compute builds the ladder for p. The result always holds
// 1+p.SafetyOrder.Count records, base order first.
//
// Missing or malformed lot-size rules fall back to the defaults. Inputs that
// would make the arithmetic undefined are rejected with *InvalidInputError.
func Compute(p Params) ([]OrderRecord, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	rules := ResolveRules(p.Rules)
	boVolume := p.BaseOrder.Volume(p.Balance)
	soVolume := p.SafetyOrder.Volume(p.Balance)
	so := p.SafetyOrder

	devs := Deviations(so.Count, so.StepScale, so.PriceDev, !p.Short)
	for i, dev := range devs {
		if price := p.EntryPrice * (1 + dev/100); price <= 0 {
			return nil, invalid("safety_order.price_dev", so.PriceDev,
				"safety order "+strconv.Itoa(i+1)+" would be placed at a non-positive price")
		}
	}

	totalSize, totalVolume := Quantize(boVolume, p.EntryPrice, rules.StepSize, rules.MinQty)
	bo := OrderRecord{
		Order:       BaseOrderLabel,
		PriceDev:    0,
		Price:       p.EntryPrice,
		AvgPrice:    p.EntryPrice,
		Size:        totalSize,
		Margin:      totalVolume / p.Leverage,
		Volume:      totalVolume,
		ReqPrice:    p.targetPrice(p.EntryPrice),
		ReqChange:   p.direction() * p.TakeProfit,
		PnL:         0,
		TP:          totalVolume * p.TakeProfit / 100,
		TotalSize:   totalSize,
		TotalVolume: totalVolume,
		TotalMargin: totalVolume / p.Leverage,
	}

	out := make([]OrderRecord, 0, 1+so.Count)
	out = append(out, bo)

	for i, dev := range devs {
		price := p.EntryPrice * (1 + dev/100)
		rawVolume := soVolume * math.Pow(so.VolumeScale, float64(i))
		size, volume := Quantize(rawVolume, price, rules.StepSize, rules.MinQty)

		totalVolume += volume
		totalSize += size
		avg := totalVolume / totalSize
		reqPrice := p.targetPrice(avg)

		out = append(out, OrderRecord{
			Order:       strconv.Itoa(i + 1),
			PriceDev:    dev,
			Price:       price,
			AvgPrice:    avg,
			Size:        size,
			Margin:      volume / p.Leverage,
			Volume:      volume,
			ReqPrice:    reqPrice,
			ReqChange:   (reqPrice/price - 1) * 100,
			PnL:         -p.direction() * (1 - price/avg) * totalVolume,
			TP:          totalVolume * p.TakeProfit / 100,
			TotalSize:   totalSize,
			TotalVolume: totalVolume,
			TotalMargin: totalVolume / p.Leverage,
		})
	}

	return out, nil
}

// direction is +1 for long ladders and -1 for short ones.
func (p Params) direction() float64 {
	if p.Short {
		return -1
	}
	return 1
}

// targetPrice is the take-profit price for a position averaged at avg.
func (p Params) targetPrice(avg float64) float64 {
	return avg * (1 + p.direction()*p.TakeProfit/100)
}

func (p Params) validate() error {
	checks := []struct {
		field string
		v     float64
	}{
		{"balance", p.Balance},
		{"entry_price", p.EntryPrice},
		{"base_order.value", p.BaseOrder.Value},
		{"safety_order.value", p.SafetyOrder.Value},
		{"safety_order.step_scale", p.SafetyOrder.StepScale},
		{"safety_order.price_dev", p.SafetyOrder.PriceDev},
		{"safety_order.volume_scale", p.SafetyOrder.VolumeScale},
		{"take_profit", p.TakeProfit},
		{"leverage", p.Leverage},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return invalid(c.field, c.v, "must be a finite number")
		}
	}

	if p.EntryPrice <= 0 {
		return invalid("entry_price", p.EntryPrice, "must be positive")
	}
	if p.Leverage <= 0 {
		return invalid("leverage", p.Leverage, "must be positive")
	}
	if v := p.BaseOrder.Volume(p.Balance); v <= 0 {
		return invalid("base_order.value", v, "resolved base order volume must be positive")
	}

	so := p.SafetyOrder
	if so.Count < 0 {
		return invalid("safety_order.count", float64(so.Count), "must not be negative")
	}
	if so.Count > MaxSafetyOrders {
		return invalid("safety_order.count", float64(so.Count),
			"exceeds maximum of "+strconv.Itoa(MaxSafetyOrders))
	}
	if so.Count == 0 {
		return nil
	}
	if v := so.Volume(p.Balance); v <= 0 {
		return invalid("safety_order.value", v, "resolved safety order volume must be positive")
	}
	if so.Count > 1 && so.VolumeScale <= 0 {
		return invalid("safety_order.volume_scale", so.VolumeScale, "must be positive")
	}
	return nil
}
