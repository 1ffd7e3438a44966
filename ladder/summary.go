package ladder

import "math"

// Summary condenses a ladder into the figures needed to judge it.
type Summary struct {
	Orders      int     `json:"orders" yaml:"orders"`
	TotalSize   float64 `json:"total_size" yaml:"total_size"`
	TotalVolume float64 `json:"total_volume" yaml:"total_volume"`
	TotalMargin float64 `json:"total_margin" yaml:"total_margin"`
	MaxMargin   float64 `json:"max_margin" yaml:"max_margin"` // largest single-order margin
	AvgPrice    float64 `json:"avg_price" yaml:"avg_price"`
	MaxDev      float64 `json:"max_dev" yaml:"max_dev"` // deepest |price_dev|, %
	LastPrice   float64 `json:"last_price" yaml:"last_price"`
	ReqPrice    float64 `json:"req_price" yaml:"req_price"`
	ReqChange   float64 `json:"req_change" yaml:"req_change"`
	TP          float64 `json:"tp" yaml:"tp"`
	BalanceUsed float64 `json:"balance_used" yaml:"balance_used"` // total margin / balance, 0 when balance <= 0
}

// Summarize reads the running totals of the last record of orders.
func Summarize(orders []OrderRecord, balance float64) Summary {
	if len(orders) == 0 {
		return Summary{}
	}

	last := orders[len(orders)-1]
	s := Summary{
		Orders:      len(orders),
		TotalSize:   last.TotalSize,
		TotalVolume: last.TotalVolume,
		TotalMargin: last.TotalMargin,
		AvgPrice:    last.AvgPrice,
		LastPrice:   last.Price,
		ReqPrice:    last.ReqPrice,
		ReqChange:   last.ReqChange,
		TP:          last.TP,
	}
	for _, o := range orders {
		s.MaxMargin = math.Max(s.MaxMargin, o.Margin)
		s.MaxDev = math.Max(s.MaxDev, math.Abs(o.PriceDev))
	}
	if balance > 0 {
		s.BalanceUsed = s.TotalMargin / balance
	}
	return s
}
