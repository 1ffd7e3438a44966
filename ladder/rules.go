package ladder

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// LotSizeFilter is the filter type carrying step size and minimum quantity.
	LotSizeFilter = "LOT_SIZE"

	DefaultStepSize = 1e-6
	DefaultMinQty   = 1e-6
)

// Filter is a single exchange filter, field name to value. Values arrive as
// numbers or numeric strings depending on the source.
type Filter map[string]any

// Filters is the filter data of one symbol keyed by filter type.
type Filters map[string]Filter

// ExchangeRules are the lot-size constraints an order size must satisfy.
type ExchangeRules struct {
	StepSize float64 `json:"step_size" yaml:"step_size"`
	MinQty   float64 `json:"min_qty" yaml:"min_qty"`
}

// DefaultRules is used for exchanges that publish no granularity.
func DefaultRules() ExchangeRules {
	return ExchangeRules{StepSize: DefaultStepSize, MinQty: DefaultMinQty}
}

// ResolveRules extracts the lot-size rules from f. Each field falls back to
// its default on its own when missing, malformed or not strictly positive.
// A nil f yields DefaultRules.
func ResolveRules(f Filters) ExchangeRules {
	lot := f[LotSizeFilter]
	return ExchangeRules{
		StepSize: resolveOrDefault(lot["stepSize"], DefaultStepSize),
		MinQty:   resolveOrDefault(lot["minQty"], DefaultMinQty),
	}
}

// Filters renders r back into filter form, e.g. for rules given in a config file.
func (r ExchangeRules) Filters() Filters {
	return Filters{
		LotSizeFilter: Filter{
			"stepSize": r.StepSize,
			"minQty":   r.MinQty,
		},
	}
}

func resolveOrDefault(v any, def float64) float64 {
	x, ok := toFloat(v)
	if !ok || math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
		return def
	}
	return x
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	default:
		return 0, false
	}
}
