package risk

import (
	"fmt"

	"github.com/rustyeddy/dca/exchange"
	"github.com/rustyeddy/dca/ladder"
)

const (
	CodeMarginOverBalance   = "MARGIN_OVER_BALANCE"
	CodeLeverageOverBracket = "LEVERAGE_OVER_BRACKET"
	CodeNotionalOverBracket = "NOTIONAL_OVER_BRACKET"
	CodeDeviationTooDeep    = "DEVIATION_TOO_DEEP"
)

type Violation struct {
	Code string `json:"code" yaml:"code"`
	Msg  string `json:"msg" yaml:"msg"`
}

type Decision struct {
	Allowed    bool        `json:"allowed" yaml:"allowed"`
	Violations []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`

	// Highest leverage the symbol's bracket allows at the ladder's full
	// volume, 0 when no brackets were given.
	BracketLeverage float64 `json:"bracket_leverage,omitempty" yaml:"bracket_leverage,omitempty"`
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks a fully filled ladder against p and, when brackets is not
// nil, against the symbol's leverage schedule.
func Evaluate(
	p Policy,
	s ladder.Summary,
	balance float64,
	leverage float64,
	brackets *exchange.SymbolBrackets,
) Decision {
	d := Decision{Allowed: true}

	if p.MaxBalanceUsed > 0 {
		if balance <= 0 {
			d.add(CodeMarginOverBalance, "no balance to hold margin")
		} else if used := s.TotalMargin / balance; used > p.MaxBalanceUsed {
			d.add(CodeMarginOverBalance,
				fmt.Sprintf("ladder margin %.2f is %.2f%% of balance, max %.2f%%",
					s.TotalMargin, 100*used, 100*p.MaxBalanceUsed))
		}
	}

	if p.MaxDeviation > 0 && s.MaxDev > p.MaxDeviation {
		d.add(CodeDeviationTooDeep,
			fmt.Sprintf("deepest safety order at %.2f%% exceeds max %.2f%%", s.MaxDev, p.MaxDeviation))
	}

	if brackets != nil {
		b, ok := brackets.For(s.TotalVolume)
		switch {
		case !ok:
			d.add(CodeNotionalOverBracket,
				fmt.Sprintf("%s volume %.2f exceeds the largest leverage bracket", brackets.Symbol, s.TotalVolume))
		case leverage > b.MaxLeverage:
			d.BracketLeverage = b.MaxLeverage
			d.add(CodeLeverageOverBracket,
				fmt.Sprintf("leverage %gx exceeds %gx allowed for %s at volume %.2f",
					leverage, b.MaxLeverage, brackets.Symbol, s.TotalVolume))
		default:
			d.BracketLeverage = b.MaxLeverage
		}
	}

	return d
}
