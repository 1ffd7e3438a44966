package exchange

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// Bracket is one notional tier of a symbol's leverage schedule.
type Bracket struct {
	VolumeCap   float64 `json:"volume_cap"`
	MinLeverage float64 `json:"min_leverage"`
	MaxLeverage float64 `json:"max_leverage"`
}

// SymbolBrackets is the leverage schedule of one symbol, ordered by cap.
type SymbolBrackets struct {
	Symbol   string    `json:"symbol"`
	Brackets []Bracket `json:"brackets"`
}

type bracketsPayload struct {
	Data struct {
		Brackets []struct {
			Symbol       string `json:"symbol"`
			RiskBrackets []struct {
				BracketNotionalCap float64 `json:"bracketNotionalCap"`
				MinOpenPosLeverage float64 `json:"minOpenPosLeverage"`
				MaxOpenPosLeverage float64 `json:"maxOpenPosLeverage"`
			} `json:"riskBrackets"`
		} `json:"brackets"`
	} `json:"data"`
}

// ParseBrackets decodes a leverage-bracket payload (data.brackets[].riskBrackets[]).
func ParseBrackets(data []byte) ([]SymbolBrackets, error) {
	var p bracketsPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode brackets: %w", err)
	}

	out := make([]SymbolBrackets, 0, len(p.Data.Brackets))
	for _, b := range p.Data.Brackets {
		sb := SymbolBrackets{Symbol: b.Symbol}
		for _, rb := range b.RiskBrackets {
			sb.Brackets = append(sb.Brackets, Bracket{
				VolumeCap:   rb.BracketNotionalCap,
				MinLeverage: rb.MinOpenPosLeverage,
				MaxLeverage: rb.MaxOpenPosLeverage,
			})
		}
		sort.Slice(sb.Brackets, func(i, j int) bool {
			return sb.Brackets[i].VolumeCap < sb.Brackets[j].VolumeCap
		})
		out = append(out, sb)
	}
	return out, nil
}

// For returns the bracket a position of the given notional falls into.
// ok is false when the notional exceeds the last cap.
func (sb SymbolBrackets) For(notional float64) (Bracket, bool) {
	for _, b := range sb.Brackets {
		if notional <= b.VolumeCap {
			return b, true
		}
	}
	return Bracket{}, false
}

// MaxLeverage is the highest leverage allowed for notional, 0 if none is.
func (sb SymbolBrackets) MaxLeverage(notional float64) float64 {
	b, ok := sb.For(notional)
	if !ok {
		return 0
	}
	return b.MaxLeverage
}

// IndexBrackets maps leverage schedules by symbol.
func IndexBrackets(all []SymbolBrackets) map[string]SymbolBrackets {
	m := make(map[string]SymbolBrackets, len(all))
	for _, sb := range all {
		m[sb.Symbol] = sb
	}
	return m
}
