// Package exchange parses exchange trading-rule payloads into the per-symbol
// filter data the ladder calculator consumes. It does no fetching: payloads
// are read from disk or from the rules cache by the caller.
package exchange

import (
	"errors"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/rustyeddy/dca/ladder"
)

const (
	ContractPerpetual = "PERPETUAL"
	StatusTrading     = "TRADING"
)

// Symbol is a tradable pair with its filters keyed by filter type.
type Symbol struct {
	Symbol string         `json:"symbol"`
	Coin   string         `json:"coin"`
	Rules  ladder.Filters `json:"rules"`
}

// LotSize resolves the lot-size rules of s, defaulting malformed values.
func (s Symbol) LotSize() ladder.ExchangeRules {
	return ladder.ResolveRules(s.Rules)
}

type product struct {
	Pair         string          `json:"pair"`
	Symbol       string          `json:"symbol"`
	BaseAsset    string          `json:"baseAsset"`
	ContractType string          `json:"contractType"`
	Status       string          `json:"status"`
	Filters      []ladder.Filter `json:"filters"`
}

type appData struct {
	PageData struct {
		Redux struct {
			Products struct {
				USDTFutures []product `json:"usdtFuturesProducts"`
			} `json:"products"`
		} `json:"redux"`
	} `json:"pageData"`
}

var ErrNoProducts = errors.New("exchange: payload holds no products")

// ParseTradingRules decodes a futures trading-rules payload. It accepts the
// page app data (pageData.redux.products.usdtFuturesProducts) or a bare
// product array. Only perpetual contracts currently trading are kept; the
// result is sorted by symbol.
func ParseTradingRules(data []byte) ([]Symbol, error) {
	products, err := decodeProducts(data)
	if err != nil {
		return nil, err
	}

	out := make([]Symbol, 0, len(products))
	for _, p := range products {
		if p.ContractType != ContractPerpetual || p.Status != StatusTrading {
			continue
		}
		name := p.Pair
		if name == "" {
			name = p.Symbol
		}
		out = append(out, Symbol{
			Symbol: name,
			Coin:   p.BaseAsset,
			Rules:  keyFilters(p.Filters),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func decodeProducts(data []byte) ([]product, error) {
	var list []product
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) == 0 {
			return nil, ErrNoProducts
		}
		return list, nil
	}

	var app appData
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("decode trading rules: %w", err)
	}
	products := app.PageData.Redux.Products.USDTFutures
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	return products, nil
}

func keyFilters(filters []ladder.Filter) ladder.Filters {
	out := make(ladder.Filters, len(filters))
	for _, f := range filters {
		typ, _ := f["filterType"].(string)
		if typ == "" {
			continue
		}
		out[typ] = f
	}
	return out
}

// Index maps symbols by name.
func Index(symbols []Symbol) map[string]Symbol {
	m := make(map[string]Symbol, len(symbols))
	for _, s := range symbols {
		m[s.Symbol] = s
	}
	return m
}
