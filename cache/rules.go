package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/dca/exchange"
)

const (
	RulesKey    = "rules"
	BracketsKey = "brackets"
)

var (
	// ErrNotCached is returned when the requested exchange data is missing or stale.
	ErrNotCached = errors.New("cache: exchange data not cached or expired")

	ErrUnknownSymbol = errors.New("cache: unknown symbol")
)

// StoreRules caches parsed trading rules.
func (c *Cache) StoreRules(ctx context.Context, symbols []exchange.Symbol) error {
	return c.Put(ctx, RulesKey, symbols)
}

// StoreBrackets caches parsed leverage brackets.
func (c *Cache) StoreBrackets(ctx context.Context, brackets []exchange.SymbolBrackets) error {
	return c.Put(ctx, BracketsKey, brackets)
}

// Symbol looks up the cached rules of one symbol.
func (c *Cache) Symbol(ctx context.Context, name string, ttl time.Duration) (exchange.Symbol, error) {
	var symbols []exchange.Symbol
	ok, err := c.Get(ctx, RulesKey, ttl, &symbols)
	if err != nil {
		return exchange.Symbol{}, err
	}
	if !ok {
		return exchange.Symbol{}, ErrNotCached
	}

	s, found := exchange.Index(symbols)[name]
	if !found {
		return exchange.Symbol{}, fmt.Errorf("%w %q", ErrUnknownSymbol, name)
	}
	return s, nil
}

// Brackets looks up the cached leverage schedule of one symbol. found is
// false when brackets are cached but the symbol has none.
func (c *Cache) Brackets(ctx context.Context, name string, ttl time.Duration) (sb exchange.SymbolBrackets, found bool, err error) {
	var all []exchange.SymbolBrackets
	ok, err := c.Get(ctx, BracketsKey, ttl, &all)
	if err != nil {
		return sb, false, err
	}
	if !ok {
		return sb, false, ErrNotCached
	}

	sb, found = exchange.IndexBrackets(all)[name]
	return sb, found, nil
}
