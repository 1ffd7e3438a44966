package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rustyeddy/dca/cache"
	"github.com/rustyeddy/dca/exchange"
	"github.com/rustyeddy/dca/ladder"
	"github.com/rustyeddy/dca/planner"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()

	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), cache.Token)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.StoreRules(context.Background(), []exchange.Symbol{{
		Symbol: "ETHUSDT",
		Coin:   "ETH",
		Rules:  ladder.Filters{ladder.LotSizeFilter: {"filterType": "LOT_SIZE", "stepSize": "0.001", "minQty": "0.001"}},
	}}))

	opts.Planner = planner.New(zap.NewNop(), planner.WithRules(c, cache.DefaultTTL))
	opts.Symbols = c
	opts.TTL = cache.DefaultTTL
	return NewServer(opts)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

const ladderBody = `{
	"balance": 1000,
	"entry_price": 100,
	"rules": {"step_size": 0.01, "min_qty": 0.01},
	"base_order": {"value": 10},
	"safety_order": {"value": 20, "count": 2, "step_scale": 2, "price_dev": 1, "volume_scale": 2},
	"take_profit": 1,
	"leverage": 5
}`

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestComputeLadder(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/ladder", ladderBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var plan planner.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Len(t, plan.Orders, 3)
	assert.Equal(t, "BO", plan.Orders[0].Order)
	assert.InDelta(t, -1.0, plan.Orders[1].PriceDev, 1e-12)
	assert.InDelta(t, 71.53, plan.Summary.TotalVolume, 1e-9)
	assert.True(t, plan.Decision.Allowed)
}

func TestComputeLadderShort(t *testing.T) {
	s := newTestServer(t, Options{})

	body := strings.Replace(ladderBody, `"leverage": 5`, `"leverage": 5, "long": false`, 1)
	rec := do(t, s, http.MethodPost, "/api/ladder", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var plan planner.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.InDelta(t, 1.0, plan.Orders[1].PriceDev, 1e-12)
}

func TestComputeLadderWithSymbol(t *testing.T) {
	s := newTestServer(t, Options{})

	body := strings.Replace(ladderBody, `"balance": 1000,`, `"balance": 1000, "symbol": "ETHUSDT",`, 1)
	rec := do(t, s, http.MethodPost, "/api/ladder", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var plan planner.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "ETHUSDT", plan.Symbol)
	assert.Equal(t, ladder.ExchangeRules{StepSize: 0.001, MinQty: 0.001}, plan.Rules)
}

func TestComputeLadderErrors(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		name  string
		body  string
		code  int
		field string
	}{
		{"malformed json", `{"entry_price":`, http.StatusBadRequest, ""},
		{"zero leverage", strings.Replace(ladderBody, `"leverage": 5`, `"leverage": 0`, 1), http.StatusBadRequest, "leverage"},
		{"missing entry", strings.Replace(ladderBody, `"entry_price": 100,`, ``, 1), http.StatusBadRequest, "entry_price"},
		{"huge safety order count", strings.Replace(ladderBody, `"count": 2`, `"count": 100000000`, 1), http.StatusBadRequest, "safety_order.count"},
		{"unknown symbol", strings.Replace(ladderBody, `"balance": 1000,`, `"balance": 1000, "symbol": "NOPE",`, 1), http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/ladder", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tt.field != "" {
				assert.Equal(t, tt.field, body["field"])
			}
		})
	}
}

func TestGetSymbol(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodGet, "/api/symbols/ETHUSDT", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ETHUSDT", got["symbol"])
	assert.Equal(t, "ETH", got["coin"])
	assert.Equal(t, map[string]any{"step_size": 0.001, "min_qty": 0.001}, got["lot_size"])

	rec = do(t, s, http.MethodGet, "/api/symbols/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSymbolWithoutCache(t *testing.T) {
	s := NewServer(Options{Planner: planner.New(zap.NewNop())})
	rec := do(t, s, http.MethodGet, "/api/symbols/ETHUSDT", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 0.001, Burst: 2})

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, s, http.MethodPost, "/api/ladder", ladderBody).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// health and metrics are not limited
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
}

func TestIdleLimitersEvicted(t *testing.T) {
	s := NewServer(Options{
		Planner:     planner.New(zap.NewNop()),
		RateLimit:   1,
		Burst:       1,
		LimiterIdle: time.Minute,
	})
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		s.limiterFor(fmt.Sprintf("10.0.0.%d", i))
	}
	require.Len(t, s.limiters, 100)

	now = now.Add(30 * time.Second)
	s.limiterFor("10.0.0.7")

	now = now.Add(45 * time.Second)
	s.limiterFor("192.168.1.1")

	// only the client seen within the last minute and the new one remain
	assert.Len(t, s.limiters, 2)
	assert.Contains(t, s.limiters, "10.0.0.7")
	assert.Contains(t, s.limiters, "192.168.1.1")
}

func TestSweptLimiterStartsFresh(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 0.001, Burst: 1, LimiterIdle: time.Minute})
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/ladder", ladderBody).Code)
	now = now.Add(2 * time.Minute)
	s.limiterFor("10.9.9.9")

	// the first client's limiter was swept, so its burst is available again
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/ladder", ladderBody).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s, http.MethodPost, "/api/ladder", ladderBody).Code)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, Options{})
	do(t, s, http.MethodPost, "/api/ladder", ladderBody)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte("dca_ladders_computed_total")))
}
