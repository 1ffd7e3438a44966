package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/dca/ladder"
)

func testParams() ladder.Params {
	return ladder.Params{
		Balance:    1000,
		EntryPrice: 100,
		Rules:      ladder.Filters{ladder.LotSizeFilter: {"stepSize": "0.01", "minQty": "0.01"}},
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

func testRun(t *testing.T, runID string, created time.Time) (Run, []ladder.OrderRecord) {
	t.Helper()

	p := testParams()
	orders, err := ladder.Compute(p)
	require.NoError(t, err)

	return Run{
		RunID:   runID,
		Created: created,
		Symbol:  "BTCUSDT",
		Params:  p,
		Summary: ladder.Summarize(orders, p.Balance),
	}, orders
}
