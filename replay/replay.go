// Package replay fills a computed ladder against historical candles to show
// how far it would have been filled and whether the take profit was reached.
package replay

import (
	"fmt"
	"time"

	"github.com/rustyeddy/dca/ladder"
)

const ReasonTakeProfit = "TAKE_PROFIT"

type Fill struct {
	Order  string    `json:"order"`
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Size   float64   `json:"size"`
	Volume float64   `json:"volume"`
}

type Exit struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Reason string    `json:"reason"`
}

// Result is the position at the end of a replay. When the take profit was
// not reached PnL is marked to the last close.
type Result struct {
	Fills  []Fill `json:"fills"`
	Closed bool   `json:"closed"`
	Exit   *Exit  `json:"exit,omitempty"`

	AvgPrice    float64 `json:"avg_price"`
	TotalSize   float64 `json:"total_size"`
	TotalVolume float64 `json:"total_volume"`
	TotalMargin float64 `json:"total_margin"`

	PnL      float64 `json:"pnl"`
	WorstPnL float64 `json:"worst_pnl"` // most adverse mark seen at any bar's extreme
	Bars     int     `json:"bars"`
}

// Engine walks candles bar by bar. The base order fills at its ladder price
// on the first bar. On every bar the take profit is checked against the
// position held at the bar's open before any safety orders fill, so a bar
// that both fills and recovers closes on the next bar at the earliest.
type Engine struct {
	orders []ladder.OrderRecord
	long   bool
}

func NewEngine(orders []ladder.OrderRecord, long bool) *Engine {
	return &Engine{orders: orders, long: long}
}

func (e *Engine) Run(candles []Candle) (Result, error) {
	if len(e.orders) == 0 {
		return Result{}, fmt.Errorf("replay: empty ladder")
	}
	if len(candles) == 0 {
		return Result{}, ErrNoCandles
	}

	var res Result
	pos := e.orders[0]
	res.Fills = append(res.Fills, fillOf(pos, candles[0].Time))
	next := 1

	for i, c := range candles {
		res.Bars = i + 1

		// 1) Take profit against the position held at the open.
		if e.takeProfitHit(pos, c) {
			res.Closed = true
			res.Exit = &Exit{Time: c.Time, Price: pos.ReqPrice, Reason: ReasonTakeProfit}
			res.PnL = e.mark(pos, pos.ReqPrice)
			break
		}

		// 2) Resting safety orders reached by this bar, in ladder order.
		for next < len(e.orders) && e.reached(e.orders[next].Price, c) {
			pos = e.orders[next]
			res.Fills = append(res.Fills, fillOf(pos, c.Time))
			next++
		}

		if worst := e.mark(pos, e.adverse(c)); worst < res.WorstPnL {
			res.WorstPnL = worst
		}
		res.PnL = e.mark(pos, c.Close)
	}

	res.AvgPrice = pos.AvgPrice
	res.TotalSize = pos.TotalSize
	res.TotalVolume = pos.TotalVolume
	res.TotalMargin = pos.TotalMargin
	return res, nil
}

func fillOf(o ladder.OrderRecord, t time.Time) Fill {
	return Fill{Order: o.Order, Time: t, Price: o.Price, Size: o.Size, Volume: o.Volume}
}

func (e *Engine) takeProfitHit(pos ladder.OrderRecord, c Candle) bool {
	if e.long {
		return c.High >= pos.ReqPrice
	}
	return c.Low <= pos.ReqPrice
}

func (e *Engine) reached(price float64, c Candle) bool {
	if e.long {
		return c.Low <= price
	}
	return c.High >= price
}

func (e *Engine) adverse(c Candle) float64 {
	if e.long {
		return c.Low
	}
	return c.High
}

// mark values the position at price.
func (e *Engine) mark(pos ladder.OrderRecord, price float64) float64 {
	if e.long {
		return (price/pos.AvgPrice - 1) * pos.TotalVolume
	}
	return (1 - price/pos.AvgPrice) * pos.TotalVolume
}
