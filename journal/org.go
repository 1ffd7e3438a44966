package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/dca/ladder"
)

// FormatRunOrg renders a run as an Org-mode block: a PROPERTIES drawer with
// the inputs and totals, followed by the ladder as an Org table.
func FormatRunOrg(r Run, orders []ladder.OrderRecord) string {
	symbol := r.Symbol
	if symbol == "" {
		symbol = "custom rules"
	}
	direction := "short"
	if !r.Params.Short {
		direction = "long"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("** Ladder: %s %s (%s)\n", symbol, direction, shortID(r.RunID)))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf(":CREATED: %s\n", r.Created.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":BALANCE: %.2f\n", r.Params.Balance))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %g\n", r.Params.EntryPrice))
	b.WriteString(fmt.Sprintf(":LEVERAGE: %g\n", r.Params.Leverage))
	b.WriteString(fmt.Sprintf(":TAKE_PROFIT: %g%%\n", r.Params.TakeProfit))
	b.WriteString(fmt.Sprintf(":ORDERS: %d\n", r.Summary.Orders))
	b.WriteString(fmt.Sprintf(":TOTAL_VOLUME: %.2f\n", r.Summary.TotalVolume))
	b.WriteString(fmt.Sprintf(":TOTAL_MARGIN: %.2f\n", r.Summary.TotalMargin))
	b.WriteString(fmt.Sprintf(":MAX_DEV: %.2f%%\n", r.Summary.MaxDev))
	b.WriteString(":END:\n\n")
	b.WriteString(FormatOrdersOrg(orders))
	return b.String()
}

// FormatOrdersOrg renders a ladder as an Org table.
func FormatOrdersOrg(orders []ladder.OrderRecord) string {
	var b strings.Builder
	b.WriteString("| Order | Dev % | Price | Avg | Size | Volume | Margin | Req price | Req % | PnL | TP | Total vol | Total margin |\n")
	b.WriteString("|-------+-------+-------+-----+------+--------+--------+-----------+-------+-----+----+-----------+--------------|\n")
	for _, o := range orders {
		b.WriteString(fmt.Sprintf("| %s | %.2f | %.6g | %.6g | %g | %.2f | %.2f | %.6g | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
			o.Order, o.PriceDev, o.Price, o.AvgPrice, o.Size, o.Volume, o.Margin,
			o.ReqPrice, o.ReqChange, o.PnL, o.TP, o.TotalVolume, o.TotalMargin))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
