package journal

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rustyeddy/dca/ladder"
)

var orderHeader = []string{
	"order", "price_dev", "price", "avg_price", "size", "margin", "volume",
	"req_price", "req_change", "pnl", "tp", "total_size", "total_volume", "total_margin",
}

// WriteOrdersCSV writes a ladder as CSV with a header row.
func WriteOrdersCSV(w io.Writer, orders []ladder.OrderRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeader); err != nil {
		return err
	}
	for _, o := range orders {
		if err := cw.Write(orderRow(o)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func orderRow(o ladder.OrderRecord) []string {
	return []string{
		o.Order,
		f(o.PriceDev),
		f(o.Price),
		f(o.AvgPrice),
		f(o.Size),
		f(o.Margin),
		f(o.Volume),
		f(o.ReqPrice),
		f(o.ReqChange),
		f(o.PnL),
		f(o.TP),
		f(o.TotalSize),
		f(o.TotalVolume),
		f(o.TotalMargin),
	}
}

// CSVJournal appends every recorded order to one CSV file, prefixed with
// the run ID and symbol. The header is written when the file is new.
type CSVJournal struct {
	w    *csv.Writer
	file *os.File
}

func NewCSV(path string) (*CSVJournal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(append([]string{"run_id", "symbol"}, orderHeader...)); err != nil {
			_ = file.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return &CSVJournal{w: w, file: file}, nil
}

func (j *CSVJournal) RecordRun(_ context.Context, r Run, orders []ladder.OrderRecord) error {
	for _, o := range orders {
		if err := j.w.Write(append([]string{r.RunID, r.Symbol}, orderRow(o)...)); err != nil {
			return err
		}
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
