package replay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Candle is one OHLC bar. Volume is not needed to fill a ladder.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Valid reports whether the bar is usable: positive prices with Low and High
// bracketing Open and Close.
func (c Candle) Valid() bool {
	if c.Low <= 0 || c.High < c.Low {
		return false
	}
	return c.Open >= c.Low && c.Open <= c.High && c.Close >= c.Low && c.Close <= c.High
}

// Dukascopy exports use this layout in EST without DST.
const dukascopyLayout = "20060102 150405"

var estNoDST = time.FixedZone("EST", -5*60*60)

// ReadStats counts rows skipped while reading candles.
type ReadStats struct {
	Rows     int
	BadLines int
	Invalid  int
}

var ErrNoCandles = errors.New("replay: no usable candles")

// LoadCandles reads a candle file; see ReadCandles.
func LoadCandles(path string) ([]Candle, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer f.Close()
	return ReadCandles(f)
}

// ReadCandles parses "time,open,high,low,close[,volume]" rows. The separator
// may be ',' or ';'. Time is RFC 3339, unix seconds, or the Dukascopy
// "20060102 150405" EST layout. A header row is skipped, as are rows that do
// not parse or fail Candle.Valid. Candles are returned in file order.
func ReadCandles(r io.Reader) ([]Candle, ReadStats, error) {
	var stats ReadStats

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, stats, err
	}
	text := string(data)

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if first, _, _ := strings.Cut(text, "\n"); strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}

	var out []Candle
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read candles: %w", err)
		}
		stats.Rows++

		if stats.Rows == 1 && isHeader(rec) {
			stats.Rows--
			continue
		}
		c, err := parseCandle(rec)
		if err != nil {
			stats.BadLines++
			continue
		}
		if !c.Valid() {
			stats.Invalid++
			continue
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, stats, ErrNoCandles
	}
	return out, stats, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(rec[0]), "time")
}

func parseCandle(rec []string) (Candle, error) {
	if len(rec) < 5 {
		return Candle{}, fmt.Errorf("want at least 5 fields, got %d", len(rec))
	}
	t, err := parseTime(rec[0])
	if err != nil {
		return Candle{}, err
	}

	var px [4]float64
	for i := range px {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return Candle{}, err
		}
		px[i] = v
	}
	return Candle{Time: t, Open: px[0], High: px[1], Low: px[2], Close: px[3]}, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dukascopyLayout, s, estNoDST); err == nil {
		return t.UTC(), nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised time %q", s)
	}
	return time.Unix(sec, 0).UTC(), nil
}
