package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/dca/ladder"
	"github.com/rustyeddy/dca/planner"
	"github.com/rustyeddy/dca/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Fill a ladder against historical candles",
	Long: `Compute the configured ladder and walk it through a candle file to see
which safety orders would have filled and whether the take profit was hit.

The candle file holds "time,open,high,low,close[,volume]" rows separated by
',' or ';'. Unless --entry is given the ladder is placed at the first bar's
open.

Examples:
  dca replay -c ladder.yaml --candles btc-1h.csv
  dca replay --candles eth-1h.csv --short --format json`,
	Args: cobra.NoArgs,
	RunE: runReplay,
}

var replayFlags struct {
	candles string
	format  string
}

func init() {
	rootCmd.AddCommand(replayCmd)

	f := replayCmd.Flags()
	f.StringVar(&replayFlags.candles, "candles", "", "candle file (required)")
	f.StringVarP(&replayFlags.format, "format", "f", formatTable, "output format: table or json")
	_ = replayCmd.MarkFlagRequired("candles")
	addLadderFlags(f)
}

func runReplay(cmd *cobra.Command, args []string) error {
	candles, stats, err := replay.LoadCandles(replayFlags.candles)
	if err != nil {
		return err
	}
	if stats.BadLines > 0 || stats.Invalid > 0 {
		log.Warn("skipped candle rows",
			zap.String("file", replayFlags.candles),
			zap.Int("bad_lines", stats.BadLines),
			zap.Int("invalid", stats.Invalid))
	}

	applyComputeFlags(cmd, cfg)
	if !cmd.Flags().Changed("entry") {
		cfg.Ladder.EntryPrice = candles[0].Open
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	symbol := cfg.Rules.Symbol
	p, _, closeAll, err := buildPlanner(symbol != "", false)
	if err != nil {
		return err
	}
	defer closeAll()

	var rules ladder.Filters
	if symbol == "" {
		rules = cfg.Rules.Filters()
	}
	plan, err := p.Plan(cmd.Context(), planner.Request{Symbol: symbol, Params: cfg.Params(rules)})
	if err != nil {
		return err
	}

	res, err := replay.NewEngine(plan.Orders, cfg.Account.Long()).Run(candles)
	if err != nil {
		return err
	}
	log.Info("ladder replayed",
		zap.Int("bars", res.Bars),
		zap.Int("fills", len(res.Fills)),
		zap.Bool("closed", res.Closed))

	out := cmd.OutOrStdout()
	switch replayFlags.format {
	case formatJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case formatTable:
		return renderReplay(out, plan, res)
	default:
		return fmt.Errorf("unknown format %q (table, json)", replayFlags.format)
	}
}

func renderReplay(w io.Writer, plan planner.Plan, res replay.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Order\tTime\tPrice\tSize\tVolume")
	for _, f := range res.Fills {
		fmt.Fprintf(tw, "%s\t%s\t%.6g\t%g\t%.2f\n", f.Order, f.Time.Format("2006-01-02 15:04"), f.Price, f.Size, f.Volume)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d of %d orders filled over %d bars, avg %.6g, volume %.2f, margin %.2f\n",
		len(res.Fills), len(plan.Orders), res.Bars, res.AvgPrice, res.TotalVolume, res.TotalMargin)
	if res.Closed {
		fmt.Fprintf(w, "✓ take profit at %.6g on %s, pnl %.2f\n",
			res.Exit.Price, res.Exit.Time.Format("2006-01-02 15:04"), res.PnL)
	} else {
		fmt.Fprintf(w, "position still open, marked pnl %.2f\n", res.PnL)
	}
	fmt.Fprintf(w, "worst mark %.2f\n", res.WorstPnL)
	return nil
}
