package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rustyeddy/dca/config"
	"github.com/rustyeddy/dca/ladder"
	"github.com/rustyeddy/dca/planner"
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute a DCA ladder",
	Long: `Compute the full order ladder for the configured position.

Flags override the values loaded from --config. With --symbol the lot-size
rules and leverage brackets come from the rules cache (see "dca rules import");
otherwise --step-size/--min-qty or the config's rules section are used.

Examples:
  dca compute --entry 27400 --balance 2000 --leverage 10
  dca compute -c ladder.yaml --symbol BTCUSDT --format csv
  dca compute --entry 1850 --short --so-count 8 --format org`,
	Args: cobra.NoArgs,
	RunE: runCompute,
}

var computeFlags struct {
	symbol    string
	balance   float64
	entry     float64
	leverage  float64
	tp        float64
	short     bool
	stepSize  float64
	minQty    float64
	soCount   int
	format    string
	noJournal bool
}

func init() {
	rootCmd.AddCommand(computeCmd)

	f := computeCmd.Flags()
	addLadderFlags(f)
	f.StringVarP(&computeFlags.format, "format", "f", formatTable, "output format: table, csv, org, json, yaml")
	f.BoolVar(&computeFlags.noJournal, "no-journal", false, "do not record the run")
}

// addLadderFlags registers the ladder overrides shared by compute and replay.
func addLadderFlags(f *pflag.FlagSet) {
	f.StringVarP(&computeFlags.symbol, "symbol", "s", "", "symbol whose cached rules to use")
	f.Float64Var(&computeFlags.balance, "balance", 0, "account balance")
	f.Float64VarP(&computeFlags.entry, "entry", "e", 0, "entry price")
	f.Float64VarP(&computeFlags.leverage, "leverage", "l", 0, "leverage")
	f.Float64Var(&computeFlags.tp, "tp", 0, "take profit, %")
	f.BoolVar(&computeFlags.short, "short", false, "compute a short ladder")
	f.Float64Var(&computeFlags.stepSize, "step-size", 0, "lot step size")
	f.Float64Var(&computeFlags.minQty, "min-qty", 0, "minimum order quantity")
	f.IntVar(&computeFlags.soCount, "so-count", 0, "number of safety orders")
}

// applyComputeFlags overlays the flags the user set on top of the config.
func applyComputeFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("symbol") {
		c.Rules.Symbol = computeFlags.symbol
	}
	if f.Changed("balance") {
		c.Account.Balance = computeFlags.balance
	}
	if f.Changed("entry") {
		c.Ladder.EntryPrice = computeFlags.entry
	}
	if f.Changed("leverage") {
		c.Account.Leverage = computeFlags.leverage
	}
	if f.Changed("tp") {
		c.Ladder.TakeProfit = computeFlags.tp
	}
	if f.Changed("short") {
		c.Account.Direction = config.DirectionLong
		if computeFlags.short {
			c.Account.Direction = config.DirectionShort
		}
	}
	if f.Changed("step-size") {
		c.Rules.StepSize = computeFlags.stepSize
	}
	if f.Changed("min-qty") {
		c.Rules.MinQty = computeFlags.minQty
	}
	if f.Changed("so-count") {
		c.Ladder.SafetyOrder.Count = computeFlags.soCount
	}
}

func runCompute(cmd *cobra.Command, args []string) error {
	applyComputeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	symbol := cfg.Rules.Symbol
	p, _, closeAll, err := buildPlanner(symbol != "", !computeFlags.noJournal)
	if err != nil {
		return err
	}
	defer closeAll()

	var rules ladder.Filters
	if symbol == "" {
		rules = cfg.Rules.Filters()
	}

	plan, err := p.Plan(cmd.Context(), planner.Request{
		Symbol: symbol,
		Params: cfg.Params(rules),
	})
	if err != nil {
		return err
	}
	return renderPlan(cmd.OutOrStdout(), computeFlags.format, plan)
}
