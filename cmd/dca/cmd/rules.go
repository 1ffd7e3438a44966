package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/dca/cache"
	"github.com/rustyeddy/dca/exchange"
	"github.com/rustyeddy/dca/ladder"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage cached exchange trading rules",
	Long: `Import exchange trading rules and leverage brackets into the local rules
cache, and inspect what is cached.

The payloads are read from files saved beforehand; dca never fetches them.

Examples:
  dca rules import --rules trading-rules.json --brackets brackets.json
  dca rules show BTCUSDT`,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Parse rule payloads and store them in the cache",
	Args:  cobra.NoArgs,
	RunE:  runRulesImport,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show SYMBOL",
	Short: "Show the cached lot size and leverage brackets of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

var (
	rulesFile    string
	bracketsFile string
)

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesShowCmd)

	rulesImportCmd.Flags().StringVar(&rulesFile, "rules", "", "trading rules payload (JSON)")
	rulesImportCmd.Flags().StringVar(&bracketsFile, "brackets", "", "leverage brackets payload (JSON)")
}

func openCache() (*cache.Cache, error) {
	c, err := cache.Open(cfg.Rules.CachePath, cache.Token)
	if err != nil {
		return nil, fmt.Errorf("open rules cache: %w", err)
	}
	return c, nil
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	if rulesFile == "" && bracketsFile == "" {
		return fmt.Errorf("nothing to import: pass --rules and/or --brackets")
	}

	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if rulesFile != "" {
		data, err := os.ReadFile(rulesFile)
		if err != nil {
			return fmt.Errorf("read rules: %w", err)
		}
		symbols, err := exchange.ParseTradingRules(data)
		if err != nil {
			return err
		}
		if err := c.StoreRules(ctx, symbols); err != nil {
			return fmt.Errorf("store rules: %w", err)
		}
		log.Info("trading rules imported", zap.String("file", rulesFile), zap.Int("symbols", len(symbols)))
		fmt.Fprintf(out, "✓ Imported rules for %d symbols\n", len(symbols))
	}

	if bracketsFile != "" {
		data, err := os.ReadFile(bracketsFile)
		if err != nil {
			return fmt.Errorf("read brackets: %w", err)
		}
		brackets, err := exchange.ParseBrackets(data)
		if err != nil {
			return err
		}
		if err := c.StoreBrackets(ctx, brackets); err != nil {
			return fmt.Errorf("store brackets: %w", err)
		}
		log.Info("leverage brackets imported", zap.String("file", bracketsFile), zap.Int("symbols", len(brackets)))
		fmt.Fprintf(out, "✓ Imported leverage brackets for %d symbols\n", len(brackets))
	}
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	ttl, err := cfg.Rules.TTL()
	if err != nil {
		return err
	}
	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	sym, err := c.Symbol(ctx, args[0], ttl)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	lot := sym.LotSize()
	fmt.Fprintf(out, "%s (%s)\n", sym.Symbol, sym.Coin)
	fmt.Fprintf(out, "  step size: %g\n", lot.StepSize)
	fmt.Fprintf(out, "  min qty:   %g\n", lot.MinQty)

	types := make([]string, 0, len(sym.Rules))
	for t := range sym.Rules {
		if t != ladder.LotSizeFilter {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(out, "  %s: %v\n", t, sym.Rules[t])
	}

	sb, found, err := c.Brackets(ctx, args[0], ttl)
	switch {
	case errors.Is(err, cache.ErrNotCached):
		fmt.Fprintln(out, "  no leverage brackets cached")
	case err != nil:
		return err
	case !found:
		fmt.Fprintln(out, "  no leverage brackets for this symbol")
	default:
		fmt.Fprintln(out, "  leverage brackets:")
		for _, b := range sb.Brackets {
			fmt.Fprintf(out, "    up to %-14.0f %gx-%gx\n", b.VolumeCap, b.MinLeverage, b.MaxLeverage)
		}
	}
	return nil
}
