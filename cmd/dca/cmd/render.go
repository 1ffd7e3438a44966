package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/dca/journal"
	"github.com/rustyeddy/dca/planner"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatOrg   = "org"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func renderPlan(w io.Writer, format string, plan planner.Plan) error {
	switch format {
	case formatTable:
		return renderTable(w, plan)
	case formatCSV:
		return journal.WriteOrdersCSV(w, plan.Orders)
	case formatOrg:
		_, err := io.WriteString(w, journal.FormatOrdersOrg(plan.Orders))
		return err
	case formatJSON:
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(plan)
	default:
		return fmt.Errorf("unknown format %q (table, csv, org, json, yaml)", format)
	}
}

func renderTable(w io.Writer, plan planner.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Order\tDev %\tPrice\tAvg price\tSize\tVolume\tMargin\tReq price\tReq %\tPnL\tTP\tTotal size\tTotal volume\tTotal margin\t")
	for _, o := range plan.Orders {
		fmt.Fprintf(tw, "%s\t%.2f\t%.6g\t%.6g\t%g\t%.2f\t%.2f\t%.6g\t%.2f\t%.2f\t%.2f\t%g\t%.2f\t%.2f\t\n",
			o.Order, o.PriceDev, o.Price, o.AvgPrice, o.Size, o.Volume, o.Margin,
			o.ReqPrice, o.ReqChange, o.PnL, o.TP, o.TotalSize, o.TotalVolume, o.TotalMargin)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := plan.Summary
	fmt.Fprintf(w, "\nstep %g, min qty %g\n", plan.Rules.StepSize, plan.Rules.MinQty)
	fmt.Fprintf(w, "%d orders, volume %.2f, margin %.2f (%.1f%% of balance), deepest %.2f%%\n",
		s.Orders, s.TotalVolume, s.TotalMargin, 100*s.BalanceUsed, s.MaxDev)
	if plan.Decision.Allowed {
		fmt.Fprintln(w, "✓ within risk limits")
	}
	for _, v := range plan.Decision.Violations {
		fmt.Fprintf(w, "✗ %s: %s\n", v.Code, v.Msg)
	}
	if plan.RunID != "" {
		fmt.Fprintf(w, "run %s\n", plan.RunID)
	}
	return nil
}
