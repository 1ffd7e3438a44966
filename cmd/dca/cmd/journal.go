package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/dca/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the ladder journal",
	Long: `Print journaled ladder runs as Org-mode blocks.

Only the SQLite journal can be queried; the CSV journal is meant to be
opened in a spreadsheet.

Examples:
  dca journal run 01J9Z3K4M5N6P7Q8R9S0T1V2W3
  dca journal day 2026-10-16 --db ./dca-journal.sqlite`,
}

var journalRunCmd = &cobra.Command{
	Use:   "run RUN_ID",
	Short: "Print one journaled run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalDayCmd = &cobra.Command{
	Use:   "day YYYY-MM-DD",
	Short: "Print every run journaled on a UTC day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDB string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVar(&journalDB, "db", "", "journal database (default: journal.path from the config)")
}

func openJournalDB() (*journal.SQLite, error) {
	path := journalDB
	if path == "" {
		if cfg.Journal.Type != "sqlite" {
			return nil, fmt.Errorf("no sqlite journal configured; pass --db")
		}
		path = cfg.Journal.Path
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

// dayBounds returns the UTC [start, end) of a YYYY-MM-DD day.
func dayBounds(day string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD): %w", day, err)
	}
	return start, start.AddDate(0, 0, 1), nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	r, err := j.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	orders, err := j.ListOrders(ctx, r.RunID)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), journal.FormatRunOrg(r, orders))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	start, end, err := dayBounds(args[0])
	if err != nil {
		return err
	}
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	runs, err := j.ListRunsBetween(ctx, start, end)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "* %s\n", args[0])
	if len(runs) == 0 {
		fmt.Fprintln(out, "No ladders journaled.")
		return nil
	}
	for _, r := range runs {
		orders, err := j.ListOrders(ctx, r.RunID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, journal.FormatRunOrg(r, orders))
	}
	return nil
}
