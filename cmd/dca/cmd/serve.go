package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/dca/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ladders over HTTP",
	Long: `Start the HTTP API.

Routes:
  POST /api/ladder            compute a ladder from JSON parameters
  GET  /api/symbols/:symbol   cached lot size and brackets of a symbol
  GET  /healthz               liveness
  GET  /metrics               Prometheus metrics

Examples:
  dca serve --addr :8080
  dca serve -c ladder.yaml --rate 5 --burst 10`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags struct {
	addr  string
	rate  float64
	burst int
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", ":8080", "listen address")
	serveCmd.Flags().Float64Var(&serveFlags.rate, "rate", 10, "requests per second per client, 0 disables limiting")
	serveCmd.Flags().IntVar(&serveFlags.burst, "burst", 20, "request burst per client")
}

func runServe(cmd *cobra.Command, args []string) error {
	ttl, err := cfg.Rules.TTL()
	if err != nil {
		return err
	}

	// Requests may name any symbol, so the cache is always opened.
	p, c, closeAll, err := buildPlanner(true, true)
	if err != nil {
		return err
	}
	defer closeAll()

	srv := api.NewServer(api.Options{
		Planner:   p,
		Symbols:   c,
		TTL:       ttl,
		Log:       log,
		RateLimit: rate.Limit(serveFlags.rate),
		Burst:     serveFlags.burst,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, serveFlags.addr)
}
