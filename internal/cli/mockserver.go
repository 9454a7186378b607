package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm/halmtest"
)

func (a *app) mockServerCmd() *cobra.Command {
	addr := ":8089"
	c := &cobra.Command{
		Use:   "mock-server",
		Short: "run an in-memory fake of the REST API",
		Long: "Runs a fake Helix ALM REST API seeded with the \"Traditional Template\" " +
			"project, for trying the CLI without a real server.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Handle shutdown signals (SIGINT, SIGTERM) so the listener drains
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := halmtest.New(halmtest.WithLogger(a.logger))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mock Helix ALM REST API listening on %s\n", addr)
			fmt.Fprintf(out, "Try: HALM_API_URL=%s halm ping\n", hintURL(addr))
			return srv.Run(ctx, addr)
		},
	}
	c.Flags().StringVar(&addr, "addr", addr, "listen address")
	return c
}

func hintURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr + "/"
	}
	return "http://" + addr + "/"
}
