package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/stg-cli/internal/core/ports"
	"github.com/kamal-hamza/stg-cli/pkg/ui"
)

var pingTimeout time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the negotiation service is reachable",
	Long: `Send a health probe to the negotiation service and report the round trip.

The service address comes from --server, then STG_SERVER_URL, then server_url
in the config file.`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	pingCmd.Flags().DurationVarP(&pingTimeout, "timeout", "t", 5*time.Second, "Give up after this long")
}

func runPing(cmd *cobra.Command, args []string) error {
	elapsed, err := ping(getContext(cmd), negotiationClient, pingTimeout)
	if err != nil {
		fmt.Println(ui.FormatError("Service unreachable at " + negotiationClient.BaseURL()))
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s answered in %s", negotiationClient.BaseURL(), elapsed.Round(time.Millisecond))))
	return nil
}

func ping(ctx context.Context, checker ports.HealthChecker, timeout time.Duration) (time.Duration, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	if err := checker.Ping(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
