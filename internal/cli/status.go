package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"jpeg_swap/internal/pkg/logger"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Connect once and print the pools and staking figures",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, zl := setup()
	defer logger.Sync()

	app, err := newApp(cfg, zl)
	if err != nil {
		logger.Fatal("Failed to initialize dashboard", "error", err)
	}
	defer app.session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout()+time.Minute)
	defer cancel()
	conn, err := app.session.Connect(ctx)
	if err != nil {
		logger.Fatal("Failed to connect", "error", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	defer func() {
		_ = w.Flush()
	}()

	_, _ = fmt.Fprintf(w, "NETWORK\t%s (chain %d)\n", conn.NetworkName, conn.ChainID)
	if conn.WrongNetwork {
		_, _ = fmt.Fprintf(w, "WARNING\texpected %s (chain %d)\n", conn.ExpectedNetwork, conn.ExpectedChainID)
	}
	_, _ = fmt.Fprintf(w, "RPC\t%s\n", app.network.PrimaryRPCURL)
	_, _ = fmt.Fprintf(w, "ACCOUNT\t%s\n", conn.Account)

	list := app.session.PoolList()
	_, _ = fmt.Fprintf(w, "POOLS\t%d\n", list.TotalPools)
	for _, entry := range app.session.FactoryRegistry().Pools {
		_, _ = fmt.Fprintf(w, "\t%s\t%s\n", entry.Address, entry.Collection)
	}

	stats := app.session.StakingStats()
	if !stats.Available {
		_, _ = fmt.Fprintln(w, "STAKING\tunavailable")
		return
	}
	_, _ = fmt.Fprintf(w, "TOTAL STAKED\t%s\n", stats.TotalStaked)
	_, _ = fmt.Fprintf(w, "YOUR STAKED\t%d\n", stats.UserStakedCount)
	_, _ = fmt.Fprintf(w, "PENDING REWARDS\t%s\n", stats.PendingRewards)
	_, _ = fmt.Fprintf(w, "TOTAL CLAIMED\t%s\n", stats.TotalRewardsClaimed)
	_, _ = fmt.Fprintf(w, "RECEIPTS\t%d\n", stats.UserReceiptCount)
}
