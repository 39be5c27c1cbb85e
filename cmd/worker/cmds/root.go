package cmds

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/worker/settler"
	"github.com/pandodao/generic"
	"github.com/spf13/cobra"
)

type Cmd struct {
	Ledger       core.Ledger
	Transactions core.TransactionStore
	Friends      core.FriendStore
	Properties   core.PropertyStore
}

func (c *Cmd) Run(ctx context.Context, args []string) error {
	root := &cobra.Command{
		Use:          "coffee-wallet",
		Short:        "coffee wallet admin",
		SilenceUsage: true,
	}

	root.AddCommand(c.openCmd())
	root.AddCommand(c.balanceCmd())
	root.AddCommand(c.historyCmd())
	root.AddCommand(c.grantCmd())
	root.AddCommand(c.importFriendsCmd())
	root.AddCommand(c.settleStatsCmd())

	root.SetArgs(args)
	root.SetOut(os.Stdout)

	return root.ExecuteContext(ctx)
}

func (c *Cmd) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <user_id> [balance]",
		Short: "open an account",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var balance int64
			if len(args) > 1 {
				n, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid balance: %w", err)
				}

				balance = n
			}

			if err := c.Ledger.Open(cmd.Context(), args[0], balance); err != nil {
				return err
			}

			return c.printBalance(cmd, args[0])
		},
	}
}

func (c *Cmd) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user_id>",
		Short: "show the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printBalance(cmd, args[0])
		},
	}
}

func (c *Cmd) printBalance(cmd *cobra.Command, userID string) error {
	balance, err := c.Ledger.BalanceOf(cmd.Context(), userID)
	if err != nil {
		return err
	}

	return jsonPrint(cmd, map[string]any{"user_id": userID, "balance": balance})
}

func (c *Cmd) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <user_id>",
		Short: "list the transactions of an account, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := c.Transactions.List(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			return jsonPrint(cmd, txs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max transactions, 0 for all")
	return cmd
}

// grant credits coins as a purchase, for support refunds.
func (c *Cmd) grantCmd() *cobra.Command {
	var trace string

	cmd := &cobra.Command{
		Use:   "grant <user_id> <amount>",
		Short: "credit coins to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}

			if trace == "" {
				trace = uuid.NewString()
			}

			tx := &core.Transaction{
				TraceID: trace,
				UserID:  args[0],
				Kind:    core.TransactionKindPurchase,
				Amount:  amount,
				Memo:    "grant",
			}

			if err := c.Ledger.Commit(cmd.Context(), tx); err != nil {
				return err
			}

			return jsonPrint(cmd, tx)
		},
	}

	cmd.Flags().StringVar(&trace, "trace", "", "trace id, retrying with the same id is a no-op")
	return cmd
}

// importFriendsCmd replaces an owner's catalog with the friends in a json file.
func (c *Cmd) importFriendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-friends <owner_id> <file>",
		Short: "import the friends catalog of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			var friends []*core.Friend
			if err := json.Unmarshal(b, &friends); err != nil {
				return fmt.Errorf("decode friends: %w", err)
			}

			if err := c.Friends.Save(cmd.Context(), args[0], friends); err != nil {
				return err
			}

			saved, err := c.Friends.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return jsonPrint(cmd, generic.MapSlice(saved, func(f *core.Friend) string {
				return f.Handle
			}))
		},
	}
}

func (c *Cmd) settleStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle-stats",
		Short: "show how many sends the settler credited and skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := settler.LoadStats(cmd.Context(), c.Properties)
			if err != nil {
				return err
			}

			return jsonPrint(cmd, stats)
		},
	}
}

func jsonPrint(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
