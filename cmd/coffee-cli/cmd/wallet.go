/*
Copyright © 2024 pando
*/
package cmd

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/spf13/cobra"
)

var walletOpt struct {
	limit    int
	trace    string
	location string
}

// walletCmd represents the wallet command
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "show balance and recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := currentUser()
		if err != nil {
			return err
		}

		var summary core.Summary
		r := getClient().R().
			SetContext(cmd.Context()).
			SetPathParam("user", user).
			SetQueryParam("limit", strconv.Itoa(walletOpt.limit)).
			SetResult(&summary)
		if err := checkResponse(r.Get("/wallets/{user}")); err != nil {
			return err
		}

		return printJson(cmd, summary)
	},
}

var topUpCmd = &cobra.Command{
	Use:   "topup <amount>",
	Short: "buy coffee coins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commitWallet(cmd, "/topup", args[0], nil)
	},
}

var redeemCmd = &cobra.Command{
	Use:   "redeem <amount>",
	Short: "redeem coffee coins at a shop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commitWallet(cmd, "/redeem", args[0], map[string]any{"location": walletOpt.location})
	},
}

func commitWallet(cmd *cobra.Command, path, amount string, extra map[string]any) error {
	user, err := currentUser()
	if err != nil {
		return err
	}

	n, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return err
	}

	if walletOpt.trace == "" {
		walletOpt.trace = uuid.NewString()
	}

	body := map[string]any{"amount": n, "trace_id": walletOpt.trace}
	for k, v := range extra {
		body[k] = v
	}

	var result struct {
		Transaction *core.Transaction `json:"transaction"`
	}

	r := getClient().R().
		SetContext(cmd.Context()).
		SetPathParam("user", user).
		SetBody(body).
		SetResult(&result)
	if err := checkResponse(r.Post("/wallets/{user}" + path)); err != nil {
		return err
	}

	return printJson(cmd, result.Transaction)
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(topUpCmd)
	walletCmd.AddCommand(redeemCmd)

	walletCmd.Flags().IntVar(&walletOpt.limit, "limit", 0, "activity entries, 0 for server default")
	walletCmd.PersistentFlags().StringVar(&walletOpt.trace, "trace", "", "trace id (optional)")
	redeemCmd.Flags().StringVar(&walletOpt.location, "at", "Starbucks", "shop to redeem at")
}
