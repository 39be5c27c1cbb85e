/*
Copyright © 2024 pando
*/
package cmd

import (
	"github.com/spf13/cobra"
)

var sendOpt struct {
	friend   string
	quantity int64
	message  string
}

type composition struct {
	ID               string         `json:"id"`
	State            string         `json:"state"`
	Draft            map[string]any `json:"draft,omitempty"`
	Transaction      map[string]any `json:"transaction,omitempty"`
	ProjectedBalance *int64         `json:"projected_balance,omitempty"`
}

// sendCmd walks a composition from friend selection to confirm.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "send coffee to a friend",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := currentUser()
		if err != nil {
			return err
		}

		client := getClient()
		var c composition

		steps := []struct {
			path string
			body any
		}{
			{"/compositions", map[string]any{"user_id": user}},
			{"/select", map[string]any{"friend_id": sendOpt.friend}},
			{"/quantity", map[string]any{"quantity": sendOpt.quantity}},
			{"/message", map[string]any{"message": sendOpt.message}},
			{"/confirm", nil},
		}

		for i, step := range steps {
			path := step.path
			if i > 0 {
				path = "/compositions/" + c.ID + path
			}

			r := client.R().SetContext(cmd.Context()).SetResult(&c)
			if step.body != nil {
				r.SetBody(step.body)
			}

			if err := checkResponse(r.Post(path)); err != nil {
				return err
			}
		}

		return printJson(cmd, c)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendOpt.friend, "to", "", "friend id")
	sendCmd.Flags().Int64Var(&sendOpt.quantity, "quantity", 1, "coffees to send, 1-10")
	sendCmd.Flags().StringVar(&sendOpt.message, "message", "", "message (optional)")
	sendCmd.MarkFlagRequired("to")
}
