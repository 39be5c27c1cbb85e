/*
Copyright © 2024 pando
*/
package cmd

import (
	"github.com/pandodao/coffee-wallet/core"
	"github.com/spf13/cobra"
)

var friendsOpt struct {
	recent bool
}

// friendsCmd represents the friends command
var friendsCmd = &cobra.Command{
	Use:   "friends [query]",
	Short: "search friends by name or handle",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := currentUser()
		if err != nil {
			return err
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		}

		path := "/friends"
		if friendsOpt.recent {
			path = "/friends/recent"
		}

		var body struct {
			Friends []*core.Friend `json:"friends"`
		}

		r := getClient().R().
			SetContext(cmd.Context()).
			SetQueryParam("owner", user).
			SetQueryParam("q", query).
			SetResult(&body)
		if err := checkResponse(r.Get(path)); err != nil {
			return err
		}

		return printJson(cmd, body.Friends)
	},
}

func init() {
	rootCmd.AddCommand(friendsCmd)

	friendsCmd.Flags().BoolVar(&friendsOpt.recent, "recent", false, "only recent friends")
}
