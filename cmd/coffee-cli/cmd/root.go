/*
Copyright © 2024 pando
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coffee-cli",
	Short: "api cmd for coffee-wallet service",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("endpoint", "l", "http://localhost:8080", "api endpoint")
	rootCmd.PersistentFlags().StringP("user", "u", "", "acting user id")
	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	viper.SetEnvPrefix("coffee")
	viper.AutomaticEnv()
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func getClient() *resty.Client {
	return resty.New().
		SetBaseURL(viper.GetString("endpoint")+"/api").
		SetHeader("Content-Type", "application/json").
		SetError(&apiError{})
}

func currentUser() (string, error) {
	user := viper.GetString("user")
	if user == "" {
		return "", fmt.Errorf("user is required, set --user or COFFEE_USER")
	}

	return user, nil
}

// checkResponse turns a non 2xx reply into an error carrying the api code.
func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}

	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Code != "" {
			return fmt.Errorf("%s: %s", e.Code, e.Error)
		}

		return fmt.Errorf("unexpected status %s", resp.Status())
	}

	return nil
}

func printJson(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	cmd.Println(string(b))
	return nil
}
