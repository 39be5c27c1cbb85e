/*
Copyright © 2024 pando
*/
package main

import "github.com/pandodao/coffee-wallet/cmd/coffee-cli/cmd"

func main() {
	cmd.Execute()
}
