package main

import "github.com/alphawing/brokerage/cmd"

func main() {
	cmd.Execute()
}
