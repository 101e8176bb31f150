package main

import "github.com/bookrag-labs/bookrag-cli/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
