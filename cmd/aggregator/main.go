package main

import "github.com/brooklyn-events/aggregator/cmd/aggregator/cmd"

func main() {
	cmd.Execute()
}
