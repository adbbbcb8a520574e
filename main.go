package main

import (
	"ledger/cmd"
)

func main() {
	cmd.RegisterCommands(
		cmd.NewServeCommand(),
		cmd.NewConsumerCommand(),
		cmd.NewPubSubConsumerCommand(),
	)

	cmd.Execute()
}
