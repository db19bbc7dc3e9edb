package main

import "github.com/netxfw/rna/cmd/rna/commands"

func main() {
	commands.Execute()
}
