package main

import "github.com/agentic-research/collate/cmd"

func main() {
	cmd.Execute()
}
