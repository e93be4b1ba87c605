package main

import "github.com/mcoot/athletearena/internal/cli"

func main() {
	cli.Execute()
}
