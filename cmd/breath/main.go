package main

import "github.com/synheart/synheart-breath/internal/cli"

func main() {
	cli.Execute()
}
