package main

import "github.com/LeJamon/ripplecalc/internal/cli"

func main() {
	cli.Execute()
}
