package main

import "github.com/LeJamon/shamapd/internal/cli"

func main() {
	cli.Execute()
}
