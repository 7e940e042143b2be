package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

var version = "dev"

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
