package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/sanctuuary/APE-sub003/solution"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff takes two workflow files", cli.ErrUsage)
	}
	a, err := solution.Load(args[0])
	if err != nil {
		return err
	}
	b, err := solution.Load(args[1])
	if err != nil {
		return err
	}
	changed, err := solution.Diff(cc.Out, a, b)
	if err != nil {
		return err
	}
	if changed {
		return cli.ExitCodeErr(1)
	}
	return nil
}
