package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"

	ape "github.com/sanctuuary/APE-sub003"
)

func writeCNF(cfg *CNFConfig, cc *cli.Context, args []string) error {
	args, err := cfg.CNF.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}
	if err := cfg.Files.check(); err != nil {
		return err
	}
	if cfg.Len < 1 {
		return fmt.Errorf("%w: -len must be at least 1", cli.ErrUsage)
	}
	log := textLog(os.Stderr, cfg.V)
	req, err := ape.LoadRequest(cfg.Files.Config, cfg.Files.Domain, cfg.Files.Sets...)
	if err != nil {
		return err
	}
	stats, err := ape.WriteCNF(cc.Out, req, cfg.Len, log)
	if err != nil {
		return err
	}
	log.Info("encoded", "length", cfg.Len, "vars", stats.Vars, "clauses", stats.Clauses)
	return nil
}
