package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scott-cotton/cli"

	ape "github.com/sanctuuary/APE-sub003"
	"github.com/sanctuuary/APE-sub003/solution"
)

func runSynth(cfg *SynthConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Synth.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}
	if err := cfg.Files.check(); err != nil {
		return err
	}
	log := textLog(os.Stderr, cfg.V)
	if cfg.Gops {
		startGops(log)
	}
	var filter *solution.Filter
	if cfg.Where != "" {
		if filter, err = solution.NewFilter(cfg.Where); err != nil {
			return fmt.Errorf("%w: -where: %w", cli.ErrUsage, err)
		}
	}
	req, err := ape.LoadRequest(cfg.Files.Config, cfg.Files.Domain, cfg.Files.Sets...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res, err := ape.Run(ctx, req, log)
	if err != nil {
		return err
	}

	wfs := res.Solutions
	if filter != nil {
		if wfs, err = filter.Apply(wfs); err != nil {
			return err
		}
		log.Debug("filtered", "kept", len(wfs))
	}
	if cfg.OutDir != "" {
		// the workflows found so far are written even after an interrupt
		err := solution.WriteAll(context.WithoutCancel(ctx), cfg.OutDir, wfs, solution.WriteOptions{
			Format: cfg.Format,
			Dump:   cfg.Dump,
		})
		if err != nil {
			return err
		}
		log.Info("wrote workflows", "dir", cfg.OutDir, "solutions", len(wfs))
		return nil
	}
	return solution.Render(cc.Out, wfs, cfg.Format, cfg.colors(cc.Out))
}
