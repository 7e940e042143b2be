package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/sanctuuary/APE-sub003/format"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "ape").
		WithSynopsis("ape [opts] command [opts]").
		WithDescription("ape synthesizes workflows of annotated tools.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return apeMain(cfg, cc, args)
		}).
		WithSubs(
			SynthCommand(cfg),
			CNFCommand(cfg),
			TemplatesCommand(cfg),
			DiffCommand(cfg),
			ServeCommand(cfg),
			MCPCommand(cfg))
}

func apeMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func SynthCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SynthConfig{MainConfig: mainCfg, Format: format.TextFormat}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, cfg.Files.opts()...)
	opts = append(opts, fmtOpt(&cfg.Format))
	return cli.NewCommandAt(&cfg.Synth, "synth").
		WithAliases("s").
		WithSynopsis("synth -c config -d domain [-set patch]... [-where expr] [-o dir] [-f format]").
		WithDescription(synthDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return runSynth(cfg, cc, args)
		})
}

const synthDescription = `synth searches for workflows of the domain's tools that turn the
configured inputs into the configured outputs, shortest first.

The configuration may be adjusted with -set, given a JSON patch (an array
of operations) or a JSON merge patch (an object), applied in order before
the configuration is checked:

  ape synth -c run.yaml -d domain.yaml -set '{"solutions": 3}'

-where keeps the workflows for which an expression holds. The expression
sees index, length, tools, inputs, outputs and types, for example

  -where 'length <= 3 && "resize" in tools'

Workflows are printed to the output, or with -o written one per file.`

func CNFCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CNFConfig{MainConfig: mainCfg, Len: 1}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, cfg.Files.opts()...)
	return cli.NewCommandAt(&cfg.CNF, "cnf").
		WithSynopsis("cnf -c config -d domain [-set patch]... [-len n]").
		WithDescription("write the DIMACS encoding of the run at one workflow length").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return writeCNF(cfg, cc, args)
		})
}

func TemplatesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TemplatesConfig{MainConfig: mainCfg, Format: format.TextFormat}
	return cli.NewCommandAt(&cfg.Templates, "templates").
		WithAliases("t").
		WithSynopsis("templates [-f format]").
		WithDescription("list the constraint templates").
		WithOpts(fmtOpt(&cfg.Format)).
		WithRun(func(cc *cli.Context, args []string) error {
			return templates(cfg, cc, args)
		})
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d").
		WithSynopsis("diff a b").
		WithDescription("diff two workflows written by synth -o in json or yaml").
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}

func ServeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ServeConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Serve, "serve").
		WithSynopsis("serve [-addr addr] [-gops]").
		WithDescription("serve synth/run and synth/templates over JSON-RPC 2.0").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serve(cfg, cc, args)
		})
}

func MCPCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &MCPConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.MCP, "mcp").
		WithSynopsis("mcp [-gops]").
		WithDescription("serve the synthesis tools over the Model Context Protocol on stdin and stdout").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serveMCP(cfg, cc, args)
		})
}
