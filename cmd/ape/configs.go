package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/gops/agent"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/sanctuuary/APE-sub003/format"
	"github.com/sanctuuary/APE-sub003/solution"
)

type MainConfig struct {
	V bool `cli:"name=v desc='log debug messages'"`

	Main *cli.Command
}

// RunFiles are the inputs shared by the commands that set up a run.
type RunFiles struct {
	Config string
	Domain string
	// Sets holds -set patches in command line order.
	Sets [][]byte
}

func (rf *RunFiles) opts() []*cli.Opt {
	return []*cli.Opt{
		&cli.Opt{
			Name:        "c",
			Aliases:     []string{"config"},
			Description: "run configuration file",
			Type: cli.NamedFuncOpt(cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
				rf.Config = v
				return v, nil
			}), "(file)"),
		},
		&cli.Opt{
			Name:        "d",
			Aliases:     []string{"domain"},
			Description: "domain file",
			Type: cli.NamedFuncOpt(cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
				rf.Domain = v
				return v, nil
			}), "(file)"),
		},
		&cli.Opt{
			Name:        "set",
			Description: "JSON patch or merge patch applied to the configuration, repeatable",
			Type: cli.NamedFuncOpt(cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
				rf.Sets = append(rf.Sets, []byte(v))
				return v, nil
			}), "(patch)"),
		},
	}
}

func (rf *RunFiles) check() error {
	if rf.Config == "" || rf.Domain == "" {
		return fmt.Errorf("%w: -c and -d are required", cli.ErrUsage)
	}
	return nil
}

func fmtOpt(fp *format.Format) *cli.Opt {
	return &cli.Opt{
		Name:        "f",
		Aliases:     []string{"format"},
		Description: "output format: text/t, json/j, yaml/y",
		Type: cli.NamedFuncOpt(cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
			f, err := format.ParseFormat(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
			}
			if f.IsTOML() {
				return nil, fmt.Errorf("%w: output is not written as %s", cli.ErrUsage, f)
			}
			*fp = f
			return f, nil
		}), "(format)"),
	}
}

type SynthConfig struct {
	*MainConfig
	Files RunFiles

	Where  string `cli:"name=where desc='expression selecting the workflows to keep'"`
	OutDir string `cli:"name=o desc='write each workflow to its own file in this directory'"`
	Dump   bool   `cli:"name=dump desc='with -o also write the full model of each workflow'"`
	Color  bool   `cli:"name=color desc='render text in color'"`
	Gops   bool   `cli:"name=gops desc='start the gops agent'"`

	Format format.Format

	Synth *cli.Command
}

func (cfg *SynthConfig) colors(w io.Writer) *solution.Colors {
	if cfg.Color {
		return solution.NewColors(true)
	}
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if isatty.IsTerminal(f.Fd()) {
		return solution.NewColors(true)
	}
	return nil
}

type CNFConfig struct {
	*MainConfig
	Files RunFiles

	Len int `cli:"name=len desc='workflow length to encode' default=1"`

	CNF *cli.Command
}

type TemplatesConfig struct {
	*MainConfig

	Format format.Format

	Templates *cli.Command
}

type DiffConfig struct {
	*MainConfig

	Diff *cli.Command
}

type ServeConfig struct {
	*MainConfig

	Addr string `cli:"name=addr desc='TCP listen address; without it stdin and stdout carry the connection'"`
	Gops bool   `cli:"name=gops desc='start the gops agent'"`

	Serve *cli.Command
}

type MCPConfig struct {
	*MainConfig

	Gops bool `cli:"name=gops desc='start the gops agent'"`

	MCP *cli.Command
}

func startGops(log *slog.Logger) {
	if err := agent.Listen(agent.Options{}); err != nil {
		log.Warn("gops agent failed", "error", err)
	}
}
