package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/scott-cotton/cli"

	ape "github.com/sanctuuary/APE-sub003"
	"github.com/sanctuuary/APE-sub003/format"
)

func templates(cfg *TemplatesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Templates.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}
	ts := ape.Templates()
	if !cfg.Format.IsText() {
		return format.Encode(cc.Out, ts, cfg.Format)
	}
	tw := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
	for _, t := range ts {
		fmt.Fprintf(tw, "%s(%s)\t%s\n", t.ID, strings.Join(t.Parameters, ", "), t.Description)
	}
	return tw.Flush()
}
