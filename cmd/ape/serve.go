package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scott-cotton/cli"

	"github.com/sanctuuary/APE-sub003/mcpserver"
	"github.com/sanctuuary/APE-sub003/rpc"
)

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}
	log := jsonLog(os.Stderr, cfg.V)
	if cfg.Gops {
		startGops(log)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := rpc.NewServer(log)
	if cfg.Addr == "" {
		log.Info("serving on stdio")
		err = srv.ServeStream(ctx, rpc.Stdio{Reader: cc.In, Writer: cc.Out})
	} else {
		log.Info("serving", "addr", cfg.Addr)
		err = srv.ListenAndServe(ctx, "tcp", cfg.Addr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveMCP(cfg *MCPConfig, cc *cli.Context, args []string) error {
	args, err := cfg.MCP.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrUsage, args)
	}
	log := jsonLog(os.Stderr, cfg.V)
	if cfg.Gops {
		startGops(log)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = mcpserver.New(log, version).ServeStdio(ctx, cc.In, cc.Out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
