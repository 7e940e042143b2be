package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.lsp.dev/jsonrpc2"

	ape "github.com/sanctuuary/APE-sub003"
	"github.com/sanctuuary/APE-sub003/config"
	"github.com/sanctuuary/APE-sub003/constraint"
	"github.com/sanctuuary/APE-sub003/format"
	"github.com/sanctuuary/APE-sub003/solution"
	"github.com/sanctuuary/APE-sub003/synth"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

const (
	MethodRun       = "synth/run"
	MethodTemplates = "synth/templates"
)

// RunParams are the parameters of synth/run. Domain and Config are JSON
// documents in the domain and configuration file layouts.
type RunParams struct {
	Domain  json.RawMessage   `json:"domain"`
	Config  json.RawMessage   `json:"config"`
	Patches []json.RawMessage `json:"patches,omitempty"`
	// Filter is an expression selecting workflows to return.
	Filter string `json:"filter,omitempty"`
	// Text also renders the workflows for humans.
	Text bool `json:"text,omitempty"`
}

type RunResult struct {
	RunID     string               `json:"runId"`
	Outcome   synth.Outcome        `json:"outcome"`
	Elapsed   time.Duration        `json:"elapsed"`
	Found     int                  `json:"found"`
	Solutions []*solution.Workflow `json:"solutions"`
	Lengths   []synth.LengthStats  `json:"lengths"`
	Text      string               `json:"text,omitempty"`
}

// Server answers synthesis requests over JSON-RPC 2.0.
type Server struct {
	log  *slog.Logger
	opts []synth.Option
}

func NewServer(log *slog.Logger, opts ...synth.Option) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, opts: opts}
}

// Handler dispatches one request. Requests are answered in order, each
// in its own goroutine so that the connection keeps reading.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.AsyncHandler(s.handle)
}

func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.log.Debug("request", "method", req.Method())
	switch req.Method() {
	case MethodTemplates:
		return reply(ctx, ape.Templates(), nil)
	case MethodRun:
		var p RunParams
		if err := json.Unmarshal(req.Params(), &p); err != nil {
			return reply(ctx, nil, jsonrpc2.Errorf(jsonrpc2.InvalidParams, "%v", err))
		}
		res, err := s.Run(ctx, &p)
		if err != nil {
			return reply(ctx, nil, replyError(err))
		}
		return reply(ctx, res, nil)
	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

// Run carries out a synth/run request.
func (s *Server) Run(ctx context.Context, p *RunParams) (*RunResult, error) {
	if len(p.Domain) == 0 || len(p.Config) == 0 {
		return nil, fmt.Errorf("%w: domain and config are required", config.ErrInvalid)
	}
	patches := make([][]byte, len(p.Patches))
	for i, pt := range p.Patches {
		patches[i] = pt
	}
	req, err := ape.ParseInlineRequest(p.Domain, p.Config, format.JSONFormat, patches...)
	if err != nil {
		return nil, err
	}
	var filter *solution.Filter
	if p.Filter != "" {
		if filter, err = solution.NewFilter(p.Filter); err != nil {
			return nil, err
		}
	}
	res, err := ape.Run(ctx, req, s.log, s.opts...)
	if err != nil {
		return nil, err
	}
	out := &RunResult{
		RunID:     res.RunID,
		Outcome:   res.Outcome,
		Elapsed:   res.Elapsed,
		Found:     len(res.Solutions),
		Solutions: res.Solutions,
		Lengths:   res.Lengths,
	}
	if filter != nil {
		if out.Solutions, err = filter.Apply(out.Solutions); err != nil {
			return nil, err
		}
	}
	if out.Solutions == nil {
		out.Solutions = []*solution.Workflow{}
	}
	if p.Text {
		var b bytes.Buffer
		if err := solution.Render(&b, out.Solutions, format.TextFormat, nil); err != nil {
			return nil, err
		}
		out.Text = b.String()
	}
	return out, nil
}

// replyError maps setup and input errors to InvalidParams and anything
// else to InternalError.
func replyError(err error) error {
	var cerr *constraint.Error
	switch {
	case errors.As(err, &cerr),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, ape.ErrFileReference),
		errors.Is(err, format.ErrBadFormat),
		errors.Is(err, solution.ErrBadFilter),
		errors.Is(err, taxonomy.ErrUnresolved),
		errors.Is(err, taxonomy.ErrMalformedTool),
		errors.Is(err, taxonomy.ErrDuplicate):
		return jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	return jsonrpc2.NewError(jsonrpc2.InternalError, err.Error())
}

// ServeStream serves one connection until it is closed.
func (s *Server) ServeStream(ctx context.Context, rwc io.ReadWriteCloser) error {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	conn.Go(ctx, s.Handler())
	select {
	case <-ctx.Done():
		conn.Close()
		<-conn.Done()
		return ctx.Err()
	case <-conn.Done():
	}
	if err := conn.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ListenAndServe serves every connection made to addr.
func (s *Server) ListenAndServe(ctx context.Context, network, addr string) error {
	return jsonrpc2.ListenAndServe(ctx, network, addr, jsonrpc2.HandlerServer(s.Handler()), 0)
}

// Stdio joins a reader and a writer into the stream ServeStream wants.
// Closing it does nothing.
type Stdio struct {
	io.Reader
	io.Writer
}

func (Stdio) Close() error { return nil }
