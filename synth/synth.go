package synth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanctuuary/APE-sub003/atom"
	"github.com/sanctuuary/APE-sub003/cnf"
	"github.com/sanctuuary/APE-sub003/config"
	"github.com/sanctuuary/APE-sub003/debug"
	"github.com/sanctuuary/APE-sub003/encode"
	"github.com/sanctuuary/APE-sub003/solution"
	"github.com/sanctuuary/APE-sub003/solve"
)

// LengthStats describes the work done at one workflow length.
type LengthStats struct {
	Length    int           `json:"length"`
	Vars      int           `json:"vars"`
	Clauses   int           `json:"clauses"`
	Solutions int           `json:"solutions"`
	Status    string        `json:"status"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Result is everything a run produced. Solutions are in discovery order
// and numbered from 1.
type Result struct {
	RunID     string               `json:"runId"`
	Solutions []*solution.Workflow `json:"solutions"`
	Outcome   Outcome              `json:"outcome"`
	Elapsed   time.Duration        `json:"elapsed"`
	Lengths   []LengthStats        `json:"lengths"`
}

type options struct {
	log        *slog.Logger
	scratchDir string
	memory     bool
}

type Option func(*options)

func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithScratchDir stages CNF in temporary files under dir.
func WithScratchDir(dir string) Option {
	return func(o *options) { o.scratchDir = dir }
}

// WithMemoryScratch stages CNF in memory instead of temporary files.
func WithMemoryScratch() Option {
	return func(o *options) { o.memory = true }
}

type runner struct {
	p    *encode.Problem
	run  *config.Run
	opts options
	rc   *RunContext
	log  *slog.Logger
	m    *atom.Mapping
	res  *Result
	inst *instruments

	timedOut bool
	canceled bool
}

// Run searches for workflows of increasing length until the requested
// number is found, the maximum length is passed or the time budget of run
// is spent. Running out of time or of workflows is reported through the
// outcome; errors are setup and internal failures only.
func Run(ctx context.Context, p *encode.Problem, run *config.Run, opts ...Option) (*Result, error) {
	r := &runner{
		p:    p,
		run:  run,
		rc:   NewRunContext(run.Timeout()),
		m:    atom.NewMapping(),
		res:  &Result{RunID: uuid.NewString()},
		inst: meters(),
	}
	for _, o := range opts {
		o(&r.opts)
	}
	r.log = r.opts.log
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("run", r.res.RunID)

	ctx, span := otel.Tracer(scope).Start(ctx, "synth.Run",
		trace.WithAttributes(
			attribute.String("run", r.res.RunID),
			attribute.Int("min_length", run.MinLength()),
			attribute.Int("max_length", run.MaxLength()),
			attribute.Int("max_solutions", run.MaxSolutions()),
		),
	)
	defer span.End()

	if err := p.Check(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup failed")
		return nil, err
	}
	r.log.Info("synthesis started",
		"min", run.MinLength(), "max", run.MaxLength(),
		"solutions", run.MaxSolutions(), "timeout", run.Timeout())

	pastMax := false
	for length := run.MinLength(); !r.quotaMet(); length++ {
		if length > run.MaxLength() {
			pastMax = true
			break
		}
		if r.stop(ctx) {
			break
		}
		if err := r.length(ctx, length); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "length failed")
			return nil, fmt.Errorf("length %d: %w", length, err)
		}
		if r.timedOut || r.canceled {
			break
		}
	}

	res := r.res
	res.Elapsed = r.rc.Elapsed()
	switch {
	case r.quotaMet():
		res.Outcome = Success
	case r.timedOut || r.rc.Expired():
		res.Outcome = Timeout
	case r.canceled:
		res.Outcome = Unknown
	case len(res.Solutions) == 0:
		res.Outcome = Unsat
	case pastMax:
		res.Outcome = MaxLength
	default:
		res.Outcome = Unknown
	}
	r.inst.finished(ctx, res.Outcome)
	span.SetAttributes(
		attribute.String("outcome", res.Outcome.String()),
		attribute.Int("solutions", len(res.Solutions)),
	)
	r.log.Info("synthesis finished",
		"outcome", res.Outcome, "solutions", len(res.Solutions), "elapsed", res.Elapsed)
	return res, nil
}

func (r *runner) quotaMet() bool {
	return len(r.res.Solutions) >= r.run.MaxSolutions()
}

// stop samples the budget and the context.
func (r *runner) stop(ctx context.Context) bool {
	if ctx.Err() != nil {
		r.canceled = true
		return true
	}
	if r.rc.Expired() {
		r.timedOut = true
		return true
	}
	return false
}

func (r *runner) stage() (*cnf.Stage, error) {
	if r.opts.memory {
		return cnf.NewMemStage(), nil
	}
	return cnf.NewFileStage(r.opts.scratchDir)
}

// load encodes the problem at length into scratch space and hands it to
// a fresh solver. The scratch space is gone when load returns.
func (r *runner) load(length int, ls *LengthStats) (*solve.Solver, *encode.Encoder, error) {
	st, err := r.stage()
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()
	e, err := encode.New(r.p, length, r.m, st, r.run.Encoding())
	if err != nil {
		return nil, nil, err
	}
	stats, err := e.Encode()
	if err != nil {
		return nil, nil, err
	}
	ls.Vars, ls.Clauses = stats.Vars, stats.Clauses
	rd, err := st.Reader(stats.Vars)
	if err != nil {
		return nil, nil, err
	}
	s, err := solve.Load(rd)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Close(); err != nil {
		return nil, nil, err
	}
	return s, e, nil
}

func (r *runner) length(ctx context.Context, length int) error {
	start := time.Now()
	ctx, span := otel.Tracer(scope).Start(ctx, "synth.length",
		trace.WithAttributes(attribute.Int("length", length)))
	defer span.End()

	r.m.Reset()
	ls := LengthStats{Length: length}
	defer func() {
		ls.Elapsed = time.Since(start)
		r.res.Lengths = append(r.res.Lengths, ls)
	}()
	log := r.log.With("length", length)

	s, e, err := r.load(length, &ls)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encoding failed")
		return err
	}
	r.inst.encoded(ctx, length, ls.Clauses)
	log.Debug("encoded", "vars", ls.Vars, "clauses", ls.Clauses)

	dec := &solution.Decoder{
		Mapping:  e.Mapping(),
		Taxonomy: r.p.Taxonomy,
		Modules:  e.ModuleStates(),
		Types:    e.Types(),
	}
	for !r.quotaMet() {
		if r.stop(ctx) {
			ls.Status = "interrupted"
			return nil
		}
		t0 := time.Now()
		status := s.Solve(ctx, r.rc.Remaining())
		r.inst.solved(ctx, length, time.Since(t0).Seconds(), status == solve.Sat)
		switch status {
		case solve.Unsat:
			ls.Status = status.String()
			log.Debug("exhausted", "solutions", ls.Solutions)
			return nil
		case solve.Unknown:
			ls.Status = "interrupted"
			if ctx.Err() != nil {
				r.canceled = true
			} else {
				r.timedOut = true
			}
			return nil
		}
		model, err := s.Model()
		if err != nil {
			return err
		}
		wf, err := dec.Decode(len(r.res.Solutions)+1, model)
		if err != nil {
			return err
		}
		r.res.Solutions = append(r.res.Solutions, wf)
		ls.Solutions++
		if debug.Solve() {
			debug.Logf("run %s: %s\n", r.res.RunID, wf)
		}
		log.Debug("found", "index", wf.Index, "tools", wf.Tools())
		if err := s.Add(wf.Blocking(r.run.ToolSeqRepeat())...); err != nil {
			return err
		}
	}
	ls.Status = "quota"
	return nil
}
