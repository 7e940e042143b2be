package synth

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scope = "github.com/sanctuuary/APE-sub003/synth"

type instruments struct {
	solutions metric.Int64Counter
	solveTime metric.Float64Histogram
	clauses   metric.Int64Histogram
	runs      metric.Int64Counter
}

var (
	instOnce sync.Once
	inst     instruments
)

// meters returns the run instruments, registered on the global meter
// provider the first time they are needed. Registration errors leave a
// no-op instrument in place.
func meters() *instruments {
	instOnce.Do(func() {
		m := otel.Meter(scope)
		var err error
		if inst.solutions, err = m.Int64Counter("ape.synth.solutions",
			metric.WithDescription("Workflows found."),
		); err != nil {
			otel.Handle(err)
		}
		if inst.solveTime, err = m.Float64Histogram("ape.synth.solve.duration",
			metric.WithDescription("Time spent in one solver call."),
			metric.WithUnit("s"),
		); err != nil {
			otel.Handle(err)
		}
		if inst.clauses, err = m.Int64Histogram("ape.synth.clauses",
			metric.WithDescription("Clauses encoded for one workflow length."),
		); err != nil {
			otel.Handle(err)
		}
		if inst.runs, err = m.Int64Counter("ape.synth.runs",
			metric.WithDescription("Finished runs by outcome."),
		); err != nil {
			otel.Handle(err)
		}
	})
	return &inst
}

func (in *instruments) solved(ctx context.Context, length int, seconds float64, found bool) {
	attrs := metric.WithAttributes(attribute.Int("length", length))
	if in.solveTime != nil {
		in.solveTime.Record(ctx, seconds, attrs)
	}
	if found && in.solutions != nil {
		in.solutions.Add(ctx, 1, attrs)
	}
}

func (in *instruments) encoded(ctx context.Context, length, clauses int) {
	if in.clauses != nil {
		in.clauses.Record(ctx, int64(clauses), metric.WithAttributes(attribute.Int("length", length)))
	}
}

func (in *instruments) finished(ctx context.Context, o Outcome) {
	if in.runs != nil {
		in.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o.String())))
	}
}
