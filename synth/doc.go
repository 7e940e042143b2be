// Package synth runs the search for workflows.
//
// [Run] encodes the problem at the minimum workflow length, solves,
// decodes every model into a workflow and blocks it, then moves on to
// the next length once the current one has no more models. It stops when
// the requested number of workflows is found, the maximum length is
// passed, the time budget is spent or the context is canceled, and
// reports which of these happened as an [Outcome].
//
// The time budget is global: each length and each solver call gets what
// is left of it. The CNF of each length is staged in a temporary file
// (or in memory, see [WithMemoryScratch]) that is removed as soon as the
// solver has read it.
//
// Runs report metrics and spans through the global OpenTelemetry
// providers.
package synth
