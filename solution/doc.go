// Package solution decodes solver models into workflows.
//
// A [Decoder] partitions a model into the tool chosen at every step, the
// leaf types of every data slot and the references from step inputs back
// to the data that feeds them. From these it rebuilds the data-flow graph
// of the workflow, checking that every step runs exactly one tool and
// every non-empty input has exactly one source. Everything else in the
// model is kept only for [Workflow.Dump].
//
// Decoded workflows are immutable. They can be rendered ([Text],
// [Render]), filtered with expressions ([Filter]) and written to files in
// parallel ([WriteAll]).
package solution
