// Package config holds the run configuration of a synthesis run.
//
// A [Spec] is what users write, in YAML, JSON or TOML, using the keys of
// the APE configuration format:
//
//	solution_length: {min: 1, max: 5}
//	solutions: 10
//	timeout_sec: 60
//	inputs:  [{Data: [Image], Format: [PNG]}]
//	outputs: [{Data: [Table]}]
//	constraints:
//	  - constraintid: use_m
//	    parameters: [Conversion]
//	use_workflow_input: all
//	use_all_generated_data: one
//
// [NewRun] validates a Spec into an immutable [Run]. Documents can be
// patched before decoding with JSON merge patches or JSON patch operation
// lists, see [Patch].
package config
