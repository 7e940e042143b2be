// Package domain reads domain files and builds taxonomies from them.
//
// A domain file names the root of the operation taxonomy, the roots of the
// data dimensions, the sub-predicate hierarchy below each root and the
// annotated tools:
//
//	operations:
//	  root: Operation
//	  taxonomy: {Operation: [Conversion]}
//	data:
//	  roots: [Data, Format]
//	  taxonomy: {Data: [Image, Table], Format: [PNG, CSV]}
//	tools:
//	  - id: png2csv
//	    operations: [Conversion]
//	    inputs:  [{Data: [Image], Format: [PNG]}]
//	    outputs: [{Data: [Table], Format: [CSV]}]
//
// Files may be YAML, JSON or TOML. Several types listed for one dimension
// are alternatives; types of different dimensions must all hold.
package domain
