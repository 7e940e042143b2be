// Package taxonomy holds the predicates workflows are synthesized over.
//
// A [Taxonomy] is an arena: predicates are addressed by [ID] and link to
// each other by id. Super links are derived when a sub link is added, so
// the graph stays acyclic by construction.
//
// # Dimensions
//
// There is one operation taxonomy, whose leaves are tools ([Module]), and
// any number of data dimensions (for example a data category and a data
// format). A data instance picks one leaf per dimension, or is the
// distinguished empty type.
//
// # Relevance
//
// Only relevant predicates take part in encoding. [Taxonomy.MarkRelevant]
// propagates upward to every ancestor and downward to every descendant.
// After all tools, workflow inputs and outputs, and constraint parameters
// have been marked, [Taxonomy.AddPlainLeaves] adds an artificial leaf
// below each relevant abstract data predicate.
//
// # Helpers
//
// Conjunctions and disjunctions of predicates are represented by helper
// predicates ([Taxonomy.Aux], [Taxonomy.Instance]) which never appear in
// sub or super sets.
package taxonomy
