// Package atom maps the propositions of one encoding pass to DIMACS
// variables and back.
package atom
