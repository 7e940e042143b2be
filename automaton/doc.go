// Package automaton builds the fixed-shape state graph of one candidate
// workflow length: a module state per step, memory blocks holding data
// created so far, used blocks holding the inputs of each step, a terminal
// used block for the workflow outputs, and a null state meaning "no
// reference".
package automaton
