// Package format names the document formats ape reads and writes.
//
// Configuration and domain files may be YAML, JSON or TOML. Every
// document is converted to JSON before it is patched or decoded, so the
// json struct tags of the target types govern all three formats.
//
// # Usage
//
//	f, err := format.FromPath("run.yaml")
//	err = format.Decode(data, f, &spec)
//
// Text is an output-only format used to render workflows for terminals.
package format
