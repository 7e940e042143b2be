// Package rpc serves synthesis over JSON-RPC 2.0 with LSP-style
// Content-Length framing.
//
// Two methods are available. synth/templates lists the constraint
// templates. synth/run takes a domain document, a configuration document
// and optional patches to the configuration, and answers with the run
// outcome and the workflows found.
package rpc
