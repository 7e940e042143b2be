package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"slices"
	"strings"
	"testing"

	"go.lsp.dev/jsonrpc2"

	ape "github.com/sanctuuary/APE-sub003"
	"github.com/sanctuuary/APE-sub003/synth"
)

const testDomain = `{
  "operations": {"root": "Op"},
  "data": {"roots": ["Data"], "taxonomy": {"Data": ["X", "Y", "Z"]}},
  "tools": [
    {"id": "x2y", "inputs": [{"Data": ["X"]}], "outputs": [{"Data": ["Y"]}]},
    {"id": "y2z", "inputs": [{"Data": ["Y"]}], "outputs": [{"Data": ["Z"]}]},
    {"id": "x2z", "inputs": [{"Data": ["X"]}], "outputs": [{"Data": ["Z"]}]}
  ]
}`

const testConfig = `{
  "solution_length": {"min": 1, "max": 2},
  "solutions": 5,
  "timeout_sec": 30,
  "inputs": [{"Data": ["X"]}],
  "outputs": [{"Data": ["Z"]}]
}`

func connect(t *testing.T) jsonrpc2.Conn {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	a, b := net.Pipe()
	srv := NewServer(slog.New(slog.DiscardHandler), synth.WithMemoryScratch())
	done := make(chan error, 1)
	go func() { done <- srv.ServeStream(ctx, a) }()
	client := jsonrpc2.NewConn(jsonrpc2.NewStream(b))
	client.Go(ctx, jsonrpc2.MethodNotFoundHandler)
	t.Cleanup(func() {
		client.Close()
		<-client.Done()
		cancel()
		<-done
	})
	return client
}

func TestTemplates(t *testing.T) {
	c := connect(t)
	var got []ape.TemplateInfo
	if _, err := c.Call(context.Background(), MethodTemplates, nil, &got); err != nil {
		t.Fatal(err)
	}
	ids := make([]string, len(got))
	for i, ti := range got {
		ids[i] = ti.ID
	}
	for _, want := range []string{"use_m", "next_m", "SLTL", "dep_op"} {
		if !slices.Contains(ids, want) {
			t.Errorf("template %s not listed in %v", want, ids)
		}
	}
}

func TestRun(t *testing.T) {
	c := connect(t)
	params := RunParams{
		Domain: json.RawMessage(testDomain),
		Config: json.RawMessage(testConfig),
		Filter: `length == 2`,
		Text:   true,
	}
	var got RunResult
	if _, err := c.Call(context.Background(), MethodRun, params, &got); err != nil {
		t.Fatal(err)
	}
	if got.Outcome != synth.MaxLength || got.Found != 2 {
		t.Errorf("outcome %s with %d workflows", got.Outcome, got.Found)
	}
	if len(got.Solutions) != 1 || got.Solutions[0].Steps[1].Tool != "y2z" {
		t.Fatalf("filtered solutions: %+v", got.Solutions)
	}
	if !strings.Contains(got.Text, "x2y(in1)") {
		t.Errorf("text rendering:\n%s", got.Text)
	}
}

func TestRunPatched(t *testing.T) {
	c := connect(t)
	params := RunParams{
		Domain:  json.RawMessage(testDomain),
		Config:  json.RawMessage(testConfig),
		Patches: []json.RawMessage{json.RawMessage(`{"solutions": 1}`)},
	}
	var got RunResult
	if _, err := c.Call(context.Background(), MethodRun, params, &got); err != nil {
		t.Fatal(err)
	}
	if got.Outcome != synth.Success || len(got.Solutions) != 1 {
		t.Errorf("outcome %s with %d workflows", got.Outcome, len(got.Solutions))
	}
}

func TestRunErrors(t *testing.T) {
	c := connect(t)
	tests := []struct {
		name   string
		params any
		code   jsonrpc2.Code
	}{
		{"bad params", []int{1}, jsonrpc2.InvalidParams},
		{"missing domain", RunParams{Config: json.RawMessage(testConfig)}, jsonrpc2.InvalidParams},
		{"bad length", RunParams{
			Domain:  json.RawMessage(testDomain),
			Config:  json.RawMessage(testConfig),
			Patches: []json.RawMessage{json.RawMessage(`{"solution_length": {"min": 0}}`)},
		}, jsonrpc2.InvalidParams},
		{"bad filter", RunParams{
			Domain: json.RawMessage(testDomain),
			Config: json.RawMessage(testConfig),
			Filter: `length +`,
		}, jsonrpc2.InvalidParams},
		{"constraint file", RunParams{
			Domain:  json.RawMessage(testDomain),
			Config:  json.RawMessage(testConfig),
			Patches: []json.RawMessage{json.RawMessage(`{"constraints_path": "/etc/hostname"}`)},
		}, jsonrpc2.InvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got RunResult
			_, err := c.Call(context.Background(), MethodRun, tt.params, &got)
			var jerr *jsonrpc2.Error
			if !errors.As(err, &jerr) {
				t.Fatalf("got %v, want a JSON-RPC error", err)
			}
			if jerr.Code != tt.code {
				t.Errorf("code %d, want %d: %s", jerr.Code, tt.code, jerr.Message)
			}
		})
	}

	var res any
	_, err := c.Call(context.Background(), "synth/nope", nil, &res)
	var jerr *jsonrpc2.Error
	if !errors.As(err, &jerr) || jerr.Code != jsonrpc2.MethodNotFound {
		t.Errorf("unknown method: got %v", err)
	}
}
