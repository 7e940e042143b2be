// Package ape ties the pieces of a synthesis run together: it reads a
// domain and a run configuration, builds the taxonomy and constraints,
// and hands the problem to [synth.Run].
package ape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sanctuuary/APE-sub003/atom"
	"github.com/sanctuuary/APE-sub003/cnf"
	"github.com/sanctuuary/APE-sub003/config"
	"github.com/sanctuuary/APE-sub003/constraint"
	"github.com/sanctuuary/APE-sub003/domain"
	"github.com/sanctuuary/APE-sub003/encode"
	"github.com/sanctuuary/APE-sub003/format"
	"github.com/sanctuuary/APE-sub003/synth"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

// Request is one synthesis problem: a domain and a run configuration.
type Request struct {
	Domain *domain.File
	Run    *config.Run
	// Bulk holds constraints from a constraint file. Unknown constraint
	// ids among them are skipped.
	Bulk []constraint.Spec
}

// LoadRequest reads a configuration file, the domain file and the
// constraint file the configuration names, if any.
func LoadRequest(configPath, domainPath string, patches ...[]byte) (Request, error) {
	run, err := config.Load(configPath, patches...)
	if err != nil {
		return Request{}, err
	}
	d, err := domain.Load(domainPath)
	if err != nil {
		return Request{}, err
	}
	req := Request{Domain: d, Run: run}
	if p := run.ConstraintsPath(); p != "" {
		if req.Bulk, err = config.LoadConstraints(p); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

// ErrFileReference reports a request document naming a local file where
// only inline documents are accepted.
var ErrFileReference = errors.New("file reference not allowed")

// ParseRequest is LoadRequest for documents in memory. Both documents
// are in format f.
func ParseRequest(domainDoc, configDoc []byte, f format.Format, patches ...[]byte) (Request, error) {
	req, err := parseRequest(domainDoc, configDoc, f, patches)
	if err != nil {
		return Request{}, err
	}
	if p := req.Run.ConstraintsPath(); p != "" {
		if req.Bulk, err = config.LoadConstraints(p); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

// ParseInlineRequest is ParseRequest for documents from a remote client.
// Nothing is read from the file system: a configuration with a
// constraints_path fails with ErrFileReference.
func ParseInlineRequest(domainDoc, configDoc []byte, f format.Format, patches ...[]byte) (Request, error) {
	req, err := parseRequest(domainDoc, configDoc, f, patches)
	if err != nil {
		return Request{}, err
	}
	if req.Run.ConstraintsPath() != "" {
		return Request{}, fmt.Errorf("%w: constraints_path", ErrFileReference)
	}
	return req, nil
}

func parseRequest(domainDoc, configDoc []byte, f format.Format, patches [][]byte) (Request, error) {
	d, err := domain.Parse(domainDoc, f)
	if err != nil {
		return Request{}, fmt.Errorf("domain: %w", err)
	}
	spec, err := config.Parse(configDoc, f, patches...)
	if err != nil {
		return Request{}, fmt.Errorf("config: %w", err)
	}
	run, err := config.NewRun(spec)
	if err != nil {
		return Request{}, err
	}
	return Request{Domain: d, Run: run}, nil
}

// Prepare builds the problem of req: the taxonomy with every tool,
// workflow input and output, and constraint parameter marked relevant.
func Prepare(req Request, log *slog.Logger) (*encode.Problem, error) {
	if log == nil {
		log = slog.Default()
	}
	run := req.Run
	tax, err := domain.Build(req.Domain, run.Encoding().Strict, log)
	if err != nil {
		return nil, err
	}
	p := &encode.Problem{Taxonomy: tax}
	if p.Inputs, err = instances(tax, run.Inputs()); err != nil {
		return nil, fmt.Errorf("workflow input: %w", err)
	}
	if p.Outputs, err = instances(tax, run.Outputs()); err != nil {
		return nil, fmt.Errorf("workflow output: %w", err)
	}
	if p.Constraints, err = constraint.Resolve(run.Constraints(), tax); err != nil {
		return nil, err
	}
	if len(req.Bulk) > 0 {
		bulk, err := constraint.ResolveBulk(req.Bulk, tax, log)
		if err != nil {
			return nil, err
		}
		p.Constraints = append(p.Constraints, bulk...)
	}
	tax.AddPlainLeaves()
	return p, nil
}

func instances(tax *taxonomy.Taxonomy, specs []config.TypeSpec) ([]taxonomy.ID, error) {
	var res []taxonomy.ID
	for i, ts := range specs {
		id, err := domain.Instance(tax, ts)
		if err != nil {
			return nil, fmt.Errorf("%d: %w", i, err)
		}
		tax.MarkRelevant(id)
		res = append(res, id)
	}
	return res, nil
}

// Run prepares req and synthesizes workflows for it.
func Run(ctx context.Context, req Request, log *slog.Logger, opts ...synth.Option) (*synth.Result, error) {
	p, err := Prepare(req, log)
	if err != nil {
		return nil, err
	}
	if log != nil {
		opts = append([]synth.Option{synth.WithLogger(log)}, opts...)
	}
	return synth.Run(ctx, p, req.Run, opts...)
}

// WriteCNF writes the DIMACS encoding of req at one workflow length.
func WriteCNF(w io.Writer, req Request, length int, log *slog.Logger) (encode.Stats, error) {
	p, err := Prepare(req, log)
	if err != nil {
		return encode.Stats{}, err
	}
	st := cnf.NewMemStage()
	defer st.Close()
	e, err := encode.New(p, length, atom.NewMapping(), st, req.Run.Encoding())
	if err != nil {
		return encode.Stats{}, err
	}
	stats, err := e.Encode()
	if err != nil {
		return encode.Stats{}, err
	}
	r, err := st.Reader(stats.Vars)
	if err != nil {
		return encode.Stats{}, err
	}
	if _, err := io.Copy(w, r); err != nil {
		return encode.Stats{}, err
	}
	return stats, nil
}

// TemplateInfo describes a constraint template for listings.
type TemplateInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

// Templates lists the constraint templates by id.
func Templates() []TemplateInfo {
	var res []TemplateInfo
	for _, t := range constraint.Templates() {
		ti := TemplateInfo{ID: t.ID, Description: t.Description, Parameters: []string{}}
		for _, p := range t.Params {
			ti.Parameters = append(ti.Parameters, p.String())
		}
		res = append(res, ti)
	}
	return res
}
