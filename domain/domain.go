package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/sanctuuary/APE-sub003/config"
	"github.com/sanctuuary/APE-sub003/format"
	"github.com/sanctuuary/APE-sub003/taxonomy"
)

// Hierarchy maps a predicate to its direct sub-predicates.
type Hierarchy map[string][]string

type Operations struct {
	Root     string    `json:"root"`
	Taxonomy Hierarchy `json:"taxonomy,omitempty"`
}

type Data struct {
	Roots    []string  `json:"roots"`
	Taxonomy Hierarchy `json:"taxonomy,omitempty"`
}

// Tool is an annotated tool. Every input and output gives, per data
// dimension, the alternative types it may have.
type Tool struct {
	ID         string            `json:"id"`
	Label      string            `json:"label,omitempty"`
	Operations []string          `json:"operations,omitempty"`
	Inputs     []config.TypeSpec `json:"inputs,omitempty"`
	Outputs    []config.TypeSpec `json:"outputs,omitempty"`
}

// File is a domain description: the operation taxonomy, the data
// dimensions and the tool annotations.
type File struct {
	Operations Operations `json:"operations"`
	Data       Data       `json:"data"`
	Tools      []Tool     `json:"tools"`
}

func Parse(d []byte, f format.Format) (*File, error) {
	var file File
	if err := format.Decode(d, f, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Load reads the domain file at path, choosing the format from its suffix.
func Load(path string) (*File, error) {
	f, err := format.FromPath(path)
	if err != nil {
		return nil, err
	}
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file, err := Parse(d, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Build creates the taxonomy of f. Tools and their inputs and outputs are
// marked relevant. A malformed tool is an error when strict is set and is
// otherwise logged and left out.
func Build(f *File, strict bool, log *slog.Logger) (*taxonomy.Taxonomy, error) {
	if log == nil {
		log = slog.Default()
	}
	if f.Operations.Root == "" {
		return nil, fmt.Errorf("%w: no operation root", taxonomy.ErrUnresolved)
	}
	if len(f.Data.Roots) == 0 {
		return nil, fmt.Errorf("%w: no data dimension", taxonomy.ErrUnresolved)
	}
	tax := taxonomy.New()
	root, err := tax.AddRoot(f.Operations.Root, f.Operations.Root, taxonomy.Operation)
	if err != nil {
		return nil, err
	}
	if err := grow(tax, root, f.Operations.Taxonomy); err != nil {
		return nil, err
	}
	for _, r := range f.Data.Roots {
		id, err := tax.AddRoot(r, r, taxonomy.Data)
		if err != nil {
			return nil, err
		}
		if err := grow(tax, id, f.Data.Taxonomy); err != nil {
			return nil, err
		}
	}
	for i, t := range f.Tools {
		m, err := addTool(tax, t)
		if err == nil {
			tax.MarkRelevant(m.Pred)
			for _, d := range slices.Concat(m.Inputs, m.Outputs) {
				tax.MarkRelevant(d)
			}
			continue
		}
		if strict || !annotationError(err) {
			return nil, fmt.Errorf("tool %d (%s): %w", i, t.ID, err)
		}
		log.Warn("skipping tool", "index", i, "tool", t.ID, "error", err)
	}
	return tax, nil
}

func annotationError(err error) bool {
	return errors.Is(err, taxonomy.ErrMalformedTool) ||
		errors.Is(err, taxonomy.ErrUnresolved) ||
		errors.Is(err, taxonomy.ErrDuplicate)
}

// grow adds everything below root in h, walking children in name order so
// that identical files give identical taxonomies. A name met twice is
// linked under its further parents.
func grow(tax *taxonomy.Taxonomy, root taxonomy.ID, h Hierarchy) error {
	queue := []taxonomy.ID{root}
	done := map[taxonomy.ID]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if done[id] {
			continue
		}
		done[id] = true
		name := tax.Get(id).IRI
		subs := slices.Clone(h[name])
		slices.Sort(subs)
		for _, s := range slices.Compact(subs) {
			sid, ok := tax.Lookup(s)
			if ok {
				if err := tax.Link(id, sid); err != nil {
					return err
				}
			} else {
				var err error
				if sid, err = tax.Add(s, s, id); err != nil {
					return err
				}
			}
			queue = append(queue, sid)
		}
	}
	return nil
}

func addTool(tax *taxonomy.Taxonomy, t Tool) (*taxonomy.Module, error) {
	if t.ID == "" {
		return nil, fmt.Errorf("%w: tool without id", taxonomy.ErrMalformedTool)
	}
	var ops []taxonomy.ID
	for _, op := range t.Operations {
		id, err := tax.Resolve(op, taxonomy.Operation)
		if err != nil {
			return nil, err
		}
		ops = append(ops, id)
	}
	if _, ok := tax.Lookup(t.ID); ok {
		return nil, fmt.Errorf("%w: tool %q", taxonomy.ErrDuplicate, t.ID)
	}
	// resolve everything before any helper predicate gets created
	var groups [][][]taxonomy.ID
	for _, io := range [][]config.TypeSpec{t.Inputs, t.Outputs} {
		for _, ts := range io {
			g, err := resolve(tax, ts)
			if err != nil {
				return nil, err
			}
			groups = append(groups, g)
		}
	}
	data := make([]taxonomy.ID, len(groups))
	for i, g := range groups {
		id, err := tax.Instance(g...)
		if err != nil {
			return nil, err
		}
		data[i] = id
	}
	label := t.Label
	if label == "" {
		label = t.ID
	}
	return tax.AddModule(t.ID, label, ops, data[:len(t.Inputs)], data[len(t.Inputs):])
}

// resolve turns ts into one group of alternative types per dimension,
// checking that every type belongs to the dimension it is listed under.
func resolve(tax *taxonomy.Taxonomy, ts config.TypeSpec) ([][]taxonomy.ID, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: data without types", taxonomy.ErrMalformedTool)
	}
	var groups [][]taxonomy.ID
	for _, dim := range slices.Sorted(maps.Keys(ts)) {
		root, err := tax.Resolve(dim, taxonomy.Data)
		if err != nil {
			return nil, err
		}
		if tax.Get(root).Kind != taxonomy.Root {
			return nil, fmt.Errorf("%w: %q is not a data dimension", taxonomy.ErrMalformedTool, dim)
		}
		var g []taxonomy.ID
		for _, name := range ts[dim] {
			id, err := tax.Resolve(name, taxonomy.Data)
			if err != nil {
				return nil, err
			}
			if tax.Get(id).Root != root {
				return nil, fmt.Errorf("%w: %q is not a %s type", taxonomy.ErrMalformedTool, name, dim)
			}
			g = append(g, id)
		}
		if len(g) == 0 {
			return nil, fmt.Errorf("%w: no %s type", taxonomy.ErrMalformedTool, dim)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// Instance returns the predicate of a workflow input or output described
// by ts.
func Instance(tax *taxonomy.Taxonomy, ts config.TypeSpec) (taxonomy.ID, error) {
	groups, err := resolve(tax, ts)
	if err != nil {
		return taxonomy.None, err
	}
	return tax.Instance(groups...)
}
