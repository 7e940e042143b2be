package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/sanctuuary/APE-sub003/constraint"
	"github.com/sanctuuary/APE-sub003/format"
)

// Patch applies patches in order to the JSON document doc. A patch that
// is a JSON array is an RFC 6902 operation list; otherwise it is an RFC
// 7386 merge patch.
func Patch(doc []byte, patches ...[]byte) ([]byte, error) {
	for i, p := range patches {
		var err error
		if t := bytes.TrimSpace(p); len(t) > 0 && t[0] == '[' {
			var ops jsonpatch.Patch
			ops, err = jsonpatch.DecodePatch(t)
			if err == nil {
				doc, err = ops.Apply(doc)
			}
		} else {
			doc, err = jsonpatch.MergePatch(doc, p)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: patch %d: %w", ErrInvalid, i, err)
		}
	}
	return doc, nil
}

// Parse decodes a configuration document after applying patches to it.
func Parse(d []byte, f format.Format, patches ...[]byte) (Spec, error) {
	j, err := format.ToJSON(d, f)
	if err != nil {
		return Spec{}, err
	}
	if j, err = Patch(j, patches...); err != nil {
		return Spec{}, err
	}
	var s Spec
	if err := json.Unmarshal(j, &s); err != nil {
		return Spec{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s, nil
}

// Load reads and validates the configuration file at path. A relative
// constraints_path is taken relative to the file.
func Load(path string, patches ...[]byte) (*Run, error) {
	f, err := format.FromPath(path)
	if err != nil {
		return nil, err
	}
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(d, f, patches...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.ConstraintsPath != "" && !filepath.IsAbs(s.ConstraintsPath) {
		s.ConstraintsPath = filepath.Join(filepath.Dir(path), s.ConstraintsPath)
	}
	return NewRun(s)
}

// ConstraintFile is a batch of constraints kept apart from the run
// configuration.
type ConstraintFile struct {
	Constraints []constraint.Spec `json:"constraints"`
}

func ParseConstraints(d []byte, f format.Format) ([]constraint.Spec, error) {
	var cf ConstraintFile
	if err := format.Decode(d, f, &cf); err != nil {
		return nil, err
	}
	return cf.Constraints, nil
}

func LoadConstraints(path string) ([]constraint.Spec, error) {
	f, err := format.FromPath(path)
	if err != nil {
		return nil, err
	}
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConstraints(d, f)
}
