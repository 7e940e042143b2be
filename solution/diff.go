package solution

import (
	"fmt"
	"io"
	"os"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sanctuuary/APE-sub003/format"
)

// Diff writes a line diff of the text renderings of a and b, leaving out
// the header line, and reports whether they differ.
func Diff(w io.Writer, a, b *Workflow) (bool, error) {
	ta, err := body(a)
	if err != nil {
		return false, err
	}
	tb, err := body(b)
	if err != nil {
		return false, err
	}
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(ta, tb)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	changed := false
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix = "+"
			changed = true
		case diffpatch.DiffDelete:
			prefix = "-"
			changed = true
		}
		for _, ln := range strings.SplitAfter(d.Text, "\n") {
			if ln == "" {
				continue
			}
			if _, err := io.WriteString(w, prefix+ln); err != nil {
				return changed, err
			}
		}
	}
	return changed, nil
}

func body(wf *Workflow) (string, error) {
	var b strings.Builder
	if err := Text(&b, wf, nil); err != nil {
		return "", err
	}
	_, rest, _ := strings.Cut(b.String(), "\n")
	return rest, nil
}

// Load reads a workflow written by WriteAll in JSON or YAML.
func Load(path string) (*Workflow, error) {
	f, err := format.FromPath(path)
	if err != nil {
		return nil, err
	}
	if !f.IsJSON() && !f.IsYAML() {
		return nil, fmt.Errorf("%w: %s: workflows are read from json or yaml", format.ErrBadFormat, path)
	}
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	wf := &Workflow{}
	if err := format.Decode(d, f, wf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wf, nil
}
