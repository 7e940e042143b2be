package solution

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/sanctuuary/APE-sub003/format"
)

// WriteOptions control WriteAll.
type WriteOptions struct {
	Format format.Format
	// Dump also writes the full model of each workflow.
	Dump bool
	// Parallel bounds the number of files written at once; 0 means no
	// bound.
	Parallel int
}

// FileName is the name WriteAll gives to workflow index in format f.
func FileName(index int, f format.Format) string {
	return fmt.Sprintf("workflow%d%s", index, f.Suffix())
}

// WriteAll writes every workflow to its own file in dir, which is created
// if needed. Workflows are read-only, so files are written concurrently.
func WriteAll(ctx context.Context, dir string, wfs []*Workflow, opts WriteOptions) error {
	if opts.Format.IsTOML() {
		return fmt.Errorf("%w: workflows are not rendered as %s", format.ErrBadFormat, opts.Format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for _, wf := range wfs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := writeFile(filepath.Join(dir, FileName(wf.Index, opts.Format)), func(w *bufio.Writer) error {
				if opts.Format.IsText() {
					return Text(w, wf, nil)
				}
				return format.Encode(w, wf, opts.Format)
			})
			if err != nil || !opts.Dump {
				return err
			}
			return writeFile(filepath.Join(dir, fmt.Sprintf("workflow%d.dump", wf.Index)), func(w *bufio.Writer) error {
				return wf.Dump(w)
			})
		})
	}
	return g.Wait()
}

func writeFile(path string, fill func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	err = fill(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
