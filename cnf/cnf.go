package cnf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var ErrEmptyClause = errors.New("empty clause")

// Sink receives clauses.
type Sink interface {
	Add(lits ...int) error
}

// Writer streams clauses in DIMACS body format, one per line.
type Writer struct {
	w       *bufio.Writer
	clauses int
	maxVar  int
	buf     []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Add(lits ...int) error {
	if len(lits) == 0 {
		return ErrEmptyClause
	}
	w.buf = w.buf[:0]
	for _, l := range lits {
		if l == 0 {
			return fmt.Errorf("literal 0 in clause %v", lits)
		}
		w.buf = strconv.AppendInt(w.buf, int64(l), 10)
		w.buf = append(w.buf, ' ')
		w.maxVar = max(w.maxVar, l, -l)
	}
	w.buf = append(w.buf, '0', '\n')
	if _, err := w.w.Write(w.buf); err != nil {
		return err
	}
	w.clauses++
	return nil
}

// Clauses is the number of clauses written.
func (w *Writer) Clauses() int { return w.clauses }

// MaxVar is the largest variable written.
func (w *Writer) MaxVar() int { return w.maxVar }

func (w *Writer) Flush() error { return w.w.Flush() }

// Header writes the DIMACS problem line.
func Header(w io.Writer, vars, clauses int) error {
	_, err := fmt.Fprintf(w, "p cnf %d %d\n", vars, clauses)
	return err
}

// Formula collects clauses in memory.
type Formula struct {
	Clauses [][]int
}

func (f *Formula) Add(lits ...int) error {
	if len(lits) == 0 {
		return ErrEmptyClause
	}
	c := make([]int, len(lits))
	copy(c, lits)
	f.Clauses = append(f.Clauses, c)
	return nil
}

// Eval reports whether every clause has a literal true under value.
func (f *Formula) Eval(value func(v int) bool) bool {
	for _, c := range f.Clauses {
		sat := false
		for _, l := range c {
			if l > 0 && value(l) || l < 0 && !value(-l) {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

// Stage stages a clause body in scratch space until the variable and
// clause counts are known. It is backed by a temporary file or a memory
// buffer and must be closed.
type Stage struct {
	*Writer
	file *os.File
	mem  *bytes.Buffer
}

// NewFileStage stages clauses in a temporary file in dir ("" for the
// default temporary directory).
func NewFileStage(dir string) (*Stage, error) {
	f, err := os.CreateTemp(dir, "ape-*.cnf")
	if err != nil {
		return nil, err
	}
	return &Stage{Writer: NewWriter(f), file: f}, nil
}

// NewMemStage stages clauses in memory.
func NewMemStage() *Stage {
	b := bytes.NewBuffer(nil)
	return &Stage{Writer: NewWriter(b), mem: b}
}

// Reader returns the complete DIMACS document declaring vars variables.
// vars must not be less than the largest variable written.
func (s *Stage) Reader(vars int) (io.Reader, error) {
	if vars < s.MaxVar() {
		return nil, fmt.Errorf("header declares %d variables, clauses use %d", vars, s.MaxVar())
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}
	hdr := bytes.NewBuffer(nil)
	if err := Header(hdr, vars, s.Clauses()); err != nil {
		return nil, err
	}
	if s.mem != nil {
		return io.MultiReader(hdr, bytes.NewReader(s.mem.Bytes())), nil
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.MultiReader(hdr, s.file), nil
}

// Path is the scratch file name, or "" for memory stages.
func (s *Stage) Path() string {
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

// Close releases the scratch space. It may be called more than once.
func (s *Stage) Close() error {
	if s.file == nil {
		if s.mem != nil {
			s.mem.Reset()
		}
		return nil
	}
	name := s.file.Name()
	err := s.file.Close()
	s.file = nil
	if rerr := os.Remove(name); rerr != nil && !errors.Is(rerr, os.ErrNotExist) && err == nil {
		err = rerr
	}
	return err
}
