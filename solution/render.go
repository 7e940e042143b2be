package solution

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sanctuuary/APE-sub003/format"
)

// Colors holds the printers of the text rendering.
type Colors struct {
	Tool  *color.Color
	Data  *color.Color
	Types *color.Color
	Index *color.Color
}

// NewColors returns the terminal palette; with enabled false every
// printer writes plain text.
func NewColors(enabled bool) *Colors {
	c := &Colors{
		Tool:  color.New(color.FgCyan, color.Bold),
		Data:  color.New(color.FgYellow),
		Types: color.New(color.FgHiBlack),
		Index: color.New(color.FgMagenta),
	}
	for _, p := range []*color.Color{c.Tool, c.Data, c.Types, c.Index} {
		if enabled {
			p.EnableColor()
		} else {
			p.DisableColor()
		}
	}
	return c
}

func (c *Colors) data(d *Data) string {
	return c.Data.Sprint(d.Name) + " " + c.Types.Sprint("["+strings.Join(d.Types, ", ")+"]")
}

func (c *Colors) names(ds []*Data) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = c.Data.Sprint(d.Name)
	}
	return strings.Join(parts, ", ")
}

// Text writes wf for humans.
func Text(w io.Writer, wf *Workflow, c *Colors) error {
	if c == nil {
		c = NewColors(false)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (length %d)\n", c.Index.Sprintf("workflow %d", wf.Index), wf.Length)
	for _, d := range wf.Inputs {
		fmt.Fprintf(&b, "  input  %s\n", c.data(d))
	}
	for _, s := range wf.Steps {
		fmt.Fprintf(&b, "  %d %s(%s)", s.Index, c.Tool.Sprint(s.Tool), c.names(s.Inputs))
		for i, d := range s.Outputs {
			sep := ", "
			if i == 0 {
				sep = " -> "
			}
			fmt.Fprintf(&b, "%s%s", sep, c.data(d))
		}
		b.WriteByte('\n')
	}
	for _, d := range wf.Outputs {
		fmt.Fprintf(&b, "  output %s\n", c.data(d))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Render writes workflows in format f. Text renders them one after the
// other; JSON and YAML write a single list.
func Render(w io.Writer, wfs []*Workflow, f format.Format, c *Colors) error {
	if f.IsTOML() {
		return fmt.Errorf("%w: workflows are not rendered as %s", format.ErrBadFormat, f)
	}
	if !f.IsText() {
		if wfs == nil {
			wfs = []*Workflow{}
		}
		return format.Encode(w, wfs, f)
	}
	for _, wf := range wfs {
		if err := Text(w, wf, c); err != nil {
			return err
		}
	}
	return nil
}
