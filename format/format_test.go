package format

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type doc struct {
	Name  string   `json:"name"`
	Sizes []int    `json:"sizes"`
	Tags  []string `json:"tags,omitempty"`
}

func TestDecodeAll(t *testing.T) {
	want := doc{Name: "a", Sizes: []int{1, 2}}
	for _, tt := range []struct {
		f   Format
		src string
	}{
		{YAMLFormat, "name: a\nsizes: [1, 2]\n"},
		{JSONFormat, `{"name": "a", "sizes": [1, 2]}`},
		{TOMLFormat, "name = \"a\"\nsizes = [1, 2]\n"},
	} {
		t.Run(tt.f.String(), func(t *testing.T) {
			var got doc
			if err := Decode([]byte(tt.src), tt.f, &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	var d doc
	if err := Decode([]byte("{"), JSONFormat, &d); !errors.Is(err, ErrBadFormat) {
		t.Errorf("json: %v", err)
	}
	if err := Decode([]byte("x"), TextFormat, &d); !errors.Is(err, ErrBadFormat) {
		t.Errorf("text: %v", err)
	}
}

func TestFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"a/run.yml":   YAMLFormat,
		"run.YAML":    YAMLFormat,
		"domain.json": JSONFormat,
		"cfg.toml":    TOMLFormat,
	} {
		got, err := FromPath(path)
		if err != nil || got != want {
			t.Errorf("%s: got %v %v", path, got, err)
		}
	}
	if _, err := FromPath("noext"); !errors.Is(err, ErrBadFormat) {
		t.Errorf("noext: %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := doc{Name: "b", Sizes: []int{3}, Tags: []string{"x"}}
	for _, f := range DocumentFormats() {
		buf := bytes.NewBuffer(nil)
		if err := Encode(buf, in, f); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		var out doc
		if err := Decode(buf.Bytes(), f, &out); err != nil {
			t.Fatalf("%s: %v\n%s", f, err, buf)
		}
		if diff := cmp.Diff(in, out); diff != "" {
			t.Errorf("%s: %s", f, diff)
		}
	}
}

func TestFormatText(t *testing.T) {
	for _, f := range AllFormats() {
		var g Format
		d, err := f.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		if err := g.UnmarshalText(d); err != nil || g != f {
			t.Errorf("%s: got %v %v", f, g, err)
		}
	}
	if Format(99).Suffix() != "" {
		t.Error("unknown format has a suffix")
	}
}
