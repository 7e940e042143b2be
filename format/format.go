package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

type Format int

const (
	YAMLFormat Format = iota
	JSONFormat
	TOMLFormat
	TextFormat
)

var ErrBadFormat = errors.New("bad format")

func ParseFormat(v string) (Format, error) {
	f, ok := map[string]Format{
		"y":    YAMLFormat,
		"yml":  YAMLFormat,
		"yaml": YAMLFormat,
		"j":    JSONFormat,
		"json": JSONFormat,
		"toml": TOMLFormat,
		"t":    TextFormat,
		"text": TextFormat,
		"txt":  TextFormat,
	}[strings.ToLower(v)]
	if ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadFormat, v)
}

// FromPath picks the format of a file by its suffix.
func FromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("%w: %q has no suffix", ErrBadFormat, path)
	}
	return ParseFormat(ext)
}

func (f Format) String() string {
	d, err := f.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case YAMLFormat:
		return []byte("yaml"), nil
	case JSONFormat:
		return []byte("json"), nil
	case TOMLFormat:
		return []byte("toml"), nil
	case TextFormat:
		return []byte("text"), nil
	default:
		return nil, fmt.Errorf("<err: %d is not a format>", f)
	}
}

func (f *Format) UnmarshalText(d []byte) error {
	pf, err := ParseFormat(string(d))
	if err != nil {
		return err
	}
	*f = pf
	return nil
}

func (f Format) IsJSON() bool { return f == JSONFormat }
func (f Format) IsYAML() bool { return f == YAMLFormat }
func (f Format) IsTOML() bool { return f == TOMLFormat }
func (f Format) IsText() bool { return f == TextFormat }

// Suffix returns the file extension for this format (including the dot).
func (f Format) Suffix() string {
	switch f {
	case YAMLFormat:
		return ".yaml"
	case JSONFormat:
		return ".json"
	case TOMLFormat:
		return ".toml"
	case TextFormat:
		return ".txt"
	default:
		return ""
	}
}

// AllFormats returns all supported formats in preference order.
func AllFormats() []Format {
	return []Format{YAMLFormat, JSONFormat, TOMLFormat, TextFormat}
}

// DocumentFormats returns the formats documents can be read from.
func DocumentFormats() []Format {
	return []Format{YAMLFormat, JSONFormat, TOMLFormat}
}

// ToJSON converts a document to JSON, the form documents are patched and
// decoded in.
func ToJSON(d []byte, f Format) ([]byte, error) {
	switch f {
	case JSONFormat:
		if !json.Valid(d) {
			return nil, fmt.Errorf("%w: invalid json", ErrBadFormat)
		}
		return d, nil
	case YAMLFormat:
		j, err := yaml.YAMLToJSON(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadFormat, err)
		}
		return j, nil
	case TOMLFormat:
		var v map[string]any
		if err := toml.Unmarshal(d, &v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadFormat, err)
		}
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("%w: cannot read %s documents", ErrBadFormat, f)
	}
}

// Decode reads a document of format f into v, which is decoded from the
// JSON form so that json struct tags apply to every format.
func Decode(d []byte, f Format, v any) error {
	j, err := ToJSON(d, f)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(j, v); err != nil {
		return fmt.Errorf("decoding %s: %w", f, err)
	}
	return nil
}

// Encode writes v as a document of format f.
func Encode(w io.Writer, v any, f Format) error {
	switch f {
	case JSONFormat:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAMLFormat:
		d, err := yaml.MarshalWithOptions(v, yaml.UseJSONMarshaler())
		if err != nil {
			return err
		}
		_, err = w.Write(d)
		return err
	case TOMLFormat:
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("%w: cannot encode %s", ErrBadFormat, f)
	}
}
