package handshape

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a pattern library file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the encoding from a file extension; anything that is not
// .json is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// libraryFile is the on-disk layout:
//
//	patterns:
//	  - label: ROCK
//	    kind: custom
//	    joints: [[1, 1, 0], [1, 1, 0], [0, 0, 0], [0, 0, 0], [1, 1, 0]]
type libraryFile struct {
	Patterns []Pattern `json:"patterns" yaml:"patterns"`
}

// ReadPatterns decodes and validates a pattern library.
func ReadPatterns(r io.Reader, format Format) ([]Pattern, error) {
	var lib libraryFile
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&lib)
	default:
		err = yaml.NewDecoder(r).Decode(&lib)
		if err == io.EOF {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}

	for i, p := range lib.Patterns {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
	}
	return lib.Patterns, nil
}

// LoadFile reads a pattern library from path.
func LoadFile(path string) ([]Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	patterns, err := ReadPatterns(f, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patterns, nil
}

// WritePatterns encodes a pattern library.
func WritePatterns(w io.Writer, patterns []Pattern, format Format) error {
	lib := libraryFile{Patterns: patterns}
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lib)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(lib); err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}
	return enc.Close()
}
