// Package catalog loads node definitions from YAML or JSON files.
//
// A catalog file holds either a list of definitions or a mapping with a
// "definitions" list:
//
//	definitions:
//	  - id: http
//	    title: HTTP Request
//	    category: network
//	    default_inputs:
//	      - name: trigger
//	    default_outputs:
//	      - name: body
//	    default_data_values:
//	      url: "{{endpoint}}"
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format selects the syntax of a catalog file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads a catalog file, or every catalog file of a directory in name
// order, into an in-memory catalog. Duplicate ids across files are an error.
func Load(path string) (*memory.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog directory: %w", err)
		}
		files = files[:0]
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, err := FormatOf(e.Name()); err == nil {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		slices.Sort(files)
	}

	cat, _ := memory.NewCatalog()
	for _, f := range files {
		defs, err := ReadFile(f)
		if err != nil {
			return nil, err
		}
		for _, d := range defs {
			if err := cat.Register(d); err != nil {
				return nil, fmt.Errorf("%s: %w", f, err)
			}
		}
	}
	return cat, nil
}

// ReadFile decodes the definitions of one catalog file.
func ReadFile(path string) ([]domain.Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	defs, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Decode parses catalog content.
func Decode(data []byte, format Format) ([]domain.Definition, error) {
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if m, ok := raw.(map[string]any); ok {
		raw = m["definitions"]
	}
	if raw == nil {
		return nil, nil
	}

	var defs []domain.Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &defs,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode definitions: %w", err)
	}
	return defs, nil
}
