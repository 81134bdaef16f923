// Package dataset reads observed data into named columns.
//
// Two formats are understood: CSV with a header row, where every column
// becomes a vector, and YAML, a mapping from column name to a number or a
// list of numbers. Column order follows the file.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/params"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"gopkg.in/yaml.v3"
)

// Load reads a data file, picking the format from its extension.
func Load(ctx context.Context, path string) (*params.Set, error) {
	logger := ctxlog.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	var set *params.Set
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		set, err = ReadCSV(f)
	case ".yaml", ".yml":
		set, err = ReadYAML(f)
	default:
		return nil, fmt.Errorf("data file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("data file %s: %w", path, err)
	}

	logger.Debug("Loaded data file.", "path", path, "columns", set.Names())
	return set, nil
}

// ReadCSV parses a header row followed by numeric records.
func ReadCSV(r io.Reader) (*params.Set, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
		if header[i] == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
	}

	cols := make([][]float64, len(header))
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, header[i], err)
			}
			cols[i] = append(cols[i], v)
		}
	}

	set := params.New()
	for i, name := range header {
		set.Put(name, tensor.Vector(cols[i]...))
	}
	return set, nil
}

// ReadYAML parses a mapping of column name to a number or a list of numbers.
func ReadYAML(r io.Reader) (*params.Set, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return params.New(), nil
		}
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of column names", root.Line)
	}

	set := params.New()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch value.Kind {
		case yaml.ScalarNode:
			var v float64
			if err := value.Decode(&v); err != nil {
				return nil, fmt.Errorf("column %q: %w", key.Value, err)
			}
			set.Put(key.Value, tensor.Scalar(v))
		case yaml.SequenceNode:
			var vs []float64
			if err := value.Decode(&vs); err != nil {
				return nil, fmt.Errorf("column %q: %w", key.Value, err)
			}
			set.Put(key.Value, tensor.Vector(vs...))
		default:
			return nil, fmt.Errorf("line %d: column %q must be a number or a list of numbers", value.Line, key.Value)
		}
	}
	return set, nil
}
