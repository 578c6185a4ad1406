package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lifegap/internal/cohort"
)

// Format identifies a record file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported record file extension %q", filepath.Ext(path))
	}
}

// LoadRecords reads a record file, choosing the decoder from its extension.
func LoadRecords(path string) ([]cohort.Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	records, err := ReadRecords(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadRecords decodes records in the given format.
//
// Delimited input needs a header row; every later row becomes a record of
// string values. YAML and JSON input is either a list of mappings or a
// mapping with a "records" list.
func ReadRecords(r io.Reader, format Format) ([]cohort.Record, error) {
	switch format {
	case FormatCSV:
		return readDelimited(r, ',')
	case FormatTSV:
		return readDelimited(r, '\t')
	case FormatYAML, FormatJSON:
		return readDocument(r)
	default:
		return nil, fmt.Errorf("unsupported record format %q", format)
	}
}

func readDelimited(r io.Reader, comma rune) ([]cohort.Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []cohort.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	records := []cohort.Record{}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse row: %w", err)
		}
		rec := make(cohort.Record, len(header))
		for i, name := range header {
			rec[name] = strings.TrimSpace(fields[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

func readDocument(r io.Reader) ([]cohort.Record, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return []cohort.Record{}, nil
		}
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	doc := resolve(&root)
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return []cohort.Record{}, nil
		}
		doc = resolve(doc.Content[0])
	}

	if doc.Kind == yaml.MappingNode {
		list := mappingValue(doc, "records")
		if list == nil {
			return nil, fmt.Errorf(`document must be a list of records or have a "records" key`)
		}
		doc = resolve(list)
	}

	if doc.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("records must be a list, got %s", doc.Tag)
	}

	records := make([]cohort.Record, len(doc.Content))
	for i, item := range doc.Content {
		item = resolve(item)
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("records[%d]: expected a mapping, got %s", i, item.Tag)
		}
		rec := make(cohort.Record, len(item.Content)/2)
		for j := 0; j+1 < len(item.Content); j += 2 {
			key := item.Content[j].Value
			v, err := scalarValue(resolve(item.Content[j+1]))
			if err != nil {
				return nil, fmt.Errorf("records[%d].%s: %w", i, key, err)
			}
			rec[key] = v
		}
		records[i] = rec
	}
	return records, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// scalarValue decodes a record field. Integers written with a leading zero,
// such as the FIPS code 06001, keep their source text instead of being read
// as octal.
func scalarValue(n *yaml.Node) (any, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!int" && zeroPadded(n.Value) {
		return n.Value, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func zeroPadded(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}
