package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/model"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatJSON is indented JSON output (default).
	FormatJSON OutputFormat = "json"
	// FormatYAML is YAML output.
	FormatYAML OutputFormat = "yaml"
	// FormatTable is an aligned text table of flat records.
	FormatTable OutputFormat = "table"
	// FormatCSV is CSV output of flat records.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat returns the format named by s.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatTable, FormatCSV:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml, table or csv)", s)
	}
}

// Formatter writes command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// NewFormatter creates a formatter for format. Table and CSV only accept
// flat records; other data falls back to JSON.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &JSONFormatter{Indent: true}
	}
}

// JSONFormatter formats output as JSON. NaN and infinite floats are
// written as null.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(jsonSafe(data))
}

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// FormatTo writes data to w in YAML format.
func (f *YAMLFormatter) FormatTo(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlSafe(data)); err != nil {
		return err
	}
	return enc.Close()
}

// CSVFormatter writes flat records as CSV with a header row.
type CSVFormatter struct{}

// FormatTo writes data to w in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	records, ok := data.([]engine.Record)
	if !ok {
		return fmt.Errorf("csv output needs flat records, got %T", data)
	}

	csvWriter := csv.NewWriter(w)
	columns := Columns(records)
	if err := csvWriter.Write(columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := csvWriter.Write(row(r, columns)); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// TableFormatter writes flat records as an aligned table.
type TableFormatter struct{}

// FormatTo writes data to w as a table.
func (f *TableFormatter) FormatTo(w io.Writer, data any) error {
	records, ok := data.([]engine.Record)
	if !ok {
		return fmt.Errorf("table output needs flat records, got %T", data)
	}

	columns := Columns(records)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	table := NewTable(w, header)
	for _, r := range records {
		table.Append(row(r, columns))
	}
	table.Render()
	return nil
}

// NewTable returns a left-aligned table writing to w. Headers are used as
// given and cells are never wrapped.
func NewTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

// recordColumns is the fixed column order of flat records.
var recordColumns = []string{"dn", "value", "title", "description", "type", "field_type"}

// Columns returns the column order for records: the fixed record keys
// first, then any other keys (common fields) sorted by name.
func Columns(records []engine.Record) []string {
	fixed := make(map[string]bool, len(recordColumns))
	for _, c := range recordColumns {
		fixed[c] = true
	}

	extra := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			if !fixed[k] {
				extra[k] = true
			}
		}
	}
	rest := make([]string, 0, len(extra))
	for k := range extra {
		rest = append(rest, k)
	}
	sort.Strings(rest)

	return append(append([]string(nil), recordColumns...), rest...)
}

func row(r engine.Record, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = cell(r[c])
	}
	return out
}

// cell renders one record value. Composite values are written as JSON.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case model.DN:
		return t.String()
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(jsonSafe(t))
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		if s, err := cast.ToStringE(t); err == nil {
			return s
		}
		return fmt.Sprint(t)
	}
}

// jsonSafe returns a copy of v with NaN and infinite floats replaced by
// nil and DNs rendered as strings.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case model.DN:
		return t.String()
	case engine.Record:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonSafe(e)
		}
		return out
	case []engine.Record:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonSafe(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonSafe(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonSafe(e)
		}
		return out
	default:
		return v
	}
}

// yamlSafe renders DNs as strings. YAML represents NaN natively.
func yamlSafe(v any) any {
	switch t := v.(type) {
	case model.DN:
		return t.String()
	case engine.Record:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = yamlSafe(e)
		}
		return out
	case []engine.Record:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlSafe(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = yamlSafe(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlSafe(e)
		}
		return out
	default:
		return v
	}
}
