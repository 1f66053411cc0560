package cli

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/model"
)

var testRecords = []engine.Record{
	{"value": "eth0", "dn": model.DN{"ifaces", "name"}, "title": "Name", "description": nil, "type": "string", "field_type": nil, "common_host": "r1"},
	{"value": 1500, "dn": model.DN{"ifaces", "mtu"}, "title": nil, "description": nil, "type": "integer", "field_type": nil, "common_host": "r1"},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "json", want: FormatJSON},
		{in: "YAML", want: FormatYAML},
		{in: "table", want: FormatTable},
		{in: "csv", want: FormatCSV},
		{in: "junit", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	data := map[string]any{"port": math.NaN(), "rows": []any{1.0, math.Inf(-1)}, "name": "eth0"}
	if err := NewFormatter(FormatJSON).FormatTo(buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf)
	}
	want := map[string]any{"port": nil, "rows": []any{1.0, nil}, "name": "eth0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
	if !math.IsNaN(data["port"].(float64)) {
		t.Error("FormatTo() modified its input")
	}
}

func TestJSONFormatterRecords(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&JSONFormatter{}).FormatTo(buf, testRecords); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"dn":"ifaces.name"`) {
		t.Errorf("DN not rendered as a string: %s", buf)
	}
}

func TestYAMLFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatYAML).FormatTo(buf, testRecords); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(got) != 2 || got[1]["dn"] != "ifaces.mtu" || got[1]["value"] != 1500 {
		t.Errorf("YAML records = %v", got)
	}
}

func TestCSVFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatCSV).FormatTo(buf, testRecords); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	want := "dn,value,title,description,type,field_type,common_host\n" +
		"ifaces.name,eth0,Name,,string,,r1\n" +
		"ifaces.mtu,1500,,,integer,,r1\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestTableFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatTable).FormatTo(buf, testRecords); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	// Bordered: top rule, header, rule, two rows, bottom rule.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("table has %d lines, want 6:\n%s", len(lines), buf)
	}
	if !strings.Contains(lines[1], "DN") || !strings.Contains(lines[1], "COMMON_HOST") {
		t.Errorf("header = %q", lines[1])
	}
	if !strings.Contains(lines[3], "ifaces.name") || !strings.Contains(lines[4], "1500") {
		t.Errorf("rows = %q, %q", lines[3], lines[4])
	}
}

func TestFlatFormatsRejectNested(t *testing.T) {
	for _, f := range []OutputFormat{FormatCSV, FormatTable} {
		if err := NewFormatter(f).FormatTo(&bytes.Buffer{}, map[string]any{"a": 1}); err == nil {
			t.Errorf("%s: FormatTo() should reject nested values", f)
		}
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{42, "42"},
		{1.5, "1.5"},
		{true, "true"},
		{model.DN{"a", "b"}, "a.b"},
		{[]any{"a", 1}, `["a",1]`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		if got := cell(tt.in); got != tt.want {
			t.Errorf("cell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
