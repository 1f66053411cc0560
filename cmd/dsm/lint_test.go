package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"mercator-hq/dsm/pkg/model"
)

const validModel = `
type: dict
nested:
  host: {type: string, source: {type: return_value, value: r1}}
`

const invalidModel = `
type: dict
nested:
  host: {type: string}
  port: {source: {type: nope}}
`

func setLintFlags(t *testing.T, file, dir, format string) {
	t.Helper()
	orig := lintFlags
	t.Cleanup(func() { lintFlags = orig })
	lintFlags.file = file
	lintFlags.dir = dir
	lintFlags.format = format
}

func TestLintValidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "valid.yaml", validModel)
	setLintFlags(t, path, "", "text")

	cmd, buf := newTestCmd(t)
	if err := lintModels(cmd, nil); err != nil {
		t.Fatalf("lintModels() error = %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Model valid") {
		t.Errorf("output = %s", buf)
	}
}

func TestLintInvalidDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "valid.yaml", validModel)
	writeFile(t, dir, "invalid.yml", invalidModel)
	writeFile(t, dir, "notes.txt", "ignored")
	setLintFlags(t, "", dir, "json")

	cmd, buf := newTestCmd(t)
	err := lintModels(cmd, nil)
	if !errors.Is(err, model.ErrInvalidModel) {
		t.Fatalf("lintModels() error = %v, want invalid model", err)
	}

	var results []LintResult
	if err := json.Unmarshal(buf.Bytes(), &results); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	bad := results[0]
	if bad.Valid || !strings.HasSuffix(bad.File, "invalid.yml") {
		t.Fatalf("first result = %+v", bad)
	}

	dns := map[string]bool{}
	for _, e := range bad.Errors {
		dns[e.DN] = true
		if e.Kind != string(model.ErrorInvalidModel) {
			t.Errorf("error kind = %q", e.Kind)
		}
	}
	if !dns["host"] || !dns["port"] {
		t.Errorf("errors = %+v, want problems at host and port", bad.Errors)
	}
	if !results[1].Valid {
		t.Errorf("valid.yaml reported invalid: %+v", results[1])
	}
}

func TestLintArguments(t *testing.T) {
	tests := []struct {
		name string
		file string
		dir  string
	}{
		{name: "neither file nor dir"},
		{name: "missing file", file: "testdata/nonexistent.yaml"},
		{name: "empty dir", dir: t.TempDir()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setLintFlags(t, tt.file, tt.dir, "text")
			cmd, _ := newTestCmd(t)
			if err := lintModels(cmd, nil); err == nil {
				t.Error("lintModels() should fail")
			}
		})
	}
}

func TestLintSuggestsResolver(t *testing.T) {
	path := writeFile(t, t.TempDir(), "typo.yaml", `
type: dict
nested:
  host: {type: string, source: {type: json_ky, dn: host}}
`)
	setLintFlags(t, path, "", "json")

	cmd, buf := newTestCmd(t)
	if err := lintModels(cmd, nil); err == nil {
		t.Fatal("lintModels() should fail")
	}
	var results []LintResult
	if err := json.Unmarshal(buf.Bytes(), &results); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(results) != 1 || len(results[0].Errors) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if msg := results[0].Errors[0].Message; !strings.Contains(msg, `did you mean "json_key"?`) {
		t.Errorf("message = %q", msg)
	}
}
