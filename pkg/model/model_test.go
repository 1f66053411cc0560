package model

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	n, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return n
}

// TestParse tests decoding of node fields and source descriptors.
func TestParse(t *testing.T) {
	root := mustParse(t, `
type: dict
title: Device
nested:
  zeta:
    type: string
    field_type: ipv4
    rbac: {admin: {read: true}, guest: {read: "True"}}
    source:
      type: json_key
      source: input
      dn: z
      filter_type: contains
      filter_args: {arg: x}
      postformat: {type: regex_search, regex: '\d+'}
      default: null
  alpha:
    type: list
    skip: true
    item: {type: string}
    views: [admin]
`)

	if root.Type != KindDict || root.Title != "Device" {
		t.Errorf("root = %q %q", root.Type, root.Title)
	}

	names := make([]string, 0, len(root.Nested))
	for _, f := range root.Nested {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha"}, names); diff != "" {
		t.Errorf("nested order mismatch (-want +got):\n%s", diff)
	}

	zeta, _ := root.Child("zeta")
	if zeta.FieldType != "ipv4" {
		t.Errorf("FieldType = %v", zeta.FieldType)
	}
	if !zeta.RBAC["admin"].CanRead() {
		t.Error("admin should be able to read")
	}
	if zeta.RBAC["guest"].CanRead() {
		t.Error("a string \"True\" must not grant read")
	}

	src := zeta.Source
	if src.Type != "json_key" || src.FilterType != "contains" {
		t.Errorf("source = %q filter %q", src.Type, src.FilterType)
	}
	if diff := cmp.Diff(map[string]any{"arg": "x"}, src.FilterArgs); diff != "" {
		t.Errorf("FilterArgs mismatch (-want +got):\n%s", diff)
	}
	if src.Postformat == nil || src.Postformat.Type != "regex_search" || src.Postformat.Args["regex"] != `\d+` {
		t.Errorf("Postformat = %+v", src.Postformat)
	}
	if !src.HasDefault || src.Default != nil {
		t.Errorf("Default = %v (set %v), want explicit null", src.Default, src.HasDefault)
	}
	if src.Params["dn"] != "z" || src.Params["source"] != "input" {
		t.Errorf("Params = %v", src.Params)
	}
	if _, ok := src.Params["type"]; ok {
		t.Error("Params must not carry the resolver type")
	}

	alpha, _ := root.Child("alpha")
	if !alpha.Skip || alpha.Shape() != ShapeItem {
		t.Errorf("alpha skip = %v shape = %s", alpha.Skip, alpha.Shape())
	}
	if diff := cmp.Diff([]any{"admin"}, alpha.Extra["views"]); diff != "" {
		t.Errorf("Extra views mismatch (-want +got):\n%s", diff)
	}
}

// TestParseJSON tests that JSON models keep their field order.
func TestParseJSON(t *testing.T) {
	root := mustParse(t, `{"type": "dict", "nested": {"b": {"type": "string"}, "a": {"type": "string"}}}`)
	if root.Nested[0].Name != "b" || root.Nested[1].Name != "a" {
		t.Errorf("nested = %s, %s; want b, a", root.Nested[0].Name, root.Nested[1].Name)
	}
}

// TestParseErrors tests syntax and root errors.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"sequence root", "- a\n- b\n"},
		{"bad yaml", "type: [dict\n"},
		{"bad json", `{"type": }`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

// TestMalformedNodes tests that structural problems surface at the node.
func TestMalformedNodes(t *testing.T) {
	root := mustParse(t, `
type: dict
nested:
  a: {type: string, source: not-a-map}
  b: scalar
  c: {type: list, items: {x: 1}}
  d: {source: {type: return_value, value: 1}}
`)
	for _, name := range []string{"a", "b", "c", "d"} {
		child, _ := root.Child(name)
		err := child.Check(DN{name})
		if !errors.Is(err, ErrInvalidModel) {
			t.Errorf("Check(%s) = %v, want invalid model", name, err)
		}
	}
}

// TestValidate tests that every problem of a model is reported.
func TestValidate(t *testing.T) {
	root := mustParse(t, `
type: dict
nested:
  untyped: {source: {type: return_value, value: 1}}
  sourceless: {type: string}
  double:
    type: list
    source: {type: loop_over}
    item: {type: string}
    nested: {a: {type: string, source: {type: yield}}}
  emptydict: {type: dict}
  shapeless_list:
    type: list
    nested: {a: {type: string, source: {type: yield}}}
  fine:
    type: list
    source: {type: loop_over}
    item: {type: string}
  hidden: {skip: true, type: string}
`)

	err := Validate(root, nil)
	var list *ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("Validate() error = %v, want *ErrorList", err)
	}

	var got []string
	for _, e := range list.Errors {
		got = append(got, e.DN.String())
	}
	want := []string{"untyped", "sourceless", "double", "emptydict", "shapeless_list", "hidden"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("error DNs mismatch (-want +got):\n%s", diff)
	}
	if len(list.ByKind(ErrorInvalidModel)) != list.Count() {
		t.Error("all validation errors should be invalid model errors")
	}
}

type fakeCatalog struct{}

func (fakeCatalog) HasResolver(name string) bool   { return name == "known" }
func (fakeCatalog) HasFilter(name string) bool     { return name == "default" }
func (fakeCatalog) HasPostformat(name string) bool { return name == "default" }

// TestValidateCatalog tests name checks against a catalog.
func TestValidateCatalog(t *testing.T) {
	root := mustParse(t, `
type: dict
nested:
  a: {type: string, source: {type: known}}
  b: {type: string, source: {type: unknown}}
  c: {type: string, source: {type: known, filter_type: odd, postformat: {type: loud}}}
  d: {type: string, source: {value: 1}}
`)
	err := Validate(root, fakeCatalog{})
	var list *ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("Validate() error = %v, want *ErrorList", err)
	}
	if list.Count() != 4 {
		t.Errorf("Validate() found %d errors, want 4:\n%s", list.Count(), list.Error())
	}
	if !strings.Contains(list.Error(), `unknown source type "unknown"`) {
		t.Errorf("Error() = %s", list.Error())
	}
}

type listingCatalog struct{ fakeCatalog }

func (listingCatalog) ResolverNames() []string   { return []string{"json_key", "known"} }
func (listingCatalog) FilterNames() []string     { return []string{"default"} }
func (listingCatalog) PostformatNames() []string { return []string{"default"} }

// TestValidateSuggestions tests the closest-name hint for misspelled names.
func TestValidateSuggestions(t *testing.T) {
	root := mustParse(t, `
type: dict
nested:
  a: {type: string, source: {type: json_kye}}
  b: {type: string, source: {type: completely_different}}
  c: {type: string, source: {type: known, postformat: {type: defualt}}}
`)
	err := Validate(root, listingCatalog{})
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	msg := err.Error()
	for _, want := range []string{
		`unknown source type "json_kye" (did you mean "json_key"?)`,
		`unknown postformat "defualt" (did you mean "default"?)`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %s, want it to contain %s", msg, want)
		}
	}
	if strings.Contains(msg, `"completely_different" (did you mean`) {
		t.Errorf("Error() = %s, want no hint for a distant name", msg)
	}
}

// TestValidateClean tests that a valid model yields a nil error.
func TestValidateClean(t *testing.T) {
	root := mustParse(t, `
type: dict
nested:
  rows:
    type: list
    source: {type: known}
    items:
      - {type: string, source: {type: known}}
`)
	if err := Validate(root, fakeCatalog{}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// TestWalk tests visiting order and DNs.
func TestWalk(t *testing.T) {
	root := mustParse(t, `
type: dict
nested:
  a:
    type: list
    item: {type: string}
  b:
    type: list
    items:
      - {type: string}
      - {type: float}
`)

	var got []string
	err := Walk(root, nil, func(n *Node, dn DN) error {
		got = append(got, dn.String()+":"+string(n.Type))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	want := []string{"<root>:dict", "a:list", "a.item:string", "b:list", "b.items:string", "b.items:float"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
	}

	errStop := errors.New("stop")
	visits := 0
	err = Walk(root, nil, func(*Node, DN) error {
		visits++
		return errStop
	})
	if !errors.Is(err, errStop) || visits != 1 {
		t.Errorf("Walk() = %v after %d visits, want stop after 1", err, visits)
	}
}

// TestUpgrade tests the legacy model transforms.
func TestUpgrade(t *testing.T) {
	root := mustParse(t, `
type: dict
views: [ops]
list_item: {x: 1}
nested:
  a:
    type: string
    validators: [ipv4]
    views: [admin, ops]
    source: {type: yield}
`)
	if err := Upgrade(root); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	all := Permission{"read": true, "update": true, "create": true, "delete": true}
	if diff := cmp.Diff(map[string]Permission{"ops": all}, root.RBAC); diff != "" {
		t.Errorf("root RBAC mismatch (-want +got):\n%s", diff)
	}
	if len(root.Extra) != 0 {
		t.Errorf("root Extra = %v, want empty", root.Extra)
	}

	a, _ := root.Child("a")
	if diff := cmp.Diff(map[string]Permission{"admin": all, "ops": all}, a.RBAC); diff != "" {
		t.Errorf("child RBAC mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"ipv4"}, a.FieldType); diff != "" {
		t.Errorf("FieldType mismatch (-want +got):\n%s", diff)
	}

	bad := mustParse(t, "type: dict\nviews: admin\nnested: {}\n")
	if err := Upgrade(bad); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("Upgrade() error = %v, want invalid model", err)
	}
}

// TestDN tests DN construction and formatting.
func TestDN(t *testing.T) {
	parent := DN{"a"}
	b := parent.Child("b")
	c := parent.Child("c")
	if b.String() != "a.b" || c.String() != "a.c" {
		t.Errorf("siblings = %s, %s", b, c)
	}
	if got := parent.Index(2).String(); got != "a.[2]" {
		t.Errorf("Index() = %s", got)
	}
	if got := DN(nil).String(); got != "<root>" {
		t.Errorf("root String() = %s", got)
	}
	if !b.Equal(DN{"a", "b"}) || b.Equal(c) {
		t.Error("Equal() mismatch")
	}
}

// TestErrors tests error kinds, formatting and unwrapping.
func TestErrors(t *testing.T) {
	cause := errors.New("boom")
	err := ResolutionFailure(DN{"x", "y"}, cause, "path %q not found", "k")

	if !errors.Is(err, ErrResolution) || errors.Is(err, ErrInvalidModel) {
		t.Error("kind matching mismatch")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should unwrap")
	}
	want := `[resolution] path "k" not found on dn x.y: boom`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	list := NewErrorList()
	if list.ToError() != nil {
		t.Error("empty list should be a nil error")
	}
	list.Add(InvalidModel(nil, "bad"))
	list.Add(PostformatFailure(DN{"p"}, nil, "worse"))
	if len(list.ByKind(ErrorPostformat)) != 1 {
		t.Error("ByKind() mismatch")
	}
}

// TestParseFile tests reading a model from disk.
func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.yaml")
	if err := os.WriteFile(path, []byte("type: dict\nnested: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	n, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if n.Type != KindDict || n.Nested == nil {
		t.Errorf("ParseFile() = %+v", n)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("ParseFile() should fail for a missing file")
	}
}

// TestFromMap tests building a model from a decoded document.
func TestFromMap(t *testing.T) {
	n, err := FromMap(map[string]any{
		"type": "dict",
		"nested": map[string]any{
			"b": map[string]any{"type": "string", "source": map[string]any{"type": "yield"}},
			"a": map[string]any{"type": "string", "source": map[string]any{"type": "yield"}},
		},
	})
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if n.Nested[0].Name != "a" || n.Nested[1].Name != "b" {
		t.Error("FromMap() should order children by name")
	}
}
