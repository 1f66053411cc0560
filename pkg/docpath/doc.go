// Package docpath addresses values inside JSON-like documents: arbitrary
// nestings of map[string]any, []any and scalars.
//
// A path is a dot separated list of segments. A segment is either a map key or
// a list index marker "[N]"; "[]" means index 0. Resolve never fails for a
// missing key, a wrong-typed intermediate value or an out-of-range index; it
// reports found=false instead. Callers must branch on the boolean and never on
// the placeholder value, since an empty value can be a legitimate result.
//
//	found, v := docpath.Resolve(doc, "top.lower.list_with_items.[1].another_key")
//
// The package also decodes YAML and JSON documents into the same generic
// shape, keeping JSON integers as int.
package docpath
