package model

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Catalog reports which resolver, filter and postformat names are known.
// The engine's registries implement it.
type Catalog interface {
	HasResolver(name string) bool
	HasFilter(name string) bool
	HasPostformat(name string) bool
}

// NameLister is implemented by catalogs that can list their names. Validate
// uses it to suggest the closest known name for a misspelled one.
type NameLister interface {
	ResolverNames() []string
	FilterNames() []string
	PostformatNames() []string
}

// Check returns the structural error an evaluator must raise on entering the
// node: a decoding problem or a missing type.
func (n *Node) Check(dn DN) error {
	if len(n.malformed) > 0 {
		return InvalidModel(dn, "%s", strings.Join(n.malformed, "; "))
	}
	if n.Type == "" {
		return InvalidModel(dn, "missing 'type'")
	}
	return nil
}

// Validate checks the whole tree and reports every problem instead of the
// first one. Skipped subtrees are still validated. A nil catalog skips the
// name checks.
func Validate(root *Node, catalog Catalog) error {
	errs := NewErrorList()
	validateNode(root, nil, false, catalog, errs)
	return errs.ToError()
}

// validateNode checks n; element is set for the "item" node of a list, whose
// scalar form may omit a source and take the raw element.
func validateNode(n *Node, dn DN, element bool, catalog Catalog, errs *ErrorList) {
	if err := n.Check(dn); err != nil {
		errs.Add(err.(*Error))
	}

	declared := 0
	for _, present := range []bool{n.Item != nil, n.Items != nil, n.Nested != nil} {
		if present {
			declared++
		}
	}
	if n.Type == KindList && declared > 1 {
		errs.Add(InvalidModel(dn, "list declares more than one of 'item', 'items' and 'nested'"))
	}
	if n.Type == KindDict && n.Nested == nil {
		errs.Add(InvalidModel(dn, "dict has no 'nested' block"))
	}
	if n.Type != "" && !n.Type.IsContainer() && n.Source == nil && !element {
		errs.Add(InvalidModel(dn, "missing 'source'"))
	}
	if n.Type == KindList && n.Shape() != ShapeNone && n.Source == nil && !element {
		errs.Add(InvalidModel(dn, "list with %s needs a 'source'", n.Shape()))
	}
	if n.Source != nil {
		validateSource(n.Source, dn, catalog, errs)
	}

	for _, f := range n.Nested {
		validateNode(f.Node, dn.Child(f.Name), false, catalog, errs)
	}
	if n.Item != nil {
		validateNode(n.Item, dn.Child("item"), true, catalog, errs)
	}
	for _, child := range n.Items {
		validateNode(child, dn.Child("items"), false, catalog, errs)
	}
}

func validateSource(src *Source, dn DN, catalog Catalog, errs *ErrorList) {
	if src.Type == "" {
		errs.Add(InvalidModel(dn, "missing 'type' on source"))
		return
	}
	if catalog == nil {
		return
	}
	lister, _ := catalog.(NameLister)
	if !catalog.HasResolver(src.Type) {
		errs.Add(InvalidModel(dn, "unknown source type %q%s", src.Type, suggest(src.Type, lister, NameLister.ResolverNames)))
	}
	if src.FilterType != "" && !catalog.HasFilter(src.FilterType) {
		errs.Add(InvalidModel(dn, "unknown filter %q%s", src.FilterType, suggest(src.FilterType, lister, NameLister.FilterNames)))
	}
	if src.Postformat != nil && !catalog.HasPostformat(src.Postformat.Type) {
		errs.Add(InvalidModel(dn, "unknown postformat %q%s", src.Postformat.Type, suggest(src.Postformat.Type, lister, NameLister.PostformatNames)))
	}
}

// suggest returns a " (did you mean ...)" hint naming the closest known
// name, or "" when nothing is close enough.
func suggest(name string, lister NameLister, names func(NameLister) []string) string {
	if lister == nil || name == "" {
		return ""
	}
	limit := max(2, len(name)/3)
	best, bestDist := "", limit+1
	for _, candidate := range names(lister) {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
