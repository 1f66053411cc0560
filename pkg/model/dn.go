package model

import (
	"strconv"
	"strings"
)

// DN (distinguished name) addresses a node in a model tree and, for path
// based resolvers, a location in an input document.
type DN []string

// Child returns a new DN with key appended. The receiver is never modified,
// so sibling DNs never share a backing array.
func (dn DN) Child(key string) DN {
	out := make(DN, len(dn), len(dn)+1)
	copy(out, dn)
	return append(out, key)
}

// Index returns a new DN with the list index marker "[i]" appended.
func (dn DN) Index(i int) DN {
	return dn.Child("[" + strconv.Itoa(i) + "]")
}

// String joins the segments with dots. The root DN renders as "<root>".
func (dn DN) String() string {
	if len(dn) == 0 {
		return "<root>"
	}
	return strings.Join(dn, ".")
}

// Equal reports whether both DNs have the same segments.
func (dn DN) Equal(other DN) bool {
	if len(dn) != len(other) {
		return false
	}
	for i := range dn {
		if dn[i] != other[i] {
			return false
		}
	}
	return true
}
