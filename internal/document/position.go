// Package document holds the algorithms that run on the document side of the
// bridge: link intersection against the selection and the selection-state
// change tracker.
package document

import "strings"

// Position is a compareDocumentPosition-style bitmask describing where one
// node lies relative to another.
type Position uint8

// Position bits. Contains and ContainedBy are always combined with
// Preceding and Following respectively.
const (
	Disconnected Position = 1 << iota
	Preceding
	Following
	Contains
	ContainedBy
	ImplementationSpecific
)

// Same is the position of a node relative to itself.
const Same Position = 0

// Has reports whether every bit of flag is set in p.
func (p Position) Has(flag Position) bool {
	return p&flag == flag
}

// String lists the set bits.
func (p Position) String() string {
	if p == Same {
		return "same"
	}
	names := []struct {
		bit  Position
		name string
	}{
		{Disconnected, "disconnected"},
		{Preceding, "preceding"},
		{Following, "following"},
		{Contains, "contains"},
		{ContainedBy, "contained-by"},
		{ImplementationSpecific, "implementation-specific"},
	}
	var parts []string
	for _, n := range names {
		if p&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// CompareFunc returns the position of other relative to node.
type CompareFunc[N any] func(node, other N) Position

// Intersects reports whether the selection running from start to end
// touches link. startPos and endPos are the positions of the selection
// boundaries relative to the link.
//
// A boundary touches when it is the link itself, an ancestor of it or
// inside it. A selection also touches a link it fully spans: the start
// precedes the link and the end follows it without being inside it.
func Intersects(startPos, endPos Position) bool {
	if touches(startPos) || touches(endPos) {
		return true
	}
	return startPos&Preceding != 0 && endPos&Following != 0 && endPos&ContainedBy == 0
}

func touches(p Position) bool {
	return p == Same || p&Contains != 0 || p&ContainedBy != 0
}

// IntersectingLinks returns the links the selection from start to end
// touches, in input order.
func IntersectingLinks[N any](links []N, start, end N, compare CompareFunc[N]) []N {
	var out []N
	for _, link := range links {
		if Intersects(compare(link, start), compare(link, end)) {
			out = append(out, link)
		}
	}
	return out
}
