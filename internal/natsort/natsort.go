// Package natsort provides the project-wide ordering for manifest and
// file names: case-insensitive, digit runs compared as numbers, and the
// file extension (after the last dot) used only as a tiebreak.
package natsort

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// splitExtension splits a name at the last dot into stem and extension.
// A name with no dot has an empty extension.
func splitExtension(s string) (string, string) {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// Compare orders a against b: negative when a sorts first, zero when
// they are equal under the collation, positive when b sorts first.
func Compare(a, b string) int {
	as, ae := splitExtension(strings.ToLower(a))
	bs, be := splitExtension(strings.ToLower(b))
	if as != bs {
		if natural.Less(as, bs) {
			return -1
		}
		return 1
	}
	if ae == be {
		return 0
	}
	if natural.Less(ae, be) {
		return -1
	}
	return 1
}

// Less reports whether a sorts before b.
func Less(a, b string) bool { return Compare(a, b) < 0 }

// Equal reports whether a and b are the same name under the collation.
func Equal(a, b string) bool { return Compare(a, b) == 0 }

// Sort sorts names in place in ascending order.
func Sort(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return Less(names[i], names[j]) })
}

// SortDescending sorts names in place in descending order. The import
// grouping pass depends on this: longer media names must claim their
// files before shorter prefixes are considered.
func SortDescending(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return Less(names[j], names[i]) })
}
