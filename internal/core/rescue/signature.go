// Package rescue holds the rescue-recipe cache and the normalization of recipe generator output.
package rescue

import (
	"sort"
	"strings"
)

// KeyDelimiter separates names in a canonical key. Item names never contain it.
const KeyDelimiter = ","

// CanonicalKey returns the cache key for a set of ingredient names: the distinct names sorted
// byte-wise ascending and joined with KeyDelimiter. Input order does not matter.
func CanonicalKey(names []string) string {
	return strings.Join(DistinctSorted(names), KeyDelimiter)
}

// DistinctSorted returns the distinct names in ascending byte-wise order.
func DistinctSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
