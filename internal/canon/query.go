package canon

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Canonicalize normalizes a free-text search query for keying: trimmed,
// lowercased, inner whitespace collapsed.
func Canonicalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(query))), " ")
}

// CacheKey computes a stable redis key for a search request. Coordinates are
// rounded to 4 decimal places (~11m) so nearby repeats share an entry.
func CacheKey(query, locale string, lat, lon *float64) string {
	key := Canonicalize(query) + "|" + strings.ToLower(strings.TrimSpace(locale))
	if lat != nil && lon != nil {
		key += fmt.Sprintf("|%.4f|%.4f", *lat, *lon)
	}
	return fmt.Sprintf("srch:%016x", xxhash.Sum64String(key))
}
