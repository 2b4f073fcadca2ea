// Package ids resolves task UUIDs from the short prefixes users type.
package ids

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoMatch is returned when no ID starts with the prefix.
	ErrNoMatch = errors.New("no ID matches prefix")

	// ErrAmbiguousPrefix is returned when a prefix matches more than one ID.
	ErrAmbiguousPrefix = errors.New("ambiguous ID prefix")
)

// MatchPrefix returns the single ID in ids that equals or starts with prefix.
// Matching ignores case. An exact match wins over longer IDs sharing the prefix.
func MatchPrefix(ids []string, prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", fmt.Errorf("%w: empty prefix", ErrNoMatch)
	}

	var matches []string
	for _, id := range ids {
		idLower := strings.ToLower(id)
		if idLower == prefix {
			return id, nil
		}
		if strings.HasPrefix(idLower, prefix) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNoMatch, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d IDs", ErrAmbiguousPrefix, prefix, len(matches))
	}
}

// UniquePrefixLengths returns the shortest unique prefix length for each ID,
// keyed by the lowercased ID.
func UniquePrefixLengths(ids []string) map[string]int {
	uniqueIDs := make([]string, 0, len(ids))
	seen := make(map[string]bool)
	for _, id := range ids {
		idLower := strings.ToLower(id)
		if idLower == "" || seen[idLower] {
			continue
		}
		seen[idLower] = true
		uniqueIDs = append(uniqueIDs, idLower)
	}

	lengths := make(map[string]int, len(uniqueIDs))
	for _, id := range uniqueIDs {
		lengths[id] = uniquePrefixLength(id, uniqueIDs)
	}

	return lengths
}

func uniquePrefixLength(id string, ids []string) int {
	for length := 1; length <= len(id); length++ {
		prefix := id[:length]
		unique := true
		for _, other := range ids {
			if other == id {
				continue
			}
			if strings.HasPrefix(other, prefix) {
				unique = false
				break
			}
		}
		if unique {
			return length
		}
	}

	return len(id)
}
