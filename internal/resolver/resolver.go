// Package resolver validates candidate service names against the catalog
// index and proposes near-matches for typos.
package resolver

import (
	"context"
	"strings"

	"github.com/svcref/svcref/internal/catalog"
)

// DefaultSuggestionLimit caps how many near-matches a suggestion query
// returns.
const DefaultSuggestionLimit = 5

// Index is the slice of the Store the resolver needs.
type Index interface {
	Services(ctx context.Context) ([]catalog.ServiceRef, error)
}

// Resolver answers "is this a real service name" and "what did the user
// probably mean". Stateless given the index.
type Resolver struct {
	index Index
}

// New creates a Resolver over the given index.
func New(index Index) *Resolver {
	return &Resolver{index: index}
}

// IsValidService reports whether name is an exact, case-sensitive member of
// the index. False when the index cannot be fetched.
func (r *Resolver) IsValidService(ctx context.Context, name string) bool {
	refs, err := r.index.Services(ctx)
	if err != nil {
		return false
	}

	for _, ref := range refs {
		if ref.Name == name {
			return true
		}
	}
	return false
}

// SuggestSimilar proposes up to limit services resembling the invalid input,
// in index order. A candidate matches when the input is a substring of it,
// when the candidate starts with the input's first three characters, or when
// any hyphen-delimited segment of the input longer than two characters
// appears in the candidate. Comparisons are case-insensitive.
func (r *Resolver) SuggestSimilar(ctx context.Context, name string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	refs, err := r.index.Services(ctx)
	if err != nil {
		return nil
	}

	input := strings.ToLower(name)
	segments := segmentsOf(input)

	var suggestions []string
	for _, ref := range refs {
		if len(suggestions) == limit {
			break
		}
		if matches(strings.ToLower(ref.Name), input, segments) {
			suggestions = append(suggestions, ref.Name)
		}
	}
	return suggestions
}

// matches applies the three suggestion heuristics in order.
func matches(candidate, input string, segments []string) bool {
	if strings.Contains(candidate, input) {
		return true
	}
	if prefix := head(input, 3); prefix != "" && strings.HasPrefix(candidate, prefix) {
		return true
	}
	for _, segment := range segments {
		if strings.Contains(candidate, segment) {
			return true
		}
	}
	return false
}

// segmentsOf returns the hyphen-delimited parts of the input longer than two
// characters.
func segmentsOf(input string) []string {
	var segments []string
	for _, part := range strings.Split(input, "-") {
		if len(part) > 2 {
			segments = append(segments, part)
		}
	}
	return segments
}

// head returns the first n bytes of s, or all of s when shorter.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
