// Package view derives the visible row sequence from a row store.
//
// The derived view is always the store's rows filtered first and sorted
// second, recomputed from the full row set.
package view

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// ErrInvalidPattern is returned when a regular-expression filter does not
// compile.
var ErrInvalidPattern = errors.New("invalid filter pattern")

// Filter returns the rows whose value at column matches pattern, in input
// order. Matching is case-insensitive: a regular-expression search when
// isRegex is set, a substring search otherwise. Values are compared in
// their rowstore.Display form.
//
// An empty pattern returns rows unchanged. A pattern that fails to compile
// also returns rows unchanged, together with an error wrapping
// ErrInvalidPattern.
func Filter(rows []rowstore.Row, column, pattern string, isRegex bool) ([]rowstore.Row, error) {
	if pattern == "" {
		return rows, nil
	}

	match, err := newMatcher(pattern, isRegex)
	if err != nil {
		return rows, err
	}

	out := make([]rowstore.Row, 0, len(rows))
	for _, row := range rows {
		if match(rowstore.Display(row[column])) {
			out = append(out, row)
		}
	}
	return out, nil
}

func newMatcher(pattern string, isRegex bool) (func(string) bool, error) {
	if isRegex {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
		}
		return re.MatchString, nil
	}

	needle := strings.ToLower(pattern)
	return func(s string) bool {
		return strings.Contains(strings.ToLower(s), needle)
	}, nil
}
