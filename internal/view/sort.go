package view

import (
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// ParseDirection accepts "asc" or "desc".
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Ascending, Descending:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("invalid sort direction %q (want asc or desc)", s)
	}
}

// Sort returns a stably sorted copy of rows ordered by column. The input
// slice is not modified. Strings compare with the root collation.
func Sort(rows []rowstore.Row, column string, dir Direction) []rowstore.Row {
	return SortLocale(rows, column, dir, language.Und)
}

// SortLocale is Sort with strings compared under the collation for tag.
//
// Ordering rules: nil or missing values sort first ascending and last
// descending, and tie with each other. Two numbers compare numerically.
// Anything else compares by collation of the rowstore.Display form.
// Descending negates the ascending result. Equal rows keep input order.
func SortLocale(rows []rowstore.Row, column string, dir Direction, tag language.Tag) []rowstore.Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, comparator(column, dir, tag))
	return out
}

func comparator(column string, dir Direction, tag language.Tag) func(a, b rowstore.Row) int {
	// A Collator is not safe for concurrent use; each sort gets its own.
	col := collate.New(tag)

	nullFirst := -1
	if dir == Descending {
		nullFirst = 1
	}

	return func(a, b rowstore.Row) int {
		av, bv := a[column], b[column]
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return nullFirst
		case bv == nil:
			return -nullFirst
		}

		c, ok := rowstore.CompareNumbers(av, bv)
		if !ok {
			c = col.CompareString(rowstore.Display(av), rowstore.Display(bv))
		}
		if dir == Descending {
			return -c
		}
		return c
	}
}
