// Package query implements the list view's search and ordering.
package query

import (
	"sort"
	"strings"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// haystack is what the search box matches against.
func haystack(e model.Evaluation) string {
	return strings.ToLower(strings.Join([]string{e.FirstName, e.LastName, e.AcademicYear, e.Trimester}, " "))
}

// Matches reports whether e contains search, ignoring case. An empty search
// matches everything.
func Matches(e model.Evaluation, search string) bool {
	s := strings.ToLower(strings.TrimSpace(search))
	if s == "" {
		return true
	}
	return strings.Contains(haystack(e), s)
}

// Filter returns copies of the matching records, most recent date first.
// Records with equal dates keep their collection order.
func Filter(records []model.Evaluation, search string) []model.Evaluation {
	out := make([]model.Evaluation, 0, len(records))
	for i := range records {
		if Matches(records[i], search) {
			out = append(out, records[i].Clone())
		}
	}
	SortByDateDesc(out)
	return out
}

// SortByDateDesc orders records in place, newest first.
func SortByDateDesc(records []model.Evaluation) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date.Time)
	})
}
