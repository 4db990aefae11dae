// Package merge applies a single-record change to a freshly fetched
// collection. Inputs are never modified.
package merge

import "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"

// Index returns the position of id in records, or -1.
func Index(records []model.Evaluation, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// Upsert replaces the record with ev.ID in place, keeping the order of the
// collection, or prepends ev when no record has that id. replaced reports
// which of the two happened.
func Upsert(records []model.Evaluation, ev model.Evaluation) (out []model.Evaluation, replaced bool) {
	if i := Index(records, ev.ID); i >= 0 {
		out = model.CloneAll(records)
		out[i] = ev.Clone()
		return out, true
	}
	out = make([]model.Evaluation, 0, len(records)+1)
	out = append(out, ev.Clone())
	out = append(out, model.CloneAll(records)...)
	return out, false
}

// Remove drops every record with the given id. removed is false when none
// matched, in which case out is an unchanged copy.
func Remove(records []model.Evaluation, id string) (out []model.Evaluation, removed bool) {
	out = make([]model.Evaluation, 0, len(records))
	for i := range records {
		if records[i].ID == id {
			removed = true
			continue
		}
		out = append(out, records[i].Clone())
	}
	return out, removed
}
