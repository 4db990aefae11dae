// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Ratings maps category id -> item id -> rating. Only rated items are stored.
type Ratings map[string]map[string]Rating

// Evaluation is one resident competency evaluation.
// The JSON shape is shared with every client of the remote document.
type Evaluation struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	AcademicYear string    `json:"academicYear"`
	Trimester    string    `json:"trimester"`
	Date         Timestamp `json:"date"`
	Ratings      Ratings   `json:"ratings"`

	// extra holds fields written by other clients that this one does not
	// know, so a push returns them untouched.
	extra map[string]json.RawMessage
}

// evaluationFields has Evaluation's fields without its JSON methods.
type evaluationFields Evaluation

// knownFields are the lowercased keys decoded into Evaluation's fields.
// encoding/json matches keys case-insensitively, so unknown keys must too.
var knownFields = map[string]struct{}{
	"id": {}, "firstname": {}, "lastname": {}, "academicyear": {},
	"trimester": {}, "date": {}, "ratings": {},
}

// UnmarshalJSON decodes the shared record shape and keeps unknown fields.
func (e *Evaluation) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var fields evaluationFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	*e = Evaluation(fields)
	e.extra = nil
	for k, v := range all {
		if _, ok := knownFields[strings.ToLower(k)]; ok {
			continue
		}
		if e.extra == nil {
			e.extra = make(map[string]json.RawMessage)
		}
		e.extra[k] = v
	}
	return nil
}

// MarshalJSON encodes the known fields followed by any unknown ones in key
// order.
func (e Evaluation) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(evaluationFields(e))
	if err != nil || len(e.extra) == 0 {
		return b, err
	}
	keys := make([]string, 0, len(e.extra))
	for k := range e.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(e.extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Unknown returns a copy of the fields this client does not model.
func (e Evaluation) Unknown() map[string]json.RawMessage {
	return cloneExtra(e.extra)
}

// KeepUnknown returns e carrying prev's unknown fields, for an edit that
// replaces prev.
func (e Evaluation) KeepUnknown(prev Evaluation) Evaluation {
	e.extra = cloneExtra(prev.extra)
	return e
}

func cloneExtra(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// FullName returns "first last".
func (e Evaluation) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Rating returns the rating for an item, or Unrated.
func (e Evaluation) Rating(categoryID, itemID string) Rating {
	if e.Ratings == nil {
		return Unrated
	}
	return e.Ratings[categoryID][itemID]
}

// Clone returns a deep copy so callers can never mutate shared ratings.
func (e Evaluation) Clone() Evaluation {
	out := e
	out.Ratings = e.Ratings.Clone()
	out.extra = cloneExtra(e.extra)
	return out
}

// Clone deep copies the ratings map.
func (r Ratings) Clone() Ratings {
	if r == nil {
		return nil
	}
	out := make(Ratings, len(r))
	for cat, items := range r {
		inner := make(map[string]Rating, len(items))
		for id, v := range items {
			inner[id] = v
		}
		out[cat] = inner
	}
	return out
}

// Set records a rating; setting Unrated keeps the key, matching how the
// form clears a rating.
func (r Ratings) Set(categoryID, itemID string, v Rating) {
	items, ok := r[categoryID]
	if !ok {
		items = make(map[string]Rating)
		r[categoryID] = items
	}
	items[itemID] = v
}

// CloneAll deep copies a collection.
func CloneAll(records []Evaluation) []Evaluation {
	out := make([]Evaluation, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}

// Timestamp is an ISO-8601 instant. Decoding is lenient: records written by
// older clients may carry an empty or malformed date, and one bad record must
// not make the whole shared document unreadable.
type Timestamp struct {
	time.Time

	// raw is the undecodable JSON value, re-emitted while Time is zero.
	raw string
}

// isoLayout matches the millisecond UTC form produced by browser clients.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// NewTimestamp wraps t, normalised to UTC with millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// MarshalJSON encodes the instant as an ISO-8601 string, "" when zero.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		if t.raw != "" {
			return []byte(t.raw), nil
		}
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(isoLayout))
}

// UnmarshalJSON accepts RFC3339 strings, date-only strings and epoch
// milliseconds. Anything else decodes to the zero instant and is written
// back verbatim by MarshalJSON.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = Timestamp{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		return nil
	}
	if b[0] != '"' {
		if ms, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		t.raw = string(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		t.Time = parseInstant(s)
	}
	if t.IsZero() {
		t.raw = string(b)
	}
	return nil
}

func parseInstant(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if v, err := time.Parse(layout, s); err == nil {
			return v.UTC()
		}
	}
	return time.Time{}
}
