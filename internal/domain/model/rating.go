package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Rating is an ordinal competency code. The empty code means unrated.
type Rating string

// Rating codes.
const (
	Unrated      Rating = ""
	Insufficient Rating = "1"
	Fair         Rating = "2"
	Good         Rating = "3"
	Excellent    Rating = "4"
)

// RatingScale lists the scored codes in ascending order.
var RatingScale = []Rating{Insufficient, Fair, Good, Excellent}

// Valid reports whether r is one of the known codes (unrated included).
func (r Rating) Valid() bool {
	switch r {
	case Unrated, Insufficient, Fair, Good, Excellent:
		return true
	}
	return false
}

// Rated reports whether r carries a score.
func (r Rating) Rated() bool { return r != Unrated && r.Valid() }

// Value returns the numeric score, 0 when unrated or unknown.
func (r Rating) Value() int {
	if !r.Rated() {
		return 0
	}
	n, _ := strconv.Atoi(string(r))
	return n
}

// Label returns the Spanish label printed on reports.
func (r Rating) Label() string {
	switch r {
	case Excellent:
		return "Excelente"
	case Good:
		return "Bueno"
	case Fair:
		return "Regular"
	case Insufficient:
		return "Insuficiente"
	default:
		return "N/A"
	}
}

// UnmarshalJSON accepts both "3" and 3; null decodes to Unrated.
func (r *Rating) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = Unrated
		return nil
	}
	if len(b) > 0 && b[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*r = Rating(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = Rating(s)
	return nil
}
