// Package stats computes the overview figures shown above the list.
package stats

import (
	"math"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

// Overall status labels.
const (
	StatusExcellent  = "EXCELENTE"
	StatusInProgress = "EN PROGRESO"
)

// excellentThreshold is the global average at which the cohort is flagged excellent.
const excellentThreshold = 3.0

// Overview summarises a collection.
type Overview struct {
	Evaluations   int     `json:"evaluations"`
	Residents     int     `json:"residents"`
	RatedItems    int     `json:"ratedItems"`
	GlobalAverage float64 `json:"globalAverage"`
	Status        string  `json:"status"`
}

// Compute builds the overview. The average is taken over every rated item of
// every record and rounded to one decimal.
func Compute(records []model.Evaluation) Overview {
	o := Overview{Evaluations: len(records)}
	residents := make(map[string]struct{}, len(records))
	sum := 0
	for i := range records {
		residents[records[i].FirstName+" "+records[i].LastName] = struct{}{}
		for _, items := range records[i].Ratings {
			for _, v := range items {
				if v.Rated() {
					sum += v.Value()
					o.RatedItems++
				}
			}
		}
	}
	o.Residents = len(residents)
	if o.RatedItems > 0 {
		o.GlobalAverage = round1(float64(sum) / float64(o.RatedItems))
	}
	o.Status = StatusInProgress
	if o.GlobalAverage >= excellentThreshold {
		o.Status = StatusExcellent
	}
	return o
}

// CategoryAverage is the mean rating of one category within a record.
type CategoryAverage struct {
	CategoryID string  `json:"categoryId"`
	Rated      int     `json:"rated"`
	Total      int     `json:"total"`
	Average    float64 `json:"average"`
}

// CategoryAverages returns one entry per catalog category, in catalog order.
// Ratings for items the catalog does not define are ignored.
func CategoryAverages(e model.Evaluation, c *catalog.Catalog) []CategoryAverage {
	out := make([]CategoryAverage, 0, len(c.Categories))
	for _, cat := range c.Categories {
		avg := CategoryAverage{CategoryID: cat.ID, Total: len(cat.Items)}
		sum := 0
		for _, it := range cat.Items {
			if v := e.Rating(cat.ID, it.ID); v.Rated() {
				sum += v.Value()
				avg.Rated++
			}
		}
		if avg.Rated > 0 {
			avg.Average = round1(float64(sum) / float64(avg.Rated))
		}
		out = append(out, avg)
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
