package smoketest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/report"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// pdfChecks bounds how many records get their PDF downloaded.
const pdfChecks = 3

type listResponse struct {
	Items []model.Evaluation `json:"items"`
	Count int                `json:"count"`
}

// verifyResults checks every created record reads back unchanged, shows up
// in a search for the run tag, resolves into a report and that the list is
// ordered newest first.
func verifyResults(ctx context.Context, client *HTTPClient, created []model.Evaluation, drafts []model.Draft, tag string, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying results")

	var firstErr error
	mismatch := func(err error) {
		stats.Mismatched++
		if firstErr == nil {
			firstErr = err
		}
		log.Warn(ctx, "verification mismatch", logger.Error(err))
	}

	pdfs := 0
	for i, ev := range created {
		if ev.ID == "" {
			continue
		}
		var got model.Evaluation
		if err := client.getJSON(ctx, "/evaluations/"+url.PathEscape(ev.ID), &got); err != nil {
			mismatch(err)
			continue
		}
		if err := sameContent(drafts[i], got); err != nil {
			mismatch(fmt.Errorf("%s: %w", ev.ID, err))
			continue
		}
		var d report.Detail
		if err := client.getJSON(ctx, "/evaluations/"+url.PathEscape(ev.ID)+"/report", &d); err != nil {
			mismatch(err)
			continue
		}
		if pdfs < pdfChecks {
			pdfs++
			if err := checkPDF(ctx, client, ev.ID); err != nil {
				mismatch(err)
				continue
			}
		}
		stats.Verified++
	}

	var found listResponse
	// The trailing dash keeps a tag from matching a longer one.
	if err := client.getJSON(ctx, "/evaluations?q="+url.QueryEscape(tag+"-"), &found); err != nil {
		mismatch(err)
	} else if found.Count != stats.Created {
		mismatch(fmt.Errorf("search for %q found %d records, created %d", tag, found.Count, stats.Created))
	}

	var all listResponse
	if err := client.getJSON(ctx, "/evaluations", &all); err != nil {
		mismatch(err)
	} else if err := verifyOrdering(all.Items); err != nil {
		mismatch(err)
	}

	log.Info(ctx, "verification completed", logger.Int("verified", stats.Verified), logger.Int("mismatched", stats.Mismatched))
	return firstErr
}

// sameContent compares the fields a client controls.
func sameContent(d model.Draft, got model.Evaluation) error {
	switch {
	case got.FirstName != d.FirstName || got.LastName != d.LastName:
		return fmt.Errorf("name %q, want %q", got.FullName(), d.FirstName+" "+d.LastName)
	case got.AcademicYear != d.AcademicYear || got.Trimester != d.Trimester:
		return fmt.Errorf("period %s/%s, want %s/%s", got.AcademicYear, got.Trimester, d.AcademicYear, d.Trimester)
	case !reflect.DeepEqual(normalise(got.Ratings), normalise(d.Ratings)):
		return fmt.Errorf("ratings differ")
	}
	return nil
}

// normalise drops empty categories so {} and missing compare equal.
func normalise(r model.Ratings) model.Ratings {
	out := model.Ratings{}
	for cat, items := range r {
		if len(items) > 0 {
			out[cat] = items
		}
	}
	return out
}

// verifyOrdering checks the list is sorted by date, newest first.
func verifyOrdering(items []model.Evaluation) error {
	for i := 1; i < len(items); i++ {
		if items[i].Date.After(items[i-1].Date.Time) {
			return fmt.Errorf("list not sorted: entry %d is newer than entry %d", i, i-1)
		}
	}
	return nil
}

func checkPDF(ctx context.Context, client *HTTPClient, id string) error {
	status, body, err := client.do(ctx, http.MethodGet, "/evaluations/"+url.PathEscape(id)+"/pdf", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK || !bytes.HasPrefix(body, []byte("%PDF")) {
		return fmt.Errorf("pdf for %s: status %d", id, status)
	}
	return nil
}
