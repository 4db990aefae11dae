package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/http/api"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/localstore"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/remote"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/report"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/repository"
	service "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/app"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/stats"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/remotetest"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var day = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func seed() []model.Evaluation {
	return []model.Evaluation{
		{ID: "a", FirstName: "Ana", LastName: "Pérez", AcademicYear: "R1 - Primer Año", Trimester: "Primer Trimestre",
			Date: model.NewTimestamp(day), Ratings: model.Ratings{"A": {"1": model.Good}}},
		{ID: "b", FirstName: "Luis", LastName: "Gómez", AcademicYear: "R2 - Segundo Año", Trimester: "Segundo Trimestre",
			Date: model.NewTimestamp(day.Add(time.Hour)), Ratings: model.Ratings{}},
	}
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	opts = append([]api.Option{api.WithLogger(logger.Nop())}, opts...)
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func newService(srv *remotetest.Server) *service.Service {
	c, err := remote.New(srv.URL(),
		remote.WithLogger(logger.Nop()),
		remote.WithHTTPClient(&http.Client{Transport: &http.Transport{DisableKeepAlives: true}}),
	)
	if err != nil {
		panic(err)
	}
	return service.New(
		service.WithLogger(logger.Nop()),
		service.WithRemote(c),
		service.WithLocalStore(localstore.NewMemory(localstore.WithLogger(logger.Nop()))),
		service.WithRepository(repository.New(repository.WithOnChange(nil))),
		service.WithPollInterval(0),
		service.WithClock(func() time.Time { return day.Add(48 * time.Hour) }),
	)
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

const validDraft = `{"firstName":"Marta","lastName":"Ruiz","academicYear":"R3 - Tercer Año",` +
	`"trimester":"Tercer Trimestre","ratings":{"B":{"2":"4"}}}`

func TestEvaluationsAgainstRemote(t *testing.T) {
	Convey("Given the API backed by a service over a fake remote document", t, func() {
		srv := remotetest.New()
		defer srv.Close()
		srv.SetRecords(seed())
		svc := newService(srv)
		So(svc.Refresh(context.Background()).Err, ShouldBeNil)
		mux := newMux(svc)

		Convey("GET /evaluations lists newest first", func() {
			w := do(mux, http.MethodGet, "/evaluations", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var out struct {
				Items []model.Evaluation `json:"items"`
				Count int                `json:"count"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
			So(out.Count, ShouldEqual, 2)
			So(out.Items[0].ID, ShouldEqual, "b")
		})

		Convey("GET /evaluations?q= filters by the search text", func() {
			w := do(mux, http.MethodGet, "/evaluations?q=perez", "")
			So(w.Body.String(), ShouldContainSubstring, `"count":1`)
			So(w.Body.String(), ShouldContainSubstring, `"id":"a"`)
		})

		Convey("GET /evaluations/{id} returns one record or 404", func() {
			So(do(mux, http.MethodGet, "/evaluations/a", "").Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/evaluations/zzz", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
		})

		Convey("POST /evaluations pushes a new record and ignores the body id", func() {
			body := strings.Replace(validDraft, "{", `{"id":"a",`, 1)
			w := do(mux, http.MethodPost, "/evaluations", body)
			So(w.Code, ShouldEqual, http.StatusCreated)
			var ev model.Evaluation
			So(json.Unmarshal(w.Body.Bytes(), &ev), ShouldBeNil)
			So(ev.ID, ShouldNotEqual, "a")
			So(w.Header().Get("Location"), ShouldEqual, "/evaluations/"+ev.ID)

			remoteRecords := srv.Records()
			So(remoteRecords, ShouldHaveLength, 3)
			So(remoteRecords[0].ID, ShouldEqual, ev.ID)
		})

		Convey("POST /evaluations with missing fields is 400 and nothing is written", func() {
			w := do(mux, http.MethodPost, "/evaluations", `{"firstName":"  "}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(srv.Puts(), ShouldEqual, 0)
		})

		Convey("POST /evaluations with malformed JSON is 400", func() {
			So(do(mux, http.MethodPost, "/evaluations", `{`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("POST /evaluations is 502 when the remote rejects the write", func() {
			srv.FailPutsWith(http.StatusInternalServerError)
			w := do(mux, http.MethodPost, "/evaluations", validDraft)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(svc.List(context.Background(), ""), ShouldHaveLength, 2)
		})

		Convey("PUT /evaluations/{id} edits in place and keeps the date", func() {
			w := do(mux, http.MethodPut, "/evaluations/a", validDraft)
			So(w.Code, ShouldEqual, http.StatusOK)
			got, err := svc.Get(context.Background(), "a")
			So(err, ShouldBeNil)
			So(got.FirstName, ShouldEqual, "Marta")
			So(got.Date.Equal(day), ShouldBeTrue)
			So(srv.Records(), ShouldHaveLength, 2)
		})

		Convey("DELETE /evaluations/{id} removes the record", func() {
			So(do(mux, http.MethodDelete, "/evaluations/a", "").Code, ShouldEqual, http.StatusNoContent)
			So(srv.Records(), ShouldHaveLength, 1)
			So(do(mux, http.MethodDelete, "/evaluations/a", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("GET /evaluations/{id}/report resolves the record", func() {
			w := do(mux, http.MethodGet, "/evaluations/a/report", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var d report.Detail
			So(json.Unmarshal(w.Body.Bytes(), &d), ShouldBeNil)
			So(d.Resident, ShouldEqual, "Ana Pérez")
			So(d.Sections, ShouldNotBeEmpty)
		})

		Convey("GET /evaluations/{id}/pdf returns an attachment", func() {
			w := do(mux, http.MethodGet, "/evaluations/a/pdf", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/pdf")
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "attachment")
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "Eval_")
			So(w.Body.String(), ShouldStartWith, "%PDF")
		})

		Convey("Wrong methods are rejected by the mux", func() {
			So(do(mux, http.MethodPatch, "/evaluations/a", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("POST /sync pulls again and GET /sync reports the state", func() {
			srv.SetRecords(seed()[:1])
			w := do(mux, http.MethodPost, "/sync", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"records":1`)
			So(w.Body.String(), ShouldContainSubstring, `"stale":false`)

			w = do(mux, http.MethodGet, "/sync", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"source":"remote"`)
		})

		Convey("POST /sync against a failing remote is a stale 200", func() {
			srv.FailWith(http.StatusServiceUnavailable)
			w := do(mux, http.MethodPost, "/sync", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"stale":true`)
			So(w.Body.String(), ShouldContainSubstring, `"records":2`)
		})

		Convey("GET /stats combines sync state and the overview", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"evaluations":2`)
			So(w.Body.String(), ShouldContainSubstring, `"sync"`)
		})

		Convey("GET /catalog serves the evaluation structure", func() {
			w := do(mux, http.MethodGet, "/catalog", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var c catalog.Catalog
			So(json.Unmarshal(w.Body.Bytes(), &c), ShouldBeNil)
			So(c.Categories, ShouldNotBeEmpty)
		})

		Convey("GET /healthz serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "gautier_")
		})
	})
}

// fakeDeps returns fixed errors so every status mapping can be reached.
type fakeDeps struct {
	saveErr    error
	deleteErr  error
	refreshErr error
}

func (f *fakeDeps) List(context.Context, string) []model.Evaluation { return nil }
func (f *fakeDeps) Get(context.Context, string) (model.Evaluation, error) {
	return model.Evaluation{}, service.ErrNotFound
}
func (f *fakeDeps) Save(context.Context, model.Draft) (model.Evaluation, error) {
	return model.Evaluation{}, f.saveErr
}
func (f *fakeDeps) Delete(context.Context, string) error { return f.deleteErr }
func (f *fakeDeps) Report(context.Context, string) (report.Detail, model.Evaluation, error) {
	return report.Detail{}, model.Evaluation{}, service.ErrNotFound
}
func (f *fakeDeps) TryRefresh(context.Context) (service.PullResult, error) {
	return service.PullResult{}, f.refreshErr
}
func (f *fakeDeps) Status(context.Context) service.Status { return service.Status{} }
func (f *fakeDeps) Overview(context.Context) stats.Overview {
	return stats.Overview{Status: stats.StatusInProgress}
}
func (f *fakeDeps) Catalog() *catalog.Catalog { return catalog.Default() }

func TestErrorMapping(t *testing.T) {
	Convey("Given handlers over dependencies that fail", t, func() {
		cases := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{"conflict", fmt.Errorf("%w: stale", service.ErrConflict), http.StatusConflict, "conflict"},
			{"push failed", fmt.Errorf("%w: boom", service.ErrPushFailed), http.StatusBadGateway, "push_failed"},
			{"no remote", service.ErrNoRemote, http.StatusServiceUnavailable, "no_remote"},
			{"validation", fmt.Errorf("%w: missing firstName", service.ErrValidation), http.StatusBadRequest, "bad_request"},
			{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			Convey("A "+tc.name+" save maps to "+http.StatusText(tc.status), func() {
				mux := newMux(&fakeDeps{saveErr: tc.err})
				w := do(mux, http.MethodPost, "/evaluations", validDraft)
				So(w.Code, ShouldEqual, tc.status)
				So(w.Body.String(), ShouldContainSubstring, `"code":"`+tc.code+`"`)
			})
		}

		Convey("A refresh while a cycle runs is 409", func() {
			mux := newMux(&fakeDeps{refreshErr: service.ErrSyncInFlight})
			w := do(mux, http.MethodPost, "/sync", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(w.Body.String(), ShouldContainSubstring, "sync_in_flight")
		})

		Convey("Reports of unknown records are 404", func() {
			mux := newMux(&fakeDeps{})
			So(do(mux, http.MethodGet, "/evaluations/x/report", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/evaluations/x/pdf", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestWriteRateLimit(t *testing.T) {
	Convey("Given a server allowing two writes per minute", t, func() {
		now := day
		mux := newMux(&fakeDeps{}, api.WithWriteRate(2), api.WithClock(func() time.Time { return now }))

		Convey("The third write in a burst is 429", func() {
			So(do(mux, http.MethodDelete, "/evaluations/a", "").Code, ShouldEqual, http.StatusNoContent)
			So(do(mux, http.MethodDelete, "/evaluations/a", "").Code, ShouldEqual, http.StatusNoContent)
			w := do(mux, http.MethodDelete, "/evaluations/a", "")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Header().Get("Retry-After"), ShouldNotBeEmpty)

			Convey("Reads are never limited", func() {
				So(do(mux, http.MethodGet, "/evaluations", "").Code, ShouldEqual, http.StatusOK)
			})

			Convey("The budget refills over time", func() {
				now = now.Add(31 * time.Second)
				So(do(mux, http.MethodDelete, "/evaluations/a", "").Code, ShouldEqual, http.StatusNoContent)
			})
		})
	})

	Convey("Given the limit disabled", t, func() {
		mux := newMux(&fakeDeps{}, api.WithWriteRate(0))
		for i := 0; i < 5; i++ {
			So(do(mux, http.MethodPost, "/sync", "").Code, ShouldEqual, http.StatusOK)
		}
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the api error helpers", t, func() {
		cause := errors.New("eof")

		Convey("Wrap keeps the cause reachable", func() {
			err := api.Wrap("op", cause)
			So(err.Error(), ShouldEqual, "op: eof")
			So(api.Wrap("op", nil), ShouldBeNil)
		})

		Convey("WrapKind exposes both the kind and the cause", func() {
			err := api.WrapKind("op", api.ErrBadRequest, service.ErrNotFound)
			So(err.Error(), ShouldContainSubstring, "bad request")
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("NewKind has no cause", func() {
			So(api.NewKind("op", api.ErrRateLimited).Error(), ShouldEqual, "op: too many write requests")
		})
	})
}
