package smoketest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/http/api"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/remote"
	service "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/app"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
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

func newTarget(writeRate int) (*httptest.Server, *remotetest.Server, func()) {
	remoteSrv := remotetest.New()
	remoteSrv.SetRecords([]model.Evaluation{{
		ID: "keep", FirstName: "Ana", LastName: "Pérez", AcademicYear: "R1 - Primer Año",
		Trimester: "Primer Trimestre", Date: model.NewTimestamp(time.Now().Add(-time.Hour)), Ratings: model.Ratings{},
	}})
	c, err := remote.New(remoteSrv.URL(), remote.WithLogger(logger.Nop()))
	if err != nil {
		panic(err)
	}
	svc := service.New(service.WithLogger(logger.Nop()), service.WithRemote(c), service.WithPollInterval(0))
	svc.Refresh(context.Background())

	mux := http.NewServeMux()
	api.NewServer(svc, api.WithLogger(logger.Nop()), api.WithWriteRate(writeRate)).Register(context.Background(), mux)
	ts := httptest.NewServer(mux)
	return ts, remoteSrv, func() {
		ts.Close()
		svc.Stop()
		remoteSrv.Close()
	}
}

func TestRun(t *testing.T) {
	_ = logger.Init(logger.WithWriter(io.Discard))

	Convey("Given a running evaluations API", t, func() {
		ts, remoteSrv, done := newTarget(0)
		defer done()

		Convey("When a smoke run creates and cleans up evaluations", func() {
			cfg := &Config{BaseURL: ts.URL, Count: 6, Workers: 3, Seed: 42}
			stats, err := Run(context.Background(), cfg)

			Convey("Then every evaluation reads back and is removed", func() {
				So(err, ShouldBeNil)
				So(stats.Created, ShouldEqual, 6)
				So(stats.Verified, ShouldEqual, 6)
				So(stats.Mismatched, ShouldEqual, 0)
				So(stats.Deleted, ShouldEqual, 6)
				So(remoteSrv.Records(), ShouldHaveLength, 1)
			})
		})

		Convey("When asked to keep the evaluations", func() {
			_, err := Run(context.Background(), &Config{BaseURL: ts.URL, Count: 2, Workers: 1, Seed: 7, Keep: true})
			So(err, ShouldBeNil)
			So(remoteSrv.Records(), ShouldHaveLength, 3)
		})
	})

	Convey("Given an unreachable service", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		_, err := Run(context.Background(), &Config{BaseURL: url, Count: 1, Timeout: time.Second})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "health check")
	})
}

func TestGenerateDrafts(t *testing.T) {
	Convey("Given the default catalog and a fixed seed", t, func() {
		cat := catalog.Default()
		cfg := &Config{Count: 10, Seed: 99}
		stats := &Stats{}
		drafts := generateDrafts(context.Background(), cfg, cat, "smoketag", stats)

		Convey("Then every draft is valid and tagged", func() {
			So(stats.Generated, ShouldEqual, 10)
			for _, d := range drafts {
				So(d.Validate(), ShouldBeNil)
				So(d.LastName, ShouldContainSubstring, "smoketag-")
				So(cat.HasAcademicYear(d.AcademicYear), ShouldBeTrue)
				So(cat.HasTrimester(d.Trimester), ShouldBeTrue)
			}
		})

		Convey("Then the same seed yields the same drafts", func() {
			again := generateDrafts(context.Background(), cfg, cat, "smoketag", &Stats{})
			So(again, ShouldResemble, drafts)
		})
	})
}

func TestVerifyOrdering(t *testing.T) {
	Convey("Given lists in and out of date order", t, func() {
		older := model.Evaluation{Date: model.NewTimestamp(time.Unix(100, 0))}
		newer := model.Evaluation{Date: model.NewTimestamp(time.Unix(200, 0))}
		So(verifyOrdering([]model.Evaluation{newer, older}), ShouldBeNil)
		So(verifyOrdering([]model.Evaluation{older, newer}), ShouldNotBeNil)
	})
}
