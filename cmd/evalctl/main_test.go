package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/http/api"
	service "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/app"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/config"
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

var day = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func seed() []model.Evaluation {
	return []model.Evaluation{
		{ID: "a", FirstName: "Ana", LastName: "Pérez", AcademicYear: "R1 - Primer Año", Trimester: "Primer Trimestre",
			Date: model.NewTimestamp(day), Ratings: model.Ratings{"A": {"1": model.Good}}},
		{ID: "b", FirstName: "Luis", LastName: "Gómez", AcademicYear: "R2 - Segundo Año", Trimester: "Segundo Trimestre",
			Date: model.NewTimestamp(day.Add(time.Hour)), Ratings: model.Ratings{"A": {"1": model.Fair, "2": model.Excellent}}},
	}
}

func configFor(srv *remotetest.Server) func(context.Context) (*config.Config, error) {
	return func(context.Context) (*config.Config, error) {
		cfg := config.New()
		cfg.Remote.URL = srv.URL()
		cfg.Remote.Timeout = 5 * time.Second
		cfg.LocalStore = config.LocalStore{Driver: config.DriverMemory}
		return cfg, nil
	}
}

// execute runs evalctl with args and returns stdout, stderr and the error.
func execute(srv *remotetest.Server, stdin string, args ...string) (string, string, error) {
	root := newRootCmdWith(&cli{loadConfig: configFor(srv)})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestReadCommands(t *testing.T) {
	Convey("Given a remote document with two evaluations", t, func() {
		srv := remotetest.New()
		defer srv.Close()
		srv.SetRecords(seed())

		Convey("list prints a table newest first", func() {
			out, _, err := execute(srv, "", "list")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Luis Gómez")
			So(strings.Index(out, "Luis Gómez"), ShouldBeLessThan, strings.Index(out, "Ana Pérez"))
			So(out, ShouldContainSubstring, "2 evaluaciones")
		})

		Convey("list -q filters and --json decodes", func() {
			out, _, err := execute(srv, "", "list", "-q", "luis", "--json")
			So(err, ShouldBeNil)
			var items []model.Evaluation
			So(json.Unmarshal([]byte(out), &items), ShouldBeNil)
			So(len(items), ShouldEqual, 1)
			So(items[0].ID, ShouldEqual, "b")
		})

		Convey("show resolves the record against the catalog", func() {
			out, _, err := execute(srv, "", "show", "a")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Ana Pérez")
			So(out, ShouldContainSubstring, "3 - Bueno")
		})

		Convey("show of an unknown id fails with not found", func() {
			_, _, err := execute(srv, "", "show", "zzz")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("show needs exactly one id", func() {
			_, _, err := execute(srv, "", "show")
			So(err, ShouldNotBeNil)
		})

		Convey("stats pools the ratings", func() {
			out, _, err := execute(srv, "", "stats", "--json")
			So(err, ShouldBeNil)
			var got statsOutput
			So(json.Unmarshal([]byte(out), &got), ShouldBeNil)
			So(got.Overview.Evaluations, ShouldEqual, 2)
			So(got.Overview.RatedItems, ShouldEqual, 3)
			So(got.Categories[0].CategoryID, ShouldEqual, "A")
			So(got.Categories[0].Rated, ShouldEqual, 3)
			So(got.Categories[0].Average, ShouldEqual, 3.0)
		})

		Convey("export writes the PDF into the output directory", func() {
			dir := t.TempDir()
			out, _, err := execute(srv, "", "export", "a", "-o", dir)
			So(err, ShouldBeNil)
			path := strings.TrimSpace(out)
			So(filepath.Dir(path), ShouldEqual, dir)
			b, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(bytes.HasPrefix(b, []byte("%PDF")), ShouldBeTrue)
		})

		Convey("a failing remote still lists with a warning", func() {
			srv.FailWith(http.StatusBadGateway)
			out, errOut, err := execute(srv, "", "list")
			So(err, ShouldBeNil)
			So(errOut, ShouldContainSubstring, "remote unreachable")
			So(out, ShouldContainSubstring, "0 evaluaciones")
		})
	})
}

func TestWriteCommands(t *testing.T) {
	Convey("Given a remote document with two evaluations", t, func() {
		srv := remotetest.New()
		defer srv.Close()
		srv.SetRecords(seed())

		Convey("save reads a draft from stdin and pushes it", func() {
			draft := `{"firstName":"Marta","lastName":"Ruiz","academicYear":"R3 - Tercer Año","trimester":"Tercer Trimestre"}`
			out, _, err := execute(srv, draft, "save")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Marta Ruiz")
			So(len(srv.Records()), ShouldEqual, 3)
			So(srv.Records()[0].FirstName, ShouldEqual, "Marta")
		})

		Convey("save rejects an invalid draft without pushing", func() {
			_, _, err := execute(srv, `{"firstName":"Marta"}`, "save")
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			So(srv.Puts(), ShouldEqual, 0)
		})

		Convey("save rejects malformed JSON", func() {
			_, _, err := execute(srv, `{`, "save")
			So(err, ShouldNotBeNil)
			So(srv.Gets(), ShouldEqual, 0)
		})

		Convey("delete removes the record remotely", func() {
			out, _, err := execute(srv, "", "delete", "a")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "deleted a")
			So(len(srv.Records()), ShouldEqual, 1)
		})

		Convey("pull reports where the data came from", func() {
			out, _, err := execute(srv, "", "pull")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "source=remote records=2")
		})

		Convey("pull fails when the remote is down", func() {
			srv.FailWith(http.StatusInternalServerError)
			out, _, err := execute(srv, "", "pull")
			So(errors.Is(err, service.ErrPullFailed), ShouldBeTrue)
			So(out, ShouldContainSubstring, "source=local")
		})
	})
}

func TestSmokeCommand(t *testing.T) {
	Convey("Given a running API over a fake remote", t, func() {
		srv := remotetest.New()
		defer srv.Close()

		cfg, _ := configFor(srv)(context.Background())
		svc, err := service.FromConfig(context.Background(), cfg, logger.Nop(), service.WithPollInterval(0))
		So(err, ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, api.WithWriteRate(0), api.WithLogger(logger.Nop())).Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		Convey("smoke creates, verifies and removes its records", func() {
			out, _, err := execute(srv, "", "smoke", "--url", ts.URL, "--count", "3", "--workers", "2", "--seed", "7")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "created=3 verified=3 mismatched=0 deleted=3")
			So(len(srv.Records()), ShouldEqual, 0)
		})

		Convey("an invalid seed is rejected", func() {
			_, _, err := execute(srv, "", "smoke", "--url", ts.URL, "--seed", "x")
			So(err, ShouldNotBeNil)
		})
	})
}
