package localstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/config"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func sample() []model.Evaluation {
	return []model.Evaluation{
		{
			ID:           "a",
			FirstName:    "Ana",
			LastName:     "Pérez",
			AcademicYear: "R1 - Primer Año",
			Trimester:    "Primer Trimestre",
			Date:         model.NewTimestamp(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
			Ratings:      model.Ratings{"A": {"1": model.Good}},
		},
		{ID: "b", FirstName: "Luis", LastName: "Gómez", AcademicYear: "R2 - Segundo Año", Trimester: "Segundo Trimestre"},
	}
}

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(ctx context.Context, s Store) {
	Convey("When nothing has been saved", func() {
		got, err := s.LoadAll(ctx)
		So(err, ShouldBeNil)
		So(got, ShouldNotBeNil)
		So(got, ShouldBeEmpty)
	})

	Convey("When a collection is saved and loaded", func() {
		So(s.SaveAll(ctx, sample()), ShouldBeNil)
		got, err := s.LoadAll(ctx)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, sample())
	})

	Convey("When a second save overwrites the first", func() {
		So(s.SaveAll(ctx, sample()), ShouldBeNil)
		So(s.SaveAll(ctx, sample()[1:]), ShouldBeNil)
		got, err := s.LoadAll(ctx)
		So(err, ShouldBeNil)
		So(len(got), ShouldEqual, 1)
		So(got[0].ID, ShouldEqual, "b")
	})

	Convey("When a nil collection is saved", func() {
		So(s.SaveAll(ctx, nil), ShouldBeNil)
		got, err := s.LoadAll(ctx)
		So(err, ShouldBeNil)
		So(got, ShouldBeEmpty)
	})
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a fresh directory", t, func() {
		ctx := context.Background()
		dir := filepath.Join(t.TempDir(), "nested")
		s, err := NewFile(dir, WithLogger(logger.Nop()))
		So(err, ShouldBeNil)
		So(s.Path(), ShouldEqual, filepath.Join(dir, "gautier_evals.json"))

		exerciseStore(ctx, s)

		Convey("When the document holds garbage", func() {
			So(os.MkdirAll(dir, 0o755), ShouldBeNil)
			So(os.WriteFile(s.Path(), []byte("{not json"), 0o600), ShouldBeNil)

			got, err := s.LoadAll(ctx)

			Convey("Then it is treated as no local data", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When saving leaves no temp files behind", func() {
			So(s.SaveAll(ctx, sample()), ShouldBeNil)
			entries, err := os.ReadDir(dir)
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, 1)
			So(entries[0].Name(), ShouldEqual, "gautier_evals.json")
		})
	})

	Convey("Given an empty directory name", t, func() {
		_, err := NewFile("")
		So(err, ShouldNotBeNil)
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store", t, func() {
		ctx := context.Background()
		s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "db", "evals.db"), WithLogger(logger.Nop()))
		So(err, ShouldBeNil)
		defer func() { _ = s.Close() }()

		exerciseStore(ctx, s)

		Convey("When the row holds garbage", func() {
			So(s.putRaw(ctx, "[{\"id\":"), ShouldBeNil)

			got, err := s.LoadAll(ctx)

			Convey("Then it is treated as no local data", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When the store is reopened", func() {
			path := filepath.Join(t.TempDir(), "reopen.db")
			first, err := NewSQLite(ctx, path)
			So(err, ShouldBeNil)
			So(first.SaveAll(ctx, sample()), ShouldBeNil)
			So(first.Close(), ShouldBeNil)

			second, err := NewSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer func() { _ = second.Close() }()
			got, err := second.LoadAll(ctx)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		s := NewMemory(WithLogger(logger.Nop()))

		exerciseStore(ctx, s)

		Convey("When the stored bytes are not an array", func() {
			s.SetRaw([]byte(`{"id":"x"}`))
			got, err := s.LoadAll(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
			_, err := s.LoadAll(ctx)
			So(err, ShouldEqual, ErrClosed)
			So(s.SaveAll(ctx, sample()), ShouldEqual, ErrClosed)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given local store configuration", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		Convey("Then each driver builds its backend", func() {
			s, err := Open(ctx, config.LocalStore{Driver: config.DriverFile, Path: dir})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &FileStore{})

			s, err = Open(ctx, config.LocalStore{Driver: config.DriverSQLite, Path: filepath.Join(dir, "x.db")})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &SQLiteStore{})
			So(s.Close(), ShouldBeNil)

			s, err = Open(ctx, config.LocalStore{Driver: config.DriverMemory})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &MemoryStore{})
		})

		Convey("Then a store built without a logger still has one", func() {
			So(buildOptions(nil).log, ShouldNotBeNil)
			So(buildOptions([]Option{WithLogger(nil)}).log, ShouldNotBeNil)
		})

		Convey("Then an unknown driver is rejected", func() {
			_, err := Open(ctx, config.LocalStore{Driver: "redis"})
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})
	})
}
