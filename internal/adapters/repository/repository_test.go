package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

func at(day int) model.Timestamp {
	return model.NewTimestamp(time.Date(2025, 2, day, 12, 0, 0, 0, time.UTC))
}

func fixtures() []model.Evaluation {
	return []model.Evaluation{
		{ID: "old", FirstName: "Ana", LastName: "Pérez", AcademicYear: "R1 - Primer Año", Trimester: "Primer Trimestre", Date: at(1)},
		{ID: "new", FirstName: "Luis", LastName: "Gómez", AcademicYear: "R2 - Segundo Año", Trimester: "Tercer Trimestre", Date: at(20),
			Ratings: model.Ratings{"A": {"1": model.Excellent}}},
		{ID: "mid", FirstName: "Ana", LastName: "Ruiz", AcademicYear: "R3 - Tercer Año", Trimester: "Segundo Trimestre", Date: at(10)},
	}
}

func TestRepository(t *testing.T) {
	Convey("Given an empty repository", t, func() {
		ctx := context.Background()
		var seen []int
		r := New(WithOnChange(func(n int) { seen = append(seen, n) }))

		Convey("Then it is unpopulated and empty", func() {
			So(r.Populated(), ShouldBeFalse)
			So(r.Count(ctx), ShouldEqual, 0)
			So(r.All(ctx), ShouldBeEmpty)
			_, err := r.Get(ctx, "old")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("When replaced with an empty collection", func() {
			r.Replace(ctx, nil)
			So(r.Populated(), ShouldBeTrue)
			So(r.Count(ctx), ShouldEqual, 0)
			So(seen, ShouldResemble, []int{0})
		})

		Convey("When replaced with records", func() {
			r.Replace(ctx, fixtures())

			Convey("Then All keeps the stored order", func() {
				all := r.All(ctx)
				So(len(all), ShouldEqual, 3)
				So(all[0].ID, ShouldEqual, "old")
				So(all[2].ID, ShouldEqual, "mid")
				So(seen, ShouldResemble, []int{3})
			})

			Convey("Then Get finds by id", func() {
				ev, err := r.Get(ctx, "new")
				So(err, ShouldBeNil)
				So(ev.LastName, ShouldEqual, "Gómez")
			})

			Convey("Then Query filters and sorts newest first", func() {
				got := r.Query(ctx, "ana")
				So(len(got), ShouldEqual, 2)
				So(got[0].ID, ShouldEqual, "mid")
				So(got[1].ID, ShouldEqual, "old")

				So(len(r.Query(ctx, "")), ShouldEqual, 3)
				So(r.Query(ctx, "")[0].ID, ShouldEqual, "new")
				So(r.Query(ctx, "tercer trimestre")[0].ID, ShouldEqual, "new")
				So(r.Query(ctx, "r3 -")[0].ID, ShouldEqual, "mid")
				So(r.Query(ctx, "nobody"), ShouldBeEmpty)
			})

			Convey("Then returned records are copies", func() {
				ev, err := r.Get(ctx, "new")
				So(err, ShouldBeNil)
				ev.Ratings.Set("A", "1", model.Insufficient)
				all := r.All(ctx)
				all[1].FirstName = "changed"

				again, err := r.Get(ctx, "new")
				So(err, ShouldBeNil)
				So(again.Rating("A", "1"), ShouldEqual, model.Excellent)
				So(again.FirstName, ShouldEqual, "Luis")
			})

			Convey("Then the caller's slice is not aliased", func() {
				in := fixtures()
				r.Replace(ctx, in)
				in[0].FirstName = "mutated"
				ev, err := r.Get(ctx, "old")
				So(err, ShouldBeNil)
				So(ev.FirstName, ShouldEqual, "Ana")
			})
		})
	})
}

func TestRepositoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	r := New(WithOnChange(nil))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Replace(ctx, fixtures())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Query(ctx, "ana")
				_, _ = r.Get(ctx, "mid")
			}
		}()
	}
	wg.Wait()

	if got := r.Count(ctx); got != 3 {
		t.Fatalf("expected 3 records, got %d", got)
	}
}
