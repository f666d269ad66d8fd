package ranking_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	ranking "github.com/Octave-byte/cube-ranking/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	week1 = time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC)
	week2 = week1.AddDate(0, 0, 7)
)

func row(person string, week time.Time, avg90 int) model.WeeklyRecord {
	return model.WeeklyRecord{
		PersonID: person,
		Week:     week,
		Metrics:  model.Metrics{Best90: avg90 - 100, Average90: avg90, Best365: avg90 - 100, Average365: avg90},
	}
}

func TestMinRank(t *testing.T) {
	Convey("Given tied values", t, func() {
		Convey("Then ties share the lower rank and the next value skips", func() {
			So(ranking.MinRank([]int{900, 900, 950}), ShouldResemble, []int{1, 1, 3})
			So(ranking.MinRank([]int{950, 900, 900}), ShouldResemble, []int{3, 1, 1})
			So(ranking.MinRank([]int{5, 3, 5, 1, 3}), ShouldResemble, []int{4, 2, 4, 1, 2})
			So(ranking.MinRank(nil), ShouldBeEmpty)
		})

		Convey("Then the order law holds on random input", func() {
			rng := rand.New(rand.NewSource(7))
			values := make([]int, 60)
			for i := range values {
				values[i] = 800 + rng.Intn(40)
			}
			ranks := ranking.MinRank(values)
			lowest := len(values)
			for i := range values {
				lowest = min(lowest, ranks[i])
				for j := range values {
					switch {
					case values[i] < values[j]:
						So(ranks[i] < ranks[j], ShouldBeTrue)
					case values[i] == values[j]:
						So(ranks[i] == ranks[j], ShouldBeTrue)
					}
				}
			}
			So(lowest, ShouldEqual, 1)
		})
	})
}

func TestAssign(t *testing.T) {
	Convey("Given a weekly table over two weeks", t, func() {
		ctx := context.Background()
		weeks := []model.WeeklyRecord{
			row("a", week1, 900),
			row("b", week1, 900),
			row("c", week1, 950),
			row("d", week1, model.NoResult),
			row("a", week2, 980),
			row("c", week2, 950),
		}
		persons := []model.Person{
			{ID: "a", Country: "France"},
			{ID: "b", Country: "Peru"},
			{ID: "c", Country: "France"},
		}

		out := ranking.New().Assign(ctx, weeks, persons)
		So(out, ShouldHaveLength, len(weeks))

		Convey("Then world ranks use the min method per week", func() {
			So(out[0].Rank90Avg, ShouldEqual, 1)
			So(out[1].Rank90Avg, ShouldEqual, 1)
			So(out[2].Rank90Avg, ShouldEqual, 3)
			So(out[3].Rank90Avg, ShouldEqual, 4)
			So(out[3].Average90, ShouldEqual, model.NoResult)
		})

		Convey("Then persons absent from a week take no rank slot", func() {
			So(out[5].PersonID, ShouldEqual, "c")
			So(out[5].Rank90Avg, ShouldEqual, 1)
			So(out[4].Rank90Avg, ShouldEqual, 2)
		})

		Convey("Then national ranks are scoped to each country", func() {
			So(out[0].Country, ShouldEqual, "France")
			So(out[0].Rank90AvgNat, ShouldEqual, 1)
			So(out[2].Rank90AvgNat, ShouldEqual, 2)
			So(out[1].Country, ShouldEqual, "Peru")
			So(out[1].Rank90AvgNat, ShouldEqual, 1)
		})

		Convey("Then persons without a country have no national ranks", func() {
			So(out[3].Country, ShouldBeEmpty)
			So(out[3].Rank90BestNat, ShouldEqual, 0)
			So(out[3].Rank365AvgNat, ShouldEqual, 0)
			So(out[3].Rank365Avg, ShouldEqual, 4)
		})

		Convey("Then the weekly values are carried through", func() {
			So(out[2].Best90, ShouldEqual, 850)
			So(out[2].Week, ShouldEqual, week1)
		})
	})
}
