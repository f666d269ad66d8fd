package weekly_test

import (
	"context"
	"testing"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	weekly "github.com/Octave-byte/cube-ranking/internal/domain/weekly"
	. "github.com/smartystreets/goconvey/convey"
)

func date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func metric(person, day string, v int) model.RollingMetric {
	return model.RollingMetric{
		PersonID: person,
		Date:     date(day),
		Metrics:  model.Metrics{Best90: v, Average90: v + 100, Best365: v, Average365: v + 100},
	}
}

func TestResample(t *testing.T) {
	Convey("Given sparse rolling metrics", t, func() {
		ctx := context.Background()
		rows := []model.RollingMetric{
			metric("P", "2023-03-08", 900), // Wednesday, week of 03-06
			metric("P", "2023-03-12", 850), // Sunday, same week
			metric("P", "2023-03-29", 800), // week of 03-27
			metric("Q", "2023-03-13", 700),
		}

		Convey("When resampling", func() {
			out := weekly.New().Resample(ctx, rows)

			Convey("Then the same-week rows collapse to their minimum", func() {
				So(out[0].PersonID, ShouldEqual, "P")
				So(out[0].Week, ShouldEqual, date("2023-03-06"))
				So(out[0].Best90, ShouldEqual, 850)
			})

			Convey("Then gaps carry the last observation forward", func() {
				p := out[:4]
				So(p[1].Week, ShouldEqual, date("2023-03-13"))
				So(p[1].Metrics, ShouldResemble, p[0].Metrics)
				So(p[2].Week, ShouldEqual, date("2023-03-20"))
				So(p[2].Metrics, ShouldResemble, p[0].Metrics)
				So(p[3].Week, ShouldEqual, date("2023-03-27"))
				So(p[3].Best90, ShouldEqual, 800)
			})

			Convey("Then nothing exists outside the observed span", func() {
				So(out, ShouldHaveLength, 5)
				So(out[4].PersonID, ShouldEqual, "Q")
				So(out[4].Week, ShouldEqual, date("2023-03-13"))
				So(out[4].Best90, ShouldEqual, 700)
			})

			Convey("Then every week is a Monday and unique per person", func() {
				seen := map[string]bool{}
				for _, w := range out {
					So(w.Week.Weekday(), ShouldEqual, time.Monday)
					key := w.PersonID + w.Week.String()
					So(seen[key], ShouldBeFalse)
					seen[key] = true
				}
			})
		})
	})

	Convey("Given a person observed in one week only", t, func() {
		out := weekly.New().Resample(context.Background(), []model.RollingMetric{metric("P", "2023-01-04", 1000)})

		Convey("Then the series has one row equal to the observation", func() {
			So(out, ShouldHaveLength, 1)
			So(out[0].Week, ShouldEqual, date("2023-01-02"))
			So(out[0].Metrics, ShouldResemble, model.Metrics{Best90: 1000, Average90: 1100, Best365: 1000, Average365: 1100})
		})
	})

	Convey("Given no rows", t, func() {
		So(weekly.New().Resample(context.Background(), nil), ShouldBeEmpty)
	})
}
