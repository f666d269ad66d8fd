package config_test

import (
	"testing"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the pipeline defaults", func() {
			convey.So(cfg.InputDriver, convey.ShouldEqual, config.DriverJSON)
			convey.So(cfg.ReferenceEvent, convey.ShouldEqual, "333")
			convey.So(cfg.PopulationCap, convey.ShouldEqual, 20_000)
			convey.So(cfg.ShortWindowDays, convey.ShouldEqual, 90)
			convey.So(cfg.LongWindowDays, convey.ShouldEqual, 365)
			convey.So(cfg.TopN, convey.ShouldEqual, 10)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 10)
			convey.So(cfg.Strict, convey.ShouldBeTrue)
			convey.So(cfg.LatestTTL(), convey.ShouldEqual, time.Hour)
		})

		convey.Convey("Then its dates parse", func() {
			convey.So(cfg.HistoryStartDate(), convey.ShouldEqual, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))
			convey.So(cfg.CompetitionCutoffDate(), convey.ShouldEqual, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC))
			convey.So(cfg.WeeklyFromDate().IsZero(), convey.ShouldBeTrue)
		})
	})
}
