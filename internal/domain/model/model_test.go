package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestRound(t *testing.T) {
	convey.Convey("Given the round labels", t, func() {
		convey.Convey("When parsing known labels", func() {
			cases := map[string]model.Round{
				"Final":               1,
				"Second round":        2,
				"First round":         3,
				"Semi Final":          4,
				"Qualification round": 5,
			}
			convey.Convey("Then each maps to its fixed priority and back", func() {
				for label, want := range cases {
					got, err := model.ParseRound(label)
					convey.So(err, convey.ShouldBeNil)
					convey.So(got, convey.ShouldEqual, want)
					convey.So(got.Label(), convey.ShouldEqual, label)
					convey.So(got.Valid(), convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When parsing an unknown label", func() {
			_, err := model.ParseRound("Combined Final")
			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestDates(t *testing.T) {
	convey.Convey("Given calendar helpers", t, func() {
		convey.Convey("WeekOf anchors every day on the preceding Monday", func() {
			monday := time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 7; i++ {
				convey.So(model.WeekOf(monday.AddDate(0, 0, i)), convey.ShouldEqual, monday)
			}
			sunday := time.Date(2023, 3, 5, 23, 59, 0, 0, time.UTC)
			convey.So(model.WeekOf(sunday), convey.ShouldEqual, monday.AddDate(0, 0, -7))
		})

		convey.Convey("DaysBetween counts calendar days", func() {
			a := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
			b := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
			convey.So(model.DaysBetween(a, b), convey.ShouldEqual, 59)
		})

		convey.Convey("ParseDate accepts plain dates and timestamps", func() {
			d, err := model.ParseDate("2024-06-01")
			convey.So(err, convey.ShouldBeNil)
			convey.So(d, convey.ShouldEqual, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

			d, err = model.ParseDate("2024-06-01T10:30:00Z")
			convey.So(err, convey.ShouldBeNil)
			convey.So(d, convey.ShouldEqual, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

			_, err = model.ParseDate("June 1st")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestCompetition(t *testing.T) {
	convey.Convey("Given a competition", t, func() {
		c := model.Competition{ID: "WC2023", Events: []string{"222", "333"}}

		convey.So(c.HasEvent("333"), convey.ShouldBeTrue)
		convey.So(c.HasEvent("444"), convey.ShouldBeFalse)
		convey.So(c.SeriesID(), convey.ShouldEqual, "WC")
		convey.So(model.Competition{ID: "Open2019Spring"}.SeriesID(), convey.ShouldEqual, "Open2019Spring")
	})
}

func TestErrors(t *testing.T) {
	convey.Convey("Given the error taxonomy", t, func() {
		convey.Convey("DataIntegrityError unwraps to ErrDataIntegrity", func() {
			var err error = &model.DataIntegrityError{Row: 3, Field: "round", Value: "x", Reason: "unknown round"}
			convey.So(errors.Is(err, model.ErrDataIntegrity), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "row 3")
		})

		convey.Convey("TaskFailure unwraps to ErrTaskFailed and its cause", func() {
			cause := errors.New("bad date")
			var err error = &model.TaskFailure{CompetitionID: "X2020", Err: cause}
			convey.So(errors.Is(err, model.ErrTaskFailed), convey.ShouldBeTrue)
			convey.So(errors.Is(err, cause), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "X2020")
		})
	})
}

func TestMetricsMin(t *testing.T) {
	convey.Convey("Metrics.Min is field-wise", t, func() {
		a := model.Metrics{Best90: 800, Average90: 1000, Best365: 700, Average365: 950}
		b := model.Metrics{Best90: 900, Average90: 990, Best365: 650, Average365: 990}
		convey.So(a.Min(b), convey.ShouldResemble, model.Metrics{Best90: 800, Average90: 990, Best365: 650, Average365: 950})
	})
}
