package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/adapters/source"
	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirLoad(t *testing.T) {
	Convey("Given a snapshot directory in the WCA export layout", t, func() {
		dir := t.TempDir()
		write(t, dir, source.CompetitionsFile, `{"items": [
			{"id": "Euro2023", "name": "Euro 2023", "city": "Espoo", "country": "FI",
			 "events": ["333", "444"], "isCanceled": false, "isChampionship": true,
			 "date": {"from": "2023-07-27", "till": "2023-07-30"}},
			{"id": "Flat2022", "events": ["333"], "date_from": "2022-02-01"},
			{"id": "Nodate2021", "events": ["333"]}
		]}`)
		write(t, dir, source.PersonsFile, `[{"id": "2009ZEMD01", "name": "Feliks", "country": "AU"}]`)
		write(t, dir, source.ResultsFile, `{"items": [
			{"competitionId": "Euro2023", "personId": "2009ZEMD01", "round": "Final",
			 "position": 1, "best": 480, "average": 560, "solves": [480, 550, 560, 570, 600]}
		]}`)

		Convey("When loading", func() {
			tables, err := source.NewDir(dir).Load(context.Background())

			Convey("Then every table is decoded", func() {
				So(err, ShouldBeNil)
				So(tables.Competitions, ShouldHaveLength, 3)
				So(tables.Persons, ShouldResemble, []model.Person{{ID: "2009ZEMD01", Name: "Feliks", Country: "AU"}})
				So(tables.Results, ShouldHaveLength, 1)
				So(tables.Results[0].Average, ShouldEqual, 560)
				So(tables.Results[0].Round, ShouldEqual, "Final")
			})

			Convey("Then nested and flat dates are both read", func() {
				So(tables.Competitions[0].DateFrom, ShouldEqual, time.Date(2023, 7, 27, 0, 0, 0, 0, time.UTC))
				So(tables.Competitions[0].IsChampionship, ShouldBeTrue)
				So(tables.Competitions[1].DateFrom, ShouldEqual, time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC))
				So(tables.Competitions[2].DateFrom.IsZero(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a directory with a malformed date", t, func() {
		dir := t.TempDir()
		write(t, dir, source.CompetitionsFile, `[{"id": "Bad2020", "events": ["333"], "date": {"from": "someday"}}]`)
		write(t, dir, source.PersonsFile, `[]`)
		write(t, dir, source.ResultsFile, `[]`)

		_, err := source.NewDir(dir).Load(context.Background())
		So(errors.Is(err, model.ErrDataIntegrity), ShouldBeTrue)
	})

	Convey("Given a directory with a broken file", t, func() {
		dir := t.TempDir()
		write(t, dir, source.CompetitionsFile, `[]`)
		write(t, dir, source.PersonsFile, `{"items": [`)
		write(t, dir, source.ResultsFile, `[]`)

		_, err := source.NewDir(dir).Load(context.Background())
		So(errors.Is(err, source.ErrMalformed), ShouldBeTrue)
	})

	Convey("Given a missing directory", t, func() {
		_, err := source.NewDir(filepath.Join(t.TempDir(), "absent")).Load(context.Background())
		So(err, ShouldNotBeNil)
	})
}

func TestWriteDir(t *testing.T) {
	Convey("Given tables written with WriteDir", t, func() {
		dir := filepath.Join(t.TempDir(), "snapshot")
		in := source.Tables{
			Competitions: []model.Competition{
				{ID: "Open2024", Events: []string{"333"}, DateFrom: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
			},
			Results: []model.RawResult{{CompetitionID: "Open2024", PersonID: "p", Round: "Final", Best: -1, Average: 0}},
		}
		So(source.WriteDir(dir, in), ShouldBeNil)

		Convey("Then Dir reads the same tables back", func() {
			out, err := source.NewDir(dir).Load(context.Background())
			So(err, ShouldBeNil)
			So(out.Competitions, ShouldResemble, in.Competitions)
			So(out.Results, ShouldResemble, in.Results)
			So(out.Persons, ShouldBeEmpty)
		})
	})
}

func TestNewPostgres(t *testing.T) {
	Convey("Given no database url", t, func() {
		_, err := source.NewPostgres(context.Background(), "", 4)
		So(errors.Is(err, source.ErrNoDatabaseURL), ShouldBeTrue)
	})
}
