package synth_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/smartystreets/goconvey/convey"

	service "github.com/Octave-byte/cube-ranking/internal/app"
	"github.com/Octave-byte/cube-ranking/internal/domain/model"
	"github.com/Octave-byte/cube-ranking/internal/synth"
	"github.com/Octave-byte/cube-ranking/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

func small(seed uint64, workers int) synth.Config {
	return synth.Config{
		Persons:      60,
		Competitions: 25,
		FieldSize:    20,
		Start:        time.Date(2016, 3, 5, 0, 0, 0, 0, time.UTC),
		Days:         400,
		Seed:         seed,
		Workers:      workers,
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	ctx := context.Background()
	a, _, err := synth.Generate(ctx, small(7, 1))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _, err := synth.Generate(ctx, small(7, 8))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different tables:\n%s", diff)
	}

	c, _, err := synth.Generate(ctx, small(8, 1))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if cmp.Equal(a.Results, c.Results) {
		t.Error("different seeds produced identical results")
	}
}

func TestGenerate(t *testing.T) {
	convey.Convey("Given a generated history", t, func() {
		ctx := context.Background()
		tables, stats, err := synth.Generate(ctx, small(3, 4))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the tables are internally consistent", func() {
			convey.So(tables.Persons, convey.ShouldHaveLength, 60)
			convey.So(tables.Competitions, convey.ShouldHaveLength, 25)
			convey.So(stats.Results, convey.ShouldEqual, len(tables.Results))

			persons := make(map[string]bool)
			for _, p := range tables.Persons {
				persons[p.ID] = true
			}
			comps := make(map[string]bool)
			for _, c := range tables.Competitions {
				comps[c.ID] = true
			}
			for _, r := range tables.Results {
				convey.So(persons[r.PersonID], convey.ShouldBeTrue)
				convey.So(comps[r.CompetitionID], convey.ShouldBeTrue)
				_, err := model.ParseRound(r.Round)
				convey.So(err, convey.ShouldBeNil)
			}
		})

		convey.Convey("Then the pipeline accepts it in strict mode", func() {
			out, err := service.New().Run(ctx, tables)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out.PlayerWeeks, convey.ShouldNotBeEmpty)
			convey.So(out.Batch.Failed, convey.ShouldEqual, 0)
		})

		convey.Convey("Then invalid sizes are rejected", func() {
			_, _, err := synth.Generate(ctx, synth.Config{})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
