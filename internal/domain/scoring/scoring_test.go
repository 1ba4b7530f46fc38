package scoring_test

import (
	"testing"

	"github.com/okian/pitcrew/internal/domain/model"
	"github.com/okian/pitcrew/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeights_Validate(t *testing.T) {
	Convey("Given scoring weights", t, func() {
		Convey("When they are the defaults", func() {
			Convey("Then validation passes", func() {
				So(scoring.DefaultWeights().Validate(), ShouldBeNil)
			})
		})

		Convey("When they do not sum to 1.0", func() {
			w := scoring.Weights{Skill: 0.5, Workload: 0.3, Performance: 0.3, Availability: 0.1}

			Convey("Then validation fails fast", func() {
				So(w.Validate(), ShouldWrap, scoring.ErrInvalidWeights)
			})
		})

		Convey("When a weight is negative", func() {
			w := scoring.Weights{Skill: 1.2, Workload: -0.2, Performance: 0, Availability: 0}

			Convey("Then validation fails fast", func() {
				So(w.Validate(), ShouldWrap, scoring.ErrInvalidWeights)
			})
		})

		Convey("When building a strategy from bad weights", func() {
			_, err := scoring.NewWeightedSum(scoring.Weights{Skill: 1, Workload: 1})

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, scoring.ErrInvalidWeights)
			})
		})
	})
}

func TestWeightedSum_Composite(t *testing.T) {
	Convey("Given the default weighted-sum strategy", t, func() {
		strategy, err := scoring.NewWeightedSum(scoring.DefaultWeights())
		So(err, ShouldBeNil)

		Convey("When all sub-scores are 100", func() {
			sub := scoring.SubScores{Skill: 100, Workload: 100, Performance: 100, Availability: 100}

			Convey("Then the composite is 100", func() {
				So(strategy.Composite(sub), ShouldAlmostEqual, 100)
			})
		})

		Convey("When computing the reference scenario", func() {
			// Expert verified skills, empty day, 4.8 rating average.
			sub := scoring.SubScores{Skill: 100, Workload: 100, Performance: 96, Availability: 100}

			Convey("Then the composite is 99.2", func() {
				So(strategy.Composite(sub), ShouldAlmostEqual, 99.2)
			})
		})

		Convey("When one sub-score increases with the others fixed", func() {
			base := scoring.SubScores{Skill: 50, Workload: 50, Performance: 50, Availability: 100}
			baseline := strategy.Composite(base)

			Convey("Then the composite never decreases", func() {
				for _, bump := range []scoring.SubScores{
					{Skill: 60, Workload: 50, Performance: 50, Availability: 100},
					{Skill: 50, Workload: 60, Performance: 50, Availability: 100},
					{Skill: 50, Workload: 50, Performance: 60, Availability: 100},
				} {
					So(strategy.Composite(bump), ShouldBeGreaterThanOrEqualTo, baseline)
				}
			})
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given a set of scored candidates", t, func() {
		Convey("When composites differ", func() {
			candidates := []model.CandidateScore{
				{TechnicianID: "tech-2", Composite: 80},
				{TechnicianID: "tech-1", Composite: 90},
			}
			scoring.Rank(candidates)

			Convey("Then higher composite ranks first", func() {
				So(candidates[0].TechnicianID, ShouldEqual, "tech-1")
			})
		})

		Convey("When composites tie", func() {
			Convey("Then the higher skill score wins", func() {
				candidates := []model.CandidateScore{
					{TechnicianID: "tech-1", Composite: 80, Skill: 70},
					{TechnicianID: "tech-2", Composite: 80, Skill: 90},
				}
				scoring.Rank(candidates)
				So(candidates[0].TechnicianID, ShouldEqual, "tech-2")
			})

			Convey("And equal skill falls back to fewer booked minutes", func() {
				candidates := []model.CandidateScore{
					{TechnicianID: "tech-1", Composite: 80, Skill: 70, BookedMin: 120},
					{TechnicianID: "tech-2", Composite: 80, Skill: 70, BookedMin: 60},
				}
				scoring.Rank(candidates)
				So(candidates[0].TechnicianID, ShouldEqual, "tech-2")
			})

			Convey("And a full tie resolves to the lower technician id", func() {
				candidates := []model.CandidateScore{
					{TechnicianID: "tech-9", Composite: 80, Skill: 70, BookedMin: 60},
					{TechnicianID: "tech-1", Composite: 80, Skill: 70, BookedMin: 60},
				}
				scoring.Rank(candidates)
				So(candidates[0].TechnicianID, ShouldEqual, "tech-1")
			})
		})

		Convey("When ranking the same input repeatedly", func() {
			build := func() []model.CandidateScore {
				return []model.CandidateScore{
					{TechnicianID: "tech-3", Composite: 75, Skill: 60, BookedMin: 30},
					{TechnicianID: "tech-1", Composite: 75, Skill: 60, BookedMin: 30},
					{TechnicianID: "tech-2", Composite: 91, Skill: 80, BookedMin: 0},
				}
			}

			first := build()
			second := build()
			scoring.Rank(first)
			scoring.Rank(second)

			Convey("Then the order is identical every time", func() {
				for i := range first {
					So(first[i].TechnicianID, ShouldEqual, second[i].TechnicianID)
				}
				So(first[0].TechnicianID, ShouldEqual, "tech-2")
				So(first[1].TechnicianID, ShouldEqual, "tech-1")
				So(first[2].TechnicianID, ShouldEqual, "tech-3")
			})
		})
	})
}
