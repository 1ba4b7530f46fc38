package app_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/pitcrew/internal/adapters/ledger"
	"github.com/okian/pitcrew/internal/adapters/roster"
	"github.com/okian/pitcrew/internal/app"
	"github.com/okian/pitcrew/internal/domain/model"
	"github.com/okian/pitcrew/internal/domain/scoring"
	"github.com/okian/pitcrew/internal/domain/workload"
	"github.com/okian/pitcrew/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const workDate = "2026-03-02"

// fixture bundles the collaborators behind a started service.
type fixture struct {
	svc      *app.Service
	crew     *roster.MemoryRoster
	capacity *ledger.MemoryLedger
}

func newFixture(ctx context.Context, opts ...app.Option) *fixture {
	crew := roster.NewMemoryRoster()
	capacity := ledger.NewMemoryLedger(ctx)

	base := []app.Option{
		app.WithProviders(crew, crew, crew),
		app.WithLedger(capacity),
		app.WithScoringWorkerCount(2),
	}
	svc := app.New(append(base, opts...)...)

	return &fixture{svc: svc, crew: crew, capacity: capacity}
}

func (f *fixture) close() {
	f.svc.Stop()
	_ = f.capacity.Close()
}

func (f *fixture) addTechnician(id string, skills ...model.SkillRecord) {
	f.crew.AddTechnician(model.Technician{
		ID:        id,
		CenterIDs: []string{"center-1"},
		Active:    true,
	})
	for _, s := range skills {
		s.TechnicianID = id
		f.crew.AddSkill(s)
	}
}

func (f *fixture) addEntry(ctx context.Context, techID string, maxMin, bookedMin int) {
	entries := []model.ScheduleEntry{{
		ID:             "entry-" + techID,
		TechnicianID:   techID,
		CenterID:       "center-1",
		WorkDate:       workDate,
		MaxCapacityMin: maxMin,
		Available:      true,
	}}
	f.capacity.Load(ctx, entries)
	if bookedMin > 0 {
		_, _ = f.capacity.Commit(ctx, "entry-"+techID, bookedMin)
	}
}

func (f *fixture) addRatings(techID string, overall float64, n int) {
	for i := 0; i < n; i++ {
		f.crew.AddRating(model.PerformanceRating{
			TechnicianID: techID,
			Overall:      overall,
			RatedAt:      time.Now().Add(-time.Duration(i+1) * 24 * time.Hour),
		})
	}
}

func expertSkill(id string) model.SkillRecord {
	return model.SkillRecord{
		SkillID:   id,
		Level:     model.Expert,
		Verified:  true,
		ExpiresAt: time.Now().Add(365 * 24 * time.Hour),
	}
}

func batteryRequest() model.AssignmentRequest {
	return model.AssignmentRequest{
		CenterID:        "center-1",
		RequiredSkills:  []model.RequiredSkill{{SkillID: "battery-diagnostics"}},
		SkillsMandatory: true,
		WorkDate:        workDate,
		DurationMin:     60,
	}
}

func TestService_Start(t *testing.T) {
	Convey("Given an assignment service", t, func() {
		ctx := context.Background()

		Convey("When providers are missing", func() {
			svc := app.New(app.WithLedger(ledger.NewMemoryLedger(ctx)))

			Convey("Then startup fails fast", func() {
				So(errors.Is(svc.Start(ctx), app.ErrMissingProvider), ShouldBeTrue)
			})
		})

		Convey("When the ledger is missing", func() {
			crew := roster.NewMemoryRoster()
			svc := app.New(app.WithProviders(crew, crew, crew))

			Convey("Then startup fails fast", func() {
				So(errors.Is(svc.Start(ctx), app.ErrMissingLedger), ShouldBeTrue)
			})
		})

		Convey("When weights are invalid", func() {
			f := newFixture(ctx, app.WithWeights(scoring.Weights{
				Skill: 0.9, Workload: 0.3, Performance: 0.2, Availability: 0.1,
			}))
			defer f.capacity.Close()

			Convey("Then startup fails before any request is served", func() {
				So(f.svc.Start(ctx), ShouldNotBeNil)
			})
		})

		Convey("When fully wired", func() {
			f := newFixture(ctx)
			defer f.close()

			Convey("Then startup succeeds and is idempotent", func() {
				So(f.svc.Start(ctx), ShouldBeNil)
				So(f.svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_FindBestTechnician(t *testing.T) {
	Convey("Given a started service with a roster", t, func() {
		ctx := context.Background()
		f := newFixture(ctx)
		defer f.close()

		// Tech A: expert, verified, empty day, averages 4.8.
		f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
		f.addEntry(ctx, "tech-a", 480, 0)
		f.addRatings("tech-a", 4.8, 5)

		// Tech B: wrong skill set entirely.
		f.addTechnician("tech-b", expertSkill("oil-change"))
		f.addEntry(ctx, "tech-b", 480, 0)
		f.addRatings("tech-b", 5, 5)

		So(f.svc.Start(ctx), ShouldBeNil)

		Convey("When the required skill is mandatory", func() {
			d, err := f.svc.FindBestTechnician(ctx, batteryRequest())

			Convey("Then the unskilled technician never reaches scoring", func() {
				So(err, ShouldBeNil)
				So(d.Chosen.TechnicianID, ShouldEqual, "tech-a")
				So(d.Alternates, ShouldBeEmpty)
			})

			Convey("And the composite follows the weighted sum", func() {
				So(err, ShouldBeNil)
				// 0.4*100 + 0.3*100 + 0.2*96 + 0.1*100
				So(d.Chosen.Composite, ShouldAlmostEqual, 99.2)
				So(d.Chosen.Skill, ShouldEqual, 100)
				So(d.Chosen.Workload, ShouldEqual, 100)
				So(d.Chosen.Performance, ShouldAlmostEqual, 96)
			})

			Convey("And the decision carries an id and timestamp", func() {
				So(err, ShouldBeNil)
				So(d.ID, ShouldNotBeEmpty)
				So(d.DecidedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When skills are preferred but not mandatory", func() {
			req := batteryRequest()
			req.SkillsMandatory = false

			d, err := f.svc.FindBestTechnician(ctx, req)

			Convey("Then the unskilled technician ranks as an alternate", func() {
				So(err, ShouldBeNil)
				So(d.Chosen.TechnicianID, ShouldEqual, "tech-a")
				So(d.Alternates, ShouldHaveLength, 1)
				So(d.Alternates[0].TechnicianID, ShouldEqual, "tech-b")
				So(d.Alternates[0].Skill, ShouldEqual, 0)
			})
		})

		Convey("When skill ids arrive denormalized", func() {
			req := batteryRequest()
			req.RequiredSkills = []model.RequiredSkill{{SkillID: "Battery Diagnostics"}}

			d, err := f.svc.FindBestTechnician(ctx, req)

			Convey("Then matching still works", func() {
				So(err, ShouldBeNil)
				So(d.Chosen.TechnicianID, ShouldEqual, "tech-a")
				So(d.Chosen.Skill, ShouldEqual, 100)
			})
		})

		Convey("When the duration is not positive", func() {
			req := batteryRequest()
			req.DurationMin = 0

			_, err := f.svc.FindBestTechnician(ctx, req)

			So(errors.Is(err, app.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func TestService_HardFilter(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		f := newFixture(ctx)
		defer f.close()

		Convey("When the only skilled technician is fully booked", func() {
			f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
			f.addEntry(ctx, "tech-a", 480, 480)
			So(f.svc.Start(ctx), ShouldBeNil)

			_, err := f.svc.FindBestTechnician(ctx, batteryRequest())

			Convey("Then no candidate survives the filter", func() {
				So(errors.Is(err, app.ErrNoEligibleCandidates), ShouldBeTrue)
			})
		})

		Convey("When the center has no roster at all", func() {
			So(f.svc.Start(ctx), ShouldBeNil)

			_, err := f.svc.FindBestTechnician(ctx, batteryRequest())

			So(errors.Is(err, app.ErrNoEligibleCandidates), ShouldBeTrue)
		})

		Convey("When a technician has no entry and the policy is unavailable", func() {
			f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
			svc := app.New(
				app.WithProviders(f.crew, f.crew, f.crew),
				app.WithLedger(f.capacity),
				app.WithFallbackPolicy(workload.FallbackUnavailable),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			_, err := svc.FindBestTechnician(ctx, batteryRequest())

			So(errors.Is(err, app.ErrNoEligibleCandidates), ShouldBeTrue)
		})

		Convey("When a technician has no entry and the policy is available", func() {
			f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
			So(f.svc.Start(ctx), ShouldBeNil)

			d, err := f.svc.FindBestTechnician(ctx, batteryRequest())

			Convey("Then they are scored with a full workload score", func() {
				So(err, ShouldBeNil)
				So(d.Chosen.TechnicianID, ShouldEqual, "tech-a")
				So(d.Chosen.Workload, ShouldEqual, 100)
				So(d.Chosen.ScheduleEntryID, ShouldBeEmpty)
			})
		})
	})
}

func TestService_NeutralPerformance(t *testing.T) {
	Convey("Given a technician with no rating history", t, func() {
		ctx := context.Background()
		f := newFixture(ctx)
		defer f.close()

		f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
		f.addEntry(ctx, "tech-a", 480, 0)
		So(f.svc.Start(ctx), ShouldBeNil)

		Convey("When they are scored", func() {
			d, err := f.svc.FindBestTechnician(ctx, batteryRequest())

			Convey("Then the neutral default applies instead of zero", func() {
				So(err, ShouldBeNil)
				So(d.Chosen.Performance, ShouldEqual, 70)
			})
		})
	})
}

func TestService_CommitAndRelease(t *testing.T) {
	Convey("Given a decision for a scheduled technician", t, func() {
		ctx := context.Background()
		f := newFixture(ctx)
		defer f.close()

		f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
		f.addEntry(ctx, "tech-a", 480, 0)
		So(f.svc.Start(ctx), ShouldBeNil)

		d, err := f.svc.FindBestTechnician(ctx, batteryRequest())
		So(err, ShouldBeNil)

		Convey("When the assignment is committed", func() {
			chosen, err := f.svc.CommitAssignment(ctx, d)

			Convey("Then booked minutes increase by the duration", func() {
				So(err, ShouldBeNil)
				So(chosen.TechnicianID, ShouldEqual, "tech-a")

				e, lookErr := f.capacity.EntryFor(ctx, "tech-a", "center-1", workDate)
				So(lookErr, ShouldBeNil)
				So(e.BookedMin, ShouldEqual, 60)
			})

			Convey("And releasing it restores the prior state", func() {
				So(err, ShouldBeNil)
				So(f.svc.ReleaseAssignment(ctx, chosen.TechnicianID, chosen.ScheduleEntryID, d.DurationMin), ShouldBeNil)

				e, lookErr := f.capacity.EntryFor(ctx, "tech-a", "center-1", workDate)
				So(lookErr, ShouldBeNil)
				So(e.BookedMin, ShouldEqual, 0)
			})
		})
	})
}

func TestService_CommitRace(t *testing.T) {
	Convey("Given two decisions that both chose the same technician", t, func() {
		ctx := context.Background()
		f := newFixture(ctx)
		defer f.close()

		// tech-a has room for exactly one 60-minute job; tech-b is the
		// runner-up with plenty of room.
		f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
		f.addEntry(ctx, "tech-a", 60, 0)
		f.addRatings("tech-a", 5, 3)

		f.addTechnician("tech-b", expertSkill("battery-diagnostics"))
		f.addEntry(ctx, "tech-b", 480, 0)

		So(f.svc.Start(ctx), ShouldBeNil)

		first, err := f.svc.FindBestTechnician(ctx, batteryRequest())
		So(err, ShouldBeNil)
		second, err := f.svc.FindBestTechnician(ctx, batteryRequest())
		So(err, ShouldBeNil)

		So(first.Chosen.TechnicianID, ShouldEqual, "tech-a")
		So(second.Chosen.TechnicianID, ShouldEqual, "tech-a")

		Convey("When both commits run", func() {
			winner, err := f.svc.CommitAssignment(ctx, first)
			So(err, ShouldBeNil)
			So(winner.TechnicianID, ShouldEqual, "tech-a")

			loser, err := f.svc.CommitAssignment(ctx, second)

			Convey("Then the loser falls to the alternate without rescoring", func() {
				So(err, ShouldBeNil)
				So(loser.TechnicianID, ShouldEqual, "tech-b")

				e, lookErr := f.capacity.EntryFor(ctx, "tech-b", "center-1", workDate)
				So(lookErr, ShouldBeNil)
				So(e.BookedMin, ShouldEqual, 60)
			})
		})
	})
}

func TestService_AssignmentExhausted(t *testing.T) {
	Convey("Given a decision whose every candidate raced out", t, func() {
		ctx := context.Background()
		f := newFixture(ctx)
		defer f.close()

		f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
		f.addEntry(ctx, "tech-a", 60, 0)
		So(f.svc.Start(ctx), ShouldBeNil)

		d, err := f.svc.FindBestTechnician(ctx, batteryRequest())
		So(err, ShouldBeNil)

		// Another flow books the last slot between decision and commit.
		_, err = f.capacity.Commit(ctx, "entry-tech-a", 60)
		So(err, ShouldBeNil)

		Convey("When the commit retries down the list", func() {
			_, err := f.svc.CommitAssignment(ctx, d)

			Convey("Then the caller gets a scheduling conflict", func() {
				So(errors.Is(err, app.ErrAssignmentExhausted), ShouldBeTrue)
			})
		})
	})
}

func TestService_AuditTrail(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		f := newFixture(ctx, app.WithAuditWorkerCount(1))
		defer f.close()

		f.addTechnician("tech-a", expertSkill("battery-diagnostics"))
		f.addEntry(ctx, "tech-a", 480, 0)
		So(f.svc.Start(ctx), ShouldBeNil)

		Convey("When decisions are produced", func() {
			d, err := f.svc.FindBestTechnician(ctx, batteryRequest())
			So(err, ShouldBeNil)

			Convey("Then they show up in the audit trail", func() {
				found := false
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					for _, rec := range f.svc.RecentDecisions(ctx, 10) {
						if rec.ID == d.ID {
							found = true
						}
					}
					if found {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When stats are requested", func() {
			stats := f.svc.GetStats()

			Convey("Then they report the wired components", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["scheduleEntries"], ShouldEqual, 1)
			})
		})
	})
}
