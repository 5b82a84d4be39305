package sim_test

import (
	"context"
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hardsim/internal/event"
	"github.com/san-kum/hardsim/internal/particle"
	"github.com/san-kum/hardsim/internal/physics"
	"github.com/san-kum/hardsim/internal/placement"
	"github.com/san-kum/hardsim/internal/sim"
)

type recorder struct {
	rows   []sim.Row
	events []event.Event
}

func (r *recorder) OnEvent(row sim.Row, ev event.Event) {
	r.rows = append(r.rows, row)
	r.events = append(r.events, ev)
}

func headOn() *particle.Store {
	s := particle.New(2)
	s.Set(0, 0.25, 0.5, 1, 0, 0.125, 1)
	s.Set(1, 0.75, 0.5, -1, 0, 0.125, 1)
	return s
}

func gas(seed int64, species ...placement.Species) *particle.Store {
	s, err := placement.Place(placement.Layout{XMax: 1, YMax: 1, Species: species}, rand.New(rand.NewSource(seed)))
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Driver", func() {
	var cfg sim.Config

	BeforeEach(func() {
		cfg = sim.DefaultConfig()
	})

	Describe("New", func() {
		DescribeTable("rejects out of bounds configuration",
			func(mutate func(*sim.Config)) {
				mutate(&cfg)
				_, err := sim.New(headOn(), cfg)
				Expect(err).To(MatchError(sim.ErrParameterBounds))
			},
			Entry("zero width", func(c *sim.Config) { c.Params.XMax = 0 }),
			Entry("negative height", func(c *sim.Config) { c.Params.YMax = -1 }),
			Entry("negative wall tolerance", func(c *sim.Config) { c.Params.WallTolerance = -1 }),
			Entry("zero restitution", func(c *sim.Config) { c.Restitution = 0 }),
			Entry("restitution above one", func(c *sim.Config) { c.Restitution = 1.5 }),
			Entry("zero event budget", func(c *sim.Config) { c.MaxEvents = 0 }),
			Entry("cutoff of one", func(c *sim.Config) { c.EnergyCutoff = 1 }),
			Entry("negative tc threshold", func(c *sim.Config) { c.TC = physics.TC{Enabled: true, Threshold: -1} }),
		)

		It("rejects overlapping disks", func() {
			s := headOn()
			s.X[1] = 0.3
			_, err := sim.New(s, cfg)
			Expect(err).To(MatchError(sim.ErrInvalidStore))
		})

		It("rejects disks outside the box", func() {
			s := headOn()
			s.X[0] = 0.05
			_, err := sim.New(s, cfg)
			Expect(err).To(MatchError(sim.ErrInvalidStore))
		})

		It("seeds the queue and starts running", func() {
			d, err := sim.New(headOn(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.State()).To(Equal(sim.Running))
			Expect(d.Queue().Len()).To(Equal(4))
			Expect(d.Time()).To(BeZero())
			Expect(d.InitialEnergy()).To(Equal(1.0))
		})

		It("terminates immediately when nothing moves", func() {
			s := particle.New(1)
			s.Set(0, 0.5, 0.5, 0, 0, 0.1, 1)
			d, err := sim.New(s, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.State()).To(Equal(sim.Terminated))
			Expect(d.StopReason()).To(Equal(sim.StopEnergyCutoff))
		})
	})

	Describe("Step", func() {
		It("exchanges velocities in an elastic head-on collision", func() {
			cfg.MaxEvents = 1
			d, err := sim.New(headOn(), cfg)
			Expect(err).NotTo(HaveOccurred())

			valid, err := d.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(valid).To(BeTrue())

			s := d.Store()
			Expect(d.Time()).To(Equal(0.125))
			Expect(s.VX).To(Equal([]float64{-1, 1}))
			Expect(s.X).To(Equal([]float64{0.375, 0.625}))
			Expect(s.Count).To(Equal([]uint64{1, 1}))
			Expect(d.State()).To(Equal(sim.Terminated))
			Expect(d.StopReason()).To(Equal(sim.StopEventBudget))
		})

		It("discards stale events without touching the state", func() {
			d, err := sim.New(headOn(), cfg)
			Expect(err).NotTo(HaveOccurred())
			d.Queue().Push(event.Event{Time: 0.01, I: 0, Partner: event.HorizontalWall(), CountI: 99})
			before := d.Store().Clone()

			valid, err := d.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(valid).To(BeFalse())
			Expect(d.Store()).To(Equal(before))
			Expect(d.Time()).To(BeZero())
			Expect(d.Resolved()).To(BeZero())
			Expect(d.Popped()).To(Equal(1))
			Expect(d.Discarded()).To(Equal(1))
			Expect(d.Rows()).To(BeEmpty())
		})

		It("predicts both walls after a lone disk bounces", func() {
			s := particle.New(1)
			s.Set(0, 0.5, 0.5, 1, 0.5, 0.1, 1)
			d, err := sim.New(s, cfg)
			Expect(err).NotTo(HaveOccurred())

			valid, err := d.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(valid).To(BeTrue())
			Expect(d.Generated()).To(Equal(2))
			Expect(d.Store().CountOf(0)).To(Equal(uint64(1)))
			Expect(d.Store().VX[0]).To(Equal(-1.0))
			Expect(d.Store().VY[0]).To(Equal(0.5))
		})

		It("fails with a simulation error when a disk escapes", func() {
			s := particle.New(1)
			s.Set(0, 0.5, 0.5, 1, 0, 0.1, 1)
			d, err := sim.New(s, cfg)
			Expect(err).NotTo(HaveOccurred())
			s.X[0] = -1

			_, err = d.Step()
			Expect(err).To(MatchError(physics.ErrContainment))
			var simErr *sim.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Resolved).To(Equal(1))
			Expect(simErr.Event.Partner).To(Equal(event.HorizontalWall()))
			Expect(d.StopReason()).To(Equal(sim.StopFailed))

			_, err = d.Step()
			Expect(err).To(MatchError(sim.ErrTerminated))
		})
	})

	Describe("Run", func() {
		It("returns a diagonal billiard ball to its start velocity after four bounces", func() {
			c := math.Sqrt2 / 2
			s := particle.New(1)
			s.Set(0, 0.5, 0.5, c, c, 0.1, 1)
			cfg.MaxEvents = 4

			d, err := sim.New(s, cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Resolved).To(Equal(4))
			Expect(res.StopReason).To(Equal(sim.StopEventBudget))
			Expect(s.VX[0]).To(Equal(c))
			Expect(s.VY[0]).To(Equal(c))
			Expect(s.X[0]).To(BeNumerically("~", 0.1, 1e-9))
			Expect(s.Y[0]).To(BeNumerically("~", 0.1, 1e-9))
			Expect(s.Count[0]).To(Equal(uint64(4)))
			Expect(res.Time).To(BeNumerically("~", 1.2*math.Sqrt2, 1e-9))
			Expect(res.FinalEnergy).To(Equal(res.InitialEnergy))
		})

		It("conserves energy in an elastic gas", func() {
			cfg.MaxEvents = 2000
			d, err := sim.New(gas(3, placement.Species{Count: 30, Radius: 0.03, Mass: 1, Speed: 1}), cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rows).To(HaveLen(2000))
			for _, row := range res.Rows {
				Expect(row.Energy).To(BeNumerically("~", res.InitialEnergy, 1e-9*res.InitialEnergy))
			}
		})

		It("never gains energy with inelastic collisions", func() {
			cfg.MaxEvents = 1000
			cfg.Restitution = 0.9
			d, err := sim.New(gas(5,
				placement.Species{Count: 15, Radius: 0.03, Mass: 1, Speed: 1},
				placement.Species{Count: 15, Radius: 0.03, Mass: 4, Speed: 0.5},
			), cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Species).To(Equal([]float64{1, 4}))

			prev := res.InitialEnergy
			for _, row := range res.Rows {
				Expect(row.Energy).To(BeNumerically("<=", prev*(1+1e-12)))
				Expect(row.SpeciesEnergy[0]+row.SpeciesEnergy[1]).To(BeNumerically("~", row.Energy, 1e-12))
				prev = row.Energy
			}
			Expect(res.FinalEnergy).To(BeNumerically("<", res.InitialEnergy))
		})

		It("stops at the energy cutoff", func() {
			cfg.MaxEvents = 1000000
			cfg.Restitution = 0.5
			cfg.EnergyCutoff = 0.1
			d, err := sim.New(gas(9, placement.Species{Count: 10, Radius: 0.05, Mass: 1, Speed: 1}), cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StopReason).To(Equal(sim.StopEnergyCutoff))
			Expect(res.EnergyFraction()).To(BeNumerically("<=", 0.1))
			Expect(res.Resolved).To(BeNumerically("<", 1000000))
		})

		It("forces elastic collisions below the tc threshold", func() {
			cfg.MaxEvents = 500
			cfg.Restitution = 0.5
			cfg.TC = physics.TC{Enabled: true, Threshold: 1e6}
			d, err := sim.New(gas(11, placement.Species{Count: 10, Radius: 0.05, Mass: 1, Speed: 1}), cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.TCEvents).To(Equal(res.Resolved))
			Expect(res.FinalEnergy).To(BeNumerically("~", res.InitialEnergy, 1e-9))
		})

		It("notifies observers once per resolved collision", func() {
			cfg.MaxEvents = 50
			rec := &recorder{}
			d, err := sim.New(gas(13, placement.Species{Count: 10, Radius: 0.05, Mass: 1, Speed: 1}), cfg, sim.WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.rows).To(Equal(res.Rows))
			Expect(rec.events).To(HaveLen(50))
			for k := 1; k < len(rec.events); k++ {
				Expect(rec.events[k].Time).To(BeNumerically(">=", rec.events[k-1].Time))
			}
			Expect(res.Popped).To(Equal(res.Resolved + res.Discarded))
		})

		It("stops when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			d, err := sim.New(headOn(), cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := d.Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.StopReason).To(Equal(sim.StopCanceled))
			Expect(res.Resolved).To(BeZero())
		})
	})
})
