package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/config"
)

// fixture builds a small single-material, single-region run: a helium beam
// into an iron slab, electronic stopping off (no dedx.Source injected),
// small enough ion counts to keep float32 rounding error well under the
// energy-balance tolerance the tests check against.
func fixture(maxIons uint64, seed uint64, threads int) *config.Config {
	return &config.Config{
		Simulation: config.Simulation{
			SimulationType:            config.FullCascade,
			ScreeningType:             config.ScreeningZBL,
			ElectronicStopping:        config.StoppingOff,
			ElectronicStraggling:      config.StragglingOff,
			NRTCalculation:            config.NRTElement,
			IntraCascadeRecombination: true,
			TimeOrderedCascades:       true,
		},
		Transport: config.Transport{
			FlightPathType:  config.FlightPathConstantType,
			FlightPathConst: 1,
			MinEnergy:       10,
		},
		IonBeam: config.IonBeam{
			Ion:                 []config.IonBeamSpecies{{Z: 2, Fraction: 1}},
			EnergyDistribution:  config.Distribution{Type: config.DistSingleValue, Center: 5000},
			AngularDistribution: config.Distribution{Type: config.DistSingleValue},
			SpatialDistribution: config.Distribution{Type: config.DistSingleValue},
		},
		Target: config.Target{
			Size:      config.Vec3{X: 100, Y: 100, Z: 100},
			CellCount: [3]int{5, 5, 5},
			Materials: []config.MaterialSpec{
				{ID: 0, Density: 0.0847, Atoms: []config.AtomSpec{{Z: 26, Fraction: 1, Ed: 40}}},
			},
			Regions: []config.RegionSpec{
				{ID: 0, MaterialID: 0, Size: config.Vec3{X: 100, Y: 100, Z: 100}},
			},
		},
		Run:    config.Run{MaxNoIons: maxIons, Threads: threads, Seed: seed},
		Output: config.Output{Title: "driver test"},
	}
}

func runToCompletion(t *testing.T, cfg *config.Config) *Driver {
	t.Helper()
	d := New()
	require.NoError(t, d.Init(cfg, nil), "Init")
	require.NoError(t, d.Exec(nil, 0), "Exec")
	d.Wait()
	return d
}

func TestInitRejectsNilConfig(t *testing.T) {
	d := New()
	require.Error(t, d.Init(nil, nil), "expected an error initializing with a nil config")
}

func TestExecBeforeInitFails(t *testing.T) {
	d := New()
	require.ErrorIs(t, d.Exec(nil, 0), ErrNotInitialized)
}

func TestExecRunsAllRequestedIons(t *testing.T) {
	cfg := fixture(50, 1, 2)
	d := runToCompletion(t, cfg)

	hist := d.History()
	require.Len(t, hist, 1)
	require.GreaterOrEqual(t, hist[0].TotalIonCount, cfg.Run.MaxNoIons)
	require.False(t, hist[0].Aborted)

	st := d.Status(hist[0].Start)
	require.Equal(t, cfg.Run.MaxNoIons, st.IonsDone, "Status().IonsDone should clamp to MaxNoIons")
}

func TestExecIsDeterministicForSameSeed(t *testing.T) {
	cfg := fixture(40, 7, 3)

	d1 := runToCompletion(t, cfg)
	d2 := runToCompletion(t, cfg)

	e1 := d1.MasterTally().TotalEnergy()
	e2 := d2.MasterTally().TotalEnergy()
	require.Equal(t, e1, e2, "same-seed runs should produce identical total energy")
}

func TestExecEnergyBalance(t *testing.T) {
	cfg := fixture(20, 3, 1)
	d := runToCompletion(t, cfg)

	want := float64(cfg.Run.MaxNoIons) * float64(cfg.IonBeam.EnergyDistribution.Center)
	got := d.MasterTally().TotalEnergy()
	require.InDelta(t, want, got, want*1e-3, "TotalEnergy() should balance against ions launched * beam energy")
}

func TestAbortStopsWorkersEarly(t *testing.T) {
	cfg := fixture(1_000_000, 11, 2)
	d := New()
	require.NoError(t, d.Init(cfg, nil))

	go func() {
		time.Sleep(10 * time.Millisecond)
		d.Abort()
	}()

	require.NoError(t, d.Exec(nil, 0))
	d.Wait()

	hist := d.History()
	require.Len(t, hist, 1)
	require.True(t, hist[0].Aborted)
	require.Less(t, hist[0].TotalIonCount, cfg.Run.MaxNoIons, "aborted run should stop well short of MaxNoIons")
}

func TestExecSecondCallWhileRunningFails(t *testing.T) {
	cfg := fixture(1_000_000, 5, 1)
	d := New()
	require.NoError(t, d.Init(cfg, nil))

	done := make(chan error, 1)
	go func() { done <- d.Exec(nil, 0) }()

	// Give the first Exec call time to flip the running flag before the
	// second one races it.
	time.Sleep(5 * time.Millisecond)
	require.ErrorIs(t, d.Exec(nil, 0), ErrAlreadyRunning)

	d.Abort()
	require.NoError(t, <-done)
}

func TestMaxCPUTimeCutoff(t *testing.T) {
	cfg := fixture(1_000_000, 13, 2)
	cfg.Run.MaxCPUTime = 0.01 // seconds

	d := runToCompletion(t, cfg)
	hist := d.History()
	require.Len(t, hist, 1)
	require.Less(t, hist[0].TotalIonCount, cfg.Run.MaxNoIons, "cut off by max_cpu_time")
}

func TestSaveLoadUnavailable(t *testing.T) {
	d := New()
	require.ErrorIs(t, d.Save("out.h5"), ErrPersistenceUnavailable)
	require.ErrorIs(t, d.Load("out.h5"), ErrPersistenceUnavailable)
}
