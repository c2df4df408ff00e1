package opentrim_test

import (
	"testing"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/config"
	opentrim "github.com/ir2-lab/OpenTRIM-sub000"
)

func fixture() *config.Config {
	return &config.Config{
		Simulation: config.Simulation{
			SimulationType:       config.FullCascade,
			ScreeningType:        config.ScreeningZBL,
			ElectronicStopping:   config.StoppingOff,
			ElectronicStraggling: config.StragglingOff,
			NRTCalculation:       config.NRTElement,
		},
		Transport: config.Transport{
			FlightPathType:  config.FlightPathConstantType,
			FlightPathConst: 1,
			MinEnergy:       10,
		},
		IonBeam: config.IonBeam{
			Ion:                []config.IonBeamSpecies{{Z: 2, Fraction: 1}},
			EnergyDistribution: config.Distribution{Type: config.DistSingleValue, Center: 5000},
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
		Run: config.Run{MaxNoIons: 20, Threads: 2, Seed: 1},
	}
}

func TestRunExecutesAndAccumulatesTally(t *testing.T) {
	run := opentrim.New()
	if err := run.Init(fixture(), nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := run.Exec(nil, 0); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	run.Wait()

	hist := run.History()
	if len(hist) != 1 {
		t.Fatalf("len(History()) = %d, want 1", len(hist))
	}
	if run.Tally() == nil {
		t.Fatal("Tally() = nil after a completed run")
	}
	if run.IsRunning() {
		t.Error("IsRunning() = true after Wait")
	}
}

func TestRunSaveLoadUnavailable(t *testing.T) {
	run := opentrim.New()
	if err := run.Save("out.h5"); err == nil {
		t.Fatal("expected an error from Save")
	}
	if err := run.Load("out.h5"); err == nil {
		t.Fatal("expected an error from Load")
	}
}
