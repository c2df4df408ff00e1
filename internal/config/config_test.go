package config

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fixture() *Config {
	return &Config{
		Simulation: Simulation{
			SimulationType:            FullCascade,
			ScreeningType:             ScreeningZBL,
			ElectronicStopping:        StoppingSRIM13,
			ElectronicStraggling:      StragglingBohr,
			NRTCalculation:            NRTElement,
			IntraCascadeRecombination: true,
			TimeOrderedCascades:       true,
		},
		Transport: Transport{
			FlightPathType:  FlightPathConstantType,
			FlightPathConst: 1,
			MinEnergy:       1,
		},
		IonBeam: IonBeam{
			Ion:                []IonBeamSpecies{{Z: 2, Fraction: 1}},
			EnergyDistribution: Distribution{Type: DistSingleValue, Center: 50000},
		},
		Target: Target{
			Size:      Vec3{X: 100, Y: 100, Z: 100},
			CellCount: [3]int{10, 10, 10},
			Materials: []MaterialSpec{
				{ID: 0, Density: 0.0847, Atoms: []AtomSpec{{Z: 26, Fraction: 1, Ed: 40}}},
			},
			Regions: []RegionSpec{
				{ID: 0, MaterialID: 0, Size: Vec3{X: 100, Y: 100, Z: 100}},
			},
		},
		Run:    Run{MaxNoIons: 1000, Threads: 4, Seed: 1},
		Output: Output{Title: "test run"},
	}
}

func TestConfigRoundTrip(t *testing.T) {
	want := fixture()

	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeInvalidYAML(t *testing.T) {
	_, err := Decode(bytes.NewBufferString("simulation: [unterminated"))
	if err == nil {
		t.Fatal("expected an error decoding malformed yaml")
	}
}
