package source

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
)

func TestNewBeamRejectsNonPositiveEnergy(t *testing.T) {
	he := ion.Species{ID: 0, Z: 2, Mass: 4.0026}
	_, err := NewBeam([]ion.Species{he}, []float32{1},
		Distribution{Type: SingleValue, Center: 0},
		Distribution{Type: SingleValue},
		Distribution{Type: SingleValue},
		geom.Vec3{}, geom.Vec3{Z: 1})
	if err == nil {
		t.Fatal("expected an error for a zero-center energy distribution")
	}
}

func TestBeamSampleSingleValueIsDeterministic(t *testing.T) {
	he := ion.Species{ID: 0, Z: 2, Mass: 4.0026}
	b, err := NewBeam([]ion.Species{he}, []float32{1},
		Distribution{Type: SingleValue, Center: 50000},
		Distribution{Type: SingleValue},
		Distribution{Type: SingleValue},
		geom.Vec3{}, geom.Vec3{Z: 1})
	if err != nil {
		t.Fatalf("NewBeam: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	sp, erg, pos, dir := b.Sample(rng)

	if sp.ID != he.ID {
		t.Errorf("species = %v, want %v", sp, he)
	}
	if erg != 50000 {
		t.Errorf("energy = %v, want 50000", erg)
	}
	if pos != (geom.Vec3{}) {
		t.Errorf("position = %v, want origin (zero angle/spatial spread)", pos)
	}
	if math32.Abs(dir.Z-1) > 1e-5 {
		t.Errorf("direction = %v, want aligned with beam axis", dir)
	}
}

func TestBeamSampleAngleProducesUnitDir(t *testing.T) {
	he := ion.Species{ID: 0, Z: 2, Mass: 4.0026}
	b, err := NewBeam([]ion.Species{he}, []float32{1},
		Distribution{Type: SingleValue, Center: 50000},
		Distribution{Type: Uniform, Center: 5, FWHM: 2},
		Distribution{Type: Uniform, Center: 0, FWHM: 1},
		geom.Vec3{}, geom.Vec3{Z: 1})
	if err != nil {
		t.Fatalf("NewBeam: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		_, _, _, dir := b.Sample(rng)
		n := dir.Dot(dir)
		if math32.Abs(n-1) > 1e-4 {
			t.Fatalf("sample %d: |dir|^2 = %v, want 1", i, n)
		}
	}
}

func TestBeamSampleRejectsZeroEnergyDraw(t *testing.T) {
	he := ion.Species{ID: 0, Z: 2, Mass: 4.0026}
	b, err := NewBeam([]ion.Species{he}, []float32{1},
		Distribution{Type: Uniform, Center: 100, FWHM: 400},
		Distribution{Type: SingleValue},
		Distribution{Type: SingleValue},
		geom.Vec3{}, geom.Vec3{Z: 1})
	if err != nil {
		t.Fatalf("NewBeam: %v", err)
	}

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 1000; i++ {
		_, erg, _, _ := b.Sample(rng)
		if erg <= 0 {
			t.Fatalf("sample %d: energy = %v, want > 0", i, erg)
		}
	}
}
