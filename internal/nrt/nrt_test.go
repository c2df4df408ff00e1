package nrt

import "testing"

func TestDamageBelowThresholdIsZero(t *testing.T) {
	sp := Species{Z: 26, M: 55.85, Ed: 40}
	tdam, vnrt := Damage(10, sp)
	if vnrt != 0 {
		t.Errorf("vnrt = %v, want 0 for sub-threshold recoil", vnrt)
	}
	if tdam < 0 || tdam > 10 {
		t.Errorf("tdam = %v, want in [0,10]", tdam)
	}
}

func TestDamageMonotonicInEnergy(t *testing.T) {
	sp := Species{Z: 26, M: 55.85, Ed: 40}
	_, v1 := Damage(1000, sp)
	_, v2 := Damage(10000, sp)
	if !(v2 > v1) {
		t.Errorf("Vnrt(10keV)=%v should exceed Vnrt(1keV)=%v", v2, v1)
	}
}

func TestDamageNeverExceedsRecoilEnergy(t *testing.T) {
	sp := Species{Z: 14, M: 28.09, Ed: 15}
	for _, e := range []float32{50, 500, 5000, 50000, 500000} {
		tdam, _ := Damage(e, sp)
		if tdam > e {
			t.Errorf("Tdam(%v) = %v exceeds recoil energy", e, tdam)
		}
	}
}

func TestMaterialAverageWeightsByFraction(t *testing.T) {
	species := []Species{{Z: 26, M: 55.85, Ed: 40}, {Z: 24, M: 52, Ed: 40}}
	fractions := []float32{0.8, 0.2}
	tdam, vnrt := MaterialAverage(10000, species, fractions)
	tFe, vFe := Damage(10000, species[0])
	tCr, vCr := Damage(10000, species[1])
	wantT := 0.8*tFe + 0.2*tCr
	wantV := 0.8*vFe + 0.2*vCr
	if abs32(tdam-wantT) > 1e-3 {
		t.Errorf("tdam = %v, want %v", tdam, wantT)
	}
	if abs32(vnrt-wantV) > 1e-3 {
		t.Errorf("vnrt = %v, want %v", vnrt, wantV)
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
