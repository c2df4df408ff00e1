// Package nrt implements the Norgett-Robinson-Torrens damage-energy
// partition and displacement estimator used to turn a PKA's recoil energy
// into a number of stable Frenkel pairs without running the cascade down to
// the last sub-threshold recoil.
//
// Grounded on source/src/tally.cpp's Tdam_LSS/Vnrt_LSS computation (named
// but not given in closed form by the distilled spec): the Lindhard reduced
// energy and Robinson/Torrens partition function below are the standard
// closed-form NRT model the original links to rather than re-derives.
package nrt

import "github.com/chewxy/math32"

// reducedEnergy converts a recoil energy E [eV] for a (z1,m1) ion in a
// (z2,m2) lattice atom to Lindhard's dimensionless reduced energy, using the
// SRIM-style closed form (Z in atomic number, M in amu, E in eV) that avoids
// carrying the Bohr screening length through a second constant.
func reducedEnergy(e, z1, m1, z2, m2 float32) float32 {
	num := 32.53 * m2 * e
	den := z1 * z2 * (m1 + m2) * (math32.Pow(z1, 0.23) + math32.Pow(z2, 0.23))
	return num / den
}

// partition is the Robinson/Torrens damage-energy fraction ν(ε) =
// 1 / (1 + k·g(ε)), g(ε) = ε + 0.40244·ε^0.75 + 3.4008·ε^(1/6): the
// dimensionless share of the recoil energy E that ends up as damage energy,
// which the caller multiplies by E to get Tdam in eV.
func partition(eps, kd float32) float32 {
	g := eps + 0.40244*math32.Pow(eps, 0.75) + 3.4008*math32.Pow(eps, 1.0/6.0)
	return 1 / (1 + kd*g)
}

// kd is the Robinson-Torrens empirical electronic-loss coefficient for a
// (z1,m1) projectile in a (z2,m2) lattice: kd = 0.1337·Z1^(1/6)·√(Z1/M1),
// evaluated with the struck atom's own (Z,M) per tally.cpp's per-species
// convention (z1==z2, m1==m2 for a self-ion cascade).
func kd(z1, m1 float32) float32 {
	return 0.1337 * math32.Pow(z1, 1.0/6.0) * math32.Sqrt(z1/m1)
}

// Species is the minimal per-atom data the NRT estimator needs: atomic
// number, mass, and displacement threshold energy.
type Species struct {
	Z, M, Ed float32
}

// Damage computes the NRT damage energy Tdam [eV] and displacement count
// Vnrt for a recoil of energy e [eV] in species sp, per
// Vnrt = 0.8·Tdam/(2·Ed) (source/src/tally.cpp's Vnrt_LSS, floored at zero
// displacements for sub-threshold recoils).
func Damage(e float32, sp Species) (tdam, vnrt float32) {
	if e <= 0 || sp.Ed <= 0 {
		return 0, 0
	}
	eps := reducedEnergy(e, sp.Z, sp.M, sp.Z, sp.M)
	nu := partition(eps, kd(sp.Z, sp.M))
	tdam = nu * e
	if tdam < sp.Ed {
		return tdam, 0
	}
	vnrt = 0.8 * tdam / (2 * sp.Ed)
	return tdam, vnrt
}

// MaterialAverage combines per-species NRT damage estimates into a single
// material-level figure, weighted by stoichiometric fraction (the
// `nrt_calculation: average` config mode in tally.cpp, as opposed
// to the per-species default).
func MaterialAverage(e float32, species []Species, fractions []float32) (tdam, vnrt float32) {
	for i, sp := range species {
		td, v := Damage(e, sp)
		w := fractions[i]
		tdam += w * td
		vnrt += w * v
	}
	return tdam, vnrt
}
