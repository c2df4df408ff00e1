// Package events implements the binary per-row event buffers the transport
// loop writes one of per ion history: where it stopped or exited, each PKA
// cascade's accumulated damage, and every vacancy/interstitial defect left
// behind. Grounded on source/include/event_stream.h's event_buffer
// hierarchy (pka_buffer/exit_buffer/damage_event_buffer), each a flat
// []float32 row with named offsets instead of a struct, so a whole run's
// worth of rows can be appended to a Stream without per-event allocation.
package events

import (
	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
)

// Kind distinguishes the three event row layouts a Stream can hold.
type Kind uint32

const (
	KindExit Kind = 1 << iota
	KindPKA
	KindDamage
)

// ExitCols is exit_buffer's row width: ionID, atomID, cellID, erg, pos(3),
// dir(3).
const ExitCols = 10

// ExitRow is one exit_buffer row.
type ExitRow [ExitCols]float32

const (
	exitIonID = iota
	exitAtomID
	exitCellID
	exitErg
	exitPosX
	exitPosY
	exitPosZ
	exitDirX
	exitDirY
	exitDirZ
)

// NewExitRow fills a row from the ion's state at the moment it left the
// simulation volume (event_stream.h's exit_buffer::set).
func NewExitRow(i *ion.State) ExitRow {
	var r ExitRow
	r[exitIonID] = float32(i.IonID)
	r[exitAtomID] = float32(i.Atom.ID)
	r[exitCellID] = float32(i.PrevCellID)
	r[exitErg] = i.Erg
	r[exitPosX], r[exitPosY], r[exitPosZ] = i.Pos.X, i.Pos.Y, i.Pos.Z
	r[exitDirX], r[exitDirY], r[exitDirZ] = i.Dir.X, i.Dir.Y, i.Dir.Z
	return r
}

// DamageCols is damage_event_buffer's row width: history id, recoil id,
// atom id, defect type, pos(3).
const DamageCols = 7

// DamageRow is one damage_event_buffer row.
type DamageRow [DamageCols]float32

const (
	damageHID = iota
	damageRID
	damageAtomID
	damageDefectID
	damagePosX
	damagePosY
	damagePosZ
)

// DefectID values match damage_event_buffer's vacancy(0)/interstitial(1)
// convention.
const (
	DefectIDVacancy     = 0
	DefectIDInterstitial = 1
)

// NewDamageRow fills a row describing one unrecombined defect at pos, left
// by history hid's recoil rid of species atomID (event_stream.h's
// damage_event_buffer::set).
func NewDamageRow(hid uint64, rid, atomID int, defectID int, pos geom.Vec3) DamageRow {
	return DamageRow{
		damageHID:      float32(hid),
		damageRID:      float32(rid),
		damageAtomID:   float32(atomID),
		damageDefectID: float32(defectID),
		damagePosX:     pos.X,
		damagePosY:     pos.Y,
		damagePosZ:     pos.Z,
	}
}

// PKABuffer accumulates one PKA cascade's summary row, growing with the
// number of target atom species (event_stream.h's pka_buffer: a fixed
// header plus 4 columns per atom id for vacancies/interstitials/
// recombinations/correlated-recombinations).
type PKABuffer struct {
	nAtoms int
	row    []float32
}

const (
	pkaIonID = iota
	pkaAtomID
	pkaPosX
	pkaPosY
	pkaPosZ
	pkaErg
	pkaTdam
	pkaVacBase
)

const pkaAtomCols = 4

// PKACols returns the row width NewPKABuffer(nAtoms) allocates, so a caller
// wiring up a Stream can size it without building a throwaway buffer first.
func PKACols(nAtoms int) int { return pkaVacBase + pkaAtomCols*nAtoms }

// NewPKABuffer allocates a PKA row sized for nAtoms target species.
func NewPKABuffer(nAtoms int) *PKABuffer {
	return &PKABuffer{nAtoms: nAtoms, row: make([]float32, PKACols(nAtoms))}
}

// Init resets the buffer and stamps the PKA ion's identity and starting
// position/energy (pka_buffer::init).
func (b *PKABuffer) Init(i *ion.State) {
	for k := range b.row {
		b.row[k] = 0
	}
	b.row[pkaIonID] = float32(i.IonID)
	b.row[pkaAtomID] = float32(i.Atom.ID)
	b.row[pkaPosX], b.row[pkaPosY], b.row[pkaPosZ] = i.Pos0.X, i.Pos0.Y, i.Pos0.Z
	b.row[pkaErg] = i.Erg0
}

// AddTdam accumulates damage energy from a recoil stopping within this
// cascade.
func (b *PKABuffer) AddTdam(de float32) { b.row[pkaTdam] += de }

func (b *PKABuffer) atomOffset(col, atomID int) int { return pkaVacBase + col*b.nAtoms + atomID }

// AddVacancy/AddInterstitial/AddRecombination/AddCorrelatedRecombination
// increment the per-atom-id defect counters (pka_buffer's Vac/Impl/Icr/
// Icr_corr accessors).
func (b *PKABuffer) AddVacancy(atomID int)      { b.row[b.atomOffset(0, atomID)]++ }
func (b *PKABuffer) AddInterstitial(atomID int) { b.row[b.atomOffset(1, atomID)]++ }
func (b *PKABuffer) AddRecombination(atomID int)          { b.row[b.atomOffset(2, atomID)]++ }
func (b *PKABuffer) AddCorrelatedRecombination(atomID int) { b.row[b.atomOffset(3, atomID)]++ }

// IonID, AtomID, and RecoilEnergy expose the row's header fields.
func (b *PKABuffer) IonID() uint64        { return uint64(b.row[pkaIonID]) }
func (b *PKABuffer) AtomID() int          { return int(b.row[pkaAtomID]) }
func (b *PKABuffer) RecoilEnergy() float32 { return b.row[pkaErg] }
func (b *PKABuffer) Tdam() float32        { return b.row[pkaTdam] }

// Row returns the buffer's current flat contents, ready to append to a
// Stream (the caller must not retain the slice across the next Init).
func (b *PKABuffer) Row() []float32 { return b.row }
