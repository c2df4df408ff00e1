package transport

// SimType selects whether recoils are transported and whether a source
// history starts as a moving ion or directly as a PKA.
type SimType int

const (
	// FullCascade transports the source ion and every recoil it spawns.
	FullCascade SimType = iota
	// IonsOnly transports only the source ion; displaced recoils are
	// recorded as vacancies but never themselves transported.
	IonsOnly
	// CascadesOnly treats the source particle as a PKA from the start
	// (recoil_id=1), skipping its own ion-beam transport.
	CascadesOnly
)

// NRTMode selects whether damage-energy partition is evaluated per struck
// species or averaged over a material's composition.
type NRTMode int

const (
	NRTPerSpecies NRTMode = iota
	NRTMaterialAverage
)

// Options configures one worker's transport loop (the Simulation and
// Transport config groups).
type Options struct {
	Sim SimType

	ECutoff float32 // min_energy, eV

	IntraCascadeRecombination bool
	TimeOrderedCascades       bool
	CorrelatedRecombination   bool
	MoveRecoil                bool
	RecoilSubEd               bool

	NRT NRTMode

	StoreExitEvents   bool
	StorePKAEvents    bool
	StoreDamageEvents bool
}
