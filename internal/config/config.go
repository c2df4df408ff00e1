// Package config defines the nested run-configuration record:
// Simulation/Transport/IonBeam/Target/Run/Output/UserTally option groups,
// decoded from YAML via gopkg.in/yaml.v3. Validation is a collaborator's
// job; this package only shapes the data.
package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SimType selects what the source ion represents and whether recoils are
// transported.
type SimType string

const (
	FullCascade  SimType = "FullCascade"
	IonsOnly     SimType = "IonsOnly"
	CascadesOnly SimType = "CascadesOnly"
)

// Screening selects the scattering table & CMS algorithm.
type Screening string

const (
	ScreeningNone     Screening = "None"
	ScreeningBohr     Screening = "Bohr"
	ScreeningKrC      Screening = "KrC"
	ScreeningMoliere  Screening = "Moliere"
	ScreeningZBL      Screening = "ZBL"
	ScreeningZBLMagic Screening = "ZBL_MAGIC"
)

// ElectronicStopping selects the dE/dx data source.
type ElectronicStopping string

const (
	StoppingOff    ElectronicStopping = "Off"
	StoppingSRIM96 ElectronicStopping = "SRIM96"
	StoppingSRIM13 ElectronicStopping = "SRIM13"
	StoppingDPASS22 ElectronicStopping = "DPASS22"
)

// ElectronicStraggling selects the straggling model.
type ElectronicStraggling string

const (
	StragglingOff  ElectronicStraggling = "Off"
	StragglingBohr ElectronicStraggling = "Bohr"
	StragglingChu  ElectronicStraggling = "Chu"
	StragglingYang ElectronicStraggling = "Yang"
)

// NRTMode selects per-species or per-material NRT displacement counting.
type NRTMode string

const (
	NRTElement NRTMode = "element"
	NRTAverage NRTMode = "average"
)

// FlightPathType selects the flight-path sampler.
type FlightPathType string

const (
	FlightPathConstantType FlightPathType = "Constant"
	FlightPathVariableType FlightPathType = "Variable"
)

// DistributionType selects an IonBeam sampler kind, shared across the
// energy/angular/spatial distributions.
type DistributionType string

const (
	DistSingleValue DistributionType = "SingleValue"
	DistUniform     DistributionType = "Uniform"
	DistGaussian    DistributionType = "Gaussian"
)

// Simulation groups the physics-model switches.
type Simulation struct {
	SimulationType            SimType              `yaml:"simulation_type"`
	ScreeningType             Screening            `yaml:"screening_type"`
	ElectronicStopping        ElectronicStopping   `yaml:"electronic_stopping"`
	ElectronicStraggling      ElectronicStraggling `yaml:"electronic_straggling"`
	NRTCalculation            NRTMode              `yaml:"nrt_calculation"`
	IntraCascadeRecombination bool                 `yaml:"intra_cascade_recombination"`
	TimeOrderedCascades       bool                 `yaml:"time_ordered_cascades"`
	CorrelatedRecombination   bool                 `yaml:"correlated_recombination"`
	MoveRecoil                bool                 `yaml:"move_recoil"`
	RecoilSubEd               bool                 `yaml:"recoil_sub_ed"`
}

// Transport groups the flight-path/cutoff options.
type Transport struct {
	FlightPathType    FlightPathType `yaml:"flight_path_type"`
	FlightPathConst   float32        `yaml:"flight_path_const"`
	MinEnergy         float32        `yaml:"min_energy"`
	MinRecoilEnergy   float32        `yaml:"min_recoil_energy"`
	MinScatteringAngle float32       `yaml:"min_scattering_angle"`
	MaxRelEloss       float32        `yaml:"max_rel_eloss"`
	MfpRangeLow       float32        `yaml:"mfp_range_low"`
	MfpRangeHigh      float32        `yaml:"mfp_range_high"`
}

// Distribution is one {type, center, fwhm} sampler spec, shared by
// IonBeam's energy/angular/spatial groups.
type Distribution struct {
	Type   DistributionType `yaml:"type"`
	Center float32          `yaml:"center"`
	FWHM   float32          `yaml:"fwhm"`
}

// IonBeamSpecies is one projectile species entry, with its stoichiometric
// fraction in the (usually single-species) beam.
type IonBeamSpecies struct {
	Z        int     `yaml:"Z"`
	Fraction float32 `yaml:"fraction"`
}

// IonBeam groups the source-sampler configuration.
type IonBeam struct {
	Ion                []IonBeamSpecies `yaml:"ion"`
	EnergyDistribution Distribution     `yaml:"energy_distribution"`
	AngularDistribution Distribution    `yaml:"angular_distribution"`
	SpatialDistribution Distribution    `yaml:"spatial_distribution"`
}

// Vec3 is a YAML-friendly 3-vector, decoupled from internal/geom.Vec3 so
// config stays a pure data package with no dependency on the simulation
// internals it describes.
type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// AtomSpec is one target atomic species entry within a Material.
type AtomSpec struct {
	Z        int     `yaml:"Z"`
	Fraction float32 `yaml:"fraction"`
	Ed       float32 `yaml:"Ed"`
	El       float32 `yaml:"El"`
	Es       float32 `yaml:"Es"`
	Er       float32 `yaml:"Er"`
	Rc       float32 `yaml:"Rc"`
}

// MaterialSpec is one target material: a stoichiometric mixture of atoms
// at a given density.
type MaterialSpec struct {
	ID      int        `yaml:"id"`
	Density float32    `yaml:"density"`
	Color   string      `yaml:"color"`
	Atoms   []AtomSpec `yaml:"atoms"`
}

// RegionSpec is one axis-aligned box of a single material tiling the
// target volume.
type RegionSpec struct {
	ID         int     `yaml:"id"`
	MaterialID int     `yaml:"material_id"`
	Origin     Vec3    `yaml:"origin"`
	Size       Vec3    `yaml:"size"`
}

// Target groups the geometry & composition configuration.
type Target struct {
	Origin      Vec3           `yaml:"origin"`
	Size        Vec3           `yaml:"size"`
	CellCount   [3]int         `yaml:"cell_count"`
	PeriodicBC  [3]bool        `yaml:"periodic_bc"`
	Materials   []MaterialSpec `yaml:"materials"`
	Regions     []RegionSpec   `yaml:"regions"`
}

// Run groups the run-control options.
type Run struct {
	MaxNoIons  uint64 `yaml:"max_no_ions"`
	MaxCPUTime float32 `yaml:"max_cpu_time"` // wall-clock seconds; 0 disables the cutoff
	Threads    int    `yaml:"threads"`
	Seed       uint64 `yaml:"seed"`
}

// Output groups the emission controls.
type Output struct {
	Title            string `yaml:"title"`
	OutFileName      string `yaml:"outfilename"`
	StorageInterval  int    `yaml:"storage_interval"`
	StoreExitEvents  bool   `yaml:"store_exit_events"`
	StorePKAEvents   bool   `yaml:"store_pka_events"`
	StoreDamageEvents bool  `yaml:"store_damage_events"`
	StoreDedx        bool   `yaml:"store_dedx"`
}

// UserTallyBin is one binning axis of a UserTally histogram.
type UserTallyBin struct {
	Variable string    `yaml:"variable"`
	Edges    []float32 `yaml:"edges"`
}

// UserTally is one optional user-defined histogram over a tallied event
// stream, with up to ~14 binning variables.
type UserTally struct {
	ID          int            `yaml:"id"`
	Description string         `yaml:"description"`
	Event       string         `yaml:"event"`
	CoordSystem string         `yaml:"coord_system"`
	Bins        []UserTallyBin `yaml:"bins"`
}

// Config is the full nested run configuration.
type Config struct {
	Simulation Simulation  `yaml:"simulation"`
	Transport  Transport   `yaml:"transport"`
	IonBeam    IonBeam     `yaml:"ion_beam"`
	Target     Target      `yaml:"target"`
	Run        Run         `yaml:"run"`
	Output     Output      `yaml:"output"`
	UserTally  []UserTally `yaml:"user_tally"`
}

// Decode reads a YAML document into a Config. No validation is performed;
// callers that need to reject malformed configs do so in a collaborator
// layer.
func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding yaml: %w", err)
	}
	return &cfg, nil
}

// Encode writes cfg back out as YAML.
func Encode(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: encoding yaml: %w", err)
	}
	return nil
}
