package domain

// PhaseType is the closed set of manufacturing phase kinds a BOM entry
// may carry.
type PhaseType string

const (
	PhaseSMT     PhaseType = "SMT"
	PhaseReflow  PhaseType = "REFLOW"
	PhaseTHT     PhaseType = "THT"
	PhaseAOI     PhaseType = "AOI"
	PhaseTest    PhaseType = "TEST"
	PhaseCoating PhaseType = "COATING"
	PhasePack    PhaseType = "PACK"
)

// BOMPhase is one entry of a product's ordered phase list.
type BOMPhase struct {
	Sequence        int       `json:"sequence"`
	PhaseType       PhaseType `json:"phase_type"`
	DurationPerUnit int       `json:"duration_per_unit_minutes"`
}

// Product is read-only to the core: an identifier, a name, and the
// ordered BOM phase chain every one of its production orders expands
// into.
type Product struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	BOM  []BOMPhase `json:"bom"`
}

// TotalDurationPerUnit sums duration_per_unit across every BOM phase.
func (p Product) TotalDurationPerUnit() int {
	total := 0
	for _, phase := range p.BOM {
		total += phase.DurationPerUnit
	}
	return total
}
