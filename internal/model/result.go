package model

// Flag marks a numerically undefined or adjusted result.
type Flag string

const (
	FlagNone        Flag = ""
	FlagRhoNearZero Flag = "rho_near_zero"
	FlagDenominator Flag = "denominator_near_zero"
	FlagNonFinite   Flag = "non_finite"
	FlagExpClamped  Flag = "exp_overflow_clamped"
	FlagLogDomain   Flag = "log_domain"
)

// Worse returns f unless it is empty, in which case other.
func (f Flag) Worse(other Flag) Flag {
	if f != FlagNone {
		return f
	}
	return other
}

// Measures holds the output variables of one cost-of-capital evaluation.
type Measures struct {
	Z        float64
	Rho      float64
	UCC      float64
	METR     float64
	METTR    float64
	TaxWedge float64
	EATR     float64
	Flag     Flag
}

// Cell is a single (asset, industry, entity, financing) result row.
type Cell struct {
	AssetCode  string
	AssetName  string
	MajorGroup string
	Industry   string
	Entity     Entity
	Financing  Financing
	Weight     float64
	Delta      float64
	RPrime     float64
	S          float64
	U          float64
	Measures
}

// AggregateRow is a capital-stock weighted summary of a slice of cells.
type AggregateRow struct {
	Key       string // "Overall" for the weighted total row
	Entity    Entity
	Financing Financing
	Weight    float64
	Delta     float64
	RPrime    float64
	S         float64
	U         float64
	Excluded  int // cells dropped from the means because of a flag
	Measures
}

// OverallKey names the weighted-total row of every aggregate table.
const OverallKey = "Overall"

// Variables lists the comparable output variables.
var Variables = []string{"z", "rho", "ucc", "metr", "mettr", "tax_wedge", "eatr"}

// Value returns the named output variable.
func (m Measures) Value(name string) (float64, bool) {
	switch name {
	case "z":
		return m.Z, true
	case "rho":
		return m.Rho, true
	case "ucc":
		return m.UCC, true
	case "metr":
		return m.METR, true
	case "mettr":
		return m.METTR, true
	case "tax_wedge":
		return m.TaxWedge, true
	case "eatr":
		return m.EATR, true
	}
	return 0, false
}

// DiffRow aligns a baseline and reform value of one variable.
type DiffRow struct {
	Table     string
	Key       string
	Industry  string
	Entity    Entity
	Financing Financing
	Variable  string
	Baseline  float64
	Reform    float64
	ChangePP  float64 // (reform - baseline) * 100
	Flag      Flag    // worse of the two runs' flags
}
