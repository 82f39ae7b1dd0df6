package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RecoveryClasses are the GDS property classes with their own depreciation
// system and bonus parameters.
var RecoveryClasses = []float64{3, 5, 7, 10, 15, 20, 25, 27.5, 39}

// ClassKey returns the parameter suffix for a recovery period, e.g. "27_5".
func ClassKey(life float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(life, 'f', -1, 64), ".", "_")
}

// ClassPolicy is the depreciation treatment of one recovery class.
type ClassPolicy struct {
	System string // GDS, ADS or Economic
	Bonus  float64
}

// Shares splits a household claim across account types.
type Shares struct {
	FT, TD, NT float64
}

// Specification is the effective parameter record for one run year.
// It is a value type; callers must not modify Classes.
type Specification struct {
	Year int

	CITRate         float64
	PTEntityTax     bool
	PTEntityTaxRate float64
	ITC             float64
	PropertyTax     float64
	HaircutCorp     float64
	HaircutPT       float64
	ACECorp         float64
	ACENonCorp      float64
	ACEIntRate      float64

	InventoryExpensing bool
	LandExpensing      float64
	Classes            map[string]ClassPolicy

	TauNC  float64
	TauDiv float64
	TauInt float64
	TauSCG float64
	TauLCG float64
	TauXCG float64
	TauTD  float64
	TauH   float64

	Interest   float64
	Inflation  float64
	ECorp      float64
	ProfitRate float64
	Phi        float64
	YV         float64

	FCorp    float64
	FNonCorp float64
	FHousing float64

	M        float64
	NewView  bool
	Gamma    float64
	YTD      float64
	YSCG     float64
	YLCG     float64
	OmegaSCG float64
	OmegaLCG float64
	OmegaXCG float64

	AlphaCorpEquity  Shares
	AlphaCorpDebt    Shares
	AlphaNonCorpDebt Shares
	AlphaHousingDebt Shares
}

// Class returns the policy for the recovery class matching life.
func (sp Specification) Class(life float64) (ClassPolicy, bool) {
	c, ok := sp.Classes[ClassKey(life)]
	return c, ok
}

// Specification resolves every parameter for year into a typed record.
func (s *Schema) Specification(year int) (Specification, error) {
	if year < StartYear || year > EndYear {
		return Specification{}, fmt.Errorf("year %d outside %d-%d", year, StartYear, EndYear)
	}
	g := &getter{s: s, year: year}
	sp := Specification{
		Year: year,

		CITRate:         g.float("CIT_rate"),
		PTEntityTax:     g.bool("PT_entity_tax_ind"),
		PTEntityTaxRate: g.float("PT_entity_tax_rate"),
		ITC:             g.float("inv_tax_credit"),
		PropertyTax:     g.float("property_tax"),
		HaircutCorp:     g.float("interest_deduct_haircut_corp"),
		HaircutPT:       g.float("interest_deduct_haircut_PT"),
		ACECorp:         g.float("ace_c"),
		ACENonCorp:      g.float("ace_nc"),
		ACEIntRate:      g.float("ace_int_rate"),

		InventoryExpensing: g.bool("inventory_expensing"),
		LandExpensing:      g.float("land_expensing"),
		Classes:            make(map[string]ClassPolicy, len(RecoveryClasses)),

		TauNC:  g.float("tau_nc"),
		TauDiv: g.float("tau_div"),
		TauInt: g.float("tau_int"),
		TauSCG: g.float("tau_scg"),
		TauLCG: g.float("tau_lcg"),
		TauXCG: g.float("tau_xcg"),
		TauTD:  g.float("tau_td"),
		TauH:   g.float("tau_h"),

		Interest:   g.float("nominal_interest_rate"),
		Inflation:  g.float("inflation_rate"),
		ECorp:      g.float("E_c"),
		ProfitRate: g.float("profit_rate"),
		Phi:        g.float("phi"),
		YV:         g.float("Y_v"),

		FCorp:    g.float("f_c"),
		FNonCorp: g.float("f_nc"),
		FHousing: g.float("f_h"),

		M:        g.float("m"),
		NewView:  g.bool("new_view"),
		Gamma:    g.float("gamma"),
		YTD:      g.float("Y_td"),
		YSCG:     g.float("Y_scg"),
		YLCG:     g.float("Y_lcg"),
		OmegaSCG: g.float("omega_scg"),
		OmegaLCG: g.float("omega_lcg"),
		OmegaXCG: g.float("omega_xcg"),

		AlphaCorpEquity:  g.shares("alpha_c_e"),
		AlphaCorpDebt:    g.shares("alpha_c_d"),
		AlphaNonCorpDebt: g.shares("alpha_nc_d"),
		AlphaHousingDebt: g.shares("alpha_h_d"),
	}
	for _, life := range RecoveryClasses {
		key := ClassKey(life)
		sp.Classes[key] = ClassPolicy{
			System: g.str("DeprecSystem_" + key + "yr"),
			Bonus:  g.float("BonusDeprec_" + key + "yr"),
		}
	}
	if g.err != nil {
		return Specification{}, g.err
	}
	return sp, nil
}

// getter reads typed values and keeps the first failure.
type getter struct {
	s    *Schema
	year int
	err  error
}

func (g *getter) value(name string) any {
	v, err := g.s.Lookup(name, g.year)
	if err != nil && g.err == nil {
		g.err = err
	}
	return v
}

func (g *getter) float(name string) float64 {
	f, ok := g.value(name).(float64)
	if !ok && g.err == nil {
		g.err = errors.New(name + ": not a number")
	}
	return f
}

func (g *getter) bool(name string) bool {
	b, ok := g.value(name).(bool)
	if !ok && g.err == nil {
		g.err = errors.New(name + ": not a bool")
	}
	return b
}

func (g *getter) str(name string) string {
	s, ok := g.value(name).(string)
	if !ok && g.err == nil {
		g.err = errors.New(name + ": not a string")
	}
	return s
}

func (g *getter) shares(prefix string) Shares {
	return Shares{
		FT: g.float(prefix + "_ft"),
		TD: g.float(prefix + "_td"),
		NT: g.float(prefix + "_nt"),
	}
}
