package model

// Entity is the legal form that owns new investment.
type Entity string

const (
	Corporate    Entity = "c"
	NonCorporate Entity = "nc"
	Housing      Entity = "h"

	// Business is the combined corporate and non-corporate sector, used only
	// in aggregate tables.
	Business Entity = "biz"
)

// Entities lists every entity form in output order.
var Entities = []Entity{Corporate, NonCorporate, Housing}

// Label returns a human-readable name for reports.
func (e Entity) Label() string {
	switch e {
	case Corporate:
		return "Corporate"
	case NonCorporate:
		return "Pass-Through"
	case Housing:
		return "Owner-Occupied Housing"
	case Business:
		return "Business"
	}
	return string(e)
}

// Financing is the marginal source of funds for an investment.
type Financing string

const (
	Mix    Financing = "mix" // typical debt/equity blend for the entity
	Debt   Financing = "d"
	Equity Financing = "e"
)

// Financings lists every financing source in output order.
var Financings = []Financing{Mix, Debt, Equity}

// Label returns a human-readable name for reports.
func (f Financing) Label() string {
	switch f {
	case Mix:
		return "Typically Financed"
	case Debt:
		return "Debt Financed"
	case Equity:
		return "Equity Financed"
	}
	return string(f)
}

// Account is the household account type holding a debt or equity claim.
type Account string

const (
	FullyTaxable Account = "ft"
	TaxDeferred  Account = "td"
	NonTaxable   Account = "nt"
)

// Accounts lists the household account types.
var Accounts = []Account{FullyTaxable, TaxDeferred, NonTaxable}

// TaxTreat tags a capital-stock row with the entity slices it belongs to.
type TaxTreat string

const (
	TreatBusiness    TaxTreat = "" // applies to both corporate and non-corporate
	TreatCorporate   TaxTreat = "corporate"
	TreatNonCorp     TaxTreat = "non_corporate"
	TreatOwnerOccHsg TaxTreat = "owner_occupied_housing"
)

// Entities returns the entity slices a row with this treatment contributes to.
func (t TaxTreat) Entities() []Entity {
	switch t {
	case TreatCorporate:
		return []Entity{Corporate}
	case TreatNonCorp:
		return []Entity{NonCorporate}
	case TreatOwnerOccHsg:
		return []Entity{Housing}
	}
	return []Entity{Corporate, NonCorporate}
}
