package model

// TaxMethod is the statutory cost-recovery method recorded for an asset.
type TaxMethod string

const (
	MethodDB200     TaxMethod = "DB 200%"
	MethodDB150     TaxMethod = "DB 150%"
	MethodSL        TaxMethod = "SL"
	MethodADS       TaxMethod = "ADS"
	MethodEconomic  TaxMethod = "Economic"
	MethodExpensing TaxMethod = "Expensing"
	MethodLand      TaxMethod = "Land"
	MethodInventory TaxMethod = "Inventory"
)

// TaxMethods lists the accepted asset-table methods.
var TaxMethods = []TaxMethod{
	MethodDB200, MethodDB150, MethodSL, MethodADS,
	MethodEconomic, MethodExpensing, MethodLand, MethodInventory,
}

// Convention is the placed-in-service timing convention.
type Convention string

const (
	HalfYear   Convention = "HY"
	MidQuarter Convention = "MQ"
	MidMonth   Convention = "MM"
)

// Asset is one row of the asset table.
type Asset struct {
	Code         string // BEA asset code, unique
	Name         string
	Delta        float64 // economic depreciation rate
	Method       TaxMethod
	Life         float64 // GDS recovery period in years
	ADSLife      float64 // 0 means fall back to Life
	Convention   Convention
	Period       int     // placement quarter (MQ) or month (MM); 0 averages
	Bonus        float64 // share of the asset eligible for bonus depreciation
	MajorGroup   string
	RealProperty bool
}

// IsInventory reports whether the asset is valued with the inventory formula.
func (a Asset) IsInventory() bool { return a.Method == MethodInventory }

// WeightRow is one row of the capital-stock weight table.
type WeightRow struct {
	AssetCode    string
	IndustryCode string
	CapitalStock float64
	TaxTreat     TaxTreat
}
