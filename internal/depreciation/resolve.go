package depreciation

import (
	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
)

// Depreciation systems selectable per recovery class.
const (
	SystemGDS      = "GDS"
	SystemADS      = "ADS"
	SystemEconomic = "Economic"
)

// Systems lists the depreciation systems in report order.
var Systems = []string{SystemGDS, SystemADS, SystemEconomic}

// Resolve maps an asset to its schedule under the policy in sp.
func Resolve(a model.Asset, sp params.Specification) Schedule {
	system := SystemGDS
	bonus := 0.0
	if c, ok := sp.Class(a.Life); ok {
		system = c.System
		bonus = a.Bonus * c.Bonus
	}
	return ResolveSystem(a, sp, system, bonus)
}

// ResolveSystem maps an asset to its schedule under a given system and bonus rate.
func ResolveSystem(a model.Asset, sp params.Specification, system string, bonus float64) Schedule {
	s := Schedule{
		Life:       a.Life,
		Bonus:      bonus,
		Convention: a.Convention,
		Period:     a.Period,
		Delta:      a.Delta,
	}

	switch a.Method {
	case model.MethodExpensing:
		s.Method = Expensing
		return s
	case model.MethodLand:
		s.Method, s.Bonus = None, sp.LandExpensing
		return s
	case model.MethodInventory:
		s.Method, s.Bonus = None, 0
		if sp.InventoryExpensing {
			s.Method = Expensing
		}
		return s
	case model.MethodEconomic:
		s.Method = Economic
		return s
	}

	switch system {
	case SystemEconomic:
		s.Method = Economic
	case SystemADS:
		s.Method = SL
		if a.ADSLife > 0 {
			s.Life = a.ADSLife
		}
	default:
		s.Method = gdsMethod(a)
		if a.Method == model.MethodADS && a.ADSLife > 0 {
			s.Life = a.ADSLife
		}
	}
	return s
}

func gdsMethod(a model.Asset) Method {
	switch a.Method {
	case model.MethodDB200:
		return DB200
	case model.MethodDB150:
		return DB150
	}
	return SL
}

// BySystem values an asset's deductions under each depreciation system at
// the class bonus rate, for reporting z[asset, system].
func BySystem(a model.Asset, sp params.Specification, r, pi float64) (map[string]Result, error) {
	bonus := 0.0
	if c, ok := sp.Class(a.Life); ok {
		bonus = a.Bonus * c.Bonus
	}
	out := make(map[string]Result, len(Systems))
	for _, system := range Systems {
		res, err := Z(ResolveSystem(a, sp, system, bonus), r, pi)
		if err != nil {
			return nil, err
		}
		out[system] = res
	}
	return out, nil
}
