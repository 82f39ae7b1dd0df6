package calculator

import (
	"math"

	"CostOfCapital/internal/model"
)

// Input holds the rates and asset terms for one (asset, entity, financing).
type Input struct {
	R      float64 // nominal discount rate
	RPrime float64 // nominal required return before interest deductions
	S      float64 // real saver return
	Pi     float64
	U      float64 // entity-level tax rate
	Delta  float64
	Z      float64
	ITC    float64
	W      float64 // property tax rate
	Profit float64

	Inventory bool
	Phi       float64
	YV        float64
}

// Evaluate computes every output measure for in. Undefined measures are NaN
// and the first cause is recorded in Flag.
func Evaluate(in Input) model.Measures {
	var (
		rho  float64
		flag model.Flag
	)
	if in.Inventory {
		rho, flag = InventoryCostOfCapital(in.R, in.Pi, in.U, in.Phi, in.YV)
	} else {
		rho, flag = CostOfCapital(in.R, in.Pi, in.Delta, in.Z, in.U, in.ITC, in.W)
	}
	return Derive(rho, in.Delta, in.Z, in.RPrime, in.S, in.Pi, in.U, in.Profit, flag)
}

// Derive completes the measures from a cost of capital. It is shared by the
// per-cell evaluation and the aggregator, which recomputes rates from
// weighted averages.
func Derive(rho, delta, z, rPrime, s, pi, u, profit float64, flag model.Flag) model.Measures {
	m := model.Measures{Z: z, Rho: rho, Flag: flag}
	if math.IsNaN(rho) {
		m.UCC, m.METR, m.METTR, m.TaxWedge, m.EATR = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		m.Flag = flag.Worse(model.FlagNonFinite)
		return m
	}

	m.UCC = UserCost(rho, delta)
	m.TaxWedge = TaxWedge(rho, s)

	var f model.Flag
	m.METR, f = METR(rho, rPrime, pi)
	m.Flag = m.Flag.Worse(f)
	m.METTR, _ = METTR(rho, s)

	if math.IsNaN(m.METR) || profit == 0 {
		m.EATR = math.NaN()
	} else {
		m.EATR = EATR(profit, rho, u, m.METR)
	}
	return m
}
