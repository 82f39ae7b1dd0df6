package calculator

import (
	"math"

	"CostOfCapital/internal/model"
)

// Tolerance below which a denominator is treated as zero.
const Tolerance = 1e-12

const maxExpArg = 700

// CostOfCapital computes the real pre-tax return a marginal investment must
// earn:
//
//	rho = ((r - pi + delta) / (1 - u)) * (1 - itc - u*z) + w - delta
func CostOfCapital(r, pi, delta, z, u, itc, w float64) (float64, model.Flag) {
	if math.Abs(1-u) < Tolerance {
		return math.NaN(), model.FlagDenominator
	}
	rho := ((r-pi+delta)/(1-u))*(1-itc-u*z) + w - delta
	return finite(rho)
}

// InventoryCostOfCapital is the cost of capital of inventories held yv years,
// valued with a phi share on FIFO and the rest on LIFO accounting.
func InventoryCostOfCapital(r, pi, u, phi, yv float64) (float64, model.Flag) {
	if math.Abs(1-u) < Tolerance {
		return math.NaN(), model.FlagDenominator
	}
	if yv <= 0 {
		return math.NaN(), model.FlagDenominator
	}
	flag := model.FlagNone
	growth := func(x float64) float64 {
		if x > maxExpArg {
			flag = model.FlagExpClamped
			x = maxExpArg
		}
		return math.Exp(x)
	}
	fifoArg := (growth(r*yv) - u) / (1 - u)
	lifoArg := (growth((r-pi)*yv) - u) / (1 - u)
	if fifoArg <= 0 || lifoArg <= 0 {
		return math.NaN(), model.FlagLogDomain
	}
	fifo := math.Log(fifoArg)/yv - pi
	lifo := math.Log(lifoArg) / yv
	rho, f := finite(phi*fifo + (1-phi)*lifo)
	return rho, f.Worse(flag)
}

// UserCost is the gross return covering depreciation: rho + delta.
func UserCost(rho, delta float64) float64 {
	return rho + delta
}

// METR is the marginal effective tax rate at the entity level:
//
//	metr = (rho - (rPrime - pi)) / rho
func METR(rho, rPrime, pi float64) (float64, model.Flag) {
	if math.Abs(rho) < Tolerance {
		return math.NaN(), model.FlagRhoNearZero
	}
	return (rho - (rPrime - pi)) / rho, model.FlagNone
}

// METTR is the marginal effective total tax rate including saver taxes:
//
//	mettr = (rho - s) / rho
func METTR(rho, s float64) (float64, model.Flag) {
	if math.Abs(rho) < Tolerance {
		return math.NaN(), model.FlagRhoNearZero
	}
	return (rho - s) / rho, model.FlagNone
}

// TaxWedge is the gap between the pre-tax and saver returns.
func TaxWedge(rho, s float64) float64 {
	return rho - s
}

// EATR is the effective average tax rate on an investment earning profit
// rate p:
//
//	eatr = ((p - rho) / p) * u + (rho / p) * metr
func EATR(p, rho, u, metr float64) float64 {
	return ((p-rho)/p)*u + (rho/p)*metr
}

func finite(v float64) (float64, model.Flag) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), model.FlagNonFinite
	}
	return v, model.FlagNone
}
