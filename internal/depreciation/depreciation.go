// Package depreciation computes the present value of tax depreciation
// deductions per dollar of investment (z) in continuous time.
package depreciation

import (
	"errors"
	"fmt"
	"math"

	"CostOfCapital/internal/model"
)

// ErrNegativeRate is returned for a negative or NaN discount rate.
var ErrNegativeRate = errors.New("discount rate must be non-negative")

const tolerance = 1e-12

// Method is a resolved cost-recovery method.
type Method string

const (
	DB200     Method = "DB 200%"
	DB150     Method = "DB 150%"
	SL        Method = "SL"
	Economic  Method = "Economic"
	Expensing Method = "Expensing"
	None      Method = "None" // non-depreciable
)

// Schedule is everything needed to value one asset's deductions.
type Schedule struct {
	Method     Method
	Life       float64
	Bonus      float64
	Convention model.Convention
	Period     int
	Delta      float64
}

// Result is a z value and the reason it is undefined, if any.
type Result struct {
	Z    float64
	Flag model.Flag
}

// FirstYearFraction is the share of the first tax year the asset is in
// service. A zero period averages over the year.
func FirstYearFraction(c model.Convention, period int) float64 {
	switch c {
	case model.MidQuarter:
		if period >= 1 && period <= 4 {
			return (4.5 - float64(period)) / 4
		}
	case model.MidMonth:
		if period >= 1 && period <= 12 {
			return (12.5 - float64(period)) / 12
		}
	}
	return 0.5
}

// Z returns the present value of deductions for s at nominal discount rate r
// and inflation pi. Bonus depreciation is taken immediately and the rest of
// the basis follows the method:
//
//	z = bonus + (1 - bonus) * z_method
func Z(s Schedule, r, pi float64) (Result, error) {
	if r < 0 || math.IsNaN(r) {
		return Result{Z: math.NaN()}, ErrNegativeRate
	}

	var base float64
	timed := false
	switch s.Method {
	case Expensing:
		base = 1
	case None:
		base = 0
	case Economic:
		den := s.Delta + r - pi
		if math.Abs(den) < tolerance {
			return Result{Z: math.NaN(), Flag: model.FlagDenominator}, nil
		}
		base = s.Delta / den
	case SL:
		base, timed = StraightLine(s.Life, r), true
	case DB200:
		base, timed = DecliningBalance(2, s.Life, r), true
	case DB150:
		base, timed = DecliningBalance(1.5, s.Life, r), true
	default:
		return Result{Z: math.NaN()}, fmt.Errorf("unknown depreciation method %q", s.Method)
	}

	if timed && s.Life > 0 {
		// closed forms assume half-year placement
		f1 := FirstYearFraction(s.Convention, s.Period)
		base = math.Min(1, base*math.Exp(r*(f1-0.5)))
	}

	z := s.Bonus + (1-s.Bonus)*base
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return Result{Z: math.NaN(), Flag: model.FlagNonFinite}, nil
	}
	return Result{Z: z}, nil
}

// StraightLine is the value of deducting the basis evenly over life years:
//
//	z = (1 - e^{-r*life}) / (r*life)
func StraightLine(life, r float64) float64 {
	if life <= 0 {
		return 1
	}
	return expFraction(r * life)
}

// DecliningBalance is the value of deducting at rate b/life on the remaining
// basis, switching to straight line over the remaining life at the first
// year start where straight line is at least as large:
//
//	z = beta/(beta+r) * (1 - e^{-(beta+r)t}) + e^{-beta t} e^{-r t} SL(life-t, r)
func DecliningBalance(b, life, r float64) float64 {
	if life <= 0 {
		return 1
	}
	if b <= 1 {
		return StraightLine(life, r)
	}
	beta := b / life
	t := math.Ceil(life*(1-1/b) - tolerance)
	if t >= life {
		t = life * (1 - 1/b)
	}
	db := beta / (beta + r) * -math.Expm1(-(beta+r)*t)
	remaining := math.Exp(-beta * t)
	return db + remaining*math.Exp(-r*t)*expFraction(r*(life-t))
}

// expFraction returns (1 - e^{-x}) / x, which tends to 1 as x goes to 0.
func expFraction(x float64) float64 {
	if math.Abs(x) < tolerance {
		return 1 - x/2
	}
	return -math.Expm1(-x) / x
}
