// Package calibrate derives household saver returns, firm discount rates and
// entity tax rates from the policy parameters.
package calibrate

import (
	"fmt"
	"math"

	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
)

// maxExpArg keeps exp() finite.
const maxExpArg = 700

// Key indexes rates by entity and financing source.
type Key struct {
	Entity    model.Entity
	Financing model.Financing
}

// AccountReturn is the real after-tax return to a saver holding a claim of
// one source in one account type.
type AccountReturn struct {
	Entity  model.Entity
	Source  model.Financing
	Account model.Account
	Share   float64
	Return  float64
}

// Gains decomposes the after-tax real return from retained earnings.
type Gains struct {
	SCG   float64
	LCG   float64
	XCG   float64
	Total float64
}

// Rates is the calibrated financial environment for one scenario.
type Rates struct {
	Inflation float64
	Interest  float64

	U map[model.Entity]float64 // entity-level marginal tax rate
	E map[model.Entity]float64 // real required return on equity
	F map[Key]float64          // debt share
	S map[Key]float64          // real after-tax saver return
	R map[Key]float64          // nominal firm discount rate
	// RPrime is the nominal return before entity-level interest deductions.
	RPrime map[Key]float64

	Accounts []AccountReturn
	Gains    Gains
	Flag     model.Flag
}

// Calibrate computes Rates for sp. Corporate quantities are solved first and
// the non-corporate and housing equity returns are set from them.
func Calibrate(sp params.Specification) (Rates, error) {
	i, pi := sp.Interest, sp.Inflation
	m := sp.M
	if sp.NewView {
		m = 1
	}
	ec := sp.ECorp

	acc := &accumulator{}

	// debt held in tax-deferred accounts
	sprimeTD := acc.accrual(i, sp.YTD, sp.TauTD) - pi
	sDebtTD := sp.Gamma*(i-pi) + (1-sp.Gamma)*sprimeTD
	debtFT := (1-sp.TauInt)*i - pi
	debtNT := i - pi
	debtReturn := func(a params.Shares) float64 {
		return a.FT*debtFT + a.TD*sDebtTD + a.NT*debtNT
	}
	sCD := debtReturn(sp.AlphaCorpDebt)
	sNCD := debtReturn(sp.AlphaNonCorpDebt)
	sHD := debtReturn(sp.AlphaHousingDebt)

	// corporate equity
	gains := Gains{
		SCG: acc.accrual(pi+m*ec, sp.YSCG, sp.TauSCG) - pi,
		LCG: acc.accrual(pi+m*ec, sp.YLCG, sp.TauLCG) - pi,
		XCG: (1 - sp.TauXCG) * m * ec,
	}
	gains.Total = sp.OmegaSCG*gains.SCG + sp.OmegaLCG*gains.LCG + sp.OmegaXCG*gains.XCG
	sCEFT := (1-m)*ec*(1-sp.TauDiv) + gains.Total
	sCETD := acc.accrual(pi+ec, sp.YTD, sp.TauTD) - pi
	sCE := sp.AlphaCorpEquity.FT*sCEFT + sp.AlphaCorpEquity.TD*sCETD + sp.AlphaCorpEquity.NT*ec

	rates := Rates{
		Inflation: pi,
		Interest:  i,
		U:         make(map[model.Entity]float64, 3),
		E:         make(map[model.Entity]float64, 3),
		F:         make(map[Key]float64, 9),
		S:         make(map[Key]float64, 9),
		R:         make(map[Key]float64, 9),
		RPrime:    make(map[Key]float64, 9),
		Gains:     gains,
	}

	rates.U[model.Corporate] = sp.CITRate
	rates.U[model.NonCorporate] = sp.TauNC
	if sp.PTEntityTax {
		rates.U[model.NonCorporate] = sp.PTEntityTaxRate
	}
	rates.U[model.Housing] = 0

	rates.E[model.Corporate] = ec
	rates.E[model.NonCorporate] = sCE
	rates.E[model.Housing] = sCE

	debtShare := map[model.Entity]float64{
		model.Corporate:    sp.FCorp,
		model.NonCorporate: sp.FNonCorp,
		model.Housing:      sp.FHousing,
	}
	saverDebt := map[model.Entity]float64{
		model.Corporate:    sCD,
		model.NonCorporate: sNCD,
		model.Housing:      sHD,
	}
	haircut := map[model.Entity]float64{
		model.Corporate:    sp.HaircutCorp,
		model.NonCorporate: sp.HaircutPT,
	}
	ace := map[model.Entity]float64{
		model.Corporate:    sp.ACECorp,
		model.NonCorporate: sp.ACENonCorp,
	}

	for _, ent := range model.Entities {
		e := rates.E[ent]
		u := rates.U[ent]
		for _, fin := range model.Financings {
			k := Key{ent, fin}
			f := financingShare(fin, debtShare[ent])
			rates.F[k] = f
			rates.S[k] = f*saverDebt[ent] + (1-f)*e

			if ent == model.Housing {
				rates.R[k] = f*i*(1-sp.TauH) + (1-f)*(e+pi)
			} else {
				rates.R[k] = f*i*(1-(1-haircut[ent])*u) +
					(1-f)*(e+pi-e*sp.ACEIntRate*ace[ent])
			}
			rates.RPrime[k] = f*i + (1-f)*(e+pi)
			if ent == model.NonCorporate && !sp.PTEntityTax {
				rates.RPrime[k] = rates.S[k] + pi
			}
		}
	}

	rates.Accounts = []AccountReturn{
		{model.Corporate, model.Debt, model.FullyTaxable, sp.AlphaCorpDebt.FT, debtFT},
		{model.Corporate, model.Debt, model.TaxDeferred, sp.AlphaCorpDebt.TD, sDebtTD},
		{model.Corporate, model.Debt, model.NonTaxable, sp.AlphaCorpDebt.NT, debtNT},
		{model.Corporate, model.Equity, model.FullyTaxable, sp.AlphaCorpEquity.FT, sCEFT},
		{model.Corporate, model.Equity, model.TaxDeferred, sp.AlphaCorpEquity.TD, sCETD},
		{model.Corporate, model.Equity, model.NonTaxable, sp.AlphaCorpEquity.NT, ec},
		{model.NonCorporate, model.Debt, model.FullyTaxable, sp.AlphaNonCorpDebt.FT, debtFT},
		{model.NonCorporate, model.Debt, model.TaxDeferred, sp.AlphaNonCorpDebt.TD, sDebtTD},
		{model.NonCorporate, model.Debt, model.NonTaxable, sp.AlphaNonCorpDebt.NT, debtNT},
		{model.Housing, model.Debt, model.FullyTaxable, sp.AlphaHousingDebt.FT, debtFT},
		{model.Housing, model.Debt, model.TaxDeferred, sp.AlphaHousingDebt.TD, sDebtTD},
		{model.Housing, model.Debt, model.NonTaxable, sp.AlphaHousingDebt.NT, debtNT},
	}

	rates.Flag = acc.flag
	if acc.flag == model.FlagLogDomain {
		return rates, fmt.Errorf("calibrate: accrual outside log domain")
	}
	return rates, nil
}

func financingShare(fin model.Financing, mix float64) float64 {
	switch fin {
	case model.Debt:
		return 1
	case model.Equity:
		return 0
	}
	return mix
}

// accumulator evaluates accrual-taxed returns and remembers the first
// numeric problem.
type accumulator struct {
	flag model.Flag
}

// accrual returns the annualized after-tax nominal return on an asset
// earning x that is held y years and taxed at tau on realization:
//
//	(1/y) * ln((1 - tau) * e^{x*y} + tau)
func (a *accumulator) accrual(x, y, tau float64) float64 {
	if y <= 0 {
		return (1 - tau) * x
	}
	arg := x * y
	if arg > maxExpArg {
		arg = maxExpArg
		a.flag = a.flag.Worse(model.FlagExpClamped)
	}
	inner := (1-tau)*math.Exp(arg) + tau
	if inner <= 0 {
		a.flag = model.FlagLogDomain
		return math.NaN()
	}
	return math.Log(inner) / y
}
