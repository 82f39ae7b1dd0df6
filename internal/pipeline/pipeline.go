// Package pipeline runs one policy scenario end to end: calibration,
// depreciation, cost of capital per cell and aggregation.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/calculator"
	"CostOfCapital/internal/calibrate"
	"CostOfCapital/internal/depreciation"
	"CostOfCapital/internal/loader"
	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
)

// ZRow is the value of deductions for an asset under one depreciation system.
type ZRow struct {
	AssetCode string
	AssetName string
	System    string
	Z         float64
	Flag      model.Flag
}

// Result is the output of one scenario run.
type Result struct {
	RunID        string
	Year         int
	Assets       []string
	Industries   []string
	Rates        calibrate.Rates
	Cells        []model.Cell
	Depreciation []ZRow
	Tables       aggregate.Tables
}

// Runner evaluates scenarios over a fixed dataset.
type Runner struct {
	Data *loader.Dataset
}

// NewRunner creates a Runner over ds.
func NewRunner(ds *loader.Dataset) *Runner {
	return &Runner{Data: ds}
}

// Run evaluates sp. Numeric problems in individual cells are flagged, not
// returned as errors.
func (r *Runner) Run(ctx context.Context, sp params.Specification) (*Result, error) {
	rates, err := calibrate.Calibrate(sp)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := r.Data.Weights
	res := &Result{
		RunID:      uuid.NewString(),
		Year:       sp.Year,
		Assets:     w.Assets,
		Industries: w.Industries,
		Rates:      rates,
	}

	held := make(map[model.Entity]map[string]bool, len(model.Entities))
	for _, e := range model.Entities {
		held[e] = make(map[string]bool, len(w.Assets))
		for i, stock := range w.RowSums(e) {
			held[e][w.Assets[i]] = stock > 0
		}
	}

	for _, a := range r.Data.Assets {
		sched := depreciation.Resolve(a, sp)
		for _, e := range model.Entities {
			if !held[e][a.Code] {
				continue
			}
			weights := make([]float64, len(w.Industries))
			for j, ind := range w.Industries {
				weights[j] = w.At(e, a.Code, ind)
			}
			for _, f := range model.Financings {
				m, err := r.evaluate(a, sched, sp, rates, e, f)
				if err != nil {
					return nil, err
				}
				k := calibrate.Key{Entity: e, Financing: f}
				for j, ind := range w.Industries {
					if weights[j] <= 0 {
						continue
					}
					res.Cells = append(res.Cells, model.Cell{
						AssetCode:  a.Code,
						AssetName:  a.Name,
						MajorGroup: a.MajorGroup,
						Industry:   ind,
						Entity:     e,
						Financing:  f,
						Weight:     weights[j],
						Delta:      a.Delta,
						RPrime:     rates.RPrime[k],
						S:          rates.S[k],
						U:          rates.U[e],
						Measures:   m,
					})
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	res.Depreciation, err = depreciationTable(r.Data.Assets, sp, rates)
	if err != nil {
		return nil, err
	}
	res.Tables = aggregate.Aggregate(res.Cells, aggregate.Env{
		Inflation:  sp.Inflation,
		ProfitRate: sp.ProfitRate,
	})
	if err := checkCoverage(res.Tables, w); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) evaluate(a model.Asset, sched depreciation.Schedule, sp params.Specification,
	rates calibrate.Rates, e model.Entity, f model.Financing) (model.Measures, error) {
	k := calibrate.Key{Entity: e, Financing: f}
	disc := rates.R[k]

	zr, err := depreciation.Z(sched, disc, sp.Inflation)
	if err != nil {
		return model.Measures{}, fmt.Errorf("asset %s (%s, %s): %w", a.Code, e, f, err)
	}

	in := calculator.Input{
		R:         disc,
		RPrime:    rates.RPrime[k],
		S:         rates.S[k],
		Pi:        sp.Inflation,
		U:         rates.U[e],
		Delta:     a.Delta,
		Z:         zr.Z,
		ITC:       sp.ITC,
		W:         sp.PropertyTax,
		Profit:    sp.ProfitRate,
		Inventory: a.IsInventory() && !sp.InventoryExpensing,
		Phi:       sp.Phi,
		YV:        sp.YV,
	}
	if e == model.Housing {
		// owner-occupied housing earns no credit
		in.ITC = 0
	}
	if math.IsNaN(zr.Z) && !in.Inventory {
		m := calculator.Derive(math.NaN(), a.Delta, zr.Z, in.RPrime, in.S, in.Pi, in.U, in.Profit, zr.Flag)
		return m, nil
	}
	m := calculator.Evaluate(in)
	m.Flag = zr.Flag.Worse(m.Flag).Worse(rates.Flag)
	return m, nil
}

// depreciationTable values each asset under every system at the corporate
// typical discount rate.
func depreciationTable(assets []model.Asset, sp params.Specification, rates calibrate.Rates) ([]ZRow, error) {
	disc := rates.R[calibrate.Key{Entity: model.Corporate, Financing: model.Mix}]
	rows := make([]ZRow, 0, len(assets)*len(depreciation.Systems))
	for _, a := range assets {
		bySystem, err := depreciation.BySystem(a, sp, disc, sp.Inflation)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.Code, err)
		}
		for _, system := range depreciation.Systems {
			zr := bySystem[system]
			rows = append(rows, ZRow{AssetCode: a.Code, AssetName: a.Name, System: system, Z: zr.Z, Flag: zr.Flag})
		}
	}
	return rows, nil
}
