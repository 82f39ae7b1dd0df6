// Package aggregate summarizes per-cell results into capital-stock weighted
// tables by asset, asset group, industry and entity.
package aggregate

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"CostOfCapital/internal/calculator"
	"CostOfCapital/internal/model"
)

// Table names.
const (
	ByAsset      = "asset"
	ByMajorGroup = "major_asset_group"
	ByIndustry   = "industry"
	ByEntity     = "entity"
)

// TableNames lists the aggregate tables in output order.
var TableNames = []string{ByAsset, ByMajorGroup, ByIndustry, ByEntity}

// Table is one aggregate table. For each (entity, financing) slice the first
// row is the weighted total keyed model.OverallKey.
type Table struct {
	Name string
	Rows []model.AggregateRow
}

// Tables holds every aggregate table of a run.
type Tables map[string]Table

// Env holds the scenario-wide values needed to rebuild rates from averages.
type Env struct {
	Inflation  float64
	ProfitRate float64
}

type sliceKey struct {
	entity    model.Entity
	financing model.Financing
}

// Aggregate builds all tables from cells.
func Aggregate(cells []model.Cell, env Env) Tables {
	return Tables{
		ByAsset:      build(ByAsset, cells, env, func(c *model.Cell) string { return c.AssetCode }, false),
		ByMajorGroup: build(ByMajorGroup, cells, env, func(c *model.Cell) string { return c.MajorGroup }, false),
		ByIndustry:   build(ByIndustry, cells, env, func(c *model.Cell) string { return c.Industry }, false),
		ByEntity:     build(ByEntity, cells, env, func(c *model.Cell) string { return string(c.Entity) }, true),
	}
}

// build groups cells by (entity, financing, key). With business set, an
// extra slice combines corporate and non-corporate cells.
func build(name string, cells []model.Cell, env Env, key func(*model.Cell) string, business bool) Table {
	groups := make(map[sliceKey]map[string][]*model.Cell)
	order := make(map[sliceKey][]string)
	add := func(sk sliceKey, k string, c *model.Cell) {
		g, ok := groups[sk]
		if !ok {
			g = make(map[string][]*model.Cell)
			groups[sk] = g
		}
		if _, seen := g[k]; !seen {
			order[sk] = append(order[sk], k)
		}
		g[k] = append(g[k], c)
	}

	for i := range cells {
		c := &cells[i]
		add(sliceKey{c.Entity, c.Financing}, key(c), c)
		if business && (c.Entity == model.Corporate || c.Entity == model.NonCorporate) {
			add(sliceKey{model.Business, c.Financing}, key(c), c)
		}
	}

	entities := model.Entities
	if business {
		entities = append([]model.Entity{model.Business}, model.Entities...)
	}

	t := Table{Name: name}
	for _, e := range entities {
		for _, f := range model.Financings {
			sk := sliceKey{e, f}
			g, ok := groups[sk]
			if !ok {
				continue
			}
			var all []*model.Cell
			for _, k := range order[sk] {
				all = append(all, g[k]...)
			}
			t.Rows = append(t.Rows, summarize(model.OverallKey, e, f, all, env))
			for _, k := range order[sk] {
				t.Rows = append(t.Rows, summarize(k, e, f, g[k], env))
			}
		}
	}
	return t
}

// summarize computes weighted means of the rate inputs over cells and
// rebuilds the measures from them, so METR and METTR hold exactly for the
// averaged rho.
func summarize(key string, e model.Entity, f model.Financing, cells []*model.Cell, env Env) model.AggregateRow {
	row := model.AggregateRow{Key: key, Entity: e, Financing: f}

	var w, rho, delta, z, rPrime, s, u []float64
	for _, c := range cells {
		row.Weight += c.Weight
		if math.IsNaN(c.Rho) || math.IsNaN(c.Z) {
			row.Excluded++
			continue
		}
		w = append(w, c.Weight)
		rho = append(rho, c.Rho)
		delta = append(delta, c.Delta)
		z = append(z, c.Z)
		rPrime = append(rPrime, c.RPrime)
		s = append(s, c.S)
		u = append(u, c.U)
	}
	if len(w) == 0 {
		nan := math.NaN()
		row.Delta, row.RPrime, row.S, row.U = nan, nan, nan, nan
		row.Measures = calculator.Derive(nan, nan, nan, nan, nan, env.Inflation, nan, env.ProfitRate, model.FlagNonFinite)
		return row
	}

	row.Delta = WeightedMean(delta, w)
	row.RPrime = WeightedMean(rPrime, w)
	row.S = WeightedMean(s, w)
	row.U = WeightedMean(u, w)
	row.Measures = calculator.Derive(
		WeightedMean(rho, w), row.Delta, WeightedMean(z, w),
		row.RPrime, row.S, env.Inflation, row.U, env.ProfitRate, model.FlagNone,
	)
	return row
}

// WeightedMean returns sum(w*x)/sum(w), falling back to the plain mean when
// the weights sum to zero.
func WeightedMean(x, w []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	total := floats.Sum(w)
	if total == 0 {
		return floats.Sum(x) / float64(len(x))
	}
	return floats.Dot(x, w) / total
}

// Row finds a row by key, entity and financing.
func (t Table) Row(key string, e model.Entity, f model.Financing) (model.AggregateRow, bool) {
	for _, r := range t.Rows {
		if r.Key == key && r.Entity == e && r.Financing == f {
			return r, true
		}
	}
	return model.AggregateRow{}, false
}
