package loader

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"CostOfCapital/internal/model"
)

// Weights holds the capital stock of each (asset, industry) pair per entity
// as dense |asset| x |industry| matrices.
type Weights struct {
	Assets     []string
	Industries []string
	Matrix     map[model.Entity]*mat.Dense

	assetIdx    map[string]int
	industryIdx map[string]int
}

// NewWeights creates an all-zero weight set over the given universes.
func NewWeights(assets, industries []string) *Weights {
	w := &Weights{
		Assets:      append([]string(nil), assets...),
		Industries:  append([]string(nil), industries...),
		Matrix:      make(map[model.Entity]*mat.Dense, len(model.Entities)),
		assetIdx:    make(map[string]int, len(assets)),
		industryIdx: make(map[string]int, len(industries)),
	}
	for i, a := range assets {
		w.assetIdx[a] = i
	}
	for j, ind := range industries {
		w.industryIdx[ind] = j
	}
	for _, e := range model.Entities {
		w.Matrix[e] = mat.NewDense(len(assets), len(industries), nil)
	}
	return w
}

// Add accumulates capital stock for an entity. Unknown codes are ignored.
func (w *Weights) Add(e model.Entity, asset, industry string, v float64) {
	i, ok := w.assetIdx[asset]
	j, ok2 := w.industryIdx[industry]
	if !ok || !ok2 {
		return
	}
	m := w.Matrix[e]
	m.Set(i, j, m.At(i, j)+v)
}

// At returns the capital stock of (asset, industry) for an entity.
func (w *Weights) At(e model.Entity, asset, industry string) float64 {
	i, ok := w.assetIdx[asset]
	j, ok2 := w.industryIdx[industry]
	if !ok || !ok2 {
		return 0
	}
	return w.Matrix[e].At(i, j)
}

// RowSums returns the capital stock of each asset across industries.
func (w *Weights) RowSums(e model.Entity) []float64 {
	m := w.Matrix[e]
	out := make([]float64, len(w.Assets))
	for i := range out {
		out[i] = mat.Sum(m.RowView(i))
	}
	return out
}

// ColSums returns the capital stock of each industry across assets.
func (w *Weights) ColSums(e model.Entity) []float64 {
	m := w.Matrix[e]
	out := make([]float64, len(w.Industries))
	for j := range out {
		out[j] = mat.Sum(m.ColView(j))
	}
	return out
}

// Total returns the entity's total capital stock.
func (w *Weights) Total(e model.Entity) float64 {
	return mat.Sum(w.Matrix[e])
}

// ParseWeights decodes the capital-stock table against the known assets.
// Rows without a tax_treat contribute to both business entity slices.
func ParseWeights(source string, data []byte, assets []model.Asset) (*Weights, error) {
	t, err := readTable(source, data, weightColumns)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(assets))
	codes := make([]string, len(assets))
	for i, a := range assets {
		known[a.Code] = true
		codes[i] = a.Code
	}

	type entry struct {
		asset, industry string
		value           float64
		treat           model.TaxTreat
	}
	entries := make([]entry, 0, len(t.rows))
	industrySet := make(map[string]bool)

	for i, rec := range t.rows {
		row := i + 1
		e := entry{
			asset:    t.get(rec, "bea_asset_code"),
			industry: t.get(rec, "industry_code"),
			treat:    model.TaxTreat(t.get(rec, "tax_treat")),
		}
		if !known[e.asset] {
			return nil, &model.DataError{Source: source, Row: row, Msg: fmt.Sprintf("unknown asset %q", e.asset)}
		}
		if e.industry == "" {
			return nil, &model.DataError{Source: source, Row: row, Msg: "empty industry_code"}
		}
		switch e.treat {
		case model.TreatBusiness, model.TreatCorporate, model.TreatNonCorp, model.TreatOwnerOccHsg:
		default:
			return nil, &model.DataError{Source: source, Row: row, Msg: fmt.Sprintf("unknown tax_treat %q", e.treat)}
		}
		if e.value, err = t.float(rec, row, "capital_stock", false); err != nil {
			return nil, err
		}
		if e.value < 0 {
			return nil, &model.DataError{Source: source, Row: row, Msg: fmt.Sprintf("negative capital_stock %g", e.value)}
		}
		industrySet[e.industry] = true
		entries = append(entries, e)
	}

	industries := make([]string, 0, len(industrySet))
	for ind := range industrySet {
		industries = append(industries, ind)
	}
	sort.Strings(industries)

	w := NewWeights(codes, industries)
	for _, e := range entries {
		for _, ent := range e.treat.Entities() {
			w.Add(ent, e.asset, e.industry, e.value)
		}
	}
	return w, nil
}
