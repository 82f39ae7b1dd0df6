// Package report renders run and comparison results as CSV, Excel and JSON
// tables and as a short text summary.
package report

import (
	"math"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/calibrate"
	"CostOfCapital/internal/compare"
	"CostOfCapital/internal/model"
	"CostOfCapital/internal/pipeline"
)

// Sheet is one output table. Missing or non-finite numbers are nil.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

var measureHeader = []string{"z", "rho", "ucc", "metr", "mettr", "tax_wedge", "eatr", "flag"}

func num(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func measures(m model.Measures) []any {
	return []any{num(m.Z), num(m.Rho), num(m.UCC), num(m.METR), num(m.METTR), num(m.TaxWedge), num(m.EATR), string(m.Flag)}
}

// CellSheet lists every (asset, industry, entity, financing) cell.
func CellSheet(name string, cells []model.Cell) Sheet {
	s := Sheet{
		Name:   name,
		Header: append([]string{"asset_code", "asset", "major_asset_group", "industry", "tax_treat", "financing", "weight", "delta"}, measureHeader...),
		Rows:   make([][]any, 0, len(cells)),
	}
	for _, c := range cells {
		row := []any{c.AssetCode, c.AssetName, c.MajorGroup, c.Industry, string(c.Entity), string(c.Financing), num(c.Weight), num(c.Delta)}
		s.Rows = append(s.Rows, append(row, measures(c.Measures)...))
	}
	return s
}

// AggregateSheet lists an aggregate table.
func AggregateSheet(name string, t aggregate.Table) Sheet {
	s := Sheet{
		Name:   name,
		Header: append([]string{t.Name, "tax_treat", "financing", "weight", "excluded"}, measureHeader...),
		Rows:   make([][]any, 0, len(t.Rows)),
	}
	for _, r := range t.Rows {
		row := []any{r.Key, string(r.Entity), string(r.Financing), num(r.Weight), r.Excluded}
		s.Rows = append(s.Rows, append(row, measures(r.Measures)...))
	}
	return s
}

// ChangeColumn heads the percentage-point change in difference tables.
const ChangeColumn = "Change from Baseline (pp)"

// DiffSheet lists baseline, reform and change for every variable. The flag
// column explains blank values.
func DiffSheet(name string, rows []model.DiffRow) Sheet {
	s := Sheet{
		Name:   name,
		Header: []string{"key", "industry", "tax_treat", "financing", "variable", "baseline", "reform", ChangeColumn, "flag"},
		Rows:   make([][]any, 0, len(rows)),
	}
	for _, d := range rows {
		s.Rows = append(s.Rows, []any{
			d.Key, d.Industry, string(d.Entity), string(d.Financing), d.Variable,
			num(d.Baseline), num(d.Reform), num(d.ChangePP), string(d.Flag),
		})
	}
	return s
}

// DepreciationSheet lists the value of deductions of each asset under every
// depreciation system.
func DepreciationSheet(name string, rows []pipeline.ZRow) Sheet {
	s := Sheet{Name: name, Header: []string{"asset_code", "asset", "system", "z", "flag"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.AssetCode, r.AssetName, r.System, num(r.Z), string(r.Flag)})
	}
	return s
}

// ReturnsSheet lists saver returns by claim and account type.
func ReturnsSheet(name string, rates calibrate.Rates) Sheet {
	s := Sheet{Name: name, Header: []string{"tax_treat", "source", "account", "share", "return"}}
	for _, a := range rates.Accounts {
		s.Rows = append(s.Rows, []any{string(a.Entity), string(a.Source), string(a.Account), num(a.Share), num(a.Return)})
	}
	return s
}

// RunSheets renders a single run with the given name prefix.
func RunSheets(prefix string, res *pipeline.Result) []Sheet {
	sheets := []Sheet{CellSheet(prefix+"_cells", res.Cells)}
	for _, name := range aggregate.TableNames {
		sheets = append(sheets, AggregateSheet(prefix+"_"+name, res.Tables[name]))
	}
	return append(sheets,
		DepreciationSheet(prefix+"_depreciation", res.Depreciation),
		ReturnsSheet(prefix+"_returns", res.Rates),
	)
}

// ComparisonSheets renders both runs and every difference table.
func ComparisonSheets(c *compare.Comparison) []Sheet {
	sheets := RunSheets("baseline", c.Baseline)
	sheets = append(sheets, RunSheets("reform", c.Reform)...)
	for _, name := range aggregate.TableNames {
		sheets = append(sheets, DiffSheet("diff_"+name, c.Diffs[name]))
	}
	return append(sheets, DiffSheet("diff_"+compare.CellTable, c.Diffs[compare.CellTable]))
}
