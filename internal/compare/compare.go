// Package compare runs a baseline and a reform scenario and differences
// their results.
package compare

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/calibrate"
	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
	"CostOfCapital/internal/pipeline"
)

// CellTable names the per-cell difference table.
const CellTable = "cell"

// Runner evaluates one scenario.
type Runner interface {
	Run(ctx context.Context, sp params.Specification) (*pipeline.Result, error)
}

// Scenario pairs a runner with the parameters to evaluate.
type Scenario struct {
	Runner Runner
	Spec   params.Specification
}

// Comparison holds both runs and their differences keyed by table name.
type Comparison struct {
	ID       string
	Baseline *pipeline.Result
	Reform   *pipeline.Result
	Diffs    map[string][]model.DiffRow
}

// Compare runs both scenarios concurrently and differences every table.
func Compare(ctx context.Context, baseline, reform Scenario) (*Comparison, error) {
	var base, ref *pipeline.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = baseline.Runner.Run(gctx, baseline.Spec)
		if err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ref, err = reform.Runner.Run(gctx, reform.Spec)
		if err != nil {
			return fmt.Errorf("reform: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !slices.Equal(base.Assets, ref.Assets) || !slices.Equal(base.Industries, ref.Industries) {
		return nil, &model.DataError{Source: "compare", Msg: "baseline and reform asset or industry universes differ"}
	}

	c := &Comparison{
		ID:       uuid.NewString(),
		Baseline: base,
		Reform:   ref,
		Diffs:    make(map[string][]model.DiffRow, len(aggregate.TableNames)+1),
	}
	for _, name := range aggregate.TableNames {
		rows, err := DiffTables(base.Tables[name], ref.Tables[name])
		if err != nil {
			return nil, err
		}
		c.Diffs[name] = rows
	}
	cells, err := DiffCells(base.Cells, ref.Cells)
	if err != nil {
		return nil, err
	}
	c.Diffs[CellTable] = cells

	log.Printf("[INFO] comparison %s: baseline %s, reform %s", c.ID, base.RunID, ref.RunID)
	return c, nil
}

// Reform validates adj against the baseline schema and compares the two
// policies for year over the same runner. Invalid adjustments, including
// combinations that calibrate to a negative discount rate, are returned as
// model.ValidationErrors before either scenario starts.
func Reform(ctx context.Context, runner Runner, base *params.Schema, adj params.Adjustment, year int) (*Comparison, error) {
	reformed, errs := params.ApplyAdjustment(base, adj)
	if len(errs) > 0 {
		return nil, errs
	}
	baseSpec, err := base.Specification(year)
	if err != nil {
		return nil, err
	}
	reformSpec, err := reformed.Specification(year)
	if err != nil {
		return nil, err
	}
	if errs := calibrate.Check(reformSpec); len(errs) > 0 {
		return nil, errs
	}
	return Compare(ctx, Scenario{runner, baseSpec}, Scenario{runner, reformSpec})
}

type rowKey struct {
	key       string
	industry  string
	entity    model.Entity
	financing model.Financing
}

// DiffTables aligns two aggregate tables row by row.
func DiffTables(base, reform aggregate.Table) ([]model.DiffRow, error) {
	refRows := make(map[rowKey]model.Measures, len(reform.Rows))
	for _, r := range reform.Rows {
		refRows[rowKey{key: r.Key, entity: r.Entity, financing: r.Financing}] = r.Measures
	}
	if len(refRows) != len(base.Rows) {
		return nil, mismatch(base.Name)
	}

	out := make([]model.DiffRow, 0, len(base.Rows)*len(model.Variables))
	for _, b := range base.Rows {
		k := rowKey{key: b.Key, entity: b.Entity, financing: b.Financing}
		r, ok := refRows[k]
		if !ok {
			return nil, mismatch(base.Name)
		}
		out = appendDiffs(out, base.Name, k, b.Measures, r)
	}
	return out, nil
}

// DiffCells aligns two per-cell tables by (asset, industry, entity, financing).
func DiffCells(base, reform []model.Cell) ([]model.DiffRow, error) {
	refCells := make(map[rowKey]model.Measures, len(reform))
	for _, c := range reform {
		refCells[rowKey{c.AssetCode, c.Industry, c.Entity, c.Financing}] = c.Measures
	}
	if len(refCells) != len(base) {
		return nil, mismatch(CellTable)
	}

	out := make([]model.DiffRow, 0, len(base)*len(model.Variables))
	for _, c := range base {
		k := rowKey{c.AssetCode, c.Industry, c.Entity, c.Financing}
		r, ok := refCells[k]
		if !ok {
			return nil, mismatch(CellTable)
		}
		out = appendDiffs(out, CellTable, k, c.Measures, r)
	}
	return out, nil
}

func appendDiffs(out []model.DiffRow, table string, k rowKey, base, reform model.Measures) []model.DiffRow {
	for _, v := range model.Variables {
		bv, _ := base.Value(v)
		rv, _ := reform.Value(v)
		out = append(out, model.DiffRow{
			Table:     table,
			Key:       k.key,
			Industry:  k.industry,
			Entity:    k.entity,
			Financing: k.financing,
			Variable:  v,
			Baseline:  bv,
			Reform:    rv,
			ChangePP:  (rv - bv) * 100,
			Flag:      base.Flag.Worse(reform.Flag),
		})
	}
	return out
}

func mismatch(table string) error {
	return &model.DataError{Source: "compare", Msg: fmt.Sprintf("%s table rows differ between baseline and reform", table)}
}

// Find returns the difference row for a table, key, entity, financing and variable.
func (c *Comparison) Find(table, key string, e model.Entity, f model.Financing, variable string) (model.DiffRow, bool) {
	for _, d := range c.Diffs[table] {
		if d.Key == key && d.Entity == e && d.Financing == f && d.Variable == variable {
			return d, true
		}
	}
	return model.DiffRow{}, false
}
