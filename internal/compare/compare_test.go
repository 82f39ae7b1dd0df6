package compare

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/loader"
	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
	"CostOfCapital/internal/pipeline"
)

func setup(t *testing.T) (*pipeline.Runner, *params.Schema) {
	t.Helper()
	ds, err := loader.NewLoader(nil).Load("", "")
	require.NoError(t, err)
	schema, err := params.LoadSchema()
	require.NoError(t, err)
	return pipeline.NewRunner(ds), schema
}

func TestReform_EmptyAdjustmentIsZero(t *testing.T) {
	runner, schema := setup(t)
	c, err := Reform(context.Background(), runner, schema, params.Adjustment{}, params.DefaultYear)
	require.NoError(t, err)

	for name, rows := range c.Diffs {
		require.NotEmpty(t, rows, name)
		for _, d := range rows {
			assert.Equal(t, 0.0, d.ChangePP, "%s %s %s %s", name, d.Key, d.Entity, d.Variable)
		}
	}
}

func TestReform_HigherCorporateRate(t *testing.T) {
	runner, schema := setup(t)
	adj := params.Adjustment{"ccc": {"CIT_rate": 0.35}}
	c, err := Reform(context.Background(), runner, schema, adj, params.DefaultYear)
	require.NoError(t, err)

	checked := 0
	for _, d := range c.Diffs[CellTable] {
		if d.Entity != model.Corporate || d.Variable != "metr" || d.Financing == model.Debt {
			continue
		}
		assert.Greater(t, d.Reform, d.Baseline, "%s %s %s", d.Key, d.Industry, d.Financing)
		checked++
	}
	assert.Greater(t, checked, 0)

	// pass-through cells are unaffected
	for _, d := range c.Diffs[CellTable] {
		if d.Entity == model.NonCorporate {
			assert.Equal(t, 0.0, d.ChangePP)
		}
	}

	rows := c.Diffs[aggregate.ByAsset]
	require.NotEmpty(t, rows)
	first := rows[0]
	assert.Equal(t, model.OverallKey, first.Key)
	assert.Equal(t, model.Corporate, first.Entity)
	assert.NotZero(t, first.ChangePP)

	d, ok := c.Find(aggregate.ByEntity, model.OverallKey, model.Corporate, model.Mix, "metr")
	require.True(t, ok)
	assert.InDelta(t, (d.Reform-d.Baseline)*100, d.ChangePP, 1e-12)
}

func TestReform_ValidationErrors(t *testing.T) {
	runner, schema := setup(t)
	adj := params.Adjustment{"ccc": {"CIT_rate": -1.0, "bogus": 1.0}}
	_, err := Reform(context.Background(), runner, schema, adj, params.DefaultYear)

	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
}

func TestReform_NegativeDiscountRate(t *testing.T) {
	runner, schema := setup(t)
	adj := params.Adjustment{"ccc": {"E_c": 0.0, "inflation_rate": -0.03, "nominal_interest_rate": 0.01}}

	_, errs := params.ApplyAdjustment(schema, adj)
	require.Empty(t, errs)

	_, err := Reform(context.Background(), runner, schema, adj, params.DefaultYear)
	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs), "%v", err)
	assert.Contains(t, verrs[0].Reason, "negative")
}

type fixedRunner struct {
	res *pipeline.Result
	err error
}

func (f fixedRunner) Run(context.Context, params.Specification) (*pipeline.Result, error) {
	return f.res, f.err
}

func TestCompare_UniverseMismatch(t *testing.T) {
	a := &pipeline.Result{Assets: []string{"A"}, Industries: []string{"1"}}
	b := &pipeline.Result{Assets: []string{"A", "B"}, Industries: []string{"1"}}

	_, err := Compare(context.Background(), Scenario{Runner: fixedRunner{res: a}}, Scenario{Runner: fixedRunner{res: b}})
	var de *model.DataError
	assert.True(t, errors.As(err, &de))
}

func TestCompare_RunnerError(t *testing.T) {
	boom := errors.New("boom")
	a := &pipeline.Result{Assets: []string{"A"}, Industries: []string{"1"}}
	_, err := Compare(context.Background(), Scenario{Runner: fixedRunner{res: a}}, Scenario{Runner: fixedRunner{err: boom}})
	assert.ErrorIs(t, err, boom)
}

func TestDiffTables_RowMismatch(t *testing.T) {
	base := aggregate.Table{Name: "asset", Rows: []model.AggregateRow{{Key: "A", Entity: model.Corporate, Financing: model.Mix}}}
	reform := aggregate.Table{Name: "asset", Rows: []model.AggregateRow{{Key: "B", Entity: model.Corporate, Financing: model.Mix}}}
	_, err := DiffTables(base, reform)
	var de *model.DataError
	assert.True(t, errors.As(err, &de))
}

func TestDiffCells_CarriesFlag(t *testing.T) {
	cell := model.Cell{AssetCode: "A", Industry: "1", Entity: model.Corporate, Financing: model.Mix,
		Measures: model.Measures{Rho: 0.05, METR: 0.2}}
	flagged := cell
	flagged.Measures = model.Measures{Rho: math.NaN(), METR: math.NaN(), Flag: model.FlagRhoNearZero}

	rows, err := DiffCells([]model.Cell{cell}, []model.Cell{flagged})
	require.NoError(t, err)
	require.Len(t, rows, len(model.Variables))
	for _, d := range rows {
		assert.Equal(t, model.FlagRhoNearZero, d.Flag, d.Variable)
	}

	rows, err = DiffCells([]model.Cell{cell}, []model.Cell{cell})
	require.NoError(t, err)
	assert.Equal(t, model.FlagNone, rows[0].Flag)
}
