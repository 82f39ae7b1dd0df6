package recorder

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CostOfCapital/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "ccc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func overall(change float64) model.DiffRow {
	return model.DiffRow{
		Table:     "entity",
		Key:       model.OverallKey,
		Entity:    model.Corporate,
		Financing: model.Mix,
		Variable:  "mettr",
		Baseline:  0.2,
		Reform:    0.2 + change/100,
		ChangePP:  change,
	}
}

func TestSQLiteRecorder_LatestOverall(t *testing.T) {
	r := openTemp(t)

	_, ok, err := r.LatestOverall("cit35", model.Corporate, model.Mix, "mettr")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.RecordDiff("cmp-1", "cit35", []model.DiffRow{overall(3)}))
	require.NoError(t, r.RecordDiff("cmp-2", "cit35", []model.DiffRow{overall(4.5)}))
	require.NoError(t, r.RecordDiff("cmp-3", "other", []model.DiffRow{overall(-1)}))

	d, ok, err := r.LatestOverall("cit35", model.Corporate, model.Mix, "mettr")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 4.5, d.ChangePP, 1e-12)
	assert.InDelta(t, 0.2, d.Baseline, 1e-12)
	assert.Equal(t, model.OverallKey, d.Key)
}

func TestSQLiteRecorder_NonFiniteStoredAsNull(t *testing.T) {
	r := openTemp(t)

	row := overall(math.NaN())
	row.Reform = math.NaN()
	require.NoError(t, r.RecordDiff("cmp-1", "nan", []model.DiffRow{row}))

	d, ok, err := r.LatestOverall("nan", model.Corporate, model.Mix, "mettr")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, math.IsNaN(d.ChangePP))
	assert.True(t, math.IsNaN(d.Reform))
	assert.InDelta(t, 0.2, d.Baseline, 1e-12)
}

func TestSQLiteRecorder_RunsAndAggregates(t *testing.T) {
	r := openTemp(t)

	require.NoError(t, r.RecordRun(&RunRecord{ID: "run-1", Scenario: "baseline", Role: RoleBaseline, Year: 2026}))
	rows := []model.AggregateRow{
		{Key: model.OverallKey, Entity: model.Corporate, Financing: model.Mix, Weight: 10,
			Measures: model.Measures{Rho: 0.07, METR: 0.14, METTR: 0.3}},
		{Key: "EP1A", Entity: model.Corporate, Financing: model.Mix, Weight: 2, Excluded: 1,
			Measures: model.Measures{Rho: math.NaN(), Flag: model.FlagRhoNearZero}},
	}
	require.NoError(t, r.RecordAggregates("run-1", "asset", rows))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM aggregate_rows WHERE run_id = ?`, "run-1").Scan(&n))
	assert.Equal(t, 2, n)

	var rho sql.NullFloat64
	var flag string
	require.NoError(t, r.db.QueryRow(`SELECT rho, flag FROM aggregate_rows WHERE key = ?`, "EP1A").Scan(&rho, &flag))
	assert.False(t, rho.Valid)
	assert.Equal(t, string(model.FlagRhoNearZero), flag)

	// duplicate run ids are rejected
	assert.Error(t, r.RecordRun(&RunRecord{ID: "run-1"}))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&RunRecord{}))
	_, ok, err := r.LatestOverall("x", model.Corporate, model.Mix, "metr")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, r.Close())
}
