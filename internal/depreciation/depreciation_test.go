package depreciation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate/quad"

	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
)

func TestZ_StraightLineWithBonus(t *testing.T) {
	lives := []float64{40, 1, 10, 20, 8}
	bonus := []float64{0, 0, 0.4, 1, 1.2}
	want := []float64{0.206618803, 0.942329694, 0.749402894, 1, 1.071436018}

	for i := range lives {
		res, err := Z(Schedule{Method: SL, Life: lives[i], Bonus: bonus[i], Convention: model.HalfYear}, 0.12, 0)
		require.NoError(t, err)
		assert.InDelta(t, want[i], res.Z, 1e-8, "case %d", i)
	}
}

func TestZ_EconomicWithBonus(t *testing.T) {
	deltas := []float64{0.01, 0.1, 0.1, 0.02, 0.1}
	bonus := []float64{0, 0, 0.4, 1, 1.2}
	want := []float64{0.1, 0.526315789, 0.715789474, 1, 1.094736842}

	for i := range deltas {
		res, err := Z(Schedule{Method: Economic, Delta: deltas[i], Bonus: bonus[i]}, 0.12, 0.03)
		require.NoError(t, err)
		assert.InDelta(t, want[i], res.Z, 1e-8, "case %d", i)
	}
}

// dbIntegral integrates the declining-balance deduction stream numerically.
func dbIntegral(b, life, r float64) float64 {
	beta := b / life
	t := math.Ceil(life*(1-1/b) - 1e-12)
	remaining := math.Exp(-beta * t)
	db := quad.Fixed(func(x float64) float64 {
		return beta * math.Exp(-beta*x) * math.Exp(-r*x)
	}, 0, t, 64, nil, 0)
	sl := quad.Fixed(func(x float64) float64 {
		return remaining / (life - t) * math.Exp(-r*x)
	}, t, life, 64, nil, 0)
	return db + sl
}

func TestDecliningBalance_MatchesQuadrature(t *testing.T) {
	tests := []struct {
		b, life, r float64
	}{
		{2, 3, 0.06},
		{2, 5, 0.06},
		{2, 7, 0.08},
		{2, 10, 0.03},
		{1.5, 15, 0.06},
		{1.5, 20, 0.1},
	}
	for _, tt := range tests {
		got := DecliningBalance(tt.b, tt.life, tt.r)
		assert.InDelta(t, dbIntegral(tt.b, tt.life, tt.r), got, 1e-9, "b=%g life=%g r=%g", tt.b, tt.life, tt.r)
	}
}

func TestZ_FiveYearDB200HalfYear(t *testing.T) {
	res, err := Z(Schedule{Method: DB200, Life: 5, Convention: model.HalfYear}, 0.06, 0)
	require.NoError(t, err)
	assert.Greater(t, res.Z, 0.88)
	assert.Less(t, res.Z, 0.895)
}

func TestZ_ZeroRate(t *testing.T) {
	for _, m := range []Method{SL, DB200, DB150} {
		res, err := Z(Schedule{Method: m, Life: 7, Convention: model.HalfYear}, 0, 0)
		require.NoError(t, err)
		assert.InDelta(t, 1, res.Z, 1e-12, "method %s", m)
	}
}

func TestZ_NegativeRate(t *testing.T) {
	_, err := Z(Schedule{Method: SL, Life: 5}, -0.01, 0)
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestZ_SpecialMethods(t *testing.T) {
	res, err := Z(Schedule{Method: Expensing}, 0.07, 0.02)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Z)

	res, err = Z(Schedule{Method: SL, Life: 0}, 0.07, 0.02)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Z)

	res, err = Z(Schedule{Method: None, Bonus: 0.25}, 0.07, 0.02)
	require.NoError(t, err)
	assert.Equal(t, 0.25, res.Z)

	res, err = Z(Schedule{Method: Economic, Delta: 0.01}, 0.02, 0.03)
	require.NoError(t, err)
	assert.Equal(t, model.FlagDenominator, res.Flag)
	assert.True(t, math.IsNaN(res.Z))
}

func TestZ_Bounds(t *testing.T) {
	for _, m := range []Method{SL, DB200, DB150} {
		for _, life := range []float64{3, 5, 7, 10, 15, 20, 27.5, 39} {
			for _, r := range []float64{0, 0.01, 0.05, 0.12, 0.3} {
				res, err := Z(Schedule{Method: m, Life: life, Convention: model.HalfYear}, r, 0.02)
				require.NoError(t, err)
				assert.Greater(t, res.Z, 0.0)
				assert.LessOrEqual(t, res.Z, 1.0+1e-12)
			}
		}
	}
}

func TestZ_Monotonicity(t *testing.T) {
	for _, m := range []Method{SL, DB200, DB150} {
		prev := 2.0
		for _, life := range []float64{3, 5, 7, 10, 15, 20, 25, 39} {
			res, _ := Z(Schedule{Method: m, Life: life, Convention: model.HalfYear}, 0.07, 0)
			assert.Less(t, res.Z, prev, "method %s life %g", m, life)
			prev = res.Z
		}

		prev = 2.0
		for _, r := range []float64{0.01, 0.03, 0.05, 0.1, 0.2} {
			res, _ := Z(Schedule{Method: m, Life: 7, Convention: model.HalfYear}, r, 0)
			assert.Less(t, res.Z, prev, "method %s r %g", m, r)
			prev = res.Z
		}

		prev = -1.0
		for _, b := range []float64{0, 0.2, 0.5, 0.8, 1} {
			res, _ := Z(Schedule{Method: m, Life: 7, Bonus: b, Convention: model.HalfYear}, 0.07, 0)
			assert.GreaterOrEqual(t, res.Z, prev, "method %s bonus %g", m, b)
			prev = res.Z
		}
	}
}

func TestZ_Conventions(t *testing.T) {
	hy, _ := Z(Schedule{Method: SL, Life: 39, Convention: model.HalfYear}, 0.07, 0)
	avg, _ := Z(Schedule{Method: SL, Life: 39, Convention: model.MidMonth}, 0.07, 0)
	jan, _ := Z(Schedule{Method: SL, Life: 39, Convention: model.MidMonth, Period: 1}, 0.07, 0)
	dec, _ := Z(Schedule{Method: SL, Life: 39, Convention: model.MidMonth, Period: 12}, 0.07, 0)

	assert.InDelta(t, hy.Z, avg.Z, 1e-15)
	assert.Greater(t, jan.Z, hy.Z)
	assert.Less(t, dec.Z, hy.Z)

	q1, _ := Z(Schedule{Method: DB200, Life: 5, Convention: model.MidQuarter, Period: 1}, 0.07, 0)
	q4, _ := Z(Schedule{Method: DB200, Life: 5, Convention: model.MidQuarter, Period: 4}, 0.07, 0)
	assert.Greater(t, q1.Z, q4.Z)
	assert.LessOrEqual(t, q1.Z, 1.0)
}

func TestFirstYearFraction(t *testing.T) {
	assert.Equal(t, 0.5, FirstYearFraction(model.HalfYear, 0))
	assert.Equal(t, 0.875, FirstYearFraction(model.MidQuarter, 1))
	assert.Equal(t, 0.125, FirstYearFraction(model.MidQuarter, 4))
	assert.InDelta(t, 11.5/12, FirstYearFraction(model.MidMonth, 1), 1e-15)
	assert.Equal(t, 0.5, FirstYearFraction(model.MidMonth, 0))
}

func testSpec(t *testing.T) params.Specification {
	t.Helper()
	s, err := params.LoadSchema()
	require.NoError(t, err)
	sp, err := s.Specification(2026)
	require.NoError(t, err)
	return sp
}

func TestResolve(t *testing.T) {
	sp := testSpec(t)
	equip := model.Asset{Code: "EP1A", Delta: 0.3, Method: model.MethodDB200, Life: 5, ADSLife: 6, Convention: model.HalfYear, Bonus: 1}

	s := Resolve(equip, sp)
	assert.Equal(t, DB200, s.Method)
	assert.Equal(t, 5.0, s.Life)
	assert.InDelta(t, 0.2, s.Bonus, 1e-12)

	sp.Classes = map[string]params.ClassPolicy{"5": {System: SystemADS, Bonus: 0}}
	s = Resolve(equip, sp)
	assert.Equal(t, SL, s.Method)
	assert.Equal(t, 6.0, s.Life)

	sp.Classes = map[string]params.ClassPolicy{"5": {System: SystemEconomic, Bonus: 0}}
	s = Resolve(equip, sp)
	assert.Equal(t, Economic, s.Method)

	land := model.Asset{Code: "LAND", Method: model.MethodLand}
	sp.LandExpensing = 0.5
	s = Resolve(land, sp)
	assert.Equal(t, None, s.Method)
	assert.Equal(t, 0.5, s.Bonus)

	inv := model.Asset{Code: "INV", Method: model.MethodInventory}
	sp.InventoryExpensing = true
	assert.Equal(t, Expensing, Resolve(inv, sp).Method)
}

func TestBySystem(t *testing.T) {
	sp := testSpec(t)
	a := model.Asset{Code: "EP1A", Delta: 0.3, Method: model.MethodDB200, Life: 5, ADSLife: 6, Convention: model.HalfYear, Bonus: 1}
	out, err := BySystem(a, sp, 0.06, 0.02)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Greater(t, out[SystemGDS].Z, out[SystemADS].Z)
	assert.InDelta(t, 0.2+0.8*0.3/(0.3+0.04), out[SystemEconomic].Z, 1e-12)
}
