package calculator

import (
	"math"
	"testing"

	"CostOfCapital/internal/model"
)

const eps = 1e-8

var (
	testU   = []float64{0.3, 0, 0.3, 0, 0.3, 0}
	testR   = []float64{0.05, 0.06, 0.04, 0.03, 0.11, 0.12}
	testZ   = []float64{0.1, 0, 0.5, 1, 0.55556, 0.8}
	testRho = []float64{0.075285714, 0.0388, 0.042, 0.0112, 0.114475829, 0.094}
)

func TestCostOfCapital(t *testing.T) {
	for i := range testR {
		got, flag := CostOfCapital(testR[i], 0.02, 0.1, testZ[i], testU[i], 0.08, 0.01)
		if flag != model.FlagNone {
			t.Fatalf("case %d: unexpected flag %s", i, flag)
		}
		if math.Abs(got-testRho[i]) > eps {
			t.Errorf("case %d: rho = %.9f, want %.9f", i, got, testRho[i])
		}
	}
}

func TestInventoryCostOfCapital(t *testing.T) {
	want := []float64{0.042779968, 0.04, 0.029723255, 0.01, 0.115882546, 0.1}
	for i := range testR {
		got, flag := InventoryCostOfCapital(testR[i], 0.02, testU[i], 0.33, 8)
		if flag != model.FlagNone {
			t.Fatalf("case %d: unexpected flag %s", i, flag)
		}
		if math.Abs(got-want[i]) > eps {
			t.Errorf("case %d: rho = %.9f, want %.9f", i, got, want[i])
		}
	}
}

func TestUserCost(t *testing.T) {
	delta := []float64{0.05, 0.06, 0.04, 0.03, 0.11, 0.12}
	want := []float64{0.125285714, 0.0988, 0.082, 0.0412, 0.224475829, 0.214}
	for i := range delta {
		if got := UserCost(testRho[i], delta[i]); math.Abs(got-want[i]) > eps {
			t.Errorf("case %d: ucc = %.9f, want %.9f", i, got, want[i])
		}
	}
}

func TestMETR(t *testing.T) {
	rPrime := []float64{0.05, 0.06, 0.04, 0.03, 0.11, 0.12}
	want := []float64{0.601518027, -0.030927835, 0.523809524, 0.107142857, 0.213807831, -0.063829787}
	for i := range rPrime {
		got, _ := METR(testRho[i], rPrime[i], 0.02)
		if math.Abs(got-want[i]) > eps {
			t.Errorf("case %d: metr = %.9f, want %.9f", i, got, want[i])
		}
	}
}

func TestMETTRAndWedge(t *testing.T) {
	s := []float64{0.05, 0.06, 0.04, 0.03, 0.11, 0.12}
	wantMETTR := []float64{0.335863378, -0.546391753, 0.047619048, -1.678571429, 0.03909846, -0.276595745}
	wantWedge := []float64{0.02528571, -0.0212, 0.002, -0.0188, 0.00447583, -0.026}
	for i := range s {
		got, _ := METTR(testRho[i], s[i])
		if math.Abs(got-wantMETTR[i]) > eps {
			t.Errorf("case %d: mettr = %.9f, want %.9f", i, got, wantMETTR[i])
		}
		if w := TaxWedge(testRho[i], s[i]); math.Abs(w-wantWedge[i]) > 1e-7 {
			t.Errorf("case %d: wedge = %.9f, want %.9f", i, w, wantWedge[i])
		}
	}
}

func TestRhoNearZero(t *testing.T) {
	if v, flag := METR(0, 0.05, 0.02); !math.IsNaN(v) || flag != model.FlagRhoNearZero {
		t.Errorf("METR(0) = %v, %s", v, flag)
	}
	if v, flag := METTR(1e-14, 0.02); !math.IsNaN(v) || flag != model.FlagRhoNearZero {
		t.Errorf("METTR(~0) = %v, %s", v, flag)
	}

	// rho = 0 exactly when r - pi = 0 with expensing and no taxes
	m := Evaluate(Input{R: 0.02, RPrime: 0.02, Pi: 0.02, Delta: 0.1, Z: 1, Profit: 0.2})
	if m.Flag != model.FlagRhoNearZero {
		t.Errorf("flag = %q, want %q", m.Flag, model.FlagRhoNearZero)
	}
	if !math.IsNaN(m.METR) || !math.IsNaN(m.METTR) || !math.IsNaN(m.EATR) {
		t.Errorf("expected NaN rates, got %+v", m)
	}
	if math.Abs(m.UCC-0.1) > eps {
		t.Errorf("ucc = %v, want 0.1", m.UCC)
	}
}

func TestOneMinusUNearZero(t *testing.T) {
	rho, flag := CostOfCapital(0.05, 0.02, 0.1, 0.5, 1, 0, 0)
	if !math.IsNaN(rho) || flag != model.FlagDenominator {
		t.Errorf("got %v, %s", rho, flag)
	}
	m := Evaluate(Input{R: 0.05, Pi: 0.02, U: 1, Delta: 0.1, Z: 0.5})
	if !math.IsNaN(m.METR) || m.Flag != model.FlagDenominator {
		t.Errorf("got %+v", m)
	}
}

func TestEvaluate_Identities(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"equipment", Input{R: 0.09, RPrime: 0.09, S: 0.05, Pi: 0.02, U: 0.21, Delta: 0.15, Z: 0.88, Profit: 0.2}},
		{"structure", Input{R: 0.06, RPrime: 0.07, S: 0.04, Pi: 0.02, U: 0.21, Delta: 0.03, Z: 0.3, W: 0.01, Profit: 0.2}},
		{"inventory", Input{R: 0.09, RPrime: 0.09, S: 0.05, Pi: 0.02, U: 0.21, Inventory: true, Phi: 0.5, YV: 8, Profit: 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Evaluate(tt.in)
			if m.Flag != model.FlagNone {
				t.Fatalf("unexpected flag %s", m.Flag)
			}
			if math.Abs(m.UCC-(m.Rho+tt.in.Delta)) > 1e-15 {
				t.Errorf("ucc %v != rho + delta", m.UCC)
			}
			if math.Abs(m.METTR-(m.Rho-tt.in.S)/m.Rho) > 1e-15 {
				t.Errorf("mettr identity broken")
			}
			if math.Abs(m.TaxWedge-(m.Rho-tt.in.S)) > 1e-15 {
				t.Errorf("wedge identity broken")
			}
		})
	}
}

func TestCostOfCapital_ExpensingForAnyRate(t *testing.T) {
	tests := []struct{ r, pi, delta, u float64 }{
		{0.05, 0.02, 0.1, 0},
		{0.05, 0.02, 0.1, 0.21},
		{0.08, 0.03, 0.02, 0.35},
		{0.12, 0.01, 0.3, 0.6},
	}
	for _, tt := range tests {
		got, flag := CostOfCapital(tt.r, tt.pi, tt.delta, 1, tt.u, 0, 0)
		if flag != model.FlagNone {
			t.Fatalf("u=%g: unexpected flag %s", tt.u, flag)
		}
		if math.Abs(got-(tt.r-tt.pi)) > 1e-12 {
			t.Errorf("u=%g: rho = %.12f, want r - pi = %.12f", tt.u, got, tt.r-tt.pi)
		}
	}
}

func TestMETR_NonDecreasingInRate(t *testing.T) {
	const r, pi, delta = 0.07, 0.02, 0.1
	for _, z := range []float64{0, 0.3, 0.75, 0.95, 1} {
		prev := math.Inf(-1)
		for u := 0.0; u <= 0.9; u += 0.05 {
			rho, _ := CostOfCapital(r, pi, delta, z, u, 0, 0)
			metr, flag := METR(rho, r, pi)
			if flag != model.FlagNone {
				t.Fatalf("z=%g u=%g: unexpected flag %s", z, u, flag)
			}
			if metr < prev-1e-12 {
				t.Errorf("z=%g u=%g: metr %.9f fell below %.9f", z, u, metr, prev)
			}
			prev = metr
		}
	}
}

func TestEvaluate_EconomicDepreciationNeutrality(t *testing.T) {
	// With z = delta/(delta+r-pi) an untaxed firm requires exactly r - pi.
	r, pi, delta := 0.07, 0.02, 0.1
	z := delta / (delta + r - pi)
	m := Evaluate(Input{R: r, RPrime: r, Pi: pi, U: 0, Delta: delta, Z: z, Profit: 0.2})
	if math.Abs(m.METR) > 1e-12 {
		t.Errorf("metr = %v, want 0", m.METR)
	}

	// with a positive entity rate the wedge equals the statutory rate
	u := 0.21
	m = Evaluate(Input{R: r, RPrime: r, Pi: pi, U: u, Delta: delta, Z: z, Profit: 0.2})
	if math.Abs(m.METR-u) > 1e-12 {
		t.Errorf("metr = %v, want %v", m.METR, u)
	}
}

func TestEATR(t *testing.T) {
	// at rho = p the average rate equals the marginal rate
	if got := EATR(0.2, 0.2, 0.21, 0.3); math.Abs(got-0.3) > 1e-15 {
		t.Errorf("eatr = %v, want 0.3", got)
	}
	// at rho = 0 the average rate is the statutory rate
	if got := EATR(0.2, 0, 0.21, 0.3); math.Abs(got-0.21) > 1e-15 {
		t.Errorf("eatr = %v, want 0.21", got)
	}
}
