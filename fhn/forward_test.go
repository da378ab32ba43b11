package fhn

import (
	"math"
	"testing"
)

const (
	testTau   = 0.4
	testAlpha = 4.0 / 3.0
)

func newTestMesh(tst testing.TB, nObs, nM int, tau, alpha float64) *Mesh {
	tst.Helper()
	m, err := NewMesh(nObs, nM, tau, alpha)
	if err != nil {
		tst.Fatal("Error creating mesh:", err)
	}
	return m
}

func TestMesh(tst *testing.T) {
	m := newTestMesh(tst, 8, 8, testTau, testAlpha)
	if m.Nx != 80 {
		tst.Errorf("Expected 80 spatial nodes, got %d", m.Nx)
	}
	if m.Dx != 1.0/80 {
		tst.Errorf("Expected dx=1/80, got %v", m.Dx)
	}
	if len(m.XObs) != 8 {
		tst.Fatalf("Expected 8 observation locations, got %d", len(m.XObs))
	}
	for k, x := range m.XObs {
		want := float64(k+1) / 10
		if math.Abs(x-want) > 1e-12 {
			tst.Errorf("Observation location %d: %v, want %v", k, x, want)
		}
	}
	if m.T[m.NT-1] > m.Tau+m.Dt {
		tst.Errorf("Temporal grid overshoots tau: %v", m.T[m.NT-1])
	}
}

func TestMeshErrors(tst *testing.T) {
	cases := []struct {
		nObs, nM   int
		tau, alpha float64
	}{
		{0, 8, testTau, testAlpha},
		{8, 0, testTau, testAlpha},
		{-1, 8, testTau, testAlpha},
		{8, 8, 0, testAlpha},
		{8, 8, testTau, 0},
		{8, 8, testTau, -1},
	}
	for _, c := range cases {
		if _, err := NewMesh(c.nObs, c.nM, c.tau, c.alpha); err == nil {
			tst.Errorf("Expected error for nObs=%d, nM=%d, tau=%v, alpha=%v",
				c.nObs, c.nM, c.tau, c.alpha)
		}
	}
}

func TestUTrueFront(tst *testing.T) {
	if u := UTrue(0.5, 0, 0.3); math.Abs(u-0.5) != 0 {
		tst.Errorf("Expected front value 0.5 at the center, got %v", u)
	}
	prev := math.Inf(1)
	for x := 0.0; x <= 1.0; x += 0.05 {
		u := UTrue(x, 0.2, 0.3)
		if u <= 0 || u >= 1 {
			tst.Errorf("Front value out of (0,1) at x=%v: %v", x, u)
		}
		if u > prev {
			tst.Errorf("Front is not decreasing at x=%v", x)
		}
		prev = u
	}
}

func TestExactObserve(tst *testing.T) {
	m := newTestMesh(tst, 8, 8, testTau, testAlpha)
	obs, err := NewExact(m).Observe(0.3)
	if err != nil {
		tst.Fatal("Error from exact forward map:", err)
	}
	if len(obs) != m.NObs {
		tst.Fatalf("Expected %d observations, got %d", m.NObs, len(obs))
	}
	for k, v := range obs {
		if v != UTrue(m.XObs[k], m.Tau, 0.3) {
			tst.Errorf("Observation %d does not match the closed form", k)
		}
	}
}

func TestSolveShape(tst *testing.T) {
	m := newTestMesh(tst, 4, 4, 0.05, testAlpha)
	field, err := NewNumeric(m).Solve(0.3)
	if err != nil {
		tst.Fatal("Error from solver:", err)
	}
	r, c := field.Dims()
	if r != m.NT || c != m.Nx-1 {
		tst.Errorf("Expected field %dx%d, got %dx%d", m.NT, m.Nx-1, r, c)
	}
	for j := 0; j < c; j++ {
		if field.At(0, j) != UTrue(m.X[j+1], 0, 0.3) {
			tst.Fatalf("Initial condition mismatch at node %d", j)
		}
	}
}

func TestNumericMatchesExact(tst *testing.T) {
	m := newTestMesh(tst, 8, 8, testTau, testAlpha)
	exact, err := NewExact(m).Observe(0.3)
	if err != nil {
		tst.Fatal("Error from exact forward map:", err)
	}
	numeric, err := NewNumeric(m).Observe(0.3)
	if err != nil {
		tst.Fatal("Error from numeric forward map:", err)
	}
	for k := range exact {
		if d := math.Abs(exact[k] - numeric[k]); d > 1e-3 {
			tst.Errorf("Observation %d: numeric %v vs exact %v (diff %v)",
				k, numeric[k], exact[k], d)
		}
	}
}

func TestNumericCoarseReportingStep(tst *testing.T) {
	// dt far above the stability limit; the solver must sub-step
	m := newTestMesh(tst, 8, 8, testTau, 0.05)
	exact, err := NewExact(m).Observe(0.3)
	if err != nil {
		tst.Fatal("Error from exact forward map:", err)
	}
	numeric, err := NewNumeric(m).Observe(0.3)
	if err != nil {
		tst.Fatal("Error from numeric forward map:", err)
	}
	for k := range exact {
		if d := math.Abs(exact[k] - numeric[k]); d > 1e-2 {
			tst.Errorf("Observation %d: numeric %v vs exact %v (diff %v)",
				k, numeric[k], exact[k], d)
		}
	}
}

func BenchmarkNumericObserve(b *testing.B) {
	m := newTestMesh(b, 8, 8, testTau, testAlpha)
	fm := NewNumeric(m)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := fm.Observe(0.3); err != nil {
			b.Fatal(err)
		}
	}
}
