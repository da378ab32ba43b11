package twalk

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// gauss is a standard normal target with unbounded support.
type gauss struct {
	calls int
}

func (g *gauss) Energy(theta []float64) (float64, error) {
	g.calls++
	s := 0.0
	for _, v := range theta {
		s += v * v
	}
	return 0.5 * s, nil
}

func (g *gauss) Supp(theta []float64) bool {
	return true
}

func (g *gauss) SimInit(rng *rand.Rand) []float64 {
	return []float64{rng.NormFloat64()}
}

// unitInterval is a flat target on (0, 1) that fails the test if its
// energy is ever evaluated outside the support.
type unitInterval struct {
	tst   *testing.T
	calls int
}

func (m *unitInterval) Energy(theta []float64) (float64, error) {
	m.calls++
	if theta[0] <= 0 || theta[0] >= 1 {
		m.tst.Errorf("Energy evaluated outside support: %v", theta[0])
	}
	return 0, nil
}

func (m *unitInterval) Supp(theta []float64) bool {
	return theta[0] > 0 && theta[0] < 1
}

func newQuiet(tst *testing.T, m Model, dim int, seed int64, settings *Settings) *Sampler {
	s, err := New(m, dim, seed, settings)
	if err != nil {
		tst.Fatal("Error creating sampler:", err)
	}
	s.Quiet = true
	return s
}

func TestReproducible(tst *testing.T) {
	run := func() *Trace {
		s := newQuiet(tst, &gauss{}, 1, 42, nil)
		trace, err := s.Run(2000, []float64{0.5}, []float64{-0.5})
		if err != nil {
			tst.Fatal("Error running sampler:", err)
		}
		return trace
	}
	t1 := run()
	t2 := run()
	if t1.Len() != t2.Len() {
		tst.Fatalf("Trace lengths differ: %d vs %d", t1.Len(), t2.Len())
	}
	for i := 0; i < t1.Len(); i++ {
		r1, r2 := t1.At(i), t2.At(i)
		if r1.Theta[0] != r2.Theta[0] || r1.Energy != r2.Energy {
			tst.Fatalf("Traces differ at %d: %v/%v vs %v/%v",
				i, r1.Theta[0], r1.Energy, r2.Theta[0], r2.Energy)
		}
	}
}

func TestZeroIterations(tst *testing.T) {
	m := &gauss{}
	s := newQuiet(tst, m, 1, 1, nil)
	trace, err := s.Run(0, []float64{0.5}, []float64{-0.5})
	if err != nil {
		tst.Fatal("Error running sampler:", err)
	}
	if trace.Len() != 1 {
		tst.Errorf("Expected trace of length 1, got %d", trace.Len())
	}
	if m.calls != 2 {
		tst.Errorf("Expected 2 energy calls (initial points), got %d", m.calls)
	}
}

func TestTraceLength(tst *testing.T) {
	s := newQuiet(tst, &gauss{}, 1, 1, nil)
	trace, err := s.Run(100, []float64{0.5}, []float64{-0.5})
	if err != nil {
		tst.Fatal("Error running sampler:", err)
	}
	if trace.Len() != 101 {
		tst.Errorf("Expected trace of length 101, got %d", trace.Len())
	}
}

func TestConfigErrors(tst *testing.T) {
	m := &unitInterval{tst: tst}

	if _, err := New(m, 0, 1, nil); err == nil {
		tst.Error("Expected error for zero dimension")
	}

	bad := NewSettings()
	bad.Weights[0] = -1
	if _, err := New(m, 1, 1, bad); err == nil {
		tst.Error("Expected error for negative kernel weight")
	}

	zero := NewSettings()
	zero.Weights = [NKernels]float64{}
	if _, err := New(m, 1, 1, zero); err == nil {
		tst.Error("Expected error for zero-sum kernel weights")
	}

	s := newQuiet(tst, m, 1, 1, nil)
	if _, err := s.Run(-1, []float64{0.2}, []float64{0.8}); err == nil {
		tst.Error("Expected error for negative iterations")
	}
	if _, err := s.Run(10, []float64{0.2, 0.3}, []float64{0.8}); err == nil {
		tst.Error("Expected error for wrong dimension")
	}
	if _, err := s.Run(10, []float64{0.2}, []float64{0.2}); err == nil {
		tst.Error("Expected error for coincident initial points")
	}
	if _, err := s.Run(10, []float64{-0.5}, []float64{0.8}); err == nil {
		tst.Error("Expected error for x0 outside support")
	}
	if _, err := s.Run(10, []float64{0.2}, []float64{1.5}); err == nil {
		tst.Error("Expected error for xp0 outside support")
	}
	if m.calls != 0 {
		tst.Errorf("Energy was evaluated %d times before a valid configuration", m.calls)
	}
}

func TestSupportShortCircuit(tst *testing.T) {
	m := &unitInterval{tst: tst}
	s := newQuiet(tst, m, 1, 3, nil)
	trace, err := s.Run(5000, []float64{0.2}, []float64{0.8})
	if err != nil {
		tst.Fatal("Error running sampler:", err)
	}
	for i := 0; i < trace.Len(); i++ {
		v := trace.At(i).Theta[0]
		if v <= 0 || v >= 1 {
			tst.Fatalf("Sample %d outside support: %v", i, v)
		}
	}
}

// failAfterInit fails every energy evaluation after the two initial
// ones.
type failAfterInit struct {
	calls int
}

func (m *failAfterInit) Energy(theta []float64) (float64, error) {
	m.calls++
	if m.calls > 2 {
		return 0, errors.New("forward map failed")
	}
	return 0, nil
}

func (m *failAfterInit) Supp(theta []float64) bool {
	return true
}

func TestEvalFailureRejected(tst *testing.T) {
	m := &failAfterInit{}
	s := newQuiet(tst, m, 1, 5, nil)
	trace, err := s.Run(200, []float64{0.5}, []float64{-0.5})
	if err != nil {
		tst.Fatal("Error running sampler:", err)
	}
	for i := 0; i < trace.Len(); i++ {
		if trace.At(i).Theta[0] != 0.5 {
			tst.Fatalf("Chain moved despite failing energy at %d: %v", i, trace.At(i).Theta[0])
		}
	}
	if s.Accepted() != 0 {
		tst.Errorf("Expected no accepted proposals, got %d", s.Accepted())
	}
	if s.EvalFailures() != m.calls-2 {
		tst.Errorf("Expected %d eval failures, got %d", m.calls-2, s.EvalFailures())
	}
	if s.EvalFailures() == 0 {
		tst.Error("Expected at least one eval failure")
	}
}

func TestSingleWalkerChanges(tst *testing.T) {
	s := newQuiet(tst, &gauss{}, 2, 7, nil)
	copy(s.x, []float64{0.5, -0.3})
	copy(s.xp, []float64{-0.5, 0.7})
	s.ux = 0.17
	s.uxp = 0.37

	prevX := append([]float64(nil), s.x...)
	prevXp := append([]float64(nil), s.xp...)
	prevUx, prevUxp := s.ux, s.uxp

	for i := 0; i < 10000; i++ {
		s.step()
		xChanged := s.x[0] != prevX[0] || s.x[1] != prevX[1] || s.ux != prevUx
		xpChanged := s.xp[0] != prevXp[0] || s.xp[1] != prevXp[1] || s.uxp != prevUxp
		if xChanged && xpChanged {
			tst.Fatalf("Both walkers changed at step %d", i)
		}
		copy(prevX, s.x)
		copy(prevXp, s.xp)
		prevUx, prevUxp = s.ux, s.uxp
	}
}

func TestKernelsDoNotMutateInputs(tst *testing.T) {
	s := newQuiet(tst, &gauss{}, 2, 11, nil)
	x := []float64{0.3, 0.7}
	xp := []float64{0.1, -0.2}
	x0 := append([]float64(nil), x...)
	xp0 := append([]float64(nil), xp...)

	for i := 0; i < 1000; i++ {
		s.simWalk(x, xp)
		s.simTraverse(x, xp)
		s.simHop(x, xp)
		s.simBlow(x, xp)
		for j := range x {
			if x[j] != x0[j] || xp[j] != xp0[j] {
				tst.Fatal("Kernel modified its input points")
			}
		}
	}
}

func TestRunPrior(tst *testing.T) {
	s := newQuiet(tst, &gauss{}, 1, 13, nil)
	trace, err := s.RunPrior(100)
	if err != nil {
		tst.Fatal("Error running sampler:", err)
	}
	if trace.Len() != 101 {
		tst.Errorf("Expected trace of length 101, got %d", trace.Len())
	}
	v := trace.At(0).Theta[0]
	if math.IsNaN(v) {
		tst.Error("Initial point is NaN")
	}
}
