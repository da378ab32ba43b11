/*

Package twalk implements the t-walk, a self-adjusting MCMC sampler for
continuous distributions (Christen & Fox 2010). The sampler evolves two
points simultaneously and proposes moves for one point using the other
as a reference, so no proposal scale has to be tuned by hand. Only
energy (minus log of the unnormalized density) evaluations are needed,
no gradients.

The target is supplied through the Model interface. All randomness
comes from a single seeded source, so a run is exactly replayable given
the seed and the initial points.

*/
package twalk

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"strconv"

	"github.com/op/go-logging"

	"bitbucket.org/Cricelio/fhncal/checkpoint"
)

// log is the global logging variable.
var log = logging.MustGetLogger("twalk")

// Model is the target distribution. Energy returns minus the log of
// the unnormalized density; lower energy means higher probability.
// Energy may fail (e.g. a forward solver diverging); a failure for a
// point inside the support rejects the candidate, it is never averaged
// over. Supp reports whether a point belongs to the support; Energy is
// only called for points inside the support.
type Model interface {
	Energy(theta []float64) (float64, error)
	Supp(theta []float64) bool
}

// Initializer is an optional model capability: SimInit draws a single
// point from a reference distribution covering the support. It is used
// to produce starting points for the two walkers.
type Initializer interface {
	SimInit(rng *rand.Rand) []float64
}

// Settings hold the t-walk kernel parameters. The defaults are the
// values recommended by the authors of the algorithm and normally
// should not be changed.
type Settings struct {
	// WalkScale is the walk kernel parameter (a_w).
	WalkScale float64
	// TraverseScale is the traverse kernel parameter (a_t).
	TraverseScale float64
	// MoveProb is the probability for every coordinate to move in a
	// proposal; if non-positive, min(dim, 4)/dim is used.
	MoveProb float64
	// Weights are relative probabilities of the four kernels, in the
	// order walk, traverse, hop, blow.
	Weights [NKernels]float64
}

// NewSettings creates settings with the default kernel parameters.
func NewSettings() *Settings {
	return &Settings{
		WalkScale:     1.5,
		TraverseScale: 6.0,
		Weights:       [NKernels]float64{0.4918, 0.4918, 0.0082, 0.0082},
	}
}

// Validate checks that settings describe a valid kernel mixture.
func (s *Settings) Validate() error {
	if s.WalkScale <= 0 {
		return errors.New("twalk: walk scale must be positive")
	}
	if s.TraverseScale <= 1 {
		return errors.New("twalk: traverse scale must be > 1")
	}
	sum := 0.0
	for _, w := range s.Weights {
		if w < 0 || math.IsNaN(w) {
			return errors.New("twalk: kernel weights must be non-negative")
		}
		sum += w
	}
	if sum <= 0 {
		return errors.New("twalk: kernel weights must have a positive sum")
	}
	return nil
}

// Sampler runs a single t-walk chain. It owns the two walkers, the
// random source and the trace; the model is a shared read-only
// collaborator. A sampler is not safe for concurrent use, but
// independent samplers may run in parallel.
type Sampler struct {
	model    Model
	dim      int
	settings *Settings
	rng      *rand.Rand
	wsum     float64
	pphi     float64

	// walkers and their cached energies
	x, xp   []float64
	ux, uxp float64

	// per-proposal scratch
	y    []float64
	phi  []bool
	nphi int

	i         int
	accepted  int
	evalFails int

	// AccPeriod defines how often to report acceptance rate.
	AccPeriod int
	// Quiet disables trajectory output.
	Quiet     bool
	repPeriod int
	output    io.Writer
	cp        *checkpoint.CheckpointIO
	sig       chan os.Signal
}

// New creates a sampler for a model of the given dimension. All
// randomness of the run is derived from seed. Settings may be nil, in
// which case defaults are used.
func New(m Model, dim int, seed int64, settings *Settings) (*Sampler, error) {
	if dim < 1 {
		return nil, errors.New("twalk: dimension must be at least 1")
	}
	if settings == nil {
		settings = NewSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	wsum := 0.0
	for _, w := range settings.Weights {
		wsum += w
	}
	pphi := settings.MoveProb
	if pphi <= 0 {
		pphi = math.Min(float64(dim), 4) / float64(dim)
	}
	s := &Sampler{
		model:     m,
		dim:       dim,
		settings:  settings,
		rng:       rand.New(rand.NewSource(seed)),
		wsum:      wsum,
		pphi:      pphi,
		x:         make([]float64, dim),
		xp:        make([]float64, dim),
		y:         make([]float64, dim),
		phi:       make([]bool, dim),
		AccPeriod: 200,
		repPeriod: 10,
		output:    os.Stdout,
	}
	return s, nil
}

// SetReportPeriod sets how often the trajectory is written.
func (s *Sampler) SetReportPeriod(period int) {
	if period > 0 {
		s.repPeriod = period
	}
}

// SetTrajectoryOutput sets the writer for the trajectory.
func (s *Sampler) SetTrajectoryOutput(w io.Writer) {
	s.output = w
}

// SetCheckpointIO enables periodic chain-state checkpoints.
func (s *Sampler) SetCheckpointIO(cp *checkpoint.CheckpointIO) {
	s.cp = cp
}

// WatchSignals makes the sampler stop at the next iteration boundary
// when one of the signals is received. The trace stays consistent, no
// partial records are written.
func (s *Sampler) WatchSignals(sigs ...os.Signal) {
	s.sig = make(chan os.Signal, 1)
	signal.Notify(s.sig, sigs...)
}

// Accepted returns the number of accepted proposals so far.
func (s *Sampler) Accepted() int {
	return s.accepted
}

// EvalFailures returns the number of candidates rejected because the
// energy evaluation failed or produced a non-finite value.
func (s *Sampler) EvalFailures() int {
	return s.evalFails
}

// AcceptanceRate returns the fraction of accepted proposals.
func (s *Sampler) AcceptanceRate() float64 {
	if s.i == 0 {
		return 0
	}
	return float64(s.accepted) / float64(s.i)
}

// RunPrior draws both starting points from the model's initial-point
// sampler and runs the chain. The model must implement Initializer.
func (s *Sampler) RunPrior(iterations int) (*Trace, error) {
	ini, ok := s.model.(Initializer)
	if !ok {
		return nil, errors.New("twalk: model does not provide an initial-point sampler")
	}
	x0 := ini.SimInit(s.rng)
	xp0 := ini.SimInit(s.rng)
	for !pointsDistinct(x0, xp0) {
		xp0 = ini.SimInit(s.rng)
	}
	return s.Run(iterations, x0, xp0)
}

// Run runs the chain for the requested number of iterations starting
// from the two points. Both points must be inside the support and must
// differ in every coordinate. The returned trace holds the primary
// walker for every iteration plus the initial state, so its length is
// iterations+1.
func (s *Sampler) Run(iterations int, x0, xp0 []float64) (*Trace, error) {
	if iterations < 0 {
		return nil, fmt.Errorf("twalk: negative number of iterations: %d", iterations)
	}
	if len(x0) != s.dim || len(xp0) != s.dim {
		return nil, fmt.Errorf("twalk: initial points of dimension %d and %d, want %d",
			len(x0), len(xp0), s.dim)
	}
	if !pointsDistinct(x0, xp0) {
		return nil, errors.New("twalk: initial points must differ in every coordinate")
	}
	if !s.model.Supp(x0) {
		return nil, errors.New("twalk: initial point x0 is outside the support")
	}
	if !s.model.Supp(xp0) {
		return nil, errors.New("twalk: initial point xp0 is outside the support")
	}
	copy(s.x, x0)
	copy(s.xp, xp0)

	var err error
	s.ux, err = s.model.Energy(s.x)
	if err != nil {
		return nil, fmt.Errorf("twalk: energy at x0: %v", err)
	}
	s.uxp, err = s.model.Energy(s.xp)
	if err != nil {
		return nil, fmt.Errorf("twalk: energy at xp0: %v", err)
	}
	if !finite(s.ux) || !finite(s.uxp) {
		return nil, errors.New("twalk: non-finite energy at an initial point")
	}

	trace := newTrace(s.dim, iterations+1)
	trace.append(s.x, s.ux)

	s.printHeader()
	s.i = 0
	s.accepted = 0
	s.evalFails = 0
	accWindow := 0
	interrupted := false
	if s.cp != nil {
		s.cp.SetNow()
	}

Iter:
	for iter := 0; iter < iterations; iter++ {
		s.i = iter
		if iter > 0 && iter%s.AccPeriod == 0 {
			log.Infof("Acceptance rate %.2f%%", 100*float64(accWindow)/float64(s.AccPeriod))
			accWindow = 0
		}
		if iter%s.repPeriod == 0 {
			s.printLine()
		}

		if s.step() {
			s.accepted++
			accWindow++
		}
		s.i = iter + 1
		trace.append(s.x, s.ux)

		if s.cp != nil && s.cp.Old() {
			s.saveCheckpoint(false)
		}

		select {
		case sig := <-s.sig:
			log.Warningf("Received signal %v, exiting.", sig)
			interrupted = true
			break Iter
		default:
		}
	}

	s.printLine()
	// An interrupted run leaves a non-final checkpoint so it can be
	// resumed.
	s.saveCheckpoint(!interrupted)
	log.Noticef("Finished t-walk: %d iterations, acceptance rate %.2f%%, %d energy failures",
		s.i, 100*s.AcceptanceRate(), s.evalFails)
	return trace, nil
}

// step performs one proposal/accept/reject cycle and reports whether
// the proposal was accepted. Exactly one walker may change.
func (s *Sampler) step() bool {
	kernel := s.pickKernel()
	movePrimary := s.rng.Float64() < 0.5

	mov, ref := s.x, s.xp
	if !movePrimary {
		mov, ref = s.xp, s.x
	}

	var logCorr float64
	var ok bool
	switch kernel {
	case KernelWalk:
		logCorr, ok = s.simWalk(mov, ref)
	case KernelTraverse:
		logCorr, ok = s.simTraverse(mov, ref)
	case KernelHop:
		logCorr, ok = s.simHop(mov, ref)
	case KernelBlow:
		logCorr, ok = s.simBlow(mov, ref)
	}
	if !ok {
		// degenerate proposal (zero scale or collision with the
		// resting walker)
		return false
	}
	if s.nphi == 0 {
		// no coordinate selected to move, the chain stays put
		return true
	}

	// Short circuit: never evaluate energy outside the support.
	if !s.model.Supp(s.y) {
		return false
	}

	propU, err := s.model.Energy(s.y)
	if err != nil {
		s.evalFails++
		log.Debugf("%d: %v kernel: energy evaluation failed: %v", s.i, kernel, err)
		return false
	}
	if !finite(propU) {
		s.evalFails++
		log.Debugf("%d: %v kernel: non-finite energy", s.i, kernel)
		return false
	}

	curU := s.ux
	if !movePrimary {
		curU = s.uxp
	}
	logA := (curU - propU) + logCorr
	if math.IsNaN(logA) {
		return false
	}
	if logA < 0 && s.rng.Float64() >= math.Exp(logA) {
		return false
	}

	copy(mov, s.y)
	if movePrimary {
		s.ux = propU
	} else {
		s.uxp = propU
	}
	return true
}

// pickKernel draws a kernel according to the weights.
func (s *Sampler) pickKernel() Kernel {
	u := s.rng.Float64() * s.wsum
	c := 0.0
	for k := 0; k < NKernels-1; k++ {
		c += s.settings.Weights[k]
		if u < c {
			return Kernel(k)
		}
	}
	return Kernel(NKernels - 1)
}

func (s *Sampler) saveCheckpoint(final bool) {
	if s.cp == nil {
		return
	}
	state := &checkpoint.ChainState{
		X:            append([]float64(nil), s.x...),
		Xp:           append([]float64(nil), s.xp...),
		Ux:           s.ux,
		Uxp:          s.uxp,
		Iter:         s.i,
		Accepted:     s.accepted,
		EvalFailures: s.evalFails,
		Final:        final,
	}
	if err := s.cp.Save(state); err != nil {
		log.Error("Error saving chain checkpoint:", err)
	}
}

func (s *Sampler) printHeader() {
	if s.Quiet || s.output == nil {
		return
	}
	fmt.Fprintf(s.output, "iteration\tenergy\t%s\n", s.parameterNamesString())
}

func (s *Sampler) printLine() {
	if s.Quiet || s.output == nil {
		return
	}
	fmt.Fprintf(s.output, "%d\t%f\t%s\n", s.i, s.ux, s.parameterString())
}

func (s *Sampler) parameterNamesString() (r string) {
	for i := 0; i < s.dim; i++ {
		if i != 0 {
			r += "\t"
		}
		r += "theta" + strconv.Itoa(i)
	}
	return
}

func (s *Sampler) parameterString() (r string) {
	for i, v := range s.x {
		if i != 0 {
			r += "\t"
		}
		r += strconv.FormatFloat(v, 'f', 6, 64)
	}
	return
}

// pointsDistinct returns true if two points differ in every
// coordinate. The t-walk requires the walkers to stay distinct.
func pointsDistinct(a, b []float64) bool {
	for i := range a {
		if a[i] == b[i] {
			return false
		}
	}
	return true
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
