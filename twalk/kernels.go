package twalk

import (
	"math"
)

// Kernel identifies one of the four t-walk move kernels.
type Kernel int

// The four kernels. Walk and traverse do most of the work; hop and
// blow are rarely chosen and help the chain escape when the two
// walkers end up in separate modes.
const (
	KernelWalk Kernel = iota
	KernelTraverse
	KernelHop
	KernelBlow

	// NKernels is the number of kernels.
	NKernels = 4
)

func (k Kernel) String() string {
	switch k {
	case KernelWalk:
		return "walk"
	case KernelTraverse:
		return "traverse"
	case KernelHop:
		return "hop"
	case KernelBlow:
		return "blow"
	}
	return "unknown"
}

// Every kernel fills s.y with a candidate for the moving point x,
// using xp as the reference, and returns the log of the
// proposal-density correction term of its acceptance ratio. A false
// return means the proposal is degenerate and must be rejected without
// an energy evaluation. Kernels never modify x or xp.

// simPhi draws the per-coordinate move mask.
func (s *Sampler) simPhi() {
	s.nphi = 0
	for j := range s.phi {
		s.phi[j] = s.rng.Float64() < s.pphi
		if s.phi[j] {
			s.nphi++
		}
	}
}

// simWalk perturbs x along the direction to xp with a bounded
// multiplier on every selected coordinate. The kernel is self-dual, so
// there is no correction term.
func (s *Sampler) simWalk(x, xp []float64) (float64, bool) {
	aw := s.settings.WalkScale
	s.simPhi()
	for j := range x {
		if s.phi[j] {
			u := s.rng.Float64()
			z := (aw / (1 + aw)) * (aw*u*u + 2*u - 1)
			s.y[j] = x[j] + (x[j]-xp[j])*z
		} else {
			s.y[j] = x[j]
		}
	}
	if s.nphi == 0 {
		return 0, true
	}
	// the walkers must not collide
	return 0, pointsDistinct(s.y, xp)
}

// simBeta draws the traverse scale factor from a two-sided power-law
// density on (0,1) and (1,inf) with tails controlled by the traverse
// scale parameter.
func (s *Sampler) simBeta() float64 {
	at := s.settings.TraverseScale
	if s.rng.Float64() < (at-1)/(2*at) {
		return math.Exp(math.Log(s.rng.Float64()) / (at + 1))
	}
	return math.Exp(math.Log(s.rng.Float64()) / (1 - at))
}

// simTraverse reflects x through xp scaled by a random factor beta.
// The map is not volume preserving, hence the beta^(nphi-2) correction
// in the acceptance ratio.
func (s *Sampler) simTraverse(x, xp []float64) (float64, bool) {
	beta := s.simBeta()
	s.simPhi()
	for j := range x {
		if s.phi[j] {
			s.y[j] = xp[j] + beta*(xp[j]-x[j])
		} else {
			s.y[j] = x[j]
		}
	}
	if s.nphi == 0 {
		return 0, true
	}
	return float64(s.nphi-2) * math.Log(beta), true
}

// simHop proposes a Gaussian jump around x with scale set by the
// distance between the walkers.
func (s *Sampler) simHop(x, xp []float64) (float64, bool) {
	s.simPhi()
	if s.nphi == 0 {
		return 0, true
	}
	sigma := s.maskedMaxDiff(x, xp) / 3
	if sigma == 0 {
		return 0, false
	}
	for j := range x {
		if s.phi[j] {
			s.y[j] = x[j] + sigma*s.rng.NormFloat64()
		} else {
			s.y[j] = x[j]
		}
	}
	// The proposal scale changes with the pair, so the density ratio
	// does not cancel: forward minus reverse negative log density.
	return s.gHop(s.y, x, xp) - s.gHop(x, s.y, xp), true
}

// gHop is the negative log density of the hop proposal h given the
// moving point x and the reference xp.
func (s *Sampler) gHop(h, x, xp []float64) float64 {
	if s.nphi == 0 {
		return 0
	}
	sigma := s.maskedMaxDiff(x, xp) / 3
	if sigma == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for j := range h {
		if s.phi[j] {
			d := h[j] - x[j]
			sum += d * d
		}
	}
	n := float64(s.nphi)
	return 0.5*n*math.Log(2*math.Pi) + n*math.Log(sigma) + 0.5*sum/(sigma*sigma)
}

// simBlow proposes a Gaussian jump around the resting walker xp with
// scale set by the distance between the walkers. This lets the moving
// point jump over to the region of the other walker.
func (s *Sampler) simBlow(x, xp []float64) (float64, bool) {
	s.simPhi()
	if s.nphi == 0 {
		return 0, true
	}
	sigma := s.maskedMaxDiff(x, xp)
	if sigma == 0 {
		return 0, false
	}
	for j := range x {
		if s.phi[j] {
			s.y[j] = xp[j] + sigma*s.rng.NormFloat64()
		} else {
			s.y[j] = x[j]
		}
	}
	if !pointsDistinct(s.y, xp) {
		return 0, false
	}
	return s.gBlow(s.y, x, xp) - s.gBlow(x, s.y, xp), true
}

// gBlow is the negative log density of the blow proposal h given the
// moving point x and the reference xp. The proposal is centered at xp.
func (s *Sampler) gBlow(h, x, xp []float64) float64 {
	if s.nphi == 0 {
		return 0
	}
	sigma := s.maskedMaxDiff(x, xp)
	if sigma == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for j := range h {
		if s.phi[j] {
			d := h[j] - xp[j]
			sum += d * d
		}
	}
	n := float64(s.nphi)
	return 0.5*n*math.Log(2*math.Pi) + n*math.Log(sigma) + 0.5*sum/(sigma*sigma)
}

// maskedMaxDiff returns the largest coordinate distance between the
// points over the selected coordinates.
func (s *Sampler) maskedMaxDiff(x, xp []float64) float64 {
	max := 0.0
	for j := range x {
		if s.phi[j] {
			d := math.Abs(x[j] - xp[j])
			if d > max {
				max = d
			}
		}
	}
	return max
}
