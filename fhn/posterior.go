package fhn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"bitbucket.org/Cricelio/fhncal/dist"
)

// Posterior is the unnormalized posterior of the reaction parameter:
// a beta prior on (0, 1) times an iid Gaussian likelihood with known
// noise level, with the forward map supplied as a collaborator. It
// satisfies the twalk Model and Initializer contracts.
type Posterior struct {
	fm     ForwardMap
	data   []float64
	sigma  float64
	priorP float64
	priorQ float64

	likeConst float64
}

// NewPosterior creates the posterior for the observed data. sigma is
// the known observation noise standard deviation, priorP and priorQ
// are the beta prior shape parameters.
func NewPosterior(fm ForwardMap, data []float64, sigma, priorP, priorQ float64) *Posterior {
	n := float64(len(data))
	return &Posterior{
		fm:        fm,
		data:      append([]float64(nil), data...),
		sigma:     sigma,
		priorP:    priorP,
		priorQ:    priorQ,
		likeConst: -0.5*n*math.Log(2*math.Pi) - n*math.Log(sigma),
	}
}

// Supp reports whether theta lies in the open unit interval, the
// support of the beta prior.
func (p *Posterior) Supp(theta []float64) bool {
	return theta[0] > 0 && theta[0] < 1
}

// Energy returns minus the log of the unnormalized posterior density.
// A forward-map failure is propagated as an error so the sampler can
// reject the candidate instead of averaging over a bogus value.
func (p *Posterior) Energy(theta []float64) (float64, error) {
	pred, err := p.fm.Observe(theta[0])
	if err != nil {
		return 0, fmt.Errorf("fhn: forward map at theta=%v: %v", theta[0], err)
	}
	d := floats.Distance(p.data, pred, 2) / p.sigma
	logLike := p.likeConst - 0.5*d*d
	logPrior := dist.BetaLogPdf(theta[0], p.priorP, p.priorQ)
	return -(logLike + logPrior), nil
}

// SimInit draws a starting point from the beta prior.
func (p *Posterior) SimInit(rng *rand.Rand) []float64 {
	return []float64{dist.BetaSample(rng, p.priorP, p.priorQ)}
}
