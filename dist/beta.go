// Package dist implements functions for the beta distribution.
package dist

import (
	"math"
	"math/rand"

	"github.com/gonum/mathext"
)

// LnBeta returns log of Beta function.
func LnBeta(p, q float64) float64 {
	lgp, _ := math.Lgamma(p)
	lgq, _ := math.Lgamma(q)
	lgpq, _ := math.Lgamma(p + q)
	return lgp + lgq - lgpq
}

// BetaLogPdf returns the log density of the beta distribution with
// shape parameters p and q at x. Outside (0, 1) the density is zero.
func BetaLogPdf(x, p, q float64) float64 {
	if x <= 0 || x >= 1 {
		return math.Inf(-1)
	}
	return (p-1)*math.Log(x) + (q-1)*math.Log(1-x) - LnBeta(p, q)
}

// BetaPdf returns the density of the beta distribution at x.
func BetaPdf(x, p, q float64) float64 {
	return math.Exp(BetaLogPdf(x, p, q))
}

/*

CDFBeta returns distribution function of the standard form of the beta
distribution, that is, the incomplete beta ratio I_x(p,q).

*/
func CDFBeta(x, p, q float64) float64 {
	return mathext.RegIncBeta(p, q, x)
}

// QuantileBeta calculates the quantile of the beta distribution.
func QuantileBeta(prob, p, q float64) float64 {
	return mathext.InvRegIncBeta(p, q, prob)
}

// BetaSample draws one value from the beta distribution using the
// inverse CDF and the supplied random source.
func BetaSample(rng *rand.Rand, p, q float64) float64 {
	return QuantileBeta(rng.Float64(), p, q)
}
