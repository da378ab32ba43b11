package fhn

import (
	"math/rand"
)

// MakeData generates synthetic observations: the closed-form solution
// at the observation locations at the final time plus iid Gaussian
// noise with standard deviation sigma. The random source is passed
// explicitly and is owned by the caller, so data generation never
// touches the sampler's random stream.
func MakeData(rng *rand.Rand, mesh *Mesh, theta, sigma float64) []float64 {
	obs, _ := NewExact(mesh).Observe(theta)
	data := make([]float64, len(obs))
	for i, v := range obs {
		data[i] = v + sigma*rng.NormFloat64()
	}
	return data
}
