/*

Package fhn defines the FitzHugh-Nagumo (Nagumo reaction-diffusion)
calibration problem:

	u_t = u_xx + u(1-u)(u-theta),  x in (0, 1), t in (0, tau],

with a scalar reaction parameter theta to be inferred from noisy
observations of u at a few locations at the final time. The package
provides the space-time mesh, two forward-map implementations (closed
form and finite differences), the posterior density and synthetic-data
generation. The sampling itself lives in the twalk package.

*/
package fhn

import (
	"fmt"
)

// Mesh is the immutable space-time grid shared by the forward maps.
// Construct it once with NewMesh and pass it by reference; it is never
// modified afterwards.
type Mesh struct {
	// NObs is the number of observation locations.
	NObs int
	// NM is the number of grid cells between observation locations.
	NM int
	// Tau is the final (observation) time.
	Tau float64
	// Alpha is the stability parameter; Dt = Dx^2/Alpha.
	Alpha float64

	// Nx is the number of spatial nodes, Nx = NM*(NObs+2).
	Nx int
	// Dx is the spatial step.
	Dx float64
	// Dt is the temporal step.
	Dt float64
	// NT is the number of temporal grid points.
	NT int
	// X is the spatial grid, X[k] = k*Dx for k < Nx; the state
	// variables live on the interior nodes X[1:].
	X []float64
	// T is the temporal grid, T[m] = m*Dt.
	T []float64
	// XObs are the observation locations, XObs[k] = (k+1)/(NObs+2).
	XObs []float64
}

// NewMesh builds the grid for the given number of observations, grid
// refinement and stability parameter. All arguments must be positive.
func NewMesh(nObs, nM int, tau, alpha float64) (*Mesh, error) {
	if nObs < 1 || nM < 1 {
		return nil, fmt.Errorf("fhn: mesh needs positive nObs and nM, got %d and %d", nObs, nM)
	}
	if tau <= 0 || alpha <= 0 {
		return nil, fmt.Errorf("fhn: mesh needs positive tau and alpha, got %v and %v", tau, alpha)
	}
	nx := nM * (nObs + 2)
	dx := 1 / float64(nx)
	dt := dx * dx / alpha
	nt := int(tau/dt) + 1

	m := &Mesh{
		NObs:  nObs,
		NM:    nM,
		Tau:   tau,
		Alpha: alpha,
		Nx:    nx,
		Dx:    dx,
		Dt:    dt,
		NT:    nt,
		X:     make([]float64, nx),
		T:     make([]float64, nt),
		XObs:  make([]float64, nObs),
	}
	for k := range m.X {
		m.X[k] = float64(k) * dx
	}
	for k := range m.T {
		m.T[k] = float64(k) * dt
	}
	for k := range m.XObs {
		m.XObs[k] = m.X[(k+1)*nM]
	}
	return m, nil
}
