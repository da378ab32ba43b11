package fhn

import (
	"errors"
	"math"

	"github.com/gonum/matrix/mat64"
)

// ErrDiverged is returned when the numerical integration produces a
// non-finite value. Callers treat it as a failed evaluation of the
// candidate, not as a crash.
var ErrDiverged = errors.New("fhn: numerical solution diverged")

// ForwardMap returns the solution at the observation locations at the
// final time for a given reaction parameter. Implementations are
// deterministic in theta.
type ForwardMap interface {
	Observe(theta float64) ([]float64, error)
}

// UTrue is the traveling-front solution of the Nagumo equation,
// centered at x=0.5 at t=0 and moving with speed (1-2*theta)/sqrt(2).
func UTrue(x, t, theta float64) float64 {
	c := (1 - 2*theta) / math.Sqrt2
	return 1 / (1 + math.Exp((x-0.5-c*t)/math.Sqrt2))
}

// Exact evaluates the closed-form solution on the observation grid.
type Exact struct {
	mesh *Mesh
}

// NewExact creates an exact forward map on the mesh.
func NewExact(m *Mesh) *Exact {
	return &Exact{mesh: m}
}

// Observe returns the closed-form solution at the observation
// locations at the final time. It never fails.
func (e *Exact) Observe(theta float64) ([]float64, error) {
	obs := make([]float64, e.mesh.NObs)
	for i, x := range e.mesh.XObs {
		obs[i] = UTrue(x, e.mesh.Tau, theta)
	}
	return obs, nil
}

// Numeric integrates the equation with the method of lines: second
// order central differences in space and the classical Runge-Kutta
// scheme in time, with Dirichlet boundary values taken from the
// traveling front. The mesh time step is a reporting step; the
// integrator sub-steps internally to stay within the explicit
// stability limit. A Numeric value reuses its integration buffers, so
// it is not safe for concurrent use; create one per chain.
type Numeric struct {
	mesh               *Mesh
	k1, k2, k3, k4, ut []float64
}

// NewNumeric creates a finite-difference forward map on the mesh.
func NewNumeric(m *Mesh) *Numeric {
	n := m.Nx - 1
	return &Numeric{
		mesh: m,
		k1:   make([]float64, n),
		k2:   make([]float64, n),
		k3:   make([]float64, n),
		k4:   make([]float64, n),
		ut:   make([]float64, n),
	}
}

// rhs evaluates du/dt on the interior nodes at time t.
func (fd *Numeric) rhs(t, theta float64, u, du []float64) {
	m := fd.mesh
	p := 1 / (m.Dx * m.Dx)
	n := len(u)
	for j := 0; j < n; j++ {
		var left, right float64
		if j == 0 {
			left = UTrue(0, t, theta)
		} else {
			left = u[j-1]
		}
		if j == n-1 {
			right = UTrue(1, t, theta)
		} else {
			right = u[j+1]
		}
		v := u[j]
		du[j] = p*(left-2*v+right) + v*(1-v)*(v-theta)
	}
}

// Solve integrates the equation and returns the full solution field,
// one row per time step over the interior nodes.
func (fd *Numeric) Solve(theta float64) (*mat64.Dense, error) {
	m := fd.mesh
	n := m.Nx - 1
	field := mat64.NewDense(m.NT, n, nil)

	u := make([]float64, n)
	for j := range u {
		u[j] = UTrue(m.X[j+1], 0, theta)
	}
	field.SetRow(0, u)

	// The reporting step dx^2/alpha may exceed the stability limit of
	// the explicit scheme (for the diffusion term roughly h < 0.7*dx^2);
	// sub-step to keep the integration step at or below dx^2/2.
	nsub := int(math.Ceil(m.Dt / (0.5 * m.Dx * m.Dx)))
	if nsub < 1 {
		nsub = 1
	}
	h := m.Dt / float64(nsub)

	for step := 1; step < m.NT; step++ {
		t := m.T[step-1]
		for sub := 0; sub < nsub; sub++ {
			if err := fd.rk4Step(t+float64(sub)*h, h, theta, u); err != nil {
				return nil, err
			}
		}
		field.SetRow(step, u)
	}
	return field, nil
}

// rk4Step advances u in place by a single Runge-Kutta step of size h.
func (fd *Numeric) rk4Step(t, h, theta float64, u []float64) error {
	fd.rhs(t, theta, u, fd.k1)
	for j := range u {
		fd.ut[j] = u[j] + 0.5*h*fd.k1[j]
	}
	fd.rhs(t+0.5*h, theta, fd.ut, fd.k2)
	for j := range u {
		fd.ut[j] = u[j] + 0.5*h*fd.k2[j]
	}
	fd.rhs(t+0.5*h, theta, fd.ut, fd.k3)
	for j := range u {
		fd.ut[j] = u[j] + h*fd.k3[j]
	}
	fd.rhs(t+h, theta, fd.ut, fd.k4)

	for j := range u {
		u[j] += h / 6 * (fd.k1[j] + 2*fd.k2[j] + 2*fd.k3[j] + fd.k4[j])
		if math.IsNaN(u[j]) || math.IsInf(u[j], 0) {
			return ErrDiverged
		}
	}
	return nil
}

// Observe integrates the equation and returns the final-time solution
// at the observation locations.
func (fd *Numeric) Observe(theta float64) ([]float64, error) {
	field, err := fd.Solve(theta)
	if err != nil {
		return nil, err
	}
	m := fd.mesh
	last := field.RawRowView(m.NT - 1)
	obs := make([]float64, m.NObs)
	for k := 1; k <= m.NObs; k++ {
		obs[k-1] = last[k*m.NM-1]
	}
	return obs, nil
}
