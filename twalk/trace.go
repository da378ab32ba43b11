package twalk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Record is a single trace entry: the primary walker and its energy.
type Record struct {
	Theta  []float64
	Energy float64
}

// Trace is the ordered sequence of states of the primary walker, one
// record per iteration plus the initial state. Records are never
// modified after they are appended.
type Trace struct {
	dim     int
	records []Record
}

func newTrace(dim, capacity int) *Trace {
	return &Trace{
		dim:     dim,
		records: make([]Record, 0, capacity),
	}
}

func (t *Trace) append(theta []float64, energy float64) {
	t.records = append(t.records, Record{
		Theta:  append([]float64(nil), theta...),
		Energy: energy,
	})
}

// Len returns the number of records.
func (t *Trace) Len() int {
	return len(t.records)
}

// Dim returns the parameter dimension.
func (t *Trace) Dim() int {
	return t.dim
}

// At returns the i-th record. The record must not be modified.
func (t *Trace) At(i int) Record {
	return t.records[i]
}

// MAP returns a copy of the sample with the lowest energy and the
// energy itself.
func (t *Trace) MAP() ([]float64, float64) {
	if len(t.records) == 0 {
		return nil, math.Inf(1)
	}
	best := 0
	for i, r := range t.records {
		if r.Energy < t.records[best].Energy {
			best = i
		}
	}
	r := t.records[best]
	return append([]float64(nil), r.Theta...), r.Energy
}

// BurnIn returns a view of the trace with the first fraction f of the
// records dropped. The records are shared with the original trace.
func (t *Trace) BurnIn(f float64) *Trace {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	start := int(f * float64(len(t.records)))
	return &Trace{
		dim:     t.dim,
		records: t.records[start:],
	}
}

// Component returns the values of the i-th parameter across the trace.
func (t *Trace) Component(i int) []float64 {
	v := make([]float64, len(t.records))
	for k, r := range t.records {
		v[k] = r.Theta[i]
	}
	return v
}

// Energies returns the energy of every record.
func (t *Trace) Energies() []float64 {
	v := make([]float64, len(t.records))
	for k, r := range t.records {
		v[k] = r.Energy
	}
	return v
}

// Mean returns the sample mean of the i-th parameter.
func (t *Trace) Mean(i int) float64 {
	return stat.Mean(t.Component(i), nil)
}

// Variance returns the sample variance of the i-th parameter.
func (t *Trace) Variance(i int) float64 {
	return stat.Variance(t.Component(i), nil)
}

// Quantile returns the empirical p-quantile of the i-th parameter.
func (t *Trace) Quantile(i int, p float64) float64 {
	v := t.Component(i)
	sort.Float64s(v)
	return stat.Quantile(p, stat.Empirical, v, nil)
}
