package hmmlib

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Params holds the global parameters of the profile HMM in flat buffers.
//
// Pi[k] is the probability of state k at the first covered position of a read.
// Rho[(j*NState+k)*NState+l] is the probability of moving from state k at
// position j to state l at position j+1.  Mu[(j*NState+k)*NSymbol+v] is the
// probability of emitting symbol v at position j from state k.
type Params struct {

	// Number of genome positions (L)
	NPos int

	// Number of latent states (K)
	NState int

	// Alphabet size (n)
	NSymbol int

	// Initial state distribution
	Pi []float64

	// Transition probabilities, (NPos-1) x NState x NState
	Rho []float64

	// Emission probabilities, NPos x NState x NSymbol
	Mu []float64
}

// NewParams allocates a zeroed parameter set.
func NewParams(nPos, nState, nSymbol int) *Params {

	nrho := 0
	if nPos > 1 {
		nrho = (nPos - 1) * nState * nState
	}

	return &Params{
		NPos:    nPos,
		NState:  nState,
		NSymbol: nSymbol,
		Pi:      make([]float64, nState),
		Rho:     make([]float64, nrho),
		Mu:      make([]float64, nPos*nState*nSymbol),
	}
}

// RhoRow returns the transition distribution out of state k at position j.
func (par *Params) RhoRow(j, k int) []float64 {
	i := (j*par.NState + k) * par.NState
	return par.Rho[i : i+par.NState]
}

// MuRow returns the emission distribution of state k at position j.
func (par *Params) MuRow(j, k int) []float64 {
	i := (j*par.NState + k) * par.NSymbol
	return par.Mu[i : i+par.NSymbol]
}

// rho returns a single transition probability.
func (par *Params) rho(j, k, l int) float64 {
	return par.Rho[(j*par.NState+k)*par.NState+l]
}

// emit returns the emission probability of symbol v from state k at
// position j.  Symbols outside the alphabet carry no information.
func (par *Params) emit(j, k int, v byte) float64 {
	if int(v) >= par.NSymbol {
		return 1
	}
	return par.Mu[(j*par.NState+k)*par.NSymbol+int(v)]
}

// Copy returns a deep copy of the parameters.
func (par *Params) Copy() *Params {

	cp := &Params{
		NPos:    par.NPos,
		NState:  par.NState,
		NSymbol: par.NSymbol,
		Pi:      make([]float64, len(par.Pi)),
		Rho:     make([]float64, len(par.Rho)),
		Mu:      make([]float64, len(par.Mu)),
	}
	copy(cp.Pi, par.Pi)
	copy(cp.Rho, par.Rho)
	copy(cp.Mu, par.Mu)

	return cp
}

// randomize fills every distribution with eps-smoothed uniform noise.
func (par *Params) randomize(rng *rand.Rand, eps float64) {

	fill := func(x []float64) {
		for i := range x {
			x[i] = eps + rng.Float64()
		}
		normalizeSum(x, 1/float64(len(x)))
	}

	fill(par.Pi)
	for j := 0; j < par.NPos-1; j++ {
		for k := 0; k < par.NState; k++ {
			fill(par.RhoRow(j, k))
		}
	}
	for j := 0; j < par.NPos; j++ {
		for k := 0; k < par.NState; k++ {
			fill(par.MuRow(j, k))
		}
	}
}

// MaxRowError returns the largest absolute deviation from 1 over the sums
// of pi, every rho row and every mu row.
func (par *Params) MaxRowError() float64 {

	mx := math.Abs(floats.Sum(par.Pi) - 1)
	for j := 0; j < par.NPos-1; j++ {
		for k := 0; k < par.NState; k++ {
			mx = math.Max(mx, math.Abs(floats.Sum(par.RhoRow(j, k))-1))
		}
	}
	for j := 0; j < par.NPos; j++ {
		for k := 0; k < par.NState; k++ {
			mx = math.Max(mx, math.Abs(floats.Sum(par.MuRow(j, k))-1))
		}
	}

	return mx
}

// FreeParams counts the entries of rho, mu and pi that exceed the threshold.
// Entries at or below it are treated as structural zeros.
func (par *Params) FreeParams(threshold float64) int {

	var n int
	for _, x := range [][]float64{par.Rho, par.Mu, par.Pi} {
		for _, v := range x {
			if v > threshold {
				n++
			}
		}
	}

	return n
}

// nanReport lists the parameter entries that are NaN.
func (par *Params) nanReport() []string {

	var msgs []string
	for k, v := range par.Pi {
		if math.IsNaN(v) {
			msgs = append(msgs, fmt.Sprintf("pi[%d] is NaN", k))
		}
	}
	for j := 0; j < par.NPos; j++ {
		for k := 0; k < par.NState; k++ {
			for v, x := range par.MuRow(j, k) {
				if math.IsNaN(x) {
					msgs = append(msgs, fmt.Sprintf("mu[%d][%d][%d] is NaN", j, k, v))
				}
			}
		}
	}
	for j := 0; j < par.NPos-1; j++ {
		for k := 0; k < par.NState; k++ {
			for l, x := range par.RhoRow(j, k) {
				if math.IsNaN(x) {
					msgs = append(msgs, fmt.Sprintf("rho[%d][%d][%d] is NaN", j, k, l))
				}
			}
		}
	}

	return msgs
}
