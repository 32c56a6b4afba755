package hmmlib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ReadHMM runs the scaled forward-backward recursion for one distinct read.
// Its buffers only cover the span of the read and are overwritten on every
// E-step, so nothing carries over from one parameter set to the next.
type ReadHMM struct {
	read *Read

	// The covered span [begin, end)
	begin int
	end   int

	nState int

	// Scaled forward probabilities, span x NState
	fprob []float64

	// Scaled backward probabilities, span x NState
	bprob []float64

	// Scaling factor per position of the span
	scale []float64

	// Emission workspace
	wk []float64
}

func newReadHMM(r *Read, nState int) *ReadHMM {

	begin, end := r.Span()
	n := end - begin

	return &ReadHMM{
		read:   r,
		begin:  begin,
		end:    end,
		nState: nState,
		fprob:  make([]float64, n*nState),
		bprob:  make([]float64, n*nState),
		scale:  make([]float64, n),
		wk:     make([]float64, nState),
	}
}

// Read returns the read bound to this engine.
func (rh *ReadHMM) Read() *Read {
	return rh.read
}

// C returns the scaling factor at genome position j.  Positions outside the
// span are uninformative and report 1.
func (rh *ReadHMM) C(j int) float64 {
	if j < rh.begin || j >= rh.end {
		return 1
	}
	return rh.scale[j-rh.begin]
}

// Gamma returns the posterior state distribution at genome position j, which
// must lie inside the span.
func (rh *ReadHMM) Gamma(j int) []float64 {
	t := j - rh.begin
	g := make([]float64, rh.nState)
	floats.MulTo(g, rh.fprob[t*rh.nState:(t+1)*rh.nState], rh.bprob[t*rh.nState:(t+1)*rh.nState])
	return g
}

// LogLike returns the log-likelihood of one copy of the read from the
// current scaling factors.
func (rh *ReadHMM) LogLike() float64 {
	var llf float64
	for _, c := range rh.scale {
		llf += math.Log(c)
	}
	return llf
}

// emissions fills wk with the emission probabilities at position j.
func (rh *ReadHMM) emissions(par *Params, j int) []float64 {
	v, ok := rh.read.At(j)
	for k := range rh.wk {
		if ok {
			rh.wk[k] = par.emit(j, k, v)
		} else {
			rh.wk[k] = 1
		}
	}
	return rh.wk
}

func (rh *ReadHMM) forward(par *Params) {

	K := rh.nState
	n := rh.end - rh.begin

	for t := 0; t < n; t++ {

		j := rh.begin + t
		cur := rh.fprob[t*K : (t+1)*K]
		em := rh.emissions(par, j)

		if t == 0 {
			floats.MulTo(cur, par.Pi, em)
		} else {
			prev := rh.fprob[(t-1)*K : t*K]
			for l := 0; l < K; l++ {
				var s float64
				for k := 0; k < K; k++ {
					s += prev[k] * par.rho(j-1, k, l)
				}
				cur[l] = s * em[l]
			}
		}

		c := floats.Sum(cur)
		rh.scale[t] = c
		if c > 0 {
			floats.Scale(1/c, cur)
		}
	}
}

func (rh *ReadHMM) backward(par *Params) {

	K := rh.nState
	n := rh.end - rh.begin

	last := rh.bprob[(n-1)*K : n*K]
	for k := range last {
		last[k] = 1
	}

	for t := n - 2; t >= 0; t-- {

		j := rh.begin + t
		next := rh.bprob[(t+1)*K : (t+2)*K]
		em := rh.emissions(par, j+1)
		c := rh.scale[t+1]

		for k := 0; k < K; k++ {
			var s float64
			for l := 0; l < K; l++ {
				s += par.rho(j, k, l) * em[l] * next[l]
			}
			rh.bprob[t*K+k] = s / c
		}
	}
}

// estep recomputes the forward and backward probabilities under par and adds
// the statistics of this read, weighted by its multiplicity, to ss.
func (rh *ReadHMM) estep(par *Params, ss *suffStats) {

	if rh.end <= rh.begin {
		return
	}

	rh.forward(par)
	rh.backward(par)

	K := rh.nState
	nsym := par.NSymbol
	n := rh.end - rh.begin
	w := float64(rh.read.Count)

	for t := 0; t < n; t++ {

		j := rh.begin + t
		fp := rh.fprob[t*K : (t+1)*K]
		bp := rh.bprob[t*K : (t+1)*K]

		if t == 0 {
			for k := 0; k < K; k++ {
				ss.pi[k] += w * fp[k] * bp[k]
			}
		}

		if v, ok := rh.read.At(j); ok && int(v) < nsym {
			for k := 0; k < K; k++ {
				ss.mu[(j*K+k)*nsym+int(v)] += w * fp[k] * bp[k]
			}
		}

		if t == n-1 {
			continue
		}

		// Expected transitions from position j to j+1
		em := rh.emissions(par, j+1)
		next := rh.bprob[(t+1)*K : (t+2)*K]
		c := rh.scale[t+1]
		for k := 0; k < K; k++ {
			ii := (j*K + k) * K
			for l := 0; l < K; l++ {
				ss.rho[ii+l] += w * fp[k] * par.Rho[ii+l] * em[l] * next[l] / c
			}
		}
	}

	ss.llf += w * rh.LogLike()
}

// CheckConsistency scans the forward, backward and scaling buffers and
// returns a description of every invalid value found.
func (rh *ReadHMM) CheckConsistency() []string {

	var msgs []string
	K := rh.nState

	for t, c := range rh.scale {
		j := rh.begin + t
		switch {
		case math.IsNaN(c):
			msgs = append(msgs, fmt.Sprintf("C[%d] is NaN", j))
		case c <= 0:
			msgs = append(msgs, fmt.Sprintf("C[%d] is %g", j, c))
		}

		var g float64
		for k := 0; k < K; k++ {
			f, b := rh.fprob[t*K+k], rh.bprob[t*K+k]
			if math.IsNaN(f) || f < 0 {
				msgs = append(msgs, fmt.Sprintf("alpha[%d][%d] is %g", j, k, f))
			}
			if math.IsNaN(b) || b < 0 {
				msgs = append(msgs, fmt.Sprintf("beta[%d][%d] is %g", j, k, b))
			}
			g += f * b
		}
		if math.Abs(g-1) > 1e-6 {
			msgs = append(msgs, fmt.Sprintf("gamma[%d] sums to %g", j, g))
		}
	}

	return msgs
}
