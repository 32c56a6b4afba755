package hmmlib

import (
	"fmt"
	"math/rand"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/floats"
)

// suffStats holds the weighted expected counts gathered during one E-step.
type suffStats struct {
	pi  []float64
	rho []float64
	mu  []float64
	llf float64
}

func newSuffStats(par *Params) *suffStats {
	return &suffStats{
		pi:  make([]float64, len(par.Pi)),
		rho: make([]float64, len(par.Rho)),
		mu:  make([]float64, len(par.Mu)),
	}
}

// merge adds the counts of o into ss.
func (ss *suffStats) merge(o *suffStats) {
	floats.Add(ss.pi, o.pi)
	floats.Add(ss.rho, o.rho)
	floats.Add(ss.mu, o.mu)
	ss.llf += o.llf
}

// JHMM is the profile HMM shared by all reads.  It owns the global
// parameters and one ReadHMM per distinct read.
type JHMM struct {
	par *Params

	reads []*ReadHMM

	// Statistics of the most recent E-step, computed under par
	stats *suffStats

	// Dirichlet pseudo-count added to the transition counts
	priorRho float64

	// Smoothing used for the random starting values
	eps float64

	// Number of parallel batches in the E-step, zero for GOMAXPROCS
	workers int
}

func newJHMM(reads *ReadSet, par *Params, cfg *Config) *JHMM {

	hmm := &JHMM{
		par:      par,
		reads:    make([]*ReadHMM, len(reads.Reads)),
		priorRho: cfg.PriorRho,
		eps:      cfg.Epsilon,
		workers:  cfg.Workers,
	}

	for i, r := range reads.Reads {
		hmm.reads[i] = newReadHMM(r, par.NState)
	}

	hmm.estep()

	return hmm
}

// NewJHMM returns a model with random starting values drawn from a
// generator seeded with seed.
func NewJHMM(reads *ReadSet, nPos, nState, nSymbol int, cfg *Config, seed int64) *JHMM {

	par := NewParams(nPos, nState, nSymbol)
	par.randomize(rand.New(rand.NewSource(seed)), cfg.Epsilon)

	return newJHMM(reads, par, cfg)
}

// NewJHMMFromResult returns a model whose parameters are an exact copy of
// those of a previous result.
func NewJHMMFromResult(or *OptimalResult, cfg *Config) *JHMM {

	par := &Params{
		NPos:    or.NPos,
		NState:  or.NState,
		NSymbol: or.NSymbol,
		Pi:      append([]float64(nil), or.Pi...),
		Rho:     append([]float64(nil), or.Rho...),
		Mu:      append([]float64(nil), or.Mu...),
	}

	reads := &ReadSet{Reads: or.Reads}

	c := *cfg
	c.Epsilon = or.Epsilon
	c.PriorRho = or.PriorRho

	return newJHMM(reads, par, &c)
}

// Params returns the live parameters.  Callers must not modify them.
func (hmm *JHMM) Params() *Params {
	return hmm.par
}

// ReadHMMs returns the per-read engines.
func (hmm *JHMM) ReadHMMs() []*ReadHMM {
	return hmm.reads
}

// Epsilon returns the smoothing value used for the starting parameters.
func (hmm *JHMM) Epsilon() float64 {
	return hmm.eps
}

// PriorRho returns the pseudo-count used in the transition update.
func (hmm *JHMM) PriorRho() float64 {
	return hmm.priorRho
}

// LogLike returns the log-likelihood computed during the last E-step.
func (hmm *JHMM) LogLike() float64 {
	return hmm.stats.llf
}

// TerminalLogLike recomputes the log-likelihood read by read from the
// scaling factors currently held by each ReadHMM.
func (hmm *JHMM) TerminalLogLike() float64 {

	var llf float64
	for _, rh := range hmm.reads {
		llf += float64(rh.read.Count) * rh.LogLike()
	}

	return llf
}

// ReadCount returns the number of reads counting multiplicities.
func (hmm *JHMM) ReadCount() int {
	var n int
	for _, rh := range hmm.reads {
		n += rh.read.Count
	}
	return n
}

// Advance performs one EM iteration: the M-step turns the statistics of
// the last E-step into a new parameter set, then the E-step is repeated
// under those parameters.
func (hmm *JHMM) Advance() {
	hmm.par = hmm.mstep()
	hmm.estep()
}

// estep runs forward-backward on every read under the current parameters.
// Reads are processed in parallel batches, each with its own accumulator,
// and the accumulators are merged once every batch has finished.
func (hmm *JHMM) estep() {

	par := hmm.par

	if len(hmm.reads) == 0 {
		hmm.stats = newSuffStats(par)
		return
	}

	result := parallel.RangeReduce(0, len(hmm.reads), hmm.workers, func(low, high int) interface{} {
		ss := newSuffStats(par)
		for _, rh := range hmm.reads[low:high] {
			rh.estep(par, ss)
		}
		return ss
	}, func(x, y interface{}) interface{} {
		ss := x.(*suffStats)
		ss.merge(y.(*suffStats))
		return ss
	})

	hmm.stats = result.(*suffStats)
}

// mstep returns a new parameter set built from the current statistics.
// Rows without any expected count fall back to the uniform distribution.
func (hmm *JHMM) mstep() *Params {

	old := hmm.par
	ss := hmm.stats
	par := NewParams(old.NPos, old.NState, old.NSymbol)

	copy(par.Pi, ss.pi)
	normalizeSum(par.Pi, 1/float64(par.NState))

	copy(par.Rho, ss.rho)
	if hmm.priorRho > 0 {
		floats.AddConst(hmm.priorRho, par.Rho)
	}
	for j := 0; j < par.NPos-1; j++ {
		for k := 0; k < par.NState; k++ {
			normalizeSum(par.RhoRow(j, k), 1/float64(par.NState))
		}
	}

	copy(par.Mu, ss.mu)
	for j := 0; j < par.NPos; j++ {
		for k := 0; k < par.NState; k++ {
			normalizeSum(par.MuRow(j, k), 1/float64(par.NSymbol))
		}
	}

	return par
}

// Diagnose reports invalid values in the per-read buffers and NaN entries
// in the parameters.  It does not modify the model.
func (hmm *JHMM) Diagnose() []string {

	var msgs []string
	for i, rh := range hmm.reads {
		for _, m := range rh.CheckConsistency() {
			msgs = append(msgs, fmt.Sprintf("read %d: %s", i, m))
		}
	}

	return append(msgs, hmm.par.nanReport()...)
}
