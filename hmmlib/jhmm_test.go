// Tests confirming that the log-likelihood is non-decreasing over the EM
// iterations and that every update yields valid distributions.

package hmmlib

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	niter = 20
)

func TestMstepRowSums(t *testing.T) {

	for _, prior := range []float64{0, 0.5} {
		for _, K := range []int{1, 2, 4} {

			cfg := DefaultConfig()
			cfg.PriorRho = prior

			rng := rand.New(rand.NewSource(int64(K)))
			reads := randomReads(rng, 40, 15, 5, 4, K%2 == 0)
			hmm := NewJHMM(reads, 15, K, 5, cfg, 1)

			for it := 0; it < 3; it++ {
				hmm.Advance()
				assert.Less(t, hmm.Params().MaxRowError(), 1e-9, "K=%d prior=%f it=%d", K, prior, it)
			}
		}
	}
}

func TestLogLikeMatchesTerminal(t *testing.T) {

	rng := rand.New(rand.NewSource(7))
	reads := randomReads(rng, 60, 20, 4, 5, true)
	hmm := NewJHMM(reads, 20, 3, 4, DefaultConfig(), 2)

	for it := 0; it < 5; it++ {
		llf := hmm.LogLike()
		assert.InDelta(t, llf, hmm.TerminalLogLike(), 1e-9*math.Abs(llf))
		hmm.Advance()
	}

	require.Len(t, hmm.ReadHMMs(), reads.Len())
	for _, rh := range hmm.ReadHMMs() {
		b, e := rh.Read().Span()
		var s float64
		for j := b; j < e; j++ {
			s += math.Log(rh.C(j))
		}
		assert.InDelta(t, rh.LogLike(), s, 1e-10)
	}
}

func TestLLFNonDecreasing(t *testing.T) {

	for _, K := range []int{1, 2, 3, 5} {
		for _, paired := range []bool{false, true} {
			for _, seed := range []int64{1, 2, 3} {

				rng := rand.New(rand.NewSource(seed))
				reads := randomReads(rng, 50, 20, 4, 4, paired)

				cfg := DefaultConfig()
				cfg.Workers = 3
				hmm := NewJHMM(reads, 20, K, 4, cfg, seed)

				llf := hmm.LogLike()
				for i := 0; i < niter; i++ {
					hmm.Advance()
					if hmm.LogLike() < llf-1e-8*math.Abs(llf) {
						fmt.Printf("K=%d paired=%v seed=%d iter=%d\n", K, paired, seed, i)
						fmt.Printf("%f %f %g\n", llf, hmm.LogLike(), llf-hmm.LogLike())
						t.Fail()
					}
					llf = hmm.LogLike()
				}
			}
		}
	}
}

func TestWorkersDoNotChangeResult(t *testing.T) {

	rng := rand.New(rand.NewSource(9))
	reads := randomReads(rng, 80, 20, 4, 6, false)

	var llf []float64
	for _, w := range []int{1, 4} {
		cfg := DefaultConfig()
		cfg.Workers = w
		hmm := NewJHMM(reads, 20, 2, 4, cfg, 3)
		for i := 0; i < 5; i++ {
			hmm.Advance()
		}
		llf = append(llf, hmm.LogLike())
	}

	assert.InDelta(t, llf[0], llf[1], 1e-8*math.Abs(llf[0]))
}

func TestWarmStartCopiesParams(t *testing.T) {

	rng := rand.New(rand.NewSource(4))
	reads := randomReads(rng, 40, 12, 4, 4, false)

	cfg := DefaultConfig()
	cfg.PriorRho = 0.25
	em := NewSingleEM(reads, nil, 12, 2, 4, cfg, NewBestTracker(), 5)
	or := em.Run()

	cfg2 := DefaultConfig()
	hmm := NewJHMMFromResult(or, cfg2)
	par := hmm.Params()

	assert.Equal(t, or.Pi, par.Pi)
	assert.Equal(t, or.Rho, par.Rho)
	assert.Equal(t, or.Mu, par.Mu)
	assert.Equal(t, or.PriorRho, hmm.PriorRho())
	assert.Equal(t, or.Epsilon, hmm.Epsilon())

	// The model owns its own copy
	par.Mu[0] += 1
	assert.NotEqual(t, or.Mu[0], par.Mu[0])

	pe := NewPolishEM(or, cfg2, NewBestTracker())
	assert.Equal(t, cfg2.PolishDelta, pe.delta)
	assert.Equal(t, or.Rho, pe.Model().Params().Rho)
}

func TestDiagnose(t *testing.T) {

	rng := rand.New(rand.NewSource(6))
	reads := randomReads(rng, 10, 8, 3, 3, false)
	hmm := NewJHMM(reads, 8, 2, 3, DefaultConfig(), 1)
	require.Empty(t, hmm.Diagnose())

	for i := range hmm.par.Mu {
		hmm.par.Mu[i] = math.NaN()
	}
	hmm.estep()

	assert.True(t, math.IsNaN(hmm.LogLike()))
	assert.NotEmpty(t, hmm.Diagnose())
}
