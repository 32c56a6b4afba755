// Package hmmsim generates reads from known haplotypes, for testing the
// estimation code on data with a known answer.
package hmmsim

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/g1o/QuasiRecomb/hmmlib"
)

// Design describes a simulated sequencing experiment.
type Design struct {

	// Number of reads to draw, before duplicates are merged
	NRead int

	// Length of each read, or of each mate for paired reads
	ReadLen int

	// Number of uncovered positions between mates, negative for
	// single-end reads
	Insert int

	// Alphabet size
	NSymbol int

	// Per-base probability of reading each of the wrong symbols
	Epsilon float64

	// Relative abundance of the haplotypes, uniform if nil.  The weights
	// are scaled to sum to one.
	Freq []float64
}

// Paired reports whether the design produces paired reads.
func (d *Design) Paired() bool {
	return d.Insert >= 0
}

// span returns the number of genome positions covered by one read.
func (d *Design) span() int {
	if d.Paired() {
		return 2*d.ReadLen + d.Insert
	}
	return d.ReadLen
}

// RandomHaplotypes returns nHap sequences of length nPos.  The first is
// uniformly random and each of the others differs from it at every
// position with probability divergence.
func RandomHaplotypes(rng *rand.Rand, nHap, nPos, nSymbol int, divergence float64) [][]byte {

	haps := make([][]byte, nHap)
	for i := range haps {
		haps[i] = make([]byte, nPos)
	}

	for j := 0; j < nPos; j++ {
		haps[0][j] = byte(rng.Intn(nSymbol))
		for i := 1; i < nHap; i++ {
			haps[i][j] = haps[0][j]
			if rng.Float64() < divergence {
				haps[i][j] = otherSymbol(rng, haps[0][j], nSymbol)
			}
		}
	}

	return haps
}

// Simulate draws reads from the haplotypes.  Each read picks a haplotype
// according to d.Freq and a uniformly random start position.
func Simulate(rng *rand.Rand, haps [][]byte, d Design) (*hmmlib.ReadSet, error) {

	if len(haps) == 0 {
		return nil, errors.New("no haplotypes")
	}
	nPos := len(haps[0])
	if d.ReadLen < 1 || d.span() > nPos {
		return nil, errors.Errorf("read span %d does not fit in %d positions", d.span(), nPos)
	}
	if d.Epsilon < 0 || float64(d.NSymbol-1)*d.Epsilon > 1 {
		return nil, errors.Errorf("invalid error rate %g", d.Epsilon)
	}

	freq, err := frequencies(d.Freq, len(haps))
	if err != nil {
		return nil, err
	}

	rs := hmmlib.NewReadSet()
	for i := 0; i < d.NRead; i++ {
		h := haps[genDiscrete(rng, freq)]
		start := rng.Intn(nPos - d.span() + 1)
		seq := sequence(rng, h[start:start+d.ReadLen], d)
		if d.Paired() {
			start2 := start + d.ReadLen + d.Insert
			seq2 := sequence(rng, h[start2:start2+d.ReadLen], d)
			rs.Add(hmmlib.NewPairedRead(seq, start, seq2, start2, 1))
		} else {
			rs.Add(hmmlib.NewRead(seq, start, 1))
		}
	}

	return rs, nil
}

// frequencies returns the haplotype abundances scaled to sum to one.
func frequencies(w []float64, nHap int) ([]float64, error) {

	if w == nil {
		w = make([]float64, nHap)
		floats.AddConst(1, w)
	}
	if len(w) != nHap {
		return nil, errors.Errorf("%d frequencies for %d haplotypes", len(w), nHap)
	}
	if floats.Min(w) < 0 {
		return nil, errors.Errorf("negative frequency in %v", w)
	}

	s := floats.Sum(w)
	if !(s > 0) || math.IsInf(s, 0) {
		return nil, errors.Errorf("frequencies %v do not have a positive finite sum", w)
	}

	freq := make([]float64, nHap)
	floats.ScaleTo(freq, 1/s, w)

	return freq, nil
}

// sequence copies the template, reading each base wrongly with total
// probability (NSymbol-1)*Epsilon.
func sequence(rng *rand.Rand, template []byte, d Design) []byte {

	seq := make([]byte, len(template))
	pe := float64(d.NSymbol-1) * d.Epsilon
	for j, v := range template {
		if pe > 0 && rng.Float64() < pe {
			seq[j] = otherSymbol(rng, v, d.NSymbol)
		} else {
			seq[j] = v
		}
	}

	return seq
}

// otherSymbol returns a symbol different from v, chosen uniformly.
func otherSymbol(rng *rand.Rand, v byte, nSymbol int) byte {
	w := byte(rng.Intn(nSymbol - 1))
	if w >= v {
		w++
	}
	return w
}

// Generate a discrete random variable from the given probability vector,
// which must sum to 1.
func genDiscrete(rng *rand.Rand, pr []float64) int {

	u := rng.Float64()
	p := 0.0
	for j := range pr {
		p += pr[j]
		if u < p {
			return j
		}
	}

	// Rounding
	return len(pr) - 1
}
