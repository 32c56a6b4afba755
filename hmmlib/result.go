package hmmlib

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Termination records why an EM run stopped.
type Termination uint8

// Converged, etc. are the possible reasons for an EM run to stop.
const (
	Converged Termination = iota
	PreBreak
	Stagnated
	NumericallyInvalid
)

func (t Termination) String() string {
	switch t {
	case Converged:
		return "converged"
	case PreBreak:
		return "pre-break"
	case Stagnated:
		return "break-500"
	case NumericallyInvalid:
		return "numerically-invalid"
	default:
		return fmt.Sprintf("termination(%d)", uint8(t))
	}
}

// OptimalResult is a snapshot of one trained model.  Its parameter slices
// are private copies and are not shared with any live model.
type OptimalResult struct {

	// Identifies the run that produced the result
	RunID string

	// Total number of reads, counting multiplicities
	NRead int

	NState  int
	NPos    int
	NSymbol int

	Reads []*Read

	// Reference haplotypes, only used for diagnostics
	Haplotypes [][]byte

	Rho []float64
	Pi  []float64
	Mu  []float64

	LogLike    float64
	BIC        float64
	FreeParams int

	PriorRho float64
	Epsilon  float64

	Seed        int64
	Iterations  int
	Termination Termination
}

// BIC returns the Bayesian information criterion for a log-likelihood llf
// attained with nfree free parameters on nobs reads.  Larger is better.
func BIC(llf float64, nfree, nobs int) float64 {
	return llf - float64(nfree)/2*math.Log(float64(nobs))
}

// Params returns a copy of the parameters of the result.
func (or *OptimalResult) Params() *Params {
	par := &Params{
		NPos:    or.NPos,
		NState:  or.NState,
		NSymbol: or.NSymbol,
		Pi:      or.Pi,
		Rho:     or.Rho,
		Mu:      or.Mu,
	}
	return par.Copy()
}

// Consensus returns, for every state, the most probable symbol at each
// position.
func (or *OptimalResult) Consensus() [][]byte {

	par := &Params{NPos: or.NPos, NState: or.NState, NSymbol: or.NSymbol, Mu: or.Mu}

	cons := make([][]byte, or.NState)
	for k := range cons {
		cons[k] = make([]byte, or.NPos)
		for j := 0; j < or.NPos; j++ {
			cons[k][j] = byte(argmax(par.MuRow(j, k)))
		}
	}

	return cons
}

// HaplotypeDistances returns, for every state, the Hamming distance between
// its consensus and the closest reference haplotype.  It returns nil if no
// reference haplotypes are available.
func (or *OptimalResult) HaplotypeDistances() []int {

	if len(or.Haplotypes) == 0 {
		return nil
	}

	cons := or.Consensus()
	dist := make([]int, len(cons))
	for k, c := range cons {
		dist[k] = -1
		for _, h := range or.Haplotypes {
			d := hamming(c, h)
			if dist[k] < 0 || d < dist[k] {
				dist[k] = d
			}
		}
	}

	return dist
}

// hamming counts mismatches over the common length of x and y, plus the
// difference in length.
func hamming(x, y []byte) int {

	n := len(x)
	d := 0
	if len(y) < n {
		n = len(y)
		d = len(x) - len(y)
	} else {
		d = len(y) - len(x)
	}

	for i := 0; i < n; i++ {
		if x[i] != y[i] {
			d++
		}
	}

	return d
}

// appendBIC appends a "<BIC>\t<free parameters>" line to BIC-<K>.txt in dir.
func appendBIC(dir string, or *OptimalResult) error {

	fname := filepath.Join(dir, fmt.Sprintf("BIC-%d.txt", or.NState))
	fid, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "open BIC file")
	}
	defer fid.Close()

	if _, err := fmt.Fprintf(fid, "%v\t%d\n", or.BIC, or.FreeParams); err != nil {
		return errors.Wrapf(err, "append to %s", fname)
	}

	return fid.Close()
}

// EncodeResult serializes a result as gzip-compressed gob data.
func EncodeResult(or *OptimalResult) ([]byte, error) {

	var buf bytes.Buffer
	if err := WriteResult(&buf, or); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeResult is the inverse of EncodeResult.
func DecodeResult(payload []byte) (*OptimalResult, error) {
	return ReadResult(bytes.NewReader(payload))
}

// WriteResult writes a result to w as gzip-compressed gob data.
func WriteResult(w io.Writer, or *OptimalResult) error {

	gid := gzip.NewWriter(w)
	if err := gob.NewEncoder(gid).Encode(or); err != nil {
		return errors.Wrap(err, "encode result")
	}

	return errors.Wrap(gid.Close(), "close gzip writer")
}

// ReadResult reads a result written by WriteResult.
func ReadResult(r io.Reader) (*OptimalResult, error) {

	gid, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "gzip reader")
	}
	defer gid.Close()

	var or OptimalResult
	if err := gob.NewDecoder(gid).Decode(&or); err != nil {
		return nil, errors.Wrap(err, "decode result")
	}

	return &or, nil
}
