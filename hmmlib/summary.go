package hmmlib

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
)

// WriteSummary writes the parameters of a result to the parameter logger.
// The optional labels name the states.
func WriteSummary(parlogger *logrus.Logger, or *OptimalResult, labels []string) {

	K := or.NState

	parlogger.Printf("K=%d run=%s %s after %d iterations", K, or.RunID, or.Termination, or.Iterations)
	parlogger.Printf("llf=%f BIC=%f free=%d reads=%d\n", or.LogLike, or.BIC, or.FreeParams, or.NRead)

	parlogger.Printf("Initial state distribution:")
	writeMatrix(parlogger, or.Pi, 0, 1, K, nil)
	parlogger.Printf("")

	for j := 0; j < or.NPos-1; j++ {
		parlogger.Printf("Transition matrix %d -> %d:", j, j+1)
		writeMatrix(parlogger, or.Rho, j*K*K, K, K, labels)
		parlogger.Printf("")
	}

	for j := 0; j < or.NPos; j++ {
		parlogger.Printf("Emissions at %d:", j)
		writeMatrix(parlogger, or.Mu, j*K*or.NSymbol, K, or.NSymbol, labels)
		parlogger.Printf("")
	}

	parlogger.Printf("Consensus:")
	for k, c := range or.Consensus() {
		if labels != nil {
			parlogger.Printf("%-20s%s", labels[k], DecodeBases(c))
		} else {
			parlogger.Printf("%s", DecodeBases(c))
		}
	}

	if dist := or.HaplotypeDistances(); dist != nil {
		parlogger.Printf("Distance to closest haplotype: %v", dist)
	}
	parlogger.Printf("")
}

// writeMatrix writes a matrix in text format to the logger
func writeMatrix(parlogger *logrus.Logger, x []float64, off, nrow, ncol int, labels []string) {

	var buf bytes.Buffer

	for i := 0; i < nrow; i++ {

		buf.Reset()

		if labels != nil {
			fmt.Fprintf(&buf, "%-20s", labels[i])
		}
		for j := 0; j < ncol; j++ {
			fmt.Fprintf(&buf, "%12.4f ", x[off+i*ncol+j])
		}

		parlogger.Print(buf.String())
	}
}
