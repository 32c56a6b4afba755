package hmmlib

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsensusAndDistances(t *testing.T) {

	or := &OptimalResult{
		NState:  2,
		NPos:    3,
		NSymbol: 2,
		Mu: []float64{
			0.9, 0.1, 0.2, 0.8, // position 0
			0.3, 0.7, 0.6, 0.4, // position 1
			0.5, 0.5, 0.1, 0.9, // position 2
		},
	}

	assert.Equal(t, [][]byte{{0, 1, 0}, {1, 0, 1}}, or.Consensus())
	assert.Nil(t, or.HaplotypeDistances())

	or.Haplotypes = [][]byte{{0, 1, 1}, {1, 0, 1}}
	assert.Equal(t, []int{1, 0}, or.HaplotypeDistances())
}

func TestHamming(t *testing.T) {
	assert.Equal(t, 0, hamming([]byte{1, 2}, []byte{1, 2}))
	assert.Equal(t, 1, hamming([]byte{1, 2}, []byte{1, 3}))
	assert.Equal(t, 2, hamming([]byte{1, 2}, []byte{1, 3, 4}))
}

func TestResultEncoding(t *testing.T) {

	rng := rand.New(rand.NewSource(8))
	reads := randomReads(rng, 20, 8, 4, 3, false)
	or := NewSingleEM(reads, [][]byte{{0, 1, 2, 3, 0, 1, 2, 3}}, 8, 2, 4, DefaultConfig(), NewBestTracker(), 1).Run()

	payload, err := EncodeResult(or)
	require.NoError(t, err)

	or2, err := DecodeResult(payload)
	require.NoError(t, err)
	assert.Equal(t, or, or2)
}

func TestSummaryLog(t *testing.T) {

	logname := filepath.Join(t.TempDir(), "hmm")
	logs, err := SetLogger(logname, true)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(9))
	reads := randomReads(rng, 20, 6, 4, 3, false)
	em := NewSingleEM(reads, nil, 6, 2, 4, DefaultConfig(), NewBestTracker(), 1)
	em.SetLogger(logs.Msg)
	WriteSummary(logs.Par, em.Run(), []string{"h1", "h2"})
	require.NoError(t, logs.Close())
	require.NoError(t, logs.Close())

	b, err := os.ReadFile(logname + "_par.log")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "Initial state distribution:"))
	assert.True(t, strings.Contains(string(b), "h2"))

	b, err = os.ReadFile(logname + "_msg.log")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "iterations"))
}

func TestSetLoggerMissingDir(t *testing.T) {

	logname := filepath.Join(t.TempDir(), "missing", "hmm")
	_, err := SetLogger(logname, false)
	assert.Error(t, err)
}

func TestSetLoggerParFileFails(t *testing.T) {

	// A directory in place of the parameter log makes its creation fail
	// after the message log exists.
	logname := filepath.Join(t.TempDir(), "hmm")
	require.NoError(t, os.Mkdir(logname+"_par.log", 0755))

	_, err := SetLogger(logname, false)
	assert.Error(t, err)

	_, err = os.Stat(logname + "_msg.log")
	assert.NoError(t, err)
}
