package hmmlib

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBases(t *testing.T) {
	x := EncodeBases("ACGT-Nacgt")
	assert.Equal(t, []byte{BaseA, BaseC, BaseG, BaseT, Gap, Unknown, BaseA, BaseC, BaseG, BaseT}, x)
	assert.Equal(t, "ACGT-NACGT", DecodeBases(x))
}

func TestReadAt(t *testing.T) {

	r := NewPairedRead(EncodeBases("AC"), 2, EncodeBases("GT"), 6, 1)

	b, e := r.Span()
	assert.Equal(t, 2, b)
	assert.Equal(t, 8, e)
	assert.True(t, r.Paired())

	for _, tc := range []struct {
		pos int
		v   byte
		ok  bool
	}{
		{1, 0, false},
		{2, BaseA, true},
		{3, BaseC, true},
		{4, 0, false},
		{5, 0, false},
		{6, BaseG, true},
		{7, BaseT, true},
		{8, 0, false},
	} {
		v, ok := r.At(tc.pos)
		assert.Equal(t, tc.ok, ok, "position %d", tc.pos)
		if ok {
			assert.Equal(t, tc.v, v, "position %d", tc.pos)
		}
	}
}

func TestReadSetMergesDuplicates(t *testing.T) {

	rs := NewReadSet()
	rs.Add(NewRead(EncodeBases("ACGT"), 0, 1))
	rs.Add(NewRead(EncodeBases("ACGT"), 0, 2))
	rs.Add(NewRead(EncodeBases("ACGT"), 1, 1))
	rs.Add(NewRead(EncodeBases("ACGA"), 0, 0))
	rs.Add(NewPairedRead(EncodeBases("ACGT"), 0, EncodeBases("AA"), 6, 1))
	rs.Add(NewPairedRead(EncodeBases("ACGT"), 0, EncodeBases("AA"), 6, 4))

	require.Equal(t, 4, rs.Len())
	assert.Equal(t, 10, rs.NRead())

	assert.Equal(t, 3, rs.Reads[0].Count)
	assert.Equal(t, 1, rs.Reads[1].Count)
	assert.Equal(t, 1, rs.Reads[2].Count)
	assert.Equal(t, 5, rs.Reads[3].Count)
}

func TestReadSetRoundTrip(t *testing.T) {

	rs := NewReadSet()
	rs.Add(NewRead(EncodeBases("ACGT"), 0, 2))
	rs.Add(NewPairedRead(EncodeBases("AC"), 1, EncodeBases("TT"), 5, 3))

	fname := filepath.Join(t.TempDir(), "reads.gob.gz")
	require.NoError(t, rs.Save(fname))

	rs2, err := ReadReadSet(fname)
	require.NoError(t, err)
	require.Equal(t, rs.Len(), rs2.Len())
	assert.Equal(t, rs.NRead(), rs2.NRead())
	assert.True(t, rs2.Reads[1].Paired())
	assert.Equal(t, 5, rs2.Reads[1].Begin2)

	// The index is rebuilt after loading
	rs2.Add(NewRead(EncodeBases("ACGT"), 0, 1))
	assert.Equal(t, 2, rs2.Len())
	assert.Equal(t, 3, rs2.Reads[0].Count)

	_, err = ReadReadSet(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestHaplotypesRoundTrip(t *testing.T) {

	haps := [][]byte{EncodeBases("ACGT"), EncodeBases("ACCT")}
	fname := filepath.Join(t.TempDir(), "haps.gob.gz")
	require.NoError(t, SaveHaplotypes(fname, haps))

	haps2, err := ReadHaplotypes(fname)
	require.NoError(t, err)
	assert.Equal(t, haps, haps2)
}

func TestEmptyMate(t *testing.T) {

	seq := EncodeBases("ACGTA")
	for _, seq2 := range [][]byte{nil, {}} {
		r := NewPairedRead(seq, 0, seq2, 3, 1)
		assert.False(t, r.Paired())

		rs := NewReadSet()
		rs.Add(r)
		rs.Add(NewRead(EncodeBases("ACGTA"), 0, 2))
		require.Equal(t, 1, rs.Len())

		fname := filepath.Join(t.TempDir(), "reads.gob.gz")
		require.NoError(t, rs.Save(fname))
		rs2, err := ReadReadSet(fname)
		require.NoError(t, err)

		for _, x := range []*Read{rs.Reads[0], rs2.Reads[0]} {
			b, e := x.Span()
			assert.Equal(t, 0, b)
			assert.Equal(t, 5, e)
			assert.False(t, x.Paired())
		}
	}

	// A literal empty mate is treated like a missing one, before and
	// after encoding
	r := &Read{Seq: seq, Begin: 0, End: 5, Seq2: []byte{}, Begin2: 0, End2: 2, Count: 1}
	b, e := r.Span()
	assert.Equal(t, 0, b)
	assert.Equal(t, 5, e)
	assert.True(t, r.sameObservation(NewRead(seq, 0, 1)))
	assert.Equal(t, r.key(), NewRead(seq, 0, 1).key())
}

func TestReadCopy(t *testing.T) {

	r := NewPairedRead(EncodeBases("AC"), 2, EncodeBases("GT"), 6, 3)
	c := r.Copy()
	assert.Equal(t, r, c)

	c.Seq[0] = BaseT
	c.Seq2[0] = BaseT
	c.Count++
	assert.Equal(t, BaseA, r.Seq[0])
	assert.Equal(t, BaseG, r.Seq2[0])
	assert.Equal(t, 3, r.Count)
}

func TestGenomeLength(t *testing.T) {

	_, err := NewReadSet().GenomeLength(0)
	assert.Error(t, err)
	_, err = NewReadSet().GenomeLength(10)
	assert.Error(t, err)

	rs := NewReadSet()
	rs.Add(NewRead(EncodeBases("ACGT"), 0, 1))
	rs.Add(NewPairedRead(EncodeBases("AC"), 1, EncodeBases("GT"), 7, 1))

	L, err := rs.GenomeLength(0)
	require.NoError(t, err)
	assert.Equal(t, 9, L)

	L, err = rs.GenomeLength(12)
	require.NoError(t, err)
	assert.Equal(t, 12, L)

	_, err = rs.GenomeLength(8)
	assert.Error(t, err)

	rs.Add(NewRead(EncodeBases("A"), -1, 1))
	_, err = rs.GenomeLength(0)
	assert.Error(t, err)
}
