package hmmlib

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

// Codes for the nucleotide alphabet.  Gap is the fifth symbol of the default
// alphabet; Unknown lies outside it and is never emitted.
const (
	BaseA byte = iota
	BaseC
	BaseG
	BaseT
	Gap
	Unknown
)

// DefaultNSymbol is the size of the nucleotide alphabet including the gap.
const DefaultNSymbol = 5

// Read is a distinct observed read together with its multiplicity.  A paired
// read carries its mate in Seq2.  Spans are half-open genome intervals and
// must match the sequence lengths.
type Read struct {
	Seq    []byte
	Begin  int
	End    int
	Seq2   []byte
	Begin2 int
	End2   int
	Count  int
}

// NewRead returns a single-end read starting at begin.
func NewRead(seq []byte, begin, count int) *Read {
	return &Read{
		Seq:   seq,
		Begin: begin,
		End:   begin + len(seq),
		Count: count,
	}
}

// NewPairedRead returns a paired read.  The mate at begin2 must lie
// downstream of the first segment.  An empty mate gives a single-end read.
func NewPairedRead(seq []byte, begin int, seq2 []byte, begin2, count int) *Read {
	if len(seq2) == 0 {
		return NewRead(seq, begin, count)
	}
	return &Read{
		Seq:    seq,
		Begin:  begin,
		End:    begin + len(seq),
		Seq2:   seq2,
		Begin2: begin2,
		End2:   begin2 + len(seq2),
		Count:  count,
	}
}

// Paired reports whether the read has a mate.  Gob decodes an empty slice
// as nil, so only the length is significant.
func (r *Read) Paired() bool {
	return len(r.Seq2) > 0
}

// Copy returns a deep copy of the read.
func (r *Read) Copy() *Read {

	c := *r
	c.Seq = append([]byte(nil), r.Seq...)
	if r.Paired() {
		c.Seq2 = append([]byte(nil), r.Seq2...)
	} else {
		c.Seq2 = nil
	}

	return &c
}

// Span returns the overall half-open interval covered by the read,
// including the gap between mates.
func (r *Read) Span() (int, int) {
	if !r.Paired() {
		return r.Begin, r.End
	}
	b, e := r.Begin, r.End2
	if r.Begin2 < b {
		b = r.Begin2
	}
	if r.End > e {
		e = r.End
	}
	return b, e
}

// At returns the symbol observed at genome position j, and false if the
// read has no observation there.
func (r *Read) At(j int) (byte, bool) {
	if j >= r.Begin && j < r.End {
		return r.Seq[j-r.Begin], true
	}
	if r.Paired() && j >= r.Begin2 && j < r.End2 {
		return r.Seq2[j-r.Begin2], true
	}
	return 0, false
}

func (r *Read) key() uint64 {

	var buf bytes.Buffer
	var hdr [8]byte
	b2, e2 := r.mateSpan()
	for _, x := range []int{r.Begin, r.End, b2, e2, len(r.Seq2)} {
		binary.LittleEndian.PutUint64(hdr[:], uint64(x))
		buf.Write(hdr[:])
	}
	buf.Write(r.Seq)
	buf.Write(r.Seq2)

	return xxh3.Hash(buf.Bytes())
}

// mateSpan returns the interval of the mate, or zeros without one.
func (r *Read) mateSpan() (int, int) {
	if !r.Paired() {
		return 0, 0
	}
	return r.Begin2, r.End2
}

func (r *Read) sameObservation(o *Read) bool {
	b2, e2 := r.mateSpan()
	ob2, oe2 := o.mateSpan()
	return r.Begin == o.Begin && r.End == o.End && b2 == ob2 && e2 == oe2 &&
		r.Paired() == o.Paired() && bytes.Equal(r.Seq, o.Seq) && bytes.Equal(r.Seq2, o.Seq2)
}

// EncodeBases converts a string over {A,C,G,T,-} into symbol codes.  Any
// other character (e.g. N) becomes Unknown.
func EncodeBases(s string) []byte {

	x := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'a':
			x[i] = BaseA
		case 'C', 'c':
			x[i] = BaseC
		case 'G', 'g':
			x[i] = BaseG
		case 'T', 't':
			x[i] = BaseT
		case '-':
			x[i] = Gap
		default:
			x[i] = Unknown
		}
	}

	return x
}

// DecodeBases is the inverse of EncodeBases.
func DecodeBases(x []byte) string {

	const letters = "ACGT-N"
	b := make([]byte, len(x))
	for i, v := range x {
		if int(v) < len(letters) {
			b[i] = letters[v]
		} else {
			b[i] = 'N'
		}
	}

	return string(b)
}

// ReadSet is the multiset of distinct reads used for estimation.
type ReadSet struct {
	Reads []*Read

	index map[uint64][]int
}

// NewReadSet returns an empty read set.
func NewReadSet() *ReadSet {
	return &ReadSet{index: make(map[uint64][]int)}
}

// Add inserts a read.  An identical read already present has its count
// increased instead.  A count below one is treated as one.
func (rs *ReadSet) Add(r *Read) {

	if rs.index == nil {
		rs.reindex()
	}

	if r.Count < 1 {
		r.Count = 1
	}

	h := r.key()
	for _, i := range rs.index[h] {
		if rs.Reads[i].sameObservation(r) {
			rs.Reads[i].Count += r.Count
			return
		}
	}

	rs.index[h] = append(rs.index[h], len(rs.Reads))
	rs.Reads = append(rs.Reads, r)
}

func (rs *ReadSet) reindex() {
	rs.index = make(map[uint64][]int)
	for i, r := range rs.Reads {
		h := r.key()
		rs.index[h] = append(rs.index[h], i)
	}
}

// Len returns the number of distinct reads.
func (rs *ReadSet) Len() int {
	return len(rs.Reads)
}

// NRead returns the total number of reads, counting multiplicities.
func (rs *ReadSet) NRead() int {
	var n int
	for _, r := range rs.Reads {
		n += r.Count
	}
	return n
}

// GenomeLength checks that the set holds reads and that every read lies
// within nPos positions, and returns nPos.  If nPos is not positive the end
// of the last read is returned instead.
func (rs *ReadSet) GenomeLength(nPos int) (int, error) {

	if rs.NRead() == 0 {
		return 0, errors.New("read set is empty")
	}

	L := nPos
	for i, r := range rs.Reads {
		b, e := r.Span()
		if b < 0 {
			return 0, errors.Errorf("read %d starts at %d", i, b)
		}
		if e > L {
			if nPos > 0 {
				return 0, errors.Errorf("read %d ends at %d beyond genome length %d", i, e, nPos)
			}
			L = e
		}
	}

	return L, nil
}

// Save writes the read set to a gzip-compressed gob file.
func (rs *ReadSet) Save(fname string) error {

	fid, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "create read set file")
	}
	defer fid.Close()

	gid := gzip.NewWriter(fid)
	enc := gob.NewEncoder(gid)
	if err := enc.Encode(rs.Reads); err != nil {
		return errors.Wrapf(err, "encode read set %s", fname)
	}

	if err := gid.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}

	return fid.Close()
}

// ReadReadSet reads a read set written by Save.
func ReadReadSet(fname string) (*ReadSet, error) {

	fid, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrap(err, "open read set file")
	}
	defer fid.Close()

	gid, err := gzip.NewReader(fid)
	if err != nil {
		return nil, errors.Wrapf(err, "gzip reader for %s", fname)
	}
	defer gid.Close()

	var reads []*Read
	if err := gob.NewDecoder(gid).Decode(&reads); err != nil {
		return nil, errors.Wrapf(err, "decode read set %s", fname)
	}

	rs := &ReadSet{Reads: reads}
	rs.reindex()

	return rs, nil
}

// ReadHaplotypes reads reference haplotypes stored as a gzip-compressed gob
// encoding of [][]byte.
func ReadHaplotypes(fname string) ([][]byte, error) {

	fid, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrap(err, "open haplotype file")
	}
	defer fid.Close()

	gid, err := gzip.NewReader(fid)
	if err != nil {
		return nil, errors.Wrapf(err, "gzip reader for %s", fname)
	}
	defer gid.Close()

	var haps [][]byte
	if err := gob.NewDecoder(gid).Decode(&haps); err != nil {
		return nil, errors.Wrapf(err, "decode haplotypes %s", fname)
	}

	return haps, nil
}

// SaveHaplotypes writes haplotypes in the format read by ReadHaplotypes.
func SaveHaplotypes(fname string, haps [][]byte) error {

	fid, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "create haplotype file")
	}
	defer fid.Close()

	gid := gzip.NewWriter(fid)
	if err := gob.NewEncoder(gid).Encode(haps); err != nil {
		return errors.Wrapf(err, "encode haplotypes %s", fname)
	}

	if err := gid.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}

	return fid.Close()
}
