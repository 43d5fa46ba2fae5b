package sketch

import (
	"bufio"
	"bytes"
	"io"
	"math"

	"github.com/kmers-io/ksketch/internal/xdiv"
)

var bloomMagic = [4]byte{'K', 'B', 'F', '1'}

// Bloom is a k-hashes/m-bits Bloom filter. Bit-index derivation follows
// kmcp's cmd/util-hash.go hashLocations: two base hashes (hi/lo 32 bits of
// one 64-bit hash) combined linearly for each of nhashes rows, the same
// double-hashing trick as willf/bloom that kmcp's comment credits.
type Bloom struct {
	bits     []uint64 // m bits, m = 2^(p+3)
	nbits    uint64
	nhashes  int
	divisor  xdiv.Divisor
	nInserts uint64
}

var _ Sketch = (*Bloom)(nil)

// DefaultBloomHashes is the default number of hash functions when not
// otherwise configured.
const DefaultBloomHashes = 4

// NewBloom builds an empty Bloom filter with 2^(p+3) bits.
func NewBloom(params Params, nhashes int) *Bloom {
	if nhashes < 1 {
		nhashes = DefaultBloomHashes
	}
	nbits := uint64(1) << (params.Log2Size + 3)
	return &Bloom{
		bits:    make([]uint64, (nbits+63)/64),
		nbits:   nbits,
		nhashes: nhashes,
		divisor: xdiv.New(nbits),
	}
}

func (b *Bloom) Family() Family { return BloomFilter }

func baseHashes(hash uint64) (uint32, uint32) {
	return uint32(hash >> 32), uint32(hash)
}

func (b *Bloom) locations(hash uint64) []uint64 {
	locs := make([]uint64, b.nhashes)
	if b.nhashes == 1 {
		locs[0] = b.divisor.Mod(hash)
		return locs
	}
	hi, lo := baseHashes(hash)
	for i := 0; i < b.nhashes; i++ {
		locs[i] = b.divisor.Mod(uint64(hi) + uint64(lo)*uint64(i))
	}
	return locs
}

func (b *Bloom) setBit(i uint64) {
	b.bits[i/64] |= 1 << (i % 64)
}

func (b *Bloom) testBit(i uint64) bool {
	return b.bits[i/64]&(1<<(i%64)) != 0
}

func (b *Bloom) AddHash(h uint64) {
	for _, loc := range b.locations(h) {
		b.setBit(loc)
	}
	b.nInserts++
}

func (b *Bloom) MergeInto(other Sketch) error {
	o, ok := other.(*Bloom)
	if !ok {
		return unsupported(b.Family(), "merge_into (family mismatch)")
	}
	if o.nbits != b.nbits || o.nhashes != b.nhashes {
		return unsupported(b.Family(), "merge_into (size mismatch)")
	}
	for i := range b.bits {
		b.bits[i] |= o.bits[i]
	}
	return nil
}

func (b *Bloom) countSetBits() uint64 {
	var c uint64
	for _, w := range b.bits {
		c += uint64(popcount64(w))
	}
	return c
}

func popcount64(x uint64) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

// swansonEstimate is the standard Bloom-filter cardinality estimator:
// n̂ = -(m/k) * ln(1 - X/m), where X is the number of set bits.
func (b *Bloom) swansonEstimate() float64 {
	m := float64(b.nbits)
	k := float64(b.nhashes)
	x := float64(b.countSetBits())
	if x >= m {
		x = m - 1
	}
	return -(m / k) * math.Log(1-x/m)
}

func (b *Bloom) CardinalityEstimate() float64 {
	est := b.swansonEstimate()
	if est < 0 {
		return 0
	}
	return est
}

// unionEstimate estimates |A∪B| from the bitwise-OR of two same-sized
// filters, using the same Swanson estimator on the merged bit array.
func (b *Bloom) unionEstimate(o *Bloom) float64 {
	m := float64(b.nbits)
	k := float64(b.nhashes)
	var setBits uint64
	for i := range b.bits {
		setBits += uint64(popcount64(b.bits[i] | o.bits[i]))
	}
	x := float64(setBits)
	if x >= m {
		x = m - 1
	}
	est := -(m / k) * math.Log(1-x/m)
	if est < 0 {
		return 0
	}
	return est
}

func (b *Bloom) Jaccard(other Sketch) (float64, error) {
	o, ok := other.(*Bloom)
	if !ok {
		return 0, unsupported(b.Family(), "jaccard (family mismatch)")
	}
	union := b.unionEstimate(o)
	if union == 0 {
		return 0, nil
	}
	inter := b.CardinalityEstimate() + o.CardinalityEstimate() - union
	if inter < 0 {
		inter = 0
	}
	ji := inter / union
	if ji < 0 {
		ji = 0
	} else if ji > 1 {
		ji = 1
	}
	return ji, nil
}

func (b *Bloom) UnionSize(other Sketch) (float64, error) {
	o, ok := other.(*Bloom)
	if !ok {
		return 0, unsupported(b.Family(), "union_size (family mismatch)")
	}
	return b.unionEstimate(o), nil
}

// Containment is Unsupported for plain Bloom filters: without per-element
// hashes retained there is no reliable |A∩B|/|A| estimator distinct from
// the Jaccard-derived one, and spec.md §7 names this exact case.
func (b *Bloom) Containment(other Sketch) (float64, error) {
	return 0, unsupported(b.Family(), "containment")
}

func (b *Bloom) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(bloomMagic[:]); err != nil {
		return err
	}
	hdr := make([]byte, 16)
	be.PutUint64(hdr[0:8], b.nbits)
	be.PutUint64(hdr[8:16], uint64(b.nhashes))
	if _, err := bw.Write(hdr); err != nil {
		return err
	}
	for _, w64 := range b.bits {
		var buf [8]byte
		be.PutUint64(buf[:], w64)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DeserializeBloom reads back a filter written by Serialize.
func DeserializeBloom(r io.Reader, params Params) (Sketch, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of magic: " + err.Error()}
	}
	if !bytes.Equal(magic[:], bloomMagic[:]) {
		return nil, &CacheCorruptionError{Reason: "bad Bloom magic"}
	}
	hdr := make([]byte, 16)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, &CacheCorruptionError{Reason: "short read of header: " + err.Error()}
	}
	nbits := be.Uint64(hdr[0:8])
	nhashes := int(be.Uint64(hdr[8:16]))
	bits := make([]uint64, (nbits+63)/64)
	for i := range bits {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, &CacheCorruptionError{Reason: "short read of bit array: " + err.Error()}
		}
		bits[i] = be.Uint64(buf[:])
	}
	return &Bloom{bits: bits, nbits: nbits, nhashes: nhashes, divisor: xdiv.New(nbits)}, nil
}

func (b *Bloom) Finalize() (FinalSketch, error) { return b, nil }
