// Package kmerenc implements the Encoder capability (C2): consuming a
// byte stream of one or more concatenated FASTA/FASTQ records and
// yielding a lazy sequence of 64-bit k-mer hashes. Grounded on
// kmcp/cmd/compute.go's use of unikmer.NewHashIterator /
// NewMinimizerSketch / NewSyncmerSketch for the overall shape (build an
// iterator per record, drain it, move to the next record) and on
// will-rowe/baby-groot's minhash package for the ntHash-driven rolling
// variant.
package kmerenc

import "fmt"

// Variant is the stable tag for an Encoder implementation.
type Variant uint8

const (
	Exact Variant = iota
	NTHash
	Cyclic
)

func (v Variant) String() string {
	switch v {
	case Exact:
		return "Bonsai"
	case NTHash:
		return "NTHash"
	case Cyclic:
		return "Cyclic"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// MinimizerScore selects how minimizer ties are broken (§9's "-g" flag,
// folded into SPEC_FULL.md's Encoder capability).
type MinimizerScore uint8

const (
	Lexicographic MinimizerScore = iota
	Entropy
)

// Params configures an Encoder (§3, §4.2).
type Params struct {
	K         int
	W         int // window size for minimizer selection; 0 disables it
	Spacing   string
	Canonical bool
	Circular  bool
	Score     MinimizerScore
	Seed      uint64
}

// Iterator yields one hash per accepted k-mer position. Next returns
// ok=false once the sequence is exhausted.
type Iterator interface {
	Next() (hash uint64, ok bool, err error)
}

// Encoder is the uniform contract of §4.2. NewIterator is called once per
// input record (or once per sub-path segment for encoders without a
// natural record boundary), which is how encoders restart across records
// and across FNAME_SEP-joined files (§4.2 "restartable").
type Encoder interface {
	Variant() Variant
	NewIterator(seq []byte) (Iterator, error)
}

// ErrShortSequence is returned by NewIterator when seq is shorter than k.
var ErrShortSequence = fmt.Errorf("kmerenc: sequence shorter than k")

// ConfigError reports an invalid Encoder configuration detected at
// start-up (§4.5 "k out of range for encoder → ConfigError").
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "kmerenc: config error: " + e.Reason }

// New builds an Encoder for the given variant, validating k/spacing
// combinations per §7 (exact encoding with k>32, or spacing with k>32,
// is a ConfigError).
func New(v Variant, p Params) (Encoder, error) {
	if p.K < 1 || p.K > 64 {
		return nil, &ConfigError{Reason: fmt.Sprintf("k=%d out of range [1,64]", p.K)}
	}
	switch v {
	case Exact:
		if p.K > 32 {
			return nil, &ConfigError{Reason: "exact encoding requires k <= 32"}
		}
		return newExactEncoder(p)
	case NTHash:
		if p.Spacing != "" {
			return nil, &ConfigError{Reason: "nthash does not support spaced seeds"}
		}
		return newNTHashEncoder(p), nil
	case Cyclic:
		if p.Spacing != "" {
			return nil, &ConfigError{Reason: "cyclic hash does not support spaced seeds"}
		}
		return newCyclicEncoder(p), nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown encoder variant %d", v)}
	}
}

// ParseVariant maps an --encoding flag value to a Variant.
func ParseVariant(name string) (Variant, error) {
	switch name {
	case "Bonsai", "Exact":
		return Exact, nil
	case "NTHash":
		return NTHash, nil
	case "Cyclic":
		return Cyclic, nil
	default:
		return 0, fmt.Errorf("kmerenc: unknown encoding %q", name)
	}
}
