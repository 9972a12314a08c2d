package fingerprint

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/fieldprofile/internal/fieldindex"
)

const (
	present = '1'
	absent  = '0'
)

// Fingerprint is a fixed-width presence/absence encoding of one structural
// pattern, one '0' or '1' per canonical field position.
type Fingerprint string

// IndexMismatchError reports a comparison between fingerprints built from
// different field indexes. It always indicates a programming error.
type IndexMismatchError struct {
	Left  int
	Right int
}

func (e *IndexMismatchError) Error() string {
	return fmt.Sprintf("fingerprint length mismatch: %d != %d", e.Left, e.Right)
}

// Encoder turns field token lists into fingerprints over a fixed index.
type Encoder struct {
	index     fieldindex.Index
	positions map[string]int
}

// NewEncoder creates an encoder for the given canonical field index
func NewEncoder(index fieldindex.Index) *Encoder {
	positions := make(map[string]int, len(index))
	for i, name := range index {
		positions[name] = i
	}
	return &Encoder{
		index:     index,
		positions: positions,
	}
}

// Encode marks every canonical field that appears among tokens. Tokens that
// are not part of the index are ignored.
func (e *Encoder) Encode(tokens []string) Fingerprint {
	bits := []byte(strings.Repeat(string(absent), len(e.index)))
	for _, token := range tokens {
		if pos, ok := e.positions[strings.TrimSpace(token)]; ok {
			bits[pos] = present
		}
	}
	return Fingerprint(bits)
}

// Hamming returns the number of positions at which a and b differ.
func Hamming(a, b Fingerprint) (int, error) {
	if len(a) != len(b) {
		return 0, &IndexMismatchError{Left: len(a), Right: len(b)}
	}
	distance := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			distance++
		}
	}
	return distance, nil
}

// Similarity returns the fraction of matching positions, 1 - hamming/length.
// Two empty fingerprints are identical.
func Similarity(a, b Fingerprint) (float64, error) {
	distance, err := Hamming(a, b)
	if err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 1.0, nil
	}
	return float64(len(a)-distance) / float64(len(a)), nil
}

// Fields returns the names of the fields marked present, in index order.
func (f Fingerprint) Fields(index fieldindex.Index) []string {
	return f.collect(index, present)
}

// Missing returns the names of the fields marked absent, in index order.
func (f Fingerprint) Missing(index fieldindex.Index) []string {
	return f.collect(index, absent)
}

func (f Fingerprint) collect(index fieldindex.Index, flag byte) []string {
	names := []string{}
	for i := 0; i < len(f) && i < len(index); i++ {
		if f[i] == flag {
			names = append(names, index[i])
		}
	}
	return names
}

// String implements fmt.Stringer.
func (f Fingerprint) String() string {
	return string(f)
}
