package analyzer

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"github.com/ludo-technologies/dupscan/internal/constants"
)

// SimHasher computes 64-bit locality-sensitive fingerprints from
// structural token sequences. Similar token sequences produce
// fingerprints with small Hamming distance.
type SimHasher struct {
	maxNGram int
}

// NewSimHasher creates a SimHasher using unigram, bigram and trigram
// features. N-grams of consecutive tokens capture local ordering that a
// bag of unigrams would lose.
func NewSimHasher() *SimHasher {
	return &SimHasher{maxNGram: 3}
}

// Features derives the weighted feature multiset for a token sequence:
// every unigram, bigram and trigram of consecutive tokens mapped to its
// occurrence count.
func (s *SimHasher) Features(tokens []string) map[string]int {
	features := make(map[string]int)

	for n := 1; n <= s.maxNGram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			feature := strings.Join(tokens[i:i+n], "\x1f")
			features[feature]++
		}
	}

	return features
}

// Fingerprint computes the weighted SimHash of a token sequence.
// For each feature, bit positions set in the feature hash add the
// occurrence count to a signed accumulator, unset positions subtract it.
// The result sets bit i iff accumulator i is strictly positive.
// An empty token sequence yields fingerprint 0.
func (s *SimHasher) Fingerprint(tokens []string) uint64 {
	if len(tokens) == 0 {
		return 0
	}

	var vector [constants.FingerprintBits]int

	for feature, count := range s.Features(tokens) {
		h := hashFeature(feature)
		for i := 0; i < constants.FingerprintBits; i++ {
			if h&(1<<uint(i)) != 0 {
				vector[i] += count
			} else {
				vector[i] -= count
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < constants.FingerprintBits; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}

	return fingerprint
}

// HammingDistance returns the number of differing bits between two
// fingerprints, always in [0, 64].
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// hashFeature maps a feature string to a 64-bit hash via FNV-64a.
func hashFeature(feature string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	return h.Sum64()
}
