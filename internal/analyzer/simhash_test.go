package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func similarTokenSet() []string {
	tokens := make([]string, 0, 40)
	for i := 0; i < 20; i++ {
		tokens = append(tokens, fmt.Sprintf("CALL:f%d", i))
	}
	for i := 0; i < 4; i++ {
		tokens = append(tokens, "IF", "LOOP", "RET", "OP:+", "CALL:print")
	}
	return tokens
}

func dissimilarTokenSet() []string {
	tokens := make([]string, 0, 39)
	for i := 0; i < 30; i++ {
		tokens = append(tokens, fmt.Sprintf("CALL:g%d", i))
	}
	for i := 0; i < 3; i++ {
		tokens = append(tokens, "WHILE", "TRY", "OP:*")
	}
	return tokens
}

func TestSimHasher_Deterministic(t *testing.T) {
	hasher := NewSimHasher()
	tokens := []string{"FUNC:1", "CALL:print", "RET"}

	fp1 := hasher.Fingerprint(tokens)
	fp2 := hasher.Fingerprint(tokens)

	assert.Equal(t, fp1, fp2, "Identical token sequences must yield identical fingerprints")
	assert.NotZero(t, fp1, "Non-empty token sequence should not produce the zero fingerprint")
}

func TestSimHasher_EmptyTokens(t *testing.T) {
	hasher := NewSimHasher()

	assert.Equal(t, uint64(0), hasher.Fingerprint(nil), "Empty token sequence should yield fingerprint 0")
	assert.Equal(t, uint64(0), hasher.Fingerprint([]string{}), "Empty token sequence should yield fingerprint 0")
}

func TestSimHasher_Features(t *testing.T) {
	hasher := NewSimHasher()

	features := hasher.Features([]string{"a", "b", "c"})

	// 3 unigrams + 2 bigrams + 1 trigram
	assert.Len(t, features, 6, "Should produce unigrams, bigrams and trigrams")
	assert.Equal(t, 1, features["a"], "Unigram count")
	assert.Equal(t, 1, features["a\x1fb"], "Bigram count")
	assert.Equal(t, 1, features["a\x1fb\x1fc"], "Trigram count")
}

func TestSimHasher_RepeatedFeaturesWeighted(t *testing.T) {
	hasher := NewSimHasher()

	features := hasher.Features([]string{"x", "x", "x"})

	assert.Equal(t, 3, features["x"], "Repeated unigram should accumulate its count")
	assert.Equal(t, 2, features["x\x1fx"], "Repeated bigram should accumulate its count")
}

func TestSimHasher_LocalityProperty(t *testing.T) {
	hasher := NewSimHasher()

	base := similarTokenSet()
	mutated := append([]string(nil), base...)
	mutated[7] = "CALL:other"
	distant := dissimilarTokenSet()

	fpBase := hasher.Fingerprint(base)
	fpMutated := hasher.Fingerprint(mutated)
	fpDistant := hasher.Fingerprint(distant)

	dNear := HammingDistance(fpBase, fpMutated)
	dFar := HammingDistance(fpBase, fpDistant)

	assert.Less(t, dNear, dFar, "Closer inputs must produce lower-distance fingerprints")
	assert.Less(t, dNear, 12, "Single-token mutation should flip few fingerprint bits")
	assert.Greater(t, dFar, 18, "Disjoint token sets should produce high-distance fingerprints")
}

func TestSimHasher_OrderSensitive(t *testing.T) {
	hasher := NewSimHasher()

	fp1 := hasher.Fingerprint([]string{"a", "b", "c", "d", "e"})
	fp2 := hasher.Fingerprint([]string{"e", "d", "c", "b", "a"})

	// Same unigrams but different n-grams: ordering must influence the
	// fingerprint.
	assert.NotEqual(t, fp1, fp2, "N-gram features should make the fingerprint order sensitive")
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     uint64
		expected int
	}{
		{"identical", 0xDEADBEEF, 0xDEADBEEF, 0},
		{"one bit", 0b1000, 0b0000, 1},
		{"alternating", 0xAAAAAAAAAAAAAAAA, 0x5555555555555555, 64},
		{"zero and ones", 0, ^uint64(0), 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HammingDistance(tt.a, tt.b))
			assert.Equal(t, tt.expected, HammingDistance(tt.b, tt.a), "Hamming distance is symmetric")
		})
	}
}
