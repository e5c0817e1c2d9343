package analyzer

import (
	"math"
)

// TokenFrequencies builds the frequency-weighted multiset of a token
// sequence.
func TokenFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freq[token]++
	}
	return freq
}

// CosineSimilarity computes the weighted cosine similarity between two
// token sequences, always in [0, 1]. Repeated structural patterns weigh
// in proportionally: a function calling print five times scores closer
// to another five-print function than to one calling it once.
// Either side empty (zero magnitude) yields 0.0.
//
// This score is the ground truth used to confirm fingerprint-based
// candidates; fingerprint distance alone is only a probabilistic proxy.
func CosineSimilarity(tokensA, tokensB []string) float64 {
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	freqA := TokenFrequencies(tokensA)
	freqB := TokenFrequencies(tokensB)

	dot := 0.0
	for token, countA := range freqA {
		if countB, ok := freqB[token]; ok {
			dot += float64(countA) * float64(countB)
		}
	}

	magnitude := math.Sqrt(sumSquares(freqA) * sumSquares(freqB))
	if magnitude == 0 {
		return 0.0
	}

	similarity := dot / magnitude
	// Guard against float drift pushing identical multisets past 1.0.
	if similarity > 1.0 {
		similarity = 1.0
	}
	return similarity
}

// sumSquares returns the squared magnitude of a frequency vector. The
// denominator takes a single square root of the product of the two
// squared magnitudes so that identical multisets score exactly 1.0
// (sqrt(x*x) == x, whereas sqrt(x)*sqrt(x) can drift past x).
func sumSquares(freq map[string]int) float64 {
	sum := 0.0
	for _, count := range freq {
		sum += float64(count) * float64(count)
	}
	return sum
}
