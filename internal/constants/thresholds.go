package constants

// Duplicate detection thresholds and search parameters.
const (
	// DefaultSimilarityThreshold is the minimum weighted cosine similarity
	// for two records to count as a duplicate pair.
	DefaultSimilarityThreshold = 0.7

	// DefaultHammingThreshold is the maximum Hamming distance between two
	// 64-bit fingerprints for the fast-mode candidate prefilter.
	DefaultHammingThreshold = 10

	// FingerprintBits is the width of a SimHash fingerprint.
	FingerprintBits = 64

	// MinHammingBound clamps the threshold-derived Hamming bound. A zero or
	// one bit radius degenerates the prefilter to near-exact fingerprint
	// matching and misses legitimate near-duplicates at high thresholds.
	MinHammingBound = 3

	// DefaultMinTokens is the minimum token signature length below which a
	// record is considered trivial and excluded from duplicate search.
	DefaultMinTokens = 5
)

// Top-percent sweep parameters.
const (
	// TopPercentStartThreshold is where the monotonic threshold sweep begins.
	TopPercentStartThreshold = 0.99

	// TopPercentStep is the fixed step the sweep lowers the threshold by.
	TopPercentStep = 0.05
)

// Adaptive threshold search parameters.
const (
	// AdaptiveMaxIterations caps the binary search. The edge-count-vs-
	// threshold function is not perfectly monotonic, so the search is a
	// bounded heuristic rather than an exact root find.
	AdaptiveMaxIterations = 10

	// AdaptiveSampleTrigger is the record count above which the adaptive
	// search estimates edge counts from a random sample.
	AdaptiveSampleTrigger = 200

	// AdaptiveSampleSize is the number of records sampled for estimation.
	AdaptiveSampleSize = 100

	// DefaultMinThreshold and DefaultMaxThreshold bound the adaptive search.
	DefaultMinThreshold = 0.3
	DefaultMaxThreshold = 0.95
)

// Progress reporting parameters.
const (
	// ProgressReportInterval is how many records are processed between
	// progress updates during long-running scans.
	ProgressReportInterval = 50
)
