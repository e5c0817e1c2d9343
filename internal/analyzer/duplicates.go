package analyzer

import (
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/constants"
)

// RecordEntry pairs a registered record with the token sequence it was
// fingerprinted from. The token sequence is what exact similarity
// scoring runs on.
type RecordEntry struct {
	Record *domain.CodeRecord
	Tokens []string
}

// SearchOptions configures a duplicate search run.
type SearchOptions struct {
	Threshold      float64
	Mode           domain.SearchMode
	IncludeTrivial bool
	MinTokens      int

	// HammingBound overrides the radius derived from Threshold for fast
	// mode candidate retrieval. Zero means derive.
	HammingBound int

	// Progress, when non-nil, is invoked periodically with the number of
	// records processed so far and the total.
	Progress func(processed, total int)
}

// DuplicateSearch finds near-duplicate record pairs, either through the
// fingerprint index (fast) or by scoring all pairs (exhaustive).
type DuplicateSearch struct {
	index *BKTree
}

// NewDuplicateSearch creates a duplicate search over the given index.
// The index may be nil when only exhaustive mode is used.
func NewDuplicateSearch(index *BKTree) *DuplicateSearch {
	return &DuplicateSearch{index: index}
}

// HammingBoundForThreshold converts a similarity threshold into an
// approximate Hamming radius for candidate retrieval. The bound is
// clamped below so that high thresholds keep a usable search width.
func HammingBoundForThreshold(threshold float64) int {
	bound := int(math.Round(constants.FingerprintBits * (1.0 - threshold)))
	if bound < constants.MinHammingBound {
		bound = constants.MinHammingBound
	}
	if bound > constants.FingerprintBits {
		bound = constants.FingerprintBits
	}
	return bound
}

// FindDuplicates returns all record pairs with similarity >= the
// threshold, sorted by similarity descending. Fast mode consults the
// index for Hamming-bounded candidates and confirms each with the exact
// cosine score; it never returns a pair exhaustive mode would not.
func (s *DuplicateSearch) FindDuplicates(entries []*RecordEntry, opts SearchOptions) []*domain.DuplicatePair {
	filtered := FilterEntries(entries, opts.IncludeTrivial, opts.MinTokens)

	var pairs []*domain.DuplicatePair
	if opts.Mode == domain.SearchModeExhaustive || s.index == nil {
		pairs = s.findExhaustive(filtered, opts)
	} else {
		pairs = s.findFast(filtered, opts)
	}

	sortPairs(pairs)
	return pairs
}

// FindTopPercent returns the given fraction (0, 100] of the most similar
// pairs over the filtered record set. It sweeps the threshold downward
// in fixed steps until enough pairs are found, then truncates to the
// exact target count. Pair count is only weakly monotonic in the
// threshold, so a sweep is used instead of a binary search.
func (s *DuplicateSearch) FindTopPercent(entries []*RecordEntry, percent float64, opts SearchOptions) ([]*domain.DuplicatePair, error) {
	if percent <= 0.0 || percent > 100.0 {
		return nil, domain.NewInvalidInputError("top_percent must be in (0, 100]", nil)
	}

	filtered := FilterEntries(entries, opts.IncludeTrivial, opts.MinTokens)
	n := len(filtered)
	totalPossible := n * (n - 1) / 2
	target := int(math.Ceil(float64(totalPossible) * percent / 100.0))
	if target == 0 {
		return []*domain.DuplicatePair{}, nil
	}

	sweep := opts
	sweep.IncludeTrivial = true // already filtered
	sweep.HammingBound = 0      // radius must track the moving threshold
	var pairs []*domain.DuplicatePair
	for threshold := constants.TopPercentStartThreshold; ; threshold -= constants.TopPercentStep {
		if threshold < 0 {
			threshold = 0
		}
		sweep.Threshold = threshold
		pairs = s.FindDuplicates(filtered, sweep)
		if len(pairs) >= target || threshold == 0 {
			break
		}
	}

	if len(pairs) > target {
		pairs = pairs[:target]
	}
	return pairs, nil
}

// findFast queries the index for Hamming-bounded candidates per record,
// then confirms each candidate pair with the exact similarity score.
func (s *DuplicateSearch) findFast(entries []*RecordEntry, opts SearchOptions) []*domain.DuplicatePair {
	bound := opts.HammingBound
	if bound <= 0 {
		bound = HammingBoundForThreshold(opts.Threshold)
	}
	byHash := make(map[string]*RecordEntry, len(entries))
	for _, entry := range entries {
		byHash[entry.Record.ContentHash] = entry
	}

	var pairs []*domain.DuplicatePair
	seen := make(map[string]bool)

	for i, entry := range entries {
		if !entry.Record.HasFingerprint {
			continue
		}

		for _, candidate := range s.index.Search(entry.Record.Fingerprint, bound) {
			other, ok := byHash[candidate.Record.ContentHash]
			if !ok {
				// Indexed record excluded by the current filter.
				continue
			}
			if pair := scorePair(entry, other, opts.Threshold, seen); pair != nil {
				pairs = append(pairs, pair)
			}
		}

		reportProgress(opts.Progress, i+1, len(entries))
	}

	return pairs
}

// findExhaustive scores every unordered pair directly, bypassing the
// index. Quadratic, but free of fingerprint false negatives.
func (s *DuplicateSearch) findExhaustive(entries []*RecordEntry, opts SearchOptions) []*domain.DuplicatePair {
	var pairs []*domain.DuplicatePair
	seen := make(map[string]bool)

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if pair := scorePair(entries[i], entries[j], opts.Threshold, seen); pair != nil {
				pairs = append(pairs, pair)
			}
		}
		reportProgress(opts.Progress, i+1, len(entries))
	}

	return pairs
}

// scorePair applies the shared filtering and scoring logic for one
// candidate pair: self and same-location exclusion, canonical dedup,
// then the exact cosine confirmation.
func scorePair(a, b *RecordEntry, threshold float64, seen map[string]bool) *domain.DuplicatePair {
	if a.Record.ContentHash == b.Record.ContentHash {
		return nil
	}
	if a.Record.SameLocation(b.Record) {
		return nil
	}

	key := domain.PairKey(a.Record, b.Record)
	if seen[key] {
		return nil
	}
	seen[key] = true

	similarity := CosineSimilarity(a.Tokens, b.Tokens)
	if similarity < threshold {
		return nil
	}

	return domain.NewDuplicatePair(a.Record, b.Record, similarity)
}

// FilterEntries drops trivial and test records unless includeTrivial is
// set. A record is trivial when its token signature is shorter than
// minTokens; it is a test record when its name or path marks it as one.
func FilterEntries(entries []*RecordEntry, includeTrivial bool, minTokens int) []*RecordEntry {
	if includeTrivial {
		return entries
	}

	filtered := make([]*RecordEntry, 0, len(entries))
	for _, entry := range entries {
		if IsTrivialEntry(entry, minTokens) || IsTestRecord(entry.Record) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// IsTrivialEntry reports whether the entry's token signature is too
// short to be a meaningful duplicate candidate.
func IsTrivialEntry(entry *RecordEntry, minTokens int) bool {
	return len(entry.Tokens) < minTokens
}

// IsTestRecord reports whether the record looks like test code by name
// or file path convention.
func IsTestRecord(record *domain.CodeRecord) bool {
	name := record.Name
	if strings.HasPrefix(name, "test_") || strings.HasPrefix(name, "Test") ||
		name == "setUp" || name == "tearDown" {
		return true
	}

	base := filepath.Base(record.FilePath)
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(record.FilePath), "/") {
		if part == "tests" || part == "test" {
			return true
		}
	}

	return false
}

// sortPairs orders pairs by similarity descending with a stable
// content-hash tie break so results are deterministic.
func sortPairs(pairs []*domain.DuplicatePair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].RecordA.ContentHash != pairs[j].RecordA.ContentHash {
			return pairs[i].RecordA.ContentHash < pairs[j].RecordA.ContentHash
		}
		return pairs[i].RecordB.ContentHash < pairs[j].RecordB.ContentHash
	})
}

func reportProgress(progress func(processed, total int), processed, total int) {
	if progress == nil {
		return
	}
	if processed%constants.ProgressReportInterval == 0 || processed == total {
		progress(processed, total)
	}
}
