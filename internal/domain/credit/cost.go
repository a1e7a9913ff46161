package credit

import (
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
)

// CostMetadata carries the sizing information a feature route knows about
// the work being gated. All fields are optional; zero values fall back to
// the fixed per-feature cost table.
type CostMetadata struct {
	// WordCount is the processed word count for single-document features.
	WordCount int
	// InputWords and OutputWords cover paired input/output features such
	// as rephrasing and chat; they are summed before pricing.
	InputWords  int
	OutputWords int
}

func (m *CostMetadata) totalWords() int {
	if m == nil {
		return 0
	}
	if m.InputWords > 0 || m.OutputWords > 0 {
		return m.InputWords + m.OutputWords
	}
	return m.WordCount
}

// wordsPerCredit is the per-feature pricing divisor: 1 credit per N
// processed words, rounded up.
var wordsPerCredit = map[string]int{
	plan.FeatureScansPerMonth:       1000,
	plan.FeatureOriginalityScan:     1000,
	plan.FeatureCitationAudit:       1000,
	plan.FeatureRephraseSuggestions: 500,
	plan.FeatureAIChat:              2000,
}

// fallbackCost is the fixed per-feature cost used when no word counts are
// supplied.
var fallbackCost = map[string]int64{
	plan.FeatureScansPerMonth:       5,
	plan.FeatureOriginalityScan:     5,
	plan.FeatureCitationAudit:       2,
	plan.FeatureRephraseSuggestions: 1,
	plan.FeatureAIChat:              1,
}

// CalculateCost prices one unit of metered work in credits. Pure function
// of (feature, metadata): no I/O. Unknown features cost zero, which the
// engine treats as "no credit path available".
func CalculateCost(feature string, meta *CostMetadata) int64 {
	key, ok := plan.CanonicalFeature(feature)
	if !ok {
		return 0
	}

	words := meta.totalWords()
	if words > 0 {
		divisor, ok := wordsPerCredit[key]
		if !ok {
			return 0
		}
		// ceil(words / divisor)
		return int64((words + divisor - 1) / divisor)
	}

	return fallbackCost[key]
}
