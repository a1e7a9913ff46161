package plan

// Canonical feature keys. All metering and snapshot state is keyed by
// these; external and legacy names are mapped through CanonicalFeature.
const (
	FeatureScansPerMonth       = "scans_per_month"
	FeatureCitationAudit       = "citation_audit"
	FeatureRephraseSuggestions = "rephrase_suggestions"
	FeatureOriginalityScan     = "originality_scan"
	FeatureAIChat              = "ai_chat"
)

// featureAliases maps external/legacy feature names to canonical keys.
// This table must be applied identically wherever a feature name enters
// the engine or the snapshot.
var featureAliases = map[string]string{
	"scan":           FeatureScansPerMonth,
	"citation_check": FeatureCitationAudit,
	"rephrase":       FeatureRephraseSuggestions,
	"originality":    FeatureOriginalityScan,
	"chat":           FeatureAIChat,
}

// canonicalFeatures is the set of keys the catalog may define.
var canonicalFeatures = map[string]bool{
	FeatureScansPerMonth:       true,
	FeatureCitationAudit:       true,
	FeatureRephraseSuggestions: true,
	FeatureOriginalityScan:     true,
	FeatureAIChat:              true,
}

// CriticalFeatures are the keys whose stored snapshot limits are verified
// against the live catalog on every read (self-heal on drift). Kept small
// on purpose; a full comparison happens only during rebuild.
var CriticalFeatures = []string{
	FeatureScansPerMonth,
	FeatureAIChat,
}

// CanonicalFeature resolves an external or legacy feature name to its
// canonical key. Unknown names that are already canonical pass through;
// anything else returns ok=false.
func CanonicalFeature(name string) (string, bool) {
	if canonical, ok := featureAliases[name]; ok {
		return canonical, true
	}
	if canonicalFeatures[name] {
		return name, true
	}
	return name, false
}

// IsCanonicalFeature reports whether key is a known canonical feature key.
func IsCanonicalFeature(key string) bool {
	return canonicalFeatures[key]
}
