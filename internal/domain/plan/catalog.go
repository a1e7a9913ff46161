package plan

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FreePlanID is the tier every unknown or lapsed user resolves to.
const FreePlanID = "free"

// Known tier ids shipped in the default catalog.
const (
	PlanPAYG       = "payg"
	PlanStudent    = "student"
	PlanStudentPro = "student_pro"
	PlanResearcher = "researcher"
)

//go:embed defaultcatalog.yaml
var defaultCatalogYAML []byte

// planAliases maps known external spellings to canonical tier ids.
// Applied after case folding and separator normalization.
var planAliases = map[string]string{
	"pay_as_you_go": PlanPAYG,
	"pro":           PlanStudentPro,
	"premium":       PlanResearcher,
}

// Tier holds the per-feature limits and billing metadata of one plan tier.
type Tier struct {
	Features         FeatureLimits `yaml:"features"`
	MaxDocumentChars int           `yaml:"max_document_chars"`
	RetentionDays    int           `yaml:"retention_days"`
}

// Catalog is the static table of plan tiers. Immutable once built; safe
// for concurrent readers without locking.
type Catalog struct {
	tiers map[string]Tier
}

type catalogFile struct {
	Plans map[string]Tier `yaml:"plans"`
}

// NewCatalog builds a catalog from explicit tier definitions.
func NewCatalog(tiers map[string]Tier) (*Catalog, error) {
	if _, ok := tiers[FreePlanID]; !ok {
		return nil, fmt.Errorf("catalog must define the %q tier", FreePlanID)
	}
	for planID, tier := range tiers {
		for feature, limit := range tier.Features {
			if !IsCanonicalFeature(feature) {
				return nil, fmt.Errorf("plan %q defines unknown feature %q", planID, feature)
			}
			if !limit.IsValid() {
				return nil, fmt.Errorf("plan %q feature %q has invalid limit %d", planID, feature, limit)
			}
		}
	}
	return &Catalog{tiers: tiers}, nil
}

// DefaultCatalog returns the compiled-in catalog.
func DefaultCatalog() *Catalog {
	catalog, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		// The embedded catalog is validated by tests; failing here means
		// a broken build artifact.
		panic(fmt.Sprintf("invalid embedded plan catalog: %v", err))
	}
	return catalog
}

// LoadCatalog reads a YAML catalog from disk. An empty path returns the
// compiled-in default.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	return NewCatalog(file.Plans)
}

// NormalizePlanID canonicalizes a plan id: case folding, whitespace and
// hyphens to underscores, then the alias table. Normalization happens here
// so every other component can assume canonical ids.
func NormalizePlanID(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if canonical, ok := planAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// Limits returns the feature limit map for a plan. Unknown plan ids fall
// back to the free tier so a bad plan id degrades access instead of
// failing requests.
func (c *Catalog) Limits(planID string) FeatureLimits {
	return c.Tier(planID).Features
}

// Tier returns the full tier definition for a plan, with the same
// free-tier fallback as Limits.
func (c *Catalog) Tier(planID string) Tier {
	if tier, ok := c.tiers[NormalizePlanID(planID)]; ok {
		return tier
	}
	return c.tiers[FreePlanID]
}

// Has reports whether the catalog defines the given plan id.
func (c *Catalog) Has(planID string) bool {
	_, ok := c.tiers[NormalizePlanID(planID)]
	return ok
}

// PlanIDs returns all tier ids defined in the catalog.
func (c *Catalog) PlanIDs() []string {
	ids := make([]string, 0, len(c.tiers))
	for id := range c.tiers {
		ids = append(ids, id)
	}
	return ids
}
