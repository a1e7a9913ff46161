package plan

import "testing"

// TestNormalizePlanID verifies plan id canonicalization including the
// alias table and separator handling.
func TestNormalizePlanID(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"canonical passes through", "student", "student"},
		{"upper case folded", "Student", "student"},
		{"hyphens normalized", "student-pro", "student_pro"},
		{"spaces normalized", "student pro", "student_pro"},
		{"surrounding whitespace trimmed", "  free  ", "free"},
		{"pay_as_you_go alias", "pay_as_you_go", "payg"},
		{"pay-as-you-go alias via separators", "Pay-As-You-Go", "payg"},
		{"pro alias", "pro", "student_pro"},
		{"premium alias", "premium", "researcher"},
		{"unknown id passes through normalized", "Enterprise-Plus", "enterprise_plus"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePlanID(tt.raw); got != tt.expected {
				t.Errorf("NormalizePlanID(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

// TestDefaultCatalog_Tiers verifies the embedded catalog carries the
// expected limits for each tier.
func TestDefaultCatalog_Tiers(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name     string
		planID   string
		feature  string
		expected Limit
	}{
		{"free scans are finite", FreePlanID, FeatureScansPerMonth, 3},
		{"free originality scan once", FreePlanID, FeatureOriginalityScan, 1},
		{"payg is credit-only", PlanPAYG, FeatureScansPerMonth, CreditOnly},
		{"student scans", PlanStudent, FeatureScansPerMonth, 25},
		{"student pro chat unlimited", PlanStudentPro, FeatureAIChat, Unlimited},
		{"student pro scans still finite", PlanStudentPro, FeatureScansPerMonth, 60},
		{"researcher all unlimited", PlanResearcher, FeatureScansPerMonth, Unlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := catalog.Limits(tt.planID)
			if got := limits[tt.feature]; got != tt.expected {
				t.Errorf("Limits(%q)[%q] = %d, want %d", tt.planID, tt.feature, got, tt.expected)
			}
		})
	}
}

// TestCatalog_UnknownPlanFallsBackToFree verifies that a bad plan id
// degrades to free-tier limits instead of failing.
func TestCatalog_UnknownPlanFallsBackToFree(t *testing.T) {
	catalog := DefaultCatalog()

	limits := catalog.Limits("no_such_plan")
	if got := limits[FeatureScansPerMonth]; got != 3 {
		t.Errorf("unknown plan scans limit = %d, want free-tier 3", got)
	}

	if catalog.Has("no_such_plan") {
		t.Error("Has() reported an unknown plan as defined")
	}
	if !catalog.Has("Student-Pro") {
		t.Error("Has() should normalize before lookup")
	}
}

// TestNewCatalog_Validation verifies catalog construction rejects broken
// definitions.
func TestNewCatalog_Validation(t *testing.T) {
	tests := []struct {
		name    string
		tiers   map[string]Tier
		wantErr bool
	}{
		{
			name: "valid catalog",
			tiers: map[string]Tier{
				FreePlanID: {Features: FeatureLimits{FeatureScansPerMonth: 3}},
			},
			wantErr: false,
		},
		{
			name: "missing free tier",
			tiers: map[string]Tier{
				PlanStudent: {Features: FeatureLimits{FeatureScansPerMonth: 25}},
			},
			wantErr: true,
		},
		{
			name: "unknown feature key",
			tiers: map[string]Tier{
				FreePlanID: {Features: FeatureLimits{"pdf_export": 3}},
			},
			wantErr: true,
		},
		{
			name: "invalid limit sentinel",
			tiers: map[string]Tier{
				FreePlanID: {Features: FeatureLimits{FeatureScansPerMonth: -3}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.tiers)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestCanonicalFeature verifies legacy feature names resolve to canonical
// keys and unknown names are rejected.
func TestCanonicalFeature(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"scan alias", "scan", FeatureScansPerMonth, true},
		{"citation_check alias", "citation_check", FeatureCitationAudit, true},
		{"rephrase alias", "rephrase", FeatureRephraseSuggestions, true},
		{"originality alias", "originality", FeatureOriginalityScan, true},
		{"chat alias", "chat", FeatureAIChat, true},
		{"canonical passes through", FeatureScansPerMonth, FeatureScansPerMonth, true},
		{"unknown rejected", "pdf_export", "pdf_export", false},
		{"empty rejected", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalFeature(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("CanonicalFeature(%q) = (%q, %v), want (%q, %v)",
					tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

// TestLimit_Predicates verifies the sentinel helpers.
func TestLimit_Predicates(t *testing.T) {
	tests := []struct {
		name       string
		limit      Limit
		unlimited  bool
		creditOnly bool
		finite     bool
		valid      bool
	}{
		{"unlimited", Unlimited, true, false, false, true},
		{"credit only", CreditOnly, false, true, false, true},
		{"zero quota", 0, false, false, true, true},
		{"finite quota", 25, false, false, true, true},
		{"below sentinels", -3, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.limit.IsUnlimited(); got != tt.unlimited {
				t.Errorf("IsUnlimited() = %v, want %v", got, tt.unlimited)
			}
			if got := tt.limit.IsCreditOnly(); got != tt.creditOnly {
				t.Errorf("IsCreditOnly() = %v, want %v", got, tt.creditOnly)
			}
			if got := tt.limit.IsFinite(); got != tt.finite {
				t.Errorf("IsFinite() = %v, want %v", got, tt.finite)
			}
			if got := tt.limit.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}
