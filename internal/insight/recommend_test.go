package insight

import (
	"strings"
	"testing"

	"github.com/smurfatcher/harrier/internal/domain"
)

func newTestRecommender(t *testing.T) *Recommender {
	t.Helper()
	rec, err := NewRecommender()
	if err != nil {
		t.Fatalf("failed to create recommender: %v", err)
	}
	return rec
}

func TestRecommenderNoMatches(t *testing.T) {
	rec := newTestRecommender(t)

	got := rec.Generate(nil, nil)
	if len(got) != 0 {
		t.Errorf("expected no recommendations for empty case, got %d", len(got))
	}
}

func TestRecommenderHighRiskAccounts(t *testing.T) {
	rec := newTestRecommender(t)

	// Confidence stays above the low-confidence threshold so only the
	// high-risk rule fires.
	accounts := []domain.Account{
		{ID: "A", RiskScore: 75, Confidence: 0.9},
		{ID: "B", RiskScore: 82, Confidence: 0.9},
	}

	got := rec.Generate(accounts, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(got))
	}
	if got[0].Priority != domain.PriorityHigh {
		t.Errorf("expected high priority, got %s", got[0].Priority)
	}
	if !strings.Contains(got[0].Rationale, "2 accounts") {
		t.Errorf("rationale should interpolate count: %s", got[0].Rationale)
	}
}

func TestRecommenderPriorityOrdering(t *testing.T) {
	rec := newTestRecommender(t)

	// Trips the velocity (medium), high-risk (high) and low-confidence (low)
	// rules from a single account set.
	accounts := []domain.Account{
		{ID: "A", RiskScore: 75, VelocityLabel: domain.VelocityHigh},
		{ID: "B", RiskScore: 62, Confidence: 0.5},
	}

	got := rec.Generate(accounts, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(got))
	}

	lastRank := -1
	for _, r := range got {
		rank := priorityRank(r.Priority)
		if rank < lastRank {
			t.Fatalf("recommendations out of priority order: %v", got)
		}
		lastRank = rank
	}
	if got[0].Priority != domain.PriorityHigh || got[2].Priority != domain.PriorityLow {
		t.Errorf("expected high first, low last, got %s / %s", got[0].Priority, got[2].Priority)
	}
}

func TestRecommenderRingRule(t *testing.T) {
	rec := newTestRecommender(t)

	rings := []domain.Ring{
		{ID: "R1", Confidence: 0.9},
		{ID: "R2", Confidence: 0.6},
	}

	got := rec.Generate(nil, rings)
	if len(got) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(got))
	}
	if !strings.Contains(got[0].Rationale, "1 high-confidence rings") {
		t.Errorf("expected only the 0.9-confidence ring to count: %s", got[0].Rationale)
	}
}

func TestRecommenderAllRulesFire(t *testing.T) {
	rec := newTestRecommender(t)

	accounts := []domain.Account{
		{ID: "A", RiskScore: 85, VelocityLabel: domain.VelocityHigh, InDegree: 20,
			TotalOut: 2000000, Patterns: []string{"cycle", "shell", "velocity"}},
		{ID: "B", RiskScore: 62, Confidence: 0.5},
	}
	rings := []domain.Ring{{ID: "R1", Confidence: 0.9}}

	got := rec.Generate(accounts, rings)
	if len(got) != 7 {
		t.Fatalf("expected all 7 rules to fire, got %d", len(got))
	}

	var high, medium, low int
	for _, r := range got {
		switch r.Priority {
		case domain.PriorityHigh:
			high++
		case domain.PriorityMedium:
			medium++
		default:
			low++
		}
	}
	if high != 3 || medium != 3 || low != 1 {
		t.Errorf("expected 3 high / 3 medium / 1 low, got %d/%d/%d", high, medium, low)
	}
}

func TestInvestigationDatapoints(t *testing.T) {
	scc := 7
	account := domain.Account{
		ID:                   "ACC-1",
		RiskScore:            75,
		Confidence:           0.85,
		TxCount:              120,
		TotalIn:              250000,
		TotalOut:             180000,
		InDegree:             12,
		OutDegree:            8,
		UniqueCounterparties: 25,
		VelocityLabel:        domain.VelocityHigh,
		Patterns:             []string{"cycle", "velocity"},
		SCCID:                &scc,
		KCoreLevel:           4,
		CentralityScore:      0.62,
	}

	got := InvestigationDatapoints(account)

	want := []string{
		"Risk Score: 75 (85% confidence)",
		"Transaction Count: 120",
		"Total Inflow: $250k",
		"Total Outflow: $180k",
		"Network Degree: In=12, Out=8",
		"Detected Patterns: cycle, velocity",
		"Part of Strongly Connected Component 7",
		"K-Core Level: 4",
		"Network Centrality: 62%",
	}
	joined := strings.Join(got, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Errorf("datapoints missing %q:\n%s", w, joined)
		}
	}
}

func TestSuggestInvestigationApproach(t *testing.T) {
	cases := []struct {
		name    string
		account domain.Account
		prefix  string
	}{
		{"urgent", domain.Account{RiskScore: 80}, "URGENT:"},
		{"multi pattern", domain.Account{RiskScore: 65, Patterns: []string{"cycle", "shell"}}, "HIGH PRIORITY:"},
		{"velocity", domain.Account{RiskScore: 65, VelocityLabel: domain.VelocityHigh}, "MEDIUM PRIORITY: Focus"},
		{"hub", domain.Account{RiskScore: 30, OutDegree: 25}, "MEDIUM PRIORITY: Investigate"},
		{"routine", domain.Account{RiskScore: 30}, "ROUTINE:"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SuggestInvestigationApproach(tc.account)
			if !strings.HasPrefix(got, tc.prefix) {
				t.Errorf("expected prefix %q, got %s", tc.prefix, got)
			}
		})
	}
}
