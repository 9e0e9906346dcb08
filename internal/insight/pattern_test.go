package insight

import (
	"reflect"
	"strings"
	"testing"

	"github.com/smurfatcher/harrier/internal/domain"
)

func cycleRing() domain.Ring {
	return domain.Ring{
		ID:          "RING-001",
		PatternType: "cycle",
		CycleLength: 3,
		Confidence:  0.7,
		TotalFlow:   3000000,
		AvgTxSize:   1000000,
		TimeWindow:  "48h",
		Members:     []string{"A", "B", "C"},
	}
}

func cycleAccounts() []domain.Account {
	return []domain.Account{
		{ID: "A", TotalOut: 500000},
		{ID: "B", TotalOut: 300000},
		{ID: "C", TotalOut: 200000},
	}
}

func TestInterpretPatternCycle(t *testing.T) {
	got := InterpretPattern(cycleRing(), cycleAccounts())

	if got.PatternType != domain.PatternCycle {
		t.Errorf("expected pattern type cycle, got %s", got.PatternType)
	}
	if got.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7 with cycle length 3, got %v", got.Confidence)
	}
	if !reflect.DeepEqual(got.KeyAccounts, []string{"A", "B", "C"}) {
		t.Errorf("expected key accounts [A B C], got %v", got.KeyAccounts)
	}
	if !strings.Contains(got.FlowDescription, "3 accounts") {
		t.Errorf("flow description missing account count: %s", got.FlowDescription)
	}
	if !strings.Contains(got.FlowDescription, "$3000k") {
		t.Errorf("flow description missing total flow: %s", got.FlowDescription)
	}
	if !strings.Contains(got.FlowDescription, "$1000k") {
		t.Errorf("flow description missing avg tx size: %s", got.FlowDescription)
	}
	if !strings.Contains(got.Timeline, "48h") {
		t.Errorf("timeline missing time window: %s", got.Timeline)
	}
}

func TestInterpretPatternConfidenceClamp(t *testing.T) {
	ring := cycleRing()
	ring.Confidence = 1.0
	ring.CycleLength = 5

	got := InterpretPattern(ring, cycleAccounts())
	if got.Confidence != 1.0 {
		t.Errorf("expected confidence clamped to 1.0, got %v", got.Confidence)
	}
}

func TestInterpretPatternCycleLengthBonus(t *testing.T) {
	ring := cycleRing()
	ring.CycleLength = 4

	got := InterpretPattern(ring, cycleAccounts())
	if got.Confidence < 0.799 || got.Confidence > 0.801 {
		t.Errorf("expected 0.1 bonus for cycle length > 3, got %v", got.Confidence)
	}
}

func TestInterpretPatternUnknownType(t *testing.T) {
	ring := cycleRing()
	ring.PatternType = "quantum_tunneling"

	got := InterpretPattern(ring, cycleAccounts())
	if got.Explanation != genericExplanation {
		t.Errorf("expected generic explanation, got %s", got.Explanation)
	}
	if got.RiskIndicator != genericRiskIndicator {
		t.Errorf("expected generic risk indicator, got %s", got.RiskIndicator)
	}
}

func TestInterpretPatternKeyAccountsSortedByOutflow(t *testing.T) {
	ring := cycleRing()
	ring.Members = []string{"A", "B", "C", "D"}
	accounts := []domain.Account{
		{ID: "A", TotalOut: 100},
		{ID: "B", TotalOut: 900},
		{ID: "C", TotalOut: 500},
		{ID: "D", TotalOut: 500},
	}

	got := InterpretPattern(ring, accounts)
	if !reflect.DeepEqual(got.KeyAccounts, []string{"B", "C", "D"}) {
		t.Errorf("expected key accounts [B C D] (stable sort, max 3), got %v", got.KeyAccounts)
	}
}

func TestInterpretPatternUnresolvedMembers(t *testing.T) {
	ring := cycleRing()
	ring.PatternType = "fan_out"
	ring.Members = []string{"GHOST-1", "GHOST-2"}

	got := InterpretPattern(ring, nil)
	if len(got.KeyAccounts) != 0 {
		t.Errorf("expected no key accounts for unresolved members, got %v", got.KeyAccounts)
	}
	if !strings.Contains(got.FlowDescription, "Primary account") {
		t.Errorf("expected placeholder source label, got %s", got.FlowDescription)
	}
}

func TestInterpretPatternEmptyTimeWindow(t *testing.T) {
	ring := cycleRing()
	ring.TimeWindow = ""

	got := InterpretPattern(ring, cycleAccounts())
	if !strings.Contains(got.Timeline, defaultTimeWindow) {
		t.Errorf("expected default time window, got %s", got.Timeline)
	}
}

func TestInterpretAllPatternsIdempotent(t *testing.T) {
	rings := []domain.Ring{cycleRing()}
	accounts := cycleAccounts()

	first := InterpretAllPatterns(rings, accounts)
	second := InterpretAllPatterns(rings, accounts)

	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical output for identical input")
	}
	if _, ok := first["RING-001"]; !ok {
		t.Error("expected interpretation keyed by ring ID")
	}
}

func TestSuspiciousPatternsNarrative(t *testing.T) {
	rings := []domain.Ring{
		{PatternType: "cycle"},
		{PatternType: "cycle"},
		{PatternType: "fan_in"},
	}

	got := SuspiciousPatternsNarrative(rings)
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
	if !strings.HasPrefix(got[0], "2 instances of ") {
		t.Errorf("expected plural cycle sentence first, got %s", got[0])
	}
	if !strings.HasPrefix(got[1], "1 instance of ") {
		t.Errorf("expected singular fan_in sentence, got %s", got[1])
	}
	if !strings.Contains(got[1], patternExplanations[domain.PatternFanIn]) {
		t.Errorf("expected fan_in description, got %s", got[1])
	}
}

func TestSuspiciousPatternsNarrativeNormalizesSpelling(t *testing.T) {
	rings := []domain.Ring{
		{PatternType: "fan-in"},
		{PatternType: "fan_in"},
	}

	got := SuspiciousPatternsNarrative(rings)
	if len(got) != 1 {
		t.Fatalf("expected hyphen and underscore spellings to merge, got %v", got)
	}
	if !strings.HasPrefix(got[0], "2 instances of ") {
		t.Errorf("expected merged count of 2, got %s", got[0])
	}
}
