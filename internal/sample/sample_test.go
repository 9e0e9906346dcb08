package sample

import (
	"reflect"
	"testing"

	"github.com/smurfatcher/harrier/internal/domain"
)

func TestCaseDeterministic(t *testing.T) {
	case1, accounts1, rings1, edges1 := Case()
	case2, accounts2, rings2, edges2 := Case()

	if !reflect.DeepEqual(case1, case2) {
		t.Error("sample case must be identical across loads")
	}
	if !reflect.DeepEqual(accounts1, accounts2) || !reflect.DeepEqual(rings1, rings2) || !reflect.DeepEqual(edges1, edges2) {
		t.Error("sample collections must be identical across loads")
	}
}

func TestRingMembersResolve(t *testing.T) {
	accounts := Accounts()
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}

	for _, ring := range Rings() {
		if len(ring.Members) == 0 {
			t.Errorf("ring %s has no members", ring.ID)
		}
		for _, m := range ring.Members {
			if !known[m] {
				t.Errorf("ring %s references unknown account %s", ring.ID, m)
			}
		}
	}
}

func TestAccountsCoverAllRiskBands(t *testing.T) {
	var high, medium, low int
	for _, a := range Accounts() {
		switch a.RiskLevel() {
		case domain.RiskHigh:
			high++
		case domain.RiskMedium:
			medium++
		default:
			low++
		}
	}
	if high == 0 || medium == 0 || low == 0 {
		t.Errorf("sample accounts must span all risk bands, got high=%d medium=%d low=%d", high, medium, low)
	}
}

func TestPatternTypesAreCanonical(t *testing.T) {
	for _, ring := range Rings() {
		if got := domain.NormalizePatternType(ring.PatternType); got != ring.PatternType {
			t.Errorf("ring %s pattern %q is not canonical (normalizes to %q)", ring.ID, ring.PatternType, got)
		}
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	history := History()
	if len(history) != 3 {
		t.Fatalf("expected 3 historical cases, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Date > history[i-1].Date {
			t.Errorf("history not newest first: %s after %s", history[i].Date, history[i-1].Date)
		}
	}
	if history[0].RiskLevel != domain.RiskHigh {
		t.Errorf("current sample case should be high risk, got %s", history[0].RiskLevel)
	}
}
