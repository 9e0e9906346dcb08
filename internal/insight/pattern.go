// Package insight converts detection results into deterministic, templated
// natural-language narratives: pattern interpretations, risk explanations,
// investigation recommendations and case summaries.
//
// Everything in this package is a pure transform over already-scored input.
// No function here writes to a risk score, a confidence, or any other
// score-bearing field; the output is strictly explanatory.
package insight

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/smurfatcher/harrier/internal/domain"
)

// patternExplanations maps canonical pattern types to their analyst-facing
// explanation. Unknown types fall back to a generic phrase; interpretation
// must never fail on an unrecognized pattern.
var patternExplanations = map[string]string{
	domain.PatternCycle:             "Circular transaction flow suggesting potential value transfer obfuscation",
	domain.PatternFanOut:            "One entity distributing funds to multiple recipients, common in layering operations",
	domain.PatternFanIn:             "Multiple entities consolidating funds into one account, typical integration phase",
	domain.PatternShell:             "Rapid sequential transactions through shell entities for AML evasion",
	domain.PatternSuddenJump:        "Unusual increase in transaction volume indicating potential money movement",
	domain.PatternVelocity:          "High-frequency transactions suggesting potential smurfing or rapid cycling",
	domain.PatternCounterpartyChurn: "Continuous change of transaction partners to avoid detection patterns",
}

var patternRiskIndicators = map[string]string{
	domain.PatternCycle:             "Value laundering through circular flows",
	domain.PatternFanOut:            "Potential placement/layering phase",
	domain.PatternFanIn:             "Potential integration/consolidation phase",
	domain.PatternShell:             "Deliberate obfuscation through intermediaries",
	domain.PatternSuddenJump:        "Suspicious volume spike with unclear origin",
	domain.PatternVelocity:          "Potential smurfing or transaction cycling",
	domain.PatternCounterpartyChurn: "Evasion technique to break pattern detection",
}

const (
	genericExplanation   = "Complex transaction pattern detected"
	genericRiskIndicator = "Unusual activity pattern"
	defaultTimeWindow    = "recent activity"
)

// InterpretPattern converts a detected ring and its member accounts into a
// structured natural-language interpretation. Missing or malformed ring
// fields degrade to generic text; the function never fails.
func InterpretPattern(ring domain.Ring, accounts []domain.Account) domain.PatternInterpretation {
	patternType := domain.NormalizePatternType(ring.PatternType)

	members := resolveMembers(ring, accounts)

	// Stable sort keeps the original member ordering for equal volumes.
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].TotalOut > members[j].TotalOut
	})

	confidence := domain.NormalizeConfidence(ring.Confidence)
	if ring.CycleLength > 3 {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	keyCount := len(members)
	if keyCount > 3 {
		keyCount = 3
	}
	keyAccounts := make([]string, 0, keyCount)
	for _, a := range members[:keyCount] {
		keyAccounts = append(keyAccounts, a.ID)
	}

	explanation, ok := patternExplanations[patternType]
	if !ok {
		explanation = genericExplanation
	}
	riskIndicator, ok := patternRiskIndicators[patternType]
	if !ok {
		riskIndicator = genericRiskIndicator
	}

	return domain.PatternInterpretation{
		PatternType:     patternType,
		Confidence:      confidence,
		Explanation:     explanation,
		RiskIndicator:   riskIndicator,
		KeyAccounts:     keyAccounts,
		FlowDescription: flowDescription(ring, patternType, members),
		Timeline:        timeline(ring),
	}
}

// InterpretAllPatterns interprets every ring, keyed by ring ID.
func InterpretAllPatterns(rings []domain.Ring, accounts []domain.Account) map[string]domain.PatternInterpretation {
	interpretations := make(map[string]domain.PatternInterpretation, len(rings))
	for _, ring := range rings {
		interpretations[ring.ID] = InterpretPattern(ring, accounts)
	}
	return interpretations
}

// SuspiciousPatternsNarrative groups rings by pattern type and emits one
// sentence per distinct type, in first-seen order.
func SuspiciousPatternsNarrative(rings []domain.Ring) []string {
	counts := make(map[string]int)
	var order []string
	for _, ring := range rings {
		t := domain.NormalizePatternType(ring.PatternType)
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	narrative := make([]string, 0, len(order))
	for _, t := range order {
		desc, ok := patternExplanations[t]
		if !ok {
			desc = t
		}
		if counts[t] == 1 {
			narrative = append(narrative, "1 instance of "+desc)
		} else {
			narrative = append(narrative, strconv.Itoa(counts[t])+" instances of "+desc)
		}
	}
	return narrative
}

// resolveMembers maps ring member IDs onto known accounts, preserving the
// account collection's ordering. Unresolved members are tolerated: flow
// descriptions substitute placeholder labels for them.
func resolveMembers(ring domain.Ring, accounts []domain.Account) []domain.Account {
	memberSet := make(map[string]bool, len(ring.Members))
	for _, id := range ring.Members {
		memberSet[id] = true
	}
	var members []domain.Account
	for _, a := range accounts {
		if memberSet[a.ID] {
			members = append(members, a)
		}
	}
	return members
}

func flowDescription(ring domain.Ring, patternType string, members []domain.Account) string {
	numAccounts := len(ring.Members)
	window := ring.TimeWindow
	if window == "" {
		window = defaultTimeWindow
	}

	switch patternType {
	case domain.PatternCycle:
		return fmt.Sprintf("Circular flow involving %d accounts with ~%s total movement. Each transaction averages %s, suggesting deliberate structuring.",
			numAccounts, fmtThousands(ring.TotalFlow), fmtThousands(ring.AvgTxSize))

	case domain.PatternFanOut:
		source := "Primary account"
		if len(members) > 0 {
			source = members[0].ID
		}
		return fmt.Sprintf("%s distributed %s across %d recipients in %s, averaging %s per transaction.",
			source, fmtThousands(ring.TotalFlow), numAccounts, window, fmtThousands(ring.AvgTxSize))

	case domain.PatternFanIn:
		target := "Target account"
		if len(members) > 0 {
			target = members[len(members)-1].ID
		}
		return fmt.Sprintf("%d accounts consolidated %s into %s through %d transactions over %s.",
			numAccounts, fmtThousands(ring.TotalFlow), target, ring.CycleLength, window)

	default:
		return fmt.Sprintf("Pattern involves %d accounts with %s in total movement detected in %s.",
			numAccounts, fmtThousands(ring.TotalFlow), window)
	}
}

func timeline(ring domain.Ring) string {
	window := ring.TimeWindow
	if window == "" {
		window = defaultTimeWindow
	}
	return fmt.Sprintf("Activity concentrated in %s, suggesting coordinated or time-sensitive operations.", window)
}
