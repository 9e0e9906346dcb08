package insight

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/smurfatcher/harrier/internal/domain"
)

// Summarizer composes case-level narratives from the other generators'
// outputs plus case statistics.
type Summarizer struct {
	rec *Recommender
}

// NewSummarizer wraps an already constructed Recommender.
func NewSummarizer(rec *Recommender) *Summarizer {
	return &Summarizer{rec: rec}
}

// CaseSummary builds the executive summary for one loaded case.
func (s *Summarizer) CaseSummary(caseRun domain.CaseRun, accounts []domain.Account, rings []domain.Ring) domain.CaseSummary {
	suspicious := filterSuspicious(accounts)

	recommendations := s.rec.Generate(suspicious, rings)
	actionCount := len(recommendations)
	if actionCount > 3 {
		actionCount = 3
	}
	actions := make([]string, 0, actionCount)
	for _, r := range recommendations[:actionCount] {
		actions = append(actions, r.Action)
	}

	caseID := caseRun.ID
	if len(caseID) > 8 {
		caseID = caseID[:8]
	}

	return domain.CaseSummary{
		Title:              "AML Detection Report - Case " + caseID,
		Overview:           overview(caseRun, suspicious, rings),
		KeyFindings:        keyFindings(caseRun, suspicious, rings),
		SuspiciousPatterns: SuspiciousPatternsNarrative(rings),
		RecommendedActions: actions,
		RiskAssessment:     riskAssessment(suspicious),
		NextSteps:          nextSteps(suspicious, rings),
	}
}

// ComplianceReport renders the summary into the plain-text report format
// used for compliance documentation exports.
func (s *Summarizer) ComplianceReport(caseRun domain.CaseRun, accounts []domain.Account, rings []domain.Ring, now time.Time) string {
	summary := s.CaseSummary(caseRun, accounts, rings)

	findings := make([]string, 0, len(summary.KeyFindings))
	for i, f := range summary.KeyFindings {
		findings = append(findings, fmt.Sprintf("%d. %s", i+1, f))
	}
	patterns := make([]string, 0, len(summary.SuspiciousPatterns))
	for _, p := range summary.SuspiciousPatterns {
		patterns = append(patterns, "- "+p)
	}
	recommended := make([]string, 0, len(summary.RecommendedActions))
	for _, a := range summary.RecommendedActions {
		recommended = append(recommended, "- "+a)
	}

	return fmt.Sprintf(`COMPLIANCE AML ANALYSIS REPORT
Generated: %s
Case ID: %s

EXECUTIVE SUMMARY
%s

RISK ASSESSMENT
%s

KEY FINDINGS
%s

DETECTED PATTERNS
%s

RECOMMENDED ACTIONS
%s

NEXT STEPS
%s

---
This report was generated by the Harrier AML Case Insight Service.
Analysis is based on deterministic graph and behavioral pattern detection.
Human review and investigation required before any regulatory action.`,
		now.Format("2006-01-02"),
		caseRun.ID,
		summary.Overview,
		summary.RiskAssessment,
		strings.Join(findings, "\n"),
		strings.Join(patterns, "\n"),
		strings.Join(recommended, "\n"),
		strings.Join(summary.NextSteps, "\n"))
}

// RingNarrative renders one ring as a multi-line drill-down text.
func RingNarrative(ring domain.Ring, accounts []domain.Account) string {
	members := resolveMembers(ring, accounts)
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	return fmt.Sprintf(`%s detected:
Flow: %s
Members: %d accounts
Total Movement: %s
Confidence: %d%%
Time Window: %s
Average Transaction: %s`,
		strings.ToUpper(domain.NormalizePatternType(ring.PatternType)),
		strings.Join(ids, " -> "),
		len(ring.Members),
		fmtThousands(ring.TotalFlow),
		pct(domain.NormalizeConfidence(ring.Confidence)),
		ring.TimeWindow,
		fmtThousands(ring.AvgTxSize))
}

func filterSuspicious(accounts []domain.Account) []domain.Account {
	var suspicious []domain.Account
	for _, a := range accounts {
		if a.RiskScore >= 60 {
			suspicious = append(suspicious, a)
		}
	}
	return suspicious
}

func overview(caseRun domain.CaseRun, suspicious []domain.Account, rings []domain.Ring) string {
	highRisk := countHighRisk(suspicious)
	ringStr := fmt.Sprintf("%d suspicious rings", len(rings))
	if len(rings) == 1 {
		ringStr = "1 suspicious ring"
	}

	return fmt.Sprintf("Analysis of %s transactions identified %d high-risk accounts and %s. Risk exposure: %d%%. Dataset contained %d unique entities over %s.",
		groupInt(caseRun.DatasetSize), highRisk, ringStr, caseRun.RiskExposure, caseRun.NodeCount, caseRun.TimeWindow)
}

func keyFindings(caseRun domain.CaseRun, suspicious []domain.Account, rings []domain.Ring) []string {
	findings := make([]string, 0, 6)

	nodeCount := caseRun.NodeCount
	if nodeCount < 1 {
		nodeCount = 1
	}
	coverage := int(math.Round(float64(caseRun.TxCount) / 100))
	flagRate := int(math.Round(float64(caseRun.SuspiciousCount) / float64(nodeCount) * 100))
	findings = append(findings, fmt.Sprintf("Detection Confidence: Analysis achieved %d%% transaction coverage with %d%% entity flagging rate.", coverage, flagRate))

	distinct := distinctPatternTypes(rings)
	if len(distinct) > 1 {
		findings = append(findings, fmt.Sprintf("Multiple Pattern Types: Detected %d distinct suspicious patterns (%s) indicating sophisticated techniques.",
			len(distinct), strings.Join(distinct, ", ")))
	}

	if len(rings) > 0 {
		var memberTotal int
		var flowTotal float64
		for _, r := range rings {
			memberTotal += len(r.Members)
			flowTotal += r.TotalFlow
		}
		avgSize := int(math.Round(float64(memberTotal) / float64(len(rings))))
		findings = append(findings, fmt.Sprintf("Network Complexity: Rings average %d members each with coordinated flows totaling %s in suspicious movement.",
			avgSize, fmtThousands(flowTotal)))
	}

	if n := countHighVelocity(suspicious); n > 0 {
		findings = append(findings, fmt.Sprintf("Velocity Concerns: %d accounts exhibit high-frequency transaction patterns consistent with smurfing or rapid cycling.", n))
	}

	var hubs []domain.Account
	for _, a := range suspicious {
		if a.InDegree+a.OutDegree > 30 {
			hubs = append(hubs, a)
		}
	}
	if len(hubs) > 0 {
		var degreeTotal int
		for _, h := range hubs {
			degreeTotal += h.InDegree + h.OutDegree
		}
		avgConnections := int(math.Round(float64(degreeTotal) / float64(len(hubs)) / 2))
		findings = append(findings, fmt.Sprintf("Hub Activity: %d accounts function as network hubs with %d average connections, suggesting aggregator or distributor roles.",
			len(hubs), avgConnections))
	}

	var multiPattern int
	for _, a := range suspicious {
		if len(a.Patterns) > 1 {
			multiPattern++
		}
	}
	if multiPattern > 0 {
		findings = append(findings, fmt.Sprintf("Complex Indicators: %d accounts match multiple detection patterns, indicating potential sophisticated evasion techniques.", multiPattern))
	}

	return findings
}

func riskAssessment(suspicious []domain.Account) string {
	highRisk := countHighRisk(suspicious)
	var mediumRisk int
	for _, a := range suspicious {
		if a.RiskScore >= 40 && a.RiskScore < 70 {
			mediumRisk++
		}
	}

	switch {
	case highRisk > 5:
		return fmt.Sprintf("CRITICAL RISK: Multiple high-confidence AML indicators detected. %d accounts require immediate investigation. System recommends escalation to senior AML team and consideration of regulatory reporting.", highRisk)
	case highRisk > 0:
		return fmt.Sprintf("HIGH RISK: Credible suspicious activity detected. %d accounts with high-confidence flags and %d medium-risk accounts warrant prompt investigation.", highRisk, mediumRisk)
	case mediumRisk > 10:
		return "MEDIUM RISK: Elevated activity detected across multiple accounts. While no single high-confidence flags, the pattern density warrants focused investigation and monitoring."
	default:
		return "LOWER RISK: Activity patterns detected but lower detection confidence. Recommend routine monitoring and periodic review. No immediate escalation required."
	}
}

func nextSteps(suspicious []domain.Account, rings []domain.Ring) []string {
	steps := make([]string, 0, 5)

	if n := countHighRisk(suspicious); n > 0 {
		steps = append(steps, fmt.Sprintf("1. Immediate Review: Prioritize %d high-risk accounts for enhanced due diligence", n))
	}
	if len(rings) > 0 {
		steps = append(steps, fmt.Sprintf("2. Network Analysis: Map relationships between flagged accounts in %d detected rings", len(rings)))
	}
	if n := countHighVelocity(suspicious); n > 0 {
		steps = append(steps, fmt.Sprintf("3. Velocity Investigation: Analyze transaction size distribution and timing for %d high-velocity accounts", n))
	}

	steps = append(steps,
		"4. Documentation: Record all investigation findings and maintain audit trail per regulatory requirements",
		"5. Escalation Decision: Based on findings, determine if regulatory reporting or law enforcement referral warranted")

	return steps
}

func countHighRisk(accounts []domain.Account) int {
	var n int
	for _, a := range accounts {
		if a.RiskScore >= 70 {
			n++
		}
	}
	return n
}

func countHighVelocity(accounts []domain.Account) int {
	var n int
	for _, a := range accounts {
		if a.VelocityLabel == domain.VelocityHigh {
			n++
		}
	}
	return n
}

func distinctPatternTypes(rings []domain.Ring) []string {
	seen := make(map[string]bool)
	var types []string
	for _, r := range rings {
		t := domain.NormalizePatternType(r.PatternType)
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types
}
