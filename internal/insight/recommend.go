package insight

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/smurfatcher/harrier/internal/domain"
)

// triageRule is one investigative triage rule. The trigger is a CEL
// expression over case-level aggregate counts; the rationale template
// interpolates the count named by countVar.
type triageRule struct {
	ID                string
	Priority          string
	Expression        string
	CountVar          string
	Action            string
	Rationale         string // one %d verb for the matching count
	ExpectedFindings  string
	SuggestedApproach string
}

// triageRules are evaluated in declaration order; the final recommendation
// list is stable-sorted by priority, so declaration order is preserved
// within each tier.
var triageRules = []triageRule{
	{
		ID:                "high-risk-accounts",
		Priority:          domain.PriorityHigh,
		Expression:        "high_risk_accounts > 0",
		CountVar:          "high_risk_accounts",
		Action:            "Prioritize investigation of high-confidence accounts",
		Rationale:         "%d accounts flagged with 70+ risk score show strong indicators of suspicious activity.",
		ExpectedFindings:  "Beneficial ownership records, source of funds documentation, transaction purpose",
		SuggestedApproach: "Interview account holder, request enhanced due diligence documentation, check against watchlists",
	},
	{
		ID:                "high-confidence-rings",
		Priority:          domain.PriorityHigh,
		Expression:        "high_confidence_rings > 0",
		CountVar:          "high_confidence_rings",
		Action:            "Investigate detected network rings",
		Rationale:         "%d high-confidence rings detected indicating coordinated activity",
		ExpectedFindings:  "Ownership connections, shared identifiers, coordinated transaction timing",
		SuggestedApproach: "Map entity relationships, analyze transaction timing correlation, check for shell company indicators",
	},
	{
		ID:                "high-velocity-accounts",
		Priority:          domain.PriorityMedium,
		Expression:        "high_velocity_accounts > 0",
		CountVar:          "high_velocity_accounts",
		Action:            "Monitor high-velocity accounts for smurfing indicators",
		Rationale:         "%d accounts with unusual transaction frequency suggesting potential smurfing.",
		ExpectedFindings:  "Structured deposits, transaction amounts just below reporting thresholds, multiple deposit locations",
		SuggestedApproach: "Review transaction size distribution, check for just-below-threshold patterns, correlate with deposit timing",
	},
	{
		ID:                "hub-accounts",
		Priority:          domain.PriorityMedium,
		Expression:        "hub_accounts > 0",
		CountVar:          "hub_accounts",
		Action:            "Investigate hub-like accounts with many counterparties",
		Rationale:         "%d accounts show hub characteristics with 15+ connections, typical of aggregators or money movers.",
		ExpectedFindings:  "Layer entity information, business justification, beneficial ownership",
		SuggestedApproach: "Review counterparty legitimacy, verify business relationships, check settlement patterns",
	},
	{
		ID:                "large-flow-accounts",
		Priority:          domain.PriorityMedium,
		Expression:        "large_flow_accounts > 0",
		CountVar:          "large_flow_accounts",
		Action:            "Review large transaction flows",
		Rationale:         "%d accounts moving 1M+ across network deserving transaction-level review.",
		ExpectedFindings:  "Source/destination legitimacy, business purpose, compliance with transaction limits",
		SuggestedApproach: "Deep-dive transaction analysis, counterparty validation, regulatory limit verification",
	},
	{
		ID:                "multi-pattern-accounts",
		Priority:          domain.PriorityHigh,
		Expression:        "multi_pattern_accounts > 0",
		CountVar:          "multi_pattern_accounts",
		Action:            "Escalate accounts with multiple pattern matches",
		Rationale:         "%d accounts match multiple suspicious patterns indicating sophisticated evasion.",
		ExpectedFindings:  "Deliberate structuring evidence, coordination indicators, intent to obscure",
		SuggestedApproach: "Analyze temporal relationships between patterns, look for common orchestrator, check for legitimate explanation",
	},
	{
		ID:                "low-confidence-flagged",
		Priority:          domain.PriorityLow,
		Expression:        "low_confidence_flagged > 0",
		CountVar:          "low_confidence_flagged",
		Action:            "Review lower-confidence alerts for false positives",
		Rationale:         "%d accounts flagged with moderate confidence may warrant revisiting assumptions.",
		ExpectedFindings:  "Legitimate business explanations, system tuning opportunities, model calibration data",
		SuggestedApproach: "Request account context from business unit, validate business model legitimacy, gather feedback",
	},
}

// aggregateVars are the CEL environment variables available to triage
// expressions, all int counts over the loaded case.
var aggregateVars = []string{
	"high_risk_accounts",
	"high_confidence_rings",
	"high_velocity_accounts",
	"hub_accounts",
	"large_flow_accounts",
	"multi_pattern_accounts",
	"low_confidence_flagged",
}

type compiledTriage struct {
	rule    triageRule
	program cel.Program
}

// Recommender evaluates the triage rules against a loaded case.
// Rules are compiled once at construction and reused for every case.
type Recommender struct {
	compiled []compiledTriage
}

// NewRecommender compiles the triage rule expressions.
func NewRecommender() (*Recommender, error) {
	opts := make([]cel.EnvOption, 0, len(aggregateVars))
	for _, v := range aggregateVars {
		opts = append(opts, cel.Variable(v, cel.IntType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	compiled := make([]compiledTriage, 0, len(triageRules))
	for _, rule := range triageRules {
		ast, issues := env.Compile(rule.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile triage rule %s: %w", rule.ID, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("triage rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for triage rule %s: %w", rule.ID, err)
		}
		compiled = append(compiled, compiledTriage{rule: rule, program: program})
	}

	return &Recommender{compiled: compiled}, nil
}

// Generate evaluates every triage rule over the suspicious accounts and
// rings of the current case and returns the matched recommendations,
// ordered high, medium, low.
func (r *Recommender) Generate(suspiciousAccounts []domain.Account, rings []domain.Ring) []domain.InvestigationRecommendation {
	activation := caseAggregates(suspiciousAccounts, rings)

	var recommendations []domain.InvestigationRecommendation
	for _, ct := range r.compiled {
		out, _, err := ct.program.Eval(activation)
		if err != nil {
			slog.Warn("triage rule evaluation failed", "rule_id", ct.rule.ID, "error", err)
			continue
		}
		triggered, ok := out.(types.Bool)
		if !ok || !bool(triggered) {
			continue
		}

		count, _ := activation[ct.rule.CountVar].(int64)
		recommendations = append(recommendations, domain.InvestigationRecommendation{
			Priority:          ct.rule.Priority,
			Action:            ct.rule.Action,
			Rationale:         fmt.Sprintf(ct.rule.Rationale, count),
			ExpectedFindings:  ct.rule.ExpectedFindings,
			SuggestedApproach: ct.rule.SuggestedApproach,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return priorityRank(recommendations[i].Priority) < priorityRank(recommendations[j].Priority)
	})

	return recommendations
}

func priorityRank(p string) int {
	switch p {
	case domain.PriorityHigh:
		return 0
	case domain.PriorityMedium:
		return 1
	default:
		return 2
	}
}

// caseAggregates computes the CEL activation variables for one case.
func caseAggregates(accounts []domain.Account, rings []domain.Ring) map[string]any {
	var highRisk, highVelocity, hubs, largeFlow, multiPattern, lowConfidence int64
	for _, a := range accounts {
		if a.RiskScore >= 70 {
			highRisk++
		}
		if a.VelocityLabel == domain.VelocityHigh {
			highVelocity++
		}
		if a.InDegree > 15 || a.OutDegree > 15 {
			hubs++
		}
		if a.TotalIn > 1000000 || a.TotalOut > 1000000 {
			largeFlow++
		}
		if len(a.Patterns) > 2 {
			multiPattern++
		}
		if a.Confidence < 0.65 && a.RiskScore >= 60 {
			lowConfidence++
		}
	}

	var highConfidenceRings int64
	for _, ring := range rings {
		if ring.Confidence > 0.75 {
			highConfidenceRings++
		}
	}

	return map[string]any{
		"high_risk_accounts":     highRisk,
		"high_confidence_rings":  highConfidenceRings,
		"high_velocity_accounts": highVelocity,
		"hub_accounts":           hubs,
		"large_flow_accounts":    largeFlow,
		"multi_pattern_accounts": multiPattern,
		"low_confidence_flagged": lowConfidence,
	}
}

// InvestigationDatapoints lists the facts an analyst needs at hand when
// opening an investigation on one account.
func InvestigationDatapoints(account domain.Account) []string {
	datapoints := []string{
		fmt.Sprintf("Risk Score: %d (%d%% confidence)", account.RiskScore, pct(account.Confidence)),
		fmt.Sprintf("Transaction Count: %d", account.TxCount),
		fmt.Sprintf("Total Inflow: %s", fmtThousands(account.TotalIn)),
		fmt.Sprintf("Total Outflow: %s", fmtThousands(account.TotalOut)),
		fmt.Sprintf("Network Degree: In=%d, Out=%d", account.InDegree, account.OutDegree),
		fmt.Sprintf("Unique Counterparties: %d", account.UniqueCounterparties),
		fmt.Sprintf("Transaction Velocity: %s", account.VelocityLabel),
	}

	if len(account.Patterns) > 0 {
		datapoints = append(datapoints, "Detected Patterns: "+strings.Join(account.Patterns, ", "))
	}
	if account.SCCID != nil {
		datapoints = append(datapoints, fmt.Sprintf("Part of Strongly Connected Component %d", *account.SCCID))
	}

	datapoints = append(datapoints,
		fmt.Sprintf("K-Core Level: %d", account.KCoreLevel),
		fmt.Sprintf("Network Centrality: %d%%", pct(account.CentralityScore)),
	)

	return datapoints
}

// SuggestInvestigationApproach applies a first-match-wins urgency cascade.
func SuggestInvestigationApproach(account domain.Account) string {
	switch {
	case account.RiskScore >= 80:
		return "URGENT: Escalate to senior analyst for immediate deep-dive investigation. Consider regulatory reporting."
	case account.RiskScore >= 60 && len(account.Patterns) > 1:
		return "HIGH PRIORITY: Conduct multi-dimensional investigation covering all detected patterns. Request enhanced due diligence."
	case account.RiskScore >= 60 && account.VelocityLabel == domain.VelocityHigh:
		return "MEDIUM PRIORITY: Focus investigation on transaction velocity and structuring indicators. Monitor for pattern escalation."
	case account.InDegree > 20 || account.OutDegree > 20:
		return "MEDIUM PRIORITY: Investigate network role and counterparty relationships. Verify business legitimacy."
	default:
		return "ROUTINE: Include in periodic review cycle. Monitor for behavioral changes."
	}
}