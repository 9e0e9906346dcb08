package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/smurfatcher/harrier/internal/domain"
)

// Raw factor weights before normalization. Only fired factors participate in
// normalization, so the displayed percentages always sum to roughly 100.
const (
	rawWeightVelocity   = 0.25
	rawWeightDegree     = 0.20
	rawWeightPatterns   = 0.25
	rawWeightVolume     = 0.15
	rawWeightConfidence = 0.15
)

const defaultContextualNote = "Account shows standard transaction patterns."

// ExplainRiskScore decomposes an account's externally computed risk score
// into weighted contributing factors. The score itself is never recomputed
// or altered.
func ExplainRiskScore(account domain.Account) domain.RiskExplanation {
	level := account.RiskLevel()
	factors := analyzeRiskFactors(account)

	return domain.RiskExplanation{
		Score:           account.RiskScore,
		Level:           level,
		MainFactors:     factors,
		Summary:         riskSummary(account, factors, level),
		ContextualNotes: contextualNotes(account, level),
	}
}

// ExplainAllRisks explains every account, keyed by account ID.
func ExplainAllRisks(accounts []domain.Account) map[string]domain.RiskExplanation {
	explanations := make(map[string]domain.RiskExplanation, len(accounts))
	for _, account := range accounts {
		explanations[account.ID] = ExplainRiskScore(account)
	}
	return explanations
}

// RiskBreakdownString renders the explanation as multi-line text for the
// why-score panel and plain-text exports.
func RiskBreakdownString(account domain.Account) string {
	explanation := ExplainRiskScore(account)

	factorLines := make([]string, 0, len(explanation.MainFactors))
	for _, f := range explanation.MainFactors {
		factorLines = append(factorLines, fmt.Sprintf("%s (%d%%): %s", f.Name, f.Weight, f.Contribution))
	}

	return fmt.Sprintf("%s\n\nContributing Factors:\n%s\n\nNotes: %s",
		explanation.Summary, strings.Join(factorLines, "\n"), explanation.ContextualNotes)
}

// analyzeRiskFactors evaluates the five factor rules in fixed order and
// normalizes the fired weights to integer percentages.
func analyzeRiskFactors(account domain.Account) []domain.RiskFactor {
	type rawFactor struct {
		factor domain.RiskFactor
		weight float64
	}
	var fired []rawFactor

	if account.VelocityLabel == domain.VelocityHigh {
		fired = append(fired, rawFactor{
			weight: rawWeightVelocity,
			factor: domain.RiskFactor{
				Name:         "High Transaction Velocity",
				Contribution: fmt.Sprintf("%d transactions in recent period suggests rapid fund movement", account.TxCount),
				Examples: []string{
					"Potential smurfing activity",
					"Rapid cycling through accounts",
					"Unusual trading volume for account type",
				},
			},
		})
	}

	if account.InDegree > 10 || account.OutDegree > 10 {
		fired = append(fired, rawFactor{
			weight: rawWeightDegree,
			factor: domain.RiskFactor{
				Name:         "High Network Degree",
				Contribution: fmt.Sprintf("Connected to %d counterparties indicates hub-like behavior", account.MaxDegree()),
				Examples: []string{
					"Central node in transaction network",
					"Potential aggregator or distributor",
					"Unusual interconnectedness for account profile",
				},
			},
		})
	}

	if len(account.Patterns) > 0 {
		examples := make([]string, 0, len(account.Patterns))
		for _, p := range account.Patterns {
			examples = append(examples, "Pattern: "+p)
		}
		fired = append(fired, rawFactor{
			weight: rawWeightPatterns,
			factor: domain.RiskFactor{
				Name: "Detected Behavioral Patterns",
				Contribution: fmt.Sprintf("%d suspicious patterns detected: %s",
					len(account.Patterns), strings.Join(account.Patterns, ", ")),
				Examples: examples,
			},
		})
	}

	if account.TotalOut > 500000 || account.TotalIn > 500000 {
		highest := math.Max(account.TotalOut, account.TotalIn)
		fired = append(fired, rawFactor{
			weight: rawWeightVolume,
			factor: domain.RiskFactor{
				Name:         "High Transaction Volume",
				Contribution: fmt.Sprintf("%s total movement suggests significant fund flow", fmtMillions(highest)),
				Examples: []string{
					"Large transaction sizes",
					"Cumulative high volume",
					"Potential layering activity",
				},
			},
		})
	}

	if account.Confidence > 0.8 {
		fired = append(fired, rawFactor{
			weight: rawWeightConfidence,
			factor: domain.RiskFactor{
				Name:         "High Detection Confidence",
				Contribution: fmt.Sprintf("%d%% confidence level indicates strong signal", pct(account.Confidence)),
				Examples: []string{
					"Multiple independent indicators align",
					"Pattern consistency across timeframe",
					"Clear behavioral anomaly detected",
				},
			},
		})
	}

	if len(fired) == 0 {
		return nil
	}

	var totalWeight float64
	for _, f := range fired {
		totalWeight += f.weight
	}

	factors := make([]domain.RiskFactor, 0, len(fired))
	for _, f := range fired {
		f.factor.Weight = int(math.Round(f.weight / totalWeight * 100))
		factors = append(factors, f.factor)
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Weight > factors[j].Weight
	})

	return factors
}

func riskSummary(account domain.Account, factors []domain.RiskFactor, level domain.RiskLevel) string {
	topFactor := "detected anomalies"
	if len(factors) > 0 {
		topFactor = factors[0].Name
	}

	switch level {
	case domain.RiskHigh:
		return fmt.Sprintf("Account %s exhibits multiple high-risk indicators. Primary concern: %s. Recommend immediate investigation and potential intervention.",
			account.ID, topFactor)
	case domain.RiskMedium:
		return fmt.Sprintf("Account %s shows concerning behavior patterns. Key issue: %s. Suitable for monitoring and targeted investigation.",
			account.ID, topFactor)
	default:
		return fmt.Sprintf("Account %s has low-risk profile with minor anomalies. Monitor: %s.", account.ID, topFactor)
	}
}

// contextualNotes concatenates the conditional notes in fixed order, joined
// with single spaces. When no note fires, the canonical default sentence is
// returned instead.
func contextualNotes(account domain.Account, level domain.RiskLevel) string {
	var notes []string

	if level == domain.RiskHigh && account.SCCID != nil {
		notes = append(notes, "Part of a detected strongly connected component suggesting coordinated activity.")
	}
	if account.KCoreLevel > 3 {
		notes = append(notes, fmt.Sprintf("K-core level %d indicates deeply embedded network position.", account.KCoreLevel))
	}
	if account.CentralityScore > 0.7 {
		notes = append(notes, "High centrality score suggests hub role in transaction network.")
	}
	if account.UniqueCounterparties > 50 {
		notes = append(notes, fmt.Sprintf("High counterparty diversity (%d unique) may indicate deliberate relationship rotation.", account.UniqueCounterparties))
	}

	if len(notes) == 0 {
		return defaultContextualNote
	}
	return strings.Join(notes, " ")
}
