// Package domain defines the core interfaces and types for Harrier.
package domain

import "strings"

// RiskLevel is the coarse bucketing of a numeric risk score.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// GetRiskLevel classifies a 0-100 risk score.
// Thresholds are shared process-wide; this is the only implementation.
func GetRiskLevel(score int) RiskLevel {
	if score >= 70 {
		return RiskHigh
	}
	if score >= 40 {
		return RiskMedium
	}
	return RiskLow
}

// Velocity labels assigned by the detection engine.
const (
	VelocityLow    = "low"
	VelocityMedium = "medium"
	VelocityHigh   = "high"
)

// Canonical pattern-type vocabulary. The detection engine emits hyphenated
// variants for some of these; NormalizePatternType maps them onto this set.
const (
	PatternCycle             = "cycle"
	PatternFanOut            = "fan_out"
	PatternFanIn             = "fan_in"
	PatternShell             = "shell"
	PatternLayering          = "layering"
	PatternSuddenJump        = "sudden_jump"
	PatternVelocity          = "velocity"
	PatternCounterpartyChurn = "counterparty_churn"
)

// NormalizePatternType maps upstream pattern-type spellings to the canonical
// vocabulary. Unknown types pass through unchanged; interpreters must treat
// them as generic patterns, never as errors.
func NormalizePatternType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "fan-in", "fan_in":
		return PatternFanIn
	case "fan-out", "fan_out":
		return PatternFanOut
	case "shell", "shell-chain", "shell_chain":
		return PatternShell
	case "":
		return "unknown"
	default:
		return strings.ToLower(strings.TrimSpace(t))
	}
}

// NormalizeConfidence converts a confidence that may arrive as a percentage
// (0-100) or a probability (0-1) into a probability in [0,1].
func NormalizeConfidence(c float64) float64 {
	if c > 1.0 {
		c = c / 100.0
	}
	if c < 0 {
		return 0
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}

// Account is a financial entity (node) in the transaction graph.
// All score-bearing fields are computed by the external detection engine and
// are immutable inside Harrier: the insight layer only reads them.
type Account struct {
	ID         string  `json:"id"`
	RiskScore  int     `json:"riskScore"`  // 0-100, externally computed
	Confidence float64 `json:"confidence"` // 0-1, externally computed
	RingID     string  `json:"ringId,omitempty"`

	// Graph structure
	InDegree             int     `json:"inDegree"`
	OutDegree            int     `json:"outDegree"`
	UniqueCounterparties int     `json:"uniqueCounterparties"`
	SCCID                *int    `json:"sccId,omitempty"`
	KCoreLevel           int     `json:"kCoreLevel"`
	CentralityScore      float64 `json:"centralityScore"` // 0-1

	// Behaviour
	VelocityLabel string   `json:"velocityLabel"` // low/medium/high
	Patterns      []string `json:"patterns"`      // insertion-ordered tag set
	TotalIn       float64  `json:"totalIn"`
	TotalOut      float64  `json:"totalOut"`
	TxCount       int      `json:"txCount"`
}

// RiskLevel returns the account's risk bucket.
func (a *Account) RiskLevel() RiskLevel {
	return GetRiskLevel(a.RiskScore)
}

// MaxDegree returns the larger of the in/out degrees.
func (a *Account) MaxDegree() int {
	if a.InDegree > a.OutDegree {
		return a.InDegree
	}
	return a.OutDegree
}

// Ring is a detected suspicious network of accounts.
type Ring struct {
	ID          string   `json:"id"`
	RiskScore   int      `json:"riskScore"`
	Confidence  float64  `json:"confidence"` // 0-1
	Members     []string `json:"members"`    // account IDs, ordered
	PatternType string   `json:"patternType"`
	CycleLength int      `json:"cycleLength"`
	AvgTxSize   float64  `json:"avgTxSize"`
	TimeWindow  string   `json:"timeWindow"` // human-readable span
	TotalFlow   float64  `json:"totalFlow"`
}

// GraphEdge is an aggregated directed transaction edge.
type GraphEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}
