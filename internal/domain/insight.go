package domain

// Derived interpretation types. All of these are read-only annotations over
// externally computed scores; nothing in the insight layer writes back to
// RiskScore, Confidence or any other score-bearing field.

// PatternInterpretation is the natural-language reading of one Ring.
type PatternInterpretation struct {
	PatternType     string   `json:"patternType"`
	Confidence      float64  `json:"confidence"` // 0-1
	Explanation     string   `json:"explanation"`
	RiskIndicator   string   `json:"riskIndicator"`
	KeyAccounts     []string `json:"keyAccounts"` // at most 3
	FlowDescription string   `json:"flowDescription"`
	Timeline        string   `json:"timeline"`
}

// RiskFactor is one weighted contributor to an account's risk score.
type RiskFactor struct {
	Name         string   `json:"name"`
	Weight       int      `json:"weight"` // normalized percent
	Contribution string   `json:"contribution"`
	Examples     []string `json:"examples"`
}

// RiskExplanation decomposes an account's existing score into factors.
type RiskExplanation struct {
	Score           int          `json:"score"`
	Level           RiskLevel    `json:"level"`
	MainFactors     []RiskFactor `json:"mainFactors"`
	Summary         string       `json:"summary"`
	ContextualNotes string       `json:"contextualNotes"`
}

// Recommendation priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// InvestigationRecommendation is one prioritized investigative action.
type InvestigationRecommendation struct {
	Priority          string `json:"priority"`
	Action            string `json:"action"`
	Rationale         string `json:"rationale"`
	ExpectedFindings  string `json:"expectedFindings"`
	SuggestedApproach string `json:"suggestedApproach"`
}

// CaseSummary is the executive summary of one case.
type CaseSummary struct {
	Title              string   `json:"title"`
	Overview           string   `json:"overview"`
	KeyFindings        []string `json:"keyFindings"`
	SuspiciousPatterns []string `json:"suspiciousPatterns"`
	RecommendedActions []string `json:"recommendedActions"`
	RiskAssessment     string   `json:"riskAssessment"`
	NextSteps          []string `json:"nextSteps"`
}

// Insights bundles the four generator outputs for one loaded case.
// Maps are keyed by ring and account identifier respectively.
type Insights struct {
	PatternInterpretations map[string]PatternInterpretation `json:"patternInterpretations"`
	RiskExplanations       map[string]RiskExplanation       `json:"riskExplanations"`
	Recommendations        []InvestigationRecommendation    `json:"recommendations"`
	CaseSummary            *CaseSummary                     `json:"caseSummary"`
	GeneratedAt            string                           `json:"generatedAt"`
}
