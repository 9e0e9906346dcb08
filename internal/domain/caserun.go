package domain

// CaseRun is one completed analysis session. A new CaseRun is created per
// successful engine call or sample load and appended to the session history.
// Only the intervention-commit operation may rewrite its risk-related fields.
type CaseRun struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"` // YYYY-MM-DD
	FileName        string    `json:"fileName"`
	DatasetSize     int       `json:"datasetSize"`
	NodeCount       int       `json:"nodeCount"`
	EdgeCount       int       `json:"edgeCount"`
	TxCount         int       `json:"txCount"`
	SuspiciousCount int       `json:"suspiciousCount"`
	RingCount       int       `json:"ringCount"`
	ProcessingTime  float64   `json:"processingTime"` // seconds
	RiskExposure    int       `json:"riskExposure"`   // 0-100 aggregate
	TimeWindow      string    `json:"timeWindow"`
	TopPatterns     []string  `json:"topPatterns"`
	RiskLevel       RiskLevel `json:"riskLevel"`
}

// ValidationResult describes the outcome of CSV pre-flight validation.
type ValidationResult struct {
	OK              bool     `json:"ok"`
	ColumnsDetected bool     `json:"columnsDetected"`
	TimestampValid  bool     `json:"timestampValid"`
	AmountNumeric   bool     `json:"amountNumeric"`
	AmountPositive  bool     `json:"amountPositive"`
	DuplicateTxs    int      `json:"duplicateTxCount"`
	RowsParsed      int      `json:"rowsParsed"`
	InvalidRows     int      `json:"invalidRows"`
	Columns         []string `json:"columns"`
	Errors          []string `json:"errorMessages,omitempty"`
}

// Settings holds analyst preferences and analytical parameters.
type Settings struct {
	NodeLimit        int     `json:"nodeLimit"`
	DefaultLayout    string  `json:"defaultLayout"`    // force/hierarchical/circular/ring
	DefaultEdgeLabel string  `json:"defaultEdgeLabel"` // none/amount/count
	AggregateEdges   bool    `json:"aggregateEdges"`
	CycleLengthMin   int     `json:"cycleLengthMin"`
	CycleLengthMax   int     `json:"cycleLengthMax"`
	FanThreshold     int     `json:"fanThreshold"`
	TimeWindowHours  int     `json:"timeWindowHours"`
	ShellTxMin       int     `json:"shellTxMin"`
	ShellTxMax       int     `json:"shellTxMax"`
	ConfidenceWeight float64 `json:"confidenceWeight"`
}

// DefaultSettings returns the analyst defaults.
func DefaultSettings() Settings {
	return Settings{
		NodeLimit:        2000,
		DefaultLayout:    "force",
		DefaultEdgeLabel: "none",
		AggregateEdges:   true,
		CycleLengthMin:   3,
		CycleLengthMax:   5,
		FanThreshold:     10,
		TimeWindowHours:  72,
		ShellTxMin:       2,
		ShellTxMax:       3,
		ConfidenceWeight: 0.5,
	}
}

// Intervention action types.
const (
	InterventionFreeze    = "freeze"
	InterventionBlacklist = "blacklist"
	InterventionFee       = "fee"
)

// InterventionAction is a proposed mitigation against a node, edge or ring.
type InterventionAction struct {
	Type       string  `json:"type"`       // freeze/blacklist/fee
	TargetID   string  `json:"targetId"`
	TargetType string  `json:"targetType"` // node/edge/ring
	Reason     string  `json:"reason,omitempty"`
	Value      float64 `json:"value,omitempty"` // fee bps
}

// MitigationStats is one side of an intervention simulation.
type MitigationStats struct {
	RiskScore       int     `json:"riskScore"`
	SuspiciousCount int     `json:"suspiciousCount"`
	RingCount       int     `json:"ringCount"`
	Flow            float64 `json:"flow"`
	Disruption      int     `json:"disruption"` // 0-100
}

// MitigationSummary is the before/after result of an intervention preview.
type MitigationSummary struct {
	Before MitigationStats `json:"before"`
	After  MitigationStats `json:"after"`
}

// Selection is the analyst's current UI focus.
type Selection struct {
	AccountID     string `json:"accountId,omitempty"`
	RingID        string `json:"ringId,omitempty"`
	RingFocusMode bool   `json:"ringFocusMode"`
}
