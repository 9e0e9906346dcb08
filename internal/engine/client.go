// Package engine talks to the external detection engine. The engine owns all
// graph analysis and risk scoring; this package uploads the transaction CSV,
// parses the loosely specified /analyze response and normalizes it into fully
// typed domain records with every optional field defaulted or derived.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/smurfatcher/harrier/internal/domain"
)

var tracer = otel.Tracer("harrier-engine")

const (
	defaultConfidence    = 0.8
	defaultVelocityLabel = domain.VelocityMedium
)

// Result is a fully normalized analysis response ready to load as a case.
type Result struct {
	Accounts []domain.Account
	Rings    []domain.Ring
	Edges    []domain.GraphEdge
	Case     domain.CaseRun
}

// EngineError is a non-2xx response from the detection engine. The engine
// reports validation failures as a structured detail payload which is
// surfaced to the caller as a ValidationResult.
type EngineError struct {
	StatusCode int
	Detail     string
	Validation *domain.ValidationResult
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine returned status %d: %s", e.StatusCode, e.Detail)
}

// Client is the HTTP client for the detection engine.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client from engine configuration.
func NewClient(cfg domain.EngineConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Loose response shapes. Every field except ring/account identifiers and
// scores is optional upstream.
type engineResponse struct {
	Graph *struct {
		Nodes []engineNode `json:"nodes"`
		Edges []engineEdge `json:"edges"`
	} `json:"graph"`
	SuspiciousAccounts []engineNode   `json:"suspicious_accounts"`
	Edges              []engineEdge   `json:"edges"`
	FraudRings         []engineRing   `json:"fraud_rings"`
	Summary            *engineSummary `json:"summary"`
}

type engineNode struct {
	AccountID        string   `json:"account_id"`
	SuspicionScore   int      `json:"suspicion_score"`
	Confidence       *float64 `json:"confidence"`
	RingID           string   `json:"ring_id"`
	InDegree         int      `json:"in_degree"`
	OutDegree        int      `json:"out_degree"`
	DetectedPatterns []string `json:"detected_patterns"`
	VelocityLabel    string   `json:"velocity_label"`
}

// flexID tolerates edge endpoints arriving as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("edge endpoint is neither string nor number: %s", data)
	}
	*f = flexID(n.String())
	return nil
}

type engineEdge struct {
	From   flexID  `json:"from"`
	To     flexID  `json:"to"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

type engineRing struct {
	RingID         string   `json:"ring_id"`
	RiskScore      int      `json:"risk_score"`
	Confidence     *float64 `json:"confidence"`
	MemberAccounts []string `json:"member_accounts"`
	PatternType    string   `json:"pattern_type"`
	TimeWindow     *struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	} `json:"time_window"`
}

type engineSummary struct {
	TotalAccountsAnalyzed     int     `json:"total_accounts_analyzed"`
	TotalEdges                int     `json:"total_edges"`
	TotalTransactions         int     `json:"total_transactions"`
	SuspiciousAccountsFlagged int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected        int     `json:"fraud_rings_detected"`
	ProcessingTimeSeconds     float64 `json:"processing_time_seconds"`
}

type engineErrorBody struct {
	Detail struct {
		Errors []string `json:"errors"`
		Stats  struct {
			DuplicateTxCount int      `json:"duplicateTxCount"`
			RowsParsed       int      `json:"rowsParsed"`
			InvalidRows      int      `json:"invalidRows"`
			Columns          []string `json:"columns"`
		} `json:"stats"`
	} `json:"detail"`
}

// Analyze uploads the CSV to the engine's /analyze endpoint and normalizes
// the response.
func (c *Client) Analyze(ctx context.Context, fileName string, data []byte) (*Result, error) {
	ctx, span := tracer.Start(ctx, "engine.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("engine.file_name", fileName),
		attribute.Int("engine.upload_bytes", len(data)),
	)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine response: %w", err)
	}

	span.SetAttributes(attribute.Int("engine.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, parseEngineError(resp.StatusCode, respBody)
	}

	var parsed engineResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode engine response: %w", err)
	}

	result := normalize(&parsed, fileName)
	span.SetAttributes(
		attribute.Int("engine.accounts", len(result.Accounts)),
		attribute.Int("engine.rings", len(result.Rings)),
	)
	return result, nil
}

// Ping probes the engine's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create engine health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("engine health request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func parseEngineError(status int, body []byte) error {
	engErr := &EngineError{StatusCode: status, Detail: "invalid dataset"}

	var parsed engineErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		validation := &domain.ValidationResult{
			DuplicateTxs: parsed.Detail.Stats.DuplicateTxCount,
			RowsParsed:   parsed.Detail.Stats.RowsParsed,
			InvalidRows:  parsed.Detail.Stats.InvalidRows,
			Columns:      parsed.Detail.Stats.Columns,
			Errors:       parsed.Detail.Errors,
		}
		if len(validation.Errors) == 0 {
			validation.Errors = []string{"Invalid dataset"}
		}
		engErr.Validation = validation
		engErr.Detail = validation.Errors[0]
	}
	return engErr
}

// normalize converts the loose engine payload into total domain records.
// Missing per-account flow and counterparty fields are reconstructed from
// the returned graph edges.
func normalize(resp *engineResponse, fileName string) *Result {
	nodes := resp.SuspiciousAccounts
	var edges []engineEdge
	if resp.Graph != nil {
		if len(resp.Graph.Nodes) > 0 {
			nodes = resp.Graph.Nodes
		}
		edges = resp.Graph.Edges
	}
	if len(edges) == 0 {
		edges = resp.Edges
	}

	domainEdges := make([]domain.GraphEdge, 0, len(edges))
	for _, e := range edges {
		domainEdges = append(domainEdges, domain.GraphEdge{
			From:   string(e.From),
			To:     string(e.To),
			Amount: e.Amount,
			Count:  e.Count,
		})
	}
	flows := flowIndex(domainEdges)

	accounts := make([]domain.Account, 0, len(nodes))
	for _, n := range nodes {
		ringID := n.RingID
		if ringID == "NONE" {
			ringID = ""
		}
		velocity := n.VelocityLabel
		if velocity == "" {
			velocity = defaultVelocityLabel
		}
		confidence := defaultConfidence
		if n.Confidence != nil {
			confidence = domain.NormalizeConfidence(*n.Confidence)
		}
		patterns := n.DetectedPatterns
		if patterns == nil {
			patterns = []string{}
		}

		flow := flows[n.AccountID]
		counterparties := flow.counterparties
		if counterparties == 0 {
			counterparties = n.InDegree + n.OutDegree
		}

		accounts = append(accounts, domain.Account{
			ID:                   n.AccountID,
			RiskScore:            n.SuspicionScore,
			Confidence:           confidence,
			RingID:               ringID,
			InDegree:             n.InDegree,
			OutDegree:            n.OutDegree,
			UniqueCounterparties: counterparties,
			VelocityLabel:        velocity,
			Patterns:             patterns,
			TotalIn:              flow.totalIn,
			TotalOut:             flow.totalOut,
			TxCount:              flow.txCount,
		})
	}

	rings := make([]domain.Ring, 0, len(resp.FraudRings))
	for _, r := range resp.FraudRings {
		patternType := r.PatternType
		if patternType == "" {
			patternType = "structural"
		}
		confidence := defaultConfidence
		if r.Confidence != nil {
			confidence = domain.NormalizeConfidence(*r.Confidence)
		}
		window := ""
		if r.TimeWindow != nil && (r.TimeWindow.StartTime != "" || r.TimeWindow.EndTime != "") {
			window = r.TimeWindow.StartTime + " to " + r.TimeWindow.EndTime
		}

		totalFlow, txCount := ringFlow(r.MemberAccounts, domainEdges)
		avgTxSize := 0.0
		if txCount > 0 {
			avgTxSize = totalFlow / float64(txCount)
		}

		rings = append(rings, domain.Ring{
			ID:          r.RingID,
			RiskScore:   r.RiskScore,
			Confidence:  confidence,
			Members:     r.MemberAccounts,
			PatternType: domain.NormalizePatternType(patternType),
			CycleLength: len(r.MemberAccounts),
			AvgTxSize:   avgTxSize,
			TimeWindow:  window,
			TotalFlow:   totalFlow,
		})
	}

	summary := resp.Summary
	if summary == nil {
		summary = &engineSummary{}
	}

	caseRun := domain.CaseRun{
		ID:              "CASE-" + uuid.New().String(),
		Date:            time.Now().UTC().Format("2006-01-02"),
		FileName:        fileName,
		NodeCount:       summary.TotalAccountsAnalyzed,
		EdgeCount:       summary.TotalEdges,
		TxCount:         summary.TotalTransactions,
		SuspiciousCount: summary.SuspiciousAccountsFlagged,
		RingCount:       summary.FraudRingsDetected,
		ProcessingTime:  summary.ProcessingTimeSeconds,
		RiskExposure:    riskExposure(accounts),
		TopPatterns:     topPatterns(rings),
	}
	caseRun.RiskLevel = domain.GetRiskLevel(caseRun.RiskExposure)

	return &Result{
		Accounts: accounts,
		Rings:    rings,
		Edges:    domainEdges,
		Case:     caseRun,
	}
}

type accountFlow struct {
	totalIn        float64
	totalOut       float64
	txCount        int
	counterparties int
}

func flowIndex(edges []domain.GraphEdge) map[string]accountFlow {
	flows := make(map[string]accountFlow)
	partners := make(map[string]map[string]bool)

	touch := func(id, partner string) {
		if partners[id] == nil {
			partners[id] = make(map[string]bool)
		}
		partners[id][partner] = true
	}

	for _, e := range edges {
		count := e.Count
		if count == 0 {
			count = 1
		}

		out := flows[e.From]
		out.totalOut += e.Amount
		out.txCount += count
		flows[e.From] = out
		touch(e.From, e.To)

		in := flows[e.To]
		in.totalIn += e.Amount
		in.txCount += count
		flows[e.To] = in
		touch(e.To, e.From)
	}

	for id, flow := range flows {
		flow.counterparties = len(partners[id])
		flows[id] = flow
	}
	return flows
}

// ringFlow sums edges whose endpoints are both ring members.
func ringFlow(members []string, edges []domain.GraphEdge) (float64, int) {
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}
	var total float64
	var txCount int
	for _, e := range edges {
		if memberSet[e.From] && memberSet[e.To] {
			total += e.Amount
			count := e.Count
			if count == 0 {
				count = 1
			}
			txCount += count
		}
	}
	return total, txCount
}

// riskExposure aggregates the case-level exposure as the mean risk score of
// suspicious accounts.
func riskExposure(accounts []domain.Account) int {
	var sum, n int
	for _, a := range accounts {
		if a.RiskScore >= 60 {
			sum += a.RiskScore
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// topPatterns lists distinct ring pattern types, most frequent first.
func topPatterns(rings []domain.Ring) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range rings {
		if counts[r.PatternType] == 0 {
			order = append(order, r.PatternType)
		}
		counts[r.PatternType]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}
