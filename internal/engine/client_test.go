package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smurfatcher/harrier/internal/domain"
)

const analyzeResponse = `{
	"graph": {
		"nodes": [
			{"account_id": "ACC-1", "suspicion_score": 82, "ring_id": "RING-1", "in_degree": 3, "out_degree": 5, "detected_patterns": ["cycle"]},
			{"account_id": "ACC-2", "suspicion_score": 45, "ring_id": "NONE", "in_degree": 1, "out_degree": 1}
		],
		"edges": [
			{"from": "ACC-1", "to": "ACC-2", "amount": 50000, "count": 4},
			{"from": "ACC-2", "to": "ACC-1", "amount": 30000, "count": 2},
			{"from": "ACC-2", "to": "ACC-3", "amount": 10000, "count": 1}
		]
	},
	"fraud_rings": [
		{"ring_id": "RING-1", "risk_score": 78, "member_accounts": ["ACC-1", "ACC-2"], "pattern_type": "fan-out",
		 "time_window": {"start_time": "2026-08-01", "end_time": "2026-08-04"}}
	],
	"summary": {
		"total_accounts_analyzed": 120, "total_edges": 340, "total_transactions": 5000,
		"suspicious_accounts_flagged": 14, "fraud_rings_detected": 1, "processing_time_seconds": 2.5
	}
}`

func newAnalyzeServer(t *testing.T, status int, body string) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart upload: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected file part: %v", err)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, NewClient(domain.EngineConfig{BaseURL: srv.URL})
}

func TestAnalyzeNormalizesResponse(t *testing.T) {
	_, client := newAnalyzeServer(t, http.StatusOK, analyzeResponse)

	result, err := client.Analyze(context.Background(), "upload.csv", []byte("csv-data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(result.Accounts))
	}

	acc1 := result.Accounts[0]
	if acc1.ID != "ACC-1" || acc1.RiskScore != 82 {
		t.Errorf("unexpected first account: %+v", acc1)
	}
	if acc1.Confidence != 0.8 {
		t.Errorf("expected default confidence 0.8, got %v", acc1.Confidence)
	}
	if acc1.VelocityLabel != domain.VelocityMedium {
		t.Errorf("expected default velocity medium, got %s", acc1.VelocityLabel)
	}
	if acc1.TotalOut != 50000 || acc1.TotalIn != 30000 {
		t.Errorf("flows not derived from edges: in=%v out=%v", acc1.TotalIn, acc1.TotalOut)
	}
	if acc1.TxCount != 6 {
		t.Errorf("expected tx count 6 from edge counts, got %d", acc1.TxCount)
	}
	if acc1.UniqueCounterparties != 1 {
		t.Errorf("expected 1 counterparty, got %d", acc1.UniqueCounterparties)
	}

	acc2 := result.Accounts[1]
	if acc2.RingID != "" {
		t.Errorf("NONE ring should clear ring ID, got %q", acc2.RingID)
	}
	if acc2.UniqueCounterparties != 2 {
		t.Errorf("expected 2 counterparties for ACC-2, got %d", acc2.UniqueCounterparties)
	}

	if len(result.Rings) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(result.Rings))
	}
	ring := result.Rings[0]
	if ring.PatternType != domain.PatternFanOut {
		t.Errorf("expected fan-out normalized to fan_out, got %s", ring.PatternType)
	}
	if ring.CycleLength != 2 {
		t.Errorf("expected cycle length 2, got %d", ring.CycleLength)
	}
	if ring.TotalFlow != 80000 {
		t.Errorf("ring flow should sum member edges, got %v", ring.TotalFlow)
	}
	if ring.TimeWindow != "2026-08-01 to 2026-08-04" {
		t.Errorf("unexpected time window %q", ring.TimeWindow)
	}

	if result.Case.NodeCount != 120 || result.Case.TxCount != 5000 || result.Case.RingCount != 1 {
		t.Errorf("summary not mapped: %+v", result.Case)
	}
	// ACC-1 is the only suspicious account, so exposure equals its score.
	if result.Case.RiskExposure != 82 {
		t.Errorf("expected risk exposure 82, got %d", result.Case.RiskExposure)
	}
	if result.Case.RiskLevel != domain.RiskHigh {
		t.Errorf("expected high risk level, got %s", result.Case.RiskLevel)
	}
	if len(result.Case.TopPatterns) != 1 || result.Case.TopPatterns[0] != domain.PatternFanOut {
		t.Errorf("unexpected top patterns %v", result.Case.TopPatterns)
	}
	if result.Case.ID == "" || result.Case.FileName != "upload.csv" {
		t.Errorf("case identity not set: %+v", result.Case)
	}
}

func TestAnalyzeSuspiciousAccountsFallback(t *testing.T) {
	body := `{"suspicious_accounts": [{"account_id": "ACC-9", "suspicion_score": 70}], "summary": {"total_accounts_analyzed": 10}}`
	_, client := newAnalyzeServer(t, http.StatusOK, body)

	result, err := client.Analyze(context.Background(), "u.csv", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Accounts) != 1 || result.Accounts[0].ID != "ACC-9" {
		t.Errorf("expected fallback account list, got %+v", result.Accounts)
	}
	if result.Accounts[0].Patterns == nil {
		t.Error("patterns must default to an empty slice")
	}
}

func TestAnalyzeEngineValidationError(t *testing.T) {
	body := `{"detail": {"errors": ["missing required column: amount"], "stats": {"rowsParsed": 10, "invalidRows": 2, "columns": ["transaction_id"]}}}`
	_, client := newAnalyzeServer(t, http.StatusUnprocessableEntity, body)

	_, err := client.Analyze(context.Background(), "u.csv", []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}

	var engErr *EngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("expected EngineError, got %T", err)
	}
	if engErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unexpected status %d", engErr.StatusCode)
	}
	if engErr.Validation == nil || engErr.Validation.RowsParsed != 10 {
		t.Errorf("expected validation detail, got %+v", engErr.Validation)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(domain.EngineConfig{BaseURL: srv.URL})
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping failure: %v", err)
	}

	bad := NewClient(domain.EngineConfig{BaseURL: srv.URL + "/missing"})
	if err := bad.Ping(context.Background()); err == nil {
		t.Error("expected ping failure for bad endpoint")
	}
}
