//go:build integration
// +build integration

// Package integration provides end-to-end tests for the Harrier case
// insight service.
//
// These tests verify the COMPLETE analyst workflow against a running
// instance:
//
//	Load case → Insights → Intervention preview/apply → Report → Audit
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// The tests use the bundled sample case, so no detection engine needs to
// be running. Point HARRIER_TEST_URL at the instance under test.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// TestConfig holds test environment configuration
type TestConfig struct {
	BaseURL   string
	SessionID string
}

func getTestConfig() TestConfig {
	baseURL := os.Getenv("HARRIER_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return TestConfig{
		BaseURL:   baseURL,
		SessionID: fmt.Sprintf("integration-%d", time.Now().UnixNano()),
	}
}

func request(t *testing.T, cfg TestConfig, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, cfg.BaseURL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("X-Session-ID", cfg.SessionID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp, data
}

func TestAnalystWorkflow(t *testing.T) {
	cfg := getTestConfig()

	// Service must be up.
	resp, _ := request(t, cfg, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("service not healthy: %d", resp.StatusCode)
	}

	// 1. Load the sample case.
	resp, body := request(t, cfg, http.MethodPost, "/cases/sample", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sample load failed: %d %s", resp.StatusCode, body)
	}

	var loaded struct {
		Case struct {
			ID              string `json:"id"`
			RiskExposure    int    `json:"riskExposure"`
			SuspiciousCount int    `json:"suspiciousCount"`
			RingCount       int    `json:"ringCount"`
		} `json:"case"`
	}
	if err := json.Unmarshal(body, &loaded); err != nil {
		t.Fatalf("failed to decode sample response: %v", err)
	}
	if loaded.Case.ID == "" || loaded.Case.RingCount == 0 {
		t.Fatalf("sample case not populated: %s", body)
	}

	// 2. Insights are available for the loaded case.
	resp, body = request(t, cfg, http.MethodGet, "/insights", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("insights failed: %d", resp.StatusCode)
	}
	var insights struct {
		PatternInterpretations map[string]json.RawMessage `json:"patternInterpretations"`
		Recommendations        []json.RawMessage          `json:"recommendations"`
		CaseSummary            *json.RawMessage           `json:"caseSummary"`
	}
	if err := json.Unmarshal(body, &insights); err != nil {
		t.Fatalf("failed to decode insights: %v", err)
	}
	if len(insights.PatternInterpretations) == 0 || insights.CaseSummary == nil {
		t.Errorf("insights incomplete: %s", body)
	}

	// 3. Plan and preview an intervention.
	action := map[string]any{
		"type":       "freeze",
		"targetId":   "ACC-1000",
		"targetType": "node",
	}
	resp, body = request(t, cfg, http.MethodPost, "/interventions", action)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add intervention failed: %d %s", resp.StatusCode, body)
	}

	resp, body = request(t, cfg, http.MethodPost, "/interventions/preview", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview failed: %d %s", resp.StatusCode, body)
	}
	var preview struct {
		Before struct {
			RiskScore int `json:"riskScore"`
		} `json:"before"`
		After struct {
			RiskScore  int `json:"riskScore"`
			Disruption int `json:"disruption"`
		} `json:"after"`
	}
	if err := json.Unmarshal(body, &preview); err != nil {
		t.Fatalf("failed to decode preview: %v", err)
	}
	if preview.After.RiskScore >= preview.Before.RiskScore {
		t.Errorf("intervention should lower risk: %+v", preview)
	}
	if preview.After.Disruption != 15 {
		t.Errorf("one action should disrupt 15%%, got %d", preview.After.Disruption)
	}

	// 4. Apply and verify the case was rewritten.
	resp, body = request(t, cfg, http.MethodPost, "/interventions/apply", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply failed: %d %s", resp.StatusCode, body)
	}
	var applied struct {
		RiskExposure int `json:"riskExposure"`
	}
	if err := json.Unmarshal(body, &applied); err != nil {
		t.Fatalf("failed to decode applied case: %v", err)
	}
	if applied.RiskExposure != preview.After.RiskScore {
		t.Errorf("case risk %d does not match preview %d", applied.RiskExposure, preview.After.RiskScore)
	}

	// 5. Compliance report reflects the session.
	resp, body = request(t, cfg, http.MethodGet, "/report/compliance", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report failed: %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "COMPLIANCE AML ANALYSIS REPORT") {
		t.Errorf("unexpected report body: %s", body)
	}

	// 6. Audit trail recorded the lifecycle. The recorder is async, so
	// allow a short settling window.
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, body = request(t, cfg, http.MethodGet, "/audit/events", nil)
		var audit struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(body, &audit); err != nil {
			t.Fatalf("failed to decode audit events: %v", err)
		}
		if audit.Count >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("audit trail incomplete: %s", body)
		}
		time.Sleep(50 * time.Millisecond)
	}

	// 7. Reset clears everything.
	resp, _ = request(t, cfg, http.MethodDelete, "/cases/current", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset failed: %d", resp.StatusCode)
	}
	resp, _ = request(t, cfg, http.MethodGet, "/cases/current", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after reset, got %d", resp.StatusCode)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	cfg := getTestConfig()

	resp, body := request(t, cfg, http.MethodGet, "/settings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settings fetch failed: %d", resp.StatusCode)
	}

	var settings map[string]any
	if err := json.Unmarshal(body, &settings); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	settings["nodeLimit"] = 750

	resp, body = request(t, cfg, http.MethodPut, "/settings", settings)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settings update failed: %d %s", resp.StatusCode, body)
	}

	resp, body = request(t, cfg, http.MethodGet, "/settings", nil)
	var stored struct {
		NodeLimit int `json:"nodeLimit"`
	}
	if err := json.Unmarshal(body, &stored); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if stored.NodeLimit != 750 {
		t.Errorf("settings did not persist: %+v", stored)
	}
}
