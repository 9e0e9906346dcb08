package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/smurfatcher/harrier/internal/audit"
	"github.com/smurfatcher/harrier/internal/domain"
	"github.com/smurfatcher/harrier/internal/engine"
	"github.com/smurfatcher/harrier/internal/insight"
	"github.com/smurfatcher/harrier/internal/session"
)

const maxUploadBytes = 64 << 20

// Handler holds dependencies for API handlers.
type Handler struct {
	manager   *session.Manager
	engine    *engine.Client
	generator *insight.Generator
	recorder  *audit.Recorder
	cache     domain.Cache
	bus       domain.EventBus
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(manager *session.Manager, engineClient *engine.Client, generator *insight.Generator, recorder *audit.Recorder, cache domain.Cache, bus domain.EventBus, version string) *Handler {
	return &Handler{
		manager:   manager,
		engine:    engineClient,
		generator: generator,
		recorder:  recorder,
		cache:     cache,
		bus:       bus,
		version:   version,
	}
}

// follow subscribes the audit recorder to the session before lifecycle
// events fire. The channel bus does not retain messages, so this must
// happen ahead of any publish.
func (h *Handler) follow(sessionID string) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Follow(sessionID); err != nil {
		slog.Warn("audit follow failed", "session_id", sessionID, "error", err)
	}
}

// Analyze handles POST /cases/analyze: validates the uploaded CSV, sends
// it to the detection engine and loads the normalized result as the
// session's current case.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := GetSessionID(ctx)
	h.follow(sessionID)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form upload expected")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	validation, stats, err := engine.ValidateCSV(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validation.OK {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "csv validation failed",
			"validation": validation,
		})
		return
	}

	result, err := h.engine.Analyze(ctx, header.Filename, data)
	if err != nil {
		var engErr *engine.EngineError
		if errors.As(err, &engErr) {
			if engErr.Validation != nil {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"error":      engErr.Detail,
					"validation": engErr.Validation,
				})
				return
			}
			slog.Error("engine rejected analysis", "status", engErr.StatusCode, "detail", engErr.Detail)
			writeError(w, http.StatusBadGateway, "detection engine error: "+engErr.Detail)
			return
		}
		slog.Error("engine call failed", "error", err)
		writeError(w, http.StatusBadGateway, "detection engine unreachable")
		return
	}

	// The engine does not echo dataset-level facts the CSV itself carries.
	caseRun := result.Case
	caseRun.DatasetSize = stats.Rows
	caseRun.TimeWindow = stats.TimeSpan()
	if caseRun.TxCount == 0 {
		caseRun.TxCount = stats.Rows
	}

	ins := h.manager.LoadCase(ctx, sessionID, caseRun, result.Accounts, result.Rings, result.Edges)

	writeJSON(w, http.StatusOK, map[string]any{
		"case":       caseRun,
		"insights":   ins,
		"validation": validation,
	})
}

// LoadSample handles POST /cases/sample.
func (h *Handler) LoadSample(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := GetSessionID(ctx)
	h.follow(sessionID)

	ins := h.manager.LoadSample(ctx, sessionID)
	current, err := h.manager.CurrentCase(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sample load failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"case":     current,
		"insights": ins,
	})
}

// ListCases returns the session's case history, newest first.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	history := h.manager.History(GetSessionID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"cases": history,
		"count": len(history),
	})
}

// GetCurrentCase returns the loaded case.
func (h *Handler) GetCurrentCase(w http.ResponseWriter, r *http.Request) {
	current, err := h.manager.CurrentCase(GetSessionID(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "no case loaded")
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// ResetCase clears the session's analysis state. Settings survive.
func (h *Handler) ResetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := GetSessionID(ctx)
	h.follow(sessionID)

	h.manager.Reset(ctx, sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ListAccounts returns the loaded accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.manager.Accounts(GetSessionID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	account, ok := h.manager.Account(GetSessionID(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
	}
	return account, ok
}

// GetAccount returns one account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	if account, ok := h.account(w, r); ok {
		writeJSON(w, http.StatusOK, account)
	}
}

// GetAccountRisk returns the factor decomposition of an account's score.
func (h *Handler) GetAccountRisk(w http.ResponseWriter, r *http.Request) {
	if account, ok := h.account(w, r); ok {
		writeJSON(w, http.StatusOK, insight.ExplainRiskScore(account))
	}
}

// GetAccountRiskText returns the one-line risk breakdown.
func (h *Handler) GetAccountRiskText(w http.ResponseWriter, r *http.Request) {
	if account, ok := h.account(w, r); ok {
		writeText(w, http.StatusOK, insight.RiskBreakdownString(account))
	}
}

// GetAccountDatapoints returns the datapoints an investigator should pull.
func (h *Handler) GetAccountDatapoints(w http.ResponseWriter, r *http.Request) {
	if account, ok := h.account(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"datapoints": insight.InvestigationDatapoints(account),
		})
	}
}

// GetAccountApproach returns the suggested investigation approach.
func (h *Handler) GetAccountApproach(w http.ResponseWriter, r *http.Request) {
	if account, ok := h.account(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]string{
			"approach": insight.SuggestInvestigationApproach(account),
		})
	}
}

// ListRings returns the detected rings.
func (h *Handler) ListRings(w http.ResponseWriter, r *http.Request) {
	rings := h.manager.Rings(GetSessionID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"rings": rings,
		"count": len(rings),
	})
}

func (h *Handler) ring(w http.ResponseWriter, r *http.Request) (domain.Ring, bool) {
	ring, ok := h.manager.Ring(GetSessionID(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "ring not found")
	}
	return ring, ok
}

// GetRing returns one ring.
func (h *Handler) GetRing(w http.ResponseWriter, r *http.Request) {
	if ring, ok := h.ring(w, r); ok {
		writeJSON(w, http.StatusOK, ring)
	}
}

// GetRingInterpretation returns the natural-language reading of a ring.
func (h *Handler) GetRingInterpretation(w http.ResponseWriter, r *http.Request) {
	if ring, ok := h.ring(w, r); ok {
		accounts := h.manager.Accounts(GetSessionID(r.Context()))
		writeJSON(w, http.StatusOK, insight.InterpretPattern(ring, accounts))
	}
}

// GetRingNarrative returns the multi-line ring narrative.
func (h *Handler) GetRingNarrative(w http.ResponseWriter, r *http.Request) {
	if ring, ok := h.ring(w, r); ok {
		accounts := h.manager.Accounts(GetSessionID(r.Context()))
		writeText(w, http.StatusOK, insight.RingNarrative(ring, accounts))
	}
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) (*domain.Insights, bool) {
	ins, err := h.manager.Insights(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "no case loaded")
		return nil, false
	}
	return ins, true
}

// GetInsights returns the full insight bundle.
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	if ins, ok := h.insights(w, r); ok {
		writeJSON(w, http.StatusOK, ins)
	}
}

// GetPatternNarratives returns one narrative sentence per pattern type.
func (h *Handler) GetPatternNarratives(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())
	if _, err := h.manager.CurrentCase(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "no case loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patterns": insight.SuspiciousPatternsNarrative(h.manager.Rings(sessionID)),
	})
}

// GetRecommendations returns the prioritized investigation actions.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	if ins, ok := h.insights(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"recommendations": ins.Recommendations,
			"count":           len(ins.Recommendations),
		})
	}
}

// GetSummary returns the executive case summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if ins, ok := h.insights(w, r); ok {
		writeJSON(w, http.StatusOK, ins.CaseSummary)
	}
}

// ComplianceReport returns the plain-text compliance report.
func (h *Handler) ComplianceReport(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())
	current, err := h.manager.CurrentCase(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "no case loaded")
		return
	}
	report := h.generator.Summarizer().ComplianceReport(
		current,
		h.manager.Accounts(sessionID),
		h.manager.Rings(sessionID),
		time.Now().UTC(),
	)
	writeText(w, http.StatusOK, report)
}

// GetSettings returns the session's analyst settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Settings(GetSessionID(r.Context())))
}

// UpdateSettings validates and stores analyst settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	sessionID := GetSessionID(r.Context())
	if err := h.manager.UpdateSettings(sessionID, settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.manager.Settings(sessionID))
}

// AddIntervention appends an action to the intervention scenario.
func (h *Handler) AddIntervention(w http.ResponseWriter, r *http.Request) {
	var action domain.InterventionAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	sessionID := GetSessionID(r.Context())
	if err := h.manager.AddIntervention(sessionID, action); err != nil {
		if errors.Is(err, session.ErrNoCase) {
			writeError(w, http.StatusNotFound, "no case loaded")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"scenario": h.manager.Scenario(sessionID),
	})
}

// RemoveIntervention drops the scenario action at the given index.
func (h *Handler) RemoveIntervention(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	sessionID := GetSessionID(r.Context())
	if err := h.manager.RemoveIntervention(sessionID, index); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario": h.manager.Scenario(sessionID),
	})
}

// PreviewIntervention simulates the pending scenario.
func (h *Handler) PreviewIntervention(w http.ResponseWriter, r *http.Request) {
	summary, err := h.manager.PreviewIntervention(GetSessionID(r.Context()))
	if err != nil {
		if errors.Is(err, session.ErrNoCase) {
			writeError(w, http.StatusNotFound, "no case loaded")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ApplyIntervention commits the previewed scenario to the current case.
func (h *Handler) ApplyIntervention(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := GetSessionID(ctx)
	h.follow(sessionID)

	updated, err := h.manager.ApplyIntervention(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNoCase) {
			writeError(w, http.StatusNotFound, "no case loaded")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ResetIntervention discards the pending scenario.
func (h *Handler) ResetIntervention(w http.ResponseWriter, r *http.Request) {
	h.manager.ResetIntervention(GetSessionID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// GetSelection returns the analyst's current focus.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Selection(GetSessionID(r.Context())))
}

// UpdateSelection validates and stores the analyst's focus.
func (h *Handler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	var sel domain.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	sessionID := GetSessionID(r.Context())
	if err := h.manager.SetSelection(sessionID, sel); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.manager.Selection(sessionID))
}

// GetAuditEvents returns the session's recorded lifecycle events.
func (h *Handler) GetAuditEvents(w http.ResponseWriter, r *http.Request) {
	events := h.recorder.Events(GetSessionID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
