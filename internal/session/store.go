// Package session holds per-session analysis state: the current case, its
// account/ring/edge collections, analyst settings and the intervention
// scenario. State lives in memory for the lifetime of the session; there
// is no persistence. Generated insights are served through the insight
// generator's cache.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/smurfatcher/harrier/internal/domain"
	"github.com/smurfatcher/harrier/internal/insight"
	"github.com/smurfatcher/harrier/internal/sample"
)

// ErrNoCase is returned by operations that need a loaded case.
var ErrNoCase = fmt.Errorf("no case loaded")

const flowReductionPerAction = 450000

// State is the mutable analysis state of one session. All access goes
// through Manager methods, which hold the state lock.
type State struct {
	mu sync.RWMutex

	current   *domain.CaseRun
	accounts  []domain.Account
	rings     []domain.Ring
	edges     []domain.GraphEdge
	history   []domain.CaseRun
	selection domain.Selection
	settings  domain.Settings
	scenario  []domain.InterventionAction
	preview   *domain.MitigationSummary
}

// Manager owns all session states and coordinates case loading, insight
// generation and lifecycle events.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State

	generator *insight.Generator
	bus       domain.EventBus
}

// NewManager wires the insight generator and event bus.
func NewManager(generator *insight.Generator, eventBus domain.EventBus) *Manager {
	return &Manager{
		sessions:  make(map[string]*State),
		generator: generator,
		bus:       eventBus,
	}
}

func (m *Manager) state(sessionID string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		s = &State{settings: domain.DefaultSettings()}
		m.sessions[sessionID] = s
	}
	return s
}

// LoadCase installs a normalized analysis result as the session's current
// case, generates insights and prepends the case to the history.
func (m *Manager) LoadCase(ctx context.Context, sessionID string, caseRun domain.CaseRun, accounts []domain.Account, rings []domain.Ring, edges []domain.GraphEdge) *domain.Insights {
	s := m.state(sessionID)

	ins, failed := m.generator.Regenerate(ctx, sessionID, caseRun, accounts, rings)

	s.mu.Lock()
	s.current = &caseRun
	s.accounts = accounts
	s.rings = rings
	s.edges = edges
	s.history = append([]domain.CaseRun{caseRun}, s.history...)
	s.selection = domain.Selection{}
	s.scenario = nil
	s.preview = nil
	s.mu.Unlock()

	m.publish(ctx, sessionID, domain.TopicCaseLoaded, map[string]any{
		"caseId":    caseRun.ID,
		"fileName":  caseRun.FileName,
		"accounts":  len(accounts),
		"rings":     len(rings),
		"riskLevel": caseRun.RiskLevel,
	})
	m.publish(ctx, sessionID, domain.TopicInsightsGenerated, map[string]any{
		"caseId":          caseRun.ID,
		"interpretations": len(ins.PatternInterpretations),
		"explanations":    len(ins.RiskExplanations),
		"recommendations": len(ins.Recommendations),
	})
	if len(failed) > 0 {
		m.publish(ctx, sessionID, domain.TopicInsightsFailed, map[string]any{
			"caseId":     caseRun.ID,
			"generators": failed,
		})
	}

	return ins
}

// LoadSample loads the bundled sample case, replacing the session history
// with the sample history.
func (m *Manager) LoadSample(ctx context.Context, sessionID string) *domain.Insights {
	caseRun, accounts, rings, edges := sample.Case()
	s := m.state(sessionID)

	ins, _ := m.generator.Regenerate(ctx, sessionID, caseRun, accounts, rings)

	s.mu.Lock()
	s.current = &caseRun
	s.accounts = accounts
	s.rings = rings
	s.edges = edges
	s.history = sample.History()
	s.selection = domain.Selection{}
	s.scenario = nil
	s.preview = nil
	s.mu.Unlock()

	m.publish(ctx, sessionID, domain.TopicCaseLoaded, map[string]any{
		"caseId":   caseRun.ID,
		"fileName": caseRun.FileName,
		"sample":   true,
	})

	return ins
}

// Reset clears the session's analysis state. Settings survive a reset.
func (m *Manager) Reset(ctx context.Context, sessionID string) {
	s := m.state(sessionID)

	s.mu.Lock()
	s.current = nil
	s.accounts = nil
	s.rings = nil
	s.edges = nil
	s.history = nil
	s.selection = domain.Selection{}
	s.scenario = nil
	s.preview = nil
	s.mu.Unlock()

	m.publish(ctx, sessionID, domain.TopicAnalysisReset, map[string]any{})
}

// CurrentCase returns the loaded case, or ErrNoCase.
func (m *Manager) CurrentCase(sessionID string) (domain.CaseRun, error) {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.CaseRun{}, ErrNoCase
	}
	return *s.current, nil
}

// History returns the session's case history, newest first.
func (m *Manager) History(sessionID string) []domain.CaseRun {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CaseRun, len(s.history))
	copy(out, s.history)
	return out
}

// Accounts returns the loaded accounts.
func (m *Manager) Accounts(sessionID string) []domain.Account {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Account looks up one account by ID.
func (m *Manager) Account(sessionID, accountID string) (domain.Account, bool) {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.ID == accountID {
			return a, true
		}
	}
	return domain.Account{}, false
}

// Rings returns the loaded rings.
func (m *Manager) Rings(sessionID string) []domain.Ring {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ring, len(s.rings))
	copy(out, s.rings)
	return out
}

// Ring looks up one ring by ID.
func (m *Manager) Ring(sessionID, ringID string) (domain.Ring, bool) {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rings {
		if r.ID == ringID {
			return r, true
		}
	}
	return domain.Ring{}, false
}

// Edges returns the loaded graph edges.
func (m *Manager) Edges(sessionID string) []domain.GraphEdge {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GraphEdge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Insights returns the insight bundle for the current case, served
// through the generator's cache and rebuilt on a miss, or ErrNoCase.
func (m *Manager) Insights(ctx context.Context, sessionID string) (*domain.Insights, error) {
	s := m.state(sessionID)
	s.mu.RLock()
	if s.current == nil {
		s.mu.RUnlock()
		return nil, ErrNoCase
	}
	current := *s.current
	accounts := s.accounts
	rings := s.rings
	s.mu.RUnlock()

	ins, _ := m.generator.Generate(ctx, sessionID, current, accounts, rings)
	return ins, nil
}

// Selection returns the analyst's current focus.
func (m *Manager) Selection(sessionID string) domain.Selection {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// SetSelection validates referenced IDs against the loaded case and stores
// the focus.
func (m *Manager) SetSelection(sessionID string, sel domain.Selection) error {
	s := m.state(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if sel.AccountID != "" && !containsAccount(s.accounts, sel.AccountID) {
		return fmt.Errorf("unknown account: %s", sel.AccountID)
	}
	if sel.RingID != "" && !containsRing(s.rings, sel.RingID) {
		return fmt.Errorf("unknown ring: %s", sel.RingID)
	}
	s.selection = sel
	return nil
}

// Settings returns the session's analyst settings.
func (m *Manager) Settings(sessionID string) domain.Settings {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings validates and stores analyst settings.
func (m *Manager) UpdateSettings(sessionID string, settings domain.Settings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	s := m.state(sessionID)
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// Scenario returns the pending intervention actions.
func (m *Manager) Scenario(sessionID string) []domain.InterventionAction {
	s := m.state(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.InterventionAction, len(s.scenario))
	copy(out, s.scenario)
	return out
}

// AddIntervention appends a validated action to the scenario.
func (m *Manager) AddIntervention(sessionID string, action domain.InterventionAction) error {
	if err := validateIntervention(action); err != nil {
		return err
	}
	s := m.state(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoCase
	}
	s.scenario = append(s.scenario, action)
	s.preview = nil
	return nil
}

// RemoveIntervention drops the action at index.
func (m *Manager) RemoveIntervention(sessionID string, index int) error {
	s := m.state(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.scenario) {
		return fmt.Errorf("intervention index out of range: %d", index)
	}
	s.scenario = append(s.scenario[:index], s.scenario[index+1:]...)
	s.preview = nil
	return nil
}

// PreviewIntervention simulates the pending scenario against the current
// case and returns before/after statistics. The case itself is untouched.
func (m *Manager) PreviewIntervention(sessionID string) (*domain.MitigationSummary, error) {
	s := m.state(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoCase
	}

	summary := simulate(*s.current, s.rings, len(s.scenario))
	s.preview = &summary
	return &summary, nil
}

// ApplyIntervention commits the previewed scenario: the current case's
// risk fields are rewritten from the simulation, the scenario clears and
// insights regenerate against the updated case. This is the only write
// path into a case's risk-related fields.
func (m *Manager) ApplyIntervention(ctx context.Context, sessionID string) (*domain.CaseRun, error) {
	s := m.state(sessionID)

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, ErrNoCase
	}
	if s.preview == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("no previewed intervention to apply")
	}

	actions := len(s.scenario)
	after := s.preview.After
	s.current.RiskExposure = after.RiskScore
	s.current.SuspiciousCount = after.SuspiciousCount
	s.current.RingCount = after.RingCount
	s.current.RiskLevel = domain.GetRiskLevel(s.current.RiskExposure)
	for i := range s.history {
		if s.history[i].ID == s.current.ID {
			s.history[i] = *s.current
		}
	}
	s.scenario = nil
	s.preview = nil

	updated := *s.current
	accounts := s.accounts
	rings := s.rings
	s.mu.Unlock()

	_, failed := m.generator.Regenerate(ctx, sessionID, updated, accounts, rings)
	if len(failed) > 0 {
		m.publish(ctx, sessionID, domain.TopicInsightsFailed, map[string]any{
			"caseId":     updated.ID,
			"generators": failed,
		})
	}

	m.publish(ctx, sessionID, domain.TopicInterventionApplied, map[string]any{
		"caseId":       updated.ID,
		"actions":      actions,
		"riskExposure": updated.RiskExposure,
	})

	return &updated, nil
}

// ResetIntervention discards the pending scenario and preview.
func (m *Manager) ResetIntervention(sessionID string) {
	s := m.state(sessionID)
	s.mu.Lock()
	s.scenario = nil
	s.preview = nil
	s.mu.Unlock()
}

func (m *Manager) publish(ctx context.Context, sessionID, topic string, payload map[string]any) {
	if m.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to marshal event payload", "topic", topic, "error", err)
		return
	}
	if err := m.bus.Publish(ctx, sessionID, topic, data); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// simulate computes the before/after mitigation statistics for n pending
// actions. The baseline flow is the total detected ring flow.
func simulate(caseRun domain.CaseRun, rings []domain.Ring, n int) domain.MitigationSummary {
	var baselineFlow float64
	for _, r := range rings {
		baselineFlow += r.TotalFlow
	}

	reductionFactor := float64(n) * 0.12
	flowReduction := float64(n) * flowReductionPerAction

	after := domain.MitigationStats{
		RiskScore:       maxInt(15, caseRun.RiskExposure-int(math.Round(reductionFactor*60))),
		SuspiciousCount: maxInt(0, caseRun.SuspiciousCount-n*2),
		RingCount:       maxInt(0, caseRun.RingCount-int(math.Round(float64(n)*0.8))),
		Flow:            math.Max(0, baselineFlow-flowReduction),
		Disruption:      minInt(100, n*15),
	}

	return domain.MitigationSummary{
		Before: domain.MitigationStats{
			RiskScore:       caseRun.RiskExposure,
			SuspiciousCount: caseRun.SuspiciousCount,
			RingCount:       caseRun.RingCount,
			Flow:            baselineFlow,
			Disruption:      0,
		},
		After: after,
	}
}

func validateSettings(s domain.Settings) error {
	if s.NodeLimit < 100 || s.NodeLimit > 50000 {
		return fmt.Errorf("nodeLimit must be between 100 and 50000")
	}
	switch s.DefaultLayout {
	case "force", "hierarchical", "circular", "ring":
	default:
		return fmt.Errorf("unsupported layout: %s", s.DefaultLayout)
	}
	switch s.DefaultEdgeLabel {
	case "none", "amount", "count":
	default:
		return fmt.Errorf("unsupported edge label: %s", s.DefaultEdgeLabel)
	}
	if s.CycleLengthMin < 2 || s.CycleLengthMax < s.CycleLengthMin {
		return fmt.Errorf("invalid cycle length bounds: %d-%d", s.CycleLengthMin, s.CycleLengthMax)
	}
	if s.FanThreshold < 2 {
		return fmt.Errorf("fanThreshold must be at least 2")
	}
	if s.TimeWindowHours < 1 {
		return fmt.Errorf("timeWindowHours must be positive")
	}
	if s.ShellTxMin < 1 || s.ShellTxMax < s.ShellTxMin {
		return fmt.Errorf("invalid shell transaction bounds: %d-%d", s.ShellTxMin, s.ShellTxMax)
	}
	if s.ConfidenceWeight < 0 || s.ConfidenceWeight > 1 {
		return fmt.Errorf("confidenceWeight must be in [0,1]")
	}
	return nil
}

func validateIntervention(a domain.InterventionAction) error {
	switch a.Type {
	case domain.InterventionFreeze, domain.InterventionBlacklist, domain.InterventionFee:
	default:
		return fmt.Errorf("unsupported intervention type: %s", a.Type)
	}
	switch a.TargetType {
	case "node", "edge", "ring":
	default:
		return fmt.Errorf("unsupported target type: %s", a.TargetType)
	}
	if a.TargetID == "" {
		return fmt.Errorf("targetId is required")
	}
	if a.Type == domain.InterventionFee && a.Value <= 0 {
		return fmt.Errorf("fee interventions require a positive value")
	}
	return nil
}

func containsAccount(accounts []domain.Account, id string) bool {
	for _, a := range accounts {
		if a.ID == id {
			return true
		}
	}
	return false
}

func containsRing(rings []domain.Ring, id string) bool {
	for _, r := range rings {
		if r.ID == id {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
