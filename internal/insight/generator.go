package insight

import (
	"context"
	"log/slog"
	"time"

	"github.com/smurfatcher/harrier/internal/domain"
)

// Generator runs the four insight generators and caches the bundle under
// the session and case ID; reads are served through the cache and rebuilt
// on a miss. Each generator runs inside its own failure boundary so one
// failing generator cannot suppress the others; a failure yields that
// generator's empty result and a warning log.
type Generator struct {
	rec   *Recommender
	sum   *Summarizer
	cache domain.Cache
	ttl   time.Duration
}

// NewGenerator compiles the recommender rules and wires the cache.
func NewGenerator(cache domain.Cache, ttl time.Duration) (*Generator, error) {
	rec, err := NewRecommender()
	if err != nil {
		return nil, err
	}
	return &Generator{
		rec:   rec,
		sum:   NewSummarizer(rec),
		cache: cache,
		ttl:   ttl,
	}, nil
}

// Recommender exposes the compiled recommender for callers that need
// per-account datapoints alongside the case-level bundle.
func (g *Generator) Recommender() *Recommender {
	return g.rec
}

// Summarizer exposes the summarizer for report rendering.
func (g *Generator) Summarizer() *Summarizer {
	return g.sum
}

// Generate returns the insight bundle for a case, serving a still-live
// cached bundle for the same session and case before rebuilding one.
// Callers that rewrite a case's fields under the same case ID must use
// Regenerate instead, or the stale bundle would be served.
func (g *Generator) Generate(ctx context.Context, sessionID string, caseRun domain.CaseRun, accounts []domain.Account, rings []domain.Ring) (*domain.Insights, []string) {
	if g.cache != nil {
		cached, err := g.cache.GetInsights(ctx, sessionID, caseRun.ID)
		if err != nil {
			slog.Warn("insight cache read failed", "session_id", sessionID, "case_id", caseRun.ID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}
	return g.Regenerate(ctx, sessionID, caseRun, accounts, rings)
}

// Regenerate rebuilds the bundle unconditionally and refreshes the cache.
// Generation itself never fails; a generator that panics on malformed
// input yields its empty section and is reported in the failed list.
func (g *Generator) Regenerate(ctx context.Context, sessionID string, caseRun domain.CaseRun, accounts []domain.Account, rings []domain.Ring) (*domain.Insights, []string) {
	suspicious := filterSuspicious(accounts)

	var failed []string
	ins := &domain.Insights{
		PatternInterpretations: g.safePatterns(rings, accounts, &failed),
		RiskExplanations:       g.safeRisks(accounts, &failed),
		Recommendations:        g.safeRecommendations(suspicious, rings, &failed),
		CaseSummary:            g.safeSummary(caseRun, accounts, rings, &failed),
		GeneratedAt:            time.Now().UTC().Format(time.RFC3339),
	}

	if g.cache != nil {
		if err := g.cache.SetInsights(ctx, sessionID, caseRun.ID, ins, g.ttl); err != nil {
			slog.Warn("failed to cache insights", "session_id", sessionID, "case_id", caseRun.ID, "error", err)
		}
	}

	return ins, failed
}

func (g *Generator) safePatterns(rings []domain.Ring, accounts []domain.Account, failed *[]string) (out map[string]domain.PatternInterpretation) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pattern interpretation failed", "panic", r)
			*failed = append(*failed, "patterns")
			out = map[string]domain.PatternInterpretation{}
		}
	}()
	return InterpretAllPatterns(rings, accounts)
}

func (g *Generator) safeRisks(accounts []domain.Account, failed *[]string) (out map[string]domain.RiskExplanation) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("risk explanation failed", "panic", r)
			*failed = append(*failed, "risks")
			out = map[string]domain.RiskExplanation{}
		}
	}()
	return ExplainAllRisks(accounts)
}

func (g *Generator) safeRecommendations(suspicious []domain.Account, rings []domain.Ring, failed *[]string) (out []domain.InvestigationRecommendation) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("recommendation generation failed", "panic", r)
			*failed = append(*failed, "recommendations")
			out = nil
		}
	}()
	return g.rec.Generate(suspicious, rings)
}

func (g *Generator) safeSummary(caseRun domain.CaseRun, accounts []domain.Account, rings []domain.Ring, failed *[]string) (out *domain.CaseSummary) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("case summary generation failed", "panic", r)
			*failed = append(*failed, "summary")
			out = nil
		}
	}()
	summary := g.sum.CaseSummary(caseRun, accounts, rings)
	return &summary
}
