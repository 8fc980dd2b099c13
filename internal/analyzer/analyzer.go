// Package analyzer runs the full persona analysis for one trader and renders
// the resulting report.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"trading-persona-analyzer/internal/daily"
	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/metrics"
	"trading-persona-analyzer/internal/narrative"
	"trading-persona-analyzer/internal/pairing"
	"trading-persona-analyzer/internal/patterns"
	"trading-persona-analyzer/internal/risk"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/telemetry"
	"trading-persona-analyzer/internal/types"
)

// TrendEnricher attaches trend context to matched trades.
type TrendEnricher interface {
	Enrich(ctx context.Context, trades []types.MatchedTrade) (*types.TrendSummary, []string)
}

type Analyzer struct {
	cfg       *store.Config
	trend     TrendEnricher
	narrator  interfaces.Narrator
	telemetry *telemetry.Metrics
	now       func() time.Time
}

var _ interfaces.Analyzer = (*Analyzer)(nil)

type Option func(*Analyzer)

func WithTrend(t TrendEnricher) Option {
	return func(a *Analyzer) { a.trend = t }
}

func WithNarrator(n interfaces.Narrator) Option {
	return func(a *Analyzer) { a.narrator = n }
}

func WithTelemetry(m *telemetry.Metrics) Option {
	return func(a *Analyzer) { a.telemetry = m }
}

func New(cfg *store.Config, opts ...Option) *Analyzer {
	a := &Analyzer{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs pair → metrics → patterns → risk → profile → trend →
// narrative. Input violations abort the run; failures of the optional
// collaborators only leave their report fields empty and add warnings.
func (a *Analyzer) Analyze(ctx context.Context, trader string, executions []types.Execution) (*types.AnalysisReport, error) {
	start := a.now()
	op := logger.StartOperation(ctx, "analyze", "trader", trader, "executions", len(executions))
	ctx = op.GetContext()

	paired, err := pairing.Pair(ctx, executions)
	if err != nil {
		op.EndWithError(err)
		status := telemetry.StatusError
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			status = telemetry.StatusInvalid
		}
		a.telemetry.RunFinished(status, a.now().Sub(start))
		return nil, fmt.Errorf("pairing %s: %w", trader, err)
	}
	trades := paired.Trades

	report := &types.AnalysisReport{
		RunID:       uuid.NewString(),
		Trader:      trader,
		GeneratedAt: start,
		Trades:      trades,
		OpenLots:    paired.OpenLots,
	}

	report.Metrics = metrics.Calculate(trades, executions, a.cfg.Metrics)
	for _, name := range sortedKeys(report.Metrics.Fallbacks) {
		reason := report.Metrics.Fallbacks[name]
		logger.Fallback(ctx, name, reason, "trader", trader)
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s fell back to its default: %s", name, reason))
	}

	report.Patterns = patterns.DetectAll(trades, executions, a.cfg.Patterns)
	for _, f := range report.Patterns {
		if f.Detected {
			logger.Finding(ctx, f.Pattern, string(f.Severity), f.Magnitude, "trader", trader, "count", f.Count)
		}
	}

	report.Risk = risk.Compute(report.Metrics, report.Patterns, a.cfg.Risk)
	report.Profile = patterns.BuildProfile(trades, executions)
	report.Daily = daily.Summarize(executions, trades)

	if len(paired.OpenLots) > 0 {
		logger.Info(ctx, "Open positions left after pairing", "trader", trader, "lots", len(paired.OpenLots))
	}

	a.enrichTrend(ctx, report)
	a.narrate(ctx, report)

	a.telemetry.Volume(len(executions), len(trades))
	a.telemetry.RiskScore(trader, report.Risk.Score)
	a.telemetry.RunFinished(telemetry.StatusOK, a.now().Sub(start))

	op.End("risk_score", report.Risk.Score, "risk_level", string(report.Risk.Level), "warnings", len(report.Warnings))
	return report, nil
}

func (a *Analyzer) enrichTrend(ctx context.Context, report *types.AnalysisReport) {
	if a.trend == nil || len(report.Trades) == 0 {
		return
	}
	summary, warnings := a.trend.Enrich(ctx, report.Trades)
	a.telemetry.ExternalFailures("trend", len(warnings))
	report.Warnings = append(report.Warnings, warnings...)

	if summary == nil || summary.Available == 0 {
		report.Warnings = append(report.Warnings, "trend context unavailable for every trade")
		return
	}
	report.Trend = summary
}

func (a *Analyzer) narrate(ctx context.Context, report *types.AnalysisReport) {
	if a.narrator == nil {
		return
	}
	n, err := a.narrator.Narrate(ctx, types.NarrativeInput{
		Trader:   report.Trader,
		Metrics:  report.Metrics,
		Patterns: report.Patterns,
		Risk:     report.Risk,
		Profile:  report.Profile,
	})

	var sectionErr *narrative.SectionError
	switch {
	case err == nil:
	case errors.As(err, &sectionErr):
		a.telemetry.ExternalFailures("narrative", len(sectionErr.Failed))
		for _, name := range sortedKeys(sectionErr.Failed) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("narrative section %s omitted: %v", name, sectionErr.Failed[name]))
		}
	default:
		a.telemetry.ExternalFailures("narrative", 1)
		report.Warnings = append(report.Warnings, fmt.Sprintf("narrative omitted: %v", err))
	}

	if !n.Empty() {
		report.Narrative = &n
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
