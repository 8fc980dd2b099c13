package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/ingest"
	"trading-persona-analyzer/internal/narrative"
	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/telemetry"
	"trading-persona-analyzer/internal/types"
)

var t0 = time.Date(2024, 9, 2, 9, 20, 0, 0, time.UTC)

func ex(symbol string, side types.Side, qty int64, price string, at time.Duration) types.Execution {
	return types.Execution{
		Timestamp: t0.Add(at),
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
		Charges:   decimal.RequireFromString("2"),
	}
}

// sampleExecutions produces three winners and two losers across two days.
func sampleExecutions() []types.Execution {
	day := 24 * time.Hour
	return []types.Execution{
		ex("INFY", types.SideBuy, 10, "1500", 0),
		ex("INFY", types.SideSell, 10, "1520", 20*time.Minute),
		ex("TCS", types.SideBuy, 5, "3900", time.Hour),
		ex("TCS", types.SideSell, 5, "3880", 2*time.Hour),
		ex("INFY", types.SideSell, 10, "1530", 4*time.Hour),
		ex("INFY", types.SideBuy, 10, "1510", 5*time.Hour),
		ex("RELIANCE", types.SideBuy, 4, "2900", day),
		ex("RELIANCE", types.SideSell, 4, "2950", day+3*time.Hour),
		ex("TCS", types.SideBuy, 5, "3950", day+4*time.Hour),
		ex("TCS", types.SideSell, 5, "3940", day+5*time.Hour),
		ex("HDFCBANK", types.SideBuy, 8, "1600", day+5*time.Hour),
	}
}

type fakeTrend struct {
	summary  *types.TrendSummary
	warnings []string
	called   int
}

func (f *fakeTrend) Enrich(ctx context.Context, trades []types.MatchedTrade) (*types.TrendSummary, []string) {
	f.called++
	return f.summary, f.warnings
}

type fakeNarrator struct {
	out types.Narrative
	err error
	in  types.NarrativeInput
}

func (f *fakeNarrator) Narrate(ctx context.Context, in types.NarrativeInput) (types.Narrative, error) {
	f.in = in
	return f.out, f.err
}

func fixedClock(a *Analyzer) {
	a.now = func() time.Time { return time.Date(2024, 9, 5, 18, 0, 0, 0, time.UTC) }
}

func TestAnalyze_FullPipeline(t *testing.T) {
	score := 3
	trend := &fakeTrend{
		summary:  &types.TrendSummary{Available: 4, Unavailable: 1, MeanScore: 1.5, Contexts: []types.TrendContext{{Symbol: "INFY", Score: &score}}},
		warnings: []string{"trend unavailable for HDFCBANK on 2024-09-03"},
	}
	nar := &fakeNarrator{out: types.Narrative{Provider: "FAKE", TraderProfile: "A day trader."}}
	tel := telemetry.New()

	a := New(store.Default(), WithTrend(trend), WithNarrator(nar), WithTelemetry(tel))
	fixedClock(a)

	report, err := a.Analyze(context.Background(), "alice", sampleExecutions())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "alice", report.Trader)
	assert.Len(t, report.Trades, 5)
	require.Len(t, report.OpenLots, 1)
	assert.Equal(t, "HDFCBANK", report.OpenLots[0].Symbol)

	assert.Equal(t, 5, report.Metrics.TotalTrades)
	assert.Equal(t, 11, report.Metrics.TotalExecutions)
	assert.Equal(t, 3, report.Metrics.WinningTrades)
	assert.Len(t, report.Patterns, 5)
	assert.GreaterOrEqual(t, report.Risk.Score, 0.0)
	assert.LessOrEqual(t, report.Risk.Score, 100.0)
	assert.NotEmpty(t, report.Risk.Level)
	assert.Len(t, report.Daily, 2)

	assert.Equal(t, 1, trend.called)
	require.NotNil(t, report.Trend)
	assert.Equal(t, 4, report.Trend.Available)
	assert.Contains(t, report.Warnings, "trend unavailable for HDFCBANK on 2024-09-03")

	require.NotNil(t, report.Narrative)
	assert.Equal(t, "A day trader.", report.Narrative.TraderProfile)
	assert.Equal(t, "alice", nar.in.Trader)
	assert.Equal(t, report.Risk, nar.in.Risk)

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, tel.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `analyzer_runs_total{status="ok"} 1`)
	assert.Contains(t, string(raw), "analyzer_matched_trades_total 5")
	assert.Contains(t, string(raw), `analyzer_external_failures_total{collector="trend"} 1`)
}

func TestAnalyze_WithoutCollaborators(t *testing.T) {
	report, err := New(store.Default()).Analyze(context.Background(), "bob", sampleExecutions())
	require.NoError(t, err)
	assert.Nil(t, report.Trend)
	assert.Nil(t, report.Narrative)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	execs := sampleExecutions()
	execs[3].Quantity = 0
	tel := telemetry.New()

	report, err := New(store.Default(), WithTelemetry(tel)).Analyze(context.Background(), "carol", execs)
	assert.Nil(t, report)

	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)
	assert.ErrorIs(t, err, types.ErrNonPositiveQuantity)

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, tel.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `analyzer_runs_total{status="invalid"} 1`)
}

func TestAnalyze_FallbacksBecomeWarnings(t *testing.T) {
	execs := []types.Execution{
		ex("INFY", types.SideBuy, 10, "1500", 0),
		ex("INFY", types.SideSell, 10, "1520", time.Hour),
	}
	report, err := New(store.Default()).Analyze(context.Background(), "dave", execs)
	require.NoError(t, err)
	require.NotEmpty(t, report.Metrics.Fallbacks)

	for name := range report.Metrics.Fallbacks {
		found := false
		for _, w := range report.Warnings {
			if strings.HasPrefix(w, name+" fell back to its default") {
				found = true
			}
		}
		assert.True(t, found, "no warning for %s", name)
	}
}

func TestAnalyze_TrendUnavailableForEveryTrade(t *testing.T) {
	trend := &fakeTrend{summary: &types.TrendSummary{Unavailable: 5}}
	report, err := New(store.Default(), WithTrend(trend)).Analyze(context.Background(), "erin", sampleExecutions())
	require.NoError(t, err)
	assert.Nil(t, report.Trend)
	assert.Contains(t, report.Warnings, "trend context unavailable for every trade")
}

func TestAnalyze_NarrativeFailures(t *testing.T) {
	partial := &fakeNarrator{
		out: types.Narrative{Provider: "FAKE", PerformanceSummary: "Average."},
		err: &narrative.SectionError{Failed: map[string]error{
			narrative.SectionBehavior:      errors.New("timeout"),
			narrative.SectionTraderProfile: errors.New("503"),
		}},
	}
	report, err := New(store.Default(), WithNarrator(partial)).Analyze(context.Background(), "frank", sampleExecutions())
	require.NoError(t, err)
	require.NotNil(t, report.Narrative)
	assert.Equal(t, "Average.", report.Narrative.PerformanceSummary)
	assert.Contains(t, report.Warnings, "narrative section behavioral_insights omitted: timeout")
	assert.Contains(t, report.Warnings, "narrative section trader_profile omitted: 503")

	down := &fakeNarrator{err: types.ErrNarrativeUnavailable}
	report, err = New(store.Default(), WithNarrator(down)).Analyze(context.Background(), "frank", sampleExecutions())
	require.NoError(t, err)
	assert.Nil(t, report.Narrative)
	assert.Contains(t, report.Warnings, "narrative omitted: narrative unavailable")
}

type mapLoader map[string]ingest.Tradebook

func (m mapLoader) LoadFile(ctx context.Context, path string) (ingest.Tradebook, error) {
	book, ok := m[path]
	if !ok {
		return ingest.Tradebook{}, errors.New("no such file")
	}
	return book, nil
}

func TestAnalyzeFiles(t *testing.T) {
	loader := mapLoader{
		"in/alice.csv": {Executions: sampleExecutions()},
		"in/bob.csv":   {Executions: sampleExecutions()[:2]},
	}
	results := New(store.Default()).AnalyzeFiles(context.Background(), loader, []string{"in/alice.csv", "in/missing.csv", "in/bob.csv"})
	require.Len(t, results, 3)

	assert.Equal(t, "alice", results[0].Trader)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 5, results[0].Report.Metrics.TotalTrades)

	assert.Equal(t, "missing", results[1].Trader)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Report)

	require.NoError(t, results[2].Err)
	assert.Equal(t, 1, results[2].Report.Metrics.TotalTrades)

	var sb strings.Builder
	require.NoError(t, WriteBatchSummary(&sb, results))
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "trader,file,risk_score,risk_level,matched_trades,win_rate,total_pnl,detected_patterns,error", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "missing,"), "failed files sort last: %s", lines[3])
	assert.Contains(t, lines[3], "no such file")
}

func TestAnalyzeTradebook_ReorderWarning(t *testing.T) {
	a := New(store.Default(), fixedClock)

	report, err := a.AnalyzeTradebook(context.Background(), "alice", ingest.Tradebook{Executions: sampleExecutions(), Reordered: 3})
	require.NoError(t, err)
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, "3 executions were out of timestamp order in the source and were re-sorted", report.Warnings[0])

	clean, err := a.AnalyzeTradebook(context.Background(), "alice", ingest.Tradebook{Executions: sampleExecutions()})
	require.NoError(t, err)
	for _, w := range clean.Warnings {
		assert.NotContains(t, w, "re-sorted")
	}

	invalid := sampleExecutions()
	invalid[3].Quantity = 0
	_, err = a.AnalyzeTradebook(context.Background(), "alice", ingest.Tradebook{Executions: invalid, Reordered: 1})
	assert.ErrorIs(t, err, types.ErrNonPositiveQuantity)
}

func TestWriteBatchSummary_RiskiestFirst(t *testing.T) {
	results := []BatchResult{
		{Trader: "calm", Report: &types.AnalysisReport{Risk: types.RiskAssessment{Score: 20, Level: types.RiskLow}}},
		{Trader: "wild", Report: &types.AnalysisReport{Risk: types.RiskAssessment{Score: 85, Level: types.RiskVeryHigh}}},
		{Trader: "mid", Report: &types.AnalysisReport{Risk: types.RiskAssessment{Score: 50, Level: types.RiskMedium}}},
	}
	var sb strings.Builder
	require.NoError(t, WriteBatchSummary(&sb, results))
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "wild,"))
	assert.True(t, strings.HasPrefix(lines[2], "mid,"))
	assert.True(t, strings.HasPrefix(lines[3], "calm,"))
}

func TestCSVFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.CSV", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	files, err := CSVFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.CSV"), filepath.Join(dir, "b.csv")}, files)
}
