package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-persona-analyzer/internal/types"
)

type fakeGenerator struct {
	replies map[string]string
	fail    map[string]error
	prompts []string
}

func (f *fakeGenerator) Name() string  { return "FAKE" }
func (f *fakeGenerator) Model() string { return "fake-1" }

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	for _, s := range sections {
		if s.system != system {
			continue
		}
		if err, ok := f.fail[s.name]; ok {
			return "", err
		}
		return f.replies[s.name], nil
	}
	return "", errors.New("unknown section")
}

func sampleInput() types.NarrativeInput {
	return types.NarrativeInput{
		Trader: "trader-42",
		Metrics: types.MetricsReport{
			TotalTrades:     12,
			TotalExecutions: 30,
			TradingDays:     4,
			TotalPnL:        12345.5,
			WinRate:         41.67,
			ProfitFactor:    999,
			Fallbacks:       map[string]string{"profit_factor": "no losing trades"},
		},
		Patterns: []types.PatternFinding{
			{Pattern: types.PatternRevenge, Detected: true, Severity: types.SeverityHigh, Description: "4 re-entries"},
			{Pattern: types.PatternScalping, Description: "10% of trades"},
		},
		Risk: types.RiskAssessment{
			Score: 65,
			Level: types.RiskHigh,
			Factors: []types.RiskFactor{
				{Name: "base", Points: 25, Reason: "baseline"},
			},
		},
		Profile: types.TradingProfile{
			Style:          "Day Trader",
			TimePreference: "Morning",
			InstrumentMix:  map[string]float64{"EQUITY": 0, "FUTURE": 0, "CALL": 70, "PUT": 30},
			TopUnderlyings: []types.SymbolShare{{Symbol: "BANKNIFTY", Executions: 20, Share: 66.67}},
		},
	}
}

func allReplies() map[string]string {
	return map[string]string{
		SectionTraderProfile:   "An aggressive day trader.",
		SectionRiskAssessment:  "  Risk is HIGH.  ",
		SectionBehavior:        "Revenge trading after losses.",
		SectionRecommendations: "Next two weeks:\n- Cap trades at 5 per day\n- Stop after two losses",
		SectionPerformance:     "Average.",
	}
}

func TestNarrate_AllSections(t *testing.T) {
	gen := &fakeGenerator{replies: allReplies()}
	out, err := New(gen).Narrate(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "FAKE", out.Provider)
	assert.Equal(t, "fake-1", out.Model)
	assert.Equal(t, "An aggressive day trader.", out.TraderProfile)
	assert.Equal(t, "Risk is HIGH.", out.RiskAssessment)
	assert.Equal(t, []string{"Cap trades at 5 per day", "Stop after two losses"}, out.Recommendations)
	assert.Len(t, gen.prompts, len(sections))
	for _, p := range gen.prompts {
		assert.Contains(t, p, "TRADER: trader-42")
	}
}

func TestNarrate_PartialFailure(t *testing.T) {
	gen := &fakeGenerator{
		replies: allReplies(),
		fail:    map[string]error{SectionBehavior: errors.New("timeout")},
	}
	out, err := New(gen).Narrate(context.Background(), sampleInput())

	var sectionErr *SectionError
	require.ErrorAs(t, err, &sectionErr)
	assert.Contains(t, sectionErr.Failed, SectionBehavior)
	assert.NotErrorIs(t, err, types.ErrNarrativeUnavailable)
	assert.Empty(t, out.BehavioralInsights)
	assert.Equal(t, "Average.", out.PerformanceSummary)
}

func TestNarrate_EmptyReplyCountsAsFailure(t *testing.T) {
	replies := allReplies()
	replies[SectionPerformance] = "   "
	_, err := New(&fakeGenerator{replies: replies}).Narrate(context.Background(), sampleInput())

	var sectionErr *SectionError
	require.ErrorAs(t, err, &sectionErr)
	assert.Len(t, sectionErr.Failed, 1)
	assert.Contains(t, err.Error(), "performance_summary: empty response")
}

func TestNarrate_AllFailed(t *testing.T) {
	fail := map[string]error{}
	for _, s := range sections {
		fail[s.name] = errors.New("503")
	}
	out, err := New(&fakeGenerator{fail: fail}).Narrate(context.Background(), sampleInput())

	require.ErrorIs(t, err, types.ErrNarrativeUnavailable)
	assert.True(t, out.Empty())
	assert.Empty(t, out.Provider)
}

func TestParseRecommendations(t *testing.T) {
	text := strings.Join([]string{
		"Here is the plan.",
		"Immediate actions:",
		"- **Cap** daily trades at 5",
		"* Use a stop loss on every position",
		"• Journal each loss",
		"1. Review the week on Fridays",
		"2) Reduce size after a losing day",
		"- Longer term:",
		"plain sentence without a marker",
	}, "\n")

	assert.Equal(t, []string{
		"Cap daily trades at 5",
		"Use a stop loss on every position",
		"Journal each loss",
		"Review the week on Fridays",
		"Reduce size after a losing day",
	}, ParseRecommendations(text))

	var many []string
	for i := 0; i < 15; i++ {
		many = append(many, "- item")
	}
	assert.Len(t, ParseRecommendations(strings.Join(many, "\n")), MaxRecommendations)
	assert.Empty(t, ParseRecommendations("no bullets here"))
}

func TestBuildContext(t *testing.T) {
	in := sampleInput()
	in.Metrics.TotalPnL = 1234567.891
	ctx := BuildContext(in)

	assert.Contains(t, ctx, "₹1,234,567.89")
	assert.Contains(t, ctx, "profit_factor (no losing trades)")
	assert.Contains(t, ctx, "REVENGE_TRADING: DETECTED, HIGH severity. 4 re-entries")
	assert.Contains(t, ctx, "RISK SCORE: 65/100 (HIGH)")
	assert.Contains(t, ctx, "Day Trader, prefers morning sessions")
	assert.Contains(t, ctx, "INSTRUMENT MIX: CALL 70% PUT 30% EQUITY 0% FUTURE 0%")
	assert.Contains(t, ctx, "TOP UNDERLYINGS: BANKNIFTY 67%")
	assert.Contains(t, ctx, `"total_trades": 12`)
}
