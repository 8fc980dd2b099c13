package narrative

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"trading-persona-analyzer/internal/types"
)

const (
	SectionTraderProfile   = "trader_profile"
	SectionRiskAssessment  = "risk_assessment"
	SectionBehavior        = "behavioral_insights"
	SectionRecommendations = "recommendations"
	SectionPerformance     = "performance_summary"
)

type section struct {
	name   string
	system string
	ask    string
}

func (s section) prompt(facts string) string {
	return s.ask + "\n\n" + facts
}

var sections = []section{
	{
		name:   SectionTraderProfile,
		system: "You are a financial analyst who classifies traders from their execution history.",
		ask: "Classify this trader from the data below. Cover the trader type (scalper, day trader, swing trader, " +
			"position trader), their risk appetite (conservative, moderate, aggressive) and the defining traits " +
			"of their style. Answer in 200 to 300 words.",
	},
	{
		name:   SectionRiskAssessment,
		system: "You are a risk manager reviewing a retail trading account.",
		ask: "Assess the risk in this account. State the overall level (LOW, MEDIUM, HIGH or VERY HIGH), the main " +
			"risk factors, how returns compare with the risk taken, and where the account is vulnerable. " +
			"Answer in 200 to 300 words.",
	},
	{
		name:   SectionBehavior,
		system: "You are a trading psychology coach.",
		ask: "Explain what the detected patterns say about this trader's behavior: psychological tendencies, " +
			"signs of emotional trading, lapses in discipline, and habits worth keeping. Answer in 200 to 300 words.",
	},
	{
		name:   SectionRecommendations,
		system: "You are a trading coach who gives concrete improvement plans.",
		ask: "Give specific actions for this trader: what to do in the next two weeks, over the next three months, " +
			"longer-term strategy changes, and the metrics to target. Write every action as a bullet point.",
	},
	{
		name:   SectionPerformance,
		system: "You are a senior advisor writing a performance review.",
		ask: "Write an executive summary of this trading record: a verdict (Excellent, Good, Average, Poor or " +
			"Critical), key strengths, major weaknesses and a bottom line. Be direct. Answer in 150 to 200 words.",
	},
}

// BuildContext renders the facts every section prompt shares.
func BuildContext(in types.NarrativeInput) string {
	m := in.Metrics
	var b strings.Builder

	fmt.Fprintf(&b, "TRADER: %s\n\n", in.Trader)
	b.WriteString("METRICS:\n")
	fmt.Fprintf(&b, "- Matched trades: %d (%d executions over %d trading days)\n", m.TotalTrades, m.TotalExecutions, m.TradingDays)
	fmt.Fprintf(&b, "- Total P&L: %s\n", money(m.TotalPnL))
	fmt.Fprintf(&b, "- Win rate: %.2f%%\n", m.WinRate)
	fmt.Fprintf(&b, "- Profit factor: %.2f\n", m.ProfitFactor)
	fmt.Fprintf(&b, "- Sharpe ratio: %.2f, Sortino ratio: %.2f\n", m.SharpeRatio, m.SortinoRatio)
	fmt.Fprintf(&b, "- Max drawdown: %s (%.2f%%)\n", money(m.MaxDrawdown), m.MaxDrawdownPct)
	fmt.Fprintf(&b, "- Average trade value: %s\n", money(m.AvgTradeValue))
	fmt.Fprintf(&b, "- Average holding time: %.1f minutes\n", m.AvgHoldingMinutes)
	fmt.Fprintf(&b, "- Longest streaks: %d wins, %d losses\n", m.MaxConsecutiveWins, m.MaxConsecutiveLosses)
	if len(m.Fallbacks) > 0 {
		b.WriteString("- Not computable: ")
		first := true
		for _, k := range sortedKeys(m.Fallbacks) {
			if !first {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%s)", k, m.Fallbacks[k])
			first = false
		}
		b.WriteString("\n")
	}

	b.WriteString("\nBEHAVIOR PATTERNS:\n")
	for _, f := range in.Patterns {
		status := "not detected"
		if f.Detected {
			status = "DETECTED, " + string(f.Severity) + " severity"
		}
		fmt.Fprintf(&b, "- %s: %s. %s\n", f.Pattern, status, f.Description)
	}

	fmt.Fprintf(&b, "\nRISK SCORE: %.0f/100 (%s)\n", in.Risk.Score, in.Risk.Level)
	for _, f := range in.Risk.Factors {
		fmt.Fprintf(&b, "- %s %+.0f: %s\n", f.Name, f.Points, f.Reason)
	}

	p := in.Profile
	fmt.Fprintf(&b, "\nPROFILE: %s, prefers %s sessions, top symbols hold %.0f%% of executions\n",
		p.Style, strings.ToLower(p.TimePreference), p.TopSymbolsShare)
	if len(p.InstrumentMix) > 0 {
		b.WriteString("INSTRUMENT MIX:")
		for _, k := range sortedShareKeys(p.InstrumentMix) {
			fmt.Fprintf(&b, " %s %.0f%%", k, p.InstrumentMix[k])
		}
		b.WriteString("\n")
	}
	if len(p.TopUnderlyings) > 0 {
		b.WriteString("TOP UNDERLYINGS:")
		for _, u := range p.TopUnderlyings {
			fmt.Fprintf(&b, " %s %.0f%%", u.Symbol, u.Share)
		}
		b.WriteString("\n")
	}

	raw, err := json.MarshalIndent(struct {
		Metrics  types.MetricsReport    `json:"metrics"`
		Patterns []types.PatternFinding `json:"patterns"`
	}{m, in.Patterns}, "", "  ")
	if err == nil {
		b.WriteString("\nRAW DATA:\n")
		b.Write(raw)
		b.WriteString("\n")
	}
	return b.String()
}

func money(v float64) string {
	return "₹" + humanize.CommafWithDigits(v, 2)
}

// sortedShareKeys orders by share, largest first.
func sortedShareKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
