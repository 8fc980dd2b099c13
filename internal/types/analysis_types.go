package types

import "time"

// AnalysisReport is the complete result of one trader run
type AnalysisReport struct {
	RunID       string           `json:"run_id"`
	Trader      string           `json:"trader"`
	GeneratedAt time.Time        `json:"generated_at"`
	Metrics     MetricsReport    `json:"metrics"`
	Patterns    []PatternFinding `json:"patterns"`
	Risk        RiskAssessment   `json:"risk"`
	Profile     TradingProfile   `json:"profile"`
	Trades      []MatchedTrade   `json:"trades"`
	OpenLots    []OpenLot        `json:"open_lots"`
	Daily       []DailyStat      `json:"daily"`
	Trend       *TrendSummary    `json:"trend,omitempty"`     // nil when enrichment is disabled or failed entirely
	Narrative   *Narrative       `json:"narrative,omitempty"` // nil when no provider produced text
	Warnings    []string         `json:"warnings,omitempty"`
}

// MetricsReport holds the fixed metric set for one run
type MetricsReport struct {
	TotalTrades          int     `json:"total_trades"`
	WinningTrades        int     `json:"winning_trades"`
	LosingTrades         int     `json:"losing_trades"`
	LongTrades           int     `json:"long_trades"`
	ShortTrades          int     `json:"short_trades"`
	WinRate              float64 `json:"win_rate"` // percentage 0-100
	TotalPnL             float64 `json:"total_pnl"`
	AvgPnL               float64 `json:"avg_pnl"`
	GrossProfit          float64 `json:"gross_profit"`
	GrossLoss            float64 `json:"gross_loss"` // negative or zero
	TotalCharges         float64 `json:"total_charges"`
	ProfitFactor         float64 `json:"profit_factor"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	SortinoRatio         float64 `json:"sortino_ratio"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"`
	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	AvgHoldingMinutes    float64 `json:"avg_holding_minutes"`
	LargestWin           float64 `json:"largest_win"`
	LargestLoss          float64 `json:"largest_loss"` // most negative P&L, 0 when no losses
	AvgWin               float64 `json:"avg_win"`
	AvgLoss              float64 `json:"avg_loss"` // mean of losing P&L, negative
	Expectancy           float64 `json:"expectancy"`
	AvgTradeValue        float64 `json:"avg_trade_value"`
	TotalExecutions      int     `json:"total_executions"`
	TradingDays          int     `json:"trading_days"`
	AvgTradesPerDay      float64 `json:"avg_trades_per_day"`
	FirstTradeDate       string  `json:"first_trade_date,omitempty"`
	LastTradeDate        string  `json:"last_trade_date,omitempty"`

	// Fallbacks names every metric that resolved to a documented fallback value, with the reason.
	Fallbacks map[string]string `json:"fallbacks,omitempty"`
}

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

const (
	PatternOvertrading = "OVERTRADING"
	PatternRevenge     = "REVENGE_TRADING"
	PatternScalping    = "SCALPING"
	PatternPyramiding  = "PYRAMIDING"
	PatternHedging     = "HEDGING"
)

// PatternFinding is the result of one behavioral detector
type PatternFinding struct {
	Pattern     string   `json:"pattern"`
	Detected    bool     `json:"detected"`
	Count       int      `json:"count"`
	Magnitude   float64  `json:"magnitude"` // value compared against the severity cutoffs
	Threshold   float64  `json:"threshold"`
	SampleSize  int      `json:"sample_size"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// RiskFactor is one contribution to the risk score
type RiskFactor struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"` // negative for bonuses
	Reason string  `json:"reason"`
}

type RiskAssessment struct {
	Score   float64      `json:"score"` // 0-100, higher = riskier
	Level   RiskLevel    `json:"level"`
	Factors []RiskFactor `json:"factors"`
}

// TradingProfile summarizes style and timing habits; it does not feed the risk score
type TradingProfile struct {
	Style               string         `json:"style"`
	StyleDescription    string         `json:"style_description"`
	MorningTrades       int            `json:"morning_trades"`
	AfternoonTrades     int            `json:"afternoon_trades"`
	TimePreference      string         `json:"time_preference"`
	MostActiveHours     []int          `json:"most_active_hours"`
	TopSymbols          []SymbolShare  `json:"top_symbols"`
	TopSymbolsShare     float64        `json:"top_symbols_share"` // percentage of executions in the top symbols
	HoldingDistribution map[string]int `json:"holding_distribution"`

	// InstrumentMix is the percentage of executions per instrument kind
	// (EQUITY, FUTURE, CALL, PUT).
	InstrumentMix  map[string]float64 `json:"instrument_mix"`
	TopUnderlyings []SymbolShare      `json:"top_underlyings"`
}

type SymbolShare struct {
	Symbol     string  `json:"symbol"`
	Executions int     `json:"executions"`
	Share      float64 `json:"share"`
}

// DailyStat aggregates one calendar day of activity
type DailyStat struct {
	Date          string  `json:"date"`
	Executions    int     `json:"executions"`
	ClosedTrades  int     `json:"closed_trades"`
	PnL           float64 `json:"pnl"`
	EntryNotional float64 `json:"entry_notional"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Symbols       int     `json:"symbols"`
}

// TrendContext carries EMA trend scores around one matched trade; nil pointers mean unavailable
type TrendContext struct {
	TradeIndex int             `json:"trade_index"`
	Symbol     string          `json:"symbol"`
	Underlying string          `json:"underlying"`
	Date       string          `json:"date"`
	Score      *int            `json:"score,omitempty"`
	Indices    map[string]*int `json:"indices,omitempty"`
}

type TrendSummary struct {
	Contexts        []TrendContext     `json:"contexts"`
	Available       int                `json:"available"`
	Unavailable     int                `json:"unavailable"`
	MeanScore       float64            `json:"mean_score"`
	MeanIndexScores map[string]float64 `json:"mean_index_scores,omitempty"`
	WithTrendWins   int                `json:"with_trend_wins"` // winners whose direction agreed with the stock trend
	AgainstTrend    int                `json:"against_trend"`   // trades opened against the stock trend
}

// Narrative is LLM-generated commentary; sections that failed are left empty
type Narrative struct {
	Provider           string   `json:"provider"`
	Model              string   `json:"model,omitempty"`
	TraderProfile      string   `json:"trader_profile,omitempty"`
	RiskAssessment     string   `json:"risk_assessment,omitempty"`
	BehavioralInsights string   `json:"behavioral_insights,omitempty"`
	Recommendations    []string `json:"recommendations,omitempty"`
	PerformanceSummary string   `json:"performance_summary,omitempty"`
}

// Empty reports whether no section was produced.
func (n Narrative) Empty() bool {
	return n.TraderProfile == "" && n.RiskAssessment == "" && n.BehavioralInsights == "" &&
		len(n.Recommendations) == 0 && n.PerformanceSummary == ""
}

// NarrativeInput is what a narrator is allowed to see
type NarrativeInput struct {
	Trader   string           `json:"trader"`
	Metrics  MetricsReport    `json:"metrics"`
	Patterns []PatternFinding `json:"patterns"`
	Risk     RiskAssessment   `json:"risk"`
	Profile  TradingProfile   `json:"profile"`
}
