package store

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // input.timezone must resolve on hosts without zoneinfo

	"gopkg.in/yaml.v3"

	"trading-persona-analyzer/internal/types"
)

type Config struct {
	Metrics  MetricsConfig `yaml:"metrics"`
	Patterns PatternConfig `yaml:"patterns"`
	Risk     RiskConfig    `yaml:"risk"`
	Input    InputConfig   `yaml:"input"`
	Trend    TrendConfig   `yaml:"trend"`
	LLM      LLMConfig     `yaml:"llm"`
	Report   ReportConfig  `yaml:"report"`
}

type MetricsConfig struct {
	RiskFreeRate          float64 `yaml:"risk_free_rate"` // annual, e.g. 0.06
	TradingPeriodsPerYear int     `yaml:"trading_periods_per_year"`
	ReturnSeries          string  `yaml:"return_series"` // "trade" or "daily"
	ProfitFactorSentinel  float64 `yaml:"profit_factor_sentinel"`
	InitialCapital        float64 `yaml:"initial_capital"`
}

// Tiers holds the magnitude cutoffs for MEDIUM and HIGH severity.
type Tiers struct {
	MediumAt float64 `yaml:"medium_at"`
	HighAt   float64 `yaml:"high_at"`
}

type PatternConfig struct {
	MinTradesForPattern int `yaml:"min_trades_for_pattern"`
	Overtrading         struct {
		MaxTradesPerDay float64 `yaml:"max_trades_per_day"`
		Percentile      float64 `yaml:"percentile"` // 0 uses the mean
		Tiers           `yaml:",inline"`
	} `yaml:"overtrading"`
	Revenge struct {
		WindowMinutes       float64 `yaml:"window_minutes"`
		MinCount            int     `yaml:"min_count"`
		RequireSizeIncrease bool    `yaml:"require_size_increase"`
		Tiers               `yaml:",inline"`
	} `yaml:"revenge_trading"`
	Scalping struct {
		MaxHoldingMinutes float64 `yaml:"max_holding_minutes"`
		MinRatio          float64 `yaml:"min_ratio"`
		Tiers             `yaml:",inline"`
	} `yaml:"scalping"`
	Pyramiding struct {
		MinCount int `yaml:"min_count"`
		Tiers    `yaml:",inline"`
	} `yaml:"pyramiding"`
	Hedging struct {
		MinCount int `yaml:"min_count"`
		Tiers    `yaml:",inline"`
	} `yaml:"hedging"`
}

type RiskLevels struct {
	LowMax    float64 `yaml:"low_max"`
	MediumMax float64 `yaml:"medium_max"`
	HighMax   float64 `yaml:"high_max"`
}

type RiskConfig struct {
	BaseScore         float64            `yaml:"base_score"`
	SeverityWeights   map[string]float64 `yaml:"severity_weights"`
	SharpeLow         float64            `yaml:"sharpe_low"`
	SharpeHigh        float64            `yaml:"sharpe_high"`
	SharpeLowPenalty  float64            `yaml:"sharpe_low_penalty"`
	SharpeHighBonus   float64            `yaml:"sharpe_high_bonus"`
	WinRateLow        float64            `yaml:"win_rate_low"`
	WinRateHigh       float64            `yaml:"win_rate_high"`
	WinRateLowPenalty float64            `yaml:"win_rate_low_penalty"`
	WinRateHighBonus  float64            `yaml:"win_rate_high_bonus"`
	DrawdownPctBand   float64            `yaml:"drawdown_pct_band"`
	DrawdownPenalty   float64            `yaml:"drawdown_penalty"`
	Levels            RiskLevels         `yaml:"levels"`
}

type InputConfig struct {
	SortByTime  bool     `yaml:"sort_by_time"`
	Timezone    string   `yaml:"timezone"`
	TimeLayouts []string `yaml:"time_layouts"`
}

type CacheConfig struct {
	Backend   string `yaml:"backend"` // none, file, sqlite, redis
	Dir       string `yaml:"dir"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	TTLHours  int    `yaml:"ttl_hours"`
}

type TrendConfig struct {
	Enabled           bool              `yaml:"enabled"`
	Provider          string            `yaml:"provider"` // KITE or CSV
	CandleDir         string            `yaml:"candle_dir"`
	Exchange          string            `yaml:"exchange"`
	IndexSymbols      []string          `yaml:"index_symbols"`
	SymbolAliases     map[string]string `yaml:"symbol_aliases"`
	LookbackDays      int               `yaml:"lookback_days"`
	Concurrency       int               `yaml:"concurrency"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
	Cache             CacheConfig       `yaml:"cache"`
}

type LLMConfig struct {
	Provider       string  `yaml:"provider"` // OPENAI, CLAUDE, OLLAMA, NONE
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TopP           float64 `yaml:"top_p"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type ReportConfig struct {
	OutputDir       string   `yaml:"output_dir"`
	Formats         []string `yaml:"formats"`
	Parquet         bool     `yaml:"parquet"`
	MetricsTextfile string   `yaml:"metrics_textfile"`
}

// Default returns a configuration with every option at its documented default.
func Default() *Config {
	c := &Config{}
	c.Input.SortByTime = true
	c.setDefaults()
	return c
}

// setDefaults seeds every option before the YAML is decoded over it, so an
// explicit zero in the file is kept.
func (c *Config) setDefaults() {
	c.Metrics.TradingPeriodsPerYear = 252
	c.Metrics.ReturnSeries = "trade"
	c.Metrics.ProfitFactorSentinel = 999

	p := &c.Patterns
	p.MinTradesForPattern = 3
	p.Overtrading.MaxTradesPerDay = 10
	p.Overtrading.Tiers = Tiers{MediumAt: 15, HighAt: 20}
	p.Revenge.WindowMinutes = 30
	p.Revenge.MinCount = 3
	p.Revenge.Tiers = Tiers{MediumAt: 5, HighAt: 10}
	p.Scalping.MaxHoldingMinutes = 30
	p.Scalping.MinRatio = 0.5
	p.Scalping.Tiers = Tiers{MediumAt: 0.65, HighAt: 0.8}
	p.Pyramiding.MinCount = 3
	p.Pyramiding.Tiers = Tiers{MediumAt: 6, HighAt: 12}
	p.Hedging.MinCount = 5
	p.Hedging.Tiers = Tiers{MediumAt: 10, HighAt: 20}

	r := &c.Risk
	r.BaseScore = 25
	r.SeverityWeights = map[string]float64{"LOW": 5, "MEDIUM": 10, "HIGH": 20}
	r.SharpeHigh = 1.5
	r.SharpeLowPenalty = 20
	r.SharpeHighBonus = 10
	r.WinRateLow = 40
	r.WinRateHigh = 60
	r.WinRateLowPenalty = 10
	r.WinRateHighBonus = 5
	r.DrawdownPctBand = 20
	r.DrawdownPenalty = 15
	r.Levels = RiskLevels{LowMax: 30, MediumMax: 60, HighMax: 80}

	c.Input.Timezone = "Asia/Kolkata"
	c.Input.TimeLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"02-01-2006 15:04:05",
		"02/01/2006 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}

	t := &c.Trend
	t.Provider = "KITE"
	t.Exchange = "NSE"
	t.IndexSymbols = []string{"NIFTY", "MIDCPNIFTY"}
	t.SymbolAliases = map[string]string{
		"NIFTY":      "NIFTY 50",
		"BANKNIFTY":  "NIFTY BANK",
		"MIDCPNIFTY": "NIFTY MID SELECT",
		"FINNIFTY":   "NIFTY FIN SERVICE",
	}
	t.LookbackDays = 300
	t.Concurrency = 4
	t.RequestsPerSecond = 3
	t.Cache.Backend = "file"
	t.Cache.Dir = "cache/trend"
	t.Cache.Path = "cache/trend.db"
	t.Cache.TTLHours = 24 * 30

	c.LLM.Provider = "NONE"
	c.LLM.MaxTokens = 1000
	c.LLM.Temperature = 0.7
	c.LLM.TopP = 0.9
	c.LLM.TimeoutSeconds = 120

	c.Report.OutputDir = "reports"
	c.Report.Formats = []string{"json", "html"}
}

func invalid(option, format string, args ...any) error {
	return &types.ConfigError{Option: option, Reason: fmt.Sprintf(format, args...)}
}

func validateTiers(option string, t Tiers) error {
	if t.MediumAt <= 0 {
		return invalid(option+".medium_at", "must be positive, got %v", t.MediumAt)
	}
	if t.HighAt <= t.MediumAt {
		return invalid(option+".high_at", "must be greater than medium_at (%v), got %v", t.MediumAt, t.HighAt)
	}
	return nil
}

func (c *Config) Validate() error {
	m := c.Metrics
	if m.RiskFreeRate < 0 || m.RiskFreeRate >= 1 {
		return invalid("metrics.risk_free_rate", "must be an annual fraction in [0, 1), got %v", m.RiskFreeRate)
	}
	if m.TradingPeriodsPerYear <= 0 {
		return invalid("metrics.trading_periods_per_year", "must be positive, got %d", m.TradingPeriodsPerYear)
	}
	if m.ReturnSeries != "trade" && m.ReturnSeries != "daily" {
		return invalid("metrics.return_series", "must be 'trade' or 'daily', got '%s'", m.ReturnSeries)
	}
	if m.ProfitFactorSentinel <= 0 {
		return invalid("metrics.profit_factor_sentinel", "must be positive, got %v", m.ProfitFactorSentinel)
	}
	if m.InitialCapital < 0 {
		return invalid("metrics.initial_capital", "must not be negative, got %v", m.InitialCapital)
	}

	p := c.Patterns
	if p.MinTradesForPattern < 1 {
		return invalid("patterns.min_trades_for_pattern", "must be at least 1, got %d", p.MinTradesForPattern)
	}
	if p.Overtrading.MaxTradesPerDay <= 0 {
		return invalid("patterns.overtrading.max_trades_per_day", "must be positive, got %v", p.Overtrading.MaxTradesPerDay)
	}
	if p.Overtrading.Percentile < 0 || p.Overtrading.Percentile > 100 {
		return invalid("patterns.overtrading.percentile", "must be 0 (mean) or within (0, 100], got %v", p.Overtrading.Percentile)
	}
	if err := validateTiers("patterns.overtrading", p.Overtrading.Tiers); err != nil {
		return err
	}
	if p.Revenge.WindowMinutes <= 0 {
		return invalid("patterns.revenge_trading.window_minutes", "must be positive, got %v", p.Revenge.WindowMinutes)
	}
	if p.Revenge.MinCount < 0 {
		return invalid("patterns.revenge_trading.min_count", "must not be negative, got %d", p.Revenge.MinCount)
	}
	if err := validateTiers("patterns.revenge_trading", p.Revenge.Tiers); err != nil {
		return err
	}
	if p.Scalping.MaxHoldingMinutes <= 0 {
		return invalid("patterns.scalping.max_holding_minutes", "must be positive, got %v", p.Scalping.MaxHoldingMinutes)
	}
	if p.Scalping.MinRatio <= 0 || p.Scalping.MinRatio >= 1 {
		return invalid("patterns.scalping.min_ratio", "must be within (0, 1), got %v", p.Scalping.MinRatio)
	}
	if err := validateTiers("patterns.scalping", p.Scalping.Tiers); err != nil {
		return err
	}
	if p.Pyramiding.MinCount < 0 {
		return invalid("patterns.pyramiding.min_count", "must not be negative, got %d", p.Pyramiding.MinCount)
	}
	if err := validateTiers("patterns.pyramiding", p.Pyramiding.Tiers); err != nil {
		return err
	}
	if p.Hedging.MinCount < 0 {
		return invalid("patterns.hedging.min_count", "must not be negative, got %d", p.Hedging.MinCount)
	}
	if err := validateTiers("patterns.hedging", p.Hedging.Tiers); err != nil {
		return err
	}

	r := c.Risk
	if r.BaseScore < 0 || r.BaseScore > 100 {
		return invalid("risk.base_score", "must be within [0, 100], got %v", r.BaseScore)
	}
	for _, sev := range []string{"LOW", "MEDIUM", "HIGH"} {
		if w := r.SeverityWeights[sev]; w < 0 {
			return invalid("risk.severity_weights."+sev, "must not be negative, got %v", w)
		}
	}
	for sev := range r.SeverityWeights {
		if sev != "LOW" && sev != "MEDIUM" && sev != "HIGH" {
			return invalid("risk.severity_weights", "unknown severity '%s'", sev)
		}
	}
	if r.SharpeHigh <= r.SharpeLow {
		return invalid("risk.sharpe_high", "must be greater than sharpe_low (%v), got %v", r.SharpeLow, r.SharpeHigh)
	}
	if r.WinRateLow < 0 || r.WinRateHigh > 100 || r.WinRateHigh <= r.WinRateLow {
		return invalid("risk.win_rate_high", "bands must satisfy 0 <= win_rate_low < win_rate_high <= 100, got %v/%v", r.WinRateLow, r.WinRateHigh)
	}
	if r.DrawdownPctBand <= 0 {
		return invalid("risk.drawdown_pct_band", "must be positive, got %v", r.DrawdownPctBand)
	}
	l := r.Levels
	if !(0 < l.LowMax && l.LowMax < l.MediumMax && l.MediumMax < l.HighMax && l.HighMax < 100) {
		return invalid("risk.levels", "must satisfy 0 < low_max < medium_max < high_max < 100, got %v/%v/%v", l.LowMax, l.MediumMax, l.HighMax)
	}

	if _, err := time.LoadLocation(c.Input.Timezone); err != nil {
		return invalid("input.timezone", "%v", err)
	}

	t := c.Trend
	if t.Enabled {
		switch t.Provider {
		case "KITE":
		case "CSV":
			if t.CandleDir == "" {
				return invalid("trend.candle_dir", "required when trend.provider is CSV")
			}
		default:
			return invalid("trend.provider", "must be 'KITE' or 'CSV', got '%s'", t.Provider)
		}
		if t.Concurrency < 1 {
			return invalid("trend.concurrency", "must be at least 1, got %d", t.Concurrency)
		}
		if t.RequestsPerSecond <= 0 {
			return invalid("trend.requests_per_second", "must be positive, got %v", t.RequestsPerSecond)
		}
		if t.LookbackDays < 150 {
			return invalid("trend.lookback_days", "must cover at least 150 calendar days for EMA100, got %d", t.LookbackDays)
		}
		switch t.Cache.Backend {
		case "none", "file", "sqlite":
		case "redis":
			if t.Cache.RedisAddr == "" {
				return invalid("trend.cache.redis_addr", "required when trend.cache.backend is redis")
			}
		default:
			return invalid("trend.cache.backend", "must be none, file, sqlite or redis, got '%s'", t.Cache.Backend)
		}
	}

	switch c.LLM.Provider {
	case "NONE":
	case "OPENAI", "CLAUDE", "OLLAMA":
		if c.LLM.Model == "" {
			return invalid("llm.model", "required when llm.provider is %s", c.LLM.Provider)
		}
	default:
		return invalid("llm.provider", "must be OPENAI, CLAUDE, OLLAMA or NONE, got '%s'", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return invalid("llm.temperature", "must be within [0, 2], got %v", c.LLM.Temperature)
	}

	for _, f := range c.Report.Formats {
		switch strings.ToLower(f) {
		case "json", "text", "csv", "html":
		default:
			return invalid("report.formats", "unsupported format '%s'", f)
		}
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML over the defaults and validates the result.
func ParseConfig(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	c.Trend.Provider = strings.ToUpper(c.Trend.Provider)
	c.LLM.Provider = strings.ToUpper(c.LLM.Provider)
	c.Metrics.ReturnSeries = strings.ToLower(c.Metrics.ReturnSeries)
	c.Trend.Cache.Backend = strings.ToLower(c.Trend.Cache.Backend)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}
