package patterns

import (
	"fmt"

	"trading-persona-analyzer/internal/store"
	"trading-persona-analyzer/internal/types"
)

// DetectPyramiding counts executions that add to an already open position in
// the same direction before it was closed.
func DetectPyramiding(trades []types.MatchedTrade, executions []types.Execution, cfg store.PatternConfig) types.PatternFinding {
	pc := cfg.Pyramiding

	net := map[string]int64{}
	perSymbol := map[string]int{}
	count := 0
	for _, e := range executions {
		pos := net[e.Symbol]
		signed := e.Side.Sign() * e.Quantity
		if pos != 0 && sameSign(pos, signed) {
			count++
			perSymbol[e.Symbol]++
		}
		net[e.Symbol] = pos + signed
	}

	desc := fmt.Sprintf("%d add-ons to open positions", count)
	if sym, n := topKey(perSymbol); n > 0 {
		desc += fmt.Sprintf(" across %d symbols, most in %s (%d)", len(perSymbol), sym, n)
	}
	f := types.PatternFinding{
		Pattern:     types.PatternPyramiding,
		Count:       count,
		Magnitude:   float64(count),
		Threshold:   float64(pc.MinCount),
		SampleSize:  len(executions),
		Description: desc,
	}
	return finalize(f, count > pc.MinCount, cfg.MinTradesForPattern, pc.Tiers)
}

func sameSign(a, b int64) bool { return (a > 0 && b > 0) || (a < 0 && b < 0) }

// topKey returns the key with the highest count, ties broken alphabetically.
func topKey(m map[string]int) (string, int) {
	best, bestN := "", 0
	for k, n := range m {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best, bestN
}
