// Package pairing turns a stream of fills into closed round trips using FIFO
// lot matching per symbol.
package pairing

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"trading-persona-analyzer/internal/logger"
	"trading-persona-analyzer/internal/types"
)

// Pair matches executions per symbol. Executions of one symbol must appear in
// non-decreasing timestamp order; symbols may interleave freely.
func Pair(ctx context.Context, executions []types.Execution) (*types.PairingResult, error) {
	queues := make(map[string][]types.OpenLot)
	lastSeen := make(map[string]time.Time)
	result := &types.PairingResult{Trades: []types.MatchedTrade{}, OpenLots: []types.OpenLot{}}

	for i, ex := range executions {
		if err := ex.Validate(); err != nil {
			var ve *types.ValidationError
			if errors.As(err, &ve) {
				ve.Row = i + 1
			}
			return nil, err
		}
		if last, ok := lastSeen[ex.Symbol]; ok && ex.Timestamp.Before(last) {
			return nil, &types.ValidationError{
				Row:    i + 1,
				Symbol: ex.Symbol,
				Field:  "timestamp",
				Err:    types.ErrOutOfOrder,
			}
		}
		lastSeen[ex.Symbol] = ex.Timestamp

		perUnit := ex.Charges.Div(decimal.NewFromInt(ex.Quantity))
		queue := queues[ex.Symbol]

		// every lot in a queue shares one side
		if len(queue) == 0 || queue[0].Side == ex.Side {
			queues[ex.Symbol] = append(queue, openLot(ex, i, ex.Quantity, perUnit))
			continue
		}

		remaining := ex.Quantity
		for remaining > 0 && len(queue) > 0 {
			head := &queue[0]
			qty := min(remaining, head.RemainingQuantity)
			result.Trades = append(result.Trades, closeLot(*head, ex, i, qty, perUnit))

			head.RemainingQuantity -= qty
			remaining -= qty
			if head.RemainingQuantity == 0 {
				queue = queue[1:]
			}
		}

		if remaining > 0 {
			logger.Debug(ctx, "Position reversed", "symbol", ex.Symbol, "row", i+1, "reversed_qty", remaining)
			queue = append(queue, openLot(ex, i, remaining, perUnit))
		}
		queues[ex.Symbol] = queue
	}

	symbols := make([]string, 0, len(queues))
	for sym := range queues {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		result.OpenLots = append(result.OpenLots, queues[sym]...)
	}

	logger.Debug(ctx, "Pairing complete",
		"executions", len(executions),
		"matched_trades", len(result.Trades),
		"open_lots", len(result.OpenLots))

	return result, nil
}

func openLot(ex types.Execution, index int, qty int64, chargesPerUnit decimal.Decimal) types.OpenLot {
	return types.OpenLot{
		Symbol:            ex.Symbol,
		Side:              ex.Side,
		RemainingQuantity: qty,
		EntryPrice:        ex.Price,
		EntryTime:         ex.Timestamp,
		ChargesPerUnit:    chargesPerUnit,
		EntryIndex:        index,
	}
}

func closeLot(lot types.OpenLot, exit types.Execution, exitIndex int, qty int64, exitChargesPerUnit decimal.Decimal) types.MatchedTrade {
	q := decimal.NewFromInt(qty)
	direction := types.DirectionOf(lot.Side)

	gross := exit.Price.Sub(lot.EntryPrice).Mul(q)
	if direction == types.Short {
		gross = gross.Neg()
	}
	charges := lot.ChargesPerUnit.Add(exitChargesPerUnit).Mul(q)
	entryNotional := lot.EntryPrice.Mul(q)

	return types.MatchedTrade{
		Symbol:         lot.Symbol,
		Direction:      direction,
		EntrySide:      lot.Side,
		EntryTime:      lot.EntryTime,
		EntryPrice:     lot.EntryPrice,
		ExitTime:       exit.Timestamp,
		ExitPrice:      exit.Price,
		Quantity:       qty,
		GrossPnL:       gross,
		Charges:        charges,
		PnL:            gross.Sub(charges),
		EntryNotional:  entryNotional,
		TradeValue:     entryNotional.Add(exit.Price.Mul(q)).Div(decimal.NewFromInt(2)),
		HoldingMinutes: exit.Timestamp.Sub(lot.EntryTime).Minutes(),
		EntryIndex:     lot.EntryIndex,
		ExitIndex:      exitIndex,
	}
}
