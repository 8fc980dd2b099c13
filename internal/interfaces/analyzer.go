package interfaces

import (
	"context"

	"trading-persona-analyzer/internal/types"
)

type Analyzer interface {
	Analyze(ctx context.Context, trader string, executions []types.Execution) (*types.AnalysisReport, error)
}
