package analysis

import (
	"context"
	"fmt"
)

// ComputeStats folds the full log set into a snapshot. The whole log is
// scanned on every call; one row per analysis keeps that cheap, and
// recomputing avoids any mutable shared counters. Cost and time aggregates
// cover approved entries only, and the average is 0 when nothing was
// approved.
func ComputeStats(ctx context.Context, store LogStore) (*StatsSnapshot, error) {
	entries, err := store.Query(ctx, 0, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis log: %w", err)
	}

	snap := &StatsSnapshot{TotalAnalyses: len(entries)}
	var totalTime float64
	for _, e := range entries {
		if e.Status != StatusApproved {
			continue
		}
		snap.SuccessfulAnalyses++
		snap.TotalCost += e.CostEstimate
		totalTime += e.ExecutionTime
	}
	if snap.SuccessfulAnalyses > 0 {
		snap.AverageExecutionTime = totalTime / float64(snap.SuccessfulAnalyses)
	}
	return snap, nil
}
