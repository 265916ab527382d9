package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/orderflow/internal/platform/temporal/activities/orders"
)

// ImportBatchSize caps how many candidates travel in one activity payload.
const ImportBatchSize = 50

// RunOrderImportSequence fetches feed candidates then imports them batch by batch.
func RunOrderImportSequence(ctx workflow.Context, input ordertypes.ImportOrdersInput) (*ordertypes.ImportReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order import sequence started", "since", input.Since)
	fetchOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	importOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var candidates []ordertypes.ImportCandidate
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, fetchOptions), orderactivities.FetchCandidatesActivityName, input).Get(ctx, &candidates)
	if err != nil {
		logger.Error("order import sequence fetch failed", "error", err)
		return nil, err
	}

	report := &ordertypes.ImportReport{}
	importCtx := workflow.WithActivityOptions(ctx, importOptions)
	for start := 0; start < len(candidates); start += ImportBatchSize {
		end := start + ImportBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		var batch ordertypes.ImportReport
		if err := workflow.ExecuteActivity(importCtx, orderactivities.ImportCandidatesActivityName, candidates[start:end]).Get(ctx, &batch); err != nil {
			logger.Error("order import sequence batch failed", "offset", start, "error", err)
			return report, err
		}
		report.Merge(&batch)
	}
	logger.Info("order import sequence completed",
		"imported", len(report.Imported),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report, nil
}
