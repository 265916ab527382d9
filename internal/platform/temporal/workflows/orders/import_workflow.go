package orders

import (
	"time"

	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/platform/temporal/sequences"
)

const (
	// OrderImportWorkflowName is the public identifier for registering the workflow.
	OrderImportWorkflowName = "orders.workflows.Import"
	// OrderImportTaskQueue is the queue consumed by the worker processing import workflows.
	OrderImportTaskQueue = "ORDER_IMPORT"
	// OrderImportScheduleID identifies the recurring import registered by the worker.
	OrderImportScheduleID = "orders-import-schedule"
	// DefaultScheduledLookback is how far back scheduled runs read the feed.
	DefaultScheduledLookback = 24 * time.Hour
)

// OrderImportWorkflowInput captures one import run.
type OrderImportWorkflowInput struct {
	Command ordertypes.ImportOrdersInput
	// Lookback derives Command.Since from the workflow clock when Since is zero.
	Lookback time.Duration
	TraceID  string
}

// OrderImportWorkflow pulls the external feed and inserts new orders at AtTeam.
func OrderImportWorkflow(ctx workflow.Context, input OrderImportWorkflowInput) (*ordertypes.ImportReport, error) {
	logger := workflow.GetLogger(ctx)
	command := input.Command
	if command.Since.IsZero() && input.Lookback > 0 {
		command.Since = workflow.Now(ctx).Add(-input.Lookback).UTC()
	}
	logger.Info("OrderImportWorkflow started", withTraceID(input.TraceID, "since", command.Since)...)
	report, err := sequences.RunOrderImportSequence(ctx, command)
	if err != nil {
		logger.Error("OrderImportWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("OrderImportWorkflow completed", withTraceID(input.TraceID, "imported", len(report.Imported))...)
	return report, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
