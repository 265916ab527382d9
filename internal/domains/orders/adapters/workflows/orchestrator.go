package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/orderflow/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.ImportOrchestrator = (*TemporalImportWorkflows)(nil)
	_ ports.ImportOrchestrator = (*InlineImportWorkflows)(nil)
)

// TemporalImportWorkflows starts order import workflows on a Temporal cluster.
type TemporalImportWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalImportWorkflows wires a Temporal client into the orchestrator.
func NewTemporalImportWorkflows(c client.Client) *TemporalImportWorkflows {
	return &TemporalImportWorkflows{client: c, taskQueue: orderworkflows.OrderImportTaskQueue}
}

// ImportOrders starts the import workflow and waits for its report. Runs that
// share a cutoff share a workflow id, so a concurrent request joins the running import.
func (o *TemporalImportWorkflows) ImportOrders(ctx context.Context, input ordertypes.ImportOrdersInput) (*ordertypes.ImportReport, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal import workflows not configured")
	}
	workflowID := buildImportWorkflowID(input)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderImportWorkflowName,
		orderworkflows.OrderImportWorkflowInput{Command: input, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var report ordertypes.ImportReport
	if err := run.Get(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// InlineImportWorkflows fetches and imports in-process, useful for tests or dev fallbacks.
type InlineImportWorkflows struct {
	service ports.Service
	source  ports.OrderSource
}

// NewInlineImportWorkflows wraps the orders service and feed source for synchronous execution.
func NewInlineImportWorkflows(service ports.Service, source ports.OrderSource) *InlineImportWorkflows {
	return &InlineImportWorkflows{service: service, source: source}
}

// ImportOrders fetches candidates and delegates to the application service.
func (o *InlineImportWorkflows) ImportOrders(ctx context.Context, input ordertypes.ImportOrdersInput) (*ordertypes.ImportReport, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline import workflows not configured")
	}
	if o.source == nil {
		return &ordertypes.ImportReport{}, nil
	}
	candidates, err := o.source.FetchCandidates(ctx, input.Since)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return o.service.ImportOrders(ctx, candidates)
}

func buildImportWorkflowID(input ordertypes.ImportOrdersInput) string {
	if input.Since.IsZero() {
		return "order-import-all"
	}
	return fmt.Sprintf("order-import-%s", input.Since.UTC().Format(time.RFC3339))
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
