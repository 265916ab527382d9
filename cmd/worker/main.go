package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/orderflow/internal/app/api"
	platformobservability "github.com/Apurer/orderflow/internal/platform/observability"
	orderactivities "github.com/Apurer/orderflow/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/orderflow/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "orderflow-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stack, err := api.BuildStack(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to build order stack", slog.String("error", err.Error()))
		return
	}
	defer stack.Close()
	importActivities := orderactivities.NewActivities(stack.Orders, stack.Source)

	temporalClient, err := api.ConnectTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		return
	}
	defer temporalClient.Close()

	if err := ensureImportSchedule(ctx, temporalClient, cfg.ImportInterval); err != nil {
		logger.Error("failed to register import schedule", slog.String("error", err.Error()))
		return
	}
	logger.Info("order import schedule registered", slog.Duration("interval", cfg.ImportInterval))

	w := worker.New(temporalClient, orderworkflows.OrderImportTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderImportWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderImportWorkflowName})
	w.RegisterActivityWithOptions(importActivities.FetchCandidates, activity.RegisterOptions{Name: orderactivities.FetchCandidatesActivityName})
	w.RegisterActivityWithOptions(importActivities.ImportCandidates, activity.RegisterOptions{Name: orderactivities.ImportCandidatesActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderImportTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

// ensureImportSchedule registers the recurring feed import once per namespace.
func ensureImportSchedule(ctx context.Context, c client.Client, every time.Duration) error {
	_, err := c.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: orderworkflows.OrderImportScheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: every}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        "order-import-scheduled",
			Workflow:  orderworkflows.OrderImportWorkflowName,
			TaskQueue: orderworkflows.OrderImportTaskQueue,
			Args: []interface{}{orderworkflows.OrderImportWorkflowInput{
				Lookback: orderworkflows.DefaultScheduledLookback,
			}},
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
		return nil
	}
	return err
}
