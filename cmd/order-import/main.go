package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"time"

	"github.com/Apurer/orderflow/internal/app/api"
	orderworkflows "github.com/Apurer/orderflow/internal/domains/orders/adapters/workflows"
	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	orderports "github.com/Apurer/orderflow/internal/domains/orders/ports"
)

func main() {
	lookback := flag.Duration("lookback", 24*time.Hour, "import feed orders created within this window; 0 reads the whole feed")
	inline := flag.Bool("inline", false, "run in-process even when Temporal is reachable")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := slog.Default()
	stack, err := api.BuildStack(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("failed to build order stack: %v", err)
	}
	defer stack.Close()
	if stack.Source == nil {
		log.Fatal("FEED_BASE_URL not set; nothing to import")
	}

	var imports orderports.ImportOrchestrator = orderworkflows.NewInlineImportWorkflows(stack.Orders, stack.Source)
	if !*inline {
		if temporalClient, err := api.ConnectTemporal(cfg, nil); err != nil {
			logger.Warn("Temporal unavailable, importing inline", slog.String("error", err.Error()))
		} else {
			defer temporalClient.Close()
			imports = orderworkflows.NewTemporalImportWorkflows(temporalClient)
		}
	}

	input := ordertypes.ImportOrdersInput{}
	if *lookback > 0 {
		input.Since = time.Now().Add(-*lookback).UTC().Truncate(time.Minute)
	}
	report, err := imports.ImportOrders(ctx, input)
	if err != nil {
		log.Fatalf("order import failed: %v", err)
	}
	logger.Info("order import completed",
		slog.Int("imported", len(report.Imported)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("failed", len(report.Failed)),
	)
	for _, failure := range report.Failed {
		logger.Warn("order not imported", slog.String("sourceOrderId", failure.SourceOrderID), slog.String("reason", failure.Reason))
	}
}
