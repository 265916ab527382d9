package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	orderflowserver "github.com/Apurer/orderflow/go"
	orderworkflows "github.com/Apurer/orderflow/internal/domains/orders/adapters/workflows"
	orderports "github.com/Apurer/orderflow/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/orderflow/internal/platform/observability"
)

// Run boots the order tracker HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "orderflow-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stack, err := BuildStack(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer stack.Close()

	var imports orderports.ImportOrchestrator = orderworkflows.NewInlineImportWorkflows(stack.Orders, stack.Source)
	if temporalClient, err := ConnectTemporal(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running imports inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		imports = orderworkflows.NewTemporalImportWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := orderflowserver.ApiHandleFunctions{
		OrderAPI:  orderflowserver.NewOrderAPI(stack.Orders, imports),
		UserAPI:   orderflowserver.NewUserAPI(stack.Users),
		Directory: stack.Users,
	}

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	if strings.TrimSpace(cfg.BlobDriver) == "" || strings.EqualFold(cfg.BlobDriver, "local") {
		router.Static(cfg.LocalUploadURLPrefix, cfg.LocalUploadDir)
	}
	router = orderflowserver.NewRouterWithGinEngine(router, handlers)

	addr := ":" + cfg.Port
	logger.Info("orderflow API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("orderflow API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}
