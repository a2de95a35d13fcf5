package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/api"
	"github.com/scribeworks/orderflow/internal/application/actions"
	"github.com/scribeworks/orderflow/internal/application/dispatcher"
	"github.com/scribeworks/orderflow/internal/application/engine"
	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/config"
	"github.com/scribeworks/orderflow/internal/domain/event"
	"github.com/scribeworks/orderflow/internal/domain/order"
	"github.com/scribeworks/orderflow/internal/domain/transition"
	"github.com/scribeworks/orderflow/internal/jobs"
	"github.com/scribeworks/orderflow/internal/repository"
	"github.com/scribeworks/orderflow/pkg/database"
	"github.com/scribeworks/orderflow/pkg/utils"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting orderflow", zap.Int("port", cfg.Server.Port))

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.NewMigrator(sqlDB, logger).Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	db := repository.NewDB(sqlDB, logger)
	orders := repository.NewOrderRepository(db, logger)
	translog := repository.NewTransitionLogRepository(db, logger)
	payments := repository.NewPaymentChecker(db)
	audit := repository.NewAuditLogRepository(db, logger)

	graph := transition.NewGraph()
	guards := transition.NewDefaultGuardRegistry(graph, payments)
	hooks := buildHooks(graph, orders, logger)

	events := dispatcher.New(logger)
	defer events.Close()
	subscribeNotificationHandlers(events, logger)

	engineOpts := []engine.Option{
		engine.WithAuditLogger(audit),
		engine.WithEventEmitter(dispatcher.NewEmitter(events)),
		engine.WithSideEffectTimeout(cfg.Engine.SideEffectTimeout),
	}
	if !cfg.Engine.AuditEnabled {
		engineOpts = append(engineOpts, engine.WithAuditDisabled())
	}

	executor := engine.New(graph, guards, hooks, orders, translog, db, logger, engineOpts...)

	catalog, err := actions.New(executor, graph,
		actions.DefaultHandlers(orders, translog, executor, graph), logger)
	if err != nil {
		logger.Fatal("failed to build action catalog", zap.Error(err))
	}

	var jobManager *jobs.JobManager
	if cfg.Jobs.Enabled {
		jobManager = jobs.NewJobManager(logger,
			jobs.NewArchiveCompletedJob(orders, executor, cfg.Jobs.ArchiveRetention, cfg.Jobs.ArchiveSchedule, logger),
			jobs.NewCloseDormantJob(orders, executor, cfg.Jobs.CloseDormancy, cfg.Jobs.CloseSchedule, logger),
		)
		if err := jobManager.StartAll(); err != nil {
			logger.Fatal("failed to start background jobs", zap.Error(err))
		}
		defer jobManager.StopAll()
	}

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(orders, translog, executor, catalog, audit, logger)
	router := api.NewRouter(handler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// buildHooks wires the standing side effects. The paid flag mirrors the
// status so guards keep passing even if the payments table lags.
func buildHooks(graph *transition.Graph, orders port.OrderRepository, logger *zap.Logger) *transition.HookRegistry {
	hooks := transition.NewHookRegistry()

	for _, edge := range graph.IncomingEdges(order.StatusPaid) {
		hooks.RegisterAfter(edge.From, edge.To, "record_paid_flag",
			func(ctx context.Context, o *order.Order, _ *order.Actor, _ map[string]any) error {
				return orders.SetPaid(ctx, o.ID, true)
			})
	}

	for _, edge := range graph.IncomingEdges(order.StatusRefunded) {
		hooks.RegisterAfter(edge.From, edge.To, "clear_paid_flag",
			func(ctx context.Context, o *order.Order, _ *order.Actor, _ map[string]any) error {
				return orders.SetPaid(ctx, o.ID, false)
			})
	}

	return hooks
}

// subscribeNotificationHandlers stands in for the external notification
// collaborator: it records the events that would fan out to clients and
// writers.
func subscribeNotificationHandlers(d dispatcher.Dispatcher, logger *zap.Logger) {
	keys := []string{
		transition.EventPaid,
		transition.EventInProgress,
		transition.EventSubmitted,
		transition.EventCompleted,
		transition.EventCancelled,
		transition.EventRefunded,
		transition.EventOffHold,
	}
	for _, key := range keys {
		d.SubscribeNamed(key, "notification_log", func(_ context.Context, evt *event.Event) error {
			logger.Info("order event",
				zap.String("event_key", evt.Key),
				zap.String("order_id", evt.OrderID.String()),
				zap.String("new_status", evt.PayloadString("new_status")),
				zap.String("action", evt.PayloadString("action")))
			return nil
		})
	}
}
