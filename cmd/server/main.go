package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fx-autopilot/internal/advisor"
	"fx-autopilot/internal/bot"
	"fx-autopilot/internal/broker"
	"fx-autopilot/internal/cache"
	"fx-autopilot/internal/config"
	"fx-autopilot/internal/db"
	"fx-autopilot/internal/handler"
	"fx-autopilot/internal/job"
	"fx-autopilot/internal/provider"
	"fx-autopilot/internal/repository"
	"fx-autopilot/internal/service"
	"fx-autopilot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "fx-autopilot/docs"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newBrokerFunc    = func(baseURL string, tracer trace.Tracer) brokerGateway {
		return broker.NewClient(baseURL, tracer)
	}
	newLLMClientFunc = advisor.NewOpenAIClient
	startCycleFunc   = func(c *job.TradeCycle, ctx context.Context) { go c.Start(ctx) }
	startRefreshFunc = func(r *job.CalendarRefresher, ctx context.Context) {
		go func() {
			if err := r.Start(ctx); err != nil {
				log.Printf("calendar refresher failed: %v", err)
			}
		}()
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// brokerGateway is everything main needs from the MT5 gateway client.
type brokerGateway interface {
	Login(ctx context.Context, account int64, password, server string) error
	Shutdown(ctx context.Context) error
	service.Broker
	service.OrderBroker
}

// @title           FX Autopilot API
// @version         1.0
// @description     LLM-driven forex trading bot with a read-only monitoring API.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories and migrations. Signals first: trades reference them.
	signalRepo := repository.NewSignalRepository(db.Pool, tracer)
	tradeRepo := repository.NewTradeRepository(db.Pool, tracer)
	investmentRepo := repository.NewInvestmentRepository(db.Pool, tracer)
	snapshotRepo := repository.NewSnapshotRepository(db.Pool, tracer)
	newsRepo := repository.NewNewsRepository(db.Pool, tracer)
	if db.Pool != nil {
		for _, migrate := range []func(context.Context) error{
			signalRepo.RunMigrations,
			tradeRepo.RunMigrations,
			investmentRepo.RunMigrations,
			snapshotRepo.RunMigrations,
			newsRepo.RunMigrations,
		} {
			if err := migrate(ctx); err != nil {
				log.Fatalf("failed to run migrations: %v", err)
			}
		}
	}

	// Broker gateway. No session means no trading, so a failed login is fatal.
	gateway := newBrokerFunc(cfg.BrokerURL, tracer)
	if err := gateway.Login(ctx, cfg.BrokerAccount, cfg.BrokerPassword, cfg.BrokerServer); err != nil {
		log.Fatalf("broker login failed: %v", err)
	}

	calendar := provider.NewCalendarProvider(cfg.NewsCalendarURL, tracer)
	engine := advisor.New(tracer, newLLMClientFunc(cfg.OpenAIAPIKey), cfg.OpenAIModel, cfg.Symbol, cfg.SystemPrompt)

	reconciler := service.NewReconciler(tracer, tradeRepo, signalRepo)
	marketData := service.NewMarketDataService(tracer, gateway, tradeRepo, snapshotRepo, cache.Client,
		cfg.Symbol, cfg.DailyProfitTarget, cfg.Location())
	capital := service.NewCapitalService(tracer, investmentRepo, cfg.DailyInvestmentLimit, cfg.Location())
	executor := service.NewExecutorService(tracer, gateway, reconciler, cfg.Symbol, cfg.Deviation)

	cycle := job.NewTradeCycle(tracer, calendar, engine, marketData, capital, executor,
		signalRepo, reconciler, cache.Client,
		cfg.Symbol, cfg.BaseLot, cfg.ContractSize, cfg.CheckInterval(), cfg.NewsHeadlines, cfg.NewsMaxRetries)
	startCycleFunc(cycle, ctx)

	refresher := job.NewCalendarRefresher(tracer, calendar, newsRepo, cfg.NewsRefreshCron)
	startRefreshFunc(refresher, ctx)

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(tradeRepo, newsRepo, cycle)

	h := handler.New(tracer, tradeRepo, signalRepo, capital, marketData, newsRepo, cycle, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("fx-autopilot"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := gateway.Shutdown(shutdownCtx); err != nil {
		log.Printf("broker shutdown failed: %v", err)
	}
	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
