package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	batchService "github.com/cmlabs-hris/hris-payroll-go/internal/service/batch"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	settingsService "github.com/cmlabs-hris/hris-payroll-go/internal/service/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so deferred closes run before main exits.
func run(cfg *config.Config) error {
	logger := appHTTP.NewLogger(cfg.App.Env, cfg.SlogLevel())
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(context.Background(), cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	settingsCache := cache.NewNopCache()
	if cfg.Redis.Addr != "" {
		client, err := cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		defer client.Close()
		settingsCache = cache.NewRedisCache(client, "payroll")
	} else {
		slog.Warn("REDIS_ADDR not set, settings cache disabled")
	}

	transactor := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	loanRepo := postgresql.NewLoanRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	arrearsRepo := postgresql.NewArrearsRepository(db)
	txnLogRepo := postgresql.NewTransactionLogRepository(db)
	batchRepo := postgresql.NewBatchRepository(db)
	ruleRepo := postgresql.NewRuleRepository(db)
	settingsRepo := postgresql.NewSettingsRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	resolver := settingsService.NewRuleResolver(ruleRepo, settingsRepo, settingsCache, settingsService.ClampTTL(cfg.Payroll.SettingsCacheTTL))
	payrollSvc := payrollService.NewPayrollService(
		transactor,
		payrollRepo,
		batchRepo,
		employeeRepo,
		attendanceRepo,
		loanRepo,
		arrearsRepo,
		txnLogRepo,
		resolver,
	)
	batchSvc := batchService.NewBatchService(
		transactor,
		batchRepo,
		payrollRepo,
		employeeRepo,
		payrollSvc,
		cfg.Payroll.RecalculationExpiryHours,
	)
	settingsSvc := settingsService.NewSettingsService(ruleRepo, settingsRepo, resolver)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
		},
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewBatchHandler(batchSvc),
		appHTTP.NewSettingsHandler(settingsSvc),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := cron.NewScheduler()
	cron.NewBatchJobs(batchSvc, cfg.Payroll.PermissionSweepInterval).RegisterJobs(scheduler)
	scheduler.Start(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err := <-serveErr:
		scheduler.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
	return nil
}
