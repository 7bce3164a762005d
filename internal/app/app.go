package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "energyshare/docs"
	"energyshare/internal/apiclient"
	"energyshare/internal/config"
	"energyshare/internal/handlers"
	"energyshare/internal/middleware"
	"energyshare/internal/pdf"
	"energyshare/internal/realtime"
	"energyshare/internal/repositories"
	"energyshare/internal/routes"
	"energyshare/internal/services"
	"energyshare/internal/session"
	"energyshare/internal/validation"
)

// App owns the HTTP server and everything it holds open.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	router  *gin.Engine
	hub     *realtime.PaymentHub
	limiter *middleware.RateLimiter
	redis   *redis.Client
}

// New wires the BFF against cfg. The caller must Close the result.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	validation.Setup()
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{cfg: cfg, log: log}
	repo, err := a.statusRepository()
	if err != nil {
		return nil, err
	}

	// === Services ===
	api := apiclient.New(cfg.API.URL, cfg.API.Timeout, log)
	sm := session.NewManager(cfg.Session, cfg.Server.SecureCookies)

	authService := services.NewAuthService(api, log)
	accountService := services.NewAccountService(api, log)
	meterService := services.NewMeterService(api, log)
	loanService := services.NewLoanService(api, log)
	unitsService := services.NewUnitsService(api, log)
	dashboardService := services.NewDashboardService(accountService, meterService, loanService, log)
	adminService := services.NewAdminService(services.NewRefreshingBackend(api, authService, log), log)
	tracker := services.NewPaymentTracker(api, repo, cfg.Polling, cfg.Sandbox, log)

	a.hub = realtime.NewPaymentHub(tracker, log)
	receipts := pdf.NewReceiptGenerator("", cfg.Server.ReceiptFont)

	// === Handlers ===
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, sm, log),
		Dashboard: handlers.NewDashboardHandler(dashboardService, sm, log),
		Account:   handlers.NewAccountHandler(accountService, sm, log),
		Meter:     handlers.NewMeterHandler(meterService, accountService, receipts, sm, log),
		Loan:      handlers.NewLoanHandler(loanService, sm, log),
		Units:     handlers.NewUnitsHandler(unitsService, sm, log),
		Payment:   handlers.NewPaymentHandler(tracker, realtime.NewStream(a.hub, cfg.Server.AllowedOrigins, log), sm, log),
		Admin:     handlers.NewAdminHandler(adminService, sm, log),
	}

	a.limiter = middleware.NewRateLimiter(cfg.RateLimit.LoginCapacity, cfg.RateLimit.LoginWindow)
	g := routes.Guards{
		Session:   middleware.RequireSession(sm),
		Admin:     middleware.RequireAdmin(adminService, sm, log),
		RateLimit: middleware.RateLimit(a.limiter),
	}

	// === Gin ===
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(log))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = routes.SetupRoutes(router, h, g)
	return a, nil
}

// statusRepository prefers redis and falls back to process memory when no
// address is configured or the server does not answer.
func (a *App) statusRepository() (repositories.PaymentStatusRepository, error) {
	rc := a.cfg.Redis
	if rc.Addr == "" {
		a.log.Info("[app][redis] not configured, payment outcomes kept in memory")
		return repositories.NewMemoryPaymentStatusRepository(rc.StatusTTL), nil
	}

	client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		a.log.Warn("[app][redis] ping failed, payment outcomes kept in memory", zap.String("addr", rc.Addr), zap.Error(err))
		_ = client.Close()
		return repositories.NewMemoryPaymentStatusRepository(rc.StatusTTL), nil
	}
	a.redis = client
	return repositories.NewRedisPaymentStatusRepository(client, rc.StatusTTL), nil
}

func (a *App) Handler() http.Handler { return a.router }

// Run serves until ctx is done, then drains in-flight requests for at most
// the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("[app][run] listening", zap.String("addr", srv.Addr), zap.String("api", a.cfg.API.URL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("[app][run] shutting down")
	// websockets are hijacked, so Shutdown does not wait for them
	a.hub.Close()
	sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops background work. Safe to call after Run returns.
func (a *App) Close() error {
	a.hub.Close()
	a.limiter.Stop()
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
