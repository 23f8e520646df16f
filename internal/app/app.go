package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kitbase/authsync/internal/backend"
	"github.com/kitbase/authsync/internal/config"
	"github.com/kitbase/authsync/internal/flows"
	"github.com/kitbase/authsync/internal/handler"
	"github.com/kitbase/authsync/internal/session"
	"github.com/kitbase/authsync/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra    Infrastructure
	config   *config.Config
	router   *gin.Engine
	server   *http.Server
	provider backend.Provider
	store    *session.Store
	bridge   *session.Bridge
	otp      *flows.OTPFlow
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	provider, err := backend.New(cfg, backend.Deps{
		Logger: infra.Logger(),
		Tokens: infra.Tokens(),
		NATS:   infra.NATS(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	store := session.NewStore(provider, infra.Logger())
	bridge := session.NewBridge(store, infra.Logger(), session.BridgeOptions{
		StallTimeout:  cfg.Flow.PlaceholderStall.Duration,
		NominalExpiry: cfg.Streamdoc.NominalExpiry.Duration,
	})

	resetFlow := flows.NewResetFlow(store, infra.Logger(), cfg.Flow.PasswordUpdateTimeout.Duration)
	callbackFlow := flows.NewCallbackFlow(store, infra.Logger(),
		cfg.Flow.CallbackWait.Duration, cfg.Flow.CallbackRetryDelay.Duration)

	// Resending sends a fresh code to the pending user's address; codes
	// delivered this way are accepted by the verify fallback path.
	otpFlow := flows.NewOTPFlow(store, infra.Logger(), func(ctx context.Context) error {
		snap := store.Snapshot()
		if snap.User == nil {
			return fmt.Errorf("no pending verification")
		}
		return store.ResetPassword(ctx, snap.User.Email)
	}, int(cfg.Flow.ResendCooldown.Duration.Seconds()))

	authHandler := handler.NewAuthHandler(store, resetFlow, otpFlow)
	sessionHandler := handler.NewSessionHandler(store)
	callbackHandler := handler.NewCallbackHandler(callbackFlow, infra.Logger())
	healthChecker := NewHealthChecker(infra, provider)

	router := gin.Default()
	router.Use(otelgin.Middleware("authsync"))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, authHandler, sessionHandler, callbackHandler, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:    infra,
		config:   cfg,
		router:   router,
		server:   srv,
		provider: provider,
		store:    store,
		bridge:   bridge,
		otp:      otpFlow,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Store exposes the session store for embedding callers that skip the HTTP
// surface.
func (a *App) Store() *session.Store {
	return a.store
}

func setupRoutes(
	router *gin.Engine,
	authHandler *handler.AuthHandler,
	sessionHandler *handler.SessionHandler,
	callbackHandler *handler.CallbackHandler,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)
	router.GET("/auth/callback", callbackHandler.Handle)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signin", authHandler.SignIn)
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/signout", authHandler.SignOut)
			auth.POST("/verify", authHandler.Verify)
			auth.POST("/resend", authHandler.Resend)
			auth.POST("/reset", authHandler.Reset)
			auth.POST("/password", authHandler.UpdatePassword)
		}

		api.GET("/session", sessionHandler.Get)
		api.GET("/session/watch", sessionHandler.Watch)
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.bridge != nil {
		go a.bridge.Run(ctx)
	}
	a.store.Initialize(ctx)

	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
			zap.String("backend", a.config.Backend.Provider),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")
	a.otp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 3)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.provider.Close()
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
