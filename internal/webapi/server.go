package webapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/rentbook/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/rentbook/internal/store/kvstore"
	"github.com/MarkoPoloResearchLab/rentbook/pkg/rentbook"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Run boots the HTTP surface using the supplied configuration.
func Run(ctx context.Context, cfg Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	bookStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	service, err := rentbook.NewService(bookStore, time.Now,
		rentbook.WithOperationLogger(newZapOperationLogger(logger)))
	if err != nil {
		return fmt.Errorf("service init: %w", err)
	}

	handler := &httpHandler{
		logger:  logger,
		service: service,
		cfg:     cfg,
	}

	router := setupRouter(cfg, handler)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rentbook listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func openStore(cfg Config) (rentbook.Store, error) {
	if cfg.DatabaseURL != "" {
		return gormstore.Open(cfg.DatabaseURL, cfg.DocumentKey)
	}
	return kvstore.New(kvstore.Config{
		BaseURL: cfg.KVRestURL,
		Token:   cfg.KVRestToken,
		Key:     cfg.DocumentKey,
	})
}

func setupRouter(cfg Config, handler *httpHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(requestMetrics())

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/api/auth", handler.handleAuth)

	api := router.Group("/api")
	api.Use(handler.sessionMiddleware())

	api.GET("/store", handler.handleGetStore)
	api.POST("/store", handler.handlePostStore)
	api.GET("/report", handler.handleReport)

	return router
}

type httpHandler struct {
	logger  *zap.Logger
	service *rentbook.Service
	cfg     Config
}

func (handler *httpHandler) handleGetStore(ctx *gin.Context) {
	requestCtx, cancel := context.WithTimeout(ctx.Request.Context(), handler.cfg.StoreTimeout)
	defer cancel()

	book, err := handler.service.Book(requestCtx)
	if err != nil {
		handler.logger.Error("document load failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("store_unavailable", "backing store request failed"))
		return
	}
	ctx.JSON(http.StatusOK, book)
}

func (handler *httpHandler) handlePostStore(ctx *gin.Context) {
	raw, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	action, err := rentbook.DecodeAction(raw)
	if err != nil {
		handler.respondMutationError(ctx, err)
		return
	}

	requestCtx, cancel := context.WithTimeout(ctx.Request.Context(), handler.cfg.StoreTimeout)
	defer cancel()

	if _, err := handler.service.Apply(requestCtx, action); err != nil {
		handler.respondMutationError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (handler *httpHandler) handleReport(ctx *gin.Context) {
	window := rentbook.Window{}
	if since := ctx.Query("since"); since != "" {
		date, err := rentbook.ParseDate(since)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "since must be YYYY-MM-DD"))
			return
		}
		window.Since = date
	}

	requestCtx, cancel := context.WithTimeout(ctx.Request.Context(), handler.cfg.StoreTimeout)
	defer cancel()

	report, err := handler.service.Report(requestCtx, window)
	if err != nil {
		handler.logger.Error("report failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("store_unavailable", "backing store request failed"))
		return
	}
	ctx.JSON(http.StatusOK, report)
}

func (handler *httpHandler) respondMutationError(ctx *gin.Context, err error) {
	switch {
	case rentbook.IsNotFound(err):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case rentbook.IsInvalid(err):
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", err.Error()))
	default:
		handler.logger.Error("mutation failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("store_unavailable", "backing store request failed"))
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

type zapOperationLogger struct {
	logger *zap.Logger
}

func newZapOperationLogger(logger *zap.Logger) *zapOperationLogger {
	return &zapOperationLogger{logger: logger}
}

func (operationLogger *zapOperationLogger) LogOperation(_ context.Context, entry rentbook.OperationLog) {
	if entry.Error != nil {
		operationLogger.logger.Warn("mutation rejected",
			zap.String("action", entry.Action),
			zap.String("status", entry.Status),
			zap.Error(entry.Error))
		return
	}
	operationLogger.logger.Info("mutation applied",
		zap.String("action", entry.Action),
		zap.String("status", entry.Status))
}
