// Пакет server — HTTP-сервер Plantstore с graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/plantstore/internal/api/handlers"
	"github.com/arturkryukov/plantstore/internal/api/middleware"
	"github.com/arturkryukov/plantstore/internal/config"
)

// Server — HTTP-сервер Plantstore.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// При локальном бэкенде изображений дополнительно отдаёт статические
// файлы из директории данных на /images/*.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	plants *handlers.PlantHandler,
	health *handlers.HealthHandler,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Каталог растений
	router.Route("/plant", func(r chi.Router) {
		r.Post("/", plants.Create)
		r.Get("/", plants.List)
		r.Get("/{id}", plants.Get)
		r.Put("/{id}", plants.Update)
		r.Delete("/{id}", plants.Delete)
	})

	// Health endpoints и метрики
	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	// Статические изображения при локальном бэкенде
	if cfg.AssetBackend == config.AssetBackendLocal {
		fileServer := http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.DataDir)))
		router.Get("/images/*", func(w http.ResponseWriter, r *http.Request) {
			fileServer.ServeHTTP(w, r)
		})
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown с таймаутом
// PS_SHUTDOWN_TIMEOUT.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
			slog.String("asset_backend", s.cfg.AssetBackend),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
