// logging.go — slog-логирование HTTP-запросов к Plantstore.
// Кроме метода и пути пишет нормализованный route (тот же, что в лейблах
// метрик) и строку запроса — для /plant важны параметры пагинации.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// loggingResponseWriter — обёртка для перехвата статус-кода и размера ответа.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *loggingResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger возвращает middleware, логирующий каждый HTTP-запрос:
// метод, путь, route, статус, длительность, размер ответа, remote_addr.
// Уровень зависит от статус-кода: INFO (1xx-3xx), WARN (4xx), ERROR (5xx).
// Пробы /health/* и опрос /metrics логируются на уровне DEBUG,
// чтобы kubelet и Prometheus не засоряли журнал.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newLoggingResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			route := normalizePath(r.URL.Path)

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			case isProbePath(route):
				level = slog.LevelDebug
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", duration),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", r.URL.RawQuery))
			}

			logger.LogAttrs(r.Context(), level, "HTTP запрос", attrs...)
		})
	}
}

// isProbePath сообщает, относится ли route к служебным эндпоинтам,
// которые опрашиваются автоматически.
func isProbePath(route string) bool {
	return route == "/metrics" || strings.HasPrefix(route, "/health/")
}
