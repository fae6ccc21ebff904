package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusWriter：包装 ResponseWriter 以捕获状态码与写出字节数
// 背景：标准库不暴露已写出的状态，中间件层需要自行记录
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

// WriteHeader：记录状态码并透传
func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Write：累加写出字节数并透传
func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap：供 http.ResponseController 访问底层 ResponseWriter
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// accessLevel：5xx 提升为 Warn，便于在 info 级别下发现数据集不可用
func accessLevel(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}

// 文档注释：访问日志中间件
// 背景：记录方法、路径、级联选择参数、状态、耗时与字节数；不读取请求体。
// 约束：远端地址取 RemoteAddr，反向代理场景下的真实 IP 在业务层解析。
func AccessMiddleware(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r)
			q := r.URL.Query()
			l.Log(context.WithoutCancel(r.Context()), accessLevel(sw.status), "http_access",
				"method", r.Method,
				"path", r.URL.Path,
				"state", q.Get("state"),
				"lga", q.Get("lga"),
				"ward", q.Get("ward"),
				"status", sw.status,
				"bytes", sw.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", r.RemoteAddr,
			)
		})
	}
}
