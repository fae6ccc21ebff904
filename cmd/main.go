// 程序入口：读取配置、组装加载器与缓存服务并启动 HTTP 服务；路由注册在 internal/api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ng-locations/internal/api"
	"ng-locations/internal/dataset"
	"ng-locations/internal/geoip"
	"ng-locations/internal/location"
	"ng-locations/internal/logger"
	"ng-locations/internal/metrics"
	"ng-locations/internal/store"
	"ng-locations/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：按 LOCATIONS_SOURCE 组装分区加载器
// 背景：embed（默认，随二进制发布）/ dir（离线工具输出目录）/ postgres（导入后的数据库）；配置了 Redis 时外层包一层读穿透。
// 返回：加载器与释放连接的清理函数。
func buildLoader(ctx context.Context, l *slog.Logger) (location.Loader, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	var loader location.Loader
	src := utils.EnvOr("LOCATIONS_SOURCE", "embed")
	switch src {
	case "dir":
		dir := utils.EnvOr("LOCATIONS_DIR", filepath.Join("data", "locations"))
		l.Info("loader_dir", "dir", dir)
		loader = dataset.NewDirLoader(dir)
	case "postgres":
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := db.PingContext(ctx); err != nil {
			return nil, cleanup, err
		}
		l.Info("loader_postgres")
		loader = store.AttachDB(db)
	default:
		l.Info("loader_embed")
		loader = dataset.Embedded()
	}

	rc, err := utils.OpenRedisFromEnv()
	if err != nil {
		l.Error("redis_config_error", "err", err)
	}
	if rc == nil {
		l.Info("redis_disabled")
		return loader, cleanup, nil
	}
	closers = append(closers, func() { _ = rc.Close() })
	if err := rc.Ping(ctx).Err(); err != nil {
		// Redis 故障时读穿透会自动回退源加载器
		l.Error("redis_ping_error", "err", err)
	} else {
		l.Info("redis_ping_ok")
	}
	ttl := time.Duration(utils.EnvInt("LOCATIONS_REDIS_TTL_S", 86400)) * time.Second
	return dataset.NewRedisLoader(loader, rc, ttl), cleanup, nil
}

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	l.Debug("log_init_ok")
	if err := run(l); err != nil {
		l.Error("fatal", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_ok")
}

// 文档注释：组装并运行服务
// 约束：所有致命错误经返回值交给 main 退出，保证 defer 中的连接清理总会执行。
func run(l *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, cleanup, err := buildLoader(ctx, l)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("loader init: %w", err)
	}
	svc := location.NewService(loader)
	if utils.EnvBool("LOCATIONS_PRELOAD", false) {
		pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := svc.Preload(pctx)
		cancel()
		if err != nil {
			return fmt.Errorf("preload: %w", err)
		}
		l.Info("preload_ok", "stats", svc.CacheStats())
	}

	var sg *geoip.Suggester
	if p := os.Getenv("GEOIP_CITY_DB"); p != "" {
		if sg, err = geoip.Open(p, svc); err != nil {
			l.Error("geoip_open_error", "path", p, "err", err)
			sg = nil
		} else {
			defer sg.Close()
			l.Info("geoip_ready", "path", p)
		}
	}

	apiBase := utils.EnvOr("API_BASE", "/api")
	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, api.BuildRoutes(svc, sg, os.Getenv("ADMIN_TOKEN"))))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	addr := utils.EnvOr("ADDR", ":8080")
	s := &http.Server{Addr: addr, Handler: logger.AccessMiddleware(l)(mux), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()
	if utils.EnvBool("TLS_ENABLE", false) {
		certPath := utils.EnvOr("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := utils.EnvOr("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "locations.local"); err != nil {
			return fmt.Errorf("tls cert: %w", err)
		}
		l.Info("listening_tls", "addr", addr, "base", apiBase, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr, "base", apiBase)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return nil
}
