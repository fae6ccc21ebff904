// 数据导入工具：把离线分区目录导入 PostgreSQL，供 LOCATIONS_SOURCE=postgres 使用
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ng-locations/internal/dataset"
	"ng-locations/internal/logger"
	"ng-locations/internal/migrate"
	"ng-locations/internal/partition"
	"ng-locations/internal/store"
	"ng-locations/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	if err := run(l); err != nil {
		l.Error("import_error", "err", err)
		os.Exit(1)
	}
}

// run：读取并校验分区后导入；错误经返回值退出，保证数据库连接被关闭
func run(l *slog.Logger) error {
	dir := utils.EnvOr("IMPORT_DIR", filepath.Join("data", "locations"))
	timeout := time.Duration(utils.EnvInt("IMPORT_TIMEOUT_S", 600)) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var loader = dataset.Embedded()
	if dir != "embed" {
		loader = dataset.NewDirLoader(dir)
	}
	ds, err := partition.Load(ctx, loader)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	if err := partition.Verify(ds); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := store.AttachDB(db).ImportDataset(ctx, ds); err != nil {
		return err
	}
	l.Info("import_done", "dir", dir)
	return nil
}
