package partition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ng-locations/internal/dataset"
	"ng-locations/internal/logger"
)

func writeJSON(dir, name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	b = append(b, '\n')
	fp := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.WriteFile(fp, b, 0o644); err != nil {
		return err
	}
	logger.L().Debug("partition_file_written", "file", name, "bytes", len(b))
	return nil
}

// 文档注释：全有或全无地写出分区
// 背景：先写入同级临时目录，全部成功后再替换目标目录；任一步失败都不留下半成品。
// 约束：目标目录已存在时整体替换；替换失败时恢复旧目录。
func Write(dir string, ds *Dataset) error {
	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, ".partition-*")
	if err != nil {
		return err
	}
	done := false
	defer func() {
		if !done {
			_ = os.RemoveAll(tmp)
		}
	}()
	if err := writeJSON(tmp, dataset.StatesFile, ds.States); err != nil {
		return err
	}
	if err := writeJSON(tmp, dataset.LGAsFile, ds.LGAs); err != nil {
		return err
	}
	if err := writeJSON(tmp, dataset.WardsFile, ds.Wards); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(tmp, dataset.PollingDir), 0o755); err != nil {
		return err
	}
	for st, part := range ds.PollingUnits {
		if err := writeJSON(tmp, dataset.PollingFile(st), part); err != nil {
			return err
		}
	}
	// MkdirTemp 创建的目录权限为 0700
	if err := os.Chmod(tmp, 0o755); err != nil {
		return err
	}

	backup := ""
	if _, err := os.Stat(dir); err == nil {
		backup = dir + ".bak-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		if err := os.Rename(dir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		if backup != "" {
			_ = os.Rename(backup, dir)
		}
		return err
	}
	done = true
	if backup != "" {
		_ = os.RemoveAll(backup)
	}
	logger.L().Info("partition_write_done", "dir", dir, "states", len(ds.States))
	return nil
}
