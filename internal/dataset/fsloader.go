// 包 dataset：分区资源的文件布局与加载器实现（内嵌、目录、Redis 读穿透）
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"ng-locations/internal/location"
	"ng-locations/internal/logger"
)

// 分区文件布局，离线分区工具与加载器共用
const (
	StatesFile = "states.json"
	LGAsFile   = "lgas.json"
	WardsFile  = "wards.json"
	PollingDir = "polling-units"
)

// PollingFile：某州投票站分区的相对路径
func PollingFile(state string) string { return path.Join(PollingDir, state+".json") }

// 文档注释：基于 fs.FS 的分区加载器
// 背景：同一实现覆盖内嵌资源（embed.FS）、磁盘目录（os.DirFS）与测试夹具（fstest.MapFS）。
// 约束：不做缓存；文件缺失返回包装 location.ErrPartitionNotFound 的错误，JSON 解析失败原样包装返回。
type FSLoader struct {
	fsys fs.FS
}

func NewFSLoader(fsys fs.FS) *FSLoader { return &FSLoader{fsys: fsys} }

// NewDirLoader：从磁盘目录加载（离线分区工具的输出目录）
func NewDirLoader(dir string) *FSLoader { return NewFSLoader(os.DirFS(dir)) }

func readJSON[T any](ctx context.Context, fsys fs.FS, name string) (T, error) {
	var out T
	if err := ctx.Err(); err != nil {
		return out, err
	}
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, fmt.Errorf("%w: %s", location.ErrPartitionNotFound, name)
		}
		return out, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("parse %s: %w", name, err)
	}
	logger.L().Debug("dataset_file_read", "file", name, "bytes", len(b))
	return out, nil
}

func (l *FSLoader) LoadStates(ctx context.Context) ([]location.State, error) {
	return readJSON[[]location.State](ctx, l.fsys, StatesFile)
}

func (l *FSLoader) LoadLGAPartition(ctx context.Context) (location.LGAPartition, error) {
	return readJSON[location.LGAPartition](ctx, l.fsys, LGAsFile)
}

func (l *FSLoader) LoadWardPartition(ctx context.Context) (location.WardPartition, error) {
	return readJSON[location.WardPartition](ctx, l.fsys, WardsFile)
}

// LoadPollingPartition：州值必须是单段合法路径，防止越界读取
func (l *FSLoader) LoadPollingPartition(ctx context.Context, state string) (location.PollingPartition, error) {
	if state == "" || strings.ContainsAny(state, `/\`) || !fs.ValidPath(state) {
		return nil, fmt.Errorf("%w: invalid state %q", location.ErrPartitionNotFound, state)
	}
	return readJSON[location.PollingPartition](ctx, l.fsys, PollingFile(state))
}
