package location

import (
	"context"
	"errors"
)

var (
	// ErrDatasetUnavailable：州列表无法加载，整个层级不可用
	ErrDatasetUnavailable = errors.New("location dataset unavailable")
	// ErrPartitionNotFound：请求的分区资源不存在
	ErrPartitionNotFound = errors.New("location partition not found")
)

// 文档注释：分区资源加载器
// 背景：每一层对应一个方法，生产环境由内嵌文件/目录/Postgres 提供，测试使用内存夹具。
// 约束：实现无需自带缓存；分区缺失时返回包装了 ErrPartitionNotFound 的错误。
type Loader interface {
	LoadStates(ctx context.Context) ([]State, error)
	LoadLGAPartition(ctx context.Context) (LGAPartition, error)
	LoadWardPartition(ctx context.Context) (WardPartition, error)
	LoadPollingPartition(ctx context.Context, state string) (PollingPartition, error)
}

// Purger：持有外部副本的加载器（如 Redis 读穿透）实现此接口，ClearCache 时一并清理
type Purger interface {
	Purge(ctx context.Context) error
}
