package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"ng-locations/internal/logger"
	"ng-locations/internal/metrics"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	tierStates  = "states"
	tierLGAs    = "lgas"
	tierWards   = "wards"
	tierPolling = "polling"

	// 记录为不存在的州分区上限，超出后不再记录
	maxMissingPolling = 256
	purgeTimeout      = 5 * time.Second
)

// 文档注释：四级行政区缓存服务
// 背景：包装 Loader，为每一层提供进程内缓存与惰性加载；同一层同一键的并发请求合并为一次加载。
// 约束：每个分区在 ClearCache 之前至多解析一次；LGA/选区分区整体加载一次后再按键切片缓存，投票站按州分区加载。
// 约束：ClearCache 不取消进行中的加载，加载完成后写入新的缓存映射，可被下一次 ClearCache 清除。
type Service struct {
	loader Loader
	group  singleflight.Group

	mu         sync.RWMutex
	states     []State
	statesOK   bool
	lgaPart    LGAPartition
	lgaByState map[string][]LGA
	wardPart   WardPartition
	wardsByKey map[string][]Ward
	polling    map[string]PollingPartition
	missing    map[string]struct{}
	// 各分区加载时的 JSON 体积，键为 tier 或 polling:{state}
	sizes map[string]int
}

func NewService(loader Loader) *Service {
	s := &Service{loader: loader}
	s.reset()
	return s
}

func (s *Service) reset() {
	s.states = nil
	s.statesOK = false
	s.lgaPart = nil
	s.lgaByState = make(map[string][]LGA)
	s.wardPart = nil
	s.wardsByKey = make(map[string][]Ward)
	s.polling = make(map[string]PollingPartition)
	s.missing = make(map[string]struct{})
	s.sizes = make(map[string]int)
}

func jsonSize(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}

// 文档注释：合并加载
// 背景：先查缓存；未命中时以 tier:key 进入 singleflight，飞行内再查一次缓存，避免上一轮刚写入后重复加载。
// 约束：共享加载使用脱离取消的上下文，调用方取消只释放自身等待，不影响其他等待者。
func materialize[T any](ctx context.Context, s *Service, tier, key string, peek func() (T, bool), load func(context.Context) (T, error), keep func(T)) (T, error) {
	var zero T
	if v, ok := peek(); ok {
		metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
		return v, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(tier+":"+key, func() (any, error) {
		if v, ok := peek(); ok {
			return v, nil
		}
		t0 := time.Now()
		metrics.PartitionLoadsTotal.WithLabelValues(tier).Inc()
		v, err := load(loadCtx)
		metrics.PartitionLoadDurationMs.WithLabelValues(tier).Observe(float64(time.Since(t0).Milliseconds()))
		if err != nil {
			metrics.PartitionLoadFailuresTotal.WithLabelValues(tier).Inc()
			return nil, err
		}
		keep(v)
		logger.L().Debug("partition_loaded", "tier", tier, "key", key, "duration_ms", time.Since(t0).Milliseconds())
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

// States：加载并缓存州列表；失败时返回包装 ErrDatasetUnavailable 的错误
func (s *Service) States(ctx context.Context) ([]State, error) {
	st, err := materialize(ctx, s, tierStates, "all",
		func() ([]State, bool) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.states, s.statesOK
		},
		s.loader.LoadStates,
		func(v []State) {
			n := jsonSize(v)
			s.mu.Lock()
			s.states = v
			s.statesOK = true
			s.sizes[tierStates] = n
			s.mu.Unlock()
		})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.L().Error("states_load_error", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	return slices.Clone(st), nil
}

func (s *Service) lgaPartition(ctx context.Context) (LGAPartition, error) {
	return materialize(ctx, s, tierLGAs, "all",
		func() (LGAPartition, bool) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.lgaPart, s.lgaPart != nil
		},
		s.loader.LoadLGAPartition,
		func(v LGAPartition) {
			if v == nil {
				v = LGAPartition{}
			}
			n := jsonSize(v)
			s.mu.Lock()
			s.lgaPart = v
			s.sizes[tierLGAs] = n
			s.mu.Unlock()
		})
}

func (s *Service) wardPartition(ctx context.Context) (WardPartition, error) {
	return materialize(ctx, s, tierWards, "all",
		func() (WardPartition, bool) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.wardPart, s.wardPart != nil
		},
		s.loader.LoadWardPartition,
		func(v WardPartition) {
			if v == nil {
				v = WardPartition{}
			}
			n := jsonSize(v)
			s.mu.Lock()
			s.wardPart = v
			s.sizes[tierWards] = n
			s.mu.Unlock()
		})
}

// pollingPartition：已确认不存在的州直接返回 ErrPartitionNotFound，不再访问加载器
func (s *Service) pollingPartition(ctx context.Context, state string) (PollingPartition, error) {
	s.mu.RLock()
	_, gone := s.missing[state]
	s.mu.RUnlock()
	if gone {
		metrics.CacheHitsTotal.WithLabelValues(tierPolling).Inc()
		return nil, fmt.Errorf("%w: polling units for %q", ErrPartitionNotFound, state)
	}
	part, err := materialize(ctx, s, tierPolling, state,
		func() (PollingPartition, bool) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			p, ok := s.polling[state]
			return p, ok
		},
		func(ctx context.Context) (PollingPartition, error) {
			return s.loader.LoadPollingPartition(ctx, state)
		},
		func(v PollingPartition) {
			if v == nil {
				v = PollingPartition{}
			}
			n := jsonSize(v)
			s.mu.Lock()
			s.polling[state] = v
			s.sizes[tierPolling+":"+state] = n
			s.mu.Unlock()
		})
	if errors.Is(err, ErrPartitionNotFound) {
		s.mu.Lock()
		if len(s.missing) < maxMissingPolling {
			s.missing[state] = struct{}{}
		}
		s.mu.Unlock()
	}
	return part, err
}

// LGAsForState：返回某州的 LGA 列表；空输入、未知州或分区加载失败均返回空切片
func (s *Service) LGAsForState(ctx context.Context, state string) ([]LGA, error) {
	if state == "" {
		return []LGA{}, nil
	}
	s.mu.RLock()
	list, ok := s.lgaByState[state]
	s.mu.RUnlock()
	if ok {
		metrics.CacheHitsTotal.WithLabelValues(tierLGAs).Inc()
		return slices.Clone(list), nil
	}
	part, err := s.lgaPartition(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.L().Warn("lga_partition_load_error", "state", state, "err", err)
		return []LGA{}, nil
	}
	list, ok = part[state]
	if !ok {
		logger.L().Debug("lga_partition_missing", "state", state)
		return []LGA{}, nil
	}
	s.mu.Lock()
	s.lgaByState[state] = list
	s.mu.Unlock()
	return slices.Clone(list), nil
}

// WardsForLGA：按 "{state}-{lga}" 返回选区列表；任一输入为空或键不存在返回空切片
func (s *Service) WardsForLGA(ctx context.Context, state, lga string) ([]Ward, error) {
	if state == "" || lga == "" {
		return []Ward{}, nil
	}
	key := WardKey(state, lga)
	s.mu.RLock()
	list, ok := s.wardsByKey[key]
	s.mu.RUnlock()
	if ok {
		metrics.CacheHitsTotal.WithLabelValues(tierWards).Inc()
		return slices.Clone(list), nil
	}
	part, err := s.wardPartition(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.L().Warn("ward_partition_load_error", "key", key, "err", err)
		return []Ward{}, nil
	}
	list, ok = part[key]
	if !ok {
		logger.L().Debug("ward_partition_missing", "key", key)
		return []Ward{}, nil
	}
	s.mu.Lock()
	s.wardsByKey[key] = list
	s.mu.Unlock()
	return slices.Clone(list), nil
}

// PollingUnitsForWard：仅加载该州的投票站分区，再按 "{state}-{lga}-{ward}" 取值
func (s *Service) PollingUnitsForWard(ctx context.Context, state, lga, ward string) ([]PollingUnit, error) {
	if state == "" || lga == "" || ward == "" {
		return []PollingUnit{}, nil
	}
	part, err := s.pollingPartition(ctx, state)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrPartitionNotFound) {
			logger.L().Debug("polling_partition_missing", "state", state)
		} else {
			logger.L().Warn("polling_partition_load_error", "state", state, "err", err)
		}
		return []PollingUnit{}, nil
	}
	key := PollingKey(state, lga, ward)
	list, ok := part[key]
	if !ok {
		logger.L().Debug("polling_partition_missing", "key", key)
		return []PollingUnit{}, nil
	}
	return slices.Clone(list), nil
}

// 文档注释：丢弃全部缓存，之后的访问重新触发加载
// 约束：加载器实现 Purger 时先清理其外部副本，再清空进程内缓存；清理失败只记录日志。
func (s *Service) ClearCache() {
	if p, ok := s.loader.(Purger); ok {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		err := p.Purge(ctx)
		cancel()
		if err != nil {
			logger.L().Warn("loader_purge_error", "err", err)
		}
	}
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	metrics.CacheClearsTotal.Inc()
	logger.L().Info("location_cache_cleared")
}

// 文档注释：预热
// 背景：服务启动时并发加载州列表、LGA 与选区分区，缩短首个级联请求的延迟。
// 约束：州列表失败返回错误；下级分区失败仅记录日志。
func (s *Service) Preload(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.States(gctx)
		return err
	})
	g.Go(func() error {
		if _, err := s.lgaPartition(gctx); err != nil {
			logger.L().Warn("preload_lgas_error", "err", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.wardPartition(gctx); err != nil {
			logger.L().Warn("preload_wards_error", "err", err)
		}
		return nil
	})
	return g.Wait()
}
