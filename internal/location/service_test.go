package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatesLoadedOnce(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)
	ctx := context.Background()

	first, err := svc.States(ctx)
	require.NoError(t, err)
	second, err := svc.States(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, f.count("states"))
}

func TestStatesReturnsCopy(t *testing.T) {
	svc := NewService(newFakeLoader())
	ctx := context.Background()

	st, err := svc.States(ctx)
	require.NoError(t, err)
	st[0].Name = "mutated"

	again, err := svc.States(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Abia", again[0].Name)
}

func TestStatesFailureIsDatasetUnavailable(t *testing.T) {
	f := newFakeLoader()
	f.errStates = errors.New("disk gone")
	svc := NewService(f)

	_, err := svc.States(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
	assert.Contains(t, err.Error(), "disk gone")

	// 失败不缓存，下次调用重试
	_, err = svc.States(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, f.count("states"))
	assert.False(t, svc.CacheStats().States)
}

func TestLGAsPartitionLoadedOnceAcrossStates(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)
	ctx := context.Background()

	lagos, err := svc.LGAsForState(ctx, "lagos")
	require.NoError(t, err)
	require.Len(t, lagos, 2)
	assert.Equal(t, "Eti Osa", lagos[0].Name)
	assert.Equal(t, "lagos", lagos[0].State)

	again, err := svc.LGAsForState(ctx, "lagos")
	require.NoError(t, err)
	assert.Equal(t, lagos, again)

	abia, err := svc.LGAsForState(ctx, "abia")
	require.NoError(t, err)
	assert.Len(t, abia, 1)

	assert.Equal(t, 1, f.count("lgas"))
}

func TestLGAsEmptyAndUnknownState(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)
	ctx := context.Background()

	got, err := svc.LGAsForState(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, f.count("lgas"))

	got, err = svc.LGAsForState(ctx, "atlantis")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, svc.CacheStats().LGAStates)
}

func TestWardsUnknownLGA(t *testing.T) {
	svc := NewService(newFakeLoader())
	ctx := context.Background()

	got, err := svc.WardsForLGA(ctx, "lagos", "aba-north")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.WardsForLGA(ctx, "lagos", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.WardsForLGA(ctx, "lagos", "ikeja")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ward_1", got[1].Name)
	assert.Equal(t, "ikeja", got[1].LGA)
}

func TestLowerTierFailuresDegradeToEmpty(t *testing.T) {
	f := newFakeLoader()
	f.errLGAs = errors.New("lgas corrupt")
	f.errWards = errors.New("wards corrupt")
	f.errPolling = errors.New("polling corrupt")
	svc := NewService(f)
	ctx := context.Background()

	lgas, err := svc.LGAsForState(ctx, "lagos")
	require.NoError(t, err)
	assert.Empty(t, lgas)

	wards, err := svc.WardsForLGA(ctx, "lagos", "ikeja")
	require.NoError(t, err)
	assert.Empty(t, wards)

	pus, err := svc.PollingUnitsForWard(ctx, "lagos", "ikeja", "ward_1")
	require.NoError(t, err)
	assert.Empty(t, pus)

	// 州列表不受下级分区故障影响
	st, err := svc.States(ctx)
	require.NoError(t, err)
	assert.Len(t, st, 2)
}

func TestPollingLoadsOnlyRequestedState(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)
	ctx := context.Background()

	pus, err := svc.PollingUnitsForWard(ctx, "lagos", "ikeja", "ward_1")
	require.NoError(t, err)
	require.Len(t, pus, 1)
	assert.Equal(t, "Central Primary School", pus[0].Name)

	_, err = svc.PollingUnitsForWard(ctx, "lagos", "ikeja", "alausa")
	require.NoError(t, err)

	assert.Equal(t, 1, f.count("polling:lagos"))
	assert.Equal(t, 0, f.count("polling:abia"))
	assert.Equal(t, 1, svc.CacheStats().PollingStates)
}

func TestPollingMissingStatePartition(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)

	got, err := svc.PollingUnitsForWard(context.Background(), "kano", "nassarawa", "gama")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, svc.CacheStats().PollingStates)
}

func TestConcurrentWardsSingleLoad(t *testing.T) {
	f := newFakeLoader()
	release := f.block()
	svc := NewService(f)
	ctx := context.Background()

	const n = 32
	results := make([][]Ward, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.WardsForLGA(ctx, "lagos", "ikeja")
		}(i)
	}
	<-f.entered
	release()
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Len(t, results[0], 2)
	assert.Equal(t, 1, f.count("wards"))
}

func TestCallerCancelDoesNotAbortSharedLoad(t *testing.T) {
	f := newFakeLoader()
	release := f.block()
	svc := NewService(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.States(ctx)
		done <- err
	}()
	<-f.entered
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrDatasetUnavailable)

	release()
	st, err := svc.States(context.Background())
	require.NoError(t, err)
	assert.Len(t, st, 2)
	assert.Equal(t, 1, f.count("states"))
}

func TestClearCacheReloadsSameData(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)
	ctx := context.Background()

	st1, err := svc.States(ctx)
	require.NoError(t, err)
	w1, err := svc.WardsForLGA(ctx, "lagos", "ikeja")
	require.NoError(t, err)
	p1, err := svc.PollingUnitsForWard(ctx, "lagos", "ikeja", "ward_1")
	require.NoError(t, err)

	svc.ClearCache()
	stats := svc.CacheStats()
	assert.False(t, stats.States)
	assert.Zero(t, stats.WardLGAs)
	assert.Zero(t, stats.PollingStates)

	st2, err := svc.States(ctx)
	require.NoError(t, err)
	w2, err := svc.WardsForLGA(ctx, "lagos", "ikeja")
	require.NoError(t, err)
	p2, err := svc.PollingUnitsForWard(ctx, "lagos", "ikeja", "ward_1")
	require.NoError(t, err)

	assert.Equal(t, st1, st2)
	assert.Equal(t, w1, w2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 2, f.count("states"))
	assert.Equal(t, 2, f.count("wards"))
	assert.Equal(t, 2, f.count("polling:lagos"))
}

func TestClearCacheDuringInflightLoad(t *testing.T) {
	f := newFakeLoader()
	release := f.block()
	svc := NewService(f)

	done := make(chan []Ward, 1)
	go func() {
		w, _ := svc.WardsForLGA(context.Background(), "lagos", "ikeja")
		done <- w
	}()
	<-f.entered
	svc.ClearCache()
	release()

	w := <-done
	assert.Len(t, w, 2)
	assert.Equal(t, 1, svc.CacheStats().WardLGAs)
}

func TestCacheStats(t *testing.T) {
	svc := NewService(newFakeLoader())
	ctx := context.Background()

	empty := svc.CacheStats()
	assert.False(t, empty.States)

	_, err := svc.States(ctx)
	require.NoError(t, err)
	_, err = svc.LGAsForState(ctx, "lagos")
	require.NoError(t, err)
	_, err = svc.LGAsForState(ctx, "abia")
	require.NoError(t, err)
	_, err = svc.WardsForLGA(ctx, "lagos", "ikeja")
	require.NoError(t, err)
	_, err = svc.PollingUnitsForWard(ctx, "lagos", "ikeja", "ward_1")
	require.NoError(t, err)

	stats := svc.CacheStats()
	assert.True(t, stats.States)
	assert.Equal(t, 2, stats.LGAStates)
	assert.Equal(t, 1, stats.WardLGAs)
	assert.Equal(t, 1, stats.PollingStates)
	assert.True(t, strings.HasSuffix(stats.MemoryUsage, " KB"), stats.MemoryUsage)
}

func TestPreload(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)
	require.NoError(t, svc.Preload(context.Background()))

	_, err := svc.LGAsForState(context.Background(), "abia")
	require.NoError(t, err)
	_, err = svc.WardsForLGA(context.Background(), "abia", "aba-north")
	require.NoError(t, err)

	assert.Equal(t, 1, f.count("states"))
	assert.Equal(t, 1, f.count("lgas"))
	assert.Equal(t, 1, f.count("wards"))
	assert.Equal(t, 0, f.count("polling:abia"))
}

func TestPreloadStatesFailure(t *testing.T) {
	f := newFakeLoader()
	f.errStates = errors.New("boom")
	f.errWards = errors.New("also boom")
	svc := NewService(f)

	err := svc.Preload(context.Background())
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
}

func TestMissingPollingPartitionRemembered(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.PollingUnitsForWard(ctx, "atlantis", "x", "y")
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, 1, f.count("polling:atlantis"))

	// 其他错误不记为缺失，下次重试
	f.errPolling = errors.New("io timeout")
	for i := 0; i < 2; i++ {
		_, err := svc.PollingUnitsForWard(ctx, "abia", "aba-north", "eziama")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.count("polling:abia"))

	svc.ClearCache()
	_, err := svc.PollingUnitsForWard(ctx, "atlantis", "x", "y")
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("polling:atlantis"))
}

func TestMissingPollingPartitionBounded(t *testing.T) {
	svc := NewService(newFakeLoader())
	ctx := context.Background()

	for i := 0; i < maxMissingPolling+10; i++ {
		_, err := svc.PollingUnitsForWard(ctx, "nowhere-"+strconv.Itoa(i), "x", "y")
		require.NoError(t, err)
	}
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Len(t, svc.missing, maxMissingPolling)
}

func TestCacheStatsMemoryFromLoadedPartitions(t *testing.T) {
	f := newFakeLoader()
	svc := NewService(f)
	ctx := context.Background()
	assert.Equal(t, "0.00 KB", svc.CacheStats().MemoryUsage)

	_, err := svc.WardsForLGA(ctx, "lagos", "ikeja")
	require.NoError(t, err)
	wardsOnly := svc.CacheStats().MemoryUsage
	b, err := json.Marshal(f.wards)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%.2f KB", float64(len(b))/1024), wardsOnly)

	// 按键切片与分区共享数据，重复查询不增加体积
	_, err = svc.WardsForLGA(ctx, "abia", "aba-north")
	require.NoError(t, err)
	assert.Equal(t, wardsOnly, svc.CacheStats().MemoryUsage)

	svc.ClearCache()
	assert.Equal(t, "0.00 KB", svc.CacheStats().MemoryUsage)
}

// purgingLoader 记录 ClearCache 是否清理了外部副本
type purgingLoader struct {
	*fakeLoader
	purges int
	err    error
}

func (p *purgingLoader) Purge(ctx context.Context) error {
	p.purges++
	return p.err
}

func TestClearCachePurgesLoader(t *testing.T) {
	pl := &purgingLoader{fakeLoader: newFakeLoader()}
	svc := NewService(pl)

	_, err := svc.States(context.Background())
	require.NoError(t, err)
	svc.ClearCache()
	assert.Equal(t, 1, pl.purges)
	assert.False(t, svc.CacheStats().States)

	pl.err = errors.New("redis down")
	svc.ClearCache()
	assert.Equal(t, 2, pl.purges)
}
