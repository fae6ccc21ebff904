package dataset

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"ng-locations/internal/location"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	ttl    map[string]time.Duration
	getErr error
	setErr error
	sets   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (k *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.getErr != nil {
		return redis.NewStringResult("", k.getErr)
	}
	v, ok := k.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (k *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sets++
	if k.setErr != nil {
		return redis.NewStatusResult("", k.setErr)
	}
	k.data[key] = value.(string)
	k.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (k *fakeKV) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.getErr != nil {
		return redis.NewScanCmdResult(nil, 0, k.getErr)
	}
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for key := range k.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (k *fakeKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	k.mu.Lock()
	defer k.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := k.data[key]; ok {
			delete(k.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// countingLoader 统计源加载器调用次数
type countingLoader struct {
	location.Loader
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingLoader) LoadStates(ctx context.Context) ([]location.State, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.Loader.LoadStates(ctx)
}

func TestNewRedisLoaderWithoutClient(t *testing.T) {
	src := NewFSLoader(fixtureFS())
	assert.Same(t, src, NewRedisLoader(src, nil, time.Minute))
}

func TestRedisLoaderReadThrough(t *testing.T) {
	kv := newFakeKV()
	src := &countingLoader{Loader: NewFSLoader(fixtureFS())}
	l := NewRedisLoader(src, kv, 0)
	ctx := context.Background()

	first, err := l.LoadStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Contains(t, kv.data, "locations:states")
	assert.Equal(t, 24*time.Hour, kv.ttl["locations:states"])

	second, err := l.LoadStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)
}

func TestRedisLoaderPollingKeyPerState(t *testing.T) {
	kv := newFakeKV()
	l := NewRedisLoader(NewFSLoader(fixtureFS()), kv, time.Hour)

	p, err := l.LoadPollingPartition(context.Background(), "lagos")
	require.NoError(t, err)
	assert.Len(t, p["lagos-ikeja-ward_1"], 1)
	assert.Contains(t, kv.data, "locations:polling:lagos")
	assert.Equal(t, time.Hour, kv.ttl["locations:polling:lagos"])
}

func TestRedisLoaderFallsBackOnRedisFailure(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	src := &countingLoader{Loader: NewFSLoader(fixtureFS())}
	l := NewRedisLoader(src, kv, time.Minute)

	st, err := l.LoadStates(context.Background())
	require.NoError(t, err)
	assert.Len(t, st, 1)
	assert.Equal(t, 1, src.calls)
}

func TestRedisLoaderCorruptEntryReloaded(t *testing.T) {
	kv := newFakeKV()
	kv.data["locations:states"] = "{not json"
	src := &countingLoader{Loader: NewFSLoader(fixtureFS())}
	l := NewRedisLoader(src, kv, time.Minute)

	st, err := l.LoadStates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lagos", st[0].Value)
	assert.Equal(t, 1, src.calls)
	assert.NotEqual(t, "{not json", kv.data["locations:states"])
}

func TestRedisLoaderDoesNotCacheSourceErrors(t *testing.T) {
	kv := newFakeKV()
	src := &countingLoader{Loader: NewFSLoader(fixtureFS()), err: location.ErrPartitionNotFound}
	l := NewRedisLoader(src, kv, time.Minute)

	_, err := l.LoadStates(context.Background())
	assert.ErrorIs(t, err, location.ErrPartitionNotFound)
	assert.Zero(t, kv.sets)

	_, err = l.LoadPollingPartition(context.Background(), "abia")
	assert.ErrorIs(t, err, location.ErrPartitionNotFound)
	assert.Zero(t, kv.sets)
}

func TestRedisLoaderPurge(t *testing.T) {
	kv := newFakeKV()
	kv.data["other:key"] = "keep"
	l := NewRedisLoader(NewFSLoader(fixtureFS()), kv, time.Hour)
	ctx := context.Background()

	_, err := l.LoadStates(ctx)
	require.NoError(t, err)
	_, err = l.LoadWardPartition(ctx)
	require.NoError(t, err)
	_, err = l.LoadPollingPartition(ctx, "lagos")
	require.NoError(t, err)
	require.Len(t, kv.data, 4)

	p, ok := l.(location.Purger)
	require.True(t, ok)
	require.NoError(t, p.Purge(ctx))
	assert.Equal(t, map[string]string{"other:key": "keep"}, kv.data)
}

func TestRedisLoaderPurgeError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	l := NewRedisLoader(NewFSLoader(fixtureFS()), kv, time.Hour).(location.Purger)
	assert.Error(t, l.Purge(context.Background()))
}

func TestClearCacheSeesRepartitionedDataThroughRedis(t *testing.T) {
	fsys := fixtureFS()
	kv := newFakeKV()
	svc := location.NewService(NewRedisLoader(NewFSLoader(fsys), kv, time.Hour))
	ctx := context.Background()

	st, err := svc.States(ctx)
	require.NoError(t, err)
	require.Len(t, st, 1)

	fsys[StatesFile].Data = []byte(`[{"id":"kano","name":"Kano","value":"kano"},{"id":"lagos","name":"Lagos","value":"lagos"}]`)
	svc.ClearCache()

	st, err = svc.States(ctx)
	require.NoError(t, err)
	require.Len(t, st, 2)
	assert.Equal(t, "kano", st[0].Value)
}
