package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 标签 tier 取值：states / lgas / wards / polling
var (
	PartitionLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locations_partition_loads_total",
		Help: "Total partition loads issued to the underlying loader",
	}, []string{"tier"})
	PartitionLoadFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locations_partition_load_failures_total",
		Help: "Total partition loads that returned an error",
	}, []string{"tier"})
	PartitionLoadDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "locations_partition_load_duration_ms",
		Help:    "Partition load duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"tier"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locations_cache_hits_total",
		Help: "Accessor calls served from memory",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locations_cache_misses_total",
		Help: "Accessor calls that had to materialize a partition",
	}, []string{"tier"})
	CacheClearsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locations_cache_clears_total",
		Help: "Total ClearCache invocations",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locations_redis_hits_total",
		Help: "Partitions served from redis",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locations_redis_misses_total",
		Help: "Partitions not found in redis",
	})
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locations_http_requests_total",
		Help: "Total location API requests",
	}, []string{"endpoint"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "locations_http_request_duration_ms",
		Help:    "Location API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"endpoint"})
)

func init() {
	prometheus.MustRegister(PartitionLoadsTotal)
	prometheus.MustRegister(PartitionLoadFailuresTotal)
	prometheus.MustRegister(PartitionLoadDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheClearsTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：在主入口挂载到 {API_BASE}/metrics。
func Handler() http.Handler { return promhttp.Handler() }
