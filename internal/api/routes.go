// 包 api：级联下拉框所需的位置查询接口，独立 ServeMux 便于在主入口挂载到 API_BASE
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"ng-locations/internal/geoip"
	"ng-locations/internal/location"
	"ng-locations/internal/logger"
	"ng-locations/internal/metrics"
)

type errorBody struct {
	Error string `json:"error"`
}

type suggestResult struct {
	IP    string          `json:"ip"`
	Found bool            `json:"found"`
	State *location.State `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// 文档注释：错误映射
// 约束：州列表不可用 → 503，前端据此禁用依赖字段；调用方取消同样返回 503，但不记录错误日志。
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, location.ErrDatasetUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "location service unavailable"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.L().Debug("request_cancelled", "path", r.URL.Path)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "request cancelled"})
	default:
		logger.L().Error("api_error", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		metrics.RequestsTotal.WithLabelValues(endpoint).Inc()
		h(w, r)
		metrics.RequestDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(t0).Milliseconds()))
	}
}

// 解析访问者 IP：优先参数，其次常见反向代理头，最后 RemoteAddr
func clientIP(r *http.Request) string {
	if q := r.URL.Query().Get("ip"); q != "" {
		return q
	}
	if x := r.Header.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	if x := r.Header.Get("x-real-ip"); x != "" {
		return x
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// 文档注释：构建位置查询路由
// 背景：无 q 参数时返回带占位项的下拉选项；带 q 参数时返回按名称过滤的原始实体。
// 约束：sg 为空表示未配置 GeoIP 库，/locations/suggest 返回 404；adminToken 为空时禁用清缓存接口。
func BuildRoutes(svc *location.Service, sg *geoip.Suggester, adminToken string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /locations/states", instrument("states", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("q") {
			res, err := svc.SearchStates(r.Context(), q.Get("q"))
			if err != nil {
				writeErr(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
			return
		}
		res, err := svc.FormattedStates(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}))

	mux.HandleFunc("GET /locations/lgas", instrument("lgas", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state := q.Get("state")
		if q.Has("q") {
			res, err := svc.SearchLGAs(r.Context(), state, q.Get("q"))
			if err != nil {
				writeErr(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
			return
		}
		res, err := svc.FormattedLGAs(r.Context(), state)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}))

	mux.HandleFunc("GET /locations/wards", instrument("wards", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state, lga := q.Get("state"), q.Get("lga")
		if q.Has("q") {
			res, err := svc.SearchWards(r.Context(), state, lga, q.Get("q"))
			if err != nil {
				writeErr(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
			return
		}
		res, err := svc.FormattedWards(r.Context(), state, lga)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}))

	mux.HandleFunc("GET /locations/polling-units", instrument("polling_units", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state, lga, ward := q.Get("state"), q.Get("lga"), q.Get("ward")
		if q.Has("q") {
			res, err := svc.SearchPollingUnits(r.Context(), state, lga, ward, q.Get("q"))
			if err != nil {
				writeErr(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
			return
		}
		res, err := svc.FormattedPollingUnits(r.Context(), state, lga, ward)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}))

	mux.HandleFunc("GET /locations/stats", instrument("stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.CacheStats())
	}))

	mux.HandleFunc("POST /locations/cache/clear", instrument("cache_clear", func(w http.ResponseWriter, r *http.Request) {
		t := r.Header.Get("x-admin-token")
		if adminToken == "" || subtle.ConstantTimeCompare([]byte(t), []byte(adminToken)) != 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		svc.ClearCache()
		w.WriteHeader(http.StatusNoContent)
	}))

	mux.HandleFunc("GET /locations/suggest", instrument("suggest", func(w http.ResponseWriter, r *http.Request) {
		if sg == nil {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "geoip not configured"})
			return
		}
		ip := clientIP(r)
		st, ok, err := sg.SuggestState(r.Context(), ip)
		if err != nil {
			if errors.Is(err, geoip.ErrInvalidIP) {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid ip"})
				return
			}
			writeErr(w, r, err)
			return
		}
		res := suggestResult{IP: ip, Found: ok}
		if ok {
			res.State = &st
		}
		writeJSON(w, http.StatusOK, res)
	}))

	return mux
}
