// 包 geoip：根据访问者 IP 推荐默认州，减少注册表单的手动选择
package geoip

import (
	"context"
	"errors"
	"net"
	"strings"

	"ng-locations/internal/location"
	"ng-locations/internal/logger"

	"github.com/oschwald/geoip2-golang"
)

// ErrInvalidIP：无法解析的 IP 文本
var ErrInvalidIP = errors.New("invalid ip")

// StateSource：州列表来源，*location.Service 直接满足
type StateSource interface {
	States(ctx context.Context) ([]location.State, error)
}

// 文档注释：州推荐器
// 背景：读取 GeoLite2/GeoIP2 City 库中的一级行政区名称，归一化后与数据集中的州值匹配。
// 约束：仅尼日利亚（NG）地址参与匹配；匹配失败返回 ok=false 而非错误。
type Suggester struct {
	db     *geoip2.Reader
	states StateSource
}

func Open(path string, states StateSource) (*Suggester, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Suggester{db: db, states: states}, nil
}

func (s *Suggester) Close() error { return s.db.Close() }

func (s *Suggester) SuggestState(ctx context.Context, ip string) (location.State, bool, error) {
	var zero location.State
	p := net.ParseIP(strings.TrimSpace(ip))
	if p == nil {
		return zero, false, ErrInvalidIP
	}
	rec, err := s.db.City(p)
	if err != nil {
		return zero, false, err
	}
	if rec.Country.IsoCode != "NG" || len(rec.Subdivisions) == 0 {
		logger.L().Debug("geoip_no_match", "ip", ip, "country", rec.Country.IsoCode)
		return zero, false, nil
	}
	states, err := s.states.States(ctx)
	if err != nil {
		return zero, false, err
	}
	sub := rec.Subdivisions[0]
	st, ok := MatchState(states, sub.Names["en"])
	logger.L().Debug("geoip_suggest", "ip", ip, "subdivision", sub.Names["en"], "state", st.Value, "ok", ok)
	return st, ok, nil
}

// 文档注释：把行政区名称匹配到州
// 背景：GeoIP 名称形如 "Lagos"、"Akwa Ibom State"、"Federal Capital Territory"；数据集的州值可能用空格或连字符。
func MatchState(states []location.State, name string) (location.State, bool) {
	n := location.NormalizeSlug(name)
	n = strings.TrimSuffix(n, " state")
	if n == "" {
		return location.State{}, false
	}
	candidates := []string{n, strings.ReplaceAll(n, " ", "-")}
	if n == "federal capital territory" {
		candidates = append(candidates, "fct", "abuja")
	}
	for _, c := range candidates {
		for _, st := range states {
			if st.Value == c {
				return st, true
			}
		}
	}
	return location.State{}, false
}
