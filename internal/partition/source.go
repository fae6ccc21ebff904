// 包 partition：离线分区工具，把单个嵌套层级 JSON 拆分为按层、按州可独立加载的资源
package partition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrSourceNotArray：源文件顶层不是数组
var ErrSourceNotArray = errors.New("source hierarchy is not a JSON array")

// 文档注释：源层级结构 state → lgas[] → wards[] → polling_units[]
// 约束：州标识优先取 state 字段，缺失时取 name；投票站可为字符串或带 name 的对象。
type SourceState struct {
	State string      `json:"state"`
	Name  string      `json:"name"`
	LGAs  []SourceLGA `json:"lgas"`
}

func (s SourceState) ident() string {
	if s.State != "" {
		return s.State
	}
	return s.Name
}

type SourceLGA struct {
	Name  string       `json:"name"`
	Wards []SourceWard `json:"wards"`
}

type SourceWard struct {
	Name         string              `json:"name"`
	PollingUnits []SourcePollingUnit `json:"polling_units"`
}

type SourcePollingUnit struct {
	Name string `json:"name"`
}

func (p *SourcePollingUnit) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		p.Name = s
		return nil
	}
	type plain SourcePollingUnit
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = SourcePollingUnit(v)
	return nil
}

// ParseSource：解析源 JSON；顶层必须是数组
func ParseSource(b []byte) ([]SourceState, error) {
	t := bytes.TrimSpace(b)
	if len(t) == 0 || t[0] != '[' {
		return nil, ErrSourceNotArray
	}
	var out []SourceState
	if err := json.Unmarshal(t, &out); err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	return out, nil
}

// ReadSource：读取并解析源文件
func ReadSource(path string) ([]SourceState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}
	src, err := ParseSource(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}
