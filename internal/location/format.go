package location

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// 文档注释：slug → 展示名称
// 背景：离线分区与运行期派生共用同一实现，保证 name 与 value 一一对应。
// 约束：按 "-" 切分，逐词首字母大写，丢弃空片段后以单个空格连接；空输入返回空串，永不 panic。
func FormatName(slug string) string {
	if slug == "" {
		return ""
	}
	// cases.Caser 有状态，不可跨 goroutine 共享
	c := cases.Title(language.Und)
	parts := strings.Split(slug, "-")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		out = append(out, c.String(p))
	}
	return strings.Join(out, " ")
}

// NormalizeSlug：源数据标识归一化（去首尾空白、小写、折叠空白与连字符）
func NormalizeSlug(raw string) string {
	s := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	s = strings.ReplaceAll(strings.ReplaceAll(s, " -", "-"), "- ", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "- ")
}

// WardKey：选区分区键 "{state}-{lga}"
func WardKey(state, lga string) string { return state + "-" + lga }

// PollingKey：投票站分区内键 "{state}-{lga}-{ward}"
func PollingKey(state, lga, ward string) string { return state + "-" + lga + "-" + ward }
