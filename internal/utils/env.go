// 包 utils：环境变量读取与外部连接（Postgres / Redis）工具
package utils

import (
	"os"
	"strconv"
	"strings"
)

// EnvOr：读取环境变量，未设置或为空时返回默认值
func EnvOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvInt：解析失败时回退默认值
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// EnvBool：接受 strconv.ParseBool 的写法，解析失败回退默认值
func EnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}
