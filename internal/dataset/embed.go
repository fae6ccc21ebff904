package dataset

import (
	"embed"
	"io/fs"
)

// 内嵌的只读分区资源，由 cmd/location-partition 生成后随二进制发布
//
//go:embed data
var embedded embed.FS

// Embedded：返回读取内嵌资源的加载器
func Embedded() *FSLoader {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		// data 目录随源码固定存在
		panic(err)
	}
	return NewFSLoader(sub)
}
