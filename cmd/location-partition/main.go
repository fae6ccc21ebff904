package main

import (
	"os"
	"path/filepath"

	"ng-locations/internal/logger"
	"ng-locations/internal/partition"
	"ng-locations/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：离线分区工具
// 背景：把单个嵌套层级 JSON 拆分为州列表、州→LGA、"州-LGA"→选区、按州的投票站文件，供运行期按需加载。
// 约束：读取、构建、校验全部在内存完成后才落盘；任一步失败退出码为 1 且不修改输出目录。
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	src := utils.EnvOr("PARTITION_SRC", filepath.Join("data", "source", "nigeria.json"))
	out := utils.EnvOr("PARTITION_OUT", filepath.Join("data", "locations"))
	l.Info("partition_begin", "src", src, "out", out)

	tree, err := partition.ReadSource(src)
	if err != nil {
		l.Error("partition_source_error", "err", err)
		os.Exit(1)
	}
	ds, err := partition.Build(tree)
	if err != nil {
		l.Error("partition_build_error", "err", err)
		os.Exit(1)
	}
	if err := partition.Verify(ds); err != nil {
		l.Error("partition_verify_error", "err", err)
		os.Exit(1)
	}
	if err := partition.Write(out, ds); err != nil {
		l.Error("partition_write_error", "err", err)
		os.Exit(1)
	}
	l.Info("partition_done", "states", len(ds.States), "lga_states", len(ds.LGAs), "ward_lgas", len(ds.Wards))
}
