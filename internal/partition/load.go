package partition

import (
	"context"
	"errors"
	"fmt"

	"ng-locations/internal/location"
)

// 文档注释：通过 Loader 读回完整数据集
// 背景：导入工具与一致性校验需要全量视图；投票站按州列表逐个读取。
// 约束：某州缺少投票站分区时记为空分区，其他错误直接返回。
func Load(ctx context.Context, l location.Loader) (*Dataset, error) {
	states, err := l.LoadStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load states: %w", err)
	}
	lgas, err := l.LoadLGAPartition(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lgas: %w", err)
	}
	wards, err := l.LoadWardPartition(ctx)
	if err != nil {
		return nil, fmt.Errorf("load wards: %w", err)
	}
	ds := &Dataset{States: states, LGAs: lgas, Wards: wards, PollingUnits: map[string]location.PollingPartition{}}
	for _, s := range states {
		p, err := l.LoadPollingPartition(ctx, s.Value)
		if err != nil {
			if errors.Is(err, location.ErrPartitionNotFound) {
				p = location.PollingPartition{}
			} else {
				return nil, fmt.Errorf("load polling units for %q: %w", s.Value, err)
			}
		}
		ds.PollingUnits[s.Value] = p
	}
	return ds, nil
}
