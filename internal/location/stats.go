package location

import "fmt"

// 文档注释：缓存诊断信息
// 约束：MemoryUsage 为各分区加载时记录的 JSON 体积之和，按键切片与分区共享底层数据，不重复计入。
type CacheStats struct {
	States        bool   `json:"states"`
	LGAStates     int    `json:"lgasStates"`
	WardLGAs      int    `json:"wardsLgas"`
	PollingStates int    `json:"pollingStates"`
	MemoryUsage   string `json:"memoryUsage"`
}

func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	size := 0
	for _, n := range s.sizes {
		size += n
	}
	return CacheStats{
		States:        s.statesOK,
		LGAStates:     len(s.lgaByState),
		WardLGAs:      len(s.wardsByKey),
		PollingStates: len(s.polling),
		MemoryUsage:   fmt.Sprintf("%.2f KB", float64(size)/1024),
	}
}
