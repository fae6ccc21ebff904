// 包 location：尼日利亚四级行政区（州 → 地方政府区 → 选区 → 投票站）的数据模型与缓存服务
package location

// 文档注释：州（一级行政区）
// 约束：Value 为归一化 slug，作为唯一查询键；Name 由 FormatName(Value) 派生，仅用于展示。
type State struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LGA：地方政府区，State 为父级州的 Value
type LGA struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
	State string `json:"state"`
}

// Ward：选区，查询键为 WardKey(State, LGA)
type Ward struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
	LGA   string `json:"lga"`
	State string `json:"state"`
}

// PollingUnit：投票站，查询键为 PollingKey(State, LGA, Ward)，按州分区存放
type PollingUnit struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
	Ward  string `json:"ward"`
	LGA   string `json:"lga"`
	State string `json:"state"`
}

// Option：下拉框选项投影
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// 分区类型别名，加载器与缓存共用
type (
	LGAPartition     map[string][]LGA
	WardPartition    map[string][]Ward
	PollingPartition map[string][]PollingUnit
)
