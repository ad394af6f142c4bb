package model

// BroadcastCandidate 搜索脚本返回的单条广播描述（未经详情补全）
type BroadcastCandidate struct {
	ExternalID string `json:"external_id"` // 平台原生广播ID
	Title      string `json:"title"`       // 广播标题
	URL        string `json:"url"`         // 广播页面URL
	StartDate  string `json:"start_date"`  // 开播时间（原始字符串，格式因平台而异）
	Status     string `json:"status"`      // 原始状态文案（如 진행중 / LIVE / 다시보기）
	EventType  string `json:"event_type"`  // 原始类型文案（如 live / replay / 쇼츠）
}

// SearchOutput 搜索脚本stdout的JSON结构
type SearchOutput struct {
	Broadcasts []BroadcastCandidate `json:"broadcasts"`
}

// BroadcastDetail 详情脚本返回的补全数据，字段缺失时保留搜索阶段的值
type BroadcastDetail struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	EventType string `json:"event_type"`
}
