package service

import (
	"strings"
	"time"

	"BroadcastSync/internal/model"
)

// 状态关键词表。匹配按序进行，回放/结束类先于直播类，
// 避免「라이브 다시보기」这类复合文案被误判成进行中。
var statusKeywords = []struct {
	keyword string
	status  model.EventStatus
}{
	{"다시보기", model.EventEnded}, // 韩语：回放
	{"replay", model.EventEnded},
	{"종료", model.EventEnded}, // 韩语：已结束
	{"ended", model.EventEnded},
	{"回放", model.EventEnded},
	{"已结束", model.EventEnded},
	{"진행중", model.EventOngoing}, // 韩语：进行中
	{"방송중", model.EventOngoing}, // 韩语：直播中
	{"live", model.EventOngoing},
	{"ongoing", model.EventOngoing},
	{"直播中", model.EventOngoing},
	{"예정", model.EventUpcoming}, // 韩语：预定
	{"예고", model.EventUpcoming}, // 韩语：预告
	{"upcoming", model.EventUpcoming},
	{"scheduled", model.EventUpcoming},
	{"预告", model.EventUpcoming},
}

// 类型关键词表，同样回放类先匹配
var typeKeywords = []struct {
	keyword   string
	eventType model.EventType
}{
	{"다시보기", model.TypeReplay},
	{"replay", model.TypeReplay},
	{"vod", model.TypeReplay},
	{"回放", model.TypeReplay},
	{"live", model.TypeLive},
	{"라이브", model.TypeLive}, // 韩语：直播
	{"생방송", model.TypeLive}, // 韩语：现场直播
	{"直播", model.TypeLive},
}

// NormalizeStatus 把源站状态文案归一到标准枚举，识别不了就返回空（绝不猜测）
func NormalizeStatus(raw string) model.EventStatus {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return model.EventUnknown
	}
	for _, k := range statusKeywords {
		if strings.Contains(token, k.keyword) {
			return k.status
		}
	}
	return model.EventUnknown
}

// NormalizeType 把源站类型文案归一到live/replay，短视频、跳转页等一律不识别
func NormalizeType(raw string) model.EventType {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return model.TypeUnknown
	}
	for _, k := range typeKeywords {
		if strings.Contains(token, k.keyword) {
			return k.eventType
		}
	}
	return model.TypeUnknown
}

// FilterCandidatesByType 只保留能识别为live/replay的候选，
// 在昂贵的详情抓取之前把短视频等噪音剔掉
func FilterCandidatesByType(candidates []model.BroadcastCandidate) []model.BroadcastCandidate {
	kept := make([]model.BroadcastCandidate, 0, len(candidates))
	for _, c := range candidates {
		if NormalizeType(c.EventType) == model.TypeUnknown {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// 各平台返回的时间格式不统一，按常见格式逐个尝试
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006.01.02 15:04",
	"2006.01.02",
}

// ParseEventDate 解析源站时间字符串，解析不了返回nil（缺失不等于无效）
func ParseEventDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
