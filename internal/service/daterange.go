package service

import (
	"time"

	"BroadcastSync/internal/model"
)

// FilterByDateRange 过滤开播时间落在[now-pastDays, now+futureDays]窗口之外的事件。
// 开播时间缺失的事件保守保留：数据缺失不代表事件无关。纯函数，now由调用方传入。
func FilterByDateRange(events []*model.Event, now time.Time, pastDays, futureDays int) []*model.Event {
	lower := now.AddDate(0, 0, -pastDays)
	upper := now.AddDate(0, 0, futureDays)

	kept := make([]*model.Event, 0, len(events))
	for _, e := range events {
		if e.StartDate == nil {
			kept = append(kept, e)
			continue
		}
		if e.StartDate.Before(lower) || e.StartDate.After(upper) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
