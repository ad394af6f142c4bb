package model

// 通用启用状态
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ExecutionStatus 执行状态枚举
type ExecutionStatus string

const (
	ExecutionPending ExecutionStatus = "pending"
	ExecutionRunning ExecutionStatus = "running"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// IsTerminal 终态（success/failed）不可再流转
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionSuccess || s == ExecutionFailed
}

// TriggerType 执行触发方式
type TriggerType string

const (
	TriggerScheduled TriggerType = "scheduled"
	TriggerManual    TriggerType = "manual"
)

// EventStatus 广播事件状态，无法识别时存空串（数据库为空）
type EventStatus string

const (
	EventUpcoming EventStatus = "upcoming"
	EventOngoing  EventStatus = "ongoing"
	EventEnded    EventStatus = "ended"
	EventUnknown  EventStatus = ""
)

// EventType 广播事件类型
type EventType string

const (
	TypeLive    EventType = "live"
	TypeReplay  EventType = "replay"
	TypeUnknown EventType = ""
)
