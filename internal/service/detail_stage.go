package service

import (
	"context"
	"encoding/json"
	"time"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/interfaces"
	"BroadcastSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// DetailStage 详情阶段：对候选列表的有界前缀逐条调用详情脚本补全数据。
// 串行执行并在两次调用间固定延时，对目标站限速（用延迟换克制，不是疏忽）。
// 单条失败不会中断整批：该条降级为仅含搜索阶段数据的记录，继续下一条。
type DetailStage struct {
	runner interfaces.SubprocessRunner
	script string
	limit  int
	delay  time.Duration
	logger *logrus.Logger
	sleep  func(time.Duration) // 测试中替换，避免真实等待
}

// NewDetailStage 创建DetailStage
func NewDetailStage(runner interfaces.SubprocessRunner, cfg *config.CrawlerConfig, logger *logrus.Logger) *DetailStage {
	return &DetailStage{
		runner: runner,
		script: cfg.DetailScript,
		limit:  cfg.DetailLimit,
		delay:  cfg.DetailDelay,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Run 逐条补全候选广播，返回可入库的事件列表（含降级记录）
func (s *DetailStage) Run(ctx context.Context, brand *model.Brand, executionID uint64, candidates []model.BroadcastCandidate) []*model.Event {
	if len(candidates) > s.limit {
		s.logger.Infof("候选%d条超过详情抓取上限%d，只处理前%d条", len(candidates), s.limit, s.limit)
		candidates = candidates[:s.limit]
	}

	events := make([]*model.Event, 0, len(candidates))
	for i, c := range candidates {
		if i > 0 {
			s.sleep(s.delay)
		}

		result, err := s.runner.Run(ctx, s.script, c.URL)
		if err != nil || !result.IsStructured() {
			// 单条失败：降级为搜索阶段数据，继续处理后面的候选
			s.logger.WithError(err).
				WithField("external_id", c.ExternalID).
				Warn("详情抓取失败，降级为搜索阶段记录")
			events = append(events, s.buildEvent(brand, executionID, c, nil))
			continue
		}

		var detail model.BroadcastDetail
		if err := json.Unmarshal(result.Structured, &detail); err != nil {
			s.logger.WithError(err).
				WithField("external_id", c.ExternalID).
				Warn("详情输出结构不符，降级为搜索阶段记录")
			events = append(events, s.buildEvent(brand, executionID, c, nil))
			continue
		}

		ev := s.buildEvent(brand, executionID, c, &detail)
		ev.RawData = datatypes.JSON(result.Structured)
		events = append(events, ev)
	}
	return events
}

// buildEvent 由搜索候选（及可选的详情补全）组装事件行。
// detail为nil时即降级记录，raw_data回落为候选的JSON序列化。
func (s *DetailStage) buildEvent(brand *model.Brand, executionID uint64, c model.BroadcastCandidate, detail *model.BroadcastDetail) *model.Event {
	title := c.Title
	pageURL := c.URL
	startRaw := c.StartDate
	endRaw := ""
	statusRaw := c.Status
	typeRaw := c.EventType

	if detail != nil {
		// 详情字段非空时覆盖搜索阶段的值
		if detail.Title != "" {
			title = detail.Title
		}
		if detail.URL != "" {
			pageURL = detail.URL
		}
		if detail.StartDate != "" {
			startRaw = detail.StartDate
		}
		if detail.EndDate != "" {
			endRaw = detail.EndDate
		}
		if detail.Status != "" {
			statusRaw = detail.Status
		}
		if detail.EventType != "" {
			typeRaw = detail.EventType
		}
	}

	raw, _ := json.Marshal(c) // 固定结构，序列化不会失败
	return &model.Event{
		PlatformID:  brand.PlatformID,
		ExternalID:  c.ExternalID,
		BrandID:     brand.ID,
		ExecutionID: executionID,
		Title:       title,
		URL:         pageURL,
		StartDate:   ParseEventDate(startRaw),
		EndDate:     ParseEventDate(endRaw),
		Status:      string(NormalizeStatus(statusRaw)),
		EventType:   string(NormalizeType(typeRaw)),
		RawData:     raw,
	}
}
