package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/interfaces"
	"BroadcastSync/internal/model"
	"BroadcastSync/internal/repository"
	"BroadcastSync/internal/subprocess"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CrawlResult 一次抓取执行的结果
type CrawlResult struct {
	Success       bool   `json:"success"`
	ExecutionUUID string `json:"execution_id,omitempty"`
	EventsFound   int    `json:"events_found"`
	EventsStored  int    `json:"events_stored"`
	Error         string `json:"error,omitempty"`
}

// CrawlService 抓取执行编排器：并发守卫 → 执行台账 → 搜索 → 类型过滤 →
// 详情补全 → 归一化 → 时间窗过滤 → 去重入库。协作方全部注入，测试可替换。
type CrawlService struct {
	logger *logrus.Logger
	cfg    *config.Config
	brands interfaces.BrandRepository
	execs  interfaces.ExecutionRepository
	events interfaces.EventRepository
	search *SearchStage
	detail *DetailStage
	now    func() time.Time
}

// NewCrawlService 创建CrawlService（生产装配：gorm仓储 + 真实子进程Runner）
func NewCrawlService(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *CrawlService {
	runner := subprocess.NewRunner(cfg.Crawler.Runtime, cfg.Crawler.Timeout, logger)
	return newCrawlService(
		repository.NewBrandRepository(db),
		repository.NewExecutionRepository(db),
		repository.NewEventRepository(db),
		runner,
		logger,
		cfg,
	)
}

// newCrawlService 测试装配入口，协作方可传假实现
func newCrawlService(
	brands interfaces.BrandRepository,
	execs interfaces.ExecutionRepository,
	events interfaces.EventRepository,
	runner interfaces.SubprocessRunner,
	logger *logrus.Logger,
	cfg *config.Config,
) *CrawlService {
	return &CrawlService{
		logger: logger,
		cfg:    cfg,
		brands: brands,
		execs:  execs,
		events: events,
		search: NewSearchStage(runner, &cfg.Crawler, logger),
		detail: NewDetailStage(runner, &cfg.Crawler, logger),
		now:    time.Now,
	}
}

// ExecuteCrawl 执行一次完整抓取。阻塞到子进程全部结束，调用方不要在请求
// 处理协程里同步等它（管理端默认异步触发，同步模式仅供调试）。
// 台账建立之前的错误直接返回且不留记录；之后的错误一律打到failed。
func (s *CrawlService) ExecuteCrawl(ctx context.Context, brandID uint64, trigger model.TriggerType) (*CrawlResult, error) {
	// 1. 查品牌及所属平台，停用的一律拒绝
	brand, err := s.brands.FindByIDWithPlatform(ctx, brandID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("查询品牌失败: %w", err)
	}
	if brand.Platform == nil {
		return nil, ErrPlatformNotFound
	}
	if brand.Status != model.StatusActive {
		return nil, ErrBrandInactive
	}
	if brand.Platform.Status != model.StatusActive {
		return nil, ErrPlatformInactive
	}

	// 2. URL模板校验在建台账之前完成
	searchURL, err := BuildSearchURL(brand.Platform.URLPattern, brand.SearchText)
	if err != nil {
		return nil, err
	}

	// 3. 并发守卫：先廉价预检，真正的原子保证在Create的部分唯一索引上
	running, err := s.execs.HasRunning(ctx, brand.ID, brand.PlatformID)
	if err != nil {
		return nil, err
	}
	if running {
		return nil, ErrAlreadyRunning
	}

	// 4. 建立执行台账（pending）
	exec := &model.CrawlerExecution{
		BrandID:     brand.ID,
		PlatformID:  brand.PlatformID,
		TriggerType: string(trigger),
		Status:      string(model.ExecutionPending),
		StartedAt:   s.now(),
	}
	if err := s.execs.Create(ctx, exec); err != nil {
		if errors.Is(err, repository.ErrExecutionConflict) {
			return nil, ErrAlreadyRunning
		}
		return nil, err
	}

	if err := s.execs.MarkRunning(ctx, exec.ID); err != nil {
		return s.failExecution(ctx, exec, err)
	}
	s.logger.Infof("开始抓取品牌%s（平台%s，触发方式%s）", brand.Name, brand.Platform.Name, trigger)

	// 5. 搜索阶段，失败即整个执行失败
	candidates, err := s.search.Run(ctx, searchURL)
	if err != nil {
		return s.failExecution(ctx, exec, err)
	}
	if len(candidates) == 0 {
		// 脚本正常退出但零结果：按确实没有广播处理，记Warn便于排查静默失败
		s.logger.Warnf("品牌%s在平台%s未搜索到任何广播", brand.Name, brand.Platform.Name)
	}

	// 6. 类型过滤 → 详情补全（串行限速，单条失败降级不致命）
	filtered := FilterCandidatesByType(candidates)
	events := s.detail.Run(ctx, brand, exec.ID, filtered)

	// 7. 时间窗过滤 → 批内去重 → 入库（整批一条SQL，失败即执行失败）
	kept := s.dedupEvents(FilterByDateRange(events, s.now(), s.cfg.TimeRange.PastDays, s.cfg.TimeRange.FutureDays))
	stored, err := s.events.BulkUpsert(ctx, kept)
	if err != nil {
		return s.failExecution(ctx, exec, err)
	}

	// 标记成功失败同样要把台账打到failed，绝不能让记录卡死在running
	if err := s.execs.MarkSuccess(ctx, exec.ID, len(kept)); err != nil {
		return s.failExecution(ctx, exec, err)
	}
	s.logger.Infof("品牌%s抓取完成，候选%d条，入库%d条", brand.Name, len(filtered), len(kept))
	return &CrawlResult{
		Success:       true,
		ExecutionUUID: exec.ExecutionUUID,
		EventsFound:   len(filtered),
		EventsStored:  int(stored),
	}, nil
}

// dedupEvents 批内按(platform_id, external_id)去重，保留最后一条（last-write-wins）。
// 搜索脚本把同一场广播列两次是常见的抓取噪音，同键两行会让单条
// ON CONFLICT upsert整批报错，必须在入库前合掉。
func (s *CrawlService) dedupEvents(events []*model.Event) []*model.Event {
	if len(events) == 0 {
		return events
	}

	// key=平台+原生ID，记录首次出现的下标，后到者原位覆盖以保持顺序
	seen := make(map[string]int, len(events))
	unique := make([]*model.Event, 0, len(events))
	for _, e := range events {
		key := fmt.Sprintf("%d/%s", e.PlatformID, e.ExternalID)
		if idx, ok := seen[key]; ok {
			unique[idx] = e
			continue
		}
		seen[key] = len(unique)
		unique = append(unique, e)
	}

	if len(unique) < len(events) {
		s.logger.Warnf("批内存在%d条重复广播，已按后到者保留", len(events)-len(unique))
	}
	return unique
}

// failExecution 把台账打到failed并回传失败结果。
// 标记本身失败只记日志，不能让执行记录卡死在running。
func (s *CrawlService) failExecution(ctx context.Context, exec *model.CrawlerExecution, cause error) (*CrawlResult, error) {
	if err := s.execs.MarkFailed(ctx, exec.ID, cause.Error()); err != nil {
		s.logger.WithError(err).Errorf("标记执行%d为failed时出错", exec.ID)
	}
	return &CrawlResult{
		Success:       false,
		ExecutionUUID: exec.ExecutionUUID,
		Error:         cause.Error(),
	}, cause
}
