package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/model"
	"BroadcastSync/internal/repository"
	"BroadcastSync/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Scheduler 定时抓取调度器：每个active品牌按生效Cron注册一个定时任务，
// 触发方式记为scheduled。生效Cron = 品牌覆盖 > 平台默认 > 全局兜底。
// 同品牌任务撞上进行中的执行时由并发守卫直接跳过，无需调度层判重。
type Scheduler struct {
	cron         *cron.Cron
	brandRepo    repository.BrandRepository
	crawlService *service.CrawlService
	cfg          *config.ScheduleConfig
	logger       *logrus.Logger
	mu           sync.Mutex
}

// NewScheduler 创建Scheduler
func NewScheduler(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		brandRepo:    repository.NewBrandRepository(db),
		crawlService: service.NewCrawlService(db, logger, cfg),
		cfg:          &cfg.Schedule,
		logger:       logger,
	}
}

// Start 注册全部定时任务并启动调度
func (s *Scheduler) Start() error {
	if err := s.Reload(); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("定时抓取调度已启动")
	return nil
}

// Stop 停止调度（已触发的抓取会跑到终态，不做中断）
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Reload 重新按当前品牌配置注册定时任务，品牌/平台变更后调用
func (s *Scheduler) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	brands, err := s.brandRepo.ListActiveWithPlatform(context.Background())
	if err != nil {
		return fmt.Errorf("加载品牌列表失败: %w", err)
	}

	for _, entry := range s.cron.Entries() {
		s.cron.Remove(entry.ID)
	}

	registered := 0
	for _, b := range brands {
		spec := effectiveCron(b, s.cfg.DefaultCron)
		if spec == "" {
			continue
		}
		brand := b
		if _, err := s.cron.AddFunc(spec, func() { s.runBrand(brand) }); err != nil {
			s.logger.WithError(err).Warnf("品牌%s的Cron表达式无效，已跳过: %s", b.Name, spec)
			continue
		}
		registered++
	}
	s.logger.Infof("定时任务注册完成，共%d个品牌", registered)
	return nil
}

// effectiveCron 品牌覆盖优先，其次平台默认，最后全局兜底；全空则不调度
func effectiveCron(b *model.Brand, fallback string) string {
	if b.Cron != "" {
		return b.Cron
	}
	if b.Platform != nil && b.Platform.DefaultCron != "" {
		return b.Platform.DefaultCron
	}
	return fallback
}

func (s *Scheduler) runBrand(brand *model.Brand) {
	_, err := s.crawlService.ExecuteCrawl(context.Background(), brand.ID, model.TriggerScheduled)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			s.logger.Infof("品牌%s上一次执行尚未结束，本次定时触发跳过", brand.Name)
			return
		}
		s.logger.WithError(err).Errorf("品牌%s定时抓取失败", brand.Name)
	}
}
