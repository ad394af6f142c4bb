package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/model"
	"BroadcastSync/internal/repository"
	"BroadcastSync/internal/subprocess"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ========== 假协作方 ==========

type fakeRunner struct {
	handle func(script string, args []string) (*subprocess.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, script string, args ...string) (*subprocess.Result, error) {
	return f.handle(script, args)
}

type fakeBrandRepo struct {
	brand *model.Brand
}

func (f *fakeBrandRepo) FindByIDWithPlatform(_ context.Context, id uint64) (*model.Brand, error) {
	if f.brand == nil || f.brand.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.brand, nil
}

type fakeExecutionRepo struct {
	execs            []*model.CrawlerExecution
	nextID           uint64
	running          bool
	conflictOnCreate bool
	failMarkSuccess  error
}

func (f *fakeExecutionRepo) Create(_ context.Context, exec *model.CrawlerExecution) error {
	if f.conflictOnCreate {
		return repository.ErrExecutionConflict
	}
	f.nextID++
	exec.ID = f.nextID
	exec.ExecutionUUID = fmt.Sprintf("exec-%d", f.nextID)
	f.execs = append(f.execs, exec)
	return nil
}

func (f *fakeExecutionRepo) HasRunning(_ context.Context, _, _ uint64) (bool, error) {
	return f.running, nil
}

func (f *fakeExecutionRepo) find(id uint64) *model.CrawlerExecution {
	for _, e := range f.execs {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (f *fakeExecutionRepo) MarkRunning(_ context.Context, id uint64) error {
	exec := f.find(id)
	if exec == nil || exec.Status != string(model.ExecutionPending) {
		return repository.ErrIllegalTransition
	}
	exec.Status = string(model.ExecutionRunning)
	return nil
}

func (f *fakeExecutionRepo) MarkSuccess(_ context.Context, id uint64, itemsFound int) error {
	if f.failMarkSuccess != nil {
		return f.failMarkSuccess
	}
	exec := f.find(id)
	if exec == nil || model.ExecutionStatus(exec.Status).IsTerminal() {
		return repository.ErrIllegalTransition
	}
	now := time.Now()
	exec.Status = string(model.ExecutionSuccess)
	exec.CompletedAt = &now
	exec.ItemsFound = itemsFound
	return nil
}

func (f *fakeExecutionRepo) MarkFailed(_ context.Context, id uint64, errMsg string) error {
	exec := f.find(id)
	if exec == nil || model.ExecutionStatus(exec.Status).IsTerminal() {
		return repository.ErrIllegalTransition
	}
	now := time.Now()
	exec.Status = string(model.ExecutionFailed)
	exec.CompletedAt = &now
	exec.ErrorMessage = errMsg
	return nil
}

type fakeEventRepo struct {
	stored  map[string]*model.Event // key: platform_id/external_id
	failErr error
}

func (f *fakeEventRepo) BulkUpsert(_ context.Context, events []*model.Event) (int64, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	if f.stored == nil {
		f.stored = make(map[string]*model.Event)
	}
	for _, e := range events {
		f.stored[fmt.Sprintf("%d/%s", e.PlatformID, e.ExternalID)] = e
	}
	return int64(len(events)), nil
}

// ========== 装配 ==========

func testBrand() *model.Brand {
	return &model.Brand{
		ID:         1,
		BrandUUID:  "brand-uuid-1",
		Name:       "테스트브랜드",
		SearchText: "브랜드 A",
		PlatformID: 7,
		Status:     model.StatusActive,
		Platform: &model.Platform{
			ID:         7,
			Name:       "liveshop",
			URLPattern: "https://liveshop.example/search?q={query}",
			Status:     model.StatusActive,
		},
	}
}

func testService(brands *fakeBrandRepo, execs *fakeExecutionRepo, events *fakeEventRepo, runner *fakeRunner) *CrawlService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		Crawler: config.CrawlerConfig{
			Runtime:      "node",
			SearchScript: "search.js",
			DetailScript: "detail.js",
			SearchLimit:  50,
			DetailLimit:  20,
			DetailDelay:  time.Millisecond,
			Timeout:      time.Second,
		},
		TimeRange: config.TimeRangeConfig{PastDays: 7, FutureDays: 14},
	}
	svc := newCrawlService(brands, execs, events, runner, logger, cfg)
	svc.detail.sleep = func(time.Duration) {} // 测试不真等
	return svc
}

func searchResult(t *testing.T, candidates []model.BroadcastCandidate) *subprocess.Result {
	t.Helper()
	payload, err := json.Marshal(model.SearchOutput{Broadcasts: candidates})
	if err != nil {
		t.Fatalf("marshal search output: %v", err)
	}
	return &subprocess.Result{Structured: payload}
}

func detailResult(t *testing.T, detail model.BroadcastDetail) *subprocess.Result {
	t.Helper()
	payload, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("marshal detail output: %v", err)
	}
	return &subprocess.Result{Structured: payload}
}

// ========== 用例 ==========

func TestExecuteCrawlHappyPath(t *testing.T) {
	t.Parallel()

	candidates := []model.BroadcastCandidate{
		{ExternalID: "b1", Title: "봄맞이 라이브", URL: "https://liveshop.example/b1", EventType: "live", Status: "진행중"},
		{ExternalID: "b2", Title: "지난 방송", URL: "https://liveshop.example/b2", EventType: "다시보기", Status: "다시보기"},
		{ExternalID: "b3", Title: "쇼츠 클립", URL: "https://liveshop.example/b3", EventType: "쇼츠"},
	}
	runner := &fakeRunner{handle: func(script string, args []string) (*subprocess.Result, error) {
		switch script {
		case "search.js":
			if args[1] != "--json" {
				return nil, fmt.Errorf("unexpected args: %v", args)
			}
			return searchResult(t, candidates), nil
		case "detail.js":
			return detailResult(t, model.BroadcastDetail{Title: "보강된 " + args[0]}), nil
		default:
			return nil, fmt.Errorf("unexpected script %s", script)
		}
	}}

	execs := &fakeExecutionRepo{}
	events := &fakeEventRepo{}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, events, runner)

	result, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if err != nil {
		t.Fatalf("ExecuteCrawl returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	// 쇼츠被类型过滤掉，剩2条
	if result.EventsFound != 2 || result.EventsStored != 2 {
		t.Fatalf("expected 2 found / 2 stored, got %d / %d", result.EventsFound, result.EventsStored)
	}
	if len(events.stored) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(events.stored))
	}

	exec := execs.find(1)
	if exec == nil || exec.Status != string(model.ExecutionSuccess) {
		t.Fatalf("expected execution success, got %+v", exec)
	}
	if exec.ItemsFound != 2 || exec.CompletedAt == nil {
		t.Fatalf("expected items_found=2 and completed_at set, got %+v", exec)
	}
	if exec.TriggerType != string(model.TriggerManual) {
		t.Fatalf("unexpected trigger type: %s", exec.TriggerType)
	}

	stored := events.stored["7/b1"]
	if stored == nil {
		t.Fatal("expected event 7/b1 stored")
	}
	if stored.Title != "보강된 https://liveshop.example/b1" {
		t.Fatalf("expected enriched title, got %s", stored.Title)
	}
	if stored.Status != string(model.EventOngoing) || stored.EventType != string(model.TypeLive) {
		t.Fatalf("unexpected normalization: status=%s type=%s", stored.Status, stored.EventType)
	}
	if stored.ExecutionID != exec.ID || stored.BrandID != 1 {
		t.Fatalf("unexpected event linkage: %+v", stored)
	}
}

func TestExecuteCrawlDetailPartialFailure(t *testing.T) {
	t.Parallel()

	var candidates []model.BroadcastCandidate
	for i := 1; i <= 5; i++ {
		candidates = append(candidates, model.BroadcastCandidate{
			ExternalID: fmt.Sprintf("b%d", i),
			Title:      fmt.Sprintf("방송 %d", i),
			URL:        fmt.Sprintf("https://liveshop.example/b%d", i),
			EventType:  "live",
			Status:     "진행중",
		})
	}
	runner := &fakeRunner{handle: func(script string, args []string) (*subprocess.Result, error) {
		if script == "search.js" {
			return searchResult(t, candidates), nil
		}
		if strings.HasSuffix(args[0], "/b3") {
			return nil, &subprocess.Error{Script: script, ExitCode: 1, Stderr: "page crashed"}
		}
		return detailResult(t, model.BroadcastDetail{Title: "보강된 " + args[0]}), nil
	}}

	execs := &fakeExecutionRepo{}
	events := &fakeEventRepo{}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, events, runner)

	result, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if err != nil {
		t.Fatalf("ExecuteCrawl returned error: %v", err)
	}
	// 单条详情失败不致命：5条全部入库，其中1条为降级记录
	if result.EventsStored != 5 || len(events.stored) != 5 {
		t.Fatalf("expected 5 stored events, got %d", len(events.stored))
	}
	if execs.find(1).Status != string(model.ExecutionSuccess) {
		t.Fatalf("expected execution success, got %s", execs.find(1).Status)
	}

	degraded := events.stored["7/b3"]
	if degraded == nil {
		t.Fatal("expected degraded event 7/b3 stored")
	}
	if degraded.Title != "방송 3" {
		t.Fatalf("degraded event should keep search-stage title, got %s", degraded.Title)
	}
	if enriched := events.stored["7/b4"]; enriched.Title != "보강된 https://liveshop.example/b4" {
		t.Fatalf("expected enriched title for b4, got %s", enriched.Title)
	}
}

func TestExecuteCrawlSearchFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{handle: func(script string, _ []string) (*subprocess.Result, error) {
		return nil, &subprocess.Error{Script: script, ExitCode: 1, Stderr: "selector not found"}
	}}
	execs := &fakeExecutionRepo{}
	events := &fakeEventRepo{}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, events, runner)

	result, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if err == nil {
		t.Fatal("expected error")
	}
	var procErr *subprocess.Error
	if !errors.As(err, &procErr) {
		t.Fatalf("expected subprocess error in chain, got %v", err)
	}
	if result == nil || result.Success {
		t.Fatalf("expected failure result, got %+v", result)
	}
	if len(events.stored) != 0 {
		t.Fatalf("expected zero stored events, got %d", len(events.stored))
	}

	exec := execs.find(1)
	if exec.Status != string(model.ExecutionFailed) {
		t.Fatalf("expected execution failed, got %s", exec.Status)
	}
	if exec.ErrorMessage == "" || exec.CompletedAt == nil {
		t.Fatalf("expected error_message and completed_at set, got %+v", exec)
	}
}

func TestExecuteCrawlStoreFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{handle: func(script string, _ []string) (*subprocess.Result, error) {
		if script == "search.js" {
			return searchResult(t, []model.BroadcastCandidate{
				{ExternalID: "b1", Title: "방송", URL: "https://liveshop.example/b1", EventType: "live"},
			}), nil
		}
		return detailResult(t, model.BroadcastDetail{}), nil
	}}
	execs := &fakeExecutionRepo{}
	events := &fakeEventRepo{failErr: errors.New("connection reset")}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, events, runner)

	_, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if err == nil {
		t.Fatal("expected error")
	}
	exec := execs.find(1)
	if exec.Status != string(model.ExecutionFailed) {
		t.Fatalf("expected execution failed, got %s", exec.Status)
	}
	if !strings.Contains(exec.ErrorMessage, "connection reset") {
		t.Fatalf("expected cause in error_message, got %s", exec.ErrorMessage)
	}
}

func TestExecuteCrawlInactiveBrand(t *testing.T) {
	t.Parallel()

	brand := testBrand()
	brand.Status = model.StatusInactive
	execs := &fakeExecutionRepo{}
	svc := testService(&fakeBrandRepo{brand: brand}, execs, &fakeEventRepo{}, &fakeRunner{})

	_, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if !errors.Is(err, ErrBrandInactive) {
		t.Fatalf("expected ErrBrandInactive, got %v", err)
	}
	// 校验失败不得留下任何执行记录
	if len(execs.execs) != 0 {
		t.Fatalf("expected no execution rows, got %d", len(execs.execs))
	}
}

func TestExecuteCrawlInactivePlatform(t *testing.T) {
	t.Parallel()

	brand := testBrand()
	brand.Platform.Status = model.StatusInactive
	execs := &fakeExecutionRepo{}
	svc := testService(&fakeBrandRepo{brand: brand}, execs, &fakeEventRepo{}, &fakeRunner{})

	_, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if !errors.Is(err, ErrPlatformInactive) {
		t.Fatalf("expected ErrPlatformInactive, got %v", err)
	}
	if len(execs.execs) != 0 {
		t.Fatalf("expected no execution rows, got %d", len(execs.execs))
	}
}

func TestExecuteCrawlBrandNotFound(t *testing.T) {
	t.Parallel()

	svc := testService(&fakeBrandRepo{}, &fakeExecutionRepo{}, &fakeEventRepo{}, &fakeRunner{})
	_, err := svc.ExecuteCrawl(context.Background(), 42, model.TriggerManual)
	if !errors.Is(err, ErrBrandNotFound) {
		t.Fatalf("expected ErrBrandNotFound, got %v", err)
	}
}

func TestExecuteCrawlBadURLPattern(t *testing.T) {
	t.Parallel()

	brand := testBrand()
	brand.Platform.URLPattern = "https://liveshop.example/search" // 缺占位符
	execs := &fakeExecutionRepo{}
	svc := testService(&fakeBrandRepo{brand: brand}, execs, &fakeEventRepo{}, &fakeRunner{})

	_, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if !errors.Is(err, ErrMissingPlaceholder) {
		t.Fatalf("expected ErrMissingPlaceholder, got %v", err)
	}
	if len(execs.execs) != 0 {
		t.Fatalf("expected no execution rows, got %d", len(execs.execs))
	}
}

func TestExecuteCrawlAlreadyRunning(t *testing.T) {
	t.Parallel()

	execs := &fakeExecutionRepo{running: true}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, &fakeEventRepo{}, &fakeRunner{})

	_, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if len(execs.execs) != 0 {
		t.Fatalf("expected no execution rows, got %d", len(execs.execs))
	}
}

func TestExecuteCrawlConflictOnCreate(t *testing.T) {
	t.Parallel()

	// 预检通过但插入撞上单飞索引：并发下的兜底路径
	execs := &fakeExecutionRepo{conflictOnCreate: true}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, &fakeEventRepo{}, &fakeRunner{})

	_, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestExecuteCrawlEmptySearchResult(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{handle: func(script string, _ []string) (*subprocess.Result, error) {
		return searchResult(t, nil), nil
	}}
	execs := &fakeExecutionRepo{}
	events := &fakeEventRepo{}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, events, runner)

	// 脚本正常退出但零结果：按确实没有广播处理，执行记success
	result, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if err != nil {
		t.Fatalf("ExecuteCrawl returned error: %v", err)
	}
	if !result.Success || result.EventsStored != 0 {
		t.Fatalf("expected empty success, got %+v", result)
	}
	exec := execs.find(1)
	if exec.Status != string(model.ExecutionSuccess) || exec.ItemsFound != 0 {
		t.Fatalf("expected success with items_found=0, got %+v", exec)
	}
}

func TestExecuteCrawlDeduplicatesBatch(t *testing.T) {
	t.Parallel()

	// 搜索脚本把同一场广播列两次：同键两行会让单条ON CONFLICT upsert整批
	// 报错，入库前必须合并，且后到者覆盖先到者
	runner := &fakeRunner{handle: func(script string, args []string) (*subprocess.Result, error) {
		if script == "search.js" {
			return searchResult(t, []model.BroadcastCandidate{
				{ExternalID: "b1", Title: "첫번째 노출", URL: "https://liveshop.example/b1", EventType: "live"},
				{ExternalID: "b2", Title: "다른 방송", URL: "https://liveshop.example/b2", EventType: "live"},
				{ExternalID: "b1", Title: "두번째 노출", URL: "https://liveshop.example/b1-v2", EventType: "live"},
			}), nil
		}
		return detailResult(t, model.BroadcastDetail{Title: "보강된 " + args[0]}), nil
	}}
	execs := &fakeExecutionRepo{}
	events := &fakeEventRepo{}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, events, runner)

	result, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if err != nil {
		t.Fatalf("ExecuteCrawl returned error: %v", err)
	}
	if result.EventsStored != 2 {
		t.Fatalf("expected 2 stored after dedup, got %d", result.EventsStored)
	}
	if len(events.stored) != 2 {
		t.Fatalf("expected 2 unique events, got %d", len(events.stored))
	}
	kept := events.stored["7/b1"]
	if kept == nil {
		t.Fatal("expected event 7/b1 stored")
	}
	if kept.Title != "보강된 https://liveshop.example/b1-v2" {
		t.Fatalf("expected later duplicate to win, got %s", kept.Title)
	}
	exec := execs.find(1)
	if exec.Status != string(model.ExecutionSuccess) || exec.ItemsFound != 2 {
		t.Fatalf("expected success with items_found=2, got %+v", exec)
	}
}

func TestExecuteCrawlMarkSuccessFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{handle: func(script string, _ []string) (*subprocess.Result, error) {
		if script == "search.js" {
			return searchResult(t, []model.BroadcastCandidate{
				{ExternalID: "b1", Title: "방송", URL: "https://liveshop.example/b1", EventType: "live"},
			}), nil
		}
		return detailResult(t, model.BroadcastDetail{}), nil
	}}
	execs := &fakeExecutionRepo{failMarkSuccess: errors.New("connection reset")}
	events := &fakeEventRepo{}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, events, runner)

	// 标记成功这一步失败也不能把台账留在running
	result, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if err == nil {
		t.Fatal("expected error")
	}
	if result == nil || result.Success {
		t.Fatalf("expected failure result, got %+v", result)
	}
	exec := execs.find(1)
	if exec.Status != string(model.ExecutionFailed) {
		t.Fatalf("expected execution failed, got %s", exec.Status)
	}
	if !strings.Contains(exec.ErrorMessage, "connection reset") || exec.CompletedAt == nil {
		t.Fatalf("expected error_message and completed_at set, got %+v", exec)
	}
}

func TestExecuteCrawlDateWindowApplied(t *testing.T) {
	t.Parallel()

	oldDate := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	runner := &fakeRunner{handle: func(script string, args []string) (*subprocess.Result, error) {
		if script == "search.js" {
			return searchResult(t, []model.BroadcastCandidate{
				{ExternalID: "old", Title: "한달 전 방송", URL: "https://liveshop.example/old", EventType: "다시보기", StartDate: oldDate},
				{ExternalID: "recent", Title: "방금 방송", URL: "https://liveshop.example/recent", EventType: "live"},
			}), nil
		}
		return detailResult(t, model.BroadcastDetail{}), nil
	}}
	execs := &fakeExecutionRepo{}
	events := &fakeEventRepo{}
	svc := testService(&fakeBrandRepo{brand: testBrand()}, execs, events, runner)

	result, err := svc.ExecuteCrawl(context.Background(), 1, model.TriggerManual)
	if err != nil {
		t.Fatalf("ExecuteCrawl returned error: %v", err)
	}
	if result.EventsStored != 1 {
		t.Fatalf("expected only in-window event stored, got %d", result.EventsStored)
	}
	if events.stored["7/recent"] == nil || events.stored["7/old"] != nil {
		t.Fatalf("unexpected stored set: %v", events.stored)
	}
}
