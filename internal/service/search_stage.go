package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/interfaces"
	"BroadcastSync/internal/model"

	"github.com/sirupsen/logrus"
)

// SearchStage 搜索阶段：调用搜索脚本拿到有界的候选广播列表。
// 此阶段失败会使整个执行失败（此时尚未落库，直接中止是安全的）。
type SearchStage struct {
	runner interfaces.SubprocessRunner
	script string
	limit  int
	logger *logrus.Logger
}

// NewSearchStage 创建SearchStage
func NewSearchStage(runner interfaces.SubprocessRunner, cfg *config.CrawlerConfig, logger *logrus.Logger) *SearchStage {
	return &SearchStage{
		runner: runner,
		script: cfg.SearchScript,
		limit:  cfg.SearchLimit,
		logger: logger,
	}
}

// Run 执行 <runtime> <search_script> <url> --json --limit N，解析stdout中的broadcasts列表
func (s *SearchStage) Run(ctx context.Context, searchURL string) ([]model.BroadcastCandidate, error) {
	result, err := s.runner.Run(ctx, s.script, searchURL, "--json", "--limit", strconv.Itoa(s.limit))
	if err != nil {
		return nil, fmt.Errorf("搜索脚本执行失败: %w", err)
	}
	if !result.IsStructured() {
		return nil, fmt.Errorf("搜索脚本输出不是合法JSON: %s", snippet(result.RawStdout))
	}

	var out model.SearchOutput
	if err := json.Unmarshal(result.Structured, &out); err != nil {
		return nil, fmt.Errorf("解析搜索输出失败: %w", err)
	}

	// 脚本不守--limit时兜底截断
	if len(out.Broadcasts) > s.limit {
		s.logger.Warnf("搜索脚本返回%d条超过上限%d，已截断", len(out.Broadcasts), s.limit)
		out.Broadcasts = out.Broadcasts[:s.limit]
	}
	return out.Broadcasts, nil
}

// snippet 截取错误信息里引用的原文，避免整页HTML进日志
func snippet(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}
