package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/internal/telegram"
	"github.com/robfig/cron/v3"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
)

// Notifier 消息推送
type Notifier interface {
	Notify(chatId, msg string) error
}

const digestHeader = "*{{brand}} 策略日报* {{date}}\n"

const digestLine = "`{{strategy}}` 余额 {{balance}} | 累计 {{total_pnl}} ({{return_percent}}) | 日内 {{daily_pnl}} | 手续费 {{fee}}\n"

// Digester 汇总所有策略的最新概览
type Digester struct {
	brand            string
	strategyService  *StrategyService
	dashboardService *DashboardService
}

func NewDigester(conf *config.Config, strategyService *StrategyService, dashboardService *DashboardService) *Digester {
	return &Digester{
		brand:            conf.Web.Brand,
		strategyService:  strategyService,
		dashboardService: dashboardService,
	}
}

// Scheduler 定时刷新策略目录、清理会话、推送日报
type Scheduler struct {
	logger *zap.Logger
	conf   *config.Config
	cron   *cron.Cron

	strategyService *StrategyService
	sessionService  *SessionService
	digester        *Digester
	notifier        Notifier
}

// NewScheduler 创建调度器，notifier 为空时不推送日报
func NewScheduler(
	logger *zap.Logger,
	conf *config.Config,
	strategyService *StrategyService,
	sessionService *SessionService,
	digester *Digester,
	notifier Notifier,
) *Scheduler {
	return &Scheduler{
		logger:          logger,
		conf:            conf,
		cron:            cron.New(),
		strategyService: strategyService,
		sessionService:  sessionService,
		digester:        digester,
		notifier:        notifier,
	}
}

// Start 注册定时任务并启动
func (s *Scheduler) Start() error {
	type cronJob struct {
		name string
		spec string
		fn   func()
	}
	jobs := []cronJob{
		{"refresh", s.conf.Web.RefreshCron, s.Refresh},
		{"purge_sessions", s.conf.Web.SessionPurgeCron, func() {
			if _, err := s.sessionService.Purge(context.Background()); err != nil {
				s.logger.Error("purge sessions failed", zap.Error(err))
			}
		}},
	}
	if s.notifier != nil {
		jobs = append(jobs, cronJob{"digest", s.conf.Telegram.DigestCron, func() {
			if err := s.SendDigest(context.Background()); err != nil {
				s.logger.Error("send digest failed", zap.Error(err))
			}
		}})
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("failed to add cron job %s: %w", job.name, err)
		}
		s.logger.Info("cron job registered", zap.String("job", job.name), zap.String("spec", job.spec))
	}
	s.cron.Start()
	return nil
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}

// Refresh 清空运行缓存，使策略目录的新文件生效
func (s *Scheduler) Refresh() {
	n := s.strategyService.Invalidate()
	names, err := s.strategyService.List()
	if err != nil {
		s.logger.Error("list strategies failed", zap.Error(err))
		return
	}
	s.logger.Debug("strategy catalog refreshed",
		zap.Int("evicted", n),
		zap.Int("strategies", len(names)))
}

// Digest 生成所有策略的日报文本
func (s *Digester) Digest(ctx context.Context) (string, error) {
	names, err := s.strategyService.List()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fasttemplate.New(digestHeader, "{{", "}}").ExecuteString(map[string]interface{}{
		"brand": s.brand,
		"date":  time.Now().Format("2006-01-02"),
	}))
	if len(names) == 0 {
		sb.WriteString("暂无策略\n")
		return sb.String(), nil
	}

	line := fasttemplate.New(digestLine, "{{", "}}")
	for _, name := range names {
		run, err := s.dashboardService.Load(ctx, name)
		if err != nil {
			sb.WriteString(fmt.Sprintf("`%s` 加载失败: %s\n", name, telegram.EscapeMarkdown(err.Error())))
			continue
		}
		summary, err := s.dashboardService.Summary(run)
		if err != nil {
			sb.WriteString(fmt.Sprintf("`%s` 计算失败: %s\n", name, telegram.EscapeMarkdown(err.Error())))
			continue
		}
		fee := "N/A"
		if summary.Fee != nil {
			fee = render.SignedCurrency(-summary.Fee.Total)
		}
		sb.WriteString(line.ExecuteString(map[string]interface{}{
			"strategy":       name,
			"balance":        render.Currency(summary.Balance),
			"total_pnl":      render.SignedCurrency(summary.TotalPnL),
			"return_percent": render.PercentPill(summary.TotalPnL / summary.InitialBalance * 100).Text,
			"daily_pnl":      optionalCurrency(summary.DailyPnL),
			"fee":            fee,
		}))
	}
	return sb.String(), nil
}

// SendDigest 推送日报
func (s *Scheduler) SendDigest(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}
	msg, err := s.digester.Digest(ctx)
	if err != nil {
		return err
	}
	if err := s.notifier.Notify(s.conf.Telegram.ChatID, msg); err != nil {
		return fmt.Errorf("failed to notify telegram: %w", err)
	}
	s.logger.Info("strategy digest sent")
	return nil
}
