package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/models"
	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/internal/repo"
	"github.com/dushixiang/magicbutton/internal/xe"
	"github.com/oklog/ulid/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Completion 一次对话补全的结果
type Completion struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// Completer 对话补全接口
type Completer interface {
	Complete(ctx context.Context, system, user string) (*Completion, error)
}

// OpenAICompleter 基于 OpenAI 兼容接口的补全
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(client *openai.Client, model string) *OpenAICompleter {
	return &OpenAICompleter{client: client, model: model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (*Completion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}
	return &Completion{
		Content:          resp.Choices[0].Message.Content,
		FinishReason:     string(resp.Choices[0].FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

const analysisSystemPrompt = `你是一名量化交易复盘分析师。根据用户提供的策略运行概览，用简洁的中文给出：
1. 收益表现与回撤概况
2. 多空敞口与现金比例是否合理
3. 手续费对收益的影响
4. 需要关注的风险点
不要编造数据中没有的信息。`

const analysisUserTemplate = `策略: {{strategy}}
数据截至: {{last_point_at}}
初始资金: {{initial_balance}}
当前余额: {{balance}}
累计收益: {{total_pnl}} ({{return_percent}})
最近一日收益: {{daily_pnl}}
最近{{periods}}期收益: {{period_pnl}}
预估手续费: {{fee}} ({{fee_percent}})
最大回撤: {{max_drawdown}}, 当前回撤: {{drawdown}}, 夏普比率: {{sharpe}}
敞口: 总计 {{exposure_total}}, 多头 {{exposure_long}}, 空头 {{exposure_short}}, 现金 {{exposure_cash}}
标的: {{symbols}}
缺少行情的标的: {{dropped}}
最近收益曲线: {{recent_pnl}}`

// Analysis AI复盘结果
type Analysis struct {
	Strategy    string    `json:"strategy"`
	Model       string    `json:"model"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AnalysisService 调用大模型生成策略复盘
type AnalysisService struct {
	logger *zap.Logger

	*repo.LLMLogRepo

	dashboardService *DashboardService
	completer        Completer
	enabled          bool
	model            string
}

// NewAnalysisService 创建AI分析服务
func NewAnalysisService(db *gorm.DB, logger *zap.Logger, conf *config.Config, dashboardService *DashboardService, completer Completer) *AnalysisService {
	return &AnalysisService{
		logger:           logger,
		LLMLogRepo:       repo.NewLLMLogRepo(db),
		dashboardService: dashboardService,
		completer:        completer,
		enabled:          conf.LLM.Enabled && completer != nil,
		model:            conf.LLM.Model,
	}
}

func (s *AnalysisService) Enabled() bool {
	return s.enabled
}

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// History 最近的分析记录，未启用分析时仍可查询
func (s *AnalysisService) History(ctx context.Context, strategy string, limit int) ([]models.LLMLog, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.LLMLogRepo.FindRecentByStrategy(ctx, strategy, limit)
}

func optionalCurrency(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return render.SignedCurrency(*v)
}

// BuildPrompt 根据概览生成用户提示词
func BuildPrompt(summary *Summary, run *Run) (string, error) {
	values := map[string]interface{}{
		"strategy":        summary.Strategy,
		"last_point_at":   summary.LastPointAt.Format("2006-01-02 15:04"),
		"initial_balance": render.Currency(summary.InitialBalance),
		"balance":         render.Currency(summary.Balance),
		"total_pnl":       render.SignedCurrency(summary.TotalPnL),
		"return_percent":  fmt.Sprintf("%.2f%%", summary.TotalPnL/summary.InitialBalance*100),
		"daily_pnl":       optionalCurrency(summary.DailyPnL),
		"periods":         fmt.Sprintf("%d", summary.Periods),
		"period_pnl":      optionalCurrency(summary.PeriodPnL),
		"fee":             "N/A",
		"fee_percent":     "N/A",
		"max_drawdown":    "N/A",
		"drawdown":        "N/A",
		"sharpe":          "N/A",
		"exposure_total":  "N/A",
		"exposure_long":   "N/A",
		"exposure_short":  "N/A",
		"exposure_cash":   "N/A",
		"symbols":         strings.Join(summary.Symbols, ", "),
		"dropped":         "无",
		"recent_pnl":      "N/A",
	}
	if summary.Fee != nil {
		values["fee"] = render.Currency(summary.Fee.Total)
		values["fee_percent"] = fmt.Sprintf("%.4f%%", summary.Fee.Percent)
	}
	if r := summary.Risk; r != nil {
		values["max_drawdown"] = fmt.Sprintf("%.2f%%", r.MaxDrawdown)
		values["drawdown"] = fmt.Sprintf("%.2f%%", r.DrawdownFromPeak)
		values["sharpe"] = fmt.Sprintf("%.3f", r.SharpeRatio)
	}
	if e := summary.Exposure; e != nil {
		values["exposure_total"] = render.Currency(e.Total)
		values["exposure_long"] = render.Currency(e.Long)
		values["exposure_short"] = render.Currency(e.Short)
		values["exposure_cash"] = render.Currency(e.Cash)
	}
	if len(summary.Dropped) > 0 {
		values["dropped"] = strings.Join(summary.Dropped, ", ")
	}

	pnl, err := portfolio.TotalPnL(run.UnrealizedPnL, run.RealizedPnL)
	if err != nil {
		return "", err
	}
	tail := pnl.Tail(10)
	points := make([]string, 0, tail.Len())
	for i, t := range tail.Index {
		points = append(points, fmt.Sprintf("%s=%.2f", t.Format("01-02"), tail.Data[i][0]))
	}
	if len(points) > 0 {
		values["recent_pnl"] = strings.Join(points, ", ")
	}

	tmpl := fasttemplate.New(analysisUserTemplate, "{{", "}}")
	return tmpl.ExecuteString(values), nil
}

// Analyze 生成复盘，每次请求都会记录日志
func (s *AnalysisService) Analyze(ctx context.Context, strategy string) (*Analysis, error) {
	if !s.enabled {
		return nil, xe.ErrAnalysisDisabled
	}
	run, err := s.dashboardService.Load(ctx, strategy)
	if err != nil {
		return nil, err
	}
	summary, err := s.dashboardService.Summary(run)
	if err != nil {
		return nil, err
	}
	prompt, err := BuildPrompt(summary, run)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	completion, callErr := s.completer.Complete(ctx, analysisSystemPrompt, prompt)

	log := &models.LLMLog{
		ID:           ulid.Make().String(),
		Strategy:     strategy,
		Model:        s.model,
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   prompt,
		Duration:     time.Since(start).Milliseconds(),
		ExecutedAt:   start,
	}
	if callErr != nil {
		log.Error = callErr.Error()
	} else {
		log.AssistantContent = completion.Content
		log.FinishReason = completion.FinishReason
		log.PromptTokens = completion.PromptTokens
		log.CompletionTokens = completion.CompletionTokens
		log.TotalTokens = completion.PromptTokens + completion.CompletionTokens
	}
	if err := s.LLMLogRepo.Create(ctx, log); err != nil {
		s.logger.Warn("failed to save llm log", zap.Error(err))
	}

	if callErr != nil {
		s.logger.Error("strategy analysis failed", zap.String("strategy", strategy), zap.Error(callErr))
		return nil, callErr
	}

	s.logger.Info("strategy analysis generated",
		zap.String("strategy", strategy),
		zap.Int("prompt_tokens", completion.PromptTokens),
		zap.Int("completion_tokens", completion.CompletionTokens),
		zap.Int64("duration_ms", log.Duration))

	return &Analysis{
		Strategy:    strategy,
		Model:       s.model,
		Content:     completion.Content,
		GeneratedAt: time.Now(),
	}, nil
}
