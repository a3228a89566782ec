package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dushixiang/magicbutton/internal/ohlcv"
	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/pkg/frame"
	"go.uber.org/zap"
)

// PeriodDays 周期收益卡片统计的数据点数量
const PeriodDays = 30

// DashboardService 把策略运行转换为卡片、图表和表格
type DashboardService struct {
	logger          *zap.Logger
	strategyService *StrategyService
	snapshotService *SnapshotService
}

// NewDashboardService 创建看板服务
func NewDashboardService(logger *zap.Logger, strategyService *StrategyService, snapshotService *SnapshotService) *DashboardService {
	return &DashboardService{
		logger:          logger,
		strategyService: strategyService,
		snapshotService: snapshotService,
	}
}

// Summary 策略运行概览
type Summary struct {
	Strategy       string                        `json:"strategy"`
	InitialBalance float64                       `json:"initial_balance"`
	Balance        float64                       `json:"balance"`
	TotalPnL       float64                       `json:"total_pnl"`
	DailyPnL       *float64                      `json:"daily_pnl"`
	PeriodPnL      *float64                      `json:"period_pnl"`
	Periods        int                           `json:"periods"`
	Fee            *portfolio.Fee                `json:"fee"`
	Exposure       *portfolio.Exposure           `json:"exposure"`
	Risk           *portfolio.Risk               `json:"risk"`
	Symbols        []string                      `json:"symbols"`
	Dropped        []string                      `json:"dropped"`
	LastPointAt    time.Time                     `json:"last_point_at"`
	Cards          map[render.Target]render.Card `json:"cards"`
	Errors         map[render.Target]string      `json:"errors,omitempty"`
}

// Load 读取策略运行，首次加载时记录快照
func (s *DashboardService) Load(ctx context.Context, name string) (*Run, error) {
	run, fresh, err := s.strategyService.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if fresh && s.snapshotService != nil {
		summary, err := s.Summary(run)
		if err != nil {
			s.logger.Warn("skip snapshot for strategy", zap.String("strategy", name), zap.Error(err))
			return run, nil
		}
		if _, err := s.snapshotService.Record(ctx, summary); err != nil {
			s.logger.Error("failed to record run snapshot", zap.String("strategy", name), zap.Error(err))
		}
	}
	return run, nil
}

// Summary 计算概览，单个卡片失败只记录在 Errors 中
func (s *DashboardService) Summary(run *Run) (*Summary, error) {
	pnl, err := portfolio.TotalPnL(run.UnrealizedPnL, run.RealizedPnL)
	if err != nil {
		return nil, err
	}
	total, _ := pnl.Column(portfolio.SeriesTotal)
	if len(total) == 0 {
		return nil, fmt.Errorf("summary: %w: empty pnl tables", portfolio.ErrInsufficientData)
	}
	initial, err := portfolio.InitialBalance(run.BalanceCash)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Strategy:       run.Name,
		InitialBalance: initial,
		TotalPnL:       total[len(total)-1],
		Balance:        initial + total[len(total)-1],
		Periods:        PeriodDays,
		Symbols:        run.Panel.Symbols,
		Dropped:        run.Panel.Dropped,
		LastPointAt:    pnl.Index[len(pnl.Index)-1],
		Cards:          make(map[render.Target]render.Card),
		Errors:         make(map[render.Target]string),
	}
	if d, err := portfolio.DailyDelta(total); err == nil {
		sum.DailyPnL = &d
	}
	if d, err := portfolio.PeriodDelta(total, PeriodDays); err == nil {
		sum.PeriodPnL = &d
	}
	if risk, err := portfolio.RiskOf(initial, total); err == nil {
		sum.Risk = &risk
	}
	if fee, err := portfolio.FeeEstimate(run.Trades, s.strategyService.FeeSchedule(), initial); err == nil {
		sum.Fee = &fee
	}
	if pv, err := portfolio.PositionValue(run.Position, run.Panel.Close()); err == nil {
		if e, err := portfolio.ExposureOf(pv, sum.Balance); err == nil {
			sum.Exposure = &e
		}
	}

	for _, target := range []render.Target{render.TargetBalance, render.TargetPnL, render.TargetFee, render.TargetPeriod} {
		card, err := s.Card(run, target)
		if err != nil {
			sum.Errors[target] = err.Error()
			continue
		}
		sum.Cards[target] = card
	}
	return sum, nil
}

// Card 计算单个概览卡片
func (s *DashboardService) Card(run *Run, target render.Target) (render.Card, error) {
	pnl, err := portfolio.TotalPnL(run.UnrealizedPnL, run.RealizedPnL)
	if err != nil {
		return render.Card{}, err
	}
	total, _ := pnl.Column(portfolio.SeriesTotal)
	initial, err := portfolio.InitialBalance(run.BalanceCash)
	if err != nil {
		return render.Card{}, err
	}
	if len(total) == 0 {
		return render.Card{}, fmt.Errorf("%s: %w", target, portfolio.ErrInsufficientData)
	}
	last := total[len(total)-1]

	switch target {
	case render.TargetBalance:
		daily, err := portfolio.DailyDelta(total)
		if err != nil {
			return render.Card{}, err
		}
		return render.BalanceCard(initial, last, daily), nil
	case render.TargetPnL:
		return render.PnLCard(initial, last), nil
	case render.TargetPeriod:
		delta, err := portfolio.PeriodDelta(total, PeriodDays)
		if err != nil {
			return render.Card{}, err
		}
		return render.PeriodCard(initial, delta, PeriodDays), nil
	case render.TargetFee:
		fee, err := portfolio.FeeEstimate(run.Trades, s.strategyService.FeeSchedule(), initial)
		if err != nil {
			return render.Card{}, err
		}
		return render.FeeCard(fee), nil
	}
	return render.Card{}, fmt.Errorf("%s is not a card", target)
}

// PnLFigure 收益曲线
func (s *DashboardService) PnLFigure(run *Run, mode portfolio.PnLMode) (render.Figure, error) {
	f, err := portfolio.PnLBreakdown(run.UnrealizedPnL, run.RealizedPnL, mode)
	if err != nil {
		return render.Figure{}, err
	}
	return render.LineFigure(f), nil
}

// PositionValue 持仓价值表
func (s *DashboardService) PositionValue(run *Run) (*frame.Frame, error) {
	return portfolio.PositionValue(run.Position, run.Panel.Close())
}

var ErrUnknownFrame = errors.New("unknown frame")

// Frame 导出运行中的原始时间序列
func (s *DashboardService) Frame(run *Run, name string) (*frame.Frame, error) {
	switch name {
	case "position":
		return run.Position, nil
	case "unrealized_pnl":
		return run.UnrealizedPnL, nil
	case "realized_pnl":
		return run.RealizedPnL, nil
	case "total_pnl":
		return portfolio.TotalPnL(run.UnrealizedPnL, run.RealizedPnL)
	case "position_value":
		return s.PositionValue(run)
	case "close":
		return run.Panel.Field(ohlcv.Close), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, name)
}

// PositionFigures 状态模式返回旭日图与敞口柱状图，历史模式返回最近几天的柱状图
func (s *DashboardService) PositionFigures(run *Run, mode portfolio.PositionMode) ([]render.Figure, error) {
	pv, err := s.PositionValue(run)
	if err != nil {
		return nil, err
	}
	switch mode {
	case portfolio.PositionStatus:
		nodes, err := portfolio.Sunburst(pv)
		if err != nil {
			return nil, err
		}
		balance, err := s.currentBalance(run)
		if err != nil {
			return nil, err
		}
		exposure, err := portfolio.ExposureOf(pv, balance)
		if err != nil {
			return nil, err
		}
		return []render.Figure{render.SunburstFigure(nodes), render.ExposureFigure(exposure)}, nil
	case portfolio.PositionHistory:
		return []render.Figure{render.HistoryFigure(portfolio.History(pv, portfolio.DefaultHistory))}, nil
	}
	return nil, fmt.Errorf("%w: %d", portfolio.ErrInvalidMode, int(mode))
}

func (s *DashboardService) currentBalance(run *Run) (float64, error) {
	initial, err := portfolio.InitialBalance(run.BalanceCash)
	if err != nil {
		return 0, err
	}
	pnl, err := portfolio.TotalPnL(run.UnrealizedPnL, run.RealizedPnL)
	if err != nil {
		return 0, err
	}
	_, last, ok := pnl.Last()
	if !ok {
		return initial, nil
	}
	return initial + last[0], nil
}

func (s *DashboardService) Trades(run *Run) render.Grid {
	return render.GridOf(run.Trades)
}

func (s *DashboardService) EntryInfo(run *Run) render.Grid {
	return render.GridOf(run.EntryInfo)
}

// Render 渲染单个区域
func (s *DashboardService) Render(run *Run, target render.Target, pnlMode portfolio.PnLMode, posMode portfolio.PositionMode) render.Instruction {
	var (
		kind    render.Kind
		payload any
		err     error
	)
	switch target {
	case render.TargetBalance, render.TargetPnL, render.TargetFee, render.TargetPeriod:
		kind = render.KindCard
		payload, err = s.Card(run, target)
	case render.TargetPnLFigure:
		var fig render.Figure
		fig, err = s.PnLFigure(run, pnlMode)
		kind, payload = render.KindFigures, []render.Figure{fig}
	case render.TargetPosValue:
		kind = render.KindFigures
		payload, err = s.PositionFigures(run, posMode)
	case render.TargetTrades:
		kind, payload = render.KindGrid, s.Trades(run)
	case render.TargetEntryInfo:
		kind, payload = render.KindGrid, s.EntryInfo(run)
	default:
		err = fmt.Errorf("unknown target %q", target)
	}
	if err != nil {
		s.logger.Debug("render target failed",
			zap.String("strategy", run.Name),
			zap.String("target", string(target)),
			zap.Error(err))
		return render.Failed(target, err)
	}
	return render.Instruction{Target: target, Kind: kind, Payload: payload}
}
