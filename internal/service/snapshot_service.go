package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dushixiang/magicbutton/internal/models"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/internal/repo"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultSnapshotLimit = 20
	MaxSnapshotLimit     = 500
)

// SnapshotService 策略运行快照
type SnapshotService struct {
	logger *zap.Logger

	*orz.Service
	*repo.RunSnapshotRepo
}

// NewSnapshotService 创建快照服务
func NewSnapshotService(db *gorm.DB, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{
		logger:          logger,
		Service:         orz.NewService(db),
		RunSnapshotRepo: repo.NewRunSnapshotRepo(db),
	}
}

type snapshotSummary struct {
	Cards    map[render.Target]render.Card `json:"cards"`
	Errors   map[render.Target]string      `json:"errors,omitempty"`
	Exposure any                           `json:"exposure,omitempty"`
	Periods  int                           `json:"periods"`
	Period   *float64                      `json:"period_pnl,omitempty"`
}

// Record 保存概览快照
func (s *SnapshotService) Record(ctx context.Context, summary *Summary) (*models.RunSnapshot, error) {
	raw, err := json.Marshal(snapshotSummary{
		Cards:    summary.Cards,
		Errors:   summary.Errors,
		Exposure: summary.Exposure,
		Periods:  summary.Periods,
		Period:   summary.PeriodPnL,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot summary: %w", err)
	}

	snapshot := &models.RunSnapshot{
		ID:             ulid.Make().String(),
		Strategy:       summary.Strategy,
		InitialBalance: summary.InitialBalance,
		Balance:        summary.Balance,
		TotalPnL:       summary.TotalPnL,
		ReturnPercent:  summary.TotalPnL / summary.InitialBalance * 100,
		Symbols:        summary.Symbols,
		Dropped:        summary.Dropped,
		Summary:        raw,
		LastPointAt:    summary.LastPointAt,
		RecordedAt:     time.Now(),
	}
	if summary.DailyPnL != nil {
		snapshot.DailyPnL = *summary.DailyPnL
	}
	if summary.Fee != nil {
		snapshot.Fee = summary.Fee.Total
		snapshot.FeePercent = summary.Fee.Percent
	}

	if err := s.RunSnapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, err
	}
	s.logger.Debug("run snapshot recorded",
		zap.String("strategy", snapshot.Strategy),
		zap.Float64("total_pnl", snapshot.TotalPnL))
	return snapshot, nil
}

// Recent 最近的快照，limit 超出范围时使用默认值
func (s *SnapshotService) Recent(ctx context.Context, strategy string, limit int) ([]models.RunSnapshot, error) {
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	if limit > MaxSnapshotLimit {
		limit = MaxSnapshotLimit
	}
	return s.RunSnapshotRepo.FindRecentByStrategy(ctx, strategy, limit)
}

// Latest 每个策略的最新快照，没有快照的策略跳过
func (s *SnapshotService) Latest(ctx context.Context, strategies []string) ([]models.RunSnapshot, error) {
	out := make([]models.RunSnapshot, 0, len(strategies))
	for _, name := range strategies {
		snapshot, err := s.RunSnapshotRepo.FindLatestByStrategy(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, snapshot)
	}
	return out, nil
}
