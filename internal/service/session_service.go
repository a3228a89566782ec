package service

import (
	"context"
	"errors"
	"time"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/models"
	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/internal/repo"
	"github.com/dushixiang/magicbutton/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionService 浏览器会话与事件处理
type SessionService struct {
	logger *zap.Logger

	*orz.Service
	*repo.SessionRepo

	dashboardService *DashboardService
	ttl              time.Duration
}

// NewSessionService 创建会话服务
func NewSessionService(db *gorm.DB, logger *zap.Logger, conf *config.Config, dashboardService *DashboardService) *SessionService {
	return &SessionService{
		logger:           logger,
		Service:          orz.NewService(db),
		SessionRepo:      repo.NewSessionRepo(db),
		dashboardService: dashboardService,
		ttl:              conf.SessionTimeout(),
	}
}

type SessionView struct {
	ID        string       `json:"id"`
	State     SessionState `json:"state"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// RenderResult 会话状态及本次需要更新的区域
type RenderResult struct {
	Session      SessionView          `json:"session"`
	Instructions []render.Instruction `json:"instructions"`
}

func stateOf(m *models.Session) SessionState {
	state := SessionState{
		Strategy:     m.Strategy,
		PnLMode:      portfolio.PnLMode(m.PnLMode),
		PositionMode: portfolio.PositionMode(m.PositionMode),
		Path:         m.Path,
	}
	def := DefaultState()
	if !state.PnLMode.Valid() {
		state.PnLMode = def.PnLMode
	}
	if !state.PositionMode.Valid() {
		state.PositionMode = def.PositionMode
	}
	if state.Path == "" {
		state.Path = def.Path
	}
	return state
}

func viewOf(m *models.Session) SessionView {
	return SessionView{ID: m.ID, State: stateOf(m), UpdatedAt: m.UpdatedAt}
}

// Create 新建会话，默认选中目录中的第一个策略
func (s *SessionService) Create(ctx context.Context) (*RenderResult, error) {
	state := DefaultState()
	targets := []render.Target{render.TargetPage}

	names, err := s.dashboardService.strategyService.List()
	if err != nil {
		s.logger.Warn("failed to list strategies for new session", zap.Error(err))
	} else if len(names) > 0 {
		state.Strategy = names[0]
		targets = append(targets, render.DataTargets...)
	}

	m := &models.Session{
		ID:           ulid.Make().String(),
		Strategy:     state.Strategy,
		PnLMode:      int(state.PnLMode),
		PositionMode: int(state.PositionMode),
		Path:         state.Path,
	}
	if err := s.SessionRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return &RenderResult{
		Session:      viewOf(m),
		Instructions: s.render(ctx, state, targets),
	}, nil
}

func (s *SessionService) find(ctx context.Context, id string) (*models.Session, error) {
	m, err := s.SessionRepo.FindActive(ctx, id, time.Now().Add(-s.ttl))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrSessionNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Get 返回会话并重新渲染全部区域，同时刷新活跃时间
func (s *SessionService) Get(ctx context.Context, id string) (*RenderResult, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.SessionRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	state := stateOf(m)
	targets := append([]render.Target{render.TargetPage}, render.DataTargets...)
	return &RenderResult{
		Session:      viewOf(m),
		Instructions: s.render(ctx, state, targets),
	}, nil
}

// Dispatch 处理一个事件并渲染受影响的区域
func (s *SessionService) Dispatch(ctx context.Context, id string, ev Event) (*RenderResult, error) {
	var (
		m       *models.Session
		state   SessionState
		targets []render.Target
	)
	err := s.Transaction(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.find(ctx, id)
		if err != nil {
			return err
		}
		state, targets, err = Apply(stateOf(m), ev)
		if err != nil {
			switch {
			case errors.Is(err, ErrUnknownEvent):
				return xe.ErrUnknownEvent
			case errors.Is(err, ErrEventValue):
				return xe.ErrInvalidParams
			}
			return err
		}
		m.Strategy = state.Strategy
		m.PnLMode = int(state.PnLMode)
		m.PositionMode = int(state.PositionMode)
		m.Path = state.Path
		return s.SessionRepo.Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("session event handled",
		zap.String("session", id),
		zap.String("event", string(ev.Type)),
		zap.String("value", ev.Value),
		zap.Int("targets", len(targets)))

	return &RenderResult{
		Session:      viewOf(m),
		Instructions: s.render(ctx, state, targets),
	}, nil
}

// render 每个区域独立渲染，数据加载失败时所有数据区域都返回错误指令
func (s *SessionService) render(ctx context.Context, state SessionState, targets []render.Target) []render.Instruction {
	out := make([]render.Instruction, 0, len(targets))

	var (
		run     *Run
		loadErr error
		loaded  bool
	)
	for _, target := range targets {
		if target == render.TargetPage {
			out = append(out, render.Instruction{Target: target, Kind: render.KindPage, Payload: render.Route(state.Path)})
			continue
		}
		if state.Strategy == "" {
			continue
		}
		if !loaded {
			run, loadErr = s.dashboardService.Load(ctx, state.Strategy)
			loaded = true
			if loadErr != nil {
				s.logger.Warn("failed to load strategy run",
					zap.String("strategy", state.Strategy),
					zap.Error(loadErr))
				loadErr = xe.From(loadErr)
			}
		}
		if loadErr != nil {
			out = append(out, render.Failed(target, loadErr))
			continue
		}
		out = append(out, s.dashboardService.Render(run, target, state.PnLMode, state.PositionMode))
	}
	return out
}

// Purge 删除过期会话
func (s *SessionService) Purge(ctx context.Context) (int64, error) {
	n, err := s.SessionRepo.DeleteIdle(ctx, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("idle sessions purged", zap.Int64("count", n))
	}
	return n, nil
}
