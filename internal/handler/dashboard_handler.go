package handler

import (
	"errors"
	"net/http"

	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/internal/service"
	"github.com/dushixiang/magicbutton/internal/xe"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// DashboardHandler 看板数据接口
type DashboardHandler struct {
	logger           *zap.Logger
	strategyService  *service.StrategyService
	dashboardService *service.DashboardService
	snapshotService  *service.SnapshotService
	analysisService  *service.AnalysisService
}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler(
	logger *zap.Logger,
	strategyService *service.StrategyService,
	dashboardService *service.DashboardService,
	snapshotService *service.SnapshotService,
	analysisService *service.AnalysisService,
) *DashboardHandler {
	return &DashboardHandler{
		logger:           logger,
		strategyService:  strategyService,
		dashboardService: dashboardService,
		snapshotService:  snapshotService,
		analysisService:  analysisService,
	}
}

func (h *DashboardHandler) load(c echo.Context) (*service.Run, error) {
	run, err := h.dashboardService.Load(c.Request().Context(), c.Param("name"))
	if err != nil {
		return nil, xe.From(err)
	}
	return run, nil
}

// modeParam 读取 mode 查询参数，缺省时返回 def
func modeParam(c echo.Context, def int) (int, error) {
	raw := c.QueryParam("mode")
	if raw == "" {
		return def, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, xe.ErrInvalidParams
	}
	return n, nil
}

// ListStrategies 策略运行列表
// GET /api/strategies
func (h *DashboardHandler) ListStrategies(c echo.Context) error {
	names, err := h.strategyService.List()
	if err != nil {
		return err
	}
	latest, err := h.snapshotService.Latest(c.Request().Context(), names)
	if err != nil {
		h.logger.Error("failed to get latest snapshots", zap.Error(err))
	}
	return c.JSON(http.StatusOK, orz.Map{
		"strategies": names,
		"latest":     latest,
	})
}

// GetSummary 概览卡片
// GET /api/strategies/:name/summary
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	run, err := h.load(c)
	if err != nil {
		return err
	}
	summary, err := h.dashboardService.Summary(run)
	if err != nil {
		return xe.From(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetPnL 收益曲线
// GET /api/strategies/:name/pnl?mode=1
func (h *DashboardHandler) GetPnL(c echo.Context) error {
	mode, err := modeParam(c, int(portfolio.PnLAccount))
	if err != nil {
		return err
	}
	if !portfolio.PnLMode(mode).Valid() {
		return xe.ErrInvalidParams
	}
	run, err := h.load(c)
	if err != nil {
		return err
	}
	fig, err := h.dashboardService.PnLFigure(run, portfolio.PnLMode(mode))
	if err != nil {
		return xe.From(err)
	}
	return c.JSON(http.StatusOK, fig)
}

// GetPositionValue 持仓价值图
// GET /api/strategies/:name/position-value?mode=1
func (h *DashboardHandler) GetPositionValue(c echo.Context) error {
	mode, err := modeParam(c, int(portfolio.PositionStatus))
	if err != nil {
		return err
	}
	if !portfolio.PositionMode(mode).Valid() {
		return xe.ErrInvalidParams
	}
	run, err := h.load(c)
	if err != nil {
		return err
	}
	figs, err := h.dashboardService.PositionFigures(run, portfolio.PositionMode(mode))
	if err != nil {
		return xe.From(err)
	}
	return c.JSON(http.StatusOK, orz.Map{
		"figures": figs,
	})
}

// GetTrades 成交记录
// GET /api/strategies/:name/trades
func (h *DashboardHandler) GetTrades(c echo.Context) error {
	run, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.dashboardService.Trades(run))
}

// GetEntryInfo 开仓信息
// GET /api/strategies/:name/entry-info
func (h *DashboardHandler) GetEntryInfo(c echo.Context) error {
	run, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.dashboardService.EntryInfo(run))
}

// GetFrame 导出原始时间序列，缺失值为 null
// GET /api/strategies/:name/frames/:frame
func (h *DashboardHandler) GetFrame(c echo.Context) error {
	run, err := h.load(c)
	if err != nil {
		return err
	}
	f, err := h.dashboardService.Frame(run, c.Param("frame"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownFrame) {
			return xe.ErrInvalidParams
		}
		return xe.From(err)
	}
	return c.JSON(http.StatusOK, f)
}

// GetSnapshots 历史快照
// GET /api/strategies/:name/snapshots?limit=20
func (h *DashboardHandler) GetSnapshots(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")
	if _, err := h.strategyService.Catalog().Path(name); err != nil {
		return xe.From(err)
	}
	limit := cast.ToInt(c.QueryParam("limit"))
	snapshots, err := h.snapshotService.Recent(ctx, name, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{
		"snapshots": snapshots,
	})
}

// GetAnalysis AI复盘
// GET /api/strategies/:name/analysis
func (h *DashboardHandler) GetAnalysis(c echo.Context) error {
	analysis, err := h.analysisService.Analyze(c.Request().Context(), c.Param("name"))
	if err != nil {
		return xe.From(err)
	}
	return c.JSON(http.StatusOK, analysis)
}

// GetAnalysisHistory 历史AI复盘
// GET /api/strategies/:name/analysis/history?limit=10
func (h *DashboardHandler) GetAnalysisHistory(c echo.Context) error {
	name := c.Param("name")
	if _, err := h.strategyService.Catalog().Path(name); err != nil {
		return xe.From(err)
	}
	logs, err := h.analysisService.History(c.Request().Context(), name, cast.ToInt(c.QueryParam("limit")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{
		"analyses": logs,
	})
}

// GetTargets 前端可渲染的区域
// GET /api/targets
func (h *DashboardHandler) GetTargets(c echo.Context) error {
	return c.JSON(http.StatusOK, orz.Map{
		"page":     render.TargetPage,
		"data":     render.DataTargets,
		"analysis": h.analysisService.Enabled(),
	})
}

// RegisterRoutes 注册路由
func (h *DashboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/targets", h.GetTargets)
	g.GET("/strategies", h.ListStrategies)

	strategy := g.Group("/strategies/:name")
	strategy.GET("/summary", h.GetSummary)
	strategy.GET("/pnl", h.GetPnL)
	strategy.GET("/position-value", h.GetPositionValue)
	strategy.GET("/trades", h.GetTrades)
	strategy.GET("/entry-info", h.GetEntryInfo)
	strategy.GET("/frames/:frame", h.GetFrame)
	strategy.GET("/snapshots", h.GetSnapshots)
	strategy.GET("/analysis", h.GetAnalysis)
	strategy.GET("/analysis/history", h.GetAnalysisHistory)
}
