package handler

import (
	"net/http"

	"github.com/dushixiang/magicbutton/internal/service"
	"github.com/dushixiang/magicbutton/internal/xe"
	"github.com/dushixiang/magicbutton/pkg/nostd"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SessionHandler 浏览器会话与交互事件
type SessionHandler struct {
	logger         *zap.Logger
	sessionService *service.SessionService
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(logger *zap.Logger, sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		logger:         logger,
		sessionService: sessionService,
	}
}

// sessionID 路径参数为 current 时从请求头或 Cookie 中读取
func sessionID(c echo.Context) string {
	id := c.Param("id")
	if id == "" || id == "current" {
		return nostd.GetSessionID(c)
	}
	return id
}

// Create 新建会话
// POST /api/sessions
func (h *SessionHandler) Create(c echo.Context) error {
	result, err := h.sessionService.Create(c.Request().Context())
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     nostd.SessionKey,
		Value:    result.Session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, result)
}

// Get 恢复会话并渲染全部区域
// GET /api/sessions/:id
func (h *SessionHandler) Get(c echo.Context) error {
	id := sessionID(c)
	if id == "" {
		return xe.ErrSessionNotFound
	}
	result, err := h.sessionService.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Dispatch 处理交互事件
// POST /api/sessions/:id/events
func (h *SessionHandler) Dispatch(c echo.Context) error {
	id := sessionID(c)
	if id == "" {
		return xe.ErrSessionNotFound
	}
	var ev service.Event
	if err := c.Bind(&ev); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&ev); err != nil {
		return err
	}
	result, err := h.sessionService.Dispatch(c.Request().Context(), id, ev)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Stats 每个策略被多少活跃会话选中
// GET /api/sessions/stats
func (h *SessionHandler) Stats(c echo.Context) error {
	counts, err := h.sessionService.CountByStrategy(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

// RegisterRoutes 注册路由
func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	sessions := g.Group("/sessions")
	sessions.POST("", h.Create)
	sessions.GET("/stats", h.Stats)
	sessions.GET("/:id", h.Get)
	sessions.POST("/:id/events", h.Dispatch)
}
