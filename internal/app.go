package internal

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/handler"
	mbmiddleware "github.com/dushixiang/magicbutton/internal/middleware"
	"github.com/dushixiang/magicbutton/internal/models"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/internal/service"
	"github.com/dushixiang/magicbutton/internal/telegram"
	"github.com/dushixiang/magicbutton/pkg/nostd"
	"github.com/dushixiang/magicbutton/web"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewMagicButtonApp()
	defer app.Shutdown()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewMagicButtonApp() *MagicButtonApp {
	return &MagicButtonApp{}
}

var _ orz.Application = (*MagicButtonApp)(nil)

type AppComponents struct {
	DashboardHandler *handler.DashboardHandler
	SessionHandler   *handler.SessionHandler

	StrategyService *service.StrategyService
	Scheduler       *service.Scheduler

	tg *telegram.Telegram
}

type MagicButtonApp struct {
	components *AppComponents
	conf       *config.Config
	logger     *zap.Logger
	stopOnce   sync.Once
}

// GetComponents 获取应用组件
func (r *MagicButtonApp) GetComponents() *AppComponents {
	return r.components
}

func (r *MagicButtonApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}
	conf.ApplyDefaults()
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf
	r.logger = logger

	if err := db.AutoMigrate(
		models.Session{}, models.RunSnapshot{}, models.LLMLog{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(mbmiddleware.BasicAuth(mbmiddleware.BasicAuthConfig{
		Auth:         conf.Web.BasicAuth,
		Logger:       logger,
		SkipPrefixes: []string{"/api/health"},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().RequestURI
			if strings.HasPrefix(path, "/api") {
				return true
			}
			return false
		},
		Root:       "",
		Index:      "index.html",
		HTML5:      true,
		Browse:     false,
		IgnoreBase: false,
		Filesystem: http.FS(web.Assets()),
	}))

	for from, to := range render.LegacyPaths {
		e.GET(from, redirectTo(to))
	}

	api := e.Group("/api")
	{
		api.GET("/health", func(c echo.Context) error {
			return c.JSON(http.StatusOK, orz.Map{"status": "ok", "brand": conf.Web.Brand})
		})
		r.components.DashboardHandler.RegisterRoutes(api)
		r.components.SessionHandler.RegisterRoutes(api)
	}

	return nil
}

func (r *MagicButtonApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("MagicButton Dashboard Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	if err := components.Scheduler.Start(); err != nil {
		return err
	}

	if components.tg != nil {
		components.tg.Start()
	}

	if r.conf.Telegram.Enabled && components.tg == nil {
		logger.Warn("telegram enabled but bot not available, digest disabled")
	}

	names, err := components.StrategyService.List()
	if err != nil {
		logger.Warn("failed to list strategies", zap.Error(err))
		return nil
	}
	logger.Info("strategy catalog ready", zap.Int("strategies", len(names)))
	return nil
}

func redirectTo(path string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, path)
	}
}

// Shutdown 停止定时任务与机器人轮询，HTTP 服务退出后调用
func (r *MagicButtonApp) Shutdown() {
	r.stopOnce.Do(func() {
		components := r.GetComponents()
		if components == nil {
			return
		}
		if components.tg != nil {
			components.tg.Stop()
		}
		if components.Scheduler != nil {
			components.Scheduler.Stop()
		}
		if r.logger != nil {
			r.logger.Info("MagicButton Dashboard stopped")
		}
	})
}
