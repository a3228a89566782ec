//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/handler"
	"github.com/dushixiang/magicbutton/internal/service"
)

var (
	handlerSet = wire.NewSet(
		handler.NewDashboardHandler,
		handler.NewSessionHandler,
	)

	dashboardSet = wire.NewSet(
		service.NewStrategyService,
		service.NewSnapshotService,
		service.NewDashboardService,
		service.NewSessionService,
		service.NewDigester,
		provideCompleter,
		service.NewAnalysisService,
		provideTelegram,
		provideNotifier,
		service.NewScheduler,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		dashboardSet,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
