package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/dataset"
	"github.com/dushixiang/magicbutton/internal/ohlcv"
	"github.com/dushixiang/magicbutton/internal/portfolio"
	"go.uber.org/zap"
)

// Run 已加载的策略运行及其行情，加载后只读
type Run struct {
	*dataset.Run
	Panel    *ohlcv.Panel
	LoadedAt time.Time
}

// StrategyService 策略目录与运行缓存
type StrategyService struct {
	logger  *zap.Logger
	catalog *dataset.Catalog
	loader  *ohlcv.Loader
	fee     portfolio.FeeSchedule

	mu   sync.Mutex
	runs map[string]*Run
}

// NewStrategyService 创建策略服务
func NewStrategyService(logger *zap.Logger, conf *config.Config) (*StrategyService, error) {
	ohlcvConf, err := conf.OHLCV()
	if err != nil {
		return nil, err
	}
	rng, err := ohlcv.ParseRange(ohlcvConf.StartDate, ohlcvConf.EndDate)
	if err != nil {
		return nil, fmt.Errorf("ohlcv_data.%s: %w", conf.Web.OHLCVTimeframe, err)
	}
	rates, err := conf.FeeRates()
	if err != nil {
		return nil, err
	}

	return &StrategyService{
		logger:  logger,
		catalog: dataset.NewCatalog(conf.Web.Strategy.Dir, conf.Web.Strategy.ExcludeFolders),
		loader:  ohlcv.NewLoader(logger, ohlcvConf.Dir, rng),
		fee:     portfolio.FeeSchedule{Market: rates.Market, Limit: rates.Limit},
		runs:    make(map[string]*Run),
	}, nil
}

// List 可选择的策略运行
func (s *StrategyService) List() ([]string, error) {
	return s.catalog.List()
}

func (s *StrategyService) Catalog() *dataset.Catalog {
	return s.catalog
}

// FeeSchedule 当前交易所与市场的费率
func (s *StrategyService) FeeSchedule() portfolio.FeeSchedule {
	return s.fee
}

// Get 读取运行，命中缓存时直接返回；fresh 表示本次是从磁盘加载
func (s *StrategyService) Get(ctx context.Context, name string) (run *Run, fresh bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run, ok := s.runs[name]; ok {
		return run, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	data, err := s.catalog.Load(name)
	if err != nil {
		return nil, false, err
	}
	panel, err := s.loader.Load(data.Symbols())
	if err != nil {
		return nil, false, fmt.Errorf("load ohlcv for %s: %w", name, err)
	}

	run = &Run{Run: data, Panel: panel, LoadedAt: time.Now()}
	s.runs[name] = run

	s.logger.Info("strategy run loaded",
		zap.String("strategy", name),
		zap.Int("rows", data.Position.Len()),
		zap.Strings("symbols", panel.Symbols),
		zap.Strings("dropped", panel.Dropped),
		zap.Duration("elapsed", time.Since(start)))
	return run, true, nil
}

// Invalidate 清空运行缓存，下次访问重新读取文件
func (s *StrategyService) Invalidate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.runs)
	s.runs = make(map[string]*Run)
	return n
}
