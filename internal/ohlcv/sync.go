package ohlcv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dushixiang/magicbutton/pkg/exchange"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Syncer 从交易所拉取K线并写出行情文件
type Syncer struct {
	logger *zap.Logger
	source exchange.KlineSource
	dir    string
	// 单次请求的K线数量
	pageSize int
}

func NewSyncer(logger *zap.Logger, source exchange.KlineSource, dir string) *Syncer {
	return &Syncer{
		logger:   logger,
		source:   source,
		dir:      dir,
		pageSize: exchange.MaxKlineLimit,
	}
}

var ErrSymbolNotTrading = errors.New("symbol not trading")

// Check 确认交易对存在且处于可交易状态
func (s *Syncer) Check(ctx context.Context, symbol string) error {
	info, err := s.source.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return fmt.Errorf("%s: %w", symbol, err)
	}
	if info.Status != exchange.SymbolStatusTrading {
		return fmt.Errorf("%s: %w (status %s)", symbol, ErrSymbolNotTrading, info.Status)
	}
	return nil
}

// Fetch 分页拉取 [start, end) 内已收盘的K线
func (s *Syncer) Fetch(ctx context.Context, symbol string, interval exchange.Interval, start, end time.Time) ([]*exchange.Kline, error) {
	var out []*exchange.Kline
	cursor := start
	for cursor.Before(end) {
		page, err := s.source.GetKlines(ctx, symbol, interval, cursor, end.Add(-time.Millisecond), s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", symbol, err)
		}
		if len(page) == 0 {
			break
		}
		for _, k := range page {
			if k.OpenTime.Before(cursor) {
				continue
			}
			if !k.CloseTime.IsZero() && k.CloseTime.After(end) {
				continue
			}
			out = append(out, k)
		}
		next := page[len(page)-1].OpenTime.Add(interval.Duration())
		if !next.After(cursor) {
			break
		}
		cursor = next
		if len(page) < s.pageSize {
			break
		}
	}
	return out, nil
}

// Rows K线转换为行情文件行，open_time 为 UTC 的 RFC3339
func Rows(klines []*exchange.Kline) []Row {
	rows := make([]Row, 0, len(klines))
	for _, k := range klines {
		rows = append(rows, Row{
			OpenTime: k.OpenTime.UTC().Format(time.RFC3339),
			Open:     cast.ToString(k.Open),
			High:     cast.ToString(k.High),
			Low:      cast.ToString(k.Low),
			Close:    cast.ToString(k.Close),
			Volume:   cast.ToString(k.Volume),
		})
	}
	return rows
}

// Sync 拉取一个标的最近的K线并覆盖写出 {symbol}_ohlcv_data.csv
func (s *Syncer) Sync(ctx context.Context, symbol string, interval exchange.Interval, start, end time.Time) (int, error) {
	if err := s.Check(ctx, symbol); err != nil {
		return 0, err
	}
	klines, err := s.Fetch(ctx, symbol, interval, start, end)
	if err != nil {
		return 0, err
	}
	if len(klines) == 0 {
		return 0, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, err
	}
	path := filepath.Join(s.dir, Filename(symbol))
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	if err := Write(f, Rows(klines)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, err
	}

	s.logger.Info("ohlcv synced",
		zap.String("symbol", symbol),
		zap.String("interval", interval.String()),
		zap.Int("rows", len(klines)),
		zap.String("file", path))
	return len(klines), nil
}
