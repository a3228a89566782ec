package exchange

import (
	"context"
	"errors"
	"time"
)

// SymbolStatusTrading 可交易状态
const SymbolStatusTrading = "TRADING"

var ErrSymbolNotFound = errors.New("symbol not found")

// KlineSource 行情来源，按时间范围分页拉取 K 线
type KlineSource interface {
	GetKlines(ctx context.Context, symbol string, interval Interval, start, end time.Time, limit int) ([]*Kline, error)
	GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
}
