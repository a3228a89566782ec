package exchange

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

// MaxKlineLimit 单次请求最多返回的 K 线数量
const MaxKlineLimit = 1500

// BinanceClient Binance期货行情客户端
type BinanceClient struct {
	client         *futures.Client
	symbolInfoMap  map[string]*SymbolInfo
	symbolInfoLock sync.RWMutex
	symbolsAt      time.Time
}

var _ KlineSource = (*BinanceClient)(nil)

// NewBinanceClient 创建Binance客户端
func NewBinanceClient(apiKey, secretKey, proxyURL string, testnet bool) *BinanceClient {
	var client *futures.Client
	if proxyURL != "" {
		client = futures.NewProxiedClient(apiKey, secretKey, proxyURL)
	} else {
		client = futures.NewClient(apiKey, secretKey)
	}

	if testnet {
		// 测试网URL
		futures.UseTestnet = true
	}

	return &BinanceClient{
		client:        client,
		symbolInfoMap: make(map[string]*SymbolInfo),
	}
}

func parseKline(k *futures.Kline) (*Kline, error) {
	var (
		values [5]float64
		err    error
	)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		values[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", k.OpenTime, err)
		}
	}
	return &Kline{
		OpenTime:  time.UnixMilli(k.OpenTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		CloseTime: time.UnixMilli(k.CloseTime).UTC(),
	}, nil
}

// GetKlines 获取 [start, end] 范围内的K线，end 为零值表示到当前
func (b *BinanceClient) GetKlines(ctx context.Context, symbol string, interval Interval, start, end time.Time, limit int) ([]*Kline, error) {
	if limit <= 0 || limit > MaxKlineLimit {
		limit = MaxKlineLimit
	}
	svc := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval.String()).
		StartTime(start.UnixMilli()).
		Limit(limit)
	if !end.IsZero() {
		svc = svc.EndTime(end.UnixMilli())
	}
	klines, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	result := make([]*Kline, 0, len(klines))
	for _, k := range klines {
		kline, err := parseKline(k)
		if err != nil {
			return nil, err
		}
		result = append(result, kline)
	}
	return result, nil
}

// GetSymbolInfo 获取交易对信息，交易所信息缓存5分钟
func (b *BinanceClient) GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	b.symbolInfoLock.RLock()
	info, exists := b.symbolInfoMap[symbol]
	fresh := time.Since(b.symbolsAt) < 5*time.Minute
	b.symbolInfoLock.RUnlock()
	if fresh {
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return info, nil
	}

	exchangeInfo, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange info: %w", err)
	}

	symbols := make(map[string]*SymbolInfo, len(exchangeInfo.Symbols))
	for _, s := range exchangeInfo.Symbols {
		symbols[s.Symbol] = &SymbolInfo{
			Symbol:         s.Symbol,
			Status:         s.Status,
			PricePrecision: s.PricePrecision,
		}
	}

	b.symbolInfoLock.Lock()
	b.symbolInfoMap = symbols
	b.symbolsAt = time.Now()
	b.symbolInfoLock.Unlock()

	info, exists = symbols[symbol]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return info, nil
}
