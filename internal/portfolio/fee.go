package portfolio

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dushixiang/magicbutton/pkg/frame"
)

const (
	OrderTypeLimit = "LIMIT"
	StatusFailed   = "failed"
)

var ErrNoBalance = errors.New("initial balance unavailable")

// FeeSchedule 手续费率，单位为百分比
type FeeSchedule struct {
	Market float64
	Limit  float64
}

// Rate 限价单使用 limit 费率，其余按 market 费率
func (s FeeSchedule) Rate(orderType string) float64 {
	if strings.EqualFold(strings.TrimSpace(orderType), OrderTypeLimit) {
		return s.Limit
	}
	return s.Market
}

type Fee struct {
	Total   float64 `json:"total"`
	Percent float64 `json:"percent"`
	Trades  int     `json:"trades"`
}

// FeeEstimate 估算已成交订单的手续费，失败订单不计入
// 单笔手续费 = |数量 × 价格| × 费率 / 100，百分比相对初始资金
func FeeEstimate(trades *frame.Table, schedule FeeSchedule, initialBalance float64) (Fee, error) {
	for _, c := range []string{"quantity", "price", "order_type", "status"} {
		if trades.ColumnIndex(c) < 0 {
			return Fee{}, fmt.Errorf("fee estimate: trades column %q not found", c)
		}
	}
	if initialBalance <= 0 || math.IsNaN(initialBalance) {
		return Fee{}, fmt.Errorf("fee estimate: %w", ErrNoBalance)
	}

	var fee Fee
	for i := 0; i < trades.Len(); i++ {
		if strings.EqualFold(strings.TrimSpace(trades.Cell(i, "status")), StatusFailed) {
			continue
		}
		qty, err := frame.ParseFloat(trades.Cell(i, "quantity"))
		if err != nil {
			return Fee{}, fmt.Errorf("fee estimate: row %d quantity: %w", i, err)
		}
		price, err := frame.ParseFloat(trades.Cell(i, "price"))
		if err != nil {
			return Fee{}, fmt.Errorf("fee estimate: row %d price: %w", i, err)
		}
		notional := math.Abs(qty * price)
		if math.IsNaN(notional) {
			continue
		}
		fee.Total += notional * schedule.Rate(trades.Cell(i, "order_type")) / 100
		fee.Trades++
	}
	fee.Percent = fee.Total / initialBalance * 100
	return fee, nil
}
