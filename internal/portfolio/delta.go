package portfolio

import (
	"fmt"
	"math"

	"github.com/dushixiang/magicbutton/pkg/frame"
	"github.com/markcheno/go-talib"
)

// DailyDelta 最后一个值减去倒数第二个值
func DailyDelta(series []float64) (float64, error) {
	if len(series) < 2 {
		return 0, fmt.Errorf("daily delta: %w: %d points", ErrInsufficientData, len(series))
	}
	return series[len(series)-1] - series[len(series)-2], nil
}

// PeriodDelta 最近 n 个周期的变化量
func PeriodDelta(series []float64, n int) (float64, error) {
	if n < 1 || len(series) <= n {
		return 0, fmt.Errorf("period delta: %w: %d points for %d periods", ErrInsufficientData, len(series), n)
	}
	mom := talib.Mom(series, n)
	return mom[len(mom)-1], nil
}

// InitialBalance 余额表第一行的 current_balance
func InitialBalance(balance *frame.Table) (float64, error) {
	if balance.ColumnIndex("current_balance") < 0 {
		return 0, fmt.Errorf("%w: column current_balance not found", ErrNoBalance)
	}
	if balance.Len() == 0 {
		return 0, fmt.Errorf("%w: balance table is empty", ErrNoBalance)
	}
	v, err := frame.ParseFloat(balance.Cell(0, "current_balance"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoBalance, err)
	}
	if math.IsNaN(v) || v <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrNoBalance, v)
	}
	return v, nil
}
