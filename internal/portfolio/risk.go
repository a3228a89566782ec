package portfolio

import (
	"fmt"
	"math"

	"github.com/dushixiang/magicbutton/pkg/ta"
	"github.com/markcheno/go-talib"
)

// Risk 基于净值曲线的收益与回撤指标，百分比单位
type Risk struct {
	PeakBalance         float64 `json:"peak_balance"`
	ReturnPercent       float64 `json:"return_percent"`
	DrawdownFromPeak    float64 `json:"drawdown_from_peak"`    // 当前相对峰值的回撤
	MaxDrawdown         float64 `json:"max_drawdown"`          // 历史最大回撤
	DrawdownFromInitial float64 `json:"drawdown_from_initial"` // 低于初始资金时的亏损
	SharpeRatio         float64 `json:"sharpe_ratio"`          // 逐期收益，无风险利率为0，不年化
}

// Equity 初始资金加累计收益得到的净值序列
func Equity(initial float64, totalPnL []float64) []float64 {
	out := make([]float64, len(totalPnL))
	for i, v := range totalPnL {
		out[i] = initial + v
	}
	return out
}

// RiskOf 计算净值曲线的风险指标
func RiskOf(initial float64, totalPnL []float64) (Risk, error) {
	if len(totalPnL) == 0 {
		return Risk{}, fmt.Errorf("risk: %w", ErrInsufficientData)
	}
	if initial <= 0 || math.IsNaN(initial) {
		return Risk{}, fmt.Errorf("risk: %w", ErrNoBalance)
	}
	equity := Equity(initial, totalPnL)
	current := ta.Last(equity, 0)

	r := Risk{
		PeakBalance:   math.Max(ta.Highest(equity, len(equity)), initial),
		ReturnPercent: (current - initial) / initial * 100,
	}
	r.DrawdownFromPeak = (current - r.PeakBalance) / r.PeakBalance * 100
	r.MaxDrawdown = math.Min(ta.Lowest(ta.Drawdowns(append([]float64{initial}, equity...)), len(equity)+1), 0)
	if current < initial {
		r.DrawdownFromInitial = r.ReturnPercent
	}

	returns := ta.Returns(equity)
	if len(returns) >= 2 {
		mean := ta.Last(talib.Sma(returns, len(returns)), 0)
		std := ta.Last(talib.StdDev(returns, len(returns), 1), 0)
		if std > 0 {
			r.SharpeRatio = mean / std
		}
	}
	return r, nil
}
