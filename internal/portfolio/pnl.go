package portfolio

import (
	"errors"
	"fmt"
	"time"

	"github.com/dushixiang/magicbutton/pkg/frame"
)

const (
	SeriesTotal      = "Total PnL"
	SeriesUnrealized = "Unrealized PnL"
	SeriesRealized   = "Realized PnL"
	SumColumn        = "SUM"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidMode      = errors.New("invalid chart mode")
)

// PnLMode 收益曲线的展示方式
type PnLMode int

const (
	PnLAccount PnLMode = iota + 1
	PnLTotal
	PnLUnrealized
	PnLRealized
)

func (m PnLMode) Valid() bool {
	return m >= PnLAccount && m <= PnLRealized
}

func (m PnLMode) String() string {
	switch m {
	case PnLAccount:
		return "Account"
	case PnLTotal:
		return "Total"
	case PnLUnrealized:
		return "Unrealized"
	case PnLRealized:
		return "Realized"
	}
	return fmt.Sprintf("PnLMode(%d)", int(m))
}

// TotalPnL 账户收益曲线：未实现收益按时刻求和，已实现收益先按标的累加再求和
// 返回 Total / Unrealized / Realized 三列，两张表的时间索引必须一致
func TotalPnL(unrealized, realized *frame.Frame) (*frame.Frame, error) {
	if !frame.SameIndex(unrealized.Index, realized.Index) {
		return nil, fmt.Errorf("total pnl: %w: unrealized %d rows, realized %d rows",
			frame.ErrMisaligned, unrealized.Len(), realized.Len())
	}
	u := unrealized.SumColumns()
	r := realized.CumSum().SumColumns()

	data := make([][]float64, len(u))
	for i := range u {
		data[i] = []float64{u[i] + r[i], u[i], r[i]}
	}
	return frame.New(
		append([]time.Time(nil), unrealized.Index...),
		[]string{SeriesTotal, SeriesUnrealized, SeriesRealized},
		data,
	)
}

// PnLBreakdown 按展示方式生成收益曲线，除账户模式外都会追加 SUM 列
func PnLBreakdown(unrealized, realized *frame.Frame, mode PnLMode) (*frame.Frame, error) {
	var (
		out *frame.Frame
		err error
	)
	switch mode {
	case PnLAccount:
		return TotalPnL(unrealized, realized)
	case PnLTotal:
		out, err = unrealized.Add(realized.CumSum())
		if err != nil {
			return nil, fmt.Errorf("pnl breakdown: %w", err)
		}
	case PnLUnrealized:
		out = unrealized.Clone()
	case PnLRealized:
		out = realized.CumSum()
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	return out.WithColumn(SumColumn, out.SumColumns())
}
