package render

import (
	"fmt"

	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/pkg/frame"
)

// Card 概览卡片
type Card struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
	Pill  *Pill  `json:"pill,omitempty"`
}

func percentOf(v, base float64) float64 {
	return v / base * 100
}

// BalanceCard 当前余额 = 初始资金 + 累计收益，标签为当日收益率
func BalanceCard(initial, totalPnL, dailyPnL float64) Card {
	pill := PercentPill(percentOf(dailyPnL, initial))
	return Card{
		Title: "Balance",
		Value: Currency(initial + totalPnL),
		Pill:  &pill,
	}
}

// PnLCard 累计收益
func PnLCard(initial, totalPnL float64) Card {
	pill := PercentPill(percentOf(totalPnL, initial))
	return Card{
		Title: "PnL (All time)",
		Value: SignedCurrency(totalPnL),
		Color: Tone(totalPnL),
		Pill:  &pill,
	}
}

// PeriodCard 最近 n 个周期的收益
func PeriodCard(initial, delta float64, periods int) Card {
	pill := PercentPill(percentOf(delta, initial))
	return Card{
		Title: fmt.Sprintf("%dd PnL", periods),
		Value: SignedCurrency(delta),
		Color: Tone(delta),
		Pill:  &pill,
	}
}

// FeeCard 预估手续费，始终按支出展示
func FeeCard(fee portfolio.Fee) Card {
	pill := CostPill(fee.Percent)
	return Card{
		Title: "Trading Fee",
		Value: SignedCurrency(-fee.Total),
		Color: ColorDown,
		Pill:  &pill,
	}
}

// Grid 前端表格
type Grid struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

func GridOf(t *frame.Table) Grid {
	return Grid{
		Columns: append([]string{}, t.Columns...),
		Rows:    t.Records(),
	}
}
