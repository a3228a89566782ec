package render

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	ColorUp   = "#69EBA6"
	ColorDown = "#ff8fa2"

	IconUp   = "bi bi-graph-up-arrow"
	IconDown = "bi bi-graph-down-arrow"
)

// Round2 四舍五入到两位小数
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func commas(v float64) string {
	return humanize.CommafWithDigits(Round2(v), 2)
}

// Currency 余额格式，例如 $ 10,045.29
func Currency(v float64) string {
	if math.IsNaN(v) {
		return "$ -"
	}
	return "$ " + commas(v)
}

// SignedCurrency 带符号的金额，例如 +$ 12.5、-$ 3.1
func SignedCurrency(v float64) string {
	switch r := Round2(v); {
	case math.IsNaN(r):
		return "$ -"
	case r > 0:
		return "+$ " + commas(r)
	case r < 0:
		return "-$ " + commas(-r)
	}
	return "$ 0"
}

// Tone 涨跌对应的颜色，零值无颜色
func Tone(v float64) string {
	switch r := Round2(v); {
	case r > 0:
		return ColorUp
	case r < 0:
		return ColorDown
	}
	return ""
}

// Pill 百分比标签
type Pill struct {
	Text  string `json:"text"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// PercentPill 百分比取绝对值，方向用图标和颜色表示
func PercentPill(percent float64) Pill {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return Pill{Text: "- %"}
	}
	p := Pill{
		Text:  humanize.FtoaWithDigits(math.Abs(Round2(percent)), 2) + "%",
		Color: Tone(percent),
	}
	switch p.Color {
	case ColorUp:
		p.Icon = IconUp
	case ColorDown:
		p.Icon = IconDown
	}
	return p
}

// CostPill 成本类百分比，始终按下降方向展示
func CostPill(percent float64) Pill {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return Pill{Text: "- %"}
	}
	return Pill{
		Text:  "↘ " + humanize.FtoaWithDigits(math.Abs(Round2(percent)), 2) + "%",
		Color: ColorDown,
	}
}
