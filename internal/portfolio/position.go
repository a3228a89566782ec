package portfolio

import (
	"fmt"
	"math"
	"time"

	"github.com/dushixiang/magicbutton/pkg/frame"
)

const (
	SideLong  = "Long"
	SideShort = "Short"
	SideNone  = "None"
	SideTotal = "Total"
	SideCash  = "Cash"
)

// SideColors 多空颜色
var SideColors = map[string]string{
	SideLong:  "#69EBA6",
	SideShort: "#E0305B",
	SideNone:  "#778899",
	SideTotal: "#944FBE",
	SideCash:  "#3C4749",
}

// PositionMode 持仓价值的展示方式
type PositionMode int

const (
	PositionStatus PositionMode = iota + 1
	PositionHistory
)

func (m PositionMode) Valid() bool {
	return m == PositionStatus || m == PositionHistory
}

// PositionValue 持仓数量乘以同一时刻的收盘价
// 输出列与持仓列一致，行情中没有的标的为 NaN；持仓的每个时间戳都必须在行情中存在
func PositionValue(position, closes *frame.Frame) (*frame.Frame, error) {
	aligned, err := closes.Loc(position.Index)
	if err != nil {
		return nil, fmt.Errorf("position value: %w", err)
	}
	aligned = aligned.Reindex(position.Columns)

	data := make([][]float64, position.Len())
	for i, row := range position.Data {
		out := make([]float64, len(row))
		for j, qty := range row {
			out[j] = qty * aligned.Data[i][j]
		}
		data[i] = out
	}
	return frame.New(
		append([]time.Time(nil), position.Index...),
		append([]string(nil), position.Columns...),
		data,
	)
}

// Exposure 最新时刻的多空敞口
type Exposure struct {
	At    time.Time `json:"at"`
	Total float64   `json:"total"`
	Long  float64   `json:"long"`
	Short float64   `json:"short"`
	Cash  float64   `json:"cash"`
}

// ExposureOf 取最后一行计算总敞口、多头、空头，现金为账户余额扣除总敞口，不低于 0
func ExposureOf(positionValue *frame.Frame, balance float64) (Exposure, error) {
	at, row, ok := positionValue.Last()
	if !ok {
		return Exposure{}, fmt.Errorf("exposure: %w", ErrInsufficientData)
	}
	e := Exposure{At: at}
	for _, v := range row {
		switch {
		case math.IsNaN(v):
		case v > 0:
			e.Long += v
		case v < 0:
			e.Short += -v
		}
	}
	e.Total = e.Long + e.Short
	e.Cash = math.Max(balance-e.Total, 0)
	return e, nil
}

// SunburstNode 旭日图节点
type SunburstNode struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Parent string  `json:"parent"`
	Value  float64 `json:"value"`
	Color  string  `json:"color"`
}

const sunburstRoot = "Position"

// Sunburst 最后一行按 持仓 -> 多空 -> 标的 组织，数值取绝对值
func Sunburst(positionValue *frame.Frame) ([]SunburstNode, error) {
	_, row, ok := positionValue.Last()
	if !ok {
		return nil, fmt.Errorf("sunburst: %w", ErrInsufficientData)
	}

	sides := map[string]float64{}
	var leaves []SunburstNode
	for j, v := range row {
		if math.IsNaN(v) {
			continue
		}
		side := SideLong
		switch {
		case v < 0:
			side = SideShort
		case v == 0:
			side = SideNone
		}
		sides[side] += math.Abs(v)
		leaves = append(leaves, SunburstNode{
			ID:     sunburstRoot + "/" + side + "/" + positionValue.Columns[j],
			Label:  positionValue.Columns[j],
			Parent: sunburstRoot + "/" + side,
			Value:  math.Abs(v),
			Color:  SideColors[side],
		})
	}

	total := 0.0
	nodes := []SunburstNode{{ID: sunburstRoot, Label: "", Color: "rgba(0, 0, 0, 0)"}}
	for _, side := range []string{SideLong, SideShort, SideNone} {
		v, ok := sides[side]
		if !ok {
			continue
		}
		total += v
		nodes = append(nodes, SunburstNode{
			ID:     sunburstRoot + "/" + side,
			Label:  side,
			Parent: sunburstRoot,
			Value:  v,
			Color:  SideColors[side],
		})
	}
	nodes[0].Value = total
	return append(nodes, leaves...), nil
}

// HistoryBar 某一天各标的持仓价值
type HistoryBar struct {
	Date    string    `json:"date"`
	Symbols []string  `json:"symbols"`
	Values  []float64 `json:"values"`
}

const DefaultHistory = 4

// History 最近 n 行持仓价值，按时间升序
func History(positionValue *frame.Frame, n int) []HistoryBar {
	if n <= 0 {
		n = DefaultHistory
	}
	tail := positionValue.Tail(n)
	bars := make([]HistoryBar, 0, tail.Len())
	for i, t := range tail.Index {
		bars = append(bars, HistoryBar{
			Date:    t.Format("2006-01-02"),
			Symbols: append([]string(nil), tail.Columns...),
			Values:  tail.Row(i),
		})
	}
	return bars
}
