package render

import (
	"math"
	"time"

	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/pkg/frame"
	"github.com/go-orz/orz"
)

// Figure 前端 Plotly 直接使用的图表描述
type Figure struct {
	Data   []orz.Map `json:"data"`
	Layout orz.Map   `json:"layout"`
}

func darkLayout(extra orz.Map) orz.Map {
	layout := orz.Map{
		"template":      "plotly_dark",
		"plot_bgcolor":  "rgba(0, 0, 0, 0)",
		"paper_bgcolor": "rgba(0, 0, 0, 0)",
		"margin":        orz.Map{"l": 20, "r": 20, "t": 20, "b": 20},
		"modebar":       orz.Map{"bgcolor": "rgba(0, 0, 0, 0)"},
	}
	for k, v := range extra {
		layout[k] = v
	}
	return layout
}

// Nullable 将 NaN 转为 null
func Nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

func dates(index []time.Time) []string {
	out := make([]string, len(index))
	for i, t := range index {
		out[i] = t.Format("2006-01-02 15:04:05")
	}
	return out
}

// LineFigure 每列一条折线
func LineFigure(f *frame.Frame) Figure {
	x := dates(f.Index)
	traces := make([]orz.Map, 0, len(f.Columns))
	for _, name := range f.Columns {
		values, _ := f.Column(name)
		traces = append(traces, orz.Map{
			"type": "scatter",
			"mode": "lines",
			"name": name,
			"x":    x,
			"y":    Nullable(values),
		})
	}
	return Figure{Data: traces, Layout: darkLayout(orz.Map{"showlegend": true})}
}

// SunburstFigure 持仓旭日图，只有叶子节点带数值，上层由图表按子节点求和
func SunburstFigure(nodes []portfolio.SunburstNode) Figure {
	branches := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Parent != "" {
			branches[n.Parent] = struct{}{}
		}
	}

	ids := make([]string, len(nodes))
	labels := make([]string, len(nodes))
	parents := make([]string, len(nodes))
	values := make([]float64, len(nodes))
	colors := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i], labels[i], parents[i], colors[i] = n.ID, n.Label, n.Parent, n.Color
		if _, ok := branches[n.ID]; !ok {
			values[i] = Round2(n.Value)
		}
	}
	return Figure{
		Data: []orz.Map{{
			"type":                  "sunburst",
			"ids":                   ids,
			"labels":                labels,
			"parents":               parents,
			"values":                values,
			"branchvalues":          "remainder",
			"marker":                orz.Map{"colors": colors},
			"insidetextorientation": "tangential",
			"opacity":               1,
		}},
		Layout: darkLayout(nil),
	}
}

// ExposureFigure 总敞口、多头、空头、现金柱状图
func ExposureFigure(e portfolio.Exposure) Figure {
	traces := make([]orz.Map, 0, 4)
	for _, bar := range []struct {
		name  string
		value float64
	}{
		{portfolio.SideTotal, e.Total},
		{portfolio.SideLong, e.Long},
		{portfolio.SideShort, e.Short},
		{portfolio.SideCash, e.Cash},
	} {
		traces = append(traces, orz.Map{
			"type":    "bar",
			"name":    bar.name,
			"x":       []string{bar.name},
			"y":       []float64{Round2(bar.value)},
			"marker":  orz.Map{"color": portfolio.SideColors[bar.name]},
			"opacity": 0.8,
		})
	}
	return Figure{Data: traces, Layout: darkLayout(orz.Map{
		"yaxis":           orz.Map{"title": orz.Map{"text": "Dollars ($)"}},
		"showlegend":      false,
		"barcornerradius": 5,
	})}
}

// HistoryFigure 最近几天的持仓价值分组柱状图
func HistoryFigure(bars []portfolio.HistoryBar) Figure {
	traces := make([]orz.Map, 0, len(bars))
	for _, bar := range bars {
		traces = append(traces, orz.Map{
			"type":    "bar",
			"name":    bar.Date,
			"x":       bar.Symbols,
			"y":       Nullable(bar.Values),
			"opacity": 0.8,
		})
	}
	return Figure{Data: traces, Layout: darkLayout(orz.Map{"barmode": "group"})}
}
