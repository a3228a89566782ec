package render

import "net/http"

// Target 页面上可更新的区域
type Target string

const (
	TargetPage      Target = "page-content"
	TargetBalance   Target = "balance-card"
	TargetPnL       Target = "pnl-card"
	TargetFee       Target = "fee-card"
	TargetPeriod    Target = "period-card"
	TargetPnLFigure Target = "pnl-figure"
	TargetPosValue  Target = "pos-val-graph"
	TargetTrades    Target = "trades-table"
	TargetEntryInfo Target = "entry-info-table"
)

// DataTargets 依赖所选策略数据的全部区域
var DataTargets = []Target{
	TargetBalance, TargetPnL, TargetFee, TargetPeriod,
	TargetPnLFigure, TargetPosValue, TargetTrades, TargetEntryInfo,
}

type Kind string

const (
	KindPage    Kind = "page"
	KindCard    Kind = "card"
	KindFigures Kind = "figures"
	KindGrid    Kind = "grid"
	KindError   Kind = "error"
)

// Instruction 单个区域的渲染指令，失败时只携带错误信息
type Instruction struct {
	Target  Target `json:"target"`
	Kind    Kind   `json:"kind"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Failed(target Target, err error) Instruction {
	return Instruction{Target: target, Kind: KindError, Error: err.Error()}
}

// Page 侧边栏导航对应的页面
type Page struct {
	Path   string `json:"path"`
	Title  string `json:"title"`
	Status int    `json:"status"`
}

var pages = map[string]string{
	"/":           "Dashboard",
	"/simulation": "Simulation",
	"/analysis":   "Analysis",
}

// LegacyPaths 旧版页面地址到当前地址
var LegacyPaths = map[string]string{
	"/page-1": "/simulation",
	"/page-2": "/analysis",
}

// Canonical 旧版地址替换为当前地址
func Canonical(path string) string {
	if path == "" {
		return "/"
	}
	if to, ok := LegacyPaths[path]; ok {
		return to
	}
	return path
}

// Route 路径到页面，未知路径返回 404 页面
func Route(path string) Page {
	path = Canonical(path)
	if title, ok := pages[path]; ok {
		return Page{Path: path, Title: title, Status: http.StatusOK}
	}
	return Page{Path: path, Title: "404: Not found", Status: http.StatusNotFound}
}
