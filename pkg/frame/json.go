package frame

import (
	"encoding/json"
	"math"
	"time"
)

// split 与 pandas orient='split' 相同的布局
type split struct {
	Columns []string     `json:"columns"`
	Index   []string     `json:"index"`
	Data    [][]*float64 `json:"data"`
}

// MarshalJSON 按 split 布局输出，索引为 RFC3339，NaN 与 ±Inf 都写成 null，
// 因此编码不可逆，只用于导出给前端和外部工具
func (f Frame) MarshalJSON() ([]byte, error) {
	s := split{
		Columns: f.Columns,
		Index:   make([]string, len(f.Index)),
		Data:    make([][]*float64, len(f.Data)),
	}
	if s.Columns == nil {
		s.Columns = []string{}
	}
	for i, t := range f.Index {
		s.Index[i] = t.Format(time.RFC3339Nano)
	}
	for i, row := range f.Data {
		out := make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			v := v
			out[j] = &v
		}
		s.Data[i] = out
	}
	return json.Marshal(s)
}
