package frame

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Table 保留CSV原始内容的字符串表，用于交易记录、余额等非数值矩阵数据
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell 返回单元格，越界时为空字符串
func (t *Table) Cell(row int, column string) string {
	j := t.ColumnIndex(column)
	if j < 0 || row < 0 || row >= len(t.Rows) || j >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][j]
}

// Column 返回一列
func (t *Table) Column(name string) ([]string, bool) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if j < len(row) {
			out[i] = row[j]
		}
	}
	return out, true
}

// Floats 将一列解析为浮点数，空单元格为 NaN
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]float64, len(col))
	for i, s := range col {
		v, err := ParseFloat(s)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Rename 重命名列，返回是否找到
func (t *Table) Rename(from, to string) bool {
	j := t.ColumnIndex(from)
	if j < 0 {
		return false
	}
	t.Columns[j] = to
	return true
}

// Records 转换为记录列表，供前端表格使用
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for j, c := range t.Columns {
			if j < len(row) {
				rec[c] = row[j]
			}
		}
		out = append(out, rec)
	}
	return out
}

// ToFrame 以第 indexColumn 列为时间索引，其余列解析为浮点数
func (t *Table) ToFrame(indexColumn int) (*Frame, error) {
	if indexColumn < 0 || indexColumn >= len(t.Columns) {
		return nil, fmt.Errorf("index column %d out of range", indexColumn)
	}
	columns := make([]string, 0, len(t.Columns)-1)
	for j, c := range t.Columns {
		if j != indexColumn {
			columns = append(columns, c)
		}
	}

	index := make([]time.Time, 0, len(t.Rows))
	data := make([][]float64, 0, len(t.Rows))
	for i, row := range t.Rows {
		if indexColumn >= len(row) {
			return nil, fmt.Errorf("row %d: missing index value", i)
		}
		ts, err := ParseTime(row[indexColumn])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		values := make([]float64, 0, len(columns))
		for j := range t.Columns {
			if j == indexColumn {
				continue
			}
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			v, err := ParseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, t.Columns[j], err)
			}
			values = append(values, v)
		}
		index = append(index, ts)
		data = append(data, values)
	}
	return New(index, columns, data)
}

// ParseFloat 解析单元格，空值与 nan 返回 NaN
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return cast.ToFloat64E(s)
}
