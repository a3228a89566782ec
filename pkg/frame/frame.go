package frame

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrShape      = errors.New("frame: shape mismatch")
	ErrMisaligned = errors.New("frame: index not aligned")
)

// Frame 以时间为索引的二维浮点表，行对应时间戳，列对应标的
// 缺失值使用 NaN 表示
type Frame struct {
	Index   []time.Time
	Columns []string
	Data    [][]float64
}

// New 创建Frame，校验行列数量
func New(index []time.Time, columns []string, data [][]float64) (*Frame, error) {
	if len(data) != len(index) {
		return nil, fmt.Errorf("%w: %d rows for %d index entries", ErrShape, len(data), len(index))
	}
	for i, row := range data {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d columns", ErrShape, i, len(row), len(columns))
		}
	}
	return &Frame{Index: index, Columns: columns, Data: data}, nil
}

// Empty 创建只有列名的空表
func Empty(columns []string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

func (f *Frame) Len() int {
	return len(f.Index)
}

func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column 返回一列的拷贝
func (f *Frame) Column(name string) ([]float64, bool) {
	j := f.ColumnIndex(name)
	if j < 0 {
		return nil, false
	}
	out := make([]float64, len(f.Data))
	for i, row := range f.Data {
		out[i] = row[j]
	}
	return out, true
}

// Row 返回一行的拷贝
func (f *Frame) Row(i int) []float64 {
	return append([]float64(nil), f.Data[i]...)
}

// Last 返回最后一行
func (f *Frame) Last() (time.Time, []float64, bool) {
	if f.Len() == 0 {
		return time.Time{}, nil, false
	}
	i := f.Len() - 1
	return f.Index[i], f.Row(i), true
}

func (f *Frame) Clone() *Frame {
	data := make([][]float64, len(f.Data))
	for i, row := range f.Data {
		data[i] = append([]float64(nil), row...)
	}
	return &Frame{
		Index:   append([]time.Time(nil), f.Index...),
		Columns: append([]string(nil), f.Columns...),
		Data:    data,
	}
}

// SumColumns 按行对所有列求和，跳过 NaN，全为 NaN 时结果为 0
func (f *Frame) SumColumns() []float64 {
	out := make([]float64, len(f.Data))
	for i, row := range f.Data {
		sum := 0.0
		for _, v := range row {
			if !math.IsNaN(v) {
				sum += v
			}
		}
		out[i] = sum
	}
	return out
}

// CumSum 按列累加，NaN 保持原位且不打断累加
func (f *Frame) CumSum() *Frame {
	out := f.Clone()
	running := make([]float64, len(f.Columns))
	for i := range out.Data {
		for j, v := range out.Data[i] {
			if math.IsNaN(v) {
				continue
			}
			running[j] += v
			out.Data[i][j] = running[j]
		}
	}
	return out
}

// WithColumn 追加或替换一列
func (f *Frame) WithColumn(name string, values []float64) (*Frame, error) {
	if len(values) != f.Len() {
		return nil, fmt.Errorf("%w: column %q has %d values for %d rows", ErrShape, name, len(values), f.Len())
	}
	out := f.Clone()
	j := out.ColumnIndex(name)
	if j < 0 {
		out.Columns = append(out.Columns, name)
		for i := range out.Data {
			out.Data[i] = append(out.Data[i], values[i])
		}
		return out, nil
	}
	for i := range out.Data {
		out.Data[i][j] = values[i]
	}
	return out, nil
}

// Add 逐元素相加，要求索引一致，列取并集，缺失列按 NaN 处理
func (f *Frame) Add(o *Frame) (*Frame, error) {
	return f.combine(o, func(a, b float64) float64 { return a + b })
}

// Mul 逐元素相乘，要求索引一致，列取并集，缺失列按 NaN 处理
func (f *Frame) Mul(o *Frame) (*Frame, error) {
	return f.combine(o, func(a, b float64) float64 { return a * b })
}

func (f *Frame) combine(o *Frame, fn func(a, b float64) float64) (*Frame, error) {
	if !SameIndex(f.Index, o.Index) {
		return nil, fmt.Errorf("%w: %d rows vs %d rows", ErrMisaligned, f.Len(), o.Len())
	}
	columns := append([]string(nil), f.Columns...)
	for _, c := range o.Columns {
		if f.ColumnIndex(c) < 0 {
			columns = append(columns, c)
		}
	}
	left := f.Reindex(columns)
	right := o.Reindex(columns)
	data := make([][]float64, f.Len())
	for i := range data {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = fn(left.Data[i][j], right.Data[i][j])
		}
		data[i] = row
	}
	return &Frame{Index: append([]time.Time(nil), f.Index...), Columns: columns, Data: data}, nil
}

// Reindex 按给定列重新排列，不存在的列填充 NaN
func (f *Frame) Reindex(columns []string) *Frame {
	pos := make([]int, len(columns))
	for j, c := range columns {
		pos[j] = f.ColumnIndex(c)
	}
	data := make([][]float64, len(f.Data))
	for i, src := range f.Data {
		row := make([]float64, len(columns))
		for j, p := range pos {
			if p < 0 {
				row[j] = math.NaN()
			} else {
				row[j] = src[p]
			}
		}
		data[i] = row
	}
	return &Frame{
		Index:   append([]time.Time(nil), f.Index...),
		Columns: append([]string(nil), columns...),
		Data:    data,
	}
}

// Loc 按时间戳取行，任一时间戳不存在时返回 ErrMisaligned
func (f *Frame) Loc(index []time.Time) (*Frame, error) {
	lookup := make(map[int64]int, f.Len())
	for i, t := range f.Index {
		lookup[t.UnixNano()] = i
	}
	data := make([][]float64, 0, len(index))
	missing := 0
	var first time.Time
	for _, t := range index {
		i, ok := lookup[t.UnixNano()]
		if !ok {
			if missing == 0 {
				first = t
			}
			missing++
			continue
		}
		data = append(data, append([]float64(nil), f.Data[i]...))
	}
	if missing > 0 {
		return nil, fmt.Errorf("%w: %d timestamps not found, first %s", ErrMisaligned, missing, first.Format(time.RFC3339))
	}
	return &Frame{
		Index:   append([]time.Time(nil), index...),
		Columns: append([]string(nil), f.Columns...),
		Data:    data,
	}, nil
}

// Tail 返回最后 n 行
func (f *Frame) Tail(n int) *Frame {
	if n >= f.Len() {
		return f.Clone()
	}
	if n < 0 {
		n = 0
	}
	start := f.Len() - n
	out := &Frame{
		Index:   append([]time.Time(nil), f.Index[start:]...),
		Columns: append([]string(nil), f.Columns...),
		Data:    make([][]float64, 0, n),
	}
	for _, row := range f.Data[start:] {
		out.Data = append(out.Data, append([]float64(nil), row...))
	}
	return out
}

// SortIndex 按时间升序排列行
func (f *Frame) SortIndex() {
	order := make([]int, f.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return f.Index[order[a]].Before(f.Index[order[b]])
	})
	index := make([]time.Time, len(order))
	data := make([][]float64, len(order))
	for i, o := range order {
		index[i] = f.Index[o]
		data[i] = f.Data[o]
	}
	f.Index = index
	f.Data = data
}

// SameIndex 判断两个索引是否完全一致
func SameIndex(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// UnionIndex 合并多个索引，去重并升序
func UnionIndex(indexes ...[]time.Time) []time.Time {
	seen := make(map[int64]time.Time)
	for _, idx := range indexes {
		for _, t := range idx {
			seen[t.UnixNano()] = t
		}
	}
	out := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Intersect 返回同时存在于 a 和 b 的时间戳，保持 a 的顺序
func Intersect(a, b []time.Time) []time.Time {
	lookup := make(map[int64]struct{}, len(b))
	for _, t := range b {
		lookup[t.UnixNano()] = struct{}{}
	}
	out := make([]time.Time, 0, len(a))
	for _, t := range a {
		if _, ok := lookup[t.UnixNano()]; ok {
			out = append(out, t)
		}
	}
	return out
}
