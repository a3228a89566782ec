package ohlcv

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dushixiang/magicbutton/pkg/frame"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

const (
	Open   = "open"
	High   = "high"
	Low    = "low"
	Close  = "close"
	Volume = "volume"
)

var Fields = []string{Open, High, Low, Close, Volume}

var ErrNoData = errors.New("no ohlcv data")

// Row 行情文件中的一行，多余的列忽略
type Row struct {
	OpenTime string `csv:"open_time"`
	Open     string `csv:"open"`
	High     string `csv:"high"`
	Low      string `csv:"low"`
	Close    string `csv:"close"`
	Volume   string `csv:"volume"`
}

type bar struct {
	t      time.Time
	values [5]float64
}

// Range 行情时间范围，End 为零值表示不限制
type Range struct {
	Start time.Time
	End   time.Time
}

// ParseRange 解析 yyyy-mm-dd 格式的起止日期，结束日期包含当天
func ParseRange(start, end string) (Range, error) {
	var r Range
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return r, fmt.Errorf("start date: %w", err)
		}
		r.Start = t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return r, fmt.Errorf("end date: %w", err)
		}
		r.End = t.Add(24*time.Hour - time.Nanosecond)
	}
	if !r.End.IsZero() && r.End.Before(r.Start) {
		return r, fmt.Errorf("end date %s before start date %s", end, start)
	}
	return r, nil
}

func (r Range) contains(t time.Time) bool {
	if t.Before(r.Start) {
		return false
	}
	return r.End.IsZero() || !t.After(r.End)
}

// Panel 行情面板，每个字段一张表，列为标的
type Panel struct {
	Fields  map[string]*frame.Frame
	Symbols []string
	Dropped []string
}

func (p *Panel) Field(name string) *frame.Frame {
	return p.Fields[name]
}

func (p *Panel) Close() *frame.Frame {
	return p.Field(Close)
}

// Filename 标的对应的行情文件名
func Filename(symbol string) string {
	return symbol + "_ohlcv_data.csv"
}

type Loader struct {
	logger *zap.Logger
	dir    string
	rng    Range
}

func NewLoader(logger *zap.Logger, dir string, rng Range) *Loader {
	return &Loader{logger: logger, dir: dir, rng: rng}
}

// Load 读取各标的行情，文件缺失或过滤后为空的标的从结果中剔除
func (l *Loader) Load(symbols []string) (*Panel, error) {
	series := make(map[string][]bar, len(symbols))
	panel := &Panel{Fields: make(map[string]*frame.Frame, len(Fields))}

	for _, symbol := range symbols {
		if symbol == "" {
			continue
		}
		bars, err := l.readSymbol(symbol)
		if err != nil {
			l.logger.Warn("drop symbol without ohlcv data",
				zap.String("symbol", symbol),
				zap.Error(err))
			panel.Dropped = append(panel.Dropped, symbol)
			continue
		}
		series[symbol] = bars
		panel.Symbols = append(panel.Symbols, symbol)
	}

	indexes := make([][]time.Time, 0, len(series))
	for _, bars := range series {
		idx := make([]time.Time, len(bars))
		for i, b := range bars {
			idx[i] = b.t
		}
		indexes = append(indexes, idx)
	}
	index := frame.UnionIndex(indexes...)
	pos := make(map[int64]int, len(index))
	for i, t := range index {
		pos[t.UnixNano()] = i
	}

	for f, field := range Fields {
		data := make([][]float64, len(index))
		for i := range data {
			row := make([]float64, len(panel.Symbols))
			for j := range row {
				row[j] = math.NaN()
			}
			data[i] = row
		}
		for j, symbol := range panel.Symbols {
			for _, b := range series[symbol] {
				data[pos[b.t.UnixNano()]][j] = b.values[f]
			}
		}
		panel.Fields[field] = &frame.Frame{
			Index:   append([]time.Time(nil), index...),
			Columns: append([]string(nil), panel.Symbols...),
			Data:    data,
		}
	}
	return panel, nil
}

func (l *Loader) readSymbol(symbol string) ([]bar, error) {
	f, err := os.Open(filepath.Join(l.dir, Filename(symbol)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	bars := make([]bar, 0, len(rows))
	for i, row := range rows {
		t, err := frame.ParseTime(row.OpenTime)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", symbol, i, err)
		}
		t = t.UTC()
		if !l.rng.contains(t) {
			continue
		}
		b := bar{t: frame.Naive(t)}
		for k, s := range []string{row.Open, row.High, row.Low, row.Close, row.Volume} {
			v, err := frame.ParseFloat(s)
			if err != nil {
				return nil, fmt.Errorf("%s row %d %s: %w", symbol, i, Fields[k], err)
			}
			b.values[k] = v
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].t.Before(bars[j].t) })
	// 同一时间戳保留最后一条
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].t.Equal(b.t) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Read 解析行情 CSV
func Read(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Write 按行情文件格式写出
func Write(w io.Writer, rows []Row) error {
	return gocsv.Marshal(rows, w)
}
