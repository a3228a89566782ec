package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dushixiang/magicbutton/pkg/frame"
)

// Kind 策略输出的数据文件类型
type Kind string

const (
	Position      Kind = "position"
	UnrealizedPnL Kind = "unrealized_pnl"
	RealizedPnL   Kind = "realized_pnl"
	Trades        Kind = "trades"
	BalanceCash   Kind = "balance_cash"
	EntryInfo     Kind = "entry_info"
)

// Kinds 每次运行必须包含的全部数据文件
var Kinds = []Kind{Position, UnrealizedPnL, RealizedPnL, Trades, BalanceCash, EntryInfo}

// 文件名中包含 _<kind> 即视为匹配
func (k Kind) matches(filename string) bool {
	return strings.Contains(filename, "_"+string(k))
}

var (
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrMissingDataset   = errors.New("missing dataset")
	ErrAmbiguousDataset = errors.New("ambiguous dataset")
)

type MissingDatasetError struct {
	Dir   string
	Kinds []Kind
}

func (e *MissingDatasetError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("%s: no csv file for %s", e.Dir, strings.Join(names, ", "))
}

func (e *MissingDatasetError) Unwrap() error {
	return ErrMissingDataset
}

type AmbiguousDatasetError struct {
	Dir     string
	Matches map[Kind][]string
}

func (e *AmbiguousDatasetError) Error() string {
	parts := make([]string, 0, len(e.Matches))
	for _, k := range Kinds {
		files, ok := e.Matches[k]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s matches %s", k, strings.Join(files, ", ")))
	}
	return fmt.Sprintf("%s: %s", e.Dir, strings.Join(parts, "; "))
}

func (e *AmbiguousDatasetError) Unwrap() error {
	return ErrAmbiguousDataset
}

// Run 一次策略运行的全部数据
type Run struct {
	Name  string
	Dir   string
	Files map[Kind]string

	Position      *frame.Frame
	UnrealizedPnL *frame.Frame
	RealizedPnL   *frame.Frame
	Trades        *frame.Table
	BalanceCash   *frame.Table
	EntryInfo     *frame.Table
}

// Symbols 持仓表的列即可交易标的全集
func (r *Run) Symbols() []string {
	return append([]string(nil), r.Position.Columns...)
}

// Resolve 按文件名把目录下的 CSV 对应到数据类型，缺失或重复都会报错
func Resolve(dir string) (map[Kind]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, dir)
		}
		return nil, err
	}

	matches := make(map[Kind][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		for _, k := range Kinds {
			if k.matches(entry.Name()) {
				matches[k] = append(matches[k], entry.Name())
			}
		}
	}

	var missing []Kind
	ambiguous := make(map[Kind][]string)
	files := make(map[Kind]string, len(Kinds))
	for _, k := range Kinds {
		switch found := matches[k]; len(found) {
		case 0:
			missing = append(missing, k)
		case 1:
			files[k] = filepath.Join(dir, found[0])
		default:
			sort.Strings(found)
			ambiguous[k] = found
		}
	}
	if len(missing) > 0 {
		return nil, &MissingDatasetError{Dir: dir, Kinds: missing}
	}
	if len(ambiguous) > 0 {
		return nil, &AmbiguousDatasetError{Dir: dir, Matches: ambiguous}
	}
	return files, nil
}

// Load 读取并规范化一次运行的全部数据文件
func Load(dir string) (*Run, error) {
	files, err := Resolve(dir)
	if err != nil {
		return nil, err
	}

	tables := make(map[Kind]*frame.Table, len(files))
	for _, k := range Kinds {
		t, err := frame.ReadCSVFile(files[k])
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", k, err)
		}
		tables[k] = t
	}

	run := &Run{
		Name:        filepath.Base(dir),
		Dir:         dir,
		Files:       files,
		Trades:      tables[Trades],
		BalanceCash: tables[BalanceCash],
		EntryInfo:   tables[EntryInfo],
	}

	if run.Position, err = timeIndexed(tables[Position]); err != nil {
		return nil, fmt.Errorf("normalize %s: %w", Position, err)
	}
	if run.UnrealizedPnL, err = timeIndexed(tables[UnrealizedPnL]); err != nil {
		return nil, fmt.Errorf("normalize %s: %w", UnrealizedPnL, err)
	}
	if run.RealizedPnL, err = timeIndexed(tables[RealizedPnL]); err != nil {
		return nil, fmt.Errorf("normalize %s: %w", RealizedPnL, err)
	}

	if len(run.EntryInfo.Columns) > 0 {
		run.EntryInfo.Rename(run.EntryInfo.Columns[0], "symbols")
	}
	return run, nil
}

// 第一列为时间索引，去掉时区但保留墙上时间，行按时间升序
func timeIndexed(t *frame.Table) (*frame.Frame, error) {
	if len(t.Columns) == 0 {
		return nil, frame.ErrEmptyFile
	}
	f, err := t.ToFrame(0)
	if err != nil {
		return nil, err
	}
	f.Index = frame.NaiveIndex(f.Index)
	f.SortIndex()
	return f, nil
}
