package frame

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime 解析 pandas/交易所导出的时间，纯数字按 Unix 秒或毫秒处理
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if n, err := cast.ToInt64E(s); err == nil {
		// 1e11 秒约为公元5138年，超过即视为毫秒
		if n > 1e11 || n < -1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Naive 去掉时区信息，保留墙上时间
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// NaiveIndex 对整个索引去掉时区
func NaiveIndex(index []time.Time) []time.Time {
	out := make([]time.Time, len(index))
	for i, t := range index {
		out[i] = Naive(t)
	}
	return out
}
