package ta

import "math"

func Last(s []float64, position int) float64 {
	return s[len(s)-1-position]
}

func LastValues(s []float64, size int) []float64 {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Lowest 最近 period 个值中的最小值，空序列返回 NaN
func Lowest(s []float64, period int) float64 {
	arr := LastValues(s, period)
	if len(arr) == 0 {
		return math.NaN()
	}
	minVal := arr[0]

	for _, value := range arr {
		if value < minVal {
			minVal = value
		}
	}
	return minVal
}

// Highest 最近 period 个值中的最大值，空序列返回 NaN
func Highest(s []float64, period int) float64 {
	arr := LastValues(s, period)
	if len(arr) == 0 {
		return math.NaN()
	}
	maxVal := arr[0]

	for _, value := range arr {
		if value > maxVal {
			maxVal = value
		}
	}
	return maxVal
}

// Returns 相邻两点的收益率，前值不为正时跳过
func Returns(s []float64) []float64 {
	if len(s) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		if s[i-1] > 0 {
			out = append(out, (s[i]-s[i-1])/s[i-1])
		}
	}
	return out
}

// Drawdowns 每个点相对历史峰值的回撤百分比，非正数
func Drawdowns(s []float64) []float64 {
	out := make([]float64, len(s))
	peak := math.Inf(-1)
	for i, v := range s {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = (v - peak) / peak * 100
		}
	}
	return out
}
