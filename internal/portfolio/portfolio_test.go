package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/dushixiang/magicbutton/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func mustFrame(t *testing.T, index []time.Time, columns []string, data [][]float64) *frame.Frame {
	t.Helper()
	f, err := frame.New(index, columns, data)
	require.NoError(t, err)
	return f
}

func column(t *testing.T, f *frame.Frame, name string) []float64 {
	t.Helper()
	values, ok := f.Column(name)
	require.True(t, ok, name)
	return values
}

func TestTotalPnLReconstruction(t *testing.T) {
	t.Parallel()

	unrealized := mustFrame(t, days(3), []string{"BTC"}, [][]float64{{10}, {-5}, {20}})
	realized := mustFrame(t, days(3), []string{"BTC"}, [][]float64{{0}, {5}, {-2}})

	pnl, err := TotalPnL(unrealized, realized)
	require.NoError(t, err)
	assert.Equal(t, []string{SeriesTotal, SeriesUnrealized, SeriesRealized}, pnl.Columns)
	assert.Equal(t, []float64{10, 0, 23}, column(t, pnl, SeriesTotal))
	assert.Equal(t, []float64{10, -5, 20}, column(t, pnl, SeriesUnrealized))
	assert.Equal(t, []float64{0, 5, 3}, column(t, pnl, SeriesRealized))
}

func TestTotalPnLAcrossSymbols(t *testing.T) {
	t.Parallel()

	unrealized := mustFrame(t, days(2), []string{"A", "B"}, [][]float64{{1, math.NaN()}, {2, 3}})
	realized := mustFrame(t, days(2), []string{"A", "B"}, [][]float64{{1, 1}, {1, math.NaN()}})

	pnl, err := TotalPnL(unrealized, realized)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5}, column(t, pnl, SeriesUnrealized))
	assert.Equal(t, []float64{2, 2}, column(t, pnl, SeriesRealized))
	assert.Equal(t, []float64{3, 7}, column(t, pnl, SeriesTotal))
}

func TestTotalPnLMisaligned(t *testing.T) {
	t.Parallel()

	unrealized := mustFrame(t, days(2), []string{"A"}, [][]float64{{1}, {2}})
	realized := mustFrame(t, days(3), []string{"A"}, [][]float64{{1}, {2}, {3}})

	_, err := TotalPnL(unrealized, realized)
	assert.ErrorIs(t, err, frame.ErrMisaligned)
}

func TestPnLBreakdown(t *testing.T) {
	t.Parallel()

	unrealized := mustFrame(t, days(2), []string{"A", "B"}, [][]float64{{1, 2}, {3, 4}})
	realized := mustFrame(t, days(2), []string{"A", "B"}, [][]float64{{10, 0}, {10, 5}})

	total, err := PnLBreakdown(unrealized, realized, PnLTotal)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", SumColumn}, total.Columns)
	assert.Equal(t, [][]float64{{11, 2, 13}, {23, 9, 32}}, total.Data)

	u, err := PnLBreakdown(unrealized, realized, PnLUnrealized)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 7}, column(t, u, SumColumn))

	r, err := PnLBreakdown(unrealized, realized, PnLRealized)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{10, 0, 10}, {20, 5, 25}}, r.Data)

	account, err := PnLBreakdown(unrealized, realized, PnLAccount)
	require.NoError(t, err)
	assert.Equal(t, []float64{13, 32}, column(t, account, SeriesTotal))

	_, err = PnLBreakdown(unrealized, realized, PnLMode(9))
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, "PnLMode(9)", PnLMode(9).String())
	assert.Equal(t, "Realized", PnLRealized.String())
}

func TestPositionValueColumnsEqualUniverse(t *testing.T) {
	t.Parallel()

	universe := []string{"BTC", "ETH", "SOL"}
	position := mustFrame(t, days(2), universe, [][]float64{{1, -2, 0}, {2, 0, 3}})
	closes := mustFrame(t, days(3), []string{"ETH", "BTC"}, [][]float64{{50, 100}, {40, 110}, {45, 120}})

	pv, err := PositionValue(position, closes)
	require.NoError(t, err)
	assert.Equal(t, universe, pv.Columns)
	assert.Equal(t, frame.Intersect(position.Index, closes.Index), pv.Index)
	assert.Equal(t, 100.0, pv.Data[0][0])
	assert.Equal(t, -100.0, pv.Data[0][1])
	assert.True(t, math.IsNaN(pv.Data[0][2]), "symbol without prices")
	assert.Equal(t, 220.0, pv.Data[1][0])
}

func TestPositionValueRequiresCoverage(t *testing.T) {
	t.Parallel()

	position := mustFrame(t, days(3), []string{"BTC"}, [][]float64{{1}, {1}, {1}})
	closes := mustFrame(t, days(2), []string{"BTC"}, [][]float64{{1}, {1}})

	_, err := PositionValue(position, closes)
	assert.ErrorIs(t, err, frame.ErrMisaligned)
}

func TestExposure(t *testing.T) {
	t.Parallel()

	pv := mustFrame(t, days(2), []string{"A", "B", "C", "D"}, [][]float64{
		{0, 0, 0, 0},
		{300, -200, 0, math.NaN()},
	})
	e, err := ExposureOf(pv, 1000)
	require.NoError(t, err)
	assert.Equal(t, days(2)[1], e.At)
	assert.Equal(t, 500.0, e.Total)
	assert.Equal(t, 300.0, e.Long)
	assert.Equal(t, 200.0, e.Short)
	assert.Equal(t, 500.0, e.Cash)

	e, err = ExposureOf(pv, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.Cash)

	_, err = ExposureOf(frame.Empty([]string{"A"}), 100)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSunburst(t *testing.T) {
	t.Parallel()

	pv := mustFrame(t, days(1), []string{"A", "B", "C"}, [][]float64{{300, -200, 0}})
	nodes, err := Sunburst(pv)
	require.NoError(t, err)

	byID := map[string]SunburstNode{}
	for _, n := range nodes {
		byID[n.ID] = n
	}
	assert.Equal(t, 500.0, byID["Position"].Value)
	assert.Equal(t, SideColors[SideShort], byID["Position/Short"].Color)
	assert.Equal(t, 200.0, byID["Position/Short/B"].Value)
	assert.Equal(t, "Position/Long", byID["Position/Long/A"].Parent)
	assert.Equal(t, 0.0, byID["Position/None/C"].Value)
	assert.Len(t, nodes, 7)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	pv := mustFrame(t, days(5), []string{"A"}, [][]float64{{1}, {2}, {3}, {4}, {5}})
	bars := History(pv, 0)
	require.Len(t, bars, DefaultHistory)
	assert.Equal(t, "2024-01-02", bars[0].Date)
	assert.Equal(t, []float64{5}, bars[3].Values)

	assert.Len(t, History(pv, 10), 5)
}

func TestFeeEstimateExcludesFailed(t *testing.T) {
	t.Parallel()

	trades := &frame.Table{
		Columns: []string{"quantity", "price", "order_type", "status"},
		Rows: [][]string{
			{"1", "100", "MARKET", "ok"},
			{"1", "100", "MARKET", "failed"},
		},
	}
	fee, err := FeeEstimate(trades, FeeSchedule{Market: 0.05, Limit: 0.02}, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, fee.Total, 1e-12)
	assert.InDelta(t, 0.005, fee.Percent, 1e-12)
	assert.Equal(t, 1, fee.Trades)
}

func TestFeeEstimateLimitRateOnly(t *testing.T) {
	t.Parallel()

	trades := &frame.Table{
		Columns: []string{"symbol", "quantity", "price", "order_type", "status"},
		Rows: [][]string{
			{"A", "-2", "50", "LIMIT", "filled"},
			{"B", "1", "100", "market", "filled"},
		},
	}
	fee, err := FeeEstimate(trades, FeeSchedule{Market: 0.05, Limit: 0.02}, 10000)
	require.NoError(t, err)
	// 限价单只替换费率，数量与价格保持不变
	assert.InDelta(t, 0.02+0.05, fee.Total, 1e-12)
	assert.Equal(t, 2, fee.Trades)
}

func TestFeeEstimateSellSideCharged(t *testing.T) {
	t.Parallel()

	trades := &frame.Table{
		Columns: []string{"quantity", "price", "order_type", "status"},
		Rows: [][]string{
			{"3", "100", "MARKET", "filled"},
			{"-3", "100", "MARKET", "filled"},
		},
	}
	fee, err := FeeEstimate(trades, FeeSchedule{Market: 0.05, Limit: 0.02}, 10000)
	require.NoError(t, err)
	// 卖出数量为负，手续费按名义价值绝对值计算，不会与买入抵消
	assert.InDelta(t, 0.3, fee.Total, 1e-12)
	assert.Greater(t, fee.Percent, 0.0)
	assert.Equal(t, 2, fee.Trades)
}

func TestFeeEstimateErrors(t *testing.T) {
	t.Parallel()

	_, err := FeeEstimate(&frame.Table{Columns: []string{"quantity"}}, FeeSchedule{}, 100)
	assert.Error(t, err)

	ok := &frame.Table{Columns: []string{"quantity", "price", "order_type", "status"}}
	_, err = FeeEstimate(ok, FeeSchedule{}, 0)
	assert.ErrorIs(t, err, ErrNoBalance)
}

func TestDailyDelta(t *testing.T) {
	t.Parallel()

	_, err := DailyDelta([]float64{42})
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = DailyDelta(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	d, err := DailyDelta([]float64{10, 0, 23})
	require.NoError(t, err)
	assert.Equal(t, 23.0, d)
}

func TestPeriodDelta(t *testing.T) {
	t.Parallel()

	series := []float64{1, 2, 4, 8, 16}
	d, err := PeriodDelta(series, 2)
	require.NoError(t, err)
	assert.Equal(t, 12.0, d)

	_, err = PeriodDelta(series, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestInitialBalance(t *testing.T) {
	t.Parallel()

	v, err := InitialBalance(&frame.Table{
		Columns: []string{"", "current_balance"},
		Rows:    [][]string{{"0", "10000"}, {"1", "9000"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 10000.0, v)

	for _, table := range []*frame.Table{
		{Columns: []string{"cash"}, Rows: [][]string{{"1"}}},
		{Columns: []string{"current_balance"}},
		{Columns: []string{"current_balance"}, Rows: [][]string{{"0"}}},
		{Columns: []string{"current_balance"}, Rows: [][]string{{"abc"}}},
	} {
		_, err := InitialBalance(table)
		assert.ErrorIs(t, err, ErrNoBalance)
	}
}

func TestRiskOf(t *testing.T) {
	r, err := RiskOf(10000, []float64{10, 0, 23})
	require.NoError(t, err)
	assert.Equal(t, 10023.0, r.PeakBalance)
	assert.InDelta(t, 0.23, r.ReturnPercent, 1e-9)
	assert.Equal(t, 0.0, r.DrawdownFromPeak)
	assert.InDelta(t, -10.0/10010*100, r.MaxDrawdown, 1e-9)
	assert.Equal(t, 0.0, r.DrawdownFromInitial)

	r1, r2 := -10.0/10010, 23.0/10000
	mean := (r1 + r2) / 2
	std := math.Abs(r2-r1) / 2
	assert.InDelta(t, mean/std, r.SharpeRatio, 1e-6)
}

func TestRiskOfLosingRun(t *testing.T) {
	r, err := RiskOf(1000, []float64{-100, -50})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, r.PeakBalance, "initial balance counts as the first peak")
	assert.InDelta(t, -5.0, r.DrawdownFromPeak, 1e-9)
	assert.InDelta(t, -10.0, r.MaxDrawdown, 1e-9)
	assert.InDelta(t, -5.0, r.DrawdownFromInitial, 1e-9)

	_, err = RiskOf(1000, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = RiskOf(0, []float64{1})
	assert.ErrorIs(t, err, ErrNoBalance)
}
