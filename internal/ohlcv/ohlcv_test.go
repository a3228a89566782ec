package ohlcv

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dushixiang/magicbutton/internal/dataset/datasettest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := datasettest.WriteOHLCV(t, t.TempDir())
	rng, err := ParseRange("2010-01-01", "")
	require.NoError(t, err)

	panel, err := NewLoader(zap.NewNop(), dir, rng).Load([]string{"BTCUSDT", "ETHUSDT", "SOLUSDT", ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, panel.Symbols)
	assert.Equal(t, []string{"SOLUSDT"}, panel.Dropped)

	closes := panel.Close()
	require.Equal(t, 3, closes.Len(), "2009 bar is filtered out")
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), closes.Index[0])
	assert.Equal(t, [][]float64{{100, 50}, {110, 40}, {120, 45}}, closes.Data)

	volume := panel.Field(Volume)
	assert.Equal(t, 1000.0, volume.Data[0][0])
}

func TestLoadEndDateAndUnionIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename("AAA")), []byte(
		"open_time,open,high,low,close,volume,ignore\n"+
			"2024-01-02 00:00:00+00:00,1,1,1,2,1,x\n"+
			"2024-01-01 00:00:00+00:00,1,1,1,1,1,x\n"+
			"2024-01-05 00:00:00+00:00,1,1,1,5,1,x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename("BBB")), []byte(
		"open_time,open,high,low,close,volume\n"+
			"1704153600000,1,1,1,20,1\n"), 0o644))

	rng, err := ParseRange("2024-01-01", "2024-01-02")
	require.NoError(t, err)
	panel, err := NewLoader(zap.NewNop(), dir, rng).Load([]string{"AAA", "BBB"})
	require.NoError(t, err)

	closes := panel.Close()
	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}, closes.Index)
	assert.Equal(t, 1.0, closes.Data[0][0])
	assert.True(t, math.IsNaN(closes.Data[0][1]))
	assert.Equal(t, 20.0, closes.Data[1][1])
}

func TestLoadDropsSymbolEmptyAfterFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename("OLD")), []byte(
		"open_time,open,high,low,close,volume\n2005-01-01,1,1,1,1,1\n"), 0o644))

	rng, err := ParseRange("2010-01-01", "")
	require.NoError(t, err)
	panel, err := NewLoader(zap.NewNop(), dir, rng).Load([]string{"OLD"})
	require.NoError(t, err)
	assert.Empty(t, panel.Symbols)
	assert.Equal(t, []string{"OLD"}, panel.Dropped)
	assert.Equal(t, 0, panel.Close().Len())
}

func TestLoadNormalizesToUTC(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename("KRW")), []byte(
		"open_time,open,high,low,close,volume\n2024-01-02 08:00:00+09:00,1,1,1,1,1\n"), 0o644))

	panel, err := NewLoader(zap.NewNop(), dir, Range{}).Load([]string{"KRW"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), panel.Close().Index[0])
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	_, err := ParseRange("2024-02-01", "2024-01-01")
	assert.Error(t, err)
	_, err = ParseRange("01/02/2024", "")
	assert.Error(t, err)

	rng, err := ParseRange("", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, rng.contains(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)))
	assert.False(t, rng.contains(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func TestWriteRead(t *testing.T) {
	t.Parallel()

	rows := []Row{{OpenTime: "2024-01-01T00:00:00Z", Open: "1", High: "2", Low: "0.5", Close: "1.5", Volume: "10"}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))
	assert.Contains(t, buf.String(), "open_time,open,high,low,close,volume")

	back, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}
