package dataset_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dushixiang/magicbutton/internal/dataset"
	"github.com/dushixiang/magicbutton/internal/dataset/datasettest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := datasettest.WriteRun(t, t.TempDir(), "run-a", nil)
	run, err := dataset.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "run-a", run.Name)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, run.Symbols())
	assert.Equal(t, 3, run.Position.Len())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), run.Position.Index[0])
	assert.Equal(t, run.Position.Index, run.UnrealizedPnL.Index)
	assert.Equal(t, run.Position.Index, run.RealizedPnL.Index)

	assert.Equal(t, "symbols", run.EntryInfo.Columns[0])
	assert.Equal(t, "ETHUSDT", run.EntryInfo.Cell(1, "symbols"))
	assert.Equal(t, 3, run.Trades.Len())
	assert.Equal(t, "10000", run.BalanceCash.Cell(0, "current_balance"))
	assert.Len(t, run.Files, len(dataset.Kinds))
}

func TestLoadStripsTimezoneKeepingWallClock(t *testing.T) {
	t.Parallel()

	body := ",BTCUSDT\n2024-01-01 09:00:00+09:00,1\n"
	dir := datasettest.WriteRun(t, t.TempDir(), "kst", map[string]string{
		"demo_position.csv":       body,
		"demo_unrealized_pnl.csv": body,
		"demo_realized_pnl.csv":   body,
	})
	run, err := dataset.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), run.Position.Index[0])
}

func TestLoadSortsRowsByTime(t *testing.T) {
	t.Parallel()

	body := ",BTCUSDT\n2024-01-03 00:00:00,3\n2024-01-01 00:00:00,1\n2024-01-02 00:00:00,2\n"
	dir := datasettest.WriteRun(t, t.TempDir(), "shuffled", map[string]string{
		"demo_position.csv":       body,
		"demo_unrealized_pnl.csv": body,
		"demo_realized_pnl.csv":   body,
	})
	run, err := dataset.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), run.Position.Index[0])
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, run.Position.Data)
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, run.RealizedPnL.Data)
}

func TestResolveMissing(t *testing.T) {
	t.Parallel()

	dir := datasettest.WriteRun(t, t.TempDir(), "partial", map[string]string{
		"demo_trades.csv":     "",
		"demo_entry_info.csv": "",
	})
	_, err := dataset.Resolve(dir)
	require.ErrorIs(t, err, dataset.ErrMissingDataset)

	var missing *dataset.MissingDatasetError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []dataset.Kind{dataset.Trades, dataset.EntryInfo}, missing.Kinds)
	assert.Contains(t, err.Error(), "trades, entry_info")
}

func TestResolveAmbiguous(t *testing.T) {
	t.Parallel()

	dir := datasettest.WriteRun(t, t.TempDir(), "dup", map[string]string{
		"old_position.csv": datasettest.Files["demo_position.csv"],
	})
	_, err := dataset.Resolve(dir)
	require.ErrorIs(t, err, dataset.ErrAmbiguousDataset)

	var ambiguous *dataset.AmbiguousDatasetError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"demo_position.csv", "old_position.csv"}, ambiguous.Matches[dataset.Position])
}

func TestResolveIgnoresNonCSV(t *testing.T) {
	t.Parallel()

	dir := datasettest.WriteRun(t, t.TempDir(), "notes", nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old_position.txt"), []byte("x"), 0o644))

	files, err := dataset.Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "demo_position.csv"), files[dataset.Position])
	// unrealized_pnl 不会被当成 realized_pnl
	assert.Equal(t, filepath.Join(dir, "demo_realized_pnl.csv"), files[dataset.RealizedPnL])
}

func TestResolveUnknownDir(t *testing.T) {
	t.Parallel()

	_, err := dataset.Resolve(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, dataset.ErrStrategyNotFound)
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	datasettest.WriteRun(t, root, "b-run", nil)
	datasettest.WriteRun(t, root, "a-run", nil)
	datasettest.WriteRun(t, root, "archive", nil)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.md"), []byte("x"), 0o644))

	catalog := dataset.NewCatalog(root, []string{"archive"})
	names, err := catalog.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a-run", "b-run"}, names)

	run, err := catalog.Load("a-run")
	require.NoError(t, err)
	assert.Equal(t, "a-run", run.Name)

	for _, name := range []string{"archive", "../etc", "", "missing", "readme.md"} {
		_, err := catalog.Path(name)
		assert.ErrorIs(t, err, dataset.ErrStrategyNotFound, name)
	}
}
