// Package datasettest 写出用于测试的策略运行目录与行情文件
package datasettest

import (
	"os"
	"path/filepath"
	"testing"
)

// Files 一次运行的默认文件内容，三天、两个标的
var Files = map[string]string{
	"demo_position.csv": ",BTCUSDT,ETHUSDT\n" +
		"2024-01-01 00:00:00+00:00,1,-2\n" +
		"2024-01-02 00:00:00+00:00,1,-2\n" +
		"2024-01-03 00:00:00+00:00,2,0\n",
	"demo_unrealized_pnl.csv": ",BTCUSDT,ETHUSDT\n" +
		"2024-01-01 00:00:00+00:00,10,0\n" +
		"2024-01-02 00:00:00+00:00,-5,0\n" +
		"2024-01-03 00:00:00+00:00,15,5\n",
	"demo_realized_pnl.csv": ",BTCUSDT,ETHUSDT\n" +
		"2024-01-01 00:00:00+00:00,0,0\n" +
		"2024-01-02 00:00:00+00:00,5,0\n" +
		"2024-01-03 00:00:00+00:00,-2,0\n",
	"demo_trades.csv": ",symbol,quantity,price,order_type,status\n" +
		"0,BTCUSDT,1,100,MARKET,filled\n" +
		"1,ETHUSDT,-1,50,LIMIT,filled\n" +
		"2,BTCUSDT,1,100,MARKET,failed\n",
	"demo_balance_cash.csv": ",current_balance,cash\n" +
		"2024-01-01 00:00:00+00:00,10000,10000\n" +
		"2024-01-03 00:00:00+00:00,10023,9800\n",
	"demo_entry_info.csv": ",entry_price,side\n" +
		"BTCUSDT,100,long\n" +
		"ETHUSDT,50,short\n",
}

// OHLCV 默认行情文件，收盘价 BTC 100/110/120，ETH 50/40/45
var OHLCV = map[string]string{
	"BTCUSDT_ohlcv_data.csv": "open_time,open,high,low,close,volume\n" +
		"2009-12-31 00:00:00+00:00,1,1,1,1,1\n" +
		"2024-01-01 00:00:00+00:00,95,105,90,100,1000\n" +
		"2024-01-02 00:00:00+00:00,100,115,99,110,1200\n" +
		"2024-01-03 00:00:00+00:00,110,125,108,120,900\n",
	"ETHUSDT_ohlcv_data.csv": "open_time,open,high,low,close,volume\n" +
		"2024-01-01 00:00:00+00:00,48,52,47,50,500\n" +
		"2024-01-02 00:00:00+00:00,50,51,39,40,800\n" +
		"2024-01-03 00:00:00+00:00,40,46,40,45,700\n",
}

// WriteRun 在 root 下创建名为 name 的运行目录，overrides 中值为空字符串表示不写该文件
func WriteRun(t testing.TB, root, name string, overrides map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := make(map[string]string, len(Files))
	for k, v := range Files {
		files[k] = v
	}
	for k, v := range overrides {
		files[k] = v
	}
	for filename, body := range files {
		if body == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, filename), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// WriteOHLCV 写出行情文件并返回目录
func WriteOHLCV(t testing.TB, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for filename, body := range OHLCV {
		if err := os.WriteFile(filepath.Join(dir, filename), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
