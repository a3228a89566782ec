package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dushixiang/magicbutton/internal"
	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/ohlcv"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/internal/service"
	"github.com/dushixiang/magicbutton/pkg/exchange"
	"github.com/dushixiang/magicbutton/pkg/nostd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newLogger() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadServices 命令行只读取文件，不连接数据库
func loadServices() (*config.Config, *service.StrategyService, *service.DashboardService, error) {
	conf, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger()
	strategyService, err := service.NewStrategyService(logger, conf)
	if err != nil {
		return nil, nil, nil, err
	}
	return conf, strategyService, service.NewDashboardService(logger, strategyService, nil), nil
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "列出策略运行",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, strategyService, _, err := loadServices()
		if err != nil {
			return err
		}
		names, err := strategyService.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report <strategy>",
	Short: "输出策略运行概览",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, strategyService, dashboardService, err := loadServices()
		if err != nil {
			return err
		}
		run, _, err := strategyService.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		summary, err := dashboardService.Summary(run)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if reportJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Strategy\t%s\n", summary.Strategy)
		fmt.Fprintf(w, "Last point\t%s\n", summary.LastPointAt.Format("2006-01-02 15:04"))
		for _, target := range []render.Target{render.TargetBalance, render.TargetPnL, render.TargetPeriod, render.TargetFee} {
			if card, ok := summary.Cards[target]; ok {
				pill := ""
				if card.Pill != nil {
					pill = card.Pill.Text
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", card.Title, card.Value, pill)
				continue
			}
			fmt.Fprintf(w, "%s\terror: %s\n", target, summary.Errors[target])
		}
		if e := summary.Exposure; e != nil {
			fmt.Fprintf(w, "Exposure\tlong %s\tshort %s\tcash %s\n",
				render.Currency(e.Long), render.Currency(e.Short), render.Currency(e.Cash))
		}
		if r := summary.Risk; r != nil {
			fmt.Fprintf(w, "Risk\tmax drawdown %.2f%%\tsharpe %.3f\n", r.MaxDrawdown, r.SharpeRatio)
		}
		fmt.Fprintf(w, "Symbols\t%s\n", strings.Join(summary.Symbols, ", "))
		if len(summary.Dropped) > 0 {
			fmt.Fprintf(w, "Dropped\t%s\n", strings.Join(summary.Dropped, ", "))
		}
		return w.Flush()
	},
}

var ohlcvCmd = &cobra.Command{
	Use:   "ohlcv",
	Short: "行情数据",
}

var (
	syncSymbols  []string
	syncInterval string
	syncDays     int
	syncStrategy string
)

var ohlcvSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "从 Binance 期货拉取K线写入行情目录",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, strategyService, _, err := loadServices()
		if err != nil {
			return err
		}
		interval, err := exchange.ParseInterval(syncInterval)
		if err != nil {
			return err
		}
		if syncDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}

		symbols := syncSymbols
		if len(symbols) == 0 && syncStrategy != "" {
			data, err := strategyService.Catalog().Load(syncStrategy)
			if err != nil {
				return err
			}
			symbols = data.Symbols()
		}
		if len(symbols) == 0 {
			return fmt.Errorf("--symbols or --strategy is required")
		}

		ohlcvConf, err := conf.OHLCV()
		if err != nil {
			return err
		}
		logger := newLogger()
		syncer := ohlcv.NewSyncer(logger, internal.ProvideBinanceClient(conf, logger), ohlcvConf.Dir)

		end := time.Now().UTC().Truncate(interval.Duration())
		start := end.Add(-time.Duration(syncDays) * 24 * time.Hour)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		var failed []string
		for _, symbol := range symbols {
			n, err := syncer.Sync(ctx, strings.ToUpper(symbol), interval, start, end)
			if err != nil {
				logger.Error("ohlcv sync failed", zap.String("symbol", symbol), zap.Error(err))
				failed = append(failed, symbol)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\n", symbol, n)
		}
		if len(failed) > 0 {
			return fmt.Errorf("sync failed for %s", strings.Join(failed, ", "))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "输出生效的配置（隐藏密钥）",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(configFile)
		if err != nil {
			return err
		}
		redacted := *conf
		redacted.Binance.APIKey = mask(conf.Binance.APIKey)
		redacted.Binance.Secret = mask(conf.Binance.Secret)
		redacted.Telegram.Token = mask(conf.Telegram.Token)
		redacted.LLM.APIKey = mask(conf.LLM.APIKey)
		redacted.Web.BasicAuth.PasswordHash = mask(conf.Web.BasicAuth.PasswordHash)

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(map[string]any{"app": redacted})
	},
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "生成 web.basic_auth.password_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := nostd.BcryptEncode([]byte(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "以 JSON 输出")

	ohlcvSyncCmd.Flags().StringSliceVar(&syncSymbols, "symbols", nil, "交易对，例如 BTCUSDT,ETHUSDT")
	ohlcvSyncCmd.Flags().StringVar(&syncStrategy, "strategy", "", "使用策略运行中的全部标的")
	ohlcvSyncCmd.Flags().StringVar(&syncInterval, "interval", "1d", "K线周期")
	ohlcvSyncCmd.Flags().IntVar(&syncDays, "days", 365, "拉取最近多少天")
	ohlcvCmd.AddCommand(ohlcvSyncCmd)
}
