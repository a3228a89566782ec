package internal

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/service"
	"github.com/dushixiang/magicbutton/internal/telegram"
	"github.com/dushixiang/magicbutton/pkg/exchange"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	telegramHTTPTimeout     = 10 * time.Second
	openaiProviderName      = "openai"
	logFieldConfiguredModel = "model"
)

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config, digester *service.Digester) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		ChatID: conf.Telegram.ChatID,
		Client: httpClient,
	}, telegram.WithStatus(digester.Digest))
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

// provideNotifier 未启用 telegram 时返回 nil 接口
func provideNotifier(tg *telegram.Telegram) service.Notifier {
	if tg == nil {
		return nil
	}
	return tg
}

// ProvideBinanceClient provides Binance client
func ProvideBinanceClient(conf *config.Config, logger *zap.Logger) *exchange.BinanceClient {
	client := exchange.NewBinanceClient(
		conf.Binance.APIKey,
		conf.Binance.Secret,
		conf.Binance.ProxyURL,
		conf.Binance.Testnet,
	)

	logger.Info("Binance client initialized",
		zap.Bool("testnet", conf.Binance.Testnet),
		zap.Bool("has_credentials", conf.Binance.APIKey != "" && conf.Binance.Secret != ""),
	)
	return client
}

// provideOpenAIClient provides OpenAI client
func provideOpenAIClient(conf *config.Config, logger *zap.Logger) *openai.Client {
	var options = []option.RequestOption{
		option.WithBaseURL(conf.LLM.BaseURL),
		option.WithAPIKey(conf.LLM.APIKey),
	}
	if conf.LLM.ProxyURL != "" {
		u, err := url.Parse(conf.LLM.ProxyURL)
		if err != nil {
			logger.Fatal("failed to parse proxy URL", zap.Error(err))
		}
		httpClient := &http.Client{
			Timeout: time.Minute,
			Transport: &http.Transport{
				Proxy: http.ProxyURL(u),
			},
		}
		options = append(options, option.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(options...)

	logger.Info("OpenAI client initialized",
		zap.String(logFieldConfiguredModel, conf.LLM.Model),
		zap.String("provider", openaiProviderName),
	)
	return &client
}

// provideCompleter 未启用 llm 时返回 nil 接口，分析接口返回 ErrAnalysisDisabled
func provideCompleter(conf *config.Config, logger *zap.Logger) service.Completer {
	if !conf.LLM.Enabled {
		return nil
	}
	return service.NewOpenAICompleter(provideOpenAIClient(conf, logger), conf.LLM.Model)
}
