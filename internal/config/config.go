package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Web        WebConf                        `json:"web" mapstructure:"web" yaml:"web"`
	OHLCVData  map[string]OHLCVConf           `json:"ohlcv_data" mapstructure:"ohlcv_data" yaml:"ohlcv_data"`
	TradingFee map[string]map[string]FeeRates `json:"trading_fee" mapstructure:"trading_fee" yaml:"trading_fee"` // 交易所 -> 市场类型 -> 费率
	Binance    BinanceConf                    `json:"binance" mapstructure:"binance" yaml:"binance"`
	Telegram   TelegramConf                   `json:"telegram" mapstructure:"telegram" yaml:"telegram"`
	LLM        LlmConf                        `json:"llm" mapstructure:"llm" yaml:"llm"`
}

type WebConf struct {
	Brand            string        `json:"brand" mapstructure:"brand" yaml:"brand"`
	Strategy         StrategyConf  `json:"strategy" mapstructure:"strategy" yaml:"strategy"`
	OHLCVTimeframe   string        `json:"ohlcv_timeframe" mapstructure:"ohlcv_timeframe" yaml:"ohlcv_timeframe"` // 使用 ohlcv_data 下的哪个周期，默认 1d
	FeeVenue         string        `json:"fee_venue" mapstructure:"fee_venue" yaml:"fee_venue"`                   // 手续费交易所，如 binance
	FeeMarket        string        `json:"fee_market" mapstructure:"fee_market" yaml:"fee_market"`                // 手续费市场类型，如 futures
	SessionTTL       string        `json:"session_ttl" mapstructure:"session_ttl" yaml:"session_ttl"`             // 会话空闲过期时间，如 24h
	RefreshCron      string        `json:"refresh_cron" mapstructure:"refresh_cron" yaml:"refresh_cron"`          // 策略目录刷新周期
	SessionPurgeCron string        `json:"session_purge_cron" mapstructure:"session_purge_cron" yaml:"session_purge_cron"`
	BasicAuth        BasicAuthConf `json:"basic_auth" mapstructure:"basic_auth" yaml:"basic_auth"`
}

type StrategyConf struct {
	Dir            string   `json:"dir" mapstructure:"dir" yaml:"dir"`                                     // 策略输出根目录，每个子目录是一次运行
	ExcludeFolders []string `json:"exclude_folders" mapstructure:"exclude_folders" yaml:"exclude_folders"` // 不展示的子目录
}

type BasicAuthConf struct {
	Username     string `json:"username" mapstructure:"username" yaml:"username"`
	PasswordHash string `json:"password_hash" mapstructure:"password_hash" yaml:"password_hash"` // bcrypt 哈希
}

// Enabled 是否启用了页面认证
func (b BasicAuthConf) Enabled() bool {
	return b.Username != "" && b.PasswordHash != ""
}

type OHLCVConf struct {
	Dir       string `json:"dir" mapstructure:"dir" yaml:"dir"`
	StartDate string `json:"start_date" mapstructure:"start_date" yaml:"start_date"` // 例如 2010-01-01
	EndDate   string `json:"end_date" mapstructure:"end_date" yaml:"end_date"`       // 为空表示不限制
}

// FeeRates 手续费率，单位为百分比，0.05 表示 0.05%
type FeeRates struct {
	Market float64 `json:"market" mapstructure:"market" yaml:"market"`
	Limit  float64 `json:"limit" mapstructure:"limit" yaml:"limit"`
}

type BinanceConf struct {
	APIKey   string `json:"api_key" mapstructure:"api_key" yaml:"api_key"`
	Secret   string `json:"secret" mapstructure:"secret" yaml:"secret"`
	ProxyURL string `json:"proxy_url" mapstructure:"proxy_url" yaml:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
	Testnet  bool   `json:"testnet" mapstructure:"testnet" yaml:"testnet"`
}

type TelegramConf struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Token      string `json:"token" mapstructure:"token" yaml:"token"`
	ChatID     string `json:"chat_id" mapstructure:"chat_id" yaml:"chat_id"`
	DigestCron string `json:"digest_cron" mapstructure:"digest_cron" yaml:"digest_cron"` // 策略日报推送时间
}

type LlmConf struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	BaseURL  string `json:"base_url" mapstructure:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" mapstructure:"api_key" yaml:"api_key"`
	Model    string `json:"model" mapstructure:"model" yaml:"model"`
	ProxyURL string `json:"proxy_url" mapstructure:"proxy_url" yaml:"proxy_url"`
}

const (
	DefaultTimeframe        = "1d"
	DefaultStartDate        = "2010-01-01"
	DefaultSessionTTL       = 24 * time.Hour
	DefaultRefreshCron      = "*/5 * * * *"
	DefaultSessionPurgeCron = "@hourly"
	DefaultDigestCron       = "0 9 * * *"
)

// ApplyDefaults 填充缺省值
func (c *Config) ApplyDefaults() {
	if c.Web.Brand == "" {
		c.Web.Brand = "MagicButton"
	}
	if c.Web.OHLCVTimeframe == "" {
		c.Web.OHLCVTimeframe = DefaultTimeframe
	}
	if c.Web.FeeVenue == "" {
		c.Web.FeeVenue = "binance"
	}
	if c.Web.FeeMarket == "" {
		c.Web.FeeMarket = "futures"
	}
	if c.Web.SessionTTL == "" {
		c.Web.SessionTTL = DefaultSessionTTL.String()
	}
	if c.Web.RefreshCron == "" {
		c.Web.RefreshCron = DefaultRefreshCron
	}
	if c.Web.SessionPurgeCron == "" {
		c.Web.SessionPurgeCron = DefaultSessionPurgeCron
	}
	if c.Telegram.DigestCron == "" {
		c.Telegram.DigestCron = DefaultDigestCron
	}
	for k, v := range c.OHLCVData {
		if v.StartDate == "" {
			v.StartDate = DefaultStartDate
			c.OHLCVData[k] = v
		}
	}
}

// Validate 校验必填项
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Web.Strategy.Dir) == "" {
		errs = append(errs, errors.New("web.strategy.dir is required"))
	}
	if _, err := c.OHLCV(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.FeeRates(); err != nil {
		errs = append(errs, err)
	}
	if _, err := time.ParseDuration(c.Web.SessionTTL); err != nil {
		errs = append(errs, fmt.Errorf("web.session_ttl: %w", err))
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == "") {
		errs = append(errs, errors.New("telegram.token and telegram.chat_id are required when telegram is enabled"))
	}
	if c.LLM.Enabled && c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required when llm is enabled"))
	}
	return errors.Join(errs...)
}

// SessionTimeout 会话空闲过期时间
func (c *Config) SessionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Web.SessionTTL)
	if err != nil || d <= 0 {
		return DefaultSessionTTL
	}
	return d
}

// OHLCV 返回当前周期的行情目录配置
func (c *Config) OHLCV() (OHLCVConf, error) {
	conf, ok := c.OHLCVData[c.Web.OHLCVTimeframe]
	if !ok || conf.Dir == "" {
		return OHLCVConf{}, fmt.Errorf("ohlcv_data.%s.dir is required", c.Web.OHLCVTimeframe)
	}
	return conf, nil
}

// FeeRates 返回当前交易所与市场类型的手续费率
func (c *Config) FeeRates() (FeeRates, error) {
	markets, ok := c.TradingFee[c.Web.FeeVenue]
	if !ok {
		return FeeRates{}, fmt.Errorf("trading_fee.%s is not configured", c.Web.FeeVenue)
	}
	rates, ok := markets[c.Web.FeeMarket]
	if !ok {
		return FeeRates{}, fmt.Errorf("trading_fee.%s.%s is not configured", c.Web.FeeVenue, c.Web.FeeMarket)
	}
	return rates, nil
}

// Load 从配置文件的 app 节点读取配置，供命令行子命令使用
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MAGICBUTTON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	sub := v.Sub("app")
	if sub == nil {
		return nil, fmt.Errorf("config %s: missing app section", path)
	}

	var conf Config
	if err := sub.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	conf.ApplyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &conf, nil
}
