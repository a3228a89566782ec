package telegram

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

type Settings struct {
	Token  string
	ChatID string // 只响应该会话的命令，为空时不限制
	Client *http.Client
}

// StatusFunc 生成 /status 命令的回复内容
type StatusFunc func(ctx context.Context) (string, error)

type Telegram struct {
	logger   *zap.Logger
	settings Settings
	client   *tele.Bot
	status   StatusFunc
	started  atomic.Bool
}

type Option func(telegram *Telegram)

// WithStatus 注册 /status 命令
func WithStatus(fn StatusFunc) Option {
	return func(telegram *Telegram) {
		telegram.status = fn
	}
}

const helpText = "*MagicButton*\n/status 查看所有策略的最新概览\n/help 获取帮助信息"

func NewTelegram(logger *zap.Logger, settings Settings, options ...Option) (*Telegram, error) {

	poller := &tele.LongPoller{Timeout: 10 * time.Second}

	chatPoller := tele.NewMiddlewarePoller(poller, func(u *tele.Update) bool {
		return allowed(settings.ChatID, u)
	})

	client, err := tele.NewBot(tele.Settings{
		ParseMode: tele.ModeMarkdown,
		Token:     settings.Token,
		Poller:    chatPoller,
		Client:    settings.Client,
	})
	if err != nil {
		return nil, err
	}

	client.Use(middleware.AutoRespond())

	err = client.SetCommands([]tele.Command{
		{Text: "/start", Description: "启动机器人"},
		{Text: "/help", Description: "获取帮助信息"},
		{Text: "/status", Description: "查看策略概览"},
	})
	if err != nil {
		return nil, err
	}

	bot := &Telegram{
		logger:   logger,
		settings: settings,
		client:   client,
	}

	for _, option := range options {
		option(bot)
	}

	client.Handle("/start", bot.onHelp)
	client.Handle("/help", bot.onHelp)
	client.Handle("/status", bot.onStatus)

	return bot, nil
}

func allowed(chatId string, u *tele.Update) bool {
	if chatId == "" || u.Message == nil {
		return true
	}
	return cast.ToString(u.Message.Chat.ID) == chatId
}

func (r *Telegram) onHelp(c tele.Context) error {
	return c.Send(helpText)
}

func (r *Telegram) onStatus(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return c.Send(r.statusReply(ctx))
}

func (r *Telegram) statusReply(ctx context.Context) string {
	if r.status == nil {
		return "状态查询未启用"
	}
	msg, err := r.status(ctx)
	if err != nil {
		r.logger.Error("telegram status failed", zap.Error(err))
		return "获取状态失败: " + escapeMarkdown(err.Error())
	}
	return msg
}

func (r *Telegram) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go r.client.Start()
	r.logger.Info("telegram bot started")
}

// Stop 停止轮询，未启动时直接返回
func (r *Telegram) Stop() {
	if !r.started.CompareAndSwap(true, false) {
		return
	}
	r.client.Stop()
	r.logger.Info("telegram bot stopped")
}

func (r *Telegram) Notify(chatId, msg string) error {
	_chatId := cast.ToInt64(chatId)
	_, err := r.client.Send(tele.ChatID(_chatId), msg, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}
