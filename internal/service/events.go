package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/spf13/cast"
)

type EventType string

const (
	EventNavigate       EventType = "navigate"
	EventSelectStrategy EventType = "select_strategy"
	EventPnLMode        EventType = "pnl_mode"
	EventPositionMode   EventType = "position_mode"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrEventValue   = errors.New("invalid event value")
)

// Event 前端发来的交互事件
type Event struct {
	Type  EventType `json:"type" validate:"required,max=32"`
	Value string    `json:"value" validate:"max=255"`
}

// SessionState 会话中与渲染相关的状态
type SessionState struct {
	Strategy     string                 `json:"strategy"`
	PnLMode      portfolio.PnLMode      `json:"pnl_mode"`
	PositionMode portfolio.PositionMode `json:"position_mode"`
	Path         string                 `json:"path"`
}

// DefaultState 新会话的初始状态
func DefaultState() SessionState {
	return SessionState{
		PnLMode:      portfolio.PnLAccount,
		PositionMode: portfolio.PositionStatus,
		Path:         "/",
	}
}

// EventHandler 根据事件计算新状态与需要重新渲染的区域，不产生副作用
type EventHandler func(state SessionState, ev Event) (SessionState, []render.Target, error)

var eventHandlers = map[EventType]EventHandler{
	EventNavigate:       onNavigate,
	EventSelectStrategy: onSelectStrategy,
	EventPnLMode:        onPnLMode,
	EventPositionMode:   onPositionMode,
}

// Apply 分发事件
func Apply(state SessionState, ev Event) (SessionState, []render.Target, error) {
	handler, ok := eventHandlers[ev.Type]
	if !ok {
		return state, nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return handler(state, ev)
}

func onNavigate(state SessionState, ev Event) (SessionState, []render.Target, error) {
	path := strings.TrimSpace(ev.Value)
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		return state, nil, fmt.Errorf("%w: path %q", ErrEventValue, ev.Value)
	}
	state.Path = render.Canonical(path)
	return state, []render.Target{render.TargetPage}, nil
}

func onSelectStrategy(state SessionState, ev Event) (SessionState, []render.Target, error) {
	name := strings.TrimSpace(ev.Value)
	if name == "" {
		return state, nil, fmt.Errorf("%w: empty strategy", ErrEventValue)
	}
	state.Strategy = name
	return state, append([]render.Target(nil), render.DataTargets...), nil
}

func onPnLMode(state SessionState, ev Event) (SessionState, []render.Target, error) {
	n, err := cast.ToIntE(strings.TrimSpace(ev.Value))
	if err != nil || !portfolio.PnLMode(n).Valid() {
		return state, nil, fmt.Errorf("%w: pnl mode %q", ErrEventValue, ev.Value)
	}
	state.PnLMode = portfolio.PnLMode(n)
	return state, []render.Target{render.TargetPnLFigure}, nil
}

func onPositionMode(state SessionState, ev Event) (SessionState, []render.Target, error) {
	n, err := cast.ToIntE(strings.TrimSpace(ev.Value))
	if err != nil || !portfolio.PositionMode(n).Valid() {
		return state, nil, fmt.Errorf("%w: position mode %q", ErrEventValue, ev.Value)
	}
	state.PositionMode = portfolio.PositionMode(n)
	return state, []render.Target{render.TargetPosValue}, nil
}
