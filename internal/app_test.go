package internal

import (
	"testing"
	"time"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShutdownStopsScheduler(t *testing.T) {
	conf := &config.Config{}
	conf.ApplyDefaults()
	conf.Web.RefreshCron = "@every 1h"
	conf.Web.SessionPurgeCron = "@every 1h"

	scheduler := service.NewScheduler(zap.NewNop(), conf, nil, nil, nil, nil)
	require.NoError(t, scheduler.Start())

	app := NewMagicButtonApp()
	app.components = &AppComponents{Scheduler: scheduler}
	app.logger = zap.NewNop()

	done := make(chan struct{})
	go func() {
		app.Shutdown()
		app.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
}

func TestShutdownBeforeConfigure(t *testing.T) {
	assert.NotPanics(t, NewMagicButtonApp().Shutdown)
}
