package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/internal/dataset/datasettest"
	"github.com/dushixiang/magicbutton/internal/models"
	"github.com/dushixiang/magicbutton/internal/render"
	"github.com/dushixiang/magicbutton/internal/service"
	"github.com/dushixiang/magicbutton/internal/xe"
	"github.com/dushixiang/magicbutton/pkg/nostd"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type server struct {
	e         *echo.Echo
	db        *gorm.DB
	dashboard *DashboardHandler
	session   *SessionHandler
}

func newServer(t *testing.T) *server {
	t.Helper()
	root := filepath.Join(t.TempDir(), "strategy")
	datasettest.WriteRun(t, root, "run-a", nil)
	ohlcvDir := datasettest.WriteOHLCV(t, filepath.Join(t.TempDir(), "ohlcv"))

	conf := &config.Config{
		Web:        config.WebConf{Strategy: config.StrategyConf{Dir: root}},
		OHLCVData:  map[string]config.OHLCVConf{"1d": {Dir: ohlcvDir}},
		TradingFee: map[string]map[string]config.FeeRates{"binance": {"futures": {Market: 0.05, Limit: 0.02}}},
	}
	conf.ApplyDefaults()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Session{}, &models.RunSnapshot{}, &models.LLMLog{}))

	log := zap.NewNop()
	strategy, err := service.NewStrategyService(log, conf)
	require.NoError(t, err)
	snapshot := service.NewSnapshotService(db, log)
	dashboard := service.NewDashboardService(log, strategy, snapshot)
	analysis := service.NewAnalysisService(db, log, conf, dashboard, nil)

	s := &server{
		e:         echo.New(),
		db:        db,
		dashboard: NewDashboardHandler(log, strategy, dashboard, snapshot, analysis),
		session:   NewSessionHandler(log, service.NewSessionService(db, log, conf, dashboard)),
	}
	cv := &nostd.CustomValidator{Validator: validator.New()}
	require.NoError(t, cv.TransInit())
	s.e.Validator = cv
	return s
}

// call 直接调用处理函数，返回错误与响应
func (s *server) call(h echo.HandlerFunc, method, target, body string, params map[string]string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	return rec, h(c)
}

func TestListStrategies(t *testing.T) {
	s := newServer(t)
	rec, err := s.call(s.dashboard.ListStrategies, http.MethodGet, "/api/strategies", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Strategies []string `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"run-a"}, body.Strategies)
}

func TestGetSummary(t *testing.T) {
	s := newServer(t)
	rec, err := s.call(s.dashboard.GetSummary, http.MethodGet, "/", "", map[string]string{"name": "run-a"})
	require.NoError(t, err)

	var body service.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 10023.0, body.Balance)
	assert.Equal(t, "PnL (All time)", body.Cards[render.TargetPnL].Title)

	_, err = s.call(s.dashboard.GetSummary, http.MethodGet, "/", "", map[string]string{"name": "../etc"})
	assert.ErrorIs(t, err, xe.ErrStrategyNotFound)
}

func TestGetPnLMode(t *testing.T) {
	s := newServer(t)
	name := map[string]string{"name": "run-a"}

	rec, err := s.call(s.dashboard.GetPnL, http.MethodGet, "/?mode=3", "", name)
	require.NoError(t, err)
	var fig render.Figure
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fig))
	assert.Len(t, fig.Data, 3)

	_, err = s.call(s.dashboard.GetPnL, http.MethodGet, "/?mode=9", "", name)
	assert.ErrorIs(t, err, xe.ErrInvalidParams)
	_, err = s.call(s.dashboard.GetPositionValue, http.MethodGet, "/?mode=abc", "", name)
	assert.ErrorIs(t, err, xe.ErrInvalidParams)

	rec, err = s.call(s.dashboard.GetPositionValue, http.MethodGet, "/?mode=2", "", name)
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"figures"`)
}

func TestGetTablesAndSnapshots(t *testing.T) {
	s := newServer(t)
	name := map[string]string{"name": "run-a"}

	rec, err := s.call(s.dashboard.GetTrades, http.MethodGet, "/", "", name)
	require.NoError(t, err)
	var grid render.Grid
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
	assert.Len(t, grid.Rows, 3)

	rec, err = s.call(s.dashboard.GetSnapshots, http.MethodGet, "/?limit=5", "", name)
	require.NoError(t, err)
	var body struct {
		Snapshots []models.RunSnapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Snapshots, 1, "recorded by the trades request")

	_, err = s.call(s.dashboard.GetSnapshots, http.MethodGet, "/", "", map[string]string{"name": "nope"})
	assert.ErrorIs(t, err, xe.ErrStrategyNotFound)
}

func TestGetFrame(t *testing.T) {
	s := newServer(t)
	call := func(frame string) (*httptest.ResponseRecorder, error) {
		rec := httptest.NewRecorder()
		c := s.e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.SetParamNames("name", "frame")
		c.SetParamValues("run-a", frame)
		return rec, s.dashboard.GetFrame(c)
	}

	rec, err := call("position")
	require.NoError(t, err)
	var body struct {
		Columns []string     `json:"columns"`
		Index   []string     `json:"index"`
		Data    [][]*float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, body.Columns)
	assert.Len(t, body.Index, 3)
	assert.Equal(t, "2024-01-01T00:00:00Z", body.Index[0])

	_, err = call("position_value")
	require.NoError(t, err)

	_, err = call("volume")
	assert.ErrorIs(t, err, xe.ErrInvalidParams)
}

func TestGetAnalysisDisabled(t *testing.T) {
	s := newServer(t)
	_, err := s.call(s.dashboard.GetAnalysis, http.MethodGet, "/", "", map[string]string{"name": "run-a"})
	assert.ErrorIs(t, err, xe.ErrAnalysisDisabled)
}

func TestGetAnalysisHistory(t *testing.T) {
	s := newServer(t)
	now := time.Now()
	for i, id := range []string{"01HX0000000000000000000001", "01HX0000000000000000000002"} {
		require.NoError(t, s.db.Create(&models.LLMLog{
			ID:               id,
			Strategy:         "run-a",
			Model:            "test-model",
			AssistantContent: fmt.Sprintf("review %d", i),
			ExecutedAt:       now.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	rec, err := s.call(s.dashboard.GetAnalysisHistory, http.MethodGet, "/?limit=1", "", map[string]string{"name": "run-a"})
	require.NoError(t, err)
	var body struct {
		Analyses []models.LLMLog `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Analyses, 1)
	assert.Equal(t, "review 1", body.Analyses[0].AssistantContent)

	_, err = s.call(s.dashboard.GetAnalysisHistory, http.MethodGet, "/", "", map[string]string{"name": "../etc"})
	assert.ErrorIs(t, err, xe.ErrStrategyNotFound)
}

func TestSessionEndpoints(t *testing.T) {
	s := newServer(t)

	rec, err := s.call(s.session.Create, http.MethodPost, "/api/sessions", "", nil)
	require.NoError(t, err)
	var created service.RenderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Session.ID)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), nostd.SessionKey+"="+created.Session.ID)

	id := map[string]string{"id": created.Session.ID}
	rec, err = s.call(s.session.Dispatch, http.MethodPost, "/", `{"type":"select_strategy","value":"run-a"}`, id)
	require.NoError(t, err)
	var res struct {
		Instructions []struct {
			Target render.Target `json:"target"`
			Kind   render.Kind   `json:"kind"`
		} `json:"instructions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Instructions, len(render.DataTargets))

	_, err = s.call(s.session.Dispatch, http.MethodPost, "/", `{"value":"x"}`, id)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	_, err = s.call(s.session.Dispatch, http.MethodPost, "/", `{"type":"zoom"}`, id)
	assert.ErrorIs(t, err, xe.ErrUnknownEvent)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/current", nil)
	req.Header.Set(nostd.SessionKey, created.Session.ID)
	rec = httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("current")
	require.NoError(t, s.session.Get(c))
	assert.Contains(t, rec.Body.String(), `"strategy":"run-a"`)

	rec, err = s.call(s.session.Stats, http.MethodGet, "/", "", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"run-a":1}`, rec.Body.String())

	_, err = s.call(s.session.Get, http.MethodGet, "/", "", map[string]string{"id": "gone"})
	assert.ErrorIs(t, err, xe.ErrSessionNotFound)
}
