package nostd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafePathJoin(t *testing.T) {
	base := t.TempDir()

	p, err := SafePathJoin(base, "run-a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run-a"), p)

	_, err = SafePathJoin(base, "../outside")
	assert.Error(t, err)

	_, err = SafePathJoin(filepath.Join(base, "strategy"), "../strategy-other")
	assert.Error(t, err, "sibling with shared prefix")
}

func TestBcrypt(t *testing.T) {
	hash, err := BcryptEncode([]byte("secret"))
	require.NoError(t, err)
	assert.NoError(t, BcryptMatch(hash, []byte("secret")))
	assert.Error(t, BcryptMatch(hash, []byte("wrong")))
}

func TestGetSessionID(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?"+SessionKey+"=from-query", nil)
	req.Header.Set(SessionKey, "from-header")
	assert.Equal(t, "from-header", GetSessionID(e.NewContext(req, httptest.NewRecorder())))

	req = httptest.NewRequest(http.MethodGet, "/?"+SessionKey+"=from-query", nil)
	assert.Equal(t, "from-query", GetSessionID(e.NewContext(req, httptest.NewRecorder())))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionKey, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", GetSessionID(e.NewContext(req, httptest.NewRecorder())))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetSessionID(e.NewContext(req, httptest.NewRecorder())))
}

func TestCustomValidator(t *testing.T) {
	type event struct {
		Type string `json:"type" validate:"required"`
	}
	cv := CustomValidator{Validator: validator.New()}
	require.NoError(t, cv.TransInit())

	assert.NoError(t, cv.Validate(event{Type: "navigate"}))

	err := cv.Validate(event{})
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, he.Message, "type")
}
