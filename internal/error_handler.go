package internal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dushixiang/magicbutton/internal/xe"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusOf 业务错误对应的 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, xe.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, xe.ErrStrategyNotFound), errors.Is(err, xe.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, xe.ErrAnalysisDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func WithErrorHandler(logger *zap.Logger) func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					return c.JSON(he.Code, orz.Map{
						"code":    he.Code,
						"message": fmt.Sprint(he.Message),
					})
				}

				err = xe.From(err)
				var oe *orz.Error
				if errors.As(err, &oe) {
					return c.JSON(statusOf(err), orz.Map{
						"code":    oe.Code,
						"message": err.Error(),
					})
				}

				logger.Sugar().Error("api", zap.Error(err))

				return c.JSON(500, orz.Map{
					"code":    500,
					"message": err.Error(),
				})
			}
			return nil
		}
	}
}
