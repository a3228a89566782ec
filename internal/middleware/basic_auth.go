package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/dushixiang/magicbutton/internal/config"
	"github.com/dushixiang/magicbutton/pkg/nostd"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// BasicAuthConfig 页面认证配置
type BasicAuthConfig struct {
	Auth   config.BasicAuthConf
	Logger *zap.Logger
	// 不需要认证的路径前缀，例如健康检查
	SkipPrefixes []string
}

// BasicAuth 使用 bcrypt 校验 HTTP Basic 认证，未配置用户名或密码时放行所有请求
func BasicAuth(conf BasicAuthConfig) echo.MiddlewareFunc {
	if !conf.Auth.Enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Skipper: func(c echo.Context) bool {
			for _, prefix := range conf.SkipPrefixes {
				if strings.HasPrefix(c.Request().URL.Path, prefix) {
					return true
				}
			}
			return false
		},
		Realm: "MagicButton",
		Validator: func(username, password string, c echo.Context) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(username), []byte(conf.Auth.Username)) != 1 {
				conf.Logger.Warn("basic auth rejected",
					zap.String("path", c.Request().URL.Path),
					zap.String("remote_ip", c.RealIP()))
				return false, nil
			}
			if err := nostd.BcryptMatch([]byte(conf.Auth.PasswordHash), []byte(password)); err != nil {
				conf.Logger.Warn("basic auth rejected",
					zap.String("path", c.Request().URL.Path),
					zap.String("remote_ip", c.RealIP()))
				return false, nil
			}
			return true, nil
		},
	})
}
