package nostd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

const SessionKey = "MagicButton-Session"

// GetSessionID 依次从请求头、查询参数、Cookie 中读取会话ID
func GetSessionID(c echo.Context) string {
	id := c.Request().Header.Get(SessionKey)
	if len(id) > 0 {
		return id
	}
	id = c.QueryParam(SessionKey)
	if id != "" {
		return id
	}
	cookie, err := c.Cookie(SessionKey)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func SafePathJoin(baseDir, userInput string) (string, error) {
	cleanedPath := filepath.Clean(userInput)
	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	absFilePath, err := filepath.Abs(filepath.Join(absBaseDir, cleanedPath))
	if err != nil {
		return "", err
	}

	if absFilePath != absBaseDir && !strings.HasPrefix(absFilePath, absBaseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path: %s", userInput)
	}
	return absFilePath, nil
}
