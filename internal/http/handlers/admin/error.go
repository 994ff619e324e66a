package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/dropsync-next/internal/http/handlers/shared"
	"github.com/dropsync-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

// parseIDParam 解析路径中的正整数 ID，失败时直接写入 400 响应
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

func isAsyncRequest(c *gin.Context) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query("async"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func serviceErrorCode(err error) (int, string) {
	return handlershared.ServiceErrorCode(err)
}
