package admin

import (
	"github.com/dropsync-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RunStaleReap 手动触发过期订单清理与物流巡检
func (h *Handler) RunStaleReap(c *gin.Context) {
	if h.ReaperService == nil {
		respondError(c, response.CodeServiceUnavailable, "reaper unavailable", nil)
		return
	}
	result, err := h.ReaperService.Run(c.Request.Context())
	if err != nil {
		// 删除失败时巡检结果仍然有效
		code, msg := serviceErrorCode(err)
		requestLog(c).Errorw("admin_stale_reap_failed", "error", err)
		response.ErrorWithData(c, code, msg, result)
		return
	}
	if result.LockSkipped {
		response.SuccessWithMsg(c, "another reaper run is in progress", result)
		return
	}
	response.Success(c, result)
}
