package admin

import (
	"github.com/dropsync-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SyncProductCost 从供应商同步商品成本
func (h *Handler) SyncProductCost(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.ProductCostService.Sync(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
