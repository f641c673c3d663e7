package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-social/pkg/response"
)

// ListNotifications 当前用户收到的通知
// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param limit query int false "条数" default(20)
// @Success 200 {object} response.Response{data=[]model.NotificationView}
// @Failure 401 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	res := h.graph.ListNotifications(c.Request.Context(), principalOf(c), limit)
	if !respond(c, res) {
		return
	}
	response.Success(c, res.Data)
}
