package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-social/pkg/response"
)

// ToggleFollow 切换关注（关注时通知对方）
// @Summary 关注/取消关注
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/follows/{user_id}/toggle [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	res := h.graph.ToggleFollow(c.Request.Context(), principalOf(c), c.Param("user_id"))
	if !respond(c, res) {
		return
	}
	response.Success(c, gin.H{"success": true, "state": res.Data})
}

// FollowStatus 当前用户是否关注目标
// @Summary 查询关注状态
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 401 {object} response.Response
// @Router /api/v1/follows/{user_id}/status [get]
func (h *Handler) FollowStatus(c *gin.Context) {
	res := h.graph.IsFollowing(c.Request.Context(), principalOf(c), c.Param("user_id"))
	if !respond(c, res) {
		return
	}
	response.Success(c, gin.H{"following": res.Data})
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.graph.ListFollowing(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.graph.ListFollowers(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
