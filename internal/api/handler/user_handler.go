package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gin-social/pkg/response"
)

// SyncUser 同步当前登录用户
// @Summary 同步身份提供方用户到本地
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/users/sync [post]
func (h *Handler) SyncUser(c *gin.Context) {
	res := h.identitySync.SyncUser(c.Request.Context(), principalOf(c))
	if !respond(c, res) {
		return
	}
	response.Success(c, res.Data)
}

// GetMyID 当前登录用户的本地 ID
// @Summary 解析本地用户 ID
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/me/id [get]
func (h *Handler) GetMyID(c *gin.Context) {
	res := h.identitySync.GetDBUserID(c.Request.Context(), principalOf(c))
	if !respond(c, res) {
		return
	}
	response.Success(c, gin.H{"id": res.Data})
}

// GetUserByClerkID 按身份提供方 ID 查询用户及计数
// @Summary 查询用户资料
// @Tags 用户
// @Produce json
// @Param clerk_id path string true "身份提供方用户ID"
// @Success 200 {object} response.Response{data=model.UserProfile}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/by-clerk/{clerk_id} [get]
func (h *Handler) GetUserByClerkID(c *gin.Context) {
	res := h.identitySync.GetUserByClerkID(c.Request.Context(), c.Param("clerk_id"))
	if !respond(c, res) {
		return
	}
	response.Success(c, res.Data)
}

// Suggestions 推荐关注
// @Summary 推荐最多 3 个未关注的用户
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.UserSummary}
// @Router /api/v1/users/suggestions [get]
func (h *Handler) Suggestions(c *gin.Context) {
	response.Success(c, h.graph.GetRandomUsers(c.Request.Context(), principalOf(c)))
}
