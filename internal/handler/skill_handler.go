package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"skillswap/internal/auth"
	"skillswap/internal/repository"
	"skillswap/internal/service"
	"skillswap/pkg/response"
)

// CreateSkill lists a skill offered by the caller.
// POST /api/skills
func (h *Handler) CreateSkill(c *gin.Context) {
	var req service.CreateSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "title and sc_cost are required")
		return
	}

	skill, err := h.skillService.Create(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, skill)
}

// ListSkills
// GET /api/skills?category=&type=&provider_id=&page=&page_size=
func (h *Handler) ListSkills(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.SkillFilter{
		Category:   c.Query("category"),
		Type:       c.Query("type"),
		ProviderID: c.Query("provider_id"),
	}

	result, err := h.skillService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// GetSkill
// GET /api/skills/:id
func (h *Handler) GetSkill(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid skill id")
		return
	}

	skill, err := h.skillService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, skill)
}
