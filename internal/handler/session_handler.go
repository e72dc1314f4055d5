package handler

import (
	"github.com/gin-gonic/gin"

	"skillswap/internal/auth"
	"skillswap/internal/service"
	"skillswap/pkg/response"
)

type BookSessionRequest struct {
	SkillID int64 `json:"skill_id" binding:"required,gt=0"`
}

// BookSession holds the skill's cost in escrow for the caller.
// POST /api/sessions
func (h *Handler) BookSession(c *gin.Context) {
	var req BookSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "skill_id is required")
		return
	}

	session, err := h.escrowService.Book(c.Request.Context(), auth.UserID(c), req.SkillID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, session)
}

// ListSessions
// GET /api/sessions?status=pending
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.escrowService.ListSessions(c.Request.Context(), auth.UserID(c), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"items": sessions})
}

// GetSession
// GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.escrowService.GetSession(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, session)
}

type CompleteSessionRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// CompleteSession releases the escrow to the provider and stores the review.
// POST /api/sessions/:id/complete
func (h *Handler) CompleteSession(c *gin.Context) {
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "rating is required")
		return
	}

	result, err := h.escrowService.Release(c.Request.Context(), service.ReleaseRequest{
		SessionID:  c.Param("id"),
		ReviewerID: auth.UserID(c),
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// CancelSession refunds the escrow to the seeker.
// POST /api/sessions/:id/cancel
func (h *Handler) CancelSession(c *gin.Context) {
	session, err := h.escrowService.Cancel(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, session)
}
