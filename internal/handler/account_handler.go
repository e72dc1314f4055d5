package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"skillswap/internal/auth"
	"skillswap/internal/service"
	"skillswap/pkg/response"
)

// RegisterUser
// POST /api/users
func (h *Handler) RegisterUser(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "name and a valid email are required")
		return
	}

	if caller := auth.UserID(c); caller != "" {
		if req.ID != "" && req.ID != caller {
			writeError(c, service.ErrForbidden)
			return
		}
		req.ID = caller
	}

	user, err := h.accountService.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, user)
}

// GetBalance
// GET /api/users/:id/balance
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := h.ownAccount(c)
	if !ok {
		return
	}

	balance, err := h.accountService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, balance)
}

// ListTransactions
// GET /api/users/:id/transactions?page=1&page_size=20
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := h.ownAccount(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.accountService.ListTransactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Reconcile
// GET /api/users/:id/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	userID, ok := h.ownAccount(c)
	if !ok {
		return
	}

	rec, err := h.accountService.Reconcile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, rec)
}

// ownAccount lets callers read only their own account.
func (h *Handler) ownAccount(c *gin.Context) (string, bool) {
	userID := c.Param("id")
	if userID != auth.UserID(c) {
		writeError(c, service.ErrForbidden)
		return "", false
	}
	return userID, true
}
