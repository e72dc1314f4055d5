package handler

import (
	"github.com/gin-gonic/gin"

	"skillswap/internal/auth"
	"skillswap/internal/service"
	"skillswap/pkg/response"
)

// Signature headers accepted on webhook deliveries, in order of preference.
var signatureHeaders = []string{"X-Signature", "X-Razorpay-Signature"}

// CreateOrder
// POST /api/payments/order
func (h *Handler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request body")
		return
	}

	res, err := h.orderService.CreateOrder(c.Request.Context(), c.ClientIP(), auth.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SetRateLimitHeaders(c, res.RateLimit)
	response.Success(c, gin.H{"order": res.Order})
}

// ListPacks
// GET /api/payments/packs
func (h *Handler) ListPacks(c *gin.Context) {
	response.Success(c, gin.H{
		"currency": h.cfg.Razorpay.Currency,
		"key_id":   h.cfg.Razorpay.KeyID,
		"packs":    h.orderService.Packs(),
	})
}

// Webhook takes the raw body: the signature covers the exact bytes sent.
// POST /api/payments/webhook
func (h *Handler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.ParamError(c, "unreadable body")
		return
	}

	var signature string
	for _, name := range signatureHeaders {
		if signature = c.GetHeader(name); signature != "" {
			break
		}
	}

	if _, err := h.webhookService.Handle(c.Request.Context(), c.ClientIP(), body, signature); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"status": "ok"})
}

// ConfirmPayment credits a purchase reported by the checkout widget.
// POST /api/payments/confirm
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req service.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
		return
	}

	res, err := h.checkoutService.Confirm(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, res)
}
