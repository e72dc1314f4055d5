package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skillswap/internal/ratelimit"
)

// Client-facing messages. Internal error detail is logged, never sent.
const (
	MsgInternal        = "internal server error"
	MsgTooManyRequests = "Too many requests."
	MsgOrderFailed     = "payment could not be started"
	MsgWebhookFailed   = "Webhook processing failed"
)

type ErrorBody struct {
	Error string `json:"error"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: message})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// TooManyRequests writes 429 with the window state. X-RateLimit-Reset is the
// window expiry in unix milliseconds.
func TooManyRequests(c *gin.Context, res ratelimit.Result) {
	SetRateLimitHeaders(c, res)
	Error(c, http.StatusTooManyRequests, MsgTooManyRequests)
}

func SetRateLimitHeaders(c *gin.Context, res ratelimit.Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(res.Reset.UnixMilli(), 10))
}
