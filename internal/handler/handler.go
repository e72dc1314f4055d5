package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillswap/internal/config"
	"skillswap/internal/infrastructure/gateway"
	"skillswap/internal/infrastructure/lock"
	"skillswap/internal/ratelimit"
	"skillswap/internal/repository"
	"skillswap/internal/service"
	"skillswap/pkg/response"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	DB      *gorm.DB
	Gateway gateway.Gateway
	Limiter ratelimit.Limiter
	Locker  lock.Locker
	Config  *config.Config
}

// Handler groups every endpoint with its services.
type Handler struct {
	cfg             *config.Config
	accountService  *service.AccountService
	skillService    *service.SkillService
	orderService    *service.OrderService
	webhookService  *service.WebhookService
	checkoutService *service.CheckoutService
	escrowService   *service.EscrowService
}

func NewHandler(deps Dependencies) *Handler {
	ledger := service.NewLedgerService(deps.DB, deps.Config)
	return &Handler{
		cfg:             deps.Config,
		accountService:  service.NewAccountService(deps.DB),
		skillService:    service.NewSkillService(deps.DB),
		orderService:    service.NewOrderService(deps.Gateway, deps.Limiter, deps.Config),
		webhookService:  service.NewWebhookService(deps.DB, ledger, deps.Limiter, deps.Config),
		checkoutService: service.NewCheckoutService(deps.Gateway, ledger, deps.Config),
		escrowService:   service.NewEscrowService(deps.DB, deps.Locker, deps.Config),
	}
}

type errorMapping struct {
	err     error
	status  int
	message string // overrides err.Error() when set
}

// errorTable maps domain errors to responses; first match wins. Only sentinel
// text is sent, never the wrapped detail.
var errorTable = []errorMapping{
	{err: service.ErrInvalidAmount, status: http.StatusBadRequest},
	{err: service.ErrInvalidSCAmount, status: http.StatusBadRequest},
	{err: service.ErrInvalidPack, status: http.StatusBadRequest},
	{err: service.ErrInvalidRating, status: http.StatusBadRequest},
	{err: service.ErrInvalidSkill, status: http.StatusBadRequest},
	{err: service.ErrInvalidUser, status: http.StatusBadRequest},
	{err: service.ErrSelfBooking, status: http.StatusBadRequest},
	{err: service.ErrNothingToCredit, status: http.StatusBadRequest},
	{err: service.ErrMissingSignature, status: http.StatusBadRequest},
	{err: service.ErrInvalidSignature, status: http.StatusBadRequest},

	{err: service.ErrForbidden, status: http.StatusForbidden},
	{err: service.ErrNotSeeker, status: http.StatusForbidden},
	{err: service.ErrNotSessionParty, status: http.StatusForbidden},

	{err: repository.ErrUserNotFound, status: http.StatusNotFound},
	{err: repository.ErrSkillNotFound, status: http.StatusNotFound},
	{err: repository.ErrSessionNotFound, status: http.StatusNotFound},

	{err: repository.ErrUserExists, status: http.StatusConflict},
	{err: gorm.ErrDuplicatedKey, status: http.StatusConflict, message: "already exists"},
	{err: service.ErrSessionNotPending, status: http.StatusConflict},
	{err: service.ErrSessionBusy, status: http.StatusConflict},
	{err: repository.ErrBalanceNotEnough, status: http.StatusUnprocessableEntity},

	{err: service.ErrOrderCreateFailed, status: http.StatusInternalServerError, message: response.MsgOrderFailed},
	{err: service.ErrMalformedEvent, status: http.StatusInternalServerError, message: response.MsgWebhookFailed},
	{err: service.ErrGatewayLookup, status: http.StatusBadGateway},
}

func writeError(c *gin.Context, err error) {
	var rlErr *service.RateLimitError
	if errors.As(err, &rlErr) {
		response.TooManyRequests(c, rlErr.Result)
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			msg := m.message
			if msg == "" {
				msg = m.err.Error()
			}
			response.Error(c, m.status, msg)
			return
		}
	}

	zap.S().Errorw("[HTTP] unhandled error", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	response.ServerError(c, response.MsgInternal)
}
