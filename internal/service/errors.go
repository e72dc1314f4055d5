package service

import (
	"errors"
	"fmt"
	"time"

	"skillswap/internal/ratelimit"
)

var (
	ErrInvalidAmount     = errors.New("amount must be a positive sum in whole paise")
	ErrInvalidSCAmount   = errors.New("sc_amount must not be negative")
	ErrInvalidPack       = errors.New("unknown credit pack")
	ErrOrderCreateFailed = errors.New("payment could not be started")
	ErrForbidden         = errors.New("not allowed to act for this user")

	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedEvent   = errors.New("malformed webhook payload")
	ErrGatewayLookup    = errors.New("payment gateway lookup failed")
	ErrNothingToCredit  = errors.New("order carries no credit metadata")

	ErrSelfBooking       = errors.New("cannot book your own skill")
	ErrSessionNotPending = errors.New("session is not pending")
	ErrNotSeeker         = errors.New("only the seeker can complete a session")
	ErrNotSessionParty   = errors.New("not a participant of this session")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrSessionBusy       = errors.New("session is being updated, retry shortly")

	ErrInvalidSkill = errors.New("invalid skill listing")
	ErrInvalidUser  = errors.New("name and email are required")
)

// RateLimitError is returned when a caller exhausted its window.
type RateLimitError struct {
	Scope  string
	Result ratelimit.Result
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, resets at %s", e.Scope, e.Result.Reset.UTC().Format(time.RFC3339))
}
