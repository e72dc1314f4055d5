package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillswap/internal/config"
	"skillswap/internal/infrastructure/lock"
	"skillswap/internal/metrics"
	"skillswap/internal/model"
	"skillswap/internal/repository"
	"skillswap/pkg/idgen"
)

const sessionLockPrefix = "escrow:lock:session:"

// EscrowService moves credits into and out of escrow for booked sessions.
type EscrowService struct {
	db              *gorm.DB
	cfg             *config.Config
	locker          lock.Locker
	userRepo        *repository.UserRepository
	skillRepo       *repository.SkillRepository
	sessionRepo     *repository.SessionRepository
	reviewRepo      *repository.ReviewRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewEscrowService(db *gorm.DB, locker lock.Locker, cfg *config.Config) *EscrowService {
	return &EscrowService{
		db:              db,
		cfg:             cfg,
		locker:          locker,
		userRepo:        repository.NewUserRepository(db),
		skillRepo:       repository.NewSkillRepository(db),
		sessionRepo:     repository.NewSessionRepository(db),
		reviewRepo:      repository.NewReviewRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

// Book holds the skill's cost from the seeker's balance and opens a pending
// session. The cost always comes from the listing.
func (s *EscrowService) Book(ctx context.Context, seekerID string, skillID int64) (session *model.Session, err error) {
	defer func() { metrics.RecordEscrow("hold", err) }()

	skill, err := s.skillRepo.GetByID(ctx, nil, skillID)
	if err != nil {
		return nil, err
	}
	if skill.ProviderID == seekerID {
		return nil, ErrSelfBooking
	}
	if skill.SCCost <= 0 {
		return nil, ErrInvalidSkill
	}

	session = &model.Session{
		ID:             uuid.NewString(),
		SeekerID:       seekerID,
		ProviderID:     skill.ProviderID,
		SkillID:        skill.ID,
		SCHeldInEscrow: skill.SCCost,
		Status:         model.SessionStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := s.userRepo.Hold(ctx, tx, seekerID, skill.SCCost)
		if err != nil {
			return err
		}

		if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		return s.appendLedger(ctx, tx, &model.Transaction{
			UserID:       seekerID,
			Amount:       -skill.SCCost,
			TxType:       model.TxTypeEscrowHold,
			Description:  fmt.Sprintf("Held %d SC in escrow for %s", skill.SCCost, skill.Title),
			Reference:    session.ID,
			BalanceAfter: balance,
		}, model.LedgerEventEscrowHeld, skill.ProviderID)
	})
	if err != nil {
		return nil, err
	}

	zap.S().Infow("[Escrow] session booked",
		"sessionID", session.ID, "seekerID", seekerID, "providerID", skill.ProviderID, "amount", skill.SCCost)
	return session, nil
}

type ReleaseRequest struct {
	SessionID  string
	ReviewerID string
	Rating     int
	Comment    string
}

type ReleaseResult struct {
	Session     *model.Session `json:"session"`
	ReviewSaved bool           `json:"review_saved"`
}

// Release completes a pending session and pays the escrow to the provider. It
// fires once: a second call finds the session completed and changes nothing.
// The review is written after the commit and its failure does not undo the
// release.
func (s *EscrowService) Release(ctx context.Context, req ReleaseRequest) (result *ReleaseResult, err error) {
	defer func() { metrics.RecordEscrow("release", err) }()

	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	release, err := s.acquire(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessionRepo.GetByID(ctx, nil, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.SeekerID != req.ReviewerID {
		return nil, ErrNotSeeker
	}
	if session.Status != model.SessionStatusPending {
		return nil, ErrSessionNotPending
	}

	amount := session.SCHeldInEscrow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.UpdateStatus(ctx, tx, session.ID, model.SessionStatusPending, model.SessionStatusCompleted); err != nil {
			if errors.Is(err, repository.ErrSessionStatusConflict) {
				return ErrSessionNotPending
			}
			return err
		}

		if err := s.userRepo.ReleaseHeld(ctx, tx, session.SeekerID, amount); err != nil {
			return err
		}

		balance, err := s.userRepo.Credit(ctx, tx, session.ProviderID, amount)
		if err != nil {
			return err
		}

		return s.appendLedger(ctx, tx, &model.Transaction{
			UserID:       session.ProviderID,
			Amount:       amount,
			TxType:       model.TxTypeEscrowRelease,
			Description:  fmt.Sprintf("Received %d SC for session %s", amount, session.ID),
			Reference:    session.ID,
			BalanceAfter: balance,
		}, model.LedgerEventEscrowReleased, session.SeekerID)
	})
	if err != nil {
		return nil, err
	}

	zap.S().Infow("[Escrow] escrow released",
		"sessionID", session.ID, "providerID", session.ProviderID, "amount", amount)

	result = &ReleaseResult{ReviewSaved: true}
	review := &model.Review{
		SessionID:  session.ID,
		ReviewerID: req.ReviewerID,
		RevieweeID: session.ProviderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		zap.S().Errorw("[Escrow] review insert failed after release", "sessionID", session.ID, "err", err)
		result.ReviewSaved = false
	}

	result.Session, err = s.sessionRepo.GetByID(ctx, nil, session.ID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel returns the escrow of a pending session to the seeker. Either
// participant may cancel.
func (s *EscrowService) Cancel(ctx context.Context, sessionID, requesterID string) (session *model.Session, err error) {
	defer func() { metrics.RecordEscrow("refund", err) }()

	release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err = s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if requesterID != session.SeekerID && requesterID != session.ProviderID {
		return nil, ErrNotSessionParty
	}
	if session.Status != model.SessionStatusPending {
		return nil, ErrSessionNotPending
	}

	amount := session.SCHeldInEscrow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.UpdateStatus(ctx, tx, session.ID, model.SessionStatusPending, model.SessionStatusCancelled); err != nil {
			if errors.Is(err, repository.ErrSessionStatusConflict) {
				return ErrSessionNotPending
			}
			return err
		}

		balance, err := s.userRepo.RefundHeld(ctx, tx, session.SeekerID, amount)
		if err != nil {
			return err
		}

		return s.appendLedger(ctx, tx, &model.Transaction{
			UserID:       session.SeekerID,
			Amount:       amount,
			TxType:       model.TxTypeEscrowRefund,
			Description:  fmt.Sprintf("Refunded %d SC for cancelled session %s", amount, session.ID),
			Reference:    session.ID,
			BalanceAfter: balance,
		}, model.LedgerEventEscrowRefunded, session.ProviderID)
	})
	if err != nil {
		return nil, err
	}

	zap.S().Infow("[Escrow] session cancelled", "sessionID", session.ID, "by", requesterID, "amount", amount)
	return s.sessionRepo.GetByID(ctx, nil, session.ID)
}

// GetSession returns a session to one of its participants.
func (s *EscrowService) GetSession(ctx context.Context, sessionID, requesterID string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if requesterID != session.SeekerID && requesterID != session.ProviderID {
		return nil, ErrNotSessionParty
	}
	return session, nil
}

func (s *EscrowService) ListSessions(ctx context.Context, userID, status string) ([]*model.Session, error) {
	return s.sessionRepo.ListByUser(ctx, userID, status)
}

func (s *EscrowService) acquire(ctx context.Context, sessionID string) (func(), error) {
	release, err := s.locker.Acquire(ctx, sessionLockPrefix+sessionID)
	if err != nil {
		if errors.Is(err, lock.ErrLockFailed) {
			return nil, ErrSessionBusy
		}
		return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
	}
	return release, nil
}

func (s *EscrowService) appendLedger(ctx context.Context, tx *gorm.DB, trans *model.Transaction, event, counterpart string) error {
	trans.TransactionNo = idgen.GenerateTransactionNo()
	if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
		return fmt.Errorf("append %s transaction: %w", trans.TxType, err)
	}

	amount := trans.Amount
	if amount < 0 {
		amount = -amount
	}
	msg, err := newOutboxMessage(s.cfg.Kafka.Topic.LedgerEvents, trans.Reference, LedgerEvent{
		Event:         event,
		UserID:        trans.UserID,
		CounterpartID: counterpart,
		SessionID:     trans.Reference,
		Amount:        amount,
		BalanceAfter:  trans.BalanceAfter,
		TransactionNo: trans.TransactionNo,
	})
	if err != nil {
		return err
	}
	if err := s.outboxRepo.Append(ctx, tx, msg); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}
