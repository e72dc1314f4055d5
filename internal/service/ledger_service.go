package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillswap/internal/config"
	"skillswap/internal/metrics"
	"skillswap/internal/model"
	"skillswap/internal/repository"
	"skillswap/pkg/idgen"
)

// LedgerService applies purchase credits. Each gateway payment moves a balance
// at most once, whichever path (webhook, checkout confirmation, retry) gets
// there first.
type LedgerService struct {
	db              *gorm.DB
	cfg             *config.Config
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	paymentRepo     *repository.PaymentRepository
	outboxRepo      *repository.OutboxRepository
}

func NewLedgerService(db *gorm.DB, cfg *config.Config) *LedgerService {
	return &LedgerService{
		db:              db,
		cfg:             cfg,
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		paymentRepo:     repository.NewPaymentRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

type CreditRequest struct {
	UserID    string
	Amount    int64
	PaymentID string
	OrderID   string
	Source    string
}

type CreditResult struct {
	// Applied is false when the payment had been credited before.
	Applied       bool   `json:"applied"`
	BalanceAfter  int64  `json:"sc_balance"`
	TransactionNo string `json:"transaction_no,omitempty"`
}

func (s *LedgerService) Credit(ctx context.Context, req CreditRequest) (*CreditResult, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.UserID == "" || req.PaymentID == "" {
		return nil, ErrNothingToCredit
	}

	result := &CreditResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.paymentRepo.ClaimCredit(ctx, tx, &model.PaymentCredit{
			PaymentID: req.PaymentID,
			OrderID:   req.OrderID,
			UserID:    req.UserID,
			SCAmount:  req.Amount,
			Source:    req.Source,
		})
		if err != nil {
			return fmt.Errorf("claim payment %s: %w", req.PaymentID, err)
		}
		if !claimed {
			return nil
		}

		balance, err := s.userRepo.Credit(ctx, tx, req.UserID, req.Amount)
		if err != nil {
			return err
		}

		txnNo := idgen.GenerateTransactionNo()
		trans := &model.Transaction{
			TransactionNo: txnNo,
			UserID:        req.UserID,
			Amount:        req.Amount,
			TxType:        model.TxTypePurchase,
			Description:   fmt.Sprintf("Purchased %d SC via Razorpay Order %s", req.Amount, req.OrderID),
			Reference:     req.PaymentID,
			BalanceAfter:  balance,
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("append purchase transaction: %w", err)
		}

		msg, err := newOutboxMessage(s.cfg.Kafka.Topic.LedgerEvents, req.UserID, LedgerEvent{
			Event:         model.LedgerEventCredited,
			UserID:        req.UserID,
			PaymentID:     req.PaymentID,
			OrderID:       req.OrderID,
			Amount:        req.Amount,
			BalanceAfter:  balance,
			TransactionNo: txnNo,
		})
		if err != nil {
			return err
		}
		if err := s.outboxRepo.Append(ctx, tx, msg); err != nil {
			return fmt.Errorf("write outbox: %w", err)
		}

		result.Applied = true
		result.BalanceAfter = balance
		result.TransactionNo = txnNo
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Applied {
		user, err := s.userRepo.GetByID(ctx, nil, req.UserID)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		if user != nil {
			result.BalanceAfter = user.SCBalance
		}
		zap.S().Infow("[Ledger] payment already credited", "paymentID", req.PaymentID, "source", req.Source)
	} else {
		zap.S().Infow("[Ledger] credited purchase",
			"userID", req.UserID, "amount", req.Amount, "paymentID", req.PaymentID,
			"orderID", req.OrderID, "source", req.Source, "balance", result.BalanceAfter)
	}
	metrics.RecordCredit(req.Source, result.Applied, req.Amount)
	return result, nil
}
