package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillswap/internal/model"
	"skillswap/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AccountService struct {
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	reviewRepo      *repository.ReviewRepository
	db              *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		reviewRepo:      repository.NewReviewRepository(db),
		db:              db,
	}
}

type RegisterRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// Register creates the profile row for an auth identity. New users start at zero SC.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, ErrInvalidUser
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	user := &model.User{ID: id, Name: name, Email: email}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	zap.S().Infow("[Account] user registered", "userID", user.ID)
	return user, nil
}

type Balance struct {
	UserID    string  `json:"user_id"`
	SCBalance int64   `json:"sc_balance"`
	SCHeld    int64   `json:"sc_held"`
	Rating    float64 `json:"rating"`
	Reviews   int64   `json:"reviews"`
}

func (s *AccountService) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	rating, count, err := s.reviewRepo.AverageRating(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		UserID:    user.ID,
		SCBalance: user.SCBalance,
		SCHeld:    user.SCHeld,
		Rating:    rating,
		Reviews:   count,
	}, nil
}

type TransactionView struct {
	*model.Transaction
	Credit bool `json:"credit"`
}

type TransactionPage struct {
	Items    []TransactionView `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func (s *AccountService) ListTransactions(ctx context.Context, userID string, page, pageSize int) (*TransactionPage, error) {
	if _, err := s.userRepo.GetByID(ctx, nil, userID); err != nil {
		return nil, err
	}

	page, pageSize = normalizePage(page, pageSize)
	rows, total, err := s.transactionRepo.ListByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]TransactionView, 0, len(rows))
	for _, row := range rows {
		items = append(items, TransactionView{Transaction: row, Credit: model.IsCreditType(row.TxType)})
	}
	return &TransactionPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Reconciliation compares the stored balance with the ledger. Drift is
// reported, never corrected.
type Reconciliation struct {
	UserID    string `json:"user_id"`
	SCBalance int64  `json:"sc_balance"`
	LedgerSum int64  `json:"ledger_sum"`
	Drift     int64  `json:"drift"`
}

func (s *AccountService) Reconcile(ctx context.Context, userID string) (*Reconciliation, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.transactionRepo.SumByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec := &Reconciliation{
		UserID:    userID,
		SCBalance: user.SCBalance,
		LedgerSum: sum,
		Drift:     user.SCBalance - sum,
	}
	if rec.Drift != 0 {
		zap.S().Warnw("[Account] balance drifts from ledger", "userID", userID, "balance", user.SCBalance, "ledgerSum", sum)
	}
	return rec, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
