package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skillswap/internal/model"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrBalanceNotEnough = errors.New("insufficient SC balance")
	ErrHeldNotEnough    = errors.New("escrowed SC lower than release amount")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUserExists
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*model.User, error) {
	var user model.User
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*model.User, error) {
	var user model.User
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Credit adds amount to the spendable balance and returns the new balance.
func (r *UserRepository) Credit(ctx context.Context, tx *gorm.DB, id string, amount int64) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("sc_balance", gorm.Expr("sc_balance + ?", amount))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrUserNotFound
	}
	return r.balance(ctx, tx, id)
}

// Hold moves amount from the spendable balance into escrow. The balance check
// is part of the UPDATE, so concurrent holds cannot overdraw.
func (r *UserRepository) Hold(ctx context.Context, tx *gorm.DB, id string, amount int64) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND sc_balance >= ?", id, amount).
		Updates(map[string]interface{}{
			"sc_balance": gorm.Expr("sc_balance - ?", amount),
			"sc_held":    gorm.Expr("sc_held + ?", amount),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, tx, id); err != nil {
			return 0, err
		}
		return 0, ErrBalanceNotEnough
	}
	return r.balance(ctx, tx, id)
}

// ReleaseHeld drops amount from escrow without returning it to the owner; the
// caller credits the counterparty in the same transaction.
func (r *UserRepository) ReleaseHeld(ctx context.Context, tx *gorm.DB, id string, amount int64) error {
	result := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND sc_held >= ?", id, amount).
		Update("sc_held", gorm.Expr("sc_held - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, tx, id); err != nil {
			return err
		}
		return ErrHeldNotEnough
	}
	return nil
}

// RefundHeld moves amount from escrow back to the spendable balance.
func (r *UserRepository) RefundHeld(ctx context.Context, tx *gorm.DB, id string, amount int64) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND sc_held >= ?", id, amount).
		Updates(map[string]interface{}{
			"sc_held":    gorm.Expr("sc_held - ?", amount),
			"sc_balance": gorm.Expr("sc_balance + ?", amount),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, tx, id); err != nil {
			return 0, err
		}
		return 0, ErrHeldNotEnough
	}
	return r.balance(ctx, tx, id)
}

func (r *UserRepository) balance(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	var balance int64
	err := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Pluck("sc_balance", &balance).Error
	return balance, err
}
