package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"skillswap/internal/model"
)

var ErrSkillNotFound = errors.New("skill not found")

type SkillRepository struct {
	db *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

type SkillFilter struct {
	Category   string
	Type       string
	ProviderID string
}

func (r *SkillRepository) Create(ctx context.Context, skill *model.Skill) error {
	return r.db.WithContext(ctx).Create(skill).Error
}

func (r *SkillRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Skill, error) {
	if tx == nil {
		tx = r.db
	}
	var skill model.Skill
	err := tx.WithContext(ctx).Where("id = ?", id).First(&skill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSkillNotFound
		}
		return nil, err
	}
	return &skill, nil
}

func (r *SkillRepository) List(ctx context.Context, filter SkillFilter, page, pageSize int) ([]*model.Skill, int64, error) {
	var skills []*model.Skill
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Skill{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ProviderID != "" {
		query = query.Where("provider_id = ?", filter.ProviderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&skills).Error

	return skills, total, err
}
