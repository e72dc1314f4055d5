package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"skillswap/internal/model"
	"skillswap/internal/repository"
)

type SkillService struct {
	skillRepo *repository.SkillRepository
	userRepo  *repository.UserRepository
}

func NewSkillService(db *gorm.DB) *SkillService {
	return &SkillService{
		skillRepo: repository.NewSkillRepository(db),
		userRepo:  repository.NewUserRepository(db),
	}
}

type CreateSkillRequest struct {
	Title         string `json:"title" binding:"required"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	DurationHours int    `json:"duration_hours"`
	SCCost        int64  `json:"sc_cost" binding:"required"`
}

func (s *SkillService) Create(ctx context.Context, providerID string, req CreateSkillRequest) (*model.Skill, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || req.SCCost <= 0 || req.DurationHours < 0 {
		return nil, ErrInvalidSkill
	}

	skillType := req.Type
	if skillType == "" {
		skillType = model.SkillTypeOnline
	}
	if skillType != model.SkillTypeOnline && skillType != model.SkillTypeOffline {
		return nil, ErrInvalidSkill
	}

	if _, err := s.userRepo.GetByID(ctx, nil, providerID); err != nil {
		return nil, err
	}

	skill := &model.Skill{
		ProviderID:    providerID,
		Title:         title,
		Category:      strings.TrimSpace(req.Category),
		Type:          skillType,
		DurationHours: req.DurationHours,
		SCCost:        req.SCCost,
	}
	if err := s.skillRepo.Create(ctx, skill); err != nil {
		return nil, err
	}
	return skill, nil
}

func (s *SkillService) Get(ctx context.Context, id int64) (*model.Skill, error) {
	return s.skillRepo.GetByID(ctx, nil, id)
}

type SkillPage struct {
	Items    []*model.Skill `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func (s *SkillService) List(ctx context.Context, filter repository.SkillFilter, page, pageSize int) (*SkillPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	items, total, err := s.skillRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &SkillPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}
