package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/leadhub/internal/audit/domain"
	"github.com/smallbiznis/leadhub/internal/catalog/domain"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("catalog.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, domain.ErrInvalidName
	}
	categorySlug, err := resolveSlug(req.Slug, name)
	if err != nil {
		return domain.Category{}, err
	}

	now := s.clock.Now()
	category := domain.Category{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      categorySlug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertCategory(ctx, s.db, &category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Category{}, domain.ErrSlugTaken
		}
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}

	s.audit(ctx, auditdomain.ActionCategoryCreate, "category", category.ID, map[string]any{
		"name": category.Name,
		"slug": category.Slug,
	})
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, req domain.UpdateCategoryRequest) (domain.Category, error) {
	category, err := s.repo.FindCategory(ctx, s.db, req.ID)
	if err != nil {
		return domain.Category{}, err
	}
	if category == nil {
		return domain.Category{}, domain.ErrCategoryNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Category{}, domain.ErrInvalidName
		}
		category.Name = name
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateCategory(ctx, s.db, category); err != nil {
		return domain.Category{}, fmt.Errorf("update category: %w", err)
	}

	s.audit(ctx, auditdomain.ActionCategoryUpdate, "category", category.ID, map[string]any{
		"name":      category.Name,
		"is_active": category.IsActive,
	})
	return *category, nil
}

func (s *Service) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	items, err := s.repo.ListCategories(ctx, s.db, !includeInactive)
	if err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(items))
	for _, item := range items {
		categories = append(categories, *item)
	}
	return categories, nil
}

func (s *Service) CreateOffering(ctx context.Context, req domain.CreateOfferingRequest) (domain.Offering, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Offering{}, domain.ErrInvalidName
	}
	if req.CreditCost < 0 {
		return domain.Offering{}, domain.ErrInvalidCreditCost
	}
	offeringSlug, err := resolveSlug(req.Slug, name)
	if err != nil {
		return domain.Offering{}, err
	}

	category, err := s.repo.FindCategory(ctx, s.db, req.CategoryID)
	if err != nil {
		return domain.Offering{}, err
	}
	if category == nil {
		return domain.Offering{}, domain.ErrCategoryNotFound
	}

	now := s.clock.Now()
	offering := domain.Offering{
		ID:         s.genID.Generate(),
		CategoryID: category.ID,
		Name:       name,
		Slug:       offeringSlug,
		CreditCost: req.CreditCost,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertOffering(ctx, s.db, &offering); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Offering{}, domain.ErrSlugTaken
		}
		return domain.Offering{}, fmt.Errorf("insert service: %w", err)
	}

	s.audit(ctx, auditdomain.ActionServiceCreate, "service", offering.ID, map[string]any{
		"category_id": offering.CategoryID.String(),
		"name":        offering.Name,
		"credit_cost": offering.CreditCost,
	})
	return offering, nil
}

func (s *Service) UpdateOffering(ctx context.Context, req domain.UpdateOfferingRequest) (domain.Offering, error) {
	offering, err := s.repo.FindOffering(ctx, s.db, req.ID)
	if err != nil {
		return domain.Offering{}, err
	}
	if offering == nil {
		return domain.Offering{}, domain.ErrOfferingNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Offering{}, domain.ErrInvalidName
		}
		offering.Name = name
	}
	if req.CreditCost != nil {
		if *req.CreditCost < 0 {
			return domain.Offering{}, domain.ErrInvalidCreditCost
		}
		offering.CreditCost = *req.CreditCost
	}
	if req.IsActive != nil {
		offering.IsActive = *req.IsActive
	}
	offering.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateOffering(ctx, s.db, offering); err != nil {
		return domain.Offering{}, fmt.Errorf("update service: %w", err)
	}

	s.audit(ctx, auditdomain.ActionServiceUpdate, "service", offering.ID, map[string]any{
		"name":        offering.Name,
		"credit_cost": offering.CreditCost,
		"is_active":   offering.IsActive,
	})
	return *offering, nil
}

func (s *Service) GetOffering(ctx context.Context, id snowflake.ID) (domain.Offering, error) {
	offering, err := s.repo.FindOffering(ctx, s.db, id)
	if err != nil {
		return domain.Offering{}, err
	}
	if offering == nil {
		return domain.Offering{}, domain.ErrOfferingNotFound
	}
	return *offering, nil
}

func (s *Service) ListOfferings(ctx context.Context, req domain.ListOfferingsRequest) ([]domain.Offering, error) {
	items, err := s.repo.ListOfferings(ctx, s.db, domain.OfferingFilter{
		CategoryID: req.CategoryID,
		ActiveOnly: !req.IncludeInactive,
	})
	if err != nil {
		return nil, err
	}
	offerings := make([]domain.Offering, 0, len(items))
	for _, item := range items {
		offerings = append(offerings, *item)
	}
	return offerings, nil
}

func (s *Service) audit(ctx context.Context, action, targetType string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, targetType, id.String(), metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

// resolveSlug normalizes an explicit slug or derives one from the name.
func resolveSlug(explicit, name string) (string, error) {
	source := strings.TrimSpace(explicit)
	if source == "" {
		source = name
	}
	value := slug.Make(source)
	if value == "" || !slug.IsSlug(value) {
		return "", domain.ErrInvalidSlug
	}
	return value, nil
}
