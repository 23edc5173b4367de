package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/leadhub/internal/audit/domain"
	"github.com/smallbiznis/leadhub/internal/bundle/domain"
	"github.com/smallbiznis/leadhub/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCurrency = "INR"

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
		log:      p.Log.Named("bundle.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBundleRequest) (domain.CreditBundle, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CreditBundle{}, domain.ErrInvalidName
	}
	if req.Price <= 0 {
		return domain.CreditBundle{}, domain.ErrInvalidPrice
	}
	if req.Credits <= 0 {
		return domain.CreditBundle{}, domain.ErrInvalidCredits
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if len(currency) != 3 {
		return domain.CreditBundle{}, domain.ErrInvalidCurrency
	}

	now := s.clock.Now()
	bundle := domain.CreditBundle{
		ID:        s.genID.Generate(),
		Name:      name,
		Price:     req.Price,
		Currency:  currency,
		Credits:   req.Credits,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &bundle); err != nil {
		return domain.CreditBundle{}, fmt.Errorf("insert bundle: %w", err)
	}

	s.audit(ctx, auditdomain.ActionBundleCreate, bundle)
	return bundle, nil
}

// Update edits the catalogue entry only. Transactions already snapshot the
// price and credits they were opened with.
func (s *Service) Update(ctx context.Context, req domain.UpdateBundleRequest) (domain.CreditBundle, error) {
	bundle, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return domain.CreditBundle{}, err
	}
	if bundle == nil {
		return domain.CreditBundle{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.CreditBundle{}, domain.ErrInvalidName
		}
		bundle.Name = name
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return domain.CreditBundle{}, domain.ErrInvalidPrice
		}
		bundle.Price = *req.Price
	}
	if req.Credits != nil {
		if *req.Credits <= 0 {
			return domain.CreditBundle{}, domain.ErrInvalidCredits
		}
		bundle.Credits = *req.Credits
	}
	if req.IsActive != nil {
		bundle.IsActive = *req.IsActive
	}
	bundle.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, bundle); err != nil {
		return domain.CreditBundle{}, fmt.Errorf("update bundle: %w", err)
	}

	s.audit(ctx, auditdomain.ActionBundleUpdate, *bundle)
	return *bundle, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.CreditBundle, error) {
	bundle, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.CreditBundle{}, err
	}
	if bundle == nil {
		return domain.CreditBundle{}, domain.ErrNotFound
	}
	return *bundle, nil
}

func (s *Service) GetActive(ctx context.Context, id snowflake.ID) (domain.CreditBundle, error) {
	bundle, err := s.Get(ctx, id)
	if err != nil {
		return domain.CreditBundle{}, err
	}
	if !bundle.IsActive {
		return domain.CreditBundle{}, domain.ErrNotFound
	}
	return bundle, nil
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]domain.CreditBundle, error) {
	items, err := s.repo.List(ctx, s.db, !includeInactive)
	if err != nil {
		return nil, err
	}
	bundles := make([]domain.CreditBundle, 0, len(items))
	for _, item := range items {
		bundles = append(bundles, *item)
	}
	return bundles, nil
}

func (s *Service) audit(ctx context.Context, action string, bundle domain.CreditBundle) {
	if s.auditSvc == nil {
		return
	}
	err := s.auditSvc.AuditLog(ctx, action, "bundle", bundle.ID.String(), map[string]any{
		"name":      bundle.Name,
		"price":     bundle.Price,
		"currency":  bundle.Currency,
		"credits":   bundle.Credits,
		"is_active": bundle.IsActive,
	})
	if err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
