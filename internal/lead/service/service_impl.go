package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/auth"
	catalogdomain "github.com/smallbiznis/leadhub/internal/catalog/domain"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	"github.com/smallbiznis/leadhub/internal/lead/domain"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTitleLength     = 200
	maxIssueNoteLength = 2000
	fallbackCreditCost = 1
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	CatalogSvc  catalogdomain.Service
	Marketplace *config.MarketplaceConfigHolder
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	catalogSvc  catalogdomain.Service
	marketplace *config.MarketplaceConfigHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("lead.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		catalogSvc:  p.CatalogSvc,
		marketplace: p.Marketplace,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLeadRequest) (domain.Lead, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.Lead{}, domain.ErrUnauthenticated
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > maxTitleLength {
		return domain.Lead{}, domain.ErrInvalidTitle
	}
	contact := domain.Contact{
		Name:  strings.TrimSpace(req.ContactName),
		Email: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		Phone: strings.TrimSpace(req.ContactPhone),
	}
	if contact.Name == "" || (contact.Email == "" && contact.Phone == "") {
		return domain.Lead{}, domain.ErrInvalidContact
	}

	offering, err := s.catalogSvc.GetOffering(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrOfferingNotFound) {
			return domain.Lead{}, domain.ErrServiceNotFound
		}
		return domain.Lead{}, err
	}
	if !offering.IsActive {
		return domain.Lead{}, domain.ErrServiceNotFound
	}

	now := s.clock.Now()
	lead := domain.Lead{
		ID:           s.genID.Generate(),
		CustomerID:   principal.UserID,
		ServiceID:    offering.ID,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Location:     strings.TrimSpace(req.Location),
		ContactName:  contact.Name,
		ContactEmail: contact.Email,
		ContactPhone: contact.Phone,
		Status:       domain.StatusOpen,
		CreditCost:   s.creditCost(offering.CreditCost),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &lead); err != nil {
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}

	s.log.Info("lead created",
		zap.String("lead_id", lead.ID.String()),
		zap.String("service_id", lead.ServiceID.String()),
		zap.Int64("credit_cost", lead.CreditCost),
	)
	return lead, nil
}

// creditCost snapshots the unlock price at creation so later catalogue
// edits never reprice an existing lead.
func (s *Service) creditCost(serviceCost int64) int64 {
	if serviceCost > 0 {
		return serviceCost
	}
	if cost := s.marketplace.Get().DefaultLeadCost; cost > 0 {
		return cost
	}
	return fallbackCreditCost
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Lead, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.Lead{}, domain.ErrUnauthenticated
	}

	lead, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead == nil {
		return domain.Lead{}, domain.ErrNotFound
	}

	switch principal.Role {
	case auth.RoleAdmin:
		return *lead, nil
	case auth.RoleCustomer:
		if lead.CustomerID == principal.UserID {
			return *lead, nil
		}
	case auth.RoleProfessional:
		status, err := s.repo.AssignmentStatus(ctx, s.db, lead.ID, principal.UserID)
		if err != nil {
			return domain.Lead{}, err
		}
		switch status {
		case "ACCEPTED":
			return *lead, nil
		case "PENDING":
			return lead.WithoutContact(), nil
		}
	}
	return domain.Lead{}, domain.ErrNotFound
}

func (s *Service) ListMine(ctx context.Context, req domain.ListLeadsRequest) (domain.ListLeadsResponse, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.ListLeadsResponse{}, domain.ErrUnauthenticated
	}
	return s.list(ctx, principal.UserID, req)
}

func (s *Service) ListAll(ctx context.Context, req domain.ListLeadsRequest) (domain.ListLeadsResponse, error) {
	return s.list(ctx, 0, req)
}

func (s *Service) list(ctx context.Context, customerID snowflake.ID, req domain.ListLeadsRequest) (domain.ListLeadsResponse, error) {
	filter := domain.ListFilter{CustomerID: customerID, Limit: req.Limit()}
	if raw := strings.ToUpper(strings.TrimSpace(req.Status)); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.ListLeadsResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	afterID, err := req.AfterID()
	if err != nil {
		return domain.ListLeadsResponse{}, domain.ErrInvalidPageToken
	}
	filter.AfterID = afterID

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListLeadsResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, filter.Limit, func(l *domain.Lead) int64 { return l.ID.Int64() })

	leads := make([]domain.Lead, 0, len(items))
	for _, item := range items {
		leads = append(leads, *item)
	}
	return domain.ListLeadsResponse{PageInfo: pageInfo, Leads: leads}, nil
}

func (s *Service) Complete(ctx context.Context, id snowflake.ID) (domain.Lead, error) {
	lead, err := s.ownedLead(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	return s.transition(ctx, lead, domain.StatusCompleted, nil)
}

func (s *Service) ReportIssue(ctx context.Context, req domain.ReportIssueRequest) (domain.Lead, error) {
	note := strings.TrimSpace(req.Note)
	if note == "" || len(note) > maxIssueNoteLength {
		return domain.Lead{}, domain.ErrInvalidIssueNote
	}
	lead, err := s.ownedLead(ctx, req.ID)
	if err != nil {
		return domain.Lead{}, err
	}
	return s.transition(ctx, lead, domain.StatusIssueReported, &note)
}

func (s *Service) ownedLead(ctx context.Context, id snowflake.ID) (domain.Lead, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.Lead{}, domain.ErrUnauthenticated
	}
	lead, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead == nil || lead.CustomerID != principal.UserID {
		return domain.Lead{}, domain.ErrNotFound
	}
	return *lead, nil
}

func (s *Service) transition(ctx context.Context, lead domain.Lead, to domain.Status, note *string) (domain.Lead, error) {
	if !domain.CanTransition(lead.Status, to) {
		return domain.Lead{}, domain.ErrInvalidTransition
	}
	now := s.clock.Now()
	affected, err := s.repo.UpdateStatus(ctx, s.db, lead.ID, lead.Status, to, note, now)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead status: %w", err)
	}
	if affected == 0 {
		return domain.Lead{}, domain.ErrInvalidTransition
	}

	s.log.Info("lead status changed",
		zap.String("lead_id", lead.ID.String()),
		zap.String("from", string(lead.Status)),
		zap.String("to", string(to)),
	)
	lead.Status = to
	lead.UpdatedAt = now
	if note != nil {
		lead.IssueNote = *note
	}
	return lead, nil
}

func (s *Service) Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (domain.Lead, error) {
	if db == nil {
		db = s.db
	}
	lead, err := s.repo.FindByID(ctx, db, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead == nil {
		return domain.Lead{}, domain.ErrNotFound
	}
	return *lead, nil
}

// Advance moves the lead from one status to the next if it is still in the
// expected status. A false result with no error means another writer moved
// it first.
func (s *Service) Advance(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status) (bool, error) {
	if !domain.CanTransition(from, to) {
		return false, domain.ErrInvalidTransition
	}
	if db == nil {
		db = s.db
	}
	affected, err := s.repo.UpdateStatus(ctx, db, id, from, to, nil, s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("advance lead: %w", err)
	}
	return affected > 0, nil
}
