package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/assignment/domain"
	auditdomain "github.com/smallbiznis/leadhub/internal/audit/domain"
	"github.com/smallbiznis/leadhub/internal/auth"
	catalogdomain "github.com/smallbiznis/leadhub/internal/catalog/domain"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	leaddomain "github.com/smallbiznis/leadhub/internal/lead/domain"
	ledgerdomain "github.com/smallbiznis/leadhub/internal/ledger/domain"
	notificationdomain "github.com/smallbiznis/leadhub/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/leadhub/internal/observability/metrics"
	userdomain "github.com/smallbiznis/leadhub/internal/user/domain"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const fallbackCreditCost = 1

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Repo            domain.Repository
	LeadSvc         leaddomain.Service
	CatalogSvc      catalogdomain.Service
	UserSvc         userdomain.Service
	LedgerSvc       ledgerdomain.Service
	NotificationSvc notificationdomain.Service
	Marketplace     *config.MarketplaceConfigHolder
	AuditSvc        auditdomain.Service `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	repo            domain.Repository
	leadSvc         leaddomain.Service
	catalogSvc      catalogdomain.Service
	userSvc         userdomain.Service
	ledgerSvc       ledgerdomain.Service
	notificationSvc notificationdomain.Service
	marketplace     *config.MarketplaceConfigHolder
	auditSvc        auditdomain.Service
	obsMetrics      *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("assignment.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		leadSvc:         p.LeadSvc,
		catalogSvc:      p.CatalogSvc,
		userSvc:         p.UserSvc,
		ledgerSvc:       p.LedgerSvc,
		notificationSvc: p.NotificationSvc,
		marketplace:     p.Marketplace,
		auditSvc:        p.AuditSvc,
		obsMetrics:      p.ObsMetrics,
	}
}

// Assign offers a lead to a professional. Pending and missed offers are
// renewed; answered ones are left alone.
func (s *Service) Assign(ctx context.Context, req domain.AssignRequest) (domain.Assignment, error) {
	professional, err := s.userSvc.Get(ctx, req.ProfessionalID)
	if err != nil {
		if errors.Is(err, userdomain.ErrNotFound) {
			return domain.Assignment{}, domain.ErrProfessionalNotFound
		}
		return domain.Assignment{}, err
	}
	if professional.Role != auth.RoleProfessional || professional.Status != userdomain.StatusActive {
		return domain.Assignment{}, domain.ErrProfessionalNotFound
	}

	var assignment domain.Assignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead, err := s.leadSvc.Find(ctx, tx, req.LeadID)
		if err != nil {
			return err
		}
		if lead.Status.Terminal() {
			return domain.ErrLeadClosed
		}

		assignment, err = s.upsertPending(ctx, tx, lead.ID, professional.ID)
		if err != nil {
			return err
		}

		if _, err := s.notificationSvc.Create(ctx, tx, notificationdomain.CreateRequest{
			UserID:  professional.ID,
			Type:    notificationdomain.TypeLeadAssigned,
			Message: fmt.Sprintf("New lead: %s", lead.Title),
			Data: map[string]any{
				"lead_id":       lead.ID.String(),
				"assignment_id": assignment.ID.String(),
				"credit_cost":   lead.CreditCost,
			},
		}); err != nil {
			return err
		}

		if lead.Status == leaddomain.StatusOpen {
			if _, err := s.leadSvc.Advance(ctx, tx, lead.ID, leaddomain.StatusOpen, leaddomain.StatusAssigned); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Assignment{}, err
	}

	s.log.Info("lead assigned",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("lead_id", assignment.LeadID.String()),
		zap.String("professional_id", assignment.ProfessionalID.String()),
	)
	s.audit(ctx, auditdomain.ActionAssignmentCreate, assignment.ID.String(), map[string]any{
		"lead_id":         assignment.LeadID.String(),
		"professional_id": assignment.ProfessionalID.String(),
	})
	return assignment, nil
}

func (s *Service) upsertPending(ctx context.Context, tx *gorm.DB, leadID, professionalID snowflake.ID) (domain.Assignment, error) {
	now := s.clock.Now()
	existing, err := s.repo.FindByLeadAndProfessional(ctx, tx, leadID, professionalID)
	if err != nil {
		return domain.Assignment{}, err
	}

	if existing == nil {
		candidate := domain.Assignment{
			ID:             s.genID.Generate(),
			LeadID:         leadID,
			ProfessionalID: professionalID,
			Status:         domain.StatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		inserted, err := s.repo.Insert(ctx, tx, &candidate)
		if err != nil {
			return domain.Assignment{}, fmt.Errorf("insert assignment: %w", err)
		}
		if inserted {
			return candidate, nil
		}
		existing, err = s.repo.FindByLeadAndProfessional(ctx, tx, leadID, professionalID)
		if err != nil {
			return domain.Assignment{}, err
		}
		if existing == nil {
			return domain.Assignment{}, domain.ErrNotFound
		}
	}

	if existing.Status.Responded() {
		return domain.Assignment{}, &domain.StatusConflictError{Status: existing.Status}
	}
	affected, err := s.repo.Transition(ctx, tx, existing.ID,
		[]domain.Status{domain.StatusPending, domain.StatusMissed}, domain.StatusPending, nil, now)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("renew assignment: %w", err)
	}
	if affected == 0 {
		return domain.Assignment{}, s.conflict(ctx, tx, existing.ID)
	}
	existing.Status = domain.StatusPending
	existing.RespondedAt = nil
	existing.UpdatedAt = now
	return *existing, nil
}

// Respond records a professional's answer. Accepting debits the lead's credit
// cost and flips the assignment in a single transaction; both guards are
// conditional updates so concurrent answers cannot double charge.
func (s *Service) Respond(ctx context.Context, req domain.RespondRequest) (domain.RespondResult, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.RespondResult{}, domain.ErrUnauthenticated
	}
	action, ok := domain.ParseAction(strings.ToUpper(strings.TrimSpace(req.Action)))
	if !ok {
		return domain.RespondResult{}, domain.ErrInvalidAction
	}

	assignment, err := s.repo.FindByID(ctx, s.db, req.AssignmentID)
	if err != nil {
		return domain.RespondResult{}, err
	}
	if assignment == nil {
		return domain.RespondResult{}, domain.ErrNotFound
	}
	if assignment.ProfessionalID != principal.UserID {
		return domain.RespondResult{}, domain.ErrForbidden
	}
	if assignment.Status != domain.StatusPending {
		return domain.RespondResult{}, &domain.StatusConflictError{Status: assignment.Status}
	}

	var result domain.RespondResult
	switch action {
	case domain.ActionReject:
		result, err = s.reject(ctx, *assignment)
	default:
		result, err = s.accept(ctx, *assignment)
	}
	s.obsMetrics.RecordAssignmentResponse(ctx, strings.ToLower(string(action)), outcome(err))
	if err != nil {
		return domain.RespondResult{}, err
	}
	return result, nil
}

func (s *Service) reject(ctx context.Context, assignment domain.Assignment) (domain.RespondResult, error) {
	now := s.clock.Now()
	affected, err := s.repo.Transition(ctx, s.db, assignment.ID,
		[]domain.Status{domain.StatusPending}, domain.StatusRejected, &now, now)
	if err != nil {
		return domain.RespondResult{}, fmt.Errorf("reject assignment: %w", err)
	}
	if affected == 0 {
		return domain.RespondResult{}, s.conflict(ctx, s.db, assignment.ID)
	}

	assignment.Status = domain.StatusRejected
	assignment.RespondedAt = &now
	assignment.UpdatedAt = now
	s.log.Info("assignment rejected", zap.String("assignment_id", assignment.ID.String()))
	return domain.RespondResult{Assignment: assignment}, nil
}

func (s *Service) accept(ctx context.Context, assignment domain.Assignment) (domain.RespondResult, error) {
	lead, err := s.leadSvc.Find(ctx, nil, assignment.LeadID)
	if err != nil {
		return domain.RespondResult{}, err
	}
	cost, err := s.creditCost(ctx, lead)
	if err != nil {
		return domain.RespondResult{}, err
	}

	balance, err := s.ledgerSvc.Balance(ctx, assignment.ProfessionalID)
	if err != nil {
		return domain.RespondResult{}, err
	}
	if balance < cost {
		return domain.RespondResult{}, ledgerdomain.ErrInsufficientCredits
	}

	now := s.clock.Now()
	var entry ledgerdomain.CreditEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.repo.Transition(ctx, tx, assignment.ID,
			[]domain.Status{domain.StatusPending}, domain.StatusAccepted, &now, now)
		if err != nil {
			return fmt.Errorf("accept assignment: %w", err)
		}
		if affected == 0 {
			return s.conflict(ctx, tx, assignment.ID)
		}

		entry, err = s.ledgerSvc.Debit(ctx, tx, assignment.ProfessionalID, cost, ledgerdomain.Reference{
			Type: ledgerdomain.ReferenceAssignment,
			ID:   assignment.ID,
		})
		if err != nil {
			return err
		}

		if lead.Status == leaddomain.StatusAssigned {
			if _, err := s.leadSvc.Advance(ctx, tx, lead.ID, leaddomain.StatusAssigned, leaddomain.StatusAccepted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.RespondResult{}, err
	}

	s.obsMetrics.RecordCredits(ctx, "debit", "lead_unlock", cost)
	s.log.Info("assignment accepted",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("lead_id", lead.ID.String()),
		zap.Int64("credits_charged", cost),
		zap.Int64("balance_after", entry.BalanceAfter),
	)

	assignment.Status = domain.StatusAccepted
	assignment.RespondedAt = &now
	assignment.UpdatedAt = now
	contact := lead.Contact()
	balanceAfter := entry.BalanceAfter
	return domain.RespondResult{
		Assignment:     assignment,
		CreditsCharged: cost,
		Balance:        &balanceAfter,
		Contact:        &contact,
	}, nil
}

// creditCost prefers the lead's snapshot, then the service price, then 1.
func (s *Service) creditCost(ctx context.Context, lead leaddomain.Lead) (int64, error) {
	if lead.CreditCost > 0 {
		return lead.CreditCost, nil
	}
	offering, err := s.catalogSvc.GetOffering(ctx, lead.ServiceID)
	if err != nil && !errors.Is(err, catalogdomain.ErrOfferingNotFound) {
		return 0, err
	}
	if err == nil && offering.CreditCost > 0 {
		return offering.CreditCost, nil
	}
	return fallbackCreditCost, nil
}

// conflict reloads the row to report which status won the race.
func (s *Service) conflict(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	current, err := s.repo.FindByID(ctx, db, id)
	if err != nil {
		return err
	}
	if current == nil {
		return domain.ErrNotFound
	}
	return &domain.StatusConflictError{Status: current.Status}
}

func (s *Service) ListMine(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.ListResponse{}, domain.ErrUnauthenticated
	}
	return s.list(ctx, domain.ListFilter{ProfessionalID: principal.UserID}, req)
}

func (s *Service) ListAll(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	return s.list(ctx, domain.ListFilter{LeadID: req.LeadID}, req)
}

func (s *Service) list(ctx context.Context, filter domain.ListFilter, req domain.ListRequest) (domain.ListResponse, error) {
	if raw := strings.ToUpper(strings.TrimSpace(req.Status)); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.ListResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	afterID, err := req.AfterID()
	if err != nil {
		return domain.ListResponse{}, domain.ErrInvalidPageToken
	}
	filter.AfterID = afterID
	filter.Limit = req.Limit()

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, filter.Limit, func(a *domain.Assignment) int64 { return a.ID.Int64() })

	assignments := make([]domain.Assignment, 0, len(items))
	for _, item := range items {
		assignments = append(assignments, *item)
	}
	return domain.ListResponse{PageInfo: pageInfo, Assignments: assignments}, nil
}

func (s *Service) ListByLead(ctx context.Context, leadID snowflake.ID) ([]domain.Assignment, error) {
	if _, err := s.leadSvc.Find(ctx, nil, leadID); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{LeadID: leadID})
	if err != nil {
		return nil, err
	}
	assignments := make([]domain.Assignment, 0, len(items))
	for _, item := range items {
		assignments = append(assignments, *item)
	}
	return assignments, nil
}

// ExpireStale marks pending assignments older than the configured window as
// missed and returns how many moved.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	window := s.marketplace.Get().AssignmentExpiry
	cutoff := now.Add(-window)

	count, err := s.repo.ExpirePending(ctx, s.db, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("expire assignments: %w", err)
	}

	s.log.Info("stale assignments expired", zap.Int64("count", count), zap.Duration("window", window))
	s.audit(ctx, auditdomain.ActionAssignmentExpire, "", map[string]any{
		"count":  count,
		"cutoff": cutoff.Format("2006-01-02T15:04:05Z07:00"),
	})
	return count, nil
}

func (s *Service) audit(ctx context.Context, action, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "assignment", targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ledgerdomain.ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
