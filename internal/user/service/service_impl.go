package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/leadhub/internal/audit/domain"
	"github.com/smallbiznis/leadhub/internal/auth"
	"github.com/smallbiznis/leadhub/internal/auth/password"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	"github.com/smallbiznis/leadhub/internal/user/domain"
	"github.com/smallbiznis/leadhub/pkg/db"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Tokens      *auth.TokenManager
	Marketplace *config.MarketplaceConfigHolder
	AuditSvc    auditdomain.Service `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	tokens      *auth.TokenManager
	marketplace *config.MarketplaceConfigHolder
	auditSvc    auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("user.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		tokens:      p.Tokens,
		marketplace: p.Marketplace,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	role, ok := auth.ParseRole(req.Role)
	if !ok || role == auth.RoleAdmin {
		return domain.User{}, domain.ErrInvalidRole
	}
	return s.createUser(ctx, req.Name, req.Email, req.Phone, req.Password, role)
}

func (s *Service) createUser(ctx context.Context, name, email, phone, rawPassword string, role auth.Role) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, domain.ErrInvalidName
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.User{}, err
	}
	hash, err := password.Hash(rawPassword)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return domain.User{}, domain.ErrInvalidPassword
		}
		return domain.User{}, err
	}

	now := s.clock.Now()
	user := domain.User{
		ID:           s.genID.Generate(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &user); err != nil {
			return err
		}
		if role != auth.RoleProfessional {
			return nil
		}
		return s.repo.InsertProfile(ctx, tx, &domain.ProfessionalProfile{
			UserID:     user.ID,
			Credits:    0,
			TrustScore: s.marketplace.Get().TrustScore.Default,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", role.String()))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}
	if user.Status != domain.StatusActive {
		return domain.LoginResponse{}, domain.ErrBlocked
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return domain.LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}
	return domain.LoginResponse{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Authenticate resolves a session token to a live principal. The stored
// role wins over the claim so role changes take effect immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	claimed, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Principal{}, domain.ErrUnauthenticated
	}
	user, err := s.repo.FindByID(ctx, s.db, claimed.UserID)
	if err != nil {
		return auth.Principal{}, err
	}
	if user == nil {
		return auth.Principal{}, domain.ErrUnauthenticated
	}
	if user.Status != domain.StatusActive {
		return auth.Principal{}, domain.ErrBlocked
	}
	return auth.Principal{UserID: user.ID, Role: user.Role}, nil
}

func (s *Service) GetMe(ctx context.Context) (domain.Me, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.Me{}, domain.ErrUnauthenticated
	}
	user, err := s.repo.FindByID(ctx, s.db, principal.UserID)
	if err != nil {
		return domain.Me{}, err
	}
	if user == nil {
		return domain.Me{}, domain.ErrNotFound
	}

	me := domain.Me{User: *user}
	if user.Role == auth.RoleProfessional {
		profile, err := s.repo.FindProfile(ctx, s.db, user.ID)
		if err != nil {
			return domain.Me{}, err
		}
		me.Profile = profile
	}
	return me, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) GetProfile(ctx context.Context, userID snowflake.ID) (domain.ProfessionalProfile, error) {
	profile, err := s.repo.FindProfile(ctx, s.db, userID)
	if err != nil {
		return domain.ProfessionalProfile{}, err
	}
	if profile == nil {
		return domain.ProfessionalProfile{}, domain.ErrProfileNotFound
	}
	return *profile, nil
}

func (s *Service) List(ctx context.Context, req domain.ListUsersRequest) (domain.ListUsersResponse, error) {
	filter := domain.ListFilter{Limit: req.Limit()}
	if raw := strings.TrimSpace(req.Role); raw != "" {
		role, ok := auth.ParseRole(raw)
		if !ok {
			return domain.ListUsersResponse{}, domain.ErrInvalidRole
		}
		filter.Role = role
	}
	if raw := strings.ToUpper(strings.TrimSpace(req.Status)); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.ListUsersResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	afterID, err := req.AfterID()
	if err != nil {
		return domain.ListUsersResponse{}, domain.ErrInvalidPageToken
	}
	filter.AfterID = afterID

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListUsersResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, filter.Limit, func(u *domain.User) int64 { return u.ID.Int64() })

	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		users = append(users, *item)
	}
	return domain.ListUsersResponse{PageInfo: pageInfo, Users: users}, nil
}

func (s *Service) SetStatus(ctx context.Context, req domain.SetStatusRequest) (domain.User, error) {
	status, ok := domain.ParseStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !ok {
		return domain.User{}, domain.ErrInvalidStatus
	}
	if principal, ok := auth.PrincipalFromContext(ctx); ok && principal.UserID == req.UserID && status == domain.StatusBlocked {
		return domain.User{}, domain.ErrCannotBlockSelf
	}

	user, err := s.repo.FindByID(ctx, s.db, req.UserID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	if user.Status == status {
		return *user, nil
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, user.ID, status, now); err != nil {
		return domain.User{}, fmt.Errorf("update status: %w", err)
	}
	user.Status = status
	user.UpdatedAt = now

	action := auditdomain.ActionUserUnblock
	if status == domain.StatusBlocked {
		action = auditdomain.ActionUserBlock
	}
	s.audit(ctx, action, user.ID, map[string]any{"email": user.Email, "role": user.Role.String()})
	return *user, nil
}

func (s *Service) SetTrustScore(ctx context.Context, req domain.SetTrustScoreRequest) (domain.ProfessionalProfile, error) {
	bounds := s.marketplace.Get().TrustScore
	if req.Score < bounds.Min || req.Score > bounds.Max {
		return domain.ProfessionalProfile{}, domain.ErrInvalidTrustScore
	}

	profile, err := s.repo.FindProfile(ctx, s.db, req.UserID)
	if err != nil {
		return domain.ProfessionalProfile{}, err
	}
	if profile == nil {
		return domain.ProfessionalProfile{}, domain.ErrProfileNotFound
	}

	now := s.clock.Now()
	if err := s.repo.UpdateTrustScore(ctx, s.db, req.UserID, req.Score, now); err != nil {
		return domain.ProfessionalProfile{}, fmt.Errorf("update trust score: %w", err)
	}
	previous := profile.TrustScore
	profile.TrustScore = req.Score
	profile.UpdatedAt = now

	s.audit(ctx, auditdomain.ActionUserTrustScore, req.UserID, map[string]any{
		"previous": previous,
		"current":  req.Score,
	})
	return *profile, nil
}

// EnsureAdmin creates the bootstrap admin when no user holds the email yet.
func (s *Service) EnsureAdmin(ctx context.Context, req domain.BootstrapAdminRequest) error {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return domain.ErrBootstrapIncomplete
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Role != auth.RoleAdmin {
			s.log.Warn("bootstrap admin email belongs to a non-admin user", zap.String("user_id", existing.ID.String()))
		}
		return nil
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Administrator"
	}
	user, err := s.createUser(ctx, name, email, "", req.Password, auth.RoleAdmin)
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *Service) audit(ctx context.Context, action string, userID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(ctx, action, "user", userID.String(), metadata)
}

func normalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}
