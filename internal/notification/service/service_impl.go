package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/auth"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/notification/domain"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, db *gorm.DB, req domain.CreateRequest) (domain.Notification, error) {
	if req.UserID == 0 {
		return domain.Notification{}, domain.ErrInvalidRecipient
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.Notification{}, domain.ErrInvalidMessage
	}
	if db == nil {
		db = s.db
	}

	data := datatypes.JSONMap{}
	for k, v := range req.Data {
		data[k] = v
	}
	notification := domain.Notification{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Type:      req.Type,
		Message:   message,
		Data:      data,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, db, &notification); err != nil {
		return domain.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return notification, nil
}

func (s *Service) ListMine(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.ListResponse{}, domain.ErrUnauthenticated
	}
	afterID, err := req.AfterID()
	if err != nil {
		return domain.ListResponse{}, domain.ErrInvalidPageToken
	}

	limit := req.Limit()
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		UserID:     principal.UserID,
		UnreadOnly: req.UnreadOnly,
		AfterID:    afterID,
		Limit:      limit,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, limit, func(n *domain.Notification) int64 { return n.ID.Int64() })

	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		notifications = append(notifications, *item)
	}
	return domain.ListResponse{PageInfo: pageInfo, Notifications: notifications}, nil
}

// MarkRead is idempotent. Notifications owned by someone else are reported as
// missing so ids cannot be probed.
func (s *Service) MarkRead(ctx context.Context, id snowflake.ID) (domain.Notification, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return domain.Notification{}, domain.ErrUnauthenticated
	}

	notification, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Notification{}, err
	}
	if notification == nil || notification.UserID != principal.UserID {
		return domain.Notification{}, domain.ErrNotFound
	}
	if notification.Read {
		return *notification, nil
	}

	now := s.clock.Now()
	if err := s.repo.MarkRead(ctx, s.db, id, now); err != nil {
		return domain.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	notification.Read = true
	notification.ReadAt = &now
	return *notification, nil
}
