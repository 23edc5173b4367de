package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/auth"
	"github.com/smallbiznis/leadhub/internal/clock"
	ledgerdomain "github.com/smallbiznis/leadhub/internal/ledger/domain"
	"github.com/smallbiznis/leadhub/pkg/db"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  ledgerdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  ledgerdomain.Repository
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Debit(
	ctx context.Context,
	tx *gorm.DB,
	userID snowflake.ID,
	amount int64,
	ref ledgerdomain.Reference,
) (ledgerdomain.CreditEntry, error) {
	if err := validate(amount, ref); err != nil {
		return ledgerdomain.CreditEntry{}, err
	}

	now := s.clock.Now()
	affected, err := s.repo.Decrement(ctx, tx, userID, amount, now)
	if err != nil {
		return ledgerdomain.CreditEntry{}, fmt.Errorf("decrement credits: %w", err)
	}
	if affected == 0 {
		_, found, err := s.repo.Balance(ctx, tx, userID)
		if err != nil {
			return ledgerdomain.CreditEntry{}, err
		}
		if !found {
			return ledgerdomain.CreditEntry{}, ledgerdomain.ErrProfileNotFound
		}
		return ledgerdomain.CreditEntry{}, ledgerdomain.ErrInsufficientCredits
	}

	return s.appendEntry(ctx, tx, userID, ledgerdomain.EntryTypeLeadUnlock, -amount, ref)
}

func (s *Service) Credit(
	ctx context.Context,
	tx *gorm.DB,
	userID snowflake.ID,
	amount int64,
	ref ledgerdomain.Reference,
) (ledgerdomain.CreditEntry, error) {
	if err := validate(amount, ref); err != nil {
		return ledgerdomain.CreditEntry{}, err
	}

	affected, err := s.repo.Increment(ctx, tx, userID, amount, s.clock.Now())
	if err != nil {
		return ledgerdomain.CreditEntry{}, fmt.Errorf("increment credits: %w", err)
	}
	if affected == 0 {
		return ledgerdomain.CreditEntry{}, ledgerdomain.ErrProfileNotFound
	}

	return s.appendEntry(ctx, tx, userID, ledgerdomain.EntryTypePurchase, amount, ref)
}

func (s *Service) appendEntry(
	ctx context.Context,
	tx *gorm.DB,
	userID snowflake.ID,
	entryType ledgerdomain.EntryType,
	signedAmount int64,
	ref ledgerdomain.Reference,
) (ledgerdomain.CreditEntry, error) {
	balance, _, err := s.repo.Balance(ctx, tx, userID)
	if err != nil {
		return ledgerdomain.CreditEntry{}, err
	}

	entry := ledgerdomain.CreditEntry{
		ID:            s.genID.Generate(),
		UserID:        userID,
		EntryType:     entryType,
		Amount:        signedAmount,
		BalanceAfter:  balance,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repo.InsertEntry(ctx, tx, &entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return ledgerdomain.CreditEntry{}, ledgerdomain.ErrDuplicateEntry
		}
		return ledgerdomain.CreditEntry{}, fmt.Errorf("insert credit entry: %w", err)
	}

	s.log.Debug("credits moved",
		zap.String("user_id", userID.String()),
		zap.String("entry_type", string(entryType)),
		zap.Int64("amount", signedAmount),
		zap.Int64("balance_after", balance),
		zap.String("reference_type", ref.Type),
		zap.String("reference_id", ref.ID.String()),
	)
	return entry, nil
}

func (s *Service) Balance(ctx context.Context, userID snowflake.ID) (int64, error) {
	balance, found, err := s.repo.Balance(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ledgerdomain.ErrProfileNotFound
	}
	return balance, nil
}

func (s *Service) ListMine(ctx context.Context, req ledgerdomain.ListEntriesRequest) (ledgerdomain.ListEntriesResponse, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return ledgerdomain.ListEntriesResponse{}, ledgerdomain.ErrUnauthenticated
	}
	afterID, err := req.AfterID()
	if err != nil {
		return ledgerdomain.ListEntriesResponse{}, ledgerdomain.ErrInvalidPageToken
	}

	balance, err := s.Balance(ctx, principal.UserID)
	if err != nil {
		return ledgerdomain.ListEntriesResponse{}, err
	}

	limit := req.Limit()
	items, err := s.repo.ListEntries(ctx, s.db, ledgerdomain.ListFilter{
		UserID:  principal.UserID,
		AfterID: afterID,
		Limit:   limit,
	})
	if err != nil {
		return ledgerdomain.ListEntriesResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, limit, func(e *ledgerdomain.CreditEntry) int64 { return e.ID.Int64() })

	entries := make([]ledgerdomain.CreditEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, *item)
	}
	return ledgerdomain.ListEntriesResponse{PageInfo: pageInfo, Balance: balance, Entries: entries}, nil
}

func validate(amount int64, ref ledgerdomain.Reference) error {
	if amount <= 0 {
		return ledgerdomain.ErrInvalidAmount
	}
	if ref.Type == "" || ref.ID == 0 {
		return ledgerdomain.ErrInvalidReference
	}
	return nil
}
