package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/leadhub/internal/auth"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	"github.com/smallbiznis/leadhub/internal/testutil"
	"github.com/smallbiznis/leadhub/internal/user/domain"
	"github.com/smallbiznis/leadhub/internal/user/repository"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	tokens, err := auth.NewTokenManager("secret", time.Hour, clk)
	require.NoError(t, err)

	return NewService(Params{
		DB:          testutil.NewDB(t),
		Log:         zaptest.NewLogger(t),
		GenID:       testutil.NewNode(t),
		Clock:       clk,
		Repo:        repository.Provide(),
		Tokens:      tokens,
		Marketplace: config.NewStaticMarketplaceConfigHolder(config.DefaultMarketplaceConfig()),
	}).(*Service)
}

func register(t *testing.T, svc *Service, email string, role auth.Role) domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), domain.RegisterRequest{
		Name:     "Test " + string(role),
		Email:    email,
		Password: "password123",
		Role:     string(role),
	})
	require.NoError(t, err)
	return user
}

func TestRegisterProfessionalCreatesProfile(t *testing.T) {
	svc := newTestService(t)
	user := register(t, svc, "Pro@Example.com", auth.RoleProfessional)

	assert.Equal(t, "pro@example.com", user.Email)
	assert.Equal(t, domain.StatusActive, user.Status)

	profile, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, profile.Credits)
	assert.Equal(t, 50, profile.TrustScore)
}

func TestRegisterCustomerHasNoProfile(t *testing.T) {
	svc := newTestService(t)
	user := register(t, svc, "cust@example.com", auth.RoleCustomer)

	_, err := svc.GetProfile(context.Background(), user.ID)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestRegisterRejectsAdminAndDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Name: "x", Email: "a@example.com", Password: "password123", Role: "ADMIN"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	register(t, svc, "dup@example.com", auth.RoleCustomer)
	_, err = svc.Register(ctx, domain.RegisterRequest{Name: "y", Email: "dup@example.com", Password: "password123", Role: "CUSTOMER"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = svc.Register(ctx, domain.RegisterRequest{Name: "z", Email: "not-an-email", Password: "password123", Role: "CUSTOMER"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, domain.RegisterRequest{Name: "z", Email: "z@example.com", Password: "short", Role: "CUSTOMER"})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := register(t, svc, "login@example.com", auth.RoleProfessional)

	_, err := svc.Login(ctx, domain.LoginRequest{Email: "login@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	resp, err := svc.Login(ctx, domain.LoginRequest{Email: "LOGIN@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	principal, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, auth.RoleProfessional, principal.Role)

	_, err = svc.Authenticate(ctx, resp.Token+"x")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestBlockedUserCannotLoginOrAuthenticate(t *testing.T) {
	svc := newTestService(t)
	admin := register(t, svc, "admin-ish@example.com", auth.RoleCustomer)
	target := register(t, svc, "target@example.com", auth.RoleCustomer)

	login, err := svc.Login(context.Background(), domain.LoginRequest{Email: "target@example.com", Password: "password123"})
	require.NoError(t, err)

	adminCtx := auth.WithPrincipal(context.Background(), auth.Principal{UserID: admin.ID, Role: auth.RoleAdmin})
	blocked, err := svc.SetStatus(adminCtx, domain.SetStatusRequest{UserID: target.ID, Status: "blocked"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, blocked.Status)

	_, err = svc.Login(context.Background(), domain.LoginRequest{Email: "target@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrBlocked)

	_, err = svc.Authenticate(context.Background(), login.Token)
	assert.ErrorIs(t, err, domain.ErrBlocked)
}

func TestAdminCannotBlockSelf(t *testing.T) {
	svc := newTestService(t)
	admin := register(t, svc, "self@example.com", auth.RoleCustomer)
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{UserID: admin.ID, Role: auth.RoleAdmin})

	_, err := svc.SetStatus(ctx, domain.SetStatusRequest{UserID: admin.ID, Status: "BLOCKED"})
	assert.ErrorIs(t, err, domain.ErrCannotBlockSelf)
}

func TestSetTrustScoreBounds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	pro := register(t, svc, "trust@example.com", auth.RoleProfessional)
	cust := register(t, svc, "cust2@example.com", auth.RoleCustomer)

	_, err := svc.SetTrustScore(ctx, domain.SetTrustScoreRequest{UserID: pro.ID, Score: 101})
	assert.ErrorIs(t, err, domain.ErrInvalidTrustScore)

	_, err = svc.SetTrustScore(ctx, domain.SetTrustScoreRequest{UserID: cust.ID, Score: 70})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	profile, err := svc.SetTrustScore(ctx, domain.SetTrustScoreRequest{UserID: pro.ID, Score: 90})
	require.NoError(t, err)
	assert.Equal(t, 90, profile.TrustScore)

	stored, err := svc.GetProfile(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, stored.TrustScore)
}

func TestGetMeIncludesProfileForProfessionals(t *testing.T) {
	svc := newTestService(t)
	pro := register(t, svc, "me@example.com", auth.RoleProfessional)

	ctx := auth.WithPrincipal(context.Background(), auth.Principal{UserID: pro.ID, Role: auth.RoleProfessional})
	me, err := svc.GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, pro.ID, me.User.ID)
	require.NotNil(t, me.Profile)

	_, err = svc.GetMe(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestListFiltersByRole(t *testing.T) {
	svc := newTestService(t)
	register(t, svc, "p1@example.com", auth.RoleProfessional)
	register(t, svc, "p2@example.com", auth.RoleProfessional)
	register(t, svc, "c1@example.com", auth.RoleCustomer)

	resp, err := svc.List(context.Background(), domain.ListUsersRequest{
		Pagination: pagination.Pagination{PageSize: 1},
		Role:       "professional",
	})
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "p2@example.com", resp.Users[0].Email)

	_, err = svc.List(context.Background(), domain.ListUsersRequest{Role: "ghost"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	req := domain.BootstrapAdminRequest{Email: "root@example.com", Password: "password123"}

	require.NoError(t, svc.EnsureAdmin(ctx, req))
	require.NoError(t, svc.EnsureAdmin(ctx, req))

	resp, err := svc.List(ctx, domain.ListUsersRequest{Role: "ADMIN"})
	require.NoError(t, err)
	assert.Len(t, resp.Users, 1)

	assert.ErrorIs(t, svc.EnsureAdmin(ctx, domain.BootstrapAdminRequest{}), domain.ErrBootstrapIncomplete)
}
