package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/leadhub/internal/bundle/domain"
	"github.com/smallbiznis/leadhub/internal/bundle/repository"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	return NewService(Params{
		DB:    testutil.NewDB(t),
		Log:   zaptest.NewLogger(t),
		GenID: testutil.NewNode(t),
		Clock: clock.NewFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCreateValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateBundleRequest
		err  error
	}{
		{"missing name", domain.CreateBundleRequest{Price: 100, Credits: 1}, domain.ErrInvalidName},
		{"zero price", domain.CreateBundleRequest{Name: "Starter", Credits: 1}, domain.ErrInvalidPrice},
		{"zero credits", domain.CreateBundleRequest{Name: "Starter", Price: 100}, domain.ErrInvalidCredits},
		{"bad currency", domain.CreateBundleRequest{Name: "Starter", Price: 100, Credits: 1, Currency: "RUPEE"}, domain.ErrInvalidCurrency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	bundle, err := svc.Create(ctx, domain.CreateBundleRequest{Name: "Starter", Price: 49900, Credits: 10})
	require.NoError(t, err)
	assert.Equal(t, "INR", bundle.Currency)
	assert.True(t, bundle.IsActive)
}

func TestGetActiveHidesDisabledBundles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	small, err := svc.Create(ctx, domain.CreateBundleRequest{Name: "Small", Price: 10000, Credits: 2, Currency: "usd"})
	require.NoError(t, err)
	large, err := svc.Create(ctx, domain.CreateBundleRequest{Name: "Large", Price: 40000, Credits: 10, Currency: "usd"})
	require.NoError(t, err)

	off := false
	credits := int64(12)
	updated, err := svc.Update(ctx, domain.UpdateBundleRequest{ID: large.ID, Credits: &credits, IsActive: &off})
	require.NoError(t, err)
	assert.EqualValues(t, 12, updated.Credits)

	_, err = svc.GetActive(ctx, large.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := svc.GetActive(ctx, small.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, small.ID, active[0].ID)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.Update(ctx, domain.UpdateBundleRequest{ID: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
