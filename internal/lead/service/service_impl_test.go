package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/auth"
	catalogrepo "github.com/smallbiznis/leadhub/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/leadhub/internal/catalog/service"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	"github.com/smallbiznis/leadhub/internal/lead/domain"
	"github.com/smallbiznis/leadhub/internal/lead/repository"
	"github.com/smallbiznis/leadhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	svc  *Service
	db   *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T, marketplace config.MarketplaceConfig) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	catalogSvc := catalogservice.NewService(catalogservice.Params{
		DB:    db,
		Log:   log,
		GenID: testutil.NewNode(t),
		Clock: clk,
		Repo:  catalogrepo.Provide(),
	})
	svc := NewService(Params{
		DB:          db,
		Log:         log,
		GenID:       testutil.NewNode(t),
		Clock:       clk,
		Repo:        repository.Provide(),
		CatalogSvc:  catalogSvc,
		Marketplace: config.NewStaticMarketplaceConfigHolder(marketplace),
	}).(*Service)
	return fixture{svc: svc, db: db, node: testutil.NewNode(t)}
}

func as(id snowflake.ID, role auth.Role) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{UserID: id, Role: role})
}

func validRequest(serviceID snowflake.ID) domain.CreateLeadRequest {
	return domain.CreateLeadRequest{
		ServiceID:    serviceID,
		Title:        "Fix kitchen sink",
		Description:  "Leaking under the basin",
		Location:     "Pune",
		ContactName:  "Ana",
		ContactEmail: "Ana@Example.com",
		ContactPhone: "+91 98000 00000",
	}
}

func TestCreateSnapshotsCreditCost(t *testing.T) {
	f := newFixture(t, config.DefaultMarketplaceConfig())
	customer := as(10, auth.RoleCustomer)

	priced := testutil.SeedOffering(t, f.db, f.node, 3)
	lead, err := f.svc.Create(customer, validRequest(priced))
	require.NoError(t, err)
	assert.EqualValues(t, 3, lead.CreditCost)
	assert.Equal(t, domain.StatusOpen, lead.Status)
	assert.Equal(t, "ana@example.com", lead.ContactEmail)

	require.NoError(t, f.db.Exec(`UPDATE services SET credit_cost = 9 WHERE id = ?`, priced).Error)
	stored, err := f.svc.Find(context.Background(), nil, lead.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stored.CreditCost)

	free := testutil.SeedOffering(t, f.db, f.node, 0)
	lead, err = f.svc.Create(customer, validRequest(free))
	require.NoError(t, err)
	assert.EqualValues(t, 1, lead.CreditCost)
}

func TestCreateUsesConfiguredDefaultCost(t *testing.T) {
	cfg := config.DefaultMarketplaceConfig()
	cfg.DefaultLeadCost = 4
	f := newFixture(t, cfg)

	lead, err := f.svc.Create(as(10, auth.RoleCustomer), validRequest(testutil.SeedOffering(t, f.db, f.node, 0)))
	require.NoError(t, err)
	assert.EqualValues(t, 4, lead.CreditCost)
}

func TestCreateValidates(t *testing.T) {
	f := newFixture(t, config.DefaultMarketplaceConfig())
	customer := as(10, auth.RoleCustomer)
	serviceID := testutil.SeedOffering(t, f.db, f.node, 1)

	req := validRequest(serviceID)
	req.Title = " "
	_, err := f.svc.Create(customer, req)
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)

	req = validRequest(serviceID)
	req.ContactEmail, req.ContactPhone = "", ""
	_, err = f.svc.Create(customer, req)
	assert.ErrorIs(t, err, domain.ErrInvalidContact)

	_, err = f.svc.Create(customer, validRequest(777))
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)

	require.NoError(t, f.db.Exec(`UPDATE services SET is_active = ? WHERE id = ?`, false, serviceID).Error)
	_, err = f.svc.Create(customer, validRequest(serviceID))
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)

	_, err = f.svc.Create(context.Background(), validRequest(serviceID))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGetContactVisibility(t *testing.T) {
	f := newFixture(t, config.DefaultMarketplaceConfig())
	lead, err := f.svc.Create(as(10, auth.RoleCustomer), validRequest(testutil.SeedOffering(t, f.db, f.node, 2)))
	require.NoError(t, err)

	insertAssignment := func(proID snowflake.ID, status string) {
		require.NoError(t, f.db.Exec(
			`INSERT INTO assignments (id, lead_id, professional_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			f.node.Generate(), lead.ID, proID, status, time.Now(), time.Now(),
		).Error)
	}
	insertAssignment(20, "PENDING")
	insertAssignment(21, "ACCEPTED")
	insertAssignment(22, "REJECTED")

	owner, err := f.svc.Get(as(10, auth.RoleCustomer), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", owner.ContactName)

	admin, err := f.svc.Get(as(1, auth.RoleAdmin), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", admin.ContactEmail)

	pending, err := f.svc.Get(as(20, auth.RoleProfessional), lead.ID)
	require.NoError(t, err)
	assert.True(t, pending.ContactHidden)
	assert.Empty(t, pending.ContactName)
	assert.Equal(t, lead.Title, pending.Title)

	accepted, err := f.svc.Get(as(21, auth.RoleProfessional), lead.ID)
	require.NoError(t, err)
	assert.False(t, accepted.ContactHidden)
	assert.Equal(t, "+91 98000 00000", accepted.ContactPhone)

	_, err = f.svc.Get(as(22, auth.RoleProfessional), lead.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Get(as(23, auth.RoleProfessional), lead.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Get(as(11, auth.RoleCustomer), lead.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompleteAndReportIssue(t *testing.T) {
	f := newFixture(t, config.DefaultMarketplaceConfig())
	owner := as(10, auth.RoleCustomer)
	lead, err := f.svc.Create(owner, validRequest(testutil.SeedOffering(t, f.db, f.node, 2)))
	require.NoError(t, err)

	_, err = f.svc.Complete(owner, lead.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.ReportIssue(owner, domain.ReportIssueRequest{ID: lead.ID, Note: "no show"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	ok, err := f.svc.Advance(context.Background(), nil, lead.ID, domain.StatusOpen, domain.StatusAssigned)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.Advance(context.Background(), nil, lead.ID, domain.StatusOpen, domain.StatusAssigned)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.svc.Advance(context.Background(), nil, lead.ID, domain.StatusAssigned, domain.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.Complete(as(11, auth.RoleCustomer), lead.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	completed, err := f.svc.Complete(owner, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)

	_, err = f.svc.ReportIssue(owner, domain.ReportIssueRequest{ID: lead.ID, Note: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidIssueNote)

	reported, err := f.svc.ReportIssue(owner, domain.ReportIssueRequest{ID: lead.ID, Note: "Work left unfinished"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIssueReported, reported.Status)
	assert.Equal(t, "Work left unfinished", reported.IssueNote)

	_, err = f.svc.Complete(owner, lead.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.Advance(context.Background(), nil, lead.ID, domain.StatusIssueReported, domain.StatusOpen)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestListMineAndAll(t *testing.T) {
	f := newFixture(t, config.DefaultMarketplaceConfig())
	serviceID := testutil.SeedOffering(t, f.db, f.node, 1)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(as(10, auth.RoleCustomer), validRequest(serviceID))
		require.NoError(t, err)
	}
	other, err := f.svc.Create(as(11, auth.RoleCustomer), validRequest(serviceID))
	require.NoError(t, err)
	_, err = f.svc.Advance(context.Background(), nil, other.ID, domain.StatusOpen, domain.StatusAssigned)
	require.NoError(t, err)

	mine, err := f.svc.ListMine(as(10, auth.RoleCustomer), domain.ListLeadsRequest{})
	require.NoError(t, err)
	assert.Len(t, mine.Leads, 3)

	all, err := f.svc.ListAll(as(1, auth.RoleAdmin), domain.ListLeadsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Leads, 4)

	assigned, err := f.svc.ListAll(as(1, auth.RoleAdmin), domain.ListLeadsRequest{Status: "assigned"})
	require.NoError(t, err)
	require.Len(t, assigned.Leads, 1)
	assert.Equal(t, other.ID, assigned.Leads[0].ID)

	_, err = f.svc.ListAll(as(1, auth.RoleAdmin), domain.ListLeadsRequest{Status: "closed"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
