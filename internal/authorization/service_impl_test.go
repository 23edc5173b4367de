package authorization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/leadhub/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewMemoryEnforcer()
	require.NoError(t, err)
	return NewService(Params{Log: zaptest.NewLogger(t), Enforcer: enforcer})
}

func TestAuthorizePolicyTable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role    auth.Role
		object  string
		action  string
		allowed bool
	}{
		{auth.RoleCustomer, ObjectLead, ActionLeadCreate, true},
		{auth.RoleCustomer, ObjectAssignment, ActionAssignmentRespond, false},
		{auth.RoleCustomer, ObjectTransaction, ActionTransactionInitiate, false},
		{auth.RoleProfessional, ObjectAssignment, ActionAssignmentRespond, true},
		{auth.RoleProfessional, ObjectLead, ActionLeadCreate, false},
		{auth.RoleProfessional, ObjectAssignment, ActionAssignmentAssign, false},
		{auth.RoleProfessional, ObjectLedger, ActionLedgerViewOwn, true},
		{auth.RoleAdmin, ObjectAssignment, ActionAssignmentAssign, true},
		{auth.RoleAdmin, ObjectUser, ActionUserTrustScore, true},
		{auth.RoleAdmin, ObjectAssignment, ActionAssignmentRespond, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s %s", tc.role, tc.action), func(t *testing.T) {
			err := svc.Authorize(ctx, tc.role, tc.object, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestAuthorizeRejectsUnknownRole(t *testing.T) {
	svc := newTestService(t)
	err := svc.Authorize(context.Background(), auth.Role("ROOT"), ObjectLead, ActionLeadCreate)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestNewEnforcerPersistsPoliciesOnce(t *testing.T) {
	dsn := fmt.Sprintf("file:authz_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	_, err = NewEnforcer(db)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("casbin_rule").Where("ptype = ?", "p").Count(&count).Error)
	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.EqualValues(t, len(policies), count)

	allowed, err := enforcer.Enforce("role:admin", ObjectAuditLog, ActionAuditLogView)
	require.NoError(t, err)
	assert.True(t, allowed)
}
