package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/leadhub/internal/auth"
	obslogger "github.com/smallbiznis/leadhub/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads policies persisted through the gorm adapter and
// reconciles them with the built-in policy table.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer builds an enforcer with the built-in policy table and no persistence.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role auth.Role, object string, action string) error {
	if _, ok := auth.ParseRole(role.String()); !ok {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(subject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		obslogger.WithContext(ctx, s.log).Info("capability denied",
			zap.String("role", role.String()),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func subject(role auth.Role) string {
	return "role:" + strings.ToLower(role.String())
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	customer := subject(auth.RoleCustomer)
	professional := subject(auth.RoleProfessional)
	admin := subject(auth.RoleAdmin)

	policies := [][]string{
		{customer, ObjectLead, ActionLeadCreate},
		{customer, ObjectLead, ActionLeadViewOwn},
		{customer, ObjectLead, ActionLeadComplete},
		{customer, ObjectLead, ActionLeadReportIssue},
		{customer, ObjectNotification, ActionNotificationView},
		{customer, ObjectCatalog, ActionCatalogView},
		{customer, ObjectUser, ActionUserViewSelf},

		{professional, ObjectAssignment, ActionAssignmentViewOwn},
		{professional, ObjectAssignment, ActionAssignmentRespond},
		{professional, ObjectLead, ActionLeadViewOwn},
		{professional, ObjectBundle, ActionBundleView},
		{professional, ObjectTransaction, ActionTransactionInitiate},
		{professional, ObjectTransaction, ActionTransactionViewOwn},
		{professional, ObjectLedger, ActionLedgerViewOwn},
		{professional, ObjectNotification, ActionNotificationView},
		{professional, ObjectCatalog, ActionCatalogView},
		{professional, ObjectUser, ActionUserViewSelf},

		{admin, ObjectLead, ActionLeadViewAll},
		{admin, ObjectAssignment, ActionAssignmentAssign},
		{admin, ObjectAssignment, ActionAssignmentViewAll},
		{admin, ObjectAssignment, ActionAssignmentExpire},
		{admin, ObjectCatalog, ActionCatalogView},
		{admin, ObjectCatalog, ActionCatalogManage},
		{admin, ObjectBundle, ActionBundleView},
		{admin, ObjectBundle, ActionBundleManage},
		{admin, ObjectUser, ActionUserViewSelf},
		{admin, ObjectUser, ActionUserManage},
		{admin, ObjectUser, ActionUserTrustScore},
		{admin, ObjectTransaction, ActionTransactionViewAll},
		{admin, ObjectNotification, ActionNotificationView},
		{admin, ObjectAuditLog, ActionAuditLogView},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
