package authorization

import (
	"context"
	"errors"

	"github.com/smallbiznis/leadhub/internal/auth"
)

const (
	ObjectLead         = "lead"
	ObjectAssignment   = "assignment"
	ObjectCatalog      = "catalog"
	ObjectBundle       = "bundle"
	ObjectUser         = "user"
	ObjectTransaction  = "transaction"
	ObjectNotification = "notification"
	ObjectLedger       = "ledger"
	ObjectAuditLog     = "audit_log"
)

const (
	ActionLeadCreate      = "lead.create"
	ActionLeadViewOwn     = "lead.view_own"
	ActionLeadViewAll     = "lead.view_all"
	ActionLeadComplete    = "lead.complete"
	ActionLeadReportIssue = "lead.report_issue"

	ActionAssignmentViewOwn = "assignment.view_own"
	ActionAssignmentViewAll = "assignment.view_all"
	ActionAssignmentRespond = "assignment.respond"
	ActionAssignmentAssign  = "assignment.assign"
	ActionAssignmentExpire  = "assignment.expire"

	ActionCatalogView   = "catalog.view"
	ActionCatalogManage = "catalog.manage"

	ActionBundleView   = "bundle.view"
	ActionBundleManage = "bundle.manage"

	ActionUserViewSelf   = "user.view_self"
	ActionUserManage     = "user.manage"
	ActionUserTrustScore = "user.trust_score"

	ActionTransactionInitiate = "transaction.initiate"
	ActionTransactionViewOwn  = "transaction.view_own"
	ActionTransactionViewAll  = "transaction.view_all"

	ActionNotificationView = "notification.view"

	ActionLedgerViewOwn = "ledger.view_own"

	ActionAuditLogView = "audit_log.view"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service answers one question: may this role perform action on object.
type Service interface {
	Authorize(ctx context.Context, role auth.Role, object string, action string) error
}
