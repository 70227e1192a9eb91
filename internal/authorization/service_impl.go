package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	"github.com/smallbiznis/invoicedesk/internal/auditcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectInvoice   = "invoice"
	ObjectPayment   = "payment"
	ObjectDeleteLog = "delete_log"
	ObjectAuditLog  = "audit_log"
)

const (
	ActionInvoiceView           = "invoice.view"
	ActionInvoiceCreate         = "invoice.create"
	ActionInvoiceUpdate         = "invoice.update"
	ActionInvoiceSend           = "invoice.send"
	ActionInvoiceDispute        = "invoice.dispute"
	ActionInvoiceResolveDispute = "invoice.resolve_dispute"
	ActionInvoiceCancel         = "invoice.cancel"
	ActionInvoiceDelete         = "invoice.delete"
	ActionInvoiceRestore        = "invoice.restore"

	ActionPaymentView  = "payment.view"
	ActionPaymentApply = "payment.apply"

	ActionDeleteLogView = "delete_log.view"
	ActionAuditLogView  = "audit_log.view"
)

const (
	RoleViewer = "viewer"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer builds the RBAC enforcer. Policies persist through the gorm adapter when db is set.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if db == nil {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	} else {
		adapter, adapterErr := gormadapter.NewAdapterByDB(db)
		if adapterErr != nil {
			return nil, adapterErr
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	}
	if err != nil {
		return nil, err
	}

	enforcer.EnableAutoSave(db != nil)
	enforcer.EnableAutoBuildRoleLinks(true)
	if db != nil {
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor auditcontext.Actor, object string, action string) error {
	if actor.IsZero() {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	role := strings.ToLower(strings.TrimSpace(actor.Role))
	if !knownRole(role) {
		s.auditDenied(ctx, object, action, role)
		return ErrUnknownRole
	}

	allowed, err := s.enforcer.Enforce(roleSubject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("actor_id", actor.ID),
			zap.String("role", role),
			zap.String("action", action),
		)
		s.auditDenied(ctx, object, action, role)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, object, action, role string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, "authorization.denied", "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
		"role":   role,
	})
}

func knownRole(role string) bool {
	switch role {
	case RoleViewer, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

func roleSubject(role string) string {
	return fmt.Sprintf("role:%s", role)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Viewer permissions (read-only)
		{roleSubject(RoleViewer), ObjectInvoice, ActionInvoiceView},
		{roleSubject(RoleViewer), ObjectPayment, ActionPaymentView},

		// Staff permissions
		{roleSubject(RoleStaff), ObjectInvoice, ActionInvoiceCreate},
		{roleSubject(RoleStaff), ObjectInvoice, ActionInvoiceUpdate},
		{roleSubject(RoleStaff), ObjectInvoice, ActionInvoiceSend},
		{roleSubject(RoleStaff), ObjectInvoice, ActionInvoiceDispute},
		{roleSubject(RoleStaff), ObjectPayment, ActionPaymentApply},

		// Admin permissions
		{roleSubject(RoleAdmin), ObjectInvoice, ActionInvoiceResolveDispute},
		{roleSubject(RoleAdmin), ObjectInvoice, ActionInvoiceCancel},
		{roleSubject(RoleAdmin), ObjectInvoice, ActionInvoiceDelete},
		{roleSubject(RoleAdmin), ObjectInvoice, ActionInvoiceRestore},
		{roleSubject(RoleAdmin), ObjectDeleteLog, ActionDeleteLogView},
		{roleSubject(RoleAdmin), ObjectAuditLog, ActionAuditLogView},
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

	// Each role inherits everything granted to the role below it.
	groupings := [][]string{
		{roleSubject(RoleStaff), roleSubject(RoleViewer)},
		{roleSubject(RoleAdmin), roleSubject(RoleStaff)},
	}
	for _, grouping := range groupings {
		has, err := enforcer.HasGroupingPolicy(grouping)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(grouping); err != nil {
			return err
		}
	}
	return nil
}
