package authorization

import (
	"context"
	"errors"

	"github.com/smallbiznis/invoicedesk/internal/auditcontext"
)

type Service interface {
	// Authorize returns nil when actor may perform action on object.
	Authorize(ctx context.Context, actor auditcontext.Actor, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrUnknownRole   = errors.New("unknown_role")
	ErrForbidden     = errors.New("forbidden")
)
