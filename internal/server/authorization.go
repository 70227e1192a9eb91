package server

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicedesk/internal/auditcontext"
	"github.com/smallbiznis/invoicedesk/internal/authorization"
)

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeWithContext(c *gin.Context, object string, action string) error {
	actor, ok := auditcontext.ActorFromContext(c.Request.Context())
	if !ok {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}

	err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, authorization.ErrInvalidActor):
		return ErrUnauthorized
	case errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrUnknownRole):
		return ErrForbidden
	default:
		return err
	}
}
