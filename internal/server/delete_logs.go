package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	deletelogdomain "github.com/smallbiznis/invoicedesk/internal/deletelog/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
)

type listDeletedInvoicesQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
	Restored  string `form:"restored"`
	Query     string `form:"q"`
}

func (s *Server) ListDeletedInvoices(c *gin.Context) {
	var query listDeletedInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	restored, err := parseOptionalBool(query.Restored)
	if err != nil {
		AbortWithError(c, newValidationError("restored", "invalid_restored", "invalid restored"))
		return
	}

	resp, err := s.deleteLogSvc.List(c.Request.Context(), deletelogdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Restored: restored,
		Query:    query.Query,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Entries, "page_info": resp.PageInfo})
}

func (s *Server) GetDeletedInvoice(c *gin.Context) {
	entry, err := s.deleteLogSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (s *Server) RestoreInvoice(c *gin.Context) {
	item, err := s.deleteLogSvc.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}
