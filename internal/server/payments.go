package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

type applyPaymentRequest struct {
	Amount    flexString `json:"amount"`
	Method    string     `json:"method"`
	Date      dateValue  `json:"date"`
	Reference *string    `json:"reference"`
	Notes     *string    `json:"notes"`
}

func (s *Server) ApplyPayment(c *gin.Context) {
	var req applyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.invoiceSvc.ApplyPayment(c.Request.Context(), invoicedomain.ApplyPaymentRequest{
		InvoiceID: c.Param("id"),
		Amount:    string(req.Amount),
		Method:    req.Method,
		Date:      req.Date.Time(),
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) ListPaymentHistory(c *gin.Context) {
	page, err := parseOptionalInt(c.Query("page"))
	if err != nil {
		AbortWithError(c, newValidationError("page", "invalid_page", "invalid page"))
		return
	}
	pageSize, err := parseOptionalInt(c.Query("page_size"))
	if err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page_size"))
		return
	}

	resp, err := s.invoiceSvc.PaymentHistory(c.Request.Context(), invoicedomain.PaymentHistoryRequest{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payments, "page": resp.Page})
}

func (s *Server) DownloadPaymentReceipt(c *gin.Context) {
	doc, err := s.invoiceSvc.RenderReceipt(c.Request.Context(), c.Param("id"), c.Param("payment_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeDocument(c, doc)
}
