package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	deletelogdomain "github.com/smallbiznis/invoicedesk/internal/deletelog/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

type lineItemRequest struct {
	Description string     `json:"description"`
	Quantity    flexString `json:"quantity"`
	UnitPrice   flexString `json:"unit_price"`
}

type clientRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

type upsertInvoiceRequest struct {
	InvoiceDate  dateValue         `json:"invoice_date"`
	DueDate      dateValue         `json:"due_date"`
	Client       clientRequest     `json:"client"`
	Notes        string            `json:"notes"`
	Items        []lineItemRequest `json:"items"`
	ShippingCost flexString        `json:"shipping_cost"`
	TaxOverride  *flexString       `json:"tax_override"`
	ResetTax     bool              `json:"reset_tax"`
	Send         bool              `json:"send"`
}

type computeTotalsRequest struct {
	Items        []lineItemRequest `json:"items"`
	TaxOverride  *flexString       `json:"tax_override"`
	ShippingCost flexString        `json:"shipping_cost"`
	AmountPaid   flexString        `json:"amount_paid"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

func (r upsertInvoiceRequest) toDomain() invoicedomain.UpsertInvoiceRequest {
	return invoicedomain.UpsertInvoiceRequest{
		InvoiceDate: r.InvoiceDate.Time(),
		DueDate:     r.DueDate.Time(),
		Client: invoicedomain.Client{
			Name:         r.Client.Name,
			Email:        r.Client.Email,
			Phone:        r.Client.Phone,
			AddressLine1: r.Client.AddressLine1,
			AddressLine2: r.Client.AddressLine2,
			City:         r.Client.City,
			State:        r.Client.State,
			PostalCode:   r.Client.PostalCode,
			Country:      r.Client.Country,
		},
		Notes:        r.Notes,
		Items:        lineItemInputs(r.Items),
		ShippingCost: string(r.ShippingCost),
		TaxOverride:  r.TaxOverride.ptr(),
		ResetTax:     r.ResetTax,
		Send:         r.Send,
	}
}

func lineItemInputs(items []lineItemRequest) []invoicedomain.LineItemInput {
	inputs := make([]invoicedomain.LineItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, invoicedomain.LineItemInput{
			Description: item.Description,
			Quantity:    string(item.Quantity),
			UnitPrice:   string(item.UnitPrice),
		})
	}
	return inputs
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, errInvalidDate) {
			AbortWithError(c, newValidationError("date", "invalid_date", "dates must be YYYY-MM-DD or RFC3339"))
			return false
		}
		AbortWithError(c, invalidRequestError())
		return false
	}
	return true
}

func (s *Server) ComputeTotals(c *gin.Context) {
	var req computeTotalsRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := s.invoiceSvc.ComputeTotals(c.Request.Context(), invoicedomain.ComputeTotalsRequest{
		Items:        lineItemInputs(req.Items),
		TaxOverride:  req.TaxOverride.ptr(),
		ShippingCost: string(req.ShippingCost),
		AmountPaid:   string(req.AmountPaid),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req upsertInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.invoiceSvc.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		abortWithDraft(c, err, item)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req upsertInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.invoiceSvc.UpdateDraft(c.Request.Context(), c.Param("id"), req.toDomain())
	if err != nil {
		abortWithDraft(c, err, item)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

// abortWithDraft keeps the id of a draft that was saved before its send failed.
func abortWithDraft(c *gin.Context, err error, item invoicedomain.Invoice) {
	if item.ID == 0 {
		AbortWithError(c, err)
		return
	}
	AbortWithSavedResource(c, err, item)
}

func (s *Server) ListInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		View:  c.Query("view"),
		Query: c.Query("q"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "view": resp.View})
}

func (s *Server) CountInvoices(c *gin.Context) {
	counts, err := s.invoiceSvc.Counts(c.Request.Context(), c.Query("q"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": counts})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	item, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) SendInvoice(c *gin.Context) {
	item, err := s.invoiceSvc.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DisputeInvoice(c *gin.Context) {
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.invoiceSvc.MarkDisputed(c.Request.Context(), invoicedomain.DisputeRequest{
		InvoiceID: c.Param("id"),
		Reason:    req.Reason,
		Notes:     req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ResolveInvoiceDispute(c *gin.Context) {
	item, err := s.invoiceSvc.ResolveDispute(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.invoiceSvc.Cancel(c.Request.Context(), invoicedomain.CancelRequest{
		InvoiceID: c.Param("id"),
		Reason:    req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := s.deleteLogSvc.Delete(c.Request.Context(), deletelogdomain.DeleteRequest{
		InvoiceID: c.Param("id"),
		Reason:    req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	doc, err := s.invoiceSvc.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeDocument(c, doc)
}

func writeDocument(c *gin.Context, doc invoicedomain.Document) {
	disposition := "inline"
	if strings.EqualFold(c.Query("download"), "true") {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
