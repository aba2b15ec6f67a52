package server

import (
	"io"
	"net/http"
	"time"

	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/billfold/billfold/internal/providers/pdf"
	"github.com/billfold/billfold/pkg/money"
	"github.com/gin-gonic/gin"
)

type assignmentInput struct {
	AuthorID string `json:"author_id"`
	Amount   int64  `json:"amount"`
	IsPaid   bool   `json:"is_paid"`
}

type createItemRequest struct {
	Description  string            `json:"description"`
	Amount       int64             `json:"amount"`
	CategoryID   *string           `json:"category_id"`
	AuthorID     string            `json:"author_id"`
	PurchaseDate string            `json:"purchase_date"`
	Assignments  []assignmentInput `json:"assignments"`

	// Installments turns the purchase into a forward-dated sequence.
	Installments *struct {
		Total int `json:"total"`
		Start int `json:"start"`
	} `json:"installments"`
}

type payItemRequest struct {
	AuthorID *string `json:"author_id"`
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, invoicedomain.ErrInvoiceNotFound)
		return
	}

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// CreateInvoiceItem adds a purchase. The item is placed by its purchase
// date, so a purchase past the closing day lands on the following
// invoice, not necessarily the one in the URL.
func (s *Server) CreateInvoiceItem(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, invoicedomain.ErrInvoiceNotFound)
		return
	}

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), currentUserID(c), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	authorID, err := parseRequiredID(req.AuthorID)
	if err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidAuthor)
		return
	}
	categoryID, ok := parseOptionalID(req.CategoryID)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	purchaseDate, ok := parseDate(req.PurchaseDate, s.clock.Now())
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	assignments, err := parseAssignments(req.Assignments)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	userID := currentUserID(c)
	if req.Installments != nil {
		items, err := s.invoiceSvc.GenerateInstallments(c.Request.Context(), invoicedomain.GenerateInstallmentsRequest{
			UserID:            userID,
			CardID:            invoice.CardID,
			Description:       req.Description,
			TotalAmount:       req.Amount,
			TotalInstallments: req.Installments.Total,
			StartNumber:       req.Installments.Start,
			CategoryID:        categoryID,
			AuthorID:          authorID,
			PurchaseDate:      purchaseDate,
			Assignments:       assignments,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"items": items})
		return
	}

	item, err := s.invoiceSvc.CreateItem(c.Request.Context(), invoicedomain.CreateItemRequest{
		UserID:       userID,
		CardID:       invoice.CardID,
		Description:  req.Description,
		Amount:       req.Amount,
		CategoryID:   categoryID,
		AuthorID:     authorID,
		PurchaseDate: purchaseDate,
		Assignments:  assignments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (s *Server) DeleteInvoiceItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, invoicedomain.ErrItemNotFound)
		return
	}

	if err := s.invoiceSvc.DeleteItem(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) PayInvoiceItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, invoicedomain.ErrItemNotFound)
		return
	}

	var req payItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	authorID, ok := parseOptionalID(req.AuthorID)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.invoiceSvc.PayItem(c.Request.Context(), invoicedomain.PayItemRequest{
		UserID:   currentUserID(c),
		ItemID:   id,
		AuthorID: authorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteInstallmentGroup(c *gin.Context) {
	groupID := c.Param("id")
	if groupID == "" {
		AbortWithError(c, invoicedomain.ErrInstallmentGroupNotFound)
		return
	}

	if err := s.invoiceSvc.DeleteInstallmentGroup(c.Request.Context(), currentUserID(c), groupID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) CloseInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, invoicedomain.ErrInvoiceNotFound)
		return
	}

	if err := s.invoiceSvc.CloseInvoice(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) GetInvoicePDF(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, invoicedomain.ErrInvoiceNotFound)
		return
	}

	ctx := c.Request.Context()
	userID := currentUserID(c)

	invoice, err := s.invoiceSvc.GetByID(ctx, userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	card, err := s.cardSvc.GetByID(ctx, userID, invoice.CardID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	authors, err := s.authorSvc.List(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := buildStatement(invoice, card.Name, authorNames(authors))
	reader, err := s.pdfProvider.GenerateStatement(ctx, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", doc)
}

func buildStatement(invoice invoicedomain.Invoice, cardName string, names map[string]string) pdf.StatementData {
	items := make([]pdf.StatementItem, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, pdf.StatementItem{
			Description:  item.Description,
			Author:       names[item.AuthorID.String()],
			PurchaseDate: item.PurchaseDate.Format("2006-01-02"),
			Amount:       money.Format(item.Amount),
		})
	}

	reference := time.Date(invoice.ReferenceYear, time.Month(invoice.ReferenceMonth), 1, 0, 0, 0, 0, time.UTC)
	return pdf.StatementData{
		CardName:  cardName,
		Reference: reference.Format("January 2006"),
		Closing:   invoice.ClosingDate.Format("2006-01-02"),
		Due:       invoice.DueDate.Format("2006-01-02"),
		Status:    string(invoice.Status),
		Items:     items,
		Total:     money.Format(invoice.TotalAmount),
		Paid:      money.Format(invoice.PaidAmount),
		Remaining: money.Format(invoice.TotalAmount - invoice.PaidAmount),
	}
}

func parseAssignments(inputs []assignmentInput) ([]invoicedomain.AssignmentInput, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	out := make([]invoicedomain.AssignmentInput, 0, len(inputs))
	for _, input := range inputs {
		authorID, err := parseRequiredID(input.AuthorID)
		if err != nil {
			return nil, invoicedomain.ErrInvalidAuthor
		}
		out = append(out, invoicedomain.AssignmentInput{
			AuthorID: authorID,
			Amount:   input.Amount,
			IsPaid:   input.IsPaid,
		})
	}
	return out, nil
}
