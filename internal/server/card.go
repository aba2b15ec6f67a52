package server

import (
	"net/http"

	carddomain "github.com/billfold/billfold/internal/card/domain"
	"github.com/gin-gonic/gin"
)

type createCardRequest struct {
	Name            string  `json:"name"`
	ClosingDay      int     `json:"closing_day"`
	DueDay          int     `json:"due_day"`
	CreditLimit     int64   `json:"credit_limit"`
	Color           string  `json:"color"`
	IsShared        bool    `json:"is_shared"`
	OwnerName       string  `json:"owner_name"`
	AuthorIDOnOwner *string `json:"author_id_on_owner"`
}

type updateCardRequest struct {
	Name        *string `json:"name"`
	ClosingDay  *int    `json:"closing_day"`
	DueDay      *int    `json:"due_day"`
	CreditLimit *int64  `json:"credit_limit"`
	Color       *string `json:"color"`
	Active      *bool   `json:"active"`
}

func (s *Server) ListCards(c *gin.Context) {
	cards, err := s.cardSvc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (s *Server) CreateCard(c *gin.Context) {
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pinned, ok := parseOptionalID(req.AuthorIDOnOwner)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	card, err := s.cardSvc.Create(c.Request.Context(), carddomain.CreateCardRequest{
		UserID:          currentUserID(c),
		Name:            req.Name,
		ClosingDay:      req.ClosingDay,
		DueDay:          req.DueDay,
		CreditLimit:     req.CreditLimit,
		Color:           req.Color,
		IsShared:        req.IsShared,
		OwnerName:       req.OwnerName,
		AuthorIDOnOwner: pinned,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"card": card})
}

func (s *Server) GetCardByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, carddomain.ErrNotFound)
		return
	}

	card, err := s.cardSvc.GetByID(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

func (s *Server) UpdateCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, carddomain.ErrNotFound)
		return
	}

	var req updateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	card, err := s.cardSvc.Update(c.Request.Context(), carddomain.UpdateCardRequest{
		UserID:      currentUserID(c),
		ID:          id,
		Name:        req.Name,
		ClosingDay:  req.ClosingDay,
		DueDay:      req.DueDay,
		CreditLimit: req.CreditLimit,
		Color:       req.Color,
		Active:      req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

func (s *Server) DeleteCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, carddomain.ErrNotFound)
		return
	}

	if err := s.cardSvc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetActiveInvoice returns the invoice currently receiving purchases on
// the card, creating it when the period has no invoice yet.
func (s *Server) GetActiveInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, carddomain.ErrNotFound)
		return
	}

	invoice, err := s.invoiceSvc.ActiveForCard(c.Request.Context(), currentUserID(c), id, s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

func (s *Server) ListCardInvoices(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, carddomain.ErrNotFound)
		return
	}

	invoices, err := s.invoiceSvc.ListByCard(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}
