package server

import (
	"net/http"
	"time"

	authordomain "github.com/billfold/billfold/internal/author/domain"
	"github.com/billfold/billfold/internal/balance"
	carddomain "github.com/billfold/billfold/internal/card/domain"
	"github.com/gin-gonic/gin"
)

type dashboardItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Amount      int64    `json:"amount"`
	IsPaid      bool     `json:"is_paid"`
	Authors     []string `json:"authors"`
}

// GetDashboard aggregates one card's invoice for a period. A shared card
// is pinned to the participant identity it mirrors; owned cards accept an
// optional author filter.
func (s *Server) GetDashboard(c *gin.Context) {
	userID := currentUserID(c)
	ctx := c.Request.Context()

	cardID, ok := parseIDQuery(c, "card_id")
	if !ok || cardID == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	card, err := s.cardSvc.GetByID(ctx, userID, *cardID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	active, err := s.invoiceSvc.ActiveForCard(ctx, userID, card.ID, s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	month, year, ok := parsePeriodQuery(c, time.Month(active.ReferenceMonth), active.ReferenceYear)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoice, err := s.invoiceSvc.GetOrCreate(ctx, userID, card.ID, month, year)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	invoice, err = s.invoiceSvc.GetByID(ctx, userID, invoice.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	authors, err := s.authorSvc.List(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	opts, err := dashboardOptions(c, card)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]dashboardItem, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		if _, visible := balance.ResolveAmount(item, opts); !visible {
			continue
		}
		items = append(items, dashboardItem{
			ID:          item.ID.String(),
			Description: item.Description,
			Amount:      item.Amount,
			IsPaid:      item.IsPaid,
			Authors:     balance.DisplayAuthors(item, authors),
		})
	}

	response := gin.H{
		"invoice": gin.H{
			"id":              invoice.ID,
			"reference_month": invoice.ReferenceMonth,
			"reference_year":  invoice.ReferenceYear,
			"closing_date":    invoice.ClosingDate,
			"due_date":        invoice.DueDate,
			"status":          invoice.Status,
		},
		"totals": balance.ComputeTotals(invoice.Items, opts),
		"items":  items,
	}
	if !card.IsShared {
		response["author_totals"] = balance.ComputeAuthorTotals(invoice.Items, authors)
	}
	c.JSON(http.StatusOK, response)
}

func dashboardOptions(c *gin.Context, card carddomain.Card) (balance.Options, error) {
	if card.IsShared && card.AuthorIDOnOwner != nil {
		return balance.Options{SharedPinnedAuthorID: card.AuthorIDOnOwner}, nil
	}

	filter, ok := parseIDQuery(c, "author_id")
	if !ok {
		return balance.Options{}, ErrInvalidRequest
	}
	return balance.Options{FilterAuthorID: filter}, nil
}

func authorNames(authors []authordomain.Author) map[string]string {
	names := make(map[string]string, len(authors))
	for _, a := range authors {
		names[a.ID.String()] = a.FirstName()
	}
	return names
}
