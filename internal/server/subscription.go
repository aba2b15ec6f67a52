package server

import (
	"net/http"

	subscriptiondomain "github.com/billfold/billfold/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type subscriptionAssignmentInput struct {
	AuthorID string `json:"author_id"`
	Amount   int64  `json:"amount"`
}

type createSubscriptionRequest struct {
	CardID       string                        `json:"card_id"`
	Description  string                        `json:"description"`
	Amount       int64                         `json:"amount"`
	BillingDay   int                           `json:"billing_day"`
	BillingCycle string                        `json:"billing_cycle"`
	CategoryID   *string                       `json:"category_id"`
	AuthorID     string                        `json:"author_id"`
	Assignments  []subscriptionAssignmentInput `json:"assignments"`
}

type updateSubscriptionRequest struct {
	Description *string                       `json:"description"`
	Amount      *int64                        `json:"amount"`
	BillingDay  *int                          `json:"billing_day"`
	CategoryID  *string                       `json:"category_id"`
	Assignments []subscriptionAssignmentInput `json:"assignments"`
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	subs, err := s.subscriptionSvc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

func (s *Server) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cardID, err := parseRequiredID(req.CardID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	authorID, err := parseRequiredID(req.AuthorID)
	if err != nil {
		AbortWithError(c, subscriptiondomain.ErrInvalidAuthor)
		return
	}
	categoryID, ok := parseOptionalID(req.CategoryID)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	assignments, err := parseSubscriptionAssignments(req.Assignments)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	cycle := subscriptiondomain.BillingCycle(req.BillingCycle)
	if req.BillingCycle == "" {
		cycle = subscriptiondomain.BillingCycleMonthly
	}

	sub, err := s.subscriptionSvc.Create(c.Request.Context(), subscriptiondomain.CreateRequest{
		UserID:       currentUserID(c),
		CardID:       cardID,
		Description:  req.Description,
		Amount:       req.Amount,
		BillingDay:   req.BillingDay,
		BillingCycle: cycle,
		CategoryID:   categoryID,
		AuthorID:     authorID,
		Assignments:  assignments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

func (s *Server) GetSubscriptionByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, subscriptiondomain.ErrNotFound)
		return
	}

	sub, err := s.subscriptionSvc.GetByID(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (s *Server) UpdateSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, subscriptiondomain.ErrNotFound)
		return
	}

	var req updateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	categoryID, ok := parseOptionalID(req.CategoryID)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	var assignments []subscriptiondomain.AssignmentInput
	if req.Assignments != nil {
		parsed, err := parseSubscriptionAssignments(req.Assignments)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		assignments = parsed
	}

	sub, err := s.subscriptionSvc.Update(c.Request.Context(), subscriptiondomain.UpdateRequest{
		UserID:      currentUserID(c),
		ID:          id,
		Description: req.Description,
		Amount:      req.Amount,
		BillingDay:  req.BillingDay,
		CategoryID:  categoryID,
		Assignments: assignments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (s *Server) DeleteSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, subscriptiondomain.ErrNotFound)
		return
	}

	if err := s.subscriptionSvc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) PauseSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, subscriptiondomain.ErrNotFound)
		return
	}

	if err := s.subscriptionSvc.Pause(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ResumeSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, subscriptiondomain.ErrNotFound)
		return
	}

	if err := s.subscriptionSvc.Resume(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseSubscriptionAssignments(inputs []subscriptionAssignmentInput) ([]subscriptiondomain.AssignmentInput, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	out := make([]subscriptiondomain.AssignmentInput, 0, len(inputs))
	for _, input := range inputs {
		authorID, err := parseRequiredID(input.AuthorID)
		if err != nil {
			return nil, subscriptiondomain.ErrInvalidAuthor
		}
		out = append(out, subscriptiondomain.AssignmentInput{
			AuthorID: authorID,
			Amount:   input.Amount,
		})
	}
	return out, nil
}
