package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/billfold/billfold/internal/audit/domain"
	"github.com/billfold/billfold/internal/billingcycle"
	categorydomain "github.com/billfold/billfold/internal/category/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	subscriptiondomain "github.com/billfold/billfold/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	InvoiceSvc  invoicedomain.Service
	CategorySvc categorydomain.Service
	AuditSvc    auditdomain.Service `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	invoiceSvc  invoicedomain.Service
	categorySvc categorydomain.Service
	auditSvc    auditdomain.Service
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("subscription.service"),
		genID:       p.GenID,
		invoiceSvc:  p.InvoiceSvc,
		categorySvc: p.CategorySvc,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateRequest) (subscriptiondomain.Subscription, error) {
	if strings.TrimSpace(req.Description) == "" {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidDescription
	}
	if req.Amount <= 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidAmount
	}
	if !billingcycle.ValidDay(req.BillingDay) {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidBillingDay
	}
	if req.BillingCycle.Months() == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidBillingCycle
	}
	if req.AuthorID == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidAuthor
	}
	if err := validateTemplate(req.Assignments, req.Amount); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	now := time.Now().UTC()
	sub := subscriptiondomain.Subscription{
		ID:              s.genID.Generate(),
		UserID:          req.UserID,
		CardID:          req.CardID,
		Description:     strings.TrimSpace(req.Description),
		Amount:          req.Amount,
		BillingDay:      req.BillingDay,
		BillingCycle:    req.BillingCycle,
		NextBillingDate: firstOccurrence(req.BillingDay, now),
		Active:          true,
		CategoryID:      req.CategoryID,
		AuthorID:        req.AuthorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		return s.replaceTemplate(tx, &sub, req.Assignments)
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.emitAudit(ctx, req.UserID, "subscription.created", sub.ID.String(), map[string]any{
		"amount": sub.Amount,
	})
	return sub, nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	var subs []subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).
		Preload("Assignments").
		Where("user_id = ?", userID).
		Order("description asc").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id snowflake.ID) (subscriptiondomain.Subscription, error) {
	return s.load(ctx, s.db, userID, id)
}

func (s *Service) Update(ctx context.Context, req subscriptiondomain.UpdateRequest) (subscriptiondomain.Subscription, error) {
	sub, err := s.load(ctx, s.db, req.UserID, req.ID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidDescription
		}
		sub.Description = strings.TrimSpace(*req.Description)
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidAmount
		}
		sub.Amount = *req.Amount
	}
	if req.BillingDay != nil {
		if !billingcycle.ValidDay(*req.BillingDay) {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidBillingDay
		}
		sub.BillingDay = *req.BillingDay
	}
	if req.CategoryID != nil {
		sub.CategoryID = req.CategoryID
	}
	if req.Assignments != nil {
		if err := validateTemplate(req.Assignments, sub.Amount); err != nil {
			return subscriptiondomain.Subscription{}, err
		}
	} else if len(sub.Assignments) > 0 {
		var sum int64
		for _, a := range sub.Assignments {
			sum += a.Amount
		}
		if sum != sub.Amount {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrAssignmentSumMismatch
		}
	}
	sub.UpdatedAt = time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}
		if req.Assignments == nil {
			return nil
		}
		if err := tx.Where("subscription_id = ?", sub.ID).
			Delete(&subscriptiondomain.SubscriptionAssignment{}).Error; err != nil {
			return err
		}
		sub.Assignments = nil
		return s.replaceTemplate(tx, &sub, req.Assignments)
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.emitAudit(ctx, req.UserID, "subscription.updated", sub.ID.String(), nil)
	return sub, nil
}

func (s *Service) Delete(ctx context.Context, userID, id snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.load(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Where("subscription_id = ?", sub.ID).
			Delete(&subscriptiondomain.SubscriptionAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&subscriptiondomain.Subscription{}, "id = ?", sub.ID).Error
	})
	if err != nil {
		return err
	}
	s.emitAudit(ctx, userID, "subscription.deleted", id.String(), nil)
	return nil
}

func (s *Service) Pause(ctx context.Context, userID, id snowflake.ID) error {
	return s.setPaused(ctx, userID, id, true)
}

func (s *Service) Resume(ctx context.Context, userID, id snowflake.ID) error {
	return s.setPaused(ctx, userID, id, false)
}

// MaterializeDue turns every due occurrence into an invoice item. A
// subscription several periods behind catches up in one run, one item per
// missed period. Failures on one subscription do not stop the others.
func (s *Service) MaterializeDue(ctx context.Context, now time.Time) (int, error) {
	var due []subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).
		Preload("Assignments").
		Where("active = ? AND paused = ? AND next_billing_date <= ?", true, false, now).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	created := 0
	for _, sub := range due {
		n, err := s.materializeOne(ctx, sub, now)
		created += n
		if err != nil {
			s.log.Error("subscription materialization failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err),
			)
		}
	}
	return created, nil
}

func (s *Service) materializeOne(ctx context.Context, sub subscriptiondomain.Subscription, now time.Time) (int, error) {
	categoryID := sub.CategoryID
	if categoryID == nil {
		if fallback, err := s.categorySvc.Subscriptions(ctx); err == nil {
			categoryID = &fallback.ID
		}
	}

	assignments := make([]invoicedomain.AssignmentInput, 0, len(sub.Assignments))
	for _, a := range sub.Assignments {
		assignments = append(assignments, invoicedomain.AssignmentInput{
			AuthorID: a.AuthorID,
			Amount:   a.Amount,
		})
	}

	created := 0
	occurrence := sub.NextBillingDate
	for !occurrence.After(now) {
		_, err := s.invoiceSvc.CreateItem(ctx, invoicedomain.CreateItemRequest{
			UserID:       sub.UserID,
			CardID:       sub.CardID,
			Description:  sub.Description,
			Amount:       sub.Amount,
			CategoryID:   categoryID,
			AuthorID:     sub.AuthorID,
			PurchaseDate: occurrence,
			Assignments:  assignments,
		})
		if err != nil {
			return created, err
		}

		next := sub.NextOccurrenceAfter(occurrence)
		err = s.db.WithContext(ctx).Model(&subscriptiondomain.Subscription{}).
			Where("id = ?", sub.ID).
			Updates(map[string]any{
				"next_billing_date": next,
				"updated_at":        time.Now().UTC(),
			}).Error
		if err != nil {
			return created, err
		}
		created++
		occurrence = next
	}
	return created, nil
}

func (s *Service) setPaused(ctx context.Context, userID, id snowflake.ID, paused bool) error {
	result := s.db.WithContext(ctx).Model(&subscriptiondomain.Subscription{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"paused":     paused,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return subscriptiondomain.ErrNotFound
	}

	action := "subscription.paused"
	if !paused {
		action = "subscription.resumed"
	}
	s.emitAudit(ctx, userID, action, id.String(), nil)
	return nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (subscriptiondomain.Subscription, error) {
	var sub subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Preload("Assignments").
		Where("id = ? AND user_id = ?", id, userID).
		First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrNotFound
		}
		return subscriptiondomain.Subscription{}, err
	}
	return sub, nil
}

func (s *Service) replaceTemplate(tx *gorm.DB, sub *subscriptiondomain.Subscription, inputs []subscriptiondomain.AssignmentInput) error {
	for _, input := range inputs {
		row := subscriptiondomain.SubscriptionAssignment{
			ID:             s.genID.Generate(),
			SubscriptionID: sub.ID,
			AuthorID:       input.AuthorID,
			Amount:         input.Amount,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		sub.Assignments = append(sub.Assignments, row)
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, userID snowflake.ID, action, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	s.auditSvc.Log(ctx, userID, action, "subscription", targetID, metadata)
}

// firstOccurrence picks the next time the billing day comes around,
// starting from today when it has not passed yet this month.
func firstOccurrence(billingDay int, now time.Time) time.Time {
	month, year := now.Month(), now.Year()
	candidate := billingcycle.DateClamped(year, month, billingDay)
	if candidate.Before(now.Truncate(24 * time.Hour)) {
		month, year = billingcycle.Advance(month, year)
		candidate = billingcycle.DateClamped(year, month, billingDay)
	}
	return candidate
}

func validateTemplate(inputs []subscriptiondomain.AssignmentInput, amount int64) error {
	if len(inputs) == 0 {
		return nil
	}
	var sum int64
	for _, input := range inputs {
		if input.Amount <= 0 {
			return subscriptiondomain.ErrInvalidAmount
		}
		if input.AuthorID == 0 {
			return subscriptiondomain.ErrInvalidAuthor
		}
		sum += input.Amount
	}
	if sum != amount {
		return subscriptiondomain.ErrAssignmentSumMismatch
	}
	return nil
}
