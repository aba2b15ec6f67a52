package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/billfold/billfold/internal/audit/domain"
	"github.com/billfold/billfold/internal/billingcycle"
	carddomain "github.com/billfold/billfold/internal/card/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	auditSvc auditdomain.Service
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, userID, cardID snowflake.ID, month time.Month, year int) (invoicedomain.Invoice, error) {
	card, err := s.loadCard(ctx, s.db, userID, cardID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	var invoice invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.getOrCreateTx(ctx, tx, card, billingcycle.Period{Month: month, Year: year})
		if err != nil {
			return err
		}
		invoice = found
		return nil
	})
	return invoice, err
}

func (s *Service) ActiveForCard(ctx context.Context, userID, cardID snowflake.ID, at time.Time) (invoicedomain.Invoice, error) {
	card, err := s.loadCard(ctx, s.db, userID, cardID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	period := billingcycle.Resolve(card.ClosingDay, at)

	var invoice invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.getOrCreateTx(ctx, tx, card, period)
		if err != nil {
			return err
		}
		invoice = found
		return nil
	})
	return invoice, err
}

func (s *Service) GetByID(ctx context.Context, userID, id snowflake.ID) (invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Preload("Items.Assignments").
		Where("id = ? AND user_id = ?", id, userID).
		First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) ListByCard(ctx context.Context, userID, cardID snowflake.ID) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		Order("reference_year desc, reference_month desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Service) CreateItem(ctx context.Context, req invoicedomain.CreateItemRequest) (invoicedomain.InvoiceItem, error) {
	if err := validateItemInput(req.Description, req.Amount, req.AuthorID); err != nil {
		return invoicedomain.InvoiceItem{}, err
	}
	if err := validateAssignments(req.Assignments, req.Amount); err != nil {
		return invoicedomain.InvoiceItem{}, err
	}

	card, err := s.loadCard(ctx, s.db, req.UserID, req.CardID)
	if err != nil {
		return invoicedomain.InvoiceItem{}, err
	}

	period := billingcycle.Resolve(card.ClosingDay, req.PurchaseDate)

	var item invoicedomain.InvoiceItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.getOrCreateTx(ctx, tx, card, period)
		if err != nil {
			return err
		}

		item = invoicedomain.InvoiceItem{
			ID:           s.genID.Generate(),
			UserID:       req.UserID,
			InvoiceID:    invoice.ID,
			CardID:       card.ID,
			Description:  strings.TrimSpace(req.Description),
			Amount:       req.Amount,
			CategoryID:   req.CategoryID,
			AuthorID:     req.AuthorID,
			PurchaseDate: req.PurchaseDate,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		if err := s.insertAssignments(tx, &item, req.Assignments); err != nil {
			return err
		}
		return s.addToInvoiceTotal(tx, invoice.ID, item.Amount)
	})
	if err != nil {
		return invoicedomain.InvoiceItem{}, err
	}

	s.emitAudit(ctx, req.UserID, "invoice_item.created", item.ID.String(), map[string]any{
		"card_id": card.ID.String(),
		"amount":  item.Amount,
	})
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, userID, itemID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.loadItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := s.removeItemTx(tx, item); err != nil {
			return err
		}
		s.emitAudit(ctx, userID, "invoice_item.deleted", item.ID.String(), nil)
		return nil
	})
}

// PayItem settles a whole item, or a single author's assignment when
// req.AuthorID is set. The invoice's paid amount moves with it, and the
// invoice flips to PAID once fully covered.
func (s *Service) PayItem(ctx context.Context, req invoicedomain.PayItemRequest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.loadItem(tx, req.UserID, req.ItemID)
		if err != nil {
			return err
		}

		var paidDelta int64
		if req.AuthorID != nil {
			paidDelta, err = s.payAssignment(tx, &item, *req.AuthorID)
		} else {
			paidDelta, err = s.payWholeItem(tx, &item)
		}
		if err != nil {
			return err
		}
		if paidDelta == 0 {
			return nil
		}

		if err := s.addToInvoicePaid(tx, item.InvoiceID, paidDelta); err != nil {
			return err
		}
		s.emitAudit(ctx, req.UserID, "invoice_item.paid", item.ID.String(), map[string]any{
			"amount": paidDelta,
		})
		return nil
	})
}

func (s *Service) CloseInvoice(ctx context.Context, userID, invoiceID snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice invoicedomain.Invoice
		err := tx.Where("id = ? AND user_id = ?", invoiceID, userID).First(&invoice).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return invoicedomain.ErrInvoiceNotFound
			}
			return err
		}
		if !invoice.Status.CanTransitionTo(invoicedomain.InvoiceStatusClosed) {
			return invoicedomain.ErrInvalidStatusTransition
		}
		return tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]any{
				"status":     invoicedomain.InvoiceStatusClosed,
				"updated_at": time.Now().UTC(),
			}).Error
	})
	if err != nil {
		return err
	}
	s.emitAudit(ctx, userID, "invoice.closed", invoiceID.String(), nil)
	return nil
}

func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	result := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{}).
		Where("due_date < ? AND paid_amount < total_amount AND status IN ?",
			now,
			[]invoicedomain.InvoiceStatus{invoicedomain.InvoiceStatusOpen, invoicedomain.InvoiceStatusClosed},
		).
		Updates(map[string]any{
			"status":     invoicedomain.InvoiceStatusOverdue,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// getOrCreateTx resolves the invoice for a period inside tx, creating it
// lazily. The insert is idempotent on (card_id, reference_month,
// reference_year); a concurrent creator wins and we read theirs back.
func (s *Service) getOrCreateTx(ctx context.Context, tx *gorm.DB, card carddomain.Card, period billingcycle.Period) (invoicedomain.Invoice, error) {
	var existing invoicedomain.Invoice
	err := tx.Where("card_id = ? AND reference_month = ? AND reference_year = ?",
		card.ID, int(period.Month), period.Year).
		First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return invoicedomain.Invoice{}, err
	}

	closing, due := billingcycle.ComputeDates(card.ClosingDay, card.DueDay, period)
	now := time.Now().UTC()
	invoice := invoicedomain.Invoice{
		ID:             s.genID.Generate(),
		UserID:         card.UserID,
		CardID:         card.ID,
		ReferenceMonth: int(period.Month),
		ReferenceYear:  period.Year,
		ClosingDate:    closing,
		DueDate:        due,
		Status:         invoicedomain.InvoiceStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&invoice)
	if result.Error != nil {
		return invoicedomain.Invoice{}, result.Error
	}
	if result.RowsAffected == 0 {
		err = tx.Where("card_id = ? AND reference_month = ? AND reference_year = ?",
			card.ID, int(period.Month), period.Year).
			First(&invoice).Error
		if err != nil {
			return invoicedomain.Invoice{}, err
		}
	}
	return invoice, nil
}

func (s *Service) loadCard(ctx context.Context, db *gorm.DB, userID, cardID snowflake.ID) (carddomain.Card, error) {
	var card carddomain.Card
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", cardID, userID).First(&card).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return carddomain.Card{}, carddomain.ErrNotFound
		}
		return carddomain.Card{}, err
	}
	return card, nil
}

func (s *Service) loadItem(tx *gorm.DB, userID, itemID snowflake.ID) (invoicedomain.InvoiceItem, error) {
	var item invoicedomain.InvoiceItem
	err := tx.Preload("Assignments").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return invoicedomain.InvoiceItem{}, invoicedomain.ErrItemNotFound
		}
		return invoicedomain.InvoiceItem{}, err
	}
	return item, nil
}

func (s *Service) insertAssignments(tx *gorm.DB, item *invoicedomain.InvoiceItem, inputs []invoicedomain.AssignmentInput) error {
	for _, input := range inputs {
		assignment := invoicedomain.ItemAssignment{
			ID:       s.genID.Generate(),
			ItemID:   item.ID,
			AuthorID: input.AuthorID,
			Amount:   input.Amount,
			IsPaid:   input.IsPaid,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
		item.Assignments = append(item.Assignments, assignment)
	}
	return nil
}

// removeItemTx deletes an item with its assignments and rolls its amounts
// out of the invoice.
func (s *Service) removeItemTx(tx *gorm.DB, item invoicedomain.InvoiceItem) error {
	if err := tx.Where("item_id = ?", item.ID).Delete(&invoicedomain.ItemAssignment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("id = ?", item.ID).Delete(&invoicedomain.InvoiceItem{}).Error; err != nil {
		return err
	}
	if err := s.addToInvoiceTotal(tx, item.InvoiceID, -item.Amount); err != nil {
		return err
	}
	if paid := item.PaidPortion(); paid > 0 {
		return s.addToInvoicePaid(tx, item.InvoiceID, -paid)
	}
	return nil
}

func (s *Service) payAssignment(tx *gorm.DB, item *invoicedomain.InvoiceItem, authorID snowflake.ID) (int64, error) {
	var target *invoicedomain.ItemAssignment
	allPaid := true
	for i := range item.Assignments {
		a := &item.Assignments[i]
		if a.AuthorID == authorID {
			target = a
		} else if !a.IsPaid {
			allPaid = false
		}
	}
	if target == nil {
		return 0, invoicedomain.ErrAssignmentNotFound
	}
	if target.IsPaid {
		return 0, nil
	}

	err := tx.Model(&invoicedomain.ItemAssignment{}).
		Where("id = ?", target.ID).
		Update("is_paid", true).Error
	if err != nil {
		return 0, err
	}

	if allPaid {
		err = tx.Model(&invoicedomain.InvoiceItem{}).
			Where("id = ?", item.ID).
			Update("is_paid", true).Error
		if err != nil {
			return 0, err
		}
	}
	return target.Amount, nil
}

func (s *Service) payWholeItem(tx *gorm.DB, item *invoicedomain.InvoiceItem) (int64, error) {
	if item.IsPaid {
		return 0, nil
	}

	remaining := item.Amount - item.PaidPortion()
	err := tx.Model(&invoicedomain.InvoiceItem{}).
		Where("id = ?", item.ID).
		Update("is_paid", true).Error
	if err != nil {
		return 0, err
	}
	err = tx.Model(&invoicedomain.ItemAssignment{}).
		Where("item_id = ?", item.ID).
		Update("is_paid", true).Error
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *Service) addToInvoiceTotal(tx *gorm.DB, invoiceID snowflake.ID, delta int64) error {
	return tx.Model(&invoicedomain.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]any{
			"total_amount": gorm.Expr("total_amount + ?", delta),
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (s *Service) addToInvoicePaid(tx *gorm.DB, invoiceID snowflake.ID, delta int64) error {
	err := tx.Model(&invoicedomain.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]any{
			"paid_amount": gorm.Expr("paid_amount + ?", delta),
			"updated_at":  time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}

	var invoice invoicedomain.Invoice
	if err := tx.Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		return err
	}
	if invoice.TotalAmount > 0 &&
		invoice.PaidAmount >= invoice.TotalAmount &&
		invoice.Status.CanTransitionTo(invoicedomain.InvoiceStatusPaid) {
		return tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoiceID).
			Update("status", invoicedomain.InvoiceStatusPaid).Error
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, userID snowflake.ID, action, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	s.auditSvc.Log(ctx, userID, action, "invoice", targetID, metadata)
}

func validateItemInput(description string, amount int64, authorID snowflake.ID) error {
	if strings.TrimSpace(description) == "" {
		return invoicedomain.ErrInvalidDescription
	}
	if amount <= 0 {
		return invoicedomain.ErrInvalidAmount
	}
	if authorID == 0 {
		return invoicedomain.ErrInvalidAuthor
	}
	return nil
}

func validateAssignments(assignments []invoicedomain.AssignmentInput, amount int64) error {
	if len(assignments) == 0 {
		return nil
	}
	var sum int64
	for _, a := range assignments {
		if a.Amount <= 0 {
			return invoicedomain.ErrInvalidAmount
		}
		if a.AuthorID == 0 {
			return invoicedomain.ErrInvalidAuthor
		}
		sum += a.Amount
	}
	if sum != amount {
		return invoicedomain.ErrAssignmentSumMismatch
	}
	return nil
}
