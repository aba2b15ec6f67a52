package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/billingcycle"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxInstallments = 120

// GenerateInstallments creates one forward-dated item per installment, all
// sharing a group id. Everything lands in a single transaction: either the
// full sequence exists afterwards or none of it does.
//
// Each installment carries TotalAmount / TotalInstallments, truncated to
// the cent. No reconciliation row is added, so a sequence can sum to less
// than the purchase price (10000 over 3 yields 3 x 3333).
func (s *Service) GenerateInstallments(ctx context.Context, req invoicedomain.GenerateInstallmentsRequest) ([]invoicedomain.InvoiceItem, error) {
	if err := validateItemInput(req.Description, req.TotalAmount, req.AuthorID); err != nil {
		return nil, err
	}
	start := req.StartNumber
	if start == 0 {
		start = 1
	}
	if req.TotalInstallments < 1 || req.TotalInstallments > maxInstallments ||
		start < 1 || start > req.TotalInstallments {
		return nil, invoicedomain.ErrInvalidInstallments
	}
	if err := validateAssignments(req.Assignments, req.TotalAmount); err != nil {
		return nil, err
	}

	card, err := s.loadCard(ctx, s.db, req.UserID, req.CardID)
	if err != nil {
		return nil, err
	}

	perInstallment := req.TotalAmount / int64(req.TotalInstallments)
	if perInstallment == 0 {
		return nil, invoicedomain.ErrInvalidAmount
	}
	perAssignments, perAmount := splitAssignments(req.Assignments, req.TotalInstallments, perInstallment)

	groupID := uuid.NewString()
	description := strings.TrimSpace(req.Description)
	period := billingcycle.Resolve(card.ClosingDay, req.PurchaseDate)
	now := time.Now().UTC()

	var items []invoicedomain.InvoiceItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for n := start; n <= req.TotalInstallments; n++ {
			invoice, err := s.getOrCreateTx(ctx, tx, card, period)
			if err != nil {
				return err
			}

			item := invoicedomain.InvoiceItem{
				ID:                 s.genID.Generate(),
				UserID:             req.UserID,
				InvoiceID:          invoice.ID,
				CardID:             card.ID,
				Description:        fmt.Sprintf("%s (%d/%d)", description, n, req.TotalInstallments),
				Amount:             perAmount,
				CategoryID:         req.CategoryID,
				AuthorID:           req.AuthorID,
				PurchaseDate:       req.PurchaseDate,
				IsInstallment:      true,
				InstallmentNumber:  n,
				TotalInstallments:  req.TotalInstallments,
				InstallmentGroupID: &groupID,
				CreatedAt:          now,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			if err := s.insertAssignments(tx, &item, perAssignments); err != nil {
				return err
			}
			if err := s.addToInvoiceTotal(tx, invoice.ID, item.Amount); err != nil {
				return err
			}

			items = append(items, item)
			period = period.Advance()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("installment sequence created",
		zap.String("group_id", groupID),
		zap.Int("count", len(items)),
	)
	s.emitAudit(ctx, req.UserID, "installments.created", groupID, map[string]any{
		"card_id": card.ID.String(),
		"count":   len(items),
	})
	return items, nil
}

// DeleteInstallmentGroup removes every item in the sequence, paid or not,
// and rolls their amounts out of the affected invoices.
func (s *Service) DeleteInstallmentGroup(ctx context.Context, userID snowflake.ID, groupID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []invoicedomain.InvoiceItem
		err := tx.Preload("Assignments").
			Where("user_id = ? AND installment_group_id = ?", userID, groupID).
			Find(&items).Error
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return invoicedomain.ErrInstallmentGroupNotFound
		}

		for _, item := range items {
			if err := s.removeItemTx(tx, item); err != nil {
				return err
			}
		}

		s.emitAudit(ctx, userID, "installments.deleted", groupID, map[string]any{
			"count": len(items),
		})
		return nil
	})
}

// splitAssignments divides each assignment across the sequence with the
// same truncating division used for the item amount. When a split is
// present the per-installment amount is the sum of the slices, keeping the
// assignment-sum invariant intact even when truncations disagree.
func splitAssignments(inputs []invoicedomain.AssignmentInput, count int, perInstallment int64) ([]invoicedomain.AssignmentInput, int64) {
	if len(inputs) == 0 {
		return nil, perInstallment
	}
	out := make([]invoicedomain.AssignmentInput, 0, len(inputs))
	var sum int64
	for _, input := range inputs {
		slice := input.Amount / int64(count)
		out = append(out, invoicedomain.AssignmentInput{
			AuthorID: input.AuthorID,
			Amount:   slice,
		})
		sum += slice
	}
	return out, sum
}
