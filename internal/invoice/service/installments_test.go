package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInstallments(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	items, err := svc.GenerateInstallments(ctx, invoicedomain.GenerateInstallmentsRequest{
		UserID:            userID,
		CardID:            card.ID,
		Description:       "notebook",
		TotalAmount:       120000,
		TotalInstallments: 3,
		AuthorID:          200,
		PurchaseDate:      time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	groupID := items[0].InstallmentGroupID
	require.NotNil(t, groupID)

	for i, item := range items {
		n := i + 1
		assert.Equal(t, fmt.Sprintf("notebook (%d/3)", n), item.Description)
		assert.EqualValues(t, 40000, item.Amount)
		assert.True(t, item.IsInstallment)
		assert.Equal(t, n, item.InstallmentNumber)
		assert.Equal(t, 3, item.TotalInstallments)
		require.NotNil(t, item.InstallmentGroupID)
		assert.Equal(t, *groupID, *item.InstallmentGroupID)
	}

	// Consecutive months starting from the purchase's cycle.
	months := make([]int, 0, 3)
	for _, item := range items {
		var invoice invoicedomain.Invoice
		require.NoError(t, db.First(&invoice, "id = ?", item.InvoiceID).Error)
		months = append(months, invoice.ReferenceMonth)
		assert.EqualValues(t, 40000, invoice.TotalAmount)
	}
	assert.Equal(t, []int{5, 6, 7}, months)
}

func TestGenerateInstallmentsYearRollover(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	items, err := svc.GenerateInstallments(ctx, invoicedomain.GenerateInstallmentsRequest{
		UserID:            userID,
		CardID:            card.ID,
		Description:       "sofa",
		TotalAmount:       90000,
		TotalInstallments: 3,
		AuthorID:          200,
		PurchaseDate:      time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Nov 20 is past the closing day, so the sequence starts in December.
	type period struct{ month, year int }
	periods := make([]period, 0, 3)
	for _, item := range items {
		var invoice invoicedomain.Invoice
		require.NoError(t, db.First(&invoice, "id = ?", item.InvoiceID).Error)
		periods = append(periods, period{invoice.ReferenceMonth, invoice.ReferenceYear})
	}
	assert.Equal(t, []period{{12, 2025}, {1, 2026}, {2, 2026}}, periods)
}

func TestGenerateInstallmentsStartNumber(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	items, err := svc.GenerateInstallments(ctx, invoicedomain.GenerateInstallmentsRequest{
		UserID:            userID,
		CardID:            card.ID,
		Description:       "phone",
		TotalAmount:       120000,
		TotalInstallments: 12,
		StartNumber:       5,
		AuthorID:          200,
		PurchaseDate:      time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, items, 8)

	assert.Equal(t, 5, items[0].InstallmentNumber)
	assert.Equal(t, 12, items[len(items)-1].InstallmentNumber)
	assert.Equal(t, "phone (5/12)", items[0].Description)
	assert.Equal(t, "phone (12/12)", items[len(items)-1].Description)
}

func TestGenerateInstallmentsTruncation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	// 100.00 over 3 truncates to 33.33 each; the sequence sums to 99.99.
	items, err := svc.GenerateInstallments(ctx, invoicedomain.GenerateInstallmentsRequest{
		UserID:            userID,
		CardID:            card.ID,
		Description:       "headphones",
		TotalAmount:       10000,
		TotalInstallments: 3,
		AuthorID:          200,
		PurchaseDate:      time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	var sum int64
	for _, item := range items {
		assert.EqualValues(t, 3333, item.Amount)
		sum += item.Amount
	}
	assert.EqualValues(t, 9999, sum)
}

func TestGenerateInstallmentsSplit(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)
	alice := snowflake.ID(200)
	bob := snowflake.ID(201)

	items, err := svc.GenerateInstallments(ctx, invoicedomain.GenerateInstallmentsRequest{
		UserID:            userID,
		CardID:            card.ID,
		Description:       "trip",
		TotalAmount:       10000,
		TotalInstallments: 3,
		AuthorID:          alice,
		PurchaseDate:      time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
		Assignments: []invoicedomain.AssignmentInput{
			{AuthorID: alice, Amount: 6000},
			{AuthorID: bob, Amount: 4000},
		},
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	for _, item := range items {
		require.Len(t, item.Assignments, 2)
		var assigned int64
		for _, a := range item.Assignments {
			assigned += a.Amount
		}
		assert.Equal(t, item.Amount, assigned)
	}
}

func TestGenerateInstallmentsValidation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	base := invoicedomain.GenerateInstallmentsRequest{
		UserID:            userID,
		CardID:            card.ID,
		Description:       "phone",
		TotalAmount:       120000,
		TotalInstallments: 12,
		AuthorID:          200,
		PurchaseDate:      time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	}

	t.Run("zero installments", func(t *testing.T) {
		req := base
		req.TotalInstallments = 0
		_, err := svc.GenerateInstallments(ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrInvalidInstallments)
	})

	t.Run("start past total", func(t *testing.T) {
		req := base
		req.StartNumber = 13
		_, err := svc.GenerateInstallments(ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrInvalidInstallments)
	})

	t.Run("amount below one cent per installment", func(t *testing.T) {
		req := base
		req.TotalAmount = 5
		req.TotalInstallments = 12
		_, err := svc.GenerateInstallments(ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrInvalidAmount)
	})
}

func TestDeleteInstallmentGroup(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	items, err := svc.GenerateInstallments(ctx, invoicedomain.GenerateInstallmentsRequest{
		UserID:            userID,
		CardID:            card.ID,
		Description:       "notebook",
		TotalAmount:       120000,
		TotalInstallments: 3,
		AuthorID:          200,
		PurchaseDate:      time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	groupID := *items[0].InstallmentGroupID

	// One installment already paid still goes with the group.
	require.NoError(t, svc.PayItem(ctx, invoicedomain.PayItemRequest{UserID: userID, ItemID: items[0].ID}))

	require.NoError(t, svc.DeleteInstallmentGroup(ctx, userID, groupID))

	var count int64
	require.NoError(t, db.Model(&invoicedomain.InvoiceItem{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	for _, item := range items {
		invoice, err := svc.GetByID(ctx, userID, item.InvoiceID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, invoice.TotalAmount)
		assert.EqualValues(t, 0, invoice.PaidAmount)
	}

	assert.ErrorIs(t, svc.DeleteInstallmentGroup(ctx, userID, groupID), invoicedomain.ErrInstallmentGroupNotFound)
}
