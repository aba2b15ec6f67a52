package service

import (
	"context"
	"testing"
	"time"

	carddomain "github.com/billfold/billfold/internal/card/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&carddomain.Card{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.ItemAssignment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	}).(*Service)
	return svc, db
}

func createTestCard(t *testing.T, db *gorm.DB, userID snowflake.ID, closingDay, dueDay int) carddomain.Card {
	t.Helper()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	card := carddomain.Card{
		ID:         node.Generate(),
		UserID:     userID,
		Name:       "Nubank",
		ClosingDay: closingDay,
		DueDay:     dueDay,
		Active:     true,
	}
	require.NoError(t, db.Create(&card).Error)
	return card
}

func TestGetOrCreate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	first, err := svc.GetOrCreate(ctx, userID, card.ID, time.June, 2025)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusOpen, first.Status)
	assert.Equal(t, 6, first.ReferenceMonth)
	assert.Equal(t, 2025, first.ReferenceYear)
	assert.Equal(t, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), first.ClosingDate)
	assert.Equal(t, time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC), first.DueDate)

	second, err := svc.GetOrCreate(ctx, userID, card.ID, time.June, 2025)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateUnknownCard(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetOrCreate(context.Background(), 100, 999, time.June, 2025)
	assert.ErrorIs(t, err, carddomain.ErrNotFound)
}

func TestActiveForCard(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	t.Run("before closing day", func(t *testing.T) {
		invoice, err := svc.ActiveForCard(ctx, userID, card.ID, time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 5, invoice.ReferenceMonth)
		assert.Equal(t, 2025, invoice.ReferenceYear)
	})

	t.Run("after closing day rolls forward", func(t *testing.T) {
		invoice, err := svc.ActiveForCard(ctx, userID, card.ID, time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 6, invoice.ReferenceMonth)
		assert.Equal(t, 2025, invoice.ReferenceYear)
	})

	t.Run("december rolls into next year", func(t *testing.T) {
		invoice, err := svc.ActiveForCard(ctx, userID, card.ID, time.Date(2025, time.December, 28, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 1, invoice.ReferenceMonth)
		assert.Equal(t, 2026, invoice.ReferenceYear)
	})
}

func TestCreateItem(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)
	authorID := snowflake.ID(200)

	item, err := svc.CreateItem(ctx, invoicedomain.CreateItemRequest{
		UserID:       userID,
		CardID:       card.ID,
		Description:  "groceries",
		Amount:       4550,
		AuthorID:     authorID,
		PurchaseDate: time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "groceries", item.Description)
	assert.EqualValues(t, 4550, item.Amount)
	assert.False(t, item.IsInstallment)

	invoice, err := svc.GetByID(ctx, userID, item.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, 5, invoice.ReferenceMonth)
	assert.EqualValues(t, 4550, invoice.TotalAmount)
	require.Len(t, invoice.Items, 1)
}

func TestCreateItemValidation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	base := invoicedomain.CreateItemRequest{
		UserID:       userID,
		CardID:       card.ID,
		Description:  "dinner",
		Amount:       8000,
		AuthorID:     200,
		PurchaseDate: time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	}

	t.Run("empty description", func(t *testing.T) {
		req := base
		req.Description = "  "
		_, err := svc.CreateItem(ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrInvalidDescription)
	})

	t.Run("non positive amount", func(t *testing.T) {
		req := base
		req.Amount = 0
		_, err := svc.CreateItem(ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrInvalidAmount)
	})

	t.Run("assignment sum mismatch", func(t *testing.T) {
		req := base
		req.Assignments = []invoicedomain.AssignmentInput{
			{AuthorID: 200, Amount: 5000},
			{AuthorID: 201, Amount: 2000},
		}
		_, err := svc.CreateItem(ctx, req)
		assert.ErrorIs(t, err, invoicedomain.ErrAssignmentSumMismatch)
	})

	t.Run("assignments matching amount", func(t *testing.T) {
		req := base
		req.Assignments = []invoicedomain.AssignmentInput{
			{AuthorID: 200, Amount: 6000},
			{AuthorID: 201, Amount: 2000},
		}
		item, err := svc.CreateItem(ctx, req)
		require.NoError(t, err)
		assert.Len(t, item.Assignments, 2)
	})
}

func TestPayItemWhole(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	item, err := svc.CreateItem(ctx, invoicedomain.CreateItemRequest{
		UserID:       userID,
		CardID:       card.ID,
		Description:  "streaming",
		Amount:       3990,
		AuthorID:     200,
		PurchaseDate: time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, svc.PayItem(ctx, invoicedomain.PayItemRequest{UserID: userID, ItemID: item.ID}))

	invoice, err := svc.GetByID(ctx, userID, item.InvoiceID)
	require.NoError(t, err)
	assert.EqualValues(t, 3990, invoice.PaidAmount)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, invoice.Status)
	require.Len(t, invoice.Items, 1)
	assert.True(t, invoice.Items[0].IsPaid)

	// Paying again is a no-op.
	require.NoError(t, svc.PayItem(ctx, invoicedomain.PayItemRequest{UserID: userID, ItemID: item.ID}))
	invoice, err = svc.GetByID(ctx, userID, item.InvoiceID)
	require.NoError(t, err)
	assert.EqualValues(t, 3990, invoice.PaidAmount)
}

func TestPayItemSingleAssignment(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)
	alice := snowflake.ID(200)
	bob := snowflake.ID(201)

	item, err := svc.CreateItem(ctx, invoicedomain.CreateItemRequest{
		UserID:       userID,
		CardID:       card.ID,
		Description:  "dinner",
		Amount:       10000,
		AuthorID:     alice,
		PurchaseDate: time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
		Assignments: []invoicedomain.AssignmentInput{
			{AuthorID: alice, Amount: 6000},
			{AuthorID: bob, Amount: 4000},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.PayItem(ctx, invoicedomain.PayItemRequest{
		UserID:   userID,
		ItemID:   item.ID,
		AuthorID: &bob,
	}))

	invoice, err := svc.GetByID(ctx, userID, item.InvoiceID)
	require.NoError(t, err)
	assert.EqualValues(t, 4000, invoice.PaidAmount)
	assert.Equal(t, invoicedomain.InvoiceStatusOpen, invoice.Status)
	require.Len(t, invoice.Items, 1)
	assert.False(t, invoice.Items[0].IsPaid)

	// Settling the last assignment marks the item paid too.
	require.NoError(t, svc.PayItem(ctx, invoicedomain.PayItemRequest{
		UserID:   userID,
		ItemID:   item.ID,
		AuthorID: &alice,
	}))
	invoice, err = svc.GetByID(ctx, userID, item.InvoiceID)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, invoice.PaidAmount)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, invoice.Status)
	assert.True(t, invoice.Items[0].IsPaid)
}

func TestPayItemUnknownAssignment(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	item, err := svc.CreateItem(ctx, invoicedomain.CreateItemRequest{
		UserID:       userID,
		CardID:       card.ID,
		Description:  "dinner",
		Amount:       10000,
		AuthorID:     200,
		PurchaseDate: time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	stranger := snowflake.ID(999)
	err = svc.PayItem(ctx, invoicedomain.PayItemRequest{
		UserID:   userID,
		ItemID:   item.ID,
		AuthorID: &stranger,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrAssignmentNotFound)
}

func TestDeleteItem(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	item, err := svc.CreateItem(ctx, invoicedomain.CreateItemRequest{
		UserID:       userID,
		CardID:       card.ID,
		Description:  "gadget",
		Amount:       25000,
		AuthorID:     200,
		PurchaseDate: time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, userID, item.ID))

	invoice, err := svc.GetByID(ctx, userID, item.InvoiceID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, invoice.TotalAmount)
	assert.Empty(t, invoice.Items)

	assert.ErrorIs(t, svc.DeleteItem(ctx, userID, item.ID), invoicedomain.ErrItemNotFound)
}

func TestCloseInvoice(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	invoice, err := svc.GetOrCreate(ctx, userID, card.ID, time.May, 2025)
	require.NoError(t, err)

	require.NoError(t, svc.CloseInvoice(ctx, userID, invoice.ID))

	got, err := svc.GetByID(ctx, userID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusClosed, got.Status)

	assert.ErrorIs(t, svc.CloseInvoice(ctx, userID, invoice.ID), invoicedomain.ErrInvalidStatusTransition)
}

func TestMarkOverdue(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(100)
	card := createTestCard(t, db, userID, 15, 10)

	past, err := svc.GetOrCreate(ctx, userID, card.ID, time.March, 2025)
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, invoicedomain.CreateItemRequest{
		UserID:       userID,
		CardID:       card.ID,
		Description:  "groceries",
		Amount:       5000,
		AuthorID:     200,
		PurchaseDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	future, err := svc.GetOrCreate(ctx, userID, card.ID, time.December, 2025)
	require.NoError(t, err)

	flagged, err := svc.MarkOverdue(ctx, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	got, err := svc.GetByID(ctx, userID, past.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, got.Status)

	got, err = svc.GetByID(ctx, userID, future.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusOpen, got.Status)

	// Running again finds nothing new.
	flagged, err = svc.MarkOverdue(ctx, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
}
