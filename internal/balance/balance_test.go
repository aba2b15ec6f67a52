package balance

import (
	"testing"

	authordomain "github.com/billfold/billfold/internal/author/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

var (
	alice = snowflake.ID(1)
	bob   = snowflake.ID(2)
)

func splitItem(amount int64, bobPaid bool) invoicedomain.InvoiceItem {
	return invoicedomain.InvoiceItem{
		Amount:   amount,
		AuthorID: alice,
		Assignments: []invoicedomain.ItemAssignment{
			{AuthorID: alice, Amount: amount * 6 / 10},
			{AuthorID: bob, Amount: amount * 4 / 10, IsPaid: bobPaid},
		},
	}
}

func TestResolveAmountFullView(t *testing.T) {
	item := splitItem(10000, true)

	share, ok := ResolveAmount(item, Options{})
	assert.True(t, ok)
	assert.EqualValues(t, 10000, share.Amount)
	assert.EqualValues(t, 4000, share.Paid)
}

func TestResolveAmountAuthorFilter(t *testing.T) {
	item := splitItem(10000, true)

	t.Run("assignment slice", func(t *testing.T) {
		share, ok := ResolveAmount(item, Options{FilterAuthorID: &bob})
		assert.True(t, ok)
		assert.EqualValues(t, 4000, share.Amount)
		assert.EqualValues(t, 4000, share.Paid)
	})

	t.Run("unpaid slice", func(t *testing.T) {
		share, ok := ResolveAmount(item, Options{FilterAuthorID: &alice})
		assert.True(t, ok)
		assert.EqualValues(t, 6000, share.Amount)
		assert.EqualValues(t, 0, share.Paid)
	})

	t.Run("stranger excluded", func(t *testing.T) {
		carol := snowflake.ID(9)
		_, ok := ResolveAmount(item, Options{FilterAuthorID: &carol})
		assert.False(t, ok)
	})

	t.Run("unsplit item matches its author", func(t *testing.T) {
		plain := invoicedomain.InvoiceItem{Amount: 5000, AuthorID: alice}
		share, ok := ResolveAmount(plain, Options{FilterAuthorID: &alice})
		assert.True(t, ok)
		assert.EqualValues(t, 5000, share.Amount)

		_, ok = ResolveAmount(plain, Options{FilterAuthorID: &bob})
		assert.False(t, ok)
	})
}

func TestResolveAmountSharedCardPinned(t *testing.T) {
	item := splitItem(10000, false)

	// The pinned participant sees their slice, never the full price.
	share, ok := ResolveAmount(item, Options{SharedPinnedAuthorID: &bob})
	assert.True(t, ok)
	assert.EqualValues(t, 4000, share.Amount)

	// The pin wins over any filter.
	share, ok = ResolveAmount(item, Options{SharedPinnedAuthorID: &bob, FilterAuthorID: &alice})
	assert.True(t, ok)
	assert.EqualValues(t, 4000, share.Amount)
}

func TestComputeTotalsPartialPayments(t *testing.T) {
	items := []invoicedomain.InvoiceItem{
		splitItem(10000, true),
	}

	totals := ComputeTotals(items, Options{})
	assert.EqualValues(t, 10000, totals.Total)
	assert.EqualValues(t, 4000, totals.Paid)
	assert.EqualValues(t, 6000, totals.Unpaid)
	assert.Equal(t, 1, totals.ItemCount)
}

func TestComputeTotalsPaidItem(t *testing.T) {
	item := splitItem(10000, false)
	item.IsPaid = true

	totals := ComputeTotals([]invoicedomain.InvoiceItem{item}, Options{})
	assert.EqualValues(t, 10000, totals.Total)
	assert.EqualValues(t, 10000, totals.Paid)
	assert.EqualValues(t, 0, totals.Unpaid)
}

func TestComputeAuthorTotals(t *testing.T) {
	authors := []authordomain.Author{
		{ID: alice, Name: "Alice Lima"},
		{ID: bob, Name: "Bob Souza"},
	}
	items := []invoicedomain.InvoiceItem{
		splitItem(10000, true),
		{Amount: 5000, AuthorID: alice},
	}

	totals := ComputeAuthorTotals(items, authors)
	assert.Len(t, totals, 2)

	assert.EqualValues(t, 11000, totals[0].Total)
	assert.EqualValues(t, 11000, totals[0].UnpaidTotal)
	assert.Equal(t, 2, totals[0].ItemCount)

	assert.EqualValues(t, 4000, totals[1].Total)
	assert.EqualValues(t, 0, totals[1].UnpaidTotal)
	assert.Equal(t, 1, totals[1].ItemCount)
}

func TestDisplayAuthors(t *testing.T) {
	authors := []authordomain.Author{
		{ID: alice, Name: "Alice Lima"},
		{ID: bob, Name: "Bob Souza"},
	}

	t.Run("split item", func(t *testing.T) {
		names := DisplayAuthors(splitItem(10000, false), authors)
		assert.Equal(t, []string{"Alice", "Bob"}, names)
	})

	t.Run("unsplit item falls back to its author", func(t *testing.T) {
		item := invoicedomain.InvoiceItem{Amount: 5000, AuthorID: bob}
		names := DisplayAuthors(item, authors)
		assert.Equal(t, []string{"Bob"}, names)
	})

	t.Run("unknown author skipped", func(t *testing.T) {
		item := invoicedomain.InvoiceItem{Amount: 5000, AuthorID: snowflake.ID(9)}
		names := DisplayAuthors(item, authors)
		assert.Empty(t, names)
	})
}
