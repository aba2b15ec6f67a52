// Package balance aggregates invoice items into per-person totals. It is
// pure: callers load the items (with assignments) and authors, the package
// only does arithmetic over them.
package balance

import (
	authordomain "github.com/billfold/billfold/internal/author/domain"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
)

// Options narrow whose slice of each item counts.
//
// SharedPinnedAuthorID is set when viewing a shared card: only the pinned
// participant's assignment of each item is visible, never the full price.
// FilterAuthorID is a plain dashboard filter on an owned card.
type Options struct {
	FilterAuthorID       *snowflake.ID
	SharedPinnedAuthorID *snowflake.ID
}

// Share is one item's contribution to a total after options are applied.
type Share struct {
	Amount int64
	Paid   int64
}

// Totals accumulates shares across a set of items.
type Totals struct {
	Total     int64 `json:"total"`
	Paid      int64 `json:"paid"`
	Unpaid    int64 `json:"unpaid"`
	ItemCount int   `json:"item_count"`
}

// AuthorTotal is one person's aggregate over a set of items.
type AuthorTotal struct {
	Author      authordomain.Author `json:"author"`
	Total       int64               `json:"total"`
	UnpaidTotal int64               `json:"unpaid_total"`
	ItemCount   int                 `json:"item_count"`
}

// ResolveAmount returns the visible share of an item, or false when the
// item does not concern the requested view. Resolution order: a shared
// card's pinned assignment wins, then the author filter, then the full
// amount.
func ResolveAmount(item invoicedomain.InvoiceItem, opts Options) (Share, bool) {
	if opts.SharedPinnedAuthorID != nil {
		return authorShare(item, *opts.SharedPinnedAuthorID)
	}
	if opts.FilterAuthorID != nil {
		return authorShare(item, *opts.FilterAuthorID)
	}
	return Share{Amount: item.Amount, Paid: item.PaidPortion()}, true
}

// authorShare resolves one person's slice: their assignment when the item
// is split, the whole item when they authored an unsplit item, nothing
// otherwise.
func authorShare(item invoicedomain.InvoiceItem, authorID snowflake.ID) (Share, bool) {
	if len(item.Assignments) > 0 {
		for _, a := range item.Assignments {
			if a.AuthorID != authorID {
				continue
			}
			share := Share{Amount: a.Amount}
			if a.IsPaid || item.IsPaid {
				share.Paid = a.Amount
			}
			return share, true
		}
		return Share{}, false
	}
	if item.AuthorID == authorID {
		return Share{Amount: item.Amount, Paid: item.PaidPortion()}, true
	}
	return Share{}, false
}

// ComputeTotals sums the visible shares of items. A partially paid split
// contributes only its settled assignments to Paid.
func ComputeTotals(items []invoicedomain.InvoiceItem, opts Options) Totals {
	var totals Totals
	for _, item := range items {
		share, ok := ResolveAmount(item, opts)
		if !ok {
			continue
		}
		totals.Total += share.Amount
		totals.Paid += share.Paid
		totals.ItemCount++
	}
	totals.Unpaid = totals.Total - totals.Paid
	return totals
}

// ComputeAuthorTotals breaks a set of items down per person.
func ComputeAuthorTotals(items []invoicedomain.InvoiceItem, authors []authordomain.Author) []AuthorTotal {
	out := make([]AuthorTotal, 0, len(authors))
	for _, author := range authors {
		id := author.ID
		totals := ComputeTotals(items, Options{FilterAuthorID: &id})
		out = append(out, AuthorTotal{
			Author:      author,
			Total:       totals.Total,
			UnpaidTotal: totals.Unpaid,
			ItemCount:   totals.ItemCount,
		})
	}
	return out
}

// DisplayAuthors lists the distinct first names of the people an item is
// split between, falling back to the item's author for unsplit items.
func DisplayAuthors(item invoicedomain.InvoiceItem, authors []authordomain.Author) []string {
	byID := make(map[snowflake.ID]authordomain.Author, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}

	ids := make([]snowflake.ID, 0, len(item.Assignments))
	if len(item.Assignments) == 0 {
		ids = append(ids, item.AuthorID)
	} else {
		for _, a := range item.Assignments {
			ids = append(ids, a.AuthorID)
		}
	}

	seen := make(map[string]bool, len(ids))
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		author, ok := byID[id]
		if !ok {
			continue
		}
		name := author.FirstName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
