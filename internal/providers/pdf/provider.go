// Package pdf renders invoice statements.
package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
}

// StatementData is a fully formatted invoice ready for rendering. Amounts
// arrive as display strings so the renderer stays free of money logic.
type StatementData struct {
	CardName  string
	Reference string
	Closing   string
	Due       string
	Status    string

	Items []StatementItem

	Total     string
	Paid      string
	Remaining string
}

type StatementItem struct {
	Description  string
	Author       string
	PurchaseDate string
	Amount       string
}
