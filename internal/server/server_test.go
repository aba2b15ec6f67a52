package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auditdomain "github.com/billfold/billfold/internal/audit/domain"
	auditservice "github.com/billfold/billfold/internal/audit/service"
	authdomain "github.com/billfold/billfold/internal/auth/domain"
	authservice "github.com/billfold/billfold/internal/auth/service"
	"github.com/billfold/billfold/internal/auth/session"
	authordomain "github.com/billfold/billfold/internal/author/domain"
	authorservice "github.com/billfold/billfold/internal/author/service"
	carddomain "github.com/billfold/billfold/internal/card/domain"
	cardservice "github.com/billfold/billfold/internal/card/service"
	categorydomain "github.com/billfold/billfold/internal/category/domain"
	categoryservice "github.com/billfold/billfold/internal/category/service"
	"github.com/billfold/billfold/internal/clock"
	"github.com/billfold/billfold/internal/config"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	invoiceservice "github.com/billfold/billfold/internal/invoice/service"
	"github.com/billfold/billfold/internal/providers/pdf"
	subscriptiondomain "github.com/billfold/billfold/internal/subscription/domain"
	subscriptionservice "github.com/billfold/billfold/internal/subscription/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	engine  *gin.Engine
	clock   *clock.FakeClock
	cookies []*http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&authordomain.Author{},
		&categorydomain.Category{},
		&carddomain.Card{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoicedomain.ItemAssignment{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.SubscriptionAssignment{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	cfg := config.Config{
		SessionTTL: 24 * time.Hour,
	}

	authSvc := authservice.NewService(authservice.ServiceParam{
		DB: db, Log: log, GenID: node, Config: cfg,
	})
	authorSvc := authorservice.NewService(authorservice.ServiceParam{
		DB: db, Log: log, GenID: node,
	})
	categorySvc := categoryservice.NewService(categoryservice.ServiceParam{
		DB: db, Log: log, GenID: node,
	})
	cardSvc := cardservice.NewService(cardservice.ServiceParam{
		DB: db, Log: log, GenID: node,
	})
	auditSvc := auditservice.NewService(auditservice.ServiceParam{
		DB: db, Log: log, GenID: node,
	})
	invoiceSvc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB: db, Log: log, GenID: node, AuditSvc: auditSvc,
	})
	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: db, Log: log, GenID: node,
		InvoiceSvc: invoiceSvc, CategorySvc: categorySvc, AuditSvc: auditSvc,
	})

	fake := clock.NewFakeClock(time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC))

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	NewServer(ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		Sessions:        session.NewManager(cfg),
		Clock:           fake,
		AuthSvc:         authSvc,
		AuthorSvc:       authorSvc,
		CategorySvc:     categorySvc,
		CardSvc:         cardSvc,
		InvoiceSvc:      invoiceSvc,
		SubscriptionSvc: subscriptionSvc,
		AuditSvc:        auditSvc,
		PDFProvider:     pdf.New(),
	})

	return &testEnv{engine: engine, clock: fake}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range e.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		e.cookies = cookies
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *testEnv) signup(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/signup", gin.H{
		"email":    "ana@example.com",
		"name":     "Ana Souza",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func (e *testEnv) ownerAuthorID(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodGet, "/api/authors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	authors := decode(t, w)["authors"].([]any)
	require.NotEmpty(t, authors)
	return authors[0].(map[string]any)["id"].(string)
}

func (e *testEnv) createCard(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/cards", gin.H{
		"name":        "Nubank",
		"closing_day": 15,
		"due_day":     10,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode(t, w)["card"].(map[string]any)["id"].(string)
}

func (e *testEnv) activeInvoiceID(t *testing.T, cardID string) string {
	t.Helper()
	w := e.do(t, http.MethodGet, "/api/cards/"+cardID+"/active-invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	return decode(t, w)["invoice"].(map[string]any)["id"].(string)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	// Unauthenticated requests are rejected.
	w := env.do(t, http.MethodGet, "/api/cards", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env.signup(t)

	// Signup creates the owner author.
	w = env.do(t, http.MethodGet, "/api/authors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	authors := decode(t, w)["authors"].([]any)
	require.Len(t, authors, 1)
	assert.Equal(t, true, authors[0].(map[string]any)["is_owner"])

	// Duplicate signup conflicts.
	w = env.do(t, http.MethodPost, "/auth/signup", gin.H{
		"email":    "ana@example.com",
		"name":     "Ana Souza",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Logout invalidates the session.
	w = env.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/api/cards", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Login with the wrong password fails, with the right one works.
	w = env.do(t, http.MethodPost, "/auth/login", gin.H{
		"email":    "ana@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPost, "/auth/login", gin.H{
		"email":    "ana@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvoiceItemFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t)
	authorID := env.ownerAuthorID(t)
	cardID := env.createCard(t)

	// May 10 with closing day 15 puts the active invoice in May.
	invoiceID := env.activeInvoiceID(t, cardID)

	w := env.do(t, http.MethodPost, "/api/invoices/"+invoiceID+"/items", gin.H{
		"description": "groceries",
		"amount":      4550,
		"author_id":   authorID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	itemID := decode(t, w)["item"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodGet, "/api/invoices/"+invoiceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	invoice := decode(t, w)["invoice"].(map[string]any)
	assert.EqualValues(t, 4550, invoice["total_amount"])

	w = env.do(t, http.MethodPost, "/api/invoice-items/"+itemID+"/pay", gin.H{})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/invoices/"+invoiceID, nil)
	invoice = decode(t, w)["invoice"].(map[string]any)
	assert.EqualValues(t, 4550, invoice["paid_amount"])
	assert.Equal(t, "PAID", invoice["status"])
}

func TestInstallmentFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t)
	authorID := env.ownerAuthorID(t)
	cardID := env.createCard(t)
	invoiceID := env.activeInvoiceID(t, cardID)

	w := env.do(t, http.MethodPost, "/api/invoices/"+invoiceID+"/items", gin.H{
		"description": "notebook",
		"amount":      120000,
		"author_id":   authorID,
		"installments": gin.H{
			"total": 3,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 3)

	first := items[0].(map[string]any)
	assert.Equal(t, "notebook (1/3)", first["description"])
	groupID := first["installment_group_id"].(string)

	w = env.do(t, http.MethodDelete, "/api/installment-groups/"+groupID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/invoices/"+invoiceID, nil)
	invoice := decode(t, w)["invoice"].(map[string]any)
	assert.EqualValues(t, 0, invoice["total_amount"])
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t)
	authorID := env.ownerAuthorID(t)
	cardID := env.createCard(t)
	invoiceID := env.activeInvoiceID(t, cardID)

	w := env.do(t, http.MethodPost, "/api/invoices/"+invoiceID+"/items", gin.H{
		"description": "dinner",
		"amount":      10000,
		"author_id":   authorID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/dashboard?card_id=%s", cardID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	totals := body["totals"].(map[string]any)
	assert.EqualValues(t, 10000, totals["total"])
	assert.EqualValues(t, 10000, totals["unpaid"])

	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, []any{"Ana"}, items[0].(map[string]any)["authors"].([]any))
}

func TestInvoicePDF(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t)
	authorID := env.ownerAuthorID(t)
	cardID := env.createCard(t)
	invoiceID := env.activeInvoiceID(t, cardID)

	w := env.do(t, http.MethodPost, "/api/invoices/"+invoiceID+"/items", gin.H{
		"description": "groceries",
		"amount":      4550,
		"author_id":   authorID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/invoices/"+invoiceID+"/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestSubscriptionRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t)
	authorID := env.ownerAuthorID(t)
	cardID := env.createCard(t)

	w := env.do(t, http.MethodPost, "/api/subscriptions", gin.H{
		"card_id":     cardID,
		"description": "Spotify",
		"amount":      2190,
		"billing_day": 5,
		"author_id":   authorID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	subID := decode(t, w)["subscription"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/subscriptions/"+subID+"/pause", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/subscriptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	subs := decode(t, w)["subscriptions"].([]any)
	require.Len(t, subs, 1)
	assert.Equal(t, true, subs[0].(map[string]any)["paused"])
}
