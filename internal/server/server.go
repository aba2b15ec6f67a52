// Package server exposes the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	auditdomain "github.com/billfold/billfold/internal/audit/domain"
	authdomain "github.com/billfold/billfold/internal/auth/domain"
	"github.com/billfold/billfold/internal/auth/session"
	authordomain "github.com/billfold/billfold/internal/author/domain"
	carddomain "github.com/billfold/billfold/internal/card/domain"
	categorydomain "github.com/billfold/billfold/internal/category/domain"
	"github.com/billfold/billfold/internal/clock"
	"github.com/billfold/billfold/internal/config"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	obslogger "github.com/billfold/billfold/internal/observability/logger"
	obsmetrics "github.com/billfold/billfold/internal/observability/metrics"
	"github.com/billfold/billfold/internal/providers/pdf"
	subscriptiondomain "github.com/billfold/billfold/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{Debug: cfg.Debug()}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	sessions *session.Manager
	clock    clock.Clock

	authSvc         authdomain.Service
	authorSvc       authordomain.Service
	categorySvc     categorydomain.Service
	cardSvc         carddomain.Service
	invoiceSvc      invoicedomain.Service
	subscriptionSvc subscriptiondomain.Service
	auditSvc        auditdomain.Service
	pdfProvider     pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Sessions *session.Manager
	Clock    clock.Clock

	AuthSvc         authdomain.Service
	AuthorSvc       authordomain.Service
	CategorySvc     categorydomain.Service
	CardSvc         carddomain.Service
	InvoiceSvc      invoicedomain.Service
	SubscriptionSvc subscriptiondomain.Service
	AuditSvc        auditdomain.Service
	PDFProvider     pdf.Provider
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		sessions:        p.Sessions,
		clock:           p.Clock,
		authSvc:         p.AuthSvc,
		authorSvc:       p.AuthorSvc,
		categorySvc:     p.CategorySvc,
		cardSvc:         p.CardSvc,
		invoiceSvc:      p.InvoiceSvc,
		subscriptionSvc: p.SubscriptionSvc,
		auditSvc:        p.AuditSvc,
		pdfProvider:     p.PDFProvider,
	}

	s.registerAuthRoutes()
	s.registerAPIRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Authors --------
	api.GET("/authors", s.ListAuthors)
	api.POST("/authors", s.CreateAuthor)
	api.GET("/authors/:id", s.GetAuthorByID)
	api.PATCH("/authors/:id", s.UpdateAuthor)
	api.DELETE("/authors/:id", s.DeleteAuthor)

	// -------- Categories --------
	api.GET("/categories", s.ListCategories)
	api.POST("/categories", s.CreateCategory)
	api.PATCH("/categories/:id", s.UpdateCategory)
	api.DELETE("/categories/:id", s.DeleteCategory)

	// -------- Cards --------
	api.GET("/cards", s.ListCards)
	api.POST("/cards", s.CreateCard)
	api.GET("/cards/:id", s.GetCardByID)
	api.PATCH("/cards/:id", s.UpdateCard)
	api.DELETE("/cards/:id", s.DeleteCard)
	api.GET("/cards/:id/active-invoice", s.GetActiveInvoice)
	api.GET("/cards/:id/invoices", s.ListCardInvoices)

	// -------- Invoices --------
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.POST("/invoices/:id/items", s.CreateInvoiceItem)
	api.POST("/invoices/:id/close", s.CloseInvoice)
	api.GET("/invoices/:id/pdf", s.GetInvoicePDF)

	// -------- Items --------
	api.DELETE("/invoice-items/:id", s.DeleteInvoiceItem)
	api.POST("/invoice-items/:id/pay", s.PayInvoiceItem)
	api.DELETE("/installment-groups/:id", s.DeleteInstallmentGroup)

	// -------- Subscriptions --------
	api.GET("/subscriptions", s.ListSubscriptions)
	api.POST("/subscriptions", s.CreateSubscription)
	api.GET("/subscriptions/:id", s.GetSubscriptionByID)
	api.PATCH("/subscriptions/:id", s.UpdateSubscription)
	api.DELETE("/subscriptions/:id", s.DeleteSubscription)
	api.POST("/subscriptions/:id/pause", s.PauseSubscription)
	api.POST("/subscriptions/:id/resume", s.ResumeSubscription)

	// -------- Dashboard --------
	api.GET("/dashboard", s.GetDashboard)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}
