package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicedesk/internal/audit"
	auditdomain "github.com/smallbiznis/invoicedesk/internal/audit/domain"
	"github.com/smallbiznis/invoicedesk/internal/authorization"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/deletelog"
	deletelogdomain "github.com/smallbiznis/invoicedesk/internal/deletelog/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability"
	obslogger "github.com/smallbiznis/invoicedesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"github.com/smallbiznis/invoicedesk/internal/providers"
	"github.com/smallbiznis/invoicedesk/internal/ratelimit"
	"github.com/smallbiznis/invoicedesk/internal/redislock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	redislock.Module,
	ratelimit.Module,
	providers.Module,
	authorization.Module,
	audit.Module,
	invoice.Module,
	deletelog.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Verbose(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Verbose() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service
	invoiceSvc   invoicedomain.Service
	deleteLogSvc deletelogdomain.Service
	limiter      *ratelimit.ActorLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	AuthzSvc     authorization.Service
	AuditSvc     auditdomain.Service
	InvoiceSvc   invoicedomain.Service
	DeleteLogSvc deletelogdomain.Service
	Limiter      *ratelimit.ActorLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		authzSvc:     p.AuthzSvc,
		auditSvc:     p.AuditSvc,
		invoiceSvc:   p.InvoiceSvc,
		deleteLogSvc: p.DeleteLogSvc,
		limiter:      p.Limiter,
	}
	svc.registerAPIRoutes()
	svc.registerFallback()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(ActorRequired())
	api.Use(RateLimited(s.limiter))

	// -------- Invoices --------
	api.POST("/invoices/totals", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ComputeTotals)
	api.POST("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceCreate), s.CreateInvoice)
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	api.GET("/invoices/counts", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.CountInvoices)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceUpdate), s.UpdateInvoice)
	api.GET("/invoices/:id/pdf", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.DownloadInvoicePDF)
	api.POST("/invoices/:id/send", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceSend), s.SendInvoice)
	api.POST("/invoices/:id/dispute", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceDispute), s.DisputeInvoice)
	api.POST("/invoices/:id/dispute/resolve", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceResolveDispute), s.ResolveInvoiceDispute)
	api.POST("/invoices/:id/cancel", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceCancel), s.CancelInvoice)
	api.DELETE("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceDelete), s.DeleteInvoice)

	// -------- Payments --------
	api.POST("/invoices/:id/payments", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentApply), s.ApplyPayment)
	api.GET("/invoices/:id/payments/:payment_id/receipt", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentView), s.DownloadPaymentReceipt)
	api.GET("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentView), s.ListPaymentHistory)

	// -------- Delete log --------
	api.GET("/deleted-invoices", s.authorize(authorization.ObjectDeleteLog, authorization.ActionDeleteLogView), s.ListDeletedInvoices)
	api.GET("/deleted-invoices/:id", s.authorize(authorization.ObjectDeleteLog, authorization.ActionDeleteLogView), s.GetDeletedInvoice)
	api.POST("/deleted-invoices/:id/restore", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceRestore), s.RestoreInvoice)

	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
