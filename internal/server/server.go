package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	assignmentdomain "github.com/smallbiznis/leadhub/internal/assignment/domain"
	auditdomain "github.com/smallbiznis/leadhub/internal/audit/domain"
	"github.com/smallbiznis/leadhub/internal/auth/session"
	"github.com/smallbiznis/leadhub/internal/authorization"
	bundledomain "github.com/smallbiznis/leadhub/internal/bundle/domain"
	catalogdomain "github.com/smallbiznis/leadhub/internal/catalog/domain"
	"github.com/smallbiznis/leadhub/internal/config"
	leaddomain "github.com/smallbiznis/leadhub/internal/lead/domain"
	ledgerdomain "github.com/smallbiznis/leadhub/internal/ledger/domain"
	notificationdomain "github.com/smallbiznis/leadhub/internal/notification/domain"
	"github.com/smallbiznis/leadhub/internal/observability"
	obsmiddleware "github.com/smallbiznis/leadhub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/leadhub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/leadhub/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/leadhub/internal/payment/domain"
	"github.com/smallbiznis/leadhub/internal/ratelimit"
	userdomain "github.com/smallbiznis/leadhub/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
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
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	sessions        *session.Manager
	limiter         *ratelimit.Limiter
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	userSvc         userdomain.Service
	catalogSvc      catalogdomain.Service
	bundleSvc       bundledomain.Service
	leadSvc         leaddomain.Service
	assignmentSvc   assignmentdomain.Service
	ledgerSvc       ledgerdomain.Service
	notificationSvc notificationdomain.Service
	paymentSvc      paymentdomain.Service
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Sessions        *session.Manager
	Limiter         *ratelimit.Limiter `optional:"true"`
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	UserSvc         userdomain.Service
	CatalogSvc      catalogdomain.Service
	BundleSvc       bundledomain.Service
	LeadSvc         leaddomain.Service
	AssignmentSvc   assignmentdomain.Service
	LedgerSvc       ledgerdomain.Service
	NotificationSvc notificationdomain.Service
	PaymentSvc      paymentdomain.Service
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		sessions:        p.Sessions,
		limiter:         p.Limiter,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		userSvc:         p.UserSvc,
		catalogSvc:      p.CatalogSvc,
		bundleSvc:       p.BundleSvc,
		leadSvc:         p.LeadSvc,
		assignmentSvc:   p.AssignmentSvc,
		ledgerSvc:       p.LedgerSvc,
		notificationSvc: p.NotificationSvc,
		paymentSvc:      p.PaymentSvc,
		obsMetrics:      p.ObsMetrics,
	}
}

func (s *Server) RegisterRoutes() {
	policies := s.limiter.Policies()

	authGroup := s.engine.Group("/auth")
	authGroup.POST("/register", s.Register)
	authGroup.POST("/login", s.rateLimit(policies.Login, clientIPKey), s.Login)
	authGroup.POST("/logout", s.Logout)

	public := s.engine.Group("/api")
	public.GET("/categories", s.ListCategories)
	public.GET("/services", s.ListServices)
	public.POST("/payments/webhook", s.rateLimit(policies.Webhook, clientIPKey), s.HandlePaymentWebhook)

	api := s.engine.Group("/api", s.AuthRequired())
	api.GET("/me", s.authorize(authorization.ObjectUser, authorization.ActionUserViewSelf), s.Me)

	api.POST("/leads",
		s.authorize(authorization.ObjectLead, authorization.ActionLeadCreate),
		s.rateLimit(policies.LeadCreate, principalKey),
		s.CreateLead,
	)
	api.GET("/leads", s.authorize(authorization.ObjectLead, authorization.ActionLeadViewOwn), s.ListMyLeads)
	api.GET("/leads/:id", s.authorize(authorization.ObjectLead, authorization.ActionLeadViewOwn), s.GetLead)
	api.POST("/leads/:id/complete", s.authorize(authorization.ObjectLead, authorization.ActionLeadComplete), s.CompleteLead)
	api.POST("/leads/:id/issue", s.authorize(authorization.ObjectLead, authorization.ActionLeadReportIssue), s.ReportLeadIssue)

	api.GET("/assignments", s.authorize(authorization.ObjectAssignment, authorization.ActionAssignmentViewOwn), s.ListMyAssignments)
	api.POST("/assignments/:id/respond", s.authorize(authorization.ObjectAssignment, authorization.ActionAssignmentRespond), s.RespondAssignment)

	api.GET("/bundles", s.authorize(authorization.ObjectBundle, authorization.ActionBundleView), s.ListBundles)
	api.POST("/payments", s.authorize(authorization.ObjectTransaction, authorization.ActionTransactionInitiate), s.InitiatePayment)
	api.GET("/payments", s.authorize(authorization.ObjectTransaction, authorization.ActionTransactionViewOwn), s.ListMyPayments)
	api.GET("/payments/:id", s.authorize(authorization.ObjectTransaction, authorization.ActionTransactionViewOwn), s.GetPayment)
	api.GET("/payments/:id/receipt", s.authorize(authorization.ObjectTransaction, authorization.ActionTransactionViewOwn), s.DownloadReceipt)

	api.GET("/credits", s.authorize(authorization.ObjectLedger, authorization.ActionLedgerViewOwn), s.ListMyCredits)

	api.GET("/notifications", s.authorize(authorization.ObjectNotification, authorization.ActionNotificationView), s.ListNotifications)
	api.POST("/notifications/:id/read", s.authorize(authorization.ObjectNotification, authorization.ActionNotificationView), s.MarkNotificationRead)

	s.registerAdminRoutes()
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AuthRequired())

	admin.GET("/leads", s.authorize(authorization.ObjectLead, authorization.ActionLeadViewAll), s.AdminListLeads)
	admin.GET("/leads/:id", s.authorize(authorization.ObjectLead, authorization.ActionLeadViewAll), s.GetLead)
	admin.GET("/leads/:id/assignments", s.authorize(authorization.ObjectAssignment, authorization.ActionAssignmentViewAll), s.AdminListLeadAssignments)

	admin.POST("/assignments", s.authorize(authorization.ObjectAssignment, authorization.ActionAssignmentAssign), s.AdminAssignLead)
	admin.GET("/assignments", s.authorize(authorization.ObjectAssignment, authorization.ActionAssignmentViewAll), s.AdminListAssignments)
	admin.POST("/assignments/expire", s.authorize(authorization.ObjectAssignment, authorization.ActionAssignmentExpire), s.AdminExpireAssignments)

	catalog := admin.Group("", s.authorize(authorization.ObjectCatalog, authorization.ActionCatalogManage))
	catalog.GET("/categories", s.AdminListCategories)
	catalog.POST("/categories", s.AdminCreateCategory)
	catalog.PATCH("/categories/:id", s.AdminUpdateCategory)
	catalog.GET("/services", s.AdminListServices)
	catalog.POST("/services", s.AdminCreateService)
	catalog.PATCH("/services/:id", s.AdminUpdateService)

	bundles := admin.Group("/bundles", s.authorize(authorization.ObjectBundle, authorization.ActionBundleManage))
	bundles.GET("", s.AdminListBundles)
	bundles.POST("", s.AdminCreateBundle)
	bundles.PATCH("/:id", s.AdminUpdateBundle)

	admin.GET("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.AdminListUsers)
	admin.POST("/users/:id/status", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.AdminSetUserStatus)
	admin.POST("/users/:id/trust-score", s.authorize(authorization.ObjectUser, authorization.ActionUserTrustScore), s.AdminSetTrustScore)

	admin.GET("/transactions", s.authorize(authorization.ObjectTransaction, authorization.ActionTransactionViewAll), s.AdminListPayments)
	admin.GET("/transactions/:id", s.authorize(authorization.ObjectTransaction, authorization.ActionTransactionViewAll), s.GetPayment)

	admin.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
