package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/infrastructure/config"
	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/interfaces/http/handler"
	"github.com/multipos/console/internal/interfaces/http/middleware"
)

// Metrics is what the engine needs from the metrics registry.
type Metrics interface {
	middleware.HTTPObserver
	Handler() http.Handler
}

// Exports is the export service as the handlers use it.
type Exports interface {
	handler.Exporter
	handler.FormatLister
}

// Deps are the collaborators of the BFF engine. Metrics, Limiter and
// Files are optional.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Tokens     middleware.Principals
	Workspaces middleware.Workspaces
	Exports    Exports
	System     *handler.SystemHandler
	Metrics    Metrics
	Limiter    *limiter.Limiter
	// Files serves in-process stored exports under /files when set.
	Files      handler.FileStore
}

// NewEngine builds the gin engine with the global middleware chain and
// every /api/v1 route.
func NewEngine(d Deps) *gin.Engine {
	cfg := d.Config
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(d.Logger),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		logger.GinMiddleware(d.Logger),
		middleware.CORS(cfg.HTTP),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)
	if d.Metrics != nil {
		engine.Use(middleware.Metrics(d.Metrics))
	}
	engine.NoRoute(func(c *gin.Context) {
		(&handler.BaseHandler{}).NotFound(c, "Route not found")
	})

	r := NewRouter(engine)
	r.Register(systemRoutes(d))

	authed := []gin.HandlerFunc{
		middleware.Authenticate(d.Tokens, d.Workspaces),
		middleware.TraceAttributes(),
	}
	if d.Limiter != nil {
		authed = append(authed, middleware.RateLimit(d.Limiter))
	}

	capabilities := handler.NewCapabilityHandler(d.Exports)
	screens := handler.NewScreenHandler()
	exports := handler.NewExportHandler(d.Exports)
	resources := handler.NewResourceHandler()
	pos := handler.NewPOSHandler()
	settings := handler.NewSettingsHandler()
	ledger := handler.NewLedgerHandler()

	r.Register(NewDomainGroup("capabilities", "/capabilities").Use(authed...).
		GET("", capabilities.Get))

	r.Register(NewDomainGroup("screens", "/screens").Use(authed...).
		GET("", screens.List).
		GET("/:screen", screens.Get))

	r.Register(NewDomainGroup("exports", "/exports").Use(authed...).
		GET("/history", middleware.RequireCapability(identity.ResExports, identity.ActRead), exports.History).
		GET("/:resource", exports.Export))

	r.Register(NewDomainGroup("resources", "/resources").Use(authed...).
		POST("/:resource", middleware.RequireParamCapability("resource", identity.ActCreate), resources.Create).
		PUT("/:resource/:id", middleware.RequireParamCapability("resource", identity.ActUpdate), resources.Update).
		DELETE("/:resource/:id", middleware.RequireParamCapability("resource", identity.ActDelete), resources.Delete))

	posGroup := NewDomainGroup("pos", "/pos").Use(authed...)
	posGroup.
		GET("/held", middleware.RequireCapability(identity.ResHeldBills, identity.ActRead), pos.ListHeld).
		POST("/held", middleware.RequireCapability(identity.ResHeldBills, identity.ActCreate), pos.Hold).
		POST("/held/:id/resume", middleware.RequireCapability(identity.ResHeldBills, identity.ActDelete), pos.Resume).
		GET("/terminals/:id/tabs", middleware.RequireCapability(identity.ResTabs, identity.ActRead), pos.ListTabs).
		POST("/terminals/:id/tabs", middleware.RequireCapability(identity.ResTabs, identity.ActCreate), pos.OpenTab)
	r.Register(posGroup)

	r.Register(NewDomainGroup("settings", "/settings").Use(authed...).
		GET("/:scopeType/:scopeId", middleware.RequireCapability(identity.ResSettings, identity.ActRead), settings.Get).
		PUT("/:scopeType/:scopeId", middleware.RequireCapability(identity.ResSettings, identity.ActUpdate), settings.Update))

	const account = "/:scopeType/:scopeId/:partyType/:partyId"
	r.Register(NewDomainGroup("ledger", "/ledger").Use(authed...).
		GET(account, middleware.RequireCapability(identity.ResLedger, identity.ActRead), ledger.Entries).
		GET(account+"/balance", middleware.RequireCapability(identity.ResLedger, identity.ActRead), ledger.Balance).
		POST(account+"/debit", middleware.RequireCapability(identity.ResLedger, identity.ActCreate), ledger.Debit).
		POST(account+"/credit", middleware.RequireCapability(identity.ResLedger, identity.ActCreate), ledger.Credit))

	r.Setup()
	return engine
}

func systemRoutes(d Deps) *DomainGroup {
	g := NewDomainGroup("system", "")
	if d.System != nil {
		g.GET("/health", d.System.Health)
	}
	if d.Metrics != nil {
		g.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	if d.Files != nil {
		g.GET("/files/*key", handler.NewFileHandler(d.Files).Download)
	}
	return g
}
