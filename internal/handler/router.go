package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"villa-booking/internal/domain/user"
	"villa-booking/internal/handler/api"
	"villa-booking/internal/handler/middleware"
	"villa-booking/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Payment      *api.PaymentHandler
	Booking      *api.BookingHandler
	Availability *api.AvailabilityHandler
	Pricing      *api.PricingHandler
	Coupon       *api.CouponHandler
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *middleware.Logger,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	registry *prometheus.Registry,
) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, h, authMiddleware, registry)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware, registry *prometheus.Registry) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		addRoutes(apiGroup, []route{
			{Method: http.MethodGet, Path: "/properties/:id/availability", Handler: h.Availability.Check},
			{Method: http.MethodPost, Path: "/pricing/quote", Handler: h.Pricing.Quote},
		})

		payment := apiGroup.Group("/payment")
		payment.Use(authMiddleware.RequireAuth())
		{
			addRoutes(payment, []route{
				{Method: http.MethodPost, Path: "/order", Handler: h.Payment.CreateOrder},
				{Method: http.MethodPost, Path: "/verify", Handler: h.Payment.Verify},
			})
		}

		bookings := apiGroup.Group("/bookings")
		bookings.Use(authMiddleware.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Booking.ListMine},
				{Method: http.MethodPost, Path: "/cancel", Handler: h.Booking.Cancel},
				{Method: http.MethodGet, Path: "/:id", Handler: h.Booking.Get},
				{Method: http.MethodGet, Path: "/:id/invoice", Handler: h.Booking.Invoice},
			})
		}

		host := apiGroup.Group("/host")
		host.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole(user.RoleHost, user.RoleAdmin))
		{
			addRoutes(host, []route{
				{Method: http.MethodGet, Path: "/bookings", Handler: h.Booking.ListForHost},
				{Method: http.MethodPost, Path: "/coupons", Handler: h.Coupon.CreateHost},
				{Method: http.MethodGet, Path: "/coupons", Handler: h.Coupon.ListHost},
			})
		}

		admin := apiGroup.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole(user.RoleAdmin))
		{
			addRoutes(admin, []route{
				{Method: http.MethodGet, Path: "/bookings", Handler: h.Booking.ListAll},
				{Method: http.MethodPost, Path: "/coupons", Handler: h.Coupon.CreatePlatform},
				{Method: http.MethodGet, Path: "/coupons", Handler: h.Coupon.ListPlatform},
				{Method: http.MethodPatch, Path: "/coupons/:id", Handler: h.Coupon.SetActive},
				{Method: http.MethodDelete, Path: "/coupons/:id", Handler: h.Coupon.Delete},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
