package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/handler"
	"tripdispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler         *handler.TripHandler
	ReassignmentHandler *handler.ReassignmentHandler
	QuoteHandler        *handler.QuoteHandler
	RatingHandler       *handler.RatingHandler
	PaymentHandler      *handler.PaymentHandler
	DriverHandler       *handler.DriverHandler
	Authenticator       *middleware.Authenticator
	RedisClient         redis.Cmdable // Optional: nil disables Idempotency-Key replay.
	NewRelicApp         *newrelic.Application
	AllowOrigins        []string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = deps.AllowOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"*"}
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "Idempotency-Key")
	corsConfig.ExposeHeaders = []string{"Idempotent-Replayed"}
	router.Use(cors.New(corsConfig))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.Use(deps.Authenticator.Auth())
	if deps.RedisClient != nil {
		v1.Use(middleware.Idempotency(deps.RedisClient))
	}

	admin := middleware.RequireRole(domain.RoleAdmin)
	staff := middleware.RequireRole(domain.RoleDriver, domain.RoleAdmin)

	{
		trips := v1.Group("/trips")
		trips.POST("", deps.TripHandler.CreateTrip)
		trips.GET("", deps.TripHandler.ListTrips)
		trips.GET("/:id", deps.TripHandler.GetTrip)
		trips.GET("/:id/events", deps.TripHandler.ListEvents)
		trips.POST("/:id/assign", deps.TripHandler.AssignDriver)
		trips.POST("/:id/accept", deps.TripHandler.Accept)
		trips.POST("/:id/start", deps.TripHandler.Start)
		trips.POST("/:id/reject", deps.TripHandler.Reject)
		trips.POST("/:id/complete", deps.TripHandler.Complete)
		trips.POST("/:id/cancel", deps.TripHandler.Cancel)

		trips.POST("/:id/pay", deps.PaymentHandler.PayTrip)

		trips.GET("/:id/rating", deps.RatingHandler.GetRatingStatus)
		trips.POST("/:id/rating", deps.RatingHandler.SubmitRating)

		trips.GET("/:id/reassignment/candidates", admin, deps.ReassignmentHandler.ListCandidates)
		trips.POST("/:id/reassignment", admin, deps.ReassignmentHandler.Reassign)
		trips.POST("/:id/reassignment/cancel", admin, deps.ReassignmentHandler.Cancel)
	}

	{
		v1.POST("/quotes", deps.QuoteHandler.Quote)
		v1.POST("/promotions/preview", deps.QuoteHandler.PreviewPromo)
		v1.GET("/candidates/drivers", deps.QuoteHandler.NearbyDrivers)
		v1.GET("/candidates/vehicles", deps.QuoteHandler.NearbyVehicles)
		v1.GET("/places/search", deps.QuoteHandler.SearchPlaces)
		v1.GET("/places/reverse", deps.QuoteHandler.ReversePlace)
	}

	{
		v1.GET("/ratings/pending", deps.RatingHandler.ListUnrated)
		v1.GET("/payments/:id", admin, deps.PaymentHandler.GetPayment)
	}

	{
		drivers := v1.Group("/drivers", staff)
		drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
		drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)

		v1.POST("/vehicles/:id/location", staff, deps.DriverHandler.UpdateVehicleLocation)
	}

	return router
}
