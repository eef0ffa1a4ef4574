package routes

import (
	"net/http"

	"accounts/internal/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRouter initializes all controllers and API routes
func SetupRouter(db *gorm.DB) *gin.Engine {
	accountsController := controllers.NewAccountsController(db)

	router := gin.New()
	router.Use(gin.Recovery())

	// Health check also pings the database
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Group API routes under /api/v1
	api := router.Group("/api/v1")
	{
		companies := api.Group("/companies")
		{
			// GET /api/v1/companies?limit=&offset=
			companies.GET("", accountsController.ListCompanies)

			// GET /api/v1/companies/:number/accounts
			companies.GET("/:number/accounts", accountsController.GetCompanyAccounts)
		}
	}

	return router
}
