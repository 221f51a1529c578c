package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sportease/sportease/api"
	"github.com/sportease/sportease/config"
	"github.com/sportease/sportease/internal/service/booking"
	"github.com/sportease/sportease/internal/service/user"
	"github.com/sportease/sportease/internal/service/venue"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, venueSvc venue.VenueUseCase, bookingSvc booking.BookingUseCase, userSvc user.UserUseCase) error {
	router := newRouter(cfg, venueSvc, bookingSvc, userSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, venueSvc venue.VenueUseCase, bookingSvc booking.BookingUseCase, userSvc user.UserUseCase) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"app": "sportease", "status": "ok"})
	})

	apiGroup := router.Group("/api")
	api.NewVenueHandler(venueSvc).Register(apiGroup)
	api.NewBookingHandler(bookingSvc).Register(apiGroup)
	api.NewUserHandler(userSvc).Register(apiGroup)

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/sportease.swagger.json"),
		)))
	}

	return router
}
