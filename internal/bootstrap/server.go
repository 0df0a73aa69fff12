package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/vaxbooking/api"
	"github.com/Domenick1991/vaxbooking/config"
	"github.com/Domenick1991/vaxbooking/internal/service/booking"
	"github.com/Domenick1991/vaxbooking/internal/service/clinical"
	"github.com/Domenick1991/vaxbooking/internal/service/payment"
	"github.com/Domenick1991/vaxbooking/internal/service/staffing"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Services struct {
	Bookings booking.BookingUseCase
	Payments payment.PaymentUseCase
	Staffing staffing.StaffingUseCase
	Clinical clinical.ClinicalUseCase
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, svc),
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

func newRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	bookingHandler := api.NewBookingHandler(svc.Bookings)
	paymentHandler := api.NewPaymentHandler(svc.Payments)
	staffingHandler := api.NewStaffingHandler(svc.Staffing)
	clinicalHandler := api.NewClinicalHandler(svc.Clinical)

	v1 := router.Group("/v1")

	bookings := v1.Group("/bookings")
	bookings.Use(api.ActorAuth(cfg.Auth.JWTSecret))
	bookingHandler.Register(bookings)
	staffingHandler.Register(bookings)
	clinicalHandler.Register(bookings)

	orders := v1.Group("/orders")
	orders.Use(api.ActorAuth(cfg.Auth.JWTSecret))
	paymentHandler.RegisterOrders(orders)

	// Processor callback; authenticated out-of-band by the processor.
	payments := v1.Group("/payments")
	paymentHandler.RegisterWebhook(payments)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/vaxbooking.swagger.json"),
		)))
	}

	return router
}
