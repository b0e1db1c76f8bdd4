package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/festivo/vendorbooking/api"
	"github.com/festivo/vendorbooking/config"
	"github.com/festivo/vendorbooking/internal/service/booking"
	"github.com/festivo/vendorbooking/internal/service/ledger"
	"github.com/festivo/vendorbooking/internal/service/review"
	"github.com/gin-gonic/gin"
)

// Run wires the HTTP router and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, ledgerSvc ledger.LedgerUseCase, reviewSvc review.ReviewUseCase) error {
	router := gin.Default()

	v1 := router.Group("/api/v1")
	v1.Use(api.AuthMiddleware(cfg.Auth.JWTSecret))

	bookings := v1.Group("/bookings")
	vendors := v1.Group("/vendors")

	api.NewBookingHandler(bookingSvc).Register(bookings)
	api.NewOTPHandler(bookingSvc).Register(bookings)
	api.NewReviewHandler(reviewSvc).Register(bookings, vendors)
	api.NewAvailabilityHandler(ledgerSvc).Register(v1)

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
