package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mediplant/storefront/internal/cart"
	"github.com/mediplant/storefront/internal/catalog"
	"github.com/mediplant/storefront/internal/config"
	"github.com/mediplant/storefront/internal/db"
	"github.com/mediplant/storefront/internal/handler"
	"github.com/mediplant/storefront/internal/order"
	"github.com/mediplant/storefront/internal/ratelimit"
	"github.com/mediplant/storefront/internal/review"
	"github.com/mediplant/storefront/internal/transport"
	"github.com/mediplant/storefront/internal/user"
	"github.com/mediplant/storefront/internal/wishlist"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "mediplant").Logger()

	log.Info().Msg("MediPlant storefront starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	userSvc := user.NewService(user.NewRepository(pg.Pool), cfg.Session.TTL)
	catalogSvc := catalog.NewService(catalog.NewRepository(pg.Pool))
	cartSvc := cart.NewService(cart.NewRepository(pg.Pool))
	reviewSvc := review.NewService(review.NewRepository(pg.Pool))
	wishlistSvc := wishlist.NewService(wishlist.NewRepository(pg.Pool))
	orderSvc := order.NewService(order.NewRepository(pg.Pool), cartSvc, order.PricingConfig{
		TaxRate:               cfg.Pricing.TaxRate,
		ShippingCharge:        cfg.Pricing.ShippingCharge,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		TaxOnShipping:         cfg.Pricing.TaxOnShipping,
	})

	router := transport.NewRouter(transport.Handlers{
		Users:    handler.NewUserHandler(userSvc),
		Catalog:  handler.NewCatalogHandler(catalogSvc, reviewSvc),
		Cart:     handler.NewCartHandler(cartSvc),
		Orders:   handler.NewOrderHandler(orderSvc),
		Reviews:  handler.NewReviewHandler(reviewSvc),
		Wishlist: handler.NewWishlistHandler(wishlistSvc),
		Auth:     handler.NewAuthMiddleware(userSvc),
		Limiter:  ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillInterval),
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("MediPlant storefront stopped gracefully")
}
