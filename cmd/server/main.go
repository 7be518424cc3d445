package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/smart-parking-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/smart-parking-reservation/internal/database"   // MySQL pool setup
	"github.com/iliyamo/smart-parking-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/smart-parking-reservation/internal/middleware" // rate limiting
	"github.com/iliyamo/smart-parking-reservation/internal/queue"      // booking event consumer
	"github.com/iliyamo/smart-parking-reservation/internal/repository" // data access layer
	"github.com/iliyamo/smart-parking-reservation/internal/router"     // Internal router setup
)

func main() {
	// Absence of a .env file is fine in containerized deployments.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the OTP store.  A nil client
	// disables rate limiting and makes OTP endpoints report 503.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting disabled, otp store offline")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	otps := repository.NewOTPRepo(rdb)
	vehicles := repository.NewVehicleRepo(db)
	parkings := repository.NewParkingRepo(db)
	bookings := repository.NewBookingRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens, otps)
	vehicleHandler := handler.NewVehicleHandler(vehicles)
	parkingHandler := handler.NewParkingHandler(parkings)
	bookingHandler := handler.NewBookingHandler(cfg, bookings, parkings, vehicles)
	qrHandler := handler.NewQRHandler(cfg, bookings, parkings)
	adminHandler := handler.NewAdminHandler(bookings)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, parkingHandler, qrHandler)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterCustomer(e, bookingHandler, qrHandler, vehicleHandler, cfg.JWTSecret)
	router.RegisterOwner(e, parkingHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	// The consumer keeps its own reconnect loop; it never takes the
	// server down with it.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
