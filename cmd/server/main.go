package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/config"
	"github.com/seatgrid/booking-backend/internal/database"
	"github.com/seatgrid/booking-backend/internal/engine"
	"github.com/seatgrid/booking-backend/internal/handler"
	"github.com/seatgrid/booking-backend/internal/lockstore"
	"github.com/seatgrid/booking-backend/internal/middleware"
	"github.com/seatgrid/booking-backend/internal/payment"
	"github.com/seatgrid/booking-backend/internal/queue"
	"github.com/seatgrid/booking-backend/internal/repository"
	"github.com/seatgrid/booking-backend/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	// The lock store is the concurrency gate; without Redis the
	// reservation pipeline cannot run at all.
	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	apps := repository.NewAppRepo(db)
	users := repository.NewUserRepo(db)
	seats := repository.NewSeatRepo(db)
	reservations := repository.NewReservationRepo(db)
	bookings := repository.NewBookingRepo(db)
	locks := lockstore.New(rdb, cfg.LockTTL)
	orders := payment.NewOrders(rdb, cfg.LockTTL, cfg.PaymentKey)
	verifier := payment.NewVerifier(cfg)

	eng := engine.New(locks, seats, reservations, bookings, orders, verifier,
		queue.PublishBookingConfirmed, cfg.LockTTL)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JanitorEnabled {
		go engine.NewJanitor(reservations, cfg.LockTTL).Run(rootCtx)
	}
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterAPI(e, router.Handlers{
		Seats:        handler.NewSeatHandler(eng),
		Reservations: handler.NewReservationHandler(eng),
		Orders:       handler.NewOrderHandler(eng),
		Bookings:     handler.NewBookingHandler(eng),
	}, router.Gate(apps, users, cfg.UserTokenSecret, cfg.DefaultOrigins, limiter)...)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, payment=%s)", addr, cfg.Env, cfg.PaymentMode)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
