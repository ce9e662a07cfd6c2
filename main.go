package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bounty-board-service/handlers"
	"bounty-board-service/middleware"
	"bounty-board-service/models"
	"bounty-board-service/repository"
	"bounty-board-service/services"
	"bounty-board-service/utils"
	"bounty-board-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, JSON payloads plus avatar uploads
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed - no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-Wallet-Address",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Bounty{},
		&models.BountyHunterEntry{},
		&models.User{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	store := repository.NewGormStore(db)
	userService := services.NewUserService(db)
	bountyService := services.NewBountyService(store, userService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Escrow settlement polling, the only writer of the winner field
	escrowClient := workers.NewEscrowSyncClient(bountyService)
	go workers.PollEscrow(ctx, escrowClient, 10*time.Second)

	bountyService.StartExpiryScheduler()

	handlers.SetupBountyRoutes(app, bountyService)
	handlers.SetupUserRoutes(app, userService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Escrow settlement polling running (every 10s)")
	log.Println("✅ Bounty expiry scheduler running (every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally - all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
