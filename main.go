package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"leaderboard-service/handlers"
	"leaderboard-service/middleware"
	"leaderboard-service/models"
	"leaderboard-service/services"
	"leaderboard-service/utils"
	"leaderboard-service/workers"

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

	settings := utils.LoadSettings()

	app := fiber.New(fiber.Config{
		AppName: "leaderboard-service",
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
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
		AllowOrigins: strings.Join(allowedOriginsList, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID, X-User-Roles",
		MaxAge:       86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	// The snapshot table is the only schema this service owns. The
	// tournament/match/registration tables belong to external collaborators
	// and are read, never migrated, here.
	if err := db.AutoMigrate(&models.LeaderboardSnapshot{}); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	tables := services.NewTableSet()
	if err := tables.LoadScoringTables(settings.ScoringTablesJSON); err != nil {
		log.Fatal("invalid scoring configuration: ", err)
	}

	archiver, err := utils.NewR2Archiver()
	if err != nil {
		log.Fatal("failed to initialize R2 client: ", err)
	}
	if archiver == nil {
		log.Println("⚠️  R2 archive export not configured — daily snapshot archives disabled")
	}

	recordStore := services.NewGormRecordStore(db)
	computer := services.NewLeaderboardComputer(recordStore, tables)
	cacheLayer := services.NewCacheLayer(services.NewMemoryCache(), computer, settings)
	snapshotService := services.NewSnapshotService(computer, recordStore, services.NewGormSnapshotStore(db), archiver, settings)
	leaderboardService := services.NewLeaderboardService(cacheLayer, snapshotService, settings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers.StartSnapshotScheduler(ctx, snapshotService, settings.SnapshotHourUTC)

	handlers.SetupLeaderboardRoutes(app, leaderboardService, snapshotService, settings)

	go func() {
		if err := app.Listen(settings.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Leaderboard service running on %s", settings.ListenAddr)
	log.Printf("✅ Feature flags: computation=%t cache=%t api=%t", settings.ComputationEnabled, settings.CacheEnabled, settings.APIEnabled)
	log.Printf("✅ Scoring tables registered: default + %v", tables.Formats())
	log.Printf("✅ Daily snapshot scheduled for %02d:00 UTC", settings.SnapshotHourUTC)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
