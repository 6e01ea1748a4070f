package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/tableflow/config"
	"github.com/yeremiapane/tableflow/events"
	"github.com/yeremiapane/tableflow/middlewares"
	"github.com/yeremiapane/tableflow/models"
	"github.com/yeremiapane/tableflow/router"
	"github.com/yeremiapane/tableflow/services"
	"github.com/yeremiapane/tableflow/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}
	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	if os.Getenv("SEED_DATA") == "true" {
		seedData(db)
	}

	// Hub websocket dibuat sekali di sini dan di-inject ke semua service
	hub := events.NewHub()

	// Sweep periodik untuk rekonsiliasi status meja; kebenaran expiry tetap
	// dari evaluasi lazy di session ledger
	tableSvc := services.NewTableService(db, hub)
	sessionSvc := services.NewSessionService(db, hub, tableSvc)
	monitor := services.NewSessionMonitor(db, sessionSvc)
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(db, hub)

	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Session{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}

// seedData mengisi data awal untuk demo/development.
func seedData(db *gorm.DB) {
	var tableCount int64
	db.Model(&models.Table{}).Count(&tableCount)
	if tableCount > 0 {
		return
	}

	hub := events.NewHub()
	tables := services.NewTableService(db, hub)
	for i := 1; i <= 10; i++ {
		capacity := 2
		if i > 4 {
			capacity = 4
		}
		if i > 8 {
			capacity = 6
		}
		if _, err := tables.Create(i, capacity); err != nil {
			utils.ErrorLogger.Printf("Error seeding table %d: %v", i, err)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err == nil {
		db.Create(&models.User{
			Name:     "Restaurant Admin",
			Email:    "admin@restaurant.com",
			Password: string(hashed),
			Role:     "admin",
		})
	}

	menuItems := []models.MenuItem{
		{Name: "Pad Thai", Price: 12.99, FoodType: "main", IsAvailable: true},
		{Name: "Green Curry", Price: 11.50, FoodType: "main", IsAvailable: true},
		{Name: "Spring Rolls", Price: 6.99, FoodType: "appetizer", IsAvailable: true},
		{Name: "Mango Sticky Rice", Price: 8.99, FoodType: "dessert", IsAvailable: true},
		{Name: "Thai Iced Tea", Price: 3.99, FoodType: "drink", IsAvailable: true},
	}
	for i := range menuItems {
		db.Create(&menuItems[i])
	}

	utils.InfoLogger.Println("Seed data created.")
}
