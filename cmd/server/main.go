// edumanage/cmd/server/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"edumanage/config"
	"edumanage/internal/handlers"
	"edumanage/internal/intake"
	"edumanage/internal/routes"
	"edumanage/models"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config.Load()
	config.ConnectDB()
	config.ConnectRedis()

	if err := config.DB.AutoMigrate(
		&models.Tenant{},
		&models.TenantPortalPassword{},
		&models.User{},
		&models.Profile{},
		&models.Role{},
		&models.Permission{},
		&models.Grade{},
		&models.Student{},
		&models.FeeCategory{},
		&models.FeeStructure{},
		&models.StreamAccount{},
		&models.Transaction{},
		&models.PendingCharge{},
		&models.SubscriptionPayment{},
		&models.TransportRoute{},
		&models.TransportAssignment{},
		&models.MealPlan{},
		&models.MealSubscription{},
	); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	handlers.Pipeline = intake.NewPipeline(intake.NewClient(config.GatewayBaseURL, config.GatewaySecret))
	handlers.Pipeline.StartExpirySweep(context.Background(), config.DB, config.PendingChargeTTL, time.Minute)

	r := gin.Default()
	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Starting server", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Server terminated", "error", err)
		os.Exit(1)
	}
}
