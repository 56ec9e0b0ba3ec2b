package main

import (
	"log"
	"net/http"
	"os"

	"civiclink-be/config"
	"civiclink-be/models"
	"civiclink-be/routes"
	"civiclink-be/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	defer config.DisconnectDB()

	log.Println("MongoDB connection established successfully!")

	config.ConnectRedis()

	if err := models.EnsureIssueIndexes(config.GetCollection("issues")); err != nil {
		log.Fatalf("Failed to create issue indexes: %v", err)
	}

	uploadDir := utils.UploadDir()
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	// Uploaded issue and proof images are served statically
	r.Static("/uploads", uploadDir)

	routes.AuthRoutes(r)
	routes.IssueRoutes(r)
	routes.UserRoutes(r)

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "CivicLink API is running!"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
