package routes

import (
	"civiclink-be/controllers"
	"civiclink-be/middlewares"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the user profile, leaderboard and stats routes
func UserRoutes(r *gin.Engine) {
	user := r.Group("/api/users")
	{
		user.GET("/profile/:id", controllers.GetProfile)
		user.GET("/leaderboard", controllers.GetLeaderboard)
		user.GET("/stats", middlewares.AuthMiddleware(), controllers.GetStats)
	}
}
