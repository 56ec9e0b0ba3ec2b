package routes

import (
	"os"
	"strconv"

	"civiclink-be/controllers"
	"civiclink-be/middlewares"

	"github.com/gin-gonic/gin"
)

// defaultIssueRateLimit caps issue creations per user per day
const defaultIssueRateLimit = 20

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issues")
	{
		issue.POST("", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(issueRateLimit()), controllers.CreateIssue)
		issue.GET("", controllers.GetIssues)
		issue.GET("/:id", controllers.GetIssue)
		issue.POST("/:id/upvote", middlewares.AuthMiddleware(), controllers.UpvoteIssue)
		issue.POST("/:id/resolve", middlewares.AuthMiddleware(), controllers.ResolveIssue)
	}
}

func issueRateLimit() int {
	if v := os.Getenv("ISSUE_RATE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			return limit
		}
	}
	return defaultIssueRateLimit
}
