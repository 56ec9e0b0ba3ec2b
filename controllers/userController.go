package controllers

import (
	"context"
	"net/http"
	"time"

	"civiclink-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetProfile returns a user's public profile together with the issues they
// reported, newest first
func GetProfile(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = getCollection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve user"})
		}
		return
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := getCollection("issues").Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode issues"})
		return
	}

	issueList := make([]gin.H, 0, len(issues))
	for _, issue := range issues {
		issueList = append(issueList, issueResponse(ctx, issue))
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"issues": issueList,
	})
}

// GetLeaderboard returns the top contributors by karma
func GetLeaderboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "karma", Value: -1}}).
		SetLimit(int64(models.LeaderboardLimit))

	cursor, err := getCollection("users").Find(ctx, bson.M{}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve leaderboard"})
		return
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0, models.LeaderboardLimit)
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode leaderboard"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetStats returns the authenticated user's contribution statistics. The
// upvote total is recomputed from the upvote sets of their issues on every
// call rather than kept as a stored counter.
func GetStats(c *gin.Context) {
	actingUser, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := getCollection("users").FindOne(ctx, bson.M{"_id": actingUser}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve user"})
		return
	}

	issueCollection := getCollection("issues")

	totalIssues, err := issueCollection.CountDocuments(ctx, bson.M{"userId": actingUser})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count issues"})
		return
	}

	resolvedIssues, err := issueCollection.CountDocuments(ctx, bson.M{
		"userId": actingUser,
		"status": models.Resolved,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count resolved issues"})
		return
	}

	// Fan-in aggregation over the user's issues
	pipeline := []bson.M{
		{"$match": bson.M{"userId": actingUser}},
		{"$project": bson.M{"upvoteCount": bson.M{"$size": "$upvotes"}}},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$upvoteCount"}}},
	}

	aggCursor, err := issueCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to aggregate upvotes"})
		return
	}
	defer aggCursor.Close(ctx)

	totalUpvotes := int32(0)
	var aggResults []struct {
		Total int32 `bson:"total"`
	}
	if err := aggCursor.All(ctx, &aggResults); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode upvote totals"})
		return
	}
	if len(aggResults) > 0 {
		totalUpvotes = aggResults[0].Total
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
		"stats": gin.H{
			"totalIssues":    totalIssues,
			"resolvedIssues": resolvedIssues,
			"totalUpvotes":   totalUpvotes,
		},
	})
}
