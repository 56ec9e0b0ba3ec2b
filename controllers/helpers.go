package controllers

import (
	"context"
	"net/http"

	"civiclink-be/config"
	"civiclink-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// getCollection is an indirection over config.GetCollection so handler tests
// can point the package at a mock deployment
var getCollection = config.GetCollection

// currentUserID extracts the authenticated user's id set by the auth
// middleware. On failure it writes the error response and returns ok=false.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return primitive.NilObjectID, false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid user ID"})
		return primitive.NilObjectID, false
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid user ID"})
		return primitive.NilObjectID, false
	}

	return objID, true
}

// publicUser resolves a user reference to its public identity for response
// denormalization. Lookup failures leave just the id, mirroring a dangling
// reference rather than failing the whole request.
func publicUser(ctx context.Context, id primitive.ObjectID) gin.H {
	out := gin.H{"id": id}

	var user models.User
	if err := getCollection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&user); err == nil {
		out["username"] = user.Username
		out["avatar"] = user.Avatar
	}

	return out
}

// issueResponse shapes an issue for the wire with owner (and resolver, when
// present) identities resolved
func issueResponse(ctx context.Context, issue models.Issue) gin.H {
	upvotes := issue.Upvotes
	if upvotes == nil {
		upvotes = []primitive.ObjectID{}
	}

	resp := gin.H{
		"id":          issue.ID,
		"userId":      publicUser(ctx, issue.UserID),
		"title":       issue.Title,
		"description": issue.Description,
		"category":    issue.Category,
		"location":    issue.Location,
		"address":     issue.Address,
		"imageUrl":    issue.ImageURL,
		"status":      issue.Status,
		"upvotes":     upvotes,
		"createdAt":   issue.CreatedAt,
		"updatedAt":   issue.UpdatedAt,
	}

	if issue.ResolvedProof != nil {
		resp["resolvedProof"] = gin.H{
			"imageUrl":    issue.ResolvedProof.ImageURL,
			"description": issue.ResolvedProof.Description,
			"resolvedAt":  issue.ResolvedProof.ResolvedAt,
			"resolvedBy":  publicUser(ctx, issue.ResolvedProof.ResolvedBy),
		}
	}

	return resp
}
