package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"civiclink-be/models"
	"civiclink-be/services"
	"civiclink-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIssue handles the creation of a new issue from a multipart submission
func CreateIssue(c *gin.Context) {
	actingUser, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Title       string   `form:"title" binding:"required,max=200"`
		Description string   `form:"description" binding:"required,max=1000"`
		Category    string   `form:"category" binding:"required"`
		Latitude    *float64 `form:"latitude" binding:"required"`
		Longitude   *float64 `form:"longitude" binding:"required"`
		Address     string   `form:"address" binding:"required,max=300"`
	}

	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if !models.ValidCategories[models.IssueCategory(input.Category)] {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category"})
		return
	}

	if err := services.ValidateCoordinates(*input.Longitude, *input.Latitude); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// Image is required and must pass the type/size policy before anything
	// is written to either store
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Image is required"})
		return
	}
	if err := utils.ValidateImage(file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	imageURL, err := utils.SaveImage(file)
	if err != nil {
		log.Println("Error saving image:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to store image"})
		return
	}

	now := time.Now()
	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		UserID:      actingUser,
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(input.Category),
		Location:    models.NewGeoPoint(*input.Longitude, *input.Latitude),
		Address:     input.Address,
		ImageURL:    imageURL,
		Status:      models.Open,
		Upvotes:     []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := getCollection("issues").InsertOne(ctx, issue); err != nil {
		log.Println("Error inserting issue:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create issue"})
		return
	}

	// Reporter credit. Separate write from the issue insert, no cross-record
	// transaction.
	_, err = getCollection("users").UpdateOne(ctx,
		bson.M{"_id": actingUser},
		bson.M{"$inc": bson.M{"issuesReported": 1, "karma": models.KarmaReportIssue}},
	)
	if err != nil {
		log.Println("Error updating reporter stats:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Issue created successfully",
		"issue":   issueResponse(ctx, issue),
	})
}

// GetIssues retrieves issues with optional proximity, category and status
// filters and a configurable sort order
func GetIssues(c *gin.Context) {
	filter, err := services.BuildIssueFilter(
		c.Query("lat"),
		c.Query("lng"),
		c.Query("radius"),
		c.Query("category"),
		c.Query("status"),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	sortBy := c.DefaultQuery("sortBy", "newest")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := getCollection("issues")

	// Upvote-count ordering has to happen server side so the result cap
	// applies after the sort, not to a pre-sorted recency window
	var issues []models.Issue
	if sortBy == "upvotes" {
		cursor, err := issueCollection.Aggregate(ctx, services.UpvoteSortPipeline(filter, models.IssueListLimit))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
			return
		}
		defer cursor.Close(ctx)

		if err := cursor.All(ctx, &issues); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode issues"})
			return
		}
	} else {
		findOptions := options.Find().
			SetSort(services.SortOptions(sortBy)).
			SetLimit(int64(models.IssueListLimit))

		cursor, err := issueCollection.Find(ctx, filter, findOptions)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issues"})
			return
		}
		defer cursor.Close(ctx)

		if err := cursor.All(ctx, &issues); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode issues"})
			return
		}
	}

	response := make([]gin.H, 0, len(issues))
	for _, issue := range issues {
		response = append(response, issueResponse(ctx, issue))
	}

	c.JSON(http.StatusOK, response)
}

// GetIssue retrieves a single issue by its ID
func GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = getCollection("issues").FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	c.JSON(http.StatusOK, issueResponse(ctx, issue))
}

// UpvoteIssue toggles the acting user's upvote on an issue. Adding grants the
// issue owner karma, removing takes the same amount back, so a toggle pair is
// always net zero.
func UpvoteIssue(c *gin.Context) {
	actingUser, ok := currentUserID(c)
	if !ok {
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := getCollection("issues")

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	// $addToSet/$pull keep the membership mutation atomic per document; the
	// paired karma $inc on the owner is a separate write (no cross-record
	// transaction), so a crash between the two can leave them diverged.
	hasUpvoted := issue.HasUpvoted(actingUser)

	var update bson.M
	var karmaDelta int
	var message string
	if hasUpvoted {
		update = bson.M{
			"$pull": bson.M{"upvotes": actingUser},
			"$set":  bson.M{"updatedAt": time.Now()},
		}
		karmaDelta = -models.KarmaUpvote
		message = "Upvote removed"
	} else {
		update = bson.M{
			"$addToSet": bson.M{"upvotes": actingUser},
			"$set":      bson.M{"updatedAt": time.Now()},
		}
		karmaDelta = models.KarmaUpvote
		message = "Issue upvoted"
	}

	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update upvote"})
		return
	}

	_, err = getCollection("users").UpdateOne(ctx,
		bson.M{"_id": issue.UserID},
		bson.M{"$inc": bson.M{"karma": karmaDelta}},
	)
	if err != nil {
		log.Println("Error updating owner karma:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"issue":   issueResponse(ctx, issue),
	})
}

// ResolveIssue transitions an open issue to its terminal resolved state with
// an attached proof image. Any authenticated user may resolve any issue; the
// resolver, not the reporter, receives the credit.
func ResolveIssue(c *gin.Context) {
	actingUser, ok := currentUserID(c)
	if !ok {
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		return
	}

	file, err := c.FormFile("proofImage")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Proof image is required"})
		return
	}
	if err := utils.ValidateImage(file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	description := c.PostForm("description")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := getCollection("issues")

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve issue"})
		}
		return
	}

	// Resolved is terminal, re-resolving would re-grant karma
	if issue.Status == models.Resolved {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Issue already resolved"})
		return
	}

	proofURL, err := utils.SaveImage(file)
	if err != nil {
		log.Println("Error saving proof image:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to store proof image"})
		return
	}

	proof := models.ResolvedProof{
		ImageURL:    proofURL,
		Description: description,
		ResolvedAt:  time.Now(),
		ResolvedBy:  actingUser,
	}

	update := bson.M{"$set": bson.M{
		"status":        models.Resolved,
		"resolvedProof": proof,
		"updatedAt":     time.Now(),
	}}

	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to resolve issue"})
		return
	}

	// Resolver credit
	_, err = getCollection("users").UpdateOne(ctx,
		bson.M{"_id": actingUser},
		bson.M{"$inc": bson.M{"issuesResolved": 1, "karma": models.KarmaResolveIssue}},
	)
	if err != nil {
		log.Println("Error updating resolver stats:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	issue.Status = models.Resolved
	issue.ResolvedProof = &proof

	c.JSON(http.StatusOK, gin.H{
		"message": "Issue marked as resolved",
		"issue":   issueResponse(ctx, issue),
	})
}
