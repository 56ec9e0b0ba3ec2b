package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IssueCategory enum
type IssueCategory string

const (
	Pothole     IssueCategory = "pothole"
	Streetlight IssueCategory = "streetlight"
	Garbage     IssueCategory = "garbage"
	Water       IssueCategory = "water"
	Sewage      IssueCategory = "sewage"
	OtherIssue  IssueCategory = "other"
)

// IssueStatus enum
type IssueStatus string

const (
	Open     IssueStatus = "open"
	Resolved IssueStatus = "resolved"
)

// ValidCategories lists the accepted category tags
var ValidCategories = map[IssueCategory]bool{
	Pothole: true, Streetlight: true, Garbage: true,
	Water: true, Sewage: true, OtherIssue: true,
}

// GeoPoint is a GeoJSON Point: coordinates are [longitude, latitude]
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

// ResolvedProof is present only on resolved issues
type ResolvedProof struct {
	ImageURL    string             `bson:"imageUrl" json:"imageUrl"`
	Description string             `bson:"description" json:"description"`
	ResolvedAt  time.Time          `bson:"resolvedAt" json:"resolvedAt"`
	ResolvedBy  primitive.ObjectID `bson:"resolvedBy" json:"resolvedBy"`
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID   `bson:"userId" json:"userId"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Category      IssueCategory        `bson:"category" json:"category"`
	Location      GeoPoint             `bson:"location" json:"location"`
	Address       string               `bson:"address" json:"address"`
	ImageURL      string               `bson:"imageUrl" json:"imageUrl"`
	Status        IssueStatus          `bson:"status" json:"status"`
	Upvotes       []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	ResolvedProof *ResolvedProof       `bson:"resolvedProof,omitempty" json:"resolvedProof,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasUpvoted reports whether the given user is in the upvote set
func (i *Issue) HasUpvoted(userID primitive.ObjectID) bool {
	for _, id := range i.Upvotes {
		if id == userID {
			return true
		}
	}
	return false
}

// EnsureIssueIndexes creates the 2dsphere index required for proximity queries
func EnsureIssueIndexes(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
