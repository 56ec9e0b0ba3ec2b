// Package services holds the pure filter-and-sort composition consumed by the
// issue handlers. Nothing here talks to the datastore.
package services

import (
	"errors"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

// DefaultRadiusKm is applied when a proximity filter gives no radius
const DefaultRadiusKm = 10.0

var (
	ErrInvalidLatitude  = errors.New("latitude must be a number between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be a number between -180 and 180")
	ErrInvalidRadius    = errors.New("radius must be a positive number of kilometers")
)

// ValidateCoordinates checks a longitude/latitude pair against valid ranges
func ValidateCoordinates(longitude, latitude float64) error {
	if longitude < -180 || longitude > 180 {
		return ErrInvalidLongitude
	}
	if latitude < -90 || latitude > 90 {
		return ErrInvalidLatitude
	}
	return nil
}

// BuildIssueFilter composes the Mongo query document for issue listing from
// raw query string values. All filters are optional and independently
// composable; the sentinel "all" (or an empty value) disables the category and
// status filters. When both lat and lng are given the filter restricts results
// to issues within radius kilometers of the center ($maxDistance is inclusive
// at the boundary).
func BuildIssueFilter(lat, lng, radius, category, status string) (bson.M, error) {
	filter := bson.M{}

	if lat != "" && lng != "" {
		latitude, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return nil, ErrInvalidLatitude
		}
		longitude, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return nil, ErrInvalidLongitude
		}
		if err := ValidateCoordinates(longitude, latitude); err != nil {
			return nil, err
		}

		radiusKm := DefaultRadiusKm
		if radius != "" {
			radiusKm, err = strconv.ParseFloat(radius, 64)
			if err != nil || radiusKm <= 0 {
				return nil, ErrInvalidRadius
			}
		}

		filter["location"] = bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{longitude, latitude},
				},
				// radius arrives in km, Mongo wants meters
				"$maxDistance": radiusKm * 1000,
			},
		}
	}

	if category != "" && category != "all" {
		filter["category"] = category
	}

	if status != "" && status != "all" {
		filter["status"] = status
	}

	return filter, nil
}

// SortOptions maps a sort key to Mongo sort criteria for find-based listings.
// The upvotes key is not handled here; counting an array field needs an
// aggregation, see UpvoteSortPipeline.
func SortOptions(sortBy string) bson.D {
	switch sortBy {
	case "oldest":
		return bson.D{{Key: "createdAt", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

// UpvoteSortPipeline builds the aggregation for upvote-count ordering. The
// count is materialized and sorted server side with the result cap after the
// sort, so the most-upvoted issues of the whole filtered set are returned, not
// a reordered recency window. A proximity restriction becomes a leading
// $geoNear stage because $near is not valid inside $match.
func UpvoteSortPipeline(filter bson.M, limit int) []bson.M {
	pipeline := []bson.M{}

	rest := bson.M{}
	for key, value := range filter {
		if key != "location" {
			rest[key] = value
		}
	}

	if location, ok := filter["location"]; ok {
		near := location.(bson.M)["$near"].(bson.M)
		pipeline = append(pipeline, bson.M{"$geoNear": bson.M{
			"near":          near["$geometry"],
			"maxDistance":   near["$maxDistance"],
			"distanceField": "distance",
			"spherical":     true,
		}})
	}

	if len(rest) > 0 {
		pipeline = append(pipeline, bson.M{"$match": rest})
	}

	pipeline = append(pipeline,
		bson.M{"$addFields": bson.M{"upvoteCount": bson.M{"$size": "$upvotes"}}},
		bson.M{"$sort": bson.D{{Key: "upvoteCount", Value: -1}, {Key: "createdAt", Value: -1}}},
		bson.M{"$limit": limit},
		bson.M{"$project": bson.M{"upvoteCount": 0, "distance": 0}},
	)

	return pipeline
}
