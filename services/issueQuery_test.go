package services

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name      string
		longitude float64
		latitude  float64
		wantErr   error
	}{
		{"valid", 77.5946, 12.9716, nil},
		{"zero zero", 0, 0, nil},
		{"longitude west boundary", -180, 0, nil},
		{"longitude east boundary", 180, 0, nil},
		{"latitude south boundary", 0, -90, nil},
		{"latitude north boundary", 0, 90, nil},
		{"longitude too small", -180.01, 0, ErrInvalidLongitude},
		{"longitude too large", 181, 0, ErrInvalidLongitude},
		{"latitude too small", 0, -91, ErrInvalidLatitude},
		{"latitude too large", 0, 90.5, ErrInvalidLatitude},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateCoordinates(tt.longitude, tt.latitude); err != tt.wantErr {
				t.Errorf("ValidateCoordinates(%v, %v) = %v, want %v", tt.longitude, tt.latitude, err, tt.wantErr)
			}
		})
	}
}

func TestBuildIssueFilterComposition(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng string
		radius   string
		category string
		status   string
		wantKeys []string
	}{
		{"no filters", "", "", "", "", "", nil},
		{"category only", "", "", "", "pothole", "", []string{"category"}},
		{"status only", "", "", "", "", "open", []string{"status"}},
		{"category sentinel all", "", "", "", "all", "", nil},
		{"status sentinel all", "", "", "", "", "all", nil},
		{"geo only", "12.97", "77.59", "", "", "", []string{"location"}},
		{"everything", "12.97", "77.59", "2", "garbage", "resolved", []string{"location", "category", "status"}},
		{"lat without lng ignored", "12.97", "", "", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := BuildIssueFilter(tt.lat, tt.lng, tt.radius, tt.category, tt.status)
			if err != nil {
				t.Fatalf("BuildIssueFilter() error = %v", err)
			}
			if len(filter) != len(tt.wantKeys) {
				t.Errorf("filter has %d keys, want %d: %v", len(filter), len(tt.wantKeys), filter)
			}
			for _, key := range tt.wantKeys {
				if _, ok := filter[key]; !ok {
					t.Errorf("filter missing key %q", key)
				}
			}
		})
	}
}

func TestBuildIssueFilterGeo(t *testing.T) {
	filter, err := BuildIssueFilter("12.9716", "77.5946", "2.5", "", "")
	if err != nil {
		t.Fatalf("BuildIssueFilter() error = %v", err)
	}

	near, ok := filter["location"].(bson.M)["$near"].(bson.M)
	if !ok {
		t.Fatalf("location filter is not a $near document: %v", filter["location"])
	}

	// radius arrives in km and must be converted to meters
	if got := near["$maxDistance"].(float64); got != 2500 {
		t.Errorf("$maxDistance = %v, want 2500", got)
	}

	geometry := near["$geometry"].(bson.M)
	if geometry["type"] != "Point" {
		t.Errorf("geometry type = %v, want Point", geometry["type"])
	}
	coords := geometry["coordinates"].([]float64)
	if coords[0] != 77.5946 || coords[1] != 12.9716 {
		t.Errorf("coordinates = %v, want [longitude latitude] order", coords)
	}
}

func TestBuildIssueFilterDefaultRadius(t *testing.T) {
	filter, err := BuildIssueFilter("12.97", "77.59", "", "", "")
	if err != nil {
		t.Fatalf("BuildIssueFilter() error = %v", err)
	}

	near := filter["location"].(bson.M)["$near"].(bson.M)
	if got := near["$maxDistance"].(float64); got != DefaultRadiusKm*1000 {
		t.Errorf("$maxDistance = %v, want %v", got, DefaultRadiusKm*1000)
	}
}

func TestBuildIssueFilterMalformed(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng string
		radius   string
		wantErr  error
	}{
		{"non-numeric lat", "abc", "77.59", "", ErrInvalidLatitude},
		{"non-numeric lng", "12.97", "east", "", ErrInvalidLongitude},
		{"lat out of range", "95", "77.59", "", ErrInvalidLatitude},
		{"lng out of range", "12.97", "200", "", ErrInvalidLongitude},
		{"non-numeric radius", "12.97", "77.59", "near", ErrInvalidRadius},
		{"zero radius", "12.97", "77.59", "0", ErrInvalidRadius},
		{"negative radius", "12.97", "77.59", "-1", ErrInvalidRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildIssueFilter(tt.lat, tt.lng, tt.radius, "", "")
			if err != tt.wantErr {
				t.Errorf("BuildIssueFilter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortOptions(t *testing.T) {
	tests := []struct {
		name      string
		sortBy    string
		wantValue int
	}{
		{"newest", "newest", -1},
		{"oldest", "oldest", 1},
		{"default", "", -1},
		{"unknown key", "magic", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sort := SortOptions(tt.sortBy)
			if len(sort) != 1 || sort[0].Key != "createdAt" {
				t.Fatalf("SortOptions(%q) = %v, want single createdAt criterion", tt.sortBy, sort)
			}
			if sort[0].Value != tt.wantValue {
				t.Errorf("SortOptions(%q) direction = %v, want %d", tt.sortBy, sort[0].Value, tt.wantValue)
			}
		})
	}
}

// stageIndex returns the position of the first stage carrying the given
// operator, or -1
func stageIndex(pipeline []bson.M, op string) int {
	for i, stage := range pipeline {
		if _, ok := stage[op]; ok {
			return i
		}
	}
	return -1
}

func TestUpvoteSortPipelineStageOrder(t *testing.T) {
	pipeline := UpvoteSortPipeline(bson.M{}, 100)

	if got := stageIndex(pipeline, "$match"); got != -1 {
		t.Errorf("empty filter produced a $match stage at %d: %v", got, pipeline)
	}

	sortIdx := stageIndex(pipeline, "$sort")
	limitIdx := stageIndex(pipeline, "$limit")
	if sortIdx == -1 || limitIdx == -1 {
		t.Fatalf("pipeline missing $sort or $limit: %v", pipeline)
	}
	// the cap must apply to the sorted set, not a pre-sorted fetch window
	if limitIdx < sortIdx {
		t.Errorf("$limit at %d precedes $sort at %d", limitIdx, sortIdx)
	}
	if stageIndex(pipeline, "$addFields") > sortIdx {
		t.Errorf("upvoteCount must be materialized before the sort: %v", pipeline)
	}

	if got := pipeline[limitIdx]["$limit"].(int); got != 100 {
		t.Errorf("$limit = %v, want 100", got)
	}

	sort := pipeline[sortIdx]["$sort"].(bson.D)
	if sort[0].Key != "upvoteCount" || sort[0].Value != -1 {
		t.Errorf("primary sort = %v, want upvoteCount descending", sort[0])
	}
}

func TestUpvoteSortPipelineCarriesFilters(t *testing.T) {
	pipeline := UpvoteSortPipeline(bson.M{"category": "garbage", "status": "open"}, 50)

	matchIdx := stageIndex(pipeline, "$match")
	if matchIdx != 0 {
		t.Fatalf("$match at %d, want leading stage: %v", matchIdx, pipeline)
	}
	match := pipeline[matchIdx]["$match"].(bson.M)
	if match["category"] != "garbage" || match["status"] != "open" {
		t.Errorf("$match = %v, want category and status carried through", match)
	}
}

func TestUpvoteSortPipelineGeo(t *testing.T) {
	filter, err := BuildIssueFilter("12.9716", "77.5946", "2.5", "pothole", "")
	if err != nil {
		t.Fatalf("BuildIssueFilter() error = %v", err)
	}

	pipeline := UpvoteSortPipeline(filter, 100)

	// $near is not a valid $match operator, the proximity restriction has to
	// lead the pipeline as $geoNear
	geoIdx := stageIndex(pipeline, "$geoNear")
	if geoIdx != 0 {
		t.Fatalf("$geoNear at %d, want leading stage: %v", geoIdx, pipeline)
	}
	geoNear := pipeline[geoIdx]["$geoNear"].(bson.M)
	if got := geoNear["maxDistance"].(float64); got != 2500 {
		t.Errorf("maxDistance = %v, want 2500", got)
	}
	if geoNear["spherical"] != true {
		t.Errorf("spherical = %v, want true", geoNear["spherical"])
	}
	geometry := geoNear["near"].(bson.M)
	if geometry["type"] != "Point" {
		t.Errorf("near geometry type = %v, want Point", geometry["type"])
	}

	matchIdx := stageIndex(pipeline, "$match")
	if matchIdx == -1 {
		t.Fatalf("category filter dropped from pipeline: %v", pipeline)
	}
	match := pipeline[matchIdx]["$match"].(bson.M)
	if _, ok := match["location"]; ok {
		t.Errorf("location leaked into $match: %v", match)
	}
	if match["category"] != "pothole" {
		t.Errorf("$match = %v, want category carried through", match)
	}
}
