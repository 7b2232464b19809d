package items

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildListFilterTextOnly(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/items?q=drill&category=tools", nil)

	filter := buildListFilter(r)

	if filter["categoryId"] != "tools" {
		t.Fatalf("category not applied: %v", filter)
	}
	text, ok := filter["$text"].(bson.M)
	if !ok || text["$search"] != "drill" {
		t.Fatalf("expected $text search, got %v", filter)
	}
	if _, near := filter["location"]; near {
		t.Fatalf("no geo params, yet filter has location: %v", filter)
	}
}

// $text and $nearSphere cannot share a query; a request carrying both must
// come out as a pure proximity filter instead of a filter Mongo rejects.
func TestBuildListFilterGeoWinsOverText(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/items?q=drill&lng=13.4&lat=52.5", nil)

	filter := buildListFilter(r)

	if _, hasText := filter["$text"]; hasText {
		t.Fatalf("$text must be dropped when a proximity query is present: %v", filter)
	}
	loc, ok := filter["location"].(bson.M)
	if !ok {
		t.Fatalf("expected location filter, got %v", filter)
	}
	near, ok := loc["$nearSphere"].(bson.M)
	if !ok {
		t.Fatalf("expected $nearSphere, got %v", loc)
	}
	if near["$maxDistance"] != float64(10000) {
		t.Fatalf("expected default max distance, got %v", near["$maxDistance"])
	}
}

func TestBuildListFilterGeoNeedsBothCoordinates(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/items?q=drill&lng=13.4", nil)

	filter := buildListFilter(r)

	if _, near := filter["location"]; near {
		t.Fatalf("lng alone must not build a geo filter: %v", filter)
	}
	if _, hasText := filter["$text"]; !hasText {
		t.Fatalf("text search must survive a half-specified geo query: %v", filter)
	}
}
