package search

import (
	"reflect"
	"testing"
)

func TestBuildFiltersPublicOnly(t *testing.T) {
	filters := buildFilters(Query{Text: "welcome", PublicOnly: true})
	want := []string{`status = "published"`, `visibility = "public"`}
	if !reflect.DeepEqual(filters, want) {
		t.Fatalf("filters = %v, want %v", filters, want)
	}
}

func TestBuildFiltersTypeAndLocale(t *testing.T) {
	filters := buildFilters(Query{Text: "welcome", FilterType: "page", Locale: "de"})
	want := []string{`type = "page"`, `locale = "de"`}
	if !reflect.DeepEqual(filters, want) {
		t.Fatalf("filters = %v, want %v", filters, want)
	}
}

func TestBuildFiltersUnrestricted(t *testing.T) {
	if filters := buildFilters(Query{Text: "welcome"}); len(filters) != 0 {
		t.Fatalf("unrestricted query should carry no filters, got %v", filters)
	}
}
