package store

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildListQueryShortQueryUsesSubstringMatch(t *testing.T) {
	where, orderBy, args := buildListQuery(ListFilter{Type: "post", Query: "hi"})

	if !strings.Contains(where, "ILIKE") {
		t.Fatalf("queries under three runes should substring match, where = %q", where)
	}
	if strings.Contains(where, "plainto_tsquery") {
		t.Fatalf("short queries must not reach the tsvector index, where = %q", where)
	}
	if orderBy != "status ASC, published_at DESC NULLS LAST, updated_at DESC" {
		t.Fatalf("substring mode keeps the base ordering, got %q", orderBy)
	}
	if !reflect.DeepEqual(args, []any{"post", "%hi%"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestBuildListQueryLongQueryUsesTextSearch(t *testing.T) {
	where, orderBy, args := buildListQuery(ListFilter{Type: "post", Query: "hello world"})

	if !strings.Contains(where, "fts @@ plainto_tsquery('english', $2)") {
		t.Fatalf("queries of three or more runes use full-text search, where = %q", where)
	}
	if !strings.HasPrefix(orderBy, "ts_rank(fts, plainto_tsquery('english', $2)) DESC") {
		t.Fatalf("text mode orders by rank first, got %q", orderBy)
	}
	if !strings.HasSuffix(orderBy, "status ASC, published_at DESC NULLS LAST, updated_at DESC") {
		t.Fatalf("base ordering must break rank ties, got %q", orderBy)
	}
	if !reflect.DeepEqual(args, []any{"post", "hello world"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestBuildListQueryCountsRunesNotBytes(t *testing.T) {
	// three runes but six bytes
	where, _, _ := buildListQuery(ListFilter{Type: "post", Query: "héé"})
	if !strings.Contains(where, "plainto_tsquery") {
		t.Fatalf("the three-rune threshold counts runes, where = %q", where)
	}

	where, _, _ = buildListQuery(ListFilter{Type: "post", Query: "hé"})
	if !strings.Contains(where, "ILIKE") {
		t.Fatalf("two runes stay in substring mode, where = %q", where)
	}
}

func TestBuildListQueryEscapesLikeWildcards(t *testing.T) {
	_, _, args := buildListQuery(ListFilter{Type: "post", Query: "a%"})
	if !reflect.DeepEqual(args, []any{"post", `%a\%%`}) {
		t.Fatalf("wildcards in the query must be escaped, args = %v", args)
	}
}

func TestBuildListQueryStatusFilter(t *testing.T) {
	where, _, args := buildListQuery(ListFilter{Type: "page", Status: StatusDraft})
	if !strings.Contains(where, "status = $2") {
		t.Fatalf("status filter missing, where = %q", where)
	}
	if !reflect.DeepEqual(args, []any{"page", StatusDraft}) {
		t.Fatalf("args = %v", args)
	}

	where, _, args = buildListQuery(ListFilter{Type: "page", Status: "all"})
	if strings.Contains(where, "status =") {
		t.Fatalf("status 'all' must not filter, where = %q", where)
	}
	if !reflect.DeepEqual(args, []any{"page"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`plain`, `plain`},
		{`50%`, `50\%`},
		{`under_score`, `under\_score`},
		{`back\slash`, `back\\slash`},
	}
	for _, tc := range cases {
		if got := escapeLike(tc.in); got != tc.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
