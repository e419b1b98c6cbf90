package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Snippet string `json:"snippet"`
	Locale  string `json:"locale"`
	Status  string `json:"status"`
}

// Query describes a site-wide search request.
type Query struct {
	Text       string
	FilterType string // empty = all post types
	Locale     string
	PublicOnly bool
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// PostRecord is the data we index for a content entity.
type PostRecord struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Excerpt    string `json:"excerpt"`
	Status     string `json:"status"`
	Visibility string `json:"visibility"`
	Locale     string `json:"locale"`
}
