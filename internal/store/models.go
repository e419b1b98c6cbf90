package store

import (
	"encoding/json"
	"time"
)

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusPrivate   = "private"
	StatusArchived  = "archived"
)

// Post visibilities.
const (
	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityPassword = "password"
)

// Post is a content entity: a post, page or media item. Content holds the
// raw block payload produced by the editor; the server never interprets
// individual blocks. Ancestors is the materialized parent chain, root first,
// and is always derived from ParentID; callers never set it directly.
type Post struct {
	ID              string
	Type            string
	Title           string
	Slug            string
	Excerpt         string
	Content         json.RawMessage
	AuthorID        string
	Status          string
	Visibility      string
	Password        string
	Locale          string
	FeaturedMediaID string
	Categories      []string
	Tags            []string
	ParentID        *string
	MenuOrder       int
	Ancestors       []string
	PublishedAt     *time.Time
	IsDeleted       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Crumb is one breadcrumb segment resolved from a post's ancestor chain.
type Crumb struct {
	ID    string
	Title string
	Slug  string
	Type  string
}

// Revision is an immutable snapshot of a post. (PostID, Rev) is unique and
// Rev is a gap-free sequence starting at 1.
type Revision struct {
	PostID    string
	Rev       int
	Snapshot  json.RawMessage
	AuthorID  string
	CreatedAt time.Time
}

// MetaEntry is one key/value row in a post's metadata side-table.
type MetaEntry struct {
	PostID string
	Key    string
	Value  json.RawMessage
}

// ListFilter describes a paginated post listing request.
type ListFilter struct {
	Type   string
	Status string // "all" or an exact status
	Query  string
	Page   int
	Limit  int
}

// ListResult is a page of posts plus the total match count.
type ListResult struct {
	Items []Post
	Total int
}

type User struct {
	ID           string
	Login        string
	Email        string
	PasswordHash string
	DisplayName  string
	Role         string
	Locale       string
	TokenVersion int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
