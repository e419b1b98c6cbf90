package export

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetPostForExport(ctx context.Context, id string) (PostInfo, error)
	GetRevisionSnapshot(ctx context.Context, postID string, rev int) (json.RawMessage, error)
}

// PostInfo holds post metadata and content for export
type PostInfo struct {
	ID        string
	Title     string
	Author    string
	Locale    string
	Content   json.RawMessage
	UpdatedAt time.Time
}

// Service provides post export functionality
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	info, err := s.store.GetPostForExport(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	content := info.Content
	if req.Rev > 0 {
		snapshot, err := s.store.GetRevisionSnapshot(ctx, req.PostID, req.Rev)
		if err != nil {
			return nil, fmt.Errorf("%w: revision %d", ErrContentUnavailable, req.Rev)
		}
		content = snapshotContent(snapshot)
	}

	html, err := RenderPageHTML(PageData{
		Title:       info.Title,
		Author:      info.Author,
		Locale:      info.Locale,
		UpdatedAt:   info.UpdatedAt,
		ContentHTML: template.HTML(BlocksToHTML(content)),
	})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(info.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return exportPDF(html, info.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

// snapshotContent pulls the content field out of a revision snapshot.
func snapshotContent(snapshot json.RawMessage) json.RawMessage {
	var parsed struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(snapshot, &parsed); err != nil || len(parsed.Content) == 0 {
		return json.RawMessage(`{"blocks":[]}`)
	}
	return parsed.Content
}
