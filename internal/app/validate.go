package app

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"inkwell/api/internal/store"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// CreatePostInput is the request body for creating a post. Slug is
// derived from the title when absent; type defaults to "post".
type CreatePostInput struct {
	Type            string          `json:"type"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Excerpt         string          `json:"excerpt"`
	Content         json.RawMessage `json:"content"`
	Status          string          `json:"status"`
	Visibility      string          `json:"visibility"`
	Password        string          `json:"password"`
	Locale          string          `json:"locale"`
	FeaturedMediaID string          `json:"featuredMediaId"`
	Categories      []string        `json:"categories"`
	Tags            []string        `json:"tags"`
	ParentID        *string         `json:"parentId"`
	MenuOrder       int             `json:"menuOrder"`
}

// PostPatch is the set of fields an update is allowed to touch. Parent
// changes go through the move endpoint, never through a patch, so the
// ancestor chain can only change together with parent_id.
type PostPatch struct {
	Title           *string          `json:"title"`
	Slug            *string          `json:"slug"`
	Excerpt         *string          `json:"excerpt"`
	Content         *json.RawMessage `json:"content"`
	Status          *string          `json:"status"`
	Visibility      *string          `json:"visibility"`
	Password        *string          `json:"password"`
	Locale          *string          `json:"locale"`
	FeaturedMediaID *string          `json:"featuredMediaId"`
	Categories      *[]string        `json:"categories"`
	Tags            *[]string        `json:"tags"`
	MenuOrder       *int             `json:"menuOrder"`
	PublishedAt     *time.Time       `json:"publishedAt"`
}

var patchFields = map[string]struct{}{
	"title":           {},
	"slug":            {},
	"excerpt":         {},
	"content":         {},
	"status":          {},
	"visibility":      {},
	"password":        {},
	"locale":          {},
	"featuredMediaId": {},
	"categories":      {},
	"tags":            {},
	"menuOrder":       {},
	"publishedAt":     {},
}

func validateCreate(input CreatePostInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Type,
			validation.Required,
			validation.Match(slugPattern),
		),
		validation.Field(&input.Title,
			validation.Required,
			validation.Length(1, 500),
		),
		validation.Field(&input.Slug,
			validation.Required,
			validation.Match(slugPattern),
			validation.Length(1, 200),
		),
		validation.Field(&input.Excerpt, validation.Length(0, 500)),
		validation.Field(&input.Status,
			validation.In(store.StatusDraft, store.StatusPublished, store.StatusPrivate, store.StatusArchived),
		),
		validation.Field(&input.Visibility,
			validation.In(store.VisibilityPublic, store.VisibilityPrivate, store.VisibilityPassword),
		),
		validation.Field(&input.Locale, validation.Length(2, 10)),
	)
	return validationError(err)
}

func validatePatch(patch PostPatch) error {
	err := validation.ValidateStruct(&patch,
		validation.Field(&patch.Title, validation.Length(1, 500)),
		validation.Field(&patch.Slug, validation.Match(slugPattern), validation.Length(1, 200)),
		validation.Field(&patch.Excerpt, validation.Length(0, 500)),
		validation.Field(&patch.Status,
			validation.In(store.StatusDraft, store.StatusPublished, store.StatusPrivate, store.StatusArchived),
		),
		validation.Field(&patch.Visibility,
			validation.In(store.VisibilityPublic, store.VisibilityPrivate, store.VisibilityPassword),
		),
		validation.Field(&patch.Locale, validation.Length(2, 10)),
	)
	return validationError(err)
}

// parsePatch decodes an update body against the allow-list. Any field
// outside the list is rejected rather than silently dropped.
func parsePatch(raw json.RawMessage) (PostPatch, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return PostPatch{}, errValidation(map[string]any{"body": "expected a JSON object"})
	}
	if len(keys) == 0 {
		return PostPatch{}, errValidation(map[string]any{"body": "no updatable fields supplied"})
	}
	for key := range keys {
		if _, ok := patchFields[key]; !ok {
			return PostPatch{}, errValidation(map[string]any{key: "unknown field"})
		}
	}

	var patch PostPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return PostPatch{}, errValidation(map[string]any{"body": fmt.Sprintf("malformed field value: %v", err)})
	}
	if patch.Content != nil && !json.Valid(*patch.Content) {
		return PostPatch{}, errValidation(map[string]any{"content": "invalid JSON"})
	}
	if err := validatePatch(patch); err != nil {
		return PostPatch{}, err
	}
	return patch, nil
}

// validationError converts an ozzo field-error map to the domain shape.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	if fields, ok := err.(validation.Errors); ok {
		details := make(map[string]any, len(fields))
		for field, fieldErr := range fields {
			details[field] = fieldErr.Error()
		}
		return errValidation(details)
	}
	return errValidation(map[string]any{"body": err.Error()})
}
