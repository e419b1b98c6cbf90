package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"inkwell/api/internal/auth"
	"inkwell/api/internal/authpw"
	"inkwell/api/internal/config"
	"inkwell/api/internal/export"
	"inkwell/api/internal/hooks"
	"inkwell/api/internal/session"
	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

// fakeStore is an in-memory dataStore. Function fields override single
// methods for failure injection; everything else behaves like the real
// store, including unique-violation errors on slug and revision clashes.
type fakeStore struct {
	posts     map[string]store.Post
	revisions map[string][]store.Revision
	meta      map[string]map[string]json.RawMessage
	users     map[string]store.User

	insertRevisionFn func(context.Context, store.Revision) error
	listPostsFn      func(context.Context, store.ListFilter) (store.ListResult, error)
	updatePostFn     func(context.Context, store.Post) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:     map[string]store.Post{},
		revisions: map[string][]store.Revision{},
		meta:      map[string]map[string]json.RawMessage{},
		users:     map[string]store.User{},
	}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

func (f *fakeStore) InsertPost(_ context.Context, item store.Post) error {
	for _, existing := range f.posts {
		if existing.Type == item.Type && existing.Locale == item.Locale &&
			strings.EqualFold(existing.Slug, item.Slug) && !existing.IsDeleted {
			return uniqueViolation()
		}
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Ancestors == nil {
		item.Ancestors = []string{}
	}
	f.posts[item.ID] = item
	return nil
}

func (f *fakeStore) UpdatePost(ctx context.Context, item store.Post) error {
	if f.updatePostFn != nil {
		return f.updatePostFn(ctx, item)
	}
	existing, ok := f.posts[item.ID]
	if !ok || existing.IsDeleted {
		return sql.ErrNoRows
	}
	for id, other := range f.posts {
		if id == item.ID || other.IsDeleted {
			continue
		}
		if other.Type == item.Type && other.Locale == item.Locale && strings.EqualFold(other.Slug, item.Slug) {
			return uniqueViolation()
		}
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now()
	f.posts[item.ID] = item
	return nil
}

func (f *fakeStore) UpdatePostParent(_ context.Context, postID string, parentID *string, ancestorIDs []string) error {
	item, ok := f.posts[postID]
	if !ok || item.IsDeleted {
		return sql.ErrNoRows
	}
	item.ParentID = parentID
	item.Ancestors = append([]string{}, ancestorIDs...)
	item.UpdatedAt = time.Now()
	f.posts[postID] = item
	return nil
}

func (f *fakeStore) GetPost(_ context.Context, postID string) (store.Post, error) {
	item, ok := f.posts[postID]
	if !ok || item.IsDeleted {
		return store.Post{}, sql.ErrNoRows
	}
	return item, nil
}

func (f *fakeStore) GetPostBySlug(_ context.Context, postType, slug, locale string) (store.Post, error) {
	for _, item := range f.posts {
		if item.Type == postType && item.Locale == locale &&
			strings.EqualFold(item.Slug, slug) && !item.IsDeleted {
			return item, nil
		}
	}
	return store.Post{}, sql.ErrNoRows
}

func (f *fakeStore) GetPostsByIDs(_ context.Context, ids []string) ([]store.Post, error) {
	items := make([]store.Post, 0, len(ids))
	// deliberately unordered, like the real IN(...) lookup
	seen := map[string]struct{}{}
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for id, item := range f.posts {
		if _, ok := seen[id]; ok && !item.IsDeleted {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeStore) SoftDeletePost(_ context.Context, postID string) error {
	item, ok := f.posts[postID]
	if !ok || item.IsDeleted {
		return sql.ErrNoRows
	}
	item.IsDeleted = true
	item.Status = store.StatusArchived
	f.posts[postID] = item
	return nil
}

func (f *fakeStore) ListChildren(_ context.Context, parentID *string, typeFilter string) ([]store.Post, error) {
	items := make([]store.Post, 0)
	for _, item := range f.posts {
		if item.IsDeleted {
			continue
		}
		if parentID == nil && item.ParentID != nil {
			continue
		}
		if parentID != nil && (item.ParentID == nil || *item.ParentID != *parentID) {
			continue
		}
		if typeFilter != "" && item.Type != typeFilter {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].MenuOrder != items[j].MenuOrder {
			return items[i].MenuOrder < items[j].MenuOrder
		}
		return items[i].Title < items[j].Title
	})
	return items, nil
}

func (f *fakeStore) ListPosts(ctx context.Context, filter store.ListFilter) (store.ListResult, error) {
	if f.listPostsFn != nil {
		return f.listPostsFn(ctx, filter)
	}
	matched := make([]store.Post, 0)
	for _, item := range f.posts {
		if item.IsDeleted || item.Type != filter.Type {
			continue
		}
		if filter.Status != "" && filter.Status != "all" && item.Status != filter.Status {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return store.ListResult{Items: matched[start:end], Total: total}, nil
}

func (f *fakeStore) MaxRevision(_ context.Context, postID string) (int, error) {
	max := 0
	for _, revision := range f.revisions[postID] {
		if revision.Rev > max {
			max = revision.Rev
		}
	}
	return max, nil
}

func (f *fakeStore) InsertRevision(ctx context.Context, revision store.Revision) error {
	if f.insertRevisionFn != nil {
		return f.insertRevisionFn(ctx, revision)
	}
	for _, existing := range f.revisions[revision.PostID] {
		if existing.Rev == revision.Rev {
			return uniqueViolation()
		}
	}
	revision.CreatedAt = time.Now()
	f.revisions[revision.PostID] = append(f.revisions[revision.PostID], revision)
	return nil
}

func (f *fakeStore) ListRevisions(_ context.Context, postID string) ([]store.Revision, error) {
	items := append([]store.Revision{}, f.revisions[postID]...)
	sort.Slice(items, func(i, j int) bool { return items[i].Rev > items[j].Rev })
	return items, nil
}

func (f *fakeStore) GetRevision(_ context.Context, postID string, rev int) (store.Revision, error) {
	for _, revision := range f.revisions[postID] {
		if revision.Rev == rev {
			return revision, nil
		}
	}
	return store.Revision{}, sql.ErrNoRows
}

func (f *fakeStore) GetMeta(_ context.Context, postID, key string) (json.RawMessage, error) {
	value, ok := f.meta[postID][key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (f *fakeStore) SetMeta(_ context.Context, entry store.MetaEntry) error {
	if f.meta[entry.PostID] == nil {
		f.meta[entry.PostID] = map[string]json.RawMessage{}
	}
	value := entry.Value
	if len(value) == 0 {
		value = json.RawMessage(`null`)
	}
	f.meta[entry.PostID][entry.Key] = value
	return nil
}

func (f *fakeStore) DeleteMeta(_ context.Context, postID, key string) error {
	delete(f.meta[postID], key)
	return nil
}

func (f *fakeStore) ListMeta(_ context.Context, postID, keyPrefix string) ([]store.MetaEntry, error) {
	entries := make([]store.MetaEntry, 0)
	for key, value := range f.meta[postID] {
		if keyPrefix != "" && !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		entries = append(entries, store.MetaEntry{PostID: postID, Key: key, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user store.User) error {
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, user.Email) || strings.EqualFold(existing.Login, user.Login) {
			return uniqueViolation()
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByID(_ context.Context, userID string) (store.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	user, ok := f.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	f.users[userID] = user
	return nil
}

func (f *fakeStore) BumpTokenVersion(_ context.Context, userID string) (int, error) {
	user, ok := f.users[userID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	user.TokenVersion++
	f.users[userID] = user
	return user.TokenVersion, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeSessions struct {
	saved map[string]session.TokenData
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: map[string]session.TokenData{}}
}

func (f *fakeSessions) SaveRefreshSession(_ context.Context, tokenHash string, data session.TokenData, _ time.Time) error {
	f.saved[tokenHash] = data
	return nil
}

func (f *fakeSessions) LookupRefreshSession(_ context.Context, tokenHash string) (session.TokenData, error) {
	data, ok := f.saved[tokenHash]
	if !ok {
		return session.TokenData{}, sql.ErrNoRows
	}
	return data, nil
}

func (f *fakeSessions) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	delete(f.saved, tokenHash)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "inkwell",
		JWTAudience: "inkwell-users",
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  24 * time.Hour,
	}
}

func newTestService(fake *fakeStore) *Service {
	cfg := testConfig()
	svc := &Service{
		cfg:       cfg,
		store:     fake,
		sessions:  newFakeSessions(),
		tokens:    auth.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience),
		passwords: authpw.NewService(fake),
		hooks:     hooks.NewRegistry(nil),
	}
	svc.exporter = export.NewService(svc)
	return svc
}

func seedPost(fake *fakeStore, id, title string, parentID *string, ancestors []string) store.Post {
	if ancestors == nil {
		ancestors = []string{}
	}
	item := store.Post{
		ID:         id,
		Type:       "page",
		Title:      title,
		Slug:       util.Slugify(title),
		Status:     store.StatusDraft,
		Visibility: store.VisibilityPublic,
		Locale:     "en",
		ParentID:   parentID,
		Ancestors:  ancestors,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	fake.posts[id] = item
	return item
}

func strPtr(value string) *string { return &value }
