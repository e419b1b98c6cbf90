package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkwell/api/internal/archive"
	"inkwell/api/internal/auth"
	"inkwell/api/internal/authpw"
	"inkwell/api/internal/config"
	"inkwell/api/internal/export"
	"inkwell/api/internal/hooks"
	"inkwell/api/internal/media"
	"inkwell/api/internal/rbac"
	"inkwell/api/internal/search"
	"inkwell/api/internal/session"
	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

// Session is an authenticated caller: the parsed access token plus the
// refresh token minted alongside it (empty when the session was rebuilt
// from a bearer token).
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	InsertPost(context.Context, store.Post) error
	UpdatePost(context.Context, store.Post) error
	UpdatePostParent(context.Context, string, *string, []string) error
	GetPost(context.Context, string) (store.Post, error)
	GetPostBySlug(context.Context, string, string, string) (store.Post, error)
	GetPostsByIDs(context.Context, []string) ([]store.Post, error)
	SoftDeletePost(context.Context, string) error
	ListChildren(context.Context, *string, string) ([]store.Post, error)
	ListPosts(context.Context, store.ListFilter) (store.ListResult, error)
	MaxRevision(context.Context, string) (int, error)
	InsertRevision(context.Context, store.Revision) error
	ListRevisions(context.Context, string) ([]store.Revision, error)
	GetRevision(context.Context, string, int) (store.Revision, error)
	GetMeta(context.Context, string, string) (json.RawMessage, error)
	SetMeta(context.Context, store.MetaEntry) error
	DeleteMeta(context.Context, string, string) error
	ListMeta(context.Context, string, string) ([]store.MetaEntry, error)
	CreateUser(context.Context, store.User) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	UpdateUserPassword(context.Context, string, string) error
	BumpTokenVersion(context.Context, string) (int, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, data session.TokenData, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (session.TokenData, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	tokens    *auth.Issuer
	passwords *authpw.Service
	hooks     *hooks.Registry
	search    *search.Service
	archive   *archive.Service
	media     media.Storage
	exporter  *export.Service
}

// New wires the service. searcher and archiveService may be nil when the
// corresponding backends are not configured.
func New(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, registry *hooks.Registry, searcher *search.Service, archiveService *archive.Service, mediaStorage media.Storage) *Service {
	svc := &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  sessions,
		tokens:    auth.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience),
		passwords: authpw.NewService(dataStore),
		hooks:     registry,
		search:    searcher,
		archive:   archiveService,
		media:     mediaStorage,
	}
	svc.exporter = export.NewService(svc)
	return svc
}

// publish runs the named action with the post as payload. Subscribers
// (search indexing, at the moment) run synchronously but never fail the
// operation.
func (s *Service) publish(ctx context.Context, name string, item store.Post) {
	if s.hooks == nil {
		return
	}
	s.hooks.DoAction(ctx, name, item)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ---- auth ----

type RegisterInput struct {
	Login       string `json:"login"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Locale      string `json:"locale"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (Session, error) {
	user, err := s.passwords.Register(ctx, authpw.RegisterRequest{
		Login:       input.Login,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Locale:      input.Locale,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Session{}, errConflict("Login or email already registered")
		}
		return Session{}, domainError(http.StatusUnprocessableEntity, "REGISTRATION_FAILED", err.Error(), nil)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.passwords.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, errUnauthorized("Invalid email or password")
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := s.tokens.IssueAccess(user.ID, user.DisplayName, user.Role, jti, s.cfg.AccessTTL)
	if err != nil {
		return Session{}, err
	}

	refresh, err := s.tokens.IssueRefresh(user.ID, user.TokenVersion, s.cfg.RefreshTTL)
	if err != nil {
		return Session{}, err
	}
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	err = s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), session.TokenData{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Ver:         user.TokenVersion,
		CreatedAt:   now,
	}, refreshExpires)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh rotates a refresh token: the old token is revoked and a new
// access/refresh pair issued. A token whose rotation version no longer
// matches the account's current version is rejected and revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return Session{}, errUnauthorized("Invalid refresh token")
	}

	tokenHash := auth.HashToken(refreshToken)
	data, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, errUnauthorized("Refresh session not found")
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Session{}, errUnauthorized("Account not found")
	}
	if claims.Ver != user.TokenVersion || data.Ver != user.TokenVersion {
		_ = s.sessions.RevokeRefreshSession(ctx, tokenHash)
		return Session{}, errUnauthorized("Refresh token superseded")
	}

	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

// LogoutAll bumps the account's rotation version, invalidating every
// outstanding refresh token at its next use.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	_, err := s.store.BumpTokenVersion(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return errNotFound("Account not found")
	}
	return err
}

// SessionFromToken rebuilds a caller session from a bearer access token.
// The token is self-contained; no storage lookup happens per request.
func (s *Service) SessionFromToken(token string) (Session, error) {
	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		return Session{}, err
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return Session{
		Token:     token,
		UserID:    claims.Subject,
		UserName:  claims.Name,
		Role:      claims.Role,
		JTI:       claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) Account(ctx context.Context, userID string) (store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, errNotFound("Account not found")
	}
	return user, err
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := s.passwords.ChangePassword(ctx, userID, current, next); err != nil {
		return domainError(http.StatusUnprocessableEntity, "PASSWORD_CHANGE_FAILED", err.Error(), nil)
	}
	return nil
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// ---- posts ----

func (s *Service) CreatePost(ctx context.Context, sess Session, input CreatePostInput) (store.Post, error) {
	input.Type = strings.TrimSpace(input.Type)
	input.Title = strings.TrimSpace(input.Title)
	if input.Type == "" {
		input.Type = "post"
	}
	if input.Status == "" {
		input.Status = store.StatusDraft
	}
	if input.Visibility == "" {
		input.Visibility = store.VisibilityPublic
	}
	if input.Locale == "" {
		input.Locale = "en"
	}
	if input.Slug == "" {
		input.Slug = util.Slugify(input.Title)
	}
	if err := validateCreate(input); err != nil {
		return store.Post{}, err
	}
	if len(input.Content) > 0 && !json.Valid(input.Content) {
		return store.Post{}, errValidation(map[string]any{"content": "invalid JSON"})
	}
	if input.Status == store.StatusPublished && !s.Can(sess.Role, rbac.ActionPublish) {
		return store.Post{}, errForbidden()
	}

	id := util.NewID("p")
	ancestors, err := s.resolveAncestors(ctx, id, input.ParentID)
	if err != nil {
		return store.Post{}, err
	}

	var publishedAt *time.Time
	if input.Status == store.StatusPublished {
		now := time.Now()
		publishedAt = &now
	}

	item := store.Post{
		ID:              id,
		Type:            input.Type,
		Title:           input.Title,
		Slug:            input.Slug,
		Excerpt:         input.Excerpt,
		Content:         input.Content,
		AuthorID:        sess.UserID,
		Status:          input.Status,
		Visibility:      input.Visibility,
		Password:        input.Password,
		Locale:          input.Locale,
		FeaturedMediaID: input.FeaturedMediaID,
		Categories:      input.Categories,
		Tags:            input.Tags,
		ParentID:        input.ParentID,
		MenuOrder:       input.MenuOrder,
		Ancestors:       ancestors,
		PublishedAt:     publishedAt,
	}
	if err := s.store.InsertPost(ctx, item); err != nil {
		if store.IsUniqueViolation(err) {
			return store.Post{}, errConflict("Slug already in use for this type and locale")
		}
		if store.IsForeignKeyViolation(err) {
			parentID := ""
			if input.ParentID != nil {
				parentID = *input.ParentID
			}
			return store.Post{}, errInvalidParent(parentID)
		}
		return store.Post{}, err
	}

	created, err := s.store.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, err
	}

	if err := s.recordRevision(ctx, created, sess.UserID); err != nil {
		return created, err
	}

	s.publish(ctx, "post.created", created)
	return created, nil
}

func (s *Service) UpdatePost(ctx context.Context, sess Session, postID string, raw json.RawMessage) (store.Post, error) {
	patch, err := parsePatch(raw)
	if err != nil {
		return store.Post{}, err
	}
	if patch.Status != nil && *patch.Status == store.StatusPublished && !s.Can(sess.Role, rbac.ActionPublish) {
		return store.Post{}, errForbidden()
	}

	item, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, errNotFound("Post not found")
		}
		return store.Post{}, err
	}

	applyPatch(&item, patch)

	if err := s.store.UpdatePost(ctx, item); err != nil {
		if store.IsUniqueViolation(err) {
			return store.Post{}, errConflict("Slug already in use for this type and locale")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, errNotFound("Post not found")
		}
		return store.Post{}, err
	}

	updated, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.Post{}, err
	}

	if err := s.recordRevision(ctx, updated, sess.UserID); err != nil {
		return updated, err
	}

	s.publish(ctx, "post.updated", updated)
	return updated, nil
}

// applyPatch merges the allow-listed fields into the loaded post. A slug
// explicitly set to "" is re-derived from the (possibly new) title. The
// first transition to published stamps publishedAt unless the patch
// carries one.
func applyPatch(item *store.Post, patch PostPatch) {
	if patch.Title != nil {
		item.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Slug != nil {
		item.Slug = *patch.Slug
	}
	if item.Slug == "" {
		item.Slug = util.Slugify(item.Title)
	}
	if patch.Excerpt != nil {
		item.Excerpt = *patch.Excerpt
	}
	if patch.Content != nil {
		item.Content = *patch.Content
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if patch.Visibility != nil {
		item.Visibility = *patch.Visibility
	}
	if patch.Password != nil {
		item.Password = *patch.Password
	}
	if patch.Locale != nil {
		item.Locale = *patch.Locale
	}
	if patch.FeaturedMediaID != nil {
		item.FeaturedMediaID = *patch.FeaturedMediaID
	}
	if patch.Categories != nil {
		item.Categories = *patch.Categories
	}
	if patch.Tags != nil {
		item.Tags = *patch.Tags
	}
	if patch.MenuOrder != nil {
		item.MenuOrder = *patch.MenuOrder
	}
	if patch.PublishedAt != nil {
		item.PublishedAt = patch.PublishedAt
	}
	if item.Status == store.StatusPublished && item.PublishedAt == nil {
		now := time.Now()
		item.PublishedAt = &now
	}
}

func (s *Service) GetPost(ctx context.Context, postID string) (store.Post, error) {
	item, err := s.store.GetPost(ctx, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Post{}, errNotFound("Post not found")
	}
	return item, err
}

func (s *Service) GetPostBySlug(ctx context.Context, postType, slug, locale string) (store.Post, error) {
	if locale == "" {
		locale = "en"
	}
	item, err := s.store.GetPostBySlug(ctx, postType, slug, locale)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Post{}, errNotFound("Post not found")
	}
	return item, err
}

// DeletePost soft-deletes: the row is flagged and archived, never removed,
// so its revisions and metadata stay addressable.
func (s *Service) DeletePost(ctx context.Context, postID string) error {
	item, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errNotFound("Post not found")
		}
		return err
	}
	if err := s.store.SoftDeletePost(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errNotFound("Post not found")
		}
		return err
	}
	// the post row stays for the revision log, the binary does not
	if item.Type == "media" && s.media != nil {
		if key := mediaObjectKey(item.Content); key != "" {
			if err := s.media.Delete(ctx, key); err != nil {
				log.Printf("media: delete object %s: %v", key, err)
			}
		}
	}
	s.publish(ctx, "post.deleted", item)
	return nil
}

// ---- listing ----

type ListInput struct {
	Type   string
	Status string
	Query  string
	Page   int
	Limit  int
}

// ListPage is the pagination envelope: Total counts every match, not the
// page, and TotalPages never drops below one even for an empty result.
type ListPage struct {
	Docs       []store.Post
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

func (s *Service) ListPosts(ctx context.Context, input ListInput) (ListPage, error) {
	postType := strings.TrimSpace(input.Type)
	if postType == "" {
		postType = "post"
	}
	status := input.Status
	if status == "" {
		status = "all"
	}
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	result, err := s.store.ListPosts(ctx, store.ListFilter{
		Type:   postType,
		Status: status,
		Query:  input.Query,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return ListPage{}, err
	}

	totalPages := (result.Total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	return ListPage{
		Docs:       result.Items,
		Page:       page,
		Limit:      limit,
		Total:      result.Total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}, nil
}

// ---- revisions ----

// recordRevision appends the next revision with a snapshot of the post as
// just persisted. The post write has already committed when this runs: a
// failure here is logged and reported to the caller, never rolled back.
func (s *Service) recordRevision(ctx context.Context, item store.Post, authorID string) error {
	maxRev, err := s.store.MaxRevision(ctx, item.ID)
	if err != nil {
		log.Printf("app: read max revision for %s: %v", item.ID, err)
		return fmt.Errorf("record revision for %s: %w", item.ID, err)
	}

	snapshot, err := json.Marshal(postPayload(item))
	if err != nil {
		return fmt.Errorf("snapshot post %s: %w", item.ID, err)
	}

	rev := maxRev + 1
	err = s.store.InsertRevision(ctx, store.Revision{
		PostID:   item.ID,
		Rev:      rev,
		Snapshot: snapshot,
		AuthorID: authorID,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			log.Printf("app: revision %d for %s lost a concurrent-writer race", rev, item.ID)
			return errConflict("Concurrent revision write, retry the operation")
		}
		log.Printf("app: record revision %d for %s: %v", rev, item.ID, err)
		return fmt.Errorf("record revision for %s: %w", item.ID, err)
	}

	s.archiveRevision(item.ID, rev, snapshot, authorID)
	return nil
}

// archiveRevision mirrors the snapshot into the git archive. The archive
// is an advisory trail; failures are logged and swallowed.
func (s *Service) archiveRevision(postID string, rev int, snapshot json.RawMessage, author string) {
	if s.archive == nil {
		return
	}
	if author == "" {
		author = "system"
	}
	if _, err := s.archive.CommitRevision(postID, rev, snapshot, author); err != nil {
		log.Printf("app: archive revision %d for %s: %v", rev, postID, err)
	}
}

func (s *Service) Revisions(ctx context.Context, postID string) ([]store.Revision, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound("Post not found")
		}
		return nil, err
	}
	return s.store.ListRevisions(ctx, postID)
}

func (s *Service) Revision(ctx context.Context, postID string, rev int) (store.Revision, error) {
	revision, err := s.store.GetRevision(ctx, postID, rev)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Revision{}, errNotFound("Revision not found")
	}
	return revision, err
}

func (s *Service) ArchiveHistory(ctx context.Context, postID string, limit int) ([]archive.CommitInfo, error) {
	if s.archive == nil {
		return []archive.CommitInfo{}, nil
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound("Post not found")
		}
		return nil, err
	}
	return s.archive.History(postID, limit)
}

// ---- metadata ----

// MetaValue returns nil for an absent key, matching the side-table's
// get-or-null contract.
func (s *Service) MetaValue(ctx context.Context, postID, key string) (json.RawMessage, error) {
	if _, err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.store.GetMeta(ctx, postID, key)
}

func (s *Service) SetMetaValue(ctx context.Context, postID, key string, value json.RawMessage) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errValidation(map[string]any{"key": "cannot be blank"})
	}
	if len(value) > 0 && !json.Valid(value) {
		return errValidation(map[string]any{"value": "invalid JSON"})
	}
	if _, err := s.requirePost(ctx, postID); err != nil {
		return err
	}
	return s.store.SetMeta(ctx, store.MetaEntry{PostID: postID, Key: key, Value: value})
}

// RemoveMetaValue deletes a key; removing an absent key is a no-op.
func (s *Service) RemoveMetaValue(ctx context.Context, postID, key string) error {
	if _, err := s.requirePost(ctx, postID); err != nil {
		return err
	}
	return s.store.DeleteMeta(ctx, postID, key)
}

func (s *Service) MetaEntries(ctx context.Context, postID, keyPrefix string) ([]store.MetaEntry, error) {
	if _, err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.store.ListMeta(ctx, postID, keyPrefix)
}

func (s *Service) requirePost(ctx context.Context, postID string) (store.Post, error) {
	item, err := s.store.GetPost(ctx, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Post{}, errNotFound("Post not found")
	}
	return item, err
}

// ---- media ----

type UploadInput struct {
	FileName  string
	Mime      string
	Size      int64
	Body      io.Reader
	ReplaceID string
}

// Upload stores the file bytes and records them as a media post: a new
// one in create mode, or the existing post's content in replace mode.
func (s *Service) Upload(ctx context.Context, sess Session, input UploadInput) (store.Post, error) {
	if !media.AllowedMime(input.Mime) {
		return store.Post{}, errValidation(map[string]any{"mime": "unsupported content type"})
	}
	name := util.SafeFilename(input.FileName)
	if name == "" {
		name = "upload"
	}
	key := uuid.NewString() + "-" + name

	object, err := s.media.Save(ctx, key, input.Mime, input.Size, input.Body)
	if err != nil {
		return store.Post{}, fmt.Errorf("store upload: %w", err)
	}

	content, err := json.Marshal(map[string]any{
		"url":  object.URL,
		"key":  object.Key,
		"mime": object.Mime,
		"size": object.Size,
		"name": name,
	})
	if err != nil {
		return store.Post{}, fmt.Errorf("encode media content: %w", err)
	}

	if input.ReplaceID != "" {
		return s.replaceMedia(ctx, sess, input.ReplaceID, content)
	}

	item := store.Post{
		ID:         util.NewID("m"),
		Type:       "media",
		Title:      name,
		Slug:       util.Slugify(name) + "-" + uuid.NewString()[:8],
		Content:    content,
		AuthorID:   sess.UserID,
		Status:     store.StatusPublished,
		Visibility: store.VisibilityPublic,
		Locale:     "en",
	}
	now := time.Now()
	item.PublishedAt = &now

	if err := s.store.InsertPost(ctx, item); err != nil {
		return store.Post{}, err
	}
	created, err := s.store.GetPost(ctx, item.ID)
	if err != nil {
		return store.Post{}, err
	}
	if err := s.recordRevision(ctx, created, sess.UserID); err != nil {
		return created, err
	}

	// mirrored meta keeps the file facts queryable without parsing content
	_ = s.store.SetMeta(ctx, store.MetaEntry{PostID: item.ID, Key: "media.url", Value: jsonString(object.URL)})
	_ = s.store.SetMeta(ctx, store.MetaEntry{PostID: item.ID, Key: "media.mime", Value: jsonString(object.Mime)})
	_ = s.store.SetMeta(ctx, store.MetaEntry{PostID: item.ID, Key: "media.size", Value: json.RawMessage(fmt.Sprintf("%d", object.Size))})

	s.publish(ctx, "post.created", created)
	return created, nil
}

func (s *Service) replaceMedia(ctx context.Context, sess Session, postID string, content json.RawMessage) (store.Post, error) {
	item, err := s.requirePost(ctx, postID)
	if err != nil {
		return store.Post{}, err
	}
	if item.Type != "media" {
		return store.Post{}, errValidation(map[string]any{"replaceId": "not a media post"})
	}

	oldKey := mediaObjectKey(item.Content)
	item.Content = content
	if err := s.store.UpdatePost(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, errNotFound("Post not found")
		}
		return store.Post{}, err
	}
	updated, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.Post{}, err
	}
	if err := s.recordRevision(ctx, updated, sess.UserID); err != nil {
		return updated, err
	}
	if oldKey != "" && oldKey != mediaObjectKey(content) && s.media != nil {
		if err := s.media.Delete(ctx, oldKey); err != nil {
			log.Printf("media: delete replaced object %s: %v", oldKey, err)
		}
	}
	s.publish(ctx, "post.updated", updated)
	return updated, nil
}

// MediaFile opens the stored bytes behind a media post for streaming.
// The caller closes the reader.
func (s *Service) MediaFile(ctx context.Context, postID string) (io.ReadCloser, string, error) {
	item, err := s.requirePost(ctx, postID)
	if err != nil {
		return nil, "", err
	}
	if item.Type != "media" {
		return nil, "", errValidation(map[string]any{"id": "not a media post"})
	}

	var payload struct {
		Key  string `json:"key"`
		Mime string `json:"mime"`
	}
	if err := json.Unmarshal(item.Content, &payload); err != nil || payload.Key == "" {
		return nil, "", errNotFound("Media file not found")
	}
	if s.media == nil {
		return nil, "", errNotFound("Media file not found")
	}
	body, err := s.media.Open(ctx, payload.Key)
	if err != nil {
		return nil, "", errNotFound("Media file not found")
	}
	return body, payload.Mime, nil
}

// mediaObjectKey pulls the storage key out of a media post's content.
func mediaObjectKey(content json.RawMessage) string {
	var payload struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(content, &payload); err != nil {
		return ""
	}
	return payload.Key
}

func jsonString(value string) json.RawMessage {
	encoded, _ := json.Marshal(value)
	return encoded
}

// ---- search ----

func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// ---- export ----

func (s *Service) Export(ctx context.Context, postID string, rev int, format export.Format) (*export.Result, error) {
	return s.exporter.Export(ctx, export.Request{PostID: postID, Rev: rev, Format: format})
}

// GetPostForExport makes Service the export data source.
func (s *Service) GetPostForExport(ctx context.Context, id string) (export.PostInfo, error) {
	item, err := s.requirePost(ctx, id)
	if err != nil {
		return export.PostInfo{}, err
	}
	author := item.AuthorID
	if item.AuthorID != "" {
		if user, userErr := s.store.GetUserByID(ctx, item.AuthorID); userErr == nil {
			author = user.DisplayName
		}
	}
	return export.PostInfo{
		ID:        item.ID,
		Title:     item.Title,
		Author:    author,
		Locale:    item.Locale,
		Content:   item.Content,
		UpdatedAt: item.UpdatedAt,
	}, nil
}

func (s *Service) GetRevisionSnapshot(ctx context.Context, postID string, rev int) (json.RawMessage, error) {
	revision, err := s.store.GetRevision(ctx, postID, rev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound("Revision not found")
	}
	if err != nil {
		return nil, err
	}
	return revision.Snapshot, nil
}

// ---- serialization ----

// postPayload is the wire shape of a post; revision snapshots use the
// same shape so a snapshot can be diffed against a live response. The
// password field never leaves the server.
func postPayload(item store.Post) map[string]any {
	categories := item.Categories
	if categories == nil {
		categories = []string{}
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	ancestors := item.Ancestors
	if ancestors == nil {
		ancestors = []string{}
	}
	content := item.Content
	if len(content) == 0 {
		content = json.RawMessage(`{"blocks":[]}`)
	}
	return map[string]any{
		"id":              item.ID,
		"type":            item.Type,
		"title":           item.Title,
		"slug":            item.Slug,
		"excerpt":         item.Excerpt,
		"content":         content,
		"authorId":        item.AuthorID,
		"status":          item.Status,
		"visibility":      item.Visibility,
		"locale":          item.Locale,
		"featuredMediaId": item.FeaturedMediaID,
		"categories":      categories,
		"tags":            tags,
		"parentId":        item.ParentID,
		"menuOrder":       item.MenuOrder,
		"ancestors":       ancestors,
		"publishedAt":     item.PublishedAt,
		"isDeleted":       item.IsDeleted,
		"createdAt":       item.CreatedAt,
		"updatedAt":       item.UpdatedAt,
	}
}
