package app

import (
	"context"
	"database/sql"
	"errors"

	"inkwell/api/internal/store"
)

// computeAncestors derives a post's ancestor chain from its new parent:
// the parent's own chain plus the parent itself, root first. A nil
// parentID means the post becomes a root and the chain is empty.
func computeAncestors(parentAncestors []string, parentID *string) []string {
	if parentID == nil {
		return []string{}
	}
	chain := make([]string, 0, len(parentAncestors)+1)
	chain = append(chain, parentAncestors...)
	chain = append(chain, *parentID)
	return chain
}

// resolveAncestors validates a proposed parent for the post and returns
// the new ancestor chain. Rejections: the post as its own parent, a
// parent that does not exist (or is deleted), and a parent that is a
// descendant of the post being moved.
func (s *Service) resolveAncestors(ctx context.Context, postID string, parentID *string) ([]string, error) {
	if parentID == nil {
		return []string{}, nil
	}
	if *parentID == postID {
		return nil, errSelfParent()
	}

	parent, err := s.store.GetPost(ctx, *parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errInvalidParent(*parentID)
		}
		return nil, err
	}

	for _, ancestorID := range parent.Ancestors {
		if ancestorID == postID {
			return nil, errCyclic(*parentID)
		}
	}

	return computeAncestors(parent.Ancestors, parentID), nil
}

// Move reparents a post. parent_id and the recomputed ancestors are
// persisted in one statement, so no reader can observe one without the
// other.
func (s *Service) Move(ctx context.Context, postID string, newParentID *string) (store.Post, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, errNotFound("Post not found")
		}
		return store.Post{}, err
	}

	ancestors, err := s.resolveAncestors(ctx, postID, newParentID)
	if err != nil {
		return store.Post{}, err
	}

	if err := s.store.UpdatePostParent(ctx, postID, newParentID, ancestors); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, errNotFound("Post not found")
		}
		return store.Post{}, err
	}

	moved, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.Post{}, err
	}

	s.publish(ctx, "post.moved", moved)
	return moved, nil
}

// Children lists the non-deleted posts whose parent is exactly parentID
// (nil for the root level), ordered by menu_order then title.
func (s *Service) Children(ctx context.Context, parentID *string, typeFilter string) ([]store.Post, error) {
	return s.store.ListChildren(ctx, parentID, typeFilter)
}

// Breadcrumbs resolves a post's ancestor chain plus the post itself to
// {id, title, slug, type} segments in root-to-leaf order. The fetch is
// a set lookup, so the order is rebuilt from the chain explicitly.
func (s *Service) Breadcrumbs(ctx context.Context, postID string) ([]store.Crumb, error) {
	item, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound("Post not found")
		}
		return nil, err
	}

	ids := append(append([]string{}, item.Ancestors...), item.ID)
	found, err := s.store.GetPostsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]store.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	crumbs := make([]store.Crumb, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			// ancestor soft-deleted since the chain was written
			continue
		}
		crumbs = append(crumbs, store.Crumb{ID: p.ID, Title: p.Title, Slug: p.Slug, Type: p.Type})
	}
	return crumbs, nil
}
