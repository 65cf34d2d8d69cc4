package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"masgolf/internal/adapters/markdown"
	"masgolf/internal/adapters/storage"
	blogStore "masgolf/internal/adapters/storage/blog"
	"masgolf/internal/domain/blog"
)

// ErrPostNotFound is returned for unknown and unpublished slugs alike.
var ErrPostNotFound = errors.New("post not found")

// PublishedPostStore reads posts for the public blog.
type PublishedPostStore interface {
	GetBySlug(ctx context.Context, slug string) (blog.Post, error)
	List(ctx context.Context, f blogStore.Filter, p storage.Page) ([]blog.Post, int, error)
}

// PostView is a published post with rendered HTML and its table of contents.
type PostView struct {
	blog.Post
	HTML string             `json:"html"`
	TOC  []markdown.TOCItem `json:"toc"`
}

// GetPublishedPost renders the published post at slug.
// POST: drafts are reported as ErrPostNotFound
func GetPublishedPost(ctx context.Context, slug string, store PublishedPostStore) (PostView, error) {
	p, err := store.GetBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return PostView{}, ErrPostNotFound
	}
	if err != nil {
		return PostView{}, err
	}
	if !p.IsPublished() {
		return PostView{}, ErrPostNotFound
	}
	r, err := markdown.Render(p.Content)
	if err != nil {
		return PostView{}, fmt.Errorf("render post %s: %w", p.ID, err)
	}
	return PostView{Post: p, HTML: r.HTML, TOC: r.TOC}, nil
}

// ListPublishedPosts returns one page of published posts, newest first.
func ListPublishedPosts(ctx context.Context, category string, page storage.Page, store PublishedPostStore) ([]blog.Post, int, error) {
	return store.List(ctx, blogStore.Filter{Status: blog.StatusPublished, Category: category}, page)
}
