package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"masgolf/internal/domain/blog"
)

// BlogStore is the blog persistence surface used by the content orchestrators.
type BlogStore interface {
	GetByID(ctx context.Context, id string) (blog.Post, error)
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	Save(ctx context.Context, p blog.Post) error
}

// BlogDeps holds dependencies for SaveBlogPost.
type BlogDeps struct {
	Store      BlogStore
	GenerateID func() string
	Now        func() time.Time
}

// SaveBlogPostInput carries an admin edit. ID empty creates a post; Slug
// empty derives one from Title.
type SaveBlogPostInput struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Excerpt         string   `json:"excerpt"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	Status          string   `json:"status"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	Author          string   `json:"author"`
}

// ErrSlugTaken is returned when an explicitly chosen slug belongs to another post.
var ErrSlugTaken = errors.New("slug is already used by another post")

// UniqueSlug returns base, or base-1 .. base-100 for the first one not used
// by a post other than exceptID. When all are taken, or base is empty, it
// falls back to a timestamped slug.
func UniqueSlug(ctx context.Context, store BlogStore, base, exceptID string, now time.Time) (string, error) {
	if base == "" {
		return blog.FallbackSlug(base, now), nil
	}
	for n := 0; n <= blog.MaxSlugAttempts; n++ {
		candidate := blog.SlugCandidate(base, n)
		taken, err := store.SlugTaken(ctx, candidate, exceptID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return blog.FallbackSlug(base, now), nil
}

// ExecuteSaveBlogPost creates or updates a blog post.
// PRE: input.Title is non-empty
// POST: the stored slug is unique; a published post carries PublishedAt
func ExecuteSaveBlogPost(ctx context.Context, in SaveBlogPostInput, deps BlogDeps) (blog.Post, error) {
	now := clock(deps.Now)
	var p blog.Post
	if in.ID != "" {
		existing, err := deps.Store.GetByID(ctx, in.ID)
		if err != nil {
			return blog.Post{}, err
		}
		p = existing
	} else {
		p = blog.Post{ID: deps.GenerateID(), CreatedAt: now, Author: blog.DefaultAuthor, Status: blog.StatusDraft}
	}

	p.Title = strings.TrimSpace(in.Title)
	p.Content = in.Content
	p.Category = strings.TrimSpace(in.Category)
	p.Tags = append([]string{}, in.Tags...)
	p.MetaTitle = strings.TrimSpace(in.MetaTitle)
	p.MetaDescription = strings.TrimSpace(in.MetaDescription)
	if a := strings.TrimSpace(in.Author); a != "" {
		p.Author = a
	}
	p.Excerpt = strings.TrimSpace(in.Excerpt)
	if p.Excerpt == "" {
		p.Excerpt = blog.Truncate(p.Content, 200)
	}
	if in.Status != "" {
		p.Status = in.Status
	}
	p.UpdatedAt = now

	slug := strings.TrimSpace(in.Slug)
	switch {
	case slug != "":
		p.Slug = slug
		if err := p.Validate(); err != nil {
			return blog.Post{}, err
		}
		taken, err := deps.Store.SlugTaken(ctx, slug, p.ID)
		if err != nil {
			return blog.Post{}, err
		}
		if taken {
			return blog.Post{}, ErrSlugTaken
		}
	case p.Slug == "" || in.ID == "":
		if err := p.Validate(); err != nil {
			return blog.Post{}, err
		}
		s, err := UniqueSlug(ctx, deps.Store, blog.Slugify(p.Title), p.ID, now)
		if err != nil {
			return blog.Post{}, err
		}
		p.Slug = s
	}

	if p.Status == blog.StatusPublished {
		p.Publish(now)
	}
	if err := p.Validate(); err != nil {
		return blog.Post{}, err
	}
	if err := deps.Store.Save(ctx, p); err != nil {
		return blog.Post{}, fmt.Errorf("save blog post: %w", err)
	}
	slog.Info("blog_post_saved", "post_id", p.ID, "slug", p.Slug, "status", p.Status)
	return p, nil
}
