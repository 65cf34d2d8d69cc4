package blog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Status constants
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Field limits
const (
	MaxTitleLength     = 200
	MaxSlugLength      = 80
	MaxMetaDescription = 160
	MaxSlugAttempts    = 100
	DefaultAuthor      = "마쓰구골프"
)

// Domain errors
var (
	ErrEmptyTitle    = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title cannot exceed 200 characters")
	ErrInvalidSlug   = errors.New("slug may only contain lowercase letters, digits, Hangul and dashes")
	ErrInvalidStatus = errors.New("status must be draft or published")
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9가-힣\s-]`)
	slugSpaces     = regexp.MustCompile(`[\s-]+`)
	slugValid      = regexp.MustCompile(`^[a-z0-9가-힣]+(-[a-z0-9가-힣]+)*$`)
)

// Post is a blog article written in markdown.
type Post struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Excerpt         string    `json:"excerpt,omitempty"`
	Category        string    `json:"category,omitempty"`
	Tags            []string  `json:"tags"`
	Status          string    `json:"status"`
	MetaTitle       string    `json:"meta_title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	Author          string    `json:"author,omitempty"`
	HubContentID    string    `json:"hub_content_id,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitzero"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate checks if the Post has valid data.
// PRE: Post struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(p.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if p.Slug != "" && !slugValid.MatchString(p.Slug) {
		return ErrInvalidSlug
	}
	if p.Status != StatusDraft && p.Status != StatusPublished {
		return ErrInvalidStatus
	}
	return nil
}

// Publish marks the post published, stamping PublishedAt the first time.
// POST: Status is published and PublishedAt is non-zero
func (p *Post) Publish(now time.Time) {
	p.Status = StatusPublished
	if p.PublishedAt.IsZero() {
		p.PublishedAt = now
	}
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// Slugify derives a URL slug from a title: lowercased, punctuation removed,
// whitespace runs joined with a single dash, Hangul kept, at most 80 runes.
// Returns "" when nothing usable remains.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if utf8.RuneCountInString(s) > MaxSlugLength {
		s = strings.TrimRight(string([]rune(s)[:MaxSlugLength]), "-")
	}
	return s
}

// SlugCandidate returns the n-th slug to try for base: base itself for 0,
// then base-1, base-2 ...
func SlugCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// FallbackSlug is used when a title yields no slug characters or every
// numbered candidate is taken.
func FallbackSlug(base string, now time.Time) string {
	if base == "" {
		base = "post"
	}
	return fmt.Sprintf("%s-%d", base, now.UnixMilli())
}

// Truncate cuts s to n runes, appending "..." when anything was removed.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
