package imagemeta

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Source values
const (
	SourceAIImproved = "ai-improved"
	SourceUpload     = "upload"
)

// Field limits
const (
	MaxAltTextLength = 300
	MaxTitleLength   = 200
	MaxKeywords      = 20
)

// Domain errors
var (
	ErrEmptyURL       = errors.New("image_url is required")
	ErrAltTooLong     = errors.New("alt_text cannot exceed 300 characters")
	ErrTitleTooLong   = errors.New("title cannot exceed 200 characters")
	ErrTooManyKeyword = errors.New("at most 20 keywords are allowed")
)

// Metadata describes one stored image.
type Metadata struct {
	ID          string    `json:"id"`
	ImageURL    string    `json:"image_url"`
	StoragePath string    `json:"storage_path,omitempty"`
	AltText     string    `json:"alt_text,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Keywords    []string  `json:"keywords"`
	Category    string    `json:"category,omitempty"`
	Source      string    `json:"source,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	OriginalURL string    `json:"original_url,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	FileSize    int64     `json:"file_size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks if the Metadata has valid data.
// PRE: Metadata struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Metadata) Validate() error {
	if strings.TrimSpace(m.ImageURL) == "" {
		return ErrEmptyURL
	}
	if utf8.RuneCountInString(m.AltText) > MaxAltTextLength {
		return ErrAltTooLong
	}
	if utf8.RuneCountInString(m.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(m.Keywords) > MaxKeywords {
		return ErrTooManyKeyword
	}
	return nil
}

// SetKeywords trims, drops empties and de-duplicates keywords in order.
func (m *Metadata) SetKeywords(kw []string) {
	seen := map[string]bool{}
	out := make([]string, 0, len(kw))
	for _, k := range kw {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
	}
	m.Keywords = out
}

// ImprovedPath returns the storage object path for an AI-improved image:
// ai-improved/{yyyy-mm}/{id}.png.
func ImprovedPath(id string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.png", SourceAIImproved, at.Format("2006-01"), id)
}
