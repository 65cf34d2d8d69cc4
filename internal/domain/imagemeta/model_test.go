package imagemeta_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"masgolf/internal/domain/imagemeta"
)

// TestMetadata_Validate tests validation of Metadata.
func TestMetadata_Validate(t *testing.T) {
	tests := []struct {
		name    string
		meta    imagemeta.Metadata
		wantErr error
	}{
		{"valid", imagemeta.Metadata{ImageURL: "https://cdn/x.png"}, nil},
		{"missing url", imagemeta.Metadata{AltText: "드라이버"}, imagemeta.ErrEmptyURL},
		{"alt too long", imagemeta.Metadata{ImageURL: "u", AltText: strings.Repeat("a", 301)}, imagemeta.ErrAltTooLong},
		{"title too long", imagemeta.Metadata{ImageURL: "u", Title: strings.Repeat("t", 201)}, imagemeta.ErrTitleTooLong},
		{"too many keywords", imagemeta.Metadata{ImageURL: "u", Keywords: make([]string, 21)}, imagemeta.ErrTooManyKeyword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.meta.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestMetadata_SetKeywords tests keyword cleanup.
func TestMetadata_SetKeywords(t *testing.T) {
	var m imagemeta.Metadata
	m.SetKeywords([]string{" golf ", "Golf", "", "드라이버", "드라이버"})
	if diff := cmp.Diff([]string{"golf", "드라이버"}, m.Keywords); diff != "" {
		t.Errorf("keywords (-want +got):\n%s", diff)
	}
}

// TestImprovedPath tests the storage layout.
func TestImprovedPath(t *testing.T) {
	at := time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC)
	if got := imagemeta.ImprovedPath("abc", at); got != "ai-improved/2025-09/abc.png" {
		t.Errorf("ImprovedPath = %q", got)
	}
}
