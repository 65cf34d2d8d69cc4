package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"
	"time"

	"masgolf/internal/adapters/ai"
	"masgolf/internal/adapters/imagegen"
	"masgolf/internal/adapters/supabase"
	"masgolf/internal/domain/imagemeta"
)

// ImageMetaSaver stores image metadata rows.
type ImageMetaSaver interface {
	Save(ctx context.Context, m imagemeta.Metadata) error
}

// ImproveImageDeps holds dependencies for ImproveImage. Describer may be nil.
type ImproveImageDeps struct {
	Generator  imagegen.Generator
	Download   func(ctx context.Context, url string) ([]byte, string, error)
	Uploader   supabase.Uploader
	Describer  ai.Describer
	Store      ImageMetaSaver
	Provider   string
	GenerateID func() string
	Now        func() time.Time
}

// ImproveImageInput is one improvement request.
type ImproveImageInput struct {
	ImageURL     string `json:"image_url"`
	Instructions string `json:"instructions"`
	Category     string `json:"category"`
}

// ImproveImageResult is returned to the editor.
type ImproveImageResult struct {
	ImageURL   string             `json:"image_url"`
	MetadataID string             `json:"metadata_id"`
	Metadata   imagemeta.Metadata `json:"metadata"`
}

// ErrImageURLScheme is returned for image URLs that are not http(s).
var ErrImageURLScheme = errors.New("image_url must be http or https")

const defaultImprovePrompt = "Improve lighting, sharpness and color balance while keeping the product and composition unchanged."

// ExecuteImproveImage runs the improvement pipeline in sequence: generate,
// download, upload, describe, store. Only the description step may fail
// without failing the request.
// PRE: ImageURL is an absolute http(s) URL
// POST: On success the improved image is public and its metadata row exists
func ExecuteImproveImage(ctx context.Context, in ImproveImageInput, deps ImproveImageDeps) (ImproveImageResult, error) {
	src := strings.TrimSpace(in.ImageURL)
	if src == "" {
		return ImproveImageResult{}, imagemeta.ErrEmptyURL
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return ImproveImageResult{}, ErrImageURLScheme
	}
	prompt := strings.TrimSpace(in.Instructions)
	if prompt == "" {
		prompt = defaultImprovePrompt
	}
	now := clock(deps.Now)
	id := deps.GenerateID()

	gen, err := deps.Generator.Improve(ctx, imagegen.Request{ImageURL: src, Prompt: prompt})
	if err != nil {
		return ImproveImageResult{}, fmt.Errorf("generate image: %w", err)
	}
	data, contentType, err := deps.Download(ctx, gen.OutputURL)
	if err != nil {
		return ImproveImageResult{}, fmt.Errorf("download generated image: %w", err)
	}
	if contentType == "" {
		contentType = "image/png"
	}
	path := imagemeta.ImprovedPath(id, now)
	publicURL, err := deps.Uploader.Upload(ctx, path, contentType, data)
	if err != nil {
		return ImproveImageResult{}, err
	}

	meta := imagemeta.Metadata{
		ID:          id,
		ImageURL:    publicURL,
		StoragePath: path,
		Category:    strings.TrimSpace(in.Category),
		Source:      imagemeta.SourceAIImproved,
		Provider:    deps.Provider,
		Prompt:      prompt,
		OriginalURL: src,
		FileSize:    int64(len(data)),
		Keywords:    []string{},
		CreatedAt:   now,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Width, meta.Height = cfg.Width, cfg.Height
	}
	if deps.Describer != nil {
		desc, err := deps.Describer.Describe(ctx, data, contentType)
		if err != nil {
			slog.Warn("image_describe_failed", "image_id", id, "error", err.Error())
		} else {
			meta.AltText = truncate(desc.AltText, imagemeta.MaxAltTextLength)
			meta.Title = truncate(desc.Title, imagemeta.MaxTitleLength)
			meta.Description = desc.Description
			meta.SetKeywords(desc.Keywords)
			if len(meta.Keywords) > imagemeta.MaxKeywords {
				meta.Keywords = meta.Keywords[:imagemeta.MaxKeywords]
			}
		}
	}
	if err := meta.Validate(); err != nil {
		return ImproveImageResult{}, err
	}
	if err := deps.Store.Save(ctx, meta); err != nil {
		return ImproveImageResult{}, fmt.Errorf("save image metadata: %w", err)
	}
	slog.Info("image_improved", "image_id", id, "prediction_id", gen.PredictionID, "polls", gen.Polls, "path", path, "bytes", len(data))
	return ImproveImageResult{ImageURL: publicURL, MetadataID: id, Metadata: meta}, nil
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
