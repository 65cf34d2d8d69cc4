package web

import (
	"net/http"
	"strings"

	"masgolf/internal/application/listutil"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/domain/channelsms"
)

var (
	imageListOptions = listutil.Admin(nil, "category")
	smsListOptions   = listutil.Admin(nil, "status")
)

// handleImproveImage handles POST /api/simple-ai-image-improvement.
func handleImproveImage(w http.ResponseWriter, r *http.Request) {
	if services.ImageGen == nil || services.Uploader == nil || services.Download == nil {
		unavailable(w, "image improvement")
		return
	}
	var in orchestrators.ImproveImageInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	res, err := orchestrators.ExecuteImproveImage(r.Context(), in, orchestrators.ImproveImageDeps{
		Generator:  services.ImageGen,
		Download:   services.Download,
		Uploader:   services.Uploader,
		Describer:  services.Describer,
		Store:      stores.ImageMetaStore,
		Provider:   services.ImageProvider,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"image_url":   res.ImageURL,
		"metadata_id": res.MetadataID,
		"metadata":    res.Metadata,
	})
}

// handleImageMetadataList handles GET /api/admin/image-metadata?q=&category=.
func handleImageMetadataList(w http.ResponseWriter, r *http.Request) {
	p := listutil.Parse(r.URL.Query(), imageListOptions)
	list, total, err := stores.ImageMetaStore.List(r.Context(), p.Search, p.Filters["category"], p.StoragePage())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"images":     orEmpty(list),
		"pagination": listutil.NewPageInfo(p, total),
	})
}

type imageMetadataRequest struct {
	AltText     *string  `json:"alt_text"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Keywords    []string `json:"keywords"`
}

// handleImageMetadataUpdate handles PUT /api/admin/image-metadata/{id}.
// Omitted fields keep their stored values.
func handleImageMetadataUpdate(w http.ResponseWriter, r *http.Request) {
	var req imageMetadataRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	m, err := stores.ImageMetaStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if req.AltText != nil {
		m.AltText = strings.TrimSpace(*req.AltText)
	}
	if req.Title != nil {
		m.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		m.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		m.Category = strings.TrimSpace(*req.Category)
	}
	if req.Keywords != nil {
		m.SetKeywords(req.Keywords)
	}
	if err := m.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := stores.ImageMetaStore.Save(r.Context(), m); err != nil {
		internalError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "metadata", m)
}

// handleSMSList handles GET /api/admin/sms?status=.
func handleSMSList(w http.ResponseWriter, r *http.Request) {
	p := listutil.Parse(r.URL.Query(), smsListOptions)
	list, total, err := stores.ChannelSMSStore.List(r.Context(), p.Filters["status"], p.StoragePage())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"messages":   orEmpty(list),
		"pagination": listutil.NewPageInfo(p, total),
	})
}

type smsSyncRequest struct {
	GroupID string `json:"group_id"`
}

// handleSMSSync handles POST /api/admin/sms/sync: scrape one Solapi group
// and upsert its channel_sms row.
func handleSMSSync(w http.ResponseWriter, r *http.Request) {
	if services.Scraper == nil {
		unavailable(w, "solapi console")
		return
	}
	var req smsSyncRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	groupID := strings.TrimSpace(req.GroupID)
	if groupID == "" {
		writeError(w, channelsms.ErrEmptyGroupID)
		return
	}
	res, err := orchestrators.ExecuteSyncSolapiGroup(r.Context(), groupID, orchestrators.SyncSolapiDeps{
		Scraper:    services.Scraper,
		Store:      stores.ChannelSMSStore,
		GenerateID: generateID,
		Metrics:    services.Metrics,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"success": true,
		"message": res.Message,
		"created": res.Created,
	})
}
