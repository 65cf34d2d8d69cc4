package web

import (
	"net/http"
	"strings"

	blogStore "masgolf/internal/adapters/storage/blog"
	calendarStore "masgolf/internal/adapters/storage/calendar"
	"masgolf/internal/application/listutil"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/application/projections"
	"masgolf/internal/domain/calendar"
)

var blogListOptions = listutil.Admin([]string{"title", "created_at", "updated_at", "published_at"}, "status", "category")

func blogDeps() orchestrators.BlogDeps {
	return orchestrators.BlogDeps{Store: stores.BlogStore, GenerateID: generateID, Now: timeNow}
}

// handleAdminBlogList handles GET /api/admin/blog?status=&category=&q=.
func handleAdminBlogList(w http.ResponseWriter, r *http.Request) {
	p := listutil.Parse(r.URL.Query(), blogListOptions)
	list, total, err := stores.BlogStore.List(r.Context(), blogStore.Filter{
		Query:    p.Search,
		Status:   p.Filters["status"],
		Category: p.Filters["category"],
	}, p.StoragePage())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"posts":      orEmpty(list),
		"pagination": listutil.NewPageInfo(p, total),
	})
}

// handleAdminBlogGet handles GET /api/admin/blog/{id}.
func handleAdminBlogGet(w http.ResponseWriter, r *http.Request) {
	p, err := stores.BlogStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "post", p)
}

// handleAdminBlogCreate handles POST /api/admin/blog.
func handleAdminBlogCreate(w http.ResponseWriter, r *http.Request) {
	var in orchestrators.SaveBlogPostInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	in.ID = ""
	p, err := orchestrators.ExecuteSaveBlogPost(r.Context(), in, blogDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "post", p)
}

// handleAdminBlogUpdate handles PUT /api/admin/blog/{id}.
func handleAdminBlogUpdate(w http.ResponseWriter, r *http.Request) {
	var in orchestrators.SaveBlogPostInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	in.ID = r.PathValue("id")
	p, err := orchestrators.ExecuteSaveBlogPost(r.Context(), in, blogDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "post", p)
}

// handleAdminBlogDelete handles DELETE /api/admin/blog/{id}.
func handleAdminBlogDelete(w http.ResponseWriter, r *http.Request) {
	if err := stores.BlogStore.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", nil)
}

func planYear(r *http.Request) int {
	return queryInt(r, "year", timeNow().In(settings.Location).Year())
}

// handleAnnualPlan handles GET /api/admin/content-calendar/annual?year=.
// Nothing is persisted.
func handleAnnualPlan(w http.ResponseWriter, r *http.Request) {
	if services.Plan == nil {
		unavailable(w, "annual plan")
		return
	}
	year := planYear(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"year":    year,
		"items":   projections.AnnualPlan(services.Plan, year),
	})
}

// handleAnnualPlanSeed handles POST /api/admin/content-calendar/annual?year=&dry_run=.
func handleAnnualPlanSeed(w http.ResponseWriter, r *http.Request) {
	if services.Plan == nil {
		unavailable(w, "annual plan")
		return
	}
	dryRun := r.URL.Query().Get("dry_run") == "true"
	res, err := orchestrators.ExecuteSeedCalendar(r.Context(), services.Plan, planYear(r), stores.CalendarStore, dryRun, generateID, timeNow)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "result", res)
}

// handleHubList handles GET /api/admin/content-calendar/hub?year=&month=&status=&campaign_id=.
func handleHubList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := projections.ListHubContent(r.Context(), calendarStore.Filter{
		Year:       queryInt(r, "year", 0),
		Month:      queryInt(r, "month", 0),
		Status:     q.Get("status"),
		CampaignID: q.Get("campaign_id"),
	}, stores.CalendarStore)
	if err != nil {
		internalError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "items", orEmpty(list))
}

type hubRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ContentDate string   `json:"content_date"`
	ContentType string   `json:"content_type"`
	Theme       string   `json:"theme"`
	CampaignID  string   `json:"campaign_id"`
	Keywords    []string `json:"keywords"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
	AutoDerive  bool     `json:"auto_derive"`
}

// handleHubCreate handles POST /api/admin/content-calendar/hub.
func handleHubCreate(w http.ResponseWriter, r *http.Request) {
	var req hubRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	now := timeNow()
	item := calendar.Item{
		ID:          generateID(),
		ContentDate: strings.TrimSpace(req.ContentDate),
		ContentType: req.ContentType,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Theme:       req.Theme,
		CampaignID:  req.CampaignID,
		Keywords:    req.Keywords,
		Status:      req.Status,
		Priority:    req.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := orchestrators.ExecuteCreateHubContent(r.Context(), item, req.AutoDerive, orchestrators.HubDeps{
		Calendar:   stores.CalendarStore,
		Blog:       stores.BlogStore,
		SMS:        stores.ChannelSMSStore,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "hub", res)
}

// handleGenerateContent handles POST /api/admin/content/generate.
func handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	if services.Writer == nil {
		unavailable(w, "text generation")
		return
	}
	var in orchestrators.GenerateContentInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	drafts, err := orchestrators.ExecuteGenerateContent(r.Context(), in, services.Writer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "drafts", drafts)
}
