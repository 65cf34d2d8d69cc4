package web

import (
	"errors"
	"net/http"
	"strings"

	"masgolf/internal/adapters/storage"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/application/projections"
	"masgolf/internal/domain/booking"
)

func notifyDeps() orchestrators.NotifyDeps {
	return orchestrators.NotifyDeps{
		Outbox:   stores.OutboxStore,
		NotifyTo: settings.NotifyTo,
		Metrics:  services.Metrics,
	}
}

type bookingRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Duration       int    `json:"duration"`
	Club           string `json:"club"`
	Memo           string `json:"memo"`
	QuizResultID   string `json:"quiz_result_id"`
	CampaignSource string `json:"campaign_source"`
}

// handleSubmitBooking handles POST /api/booking.
func handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	b, err := orchestrators.ExecuteSubmitBooking(r.Context(), orchestrators.SubmitBookingInput{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Date:           req.Date,
		Time:           req.Time,
		Duration:       req.Duration,
		Club:           req.Club,
		Memo:           req.Memo,
		QuizResultID:   req.QuizResultID,
		CampaignSource: req.CampaignSource,
	}, orchestrators.SubmitBookingDeps{
		BookingStore: stores.BookingStore,
		Notify:       notifyDeps(),
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "booking", b)
}

// handleAvailability handles GET /api/bookings/available?date=&duration=.
func handleAvailability(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeFailure(w, http.StatusBadRequest, booking.ErrInvalidDate.Error())
		return
	}
	duration := queryInt(r, "duration", booking.DefaultDuration)
	avail, err := projections.GetAvailability(r.Context(), date, duration, projections.AvailabilityDeps{
		Schedule: stores.ScheduleStore,
		Bookings: stores.BookingStore,
		Location: settings.Location,
	}, timeNow())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

type contactRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	CallTimes      string `json:"call_times"`
	Inquiry        string `json:"inquiry"`
	CampaignSource string `json:"campaign_source"`
}

// handleSubmitContact handles POST /api/contact.
func handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteSubmitContact(r.Context(), orchestrators.SubmitContactInput{
		Name:           req.Name,
		Phone:          req.Phone,
		CallTimes:      req.CallTimes,
		Inquiry:        req.Inquiry,
		CampaignSource: req.CampaignSource,
	}, orchestrators.SubmitContactDeps{
		ContactStore: stores.ContactStore,
		Notify:       notifyDeps(),
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "contact", c)
}

type quizRequest struct {
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	SwingStyle       string `json:"swing_style"`
	Priority         string `json:"priority"`
	CurrentDistance  string `json:"current_distance"`
	RecommendedFlex  string `json:"recommended_flex"`
	ExpectedDistance string `json:"expected_distance"`
	CampaignSource   string `json:"campaign_source"`
}

// handleSubmitQuiz handles POST /api/quiz-result.
func handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteSubmitQuiz(r.Context(), orchestrators.SubmitQuizInput{
		Name:             req.Name,
		Phone:            req.Phone,
		Email:            req.Email,
		SwingStyle:       req.SwingStyle,
		Priority:         req.Priority,
		CurrentDistance:  req.CurrentDistance,
		RecommendedFlex:  req.RecommendedFlex,
		ExpectedDistance: req.ExpectedDistance,
		CampaignSource:   req.CampaignSource,
	}, orchestrators.SubmitQuizDeps{
		QuizStore: stores.QuizStore,
		Notify:    notifyDeps(),
		Now:       timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": res.ID, "quiz_result": res})
}

// handlePublicBlogList handles GET /api/blog?category=&page=.
func handlePublicBlogList(w http.ResponseWriter, r *http.Request) {
	const perPage = 12
	page := max(queryInt(r, "page", 1), 1)
	posts, total, err := projections.ListPublishedPosts(r.Context(), r.URL.Query().Get("category"),
		storage.Page{Limit: perPage, Offset: (page - 1) * perPage}, stores.BlogStore)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"posts":   orEmpty(posts),
		"page":    page,
		"total":   total,
	})
}

// handlePublicBlogPost handles GET /api/blog/{slug}.
func handlePublicBlogPost(w http.ResponseWriter, r *http.Request) {
	view, err := projections.GetPublishedPost(r.Context(), r.PathValue("slug"), stores.BlogStore)
	if errors.Is(err, projections.ErrPostNotFound) {
		writeFailure(w, http.StatusNotFound, "게시물을 찾을 수 없습니다.")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "post", view)
}
