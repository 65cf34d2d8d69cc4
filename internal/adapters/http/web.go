package web

import (
	"context"
	"net/http"
	"time"

	"masgolf/internal/adapters/ai"
	"masgolf/internal/adapters/http/middleware"
	"masgolf/internal/adapters/http/perf"
	"masgolf/internal/adapters/imagegen"
	"masgolf/internal/adapters/metrics"
	accountStore "masgolf/internal/adapters/storage/account"
	blogStore "masgolf/internal/adapters/storage/blog"
	bookingStore "masgolf/internal/adapters/storage/booking"
	calendarStore "masgolf/internal/adapters/storage/calendar"
	channelSMSStore "masgolf/internal/adapters/storage/channelsms"
	contactStore "masgolf/internal/adapters/storage/contact"
	customerStore "masgolf/internal/adapters/storage/customer"
	imageMetaStore "masgolf/internal/adapters/storage/imagemeta"
	outboxStore "masgolf/internal/adapters/storage/outbox"
	quizStore "masgolf/internal/adapters/storage/quiz"
	scheduleStore "masgolf/internal/adapters/storage/schedule"
	"masgolf/internal/adapters/supabase"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/domain/calendar"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	BookingStore    bookingStore.Store
	ContactStore    contactStore.Store
	CustomerStore   customerStore.Store
	QuizStore       quizStore.Store
	ScheduleStore   scheduleStore.Store
	OutboxStore     outboxStore.Store
	BlogStore       blogStore.Store
	CalendarStore   calendarStore.Store
	ChannelSMSStore channelSMSStore.Store
	ImageMetaStore  imageMetaStore.Store
}

// Services holds the external integrations. Nil integrations make their
// endpoints answer 503.
type Services struct {
	Outbox        *orchestrators.OutboxProcessor
	Writer        ai.Writer
	Describer     ai.Describer
	ImageGen      imagegen.Generator
	ImageProvider string
	Uploader      supabase.Uploader
	Download      func(ctx context.Context, url string) ([]byte, string, error)
	Scraper       orchestrators.GroupScraper
	Plan          *calendar.Plan
	Metrics       *metrics.Metrics
	Perf          *perf.Collector
}

// Options carries the HTTP settings of one server.
type Options struct {
	Sessions           *middleware.SessionManager
	CSRFKey            []byte
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequest        time.Duration
	NotifyTo           string
	Location           *time.Location
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global integrations (set by NewMux)
var services *Services

// Global session manager (set by NewMux)
var sessions *middleware.SessionManager

// Global settings (set by NewMux)
var settings Options

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the app. The returned stop function ends
// the rate limiter's sweeper.
// PRE: s, svc and o.Sessions are non-nil; len(o.CSRFKey) == 32
func NewMux(s *Stores, svc *Services, o Options) (http.Handler, func()) {
	stores = s
	services = svc
	sessions = o.Sessions
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.RateLimitPerSecond <= 0 {
		o.RateLimitPerSecond = 10
	}
	settings = o

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(o.RateLimitPerSecond, time.Second)
	stop := make(chan struct{})
	go limiter.RunSweeper(stop)

	// Request order: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> mux
	h := middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(o.CSRFKey, o.SecureCookies, o.TrustedOrigins),
		middleware.Auth(o.Sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(svc.Perf, svc.Metrics, o.SlowRequest),
	)
	return h, func() { close(stop) }
}
