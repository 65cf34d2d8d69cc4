package calendar

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// ContentType values.
const (
	TypeBlog   = "blog"
	TypeSocial = "social"
	TypeEmail  = "email"
	TypeFunnel = "funnel"
	TypeVideo  = "video"
)

// Status values, in workflow order.
const (
	StatusPlanned   = "planned"
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusApproved  = "approved"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Season values.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// Channel values a hub item can be planned for.
const (
	ChannelBlog      = "blog"
	ChannelInstagram = "instagram"
	ChannelFacebook  = "facebook"
	ChannelYouTube   = "youtube"
	ChannelNaverBlog = "naver_blog"
	ChannelEmail     = "email"
	ChannelTikTok    = "tiktok"
)

// Derivative channels produced from hub content.
const (
	DeriveBlog  = "blog"
	DeriveNaver = "naver_blog"
	DeriveSMS   = "sms"
	DeriveKakao = "kakao"
)

var (
	validTypes    = []string{TypeBlog, TypeSocial, TypeEmail, TypeFunnel, TypeVideo}
	validStatuses = []string{StatusPlanned, StatusDraft, StatusReview, StatusApproved, StatusPublished, StatusArchived}
	validSeasons  = []string{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}
	validChannels = []string{ChannelBlog, ChannelInstagram, ChannelFacebook, ChannelYouTube, ChannelNaverBlog, ChannelEmail, ChannelTikTok}
)

// Max length constants.
const (
	MaxTitleLength = 200
	MinPriority    = 1
	MaxPriority    = 5
)

// Domain errors
var (
	ErrEmptyTitle      = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title cannot exceed 200 characters")
	ErrInvalidType     = errors.New("content_type must be one of: blog, social, email, funnel, video")
	ErrInvalidStatus   = errors.New("status must be one of: planned, draft, review, approved, published, archived")
	ErrInvalidSeason   = errors.New("season must be one of: spring, summer, autumn, winter")
	ErrInvalidChannel  = errors.New("unknown channel")
	ErrInvalidPriority = errors.New("priority must be between 1 and 5")
	ErrInvalidDate     = errors.New("content_date must be YYYY-MM-DD")
	ErrInvalidMonth    = errors.New("month must be between 1 and 12")
)

// Item is a hub content row in content_calendar. Derivatives (blog post,
// SMS, Kakao and Naver drafts) reference it by ID.
type Item struct {
	ID                  string    `json:"id"`
	Year                int       `json:"year"`
	Month               int       `json:"month"`
	Week                int       `json:"week"`
	ContentDate         string    `json:"content_date"`
	Season              string    `json:"season"`
	Theme               string    `json:"theme,omitempty"`
	CampaignID          string    `json:"campaign_id,omitempty"`
	ContentType         string    `json:"content_type"`
	Title               string    `json:"title"`
	Content             string    `json:"content,omitempty"`
	Keywords            []string  `json:"keywords"`
	Hashtags            []string  `json:"hashtags"`
	Status              string    `json:"status"`
	Priority            int       `json:"priority"`
	PublishedChannels   []string  `json:"published_channels"`
	DerivedContentCount int       `json:"derived_content_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Validate checks if the Item has valid data.
// PRE: Item struct is populated
// POST: Returns nil if valid, the first violation otherwise
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(i.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if i.Month < 1 || i.Month > 12 {
		return ErrInvalidMonth
	}
	if i.ContentDate != "" {
		if _, err := time.Parse("2006-01-02", i.ContentDate); err != nil {
			return ErrInvalidDate
		}
	}
	if !contains(validTypes, i.ContentType) {
		return ErrInvalidType
	}
	if !contains(validStatuses, i.Status) {
		return ErrInvalidStatus
	}
	if !contains(validSeasons, i.Season) {
		return ErrInvalidSeason
	}
	if i.Priority < MinPriority || i.Priority > MaxPriority {
		return ErrInvalidPriority
	}
	return nil
}

// ApplyDefaults fills derived fields left empty by the caller: year, month
// and season from ContentDate, status planned, type blog, priority 3.
// PRE: ContentDate is empty or YYYY-MM-DD
func (i *Item) ApplyDefaults() {
	if d, err := time.Parse("2006-01-02", i.ContentDate); err == nil {
		if i.Year == 0 {
			i.Year = d.Year()
		}
		if i.Month == 0 {
			i.Month = int(d.Month())
		}
		if i.Week == 0 {
			i.Week = (d.Day()-1)/7 + 1
		}
	}
	if i.Season == "" && i.Month >= 1 && i.Month <= 12 {
		i.Season = SeasonForMonth(time.Month(i.Month))
	}
	if i.Status == "" {
		i.Status = StatusPlanned
	}
	if i.ContentType == "" {
		i.ContentType = TypeBlog
	}
	if i.Priority == 0 {
		i.Priority = 3
	}
}

// RecordDerivatives stores which derivative channels were produced.
// POST: DerivedContentCount == len(PublishedChannels)
func (i *Item) RecordDerivatives(channels []string, now time.Time) {
	i.PublishedChannels = append([]string(nil), channels...)
	i.DerivedContentCount = len(channels)
	i.UpdatedAt = now
}

// SeasonForMonth maps Mar-May to spring, Jun-Aug to summer, Sep-Nov to
// autumn and Dec-Feb to winter.
func SeasonForMonth(m time.Month) string {
	switch m {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

// IsValidChannel reports whether c is a plannable channel.
func IsValidChannel(c string) bool {
	return contains(validChannels, c)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
