package calendar

import (
	"strings"
	"time"

	"masgolf/internal/domain/blog"
	"masgolf/internal/domain/channelsms"
)

// Derivative length limits, counted in runes.
const (
	BlogExcerptLength = 200
	SMSMaxLength      = 160
	KakaoMaxLength    = 500
	naverTitleSuffix  = " | 골프 전문점 마쓰구골프"
)

// NaverTags are attached to every Naver blog derivative.
var NaverTags = []string{"골프", "드라이버", "비거리", "마쓰구골프"}

// ChannelPost is a per-channel derivative draft (kakao, naver_blog) stored in
// channel_posts until someone posts it by hand.
type ChannelPost struct {
	ID           string    `json:"id"`
	Channel      string    `json:"channel"`
	HubContentID string    `json:"hub_content_id"`
	Title        string    `json:"title,omitempty"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	Status       string    `json:"status"`
	ScheduledAt  time.Time `json:"scheduled_at,omitzero"`
	CreatedAt    time.Time `json:"created_at"`
}

// DeriveBlogPost builds a draft blog post from hub content.
// POST: post is a draft linked to the hub item; slug is the base slug and may
// still collide
func DeriveBlogPost(hub Item, now time.Time) blog.Post {
	return blog.Post{
		Slug:            blog.Slugify(hub.Title),
		Title:           hub.Title,
		Content:         hub.Content,
		Excerpt:         blog.Truncate(hub.Content, BlogExcerptLength),
		Category:        hub.Theme,
		Tags:            append([]string(nil), hub.Keywords...),
		Status:          blog.StatusDraft,
		MetaTitle:       hub.Title,
		MetaDescription: truncateRunes(hub.Content, blog.MaxMetaDescription),
		Author:          blog.DefaultAuthor,
		HubContentID:    hub.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// DeriveNaverPost builds the Naver blog draft: branded title, HTML line breaks
// and the fixed tag set.
func DeriveNaverPost(hub Item, now time.Time) ChannelPost {
	return ChannelPost{
		Channel:      DeriveNaver,
		HubContentID: hub.ID,
		Title:        hub.Title + naverTitleSuffix,
		Content:      strings.ReplaceAll(hub.Content, "\n", "<br>"),
		Tags:         append([]string(nil), NaverTags...),
		Status:       StatusDraft,
		CreatedAt:    now,
	}
}

// DeriveKakaoPost builds the KakaoTalk channel draft from the first 500 runes.
func DeriveKakaoPost(hub Item, now time.Time) ChannelPost {
	return ChannelPost{
		Channel:      DeriveKakao,
		HubContentID: hub.ID,
		Title:        hub.Title,
		Content:      truncateRunes(hub.Content, KakaoMaxLength),
		Tags:         []string{},
		Status:       StatusDraft,
		CreatedAt:    now,
	}
}

// NewSMSDraft builds a draft SMS that fits one 160 rune message.
// POST: len([]rune(MessageText)) <= 160
func NewSMSDraft(hub Item, now time.Time) channelsms.Message {
	text := hub.Content
	if n := len([]rune(text)); n > SMSMaxLength {
		text = string([]rune(text)[:SMSMaxLength-3]) + "..."
	}
	return channelsms.Message{
		MessageText:      text,
		MessageType:      channelsms.ClassifyType("", text, false),
		Status:           channelsms.StatusDraft,
		CallToAction:     CallToAction(hub.Content),
		RecipientNumbers: []string{},
		HubContentID:     hub.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CallToAction picks the SMS button label from the hub copy.
func CallToAction(content string) string {
	switch {
	case strings.Contains(content, "체험"):
		return "무료 체험 신청"
	case strings.Contains(content, "할인"):
		return "할인 혜택 받기"
	default:
		return "자세히 보기"
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
