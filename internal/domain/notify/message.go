// Package notify builds the staff notification texts sent when a public
// form is submitted.
package notify

import (
	"fmt"
	"html"
	"strings"

	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/contact"
	"masgolf/internal/domain/quiz"
)

const unset = "-"

// line appends "label: value" with an unset marker for empty values.
func line(sb *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = unset
	}
	fmt.Fprintf(sb, "%s: %s\n", label, value)
}

// BookingText is the Slack text for a new fitting booking.
func BookingText(b booking.Booking) string {
	var sb strings.Builder
	sb.WriteString("[새 시타 예약]\n")
	line(&sb, "이름", b.Name)
	line(&sb, "연락처", b.Phone)
	line(&sb, "일시", fmt.Sprintf("%s %s (%d분)", b.Date, b.Time, b.Duration))
	line(&sb, "클럽", b.Club)
	line(&sb, "이메일", b.Email)
	line(&sb, "메모", b.Memo)
	if b.QuizResultID != "" {
		line(&sb, "퀴즈 결과", b.QuizResultID)
	}
	line(&sb, "유입", b.CampaignSource)
	return strings.TrimRight(sb.String(), "\n")
}

// ContactText is the Slack text for a new call-back request.
func ContactText(c contact.Contact) string {
	var sb strings.Builder
	sb.WriteString("[새 상담 문의]\n")
	line(&sb, "이름", c.Name)
	line(&sb, "연락처", c.Phone)
	line(&sb, "통화 가능 시간", c.CallTimes)
	line(&sb, "문의 내용", c.Inquiry)
	line(&sb, "유입", c.CampaignSource)
	return strings.TrimRight(sb.String(), "\n")
}

// QuizText is the Slack text for a completed questionnaire.
func QuizText(r quiz.Result) string {
	var sb strings.Builder
	sb.WriteString("[새 퀴즈 결과]\n")
	line(&sb, "이름", r.Name)
	line(&sb, "연락처", r.Phone)
	line(&sb, "스윙 스타일", r.SwingStyle)
	line(&sb, "중요 요소", r.Priority)
	line(&sb, "현재 비거리", r.CurrentDistance)
	line(&sb, "추천 플렉스", r.RecommendedFlex)
	line(&sb, "예상 비거리", r.ExpectedDistance)
	line(&sb, "유입", r.CampaignSource)
	return strings.TrimRight(sb.String(), "\n")
}

// BookingSubject is the staff email subject for a booking.
func BookingSubject(b booking.Booking) string {
	return fmt.Sprintf("[마쓰구골프] 새 시타 예약: %s %s %s", b.Name, b.Date, b.Time)
}

// HTML renders a plain notification text as an escaped HTML email body.
// POST: every line of text appears once, separated by <br>
func HTML(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return `<div style="font-family: sans-serif; font-size: 14px; line-height: 1.6;">` +
		strings.Join(lines, "<br>\n") + `</div>`
}
