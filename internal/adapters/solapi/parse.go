package solapi

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"masgolf/internal/domain/contactinfo"
)

// Message text limits for the first page of the message list.
const (
	minMessageRunes = 20
	maxMessageRunes = 500
)

// Counts are the delivery figures shown in a group modal.
type Counts struct {
	Success int
	Fail    int
	Sending int
	Total   int
}

var (
	countPatterns = []*regexp.Regexp{
		regexp.MustCompile(`실패\s*(\d+)\s*/\s*성공\s*(\d+)\s*/\s*발송중\s*(\d+)`),
		regexp.MustCompile(`실패\s*(\d+)\s*성공\s*(\d+)\s*발송중\s*(\d+)`),
		regexp.MustCompile(`실패.*?(\d+).*?성공.*?(\d+).*?발송중.*?(\d+)`),
	}
	successPattern = regexp.MustCompile(`성공[:\s]*(\d+)`)
	failPattern    = regexp.MustCompile(`실패[:\s]*(\d+)`)
	sendingPattern = regexp.MustCompile(`발송중[:\s]*(\d+)`)
	totalPattern   = regexp.MustCompile(`총\s*(\d+)건`)

	// Prefixed timestamps are tried first so a list date elsewhere in the
	// modal does not win over the group's own creation time.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`그룹생성시각[:\s]*(\d{4}[/-]\d{2}[/-]\d{2}\s+\d{2}:\d{2}:\d{2})`),
		regexp.MustCompile(`발송요청시각[:\s]*(\d{4}[/-]\d{2}[/-]\d{2}\s+\d{2}:\d{2}:\d{2})`),
		regexp.MustCompile(`(\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2})`),
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})`),
	}

	pagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`전체\s*\((\d+)/(\d+)\)`),
		regexp.MustCompile(`(\d+)\s*/\s*(\d+)`),
	}

	requestedRow = regexp.MustCompile(`\d+건.*발송요청완료`)
	typePattern  = regexp.MustCompile(`\b(SMS|LMS|MMS)\b`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ParseCounts extracts fail/success/sending counts from modal text.
// "총 n건" overrides the summed total.
func ParseCounts(text string) Counts {
	var c Counts
	matched := false
	for _, p := range countPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			c.Fail, c.Success, c.Sending = atoi(m[1]), atoi(m[2]), atoi(m[3])
			matched = true
			break
		}
	}
	if !matched {
		if m := successPattern.FindStringSubmatch(text); m != nil {
			c.Success = atoi(m[1])
		}
		if m := failPattern.FindStringSubmatch(text); m != nil {
			c.Fail = atoi(m[1])
		}
		if m := sendingPattern.FindStringSubmatch(text); m != nil {
			c.Sending = atoi(m[1])
		}
	}
	c.Total = c.Success + c.Fail + c.Sending
	if m := totalPattern.FindStringSubmatch(text); m != nil {
		c.Total = atoi(m[1])
	}
	return c
}

// ParseSentAt finds the group's send time, read in loc.
func ParseSentAt(text string, loc *time.Location) (time.Time, bool) {
	for _, p := range datePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], "/", "-")
		raw = spaceRun.ReplaceAllString(raw, " ")
		t, err := time.ParseInLocation("2006-01-02 15:04:05", raw, loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsePageInfo reads "전체 (n/m)" or a bare "n/m" pager label.
func ParsePageInfo(text string) (current, total int, ok bool) {
	for _, p := range pagePatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			current, total = atoi(m[1]), atoi(m[2])
			if current > 0 && total >= current {
				return current, total, true
			}
		}
	}
	return 0, 0, false
}

// ParseMessageType returns the first SMS/LMS/MMS token in text, or "".
func ParseMessageType(text string) string {
	if m := typePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// PickRow chooses the search result to open: the row containing groupID,
// else the first "n건 ... 발송요청완료" row, else the first row.
// POST: Returns -1 only when rows is empty
func PickRow(rows []string, groupID string) int {
	if len(rows) == 0 {
		return -1
	}
	for i, r := range rows {
		if groupID != "" && strings.Contains(r, groupID) {
			return i
		}
	}
	for i, r := range rows {
		if requestedRow.MatchString(r) {
			return i
		}
	}
	return 0
}

// Page is the content of one message-list page.
type Page struct {
	Recipients  []string
	MessageText string
}

// ParseMessageTable reads recipients (4th cell) and message text (7th cell)
// from a message-list table. The header row has no td cells and is skipped.
func ParseMessageTable(html string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, err
	}
	var p Page
	seen := map[string]bool{}
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		for _, phone := range contactinfo.ExtractPhones(cells.Eq(3).Text()) {
			if !seen[phone] {
				seen[phone] = true
				p.Recipients = append(p.Recipients, phone)
			}
		}
		if p.MessageText == "" && cells.Length() >= 7 {
			p.MessageText = messageText(cells.Eq(6).Text())
		}
	})
	return p, nil
}

func messageText(raw string) string {
	t := strings.TrimSpace(raw)
	if utf8.RuneCountInString(t) <= minMessageRunes {
		return ""
	}
	if utf8.RuneCountInString(t) > maxMessageRunes {
		t = string([]rune(t)[:maxMessageRunes])
	}
	return t
}

// FindImageURL returns the first http(s) image source inside html.
func FindImageURL(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var out string
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			out = src
			return false
		}
		return true
	})
	return out
}

// MergeRecipients appends phones from more to base, skipping duplicates.
func MergeRecipients(base, more []string) []string {
	seen := make(map[string]bool, len(base))
	for _, p := range base {
		seen[p] = true
	}
	for _, p := range more {
		if !seen[p] {
			seen[p] = true
			base = append(base, p)
		}
	}
	return base
}
