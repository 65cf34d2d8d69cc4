// Package solapi reads message-group delivery reports from the Solapi web
// console with a headless browser.
package solapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"masgolf/internal/domain/channelsms"
	"masgolf/internal/domain/contactinfo"
)

const (
	maxPages            = 10
	searchShot          = "solapi-search-page.png"
	modalShot           = "solapi-modal-failed.png"
	defaultLoginTimeout = 60 * time.Second
	defaultLoginPoll    = 2 * time.Second
)

var (
	ErrLoginTimeout = errors.New("solapi login did not complete")
	ErrNoRows       = errors.New("solapi search returned no rows")
	ErrNoModal      = errors.New("solapi group modal did not open")
)

// Ordered fallbacks; the console markup changes without notice.
var (
	usernameSelectors = []string{
		`input[type="email"]`,
		`input[name="email"]`,
		`input[name="username"]`,
		`input[placeholder*="아이디"]`,
		`input[placeholder*="이메일"]`,
		`input[placeholder*="전화번호"]`,
		`input[placeholder*="ID"]`,
		`input[placeholder*="Email"]`,
	}
	passwordSelectors = []string{`input[type="password"]`, `input[name="password"]`}
	submitSelectors   = []string{`button[type="submit"]`, `button:has-text("로그인")`, `button:has-text("Login")`}
	rowSelectors      = []string{`table tbody tr`, `[role="table"] tbody tr`, `tbody tr`, `tr`}
	modalSelectors    = []string{`[role="dialog"]`, `.modal`, `[class*="Modal"]`}
	expandSelectors   = []string{
		`button:has-text("자세한 그룹 정보 펼치기")`,
		`button:has-text("자세한 그룹 정보")`,
		`[role="button"]:has-text("자세한 그룹 정보")`,
	}
	listTabSelectors = []string{
		`[role="tab"]:has-text("메시지 목록")`,
		`button:has-text("메시지 목록")`,
		`button:has-text("Message List")`,
	}
	nextSelectors = []string{
		`.navigate_next`,
		`button:has([class*="navigate_next"])`,
		`button[aria-label*="next" i]`,
		`button:has-text("다음")`,
	}
)

// Scraper fetches the delivery report of one message group.
type Scraper interface {
	Scrape(ctx context.Context, groupID string) (channelsms.GroupReport, error)
}

// Config configures the console scraper.
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	Headless     bool
	DebugDir     string // screenshots land here
	LoginTimeout time.Duration
	LoginPoll    time.Duration
	Location     *time.Location // timezone of console timestamps
}

// Console drives the Solapi console with Playwright.
type Console struct {
	cfg Config
}

// NewConsole creates a console scraper with defaults filled in.
func NewConsole(cfg Config) *Console {
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = defaultLoginTimeout
	}
	if cfg.LoginPoll <= 0 {
		cfg.LoginPoll = defaultLoginPoll
	}
	if cfg.Location == nil {
		cfg.Location = time.FixedZone("KST", 9*3600)
	}
	if cfg.DebugDir == "" {
		cfg.DebugDir = "."
	}
	return &Console{cfg: cfg}
}

// Scrape logs in, opens the group's modal and reads counts, send time,
// message text, image and recipients.
// PRE: groupID is non-empty
// POST: Returned report has GroupID set; Recipients are deduplicated
func (c *Console) Scrape(ctx context.Context, groupID string) (channelsms.GroupReport, error) {
	if strings.TrimSpace(groupID) == "" {
		return channelsms.GroupReport{}, channelsms.ErrEmptyGroupID
	}
	pw, err := playwright.Run()
	if err != nil {
		return channelsms.GroupReport{}, fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(c.cfg.Headless)})
	if err != nil {
		return channelsms.GroupReport{}, fmt.Errorf("launch chromium: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		return channelsms.GroupReport{}, fmt.Errorf("new page: %w", err)
	}

	if err := c.login(ctx, page); err != nil {
		return channelsms.GroupReport{}, err
	}
	modal, err := c.openGroup(ctx, page, groupID)
	if err != nil {
		return channelsms.GroupReport{}, err
	}
	return c.readModal(ctx, page, modal, groupID)
}

func (c *Console) login(ctx context.Context, page playwright.Page) error {
	if _, err := page.Goto(c.cfg.BaseURL+"/login", playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	user := firstVisible(page.Locator("body"), usernameSelectors)
	pass := firstVisible(page.Locator("body"), passwordSelectors)
	submit := firstVisible(page.Locator("body"), submitSelectors)
	if user != nil && pass != nil && submit != nil && c.cfg.Username != "" {
		if err := user.Fill(c.cfg.Username); err != nil {
			return fmt.Errorf("fill username: %w", err)
		}
		if err := pass.Fill(c.cfg.Password); err != nil {
			return fmt.Errorf("fill password: %w", err)
		}
		if err := submit.Click(); err != nil {
			return fmt.Errorf("submit login: %w", err)
		}
		slog.Info("solapi_login_submitted")
	} else {
		slog.Warn("solapi_login_fields_missing", "has_username", c.cfg.Username != "")
	}

	deadline := time.Now().Add(c.cfg.LoginTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.Contains(page.URL(), "/login") {
			slog.Info("solapi_login_ok")
			return nil
		}
		page.WaitForTimeout(float64(c.cfg.LoginPoll.Milliseconds()))
	}
	return ErrLoginTimeout
}

func (c *Console) openGroup(ctx context.Context, page playwright.Page, groupID string) (playwright.Locator, error) {
	q := url.Values{"criteria": {"groupId"}, "value": {groupID}, "cond": {"eq"}}
	if _, err := page.Goto(c.cfg.BaseURL+"/message-log?"+q.Encode(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return nil, fmt.Errorf("open message log: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []playwright.Locator
	for _, sel := range rowSelectors {
		all, err := page.Locator(sel).All()
		if err == nil && len(all) > 0 {
			rows = all
			break
		}
	}
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i], _ = r.TextContent()
	}
	idx := PickRow(texts, groupID)
	if idx < 0 {
		c.screenshot(page, searchShot)
		return nil, ErrNoRows
	}
	if !strings.Contains(texts[idx], groupID) {
		c.screenshot(page, searchShot)
		slog.Warn("solapi_group_row_fallback", "group_id", groupID, "row", idx)
	}

	row := rows[idx]
	if err := row.Click(); err != nil {
		if err := row.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)}); err != nil {
			return nil, fmt.Errorf("open group row: %w", err)
		}
	}

	for _, sel := range modalSelectors {
		m := page.Locator(sel).First()
		if err := m.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(10000)}); err == nil {
			return m, nil
		}
	}
	c.screenshot(page, modalShot)
	return nil, ErrNoModal
}

func (c *Console) readModal(ctx context.Context, page playwright.Page, modal playwright.Locator, groupID string) (channelsms.GroupReport, error) {
	if btn := firstVisible(modal, expandSelectors); btn != nil {
		_ = btn.Click()
		page.WaitForTimeout(1000)
	}

	text, err := modal.TextContent()
	if err != nil {
		return channelsms.GroupReport{}, fmt.Errorf("read modal: %w", err)
	}
	counts := ParseCounts(text)
	r := channelsms.GroupReport{
		GroupID:      groupID,
		MessageType:  ParseMessageType(text),
		SuccessCount: counts.Success,
		FailCount:    counts.Fail,
		SendingCount: counts.Sending,
		TotalCount:   counts.Total,
	}
	if at, ok := ParseSentAt(text, c.cfg.Location); ok {
		r.SentAt = at
	}
	if html, err := modal.InnerHTML(); err == nil {
		r.ImageURL = FindImageURL(html)
	}

	if tab := firstVisible(modal, listTabSelectors); tab != nil {
		_ = tab.Click()
		page.WaitForTimeout(1500)
	}
	c.setPageSize(modal)

	table := modal.Locator("table").First()
	if n, _ := table.Count(); n == 0 {
		slog.Warn("solapi_table_missing_using_text", "group_id", groupID)
		r.Recipients = MergeRecipients(nil, contactinfo.ExtractPhones(text))
		return r, nil
	}

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return channelsms.GroupReport{}, err
		}
		html, err := table.InnerHTML()
		if err != nil {
			return channelsms.GroupReport{}, fmt.Errorf("read message table: %w", err)
		}
		p, err := ParseMessageTable("<table>" + html + "</table>")
		if err != nil {
			return channelsms.GroupReport{}, err
		}
		r.Recipients = MergeRecipients(r.Recipients, p.Recipients)
		if pageNum == 1 && p.MessageText != "" {
			r.MessageText = p.MessageText
		}
		slog.Debug("solapi_page_read", "page", pageNum, "recipients", len(r.Recipients))

		pager, _ := modal.TextContent()
		cur, total, ok := ParsePageInfo(pager)
		if !ok || cur >= total {
			break
		}
		next := firstVisible(modal, nextSelectors)
		if next == nil {
			break
		}
		if disabled, _ := next.IsDisabled(); disabled {
			break
		}
		if err := next.Click(); err != nil {
			break
		}
		page.WaitForTimeout(2000)
	}

	slog.Info("solapi_group_scraped", "group_id", groupID,
		"total", r.TotalCount, "success", r.SuccessCount, "fail", r.FailCount, "recipients", len(r.Recipients))
	return r, nil
}

// setPageSize picks 200 rows per page when the list offers a select for it.
func (c *Console) setPageSize(modal playwright.Locator) {
	selects, err := modal.Locator("select").All()
	if err != nil {
		return
	}
	for _, s := range selects {
		if _, err := s.SelectOption(playwright.SelectOptionValues{Values: &[]string{"200"}}); err == nil {
			slog.Debug("solapi_page_size_set")
			return
		}
	}
}

func (c *Console) screenshot(page playwright.Page, name string) {
	path := filepath.Join(c.cfg.DebugDir, name)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		slog.Warn("solapi_screenshot_failed", "path", path, "error", err)
		return
	}
	slog.Info("solapi_screenshot_saved", "path", path)
}

// firstVisible returns the first visible match among selectors under root.
func firstVisible(root playwright.Locator, selectors []string) playwright.Locator {
	for _, sel := range selectors {
		l := root.Locator(sel).First()
		if ok, err := l.IsVisible(); err == nil && ok {
			return l
		}
	}
	return nil
}
