package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/ai"
	"masgolf/internal/adapters/imagegen"
	"masgolf/internal/adapters/storage"
	blogStore "masgolf/internal/adapters/storage/blog"
	calendarStore "masgolf/internal/adapters/storage/calendar"
	smsStore "masgolf/internal/adapters/storage/channelsms"
	imageStore "masgolf/internal/adapters/storage/imagemeta"
	"masgolf/internal/adapters/storage/storagetest"
	"masgolf/internal/domain/blog"
	"masgolf/internal/domain/calendar"
	"masgolf/internal/domain/channelsms"
)

func TestExecuteSaveBlogPost(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	deps := BlogDeps{Store: blogStore.NewSQLStore(db, storage.DialectSQLite), GenerateID: sequentialIDs("post"), Now: submitNow}

	first, err := ExecuteSaveBlogPost(ctx, SaveBlogPostInput{Title: "드라이버 비거리 늘리는 법", Content: "본문"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "드라이버-비거리-늘리는-법", first.Slug)
	assert.Equal(t, blog.StatusDraft, first.Status)
	assert.Equal(t, blog.DefaultAuthor, first.Author)
	assert.Equal(t, "본문", first.Excerpt)

	second, err := ExecuteSaveBlogPost(ctx, SaveBlogPostInput{Title: "드라이버 비거리 늘리는 법!", Content: "다른 본문"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "드라이버-비거리-늘리는-법-1", second.Slug)

	_, err = ExecuteSaveBlogPost(ctx, SaveBlogPostInput{Title: "다른 제목", Slug: first.Slug}, deps)
	assert.ErrorIs(t, err, ErrSlugTaken)

	published, err := ExecuteSaveBlogPost(ctx, SaveBlogPostInput{
		ID: first.ID, Title: "드라이버 비거리 늘리는 법", Content: "수정한 본문", Status: blog.StatusPublished,
	}, deps)
	require.NoError(t, err)
	assert.Equal(t, first.Slug, published.Slug, "updates keep their slug")
	assert.False(t, published.PublishedAt.IsZero())
	assert.True(t, first.CreatedAt.Equal(published.CreatedAt))

	_, err = ExecuteSaveBlogPost(ctx, SaveBlogPostInput{Title: " "}, deps)
	assert.ErrorIs(t, err, blog.ErrEmptyTitle)
	_, err = ExecuteSaveBlogPost(ctx, SaveBlogPostInput{Title: "x", Status: "hidden"}, deps)
	assert.ErrorIs(t, err, blog.ErrInvalidStatus)
}

func TestUniqueSlug_Fallback(t *testing.T) {
	ctx := context.Background()
	store := &takenSlugs{}
	slug, err := UniqueSlug(ctx, store, "swing", "", submitNow())
	require.NoError(t, err)
	assert.Equal(t, "swing-1763600400000", slug)
	assert.Equal(t, blog.MaxSlugAttempts+1, store.checks)

	slug, err = UniqueSlug(ctx, store, "", "", submitNow())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(slug, "post-"))
}

type takenSlugs struct {
	BlogStore
	checks int
}

func (s *takenSlugs) SlugTaken(context.Context, string, string) (bool, error) {
	s.checks++
	return true, nil
}

type failingSMS struct{}

func (failingSMS) Save(context.Context, channelsms.Message) error { return errors.New("sms table locked") }

func TestExecuteCreateHubContent(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	cal := calendarStore.NewSQLStore(db, storage.DialectSQLite)
	posts := blogStore.NewSQLStore(db, storage.DialectSQLite)
	sms := smsStore.NewSQLStore(db, storage.DialectSQLite)
	deps := HubDeps{Calendar: cal, Blog: posts, SMS: sms, GenerateID: sequentialIDs("hub"), Now: submitNow}

	content := strings.Repeat("가을 시타 체험 이벤트를 진행합니다. ", 20)
	res, err := ExecuteCreateHubContent(ctx, calendar.Item{
		Title: "가을 시타 이벤트", Content: content, ContentDate: "2025-10-14", Keywords: []string{"시타", "드라이버"},
	}, true, deps)
	require.NoError(t, err)
	assert.Empty(t, res.Failed)
	if diff := cmp.Diff([]string{"blog", "naver_blog", "sms", "kakao"}, res.Item.PublishedChannels); diff != "" {
		t.Errorf("published channels (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, res.Item.DerivedContentCount)
	assert.Equal(t, calendar.SeasonAutumn, res.Item.Season)
	assert.Equal(t, 2, res.Item.Week)

	stored, err := cal.GetByID(ctx, res.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.DerivedContentCount)

	post, err := posts.GetByID(ctx, res.Derived[calendar.DeriveBlog])
	require.NoError(t, err)
	assert.Equal(t, "가을-시타-이벤트", post.Slug)
	assert.Equal(t, res.Item.ID, post.HubContentID)

	msg, err := sms.GetByID(ctx, res.Derived[calendar.DeriveSMS])
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(msg.MessageText)), calendar.SMSMaxLength)
	assert.Equal(t, "무료 체험 신청", msg.CallToAction)

	drafts, err := cal.ListPosts(ctx, res.Item.ID)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	again, err := ExecuteCreateHubContent(ctx, calendar.Item{Title: "가을 시타 이벤트", Content: "짧은 글", ContentDate: "2025-10-21"}, true, deps)
	require.NoError(t, err)
	againPost, err := posts.GetByID(ctx, again.Derived[calendar.DeriveBlog])
	require.NoError(t, err)
	assert.Equal(t, "가을-시타-이벤트-1", againPost.Slug)
}

func TestExecuteCreateHubContent_ChannelFailure(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	cal := calendarStore.NewSQLStore(db, storage.DialectSQLite)
	deps := HubDeps{
		Calendar: cal, Blog: blogStore.NewSQLStore(db, storage.DialectSQLite), SMS: failingSMS{},
		GenerateID: sequentialIDs("hub"), Now: submitNow,
	}

	res, err := ExecuteCreateHubContent(ctx, calendar.Item{Title: "할인 안내", Content: "할인 행사", ContentDate: "2025-12-02"}, true, deps)
	require.NoError(t, err)
	assert.Equal(t, []string{calendar.DeriveSMS}, res.Failed)
	assert.Equal(t, []string{"blog", "naver_blog", "kakao"}, res.Item.PublishedChannels)
	assert.Equal(t, 3, res.Item.DerivedContentCount)

	plain, err := ExecuteCreateHubContent(ctx, calendar.Item{Title: "메모", ContentDate: "2025-12-09"}, false, deps)
	require.NoError(t, err)
	assert.Empty(t, plain.Derived)
	assert.Equal(t, 0, plain.Item.DerivedContentCount)

	_, err = ExecuteCreateHubContent(ctx, calendar.Item{ContentDate: "2025-12-09"}, false, deps)
	assert.ErrorIs(t, err, calendar.ErrEmptyTitle)
}

type fakeWriter struct {
	mu      sync.Mutex
	prompts []string
	fail    string
}

func (w *fakeWriter) Write(_ context.Context, _, prompt string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prompts = append(w.prompts, prompt)
	if w.fail != "" && strings.Contains(prompt, w.fail) {
		return "", errors.New("quota exceeded")
	}
	for channel, brief := range channelBriefs {
		if strings.Contains(prompt, brief) {
			return "  " + channel + " 초안  ", nil
		}
	}
	return "", ai.ErrEmptyResponse
}

func TestExecuteGenerateContent(t *testing.T) {
	ctx := context.Background()
	w := &fakeWriter{}
	drafts, err := ExecuteGenerateContent(ctx, GenerateContentInput{
		Title: "겨울 스윙 점검", Theme: "비수기 준비", Keywords: []string{"스윙", "피팅"},
		Channels: []string{"sms", "blog", "kakao"},
	}, w)
	require.NoError(t, err)
	want := []ContentDraft{{"sms", "sms 초안"}, {"blog", "blog 초안"}, {"kakao", "kakao 초안"}}
	if diff := cmp.Diff(want, drafts); diff != "" {
		t.Errorf("drafts (-want +got):\n%s", diff)
	}
	require.Len(t, w.prompts, 3)
	assert.Contains(t, w.prompts[0], "키워드: 스윙, 피팅")

	_, err = ExecuteGenerateContent(ctx, GenerateContentInput{Title: "x", Channels: []string{"fax"}}, w)
	assert.ErrorIs(t, err, ErrUnknownChannel)
	_, err = ExecuteGenerateContent(ctx, GenerateContentInput{Title: "x"}, w)
	assert.ErrorIs(t, err, ErrNoChannels)
	_, err = ExecuteGenerateContent(ctx, GenerateContentInput{Channels: []string{"sms"}}, w)
	assert.ErrorIs(t, err, calendar.ErrEmptyTitle)

	_, err = ExecuteGenerateContent(ctx, GenerateContentInput{Title: "x", Channels: []string{"sms", "blog"}}, &fakeWriter{fail: "문자"})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestExecuteSeedCalendar(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	cal := calendarStore.NewSQLStore(db, storage.DialectSQLite)
	plan, err := calendar.LoadPlan()
	require.NoError(t, err)
	total := 12 * calendar.WeeksPerMonth

	dry, err := ExecuteSeedCalendar(ctx, plan, 2026, cal, true, sequentialIDs("cal"), submitNow)
	require.NoError(t, err)
	assert.Equal(t, total, dry.Changed)
	items, _ := cal.List(ctx, calendarStore.Filter{Year: 2026})
	assert.Empty(t, items)

	res, err := ExecuteSeedCalendar(ctx, plan, 2026, cal, false, sequentialIDs("cal"), submitNow)
	require.NoError(t, err)
	assert.Equal(t, total, res.Changed)
	assert.Zero(t, res.Failed)

	rerun, err := ExecuteSeedCalendar(ctx, plan, 2026, cal, false, sequentialIDs("cal2"), submitNow)
	require.NoError(t, err)
	assert.Zero(t, rerun.Changed)
	assert.Equal(t, total, rerun.Skipped)

	_, err = ExecuteSeedCalendar(ctx, plan, 1900, cal, false, sequentialIDs("cal"), submitNow)
	assert.Error(t, err)
}

type fakeGenerator struct {
	req imagegen.Request
	err error
}

func (g *fakeGenerator) Improve(_ context.Context, req imagegen.Request) (imagegen.Result, error) {
	g.req = req
	if g.err != nil {
		return imagegen.Result{}, g.err
	}
	return imagegen.Result{PredictionID: "pred-1", OutputURL: "https://replicate.test/out.png", Polls: 3}, nil
}

type fakeUploader struct{ path, contentType string }

func (u *fakeUploader) Upload(_ context.Context, path, contentType string, _ []byte) (string, error) {
	u.path, u.contentType = path, contentType
	return "https://x.supabase.co/storage/v1/object/public/blog-images/" + path, nil
}

type fakeDescriber struct{ err error }

func (d fakeDescriber) Describe(context.Context, []byte, string) (ai.ImageDescription, error) {
	if d.err != nil {
		return ai.ImageDescription{}, d.err
	}
	return ai.ImageDescription{AltText: "드라이버 헤드 클로즈업", Title: "드라이버", Keywords: []string{"드라이버", " 골프 ", "드라이버"}}, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	return buf.Bytes()
}

func TestExecuteImproveImage(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	store := imageStore.NewSQLStore(db, storage.DialectSQLite)
	pngData := testPNG(t)
	gen := &fakeGenerator{}
	up := &fakeUploader{}
	deps := ImproveImageDeps{
		Generator: gen,
		Download: func(_ context.Context, url string) ([]byte, string, error) {
			assert.Equal(t, "https://replicate.test/out.png", url)
			return pngData, "image/png", nil
		},
		Uploader: up, Describer: fakeDescriber{}, Store: store, Provider: "replicate",
		GenerateID: sequentialIDs("img"), Now: submitNow,
	}

	res, err := ExecuteImproveImage(ctx, ImproveImageInput{ImageURL: "https://masgolf.co.kr/a.jpg", Category: "product"}, deps)
	require.NoError(t, err)
	assert.Equal(t, defaultImprovePrompt, gen.req.Prompt)
	assert.Equal(t, "ai-improved/2025-11/img-1.png", up.path)
	assert.True(t, strings.HasSuffix(res.ImageURL, "ai-improved/2025-11/img-1.png"))

	stored, err := store.GetByID(ctx, res.MetadataID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Width)
	assert.Equal(t, 3, stored.Height)
	assert.Equal(t, []string{"드라이버", "골프"}, stored.Keywords)
	assert.Equal(t, "https://masgolf.co.kr/a.jpg", stored.OriginalURL)

	deps.Describer = fakeDescriber{err: errors.New("vision down")}
	res, err = ExecuteImproveImage(ctx, ImproveImageInput{ImageURL: "https://masgolf.co.kr/b.jpg", Instructions: "배경 제거"}, deps)
	require.NoError(t, err, "description failures do not fail the request")
	assert.Empty(t, res.Metadata.AltText)
	assert.Equal(t, "배경 제거", gen.req.Prompt)

	gen.err = imagegen.ErrTimedOut
	_, err = ExecuteImproveImage(ctx, ImproveImageInput{ImageURL: "https://masgolf.co.kr/c.jpg"}, deps)
	assert.ErrorIs(t, err, imagegen.ErrTimedOut)

	_, err = ExecuteImproveImage(ctx, ImproveImageInput{ImageURL: "ftp://x"}, deps)
	assert.Error(t, err)
}
