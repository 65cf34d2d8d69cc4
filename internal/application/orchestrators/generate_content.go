package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"masgolf/internal/adapters/ai"
	"masgolf/internal/domain/calendar"
)

// GenerateContentInput asks for draft copy on several channels at once.
type GenerateContentInput struct {
	Title    string   `json:"title"`
	Theme    string   `json:"theme"`
	Keywords []string `json:"keywords"`
	Channels []string `json:"channels"`
}

// ContentDraft is model-written copy for one channel, for a human to edit.
type ContentDraft struct {
	Channel string `json:"channel"`
	Content string `json:"content"`
}

var (
	ErrNoChannels     = errors.New("at least one channel is required")
	ErrUnknownChannel = errors.New("unknown channel")
)

const copySystemPrompt = "당신은 골프 전문점 마쓰구골프의 마케팅 카피라이터입니다. " +
	"시니어 골퍼에게 친근하고 신뢰감 있는 한국어로 작성하고, 과장된 효능 표현은 피하세요."

// channelBriefs describes the format each channel expects.
var channelBriefs = map[string]string{
	calendar.ChannelBlog:      "검색 최적화된 블로그 글 (마크다운, 소제목 ## 사용, 1500자 내외)",
	calendar.ChannelNaverBlog: "네이버 블로그 글 (친근한 말투, 1000자 내외, 마지막에 예약 안내)",
	calendar.ChannelInstagram: "인스타그램 캡션 (300자 이내, 해시태그 5개)",
	calendar.ChannelFacebook:  "페이스북 게시물 (400자 이내)",
	calendar.ChannelYouTube:   "유튜브 영상 설명 (제목 1줄과 설명 500자 이내)",
	calendar.ChannelEmail:     "이메일 뉴스레터 (제목 1줄과 본문 800자 이내)",
	calendar.ChannelTikTok:    "틱톡 영상 자막 스크립트 (30초 분량)",
	calendar.DeriveSMS:        "문자 메시지 (90자 이내, 마지막에 행동 유도 문구)",
	calendar.DeriveKakao:      "카카오톡 채널 메시지 (500자 이내)",
}

// ExecuteGenerateContent asks the text model for one draft per channel in
// parallel. Nothing is persisted.
// PRE: Title non-empty; every channel is known
// POST: drafts are returned in input channel order; any model failure fails
// the whole request
func ExecuteGenerateContent(ctx context.Context, in GenerateContentInput, writer ai.Writer) ([]ContentDraft, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, calendar.ErrEmptyTitle
	}
	if len(in.Channels) == 0 {
		return nil, ErrNoChannels
	}
	for _, c := range in.Channels {
		if _, ok := channelBriefs[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, c)
		}
	}

	drafts := make([]ContentDraft, len(in.Channels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, channel := range in.Channels {
		g.Go(func() error {
			text, err := writer.Write(gctx, copySystemPrompt, copyPrompt(title, in.Theme, in.Keywords, channel))
			if err != nil {
				return fmt.Errorf("generate %s copy: %w", channel, err)
			}
			drafts[i] = ContentDraft{Channel: channel, Content: strings.TrimSpace(text)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("content_generation_failed", "title", title, "error", err.Error())
		return nil, err
	}
	slog.Info("content_generated", "title", title, "channels", len(drafts))
	return drafts, nil
}

func copyPrompt(title, theme string, keywords []string, channel string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "주제: %s\n", title)
	if theme != "" {
		fmt.Fprintf(&sb, "테마: %s\n", theme)
	}
	if len(keywords) > 0 {
		fmt.Fprintf(&sb, "키워드: %s\n", strings.Join(keywords, ", "))
	}
	fmt.Fprintf(&sb, "형식: %s\n", channelBriefs[channel])
	sb.WriteString("본문만 출력하세요.")
	return sb.String()
}
