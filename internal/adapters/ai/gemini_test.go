package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/ai"
)

// fakeGemini answers every generateContent call with text.
func fakeGemini(t *testing.T, text string, seen *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*seen = append(*seen, r.URL.Path+" "+string(body))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			}},
		})
	}))
}

func TestGemini_Write(t *testing.T) {
	var seen []string
	srv := fakeGemini(t, "  가을 시즌 드라이버 할인!  ", &seen)
	defer srv.Close()

	g, err := ai.NewGemini(context.Background(), ai.Options{
		APIKey: "k", TextModel: "gemini-test", BaseURL: srv.URL, HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	got, err := g.Write(context.Background(), "당신은 카피라이터입니다", "드라이버 할인 문구")
	require.NoError(t, err)
	assert.Equal(t, "가을 시즌 드라이버 할인!", got)
	require.Len(t, seen, 1)
	assert.Contains(t, seen[0], "gemini-test:generateContent")
	assert.Contains(t, seen[0], "드라이버 할인 문구")
}

func TestGemini_Describe(t *testing.T) {
	var seen []string
	srv := fakeGemini(t, `{"alt_text":"드라이버 헤드","title":"티타늄 드라이버","description":"d","keywords":["드라이버"," 비거리 ",""]}`, &seen)
	defer srv.Close()

	g, err := ai.NewGemini(context.Background(), ai.Options{
		APIKey: "k", VisionModel: "vision-test", BaseURL: srv.URL, HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	d, err := g.Describe(context.Background(), []byte("\x89PNG"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "드라이버 헤드", d.AltText)
	assert.Equal(t, []string{"드라이버", "비거리"}, d.Keywords)
	assert.True(t, strings.Contains(seen[0], "vision-test:generateContent"))
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := ai.NewGemini(context.Background(), ai.Options{})
	assert.Error(t, err)
}

func TestParseDescription(t *testing.T) {
	d, err := ai.ParseDescription("```json\n{\"alt_text\":\"a\",\"keywords\":[\"k\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "a", d.AltText)
	assert.Equal(t, []string{"k"}, d.Keywords)

	_, err = ai.ParseDescription("설명할 수 없습니다")
	assert.Error(t, err)
	_, err = ai.ParseDescription("")
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}
