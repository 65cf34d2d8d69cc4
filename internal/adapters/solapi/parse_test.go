package solapi

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var kst = time.FixedZone("KST", 9*3600)

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func TestParseCounts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Counts
	}{
		{"slashed", "실패 0 / 성공 195 / 발송중 5", Counts{Success: 195, Sending: 5, Total: 200}},
		{"spaced", "실패 1 성공 9 발송중 0", Counts{Success: 9, Fail: 1, Total: 10}},
		{"lazy", "실패 건수: 2건, 성공 건수: 8건, 발송중: 1건", Counts{Success: 8, Fail: 2, Sending: 1, Total: 11}},
		{"individual", "성공: 7 ... 실패: 1", Counts{Success: 7, Fail: 1, Total: 8}},
		{"total overrides", "총 200건 실패 0 / 성공 150 / 발송중 0", Counts{Success: 150, Total: 200}},
		{"nothing", "로딩 중", Counts{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseCounts(tt.text)); diff != "" {
				t.Errorf("ParseCounts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSentAt_PrefersGroupCreation(t *testing.T) {
	got, ok := ParseSentAt(fixture(t, "modal_text.txt"), kst)
	if !ok {
		t.Fatal("expected a date")
	}
	want := time.Date(2025, 11, 18, 13, 17, 1, 0, kst)
	if !got.Equal(want) {
		t.Errorf("sent at = %v, want %v", got, want)
	}
}

func TestParseSentAt_Fallbacks(t *testing.T) {
	got, ok := ParseSentAt("발송 2025-12-01 08:30:00", kst)
	if !ok || !got.Equal(time.Date(2025, 12, 1, 8, 30, 0, 0, kst)) {
		t.Errorf("dash form = %v, %v", got, ok)
	}
	if _, ok := ParseSentAt("날짜 없음", kst); ok {
		t.Error("expected no date")
	}
}

func TestParsePageInfo(t *testing.T) {
	tests := []struct {
		text       string
		cur, total int
		ok         bool
	}{
		{"전체 (2/5)", 2, 5, true},
		{"2025/11/18 ... 1 / 3", 1, 3, true},
		{"페이지 없음", 0, 0, false},
	}
	for _, tt := range tests {
		cur, total, ok := ParsePageInfo(tt.text)
		if cur != tt.cur || total != tt.total || ok != tt.ok {
			t.Errorf("ParsePageInfo(%q) = %d, %d, %v", tt.text, cur, total, ok)
		}
	}
}

func TestPickRow(t *testing.T) {
	rows := []string{"G4VAAA 총 10건 발송중", "G4VBBB 총 200건 발송요청완료", "G4VCCC 총 3건"}
	if got := PickRow(rows, "G4VCCC"); got != 2 {
		t.Errorf("by id = %d, want 2", got)
	}
	if got := PickRow(rows, "G4VZZZ"); got != 1 {
		t.Errorf("by requested = %d, want 1", got)
	}
	if got := PickRow(rows[:1], "G4VZZZ"); got != 0 {
		t.Errorf("fallback = %d, want 0", got)
	}
	if got := PickRow(nil, "x"); got != -1 {
		t.Errorf("empty = %d, want -1", got)
	}
}

func TestParseMessageTable(t *testing.T) {
	p, err := ParseMessageTable(fixture(t, "message_list.html"))
	if err != nil {
		t.Fatalf("ParseMessageTable: %v", err)
	}
	if diff := cmp.Diff([]string{"010-1234-5678", "010-9876-5432"}, p.Recipients); diff != "" {
		t.Errorf("recipients (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(p.MessageText, "[마쓰구골프] 가을 시즌") || strings.HasSuffix(p.MessageText, " ") {
		t.Errorf("message text = %q", p.MessageText)
	}
}

func TestMessageText_Truncates(t *testing.T) {
	long := strings.Repeat("가", 600)
	if got := messageText(long); len([]rune(got)) != maxMessageRunes {
		t.Errorf("len = %d, want %d", len([]rune(got)), maxMessageRunes)
	}
	if got := messageText("스무 글자 이하"); got != "" {
		t.Errorf("short text = %q, want empty", got)
	}
}

func TestFindImageURLAndType(t *testing.T) {
	html := fixture(t, "message_list.html")
	if got := FindImageURL(html); got != "https://api.solapi.com/storage/images/ST01FZ.jpg" {
		t.Errorf("image = %q", got)
	}
	if got := ParseMessageType(fixture(t, "modal_text.txt")); got != "MMS" {
		t.Errorf("type = %q", got)
	}
}

func TestMergeRecipients(t *testing.T) {
	got := MergeRecipients([]string{"a", "b"}, []string{"b", "c"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("merge (-want +got):\n%s", diff)
	}
}
