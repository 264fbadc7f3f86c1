package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"CoinLens/internal/dashboard"
	"CoinLens/internal/model"
)

type fakeController struct {
	state     dashboard.State
	selected  []string
	tfs       []model.Timeframe
	analysis  model.Analysis
	analyzeOK bool
	analyzed  int
}

func (f *fakeController) Snapshot() dashboard.State        { return f.state }
func (f *fakeController) SelectMarket(code string)         { f.selected = append(f.selected, code) }
func (f *fakeController) SelectTimeframe(tf model.Timeframe) { f.tfs = append(f.tfs, tf) }
func (f *fakeController) Analyze(context.Context) (model.Analysis, bool) {
	f.analyzed++
	return f.analysis, f.analyzeOK
}

func loadedState() dashboard.State {
	briefing := "- 비트코인 강세 & 거래량 증가"
	return dashboard.State{
		Markets: []model.Market{
			{Code: "KRW-BTC", DisplayName: "비트코인", Symbol: "BTC"},
			{Code: "KRW-ETH", DisplayName: "이더리움", Symbol: "ETH"},
		},
		Market:    "KRW-BTC",
		Timeframe: model.Timeframe1h,
		Ticker: &model.Ticker{
			Market: "KRW-BTC", Price: 95123000, High24h: 96000000, Low24h: 94000000,
			ChangeRate: 0.0123, Change: model.DirectionUp, Volume24h: 1234.5, Value24h: 117000000000,
		},
		Candles:  []model.Candle{{Close: 95000000}},
		News:     []model.NewsArticle{{Title: "BTC <rallies>", Source: "CoinDesk", URL: "https://x"}},
		Briefing: &briefing,
	}
}

func TestFormatState(t *testing.T) {
	out := FormatState(loadedState())
	for _, want := range []string{"비트코인", "KRW-BTC", "1시간", "₩95,123,000", "▲ +1.23%", "거래량: 1,234", "고가: ₩96,000,000", "저가: ₩94,000,000", "거래대금: 117,000,000,000"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestFormatState_NoTicker(t *testing.T) {
	s := dashboard.State{Market: "KRW-XRP", Timeframe: model.Timeframe1d, LoadingChart: true}
	if out := FormatState(s); !strings.Contains(out, "로딩 중") || !strings.Contains(out, "XRP") {
		t.Errorf("unexpected loading output:\n%s", out)
	}
	s.LoadingChart = false
	if out := FormatState(s); !strings.Contains(out, "불러올 수 없습니다") {
		t.Errorf("unexpected failure output:\n%s", out)
	}
}

func TestFormatAnalysis_EscapesAndListsSources(t *testing.T) {
	out := FormatAnalysis(model.Analysis{
		Sentiment: model.SentimentBearish,
		Title:     "하락 <주의>",
		Text:      "**지지선** 이탈",
		Sources:   []model.Source{{Title: "A&B", URI: "https://a?x=1&y=2"}},
	})
	if !strings.Contains(out, "약세") {
		t.Error("expected bearish badge")
	}
	if !strings.Contains(out, "하락 &lt;주의&gt;") {
		t.Error("expected escaped title")
	}
	if !strings.Contains(out, `<a href="https://a?x=1&amp;y=2">A&amp;B</a>`) {
		t.Errorf("expected escaped source link in:\n%s", out)
	}
}

func TestFormatNews(t *testing.T) {
	out := FormatNews(loadedState())
	if !strings.Contains(out, "강세 &amp; 거래량") {
		t.Errorf("expected escaped briefing in:\n%s", out)
	}
	if !strings.Contains(out, `<a href="https://x">BTC &lt;rallies&gt;</a> (CoinDesk)`) {
		t.Errorf("expected headline in:\n%s", out)
	}

	s := dashboard.State{LoadingBriefing: true, LoadingNews: true}
	out = FormatNews(s)
	if !strings.Contains(out, "브리핑 생성 중") || !strings.Contains(out, "뉴스 로딩 중") {
		t.Errorf("unexpected loading output:\n%s", out)
	}
}

func TestFormatMarkets(t *testing.T) {
	out := FormatMarkets(loadedState(), 1)
	if !strings.Contains(out, "👉 비트코인") {
		t.Errorf("expected selected marker in:\n%s", out)
	}
	if strings.Contains(out, "이더리움") || !strings.Contains(out, "외 1개") {
		t.Errorf("expected list truncated after one entry:\n%s", out)
	}
	if out := FormatMarkets(dashboard.State{LoadingMarkets: true}, 10); !strings.Contains(out, "로딩") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCommands_Select(t *testing.T) {
	ctrl := &fakeController{state: loadedState()}
	c := NewCommands(ctrl, "KRW")
	ctx := context.Background()

	c.Handle(ctx, "/market eth")
	c.Handle(ctx, "/market@CoinLensBot KRW-SOL")
	if len(ctrl.selected) != 2 || ctrl.selected[0] != "KRW-ETH" || ctrl.selected[1] != "KRW-SOL" {
		t.Errorf("unexpected selections %v", ctrl.selected)
	}

	if reply := c.Handle(ctx, "/tf 4h"); !strings.Contains(reply, "4시간") {
		t.Errorf("unexpected reply %q", reply)
	}
	if reply := c.Handle(ctx, "/tf 3h"); !strings.Contains(reply, "알 수 없는") {
		t.Errorf("unexpected reply %q", reply)
	}
	if len(ctrl.tfs) != 1 || ctrl.tfs[0] != model.Timeframe4h {
		t.Errorf("unexpected timeframes %v", ctrl.tfs)
	}
	if reply := c.Handle(ctx, "/market"); !strings.Contains(reply, "사용법") {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestCommands_Analyze(t *testing.T) {
	ctrl := &fakeController{state: dashboard.State{Market: "KRW-BTC"}}
	c := NewCommands(ctrl, "KRW")

	if reply := c.Handle(context.Background(), "/analyze"); !strings.Contains(reply, "데이터가 아직 없습니다") {
		t.Errorf("unexpected reply %q", reply)
	}
	if ctrl.analyzed != 0 {
		t.Error("analyze should not be called without data")
	}

	ctrl.state = loadedState()
	ctrl.analysis = model.Analysis{Sentiment: model.SentimentBullish, Title: "상승", Text: "본문"}
	ctrl.analyzeOK = true
	if reply := c.Handle(context.Background(), "/analyze"); !strings.Contains(reply, "상승") {
		t.Errorf("unexpected reply %q", reply)
	}

	ctrl.analyzeOK = false
	if reply := c.Handle(context.Background(), "/analyze"); !strings.Contains(reply, "변경") {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestCommands_Help(t *testing.T) {
	c := NewCommands(&fakeController{}, "")
	for _, in := range []string{"", "hello", "/start"} {
		if reply := c.Handle(context.Background(), in); reply != helpText {
			t.Errorf("%q: expected help text, got %q", in, reply)
		}
	}
}

type fakeTelegram struct {
	mu       sync.Mutex
	sent     []map[string]string
	polls    int
	failSend int
}

func (f *fakeTelegram) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if f.failSend > 0 {
				f.failSend--
				http.Error(w, `{"ok":false}`, http.StatusBadGateway)
				return
			}
			var payload map[string]string
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			f.sent = append(f.sent, payload)
			w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			f.polls++
			if f.polls == 1 {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":10,"message":{"text":"/status","chat":{"id":999}}},
					{"update_id":11,"message":{"text":"/status","chat":{"id":42}}}
				]}`))
				return
			}
			if r.URL.Query().Get("offset") != "12" {
				t.Errorf("expected offset 12, got %s", r.URL.Query().Get("offset"))
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func (f *fakeTelegram) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestNotifier(t *testing.T, f *fakeTelegram) *TelegramNotifier {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	return n
}

func TestSend(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)
	if err := n.Send(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.sent[0]["chat_id"] != "42" || f.sent[0]["parse_mode"] != "HTML" || f.sent[0]["text"] != "<b>hi</b>" {
		t.Errorf("unexpected payload %v", f.sent[0])
	}
}

func TestSend_TruncatesLongMessages(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)
	long := strings.Repeat("가", 5000)
	if err := n.Send(context.Background(), long); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := f.sent[0]["text"]
	if textLen(got) > telegramMaxLen || !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncated message, got %d units", textLen(got))
	}
	if !strings.HasPrefix(got, "가가") || strings.ContainsRune(got, '\uFFFD') {
		t.Error("expected truncation on a rune boundary")
	}
}

func TestSend_CountsCharactersNotBytes(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)
	korean := strings.Repeat("가", 3000) // 9000 bytes, 3000 characters
	if err := n.Send(context.Background(), korean); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.sent[0]["text"]; got != korean {
		t.Errorf("expected message sent whole, got %d of %d characters", textLen(got), textLen(korean))
	}
}

func assertBalanced(t *testing.T, text string) {
	t.Helper()
	for _, tag := range []string{"a", "b", "code"} {
		opens := strings.Count(text, "<"+tag+">") + strings.Count(text, "<"+tag+" ")
		closes := strings.Count(text, "</"+tag+">")
		if opens != closes {
			t.Errorf("unbalanced <%s> tags: opens=%d closes=%d", tag, opens, closes)
		}
	}
	if lt, gt := strings.LastIndexByte(text, '<'), strings.LastIndexByte(text, '>'); lt > gt {
		t.Errorf("partial tag at end of %q", text[max(0, len(text)-40):])
	}
	if amp, semi := strings.LastIndexByte(text, '&'), strings.LastIndexByte(text, ';'); amp > semi {
		t.Errorf("partial entity at end of %q", text[max(0, len(text)-40):])
	}
}

func TestSend_LongAnalysisKeepsSourcesAndTags(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)
	msg := FormatAnalysis(model.Analysis{
		Sentiment: model.SentimentBullish,
		Title:     "비트코인 & 시장",
		Text:      strings.Repeat("가 & 나 ", 2000),
		Sources: []model.Source{
			{Title: "Source one", URI: "https://one.example/?a=1&b=2"},
			{Title: "Source two", URI: "https://two.example/"},
		},
	})
	if textLen(msg) > telegramMaxLen {
		t.Fatalf("formatted analysis exceeds limit: %d units", textLen(msg))
	}
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := f.sent[0]["text"]
	if got != msg {
		t.Error("expected formatted analysis to need no further truncation")
	}
	assertBalanced(t, got)
	for _, want := range []string{
		`<a href="https://one.example/?a=1&amp;b=2">Source one</a>`,
		`<a href="https://two.example/">Source two</a>`,
		"…",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in sent text", want)
		}
	}
}

func TestFormatNews_ClipsLongBriefing(t *testing.T) {
	s := loadedState()
	long := strings.Repeat("요약 & ", 3000)
	s.Briefing = &long
	out := FormatNews(s)
	if textLen(out) > telegramMaxLen {
		t.Errorf("expected news within limit, got %d units", textLen(out))
	}
	if !strings.Contains(out, `<a href="https://x">BTC &lt;rallies&gt;</a>`) {
		t.Error("expected headline list kept whole")
	}
	assertBalanced(t, out)
}

func TestTruncateHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "<b>hi</b>", 100, "<b>hi</b>"},
		{"inside text of tag", "<b>hello world</b>", 8, "<b>hello...</b>"},
		{"inside opening tag", `ab<a href="https://x">link</a>`, 6, "ab..."},
		{"inside entity", "a &amp; b", 4, "a ..."},
		{"inside closing tag", `<a href="u">xy</a>tail`, 15, `<a href="u">xy...</a>`},
		{"nested", "<b><code>abcdef</code></b>", 12, "<b><code>abc...</code></b>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateHTML(tt.in, tt.n); got != tt.want {
				t.Errorf("truncateHTML(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestClipEscaped(t *testing.T) {
	if got := clipEscaped("a<b", 10); got != "a&lt;b" {
		t.Errorf("unexpected %q", got)
	}
	if got := clipEscaped("a&b&c", 7); got != "a&amp;…" {
		t.Errorf("unexpected %q", got)
	}
	if got := clipEscaped("abc", 0); got != "…" {
		t.Errorf("unexpected %q", got)
	}
	if got := textLen("가😀"); got != 3 {
		t.Errorf("expected 3 UTF-16 units, got %d", got)
	}
}

func TestSendWithRetry(t *testing.T) {
	f := &fakeTelegram{failSend: 1}
	n := newTestNotifier(t, f)
	if err := n.SendWithRetry(context.Background(), "x", 1); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if f.sentCount() != 1 {
		t.Errorf("expected 1 delivered message, got %d", f.sentCount())
	}

	f.failSend = 5
	if err := n.SendWithRetry(context.Background(), "x", 0); err == nil {
		t.Error("expected error with no retries left")
	}
}

func TestStartPolling_RepliesToConfiguredChatOnly(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			mu.Lock()
			handled = append(handled, cmd)
			mu.Unlock()
			return "ok"
		})
		close(done)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for f.sentCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 {
		t.Errorf("expected exactly one handled command, got %v", handled)
	}
	if f.sentCount() != 1 {
		t.Errorf("expected one reply, got %d", f.sentCount())
	}
}
