package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"CoinLens/internal/calculator"
	"CoinLens/internal/model"
)

// ErrModelUnavailable wraps any failure of the generative provider,
// including structured output that does not parse.
var ErrModelUnavailable = errors.New("narrative model unavailable")

const (
	historyWindow    = 20
	briefingMaxItems = 10
)

// Fallback texts shown in place of model output.
const (
	analysisFailedTitle = "분석 실패"
	analysisFailedText  = "현재 분석 서비스를 이용할 수 없습니다. 잠시 후 다시 시도해주세요."
	analysisRawFallback = "분석 결과를 불러올 수 없습니다."
	analysisEmptyText   = "내용 없음"

	BriefingNoNews      = "뉴스 데이터가 없습니다."
	BriefingUnavailable = "AI 뉴스 요약 서비스 연결 실패"
	BriefingEmpty       = "뉴스 요약을 생성할 수 없습니다."
)

// GenerateOptions toggles provider features for one request.
type GenerateOptions struct {
	JSON      bool // ask for application/json output
	WebSearch bool // enable search grounding
}

// Generation is the raw provider response.
type Generation struct {
	Text    string
	Sources []model.Source
}

// Generator is a single-shot text generation endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error)
}

type offlineGenerator struct{}

func (offlineGenerator) Generate(context.Context, string, GenerateOptions) (*Generation, error) {
	return nil, fmt.Errorf("%w: no api key configured", ErrModelUnavailable)
}

// Offline returns a Generator that fails every request, so every narrative
// resolves to its fallback text.
func Offline() Generator { return offlineGenerator{} }

// Narrator turns market context into AI narratives. It never returns an
// error: provider failures become fixed placeholder results.
type Narrator struct {
	gen   Generator
	quote string
}

// New creates a Narrator over the given generator.
func New(gen Generator, quote string) *Narrator {
	if quote == "" {
		quote = "KRW"
	}
	return &Narrator{gen: gen, quote: quote}
}

type analysisPayload struct {
	Sentiment string `json:"sentiment"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// Analyze requests a sentiment, title and markdown narrative for one market.
func (n *Narrator) Analyze(ctx context.Context, name string, ticker *model.Ticker, candles []model.Candle) model.Analysis {
	if ticker == nil {
		return unavailableAnalysis()
	}

	gen, err := n.gen.Generate(ctx, n.analysisPrompt(name, ticker, candles), GenerateOptions{JSON: true, WebSearch: true})
	if err != nil {
		log.Error().Err(err).Str("error_kind", "model_unavailable").Str("market", ticker.Market).Msg("analysis request failed")
		return unavailableAnalysis()
	}

	payload, err := parseAnalysis(gen.Text)
	if err != nil {
		log.Warn().Err(err).Str("error_kind", "parse").Str("market", ticker.Market).Msg("analysis payload malformed, using raw text")
		text := gen.Text
		if strings.TrimSpace(text) == "" {
			text = analysisRawFallback
		}
		return model.Analysis{
			Sentiment: model.SentimentNeutral,
			Title:     name + " 분석 결과",
			Text:      text,
		}
	}

	a := model.Analysis{
		Sentiment: model.ParseSentiment(payload.Sentiment),
		Title:     payload.Title,
		Text:      payload.Content,
		Sources:   gen.Sources,
	}
	if a.Title == "" {
		a.Title = name + " 현황 분석"
	}
	if a.Text == "" {
		a.Text = analysisEmptyText
	}
	return a
}

// Briefing summarizes up to ten headlines into three Korean bullet points.
func (n *Narrator) Briefing(ctx context.Context, articles []model.NewsArticle) string {
	if len(articles) == 0 {
		return BriefingNoNews
	}
	if len(articles) > briefingMaxItems {
		articles = articles[:briefingMaxItems]
	}

	gen, err := n.gen.Generate(ctx, briefingPrompt(articles), GenerateOptions{})
	if err != nil {
		log.Error().Err(err).Str("error_kind", "model_unavailable").Msg("briefing request failed")
		return BriefingUnavailable
	}
	if strings.TrimSpace(gen.Text) == "" {
		return BriefingEmpty
	}
	return gen.Text
}

func unavailableAnalysis() model.Analysis {
	return model.Analysis{
		Sentiment: model.SentimentNeutral,
		Title:     analysisFailedTitle,
		Text:      analysisFailedText,
	}
}

// parseAnalysis decodes the structured payload, tolerating a ```json fence.
// Empty output decodes as an empty object.
func parseAnalysis(text string) (analysisPayload, error) {
	var p analysisPayload
	body := stripFence(text)
	if body == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return p, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop language tag
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (n *Narrator) analysisPrompt(name string, t *model.Ticker, candles []model.Candle) string {
	recent := candles
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	var history strings.Builder
	for _, c := range recent {
		fmt.Fprintf(&history, "Time: %s, Open: %s, Close: %s, Vol: %.2f\n",
			shortTime(c.LocalTime), num(c.Open), num(c.Close), c.Volume)
	}
	ind := calculator.Summarize(candles)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional cryptocurrency analyst. Analyze the following Coin: %s (%s).\n\n", name, t.Market)
	b.WriteString("Current Data:\n")
	fmt.Fprintf(&b, "- Price: %s %s\n", num(t.Price), n.quote)
	fmt.Fprintf(&b, "- 24h Change: %s%%\n", num(t.ChangeRate*100))
	fmt.Fprintf(&b, "- 24h Volume: %.0f\n", t.Volume24h)
	fmt.Fprintf(&b, "- Indicators: SMA20 %s, RSI14 %.1f, range %s ~ %s (position %.2f)\n\n",
		num(ind.SMA20), ind.RSI14, num(ind.RangeLow), num(ind.RangeHigh), ind.Position)
	fmt.Fprintf(&b, "Recent Candle Data (Last %d periods):\n", len(recent))
	b.WriteString(history.String())
	b.WriteString(`
Task:
1. Perform a technical analysis based on the provided price data (Trend, Support/Resistance).
2. SEARCH the web using Google Search for the latest relevant news about this coin or the general crypto market impacting this coin today.
3. Combine technicals and news to determine a CLEAR market sentiment: 'Bullish' (Positive/Buy), 'Bearish' (Negative/Sell), or 'Neutral' (Sideways/Hold).
4. Write a short, impactful, one-sentence Title in Korean summarizing the main reason for this sentiment.
5. Write a detailed analysis in Korean Markdown.

Output JSON Format:
{
  "sentiment": "Bullish" | "Bearish" | "Neutral",
  "title": "Korean Title",
  "content": "Korean Markdown Content"
}
`)
	return b.String()
}

func briefingPrompt(articles []model.NewsArticle) string {
	var b strings.Builder
	b.WriteString("Here are the latest cryptocurrency news headlines:\n")
	for _, a := range articles {
		fmt.Fprintf(&b, "- %s (Source: %s)\n", a.Title, a.Source)
	}
	b.WriteString(`
Task:
Summarize the key market sentiment and major events based on these headlines into 3 concise bullet points.

Requirements:
1. **MUST be written in KOREAN (한국어).**
2. Keep it brief and easy to read.
3. Focus on the most important information.
`)
	return b.String()
}

// shortTime trims "2006-01-02T15:04:05" to "01-02T15:04".
func shortTime(s string) string {
	if len(s) >= 16 {
		return s[5:16]
	}
	return s
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
