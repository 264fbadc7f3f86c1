package notifier

import (
	"fmt"
	"html"
	"strings"

	"CoinLens/internal/dashboard"
	"CoinLens/internal/format"
	"CoinLens/internal/model"
)

var sentimentBadge = map[model.Sentiment]string{
	model.SentimentBullish: "🟢 강세",
	model.SentimentBearish: "🔴 약세",
	model.SentimentNeutral: "⚪ 중립",
}

func directionArrow(d model.Direction) string {
	switch d {
	case model.DirectionUp:
		return "▲"
	case model.DirectionDown:
		return "▼"
	default:
		return "-"
	}
}

func marketTitle(s dashboard.State) string {
	name := model.SymbolOf(s.Market)
	if m, ok := s.SelectedMarket(); ok {
		name = m.DisplayName
	}
	return fmt.Sprintf("<b>%s</b> <code>%s</code>", html.EscapeString(name), html.EscapeString(s.Market))
}

// FormatState renders the selected market's quote and 24h summary.
func FormatState(s dashboard.State) string {
	var b strings.Builder
	b.WriteString("📊 " + marketTitle(s) + fmt.Sprintf(" | %s\n\n", s.Timeframe.Label()))

	t := s.Ticker
	switch {
	case t == nil && s.LoadingChart:
		b.WriteString("시세 로딩 중...\n")
		return b.String()
	case t == nil:
		b.WriteString("시세 정보를 불러올 수 없습니다.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("현재가: <b>%s</b> %s %s\n", format.KRW(t.Price), directionArrow(t.Change), format.Percent(t.ChangeRate)))
	b.WriteString(fmt.Sprintf("거래량: %s\n\n", format.Volume(t.Volume24h)))
	b.WriteString("🕒 <b>24시간 요약</b>\n")
	b.WriteString(fmt.Sprintf("  고가: %s\n", format.KRW(t.High24h)))
	b.WriteString(fmt.Sprintf("  저가: %s\n", format.KRW(t.Low24h)))
	b.WriteString(fmt.Sprintf("  거래대금: %s\n", format.Price(t.Value24h)))

	if n := len(s.Candles); n > 0 {
		last := s.Candles[n-1]
		b.WriteString(fmt.Sprintf("\n캔들 %d개 | 최근 종가 %s\n", n, format.KRW(last.Close)))
	}
	return b.String()
}

// FormatAnalysis renders an AI analysis with its cited sources.
func FormatAnalysis(a model.Analysis) string {
	badge, ok := sentimentBadge[a.Sentiment]
	if !ok {
		badge = sentimentBadge[model.SentimentNeutral]
	}
	head := fmt.Sprintf("🤖 <b>AI 분석</b> | %s\n\n<b>%s</b>\n\n", badge, html.EscapeString(a.Title))

	var sources strings.Builder
	if len(a.Sources) > 0 {
		sources.WriteString("\n🔗 <b>출처</b>\n")
		for i, src := range a.Sources {
			sources.WriteString(fmt.Sprintf("%d. <a href=\"%s\">%s</a>\n", i+1, html.EscapeString(src.URI), html.EscapeString(src.Title)))
		}
	}

	// the narrative gives way so the sources always go out whole
	budget := telegramMaxLen - textLen(head) - textLen(sources.String()) - 1
	return head + clipEscaped(a.Text, budget) + "\n" + sources.String()
}

// FormatNews renders the briefing followed by the headline list.
func FormatNews(s dashboard.State) string {
	const head = "📰 <b>AI 뉴스 브리핑</b>\n"
	list := newsList(s)

	var b strings.Builder
	b.WriteString(head)
	switch {
	case s.Briefing != nil:
		b.WriteString(clipEscaped(*s.Briefing, telegramMaxLen-textLen(head)-textLen(list)-1))
		b.WriteString("\n")
	case s.LoadingBriefing:
		b.WriteString("브리핑 생성 중...\n")
	default:
		b.WriteString("브리핑이 없습니다.\n")
	}
	b.WriteString(list)
	return b.String()
}

func newsList(s dashboard.State) string {
	var b strings.Builder
	b.WriteString("\n<b>최신 뉴스</b>\n")
	if len(s.News) == 0 {
		if s.LoadingNews {
			b.WriteString("뉴스 로딩 중...\n")
		} else {
			b.WriteString("뉴스가 없습니다.\n")
		}
		return b.String()
	}
	for _, n := range s.News {
		line := html.EscapeString(n.Title)
		if n.URL != "" {
			line = fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(n.URL), line)
		}
		meta := html.EscapeString(n.Source)
		if ago := format.Ago(n.Published()); ago != "" {
			meta += ", " + ago
		}
		b.WriteString(fmt.Sprintf("• %s (%s)\n", line, meta))
	}
	return b.String()
}

// FormatMarkets lists up to limit markets, marking the selected one.
func FormatMarkets(s dashboard.State, limit int) string {
	if s.LoadingMarkets {
		return "마켓 목록 로딩 중..."
	}
	if len(s.Markets) == 0 {
		return "마켓 목록을 불러올 수 없습니다."
	}
	var b strings.Builder
	b.WriteString("💱 <b>마켓 목록</b>\n\n")
	for i, m := range s.Markets {
		if limit > 0 && i >= limit {
			b.WriteString(fmt.Sprintf("... 외 %d개\n", len(s.Markets)-limit))
			break
		}
		mark := "  "
		if m.Code == s.Market {
			mark = "👉"
		}
		b.WriteString(fmt.Sprintf("%s %s <code>%s</code>\n", mark, html.EscapeString(m.DisplayName), m.Symbol))
	}
	return b.String()
}
