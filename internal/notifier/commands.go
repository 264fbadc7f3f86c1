package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	"CoinLens/internal/dashboard"
	"CoinLens/internal/model"
)

// Controller is the slice of the dashboard the chat commands drive.
type Controller interface {
	Snapshot() dashboard.State
	SelectMarket(code string)
	SelectTimeframe(tf model.Timeframe)
	Analyze(ctx context.Context) (model.Analysis, bool)
}

const marketsPerPage = 30

const helpText = `사용 가능한 명령:
/status - 현재 시세와 24시간 요약
/markets - 마켓 목록
/market &lt;심볼&gt; - 마켓 선택 (예: /market ETH)
/tf &lt;기간&gt; - 차트 기간 선택 (1m, 15m, 1h, 4h, 1d, 1w)
/analyze - AI 분석 요청
/news - 뉴스와 AI 브리핑`

// Commands maps chat commands onto a Controller.
type Commands struct {
	ctrl  Controller
	quote string
}

// NewCommands creates a command router.
func NewCommands(ctrl Controller, quote string) *Commands {
	if quote == "" {
		quote = "KRW"
	}
	return &Commands{ctrl: ctrl, quote: quote}
}

// Handle processes one command and returns the reply.
func (c *Commands) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i] // "/status@MyBot"
	}
	args := fields[1:]

	switch cmd {
	case "/status":
		return FormatState(c.ctrl.Snapshot())
	case "/markets":
		return FormatMarkets(c.ctrl.Snapshot(), marketsPerPage)
	case "/market":
		if len(args) == 0 {
			return "사용법: /market &lt;심볼&gt;"
		}
		code := c.marketCode(args[0])
		c.ctrl.SelectMarket(code)
		return fmt.Sprintf("✅ <code>%s</code> 선택됨. /status 로 시세를 확인하세요.", html.EscapeString(code))
	case "/tf":
		if len(args) == 0 {
			return "사용법: /tf &lt;기간&gt; (1m, 15m, 1h, 4h, 1d, 1w)"
		}
		tf, ok := model.ParseTimeframe(args[0])
		if !ok {
			return fmt.Sprintf("알 수 없는 기간: %s", html.EscapeString(args[0]))
		}
		c.ctrl.SelectTimeframe(tf)
		return fmt.Sprintf("✅ 차트 기간: %s", tf.Label())
	case "/analyze":
		if !c.ctrl.Snapshot().CanAnalyze() {
			return "분석할 시세 데이터가 아직 없습니다. 잠시 후 다시 시도해주세요."
		}
		a, ok := c.ctrl.Analyze(ctx)
		if !ok {
			return "마켓 선택이 변경되어 분석 결과를 표시하지 않습니다."
		}
		return FormatAnalysis(a)
	case "/news":
		return FormatNews(c.ctrl.Snapshot())
	default:
		return helpText
	}
}

// marketCode accepts "eth", "ETH" or "KRW-ETH".
func (c *Commands) marketCode(arg string) string {
	arg = strings.ToUpper(strings.TrimSpace(arg))
	if strings.Contains(arg, "-") {
		return arg
	}
	return model.MarketCode(c.quote, arg)
}
