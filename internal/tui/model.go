package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"CoinLens/internal/dashboard"
	"CoinLens/internal/format"
	"CoinLens/internal/model"
)

// Controller is the dashboard surface the terminal UI renders and drives.
type Controller interface {
	Snapshot() dashboard.State
	Changed() <-chan struct{}
	SelectMarket(code string)
	SelectTimeframe(tf model.Timeframe)
	Analyze(ctx context.Context) (model.Analysis, bool)
}

// stateChangedMsg is sent whenever the dashboard signals a change.
type stateChangedMsg struct{}

// analysisDoneMsg is sent when an analysis request returns.
type analysisDoneMsg struct {
	applied bool
}

// Model is the main TUI application model.
type Model struct {
	ctx  context.Context
	ctrl Controller

	state   dashboard.State
	cursor  int
	placed  bool // cursor moved to the selected market once the list loaded
	spinner spinner.Model

	width  int
	height int
	ready  bool

	statusMsg string
}

// NewModel creates a new TUI model. ctx bounds analysis requests.
func NewModel(ctx context.Context, ctrl Controller) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)
	return &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		state:   ctrl.Snapshot(),
		spinner: sp,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenChanges())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.state.Markets)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Select):
			if m.cursor < len(m.state.Markets) {
				m.ctrl.SelectMarket(m.state.Markets[m.cursor].Code)
				m.statusMsg = ""
				m.refresh()
			}
		case key.Matches(msg, keys.Timeframe):
			i := int(msg.String()[0] - '1')
			if i >= 0 && i < len(model.Timeframes) {
				m.ctrl.SelectTimeframe(model.Timeframes[i])
				m.refresh()
			}
		case key.Matches(msg, keys.Analyze):
			if cmd := m.analyze(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case stateChangedMsg:
		m.refresh()
		cmds = append(cmds, m.listenChanges())

	case analysisDoneMsg:
		if !msg.applied {
			m.statusMsg = "선택이 변경되어 분석 결과를 버렸습니다."
		}
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) refresh() {
	m.state = m.ctrl.Snapshot()
	if !m.placed && len(m.state.Markets) > 0 {
		for i, mk := range m.state.Markets {
			if mk.Code == m.state.Market {
				m.cursor = i
			}
		}
		m.placed = true
	}
	if m.cursor >= len(m.state.Markets) {
		m.cursor = max(0, len(m.state.Markets)-1)
	}
}

func (m *Model) analyze() tea.Cmd {
	if m.state.Analyzing {
		return nil
	}
	if !m.state.CanAnalyze() {
		m.statusMsg = "분석할 시세 데이터가 아직 없습니다."
		return nil
	}
	m.statusMsg = ""
	ctrl, ctx := m.ctrl, m.ctx
	m.state.Analyzing = true
	return func() tea.Msg {
		_, ok := ctrl.Analyze(ctx)
		return analysisDoneMsg{applied: ok}
	}
}

// listenChanges waits for the next dashboard change signal.
func (m *Model) listenChanges() tea.Cmd {
	ch := m.ctrl.Changed()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-ch:
			return stateChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	listWidth := 26
	mainWidth := m.width - listWidth - 4
	if mainWidth < 40 {
		mainWidth = 40
	}
	bodyHeight := m.height - 3
	if bodyHeight < 10 {
		bodyHeight = 10
	}

	list := panelStyle.Width(listWidth).Height(bodyHeight).Render(m.renderMarkets(bodyHeight))
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTimeframes(),
		m.renderChartPanel(mainWidth, bodyHeight/3),
		lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Width(mainWidth/2-2).Render(m.renderSummary()),
			panelStyle.Width(mainWidth-mainWidth/2-2).Render(m.renderNews()),
		),
		panelStyle.Width(mainWidth).Render(m.renderAnalysis()),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, list, main),
		m.renderStatusBar(),
	)
}

func (m *Model) loading(label string) string {
	return m.spinner.View() + " " + mutedStyle.Render(label)
}

func (m *Model) renderMarkets(height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("마켓") + "\n")
	if m.state.LoadingMarkets {
		b.WriteString(m.loading("로딩 중..."))
		return b.String()
	}
	if len(m.state.Markets) == 0 {
		b.WriteString(mutedStyle.Render("마켓 목록이 없습니다."))
		return b.String()
	}

	rows := height - 2
	if rows < 1 {
		rows = 1
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(len(m.state.Markets), start+rows)
	for i := start; i < end; i++ {
		mk := m.state.Markets[i]
		line := fmt.Sprintf("%-6s %s", mk.Symbol, mk.DisplayName)
		switch {
		case mk.Code == m.state.Market:
			line = selectedRowStyle.Render("▶ " + line)
		case i == m.cursor:
			line = cursorRowStyle.Render("› " + line)
		default:
			line = rowStyle.Render("  " + line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) renderHeader() string {
	name := model.SymbolOf(m.state.Market)
	if mk, ok := m.state.SelectedMarket(); ok {
		name = mk.DisplayName
	}
	title := titleStyle.Render(name) + " " + mutedStyle.Render(m.state.Market)

	t := m.state.Ticker
	if t == nil {
		if m.state.LoadingChart {
			return title + "  " + m.loading("시세 로딩 중...")
		}
		return title + "  " + mutedStyle.Render("시세 없음")
	}
	style := directionStyle(t.ChangeRate)
	quote := style.Bold(true).Render(format.KRW(t.Price)) + " " +
		style.Render(arrow(t.Change)+" "+format.Percent(t.ChangeRate)) + "  " +
		labelStyle.Render("거래량: "+format.Volume(t.Volume24h))
	return title + "  " + quote
}

func arrow(d model.Direction) string {
	switch d {
	case model.DirectionUp:
		return "▲"
	case model.DirectionDown:
		return "▼"
	default:
		return "-"
	}
}

func (m *Model) renderTimeframes() string {
	tabs := make([]string, 0, len(model.Timeframes))
	for i, tf := range model.Timeframes {
		label := fmt.Sprintf("%d %s", i+1, tf.Label())
		if tf == m.state.Timeframe {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderChartPanel(width, height int) string {
	title := titleStyle.Render("실시간 차트")
	var body string
	if m.state.LoadingChart && len(m.state.Candles) == 0 {
		body = m.loading("차트 로딩 중...")
	} else {
		body = renderChart(m.state.Candles, width-4, height)
	}
	return panelStyle.Width(width).Render(title + "\n" + body)
}

func (m *Model) renderSummary() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("24시간 요약") + "\n")
	t := m.state.Ticker
	if t == nil {
		b.WriteString(mutedStyle.Render("-"))
		return b.String()
	}
	b.WriteString(labelStyle.Render("고가     ") + format.KRW(t.High24h) + "\n")
	b.WriteString(labelStyle.Render("저가     ") + format.KRW(t.Low24h) + "\n")
	b.WriteString(labelStyle.Render("거래대금 ") + format.Price(t.Value24h))
	return b.String()
}

func (m *Model) renderNews() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI 뉴스 브리핑") + "\n")
	switch {
	case m.state.LoadingBriefing:
		b.WriteString(m.loading("요약 중...") + "\n")
	case m.state.Briefing != nil:
		b.WriteString(*m.state.Briefing + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("최신 뉴스") + "\n")
	if m.state.LoadingNews && len(m.state.News) == 0 {
		b.WriteString(m.loading("뉴스 로딩 중..."))
		return b.String()
	}
	if len(m.state.News) == 0 {
		b.WriteString(mutedStyle.Render("뉴스가 없습니다."))
		return b.String()
	}
	for i, n := range m.state.News {
		if i >= 5 {
			break
		}
		b.WriteString("• " + n.Title + " " + mutedStyle.Render("("+n.Source+")") + "\n")
	}
	return b.String()
}

func (m *Model) renderAnalysis() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI 분석") + "\n")
	switch {
	case m.state.Analyzing:
		b.WriteString(m.loading("분석 중..."))
	case m.state.Analysis != nil:
		a := m.state.Analysis
		b.WriteString(sentimentBadge(a.Sentiment) + " " + lipgloss.NewStyle().Bold(true).Render(a.Title) + "\n\n")
		b.WriteString(a.Text + "\n")
		if len(a.Sources) > 0 {
			b.WriteString("\n" + labelStyle.Render("출처") + "\n")
			for _, s := range a.Sources {
				b.WriteString(mutedStyle.Render("- "+s.Title+" "+s.URI) + "\n")
			}
		}
	default:
		b.WriteString(mutedStyle.Render("'a' 키를 눌러 AI 분석을 요청하세요."))
	}
	return b.String()
}

func sentimentBadge(s model.Sentiment) string {
	switch s {
	case model.SentimentBullish:
		return riseStyle.Bold(true).Render("[강세]")
	case model.SentimentBearish:
		return fallStyle.Bold(true).Render("[약세]")
	default:
		return evenStyle.Bold(true).Render("[중립]")
	}
}

func (m *Model) renderStatusBar() string {
	parts := make([]string, 0, len(keys.help()))
	for _, k := range keys.help() {
		h := k.Help()
		parts = append(parts, statusKeyStyle.Render(h.Key)+" "+h.Desc)
	}
	status := strings.Join(parts, " │ ")
	if m.statusMsg != "" {
		status += " │ " + m.statusMsg
	}
	return statusBarStyle.Width(m.width).Render(status)
}
