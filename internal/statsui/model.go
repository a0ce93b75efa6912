// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
	"github.com/verte-zerg/shottrack/internal/stats"
)

const (
	tabOverview = iota
	tabSegments
	tabParameters
)

const (
	heatHeight     = 18
	weakSpotCount  = 3
	weakMinShots   = 3
	volumeTopCount = 3
	defaultWindow  = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// Source is what the dashboard reads its shots from.
type Source interface {
	stats.Source
	Table() court.Table
}

// Config holds the dashboard filter and trend settings.
type Config struct {
	Filter      model.StatsFilter
	TrendWindow int
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	source Source
	cfg    Config

	report stats.Report
	errMsg string

	tabs          []string
	activeTab     int
	viewports     []viewport.Model
	segmentTable  table.Model
	segmentLayout tableLayout

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs a stats UI model.
func NewModel(src Source, cfg Config) *Model {
	if cfg.TrendWindow < 1 {
		cfg.TrendWindow = defaultWindow
	}
	m := &Model{
		source: src,
		cfg:    cfg,
		tabs:   []string{"Overview", "Segments", "Parameters"},
	}
	m.initInputs()
	m.segmentTable = buildSegmentTable(nil, 0, 1)
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.activeTab == tabSegments {
			m.segmentTable.Focus()
		} else {
			m.segmentTable.Blur()
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.TrendWindow = nextWindow(m.cfg.TrendWindow)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.TrendWindow = prevWindow(m.cfg.TrendWindow)
			m.refreshReport()
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabSegments {
				m.segmentTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabSegments {
				m.segmentTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabSegments {
				var cmd tea.Cmd
				m.segmentTable, cmd = m.segmentTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Shot value (2/3): "),
		newFilterInput("Trend window: "),
	}
	m.setInputsFromConfig()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if len(m.filterInputs) == 0 {
		return
	}
	if m.cfg.Filter.Since != nil {
		m.filterInputs[0].SetValue(m.cfg.Filter.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[0].SetValue("")
	}
	m.filterInputs[1].SetValue(string(m.cfg.Filter.ShotValue))
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.TrendWindow))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.setSegmentTableSize(m.width, vpHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabSegments {
		m.segmentTable.Focus()
	} else {
		m.segmentTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	since := "any"
	if m.cfg.Filter.Since != nil {
		since = m.cfg.Filter.Since.Format("2006-01-02")
	}
	value := "any"
	if m.cfg.Filter.ShotValue != "" {
		value = string(m.cfg.Filter.ShotValue) + "pt"
	}
	summary := fmt.Sprintf("Filter: since=%s  value=%s  window=%d", since, value, m.cfg.TrendWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Filter: /  Refresh: r  Quit: q")
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabSegments {
		if m.report.Summary.Overall.Total == 0 {
			return fitLines("No shots found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.segmentTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	m.report = stats.BuildReport(m.source, m.source.Table(), m.cfg.Filter, m.cfg.TrendWindow)
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.applySegmentTable(m.report.Summary, width, bodyHeight)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.source.Table(), m.cfg.TrendWindow, width))
	m.viewports[tabParameters].SetContent(renderParameters(m.report.Summary))
}

func renderOverview(report stats.Report, courtTable court.Table, window, width int) string {
	summary := report.Summary
	if summary.Overall.Total == 0 {
		return "No shots found."
	}
	parts := []string{
		renderSummaryCards(summary, width),
		renderHeat(summary, courtTable, width),
		renderTrend(report.Trend, window, width),
		renderSpots(summary),
	}
	return strings.TrimRight(strings.Join(parts, "\n\n"), "\n")
}

func renderSummaryCards(summary stats.Summary, width int) string {
	overall := summary.Overall
	cards := []string{
		metricCard("Shots", strconv.Itoa(overall.Total)),
		metricCard("Made", strconv.Itoa(overall.Made)),
		metricCard("Missed", strconv.Itoa(overall.Missed)),
		metricCard("FG%", stats.FormatPercent(overall.Percentage)),
	}
	if two, ok := valueBucket(summary, model.ShotValueTwo); ok {
		cards = append(cards, metricCard("2PT%", stats.FormatPercent(two.Percentage)))
	}
	if three, ok := valueBucket(summary, model.ShotValueThree); ok {
		cards = append(cards, metricCard("3PT%", stats.FormatPercent(three.Percentage)))
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func valueBucket(summary stats.Summary, value model.ShotValue) (stats.ValueStats, bool) {
	param, ok := summary.Parameter(model.AttrShotValue)
	if !ok {
		return stats.ValueStats{}, false
	}
	return param.Value(string(value))
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderHeat(summary stats.Summary, courtTable court.Table, width int) string {
	heatWidth := stats.HeatWidthFor(width)
	lines := stats.HeatMapLines(summary, courtTable, heatWidth, minInt(heatHeight, heatWidth/2), true)
	return sectionStyle.Render("Court Heat Map") + "\n" + strings.Join(lines, "\n")
}

func renderTrend(trend []float64, window, width int) string {
	title := sectionStyle.Render(fmt.Sprintf("Make %% trend (window %d)", window))
	if len(trend) == 0 {
		return title + "\nNo data."
	}
	if limit := maxInt(10, width-2); len(trend) > limit {
		trend = trend[len(trend)-limit:]
	}
	last := trend[len(trend)-1]
	return fmt.Sprintf("%s\n%s\nlatest %s", title, stats.Sparkline(trend), stats.FormatPercent(last))
}

func renderSpots(summary stats.Summary) string {
	lines := []string{sectionStyle.Render("Most attempted")}
	for _, seg := range stats.TopSegmentsByVolume(summary, volumeTopCount) {
		lines = append(lines, segmentLine(seg))
	}
	lines = append(lines, "", sectionStyle.Render("Weak spots"))
	weak := stats.SelectWeakSegments(summary, weakSpotCount, weakMinShots)
	if len(weak) == 0 {
		lines = append(lines, fmt.Sprintf("Need at least %d shots in a segment.", weakMinShots))
	}
	for _, seg := range weak {
		lines = append(lines, segmentLine(seg))
	}
	if summary.MissingCoordinates > 0 {
		lines = append(lines, "", headerStyle.Render(fmt.Sprintf("%d shots without coordinates", summary.MissingCoordinates)))
	}
	return strings.Join(lines, "\n")
}

func segmentLine(seg stats.SegmentStats) string {
	return fmt.Sprintf("  %-20s %3d/%-3d %s", seg.Name, seg.Made, seg.Total, stats.FormatPercent(seg.Percentage))
}

func renderParameters(summary stats.Summary) string {
	if summary.Overall.Total == 0 {
		return "No shots found."
	}
	var buf bytes.Buffer
	if err := stats.RenderParameterTables(&buf, summary); err != nil {
		return fmt.Sprintf("Failed to render parameters: %v", err)
	}
	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return "No parameter values recorded."
	}
	return out
}

func segmentColumns() []table.Column {
	return []table.Column{
		{Title: "Segment", Width: 20},
		{Title: "Made", Width: 6},
		{Title: "Missed", Width: 6},
		{Title: "Total", Width: 6},
		{Title: "FG%", Width: 8},
	}
}

func segmentRows(summary stats.Summary) []table.Row {
	rows := make([]table.Row, 0, len(summary.Segments)+1)
	add := func(seg stats.SegmentStats) {
		rows = append(rows, table.Row{
			seg.Name,
			strconv.Itoa(seg.Made),
			strconv.Itoa(seg.Missed),
			strconv.Itoa(seg.Total),
			stats.FormatPercent(seg.Percentage),
		})
	}
	for _, seg := range summary.Segments {
		add(seg)
	}
	if summary.Other.Total > 0 {
		add(summary.Other)
	}
	return rows
}

func buildSegmentTable(rows []table.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(segmentColumns()),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(segmentTableStyles())
	return t
}

func (m *Model) applySegmentTable(summary stats.Summary, width, height int) {
	rows := segmentRows(summary)
	m.segmentTable.SetRows(rows)
	m.segmentLayout.rowCount = len(rows)
	m.segmentLayout.width = 0
	m.setSegmentTableSize(width, height)
}

func (m *Model) setSegmentTableSize(width, height int) {
	viewportHeight := maxInt(1, height-1)
	if m.segmentLayout.width == width && m.segmentLayout.height == viewportHeight {
		return
	}
	m.segmentLayout.width = width
	m.segmentLayout.height = viewportHeight
	m.segmentTable.SetWidth(width)
	m.segmentTable.SetHeight(viewportHeight)
}

func segmentTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	filter, err := ParseFilter(m.filterInputs[0].Value(), m.filterInputs[1].Value())
	if err != nil {
		return err
	}
	window := defaultWindow
	if raw := strings.TrimSpace(m.filterInputs[2].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid trend window (use integer)")
		}
		if parsed < 1 {
			return fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		window = parsed
	}
	m.cfg = Config{Filter: filter, TrendWindow: window}
	return nil
}

// ParseFilter builds a stats filter from a YYYY-MM-DD date and a shot value,
// either of which may be blank.
func ParseFilter(since, value string) (model.StatsFilter, error) {
	var filter model.StatsFilter
	if since = strings.TrimSpace(since); since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		filter.Since = &parsed
	}
	if value = strings.TrimSpace(value); value != "" {
		v := model.ShotValue(value)
		if !v.Valid() {
			return filter, fmt.Errorf("invalid shot value (use 2 or 3)")
		}
		filter.ShotValue = v
	}
	return filter, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func nextWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
