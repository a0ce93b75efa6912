// Package tui provides the Bubble Tea court entry interface.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
	"github.com/verte-zerg/shottrack/internal/state"
	"github.com/verte-zerg/shottrack/internal/stats"
	"github.com/verte-zerg/shottrack/internal/store"
)

const (
	defaultCols = 50
	defaultRows = 25
	minCols     = 20
	minRows     = 10
	maxDribbles = 99
	quotaNotice = "Storage quota exceeded. Consider exporting your data."
	helpText    = "arrows/hjkl move · m made · x missed · 2/3 value · a auto · c contest · s creation · f defense · t type · p post move · +/- dribbles · n/v custom field · u undo · q quit"
)

// Recorder is the part of the application state the court view needs.
type Recorder interface {
	AddShot(in state.ShotInput) (model.Shot, error)
	DeleteShot(id model.ID) bool
	Shots() []model.Shot
	Parameters() []model.CustomParameter
	Summary() stats.Summary
	Table() court.Table
}

// SaveErrorMsg reports a failed background save to the UI.
type SaveErrorMsg struct {
	Collection string
	Err        error
}

// Model implements the Bubble Tea court entry UI.
type Model struct {
	rec   Recorder
	table court.Table

	width  int
	height int
	cols   int
	rows   int

	cursorCol int
	cursorRow int

	// forcedValue overrides the segment suggestion when set.
	forcedValue model.ShotValue
	attrs       map[string]string
	dribbles    int
	// custom holds values keyed by parameter name; focus is the parameter
	// name v steps through, empty when none is selected.
	custom map[string]model.FieldValue
	focus  string

	recorded []model.ID
	shots    []model.Shot
	summary  stats.Summary
	status   string
}

var (
	gapStyle      = lipgloss.NewStyle()
	madeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	missedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Reverse(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	segmentStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#595959")),
	}
	cycleKeys = map[string]string{
		"c": model.AttrContestLevel,
		"s": model.AttrShotCreationType,
		"f": model.AttrDefenseType,
		"t": model.AttrShotType,
		"p": model.AttrPostMove,
	}
)

// NewModel constructs a court entry model.
func NewModel(rec Recorder) *Model {
	m := &Model{
		rec:    rec,
		table:  rec.Table(),
		cols:   defaultCols,
		rows:   defaultRows,
		attrs:  map[string]string{},
		custom: map[string]model.FieldValue{},
	}
	m.cursorCol = m.cols / 2
	m.cursorRow = m.rows * 3 / 4
	m.refresh()
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
		m.resize(msg.Width, msg.Height)
		return m, nil
	case SaveErrorMsg:
		m.status = saveErrorText(msg.Err)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(0, -1)
		case tea.KeyDown:
			m.move(0, 1)
		case tea.KeyLeft:
			m.move(-1, 0)
		case tea.KeyRight:
			m.move(1, 0)
		case tea.KeySpace, tea.KeyEnter:
			m.record(true)
		case tea.KeyBackspace, tea.KeyDelete:
			m.undo()
		case tea.KeyRunes:
			return m, m.handleRune(string(msg.Runes))
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleRune(key string) tea.Cmd {
	switch key {
	case "q":
		return tea.Quit
	case "k":
		m.move(0, -1)
	case "j":
		m.move(0, 1)
	case "h":
		m.move(-1, 0)
	case "l":
		m.move(1, 0)
	case "m":
		m.record(true)
	case "x":
		m.record(false)
	case "2":
		m.forcedValue = model.ShotValueTwo
	case "3":
		m.forcedValue = model.ShotValueThree
	case "a":
		m.forcedValue = ""
	case "u", "d":
		m.undo()
	case "+", "=":
		m.dribbles = clampInt(m.dribbles+1, 0, maxDribbles)
	case "-", "_":
		m.dribbles = clampInt(m.dribbles-1, 0, maxDribbles)
	case "n":
		m.focusNextParameter()
	case "v":
		m.stepCustomValue()
	default:
		if attr, ok := cycleKeys[key]; ok {
			m.cycleAttribute(attr)
		}
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	courtView := renderCourt(buildCourtRows(m.table, m.shots, m.cols, m.rows, m.cursorCol, m.cursorRow))
	parts := []string{courtView, m.renderCursorLine(), m.renderFooter()}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	help := helpText
	if m.width > 0 {
		help = wrapText(helpText, m.width)
	}
	parts = append(parts, footerStyle.Render(help))
	content := strings.Join(parts, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	prevCols, prevRows := m.cols, m.rows
	cols := width - 2
	rows := height - 6
	// Terminal cells are about twice as tall as wide.
	if cols > rows*2 {
		cols = rows * 2
	}
	if cols < minCols {
		cols = minCols
	}
	if rows > cols/2 {
		rows = cols / 2
	}
	if rows < minRows {
		rows = minRows
	}
	m.cols, m.rows = cols, rows
	p := cellPoint(m.cursorCol, m.cursorRow, prevCols, prevRows)
	m.cursorCol, m.cursorRow = pointCell(p, m.cols, m.rows)
}

func (m *Model) move(dc, dr int) {
	m.cursorCol = clampInt(m.cursorCol+dc, 0, m.cols-1)
	m.cursorRow = clampInt(m.cursorRow+dr, 0, m.rows-1)
}

func (m *Model) cursorPoint() model.Point {
	return cellPoint(m.cursorCol, m.cursorRow, m.cols, m.rows)
}

func (m *Model) currentValue() model.ShotValue {
	if m.forcedValue != "" {
		return m.forcedValue
	}
	return m.table.SuggestValue(m.cursorPoint())
}

func (m *Model) record(made bool) {
	p := m.cursorPoint()
	shot, err := m.rec.AddShot(state.ShotInput{
		Coordinates:      &p,
		Made:             made,
		ShotValue:        m.currentValue(),
		ContestLevel:     m.attrs[model.AttrContestLevel],
		ShotCreationType: m.attrs[model.AttrShotCreationType],
		DefenseType:      m.attrs[model.AttrDefenseType],
		ShotType:         m.attrs[model.AttrShotType],
		PostMove:         m.attrs[model.AttrPostMove],
		DribbleCount:     m.dribbles,
		CustomFields:     m.customFields(),
	})
	if err != nil {
		m.status = fmt.Sprintf("failed to record shot: %v", err)
		return
	}
	m.status = ""
	m.recorded = append(m.recorded, shot.ID)
	m.refresh()
}

// undo removes the most recent shot recorded in this session.
func (m *Model) undo() {
	for len(m.recorded) > 0 {
		id := m.recorded[len(m.recorded)-1]
		m.recorded = m.recorded[:len(m.recorded)-1]
		if m.rec.DeleteShot(id) {
			m.refresh()
			return
		}
	}
	m.status = "nothing to undo"
}

// cycleAttribute steps through the options of a built-in attribute, then back to unset.
func (m *Model) cycleAttribute(key string) {
	attr, ok := model.LookupAttribute(key)
	if !ok {
		return
	}
	current := m.attrs[key]
	next := ""
	if current == "" {
		next = attr.Options[0]
	} else {
		for i, opt := range attr.Options {
			if opt == current && i+1 < len(attr.Options) {
				next = attr.Options[i+1]
			}
		}
	}
	if next == "" {
		delete(m.attrs, key)
		return
	}
	m.attrs[key] = next
}

// focusNextParameter moves the custom field selection to the next defined
// parameter, wrapping back to no selection after the last one.
func (m *Model) focusNextParameter() {
	params := m.rec.Parameters()
	if len(params) == 0 {
		m.focus = ""
		m.status = "no custom parameters defined"
		return
	}
	next := params[0].Name
	if m.focus != "" {
		next = ""
		for i, p := range params {
			if p.Name == m.focus && i+1 < len(params) {
				next = params[i+1].Name
			}
		}
	}
	m.focus = next
}

// stepCustomValue advances the focused parameter through its options or its
// numeric range, then back to unset.
func (m *Model) stepCustomValue() {
	param, ok := m.focusedParameter()
	if !ok {
		m.focus = ""
		return
	}
	current, set := m.custom[param.Name]
	var next model.FieldValue
	switch param.Type {
	case model.ParameterNumeric:
		n, isNum := current.Int()
		switch {
		case !set || !isNum:
			next = model.NumberValue(int64(param.Min))
		case n < int64(param.Max):
			next = model.NumberValue(n + 1)
		}
	default:
		text, _ := current.Text()
		if !set && len(param.Options) > 0 {
			next = model.TextValue(param.Options[0])
		}
		for i, opt := range param.Options {
			if set && opt == text && i+1 < len(param.Options) {
				next = model.TextValue(param.Options[i+1])
			}
		}
	}
	if next.IsZero() {
		delete(m.custom, param.Name)
		return
	}
	m.custom[param.Name] = next
}

func (m *Model) focusedParameter() (model.CustomParameter, bool) {
	if m.focus == "" {
		return model.CustomParameter{}, false
	}
	for _, p := range m.rec.Parameters() {
		if p.Name == m.focus {
			return p, true
		}
	}
	return model.CustomParameter{}, false
}

// customFields returns the selected values for parameters that still exist.
func (m *Model) customFields() model.CustomFields {
	if len(m.custom) == 0 {
		return nil
	}
	out := model.CustomFields{}
	for _, p := range m.rec.Parameters() {
		if v, ok := m.custom[p.Name]; ok {
			out[p.Name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (m *Model) refresh() {
	m.shots = m.rec.Shots()
	m.summary = m.rec.Summary()
}

func (m *Model) renderCursorLine() string {
	p := m.cursorPoint()
	segment := court.OtherSegment
	if seg, ok := m.table.Classify(p); ok {
		segment = seg.Name
	}
	value := string(m.currentValue()) + "pt"
	if m.forcedValue == "" {
		value += " (auto)"
	}
	segments := []string{fmt.Sprintf("%s (%.0f, %.0f)", segment, p.X, p.Y), value}
	for _, attr := range model.BuiltinAttributes {
		if v, ok := m.attrs[attr.Key]; ok {
			segments = append(segments, attr.Label+": "+v)
		}
	}
	if m.dribbles > 0 {
		segments = append(segments, fmt.Sprintf("Dribbles: %d", m.dribbles))
	}
	for _, p := range m.rec.Parameters() {
		v, ok := m.custom[p.Name]
		label := p.Name
		if p.Name == m.focus {
			label = "[" + label + "]"
		}
		switch {
		case ok:
			segments = append(segments, label+": "+v.String())
		case p.Name == m.focus:
			segments = append(segments, label+": -")
		}
	}
	return strings.Join(segments, "  ")
}

func (m *Model) renderFooter() string {
	o := m.summary.Overall
	segments := []string{
		fmt.Sprintf("Shots %d", o.Total),
		fmt.Sprintf("Made %d", o.Made),
		fmt.Sprintf("Missed %d", o.Missed),
		"FG " + stats.FormatPercent(o.Percentage),
	}
	if seg, ok := m.table.Classify(m.cursorPoint()); ok {
		if s, found := m.summary.Segment(seg.Name); found && s.Total > 0 {
			segments = append(segments, fmt.Sprintf("%s %d/%d · %s", seg.Name, s.Made, s.Total, stats.FormatPercent(s.Percentage)))
		}
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func saveErrorText(err error) string {
	if store.IsQuotaExceeded(err) {
		return quotaNotice
	}
	return fmt.Sprintf("failed to save: %v", err)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
