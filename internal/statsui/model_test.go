package statsui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/shottrack/internal/court"
	"github.com/verte-zerg/shottrack/internal/model"
)

type fakeSource struct {
	shots []model.Shot
}

func (f fakeSource) Shots() []model.Shot {
	return f.shots
}

func (f fakeSource) Parameters() []model.CustomParameter {
	return nil
}

func (f fakeSource) Table() court.Table {
	return court.Default()
}

func sampleSource() fakeSource {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	shot := func(id string, x, y float64, made bool, value model.ShotValue, offset time.Duration) model.Shot {
		return model.Shot{
			ID:          model.ID(id),
			Coordinates: &model.Point{X: x, Y: y},
			Made:        made,
			ShotValue:   value,
			Timestamp:   base.Add(offset),
		}
	}
	return fakeSource{shots: []model.Shot{
		shot("1", 50, 80, true, model.ShotValueTwo, 0),
		shot("2", 50, 90, false, model.ShotValueTwo, time.Minute),
		shot("3", 10, 90, false, model.ShotValueThree, 2*time.Minute),
		shot("4", 50, 10, true, model.ShotValueThree, 48*time.Hour),
	}}
}

func sized(t *testing.T, m *Model) *Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return next.(*Model)
}

func press(m *Model, key string) *Model {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(*Model)
}

func TestOverviewShowsTotals(t *testing.T) {
	m := sized(t, NewModel(sampleSource(), Config{}))
	if m.cfg.TrendWindow != defaultWindow {
		t.Fatalf("expected default window, got %d", m.cfg.TrendWindow)
	}
	view := m.View()
	for _, want := range []string{"Overview", "Shots", "50.00%", "Court Heat Map", "Weak spots"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestEmptySourceRendersPlaceholder(t *testing.T) {
	m := sized(t, NewModel(fakeSource{}, Config{}))
	if !strings.Contains(m.View(), "No shots found.") {
		t.Fatalf("expected placeholder, got:\n%s", m.View())
	}
}

func TestSegmentsTab(t *testing.T) {
	m := sized(t, NewModel(sampleSource(), Config{}))
	m = press(m, "right")
	if m.activeTab != tabSegments {
		t.Fatalf("expected segments tab, got %d", m.activeTab)
	}
	rows := m.segmentTable.Rows()
	if len(rows) != len(court.Default()) {
		t.Fatalf("expected one row per segment, got %d", len(rows))
	}
	if rows[0][0] != "Paint" || rows[0][3] != "2" || rows[0][4] != "50.00%" {
		t.Fatalf("unexpected paint row: %v", rows[0])
	}
}

func TestFilterFormAppliesValue(t *testing.T) {
	m := sized(t, NewModel(sampleSource(), Config{}))
	m = press(m, "/")
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m = press(m, "tab")
	m = press(m, "3")
	m = press(m, "enter")
	if m.filterMode {
		t.Fatalf("expected filter to close, error %q", m.filterError)
	}
	if m.cfg.Filter.ShotValue != model.ShotValueThree {
		t.Fatalf("expected 3pt filter, got %q", m.cfg.Filter.ShotValue)
	}
	if got := m.report.Summary.Overall.Total; got != 2 {
		t.Fatalf("expected 2 three point shots, got %d", got)
	}
}

func TestFilterFormRejectsBadInput(t *testing.T) {
	m := sized(t, NewModel(sampleSource(), Config{}))
	m = press(m, "/")
	m = press(m, "tab")
	m = press(m, "4")
	m = press(m, "enter")
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected filter error, got mode=%v err=%q", m.filterMode, m.filterError)
	}
	m = press(m, "esc")
	if m.filterMode || m.cfg.Filter.ShotValue != "" {
		t.Fatalf("cancel must keep the previous filter")
	}
}

func TestTrendWindowKeys(t *testing.T) {
	m := sized(t, NewModel(sampleSource(), Config{TrendWindow: 7}))
	m = press(m, "=")
	if m.cfg.TrendWindow != 10 {
		t.Fatalf("expected 10, got %d", m.cfg.TrendWindow)
	}
	m = press(m, "-")
	m = press(m, "-")
	if m.cfg.TrendWindow != 1 {
		t.Fatalf("expected 1, got %d", m.cfg.TrendWindow)
	}
}

func TestParseFilter(t *testing.T) {
	filter, err := ParseFilter(" 2024-03-02 ", "2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if filter.Since == nil || filter.Since.Day() != 2 || filter.ShotValue != model.ShotValueTwo {
		t.Fatalf("unexpected filter: %+v", filter)
	}
	if _, err := ParseFilter("03/02/2024", ""); err == nil {
		t.Fatalf("expected date error")
	}
	filter, err = ParseFilter("", "")
	if err != nil || filter.Since != nil || filter.ShotValue != "" {
		t.Fatalf("blank input must give an empty filter: %+v %v", filter, err)
	}
}
