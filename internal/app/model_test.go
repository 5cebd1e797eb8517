package app

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ES-COCO/es-coco/internal/db"
	"github.com/ES-COCO/es-coco/internal/db/dbtest"
	"github.com/ES-COCO/es-coco/internal/transcript"

	tea "github.com/charmbracelet/bubbletea"
)

// applyUpdate is a helper that applies a message and returns the updated Model.
func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadedModel returns a model that has opened the sample database and
// loaded the code-switch overview.
func loadedModel(t *testing.T) Model {
	t.Helper()
	m := New(Options{Source: "sample.db"})
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m, cmd := applyUpdate(m, StoreOpenedMsg{Store: db.NewStore(dbtest.Sample(t))})
	if cmd == nil {
		t.Fatal("expected a command to load segments")
	}
	msg := cmd()
	loaded, ok := msg.(SegmentsLoadedMsg)
	if !ok {
		t.Fatalf("msg = %T, want SegmentsLoadedMsg", msg)
	}
	m, _ = applyUpdate(m, loaded)
	return m
}

// syntheticModel returns a loaded model with n one-word segments in the
// detail view.
func syntheticModel(n int) Model {
	m := New(Options{})
	m.width = 80
	m.height = 24
	m.loading = false
	m.mode = ViewDataSource
	for i := 1; i <= n; i++ {
		id := int64(i)
		m.segments = append(m.segments, transcript.Segment{
			ID:      id,
			StartMS: id * 1000,
			EndMS:   id*1000 + 500,
			Words:   []transcript.Word{{ID: id, SegmentID: id, SurfaceForm: "hola"}},
		})
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := New(Options{Source: "escoco.db"})
	if !m.loading {
		t.Error("new model should be loading")
	}
	if m.selectedID != 0 {
		t.Error("new model should have no selection")
	}
	if m.Init() == nil {
		t.Error("Init should return the load command")
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := New(Options{})
	if m.View() != "Initializing..." {
		t.Errorf("view = %q", m.View())
	}
}

func TestKeysIgnoredWhileLoading(t *testing.T) {
	m := New(Options{})
	m.segments = make([]transcript.Segment, 3)

	m, cmd := applyUpdate(m, keyMsg("j"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if cmd != nil {
		t.Error("expected no command while loading")
	}

	m, cmd = applyUpdate(m, keyMsg("enter"))
	if cmd != nil {
		t.Error("enter should not query while loading")
	}
}

func TestStoreErrorStaysLoading(t *testing.T) {
	m := New(Options{Source: "/missing/escoco.db"})
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 24})

	m, cmd := applyUpdate(m, StoreErrorMsg{Err: fmt.Errorf("open database: no such file")})
	if !m.loading {
		t.Error("should stay loading after a load failure")
	}
	if cmd != nil {
		t.Error("load failure should not schedule a retry")
	}

	view := m.View()
	if !strings.Contains(view, "Failed to load database") {
		t.Error("view should show the load failure")
	}
	if !strings.Contains(view, "no such file") {
		t.Error("view should show the load error")
	}
}

func TestStoreOpenedLoadsOverview(t *testing.T) {
	m := loadedModel(t)

	if m.loading {
		t.Error("should not be loading after store opened")
	}
	if m.mode != ViewSwitches {
		t.Errorf("mode = %d, want ViewSwitches", m.mode)
	}
	if len(m.segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(m.segments))
	}
	// Ordered by data source name: Bangor before Miami.
	if m.segments[0].ID != 3 || m.segments[1].ID != 1 {
		t.Errorf("segment ids = %d,%d want 3,1", m.segments[0].ID, m.segments[1].ID)
	}

	view := m.View()
	if !strings.Contains(view, "CODE-SWITCHES (2)") {
		t.Error("view should show the overview title")
	}
	if !strings.Contains(view, "00:00.000–00:01.000") {
		t.Error("view should show the segment time range")
	}
	if !strings.Contains(view, "hello") {
		t.Error("continuation tokens should be joined")
	}
}

func TestCursorNavigation(t *testing.T) {
	m := loadedModel(t)

	m, _ = applyUpdate(m, keyMsg("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	// At the end, j does nothing.
	m, _ = applyUpdate(m, keyMsg("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	m, _ = applyUpdate(m, keyMsg("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	m, _ = applyUpdate(m, keyMsg("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if m.selectedID != 0 {
		t.Error("moving the cursor should not select")
	}
}

func TestSelectRequeriesDataSource(t *testing.T) {
	m := loadedModel(t)

	// Segment 1 belongs to Miami.
	m, _ = applyUpdate(m, keyMsg("j"))
	m, cmd := applyUpdate(m, keyMsg("enter"))
	if cmd == nil {
		t.Fatal("selecting from the overview should query the data source")
	}
	if m.selectedID != 1 {
		t.Errorf("selectedID = %d, want 1", m.selectedID)
	}

	loaded, ok := cmd().(SegmentsLoadedMsg)
	if !ok {
		t.Fatal("expected SegmentsLoadedMsg")
	}
	if loaded.Mode != ViewDataSource || loaded.SelectedID != 1 {
		t.Errorf("loaded = mode %d selected %d", loaded.Mode, loaded.SelectedID)
	}
	if loaded.DataSource == nil || loaded.DataSource.Name != "Miami" {
		t.Fatalf("data source = %+v", loaded.DataSource)
	}

	m, _ = applyUpdate(m, loaded)
	if m.mode != ViewDataSource {
		t.Errorf("mode = %d, want ViewDataSource", m.mode)
	}
	if len(m.segments) != 2 || m.segments[0].ID != 1 || m.segments[1].ID != 2 {
		t.Errorf("detail segments = %+v", m.segments)
	}
	if m.cursor != 0 || m.selectedID != 1 {
		t.Errorf("cursor = %d selected = %d", m.cursor, m.selectedID)
	}

	view := m.View()
	for _, want := range []string{"Miami", "Bangor University", "https://example.org/miami", "sé"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q", want)
		}
	}
}

func TestSelectWithinDataSource(t *testing.T) {
	m := loadedModel(t)
	m, _ = applyUpdate(m, keyMsg("j"))
	m, cmd := applyUpdate(m, keyMsg("enter"))
	m, _ = applyUpdate(m, cmd())

	// Re-selecting the selected segment is a no-op.
	m, cmd = applyUpdate(m, keyMsg("enter"))
	if cmd != nil {
		t.Error("re-selecting should not query")
	}

	m, _ = applyUpdate(m, keyMsg("j"))
	m, cmd = applyUpdate(m, keyMsg("enter"))
	if cmd != nil {
		t.Error("selecting inside the detail view should not query")
	}
	if m.selectedID != 2 {
		t.Errorf("selectedID = %d, want 2", m.selectedID)
	}
}

func TestEscRestoresOverview(t *testing.T) {
	m := loadedModel(t)
	m, _ = applyUpdate(m, keyMsg("j"))
	m, cmd := applyUpdate(m, keyMsg("enter"))
	m, _ = applyUpdate(m, cmd())

	m, _ = applyUpdate(m, keyMsg("esc"))
	if m.mode != ViewSwitches {
		t.Errorf("mode = %d, want ViewSwitches", m.mode)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	if len(m.segments) != 2 || m.segments[0].ID != 3 {
		t.Errorf("overview not restored: %+v", m.segments)
	}
	if m.dataSource != nil {
		t.Error("data source should be cleared")
	}
}

func TestOutOfOrderLoadsKeepLatestSelection(t *testing.T) {
	m := loadedModel(t)
	m, first := applyUpdate(m, keyMsg("enter")) // segment 3, Bangor
	m, _ = applyUpdate(m, keyMsg("j"))
	m, second := applyUpdate(m, keyMsg("enter")) // segment 1, Miami
	if first == nil || second == nil {
		t.Fatal("expected a load command per selection")
	}

	m, _ = applyUpdate(m, second())
	m, _ = applyUpdate(m, first())

	if m.mode != ViewDataSource {
		t.Fatalf("mode = %d, want ViewDataSource", m.mode)
	}
	if m.selectedID != 1 {
		t.Errorf("selectedID = %d, want 1", m.selectedID)
	}
	if m.dataSource == nil || m.dataSource.Name != "Miami" {
		t.Errorf("data source = %+v, want Miami", m.dataSource)
	}
}

func TestEscAbandonsPendingLoad(t *testing.T) {
	m := loadedModel(t)
	m, cmd := applyUpdate(m, keyMsg("enter"))
	m, _ = applyUpdate(m, keyMsg("esc"))
	m, _ = applyUpdate(m, cmd())

	if m.mode != ViewSwitches {
		t.Errorf("mode = %d, want ViewSwitches", m.mode)
	}
	if m.dataSource != nil {
		t.Errorf("data source = %+v, want nil", m.dataSource)
	}
}

func TestSelectionCentersOnce(t *testing.T) {
	m := syntheticModel(50)
	// 24 rows leave 18 for content; each segment is 3 lines.
	if got := m.contentVisibleLines(); got != 18 {
		t.Fatalf("visible = %d, want 18", got)
	}

	m.cursor = 25
	m, _ = applyUpdate(m, keyMsg("enter"))
	if m.selectedID != 26 {
		t.Fatalf("selectedID = %d, want 26", m.selectedID)
	}
	// The block at index 25 spans lines 75-77; its middle line lands on row 9.
	if m.scroll != 67 {
		t.Errorf("scroll = %d, want 67", m.scroll)
	}

	// Moving the cursor within the window does not re-center.
	m, _ = applyUpdate(m, keyMsg("j"))
	if m.scroll != 67 {
		t.Errorf("scroll after j = %d, want 67", m.scroll)
	}
	_ = m.View()
	if m.scroll != 67 {
		t.Errorf("render changed scroll to %d", m.scroll)
	}
}

func TestSelectionCenterClamped(t *testing.T) {
	m := syntheticModel(50)

	m.cursor = 0
	m, _ = applyUpdate(m, keyMsg("enter"))
	if m.scroll != 0 {
		t.Errorf("scroll = %d, want 0", m.scroll)
	}

	m.cursor = 49
	m, _ = applyUpdate(m, keyMsg("enter"))
	// 150 lines, 18 visible.
	if m.scroll != 132 {
		t.Errorf("scroll = %d, want 132", m.scroll)
	}
}

func TestCursorScrollsIntoView(t *testing.T) {
	m := syntheticModel(50)
	for i := 0; i < 6; i++ {
		m, _ = applyUpdate(m, keyMsg("j"))
	}
	// Segment 6 spans lines 18-20; the window must end at line 21.
	if m.scroll != 3 {
		t.Errorf("scroll = %d, want 3", m.scroll)
	}
	m, _ = applyUpdate(m, keyMsg("G"))
	if m.cursor != 49 || m.scroll != 132 {
		t.Errorf("cursor = %d scroll = %d", m.cursor, m.scroll)
	}
	m, _ = applyUpdate(m, keyMsg("g"))
	if m.cursor != 0 || m.scroll != 0 {
		t.Errorf("cursor = %d scroll = %d", m.cursor, m.scroll)
	}
}

func TestSegmentLayoutCached(t *testing.T) {
	m := syntheticModel(50)
	built := &m.segmentLayout().bodies[0]

	m, _ = applyUpdate(m, keyMsg("j"))
	m, _ = applyUpdate(m, keyMsg("enter"))
	_ = m.View()
	if got := &m.segmentLayout().bodies[0]; got != built {
		t.Error("layout rebuilt without a change to segments, width or POS")
	}

	m, _ = applyUpdate(m, keyMsg("p"))
	l := m.segmentLayout()
	if &l.bodies[0] == built {
		t.Error("layout not rebuilt after toggling POS")
	}
	// header, token row, POS row, blank
	if l.heights[0] != 4 || l.total != 200 {
		t.Errorf("heights[0] = %d, total = %d, want 4 and 200", l.heights[0], l.total)
	}

	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 24})
	if m.segmentLayout().width != 100 {
		t.Errorf("width = %d, want 100", m.segmentLayout().width)
	}
}

func TestVisibleLinesWindow(t *testing.T) {
	m := syntheticModel(5)
	lines := m.visibleLines(4, 7)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	// Lines 4 and 5 end segment 2; line 6 is the header of segment 3.
	if !strings.Contains(lines[0], "hola") || lines[1] != "" || !strings.Contains(lines[2], "00:03.000") {
		t.Errorf("lines = %q", lines)
	}
}

func TestTogglePOS(t *testing.T) {
	m := loadedModel(t)
	m, _ = applyUpdate(m, keyMsg("p"))
	if !m.showPOS {
		t.Fatal("p should enable POS display")
	}
	if !strings.Contains(m.View(), "NOUN") {
		t.Error("view should show POS tags")
	}
	m, _ = applyUpdate(m, keyMsg("p"))
	if m.showPOS {
		t.Error("p should toggle POS display off")
	}
}

func TestQueryErrorIsTransient(t *testing.T) {
	m := loadedModel(t)
	m, cmd := applyUpdate(m, QueryErrorMsg{Err: fmt.Errorf("database is locked")})
	if m.errorMessage != "database is locked" {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if cmd == nil {
		t.Error("expected a clear command")
	}
	if !strings.Contains(m.View(), "database is locked") {
		t.Error("view should show the error")
	}
	m, _ = applyUpdate(m, ClearTransientErrorMsg{})
	if m.errorMessage != "" {
		t.Error("transient error should clear")
	}
}

func TestWrapPieces(t *testing.T) {
	words := []transcript.Word{
		{ID: 1, SurfaceForm: "hello", Annotations: []transcript.Annotation{
			{Type: transcript.TypeLanguage, Value: "eng"},
			{Type: transcript.TypePOS, Value: "INTJ"},
		}},
		{ID: 2, SurfaceForm: "amigo", Annotations: []transcript.Annotation{
			{Type: transcript.TypeLanguage, Value: "spa"},
			{Type: transcript.TypePOS, Value: "NOUN"},
		}},
		{ID: 3, SurfaceForm: ","},
	}
	pieces := transcript.Layout(words)

	lines := wrapPieces(pieces, 40, false)
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "hello") || !strings.Contains(lines[0], "amigo") {
		t.Errorf("line = %q", lines[0])
	}

	// "amigo" does not fit after "hello"; the comma follows it on the next row.
	lines = wrapPieces(pieces, 8, false)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[1], "amigo") {
		t.Errorf("second line = %q", lines[1])
	}

	lines = wrapPieces(pieces, 40, true)
	if len(lines) != 2 {
		t.Fatalf("lines with POS = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[1], "INTJ") || !strings.Contains(lines[1], "NOUN") {
		t.Errorf("POS line = %q", lines[1])
	}
	// A word without a POS tag shows the placeholder.
	if !strings.Contains(lines[1], transcript.UnknownPOS) {
		t.Errorf("POS line missing placeholder: %q", lines[1])
	}
}

func TestWrapPiecesEmpty(t *testing.T) {
	lines := wrapPieces(nil, 40, false)
	if len(lines) != 1 || !strings.Contains(lines[0], "no words") {
		t.Errorf("lines = %q", lines)
	}
}

func TestFooterShowsBackInDetail(t *testing.T) {
	m := syntheticModel(2)
	if !strings.Contains(m.renderFooter(), "Back") {
		t.Error("detail footer should offer Back")
	}
	m.mode = ViewSwitches
	if strings.Contains(m.renderFooter(), "Back") {
		t.Error("overview footer should not offer Back")
	}
}
