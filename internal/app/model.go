package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ES-COCO/es-coco/internal/db"
	"github.com/ES-COCO/es-coco/internal/transcript"
	"github.com/ES-COCO/es-coco/internal/ui"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewMode tracks which list of segments is on screen.
type ViewMode int

const (
	// ViewSwitches lists every segment containing a code-switch.
	ViewSwitches ViewMode = iota
	// ViewDataSource lists every segment of one data source.
	ViewDataSource
)

// Options configures a Model.
type Options struct {
	// Source is a SQLite path or http(s) URL.
	Source   string
	CacheDir string
	Logger   *zap.Logger
}

// Model is the root bubbletea model for the escoco TUI.
type Model struct {
	// Load state
	source   string
	cacheDir string
	loading  bool
	loadErr  string

	store     *db.Store
	assembler *transcript.Assembler
	log       *zap.Logger

	// Segments
	mode       ViewMode
	segments   []transcript.Segment
	dataSource *transcript.DataSource
	cursor     int
	selectedID int64 // 0 when nothing is selected
	loadSeq    int   // latest data source request; older results are dropped

	// Overview state restored on esc
	overview       []transcript.Segment
	overviewCursor int
	overviewScroll int

	// UI state
	showPOS bool
	width   int
	height  int
	scroll  int
	layout  *layoutCache // shared by copies of the model

	// Errors
	errorMessage   string
	errorTransient bool

	// Status
	statusText string
}

// New creates a new Model in the loading state.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return Model{
		source:     opts.Source,
		cacheDir:   opts.CacheDir,
		loading:    true,
		log:        log,
		layout:     &layoutCache{},
		statusText: "Loading database...",
	}
}

// Init returns the initial command: load the database.
func (m Model) Init() tea.Cmd {
	return openStoreCmd(m.source, m.cacheDir)
}

// openStoreCmd opens or downloads the SQLite database.
func openStoreCmd(source, cacheDir string) tea.Cmd {
	return func() tea.Msg {
		store, err := db.Load(context.Background(), source, cacheDir)
		if err != nil {
			return StoreErrorMsg{Err: err}
		}
		return StoreOpenedMsg{Store: store}
	}
}

// loadSwitchSegmentsCmd assembles the code-switch overview.
func loadSwitchSegmentsCmd(a *transcript.Assembler) tea.Cmd {
	return func() tea.Msg {
		segments, err := a.SwitchSegments(context.Background())
		if err != nil {
			return QueryErrorMsg{Err: err}
		}
		return SegmentsLoadedMsg{Mode: ViewSwitches, Segments: segments}
	}
}

// loadDataSourceCmd assembles every segment of a data source and selects
// selectedID once loaded. seq identifies the request.
func loadDataSourceCmd(a *transcript.Assembler, dataSourceID, selectedID int64, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		ds, err := a.DataSource(ctx, dataSourceID)
		if err != nil {
			return QueryErrorMsg{Err: err}
		}
		segments, err := a.DataSourceSegments(ctx, dataSourceID)
		if err != nil {
			return QueryErrorMsg{Err: err}
		}
		return SegmentsLoadedMsg{
			Mode:       ViewDataSource,
			Segments:   segments,
			DataSource: &ds,
			SelectedID: selectedID,
			Seq:        seq,
		}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
		return m, nil

	case StoreOpenedMsg:
		m.store = msg.Store
		m.assembler = transcript.NewAssembler(msg.Store, m.log.Named("assembler"))
		m.loading = false
		m.loadErr = ""
		m.statusText = "Loading segments..."
		m.log.Info("database loaded", zap.String("source", m.source))
		return m, loadSwitchSegmentsCmd(m.assembler)

	case StoreErrorMsg:
		// Stays in the loading state; there is no retry.
		m.loadErr = msg.Err.Error()
		m.statusText = "Failed to load database"
		m.log.Error("failed to load database", zap.String("source", m.source), zap.Error(msg.Err))
		return m, nil

	case SegmentsLoadedMsg:
		if msg.Mode == ViewDataSource && msg.Seq != m.loadSeq {
			m.log.Debug("dropping stale segments",
				zap.Int64("selected_id", msg.SelectedID),
				zap.Int("seq", msg.Seq),
				zap.Int("latest", m.loadSeq))
			return m, nil
		}
		m.applySegments(msg)
		return m, nil

	case QueryErrorMsg:
		m.log.Error("query failed", zap.Error(msg.Err))
		m.errorMessage = msg.Err.Error()
		m.errorTransient = true
		m.statusText = ""
		return m, clearTransientErrorCmd()

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) applySegments(msg SegmentsLoadedMsg) {
	m.statusText = ""
	m.mode = msg.Mode
	m.segments = msg.Segments

	switch msg.Mode {
	case ViewSwitches:
		m.overview = msg.Segments
		m.dataSource = nil
		m.cursor = 0
		m.scroll = 0

	case ViewDataSource:
		m.dataSource = msg.DataSource
		m.cursor = 0
		m.scroll = 0
		if i := m.indexOf(msg.SelectedID); i >= 0 {
			m.selectedID = msg.SelectedID
			m.cursor = i
			m.centerOn(i)
		} else {
			m.selectedID = 0
		}
	}
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		if m.store != nil {
			m.store.Close()
		}
		return m, tea.Quit
	}

	// Nothing else is live until the database has loaded.
	if m.loading {
		return m, nil
	}

	switch msg.String() {
	case KeyJ, KeyDown:
		if m.cursor < len(m.segments)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
		return m, nil

	case KeyK, KeyUp:
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
		return m, nil

	case KeyTop:
		m.cursor = 0
		m.ensureCursorVisible()
		return m, nil

	case KeyBottom:
		m.cursor = max(0, len(m.segments)-1)
		m.ensureCursorVisible()
		return m, nil

	case KeyEnter:
		return m.selectCursor()

	case KeyBack, KeyBackspace:
		// Abandon any data source still loading.
		m.loadSeq++
		m.statusText = ""
		if m.mode == ViewDataSource {
			m.mode = ViewSwitches
			m.segments = m.overview
			m.dataSource = nil
			m.cursor = m.overviewCursor
			m.scroll = m.overviewScroll
			m.clampScroll()
		}
		return m, nil

	case KeyPOS:
		m.showPOS = !m.showPOS
		if i := m.indexOf(m.selectedID); i >= 0 {
			m.centerOn(i)
		} else {
			m.ensureCursorVisible()
		}
		return m, nil
	}

	return m, nil
}

// selectCursor selects the segment under the cursor. From the overview the
// data source is re-queried and the detail view opens on that segment.
func (m Model) selectCursor() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.segments) {
		return m, nil
	}
	seg := m.segments[m.cursor]

	if m.mode == ViewSwitches {
		m.overviewCursor = m.cursor
		m.overviewScroll = m.scroll
		m.selectedID = seg.ID
		m.loadSeq++
		m.statusText = "Loading " + seg.SourceName + "..."
		return m, loadDataSourceCmd(m.assembler, seg.DataSourceID, seg.ID, m.loadSeq)
	}

	if seg.ID == m.selectedID {
		return m, nil
	}
	m.selectedID = seg.ID
	m.centerOn(m.cursor)
	return m, nil
}

func (m Model) indexOf(segmentID int64) int {
	if segmentID == 0 {
		return -1
	}
	for i, s := range m.segments {
		if s.ID == segmentID {
			return i
		}
	}
	return -1
}

// centerOn scrolls so segment i sits in the middle of the content area.
func (m *Model) centerOn(i int) {
	l := m.segmentLayout()
	if i < 0 || i >= len(l.offsets) {
		return
	}
	visible := m.contentVisibleLines()
	mid := l.offsets[i] + l.heights[i]/2
	m.scroll = mid - visible/2
	m.clampScroll()
}

// ensureCursorVisible scrolls the minimum needed to show the cursor.
func (m *Model) ensureCursorVisible() {
	l := m.segmentLayout()
	if m.cursor < 0 || m.cursor >= len(l.offsets) {
		return
	}
	visible := m.contentVisibleLines()
	top := l.offsets[m.cursor]
	bottom := top + l.heights[m.cursor]
	if top < m.scroll {
		m.scroll = top
	} else if bottom > m.scroll+visible {
		m.scroll = min(top, bottom-visible)
	}
	m.clampScroll()
}

func (m *Model) clampScroll() {
	m.scroll = min(m.scroll, m.maxScroll())
	m.scroll = max(m.scroll, 0)
}

func (m Model) maxScroll() int {
	return max(0, m.segmentLayout().total-m.contentVisibleLines())
}

func (m Model) contentVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + divider(1) + divider(1) + error(1) + footer(1)
	reserved := 6
	return max(3, m.height-reserved)
}

func (m Model) contentWidth() int {
	if m.width == 0 {
		return 80
	}
	return max(20, m.width)
}

// layoutCache holds the rendered token lines of every segment. Headers
// follow the cursor and selection, so they are rendered per frame; each is
// exactly one line.
type layoutCache struct {
	width   int
	showPOS bool
	first   *transcript.Segment
	count   int

	bodies  [][]string
	offsets []int
	heights []int
	total   int
}

func (c *layoutCache) valid(segments []transcript.Segment, width int, showPOS bool) bool {
	var first *transcript.Segment
	if len(segments) > 0 {
		first = &segments[0]
	}
	// width is never 0 once built.
	return c.width == width && c.showPOS == showPOS && c.first == first && c.count == len(segments)
}

// segmentLayout returns where each segment starts and how many lines it
// spans, rebuilding only when the segments, width or POS display change.
func (m Model) segmentLayout() *layoutCache {
	width := m.contentWidth()
	if m.layout != nil && m.layout.valid(m.segments, width, m.showPOS) {
		return m.layout
	}

	l := layoutCache{
		width:   width,
		showPOS: m.showPOS,
		count:   len(m.segments),
		bodies:  make([][]string, len(m.segments)),
		offsets: make([]int, len(m.segments)),
		heights: make([]int, len(m.segments)),
	}
	if len(m.segments) > 0 {
		l.first = &m.segments[0]
	}
	for i, seg := range m.segments {
		body := m.renderBody(seg, width)
		l.bodies[i] = body
		l.offsets[i] = l.total
		l.heights[i] = 1 + len(body)
		l.total += l.heights[i]
	}

	if m.layout == nil {
		return &l
	}
	*m.layout = l
	return m.layout
}

// visibleLines renders content lines [start, end).
func (m Model) visibleLines(start, end int) []string {
	l := m.segmentLayout()
	i := sort.Search(len(l.offsets), func(i int) bool {
		return l.offsets[i]+l.heights[i] > start
	})

	var out []string
	for ; i < len(m.segments) && l.offsets[i] < end; i++ {
		block := append([]string{m.segmentHeader(i, m.segments[i])}, l.bodies[i]...)
		for j, line := range block {
			if n := l.offsets[i] + j; n >= start && n < end {
				out = append(out, line)
			}
		}
	}
	return out
}

const tokenIndent = 4

func (m Model) segmentHeader(i int, seg transcript.Segment) string {
	gutter := "  "
	if i == m.cursor {
		gutter = ui.CursorStyle.Render(">") + " "
	}

	var header string
	if seg.ID == m.selectedID {
		header = gutter + ui.SelectedStyle.Render("● "+seg.TimeRange())
	} else {
		header = gutter + "  " + ui.TimestampStyle.Render(seg.TimeRange())
	}
	if m.mode == ViewSwitches {
		header += " " + ui.SourceLabelStyle.Render(seg.SourceName)
	}
	if seg.HasSwitch() {
		header += " " + ui.SwitchBadgeStyle.Render("⇄")
	}
	return header
}

// renderBody renders the token rows of a segment followed by a blank line.
func (m Model) renderBody(seg transcript.Segment, width int) []string {
	var lines []string
	indent := strings.Repeat(" ", tokenIndent)
	for _, l := range wrapPieces(transcript.Layout(seg.Words), width-tokenIndent, m.showPOS) {
		lines = append(lines, indent+l)
	}
	return append(lines, "")
}

// wrapPieces lays out colored tokens in rows no wider than width. With
// showPOS every row is followed by a row of part-of-speech tags aligned
// under their tokens.
func wrapPieces(pieces []transcript.Piece, width int, showPOS bool) []string {
	if len(pieces) == 0 {
		return []string{ui.DimStyle.Render("(no words)")}
	}
	width = max(1, width)

	var out []string
	var tokens strings.Builder
	var tags strings.Builder
	lineWidth := 0

	flush := func() {
		out = append(out, tokens.String())
		if showPOS {
			out = append(out, ui.PosStyle.Render(strings.TrimRight(tags.String(), " ")))
		}
		tokens.Reset()
		tags.Reset()
		lineWidth = 0
	}

	for _, p := range pieces {
		cell := lipgloss.Width(p.Text)
		pos := p.Word.POS()
		if showPOS {
			cell = max(cell, lipgloss.Width(pos))
		}

		space := p.Space
		need := cell
		if space {
			need++
		}
		if lineWidth > 0 && lineWidth+need > width {
			flush()
		}
		if lineWidth == 0 {
			space = false
		}

		if space {
			tokens.WriteByte(' ')
			tags.WriteByte(' ')
			lineWidth++
		}
		style := ui.LanguageStyle(p.Word.Language())
		tokens.WriteString(style.Render(padRight(p.Text, cell)))
		tags.WriteString(padRight(pos, cell))
		lineWidth += cell
	}
	flush()
	return out
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Status bar
	sections = append(sections, m.renderStatusBar())

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Main content: segment list
	sections = append(sections, m.renderMainContent())

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Error bar
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	// Footer
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("ES-COCO")
	var source string
	if m.source != "" {
		source = ui.DimStyle.Render(" · " + m.source)
	}
	var pos string
	if m.showPOS {
		pos = ui.DimStyle.Render(" [POS]")
	}
	return truncateToWidth(title+source+pos, m.width)
}

func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.loading && m.loadErr != "":
		status = ui.ErrorStyle.Render("○ LOAD FAILED")
	case m.loading:
		status = ui.LoadingStyle.Render("○ LOADING")
	case m.mode == ViewDataSource && m.dataSource != nil:
		ds := m.dataSource
		status = ui.PanelTitleStyle.Render(fmt.Sprintf("%s (%d)", ds.Name, len(m.segments)))
		var meta []string
		if ds.Creator != "" {
			meta = append(meta, ds.Creator)
		}
		if ds.URL != "" {
			meta = append(meta, ds.URL)
		}
		if len(meta) > 0 {
			status += ui.DimStyle.Render(" · " + strings.Join(meta, " · "))
		}
	default:
		status = ui.PanelTitleStyle.Render(fmt.Sprintf("CODE-SWITCHES (%d)", len(m.segments)))
	}
	if m.statusText != "" && !m.loading {
		status += "  " + ui.LoadingStyle.Render(m.statusText)
	}
	return truncateToWidth(status, m.width)
}

func (m Model) renderMainContent() string {
	height := m.contentVisibleLines()

	var lines []string
	switch {
	case m.loading && m.loadErr != "":
		lines = append(lines,
			"",
			ui.ErrorStyle.Render("  Failed to load database."),
			ui.ErrorTextStyle.Render("  "+m.loadErr),
			ui.DimStyle.Render("  Set database in ~/.escoco/config.yaml or ESCOCO_DATABASE, then restart."),
		)
	case m.loading:
		lines = append(lines, "", ui.LoadingStyle.Render("  Loading database..."))
		if m.source != "" {
			lines = append(lines, ui.DimStyle.Render("  "+m.source))
		}
	case len(m.segments) == 0:
		lines = append(lines, "", ui.DimStyle.Render("  No segments."))
	default:
		lines = append(lines, m.visibleLines(m.scroll, m.scroll+height)...)
	}

	// Pad to height
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	if !m.loading {
		parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Nav"))
		parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Select"))
		if m.mode == ViewDataSource {
			parts = append(parts, ui.FooterKeyStyle.Render("Esc")+ui.FooterDescStyle.Render(" Back"))
		}
		parts = append(parts, ui.FooterKeyStyle.Render("p")+ui.FooterDescStyle.Render(" POS"))
	}

	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
