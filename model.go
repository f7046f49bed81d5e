package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type rowData struct {
	Path      string
	RelPath   string
	Target    string
	SizeBytes uint64
	SizeErr   string
	Marked    bool
	DeleteErr string
	WouldFree bool
}

type sortMode int

const (
	sortBySizeDesc sortMode = iota
	sortBySizeAsc
	sortByNameAsc
)

func (m sortMode) String() string {
	switch m {
	case sortBySizeAsc:
		return "size ↑"
	case sortByNameAsc:
		return "name"
	default:
		return "size ↓"
	}
}

type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmDeleteOne
	confirmDeleteMarked
)

type confirmState struct {
	active bool
	action confirmAction
	paths  []string
}

type scanStreamMsg struct {
	ID int
	Ch <-chan tea.Msg
}

type scanRowMsg struct {
	ID  int
	Row rowData
}

type scanProgressMsg struct {
	ID       int
	Progress ScanProgress
}

type scanFinishedMsg struct {
	ID        int
	Err       error
	Cancelled bool
	Elapsed   time.Duration
	Progress  ScanProgress
}

type deleteStreamMsg struct {
	ID int
	Ch <-chan tea.Msg
}

type deleteProgressMsg struct {
	ID       int
	Progress RemoveProgress
}

type deleteFinishedMsg struct {
	ID     int
	Result RemovalResult
}

type scanPulseMsg struct{}

type recalcSizeMsg struct {
	Path string
	Size uint64
	Err  error
}

type volumeMsg struct {
	Free uint64
	Err  error
}

type keyMap struct {
	ToggleMark    key.Binding
	MarkAll       key.Binding
	ClearMarks    key.Binding
	Delete        key.Binding
	DeleteMarked  key.Binding
	Rescan        key.Binding
	Sort          key.Binding
	RecalcSize    key.Binding
	ToggleConfirm key.Binding
	Cancel        key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		ToggleMark: key.NewBinding(
			key.WithKeys("space", " "),
			key.WithHelp("space", "select"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		ClearMarks: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "unselect all"),
		),
		Delete: key.NewBinding(
			key.WithKeys("enter", "d"),
			key.WithHelp("enter/d", "delete"),
		),
		DeleteMarked: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete selected"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		RecalcSize: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "recalc size"),
		),
		ToggleConfirm: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleMark, k.MarkAll, k.Delete, k.DeleteMarked, k.Cancel, k.Rescan, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.ToggleMark, k.MarkAll, k.ClearMarks, k.Delete, k.DeleteMarked}, {k.Sort, k.RecalcSize, k.ToggleConfirm, k.Cancel, k.Rescan, k.Help, k.Quit}}
}

type model struct {
	table          table.Model
	spinner        spinner.Model
	help           help.Model
	keys           keyMap
	rows           []rowData
	loading        bool
	err            error
	lastScan       time.Duration
	lastEvent      string
	sortMode       sortMode
	confirm        confirmState
	confirmDeletes bool
	width          int
	height         int
	scanOpts       ScanOptions
	removeOpts     RemoveOptions
	scanID         int
	baseCtx        context.Context
	baseCancel     context.CancelFunc
	scanCancel     context.CancelFunc
	scanStop       context.CancelFunc
	scanStream     <-chan tea.Msg
	scanProgress   ScanProgress
	scanStart      time.Time
	scanPulse      float64
	scanPulseDir   float64
	scanBar        progress.Model
	deleteBar      progress.Model
	deleteID       int
	deleting       bool
	deleteCancel   context.CancelFunc
	deleteStream   <-chan tea.Msg
	deleteTotal    int
	deleteDone     int
	freedTotal     uint64
	failedTotal    int
	volumeFree     uint64
	volumeKnown    bool
}

type styles struct {
	base      lipgloss.Style
	header    lipgloss.Style
	title     lipgloss.Style
	subtitle  lipgloss.Style
	status    lipgloss.Style
	muted     lipgloss.Style
	accent    lipgloss.Style
	danger    lipgloss.Style
	warning   lipgloss.Style
	confirm   lipgloss.Style
	chip      lipgloss.Style
	container lipgloss.Style
}

var ui = styles{
	base: lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")),
	container: lipgloss.NewStyle().Padding(0, 1),
	header:    lipgloss.NewStyle().Padding(0, 1),
	title:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
	subtitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	status:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
	danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	confirm:   lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("203")).Bold(true).Padding(0, 1),
	chip:      lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Padding(0, 1),
}

func NewModel(ctx context.Context, scanOpts ScanOptions, removeOpts RemoveOptions, confirmDeletes bool) *model {
	baseCtx, baseCancel := context.WithCancel(ctx)

	t := table.New(
		table.WithColumns(tableColumns(60)),
		table.WithFocused(true),
	)
	// space, d and u belong to selection, delete and recalc
	t.KeyMap.PageDown.SetKeys("f", "pgdown")
	t.KeyMap.HalfPageDown.SetKeys("ctrl+d")
	t.KeyMap.HalfPageUp.SetKeys("ctrl+u")

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("238")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	scanBar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	deleteBar := progress.New(progress.WithDefaultGradient())

	return &model{
		table:          t,
		spinner:        sp,
		help:           help.New(),
		keys:           newKeyMap(),
		sortMode:       sortBySizeDesc,
		scanOpts:       scanOpts,
		removeOpts:     removeOpts,
		baseCtx:        baseCtx,
		baseCancel:     baseCancel,
		scanPulseDir:   1,
		scanBar:        scanBar,
		deleteBar:      deleteBar,
		confirmDeletes: confirmDeletes,
	}
}

func tableColumns(pathWidth int) []table.Column {
	return []table.Column{
		{Title: " ", Width: 3},
		{Title: "Path", Width: pathWidth},
		{Title: "Size", Width: 11},
		{Title: "Status", Width: 10},
	}
}

func (m *model) Init() tea.Cmd {
	cmds := m.startScan()
	cmds = append(cmds, volumeCmd(m.scanOpts.Root))
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.updateLayout(msg.Width, msg.Height)
	case spinner.TickMsg:
		if m.loading || m.deleting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	case progress.FrameMsg:
		updated, cmd := m.deleteBar.Update(msg)
		if next, ok := updated.(progress.Model); ok {
			m.deleteBar = next
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	case scanStreamMsg:
		if msg.ID != m.scanID {
			break
		}
		m.scanStream = msg.Ch
		cmds = append(cmds, waitStreamMsg(msg.Ch))
	case scanRowMsg:
		if msg.ID != m.scanID {
			break
		}
		m.rows = append(m.rows, msg.Row)
		m.setTableRows()
		m.lastEvent = fmt.Sprintf("Found: %s", msg.Row.RelPath)
		cmds = append(cmds, waitStreamMsg(m.scanStream))
	case scanProgressMsg:
		if msg.ID != m.scanID {
			break
		}
		m.scanProgress = msg.Progress
		cmds = append(cmds, waitStreamMsg(m.scanStream))
	case scanFinishedMsg:
		if msg.ID != m.scanID {
			break
		}
		m.applyScanFinished(msg)
	case scanPulseMsg:
		if m.loading {
			m.scanPulse += 0.06 * m.scanPulseDir
			if m.scanPulse >= 1 {
				m.scanPulse = 1
				m.scanPulseDir = -1
			} else if m.scanPulse <= 0 {
				m.scanPulse = 0
				m.scanPulseDir = 1
			}
			cmds = append(cmds, scanPulseCmd())
		}
	case deleteStreamMsg:
		if msg.ID != m.deleteID {
			break
		}
		m.deleteStream = msg.Ch
		cmds = append(cmds, waitStreamMsg(msg.Ch))
	case deleteProgressMsg:
		if msg.ID != m.deleteID {
			break
		}
		if cmd := m.applyDeleteProgress(msg.Progress); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, waitStreamMsg(m.deleteStream))
	case deleteFinishedMsg:
		if msg.ID != m.deleteID {
			break
		}
		m.applyDeleteFinished(msg.Result)
		cmds = append(cmds, volumeCmd(m.scanOpts.Root))
	case recalcSizeMsg:
		m.applyRecalcResult(msg)
	case volumeMsg:
		if msg.Err == nil {
			m.volumeFree = msg.Free
			m.volumeKnown = true
		}
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			if m.baseCancel != nil {
				m.baseCancel()
			}
			return m, tea.Quit
		}
		if m.confirm.active {
			switch msg.String() {
			case "y", "Y":
				paths := append([]string{}, m.confirm.paths...)
				m.confirm = confirmState{}
				cmds = append(cmds, m.startDelete(paths)...)
			case "n", "N", "esc":
				m.confirm = confirmState{}
				m.lastEvent = "Deletion cancelled"
			}
			break
		}

		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.cancelRunning()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Rescan):
			if !m.deleting {
				cmds = append(cmds, m.startScan()...)
			}
		case key.Matches(msg, m.keys.Sort):
			m.sortMode = nextSortMode(m.sortMode)
			m.sortRows()
			m.setTableRows()
			m.lastEvent = fmt.Sprintf("Sorted by %s", m.sortMode.String())
		case key.Matches(msg, m.keys.ToggleMark):
			m.toggleMark()
		case key.Matches(msg, m.keys.MarkAll):
			m.markAll()
		case key.Matches(msg, m.keys.ClearMarks):
			m.clearMarks()
		case key.Matches(msg, m.keys.DeleteMarked):
			cmds = append(cmds, m.requestDeleteMarked()...)
		case key.Matches(msg, m.keys.Delete):
			cmds = append(cmds, m.requestDeleteSelected()...)
		case key.Matches(msg, m.keys.RecalcSize):
			if cmd := m.requestRecalcSelected(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case key.Matches(msg, m.keys.ToggleConfirm):
			m.confirmDeletes = !m.confirmDeletes
			if m.confirmDeletes {
				m.lastEvent = "Confirm prompts enabled"
			} else {
				m.lastEvent = "Confirm prompts disabled"
			}
		}
	}

	if !m.confirm.active {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) View() string {
	if m.width == 0 {
		return "Loading…"
	}

	content := ui.base.Render(m.table.View())
	view := lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		content,
		m.statusView(),
		m.footerView(),
	)
	return ui.container.Render(view)
}

func (m *model) updateLayout(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	width = max(width, 60)
	height = max(height, 12)
	if m.width == width && m.height == height {
		return
	}
	m.width = width
	m.height = height

	pathWidth := max(width-3-11-10-12, 20)
	m.table.SetColumns(tableColumns(pathWidth))

	headerHeight := lipgloss.Height(m.headerView())
	statusHeight := lipgloss.Height(m.statusView())
	footerHeight := lipgloss.Height(m.footerView())
	available := max(height-headerHeight-statusHeight-footerHeight-4, 5)
	m.table.SetHeight(available)
	m.table.SetWidth(width - 4)
	progressWidth := max(width-28, 20)
	m.scanBar.Width = progressWidth
	m.deleteBar.Width = progressWidth
}

func (m *model) startScan() []tea.Cmd {
	if m.scanStop != nil {
		m.scanStop()
	}
	// esc cancels only the walk so its final message still arrives; a rescan
	// abandons the whole stream.
	streamCtx, stop := context.WithCancel(m.baseCtx)
	walkCtx, cancel := context.WithCancel(streamCtx)
	m.scanStop = stop
	m.scanCancel = cancel
	m.scanID++
	m.loading = true
	m.err = nil
	m.rows = nil
	m.scanProgress = ScanProgress{}
	m.lastScan = 0
	m.scanStart = time.Now()
	m.scanPulse = 0
	m.scanPulseDir = 1
	m.lastEvent = "Scanning…"
	m.setTableRows()

	return []tea.Cmd{m.spinner.Tick, scanStartCmd(streamCtx, walkCtx, m.scanOpts, m.scanID), scanPulseCmd()}
}

func (m *model) cancelRunning() {
	switch {
	case m.deleting && m.deleteCancel != nil:
		m.deleteCancel()
		m.lastEvent = "Cancelling deletion…"
	case m.loading && m.scanCancel != nil:
		m.scanCancel()
		m.lastEvent = "Cancelling scan…"
	}
}

func (m *model) applyScanFinished(msg scanFinishedMsg) {
	m.loading = false
	m.err = msg.Err
	m.lastScan = msg.Elapsed
	m.scanProgress = msg.Progress
	m.scanStream = nil
	m.sortRows()
	m.setTableRows()
	switch {
	case msg.Err != nil:
		m.lastEvent = fmt.Sprintf("Scan failed: %v", msg.Err)
	case msg.Cancelled:
		m.lastEvent = fmt.Sprintf("Scan cancelled: %d director%s found", len(m.rows), plural(len(m.rows), "y", "ies"))
	default:
		m.lastEvent = fmt.Sprintf("Scan complete: %d director%s", len(m.rows), plural(len(m.rows), "y", "ies"))
	}
}

func (m *model) headerView() string {
	title := ui.title.Render("nmsweep")
	subtitle := ui.subtitle.Render("node_modules cleanup")
	root := ui.muted.Render(fmt.Sprintf("Root: %s", m.scanOpts.Root))
	chips := []string{title, " ", ui.chip.Render(fmt.Sprintf("targets: %s", strings.Join(sortedTargetNames(m.scanOpts.Targets), ",")))}
	if m.removeOpts.DryRun {
		chips = append(chips, " ", ui.chip.Render("dry run"))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Left, chips...)
	return ui.header.Render(lipgloss.JoinVertical(lipgloss.Left, line, lipgloss.JoinHorizontal(lipgloss.Left, subtitle, " · ", root)))
}

func (m *model) statusView() string {
	totalBytes, queued := m.stats()
	if m.loading {
		elapsed := time.Since(m.scanStart).Truncate(100 * time.Millisecond)
		line := fmt.Sprintf("%s Scanning… visited %d · found %d · total %s · %s", m.spinner.View(), m.scanProgress.Visited, m.scanProgress.Found, formatBytes(totalBytes), elapsed)
		bar := m.scanBar.ViewAs(m.scanPulse)
		return lipgloss.JoinVertical(lipgloss.Left, ui.status.Render(line), ui.muted.Render(bar))
	}

	parts := []string{
		fmt.Sprintf("Items: %d", len(m.rows)),
		fmt.Sprintf("Total: %s", formatBytes(totalBytes)),
		fmt.Sprintf("Selected: %d", queued),
		fmt.Sprintf("%s: %s", freedLabel(m.removeOpts.DryRun), formatBytes(m.freedTotal)),
		fmt.Sprintf("Sort: %s", m.sortMode.String()),
		fmt.Sprintf("Confirm: %s", boolLabel(m.confirmDeletes)),
	}
	if m.volumeKnown {
		parts = append(parts, fmt.Sprintf("Disk free: %s", formatBytes(m.volumeFree)))
	}
	if m.lastScan > 0 {
		parts = append(parts, fmt.Sprintf("Scan: %s", m.lastScan.Truncate(10*time.Millisecond)))
	}
	if m.scanProgress.Skipped > 0 {
		parts = append(parts, ui.warning.Render(fmt.Sprintf("Unreadable: %d", m.scanProgress.Skipped)))
	}
	if m.failedTotal > 0 {
		parts = append(parts, ui.danger.Render(fmt.Sprintf("Failed: %d", m.failedTotal)))
	}
	status := strings.Join(parts, " · ")
	if m.err != nil {
		status = ui.danger.Render(fmt.Sprintf("Error: %v", m.err))
	}
	lines := []string{ui.status.Render(status)}
	if m.deleting {
		progressLine := fmt.Sprintf("%s Deleting %d/%d", m.spinner.View(), m.deleteDone, m.deleteTotal)
		lines = append(lines, ui.muted.Render(progressLine), ui.muted.Render(m.deleteBar.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *model) footerView() string {
	if m.confirm.active {
		label := "Confirm delete"
		if m.confirm.action == confirmDeleteMarked {
			label = fmt.Sprintf("Delete %d selected director%s? (y/n)", len(m.confirm.paths), plural(len(m.confirm.paths), "y", "ies"))
		} else if len(m.confirm.paths) == 1 {
			label = fmt.Sprintf("Delete %s? (y/n)", m.confirm.paths[0])
		}
		return ui.confirm.Render(label)
	}
	if m.lastEvent != "" {
		return lipgloss.JoinVertical(lipgloss.Left, ui.muted.Render(m.lastEvent), m.help.View(m.keys))
	}
	return m.help.View(m.keys)
}

func (m *model) setTableRows() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, row := range m.rows {
		check := "[ ]"
		if row.Marked {
			check = "[x]"
		}
		status := ui.muted.Render("ready")
		if row.DeleteErr != "" {
			status = ui.danger.Render("error")
		} else if row.WouldFree {
			status = ui.warning.Render("would free")
		} else if row.Marked {
			status = ui.accent.Render("selected")
		}
		size := formatBytes(row.SizeBytes)
		if row.SizeErr != "" {
			size = "?"
		}
		rows = append(rows, table.Row{
			check,
			row.RelPath,
			size,
			status,
		})
	}
	m.table.SetRows(rows)
}

func (m *model) sortRows() {
	sort.SliceStable(m.rows, func(i, j int) bool {
		left := m.rows[i]
		right := m.rows[j]
		switch m.sortMode {
		case sortBySizeAsc:
			if left.SizeBytes == right.SizeBytes {
				return strings.ToLower(left.RelPath) < strings.ToLower(right.RelPath)
			}
			return left.SizeBytes < right.SizeBytes
		case sortByNameAsc:
			return strings.ToLower(left.RelPath) < strings.ToLower(right.RelPath)
		default:
			if left.SizeBytes == right.SizeBytes {
				return strings.ToLower(left.RelPath) < strings.ToLower(right.RelPath)
			}
			return left.SizeBytes > right.SizeBytes
		}
	})
}

func nextSortMode(current sortMode) sortMode {
	switch current {
	case sortBySizeDesc:
		return sortBySizeAsc
	case sortBySizeAsc:
		return sortByNameAsc
	default:
		return sortBySizeDesc
	}
}

func (m *model) cursorRow() (int, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return -1, false
	}
	return idx, true
}

func (m *model) toggleMark() {
	idx, ok := m.cursorRow()
	if !ok {
		return
	}
	m.rows[idx].Marked = !m.rows[idx].Marked
	if m.rows[idx].Marked {
		m.lastEvent = "Selected"
	} else {
		m.lastEvent = "Unselected"
	}
	m.setTableRows()
}

func (m *model) markAll() {
	if len(m.rows) == 0 {
		return
	}
	count := 0
	for idx := range m.rows {
		if !m.rows[idx].Marked {
			m.rows[idx].Marked = true
			count++
		}
	}
	if count > 0 {
		m.lastEvent = fmt.Sprintf("Selected %d director%s", count, plural(count, "y", "ies"))
	} else {
		m.lastEvent = "Everything already selected"
	}
	m.setTableRows()
}

func (m *model) clearMarks() {
	if len(m.rows) == 0 {
		return
	}
	count := 0
	for idx := range m.rows {
		if m.rows[idx].Marked {
			m.rows[idx].Marked = false
			count++
		}
	}
	if count > 0 {
		m.lastEvent = "Selection cleared"
	} else {
		m.lastEvent = "Nothing selected"
	}
	m.setTableRows()
}

func (m *model) requestDeleteSelected() []tea.Cmd {
	idx, ok := m.cursorRow()
	if !ok {
		return nil
	}
	paths := []string{m.rows[idx].Path}
	if m.confirmDeletes {
		m.confirm = confirmState{active: true, action: confirmDeleteOne, paths: paths}
		return nil
	}
	return m.startDelete(paths)
}

func (m *model) requestDeleteMarked() []tea.Cmd {
	paths := []string{}
	for _, row := range m.rows {
		if row.Marked {
			paths = append(paths, row.Path)
		}
	}
	if len(paths) == 0 {
		m.lastEvent = "Nothing selected"
		return nil
	}
	if m.confirmDeletes {
		m.confirm = confirmState{active: true, action: confirmDeleteMarked, paths: paths}
		return nil
	}
	return m.startDelete(paths)
}

func (m *model) requestRecalcSelected() tea.Cmd {
	idx, ok := m.cursorRow()
	if !ok {
		return nil
	}
	m.lastEvent = "Recalculating size…"
	return recalcSizeCmd(m.baseCtx, m.rows[idx].Path)
}

func (m *model) startDelete(paths []string) []tea.Cmd {
	if len(paths) == 0 || m.deleting || m.loading {
		if m.loading {
			m.lastEvent = "Wait for the scan to finish"
		}
		return nil
	}
	ctx, cancel := context.WithCancel(m.baseCtx)
	m.deleteCancel = cancel
	m.deleteID++
	m.deleting = true
	m.deleteTotal = len(paths)
	m.deleteDone = 0
	m.lastEvent = fmt.Sprintf("Deleting %d director%s…", len(paths), plural(len(paths), "y", "ies"))
	return []tea.Cmd{m.spinner.Tick, m.deleteBar.SetPercent(0), deleteStartCmd(m.baseCtx, ctx, m.removeOpts, paths, m.deleteID)}
}

func (m *model) applyDeleteProgress(p RemoveProgress) tea.Cmd {
	m.deleteDone = p.Index
	idx := m.findRow(p.Path)
	if idx != -1 {
		if p.Err != nil {
			m.rows[idx].DeleteErr = p.Err.Error()
			m.lastEvent = p.Err.Error()
		} else if m.removeOpts.DryRun {
			m.rows[idx].WouldFree = true
			m.rows[idx].Marked = false
			m.rows[idx].DeleteErr = ""
		} else {
			m.rows = append(m.rows[:idx], m.rows[idx+1:]...)
		}
		m.setTableRows()
	}

	percent := 1.0
	if p.Total > 0 {
		percent = float64(p.Index) / float64(p.Total)
	}
	return m.deleteBar.SetPercent(percent)
}

func (m *model) applyDeleteFinished(result RemovalResult) {
	m.deleting = false
	m.deleteStream = nil
	if m.deleteCancel != nil {
		m.deleteCancel()
		m.deleteCancel = nil
	}
	m.freedTotal += result.BytesFreed
	m.failedTotal += len(result.Failures)
	m.lastEvent = summarizeRemoval(result, m.removeOpts.DryRun)
}

func (m *model) applyRecalcResult(msg recalcSizeMsg) {
	idx := m.findRow(msg.Path)
	if idx == -1 {
		return
	}
	if msg.Err != nil {
		m.rows[idx].SizeErr = msg.Err.Error()
		m.lastEvent = fmt.Sprintf("Recalc failed: %v", msg.Err)
		m.setTableRows()
		return
	}
	m.rows[idx].SizeBytes = msg.Size
	m.rows[idx].SizeErr = ""
	m.lastEvent = "Size recalculated"
	m.setTableRows()
}

func (m *model) findRow(path string) int {
	for idx, row := range m.rows {
		if row.Path == path {
			return idx
		}
	}
	return -1
}

func (m *model) stats() (uint64, int) {
	var total uint64
	queued := 0
	for _, row := range m.rows {
		total += row.SizeBytes
		if row.Marked {
			queued++
		}
	}
	return total, queued
}

func freedLabel(dryRun bool) string {
	if dryRun {
		return "Would free"
	}
	return "Freed"
}

func boolLabel(value bool) string {
	if value {
		return "on"
	}
	return "off"
}
