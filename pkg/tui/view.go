package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/weekplan/pkg/plan"
	"github.com/stefanpenner/weekplan/pkg/session"
)

const minWidth = 40
const minHeight = 10

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}

	if m.showDeleteConfirm {
		return placeOverlay(m.renderDeleteModal(), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(m.renderInsight(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 3
	footerLines := 2

	searchActive := m.isSearching || m.searchQuery != ""
	if searchActive {
		headerLines++
		b.WriteString(m.renderSearchBar(w))
		b.WriteString("\n")
	}

	contentHeight := h - headerLines - footerLines

	if m.isRawEditing {
		lines := strings.Split(m.rawEditor.View(), "\n")
		for i := 0; i < contentHeight; i++ {
			if i < len(lines) {
				b.WriteString(lines[i])
			}
			b.WriteString("\n")
		}
	} else {
		leftWidth := w - m.rightWidth() - 1
		rightWidth := m.rightWidth()

		leftPanel := m.renderTaskPanel(leftWidth, contentHeight)
		var rightPanel string
		if m.showNotes {
			rightPanel = m.renderNotesPanel(rightWidth, contentHeight)
		} else {
			rightPanel = m.renderAgendaPanel(rightWidth, contentHeight)
		}

		sepColor := ColorGrayDim
		if m.focusedPane == paneAgenda {
			sepColor = ColorPurple
		}
		sep := lipgloss.NewStyle().Foreground(sepColor).Render("│")
		for i := 0; i < contentHeight; i++ {
			b.WriteString(getLine(leftPanel, i, leftWidth))
			b.WriteString(sep)
			b.WriteString(getLine(rightPanel, i, rightWidth))
			b.WriteString("\n")
		}
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(w))

	return b.String()
}

func (m Model) rightWidth() int {
	w := m.width
	if w < minWidth {
		w = minWidth
	}
	rw := w - w*2/5 - 1
	if rw < 20 {
		rw = 20
	}
	return rw
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("Week " + m.week)

	var badges []string
	if m.sess.Mode() == session.ModeRaw {
		badges = append(badges, BadgeStyle.Render("TEXT"))
	}
	if m.sess.Syncing() {
		badges = append(badges, BadgeStyle.Render("SYNCING"))
	}
	if m.sess.Dirty() {
		badges = append(badges, BadgeStyle.Background(ColorRed).Render("UNSAVED"))
	}
	if len(badges) > 0 {
		title += " " + strings.Join(badges, " ")
	}

	st := ComputeStats(m.sess.Document())
	stats := HeaderCountStyle.Render(fmt.Sprintf("%d/%d tasks done or scheduled · %.1fh of %.1fh planned",
		st.Done, st.Tasks, st.Planned, st.Estimated))

	status := ""
	if m.statusMsg != "" && time.Now().Before(m.statusTimeout) {
		status = lipgloss.NewStyle().Foreground(ColorCyan).Render(m.statusMsg) + "  "
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(stats) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + status + stats
}

func (m Model) renderInsight(width int) string {
	insight := strings.TrimSpace(m.sess.Document().Insight)
	if insight == "" {
		return FooterStyle.Render("No insight for this week")
	}
	insight = strings.Join(strings.Fields(insight), " ")
	line := "» " + insight
	if lipgloss.Width(line) > width {
		line = truncate(line, width-1) + "…"
	}
	return lipgloss.NewStyle().Foreground(ColorCyan).Italic(true).Render(line)
}

func (m Model) renderSearchBar(width int) string {
	prefix := SearchBarStyle.Render(" / ")
	query := SearchBarStyle.Render(m.searchQuery)
	cursor := ""
	if m.isSearching {
		cursor = SearchBarStyle.Render("█")
	}

	matches := 0
	for _, r := range m.rows {
		if !r.IsSectionHeader {
			matches++
		}
	}
	countStr := ""
	if m.searchQuery != "" {
		countStr = SearchCountStyle.Render(fmt.Sprintf(" %d matches", matches))
	}

	left := prefix + query + cursor
	padWidth := width - lipgloss.Width(left) - lipgloss.Width(countStr)
	if padWidth < 1 {
		padWidth = 1
	}
	return left + strings.Repeat(" ", padWidth) + countStr
}

func (m Model) renderTaskPanel(width, height int) string {
	var lines []string

	// Reserve last line for the file path
	listHeight := height - 1
	if listHeight < 1 {
		listHeight = 1
	}
	if m.prompt != promptNone {
		listHeight--
	}

	if len(m.rows) == 0 {
		lines = append(lines, FooterStyle.Render("No tasks yet. Press 'a' to add one."))
	}

	startIdx, endIdx := scrollWindow(m.taskCursor, len(m.rows), listHeight)
	for i := startIdx; i < endIdx; i++ {
		row := m.rows[i]
		if row.IsSectionHeader {
			lines = append(lines, renderSectionHeader(row.Name, RoleHeaderStyle, width))
			continue
		}
		selected := m.focusedPane == paneTasks && i == m.taskCursor
		lines = append(lines, m.renderTaskRow(row, selected, width))
	}

	for len(lines) < listHeight {
		lines = append(lines, "")
	}
	if m.prompt != promptNone {
		lines = append(lines, InputPromptStyle.Render("> ")+m.textInput.View())
	}

	path := ""
	if m.source != nil {
		path = m.source.Path()
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(ColorGrayDim).Render(fileHyperlink(path)))

	return strings.Join(lines, "\n")
}

func renderSectionHeader(name string, style lipgloss.Style, width int) string {
	label := style.Render("── " + name + " ")
	if remaining := width - lipgloss.Width(label); remaining > 0 {
		label += lipgloss.NewStyle().Foreground(ColorGrayDim).Render(strings.Repeat("─", remaining))
	}
	return label
}

func (m Model) renderTaskRow(row TaskRow, selected bool, width int) string {
	status := row.Task.Status()
	icon := statusStyle(status).Render(statusIcon(status))

	name := row.Name
	if m.searchQuery != "" {
		name = highlightMatch(name, m.searchQuery, SearchCharStyle)
	}

	hours := HoursStyle.Render(fmt.Sprintf("%s/%sh", formatHours(row.Scheduled), formatHours(row.Task.EstimatedHours)))

	left := DepthIndent + icon + " " + name
	gap := width - lipgloss.Width(left) - lipgloss.Width(hours)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + hours

	if selected {
		line = SelectedStyle.Render(line)
	}
	return line
}

func (m Model) renderAgendaPanel(width, height int) string {
	var lines []string

	if len(m.agenda) == 0 {
		lines = append(lines, FooterStyle.Render(" Nothing scheduled. Select a task and press 's'."))
	}

	startIdx, endIdx := scrollWindow(m.eventCursor, len(m.agenda), height)
	for i := startIdx; i < endIdx; i++ {
		row := m.agenda[i]
		if row.IsDayHeader {
			lines = append(lines, renderSectionHeader(row.Day.Format("Mon 02 Jan"), DayHeaderStyle, width))
			continue
		}
		selected := m.focusedPane == paneAgenda && i == m.eventCursor
		lines = append(lines, renderEventRow(row.Event, selected, width))
	}

	return strings.Join(lines, "\n")
}

func renderEventRow(ev plan.Event, selected bool, width int) string {
	span := fmt.Sprintf("%s–%s", ev.Start.Format("15:04"), ev.End.Format("15:04"))

	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(ev.Color))
	var line string
	if ev.IsFixed() {
		line = DepthIndent + FixedEventStyle.Render(span+" ") + swatch.Render(IconFixed) + " " + FixedEventStyle.Render(ev.Title+" (fixed)")
	} else {
		hours := HoursStyle.Render(formatHours(ev.Hours()) + "h")
		line = DepthIndent + span + " " + swatch.Render(IconBlock) + " " + ev.Title + "  " + hours
	}

	if w := lipgloss.Width(line); w < width {
		line += strings.Repeat(" ", width-w)
	}
	if selected {
		line = SelectedStyle.Render(line)
	}
	return line
}

func (m Model) renderNotesPanel(width, height int) string {
	doc := m.sess.Document()

	var md strings.Builder
	if doc.Insight != "" {
		md.WriteString("## Insight\n\n> " + strings.ReplaceAll(strings.TrimSpace(doc.Insight), "\n", "\n> ") + "\n\n")
	}
	if strings.TrimSpace(doc.Notes) != "" {
		md.WriteString(doc.Notes)
		if !strings.HasSuffix(doc.Notes, "\n") {
			md.WriteString("\n")
		}
	} else {
		md.WriteString("_No notes. Press 'e' to edit the week as text._\n")
	}

	rendered := md.String()
	if m.glamourRenderer != nil {
		if out, err := m.glamourRenderer.Render(rendered); err == nil {
			rendered = out
		}
	}
	rendered = strings.TrimRight(rendered, "\n ")
	lines := strings.Split(rendered, "\n")

	scroll := m.notesScroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	lines = lines[scroll:]
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter(width int) string {
	help := m.keys.ShortHelp()
	switch {
	case m.prompt != promptNone:
		help = "enter confirm  esc cancel"
	case m.isRawEditing:
		help = "esc apply & save  ctrl+c discard"
	case m.isSearching:
		help = "type to search  enter/↓ keep filter  esc clear"
	case m.searchQuery != "":
		help = "esc/enter clear filter  ↑↓ nav"
	case m.showNotes && m.focusedPane == paneAgenda:
		help = "↑↓ scroll notes  n agenda  tab tasks  e edit  ? help"
	case m.focusedPane == paneAgenda:
		help = "↑↓ nav  J/K ±30m  H/L ±day  +/- resize  d delete  tab tasks  ? help"
	}
	return FooterStyle.Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

func (m Model) renderDeleteModal() string {
	var b strings.Builder

	ev := m.deleteTarget
	b.WriteString(ModalTitleStyle.Render("Delete Block"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Delete '%s' on %s?\n\n", ev.Title, ev.Start.Format("Mon 15:04")))
	b.WriteString(lipgloss.NewStyle().Foreground(ColorGreen).Render("[y]") + " Yes  ")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorRed).Render("[n]") + " No")

	return ModalStyle.Render(b.String())
}

// highlightMatch styles the first case-insensitive occurrence of query in name.
func highlightMatch(name, query string, charStyle lipgloss.Style) string {
	idx := strings.Index(strings.ToLower(name), strings.ToLower(query))
	if idx < 0 || idx+len(query) > len(name) {
		return name
	}
	return name[:idx] + charStyle.Render(name[idx:idx+len(query)]) + name[idx+len(query):]
}

// fileHyperlink wraps a file path in an OSC 8 terminal hyperlink so it's clickable.
func fileHyperlink(path string) string {
	url := "file://" + path
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", url, path)
}

// Helper functions

func formatHours(h float64) string {
	if h == float64(int(h)) {
		return fmt.Sprintf("%d", int(h))
	}
	return fmt.Sprintf("%.1f", h)
}

// scrollWindow returns the [start, end) range of n rows that keeps cursor centered in height.
func scrollWindow(cursor, n, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > n {
		end = n
		start = end - height
	}
	return start, end
}

func truncate(s string, width int) string {
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > width {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx < len(lines) {
		line := lines[idx]
		lineWidth := lipgloss.Width(line)
		if lineWidth < width {
			return line + strings.Repeat(" ", width-lineWidth)
		}
		return line
	}
	return strings.Repeat(" ", width)
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	topPadding := (height - len(modalLines)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	leftPadding := (width - lipgloss.Width(modalLines[0])) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	var result strings.Builder
	for i := 0; i < topPadding; i++ {
		result.WriteString("\n")
	}

	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}

	return result.String()
}
