package views

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type TaskRowData struct {
	ID        string
	Title     string
	Icon      string
	Category  string
	Color     string
	Frequency string
	Completed bool
	Streak    int
	Reminder  string
}

type TaskListData struct {
	Rows   []TaskRowData
	Cursor int
}

type SummaryData struct {
	Total     int
	Completed int
	Pending   int
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
	Markdown string
}

// categoryPalette holds ANSI colors for category badges. A category keeps
// the same color across runs.
var categoryPalette = []string{"4", "5", "6", "13", "14", "3", "2", "12"}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	cursorStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func RenderTaskList(data TaskListData) string {
	var b strings.Builder
	b.WriteString("habits:\n")
	if len(data.Rows) == 0 {
		b.WriteString("  (no tasks yet, press / and type: add <title>)")
		return b.String()
	}
	for i, row := range data.Rows {
		b.WriteString(renderTaskRow(i, row, i == data.Cursor))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderTaskRow(i int, row TaskRowData, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	mark := pendingStyle.Render("[ ]")
	if row.Completed {
		mark = doneStyle.Render("[x]")
	}
	title := row.Title
	if row.Icon != "" {
		title = row.Icon + " " + title
	}
	if selected {
		title = cursorStyle.Render(title)
	}

	parts := []string{fmt.Sprintf("%s %2d %s %s", cursor, i+1, mark, title)}
	if row.Category != "" {
		parts = append(parts, CategoryStyle(row.Category, row.Color).Render("#"+row.Category))
	}
	meta := row.Frequency
	if row.Streak > 0 {
		meta += fmt.Sprintf(" streak:%d", row.Streak)
	}
	if row.Reminder != "" {
		meta += " @" + row.Reminder
	}
	parts = append(parts, mutedStyle.Render(meta))
	return strings.Join(parts, " ")
}

// CategoryStyle colors a category badge. An explicit task color wins over
// the palette.
func CategoryStyle(category, color string) lipgloss.Style {
	if strings.TrimSpace(color) != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(category)))
	return lipgloss.NewStyle().Foreground(lipgloss.Color(categoryPalette[h.Sum32()%uint32(len(categoryPalette))]))
}

func RenderSummary(data SummaryData) string {
	return fmt.Sprintf("%d/%d done, %d pending", data.Completed, data.Total, data.Pending)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString("help:\n")
	b.WriteString(strings.Join(data.Bindings, "\n"))
	if data.HelpView != "" {
		b.WriteString("\n" + data.HelpView)
	}
	if data.Markdown != "" {
		b.WriteString("\n\n" + data.Markdown)
	}
	return b.String()
}
