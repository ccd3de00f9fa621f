package views

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// AppData is one frame of the habit screen. Side holds the palette and help
// panel and is omitted when empty.
type AppData struct {
	Today        time.Time
	Summary      SummaryData
	List         string
	Side         string
	Status       string
	StatusError  bool
	Busy         string
	Notification string
	KeyHints     []string
}

const (
	listWidth     = 62
	sideWidth     = 54
	progressWidth = 12
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dateStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func RenderApp(data AppData) string {
	header := strings.Join([]string{
		titleStyle.Render("habitd"),
		dateStyle.Render(data.Today.Format("Mon 2006-01-02")),
		progressStyle.Render(RenderProgress(data.Summary, progressWidth)),
		RenderSummary(data.Summary),
	}, " | ")

	body := panelStyle.Width(listWidth).Render(data.List)
	if strings.TrimSpace(data.Side) != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panelStyle.Width(sideWidth).Render(data.Side))
	}

	lines := []string{header, body}
	if status := renderStatus(data); status != "" {
		lines = append(lines, status)
	}
	if data.Notification != "" {
		lines = append(lines, panelStyle.Render(data.Notification))
	}
	if len(data.KeyHints) > 0 {
		lines = append(lines, footerStyle.Render("keys: "+strings.Join(data.KeyHints, " | ")))
	}
	return strings.Join(lines, "\n")
}

// RenderProgress draws the share of habits done this period as a fixed-width
// bar, e.g. [######------].
func RenderProgress(data SummaryData, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if data.Total > 0 {
		filled = data.Completed * width / data.Total
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func renderStatus(data AppData) string {
	text := strings.TrimSpace(data.Status)
	if data.Busy != "" {
		text = strings.TrimSpace(text + " " + data.Busy)
	}
	if text == "" {
		return ""
	}
	if data.StatusError {
		return errorStyle.Render("status: error: " + text)
	}
	return statusStyle.Render("status: " + text)
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
