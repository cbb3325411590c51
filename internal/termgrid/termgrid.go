// Package termgrid draws the picker's visible months for a terminal.
package termgrid

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rangepick/internal/modifier"
	"rangepick/internal/visible"
)

const cellWidth = 4

// Styles colour the day cells. Markers around the day number carry the
// same information on terminals without colour.
type Styles struct {
	Title       lipgloss.Style
	Weekday     lipgloss.Style
	Day         lipgloss.Style
	Outside     lipgloss.Style
	Today       lipgloss.Style
	Blocked     lipgloss.Style
	Highlighted lipgloss.Style
	Selected    lipgloss.Style
	Span        lipgloss.Style
	Hovered     lipgloss.Style
	Prompt      lipgloss.Style
}

// DefaultStyles returns the built-in palette.
func DefaultStyles() Styles {
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Width(7 * cellWidth).Align(lipgloss.Center),
		Weekday:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Day:         lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Outside:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Today:       lipgloss.NewStyle().Underline(true),
		Blocked:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true),
		Highlighted: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Selected:    lipgloss.NewStyle().Background(lipgloss.Color("30")).Foreground(lipgloss.Color("15")).Bold(true),
		Span:        lipgloss.NewStyle().Background(lipgloss.Color("73")).Foreground(lipgloss.Color("0")),
		Hovered:     lipgloss.NewStyle().Background(lipgloss.Color("117")).Foreground(lipgloss.Color("0")),
		Prompt:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")),
	}
}

// Render draws every month of win side by side, followed by prompt when
// it is not empty.
func Render(win visible.Window, mods modifier.Map, prompt string, st Styles) string {
	grids := win.Grids()
	blocks := make([]string, 0, 2*len(grids))
	for i, g := range grids {
		if i > 0 {
			blocks = append(blocks, "  ")
		}
		blocks = append(blocks, renderMonth(win, g, mods, st))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
	if prompt != "" {
		out += "\n\n" + st.Prompt.Render(prompt)
	}
	return out
}

func renderMonth(win visible.Window, g visible.MonthGrid, mods modifier.Map, st Styles) string {
	lines := []string{st.Title.Render(g.Month.Format("January 2006"))}

	var head strings.Builder
	for _, wd := range win.Weekdays() {
		head.WriteString(st.Weekday.Render(fmt.Sprintf(" %s ", wd.String()[:2])))
	}
	lines = append(lines, head.String())

	for _, week := range g.Weeks {
		var row strings.Builder
		for _, d := range week {
			if d.IsZero() {
				row.WriteString(strings.Repeat(" ", cellWidth))
				continue
			}
			set, _ := mods.Get(d)
			outside := d.Month() != g.Month.Month()
			row.WriteString(styleFor(set, outside, st).Render(Cell(d.Day(), set)))
		}
		lines = append(lines, row.String())
	}
	return strings.Join(lines, "\n")
}

// Cell is the four-character text of one day: [dd] for a selected
// endpoint, =dd= inside the selected or hovered span, (dd) under the
// cursor, -dd- when unavailable and dd* for today.
func Cell(day int, set modifier.Set) string {
	n := fmt.Sprintf("%2d", day)
	switch {
	case set.Has(modifier.SelectedStart) || set.Has(modifier.SelectedEnd):
		return "[" + n + "]"
	case set.Has(modifier.Hovered):
		return "(" + n + ")"
	case set.Has(modifier.SelectedSpan) || set.Has(modifier.HoveredSpan):
		return "=" + n + "="
	case set.Has(modifier.Blocked):
		return "-" + n + "-"
	case set.Has(modifier.Today):
		return " " + n + "*"
	default:
		return " " + n + " "
	}
}

func styleFor(set modifier.Set, outside bool, st Styles) lipgloss.Style {
	switch {
	case set.Has(modifier.SelectedStart) || set.Has(modifier.SelectedEnd):
		return st.Selected
	case set.Has(modifier.Hovered):
		return st.Hovered
	case set.Has(modifier.SelectedSpan) || set.Has(modifier.HoveredSpan):
		return st.Span
	case set.Has(modifier.Blocked):
		return st.Blocked
	case set.Has(modifier.HighlightedCalendar):
		return st.Highlighted
	case set.Has(modifier.Today):
		return st.Today
	case outside:
		return st.Outside
	default:
		return st.Day
	}
}

// Legend explains the cell markers.
func Legend() string {
	return "[dd] selected  =dd= in range  (dd) hovered  -dd- unavailable  dd* today"
}
