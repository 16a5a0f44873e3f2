package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pm/internal/db"
	"pm/internal/models"
	"pm/internal/ui/styles"
)

var sty = styles.NewStyles()

var timeNow = time.Now

const dateFormat = "2006-01-02"

func fmtDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateFormat)
}

func fmtAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// table renders rows with padded columns. The header row is styled. Cells
// may arrive pre-styled, so widths are measured on the visible text.
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(sty.Header.Render(pad(h, widths[i])))
		if i < len(header)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, w int) string {
	n := w - lipgloss.Width(s)
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}

// resolveProject looks a project up by numeric ID or by name.
func (a *App) resolveProject(ref string) (*models.Project, error) {
	if ref == "" {
		return nil, fmt.Errorf("project is required (use --project)")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		p, err := a.DB.GetProject(id)
		if err == nil {
			return p, nil
		}
		if err != db.ErrNotFound {
			return nil, err
		}
	}
	p, err := a.DB.GetProjectByName(ref)
	if err == db.ErrNotFound {
		return nil, fmt.Errorf("project not found: %s", ref)
	}
	return p, err
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", what, arg)
	}
	return id, nil
}
