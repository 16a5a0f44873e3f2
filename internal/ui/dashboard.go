// Package ui implements the interactive review dashboard.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"pm/internal/config"
	"pm/internal/db"
	"pm/internal/gitscan"
	"pm/internal/metrics"
	"pm/internal/models"
	"pm/internal/priority"
	"pm/internal/ui/styles"
)

type todoItem struct {
	todo    models.Todo
	project string
}

func (i todoItem) Title() string       { return i.todo.Title }
func (i todoItem) Description() string { return i.project }
func (i todoItem) FilterValue() string { return i.todo.Title }

type todoDelegate struct {
	styles *styles.Styles
	width  int
}

func (d todoDelegate) Height() int                               { return 2 }
func (d todoDelegate) Spacing() int                              { return 1 }
func (d todoDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d todoDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	t := it.todo
	header := fmt.Sprintf("%5.1f  %s", t.PriorityScore, t.Title)
	detail := fmt.Sprintf("%s · %s", it.project, t.Status)
	if t.EffortEstimate != "" {
		detail += " · " + t.EffortEstimate
	}
	if t.DueDate != nil {
		detail += " · due " + t.DueDate.Format("2006-01-02")
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(header), descStyle.Render(detail))
}

// Dashboard is the bubbletea model for the review session
type Dashboard struct {
	db       *db.DB
	cfg      *config.Config
	priority *priority.Calculator
	metrics  *metrics.Calculator
	scanner  *gitscan.Scanner

	list     list.Model
	delegate *todoDelegate
	styles   *styles.Styles
	keys     KeyMap

	width    int
	height   int
	loaded   bool
	syncing  bool
	status   string
	health   string
	showHelp bool
}

func NewDashboard(database *db.DB, cfg *config.Config, logger *log.Logger) *Dashboard {
	s := styles.NewStyles()
	delegate := &todoDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Review"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = s.Title

	return &Dashboard{
		db:       database,
		cfg:      cfg,
		priority: priority.New(database, cfg),
		metrics:  metrics.New(database),
		scanner:  gitscan.New(database, logger),
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     DefaultKeyMap(),
	}
}

func (d *Dashboard) Init() tea.Cmd {
	if d.cfg.AutoSyncOnReview {
		d.syncing = true
		return tea.Batch(d.syncRepos, d.loadTodos)
	}
	return d.loadTodos
}

type todosLoadedMsg struct {
	items  []list.Item
	health string
}

type syncedMsg struct {
	projects int
	err      error
}

type actionDoneMsg struct {
	err error
}

func (d *Dashboard) loadTodos() tea.Msg {
	if _, err := d.priority.RecalculateAll(nil); err != nil {
		return err
	}

	limit := d.cfg.TodoPickerLimit
	if limit <= 0 {
		limit = config.DefaultTodoPickerLimit
	}
	todos, err := d.db.ListTodos(db.TodoFilter{Statuses: db.RecalcStatuses, Limit: limit})
	if err != nil {
		return err
	}

	names := map[int64]string{}
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		name, ok := names[t.ProjectID]
		if !ok {
			if p, err := d.db.GetProject(t.ProjectID); err == nil {
				name = p.Name
			}
			names[t.ProjectID] = name
		}
		items = append(items, todoItem{todo: t, project: name})
	}
	return todosLoadedMsg{items: items, health: d.healthSummary()}
}

// healthSummary renders a one-line health overview of the active projects
func (d *Dashboard) healthSummary() string {
	projects, err := d.db.ListProjects("active", "priority")
	if err != nil || len(projects) == 0 {
		return ""
	}

	total := 0.0
	worst := ""
	worstScore := 101.0
	for i := range projects {
		score, _, err := d.metrics.HealthScore(projects[i].ID)
		if err != nil {
			return ""
		}
		total += score
		if score < worstScore {
			worstScore = score
			worst = projects[i].Name
		}
	}
	avg := total / float64(len(projects))

	summary := fmt.Sprintf("%d projects · avg health %.1f", len(projects), avg)
	if len(projects) > 1 {
		summary += fmt.Sprintf(" · lowest %s (%.1f)", worst, worstScore)
	}
	return summary
}

func (d *Dashboard) syncRepos() tea.Msg {
	results, err := d.scanner.SyncAll(0)
	return syncedMsg{projects: len(results), err: err}
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		d.delegate.width = contentWidth
		d.list.SetSize(contentWidth-4, msg.Height-6)
		return d, nil

	case todosLoadedMsg:
		d.list.SetItems(msg.items)
		d.health = msg.health
		d.loaded = true
		return d, nil

	case syncedMsg:
		d.syncing = false
		if msg.err != nil {
			d.status = "sync failed: " + msg.err.Error()
			return d, nil
		}
		d.status = fmt.Sprintf("synced %d repos", msg.projects)
		return d, d.loadTodos

	case actionDoneMsg:
		if msg.err != nil {
			d.status = msg.err.Error()
			return d, nil
		}
		return d, d.loadTodos

	case error:
		d.status = msg.Error()
		d.loaded = true
		return d, nil

	case tea.KeyMsg:
		if d.showHelp {
			d.showHelp = false
			return d, nil
		}

		switch {
		case key.Matches(msg, d.keys.Quit):
			return d, tea.Quit

		case key.Matches(msg, d.keys.Help):
			d.showHelp = true
			return d, nil

		case key.Matches(msg, d.keys.Start):
			if it, ok := d.list.SelectedItem().(todoItem); ok {
				return d, d.transition(it.todo.ID, "in_progress")
			}

		case key.Matches(msg, d.keys.Complete):
			if it, ok := d.list.SelectedItem().(todoItem); ok {
				return d, d.transition(it.todo.ID, "completed")
			}

		case key.Matches(msg, d.keys.Skip):
			d.list.CursorDown()
			return d, nil

		case key.Matches(msg, d.keys.Refresh):
			d.status = "rescoring"
			return d, d.loadTodos

		case key.Matches(msg, d.keys.Sync):
			if !d.syncing {
				d.syncing = true
				d.status = "syncing"
				return d, d.syncRepos
			}
			return d, nil
		}
	}

	var cmd tea.Cmd
	d.list, cmd = d.list.Update(msg)
	return d, cmd
}

func (d *Dashboard) transition(id int64, status string) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch status {
		case "in_progress":
			err = d.db.StartTodo(id)
		case "completed":
			err = d.db.CompleteTodo(id)
		default:
			err = d.db.SetTodoStatus(id, status)
		}
		return actionDoneMsg{err: err}
	}
}

func (d *Dashboard) View() string {
	if d.showHelp {
		return d.renderHelp()
	}
	if !d.loaded {
		return d.styles.TitleMuted.Render("Loading...")
	}

	var header string
	if d.health != "" {
		header = d.styles.TitleMuted.Render(d.health)
	}
	var footer string
	if d.status != "" {
		footer = d.styles.StatusBar.Render(d.status)
	}
	help := d.styles.Help.Render(
		d.styles.HelpKey.Render("s") + d.styles.HelpDesc.Render(" start  ") +
			d.styles.HelpKey.Render("c") + d.styles.HelpDesc.Render(" complete  ") +
			d.styles.HelpKey.Render("x") + d.styles.HelpDesc.Render(" skip  ") +
			d.styles.HelpKey.Render("r") + d.styles.HelpDesc.Render(" rescore  ") +
			d.styles.HelpKey.Render("g") + d.styles.HelpDesc.Render(" sync  ") +
			d.styles.HelpKey.Render("?") + d.styles.HelpDesc.Render(" help  ") +
			d.styles.HelpKey.Render("q") + d.styles.HelpDesc.Render(" quit"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, d.list.View(), footer, help)
}

func (d *Dashboard) renderHelp() string {
	rows := [][2]string{
		{"↑/k ↓/j", "move"},
		{"s", "start the selected todo"},
		{"c", "complete the selected todo"},
		{"x", "skip to the next todo"},
		{"r", "recalculate priority scores"},
		{"g", "sync git repositories"},
		{"q", "quit"},
	}
	out := d.styles.Title.Render("Keys") + "\n\n"
	for _, r := range rows {
		out += fmt.Sprintf("  %s  %s\n",
			d.styles.HelpKey.Render(pad(r[0], 8)), d.styles.HelpDesc.Render(r[1]))
	}
	out += "\n" + d.styles.TitleMuted.Render("press any key to close")
	return out
}

func pad(s string, w int) string {
	for len(s) < w {
		s += " "
	}
	return s
}

// Run starts the review dashboard and blocks until it exits. The session
// end is stamped in settings so `pm status` can report the last review.
func Run(database *db.DB, cfg *config.Config, logger *log.Logger) error {
	p := tea.NewProgram(NewDashboard(database, cfg, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return markReviewed(database, time.Now().UTC())
}

func markReviewed(database *db.DB, at time.Time) error {
	return database.SetSetting(db.SettingLastReview, at.Format(time.RFC3339))
}
