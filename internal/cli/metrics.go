package cli

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"pm/internal/db"
	"pm/internal/metrics"
	"pm/internal/models"
)

func (a *App) cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	project := fs.String("project", "", "project name or id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *project == "" && fs.NArg() > 0 {
		*project = fs.Arg(0)
	}
	if *project == "" {
		return a.statusAll()
	}

	p, err := a.resolveProject(*project)
	if err != nil {
		return err
	}
	return a.statusProject(p)
}

func (a *App) statusAll() error {
	projects, err := a.DB.ListProjects("active", "priority")
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(a.Out, "No active projects.")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		score, label, err := a.Metrics.HealthScore(p.ID)
		if err != nil {
			return err
		}
		velocity, err := a.Metrics.Velocity(p.ID, 7)
		if err != nil {
			return err
		}
		open, err := a.DB.CountTodosByStatus(p.ID)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%.1f", score),
			sty.ForHealth(label).Render(label),
			fmt.Sprintf("%.2f/day", velocity),
			fmt.Sprintf("%d", open["open"]+open["in_progress"]),
			fmt.Sprintf("%d", open["blocked"]),
		})
	}
	fmt.Fprint(a.Out, table([]string{"PROJECT", "HEALTH", "", "VELOCITY", "OPEN", "BLOCKED"}, rows))

	if raw, err := a.DB.GetSetting(db.SettingLastReview); err == nil && raw != "" {
		if at, perr := time.Parse(time.RFC3339, raw); perr == nil {
			fmt.Fprintf(a.Out, "Last review: %s ago\n", fmtAge(at))
		}
	}
	return nil
}

func (a *App) statusProject(p *models.Project) error {
	score, label, err := a.Metrics.HealthScore(p.ID)
	if err != nil {
		return err
	}
	velocity, err := a.Metrics.Velocity(p.ID, 7)
	if err != nil {
		return err
	}
	rate, err := a.Metrics.CompletionRate(p.ID)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out, sty.Title.Render(p.Name))
	fmt.Fprintf(a.Out, "Health:     %.1f %s\n", score, sty.ForHealth(label).Render(label))
	fmt.Fprintf(a.Out, "Velocity:   %.2f todos/day (7d)\n", velocity)
	fmt.Fprintf(a.Out, "Completion: %.1f%%\n", rate)

	todoCounts, err := a.Metrics.TodoBreakdown(p.ID)
	if err != nil {
		return err
	}
	goalCounts, err := a.Metrics.GoalBreakdown(p.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Todos:      %s\n", fmtBreakdown(todoCounts, models.TodoStatuses))
	fmt.Fprintf(a.Out, "Goals:      %s\n", fmtBreakdown(goalCounts, models.GoalStatuses))

	overdue, err := a.Metrics.OverdueTodos(p.ID)
	if err != nil {
		return err
	}
	if len(overdue) > 0 {
		fmt.Fprintln(a.Out)
		fmt.Fprintln(a.Out, sty.Overdue.Render("Overdue"))
		for _, t := range overdue {
			fmt.Fprintf(a.Out, "  #%d %s (due %s)\n", t.ID, t.Title, fmtDate(t.DueDate))
		}
	}

	upcoming, err := a.Metrics.UpcomingDeadlines(p.ID, 7)
	if err != nil {
		return err
	}
	if len(upcoming) > 0 {
		fmt.Fprintln(a.Out)
		fmt.Fprintln(a.Out, sty.Header.Render("Due this week"))
		for _, t := range upcoming {
			fmt.Fprintf(a.Out, "  #%d %s (due %s)\n", t.ID, t.Title, fmtDate(t.DueDate))
		}
	}
	return nil
}

func fmtBreakdown(counts map[string]int, order []string) string {
	parts := make([]string, 0, len(order))
	for _, s := range order {
		parts = append(parts, fmt.Sprintf("%s %d", s, counts[s]))
	}
	return strings.Join(parts, ", ")
}

func (a *App) cmdTrend(args []string) error {
	fs := flag.NewFlagSet("trend", flag.ContinueOnError)
	project := fs.String("project", "", "project name or id")
	weeks := fs.Int("weeks", 4, "number of weeks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.resolveProject(*project)
	if err != nil {
		return err
	}

	trend, err := a.Metrics.VelocityTrend(p.ID, *weeks)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out, sty.Title.Render(fmt.Sprintf("%s velocity, last %d weeks", p.Name, *weeks)))
	for _, w := range trend {
		bar := strings.Repeat("█", w.TodosCompleted)
		fmt.Fprintf(a.Out, "%s  %5.2f/day  %s %d\n",
			w.WeekStart.Format(dateFormat), w.Velocity, sty.Score.Render(bar), w.TodosCompleted)
	}
	return nil
}

func (a *App) cmdBurndown(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pm burndown <goal-id>")
	}
	id, err := parseID(args[0], "goal")
	if err != nil {
		return err
	}
	g, err := a.DB.GetGoal(id)
	if err != nil {
		return err
	}

	bd, err := a.Metrics.GoalBurnDown(g)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out, sty.Title.Render(g.Title))
	fmt.Fprintf(a.Out, "Todos:     %d completed / %d total (%.1f%%)\n", bd.CompletedTodos, bd.TotalTodos, bd.Progress)
	fmt.Fprintf(a.Out, "Remaining: %d\n", bd.RemainingTodos)
	if bd.DaysRemaining != nil {
		fmt.Fprintf(a.Out, "Target:    %s (%d days left)\n", fmtDate(g.TargetDate), *bd.DaysRemaining)
	}
	if bd.EstimatedCompletion != nil {
		fmt.Fprintf(a.Out, "Estimate:  done by %s at current pace\n", bd.EstimatedCompletion.Format(dateFormat))
	}
	if bd.OnTrack != nil {
		if *bd.OnTrack {
			fmt.Fprintln(a.Out, sty.HealthGood.Render("On track"))
		} else {
			fmt.Fprintln(a.Out, sty.HealthBad.Render("Behind schedule"))
		}
	}
	return nil
}

func (a *App) cmdSnapshot(args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	project := fs.String("project", "", "limit to one project")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var projects []models.Project
	if *project != "" {
		p, err := a.resolveProject(*project)
		if err != nil {
			return err
		}
		projects = []models.Project{*p}
	} else {
		var err error
		projects, err = a.DB.ListProjects("active", "name")
		if err != nil {
			return err
		}
	}

	taken := 0
	for i := range projects {
		recorded, err := a.Metrics.DailySnapshot(projects[i].ID)
		if err != nil {
			return fmt.Errorf("snapshot for %s: %w", projects[i].Name, err)
		}
		if !recorded {
			a.Log.Debug("snapshot already recorded", "project", projects[i].Name)
			continue
		}
		taken++
	}
	fmt.Fprintf(a.Out, "Recorded snapshots for %d of %d projects\n", taken, len(projects))
	return nil
}

func (a *App) cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	project := fs.String("project", "", "project name or id")
	metricType := fs.String("type", metrics.MetricHealthScore, "metric type")
	days := fs.Int("days", 30, "window in days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.resolveProject(*project)
	if err != nil {
		return err
	}

	history, err := a.Metrics.MetricHistory(p.ID, *metricType, *days)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintln(a.Out, "No recorded metrics. Run 'pm snapshot' to start tracking.")
		return nil
	}

	fmt.Fprintln(a.Out, sty.Title.Render(fmt.Sprintf("%s %s, last %d days", p.Name, *metricType, *days)))
	for _, m := range history {
		fmt.Fprintf(a.Out, "%s  %8.1f\n", m.RecordedAt.Format(dateFormat), m.Value)
	}
	return nil
}
