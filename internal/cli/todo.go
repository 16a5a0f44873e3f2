package cli

import (
	"flag"
	"fmt"
	"strings"

	"pm/internal/db"
	"pm/internal/models"
)

func (a *App) cmdTodo(args []string) error {
	if len(args) == 0 {
		return a.todoList(nil)
	}
	switch args[0] {
	case "add":
		return a.todoAdd(args[1:])
	case "list":
		return a.todoList(args[1:])
	case "show":
		return a.todoShow(args[1:])
	case "start":
		return a.todoTransition(args[1:], "start")
	case "complete":
		return a.todoTransition(args[1:], "complete")
	case "cancel":
		return a.todoTransition(args[1:], "cancel")
	case "reopen":
		return a.todoTransition(args[1:], "reopen")
	case "block":
		return a.todoBlock(args[1:])
	case "tag":
		return a.todoTag(args[1:])
	default:
		return fmt.Errorf("unknown todo subcommand: %s", args[0])
	}
}

func (a *App) todoAdd(args []string) error {
	fs := flag.NewFlagSet("todo add", flag.ContinueOnError)
	project := fs.String("project", "", "project name or id")
	title := fs.String("title", "", "todo title")
	desc := fs.String("desc", "", "description")
	goal := fs.Int64("goal", 0, "goal id")
	effort := fs.String("effort", "", "effort estimate: S, M, L, XL")
	due := fs.String("due", "", "due date YYYY-MM-DD")
	tags := fs.String("tags", "", "comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("--title is required")
	}
	p, err := a.resolveProject(*project)
	if err != nil {
		return err
	}

	t := &models.Todo{
		ProjectID:      p.ID,
		Title:          *title,
		Description:    *desc,
		EffortEstimate: *effort,
	}
	if *goal > 0 {
		t.GoalID = goal
	}
	if *due != "" {
		d, err := models.ParseDate(*due)
		if err != nil {
			return err
		}
		t.DueDate = &d
	}
	if *tags != "" {
		for _, tag := range strings.Split(*tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				t.Tags = append(t.Tags, tag)
			}
		}
	}

	t, err = a.DB.CreateTodo(t)
	if err != nil {
		return err
	}

	score := a.Priority.Score(t)
	if err := a.DB.UpdateTodoScore(t.ID, score); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Added todo #%d: %s (score %.1f)\n", t.ID, t.Title, score)
	return nil
}

func (a *App) todoList(args []string) error {
	fs := flag.NewFlagSet("todo list", flag.ContinueOnError)
	project := fs.String("project", "", "project name or id")
	goal := fs.Int64("goal", 0, "filter by goal id")
	status := fs.String("status", "", "filter by status")
	blocked := fs.Bool("blocked", false, "only blocked todos")
	all := fs.Bool("all", false, "include completed and cancelled")
	limit := fs.Int("limit", 0, "maximum rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := db.TodoFilter{Status: *status, BlockedOnly: *blocked, Limit: *limit}
	if *project != "" {
		p, err := a.resolveProject(*project)
		if err != nil {
			return err
		}
		f.ProjectID = &p.ID
	}
	if *goal > 0 {
		f.GoalID = goal
	}
	if *status == "" && !*all && !a.Config.ShowCompleted {
		f.Statuses = db.RecalcStatuses
	}

	todos, err := a.DB.ListTodos(f)
	if err != nil {
		return err
	}
	if len(todos) == 0 {
		fmt.Fprintln(a.Out, "No todos.")
		return nil
	}

	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		due := fmtDate(t.DueDate)
		if t.DueDate != nil && t.DueDate.Before(models.DateOnly(timeNow())) && t.Status != "completed" {
			due = sty.Overdue.Render(due)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.ID),
			truncate(t.Title, 45),
			sty.ForStatus(t.Status).Render(t.Status),
			sty.Score.Render(fmt.Sprintf("%.1f", t.PriorityScore)),
			orDash(t.EffortEstimate),
			due,
		})
	}
	fmt.Fprint(a.Out, table([]string{"ID", "TITLE", "STATUS", "SCORE", "EFFORT", "DUE"}, rows))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (a *App) todoShow(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pm todo show <id>")
	}
	id, err := parseID(args[0], "todo")
	if err != nil {
		return err
	}
	t, err := a.DB.GetTodo(id)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out, sty.Title.Render(t.Title))
	if t.Description != "" {
		fmt.Fprintln(a.Out, t.Description)
	}
	fmt.Fprintf(a.Out, "Status:  %s\n", sty.ForStatus(t.Status).Render(t.Status))
	fmt.Fprintf(a.Out, "Score:   %s\n", sty.Score.Render(fmt.Sprintf("%.1f", t.PriorityScore)))
	fmt.Fprintf(a.Out, "Effort:  %s\n", orDash(t.EffortEstimate))
	fmt.Fprintf(a.Out, "Due:     %s\n", fmtDate(t.DueDate))
	if t.GoalID != nil {
		if g, err := a.DB.GetGoal(*t.GoalID); err == nil {
			fmt.Fprintf(a.Out, "Goal:    #%d %s\n", g.ID, g.Title)
		}
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(a.Out, "Tags:    %s\n", strings.Join(t.Tags, ", "))
	}
	if len(t.BlockedBy) > 0 {
		blockers := make([]string, len(t.BlockedBy))
		for i, b := range t.BlockedBy {
			blockers[i] = fmt.Sprintf("#%d", b)
		}
		fmt.Fprintf(a.Out, "Blocked: %s\n", strings.Join(blockers, ", "))
	}
	if t.StartedAt != nil {
		fmt.Fprintf(a.Out, "Started: %s\n", t.StartedAt.Format(dateFormat))
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(a.Out, "Done:    %s\n", t.CompletedAt.Format(dateFormat))
	}
	return nil
}

func (a *App) todoTransition(args []string, action string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pm todo %s <id>", action)
	}
	id, err := parseID(args[0], "todo")
	if err != nil {
		return err
	}

	switch action {
	case "start":
		err = a.DB.StartTodo(id)
	case "complete":
		err = a.DB.CompleteTodo(id)
	case "cancel":
		err = a.DB.SetTodoStatus(id, "cancelled")
	case "reopen":
		err = a.DB.SetTodoStatus(id, "open")
	}
	if err != nil {
		return err
	}

	t, err := a.DB.GetTodo(id)
	if err != nil {
		return err
	}
	if t.Status == "open" || t.Status == "in_progress" {
		score := a.Priority.Score(t)
		if err := a.DB.UpdateTodoScore(t.ID, score); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.Out, "Todo #%d is now %s\n", id, sty.ForStatus(t.Status).Render(t.Status))
	return nil
}

func (a *App) todoBlock(args []string) error {
	fs := flag.NewFlagSet("todo block", flag.ContinueOnError)
	on := fs.Int64("on", 0, "blocking todo id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 || *on == 0 {
		return fmt.Errorf("usage: pm todo block <id> --on <blocker-id>")
	}
	id, err := parseID(fs.Arg(0), "todo")
	if err != nil {
		return err
	}

	if err := a.DB.BlockTodo(id, *on); err != nil {
		return err
	}

	t, err := a.DB.GetTodo(id)
	if err != nil {
		return err
	}
	if err := a.DB.UpdateTodoScore(id, a.Priority.Score(t)); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Todo #%d is blocked by #%d\n", id, *on)
	return nil
}

func (a *App) todoTag(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: pm todo tag <id> <tag>")
	}
	id, err := parseID(args[0], "todo")
	if err != nil {
		return err
	}
	if err := a.DB.AddTodoTag(id, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Tagged todo #%d with %q\n", id, args[1])
	return nil
}

func (a *App) cmdPrioritize(args []string) error {
	fs := flag.NewFlagSet("prioritize", flag.ContinueOnError)
	project := fs.String("project", "", "limit to one project")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var projectID *int64
	if *project != "" {
		p, err := a.resolveProject(*project)
		if err != nil {
			return err
		}
		projectID = &p.ID
	}

	changed, err := a.Priority.RecalculateAll(projectID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Recalculated priorities: %d todos changed\n", changed)
	return nil
}
