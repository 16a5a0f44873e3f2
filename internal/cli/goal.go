package cli

import (
	"flag"
	"fmt"
	"time"

	"pm/internal/models"
)

func (a *App) cmdGoal(args []string) error {
	if len(args) == 0 {
		return a.goalList(nil)
	}
	switch args[0] {
	case "add":
		return a.goalAdd(args[1:])
	case "list":
		return a.goalList(args[1:])
	case "show":
		return a.goalShow(args[1:])
	case "update":
		return a.goalUpdate(args[1:])
	default:
		return fmt.Errorf("unknown goal subcommand: %s", args[0])
	}
}

func (a *App) goalAdd(args []string) error {
	fs := flag.NewFlagSet("goal add", flag.ContinueOnError)
	project := fs.String("project", "", "project name or id")
	title := fs.String("title", "", "goal title")
	desc := fs.String("desc", "", "description")
	category := fs.String("category", "feature", "category: feature, bugfix, refactor, docs, ops")
	priority := fs.Int("priority", a.Config.DefaultPriority, "priority 0-100")
	target := fs.String("target", "", "target date YYYY-MM-DD")
	parent := fs.Int64("parent", 0, "parent goal id")
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

	g := &models.Goal{
		ProjectID:   p.ID,
		Title:       *title,
		Description: *desc,
		Category:    *category,
		Priority:    *priority,
	}
	if *target != "" {
		t, err := models.ParseDate(*target)
		if err != nil {
			return err
		}
		g.TargetDate = &t
	}
	if *parent > 0 {
		g.ParentGoalID = parent
	}

	g, err = a.DB.CreateGoal(g)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Added goal #%d: %s\n", g.ID, g.Title)
	return nil
}

func (a *App) goalList(args []string) error {
	fs := flag.NewFlagSet("goal list", flag.ContinueOnError)
	project := fs.String("project", "", "project name or id")
	status := fs.String("status", "active", "filter by status (empty for all)")
	priorityMin := fs.Int("priority-min", 0, "minimum priority")
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

	goals, err := a.DB.ListGoals(projectID, *status, *priorityMin)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		fmt.Fprintln(a.Out, "No goals.")
		return nil
	}

	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		parent := "-"
		if g.ParentGoalID != nil {
			parent = fmt.Sprintf("#%d", *g.ParentGoalID)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", g.ID),
			truncate(g.Title, 40),
			g.Category,
			sty.ForStatus(g.Status).Render(g.Status),
			fmt.Sprintf("%d", g.Priority),
			fmtDate(g.TargetDate),
			parent,
		})
	}
	fmt.Fprint(a.Out, table([]string{"ID", "TITLE", "CATEGORY", "STATUS", "PRI", "TARGET", "PARENT"}, rows))
	return nil
}

func (a *App) goalShow(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pm goal show <id>")
	}
	id, err := parseID(args[0], "goal")
	if err != nil {
		return err
	}
	g, err := a.DB.GetGoal(id)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out, sty.Title.Render(g.Title))
	if g.Description != "" {
		fmt.Fprintln(a.Out, g.Description)
	}
	fmt.Fprintf(a.Out, "Category: %s\n", g.Category)
	fmt.Fprintf(a.Out, "Status:   %s\n", sty.ForStatus(g.Status).Render(g.Status))
	fmt.Fprintf(a.Out, "Priority: %d\n", g.Priority)
	fmt.Fprintf(a.Out, "Target:   %s\n", fmtDate(g.TargetDate))

	bd, err := a.Metrics.GoalBurnDown(g)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Progress: %d/%d todos (%.1f%%)\n", bd.CompletedTodos, bd.TotalTodos, bd.Progress)
	if bd.OnTrack != nil {
		if *bd.OnTrack {
			fmt.Fprintln(a.Out, sty.HealthGood.Render("On track"))
		} else {
			fmt.Fprintln(a.Out, sty.HealthBad.Render("Behind schedule"))
		}
	}
	return nil
}

func (a *App) goalUpdate(args []string) error {
	fs := flag.NewFlagSet("goal update", flag.ContinueOnError)
	status := fs.String("status", "", "new status")
	priority := fs.Int("priority", -1, "new priority 0-100")
	target := fs.String("target", "", "new target date YYYY-MM-DD")
	parent := fs.Int64("parent", -1, "new parent goal id (0 clears)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: pm goal update <id> [flags]")
	}
	id, err := parseID(fs.Arg(0), "goal")
	if err != nil {
		return err
	}

	var statusPtr *string
	var priorityPtr *int
	var targetPtr *time.Time
	if *status != "" {
		statusPtr = status
	}
	if *priority >= 0 {
		priorityPtr = priority
	}
	if *target != "" {
		t, err := models.ParseDate(*target)
		if err != nil {
			return err
		}
		targetPtr = &t
	}

	if statusPtr != nil || priorityPtr != nil || targetPtr != nil {
		if err := a.DB.UpdateGoal(id, statusPtr, priorityPtr, targetPtr); err != nil {
			return err
		}
	}

	if *parent >= 0 {
		var parentPtr *int64
		if *parent > 0 {
			parentPtr = parent
		}
		if err := a.DB.SetGoalParent(id, parentPtr); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.Out, "Updated goal #%d\n", id)
	return nil
}
