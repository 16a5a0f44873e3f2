package cli

import (
	"flag"
	"fmt"
	"strings"

	"pm/internal/models"
	"pm/internal/workspace"
)

func (a *App) cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	root := fs.String("workspace", a.Config.WorkspacePath, "workspace directory to scan")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *root == "" {
		return fmt.Errorf("no workspace path configured (set workspace_path in config or pass --workspace)")
	}

	result, err := workspace.Scan(a.DB, *root, a.Log)
	if err != nil {
		return err
	}

	total, err := a.DB.ProjectCount()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Scanned %s: %d projects found, %d added, %d goals seeded (%d tracked)\n",
		*root, result.ProjectsSeen, result.ProjectsAdded, result.GoalsSeeded, total)
	return nil
}

func (a *App) cmdProject(args []string) error {
	if len(args) == 0 {
		return a.projectList(nil)
	}
	switch args[0] {
	case "list":
		return a.projectList(args[1:])
	case "add":
		return a.projectAdd(args[1:])
	case "show":
		return a.projectShow(args[1:])
	case "update":
		return a.projectUpdate(args[1:])
	case "remove":
		return a.projectRemove(args[1:])
	default:
		return fmt.Errorf("unknown project subcommand: %s", args[0])
	}
}

func (a *App) projectList(args []string) error {
	fs := flag.NewFlagSet("project list", flag.ContinueOnError)
	status := fs.String("status", "", "filter by status")
	sort := fs.String("sort", "priority", "sort order: priority, activity, name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	projects, err := a.DB.ListProjects(*status, *sort)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(a.Out, "No projects. Run 'pm init' to scan your workspace.")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		git := ""
		if p.HasGit {
			git = "git"
		}
		activity := "-"
		if p.LastActivityAt != nil {
			activity = fmtAge(*p.LastActivityAt)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", p.ID),
			p.Name,
			sty.ForStatus(p.Status).Render(p.Status),
			fmt.Sprintf("%d", p.Priority),
			git,
			activity,
		})
	}
	fmt.Fprint(a.Out, table([]string{"ID", "NAME", "STATUS", "PRI", "GIT", "ACTIVITY"}, rows))
	return nil
}

func (a *App) projectAdd(args []string) error {
	fs := flag.NewFlagSet("project add", flag.ContinueOnError)
	name := fs.String("name", "", "project name")
	path := fs.String("path", "", "project directory")
	desc := fs.String("desc", "", "description")
	priority := fs.Int("priority", a.Config.DefaultPriority, "priority 0-100")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *path == "" {
		return fmt.Errorf("--name and --path are required")
	}

	p, err := a.DB.CreateProject(&models.Project{
		Name:        *name,
		Path:        *path,
		Description: *desc,
		Status:      "active",
		Priority:    *priority,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Added project %s (#%d)\n", p.Name, p.ID)
	return nil
}

func (a *App) projectShow(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pm project show <name|id>")
	}
	p, err := a.resolveProject(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out, sty.Title.Render(p.Name))
	if p.Description != "" {
		fmt.Fprintln(a.Out, p.Description)
	}
	fmt.Fprintf(a.Out, "Path:     %s\n", p.Path)
	fmt.Fprintf(a.Out, "Status:   %s\n", sty.ForStatus(p.Status).Render(p.Status))
	fmt.Fprintf(a.Out, "Priority: %d\n", p.Priority)
	if len(p.TechStack) > 0 {
		fmt.Fprintf(a.Out, "Stack:    %s\n", strings.Join(p.TechStack, ", "))
	}
	if p.LastActivityAt != nil {
		fmt.Fprintf(a.Out, "Activity: %s ago\n", fmtAge(*p.LastActivityAt))
	}

	todoCounts, err := a.DB.CountTodosByStatus(p.ID)
	if err != nil {
		return err
	}
	goalCounts, err := a.DB.CountGoalsByStatus(p.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Todos:    %s\n", fmtCounts(todoCounts, models.TodoStatuses))
	fmt.Fprintf(a.Out, "Goals:    %s\n", fmtCounts(goalCounts, models.GoalStatuses))

	score, label, err := a.Metrics.HealthScore(p.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Health:   %.1f %s\n", score, sty.ForHealth(label).Render(label))
	return nil
}

func fmtCounts(counts map[string]int, order []string) string {
	parts := make([]string, 0, len(order))
	for _, s := range order {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func (a *App) projectUpdate(args []string) error {
	fs := flag.NewFlagSet("project update", flag.ContinueOnError)
	status := fs.String("status", "", "new status")
	priority := fs.Int("priority", -1, "new priority 0-100")
	desc := fs.String("desc", "", "new description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: pm project update <name|id> [flags]")
	}
	p, err := a.resolveProject(fs.Arg(0))
	if err != nil {
		return err
	}

	var statusPtr, descPtr *string
	var priorityPtr *int
	if *status != "" {
		statusPtr = status
	}
	if *priority >= 0 {
		priorityPtr = priority
	}
	if *desc != "" {
		descPtr = desc
	}
	if statusPtr == nil && priorityPtr == nil && descPtr == nil {
		return fmt.Errorf("nothing to update")
	}

	if err := a.DB.UpdateProject(p.ID, statusPtr, priorityPtr, descPtr); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Updated project %s\n", p.Name)
	return nil
}

func (a *App) projectRemove(args []string) error {
	fs := flag.NewFlagSet("project remove", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: pm project remove <name|id> [--force]")
	}
	p, err := a.resolveProject(fs.Arg(0))
	if err != nil {
		return err
	}

	if !*force {
		n, err := a.DB.CountTodos(p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Remove %s and its %d todos? [y/N] ", p.Name, n)
		var answer string
		fmt.Fscanln(a.Stdin, &answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(a.Out, "Aborted.")
			return nil
		}
	}

	if err := a.DB.DeleteProject(p.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Removed project %s\n", p.Name)
	return nil
}
