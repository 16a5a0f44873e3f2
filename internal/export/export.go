// Package export serializes a project with its goals, todos and commits to
// a versioned JSON document and restores such documents into the store.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"pm/internal/db"
	"pm/internal/models"
)

// FormatVersion identifies the export document layout.
const FormatVersion = "1.0"

// Document is a full project backup.
type Document struct {
	Version string       `json:"version"`
	Project ProjectData  `json:"project"`
	Goals   []GoalData   `json:"goals"`
	Todos   []TodoData   `json:"todos"`
	Commits []CommitData `json:"commits"`
}

// ProjectData mirrors models.Project for serialization.
type ProjectData struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Description string   `json:"description,omitempty"`
	TechStack   []string `json:"tech_stack,omitempty"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
	HasGit      bool     `json:"has_git"`
}

// GoalData mirrors models.Goal for serialization.
type GoalData struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
	Status      string `json:"status"`
	TargetDate  string `json:"target_date,omitempty"`
}

// TodoData mirrors models.Todo for serialization. Goals are referenced by
// title since IDs are not stable across stores.
type TodoData struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	GoalTitle      string   `json:"goal_title,omitempty"`
	Status         string   `json:"status"`
	EffortEstimate string   `json:"effort_estimate,omitempty"`
	DueDate        string   `json:"due_date,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// CommitData mirrors models.Commit for serialization.
type CommitData struct {
	SHA          string    `json:"sha"`
	Message      string    `json:"message"`
	Author       string    `json:"author"`
	CommittedAt  time.Time `json:"committed_at"`
	FilesChanged int       `json:"files_changed"`
	Insertions   int       `json:"insertions"`
	Deletions    int       `json:"deletions"`
}

// Export writes a project backup document to w.
func Export(database *db.DB, projectName string, w io.Writer) error {
	project, err := database.GetProjectByName(projectName)
	if err != nil {
		return err
	}

	goals, err := database.ListGoals(&project.ID, "", 0)
	if err != nil {
		return err
	}
	todos, err := database.ListTodos(db.TodoFilter{ProjectID: &project.ID})
	if err != nil {
		return err
	}
	commits, err := database.CommitsSince(project.ID, time.Time{})
	if err != nil {
		return err
	}

	goalTitles := make(map[int64]string, len(goals))
	for i := range goals {
		goalTitles[goals[i].ID] = goals[i].Title
	}

	doc := Document{
		Version: FormatVersion,
		Project: ProjectData{
			Name:        project.Name,
			Path:        project.Path,
			Description: project.Description,
			TechStack:   project.TechStack,
			Status:      project.Status,
			Priority:    project.Priority,
			HasGit:      project.HasGit,
		},
	}

	for i := range goals {
		g := GoalData{
			Title:       goals[i].Title,
			Description: goals[i].Description,
			Category:    goals[i].Category,
			Priority:    goals[i].Priority,
			Status:      goals[i].Status,
		}
		if goals[i].TargetDate != nil {
			g.TargetDate = goals[i].TargetDate.Format("2006-01-02")
		}
		doc.Goals = append(doc.Goals, g)
	}

	for i := range todos {
		t := TodoData{
			Title:          todos[i].Title,
			Description:    todos[i].Description,
			Status:         todos[i].Status,
			EffortEstimate: todos[i].EffortEstimate,
			Tags:           todos[i].Tags,
		}
		if todos[i].GoalID != nil {
			t.GoalTitle = goalTitles[*todos[i].GoalID]
		}
		if todos[i].DueDate != nil {
			t.DueDate = todos[i].DueDate.Format("2006-01-02")
		}
		doc.Todos = append(doc.Todos, t)
	}

	for i := range commits {
		doc.Commits = append(doc.Commits, CommitData{
			SHA:          commits[i].SHA,
			Message:      commits[i].Message,
			Author:       commits[i].Author,
			CommittedAt:  commits[i].CommittedAt,
			FilesChanged: commits[i].FilesChanged,
			Insertions:   commits[i].Insertions,
			Deletions:    commits[i].Deletions,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Import reads a backup document from r and recreates the project. A
// project with the same name or path fails with ErrDuplicate and nothing
// is written.
func Import(database *db.DB, r io.Reader) (*models.Project, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export document: %w", err)
	}
	if err := validate(&doc); err != nil {
		return nil, err
	}

	project, err := database.CreateProject(&models.Project{
		Name:        doc.Project.Name,
		Path:        doc.Project.Path,
		Description: doc.Project.Description,
		TechStack:   doc.Project.TechStack,
		Status:      doc.Project.Status,
		Priority:    doc.Project.Priority,
		HasGit:      doc.Project.HasGit,
	})
	if err != nil {
		return nil, err
	}

	// A failure past this point must not leave a half-restored project
	fail := func(err error) (*models.Project, error) {
		database.DeleteProject(project.ID)
		return nil, err
	}

	// Restore goals first so todos can link by title
	goalIDs := make(map[string]int64, len(doc.Goals))
	for _, g := range doc.Goals {
		goal := &models.Goal{
			ProjectID:   project.ID,
			Title:       g.Title,
			Description: g.Description,
			Category:    g.Category,
			Priority:    g.Priority,
			Status:      g.Status,
		}
		if g.TargetDate != "" {
			d, err := models.ParseDate(g.TargetDate)
			if err != nil {
				return fail(err)
			}
			goal.TargetDate = &d
		}
		created, err := database.CreateGoal(goal)
		if err != nil {
			return fail(err)
		}
		goalIDs[created.Title] = created.ID
	}

	for _, t := range doc.Todos {
		todo := &models.Todo{
			ProjectID:      project.ID,
			Title:          t.Title,
			Description:    t.Description,
			Status:         t.Status,
			EffortEstimate: t.EffortEstimate,
			Tags:           t.Tags,
		}
		if t.GoalTitle != "" {
			if id, ok := goalIDs[t.GoalTitle]; ok {
				todo.GoalID = &id
			}
		}
		if t.DueDate != "" {
			d, err := models.ParseDate(t.DueDate)
			if err != nil {
				return fail(err)
			}
			todo.DueDate = &d
		}
		if _, err := database.CreateTodo(todo); err != nil {
			return fail(err)
		}
	}

	for _, c := range doc.Commits {
		if _, err := database.InsertCommit(&models.Commit{
			ProjectID:    project.ID,
			SHA:          c.SHA,
			Message:      c.Message,
			Author:       c.Author,
			CommittedAt:  c.CommittedAt,
			FilesChanged: c.FilesChanged,
			Insertions:   c.Insertions,
			Deletions:    c.Deletions,
		}); err != nil {
			return fail(err)
		}
	}

	return project, nil
}

func validate(doc *Document) error {
	if doc.Version == "" {
		return fmt.Errorf("missing required key: version")
	}
	if doc.Project.Name == "" || doc.Project.Path == "" {
		return fmt.Errorf("project requires name and path")
	}
	return nil
}
