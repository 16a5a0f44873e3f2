package export

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pm/internal/db"
	"pm/internal/models"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "pm.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func seedProject(t *testing.T, database *db.DB) *models.Project {
	t.Helper()
	p, err := database.CreateProject(&models.Project{
		Name:      "api",
		Path:      "/home/dev/api",
		TechStack: []string{"Go"},
		Priority:  70,
		HasGit:    true,
	})
	if err != nil {
		t.Fatal(err)
	}

	target := models.DateOnly(time.Now().UTC().AddDate(0, 0, 30))
	g, err := database.CreateGoal(&models.Goal{
		ProjectID:  p.ID,
		Title:      "v1 release",
		Category:   "feature",
		Priority:   80,
		TargetDate: &target,
	})
	if err != nil {
		t.Fatal(err)
	}

	due := models.DateOnly(time.Now().UTC().AddDate(0, 0, 7))
	if _, err := database.CreateTodo(&models.Todo{
		ProjectID:      p.ID,
		GoalID:         &g.ID,
		Title:          "ship docs",
		EffortEstimate: "M",
		Tags:           []string{"writing"},
		DueDate:        &due,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := database.InsertCommit(&models.Commit{
		ProjectID:   p.ID,
		SHA:         "abc1234",
		Message:     "start work",
		Author:      "dev <dev@example.com>",
		CommittedAt: time.Now().UTC().Truncate(time.Second),
	}); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExportImportRoundTrip(t *testing.T) {
	source := testDB(t)
	seedProject(t, source)

	var buf bytes.Buffer
	if err := Export(source, "api", &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dest := testDB(t)
	restored, err := Import(dest, &buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if restored.Name != "api" || restored.Priority != 70 || !restored.HasGit {
		t.Errorf("restored project = %+v", restored)
	}

	goals, err := dest.ListGoals(&restored.ID, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 1 || goals[0].Title != "v1 release" || goals[0].TargetDate == nil {
		t.Errorf("restored goals = %+v", goals)
	}

	todos, err := dest.ListTodos(db.TodoFilter{ProjectID: &restored.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 1 {
		t.Fatalf("restored %d todos, want 1", len(todos))
	}
	todo := todos[0]
	if todo.GoalID == nil || *todo.GoalID != goals[0].ID {
		t.Error("todo lost its goal link")
	}
	if todo.EffortEstimate != "M" || len(todo.Tags) != 1 {
		t.Errorf("restored todo = %+v", todo)
	}

	shas, err := dest.ExistingSHAs(restored.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !shas["abc1234"] {
		t.Error("commit not restored")
	}
}

func TestExportUnknownProject(t *testing.T) {
	database := testDB(t)
	var buf bytes.Buffer
	if err := Export(database, "nope", &buf); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestImportDuplicateProject(t *testing.T) {
	source := testDB(t)
	seedProject(t, source)

	var buf bytes.Buffer
	if err := Export(source, "api", &buf); err != nil {
		t.Fatal(err)
	}

	if _, err := Import(source, &buf); !errors.Is(err, db.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestImportValidation(t *testing.T) {
	database := testDB(t)

	tests := []struct {
		name string
		doc  string
	}{
		{"missing version", `{"project": {"name": "x", "path": "/x"}}`},
		{"missing name", `{"version": "1.0", "project": {"path": "/x"}}`},
		{"garbage", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Import(database, strings.NewReader(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestImportCleansUpOnFailure(t *testing.T) {
	database := testDB(t)

	doc := `{
		"version": "1.0",
		"project": {"name": "broken", "path": "/tmp/broken", "status": "active"},
		"todos": [{"title": "bad", "status": "not-a-status"}]
	}`
	if _, err := Import(database, strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for invalid todo status")
	}

	if _, err := database.GetProjectByName("broken"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("half-restored project survived: %v", err)
	}
}
