package cli

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"pm/internal/config"
	"pm/internal/db"
	"pm/internal/metrics"
	"pm/internal/models"
)

func testApp(t *testing.T) *App {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "pm.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	return &App{
		DB:      database,
		Config:  cfg,
		Log:     log.New(io.Discard),
		Metrics: metrics.New(database),
	}
}

func TestResolveProject(t *testing.T) {
	app := testApp(t)
	p, err := app.DB.CreateProject(&models.Project{Name: "api", Path: "/tmp/api"})
	if err != nil {
		t.Fatal(err)
	}

	byName, err := app.resolveProject("api")
	if err != nil || byName.ID != p.ID {
		t.Errorf("by name = %v, %v", byName, err)
	}

	byID, err := app.resolveProject("1")
	if err != nil || byID.ID != p.ID {
		t.Errorf("by id = %v, %v", byID, err)
	}

	if _, err := app.resolveProject("nope"); err == nil {
		t.Error("expected error for unknown project")
	}
	if _, err := app.resolveProject(""); err == nil {
		t.Error("expected error for empty reference")
	}
}

func TestTable(t *testing.T) {
	out := table([]string{"ID", "NAME"}, [][]string{
		{"1", "api"},
		{"2", "long-project-name"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[1], "api") || !strings.Contains(lines[2], "long-project-name") {
		t.Errorf("table output:\n%s", out)
	}
}

func TestTableStyledCellWidths(t *testing.T) {
	styled := "\x1b[31mhi\x1b[0m"
	out := table([]string{"STATUS", "NAME"}, [][]string{
		{styled, "api"},
		{"blocked", "web"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if w1, w2 := lipgloss.Width(lines[1]), lipgloss.Width(lines[2]); w1 != w2 {
		t.Errorf("visible row widths differ: %d vs %d\n%s", w1, w2, out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a very long title indeed", 10, "a very ..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
